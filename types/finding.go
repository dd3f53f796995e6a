package types

import (
	"text2phenotype.com/qde/vocabulary"
)

// Assessment labels how a source describes a term.
type Assessment string

const (
	AssessmentPresent   Assessment = "Present"
	AssessmentAbsent    Assessment = "Absent/Denied"
	AssessmentNegated   Assessment = "Negated"
	AssessmentUncertain Assessment = "Uncertain"
	AssessmentMentioned Assessment = "Mentioned"
)

// DetectedFinding is one occurrence of a vocabulary term in one section.
type DetectedFinding struct {
	Term                  string              `json:"term"`
	Category              vocabulary.Category `json:"category"`
	Weight                int                 `json:"weight"`
	MatchedText           string              `json:"matched_text"`
	Span                  Span                `json:"span"`
	IsPresent             bool                `json:"is_present"`
	IsNegated             bool                `json:"is_negated"`
	IsUncertain           bool                `json:"is_uncertain"`
	IsExplicitlyConfirmed bool                `json:"is_explicitly_confirmed"`
	Context               string              `json:"context"`
	Specialty             string              `json:"specialty,omitempty"`
	Priority              int                 `json:"priority"`
	Provider              string              `json:"provider,omitempty"`
	Date                  Date                `json:"date"`
	DateText              string              `json:"date_text,omitempty"`
	Confidence            float64             `json:"confidence"`
	Section               int                 `json:"section"`

	// scan order inside the section, used for stable tie-breaking
	TermIndex int `json:"-"`
}

func (finding DetectedFinding) Assessment() Assessment {
	switch {
	case finding.IsPresent:
		return AssessmentPresent
	case finding.IsNegated:
		return AssessmentNegated
	case finding.IsUncertain:
		return AssessmentUncertain
	default:
		return AssessmentMentioned
	}
}

// SpecialtyLabel is the specialty name used in conflict and citation output.
func (finding DetectedFinding) SpecialtyLabel() string {
	if finding.Specialty == "" {
		return "Unknown"
	}
	return finding.Specialty
}
