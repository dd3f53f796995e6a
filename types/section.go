package types

import (
	"text2phenotype.com/qde/vocabulary"
)

// NoteSection is one visit-level slice of the note blob together with its
// provenance. Sections are created by the splitter and never modified.
type NoteSection struct {
	Span
	Index      int                    `json:"index"`
	Specialist *vocabulary.Specialist `json:"-"`
	Specialty  string                 `json:"specialty,omitempty"`
	Provider   string                 `json:"provider,omitempty"`
	Date       Date                   `json:"date"`
	DateText   string                 `json:"date_text,omitempty"`
}

// Priority is the credibility rank of the section author, UnknownPriority
// when no specialist was detected.
func (section NoteSection) Priority() int {
	if section.Specialist == nil {
		return vocabulary.UnknownPriority
	}
	return section.Specialist.Priority
}
