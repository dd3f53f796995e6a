package pipeline

import (
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"fmt"
	"strings"
)

const (
	reasonInputTooShort = "Input text is too short to analyze."
	reasonNoEvidence    = "No clinically relevant evidence was found in the provided notes."
)

// DecisionEngine applies the qualification guard chain to resolved findings.
// detections are all findings before resolution; they feed citations and the
// reason given when nothing is confirmed.
type DecisionEngine func(resolved []types.DetectedFinding, conflicts []types.ConflictRecord, detections []types.DetectedFinding) types.QualificationResult

type evidence struct {
	history, structural, symptoms, riskFactors int
	totalWeight                                int
	primary                                    *types.DetectedFinding
	hasHighPrioritySource                      bool
	hasUncertain                               bool
}

func NewDecisionEngine(rules types.DecisionRules) DecisionEngine {
	return func(resolved []types.DetectedFinding, conflicts []types.ConflictRecord, detections []types.DetectedFinding) types.QualificationResult {
		if conflicts == nil {
			conflicts = make([]types.ConflictRecord, 0)
		}

		var confirmed []types.DetectedFinding
		for _, finding := range resolved {
			if finding.IsPresent && finding.IsExplicitlyConfirmed {
				confirmed = append(confirmed, finding)
			}
		}

		if len(confirmed) == 0 {
			return types.QualificationResult{
				Status:             types.StatusInsufficientInformation,
				SupportingFindings: make([]string, 0),
				Citations:          make([]types.Citation, 0),
				Conflicts:          conflicts,
				Confidence:         types.ConfidenceLow,
				Reason:             insufficientReason(detections),
			}
		}

		ev := collectEvidence(confirmed, resolved, rules.HighPriorityMax)
		hasConflicts := len(conflicts) > 0

		result := types.QualificationResult{
			SupportingFindings: termNames(confirmed),
			Citations:          citations(confirmed, detections),
			Conflicts:          conflicts,
			Confidence:         confidenceLevel(ev.hasHighPrioritySource, hasConflicts),
		}
		primary := ev.primary.Term
		result.PrimaryIndication = &primary

		switch {
		case ev.history > 0 || ev.structural > 0:
			result.Status = types.StatusQualified
		case ev.symptoms >= rules.MinSymptoms:
			result.Status = types.StatusQualified
		case ev.symptoms >= 1 && ev.hasHighPrioritySource:
			result.Status = types.StatusQualified
		case ev.riskFactors >= rules.MinRiskFactorsAndSymptom && ev.symptoms >= 1:
			result.Status = types.StatusQualified
		case hasConflicts,
			ev.symptoms == 1,
			ev.riskFactors >= rules.MinRiskFactorsForReview && ev.totalWeight >= rules.MinWeightForReview,
			ev.hasUncertain:
			result.Status = types.StatusReviewNeeded
			result.Confidence = types.ConfidenceLow
		default:
			result.Status = types.StatusNotQualified
			result.PrimaryIndication = nil
		}
		return result
	}
}

func collectEvidence(confirmed []types.DetectedFinding, resolved []types.DetectedFinding, highPriorityMax int) evidence {
	var ev evidence
	for i, finding := range confirmed {
		switch finding.Category {
		case vocabulary.CategoryHistory:
			ev.history++
		case vocabulary.CategoryFinding:
			ev.structural++
		case vocabulary.CategorySymptom:
			ev.symptoms++
		case vocabulary.CategoryRiskFactor:
			ev.riskFactors++
		}
		ev.totalWeight += finding.Weight
		// strictly greater: the earlier vocabulary entry keeps a tie
		if ev.primary == nil || finding.Weight > ev.primary.Weight {
			ev.primary = &confirmed[i]
		}
		if finding.Priority <= highPriorityMax {
			ev.hasHighPrioritySource = true
		}
	}
	for _, finding := range resolved {
		if finding.IsUncertain {
			ev.hasUncertain = true
		}
	}
	return ev
}

func confidenceLevel(hasHighPrioritySource bool, hasConflicts bool) types.ConfidenceLevel {
	switch {
	case hasHighPrioritySource && !hasConflicts:
		return types.ConfidenceHigh
	case hasConflicts && !hasHighPrioritySource:
		return types.ConfidenceLow
	default:
		return types.ConfidenceMedium
	}
}

func insufficientReason(detections []types.DetectedFinding) string {
	var uncertain, negated []types.DetectedFinding
	for _, finding := range detections {
		if finding.IsUncertain && !finding.IsNegated {
			uncertain = append(uncertain, finding)
		}
		if finding.IsNegated {
			negated = append(negated, finding)
		}
	}

	switch {
	case len(uncertain) > 0:
		return fmt.Sprintf("Uncertain findings require explicit confirmation: %s.", strings.Join(termNames(uncertain), ", "))
	case len(detections) > 0 && len(negated) == len(detections):
		return fmt.Sprintf("Only denied or negated findings were documented: %s.", strings.Join(termNames(negated), ", "))
	default:
		return reasonNoEvidence
	}
}

func termNames(findings []types.DetectedFinding) []string {
	names := make([]string, 0, len(findings))
	seen := make(map[string]bool, len(findings))
	for _, finding := range findings {
		if seen[finding.Term] {
			continue
		}
		seen[finding.Term] = true
		names = append(names, finding.Term)
	}
	return names
}

// citations keeps, per confirmed term, the present detection with the best
// specialist priority.
func citations(confirmed []types.DetectedFinding, detections []types.DetectedFinding) []types.Citation {
	best := make(map[string]types.DetectedFinding, len(confirmed))
	for _, finding := range confirmed {
		best[finding.Term] = finding
	}
	for _, detection := range detections {
		current, ok := best[detection.Term]
		if !ok || !detection.IsPresent {
			continue
		}
		if detection.Priority < current.Priority {
			best[detection.Term] = detection
		}
	}

	result := make([]types.Citation, 0, len(confirmed))
	for _, name := range termNames(confirmed) {
		finding := best[name]
		result = append(result, types.Citation{
			Finding:   finding.Term,
			Specialty: finding.SpecialtyLabel(),
			Provider:  finding.Provider,
			Date:      finding.Date,
			DateText:  finding.DateText,
			Priority:  finding.Priority,
		})
	}
	return result
}
