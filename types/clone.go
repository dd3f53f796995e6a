package types

import (
	"slices"
)

// Clone copies every slice and pointer a caller could modify. Specialists
// stay shared since vocabulary tables are immutable.
func (response AnalysisResponse) Clone() AnalysisResponse {
	clone := response
	clone.Analysis = response.Analysis.Clone()
	clone.Final = response.Final.Clone()
	clone.Warnings = slices.Clone(response.Warnings)
	if response.Review != nil {
		review := response.Review.Clone()
		clone.Review = &review
	}
	return clone
}

func (analysis Analysis) Clone() Analysis {
	clone := analysis
	clone.Result = analysis.Result.Clone()
	clone.Providers = slices.Clone(analysis.Providers)
	clone.Sections = slices.Clone(analysis.Sections)
	clone.Findings = slices.Clone(analysis.Findings)
	return clone
}

func (result QualificationResult) Clone() QualificationResult {
	clone := result
	clone.PrimaryIndication = cloneString(result.PrimaryIndication)
	clone.SupportingFindings = slices.Clone(result.SupportingFindings)
	clone.Citations = slices.Clone(result.Citations)
	if result.Conflicts != nil {
		clone.Conflicts = make([]ConflictRecord, len(result.Conflicts))
		for i, conflict := range result.Conflicts {
			clone.Conflicts[i] = ConflictRecord{Term: conflict.Term, Sources: slices.Clone(conflict.Sources)}
		}
	}
	return clone
}

func (review ReviewAssessment) Clone() ReviewAssessment {
	clone := review
	clone.ConfirmedFindings = slices.Clone(review.ConfirmedFindings)
	clone.NegatedFindings = slices.Clone(review.NegatedFindings)
	clone.UncertainFindings = slices.Clone(review.UncertainFindings)
	clone.PrimaryIndication = cloneString(review.PrimaryIndication)
	clone.Warnings = slices.Clone(review.Warnings)
	return clone
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
