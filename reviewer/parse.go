package reviewer

import (
	"text2phenotype.com/qde/types"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseAssessment decodes and validates a raw model answer. Finding names are
// matched case-insensitively against terms and rewritten to their canonical
// spelling.
func ParseAssessment(raw string, terms []string) (types.ReviewAssessment, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return types.ReviewAssessment{}, ErrEmptyResponse
	}

	var assessment types.ReviewAssessment
	if err := json.Unmarshal([]byte(clean), &assessment); err != nil {
		return types.ReviewAssessment{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	canonical := make(map[string]string, len(terms))
	for _, term := range terms {
		canonical[strings.ToLower(term)] = term
	}

	var err error
	if assessment.ConfirmedFindings, err = canonicalize(assessment.ConfirmedFindings, canonical); err != nil {
		return types.ReviewAssessment{}, err
	}
	if assessment.NegatedFindings, err = canonicalize(assessment.NegatedFindings, canonical); err != nil {
		return types.ReviewAssessment{}, err
	}
	if assessment.UncertainFindings, err = canonicalize(assessment.UncertainFindings, canonical); err != nil {
		return types.ReviewAssessment{}, err
	}
	if assessment.Warnings == nil {
		assessment.Warnings = make([]string, 0)
	}

	if !assessment.Status.Valid() {
		return types.ReviewAssessment{}, fmt.Errorf("%w: %q", ErrInvalidStatus, assessment.Status)
	}
	if !assessment.Confidence.Valid() {
		assessment.Confidence = types.ConfidenceLow
	}

	confirmed := make(map[string]bool, len(assessment.ConfirmedFindings))
	for _, name := range assessment.ConfirmedFindings {
		confirmed[name] = true
	}
	for _, name := range append(append([]string(nil), assessment.NegatedFindings...), assessment.UncertainFindings...) {
		if confirmed[name] {
			return types.ReviewAssessment{}, fmt.Errorf("%w: %s", ErrContradiction, name)
		}
	}

	if len(confirmed) == 0 && assessment.Status != types.StatusInsufficientInformation {
		return types.ReviewAssessment{}, fmt.Errorf("%w: %s without confirmed findings", ErrUnsupportedStatus, assessment.Status)
	}
	if assessment.PrimaryIndication != nil {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(*assessment.PrimaryIndication))]
		if !ok || !confirmed[name] {
			return types.ReviewAssessment{}, fmt.Errorf("%w: primary indication %q is not a confirmed finding", ErrUnsupportedStatus, *assessment.PrimaryIndication)
		}
		assessment.PrimaryIndication = &name
	}
	return assessment, nil
}

func canonicalize(names []string, canonical map[string]string) ([]string, error) {
	result := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		term, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFinding, name)
		}
		if seen[term] {
			continue
		}
		seen[term] = true
		result = append(result, term)
	}
	return result, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}
