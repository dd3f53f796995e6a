package types

const (
	SourceRules    = "rules"
	SourceReviewer = "reviewer"
)

// ReviewAssessment is the structured answer of the external reviewer.
type ReviewAssessment struct {
	ConfirmedFindings []string        `json:"confirmed_findings"`
	NegatedFindings   []string        `json:"negated_findings"`
	UncertainFindings []string        `json:"uncertain_findings"`
	Status            Status          `json:"qualification_status"`
	PrimaryIndication *string         `json:"primary_indication"`
	Confidence        ConfidenceLevel `json:"confidence"`
	Reasoning         string          `json:"reasoning"`
	Warnings          []string        `json:"warnings"`
	Model             string          `json:"model,omitempty"`
}

// AnalysisResponse is the document handed to callers and persisted by the
// batch worker. Final is the reviewer's verdict when Source is reviewer;
// Analysis.Result always keeps the rule engine baseline.
type AnalysisResponse struct {
	Analysis
	Final             QualificationResult `json:"final"`
	Source            string              `json:"source"`
	Review            *ReviewAssessment   `json:"review,omitempty"`
	Warnings          []string            `json:"warnings"`
	VocabularyVersion string              `json:"vocabulary_version"`
	AsOf              Date                `json:"as_of"`
}
