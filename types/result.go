package types

type Status string

const (
	StatusQualified               Status = "Qualified"
	StatusNotQualified            Status = "NotQualified"
	StatusReviewNeeded            Status = "ReviewNeeded"
	StatusInsufficientInformation Status = "InsufficientInformation"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQualified, StatusNotQualified, StatusReviewNeeded, StatusInsufficientInformation:
		return true
	}
	return false
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

func (c ConfidenceLevel) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

type ConflictSource struct {
	Specialty  string     `json:"specialty"`
	Assessment Assessment `json:"assessment"`
	Date       Date       `json:"date"`
	DateText   string     `json:"date_text,omitempty"`
}

// ConflictRecord is a disagreement the resolver could not settle by
// credibility or recency.
type ConflictRecord struct {
	Term    string           `json:"term"`
	Sources []ConflictSource `json:"sources"`
}

type Citation struct {
	Finding   string `json:"finding"`
	Specialty string `json:"specialty"`
	Provider  string `json:"provider,omitempty"`
	Date      Date   `json:"date"`
	DateText  string `json:"date_text,omitempty"`
	Priority  int    `json:"priority"`
}

type QualificationResult struct {
	Status             Status           `json:"status"`
	PrimaryIndication  *string          `json:"primary_indication"`
	SupportingFindings []string         `json:"supporting_findings"`
	Citations          []Citation       `json:"citations"`
	Conflicts          []ConflictRecord `json:"conflicts"`
	Confidence         ConfidenceLevel  `json:"confidence"`
	Reason             string           `json:"reason,omitempty"`
}

// Analysis is everything the rule engine derives from one note blob.
type Analysis struct {
	Result           QualificationResult `json:"result"`
	MRN              string              `json:"mrn,omitempty"`
	OrderingProvider string              `json:"ordering_provider,omitempty"`
	Providers        []string            `json:"providers"`
	Sections         []NoteSection       `json:"sections"`
	Findings         []DetectedFinding   `json:"findings"`
}
