package types

import (
	"text2phenotype.com/qde/logger"
	"text2phenotype.com/qde/negation"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

type ConfidenceParams struct {
	Mention         float64 `yaml:"mention" json:"mention"`
	Uncertain       float64 `yaml:"uncertain" json:"uncertain"`
	Negated         float64 `yaml:"negated" json:"negated"`
	Present         float64 `yaml:"present" json:"present"`
	SpecialistBonus float64 `yaml:"specialist_bonus" json:"specialist_bonus"`
	PriorityScale   float64 `yaml:"priority_scale" json:"priority_scale"`
}

// DecisionRules are the count and weight thresholds of the qualification
// guard chain.
type DecisionRules struct {
	HighPriorityMax          int `yaml:"high_priority_max" json:"high_priority_max"`
	MinSymptoms              int `yaml:"min_symptoms" json:"min_symptoms"`
	MinRiskFactorsAndSymptom int `yaml:"min_risk_factors_and_symptom" json:"min_risk_factors_and_symptom"`
	MinRiskFactorsForReview  int `yaml:"min_risk_factors_for_review" json:"min_risk_factors_for_review"`
	MinWeightForReview       int `yaml:"min_weight_for_review" json:"min_weight_for_review"`
}

// Params holds every tunable threshold of the engine.
type Params struct {
	MinInputLength      int              `yaml:"min_input_length" json:"min_input_length"`
	MinSectionLength    int              `yaml:"min_section_length" json:"min_section_length"`
	ContextRadius       int              `yaml:"context_radius" json:"context_radius"`
	RecencyWindowMonths int              `yaml:"recency_window_months" json:"recency_window_months"`
	Windows             negation.Windows `yaml:"windows" json:"windows"`
	Confidence          ConfidenceParams `yaml:"confidence" json:"confidence"`
	Rules               DecisionRules    `yaml:"rules" json:"rules"`
	// directory of one-cue-per-line files overriding the built-in cue lists
	CuesPath string `yaml:"cues_path" json:"cues_path"`
}

func DefaultParams() Params {
	return Params{
		MinInputLength:      20,
		MinSectionLength:    50,
		ContextRadius:       100,
		RecencyWindowMonths: 6,
		Windows:             negation.DefaultWindows(),
		Confidence: ConfidenceParams{
			Mention:         0.3,
			Uncertain:       0.4,
			Negated:         0.85,
			Present:         0.9,
			SpecialistBonus: 0.1,
			PriorityScale:   5,
		},
		Rules: DecisionRules{
			HighPriorityMax:          2,
			MinSymptoms:              2,
			MinRiskFactorsAndSymptom: 3,
			MinRiskFactorsForReview:  2,
			MinWeightForReview:       6,
		},
	}
}

// LoadParams reads a YAML file over DefaultParams; keys missing from the file
// keep their defaults. An empty path returns the defaults.
func LoadParams(filePath string) (Params, error) {
	qdeLogger := logger.NewLogger("LoadParams")

	params := DefaultParams()
	if filePath == "" {
		return params, nil
	}

	buf, err := os.ReadFile(filePath)
	if err != nil {
		return Params{}, err
	}
	if err := yaml.Unmarshal(buf, &params); err != nil {
		return Params{}, fmt.Errorf("params %s: %w", filePath, err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, fmt.Errorf("params %s: %w", filePath, err)
	}

	qdeLogger.Info().Str("path", filePath).Interface("params", params).Msg("engine params loaded")
	return params, nil
}

func (params Params) Validate() error {
	switch {
	case params.MinInputLength < 0, params.MinSectionLength < 0, params.ContextRadius < 0:
		return fmt.Errorf("lengths must not be negative")
	case params.Windows.Negation < 0, params.Windows.Uncertainty < 0,
		params.Windows.Presence < 0, params.Windows.TrailingNegation < 0:
		return fmt.Errorf("context windows must not be negative")
	case params.RecencyWindowMonths < 0:
		return fmt.Errorf("recency window must not be negative")
	case params.Confidence.PriorityScale <= 0:
		return fmt.Errorf("priority scale must be positive")
	}
	return nil
}
