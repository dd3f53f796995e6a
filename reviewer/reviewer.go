// Package reviewer asks an external generative model for a second opinion on
// a note blob. Its answer is validated strictly; callers fall back to the rule
// engine on any error.
package reviewer

import (
	"text2phenotype.com/qde/logger"
	"text2phenotype.com/qde/types"
	"context"
	"errors"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"strings"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Reviewer interface {
	Name() string
	// Review returns the reviewer's assessment of notes. terms is the closed
	// list of finding names the reviewer may report.
	Review(ctx context.Context, notes string, terms []string) (types.ReviewAssessment, error)
}

type Config struct {
	Provider    string        `envconfig:"QDE_REVIEWER_PROVIDER" default:""`
	APIKey      string        `envconfig:"QDE_REVIEWER_API_KEY"`
	Model       string        `envconfig:"QDE_REVIEWER_MODEL"`
	BaseURL     string        `envconfig:"QDE_REVIEWER_BASE_URL"`
	Timeout     time.Duration `envconfig:"QDE_REVIEWER_TIMEOUT" default:"60s"`
	MaxTokens   int           `envconfig:"QDE_REVIEWER_MAX_TOKENS" default:"2048"`
	MaxAttempts int           `envconfig:"QDE_REVIEWER_MAX_ATTEMPTS" default:"3"`
}

func ConfigFromEnv() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

var ErrMissingAPIKey = errors.New("reviewer: api key is required")

// New builds the configured reviewer. An empty provider disables the
// reviewer and returns nil without error.
func New(cfg Config) (Reviewer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return nil, nil
	case ProviderAnthropic, "claude":
		return NewAnthropicReviewer(cfg)
	case ProviderOpenAI:
		return NewOpenAIReviewer(cfg)
	default:
		return nil, fmt.Errorf("reviewer: unknown provider %q (supported: %s, %s)", cfg.Provider, ProviderAnthropic, ProviderOpenAI)
	}
}

// completer sends one prompt and returns the raw model text.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// llmReviewer runs the prompt, parse and validate loop shared by providers.
type llmReviewer struct {
	name        string
	model       string
	completer   completer
	timeout     time.Duration
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

func newLLMReviewer(name string, model string, c completer, cfg Config) *llmReviewer {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &llmReviewer{
		name:        name,
		model:       model,
		completer:   c,
		timeout:     cfg.Timeout,
		maxAttempts: attempts,
		backoff:     backoffDelay,
	}
}

func (r *llmReviewer) Name() string {
	return r.name
}

func (r *llmReviewer) Review(ctx context.Context, notes string, terms []string) (types.ReviewAssessment, error) {
	qdeLogger := logger.NewLogger("Reviewer").With().Str("provider", r.name).Logger()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(notes, terms)
	feedback := ""
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		raw, err := r.completer.complete(ctx, fullPrompt)
		if err != nil {
			lastErr = fmt.Errorf("%s transport failure: %w", r.name, err)
			if Classify(err).Retryable() && attempt < r.maxAttempts {
				qdeLogger.Warn().Err(err).Int("attempt", attempt).Msg("Reviewer call failed, retrying")
				if !sleep(ctx, r.backoff(attempt)) {
					return types.ReviewAssessment{}, lastErr
				}
				continue
			}
			return types.ReviewAssessment{}, lastErr
		}

		assessment, err := ParseAssessment(raw, terms)
		if err != nil {
			lastErr = fmt.Errorf("%s response rejected: %w", r.name, err)
			feedback = fmt.Sprintf("Your previous response was rejected: %s. Respond with only valid JSON matching the schema.", err)
			qdeLogger.Warn().Err(err).Int("attempt", attempt).Msg("Reviewer response rejected")
			continue
		}
		assessment.Model = r.model
		return assessment, nil
	}
	return types.ReviewAssessment{}, lastErr
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
