// Package qualification is the boundary the rest of the system talks to. It
// applies the input contract, runs the rule engine, optionally consults the
// external reviewer, and caches responses.
package qualification

import (
	"text2phenotype.com/qde/logger"
	"text2phenotype.com/qde/metrics"
	"text2phenotype.com/qde/pipeline"
	"text2phenotype.com/qde/reviewer"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/utils"
	"context"
	"fmt"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type Request struct {
	Text string     `json:"text"`
	AsOf *time.Time `json:"as_of,omitempty"`
	Tid  string     `json:"tid,omitempty"`
	// SkipReview keeps the external reviewer out of this request.
	SkipReview bool `json:"skip_review,omitempty"`
}

type Options struct {
	CacheTTL        time.Duration `envconfig:"QDE_CACHE_TTL" default:"10m"`
	CacheCleanup    time.Duration `envconfig:"QDE_CACHE_CLEANUP" default:"1m"`
	ReviewerTimeout time.Duration `envconfig:"QDE_REVIEWER_DEADLINE" default:"90s"`
}

type Service struct {
	engine   *pipeline.Engine
	reviewer reviewer.Reviewer
	cache    *gocache.Cache
	options  Options
	now      func() time.Time
}

// NewService wires the engine with an optional reviewer; rev may be nil. A
// zero CacheTTL disables caching.
func NewService(engine *pipeline.Engine, rev reviewer.Reviewer, options Options) *Service {
	service := &Service{
		engine:   engine,
		reviewer: rev,
		options:  options,
		now:      time.Now,
	}
	if options.CacheTTL > 0 {
		service.cache = gocache.New(options.CacheTTL, options.CacheCleanup)
	}
	return service
}

func (service *Service) VocabularyVersion() string {
	return service.engine.Vocabulary().Version()
}

// Analyze never fails: blank or short text is answered with
// InsufficientInformation, and engine panics and reviewer errors become
// warnings on the returned response. The response may be modified by the
// caller; cached entries are copied in and out.
func (service *Service) Analyze(ctx context.Context, request Request) types.AnalysisResponse {
	qdeLogger := logger.NewLogger("Qualification service").With().Str("tid", request.Tid).Logger()
	errLogger := qdeLogger.With().Caller().Logger()
	start := time.Now()

	asOf := service.asOf(request.AsOf)
	version := service.engine.Vocabulary().Version()
	useReviewer := service.reviewer != nil && !request.SkipReview &&
		!service.engine.TooShort(request.Text)

	key := cacheKey(request.Text, asOf, version, useReviewer)
	if service.cache != nil {
		if cached, ok := service.cache.Get(key); ok {
			metrics.RecordCacheLookup(true)
			qdeLogger.Debug().Msg("Serving cached analysis")
			return cached.(types.AnalysisResponse).Clone()
		}
		metrics.RecordCacheLookup(false)
	}

	response := types.AnalysisResponse{
		Source:   types.SourceRules,
		Warnings: make([]string, 0),
		AsOf:     types.NewDate(asOf),
	}

	analysis, usedVersion, err := service.runEngine(request, asOf)
	if err != nil {
		errLogger.Err(err).Msg("Rule engine failed, returning review fallback")
		response.Analysis = engineFailure()
		response.Final = response.Result
		response.VocabularyVersion = version
		response.Warnings = append(response.Warnings, fmt.Sprintf("rule engine failed: %v", err))
		metrics.RecordAnalysis(string(response.Final.Status), response.Source, 0, time.Since(start))
		return response
	}
	response.Analysis = analysis
	response.Final = analysis.Result
	response.VocabularyVersion = usedVersion

	cacheable := true
	if useReviewer {
		cacheable = service.review(ctx, request, &response)
	}

	metrics.RecordAnalysis(string(response.Final.Status), response.Source, len(analysis.Result.Conflicts), time.Since(start))
	qdeLogger.Info().
		Str("status", string(response.Final.Status)).
		Str("source", response.Source).
		Int("warnings", len(response.Warnings)).
		Msg("Analysis finished")

	if service.cache != nil && cacheable {
		service.cache.SetDefault(key, response.Clone())
	}
	return response
}

func (service *Service) runEngine(request Request, asOf time.Time) (analysis types.Analysis, version string, err error) {
	defer utils.RecoverWithError(&err)
	analysis, version = service.engine.Run(pipeline.Request{Text: request.Text, Tid: request.Tid, AsOf: asOf})
	return analysis, version, nil
}

func (service *Service) callReviewer(ctx context.Context, text string, terms []string) (assessment types.ReviewAssessment, err error) {
	defer utils.RecoverWithError(&err)
	return service.reviewer.Review(ctx, text, terms)
}

// review lets a valid reviewer answer supersede the rule engine result; the
// engine baseline stays in response.Result either way. It reports false when
// the reviewer failed.
func (service *Service) review(ctx context.Context, request Request, response *types.AnalysisResponse) bool {
	qdeLogger := logger.NewLogger("Qualification service").With().Str("tid", request.Tid).Logger()

	if service.options.ReviewerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, service.options.ReviewerTimeout)
		defer cancel()
	}

	vocab := service.engine.Vocabulary()
	terms := make([]string, 0)
	for _, entry := range vocab.Terms() {
		terms = append(terms, entry.Term.Name)
	}

	assessment, err := service.callReviewer(ctx, request.Text, terms)
	if err != nil {
		failure := reviewer.Classify(err)
		qdeLogger.Warn().Err(err).Str("failure", string(failure)).Msg("Reviewer failed, using rule engine result")
		metrics.RecordReviewerFallback(service.reviewer.Name(), string(failure))
		response.Warnings = append(response.Warnings,
			fmt.Sprintf("external reviewer unavailable (%s), rule engine result returned", failure))
		return false
	}

	response.Review = &assessment
	response.Source = types.SourceReviewer
	response.Final = fromReview(assessment, response.Result)

	if assessment.Status != response.Result.Status {
		response.Warnings = append(response.Warnings,
			fmt.Sprintf("reviewer status %s differs from rule engine status %s", assessment.Status, response.Result.Status))
	}
	for _, warning := range assessment.Warnings {
		response.Warnings = append(response.Warnings, "reviewer: "+warning)
	}
	return true
}

func fromReview(assessment types.ReviewAssessment, baseline types.QualificationResult) types.QualificationResult {
	confirmed := make(map[string]bool, len(assessment.ConfirmedFindings))
	for _, name := range assessment.ConfirmedFindings {
		confirmed[name] = true
	}
	citations := make([]types.Citation, 0)
	for _, citation := range baseline.Citations {
		if confirmed[citation.Finding] {
			citations = append(citations, citation)
		}
	}

	result := types.QualificationResult{
		Status:             assessment.Status,
		PrimaryIndication:  assessment.PrimaryIndication,
		SupportingFindings: append(make([]string, 0, len(assessment.ConfirmedFindings)), assessment.ConfirmedFindings...),
		Citations:          citations,
		Conflicts:          baseline.Conflicts,
		Confidence:         assessment.Confidence,
	}
	if assessment.Status == types.StatusInsufficientInformation {
		result.Reason = assessment.Reasoning
	}
	return result
}

func (service *Service) asOf(requested *time.Time) time.Time {
	t := service.now()
	if requested != nil && !requested.IsZero() {
		t = *requested
	}
	return types.NewDate(t.UTC()).Time
}

func cacheKey(text string, asOf time.Time, version string, reviewed bool) string {
	mode := "rules"
	if reviewed {
		mode = "reviewed"
	}
	hash := utils.HashBytes([]byte(text), []byte(asOf.Format(types.DateLayout)), []byte(version), []byte(mode))
	return fmt.Sprintf("%016x", hash)
}

func engineFailure() types.Analysis {
	return types.Analysis{
		Result: types.QualificationResult{
			Status:             types.StatusReviewNeeded,
			SupportingFindings: make([]string, 0),
			Citations:          make([]types.Citation, 0),
			Conflicts:          make([]types.ConflictRecord, 0),
			Confidence:         types.ConfidenceLow,
		},
		Providers: make([]string, 0),
		Sections:  make([]types.NoteSection, 0),
		Findings:  make([]types.DetectedFinding, 0),
	}
}
