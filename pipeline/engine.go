package pipeline

import (
	"text2phenotype.com/qde/logger"
	"text2phenotype.com/qde/negation"
	"text2phenotype.com/qde/provenance"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"github.com/rs/zerolog"
	"strings"
	"time"
	"unicode/utf8"
)

// Engine is the deterministic rule engine. It holds no mutable state besides
// the vocabulary store, which is read once per analysis.
type Engine struct {
	params   types.Params
	store    *vocabulary.Store
	logger   zerolog.Logger
	splitter SectionSplitter
	detector FindingDetector
	resolver ConflictResolver
	decision DecisionEngine
}

func NewEngine(params types.Params, store *vocabulary.Store) (*Engine, error) {
	qdeLogger := logger.NewLogger("Qualification engine")
	errLogger := qdeLogger.With().Caller().Logger()

	if err := params.Validate(); err != nil {
		errLogger.Err(err).Interface("params", params).Msg("Invalid engine params")
		return nil, err
	}
	if store == nil {
		store = vocabulary.NewStore(nil)
	}

	cues, err := negation.LoadCues(params.CuesPath)
	if err != nil {
		errLogger.Err(err).Str("cues_path", params.CuesPath).Msg("Failed to load cue lists")
		return nil, err
	}
	analyzer := negation.NewContextAnalyzer(cues, params.Windows)

	qdeLogger.Info().
		Interface("params", params).
		Str("vocabulary_version", store.Load().Version()).
		Msg("Starting qualification engine (see parameters in 'params' field)")

	return &Engine{
		params:   params,
		store:    store,
		logger:   qdeLogger,
		splitter: NewSectionSplitter(params.MinSectionLength),
		detector: NewFindingDetector(analyzer, params),
		resolver: NewConflictResolver(params.RecencyWindowMonths),
		decision: NewDecisionEngine(params.Rules),
	}, nil
}

func (engine *Engine) Params() types.Params {
	return engine.params
}

// Vocabulary is the table the next analysis will use.
func (engine *Engine) Vocabulary() *vocabulary.Vocabulary {
	return engine.store.Load()
}

// TooShort reports whether text, once trimmed, has fewer characters than the
// minimum input length. Characters are counted as runes, not bytes.
func (engine *Engine) TooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < engine.params.MinInputLength
}

// Analyze runs the full rule pipeline over text. asOf is the reference time
// for recency comparisons.
func (engine *Engine) Analyze(text string, asOf time.Time) types.Analysis {
	analysis, _ := engine.Run(Request{Text: text, AsOf: asOf})
	return analysis
}

// Run is Analyze for a request; it also returns the vocabulary version used.
func (engine *Engine) Run(request Request) (types.Analysis, string) {
	vocab := engine.store.Load()
	pplnLog := engine.logger.With().Str("tid", request.Tid).Logger()

	if engine.TooShort(request.Text) {
		pplnLog.Debug().Msg("Input too short, skipping analysis")
		return tooShort(), vocab.Version()
	}

	sections := engine.splitter(request.Text, vocab)
	detections := engine.detector(sections, vocab)
	resolved, conflicts := engine.resolver(detections, request.AsOf)
	result := engine.decision(resolved, conflicts, detections)

	analysis := types.Analysis{
		Result:    result,
		Providers: distinctProviders(sections),
		Sections:  sections,
		Findings:  resolved,
	}
	if mrn, ok := provenance.MRN(request.Text); ok {
		analysis.MRN = mrn
	}
	if provider, ok := provenance.OrderingProvider(request.Text); ok {
		analysis.OrderingProvider = provider
	}

	pplnLog.Debug().
		Int("sections", len(sections)).
		Int("detections", len(detections)).
		Int("resolved", len(resolved)).
		Int("conflicts", len(conflicts)).
		Str("status", string(result.Status)).
		Msg("Finished analysis")
	return analysis, vocab.Version()
}

func tooShort() types.Analysis {
	return types.Analysis{
		Result: types.QualificationResult{
			Status:             types.StatusInsufficientInformation,
			SupportingFindings: make([]string, 0),
			Citations:          make([]types.Citation, 0),
			Conflicts:          make([]types.ConflictRecord, 0),
			Confidence:         types.ConfidenceLow,
			Reason:             reasonInputTooShort,
		},
		Providers: make([]string, 0),
		Sections:  make([]types.NoteSection, 0),
		Findings:  make([]types.DetectedFinding, 0),
	}
}
