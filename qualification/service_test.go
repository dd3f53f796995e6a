package qualification

import (
	"text2phenotype.com/qde/pipeline"
	"text2phenotype.com/qde/reviewer"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

const cardiologyNote = "Cardiology consult 01/05/2024: Patient reports chest pain and dyspnea. EKG abnormal."

type fakeReviewer struct {
	calls      int
	terms      []string
	assessment types.ReviewAssessment
	err        error
	panics     bool
}

func (f *fakeReviewer) Name() string {
	return "fake"
}

func (f *fakeReviewer) Review(_ context.Context, _ string, terms []string) (types.ReviewAssessment, error) {
	f.calls++
	f.terms = terms
	if f.panics {
		panic("reviewer exploded")
	}
	return f.assessment, f.err
}

func newTestService(t *testing.T, rev reviewer.Reviewer, options Options) *Service {
	t.Helper()
	engine, err := pipeline.NewEngine(types.DefaultParams(), vocabulary.NewStore(nil))
	require.NoError(t, err)
	service := NewService(engine, rev, options)
	service.now = func() time.Time {
		return time.Date(2024, time.June, 1, 17, 45, 0, 0, time.UTC)
	}
	return service
}

func asOf(t time.Time) *time.Time {
	return &t
}

func TestAnalyzeWithoutReviewer(t *testing.T) {
	service := newTestService(t, nil, Options{})
	response := service.Analyze(context.Background(), Request{
		Text: cardiologyNote,
		AsOf: asOf(time.Date(2024, time.March, 3, 15, 30, 0, 0, time.UTC)),
	})

	assert.Equal(t, types.SourceRules, response.Source)
	assert.Equal(t, types.StatusQualified, response.Final.Status)
	assert.Equal(t, response.Result, response.Final)
	assert.Nil(t, response.Review)
	assert.Empty(t, response.Warnings)
	assert.Equal(t, "2024-03-03", response.AsOf.String())
	assert.Equal(t, service.engine.Vocabulary().Version(), response.VocabularyVersion)
}

func TestAnalyzeDefaultsAsOfToToday(t *testing.T) {
	service := newTestService(t, nil, Options{})
	response := service.Analyze(context.Background(), Request{Text: cardiologyNote})
	assert.Equal(t, "2024-06-01", response.AsOf.String())
}

func TestReviewerSupersedesRuleResult(t *testing.T) {
	chestPain := "Chest Pain"
	fake := &fakeReviewer{assessment: types.ReviewAssessment{
		ConfirmedFindings: []string{chestPain},
		Status:            types.StatusReviewNeeded,
		PrimaryIndication: &chestPain,
		Confidence:        types.ConfidenceMedium,
		Reasoning:         "Dyspnea is mentioned only in passing.",
		Warnings:          []string{"EKG report not attached"},
	}}
	service := newTestService(t, fake, Options{})
	response := service.Analyze(context.Background(), Request{Text: cardiologyNote})

	require.Equal(t, 1, fake.calls)
	assert.Contains(t, fake.terms, "Chest Pain")
	assert.Contains(t, fake.terms, "Tobacco Use")

	assert.Equal(t, types.SourceReviewer, response.Source)
	require.NotNil(t, response.Review)
	assert.Equal(t, types.StatusQualified, response.Result.Status)
	assert.Equal(t, types.StatusReviewNeeded, response.Final.Status)
	assert.Equal(t, types.ConfidenceMedium, response.Final.Confidence)
	assert.Equal(t, []string{"Chest Pain"}, response.Final.SupportingFindings)
	require.Len(t, response.Final.Citations, 1)
	assert.Equal(t, "Chest Pain", response.Final.Citations[0].Finding)
	assert.Empty(t, response.Final.Reason)

	assert.Equal(t, []string{
		"reviewer status ReviewNeeded differs from rule engine status Qualified",
		"reviewer: EKG report not attached",
	}, response.Warnings)
}

func TestReviewerFailureFallsBackToRules(t *testing.T) {
	fake := &fakeReviewer{err: fmt.Errorf("attempt 3: %w", reviewer.ErrMalformedResponse)}
	service := newTestService(t, fake, Options{})
	response := service.Analyze(context.Background(), Request{Text: cardiologyNote})

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, types.SourceRules, response.Source)
	assert.Nil(t, response.Review)
	assert.Equal(t, response.Result, response.Final)
	require.Len(t, response.Warnings, 1)
	assert.Contains(t, response.Warnings[0], "parse")
}

func TestReviewerPanicFallsBackToRules(t *testing.T) {
	fake := &fakeReviewer{panics: true}
	service := newTestService(t, fake, Options{})
	response := service.Analyze(context.Background(), Request{Text: cardiologyNote})

	assert.Equal(t, types.SourceRules, response.Source)
	assert.Equal(t, types.StatusQualified, response.Final.Status)
	assert.Len(t, response.Warnings, 1)
}

func TestShortInputSkipsReviewer(t *testing.T) {
	fake := &fakeReviewer{}
	service := newTestService(t, fake, Options{})
	response := service.Analyze(context.Background(), Request{Text: "  chest pain  "})

	assert.Equal(t, 0, fake.calls)
	assert.Equal(t, types.StatusInsufficientInformation, response.Final.Status)
	assert.Equal(t, types.SourceRules, response.Source)
}

func TestShortMultiByteInputSkipsReviewer(t *testing.T) {
	fake := &fakeReviewer{}
	service := newTestService(t, fake, Options{})
	response := service.Analyze(context.Background(), Request{Text: "Hx of CHF: ééééééé!"})

	assert.Equal(t, 0, fake.calls)
	assert.Equal(t, types.StatusInsufficientInformation, response.Final.Status)
	assert.Empty(t, response.Findings)
}

func TestSkipReview(t *testing.T) {
	fake := &fakeReviewer{}
	service := newTestService(t, fake, Options{})
	response := service.Analyze(context.Background(), Request{Text: cardiologyNote, SkipReview: true})

	assert.Equal(t, 0, fake.calls)
	assert.Equal(t, types.SourceRules, response.Source)
}

func TestCachedResponses(t *testing.T) {
	chestPain := "Chest Pain"
	fake := &fakeReviewer{assessment: types.ReviewAssessment{
		ConfirmedFindings: []string{chestPain, "Dyspnea"},
		Status:            types.StatusQualified,
		PrimaryIndication: &chestPain,
		Confidence:        types.ConfidenceHigh,
	}}
	options := Options{CacheTTL: time.Minute, CacheCleanup: time.Minute}
	service := newTestService(t, fake, options)

	first := service.Analyze(context.Background(), Request{Text: cardiologyNote})
	second := service.Analyze(context.Background(), Request{Text: cardiologyNote})
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, first, second)

	// a different as-of date is a different question
	service.Analyze(context.Background(), Request{Text: cardiologyNote, AsOf: asOf(time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC))})
	assert.Equal(t, 2, fake.calls)
}

func TestCachedResponsesAreCopies(t *testing.T) {
	fake := &fakeReviewer{assessment: types.ReviewAssessment{
		Status:     types.StatusReviewNeeded,
		Confidence: types.ConfidenceLow,
		Warnings:   []string{"EKG report not attached"},
	}}
	options := Options{CacheTTL: time.Minute, CacheCleanup: time.Minute}
	service := newTestService(t, fake, options)

	first := service.Analyze(context.Background(), Request{Text: cardiologyNote})
	require.NotEmpty(t, first.Warnings)
	require.NotEmpty(t, first.Findings)
	first.Warnings[0] = "changed"
	first.Findings[0].Term = "changed"
	first.Review.Warnings[0] = "changed"

	second := service.Analyze(context.Background(), Request{Text: cardiologyNote})
	second.Warnings = append(second.Warnings, "appended")
	third := service.Analyze(context.Background(), Request{Text: cardiologyNote})

	assert.Equal(t, 1, fake.calls)
	assert.NotEqual(t, "changed", third.Warnings[0])
	assert.NotEqual(t, "changed", third.Findings[0].Term)
	assert.Equal(t, []string{"EKG report not attached"}, third.Review.Warnings)
	assert.NotContains(t, third.Warnings, "appended")
}

func TestFailedReviewsAreNotCached(t *testing.T) {
	fake := &fakeReviewer{err: reviewer.ErrEmptyResponse}
	options := Options{CacheTTL: time.Minute, CacheCleanup: time.Minute}
	service := newTestService(t, fake, options)

	service.Analyze(context.Background(), Request{Text: cardiologyNote})
	service.Analyze(context.Background(), Request{Text: cardiologyNote})
	assert.Equal(t, 2, fake.calls)
}
