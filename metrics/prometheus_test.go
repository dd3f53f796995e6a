package metrics

import (
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMiddlewareRecordsStatus(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/teapot", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/teapot", "418")))
}

func TestRecorders(t *testing.T) {
	RecordAnalysis("Qualified", "rules", 2, time.Millisecond)
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordReviewerFallback("openai", "timeout")
	RecordTask("completed")
	RecordVocabularyReload(nil)

	require.GreaterOrEqual(t, testutil.ToFloat64(analysesTotal.WithLabelValues("Qualified", "rules")), 1.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(conflictsTotal), 2.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.True(t, strings.Contains(rec.Body.String(), "qde_reviewer_fallbacks_total"))
}
