package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ObserveExtraction("batch", 10, 5*time.Millisecond)
	c.ObserveExtraction("batch", 5, time.Millisecond)
	c.IncFlag("Velocity")
	c.IncFlag("Velocity")
	c.IncHistoryError("redis")

	assert.Equal(t, 15.0, testutil.ToFloat64(c.rowsComputed.WithLabelValues("batch")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.flagsRaised.WithLabelValues("Velocity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.historyErrors.WithLabelValues("redis")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.IncFlag("High Value")
	c.ObserveRiskScore(42)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `feature_flags_total{type="High Value"} 1`)
	assert.Contains(t, rec.Body.String(), "feature_risk_score_count 1")
}
