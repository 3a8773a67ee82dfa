package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/infrastructure/geo"
	"fraud-feature-engine/internal/infrastructure/memory"
	"fraud-feature-engine/internal/infrastructure/ml"
	"fraud-feature-engine/internal/infrastructure/rules"
	"fraud-feature-engine/internal/interfaces/http/handler"
	"fraud-feature-engine/internal/pkg/metrics"
)

const scoreBody = `{"entity_id":"U1","timestamp":"2025-01-01 10:00:00","amount":10,"location":"Pune","category":"Food"}`

func newTestRouter(t *testing.T, rate, secret string) http.Handler {
	t.Helper()

	assessments := memory.NewAssessmentStore()
	collector := metrics.NewCollector()
	uc := scoring.NewScoreUseCase(
		ml.NewFeatureExtractor(geo.Default(), 1, 0, nil),
		rules.NewEngine(),
		memory.NewHistoryStore(),
		assessments,
		nil,
		collector,
		nil,
		scoring.Config{AnalysisTimeout: time.Second, MaxBatchSize: 10, PersistAssessments: true},
	)

	mw, err := NewMiddleware(rate, secret, nil)
	require.NoError(t, err)

	r := NewRouter(
		handler.NewFeaturesHandler(uc, 1<<20, nil),
		handler.NewAssessmentsHandler(scoring.NewAssessmentsUseCase(assessments, nil)),
		handler.NewHealthHandler(nil, nil, "memory", "test"),
		handler.MetricsHandler(collector),
		mw,
		Config{},
		nil,
	)
	return r.Handler()
}

func serve(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RoutesAndHeaders(t *testing.T) {
	h := newTestRouter(t, "", "")

	rec := serve(h, http.MethodPost, "/api/v1/features/score", scoreBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/assessments/summary", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodOptions, "/api/v1/features/score", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/api/v1/features/score", "", nil).Code)
}

func TestRouter_RateLimit(t *testing.T) {
	h := newTestRouter(t, "2-M", "")

	for i := 0; i < 2; i++ {
		rec := serve(h, http.MethodGet, "/api/v1/assessments", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/api/v1/assessments", "", nil).Code)

	// Health checks are not limited
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/live", "", nil).Code)
}

func TestRouter_InvalidRate(t *testing.T) {
	_, err := NewMiddleware("lots", "", nil)
	assert.Error(t, err)
}

func TestRouter_BearerAuth(t *testing.T) {
	const secret = "test-secret"
	h := newTestRouter(t, "", secret)

	rec := serve(h, http.MethodGet, "/api/v1/assessments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "analyst",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	rec = serve(h, http.MethodGet, "/api/v1/assessments", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other"))
	require.NoError(t, err)

	rec = serve(h, http.MethodGet, "/api/v1/assessments", "", map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays public
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "", nil).Code)
}

func TestRecoverer(t *testing.T) {
	h := Middleware{}.wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), false, nil)

	rec := serve(h, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestJSONError_EncodesControlAndNonASCII(t *testing.T) {
	rec := httptest.NewRecorder()
	message := "jeton refusé \x01"

	jsonError(rec, http.StatusUnauthorized, message)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.True(t, json.Valid(rec.Body.Bytes()), rec.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, message, body["error"])
}
