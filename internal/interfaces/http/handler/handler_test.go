package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fraud-feature-engine/internal/application/dto"
	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/geo"
	"fraud-feature-engine/internal/infrastructure/memory"
	"fraud-feature-engine/internal/infrastructure/ml"
	"fraud-feature-engine/internal/infrastructure/rules"
	"fraud-feature-engine/internal/pkg/metrics"
)

const uploadCSV = `ID,Timestamp,UserID,Amount,City,Category
,2025-01-01 10:00:00,U1,100,Mumbai,Food
,2025-01-01 10:00:05,U1,100,Mumbai,Food
,2025-01-01 10:00:00,U2,50,Delhi,Travel
`

type testServer struct {
	mux         *http.ServeMux
	history     *memory.HistoryStore
	assessments *memory.AssessmentStore
}

func newTestServer(t *testing.T, maxBatch int) *testServer {
	t.Helper()

	history := memory.NewHistoryStore()
	assessments := memory.NewAssessmentStore()
	collector := metrics.NewCollector()

	scoreUseCase := scoring.NewScoreUseCase(
		ml.NewFeatureExtractor(geo.Default(), 2, ml.DefaultHistoryLimit, nil),
		rules.NewEngine(),
		history,
		assessments,
		nil,
		collector,
		nil,
		scoring.Config{AnalysisTimeout: time.Second, MaxBatchSize: maxBatch, PersistAssessments: true, HistorySource: "memory"},
	)

	features := NewFeaturesHandler(scoreUseCase, 1<<20, nil)
	stored := NewAssessmentsHandler(scoring.NewAssessmentsUseCase(assessments, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /score", features.Score)
	mux.HandleFunc("POST /batch", features.Batch)
	mux.HandleFunc("POST /upload", features.Upload)
	mux.HandleFunc("GET /assessments", stored.List)
	mux.HandleFunc("DELETE /assessments", stored.Clear)
	mux.HandleFunc("GET /assessments/summary", stored.Summary)
	mux.HandleFunc("GET /assessments/{id}", stored.Get)
	mux.HandleFunc("POST /assessments/{id}/notify", stored.Notify)
	mux.Handle("GET /metrics", MetricsHandler(collector))

	return &testServer{mux: mux, history: history, assessments: assessments}
}

func (s *testServer) do(t *testing.T, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return s.do(t, method, target, "application/json", body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func txn(entity, ts string, amount float64) map[string]any {
	return map[string]any{
		"entity_id": entity,
		"timestamp": ts,
		"amount":    amount,
		"location":  "Mumbai",
		"category":  "Food",
	}
}

func TestScore_WithStoredHistory(t *testing.T) {
	s := newTestServer(t, 100)
	prior := transaction.Record{
		ID: uuid.New(), EntityID: "U1", Amount: 100, Location: "Mumbai", Category: "Food",
		Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.history.Append(context.Background(), prior))

	rec := s.doJSON(t, http.MethodPost, "/score", txn("U1", "2025-01-01 10:00:04", 100))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[dto.ScoreResponse](t, rec)
	assert.Equal(t, fraud.StatusFlagged, resp.Status)
	assert.Equal(t, "Velocity", resp.FlagType)
	assert.Equal(t, 4.0, resp.Features.TimeSinceLastTxnSec)
	assert.Equal(t, 1, resp.HistoryUsed)
	assert.NotNil(t, resp.AssessmentID)
}

func TestScore_InlineHistory(t *testing.T) {
	s := newTestServer(t, 100)
	body := txn("U1", "2025-01-01T12:00:00Z", 100)
	body["history"] = []map[string]any{txn("U1", "2025-01-01T11:59:58Z", 100)}

	rec := s.doJSON(t, http.MethodPost, "/score", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[dto.ScoreResponse](t, rec)
	assert.Equal(t, 2.0, resp.Features.TimeSinceLastTxnSec)
	assert.Nil(t, resp.AssessmentID)
	assert.Equal(t, 0, s.history.Len())
}

func TestScore_ValidationError(t *testing.T) {
	s := newTestServer(t, 100)
	body := txn("", "2025-01-01 10:00:00", 100)

	rec := s.doJSON(t, http.MethodPost, "/score", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "required", resp.Fields["TransactionRequest.EntityID"])
}

func TestScore_BadTimestampAndBody(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.doJSON(t, http.MethodPost, "/score", txn("U1", "yesterday-ish", 100))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/score", "application/json", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/score", txn("U1", "2025-01-01 10:00:00", -5))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatch(t *testing.T) {
	s := newTestServer(t, 100)
	body := map[string]any{"transactions": []map[string]any{
		txn("U1", "2025-01-01 10:00:05", 100),
		txn("U1", "2025-01-01 10:00:00", 100),
	}}

	rec := s.doJSON(t, http.MethodPost, "/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[dto.BatchResponse](t, rec)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, fraud.StatusFlagged, resp.Results[0].Status)
	assert.Equal(t, fraud.StatusClear, resp.Results[1].Status)
	assert.Equal(t, 1, resp.Flagged)
	assert.Equal(t, 0, s.history.Len())

	rec = s.doJSON(t, http.MethodPost, "/batch?persist=true", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, s.history.Len())
}

func TestBatch_Limits(t *testing.T) {
	s := newTestServer(t, 1)

	rec := s.doJSON(t, http.MethodPost, "/batch", map[string]any{"transactions": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/batch", map[string]any{"transactions": []map[string]any{
		txn("U1", "2025-01-01 10:00:00", 1),
		txn("U1", "2025-01-01 10:01:00", 1),
	}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_RawBody(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(t, http.MethodPost, "/upload", "text/csv", []byte(uploadCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[dto.BatchResponse](t, rec)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 1, resp.Flagged)
	assert.Equal(t, 3, s.history.Len())
}

func TestUpload_MultipartCSVOutput(t *testing.T) {
	s := newTestServer(t, 100)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "transactions.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(uploadCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := s.do(t, http.MethodPost, "/upload?format=csv&persist=false", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Timestamp,UserID,Amount"))
	assert.Equal(t, 0, s.history.Len())
}

func TestPersistParamRejectsNonBoolean(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(t, http.MethodPost, "/upload?persist=yes", "text/csv", []byte(uploadCSV))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid persist", decode[ErrorResponse](t, rec).Error)
	assert.Equal(t, 0, s.history.Len())

	rec = s.doJSON(t, http.MethodPost, "/batch?persist=maybe", map[string]any{"transactions": []map[string]any{
		txn("U1", "2025-01-01 10:00:00", 1),
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.history.Len())
}

// brokenWriter accepts headers but fails every body write
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestUpload_LogsFailedCSVStream(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	uc := scoring.NewScoreUseCase(
		ml.NewFeatureExtractor(geo.Default(), 1, ml.DefaultHistoryLimit, nil),
		rules.NewEngine(),
		nil, nil, nil, nil, nil,
		scoring.Config{},
	)
	h := NewFeaturesHandler(uc, 1<<20, zap.New(core))

	req := httptest.NewRequest(http.MethodPost, "/upload?format=csv&persist=false", strings.NewReader(uploadCSV))
	req.Header.Set("Content-Type", "text/csv")
	w := brokenWriter{httptest.NewRecorder()}
	h.Upload(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	entries := logs.FilterMessage("failed to stream feature table").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["records"])
}

func TestUpload_MissingColumns(t *testing.T) {
	s := newTestServer(t, 100)

	rec := s.do(t, http.MethodPost, "/upload", "text/csv", []byte("UserID,Amount\nU1,10\n"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "missing columns")
}

func TestAssessmentsEndpoints(t *testing.T) {
	s := newTestServer(t, 100)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/upload", "text/csv", []byte(uploadCSV)).Code)

	rec := s.do(t, http.MethodGet, "/assessments?status=flagged", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.AssessmentListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	id := list.Assessments[0].ID

	rec = s.do(t, http.MethodGet, "/assessments/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "U1", decode[fraud.Assessment](t, rec).EntityID)

	rec = s.do(t, http.MethodPost, "/assessments/"+id.String()+"/notify", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[fraud.Assessment](t, rec).NotificationSent)

	rec = s.do(t, http.MethodGet, "/assessments/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[fraud.Summary](t, rec)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(1), summary.Flagged)

	rec = s.do(t, http.MethodDelete, "/assessments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), decode[dto.ClearResponse](t, rec).Deleted)
}

func TestAssessmentsEndpoints_Errors(t *testing.T) {
	s := newTestServer(t, 100)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/assessments/"+uuid.NewString(), "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/assessments/not-a-uuid", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/assessments?status=maybe", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/assessments?limit=ten", "", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	s.do(t, http.MethodPost, "/upload", "text/csv", []byte(uploadCSV))

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `feature_rows_computed_total{path="upload"} 3`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fraud.ErrEmptyBatch, want: http.StatusBadRequest},
		{err: &dto.ItemError{Index: 2, Err: transaction.ErrMissingCategory}, want: http.StatusBadRequest},
		{err: fraud.ErrBatchTooLarge, want: http.StatusRequestEntityTooLarge},
		{err: fraud.ErrAssessmentNotFound, want: http.StatusNotFound},
		{err: fraud.ErrAnalysisTimeout, want: http.StatusGatewayTimeout},
		{err: scoring.ErrPersistenceDisabled, want: http.StatusNotImplemented},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

type fakeChecker struct{ err error }

func (f fakeChecker) Ping(ctx context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(fakeChecker{}, nil, "memory", "test")

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "memory", resp.History)

	h = NewHealthHandler(fakeChecker{err: errors.New("down")}, nil, "postgres", "test")
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
