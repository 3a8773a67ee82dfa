package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/infrastructure/ml"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Remote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemote(Config{BaseURL: srv.URL, Timeout: time.Second})
}

func TestRemote_Predict(t *testing.T) {
	remote := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ml.FeatureNames(), req.FeatureNames)
		assert.Len(t, req.Rows, 2)
		assert.Equal(t, 5.0, req.Rows[1].TimeSinceLastTxnSec)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"classes":[0,1],"predictions":[0,1],"probabilities":[[0.9,0.1],[0.2,0.8]],"model_version":"rf-3"}`))
	})

	pred, err := remote.Predict(context.Background(), []ml.Features{{Amount: 1}, {TimeSinceLastTxnSec: 5}})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, pred.Classes)
	assert.Equal(t, []int{0, 1}, pred.Labels)
	assert.Equal(t, 0.8, pred.Probabilities[1][1])
	assert.Equal(t, "rf-3", pred.ModelVersion)
}

func TestRemote_ServerError(t *testing.T) {
	remote := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := remote.Predict(context.Background(), []ml.Features{{}})

	assert.ErrorIs(t, err, fraud.ErrClassifierUnavailable)
}

func TestRemote_ShapeMismatch(t *testing.T) {
	remote := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"classes":[0,1],"probabilities":[[1]]}`))
	})

	_, err := remote.Predict(context.Background(), []ml.Features{{}})

	assert.ErrorIs(t, err, fraud.ErrInvalidProbabilities)
}
