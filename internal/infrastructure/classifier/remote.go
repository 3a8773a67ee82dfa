// Package classifier talks to an out-of-process model server.
package classifier

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"

	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/infrastructure/ml"
)

// Config holds the model server settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// Remote is an ml.Classifier backed by an HTTP model server
type Remote struct {
	client *resty.Client
}

type predictRequest struct {
	FeatureNames []string      `json:"feature_names"`
	Rows         []ml.Features `json:"rows"`
}

type predictResponse struct {
	Classes       []int       `json:"classes"`
	Predictions   []int       `json:"predictions"`
	Probabilities [][]float64 `json:"probabilities"`
	ModelVersion  string      `json:"model_version"`
}

// NewRemote creates a new model server client
func NewRemote(cfg Config) *Remote {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Remote{client: client}
}

// Predict posts the rows to /predict
func (r *Remote) Predict(ctx context.Context, rows []ml.Features) (*ml.Prediction, error) {
	var out predictResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(predictRequest{FeatureNames: ml.FeatureNames(), Rows: rows}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fraud.ErrClassifierUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: model server returned %d", fraud.ErrClassifierUnavailable, resp.StatusCode())
	}

	if len(out.Probabilities) != len(rows) {
		return nil, fmt.Errorf("%w: %d probability rows for %d inputs", fraud.ErrInvalidProbabilities, len(out.Probabilities), len(rows))
	}
	for i, p := range out.Probabilities {
		if len(p) != len(out.Classes) {
			return nil, fmt.Errorf("%w: row %d has %d probabilities for %d classes", fraud.ErrInvalidProbabilities, i, len(p), len(out.Classes))
		}
	}

	return &ml.Prediction{
		Classes:       out.Classes,
		Labels:        out.Predictions,
		Probabilities: out.Probabilities,
		ModelVersion:  out.ModelVersion,
	}, nil
}
