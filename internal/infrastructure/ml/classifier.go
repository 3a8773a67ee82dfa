package ml

import "context"

// Prediction is a classifier's answer for a batch of feature rows.
// Probabilities[i][j] is the probability of Classes[j] for row i.
type Prediction struct {
	Classes       []int
	Labels        []int
	Probabilities [][]float64
	ModelVersion  string
}

// Classifier is any model exposing predictions and class probabilities
// over feature rows. Nothing in this module trains or embeds one.
type Classifier interface {
	Predict(ctx context.Context, rows []Features) (*Prediction, error)
}
