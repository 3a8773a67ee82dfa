package fraud

import "errors"

var (
	// Assessment errors
	ErrAssessmentNotFound = errors.New("assessment not found")

	// Classifier errors
	ErrInvalidProbabilities  = errors.New("invalid class probabilities")
	ErrClassifierUnavailable = errors.New("classifier is unavailable")

	// Analysis errors
	ErrAnalysisTimeout = errors.New("feature analysis timed out")
	ErrEmptyBatch      = errors.New("no transactions provided")
	ErrBatchTooLarge   = errors.New("batch exceeds the maximum size")
)
