package handler

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"fraud-feature-engine/internal/application/dto"
	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/ingest"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps an application error onto an HTTP status
func writeDomainError(w http.ResponseWriter, err error, prefix string) {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: verr.Fields})
		return
	}

	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = prefix + ": " + message
	}
	writeError(w, status, message)
}

func statusFor(err error) int {
	var (
		itemErr  *dto.ItemError
		rowErr   *ingest.RowError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &itemErr), errors.As(err, &rowErr):
		return http.StatusBadRequest
	case errors.Is(err, transaction.ErrMissingEntityID),
		errors.Is(err, transaction.ErrMissingTimestamp),
		errors.Is(err, transaction.ErrInvalidTimestamp),
		errors.Is(err, transaction.ErrNegativeAmount),
		errors.Is(err, transaction.ErrInvalidAmount),
		errors.Is(err, transaction.ErrMissingLocation),
		errors.Is(err, transaction.ErrMissingCategory),
		errors.Is(err, ingest.ErrMissingColumns),
		errors.Is(err, ingest.ErrEmptyInput),
		errors.Is(err, fraud.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, fraud.ErrBatchTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, fraud.ErrAssessmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, fraud.ErrAnalysisTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, scoring.ErrPersistenceDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body and validates it
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return err
	}
	return dto.Validate(v)
}
