package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/domain/fraud"
)

// AssessmentsHandler handles stored assessment requests
type AssessmentsHandler struct {
	useCase *scoring.AssessmentsUseCase
}

// NewAssessmentsHandler creates a new assessments handler
func NewAssessmentsHandler(useCase *scoring.AssessmentsUseCase) *AssessmentsHandler {
	return &AssessmentsHandler{useCase: useCase}
}

// List handles GET /api/v1/assessments
func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := fraud.ListFilter{
		EntityID: q.Get("entity_id"),
		Status:   fraud.Status(q.Get("status")),
	}
	switch filter.Status {
	case "", fraud.StatusFlagged, fraud.StatusClear:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	result, err := h.useCase.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, "Failed to list assessments")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/assessments/{id}
func (h *AssessmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	assessment, err := h.useCase.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Failed to get assessment")
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

// Summary handles GET /api/v1/assessments/summary
func (h *AssessmentsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.useCase.Summary(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to summarize assessments")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Notify handles POST /api/v1/assessments/{id}/notify
func (h *AssessmentsHandler) Notify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	assessment, err := h.useCase.MarkNotified(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "Failed to mark assessment")
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

// Clear handles DELETE /api/v1/assessments
func (h *AssessmentsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	result, err := h.useCase.Clear(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to clear assessments")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		writeError(w, http.StatusBadRequest, "Assessment ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assessment ID")
		return uuid.Nil, false
	}
	return id, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
