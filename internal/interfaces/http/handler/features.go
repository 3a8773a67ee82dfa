package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fraud-feature-engine/internal/application/dto"
	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/infrastructure/ingest"
)

// FeaturesHandler handles feature extraction and scoring requests
type FeaturesHandler struct {
	scoreUseCase *scoring.ScoreUseCase
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewFeaturesHandler creates a new features handler
func NewFeaturesHandler(scoreUseCase *scoring.ScoreUseCase, maxBodyBytes int64, logger *zap.Logger) *FeaturesHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeaturesHandler{
		scoreUseCase: scoreUseCase,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Score handles POST /api/v1/features/score
func (h *FeaturesHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	record, err := req.ToRecord()
	if err != nil {
		writeDomainError(w, err, "Invalid transaction")
		return
	}

	input := scoring.ScoreInput{Record: record}
	if req.History != nil {
		history, err := req.HistoryRecords()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid history: "+err.Error())
			return
		}
		input.History = history
	}

	result, err := h.scoreUseCase.Execute(r.Context(), input)
	if err != nil {
		writeDomainError(w, err, "Scoring failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Batch handles POST /api/v1/features/batch
func (h *FeaturesHandler) Batch(w http.ResponseWriter, r *http.Request) {
	persist, err := boolParam(r, "persist", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid persist")
		return
	}

	var req dto.BatchRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	records, err := dto.ToRecords(req.Transactions)
	if err != nil {
		writeDomainError(w, err, "Invalid transaction")
		return
	}

	out, err := h.scoreUseCase.ExecuteBatch(r.Context(), scoring.BatchInput{
		Records: records,
		Persist: persist,
		Path:    scoring.PathBatch,
	})
	if err != nil {
		writeDomainError(w, err, "Batch evaluation failed")
		return
	}

	writeJSON(w, http.StatusOK, out.Response)
}

// Upload handles POST /api/v1/features/upload. The CSV comes either as the
// "file" field of a multipart form or as the raw body. Results are stored
// unless persist=false; format=csv streams the feature table back.
func (h *FeaturesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	persist, err := boolParam(r, "persist", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid persist")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	src, closeFn, err := uploadSource(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}
	defer closeFn()

	records, err := ingest.ReadRecords(src)
	if err != nil {
		writeDomainError(w, err, "Failed to read upload")
		return
	}

	out, err := h.scoreUseCase.ExecuteBatch(r.Context(), scoring.BatchInput{
		Records: records,
		Persist: persist,
		Path:    scoring.PathUpload,
	})
	if err != nil {
		writeDomainError(w, err, "Upload evaluation failed")
		return
	}

	if r.URL.Query().Get("format") == ingest.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="features.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := ingest.WriteCSV(w, out.Rows()); err != nil {
			h.logger.Warn("failed to stream feature table",
				zap.Int("records", out.Response.Count),
				zap.Error(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, out.Response)
}

func (h *FeaturesHandler) writeBadRequest(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		writeDomainError(w, err, "")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// boolParam parses an optional boolean query parameter
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// uploadSource returns the CSV stream of an upload request
func uploadSource(r *http.Request) (io.Reader, func(), error) {
	noop := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, noop, err
		}
		return file, func() { file.Close() }, nil
	}
	return r.Body, noop, nil
}
