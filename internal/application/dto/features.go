package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/infrastructure/ml"
)

// FeatureResult is the evaluation of one transaction
type FeatureResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	EntityID      string    `json:"entity_id"`
	Timestamp     time.Time `json:"timestamp"`

	Features ml.Features  `json:"features"`
	Flags    []fraud.Flag `json:"flags"`
	Status   fraud.Status `json:"status"`

	// First flag, kept for consumers that store a single pair
	FlagType   string `json:"flag_type,omitempty"`
	FlagReason string `json:"flag_reason,omitempty"`

	RiskScore    *decimal.Decimal `json:"risk_score,omitempty"`
	RiskLevel    fraud.RiskLevel  `json:"risk_level"`
	ModelVersion string           `json:"model_version,omitempty"`

	AssessmentID *uuid.UUID `json:"assessment_id,omitempty"`
}

// NewFeatureResult builds a result from an assessment and its feature row
func NewFeatureResult(a *fraud.Assessment, features ml.Features, persisted bool) FeatureResult {
	res := FeatureResult{
		TransactionID: a.TransactionID,
		EntityID:      a.EntityID,
		Timestamp:     a.Timestamp,
		Features:      features,
		Flags:         a.Flags,
		Status:        a.Status,
		RiskScore:     a.RiskScore,
		RiskLevel:     a.RiskLevel,
		ModelVersion:  a.ModelVersion,
	}
	if flag, ok := a.PrimaryFlag(); ok {
		res.FlagType = string(flag.Type)
		res.FlagReason = flag.Reason
	}
	if persisted {
		id := a.ID
		res.AssessmentID = &id
	}
	return res
}

// ScoreResponse is returned by the single transaction endpoint
type ScoreResponse struct {
	FeatureResult
	HistoryUsed     int   `json:"history_used"`
	HistoryDegraded bool  `json:"history_degraded"`
	LatencyMs       int64 `json:"latency_ms"`
}

// BatchResponse is returned by the batch and upload endpoints.
// Results are aligned with the submitted transactions.
type BatchResponse struct {
	Results   []FeatureResult `json:"results"`
	Count     int             `json:"count"`
	Flagged   int             `json:"flagged"`
	LatencyMs int64           `json:"latency_ms"`
}

// AssessmentListResponse is a page of stored assessments
type AssessmentListResponse struct {
	Assessments []*fraud.Assessment `json:"assessments"`
	Count       int                 `json:"count"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// ClearResponse reports how many assessments were removed
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}
