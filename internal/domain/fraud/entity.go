package fraud

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-feature-engine/internal/domain/transaction"
)

// RiskLevel buckets the classifier risk score
type RiskLevel string

const (
	RiskLevelUnknown  RiskLevel = "unknown"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Assessment is the persisted outcome of evaluating one transaction:
// the rule flags, the derived status and, when a classifier is configured,
// its risk score. This is what the upload and scoring paths store.
type Assessment struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	EntityID      string    `json:"entity_id"`
	Timestamp     time.Time `json:"timestamp"`
	Amount        float64   `json:"amount"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`

	// Rule outcome
	Flags  []Flag `json:"flags"`
	Status Status `json:"status"`

	// Classifier outcome, nil when no classifier scored the row
	RiskScore    *decimal.Decimal `json:"risk_score,omitempty"` // 0 to 100
	RiskLevel    RiskLevel        `json:"risk_level"`
	ModelVersion string           `json:"model_version,omitempty"`

	NotificationSent bool      `json:"notification_sent"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// NewAssessment creates an assessment for a record and the flags raised on it
func NewAssessment(record transaction.Record, flags []Flag) *Assessment {
	if flags == nil {
		flags = make([]Flag, 0)
	}
	return &Assessment{
		ID:            uuid.New(),
		TransactionID: record.ID,
		EntityID:      record.EntityID,
		Timestamp:     record.Timestamp,
		Amount:        record.Amount,
		Location:      record.Location,
		Category:      record.Category,
		Flags:         flags,
		Status:        StatusOf(flags),
		RiskLevel:     RiskLevelUnknown,
		EvaluatedAt:   time.Now().UTC(),
	}
}

// SetRiskScore attaches a classifier score and derives the risk level
func (a *Assessment) SetRiskScore(score decimal.Decimal, modelVersion string) {
	a.RiskScore = &score
	a.ModelVersion = modelVersion
	a.RiskLevel = RiskLevelOf(score)
}

// IsFlagged reports whether any rule fired
func (a *Assessment) IsFlagged() bool {
	return a.Status == StatusFlagged
}

// PrimaryFlag returns the first flag for consumers that keep a single pair
func (a *Assessment) PrimaryFlag() (Flag, bool) {
	return Primary(a.Flags)
}

// RiskLevelOf buckets a 0-100 risk score
func RiskLevelOf(score decimal.Decimal) RiskLevel {
	s := score.InexactFloat64()
	switch {
	case s >= 80:
		return RiskLevelCritical
	case s >= 60:
		return RiskLevelHigh
	case s >= 30:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
