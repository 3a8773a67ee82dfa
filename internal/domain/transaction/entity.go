package transaction

import (
	"math"
	"strings"
	"time"

	"github.com/dromara/carbon/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the immutable input unit of the feature engine.
// Records are created by ingestion and never mutated afterwards.
type Record struct {
	ID        uuid.UUID `json:"id"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"` // always UTC
	Amount    float64   `json:"amount"`
	Location  string    `json:"location"`
	Category  string    `json:"category"`

	// Label is only present for training data and is ignored by the engine
	Label *int `json:"label,omitempty"`
}

// NewRecord parses raw field values into a validated Record.
// A zero id is replaced with a fresh one so callers can correlate results.
func NewRecord(id uuid.UUID, entityID, timestamp, amount, location, category string) (Record, error) {
	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return Record{}, err
	}

	amt, err := ParseAmount(amount)
	if err != nil {
		return Record{}, err
	}

	if id == uuid.Nil {
		id = uuid.New()
	}

	r := Record{
		ID:        id,
		EntityID:  strings.TrimSpace(entityID),
		Timestamp: ts,
		Amount:    amt,
		Location:  strings.TrimSpace(location),
		Category:  strings.TrimSpace(category),
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate checks the record invariants
func (r Record) Validate() error {
	if r.EntityID == "" {
		return ErrMissingEntityID
	}
	if r.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return ErrInvalidAmount
	}
	if r.Amount < 0 {
		return ErrNegativeAmount
	}
	if r.Location == "" {
		return ErrMissingLocation
	}
	if r.Category == "" {
		return ErrMissingCategory
	}
	return nil
}

// ParseTimestamp accepts the date-time layouts carbon understands
// ("2025-01-01 10:00:00", RFC3339, date only, ...) and normalizes to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrMissingTimestamp
	}

	c := carbon.Parse(value, carbon.UTC)
	if c.Error != nil || c.IsZero() {
		return time.Time{}, ErrInvalidTimestamp
	}
	return c.StdTime().UTC(), nil
}

// ParseAmount parses a non-negative decimal amount
func ParseAmount(value string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	return d.InexactFloat64(), nil
}
