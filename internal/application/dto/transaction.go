package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-feature-engine/internal/domain/transaction"
)

// TransactionRequest is one raw transaction as submitted by a caller
type TransactionRequest struct {
	ID        string          `json:"id" validate:"omitempty,uuid"`
	EntityID  string          `json:"entity_id" validate:"required,max=128"`
	Timestamp string          `json:"timestamp" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Location  string          `json:"location" validate:"required,max=128"`
	Category  string          `json:"category" validate:"required,max=128"`
}

// ToRecord converts the request into a validated record
func (r TransactionRequest) ToRecord() (transaction.Record, error) {
	id := uuid.Nil
	if r.ID != "" {
		parsed, err := uuid.Parse(r.ID)
		if err != nil {
			return transaction.Record{}, err
		}
		id = parsed
	}
	return transaction.NewRecord(id, r.EntityID, r.Timestamp, r.Amount.String(), r.Location, r.Category)
}

// ScoreRequest scores one transaction. History, when present, replaces the
// stored history of the entity for this call and is not persisted.
type ScoreRequest struct {
	TransactionRequest
	History []TransactionRequest `json:"history,omitempty" validate:"omitempty,max=1000,dive"`
}

// HistoryRecords converts the inline history
func (r ScoreRequest) HistoryRecords() ([]transaction.Record, error) {
	return ToRecords(r.History)
}

// BatchRequest computes features for a whole batch
type BatchRequest struct {
	Transactions []TransactionRequest `json:"transactions" validate:"required,min=1,dive"`
}

// ToRecords converts requests in order, stopping at the first invalid one
func ToRecords(reqs []TransactionRequest) ([]transaction.Record, error) {
	records := make([]transaction.Record, 0, len(reqs))
	for i, req := range reqs {
		r, err := req.ToRecord()
		if err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
		records = append(records, r)
	}
	return records, nil
}
