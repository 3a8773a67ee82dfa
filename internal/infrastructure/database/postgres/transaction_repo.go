package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fraud-feature-engine/internal/domain/transaction"
)

const insertBatchSize = 500

// TransactionModel is the database model for raw transactions
type TransactionModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EntityID  string          `gorm:"type:varchar(100);not null;index:idx_transactions_entity_ts,priority:1"`
	Timestamp time.Time       `gorm:"not null;index:idx_transactions_entity_ts,priority:2"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null"`
	Location  string          `gorm:"type:varchar(100);not null"`
	Category  string          `gorm:"type:varchar(100);not null"`
	Label     *int
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for transactions
func (TransactionModel) TableName() string {
	return "transactions"
}

// TransactionRepository implements transaction.HistoryRepository
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{db: client.DB()}
}

// Recent returns the newest limit records of an entity strictly before the
// given instant, ascending by timestamp. Equal timestamps keep insertion order.
func (r *TransactionRepository) Recent(ctx context.Context, entityID string, before time.Time, limit int) ([]transaction.Record, error) {
	var models []TransactionModel
	q := r.db.WithContext(ctx).
		Where("entity_id = ? AND timestamp < ?", entityID, before.UTC()).
		Order("timestamp DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]transaction.Record, len(models))
	for i := range models {
		records[len(models)-1-i] = modelToRecord(&models[i])
	}
	return records, nil
}

// Append stores records; records already stored are ignored
func (r *TransactionRepository) Append(ctx context.Context, records ...transaction.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]TransactionModel, len(records))
	for i, rec := range records {
		models[i] = recordToModel(rec)
		models[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(models, insertBatchSize).Error
}

func recordToModel(r transaction.Record) TransactionModel {
	return TransactionModel{
		ID:        r.ID,
		EntityID:  r.EntityID,
		Timestamp: r.Timestamp.UTC(),
		Amount:    decimal.NewFromFloat(r.Amount),
		Location:  r.Location,
		Category:  r.Category,
		Label:     r.Label,
	}
}

func modelToRecord(m *TransactionModel) transaction.Record {
	return transaction.Record{
		ID:        m.ID,
		EntityID:  m.EntityID,
		Timestamp: m.Timestamp.UTC(),
		Amount:    m.Amount.InexactFloat64(),
		Location:  m.Location,
		Category:  m.Category,
		Label:     m.Label,
	}
}
