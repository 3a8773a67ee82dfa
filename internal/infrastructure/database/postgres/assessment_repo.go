package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fraud-feature-engine/internal/domain/fraud"
)

// AssessmentModel is the database model for assessments
type AssessmentModel struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TransactionID    uuid.UUID        `gorm:"type:uuid;index;not null"`
	EntityID         string           `gorm:"type:varchar(100);index;not null"`
	Timestamp        time.Time        `gorm:"index;not null"`
	Amount           decimal.Decimal  `gorm:"type:numeric;not null"`
	Location         string           `gorm:"type:varchar(100)"`
	Category         string           `gorm:"type:varchar(100)"`
	Flags            string           `gorm:"type:jsonb;not null"`
	Status           string           `gorm:"type:varchar(20);index;not null"`
	RiskScore        *decimal.Decimal `gorm:"type:decimal(5,2)"`
	RiskLevel        string           `gorm:"type:varchar(20)"`
	ModelVersion     string           `gorm:"type:varchar(50)"`
	NotificationSent bool             `gorm:"not null;default:false"`
	EvaluatedAt      time.Time        `gorm:"not null"`
	CreatedAt        time.Time        `gorm:"not null"`
}

// TableName returns the table name for assessments
func (AssessmentModel) TableName() string {
	return "assessments"
}

// AssessmentRepository implements fraud.AssessmentRepository
type AssessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(client *Client) *AssessmentRepository {
	return &AssessmentRepository{db: client.DB()}
}

// SaveBatch stores assessments in one transaction
func (r *AssessmentRepository) SaveBatch(ctx context.Context, assessments []*fraud.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}

	models := make([]AssessmentModel, len(assessments))
	for i, a := range assessments {
		m, err := assessmentToModel(a)
		if err != nil {
			return err
		}
		models[i] = m
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			CreateInBatches(models, insertBatchSize).Error
	})
}

// GetByID retrieves an assessment by ID
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.Assessment, error) {
	var model AssessmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrAssessmentNotFound
		}
		return nil, err
	}
	return modelToAssessment(&model)
}

// List retrieves assessments ordered by transaction timestamp
func (r *AssessmentRepository) List(ctx context.Context, filter fraud.ListFilter) ([]*fraud.Assessment, error) {
	q := r.db.WithContext(ctx).Order("timestamp ASC, created_at ASC")
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var models []AssessmentModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	assessments := make([]*fraud.Assessment, len(models))
	for i := range models {
		a, err := modelToAssessment(&models[i])
		if err != nil {
			return nil, err
		}
		assessments[i] = a
	}
	return assessments, nil
}

// MarkNotified flags an assessment as notified
func (r *AssessmentRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&AssessmentModel{}).
		Where("id = ?", id).
		Update("notification_sent", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fraud.ErrAssessmentNotFound
	}
	return nil
}

type statusAggregate struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}

// Summary aggregates every stored assessment
func (r *AssessmentRepository) Summary(ctx context.Context) (*fraud.Summary, error) {
	db := r.db.WithContext(ctx)
	summary := fraud.NewSummary()

	var byStatus []statusAggregate
	if err := db.Model(&AssessmentModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate by status: %w", err)
	}

	total, flaggedTotal, clearTotal := decimal.Zero, decimal.Zero, decimal.Zero
	for _, row := range byStatus {
		summary.Total += row.Count
		total = total.Add(row.Total)
		if fraud.Status(row.Status) == fraud.StatusFlagged {
			summary.Flagged += row.Count
			flaggedTotal = flaggedTotal.Add(row.Total)
		} else {
			clearTotal = clearTotal.Add(row.Total)
		}
	}
	summary.AverageAmount = average(total, summary.Total)
	summary.AverageFlagged = average(flaggedTotal, summary.Flagged)
	summary.AverageClear = average(clearTotal, summary.Total-summary.Flagged)

	if err := db.Model(&AssessmentModel{}).
		Select("entity_id, COUNT(*) AS count").
		Group("entity_id").
		Order("count DESC, entity_id ASC").
		Limit(fraud.TopEntityCount).
		Scan(&summary.TopEntities).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate by entity: %w", err)
	}

	var encoded []string
	if err := db.Model(&AssessmentModel{}).
		Where("status = ?", string(fraud.StatusFlagged)).
		Pluck("flags", &encoded).Error; err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}
	for _, raw := range encoded {
		flags, err := decodeFlags(raw)
		if err != nil {
			return nil, err
		}
		summary.CountFlags(flags)
	}

	summary.Finalize()
	return summary, nil
}

// Clear deletes every assessment
func (r *AssessmentRepository) Clear(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&AssessmentModel{})
	return res.RowsAffected, res.Error
}

func average(total decimal.Decimal, count int64) float64 {
	if count == 0 {
		return 0
	}
	return total.Div(decimal.NewFromInt(count)).Round(2).InexactFloat64()
}

func assessmentToModel(a *fraud.Assessment) (AssessmentModel, error) {
	flags, err := json.Marshal(a.Flags)
	if err != nil {
		return AssessmentModel{}, fmt.Errorf("failed to encode flags: %w", err)
	}

	return AssessmentModel{
		ID:               a.ID,
		TransactionID:    a.TransactionID,
		EntityID:         a.EntityID,
		Timestamp:        a.Timestamp.UTC(),
		Amount:           decimal.NewFromFloat(a.Amount),
		Location:         a.Location,
		Category:         a.Category,
		Flags:            string(flags),
		Status:           string(a.Status),
		RiskScore:        a.RiskScore,
		RiskLevel:        string(a.RiskLevel),
		ModelVersion:     a.ModelVersion,
		NotificationSent: a.NotificationSent,
		EvaluatedAt:      a.EvaluatedAt,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func modelToAssessment(m *AssessmentModel) (*fraud.Assessment, error) {
	flags, err := decodeFlags(m.Flags)
	if err != nil {
		return nil, err
	}

	return &fraud.Assessment{
		ID:               m.ID,
		TransactionID:    m.TransactionID,
		EntityID:         m.EntityID,
		Timestamp:        m.Timestamp.UTC(),
		Amount:           m.Amount.InexactFloat64(),
		Location:         m.Location,
		Category:         m.Category,
		Flags:            flags,
		Status:           fraud.Status(m.Status),
		RiskScore:        m.RiskScore,
		RiskLevel:        fraud.RiskLevel(m.RiskLevel),
		ModelVersion:     m.ModelVersion,
		NotificationSent: m.NotificationSent,
		EvaluatedAt:      m.EvaluatedAt,
	}, nil
}

// decodeFlags accepts the JSON list format and, for rows written by older
// consumers, a bare flag type string
func decodeFlags(raw string) ([]fraud.Flag, error) {
	flags := make([]fraud.Flag, 0)
	if raw == "" || raw == "null" {
		return flags, nil
	}
	if raw[0] != '[' {
		return []fraud.Flag{{Type: fraud.FlagType(raw)}}, nil
	}
	if err := json.Unmarshal([]byte(raw), &flags); err != nil {
		return nil, fmt.Errorf("failed to decode flags: %w", err)
	}
	return flags, nil
}
