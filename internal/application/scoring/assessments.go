package scoring

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fraud-feature-engine/internal/application/dto"
	"fraud-feature-engine/internal/domain/fraud"
)

// ErrPersistenceDisabled is returned when no assessment store is configured
var ErrPersistenceDisabled = errors.New("assessment storage is disabled")

// Listing bounds
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// AssessmentsUseCase reads and maintains stored assessments
type AssessmentsUseCase struct {
	repo   fraud.AssessmentRepository
	logger *zap.Logger
}

// NewAssessmentsUseCase creates a new assessments use case
func NewAssessmentsUseCase(repo fraud.AssessmentRepository, logger *zap.Logger) *AssessmentsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentsUseCase{repo: repo, logger: logger}
}

// List returns a page of assessments
func (uc *AssessmentsUseCase) List(ctx context.Context, filter fraud.ListFilter) (*dto.AssessmentListResponse, error) {
	if uc.repo == nil {
		return nil, ErrPersistenceDisabled
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]*fraud.Assessment, 0)
	}

	return &dto.AssessmentListResponse{
		Assessments: items,
		Count:       len(items),
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}, nil
}

// Get returns one assessment
func (uc *AssessmentsUseCase) Get(ctx context.Context, id uuid.UUID) (*fraud.Assessment, error) {
	if uc.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return uc.repo.GetByID(ctx, id)
}

// Summary aggregates every stored assessment
func (uc *AssessmentsUseCase) Summary(ctx context.Context) (*fraud.Summary, error) {
	if uc.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return uc.repo.Summary(ctx)
}

// MarkNotified records that an alert went out for a flagged assessment
func (uc *AssessmentsUseCase) MarkNotified(ctx context.Context, id uuid.UUID) (*fraud.Assessment, error) {
	if uc.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	if err := uc.repo.MarkNotified(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.GetByID(ctx, id)
}

// Clear removes every stored assessment
func (uc *AssessmentsUseCase) Clear(ctx context.Context) (*dto.ClearResponse, error) {
	if uc.repo == nil {
		return nil, ErrPersistenceDisabled
	}

	deleted, err := uc.repo.Clear(ctx)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("assessments cleared", zap.Int64("deleted", deleted))
	return &dto.ClearResponse{Deleted: deleted}, nil
}
