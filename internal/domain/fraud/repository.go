package fraud

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows an assessment listing
type ListFilter struct {
	EntityID string
	Status   Status
	Limit    int
	Offset   int
}

// AssessmentRepository manages stored assessments
type AssessmentRepository interface {
	// SaveBatch stores assessments in one unit of work
	SaveBatch(ctx context.Context, assessments []*Assessment) error

	// GetByID retrieves an assessment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)

	// List returns assessments ordered by transaction timestamp
	List(ctx context.Context, filter ListFilter) ([]*Assessment, error)

	// MarkNotified records that an alert was sent for an assessment
	MarkNotified(ctx context.Context, id uuid.UUID) error

	// Summary aggregates every stored assessment
	Summary(ctx context.Context) (*Summary, error)

	// Clear removes every assessment and returns how many were deleted
	Clear(ctx context.Context) (int64, error)
}
