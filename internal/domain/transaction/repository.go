package transaction

import (
	"context"
	"time"
)

// HistoryRepository serves the recent raw transactions of an entity.
// Implementations return records ordered ascending by timestamp.
type HistoryRepository interface {
	// Recent returns at most limit records of entityID strictly before the given instant
	Recent(ctx context.Context, entityID string, before time.Time, limit int) ([]Record, error)

	// Append stores records so later inference calls can see them
	Append(ctx context.Context, records ...Record) error
}
