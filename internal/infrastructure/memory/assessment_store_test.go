package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-feature-engine/internal/domain/fraud"
)

func TestAssessmentStore(t *testing.T) {
	ctx := context.Background()
	s := NewAssessmentStore()

	flagged := fraud.NewAssessment(record("U1", time.Minute, 100), []fraud.Flag{{Type: fraud.FlagVelocity, Reason: "x"}})
	clean := fraud.NewAssessment(record("U1", 0, 50), nil)
	other := fraud.NewAssessment(record("U2", 2*time.Minute, 75), nil)
	require.NoError(t, s.SaveBatch(ctx, []*fraud.Assessment{flagged, clean, other}))

	got, err := s.GetByID(ctx, flagged.ID)
	require.NoError(t, err)
	assert.Equal(t, flagged, got)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, fraud.ErrAssessmentNotFound)

	list, err := s.List(ctx, fraud.ListFilter{EntityID: "U1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, clean.ID, list[0].ID)

	list, err = s.List(ctx, fraud.ListFilter{Status: fraud.StatusFlagged})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = s.List(ctx, fraud.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, flagged.ID, list[0].ID)

	list, err = s.List(ctx, fraud.ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.MarkNotified(ctx, clean.ID))
	assert.True(t, clean.NotificationSent)
	assert.ErrorIs(t, s.MarkNotified(ctx, uuid.New()), fraud.ErrAssessmentNotFound)

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(1), summary.Flagged)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	summary, err = s.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}
