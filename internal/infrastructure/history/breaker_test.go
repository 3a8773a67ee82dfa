package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/memory"
)

type failingSource struct {
	calls int
	err   error
}

func (f *failingSource) Recent(ctx context.Context, entityID string, before time.Time, limit int) ([]transaction.Record, error) {
	f.calls++
	return nil, f.err
}

func (f *failingSource) Append(ctx context.Context, records ...transaction.Record) error {
	f.calls++
	return f.err
}

func testConfig() BreakerConfig {
	cfg := DefaultBreakerConfig("test")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreaker_PassesThrough(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore()
	b := NewBreaker(store, testConfig(), nil)

	r := transaction.Record{EntityID: "U1", Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Location: "Pune", Category: "Food"}
	require.NoError(t, b.Append(ctx, r))

	got, err := b.Recent(ctx, "U1", r.Timestamp.Add(time.Second), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	source := &failingSource{err: errors.New("connection refused")}
	b := NewBreaker(source, testConfig(), nil)

	for i := 0; i < 2; i++ {
		_, err := b.Recent(ctx, "U1", time.Now(), 10)
		assert.ErrorIs(t, err, transaction.ErrHistoryUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Recent(ctx, "U1", time.Now(), 10)
	assert.ErrorIs(t, err, transaction.ErrHistoryUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, source.calls)
}

func TestBreaker_CancellationDoesNotTrip(t *testing.T) {
	source := &failingSource{err: context.Canceled}
	b := NewBreaker(source, testConfig(), nil)

	for i := 0; i < 5; i++ {
		_, err := b.Recent(context.Background(), "U1", time.Now(), 10)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
