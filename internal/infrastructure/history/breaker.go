// Package history guards recent-history lookups against a failing backend.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"fraud-feature-engine/internal/domain/transaction"
)

// BreakerConfig tunes the circuit breaker
type BreakerConfig struct {
	Name                string
	MaxRequests         uint32        // requests allowed while half-open
	Interval            time.Duration // closed-state counter reset period
	Timeout             time.Duration // open-state duration before half-open
	ConsecutiveFailures uint32        // failures that trip the breaker
}

// DefaultBreakerConfig returns the breaker settings used by the service
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker wraps a history source with a circuit breaker. Lookups that fail,
// or are rejected while the breaker is open, return an error wrapping
// transaction.ErrHistoryUnavailable.
type Breaker struct {
	source transaction.HistoryRepository
	cb     *gobreaker.CircuitBreaker
}

// NewBreaker creates a new breaker around source
func NewBreaker(source transaction.HistoryRepository, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("history breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// The caller giving up is not a backend failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Breaker{
		source: source,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Recent fetches history through the breaker
func (b *Breaker) Recent(ctx context.Context, entityID string, before time.Time, limit int) ([]transaction.Record, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.source.Recent(ctx, entityID, before, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transaction.ErrHistoryUnavailable, err)
	}
	return result.([]transaction.Record), nil
}

// Append stores records through the breaker
func (b *Breaker) Append(ctx context.Context, records ...transaction.Record) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.source.Append(ctx, records...)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", transaction.ErrHistoryUnavailable, err)
	}
	return nil
}

// State reports the breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
