// Package ml computes the classifier-facing feature rows. It holds no model
// logic: the same rows feed training, inference and the rule engine.
package ml

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/geo"
)

// FeatureExtractor turns transaction records into feature rows
type FeatureExtractor struct {
	geo          *geo.Model
	workers      int
	historyLimit int
	logger       *zap.Logger
}

// NewFeatureExtractor creates a new feature extractor.
// workers <= 0 uses GOMAXPROCS, historyLimit <= 0 uses DefaultHistoryLimit.
func NewFeatureExtractor(model *geo.Model, workers, historyLimit int, logger *zap.Logger) *FeatureExtractor {
	if model == nil {
		model = geo.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FeatureExtractor{
		geo:          model,
		workers:      workers,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// HistoryLimit returns the number of prior records used on the inference path
func (e *FeatureExtractor) HistoryLimit() int {
	return e.historyLimit
}

// Extract computes one feature row per record. The result is aligned with
// the input: rows[i] belongs to records[i], whatever the input order.
// Entities are folded concurrently; records of one entity are folded in order.
func (e *FeatureExtractor) Extract(ctx context.Context, records []transaction.Record) ([]Features, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid record %d: %w", i, err)
		}
	}

	groups := SortAndGroup(records)
	rows := make([]Features, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, seq := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each sequence owns a disjoint set of indices into rows
			for k, f := range e.extractSequence(seq.Records) {
				rows[seq.Index[k]] = f
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("features extracted",
		zap.Int("records", len(records)),
		zap.Int("entities", len(groups)))

	return rows, nil
}

// ExtractLatest is the inference path: it keeps the most recent prior records
// of current's entity (strictly earlier timestamps, at most HistoryLimit),
// appends current and runs the batch logic, returning current's row.
func (e *FeatureExtractor) ExtractLatest(ctx context.Context, history []transaction.Record, current transaction.Record) (Features, error) {
	if err := current.Validate(); err != nil {
		return Features{}, fmt.Errorf("invalid current record: %w", err)
	}

	window := RecentHistory(history, current, e.historyLimit)
	batch := append(window, current)

	rows, err := e.Extract(ctx, batch)
	if err != nil {
		return Features{}, err
	}
	return rows[len(rows)-1], nil
}

// RecentHistory selects the prior records the inference path may use:
// same entity, timestamp strictly before current, newest limit of them,
// returned ascending by timestamp.
func RecentHistory(history []transaction.Record, current transaction.Record, limit int) []transaction.Record {
	prior := make([]transaction.Record, 0, len(history))
	for _, r := range history {
		if r.EntityID == current.EntityID && r.Timestamp.Before(current.Timestamp) {
			prior = append(prior, r)
		}
	}

	sort.SliceStable(prior, func(a, b int) bool {
		return prior[a].Timestamp.Before(prior[b].Timestamp)
	})

	if limit > 0 && len(prior) > limit {
		prior = prior[len(prior)-limit:]
	}
	return prior
}

// extractSequence folds one entity's ordered records into feature rows
func (e *FeatureExtractor) extractSequence(records []transaction.Record) []Features {
	n := len(records)
	amounts := make([]float64, n)
	categories := make([]string, n)
	timestamps := make([]time.Time, n)
	for i, r := range records {
		amounts[i] = r.Amount
		categories[i] = r.Category
		timestamps[i] = r.Timestamp
	}

	stats := ComputeAmountStats(amounts)
	counts := WindowCounts(timestamps, CountWindow)
	scores := CategoryScores(categories)
	tracker := newEntityTracker(e.geo)

	rows := make([]Features, n)
	for i, r := range records {
		d := tracker.observe(r)

		rows[i] = Features{
			Amount:              r.Amount,
			UserMeanAmount:      finite(stats.Mean),
			UserStdAmount:       finite(stats.Std),
			TimeSinceLastTxnSec: finite(d.sinceLastSec),
			TimeSinceLastTxnHrs: finite(d.sinceLastSec / 3600),
			AmountZScore:        finite(stats.ZScore(r.Amount)),
			GeoVelocityCheck:    finite(d.geoVelocityCheck),
			TxnCount30Min:       counts[i],
			CategoryUsageScore:  scores[i],
			Location:            r.Location,
			Category:            r.Category,
		}
	}
	return rows
}
