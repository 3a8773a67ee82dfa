// Package scoring orchestrates feature extraction, rule evaluation and
// optional classifier scoring for single transactions and batches.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"fraud-feature-engine/internal/application/dto"
	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/ml"
	"fraud-feature-engine/internal/infrastructure/rules"
	"fraud-feature-engine/internal/pkg/metrics"
)

// Extraction paths, used as metric labels
const (
	PathSingle = "single"
	PathBatch  = "batch"
	PathUpload = "upload"
)

// Config tunes the use case
type Config struct {
	AnalysisTimeout    time.Duration
	MaxBatchSize       int
	PersistAssessments bool
	HistorySource      string // metric label of the history backend
}

// ScoreInput is one transaction to score. A non-nil History replaces the
// stored history for this call, and nothing is written back.
type ScoreInput struct {
	Record  transaction.Record
	History []transaction.Record
}

// ScoreUseCase evaluates transactions
type ScoreUseCase struct {
	extractor   *ml.FeatureExtractor
	engine      *rules.Engine
	history     transaction.HistoryRepository
	assessments fraud.AssessmentRepository // nil disables persistence
	classifier  ml.Classifier              // nil leaves rows unscored
	metrics     *metrics.Collector
	logger      *zap.Logger
	tracer      trace.Tracer

	// Config
	cfg Config
}

// NewScoreUseCase creates a new scoring use case
func NewScoreUseCase(
	extractor *ml.FeatureExtractor,
	engine *rules.Engine,
	history transaction.HistoryRepository,
	assessments fraud.AssessmentRepository,
	classifier ml.Classifier,
	collector *metrics.Collector,
	logger *zap.Logger,
	cfg Config,
) *ScoreUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 5 * time.Second
	}
	if cfg.HistorySource == "" {
		cfg.HistorySource = "unknown"
	}

	return &ScoreUseCase{
		extractor:   extractor,
		engine:      engine,
		history:     history,
		assessments: assessments,
		classifier:  classifier,
		metrics:     collector,
		logger:      logger,
		tracer:      otel.Tracer("fraud-feature-engine/scoring"),
		cfg:         cfg,
	}
}

// Execute scores a single transaction against its entity's recent history
func (uc *ScoreUseCase) Execute(ctx context.Context, input ScoreInput) (*dto.ScoreResponse, error) {
	startTime := time.Now()

	// Apply timeout
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.AnalysisTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(ctx, "scoring.Execute", trace.WithAttributes(
		attribute.String("entity.id", input.Record.EntityID),
		attribute.Bool("history.inline", input.History != nil),
	))
	defer span.End()

	inline := input.History != nil
	history, degraded, err := uc.loadHistory(ctx, input)
	if err != nil {
		return nil, uc.fail(span, err)
	}

	features, err := uc.extractor.ExtractLatest(ctx, history, input.Record)
	if err != nil {
		return nil, uc.fail(span, err)
	}

	assessment := uc.evaluate(input.Record, features)
	uc.score(ctx, []*fraud.Assessment{assessment}, []ml.Features{features})

	persisted := false
	if !inline {
		persisted, err = uc.persist(ctx, []*fraud.Assessment{assessment}, []transaction.Record{input.Record})
		if err != nil {
			return nil, uc.fail(span, err)
		}
	}

	uc.metrics.ObserveExtraction(PathSingle, 1, time.Since(startTime))
	span.SetAttributes(attribute.String("status", string(assessment.Status)))

	uc.logger.Debug("transaction scored",
		zap.String("entity_id", input.Record.EntityID),
		zap.String("status", string(assessment.Status)),
		zap.Int("history", len(history)),
		zap.Bool("degraded", degraded))

	return &dto.ScoreResponse{
		FeatureResult:   dto.NewFeatureResult(assessment, features, persisted),
		HistoryUsed:     len(ml.RecentHistory(history, input.Record, uc.extractor.HistoryLimit())),
		HistoryDegraded: degraded,
		LatencyMs:       time.Since(startTime).Milliseconds(),
	}, nil
}

// loadHistory returns the inline history or the stored one. An unavailable
// backend degrades to an empty history instead of failing the request.
func (uc *ScoreUseCase) loadHistory(ctx context.Context, input ScoreInput) ([]transaction.Record, bool, error) {
	if input.History != nil {
		return input.History, false, nil
	}
	if uc.history == nil {
		return nil, false, nil
	}

	history, err := uc.history.Recent(ctx, input.Record.EntityID, input.Record.Timestamp, uc.extractor.HistoryLimit())
	if err == nil {
		return history, false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}

	uc.metrics.IncHistoryError(uc.cfg.HistorySource)
	uc.logger.Warn("history unavailable, scoring without history",
		zap.String("entity_id", input.Record.EntityID),
		zap.String("source", uc.cfg.HistorySource),
		zap.Error(err))
	return nil, true, nil
}

// evaluate runs the rules over one row and builds its assessment
func (uc *ScoreUseCase) evaluate(record transaction.Record, features ml.Features) *fraud.Assessment {
	flags := uc.engine.Evaluate(features, record.Amount)
	for _, f := range flags {
		uc.metrics.IncFlag(string(f.Type))
	}
	return fraud.NewAssessment(record, flags)
}

// score attaches classifier risk scores. Classifier failures leave the
// assessments unscored; the rule outcome stands on its own.
func (uc *ScoreUseCase) score(ctx context.Context, assessments []*fraud.Assessment, rows []ml.Features) {
	if uc.classifier == nil || len(rows) == 0 {
		return
	}

	ctx, span := uc.tracer.Start(ctx, "scoring.classify", trace.WithAttributes(attribute.Int("rows", len(rows))))
	defer span.End()

	pred, err := uc.classifier.Predict(ctx, rows)
	if err == nil && len(pred.Probabilities) != len(rows) {
		err = fmt.Errorf("%w: %d rows, %d predictions", fraud.ErrInvalidProbabilities, len(rows), len(pred.Probabilities))
	}
	if err != nil {
		span.RecordError(err)
		uc.logger.Warn("classifier failed, returning rule outcome only", zap.Error(err))
		return
	}

	for i, a := range assessments {
		risk, err := fraud.RiskScore(pred.Classes, pred.Probabilities[i])
		if err != nil {
			uc.logger.Warn("discarding classifier row", zap.Int("row", i), zap.Error(err))
			continue
		}
		a.SetRiskScore(risk, pred.ModelVersion)
		uc.metrics.ObserveRiskScore(risk.InexactFloat64())
	}
}

// persist stores assessments and appends records to the history source.
// It reports whether the assessments were stored.
func (uc *ScoreUseCase) persist(ctx context.Context, assessments []*fraud.Assessment, records []transaction.Record) (bool, error) {
	stored := false
	if uc.assessments != nil && uc.cfg.PersistAssessments {
		if err := uc.assessments.SaveBatch(ctx, assessments); err != nil {
			return false, fmt.Errorf("failed to save assessments: %w", err)
		}
		stored = true
	}

	if uc.history != nil {
		if err := uc.history.Append(ctx, records...); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stored, ctxErr
			}
			uc.metrics.IncHistoryError(uc.cfg.HistorySource)
			uc.logger.Warn("failed to append history",
				zap.Int("records", len(records)),
				zap.Error(err))
		}
	}
	return stored, nil
}

// fail records err on the span and maps deadline expiry to ErrAnalysisTimeout
func (uc *ScoreUseCase) fail(span trace.Span, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", fraud.ErrAnalysisTimeout, err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
