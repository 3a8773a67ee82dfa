package scoring

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"fraud-feature-engine/internal/application/dto"
	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/ingest"
	"fraud-feature-engine/internal/infrastructure/ml"
)

// BatchInput is a set of transactions evaluated together. Each entity's
// features are computed from the records in the batch only.
type BatchInput struct {
	Records []transaction.Record
	Persist bool
	Path    string // metric label, PathBatch when empty
}

// BatchOutput keeps the feature rows next to the response for writers
// that need the full assessment, aligned with the input records.
type BatchOutput struct {
	Response    *dto.BatchResponse
	Records     []transaction.Record
	Features    []ml.Features
	Assessments []*fraud.Assessment
}

// Rows pairs every record with its features and outcome for the writers
func (o *BatchOutput) Rows() []ingest.Row {
	rows := make([]ingest.Row, len(o.Records))
	for i, r := range o.Records {
		rows[i] = ingest.Row{
			Record:    r,
			Features:  o.Features[i],
			Flags:     o.Assessments[i].Flags,
			RiskScore: o.Assessments[i].RiskScore,
		}
	}
	return rows
}

// ExecuteBatch computes features, flags and scores for every record.
// Results are aligned with the input order.
func (uc *ScoreUseCase) ExecuteBatch(ctx context.Context, input BatchInput) (*BatchOutput, error) {
	startTime := time.Now()

	if len(input.Records) == 0 {
		return nil, fraud.ErrEmptyBatch
	}
	if uc.cfg.MaxBatchSize > 0 && len(input.Records) > uc.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", fraud.ErrBatchTooLarge, len(input.Records), uc.cfg.MaxBatchSize)
	}

	path := input.Path
	if path == "" {
		path = PathBatch
	}

	ctx, span := uc.tracer.Start(ctx, "scoring.ExecuteBatch", trace.WithAttributes(
		attribute.Int("records", len(input.Records)),
		attribute.String("path", path),
	))
	defer span.End()

	rows, err := uc.extractor.Extract(ctx, input.Records)
	if err != nil {
		return nil, uc.fail(span, err)
	}

	assessments := make([]*fraud.Assessment, len(rows))
	for i, row := range rows {
		assessments[i] = uc.evaluate(input.Records[i], row)
	}
	uc.score(ctx, assessments, rows)

	persisted := false
	if input.Persist {
		persisted, err = uc.persist(ctx, assessments, input.Records)
		if err != nil {
			return nil, uc.fail(span, err)
		}
	}

	resp := &dto.BatchResponse{
		Results: make([]dto.FeatureResult, len(rows)),
		Count:   len(rows),
	}
	for i, a := range assessments {
		resp.Results[i] = dto.NewFeatureResult(a, rows[i], persisted)
		if a.IsFlagged() {
			resp.Flagged++
		}
	}

	elapsed := time.Since(startTime)
	resp.LatencyMs = elapsed.Milliseconds()
	uc.metrics.ObserveExtraction(path, len(rows), elapsed)
	span.SetAttributes(attribute.Int("flagged", resp.Flagged))

	uc.logger.Info("batch evaluated",
		zap.String("path", path),
		zap.Int("records", resp.Count),
		zap.Int("flagged", resp.Flagged),
		zap.Bool("persisted", persisted),
		zap.Duration("elapsed", elapsed))

	return &BatchOutput{Response: resp, Records: input.Records, Features: rows, Assessments: assessments}, nil
}
