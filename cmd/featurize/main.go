// Command featurize computes the feature table and rule flags for a CSV
// batch offline, the same rows the API returns for an upload.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/infrastructure/classifier"
	"fraud-feature-engine/internal/infrastructure/geo"
	"fraud-feature-engine/internal/infrastructure/ingest"
	"fraud-feature-engine/internal/infrastructure/ml"
	"fraud-feature-engine/internal/infrastructure/rules"
	"fraud-feature-engine/internal/pkg/config"
	"fraud-feature-engine/internal/pkg/logger"
	"fraud-feature-engine/internal/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	in := flag.String("in", "-", "Input CSV, - for stdin")
	out := flag.String("out", "-", "Output file, - for stdout")
	format := flag.String("format", ingest.FormatCSV, "Output format: csv or json")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if err := run(*in, *out, *format, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "featurize: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out, format, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openInput(in)
	if err != nil {
		return err
	}
	defer src.Close()

	records, err := ingest.ReadRecords(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}

	var model ml.Classifier
	if cfg.Classifier.Enabled {
		model = classifier.NewRemote(classifier.Config{
			BaseURL: cfg.Classifier.URL,
			Timeout: cfg.Classifier.Timeout,
			Retries: cfg.Classifier.Retries,
		})
	}

	// Offline runs use the batch itself as history and store nothing
	uc := scoring.NewScoreUseCase(
		ml.NewFeatureExtractor(geo.Default(), cfg.Features.Workers, cfg.Features.HistoryLimit, log),
		rules.NewEngine(),
		nil,
		nil,
		model,
		metrics.NewCollector(),
		log,
		scoring.Config{MaxBatchSize: 0},
	)

	result, err := uc.ExecuteBatch(ctx, scoring.BatchInput{Records: records})
	if err != nil {
		return err
	}

	dst, err := openOutput(out)
	if err != nil {
		return err
	}
	if err := ingest.Write(dst, format, result.Rows()); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}

	log.Info("features written",
		zap.Int("records", result.Response.Count),
		zap.Int("flagged", result.Response.Flagged),
		zap.String("out", out))
	return dst.Close()
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
