package config

import (
	"errors"
	"fmt"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}

	if c.Features.HistoryLimit < 1 {
		return errors.New("history_limit must be at least 1")
	}

	if c.Features.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if c.Features.MaxBatchSize < 1 {
		return errors.New("max_batch_size must be at least 1")
	}

	if c.Features.AnalysisTimeout <= 0 {
		return errors.New("analysis_timeout must be positive")
	}

	switch c.Features.HistorySource {
	case HistorySourceMemory, HistorySourcePostgres, HistorySourceRedis:
	default:
		return fmt.Errorf("unknown history_source %q", c.Features.HistorySource)
	}

	if c.Classifier.Enabled && c.Classifier.URL == "" {
		return errors.New("classifier url is required when the classifier is enabled")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	return nil
}
