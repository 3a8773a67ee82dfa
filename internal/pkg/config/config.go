package config

import (
	"time"
)

// History sources
const (
	HistorySourceMemory   = "memory"
	HistorySourcePostgres = "postgres"
	HistorySourceRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Features   FeaturesConfig   `mapstructure:"features"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	RateLimit       string        `mapstructure:"rate_limit"` // e.g. "100-M", empty disables
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	HistoryTTL   time.Duration `mapstructure:"history_ttl"`
}

// FeaturesConfig holds feature extraction configuration.
// The numeric contract constants are deliberately absent: they are not tunable.
type FeaturesConfig struct {
	// Prior records used on the single-transaction path
	HistoryLimit int `mapstructure:"history_limit"`

	// Entities folded concurrently, 0 means GOMAXPROCS
	Workers int `mapstructure:"workers"`

	// Where recent history comes from: memory, postgres or redis
	HistorySource string `mapstructure:"history_source"`

	// Deadline for one scoring request, history fetch included
	AnalysisTimeout time.Duration `mapstructure:"analysis_timeout"`

	// Largest accepted batch
	MaxBatchSize int `mapstructure:"max_batch_size"`

	// Store assessments of scored transactions
	PersistAssessments bool `mapstructure:"persist_assessments"`
}

// ClassifierConfig holds the optional model server configuration
type ClassifierConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"` // empty disables authentication
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  32 << 20,
			RateLimit:       "",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "features",
			Password:        "",
			Name:            "fraud_features",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			HistoryTTL:   7 * 24 * time.Hour,
		},
		Features: FeaturesConfig{
			HistoryLimit:       50,
			Workers:            0,
			HistorySource:      HistorySourceMemory,
			AnalysisTimeout:    5 * time.Second,
			MaxBatchSize:       100000,
			PersistAssessments: true,
		},
		Classifier: ClassifierConfig{
			Enabled: false, // Rules work without a model
			URL:     "http://localhost:8500",
			Timeout: 2 * time.Second,
			Retries: 1,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
