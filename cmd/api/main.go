package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	limiter "github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fraud-feature-engine/internal/application/scoring"
	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/cache/redis"
	"fraud-feature-engine/internal/infrastructure/classifier"
	"fraud-feature-engine/internal/infrastructure/database/postgres"
	"fraud-feature-engine/internal/infrastructure/geo"
	"fraud-feature-engine/internal/infrastructure/history"
	"fraud-feature-engine/internal/infrastructure/http/router"
	"fraud-feature-engine/internal/infrastructure/memory"
	"fraud-feature-engine/internal/infrastructure/ml"
	"fraud-feature-engine/internal/infrastructure/rules"
	"fraud-feature-engine/internal/interfaces/http/handler"
	"fraud-feature-engine/internal/pkg/config"
	"fraud-feature-engine/internal/pkg/logger"
	"fraud-feature-engine/internal/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Local .env is optional
	_ = godotenv.Load()

	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting feature engine API",
		zap.String("version", version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))

	// Error reporting
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     "fraud-feature-engine@" + version,
		}); err != nil {
			log.Warn("sentry initialization failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()

	// Database connection
	var dbClient *postgres.Client
	var assessmentRepo fraud.AssessmentRepository

	dbClient, err = postgres.NewClient(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Warn("database connection failed, assessments kept in memory", zap.Error(err))
		dbClient = nil
		assessmentRepo = memory.NewAssessmentStore()
	} else {
		log.Info("connected to PostgreSQL",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port))
		if cfg.Database.AutoMigrate {
			if err := dbClient.Migrate(ctx); err != nil {
				log.Fatal("database migration failed", zap.Error(err))
			}
		}
		assessmentRepo = postgres.NewAssessmentRepository(dbClient)
	}

	// Redis connection
	redisClient, err := redis.NewClient(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Warn("redis connection failed", zap.Error(err))
		redisClient = nil
	} else {
		log.Info("connected to Redis",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port))
	}

	// Initialize history source
	historyRepo, historySource := newHistorySource(cfg, dbClient, redisClient, log)
	log.Info("history source ready", zap.String("source", historySource))

	// Initialize optional classifier
	var model ml.Classifier
	if cfg.Classifier.Enabled {
		model = classifier.NewRemote(classifier.Config{
			BaseURL: cfg.Classifier.URL,
			Timeout: cfg.Classifier.Timeout,
			Retries: cfg.Classifier.Retries,
		})
		log.Info("classifier enabled", zap.String("url", cfg.Classifier.URL))
	}

	collector := metrics.NewCollector()

	// Initialize feature pipeline
	extractor := ml.NewFeatureExtractor(geo.Default(), cfg.Features.Workers, cfg.Features.HistoryLimit, log)
	ruleEngine := rules.NewEngine()

	// Initialize use cases
	scoreUseCase := scoring.NewScoreUseCase(
		extractor,
		ruleEngine,
		historyRepo,
		assessmentRepo,
		model,
		collector,
		log,
		scoring.Config{
			AnalysisTimeout:    cfg.Features.AnalysisTimeout,
			MaxBatchSize:       cfg.Features.MaxBatchSize,
			PersistAssessments: cfg.Features.PersistAssessments,
			HistorySource:      historySource,
		},
	)
	assessmentsUseCase := scoring.NewAssessmentsUseCase(assessmentRepo, log)

	// Initialize handlers
	featuresHandler := handler.NewFeaturesHandler(scoreUseCase, cfg.Server.MaxUploadBytes, log)
	assessmentsHandler := handler.NewAssessmentsHandler(assessmentsUseCase)

	var dbHealthChecker handler.HealthChecker
	var redisHealthChecker handler.HealthChecker
	if dbClient != nil {
		dbHealthChecker = dbClient
	}
	if redisClient != nil {
		redisHealthChecker = redisClient
	}
	healthHandler := handler.NewHealthHandler(dbHealthChecker, redisHealthChecker, historySource, version)

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = handler.MetricsHandler(collector)
	}

	// Rate limit counters are shared through Redis when it is up
	var limiterStore limiter.Store
	if redisClient != nil && cfg.Server.RateLimit != "" {
		limiterStore, err = sredis.NewStoreWithOptions(redisClient.Redis(), limiter.StoreOptions{
			Prefix: "features:limiter",
		})
		if err != nil {
			log.Warn("redis rate limit store unavailable, using memory", zap.Error(err))
			limiterStore = nil
		}
	}

	middleware, err := router.NewMiddleware(cfg.Server.RateLimit, cfg.Auth.JWTSecret, limiterStore)
	if err != nil {
		log.Fatal("invalid middleware configuration", zap.Error(err))
	}

	// Create router
	r := router.NewRouter(
		featuresHandler,
		assessmentsHandler,
		healthHandler,
		metricsHandler,
		middleware,
		router.Config{MetricsPath: cfg.Metrics.Path, Development: cfg.Log.Format == "console"},
		log,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	// Close connections
	var closeErr error
	if dbClient != nil {
		closeErr = multierr.Append(closeErr, dbClient.Close())
	}
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	if closeErr != nil {
		log.Error("failed to close connections", zap.Errors("errors", multierr.Errors(closeErr)))
	}

	log.Info("server stopped")
}

// newHistorySource picks the configured history backend. Remote backends are
// guarded by a circuit breaker; an unreachable backend falls back to memory.
func newHistorySource(cfg *config.Config, db *postgres.Client, rdb *redis.Client, log *zap.Logger) (transaction.HistoryRepository, string) {
	switch cfg.Features.HistorySource {
	case config.HistorySourcePostgres:
		if db != nil {
			repo := postgres.NewTransactionRepository(db)
			return history.NewBreaker(repo, history.DefaultBreakerConfig("history-postgres"), log), config.HistorySourcePostgres
		}
		log.Warn("postgres history requested but database is unavailable, using memory")
	case config.HistorySourceRedis:
		if rdb != nil {
			cache := redis.NewHistoryCache(rdb, cfg.Features.HistoryLimit, cfg.Redis.HistoryTTL)
			return history.NewBreaker(cache, history.DefaultBreakerConfig("history-redis"), log), config.HistorySourceRedis
		}
		log.Warn("redis history requested but redis is unavailable, using memory")
	}
	return memory.NewHistoryStore(), config.HistorySourceMemory
}
