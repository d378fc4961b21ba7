package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/config"
	"github.com/IgorSimim/zoopia-go/internal/handler"
	"github.com/IgorSimim/zoopia-go/internal/infra/cache"
	"github.com/IgorSimim/zoopia-go/internal/infra/jsonstore"
	"github.com/IgorSimim/zoopia-go/internal/infra/llm"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/infra/resilience"
	"github.com/IgorSimim/zoopia-go/internal/infra/session"
	"github.com/IgorSimim/zoopia-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "zoopia-api")
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("model", cfg.OpenAIModel),
		zap.String("data_dir", cfg.DataDir),
		zap.Duration("classifier_timeout", cfg.ClassifierTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "zoopia-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	store, err := jsonstore.New(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to open data dir", zap.Error(err))
	}
	disputeStore := jsonstore.NewDisputeStore(store)
	invoiceStore := jsonstore.NewInvoiceStore(store)

	// --- Sessions & cache ---
	sessions := session.New(cfg.SessionTTL)
	invoiceCache := cache.New[service.InvoiceData](cfg.CacheTTL)

	// --- Classifier ---
	classifier := llm.NewClassifier(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.ClassifierTimeout,
		Resilience: resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		},
	}, metrics, logger)

	// --- Services ---
	extract := service.Extractors{
		KnownMerchants: cfg.KnownMerchants,
		BlockedWords:   cfg.BlockedWords,
	}

	disputeSvc, err := service.NewDisputeService(disputeStore, classifier, extract, metrics, logger)
	if err != nil {
		logger.Fatal("failed to create dispute service", zap.Error(err))
	}

	lookupSvc := service.NewLookupService(invoiceStore, invoiceCache, metrics, logger)

	convSvc := service.NewConversationService(
		sessions,
		disputeSvc,
		lookupSvc,
		classifier,
		extract,
		cfg.ClassifierTimeout,
		metrics,
		logger,
	)

	tokens := service.NewSessionTokens([]byte(cfg.JWTSecret), cfg.SessionJWT)

	// --- Router ---
	router := handler.NewRouter(convSvc, disputeSvc, lookupSvc, disputeStore, tokens, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
