package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/civicline/grievance-intake/cmd/mainconfig"
	"github.com/civicline/grievance-intake/internal/api/router"
	appconfig "github.com/civicline/grievance-intake/internal/config"
	"github.com/civicline/grievance-intake/internal/dialogue"
	"github.com/civicline/grievance-intake/internal/extraction"
	"github.com/civicline/grievance-intake/internal/http/handlers"
	"github.com/civicline/grievance-intake/internal/observability/metrics"
	"github.com/civicline/grievance-intake/internal/tickets"
	"github.com/civicline/grievance-intake/internal/transcribe"
	"github.com/civicline/grievance-intake/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting grievance intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	repo, cleanupRepo, err := buildTicketRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize ticket store", "error", err)
		os.Exit(1)
	}
	defer cleanupRepo()

	tracker, cleanupTracker, err := buildStateTracker(cfg)
	if err != nil {
		logger.Error("failed to initialize state tracker", "error", err)
		os.Exit(1)
	}
	defer cleanupTracker()

	llmClient, model, cleanupLLM, err := buildLLMClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize LLM provider", "error", err)
		os.Exit(1)
	}
	defer cleanupLLM()
	llmClient = extraction.WithTimeout(llmClient, cfg.LLMTimeout)
	oracle := extraction.NewOracle(llmClient, model, int32(cfg.LLMMaxTokens))

	var transcriber transcribe.Transcriber
	if cfg.STTAPIKey != "" && cfg.STTURL != "" {
		watson, err := transcribe.NewWatsonClient(cfg.STTURL, cfg.STTAPIKey)
		if err != nil {
			logger.Error("failed to initialize speech-to-text client", "error", err)
			os.Exit(1)
		}
		transcriber = watson
		logger.Info("voice note transcription enabled")
	}

	intakeMetrics := metrics.NewIntakeMetrics(nil)

	dialogueService := dialogue.NewService(
		tracker,
		repo,
		extraction.NewIntentClassifier(oracle),
		extraction.NewFieldExtractor(oracle),
		extraction.NewTicketIDExtractor(oracle),
		dialogue.Options{
			Transcriber: transcriber,
			Metrics:     intakeMetrics,
			Logger:      logger,
		},
	)

	webhookHandler := handlers.NewWebhookHandler(dialogueService, cfg.TwilioAuthToken, logger)
	if cfg.TwilioAuthToken == "" {
		logger.Warn("twilio signature validation disabled")
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhookHandler,
		MetricsHandler: promhttp.Handler(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func buildTicketRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (tickets.Repository, func(), error) {
	noop := func() {}
	switch cfg.TicketStore {
	case "memory":
		logger.Warn("using in-memory ticket store; tickets will not survive restarts")
		return tickets.NewInMemoryRepository(), noop, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("DATABASE_URL is required for the postgres ticket store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("failed to ping database: %w", err)
		}
		return tickets.NewPostgresRepository(pool), pool.Close, nil
	case "dynamo":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		return tickets.NewDynamoRepository(client, cfg.TicketsTable, logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown ticket store %q", cfg.TicketStore)
	}
}

func buildStateTracker(cfg *appconfig.Config) (dialogue.StateTracker, func(), error) {
	noop := func() {}
	switch cfg.StateStore {
	case "memory":
		return dialogue.NewMemoryTracker(cfg.StateTTL), noop, nil
	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to ping redis: %w", err)
		}
		return dialogue.NewRedisTracker(client, cfg.StateTTL, nil), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown state store %q", cfg.StateStore)
	}
}

func buildLLMClient(ctx context.Context, cfg *appconfig.Config) (extraction.LLMClient, string, func(), error) {
	noop := func() {}
	switch cfg.LLMProvider {
	case "bedrock":
		if cfg.BedrockModelID == "" {
			return nil, "", noop, fmt.Errorf("BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := extraction.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		return client, cfg.BedrockModelID, noop, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, "", noop, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		client, err := extraction.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, "", noop, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, "", func() { _ = client.Close() }, nil
	default:
		return nil, "", noop, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
