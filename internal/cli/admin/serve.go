package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/verdantiq/esgpilot/internal/api/handlers"
	"github.com/verdantiq/esgpilot/internal/config"
	"github.com/verdantiq/esgpilot/internal/database"
	"github.com/verdantiq/esgpilot/internal/extract"
	"github.com/verdantiq/esgpilot/internal/jobs"
	"github.com/verdantiq/esgpilot/internal/openai"
	"github.com/verdantiq/esgpilot/internal/repository"
	"github.com/verdantiq/esgpilot/internal/server"
	"github.com/verdantiq/esgpilot/internal/service"
	"github.com/verdantiq/esgpilot/internal/storage"
	"github.com/verdantiq/esgpilot/internal/telemetry"
)

// ServeCmd builds the serve command, the main server entrypoint.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the esgpilot API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Sample every trace in development, 10% elsewhere.
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	port, _ := cmd.Flags().GetString("port")
	if port != "" && port != "8080" {
		cfg.Port = port
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("database connection established")

	// Migrations run on boot unless --no-migrate is set.
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	metricRepo := repository.NewMetricRepository(pool)
	interactionRepo := repository.NewInteractionRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(apiKeyRepo, uuidGen)

	if cfg.InitAPIKeyName != "" {
		if err := bootstrapInitialAPIKey(ctx, cfg.InitAPIKeyName, authSvc); err != nil {
			return fmt.Errorf("failed to bootstrap initial API key: %w", err)
		}
	}

	var s3Client *storage.S3Client
	var archive service.RawArchive
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err = storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archive = s3Client
	}

	var embeddingClient service.EmbeddingClient
	var generator service.GenerationClient
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: openaigo.EmbeddingModel(cfg.EmbeddingModel),
			ChatModel:      cfg.ChatModel,
		})
		embeddingClient = client
		generator = &chatClientAdapter{client: client}
	} else {
		embeddingClient = &NoOpEmbeddingClient{}
		generator = &NoOpGenerationClient{}
		log.Println("OPENAI_API_KEY not set: retrieval falls back to text search and generation is disabled")
	}

	retriever := service.NewRetrieverService(embeddingClient, chunkRepo)
	answerSvc := service.NewAnswerService(retriever, generator, interactionRepo, documentRepo)
	metricsSvc := service.NewMetricsService(retriever, generator, metricRepo, documentRepo)
	ingestSvc := service.NewIngestService(documentRepo, chunkRepo, extract.NewExtractor(), embeddingClient, archive)
	documentSvc := service.NewDocumentService(documentRepo)

	var reingestWorker *jobs.Worker
	if s3Client != nil && cfg.HasOpenAI() {
		processor := jobs.NewReingestWorker(documentRepo, s3Client, ingestSvc)
		reingestWorker = jobs.NewWorker(processor, 30*time.Second)
		go reingestWorker.Start(ctx)
		log.Println("re-ingest worker started")
	}

	routerCfg := server.RouterConfig{
		AuthValidator:   authSvc,
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc, documentSvc),
		QAHandler:       handlers.NewQAHandler(answerSvc),
		MetricsHandler:  handlers.NewMetricsHandler(metricsSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutdown signal received")

	if reingestWorker != nil {
		reingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// chatClientAdapter bridges the service prompt type to the OpenAI client.
type chatClientAdapter struct {
	client *openai.Client
}

func (a *chatClientAdapter) Complete(ctx context.Context, prompt service.ChatPrompt) (string, error) {
	return a.client.Complete(ctx, openai.ChatRequest{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		JSONMode:    prompt.JSONMode,
	})
}

type NoOpEmbeddingClient struct{}

func (c *NoOpEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding provider not configured: OPENAI_API_KEY required")
}

func (c *NoOpEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding provider not configured: OPENAI_API_KEY required")
}

type NoOpGenerationClient struct{}

func (c *NoOpGenerationClient) Complete(ctx context.Context, prompt service.ChatPrompt) (string, error) {
	return "", fmt.Errorf("generation provider not configured: OPENAI_API_KEY required")
}

func bootstrapInitialAPIKey(ctx context.Context, name string, authSvc *service.AuthService) error {
	keys, err := authSvc.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing keys: %w", err)
	}
	if len(keys) > 0 {
		log.Printf("bootstrap: %d API key(s) already exist, skipping", len(keys))
		return nil
	}

	token, err := authSvc.CreateAPIKey(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	log.Printf("bootstrap: created API key '%s'", name)
	log.Printf("bootstrap: token: %s (save it now, it is not shown again)", token)
	return nil
}

// runMigrations applies pending up migrations from ./migrations.
// golang-migrate needs a database/sql handle, so it gets its own
// short-lived connection through the pgx stdlib driver.
func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case err == migrate.ErrNilVersion:
		log.Println("migrations: database is up to date (no migrations applied)")
	case err != nil:
		return fmt.Errorf("failed to get migration version: %w", err)
	case dirty:
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	default:
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
