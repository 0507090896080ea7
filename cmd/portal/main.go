package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/config"
	"github.com/fazenda-socios/portal-bfa-go/internal/handler"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/cache"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/memory"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/objectstore"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/postgres"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/resilience"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/scheduler"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/supabase"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "portal-bfa")
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Bool("database_url_set", cfg.DatabaseURL != ""),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("session_idle_timeout", cfg.SessionIdleTimeout),
		zap.String("event_cleanup_schedule", cfg.EventCleanupSchedule),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "portal-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Backend ---
	var (
		store    port.Store
		identity port.IdentityProvider
		objects  port.ObjectStore
		writer   port.OrderWriter
		files    http.Handler
		probe    handler.HealthProbe
	)

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			logger,
			supabase.WithMetrics(metrics),
		)
		store, identity, objects, writer = client, client, client, client
		probe = client.Ping
	} else {
		logger.Warn("Supabase not configured, using the in-memory backend")
		mem := memory.NewStore()
		objs := memory.NewObjects(fmt.Sprintf("http://localhost:%d/files", cfg.Port))
		store, identity, objects, writer = mem, memory.NewIdentities(), objs, mem
		files = objs
	}

	// Direct Postgres connection takes over the transactional order writes.
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(context.Background(), cfg.DatabaseURL, int32(cfg.MaxConcurrency))
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		writer = postgres.NewOrderWriter(pool, logger)
		logger.Info("order writes go through postgres transactions")
	}

	if cfg.StorageBackend == "s3" {
		s3, err := objectstore.NewS3(context.Background(), objectstore.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBase:      cfg.S3PublicBase,
		}, logger)
		if err != nil {
			logger.Fatal("failed to init s3 storage", zap.Error(err))
		}
		objects, files = s3, nil
		logger.Info("object storage on s3", zap.String("endpoint", cfg.S3Endpoint))
	}

	// --- Services ---
	sessions := cache.New[service.Session](cfg.SessionIdleTimeout)
	uploader := service.NewUploader(objects, cfg.MaxConcurrency, metrics, logger)

	visitors := service.NewVisitorService(store, logger)
	reservations := service.NewReservationService(store, metrics, logger)
	shop := service.NewShopService(store, writer, uploader, metrics, logger)
	events := service.NewEventService(store, uploader, logger)

	svc := handler.Services{
		Sessions:     service.NewSessionService(identity, store, sessions, metrics, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.SuperAdminEmail, logger),
		Navigation:   service.NewNavigationService(store, logger),
		Reservations: reservations,
		Shop:         shop,
		News:         service.NewNewsService(store, uploader, logger),
		Events:       events,
		Documents:    service.NewDocumentService(store, uploader, logger),
		Gallery:      service.NewGalleryService(store, uploader, logger),
		Members:      service.NewMemberService(store, logger),
		Visitors:     visitors,
		Contact:      service.NewContactService(store, logger),
		Finance:      service.NewFinanceService(store, logger),
		Exports:      service.NewExportService(visitors, reservations, shop, logger),
	}

	// --- Jobs ---
	jobs := scheduler.New(logger)
	if err := jobs.AddEventCleanup(cfg.EventCleanupSchedule, events); err != nil {
		logger.Fatal("failed to schedule jobs", zap.Error(err))
	}
	jobs.Start()

	// --- Router ---
	router := handler.NewRouter(svc, handler.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Probe:          probe,
		Files:          files,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
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

	jobs.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
