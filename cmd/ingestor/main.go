// Command ingestor runs the event ingest HTTP service: it accepts raw
// CloudTrail/GuardDuty/generic payloads, normalizes them, and persists +
// queues each event for the Processor.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/kestrel-security/sentinel/internal/database"
	"github.com/kestrel-security/sentinel/pkg/config"
	"github.com/kestrel-security/sentinel/pkg/metrics"
	queueredis "github.com/kestrel-security/sentinel/pkg/queue/redis"
	sharedlogging "github.com/kestrel-security/sentinel/pkg/shared/logging"
	storepostgres "github.com/kestrel-security/sentinel/pkg/store/postgres"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := sharedlogging.NewZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zapLogger.Sync()
	otel.SetLogger(sharedlogging.ToLogr(zapLogger))
	logger := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlxDB, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatalw("connect to database", "error", err)
	}
	defer sqlxDB.Close()
	if err := database.Migrate(sqlxDB.DB); err != nil {
		logger.Fatalw("run migrations", "error", err)
	}
	eventStore := storepostgres.New(sqlxDB)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer redisClient.Close()
	eventQueue := queueredis.New(redisClient, cfg.Redis.QueueName)

	m := metrics.New()

	h := &handlers{store: eventStore, queue: eventQueue, logger: logger, metrics: m}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	router.Get("/health", h.health)
	router.Get("/health/live", h.liveness)
	router.Handle("/metrics", promhttp.Handler())
	router.Post("/ingest/cloudaudit", h.ingestCloudAudit)
	router.Post("/ingest/threatdetector", h.ingestThreatDetector)
	router.Post("/ingest/generic", h.ingestGeneric)

	addr := envOr("INGESTOR_ADDR", ":8001")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Infow("ingestor listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down ingestor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
