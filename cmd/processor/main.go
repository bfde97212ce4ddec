// Command processor runs the event-processing poll loop alongside a thin
// admin HTTP surface (/health, /stats, /process/trigger).
package main

import (
	"context"
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
	"github.com/kestrel-security/sentinel/pkg/alert"
	"github.com/kestrel-security/sentinel/pkg/alert/redissink"
	"github.com/kestrel-security/sentinel/pkg/alert/slacksink"
	"github.com/kestrel-security/sentinel/pkg/config"
	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/metrics"
	"github.com/kestrel-security/sentinel/pkg/pipeline"
	queueredis "github.com/kestrel-security/sentinel/pkg/queue/redis"
	sharedlogging "github.com/kestrel-security/sentinel/pkg/shared/logging"
	storepostgres "github.com/kestrel-security/sentinel/pkg/store/postgres"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	zapLogger, err := sharedlogging.NewZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
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
	eventStore := storepostgres.New(sqlxDB)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer redisClient.Close()
	eventQueue := queueredis.New(redisClient, cfg.Redis.QueueName)

	var sink alert.Sink = redissink.New(redisClient, cfg.Redis.AlertChannel)
	if cfg.Slack.Token != "" && cfg.Slack.Channel != "" {
		sink = slacksink.New(cfg.Slack.Token, cfg.Slack.Channel)
	}
	dispatcher := alert.NewDispatcher("processor", sink, logger)

	m := metrics.New()
	engine := correlate.NewEngine(logger)

	thresholds := alert.DefaultThresholds()
	if cfg.Pipeline.AlertThresholdSeverity != "" {
		thresholds.AlertOnHigh = cfg.Pipeline.AlertThresholdSeverity == "HIGH" || cfg.Pipeline.AlertThresholdSeverity == "high"
	}
	thresholds.RiskScore = cfg.Pipeline.AlertThresholdRiskScore

	processor := pipeline.New(pipeline.Config{
		BatchSize:         cfg.Pipeline.BatchSize,
		PollInterval:      cfg.Pipeline.PollInterval,
		CorrelationWindow: cfg.Pipeline.CorrelationWindow,
		AlertThresholds:   thresholds,
	}, eventQueue, eventStore, engine, dispatcher, m, logger)

	go func() {
		if err := processor.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorw("processor loop exited", "error", err)
		}
	}()

	h := &handlers{store: eventStore, queue: eventQueue, processor: processor, engine: engine, cfg: cfg}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	router.Get("/health", h.health)
	router.Get("/health/live", h.liveness)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/stats", h.stats)
	router.Post("/process/trigger", h.trigger)

	addr := envOr("PROCESSOR_ADDR", ":8002")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Infow("processor admin surface listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down processor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
