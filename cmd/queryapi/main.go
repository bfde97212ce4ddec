// Command queryapi exposes the read-only events API (list/search/get/stats)
// over pkg/store.EventStore for operators and dashboards.
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
	"go.opentelemetry.io/otel"

	"github.com/kestrel-security/sentinel/internal/database"
	"github.com/kestrel-security/sentinel/pkg/config"
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

	h := &handlers{store: eventStore}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	router.Get("/health", h.health)
	router.Get("/health/live", h.liveness)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.listEvents)
		r.Get("/stats", h.stats)
		r.Post("/search", h.search)
		r.Get("/severity/{severity}", h.bySeverity)
		r.Get("/source/{source}", h.bySource)
		r.Get("/{eventID}", h.getEvent)
	})

	addr := envOr("QUERYAPI_ADDR", ":8003")
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Infow("queryapi listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down queryapi")
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
