package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kestrel-security/sentinel/pkg/config"
	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/pipeline"
	"github.com/kestrel-security/sentinel/pkg/queue"
	"github.com/kestrel-security/sentinel/pkg/store"
)

type handlers struct {
	store     store.EventStore
	queue     queue.Queue
	processor *pipeline.Processor
	engine    *correlate.Engine
	cfg       *config.Config
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.store.Health(r.Context()) || !h.queue.Health(r.Context()) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "service": "processor"})
}

func (h *handlers) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// stats serves GET /stats as {service, stats, config}.
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "processor",
		"stats":   h.processor.Stats.Snapshot(),
		"config": map[string]interface{}{
			"batch_size":                 h.cfg.Pipeline.BatchSize,
			"poll_interval_seconds":      h.cfg.Pipeline.PollIntervalSeconds,
			"correlation_window_minutes": h.cfg.Pipeline.CorrelationWindowMinutes,
		},
	})
}

// trigger handles POST /process/trigger: runs one correlation pass over
// the current window out of band, without consuming the queue.
func (h *handlers) trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window, err := h.store.Scan(ctx, store.Filters{Since: time.Now().Add(-h.cfg.Pipeline.CorrelationWindow)}, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	correlations := h.engine.Correlate(window)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "triggered",
		"recent_events_count": len(window),
		"correlations_found":  len(correlations),
		"correlations":        correlations,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
