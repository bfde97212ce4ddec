package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-security/sentinel/pkg/events"
	"github.com/kestrel-security/sentinel/pkg/ingest"
	"github.com/kestrel-security/sentinel/pkg/metrics"
	"github.com/kestrel-security/sentinel/pkg/normalize/cloudaudit"
	"github.com/kestrel-security/sentinel/pkg/normalize/generic"
	"github.com/kestrel-security/sentinel/pkg/normalize/threatdetector"
	"github.com/kestrel-security/sentinel/pkg/queue"
	"github.com/kestrel-security/sentinel/pkg/store"
)

type handlers struct {
	store   store.EventStore
	queue   queue.Queue
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

type batchRequest struct {
	Events []json.RawMessage `json:"events"`
}

// ingestionResponse reports how much of a submitted batch was accepted.
type ingestionResponse struct {
	Status          string   `json:"status"`
	EventsReceived  int      `json:"events_received"`
	EventsProcessed int      `json:"events_processed"`
	EventIDs        []string `json:"event_ids"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.store.Health(r.Context()) || !h.queue.Health(r.Context()) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "service": "ingestor"})
}

func (h *handlers) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *handlers) ingestCloudAudit(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, cloudaudit.Normalize)
}

func (h *handlers) ingestThreatDetector(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, threatdetector.Normalize)
}

func (h *handlers) ingestGeneric(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := ingestionResponse{Status: "accepted", EventsReceived: len(body.Events)}
	for _, raw := range body.Events {
		var req ingest.GenericEventRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			h.logger.Warnw("skipping malformed generic event", "error", err)
			continue
		}
		if err := req.Validate(); err != nil {
			h.logger.Warnw("rejecting invalid generic event", "error", err)
			continue
		}
		value, err := req.ToValue()
		if err != nil {
			h.logger.Warnw("failed to convert generic event", "error", err)
			continue
		}

		event := generic.Normalize(value)
		h.persistAndQueue(event)
		resp.EventIDs = append(resp.EventIDs, event.EventID)
		resp.EventsProcessed++
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) ingest(w http.ResponseWriter, r *http.Request, normalize func(events.Value) events.CanonicalEvent) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := ingestionResponse{Status: "accepted", EventsReceived: len(body.Events)}
	for _, raw := range body.Events {
		var value events.Value
		if err := json.Unmarshal(raw, &value); err != nil {
			h.logger.Warnw("skipping malformed event payload", "error", err)
			continue
		}
		event := normalize(value)
		h.persistAndQueue(event)
		resp.EventIDs = append(resp.EventIDs, event.EventID)
		resp.EventsProcessed++
	}
	writeJSON(w, http.StatusOK, resp)
}

// persistAndQueue stores and enqueues event off the request path; the
// ingest response does not wait on either write.
func (h *handlers) persistAndQueue(event events.CanonicalEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := h.store.Put(ctx, event); err != nil {
			h.logger.Errorw("failed to persist event", "event_id", event.EventID, "error", err)
			return
		}
		if h.metrics != nil {
			h.metrics.EventsProcessedTotal.WithLabelValues(string(event.Source)).Inc()
		}

		body, err := json.Marshal(queue.Body{
			EventID:   event.EventID,
			Source:    string(event.Source),
			Severity:  string(event.Severity),
			EventType: event.EventType,
		})
		if err != nil {
			h.logger.Errorw("failed to marshal queue body", "event_id", event.EventID, "error", err)
			return
		}
		attrs := map[string]string{"severity": string(event.Severity), "source": string(event.Source)}
		if err := h.queue.Publish(ctx, string(body), attrs); err != nil {
			h.logger.Warnw("failed to queue event, leaving it store-only", "event_id", event.EventID, "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
