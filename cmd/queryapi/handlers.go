package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kestrel-security/sentinel/pkg/events"
	"github.com/kestrel-security/sentinel/pkg/store"
)

type handlers struct {
	store store.EventStore
}

// eventStats aggregates counts by severity and source over the full store.
type eventStats struct {
	TotalEvents int            `json:"total_events"`
	BySeverity  map[string]int `json:"by_severity"`
	BySource    map[string]int `json:"by_source"`
}

type searchRequest struct {
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
	Severities []string `json:"severities"`
	Sources    []string `json:"sources"`
	EventTypes []string `json:"event_types"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.store.Health(r.Context()) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "service": "queryapi"})
}

func (h *handlers) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// listEvents handles GET /events with limit/offset/severity/source/
// event_type/start_time/end_time query parameters.
func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := store.Filters{}

	if v := q.Get("severity"); v != "" {
		filters.Severities = []events.Severity{events.ParseSeverity(v)}
	}
	if v := q.Get("source"); v != "" {
		filters.Sources = []events.Source{events.ParseSource(v)}
	}
	if v := q.Get("event_type"); v != "" {
		filters.EventTypes = []string{v}
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.Since = t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.Until = t
		}
	}

	limit := queryInt(q, "limit", 100)
	offset := queryInt(q, "offset", 0)

	out, err := h.runScan(r, filters, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	filters := store.Filters{EventTypes: req.EventTypes}
	for _, s := range req.Severities {
		filters.Severities = append(filters.Severities, events.ParseSeverity(s))
	}
	for _, s := range req.Sources {
		filters.Sources = append(filters.Sources, events.ParseSource(s))
	}
	if req.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, req.StartTime); err == nil {
			filters.Since = t
		}
	}
	if req.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, req.EndTime); err == nil {
			filters.Until = t
		}
	}

	out, err := h.runScan(r, filters, req.Limit, req.Offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) bySeverity(w http.ResponseWriter, r *http.Request) {
	severity := events.ParseSeverity(chi.URLParam(r, "severity"))
	limit := queryInt(r.URL.Query(), "limit", 100)
	out, err := h.runScan(r, store.Filters{Severities: []events.Severity{severity}}, limit, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) bySource(w http.ResponseWriter, r *http.Request) {
	source := events.ParseSource(chi.URLParam(r, "source"))
	limit := queryInt(r.URL.Query(), "limit", 100)
	out, err := h.runScan(r, store.Filters{Sources: []events.Source{source}}, limit, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	event, found, err := h.store.Get(r.Context(), eventID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// stats computes aggregate counts over the full store. The underlying scan
// has no pagination limit since stats needs every row.
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.Scan(r.Context(), store.Filters{}, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := eventStats{TotalEvents: len(all), BySeverity: map[string]int{}, BySource: map[string]int{}}
	for _, e := range all {
		out.BySeverity[string(e.Severity)]++
		out.BySource[string(e.Source)]++
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) runScan(r *http.Request, filters store.Filters, limit, offset int) ([]interface{}, error) {
	out, err := h.store.Scan(r.Context(), filters, 0)
	if err != nil {
		return nil, err
	}
	if offset >= len(out) {
		return []interface{}{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	result := make([]interface{}, len(out))
	for i, e := range out {
		result[i] = e
	}
	return result, nil
}

func queryInt(q map[string][]string, key string, fallback int) int {
	values, ok := q[key]
	if !ok || len(values) == 0 {
		return fallback
	}
	v, err := strconv.Atoi(values[0])
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
