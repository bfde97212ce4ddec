// Package ingest defines the HTTP request DTOs cmd/ingestor accepts for
// generic/custom event submission, validated with go-playground/validator
// before being handed to pkg/normalize/generic.
package ingest

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kestrel-security/sentinel/pkg/events"
)

var validate = validator.New()

// GenericEventRequest is the request body accepted by POST /ingest/generic.
// Fields are intentionally permissive: pkg/normalize/generic defaults
// anything left blank, validator only rejects structurally broken input.
type GenericEventRequest struct {
	EventTime     string            `json:"event_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EventType     string            `json:"event_type" validate:"omitempty,max=128"`
	EventCategory string            `json:"event_category" validate:"omitempty,max=64"`
	Title         string            `json:"title" validate:"omitempty,max=256"`
	Description   string            `json:"description" validate:"omitempty,max=4096"`
	Severity      string            `json:"severity" validate:"omitempty,oneof=info low medium high critical INFO LOW MEDIUM HIGH CRITICAL"`
	Tags          []string          `json:"tags" validate:"omitempty,dive,max=64"`
	Metadata      map[string]string `json:"metadata" validate:"omitempty,dive,keys,max=128,endkeys,max=1024"`
}

// Validate runs struct-tag validation, returning validator.ValidationErrors
// describing each failed field; cmd/ingestor logs and skips such an event.
func (r GenericEventRequest) Validate() error {
	return validate.Struct(r)
}

// ToValue converts a validated request into the events.Value tree
// pkg/normalize/generic.Normalize expects, round-tripping through JSON so
// field names line up with what Normalize's Get() calls look for.
func (r GenericEventRequest) ToValue() (events.Value, error) {
	payload := map[string]interface{}{
		"event_type":     r.EventType,
		"event_category": r.EventCategory,
		"title":          r.Title,
		"description":    r.Description,
		"severity":       r.Severity,
		"tags":           r.Tags,
	}
	if r.EventTime != "" {
		payload["event_time"] = r.EventTime
	} else {
		payload["event_time"] = time.Now().UTC().Format(time.RFC3339)
	}
	if len(r.Metadata) > 0 {
		payload["metadata"] = r.Metadata
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return events.Value{}, err
	}
	var value events.Value
	if err := json.Unmarshal(raw, &value); err != nil {
		return events.Value{}, err
	}
	return value, nil
}
