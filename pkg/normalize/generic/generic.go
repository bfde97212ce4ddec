// Package generic accepts pre-normalized or custom security events that
// already roughly conform to the canonical schema, for tools that don't
// speak CloudTrail or GuardDuty's native formats.
package generic

import (
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-security/sentinel/pkg/events"
)

// Normalize builds a CanonicalEvent from a caller-supplied, already mostly
// normalized payload. Unlike the vendor normalizers, the caller owns
// event_type/category/title/severity; Normalize fills in only what's missing
// and defaults defensively rather than rejecting the record.
func Normalize(raw events.Value) events.CanonicalEvent {
	e := events.NewCanonicalEvent()
	e.EventID = uuid.NewString()
	e.Source = events.ParseSource(raw.Get("source").String())
	e.IngestedAt = time.Now().UTC()
	e.Raw = raw

	if t := raw.Get("event_time").String(); t != "" {
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			e.EventTime = parsed.UTC()
		} else {
			e.EventTime = time.Now().UTC()
		}
	} else {
		e.EventTime = time.Now().UTC()
	}

	e.EventType = raw.Get("event_type").StringOr("custom")
	e.EventCategory = events.ParseCategory(raw.Get("event_category").StringOr("other"))
	e.Title = raw.Get("title").StringOr("Custom Security Event")
	e.Description = raw.Get("description").String()
	e.Severity = events.ParseSeverity(raw.Get("severity").StringOr("info"))

	if tags := raw.Get("tags").Items(); len(tags) > 0 {
		for _, tag := range tags {
			if s := tag.String(); s != "" {
				e.AddTag(s)
			}
		}
	} else {
		e.AddTag("custom")
	}

	if meta := raw.Get("metadata"); meta.Kind == events.KindMap {
		for k, v := range meta.Map {
			e.Metadata[k] = v
		}
	}

	return e
}
