// Package correlate scans a window of canonical events for multi-event
// attack patterns: credential brute force, privilege escalation, logging
// tampering, and reconnaissance.
package correlate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/kestrel-security/sentinel/pkg/events"
)

// Record is a correlation result emitted by a Rule. It is never stored as a
// first-class entity; the pipeline reflects membership on each member event
// by setting its CorrelationID (to the first correlation it belongs to).
type Record struct {
	Rule          string          `json:"rule"`
	Description   string          `json:"description"`
	Severity      events.Severity `json:"severity"`
	CorrelationID string          `json:"correlation_id"`
	EventIDs      []string        `json:"event_ids"`
	EventCount    int             `json:"event_count"`

	SourceIP   string   `json:"source_ip,omitempty"`
	Actor      string   `json:"actor,omitempty"`
	Sequence   []string `json:"sequence,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// HasEvent reports whether eventID is a member of r.
func (r *Record) HasEvent(eventID string) bool {
	for _, id := range r.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// sortChronologically orders a slice of events by EventTime ascending,
// stable so ties preserve the caller's original relative order.
func sortChronologically(evts []events.CanonicalEvent) []events.CanonicalEvent {
	sorted := make([]events.CanonicalEvent, len(evts))
	copy(sorted, evts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EventTime.Before(sorted[j].EventTime)
	})
	return sorted
}

// correlationID computes the 16-hex-char deterministic id for a rule over a
// set of member events: sha256(rule + ":" + first.event_type + ":" +
// first.source_ip) truncated to 16 hex chars. members must already be sorted
// chronologically so "first" is stable regardless of input order.
func correlationID(rule string, members []events.CanonicalEvent) string {
	var eventType, sourceIP string
	if len(members) > 0 {
		first := members[0]
		eventType = first.EventType
		if first.Network != nil {
			sourceIP = first.Network.SourceIP
		}
	}
	sum := sha256.Sum256([]byte(rule + ":" + eventType + ":" + sourceIP))
	return hex.EncodeToString(sum[:])[:16]
}

func eventIDs(evts []events.CanonicalEvent) []string {
	ids := make([]string, len(evts))
	for i, e := range evts {
		ids[i] = e.EventID
	}
	return ids
}

func sourceIP(e events.CanonicalEvent) string {
	if e.Network == nil || e.Network.SourceIP == "" {
		return "unknown"
	}
	return e.Network.SourceIP
}

func hasAnyTag(e events.CanonicalEvent, tags ...string) bool {
	for _, tag := range e.Tags {
		for _, want := range tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}
