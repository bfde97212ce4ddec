// Package risk computes the deterministic 0-100 risk score the processing
// pipeline attaches to each event it handles.
package risk

import (
	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/events"
	sharedmath "github.com/kestrel-security/sentinel/pkg/shared/math"
)

var severityBase = map[events.Severity]int{
	events.SeverityCritical: 80,
	events.SeverityHigh:     60,
	events.SeverityMedium:   40,
	events.SeverityLow:      20,
	events.SeverityInfo:     10,
}

// Score computes a risk score for event given the correlations produced by
// the same correlator invocation. It is a pure function: invoking it twice
// with the same arguments always yields the same result.
func Score(event events.CanonicalEvent, correlations []correlate.Record) int {
	score := severityBase[event.Severity]

	for _, rec := range correlations {
		if rec.HasEvent(event.EventID) {
			score += 20
		}
	}

	if event.Technique != nil {
		score += 10
	}

	for _, tag := range event.Tags {
		if tag == "root-account" {
			score += 30
			break
		}
	}

	return sharedmath.Clamp(score, 0, 100)
}

// MemberCorrelations returns the subset of correlations that event belongs
// to, preserving the slice's original order.
func MemberCorrelations(event events.CanonicalEvent, correlations []correlate.Record) []correlate.Record {
	var out []correlate.Record
	for _, rec := range correlations {
		if rec.HasEvent(event.EventID) {
			out = append(out, rec)
		}
	}
	return out
}
