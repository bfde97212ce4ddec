package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/events"
)

func TestFormatEventAlertIsBoundedByDelimiters(t *testing.T) {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-1"
	e.Title = "Root console login"
	e.Severity = events.SeverityCritical
	e.EventType = "ConsoleLogin"
	e.EventTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	e.Network = &events.Network{SourceIP: "203.0.113.5", UserAgent: strings.Repeat("x", 150)}
	e.Description = "Suspicious root login"

	out := FormatEventAlert(e, 95, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != delimiter || lines[len(lines)-1] != delimiter {
		t.Errorf("output not bounded by delimiter lines: first=%q last=%q", lines[0], lines[len(lines)-1])
	}
	if !strings.Contains(out, "Risk Score: 95/100") {
		t.Error("expected risk score line")
	}
	if !strings.Contains(out, "Severity: CRITICAL") {
		t.Error("expected uppercased severity")
	}
	if strings.Contains(out, strings.Repeat("x", 101)) {
		t.Error("expected user agent clipped at 100 chars")
	}
}

func TestFormatEventAlertListsParticipatingCorrelations(t *testing.T) {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-1"

	corr := correlate.Record{Rule: "brute_force", Description: "desc", EventIDs: []string{"evt-1"}}
	out := FormatEventAlert(e, 10, []correlate.Record{corr})
	if !strings.Contains(out, "brute_force: desc") {
		t.Errorf("expected correlated pattern line, got:\n%s", out)
	}
}

func TestFormatCorrelationAlertShowsFirstFiveAndRemainderCount(t *testing.T) {
	rec := correlate.Record{
		Rule:          "reconnaissance",
		Description:   "Multiple discovery API calls",
		Severity:      events.SeverityMedium,
		CorrelationID: "abc123",
		EventCount:    7,
		EventIDs:      []string{"1", "2", "3", "4", "5", "6", "7"},
	}
	out := FormatCorrelationAlert(rec)
	if !strings.Contains(out, "Related Event IDs: 1, 2, 3, 4, 5") {
		t.Errorf("expected first five ids, got:\n%s", out)
	}
	if !strings.Contains(out, "... and 2 more") {
		t.Errorf("expected remainder count, got:\n%s", out)
	}
}
