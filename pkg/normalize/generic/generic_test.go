package generic

import (
	"encoding/json"
	"testing"

	"github.com/kestrel-security/sentinel/pkg/events"
)

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	var raw events.Value
	if err := json.Unmarshal([]byte(`{}`), &raw); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	e := Normalize(raw)

	if e.Source != events.SourceCustom {
		t.Errorf("Source = %v, want CUSTOM", e.Source)
	}
	if e.EventType != "custom" {
		t.Errorf("EventType = %q, want custom", e.EventType)
	}
	if e.Title != "Custom Security Event" {
		t.Errorf("Title = %q, want default", e.Title)
	}
	if e.Severity != events.SeverityInfo {
		t.Errorf("Severity = %v, want INFO", e.Severity)
	}
	if len(e.Tags) != 1 || e.Tags[0] != "custom" {
		t.Errorf("Tags = %v, want [custom]", e.Tags)
	}
	if e.EventTime.IsZero() {
		t.Error("EventTime should default to now, not zero value")
	}
}

func TestNormalizeParsesSourceAndMetadata(t *testing.T) {
	var raw events.Value
	payload := `{
		"source": "AUDIT_HUB",
		"event_type": "finding_imported",
		"event_category": "not-a-real-category",
		"metadata": {"origin": "securityhub", "finding_count": 3}
	}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	e := Normalize(raw)

	if e.Source != events.SourceAuditHub {
		t.Errorf("Source = %v, want AUDIT_HUB", e.Source)
	}
	if e.EventCategory != events.CategoryOther {
		t.Errorf("EventCategory = %v, want other for an unrecognized category", e.EventCategory)
	}
	if e.Metadata["origin"].String() != "securityhub" {
		t.Errorf("metadata origin = %v, want securityhub", e.Metadata["origin"])
	}
	if e.Metadata["finding_count"].Float64() != 3 {
		t.Errorf("metadata finding_count = %v, want 3", e.Metadata["finding_count"])
	}
}

func TestNormalizeHonorsCallerSuppliedFields(t *testing.T) {
	var raw events.Value
	payload := `{
		"event_time": "2024-02-01T00:00:00Z",
		"event_type": "suspicious_login",
		"event_category": "authentication",
		"title": "Odd login from new device",
		"description": "flagged by a third-party IdP",
		"severity": "high",
		"tags": ["idp", "beta"]
	}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	e := Normalize(raw)

	if e.EventType != "suspicious_login" {
		t.Errorf("EventType = %q, want suspicious_login", e.EventType)
	}
	if e.EventCategory != events.CategoryAuthentication {
		t.Errorf("EventCategory = %v, want authentication", e.EventCategory)
	}
	if e.Severity != events.SeverityHigh {
		t.Errorf("Severity = %v, want HIGH", e.Severity)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "idp" || e.Tags[1] != "beta" {
		t.Errorf("Tags = %v, want [idp beta]", e.Tags)
	}
}
