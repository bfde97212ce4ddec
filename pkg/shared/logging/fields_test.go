package logging

import (
	"errors"
	"testing"
	"time"
)

func TestFieldsChaining(t *testing.T) {
	f := NewFields().
		Component("processor").
		Operation("tick").
		Resource("batch-1").
		Count(10).
		Duration(250 * time.Millisecond)

	if f["component"] != "processor" {
		t.Errorf("component = %v, want processor", f["component"])
	}
	if f["operation"] != "tick" {
		t.Errorf("operation = %v, want tick", f["operation"])
	}
	if f["duration_ms"] != int64(250) {
		t.Errorf("duration_ms = %v, want 250", f["duration_ms"])
	}
}

func TestFieldsErrorOmitsNil(t *testing.T) {
	f := NewFields().Error(nil)
	if _, ok := f["error"]; ok {
		t.Error("Error(nil) should not set the error key")
	}
	f = NewFields().Error(errors.New("boom"))
	if f["error"] != "boom" {
		t.Errorf("error = %v, want boom", f["error"])
	}
}

func TestFieldsToZapProducesOneFieldPerKey(t *testing.T) {
	f := NewFields().Component("ingestor").Count(3)
	zf := f.ToZap()
	if len(zf) != 2 {
		t.Errorf("ToZap() produced %d fields, want 2", len(zf))
	}
}

func TestSecurityFields(t *testing.T) {
	f := SecurityFields("evt-1", "CRITICAL", "authentication")
	if f["event_id"] != "evt-1" || f["severity"] != "CRITICAL" || f["category"] != "authentication" {
		t.Errorf("SecurityFields = %v, missing expected keys", f)
	}
}
