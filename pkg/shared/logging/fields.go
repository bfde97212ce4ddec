// Package logging provides a chainable structured-logging field builder
// for this codebase's zap-based components, plus a suppressed-by-default
// logrus test-suite logger (see testsuite.go) for quiet test runs.
package logging

import (
	"time"

	"go.uber.org/zap"
)

// Fields is a chainable builder for structured log fields.
type Fields map[string]interface{}

// NewFields returns an empty Fields builder.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(v string) Fields  { f["component"] = v; return f }
func (f Fields) Operation(v string) Fields  { f["operation"] = v; return f }
func (f Fields) Resource(v string) Fields   { f["resource"] = v; return f }
func (f Fields) Duration(v time.Duration) Fields { f["duration_ms"] = v.Milliseconds(); return f }
func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}
func (f Fields) UserID(v string) Fields     { f["user_id"] = v; return f }
func (f Fields) RequestID(v string) Fields  { f["request_id"] = v; return f }
func (f Fields) TraceID(v string) Fields    { f["trace_id"] = v; return f }
func (f Fields) StatusCode(v int) Fields    { f["status_code"] = v; return f }
func (f Fields) Method(v string) Fields     { f["method"] = v; return f }
func (f Fields) URL(v string) Fields        { f["url"] = v; return f }
func (f Fields) Count(v int) Fields         { f["count"] = v; return f }
func (f Fields) Size(v int) Fields          { f["size"] = v; return f }
func (f Fields) Version(v string) Fields    { f["version"] = v; return f }
func (f Fields) Custom(key string, v interface{}) Fields { f[key] = v; return f }

// ToZap converts Fields into zap.Field slices for use with zap-style
// components.
func (f Fields) ToZap() []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// DatabaseFields builds the Fields conventionally attached to store
// operation logs.
func DatabaseFields(operation, table string) Fields {
	return NewFields().Operation(operation).Custom("table", table)
}

// HTTPFields builds the Fields conventionally attached to HTTP request logs.
func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Method(method).URL(url).StatusCode(statusCode)
}

// PipelineFields builds the Fields conventionally attached to pipeline tick
// logs.
func PipelineFields(batchSize int, traceID string) Fields {
	return NewFields().Count(batchSize).TraceID(traceID)
}

// SecurityFields builds the Fields conventionally attached to logs about a
// classified security event.
func SecurityFields(eventID, severity, category string) Fields {
	return NewFields().Custom("event_id", eventID).Custom("severity", severity).Custom("category", category)
}

// PerformanceFields builds the Fields conventionally attached to logs
// reporting operation latency.
func PerformanceFields(operation string, d time.Duration) Fields {
	return NewFields().Operation(operation).Duration(d)
}
