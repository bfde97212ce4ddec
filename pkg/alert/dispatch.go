package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/events"
)

const subjectClip = 80

// Dispatcher wraps a Sink with a circuit breaker so a flapping downstream
// (Slack webhook, Redis connection) degrades to fast no-op failures instead
// of blocking the pipeline's fire-and-forget alerting.
type Dispatcher struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewDispatcher wraps sink with a circuit breaker named for logging/metrics
// purposes.
func NewDispatcher(name string, sink Sink, logger *zap.SugaredLogger) *Dispatcher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Dispatcher{sink: sink, breaker: breaker, logger: logger}
}

// DispatchEvent formats and sends a single-event alert. Dispatch is
// fire-and-forget: on failure it logs and returns false, never retries, and
// never aborts the caller's processing.
func (d *Dispatcher) DispatchEvent(ctx context.Context, event events.CanonicalEvent, riskScore int, correlations []correlate.Record) bool {
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(event.Severity)), clip(orUnknown(event.Title, "Security Event"), subjectClip))
	body := FormatEventAlert(event, riskScore, correlations)
	attrs := Attributes(
		"severity", string(event.Severity),
		"event_type", event.EventType,
		"risk_score", fmt.Sprintf("%d", riskScore),
	)
	return d.publish(ctx, subject, body, attrs, "event alert", event.EventID)
}

// DispatchCorrelation formats and sends a correlation alert.
func (d *Dispatcher) DispatchCorrelation(ctx context.Context, rec correlate.Record) bool {
	subject := fmt.Sprintf("[CORRELATION] %s: %s", rec.Rule, clip(rec.Description, 60))
	body := FormatCorrelationAlert(rec)
	attrs := Attributes(
		"alert_type", "correlation",
		"rule", rec.Rule,
		"severity", string(rec.Severity),
	)
	return d.publish(ctx, subject, body, attrs, "correlation alert", rec.CorrelationID)
}

func (d *Dispatcher) publish(ctx context.Context, subject, body string, attrs map[string]string, kind, id string) bool {
	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.sink.Publish(ctx, subject, body, attrs)
	})
	if err != nil {
		if d.logger != nil {
			d.logger.Warnw("alert dispatch failed", "kind", kind, "id", id, "error", err)
		}
		return false
	}
	return true
}
