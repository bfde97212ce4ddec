// Package pipeline implements the Processor's long-running poll loop:
// drain a message batch from the queue, correlate the recent event window,
// score and alert each event, then persist the processing outcome.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-security/sentinel/pkg/alert"
	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/events"
	"github.com/kestrel-security/sentinel/pkg/metrics"
	"github.com/kestrel-security/sentinel/pkg/queue"
	"github.com/kestrel-security/sentinel/pkg/risk"
	sharedlogging "github.com/kestrel-security/sentinel/pkg/shared/logging"
	"github.com/kestrel-security/sentinel/pkg/store"
)

var tracer = otel.Tracer("github.com/kestrel-security/sentinel/pkg/pipeline")

// Config holds the tick-shaping knobs loaded from pkg/config.Pipeline.
type Config struct {
	BatchSize         int
	PollInterval      time.Duration
	CorrelationWindow time.Duration
	AlertThresholds   alert.Thresholds
}

// Processor runs the queue-drain / correlate / score / alert / persist
// loop. Exactly one poll loop per instance; redelivery after a crash is
// safe because correlation and scoring are idempotent.
type Processor struct {
	cfg        Config
	queue      queue.Queue
	store      store.EventStore
	engine     *correlate.Engine
	dispatcher *alert.Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger

	Stats Stats
}

// New wires a Processor from its collaborators. metrics and logger may be
// nil to disable instrumentation/logging respectively.
func New(cfg Config, q queue.Queue, s store.EventStore, engine *correlate.Engine, dispatcher *alert.Dispatcher, m *metrics.Metrics, logger *zap.SugaredLogger) *Processor {
	return &Processor{cfg: cfg, queue: q, store: s, engine: engine, dispatcher: dispatcher, metrics: m, logger: logger}
}

// Run loops Tick until ctx is cancelled. Cancellation is checked between
// ticks only, so an in-flight tick always completes. A failed tick (queue
// receive or window scan error) backs off for one poll interval before
// retrying instead of hammering a down collaborator.
func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.Tick(ctx); err != nil {
			if p.logger != nil {
				p.logger.Errorw("pipeline tick failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.PollInterval):
			}
		}
	}
}

// Tick runs exactly one pull/correlate/score/alert/persist cycle.
func (p *Processor) Tick(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "pipeline.tick")
	defer span.End()

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PipelineTickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	messages, err := p.queue.Receive(ctx, p.cfg.BatchSize, int(p.cfg.PollInterval/time.Second))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("batch_size", len(messages)))
	if p.metrics != nil {
		p.metrics.QueueDepth.Set(float64(len(messages)))
	}
	if p.logger != nil {
		fields := sharedlogging.PipelineFields(len(messages), span.SpanContext().TraceID().String())
		kvs := make([]interface{}, 0, len(fields)*2)
		for k, v := range fields {
			kvs = append(kvs, k, v)
		}
		p.logger.Infow("tick received messages", kvs...)
	}
	if len(messages) == 0 {
		return nil
	}

	window, err := p.store.Scan(ctx, store.Filters{Since: time.Now().Add(-p.cfg.CorrelationWindow)}, 0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	correlations := p.engine.Correlate(window)
	p.Stats.setCorrelationsFound(len(correlations))
	if p.metrics != nil {
		for _, rec := range correlations {
			p.metrics.CorrelationsFoundTotal.WithLabelValues(rec.Rule).Inc()
		}
	}

	byID := make(map[string]events.CanonicalEvent, len(window))
	for _, e := range window {
		byID[e.EventID] = e
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, msg := range messages {
		msg := msg
		group.Go(func() error {
			return p.processMessage(gctx, msg, byID, correlations)
		})
	}
	if err := group.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	p.Stats.recordTickCompleted(time.Now())
	if p.metrics != nil {
		p.metrics.LastProcessedAt.SetToCurrentTime()
	}
	return nil
}

// processMessage handles one queue delivery: locate its event in the
// already-computed window, score and alert it, then persist and
// acknowledge. A message whose event isn't in the window is left un-acked
// rather than deleted, so a queue that redelivers unacknowledged messages
// can hand it to a later tick once the store write lands.
func (p *Processor) processMessage(ctx context.Context, msg queue.Message, window map[string]events.CanonicalEvent, correlations []correlate.Record) error {
	var body queue.Body
	if err := json.Unmarshal([]byte(msg.Body), &body); err != nil {
		if p.logger != nil {
			p.logger.Warnw("unprocessable message body", "error", err)
		}
		return nil
	}

	event, ok := window[body.EventID]
	if !ok {
		if p.logger != nil {
			p.logger.Warnw("event not found in window, leaving message unacked", "event_id", body.EventID)
		}
		return nil
	}

	memberOf := risk.MemberCorrelations(event, correlations)
	score := risk.Score(event, correlations)

	if alert.ShouldAlert(event, score, p.cfg.AlertThresholds) {
		if p.dispatcher.DispatchEvent(ctx, event, score, memberOf) {
			p.Stats.recordAlertSent()
			if p.metrics != nil {
				p.metrics.AlertsSentTotal.WithLabelValues("event", "default").Inc()
			}
		}
	}

	for _, rec := range memberOf {
		if len(rec.EventIDs) > 0 && rec.EventIDs[0] == event.EventID {
			if p.dispatcher.DispatchCorrelation(ctx, rec) {
				p.Stats.recordAlertSent()
				if p.metrics != nil {
					p.metrics.AlertsSentTotal.WithLabelValues("correlation", "default").Inc()
				}
			}
		}
	}

	now := time.Now().UTC()
	processedStatus := events.StatusProcessed
	patch := store.Patch{
		Status:      &processedStatus,
		ProcessedAt: &now,
		RiskScore:   &score,
	}
	if len(memberOf) > 0 {
		id := memberOf[0].CorrelationID
		patch.CorrelationID = &id
	}
	if err := p.store.Update(ctx, event.EventID, patch); err != nil {
		if p.logger != nil {
			p.logger.Errorw("failed to persist processed event, leaving message unacked", "event_id", event.EventID, "error", err)
		}
		return nil
	}

	if err := p.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		if p.logger != nil {
			p.logger.Warnw("failed to delete acknowledged message", "event_id", event.EventID, "error", err)
		}
	}

	p.Stats.recordEventProcessed()
	if p.metrics != nil {
		p.metrics.EventsProcessedTotal.WithLabelValues(string(event.Source)).Inc()
	}
	return nil
}
