// Package store defines the durable keyed event store contract: idempotent
// Put, Get-by-id, filtered Scan, partial Update, and Health.
package store

import (
	"context"
	"time"

	"github.com/kestrel-security/sentinel/pkg/events"
)

// Filters narrows a Scan to a time range and optional value sets, all
// AND-joined. A zero-value field is treated as "no restriction".
type Filters struct {
	Since      time.Time
	Until      time.Time
	Sources    []events.Source
	Severities []events.Severity
	EventTypes []string
}

// EventStore is the durable, keyed collaborator the Ingestor writes to and
// the Processor reads/updates against. Implementations may use any index
// strategy; callers are agnostic.
type EventStore interface {
	// Put is idempotent by EventID: re-putting the same id overwrites.
	Put(ctx context.Context, event events.CanonicalEvent) error
	// Get returns (event, true) if found, or the zero value and false.
	Get(ctx context.Context, eventID string) (events.CanonicalEvent, bool, error)
	Scan(ctx context.Context, filters Filters, limit int) ([]events.CanonicalEvent, error)
	// Update atomically sets the named fields on an existing event.
	Update(ctx context.Context, eventID string, patch Patch) error
	Health(ctx context.Context) bool
}

// Patch is the atomic partial update the Processor applies after handling
// an event: status transition, processing timestamp, risk score, and the
// correlation it joined, if any.
type Patch struct {
	Status        *events.Status
	ProcessedAt   *time.Time
	RiskScore     *int
	CorrelationID *string
	Severity      *events.Severity
}
