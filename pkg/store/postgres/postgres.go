// Package postgres implements store.EventStore backed by PostgreSQL via
// jmoiron/sqlx for row scanning convenience atop the jackc/pgx/v5/stdlib
// database/sql adapter (see internal/database.Connect), with lib/pq
// retained for its pq.Array slice-binding helper. The full CanonicalEvent
// is persisted as a JSONB document; a handful of columns are duplicated out
// of that document purely to index Scan's filter predicates.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kestrel-security/sentinel/pkg/events"
	sharederrors "github.com/kestrel-security/sentinel/pkg/shared/errors"
	"github.com/kestrel-security/sentinel/pkg/store"
)

// Store is a store.EventStore backed by a Postgres "events" table.
type Store struct {
	db *sqlx.DB
}

// New wraps an open *sqlx.DB (see internal/database.Connect) as a Store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Put upserts event, idempotent by EventID.
func (s *Store) Put(ctx context.Context, event events.CanonicalEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return sharederrors.ParseError("marshal", "postgres_store", err)
	}

	const q = `
		INSERT INTO events (
			event_id, source, source_event_id, event_time, ingested_at,
			processed_at, event_type, event_category, severity, status,
			title, description, correlation_id, risk_score, document
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (event_id) DO UPDATE SET
			source_event_id = EXCLUDED.source_event_id,
			event_time = EXCLUDED.event_time,
			processed_at = EXCLUDED.processed_at,
			event_type = EXCLUDED.event_type,
			event_category = EXCLUDED.event_category,
			severity = EXCLUDED.severity,
			status = EXCLUDED.status,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			correlation_id = EXCLUDED.correlation_id,
			risk_score = EXCLUDED.risk_score,
			document = EXCLUDED.document
	`
	_, err = s.db.ExecContext(ctx, s.db.Rebind(q),
		event.EventID, string(event.Source), nullableString(event.SourceEventID), event.EventTime,
		event.IngestedAt, event.ProcessedAt, event.EventType, string(event.EventCategory),
		string(event.Severity), string(event.Status), event.Title, event.Description,
		nullableString(event.CorrelationID), event.RiskScore, doc,
	)
	if err != nil {
		return sharederrors.DatabaseError("put", "postgres_store", err)
	}
	return nil
}

// Get returns the event stored under eventID.
func (s *Store) Get(ctx context.Context, eventID string) (events.CanonicalEvent, bool, error) {
	var doc []byte
	err := s.db.GetContext(ctx, &doc, s.db.Rebind(`SELECT document FROM events WHERE event_id = $1`), eventID)
	if err == sql.ErrNoRows {
		return events.CanonicalEvent{}, false, nil
	}
	if err != nil {
		return events.CanonicalEvent{}, false, sharederrors.DatabaseError("get", "postgres_store", err)
	}
	var event events.CanonicalEvent
	if err := json.Unmarshal(doc, &event); err != nil {
		return events.CanonicalEvent{}, false, sharederrors.ParseError("unmarshal", "postgres_store", err)
	}
	return event, true, nil
}

// Scan returns events matching filters (AND-joined), newest-event-time
// first, capped at limit.
func (s *Store) Scan(ctx context.Context, filters store.Filters, limit int) ([]events.CanonicalEvent, error) {
	var clauses []string
	var args []interface{}

	if !filters.Since.IsZero() {
		args = append(args, filters.Since)
		clauses = append(clauses, fmt.Sprintf("event_time >= $%d", len(args)))
	}
	if !filters.Until.IsZero() {
		args = append(args, filters.Until)
		clauses = append(clauses, fmt.Sprintf("event_time <= $%d", len(args)))
	}
	if len(filters.Sources) > 0 {
		args = append(args, pq.Array(sourcesToStrings(filters.Sources)))
		clauses = append(clauses, fmt.Sprintf("source = ANY($%d)", len(args)))
	}
	if len(filters.Severities) > 0 {
		args = append(args, pq.Array(severitiesToStrings(filters.Severities)))
		clauses = append(clauses, fmt.Sprintf("severity = ANY($%d)", len(args)))
	}
	if len(filters.EventTypes) > 0 {
		args = append(args, pq.Array(filters.EventTypes))
		clauses = append(clauses, fmt.Sprintf("event_type = ANY($%d)", len(args)))
	}

	query := "SELECT document FROM events"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY event_time DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, sharederrors.DatabaseError("scan", "postgres_store", err)
	}
	defer rows.Close()

	var out []events.CanonicalEvent
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, sharederrors.DatabaseError("scan_row", "postgres_store", err)
		}
		var event events.CanonicalEvent
		if err := json.Unmarshal(doc, &event); err != nil {
			return nil, sharederrors.ParseError("unmarshal", "postgres_store", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Update applies patch to the event stored under eventID, re-serializing
// the JSONB document so Get/Scan stay consistent with the indexed columns.
func (s *Store) Update(ctx context.Context, eventID string, patch store.Patch) error {
	event, found, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if !found {
		return sharederrors.DatabaseError("update", "postgres_store", fmt.Errorf("event %s not found", eventID))
	}

	if patch.Status != nil {
		event.Advance(*patch.Status)
	}
	if patch.ProcessedAt != nil {
		event.ProcessedAt = patch.ProcessedAt
	}
	if patch.RiskScore != nil {
		event.RiskScore = *patch.RiskScore
	}
	if patch.CorrelationID != nil {
		event.CorrelationID = *patch.CorrelationID
	}
	if patch.Severity != nil {
		event.RaiseSeverity(*patch.Severity)
	}

	return s.Put(ctx, event)
}

// Health reports whether the backing connection answers a ping.
func (s *Store) Health(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func sourcesToStrings(sources []events.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}

func severitiesToStrings(severities []events.Severity) []string {
	out := make([]string, len(severities))
	for i, s := range severities {
		out[i] = string(s)
	}
	return out
}
