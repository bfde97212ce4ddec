package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/kestrel-security/sentinel/pkg/events"
	"github.com/kestrel-security/sentinel/pkg/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB), mock, func() { db.Close() }
}

func sampleEvent() events.CanonicalEvent {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-1"
	e.Source = events.SourceCloudAudit
	e.EventTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.IngestedAt = e.EventTime
	e.EventType = "ConsoleLogin"
	e.EventCategory = events.CategoryAuthentication
	e.Severity = events.SeverityHigh
	e.Status = events.StatusNew
	e.Title = "Console login"
	return e
}

func TestPutUpsertsEvent(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Put(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetReturnsEventWhenFound(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	e := sampleEvent()
	doc, _ := eventJSON(e)
	rows := sqlmock.NewRows([]string{"document"}).AddRow(doc)
	mock.ExpectQuery("SELECT document FROM events WHERE event_id").WithArgs("evt-1").WillReturnRows(rows)

	got, found, err := s.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || got.EventID != "evt-1" {
		t.Errorf("Get = %+v, found=%v", got, found)
	}
}

func TestGetReturnsNotFoundWhenNoRows(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery("SELECT document FROM events WHERE event_id").
		WithArgs("missing").WillReturnRows(sqlmock.NewRows([]string{"document"}))

	_, found, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected found=false for missing event")
	}
}

func TestScanAppliesTimeRangeFilter(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	e := sampleEvent()
	doc, _ := eventJSON(e)
	rows := sqlmock.NewRows([]string{"document"}).AddRow(doc)
	mock.ExpectQuery("SELECT document FROM events WHERE event_time >=").WillReturnRows(rows)

	got, err := s.Scan(context.Background(), store.Filters{Since: time.Now().Add(-time.Hour)}, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Scan returned %d events, want 1", len(got))
	}
}

func TestUpdateAdvancesStatusAndSetsRiskScore(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	e := sampleEvent()
	doc, _ := eventJSON(e)
	mock.ExpectQuery("SELECT document FROM events WHERE event_id").
		WithArgs("evt-1").WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(doc))
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	processed := events.StatusProcessed
	score := 90
	err := s.Update(context.Background(), "evt-1", store.Patch{Status: &processed, RiskScore: &score})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func eventJSON(e events.CanonicalEvent) ([]byte, error) {
	return json.Marshal(e)
}
