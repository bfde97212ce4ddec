package cloudaudit

import (
	"encoding/json"
	"testing"

	"github.com/kestrel-security/sentinel/pkg/events"
)

func parse(t *testing.T, raw string) events.Value {
	t.Helper()
	var v events.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return v
}

func TestNormalizeRootConsoleLoginIsCritical(t *testing.T) {
	raw := parse(t, `{
		"eventID": "abc-123",
		"eventName": "ConsoleLogin",
		"eventSource": "signin.amazonaws.com",
		"eventTime": "2024-01-15T10:30:00Z",
		"awsRegion": "us-east-1",
		"sourceIPAddress": "203.0.113.5",
		"userAgent": "Mozilla/5.0",
		"userIdentity": {"type": "Root", "principalId": "AID123", "accountId": "111122223333"}
	}`)

	e := Normalize(raw)

	if e.Severity != events.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL for root login", e.Severity)
	}
	if !e.Actor.IsRoot {
		t.Error("Actor.IsRoot should be true")
	}
	if e.EventCategory != events.CategoryAuthentication {
		t.Errorf("EventCategory = %v, want authentication", e.EventCategory)
	}
	if e.Technique == nil || e.Technique.TechniqueID != "T1078" {
		t.Errorf("Technique = %+v, want T1078", e.Technique)
	}
	hasRootTag := false
	for _, tag := range e.Tags {
		if tag == "root-account" {
			hasRootTag = true
		}
	}
	if !hasRootTag {
		t.Errorf("Tags = %v, want root-account present", e.Tags)
	}
	if e.Source != events.SourceCloudAudit {
		t.Errorf("Source = %v, want CLOUD_AUDIT", e.Source)
	}
	if e.Status != events.StatusNew {
		t.Errorf("Status = %v, want NEW", e.Status)
	}
}

func TestNormalizeRootCreateUser(t *testing.T) {
	raw := parse(t, `{
		"eventID": "evt-root-create",
		"eventName": "CreateUser",
		"eventSource": "iam.amazonaws.com",
		"eventTime": "2024-01-15T10:30:00Z",
		"userIdentity": {"type": "Root", "principalId": "AID999", "accountId": "111122223333"}
	}`)

	e := Normalize(raw)

	if e.Severity != events.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL for root-account usage", e.Severity)
	}
	if e.EventCategory != events.CategoryIdentityManagement {
		t.Errorf("EventCategory = %v, want identity_management", e.EventCategory)
	}
	if e.Technique == nil || e.Technique.TechniqueID != "T1136.003" {
		t.Errorf("Technique = %+v, want T1136.003", e.Technique)
	}
	if e.Technique != nil && e.Technique.TechniqueName != "Create Account: Cloud Account" {
		t.Errorf("TechniqueName = %q, want Create Account: Cloud Account", e.Technique.TechniqueName)
	}
	hasRootTag, hasMitreTag := false, false
	for _, tag := range e.Tags {
		switch tag {
		case "root-account":
			hasRootTag = true
		case "mitre-T1136.003":
			hasMitreTag = true
		}
	}
	if !hasRootTag || !hasMitreTag {
		t.Errorf("Tags = %v, want root-account and mitre-T1136.003 present", e.Tags)
	}
}

func TestNormalizeRolePolicyNameIsIdentityManagement(t *testing.T) {
	raw := parse(t, `{
		"eventID": "evt-grp",
		"eventName": "GetRolePolicy",
		"eventSource": "sts.amazonaws.com",
		"eventTime": "2024-01-15T10:30:00Z",
		"userIdentity": {"type": "IAMUser", "userName": "dave"}
	}`)

	e := Normalize(raw)

	if e.EventCategory != events.CategoryIdentityManagement {
		t.Errorf("EventCategory = %v, want identity_management for a Role/Policy-bearing name regardless of source or verb", e.EventCategory)
	}
	if e.Severity != events.SeverityLow {
		t.Errorf("Severity = %v, want LOW for a Get-prefixed event", e.Severity)
	}
}

func TestNormalizeStopLoggingIsCriticalByPattern(t *testing.T) {
	raw := parse(t, `{
		"eventID": "evt-2",
		"eventName": "StopLogging",
		"eventSource": "cloudtrail.amazonaws.com",
		"eventTime": "2024-01-15T10:30:00Z",
		"userIdentity": {"type": "IAMUser", "userName": "attacker"}
	}`)

	e := Normalize(raw)

	if e.Severity != events.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL for StopLogging", e.Severity)
	}
	if e.EventCategory != events.CategoryLogging {
		t.Errorf("EventCategory = %v, want logging", e.EventCategory)
	}
}

func TestNormalizeFailedAuthIsHighSeverity(t *testing.T) {
	raw := parse(t, `{
		"eventID": "evt-3",
		"eventName": "AssumeRole",
		"eventSource": "sts.amazonaws.com",
		"eventTime": "2024-01-15T10:30:00Z",
		"errorCode": "AccessDenied",
		"errorMessage": "not authorized",
		"userIdentity": {"type": "IAMUser", "userName": "bob"}
	}`)

	e := Normalize(raw)

	if e.Severity != events.SeverityHigh {
		t.Errorf("Severity = %v, want HIGH", e.Severity)
	}
	hasErrorTag := false
	for _, tag := range e.Tags {
		if tag == "error" {
			hasErrorTag = true
		}
	}
	if !hasErrorTag {
		t.Errorf("Tags = %v, want error tag present", e.Tags)
	}
}

func TestNormalizeDiscoveryEventsAreLowSeverity(t *testing.T) {
	raw := parse(t, `{
		"eventID": "evt-4",
		"eventName": "ListBuckets",
		"eventSource": "s3.amazonaws.com",
		"eventTime": "2024-01-15T10:30:00Z",
		"userIdentity": {"type": "IAMUser", "userName": "carol"}
	}`)

	e := Normalize(raw)

	if e.Severity != events.SeverityLow {
		t.Errorf("Severity = %v, want LOW", e.Severity)
	}
	if e.EventCategory != events.CategoryDataAccess {
		t.Errorf("EventCategory = %v, want data_access (ListBuckets is s3 sourced)", e.EventCategory)
	}
}

func TestNormalizeUnparsableTimeFallsBackToNow(t *testing.T) {
	raw := parse(t, `{"eventID": "evt-5", "eventName": "Unknown", "eventTime": "not-a-time", "userIdentity": {}}`)

	e := Normalize(raw)
	if e.EventTime.IsZero() {
		t.Error("EventTime should fall back to current time, not zero value")
	}
}

func TestNormalizeMissingEventNameDefaultsToUnknown(t *testing.T) {
	raw := parse(t, `{"eventID": "evt-6", "userIdentity": {}}`)

	e := Normalize(raw)
	if e.EventType != "Unknown" {
		t.Errorf("EventType = %q, want Unknown", e.EventType)
	}
	if e.EventCategory != events.CategoryOther {
		t.Errorf("EventCategory = %v, want other", e.EventCategory)
	}
}
