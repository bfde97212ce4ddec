package threatdetector

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

func TestNormalizeMediumSeverityPortScan(t *testing.T) {
	raw := parse(t, `{
		"Id": "finding-1",
		"Type": "Recon:EC2/Portscan",
		"Severity": 5.0,
		"AccountId": "111122223333",
		"Region": "us-east-1",
		"CreatedAt": "2024-01-15T12:00:00Z",
		"Title": "EC2 instance is performing a port scan",
		"Resource": {"ResourceType": "Instance"}
	}`)

	e := Normalize(raw)

	if e.Severity != events.SeverityMedium {
		t.Errorf("Severity = %v, want MEDIUM for gd severity 5.0", e.Severity)
	}
	if e.EventCategory != events.CategoryReconnaissance {
		t.Errorf("EventCategory = %v, want reconnaissance", e.EventCategory)
	}
	if e.Technique == nil || e.Technique.TechniqueID != "T1595.001" {
		t.Errorf("Technique = %+v, want T1595.001", e.Technique)
	}
	if e.Source != events.SourceThreatDetector {
		t.Errorf("Source = %v, want THREAT_DETECTOR", e.Source)
	}
}

func TestNormalizeCriticalSeverityThreshold(t *testing.T) {
	raw := parse(t, `{"Id": "f2", "Type": "UnauthorizedAccess:EC2/SSHBruteForce", "Severity": 8.5, "CreatedAt": "2024-01-15T12:00:00Z"}`)
	e := Normalize(raw)
	if e.Severity != events.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL for gd severity 8.5", e.Severity)
	}
}

func TestNormalizePrefixFallbackMitreMapping(t *testing.T) {
	raw := parse(t, `{"Id": "f3", "Type": "Recon:EC2/NMAPScan", "Severity": 3.0, "CreatedAt": "2024-01-15T12:00:00Z"}`)
	e := Normalize(raw)
	if e.Technique == nil {
		t.Fatal("expected a prefix-matched Technique, got nil")
	}
	if e.Technique.TechniqueID != "T1595.001" {
		t.Errorf("TechniqueID = %q, want prefix-matched T1595.001", e.Technique.TechniqueID)
	}
}

func TestNormalizeNetworkConnectionTakesPrecedence(t *testing.T) {
	raw := parse(t, `{
		"Id": "f4",
		"Type": "UnauthorizedAccess:EC2/SSHBruteForce",
		"Severity": 5.0,
		"CreatedAt": "2024-01-15T12:00:00Z",
		"Service": {
			"Action": {
				"NetworkConnectionAction": {
					"RemoteIpDetails": {"IpAddressV4": "198.51.100.1"},
					"RemotePortDetails": {"Port": 44120},
					"LocalPortDetails": {"Port": 22},
					"Protocol": "TCP"
				},
				"AwsApiCallAction": {
					"RemoteIpDetails": {"IpAddressV4": "198.51.100.99"},
					"UserAgent": "aws-cli"
				}
			}
		}
	}`)

	e := Normalize(raw)
	if e.Network == nil {
		t.Fatal("expected Network to be populated")
	}
	if e.Network.SourceIP != "198.51.100.1" {
		t.Errorf("Network.SourceIP = %q, want the NetworkConnectionAction remote IP", e.Network.SourceIP)
	}
	if e.Network.SourcePort != 44120 || e.Network.DestinationPort != 22 {
		t.Errorf("ports = %d/%d, want 44120/22", e.Network.SourcePort, e.Network.DestinationPort)
	}
	if e.Network.Protocol != "TCP" {
		t.Errorf("Network.Protocol = %q, want TCP", e.Network.Protocol)
	}
}

func TestNormalizeAPICallUsedWhenNoNetworkConnection(t *testing.T) {
	raw := parse(t, `{
		"Id": "f4b",
		"Type": "Discovery:IAMUser/AnomalousBehavior",
		"Severity": 5.0,
		"CreatedAt": "2024-01-15T12:00:00Z",
		"Service": {
			"Action": {
				"AwsApiCallAction": {
					"RemoteIpDetails": {"IpAddressV4": "198.51.100.99"},
					"UserAgent": "aws-cli"
				}
			}
		}
	}`)

	e := Normalize(raw)
	if e.Network == nil {
		t.Fatal("expected Network to be populated from AwsApiCallAction")
	}
	if e.Network.SourceIP != "198.51.100.99" {
		t.Errorf("Network.SourceIP = %q, want the AwsApiCallAction IP", e.Network.SourceIP)
	}
	if e.Network.UserAgent != "aws-cli" {
		t.Errorf("Network.UserAgent = %q, want aws-cli", e.Network.UserAgent)
	}
}

func TestNormalizeCryptominingFinding(t *testing.T) {
	raw := parse(t, `{
		"Id": "f7",
		"Type": "CryptoCurrency:EC2/BitcoinTool.B",
		"Severity": 8.0,
		"CreatedAt": "2024-01-15T12:00:00Z",
		"Resource": {"ResourceType": "Instance"}
	}`)

	e := Normalize(raw)
	if e.Severity != events.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL for gd severity 8.0", e.Severity)
	}
	if e.EventCategory != events.CategoryCryptomining {
		t.Errorf("EventCategory = %v, want cryptomining", e.EventCategory)
	}
	if e.Technique == nil || e.Technique.TechniqueID != "T1496" {
		t.Errorf("Technique = %+v, want T1496", e.Technique)
	}
	want := map[string]bool{"threatdetector": false, "cryptomining": false, "high-priority": false, "mitre-T1496": false, "instance": false}
	for _, tag := range e.Tags {
		if _, ok := want[tag]; ok {
			want[tag] = true
		}
	}
	for tag, found := range want {
		if !found {
			t.Errorf("Tags = %v, missing %q", e.Tags, tag)
		}
	}
}

func TestNormalizeUnknownTypeHasNoMitreMapping(t *testing.T) {
	raw := parse(t, `{"Id": "f5", "Type": "TotallyNovel:Thing/Whatever", "Severity": 1.0, "CreatedAt": "2024-01-15T12:00:00Z"}`)
	e := Normalize(raw)
	if e.Technique != nil {
		t.Errorf("Technique = %+v, want nil for an unmapped finding type", e.Technique)
	}
	if e.EventCategory != events.CategoryOther {
		t.Errorf("EventCategory = %v, want other", e.EventCategory)
	}
}

func TestNormalizeMetadataCarriesGuardDutySeverity(t *testing.T) {
	raw := parse(t, `{"Id": "f6", "Type": "Recon:EC2/Portscan", "Severity": 5.0, "CreatedAt": "2024-01-15T12:00:00Z", "UpdatedAt": "2024-01-16T00:00:00Z", "Service": {"Count": 7}}`)
	e := Normalize(raw)
	if e.Metadata["guardduty_severity"].Float64() != 5.0 {
		t.Errorf("metadata guardduty_severity = %v, want 5.0", e.Metadata["guardduty_severity"])
	}
	if e.Metadata["count"].Float64() != 7 {
		t.Errorf("metadata count = %v, want 7", e.Metadata["count"])
	}
	if e.Metadata["updated_at"].String() != "2024-01-16T00:00:00Z" {
		t.Errorf("metadata updated_at = %v, want passthrough", e.Metadata["updated_at"])
	}
}
