package events

import "strings"

// Source identifies which vendor collector produced a CanonicalEvent.
type Source string

const (
	SourceCloudAudit     Source = "CLOUD_AUDIT"
	SourceThreatDetector Source = "THREAT_DETECTOR"
	SourceAuditHub       Source = "AUDIT_HUB"
	SourceCustom         Source = "CUSTOM"
)

// ParseSource maps a free-form string to a closed Source value, defaulting
// to Custom for anything unrecognized.
func ParseSource(s string) Source {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SourceCloudAudit), "CLOUDTRAIL", "CLOUDAUDIT":
		return SourceCloudAudit
	case string(SourceThreatDetector), "GUARDDUTY", "THREATDETECTOR":
		return SourceThreatDetector
	case string(SourceAuditHub), "SECURITYHUB", "AUDITHUB":
		return SourceAuditHub
	default:
		return SourceCustom
	}
}

// Severity is a closed ranking of how urgently an event warrants attention.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// severityRank orders severities for the "never downgrade" invariant.
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ParseSeverity maps a free-form string to a closed Severity, defaulting to
// INFO for anything unrecognized.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SeverityCritical):
		return SeverityCritical
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityMedium):
		return SeverityMedium
	case string(SeverityLow):
		return SeverityLow
	case string(SeverityInfo):
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// HigherThan reports whether s outranks other, for the processor's
// "upgrade only" severity-boost rule.
func (s Severity) HigherThan(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

// Status tracks a CanonicalEvent's position in its lifecycle. Transitions
// only ever move forward: NEW -> PROCESSING -> PROCESSED -> (CORRELATED|ALERTED).
type Status string

const (
	StatusNew        Status = "NEW"
	StatusProcessing Status = "PROCESSING"
	StatusProcessed  Status = "PROCESSED"
	StatusCorrelated Status = "CORRELATED"
	StatusAlerted    Status = "ALERTED"
)

var statusRank = map[Status]int{
	StatusNew:        0,
	StatusProcessing: 1,
	StatusProcessed:  2,
	StatusCorrelated: 3,
	StatusAlerted:    3,
}

// CanAdvanceTo reports whether transitioning from s to next respects the
// monotonic lifecycle invariant.
func (s Status) CanAdvanceTo(next Status) bool {
	return statusRank[next] >= statusRank[s]
}

// Category is the closed set of adversary-behavior buckets a CanonicalEvent
// is classified into.
type Category string

const (
	CategoryAuthentication      Category = "authentication"
	CategoryIdentityManagement  Category = "identity_management"
	CategoryNetworkSecurity     Category = "network_security"
	CategoryDataAccess          Category = "data_access"
	CategoryLogging             Category = "logging"
	CategoryResourceMod         Category = "resource_modification"
	CategoryDiscovery           Category = "discovery"
	CategoryReconnaissance      Category = "reconnaissance"
	CategoryUnauthorizedAccess  Category = "unauthorized_access"
	CategoryExecution           Category = "execution"
	CategoryPersistence         Category = "persistence"
	CategoryPrivilegeEscalation Category = "privilege_escalation"
	CategoryDefenseEvasion      Category = "defense_evasion"
	CategoryCredentialAccess    Category = "credential_access"
	CategoryExfiltration        Category = "exfiltration"
	CategoryImpact              Category = "impact"
	CategoryCryptomining        Category = "cryptomining"
	CategoryMalware             Category = "malware"
	CategoryAnomaly             Category = "anomaly"
	CategoryPentest             Category = "pentest"
	CategoryPolicyViolation     Category = "policy_violation"
	CategoryOther               Category = "other"
)

var knownCategories = map[Category]bool{
	CategoryAuthentication:      true,
	CategoryIdentityManagement:  true,
	CategoryNetworkSecurity:     true,
	CategoryDataAccess:          true,
	CategoryLogging:             true,
	CategoryResourceMod:         true,
	CategoryDiscovery:           true,
	CategoryReconnaissance:      true,
	CategoryUnauthorizedAccess:  true,
	CategoryExecution:           true,
	CategoryPersistence:         true,
	CategoryPrivilegeEscalation: true,
	CategoryDefenseEvasion:      true,
	CategoryCredentialAccess:    true,
	CategoryExfiltration:        true,
	CategoryImpact:              true,
	CategoryCryptomining:        true,
	CategoryMalware:             true,
	CategoryAnomaly:             true,
	CategoryPentest:             true,
	CategoryPolicyViolation:     true,
	CategoryOther:               true,
}

// ParseCategory maps a free-form string onto the closed Category set,
// defaulting to Other for anything unrecognized.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if knownCategories[c] {
		return c
	}
	return CategoryOther
}
