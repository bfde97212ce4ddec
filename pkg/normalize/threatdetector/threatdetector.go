// Package threatdetector normalizes GuardDuty-style threat detector
// findings into the canonical event schema.
package threatdetector

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-security/sentinel/pkg/events"
)

type mitreMapping struct {
	tactic        string
	techniqueID   string
	techniqueName string
}

// mitreMappings is keyed by full finding Type. Order matters for the
// prefix-match fallback below, so it's kept as a slice of (key, mapping)
// pairs rather than a plain map: map iteration order is random and the
// fallback must stay deterministic.
var mitreMappings = []struct {
	findingType string
	mapping     mitreMapping
}{
	{"Recon:EC2/PortProbeUnprotectedPort", mitreMapping{"Reconnaissance", "T1595.001", "Active Scanning: Scanning IP Blocks"}},
	{"Recon:EC2/Portscan", mitreMapping{"Reconnaissance", "T1595.001", "Active Scanning: Scanning IP Blocks"}},
	{"UnauthorizedAccess:EC2/SSHBruteForce", mitreMapping{"Initial Access", "T1110.001", "Brute Force: Password Guessing"}},
	{"UnauthorizedAccess:EC2/RDPBruteForce", mitreMapping{"Initial Access", "T1110.001", "Brute Force: Password Guessing"}},
	{"UnauthorizedAccess:IAMUser/ConsoleLoginSuccess.B", mitreMapping{"Initial Access", "T1078.004", "Valid Accounts: Cloud Accounts"}},
	{"Execution:EC2/SuspiciousFile", mitreMapping{"Execution", "T1204", "User Execution"}},
	{"Persistence:IAMUser/UserPermissions", mitreMapping{"Persistence", "T1098", "Account Manipulation"}},
	{"PrivilegeEscalation:IAMUser/AdministrativePermissions", mitreMapping{"Privilege Escalation", "T1098", "Account Manipulation"}},
	{"Stealth:IAMUser/CloudTrailLoggingDisabled", mitreMapping{"Defense Evasion", "T1562.008", "Impair Defenses: Disable Cloud Logs"}},
	{"DefenseEvasion:EC2/UnusualDNSResolver", mitreMapping{"Defense Evasion", "T1568", "Dynamic Resolution"}},
	{"CredentialAccess:IAMUser/AnomalousBehavior", mitreMapping{"Credential Access", "T1528", "Steal Application Access Token"}},
	{"Discovery:IAMUser/AnomalousBehavior", mitreMapping{"Discovery", "T1087.004", "Account Discovery: Cloud Account"}},
	{"Exfiltration:S3/ObjectRead.Unusual", mitreMapping{"Exfiltration", "T1530", "Data from Cloud Storage"}},
	{"Exfiltration:S3/MaliciousIPCaller", mitreMapping{"Exfiltration", "T1530", "Data from Cloud Storage"}},
	{"Impact:EC2/WinRMBruteForce", mitreMapping{"Impact", "T1110", "Brute Force"}},
	{"Impact:S3/MaliciousIPCaller", mitreMapping{"Impact", "T1485", "Data Destruction"}},
	{"CryptoCurrency:EC2/BitcoinTool.B", mitreMapping{"Impact", "T1496", "Resource Hijacking"}},
	{"CryptoCurrency:EC2/BitcoinTool.B!DNS", mitreMapping{"Impact", "T1496", "Resource Hijacking"}},
	{"Trojan:EC2/BlackholeTraffic", mitreMapping{"Command and Control", "T1071", "Application Layer Protocol"}},
	{"Trojan:EC2/DropPoint", mitreMapping{"Command and Control", "T1071", "Application Layer Protocol"}},
	{"Backdoor:EC2/DenialOfService.Tcp", mitreMapping{"Impact", "T1498", "Network Denial of Service"}},
	{"Backdoor:EC2/DenialOfService.Udp", mitreMapping{"Impact", "T1498", "Network Denial of Service"}},
}

var categoryByPrefix = map[string]events.Category{
	"Recon":               events.CategoryReconnaissance,
	"UnauthorizedAccess":  events.CategoryUnauthorizedAccess,
	"Execution":           events.CategoryExecution,
	"Persistence":         events.CategoryPersistence,
	"PrivilegeEscalation": events.CategoryPrivilegeEscalation,
	"DefenseEvasion":      events.CategoryDefenseEvasion,
	"Stealth":             events.CategoryDefenseEvasion,
	"CredentialAccess":    events.CategoryCredentialAccess,
	"Discovery":           events.CategoryDiscovery,
	"Exfiltration":        events.CategoryExfiltration,
	"Impact":              events.CategoryImpact,
	"CryptoCurrency":      events.CategoryCryptomining,
	"Trojan":              events.CategoryMalware,
	"Backdoor":            events.CategoryMalware,
	"Behavior":            events.CategoryAnomaly,
	"PenTest":             events.CategoryPentest,
	"Policy":              events.CategoryPolicyViolation,
}

// mapSeverity converts GuardDuty's 0-10 scale to the canonical levels.
func mapSeverity(severity float64) events.Severity {
	switch {
	case severity >= 8.0:
		return events.SeverityCritical
	case severity >= 6.0:
		return events.SeverityHigh
	case severity >= 4.0:
		return events.SeverityMedium
	case severity >= 2.0:
		return events.SeverityLow
	default:
		return events.SeverityInfo
	}
}

func categorize(findingType string) events.Category {
	prefix := findingType
	if idx := strings.Index(findingType, ":"); idx >= 0 {
		prefix = findingType[:idx]
	}
	if cat, ok := categoryByPrefix[prefix]; ok {
		return cat
	}
	return events.CategoryOther
}

func lookupMitre(findingType string) (mitreMapping, bool) {
	for _, entry := range mitreMappings {
		if entry.findingType == findingType {
			return entry.mapping, true
		}
	}
	prefix := findingType
	if idx := strings.Index(findingType, ":"); idx >= 0 {
		prefix = findingType[:idx]
	}
	for _, entry := range mitreMappings {
		keyPrefix := entry.findingType
		if idx := strings.Index(entry.findingType, ":"); idx >= 0 {
			keyPrefix = entry.findingType[:idx]
		}
		if keyPrefix == prefix {
			return entry.mapping, true
		}
	}
	return mitreMapping{}, false
}

func parseFindingTime(raw events.Value) time.Time {
	str := raw.Get("CreatedAt").String()
	if str == "" {
		return time.Now().UTC()
	}
	normalized := strings.Replace(str, "Z", "+00:00", 1)
	if t, err := time.Parse("2006-01-02T15:04:05.999999999Z07:00", normalized); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}

// Normalize converts a raw GuardDuty-shaped finding into a CanonicalEvent.
func Normalize(raw events.Value) events.CanonicalEvent {
	findingType := raw.Get("Type").StringOr("Unknown")
	findingID := raw.Get("Id").String()

	e := events.NewCanonicalEvent()
	e.EventID = uuid.NewString()
	e.Source = events.SourceThreatDetector
	e.SourceEventID = findingID
	e.EventTime = parseFindingTime(raw)
	e.IngestedAt = time.Now().UTC()
	e.EventType = findingType
	e.Raw = raw

	gdSeverity := raw.Get("Severity").Float64()
	e.Severity = mapSeverity(gdSeverity)
	e.EventCategory = categorize(findingType)

	resource := raw.Get("Resource")
	resourceType := resource.Get("ResourceType").String()

	cloudCtx := &events.CloudContext{
		AccountID:    raw.Get("AccountId").String(),
		Region:       raw.Get("Region").String(),
		ResourceType: resourceType,
	}
	if instanceDetails := resource.Get("InstanceDetails"); !instanceDetails.IsNull() {
		cloudCtx.Resource = instanceDetails.Get("InstanceId").String()
	}
	if s3Buckets := resource.Get("S3BucketDetails").Items(); len(s3Buckets) > 0 {
		cloudCtx.Resource = s3Buckets[0].Get("Arn").String()
	}
	e.CloudContext = cloudCtx

	accessKeyDetails := resource.Get("AccessKeyDetails")
	if !accessKeyDetails.IsNull() {
		e.Actor = &events.Actor{
			ID:          accessKeyDetails.Get("PrincipalId").String(),
			Type:        accessKeyDetails.Get("UserType").String(),
			AccessKeyID: accessKeyDetails.Get("AccessKeyId").String(),
			Name:        accessKeyDetails.Get("UserName").String(),
		}
	}

	service := raw.Get("Service")
	action := service.Get("Action")

	// NetworkConnectionAction takes precedence; AwsApiCallAction is only
	// consulted when no NetworkConnectionAction is present on the finding.
	var network *events.Network
	if conn := action.Get("NetworkConnectionAction"); !conn.IsNull() {
		remoteIP := conn.Get("RemoteIpDetails")
		localPort := conn.Get("LocalPortDetails")
		remotePort := conn.Get("RemotePortDetails")
		network = &events.Network{
			SourceIP:        remoteIP.Get("IpAddressV4").String(),
			SourcePort:      remotePort.Get("Port").Int(),
			DestinationPort: localPort.Get("Port").Int(),
			Protocol:        conn.Get("Protocol").String(),
		}
	} else if apiCall := action.Get("AwsApiCallAction"); !apiCall.IsNull() {
		network = &events.Network{
			SourceIP:  apiCall.Get("RemoteIpDetails", "IpAddressV4").String(),
			UserAgent: apiCall.Get("UserAgent").String(),
		}
	}
	e.Network = network

	mapping, found := lookupMitre(findingType)
	if found {
		e.Technique = &events.Technique{
			TacticName:    mapping.tactic,
			TechniqueID:   mapping.techniqueID,
			TechniqueName: mapping.techniqueName,
		}
	}

	e.Title = raw.Get("Title").StringOr("GuardDuty: " + findingType)
	e.Description = raw.Get("Description").String()

	e.AddTag("threatdetector")
	e.AddTag(string(e.EventCategory))
	if e.Severity == events.SeverityCritical || e.Severity == events.SeverityHigh {
		e.AddTag("high-priority")
	}
	if found {
		e.AddTag("mitre-" + mapping.techniqueID)
	}
	if resourceType != "" {
		e.AddTag(strings.ToLower(resourceType))
	}

	count := service.Get("Count")
	countVal := 1.0
	if !count.IsNull() {
		countVal = count.Float64()
	}
	e.Metadata["guardduty_severity"] = events.FromAny(gdSeverity)
	e.Metadata["updated_at"] = events.FromAny(raw.Get("UpdatedAt").String())
	e.Metadata["count"] = events.FromAny(countVal)

	return e
}
