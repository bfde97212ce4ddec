// Package cloudaudit normalizes AWS CloudTrail-style audit log records into
// the canonical event schema.
package cloudaudit

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-security/sentinel/pkg/events"
)

// mitreMapping pairs a tactic/technique for a well-known CloudTrail event
// name. Keyed by eventName.
type mitreMapping struct {
	tactic        string
	techniqueID   string
	techniqueName string
}

var mitreMappings = map[string]mitreMapping{
	"ConsoleLogin":           {"Initial Access", "T1078", "Valid Accounts"},
	"CreateUser":             {"Persistence", "T1136.003", "Create Account: Cloud Account"},
	"CreateAccessKey":        {"Persistence", "T1098.001", "Account Manipulation: Additional Cloud Credentials"},
	"CreateRole":             {"Persistence", "T1098", "Account Manipulation"},
	"AttachUserPolicy":       {"Persistence", "T1098", "Account Manipulation"},
	"AttachRolePolicy":       {"Persistence", "T1098", "Account Manipulation"},
	"AssumeRole":             {"Privilege Escalation", "T1548", "Abuse Elevation Control Mechanism"},
	"UpdateAssumeRolePolicy": {"Privilege Escalation", "T1548", "Abuse Elevation Control Mechanism"},
	"StopLogging":            {"Defense Evasion", "T1562.008", "Impair Defenses: Disable Cloud Logs"},
	"DeleteTrail":            {"Defense Evasion", "T1562.008", "Impair Defenses: Disable Cloud Logs"},
	"UpdateTrail":            {"Defense Evasion", "T1562.008", "Impair Defenses: Disable Cloud Logs"},
	"PutEventSelectors":      {"Defense Evasion", "T1562.008", "Impair Defenses: Disable Cloud Logs"},
	"DeleteFlowLogs":         {"Defense Evasion", "T1562.008", "Impair Defenses: Disable Cloud Logs"},
	"GetSecretValue":         {"Credential Access", "T1555", "Credentials from Password Stores"},
	"GetPasswordData":        {"Credential Access", "T1555", "Credentials from Password Stores"},
	"DescribeInstances":      {"Discovery", "T1580", "Cloud Infrastructure Discovery"},
	"ListBuckets":            {"Discovery", "T1580", "Cloud Infrastructure Discovery"},
	"ListUsers":              {"Discovery", "T1087.004", "Account Discovery: Cloud Account"},
	"ListRoles":              {"Discovery", "T1087.004", "Account Discovery: Cloud Account"},
	"GetObject":              {"Exfiltration", "T1530", "Data from Cloud Storage"},
	"DeleteBucket":           {"Impact", "T1485", "Data Destruction"},
	"TerminateInstances":     {"Impact", "T1489", "Service Stop"},
}

var highSeverityEvents = map[string]bool{
	"ConsoleLogin":                  true,
	"CreateUser":                    true,
	"CreateAccessKey":               true,
	"DeleteTrail":                   true,
	"StopLogging":                   true,
	"PutBucketPolicy":               true,
	"PutBucketAcl":                  true,
	"AuthorizeSecurityGroupIngress": true,
	"CreateSecurityGroup":           true,
	"ModifyInstanceAttribute":       true,
	"RunInstances":                  true,
}

var criticalSeverityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^.*Delete.*Trail.*$`),
	regexp.MustCompile(`(?i)^.*Stop.*Logging.*$`),
	regexp.MustCompile(`(?i)^.*Disable.*$`),
	regexp.MustCompile(`(?i)^.*Root.*$`),
}

var errorCodeHighSeverity = map[string]bool{
	"AccessDenied":         true,
	"UnauthorizedAccess":   true,
	"InvalidClientTokenId": true,
}

// determineSeverity applies the ordered classification rules: root-account
// usage and logging tampering are always critical, regardless of everything
// else. First match wins.
func determineSeverity(eventName, errorCode, userType string) events.Severity {
	if userType == "Root" {
		return events.SeverityCritical
	}
	for _, p := range criticalSeverityPatterns {
		if p.MatchString(eventName) {
			return events.SeverityCritical
		}
	}
	if errorCodeHighSeverity[errorCode] {
		return events.SeverityHigh
	}
	if highSeverityEvents[eventName] {
		return events.SeverityHigh
	}
	if strings.HasPrefix(eventName, "List") || strings.HasPrefix(eventName, "Describe") {
		return events.SeverityLow
	}
	if strings.HasPrefix(eventName, "Get") {
		return events.SeverityLow
	}
	return events.SeverityInfo
}

// categorizeEvent checks categories in a fixed order, first match wins.
// The IAM branch matches four ways: the event came from iam.amazonaws.com,
// it's a Create/Delete/Update/Attach/Detach/Put verb whose name mentions
// User, or its name mentions Role or Policy at all — the last two
// unconditionally, regardless of verb prefix or eventSource, so a
// GetRolePolicy lands in identity_management rather than discovery.
func categorizeEvent(eventName, eventSource string) events.Category {
	switch eventName {
	case "ConsoleLogin", "GetFederationToken", "GetSessionToken", "AssumeRole", "AssumeRoleWithSAML", "AssumeRoleWithWebIdentity":
		return events.CategoryAuthentication
	}

	hasIAMVerb := strings.HasPrefix(eventName, "Create") || strings.HasPrefix(eventName, "Delete") ||
		strings.HasPrefix(eventName, "Update") || strings.HasPrefix(eventName, "Attach") ||
		strings.HasPrefix(eventName, "Detach") || strings.HasPrefix(eventName, "Put")
	if eventSource == "iam.amazonaws.com" ||
		(hasIAMVerb && strings.Contains(eventName, "User")) ||
		strings.Contains(eventName, "Role") ||
		strings.Contains(eventName, "Policy") {
		return events.CategoryIdentityManagement
	}

	if eventSource == "ec2.amazonaws.com" {
		for _, kw := range []string{"SecurityGroup", "Vpc", "Subnet", "Route", "NetworkAcl"} {
			if strings.Contains(eventName, kw) {
				return events.CategoryNetworkSecurity
			}
		}
	}

	if eventSource == "s3.amazonaws.com" || eventName == "GetObject" || eventName == "PutObject" || eventName == "DeleteObject" {
		return events.CategoryDataAccess
	}

	if eventSource == "cloudtrail.amazonaws.com" || eventSource == "logs.amazonaws.com" {
		return events.CategoryLogging
	}

	for _, prefix := range []string{"Create", "Delete", "Modify", "Update", "Terminate"} {
		if strings.HasPrefix(eventName, prefix) {
			return events.CategoryResourceMod
		}
	}

	for _, prefix := range []string{"List", "Describe", "Get"} {
		if strings.HasPrefix(eventName, prefix) {
			return events.CategoryDiscovery
		}
	}

	return events.CategoryOther
}

func parseEventTime(raw events.Value) time.Time {
	str := raw.Get("eventTime").String()
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

// Normalize converts a raw CloudTrail-shaped record into a CanonicalEvent.
func Normalize(raw events.Value) events.CanonicalEvent {
	eventName := raw.Get("eventName").StringOr("Unknown")
	eventSource := raw.Get("eventSource").StringOr("unknown")
	errorCode := raw.Get("errorCode").String()

	userIdentity := raw.Get("userIdentity")
	userType := userIdentity.Get("type").String()

	e := events.NewCanonicalEvent()
	e.EventID = uuid.NewString()
	e.Source = events.SourceCloudAudit
	e.SourceEventID = raw.Get("eventID").String()
	e.EventTime = parseEventTime(raw)
	e.IngestedAt = time.Now().UTC()
	e.EventType = eventName
	e.Raw = raw

	actorName := userIdentity.Get("userName").String()
	arn := userIdentity.Get("arn").String()
	sessionName := userIdentity.Get("sessionContext", "sessionIssuer", "userName").String()

	e.Actor = &events.Actor{
		Type:        userType,
		ID:          userIdentity.Get("principalId").String(),
		Name:        firstNonEmpty(actorName, sessionName),
		IsRoot:      userType == "Root",
		AccessKeyID: userIdentity.Get("accessKeyId").String(),
		IdentityARN: arn,
	}

	e.Network = &events.Network{
		SourceIP:  raw.Get("sourceIPAddress").String(),
		UserAgent: raw.Get("userAgent").String(),
	}

	service := eventSource
	if idx := strings.Index(eventSource, "."); idx >= 0 {
		service = eventSource[:idx]
	}
	cloudCtx := &events.CloudContext{
		AccountID: userIdentity.Get("accountId").String(),
		Region:    raw.Get("awsRegion").String(),
		Service:   service,
	}
	if resources := raw.Get("resources").Items(); len(resources) > 0 {
		cloudCtx.Resource = resources[0].Get("ARN").String()
		cloudCtx.ResourceType = resources[0].Get("type").String()
	}
	e.CloudContext = cloudCtx

	e.Severity = determineSeverity(eventName, errorCode, userType)
	e.EventCategory = categorizeEvent(eventName, eventSource)

	title := "CloudTrail: " + eventName
	if errorCode != "" {
		title += " (" + errorCode + ")"
	}
	e.Title = title

	description := "AWS " + eventName + " event from " + eventSource
	switch {
	case actorName != "":
		description += " by user " + actorName
	case arn != "":
		description += " by " + arn
	}
	if errorCode != "" {
		description += ". Error: " + errorCode + " - " + raw.Get("errorMessage").String()
	}
	e.Description = description

	e.AddTag("cloudaudit")
	e.AddTag(service)
	if errorCode != "" {
		e.AddTag("error")
		e.AddTag(strings.ToLower(errorCode))
	}
	if userType == "Root" {
		e.AddTag("root-account")
	}

	if mapping, ok := mitreMappings[eventName]; ok {
		e.Technique = &events.Technique{
			TacticName:    mapping.tactic,
			TechniqueID:   mapping.techniqueID,
			TechniqueName: mapping.techniqueName,
		}
		e.AddTag("mitre-" + mapping.techniqueID)
	}

	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
