package correlate

import (
	"strings"

	"github.com/kestrel-security/sentinel/pkg/events"
)

// Rule evaluates a window of events and returns a Record if its pattern
// matches, or nil if it doesn't. A Rule must not mutate the events slice.
type Rule interface {
	Name() string
	Evaluate(window []events.CanonicalEvent) *Record
}

// bruteForceRule is R1: five or more failed ConsoleLogin attempts from the
// same source IP. Emits at most one record, for the first qualifying IP
// bucket in iteration order.
type bruteForceRule struct{}

func (bruteForceRule) Name() string { return "brute_force" }

const bruteForceMinEvents = 5

func (bruteForceRule) Evaluate(window []events.CanonicalEvent) *Record {
	var logins []events.CanonicalEvent
	for _, e := range window {
		if e.EventType == "ConsoleLogin" {
			logins = append(logins, e)
		}
	}
	if len(logins) < bruteForceMinEvents {
		return nil
	}

	byIP := make(map[string][]events.CanonicalEvent)
	var order []string
	for _, e := range logins {
		ip := sourceIP(e)
		if _, ok := byIP[ip]; !ok {
			order = append(order, ip)
		}
		byIP[ip] = append(byIP[ip], e)
	}

	for _, ip := range order {
		var failed []events.CanonicalEvent
		for _, e := range byIP[ip] {
			if hasAnyTag(e, "accessdenied", "unauthorizedaccess", "error") {
				failed = append(failed, e)
			}
		}
		if len(failed) >= bruteForceMinEvents {
			members := sortChronologically(failed)
			return &Record{
				Rule:          "brute_force",
				Description:   "Multiple failed authentication attempts",
				Severity:      events.SeverityHigh,
				SourceIP:      ip,
				EventCount:    len(members),
				EventIDs:      eventIDs(members),
				CorrelationID: correlationID("brute_force", members),
			}
		}
	}
	return nil
}

// privilegeEscalationRule is R2: a successful ConsoleLogin followed, for the
// same actor, by an IAM-modifying call. Emits at most one record.
type privilegeEscalationRule struct{}

func (privilegeEscalationRule) Name() string { return "privilege_escalation" }

var privEscFollowUps = map[string]bool{
	"CreateAccessKey":  true,
	"CreateUser":       true,
	"AttachUserPolicy": true,
	"AttachRolePolicy": true,
}

// actorKey buckets events by identity: actor user name, or else the
// identity ARN, the same principal resolved two different ways depending on
// which field the source record actually populated.
func actorKey(e events.CanonicalEvent) string {
	if e.Actor == nil {
		return "unknown"
	}
	if e.Actor.Name != "" {
		return e.Actor.Name
	}
	if e.Actor.IdentityARN != "" {
		return e.Actor.IdentityARN
	}
	return "unknown"
}

func (privilegeEscalationRule) Evaluate(window []events.CanonicalEvent) *Record {
	byActor := make(map[string][]events.CanonicalEvent)
	var order []string
	for _, e := range window {
		actor := actorKey(e)
		if _, ok := byActor[actor]; !ok {
			order = append(order, actor)
		}
		byActor[actor] = append(byActor[actor], e)
	}

	for _, actor := range order {
		sorted := sortChronologically(byActor[actor])

		var loginEvent *events.CanonicalEvent
		var followUps []events.CanonicalEvent
		for i := range sorted {
			e := sorted[i]
			switch {
			case e.EventType == "ConsoleLogin" && !hasAnyTag(e, "error"):
				loginEvent = &sorted[i]
			case loginEvent != nil && privEscFollowUps[e.EventType]:
				followUps = append(followUps, e)
			}
		}

		if loginEvent != nil && len(followUps) > 0 {
			members := append([]events.CanonicalEvent{*loginEvent}, followUps...)
			sequence := make([]string, len(members))
			for i, m := range members {
				sequence[i] = m.EventType
			}
			return &Record{
				Rule:          "privilege_escalation",
				Description:   "IAM modifications following authentication",
				Severity:      events.SeverityCritical,
				Actor:         actor,
				Sequence:      sequence,
				EventCount:    len(members),
				EventIDs:      eventIDs(members),
				CorrelationID: correlationID("privilege_escalation", members),
			}
		}
	}
	return nil
}

// loggingTamperingRule is R3: any StopLogging/DeleteTrail/UpdateTrail event
// is immediately flagged, no threshold.
type loggingTamperingRule struct{}

func (loggingTamperingRule) Name() string { return "logging_tampering" }

var loggingTamperingTypes = map[string]bool{
	"StopLogging": true,
	"DeleteTrail": true,
	"UpdateTrail": true,
}

func (loggingTamperingRule) Evaluate(window []events.CanonicalEvent) *Record {
	var matches []events.CanonicalEvent
	for _, e := range window {
		if loggingTamperingTypes[e.EventType] {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	members := sortChronologically(matches)
	var types []string
	seen := make(map[string]bool)
	for _, m := range members {
		if !seen[m.EventType] {
			seen[m.EventType] = true
			types = append(types, m.EventType)
		}
	}

	return &Record{
		Rule:          "logging_tampering",
		Description:   "CloudTrail logging modifications",
		Severity:      events.SeverityCritical,
		EventCount:    len(members),
		EventIDs:      eventIDs(members),
		EventTypes:    types,
		CorrelationID: correlationID("logging_tampering", members),
	}
}

// reconnaissanceRule is R4: twenty or more discovery-style API calls (List/
// Describe/Get prefix) from the same source IP.
type reconnaissanceRule struct{}

func (reconnaissanceRule) Name() string { return "reconnaissance" }

const reconMinEvents = 20
const reconEventIDCap = 20
const reconEventTypeCap = 10

func isDiscoveryEventType(eventType string) bool {
	for _, prefix := range []string{"List", "Describe", "Get"} {
		if strings.HasPrefix(eventType, prefix) {
			return true
		}
	}
	return false
}

func (reconnaissanceRule) Evaluate(window []events.CanonicalEvent) *Record {
	var recon []events.CanonicalEvent
	for _, e := range window {
		if isDiscoveryEventType(e.EventType) {
			recon = append(recon, e)
		}
	}
	if len(recon) < reconMinEvents {
		return nil
	}

	byIP := make(map[string][]events.CanonicalEvent)
	var order []string
	for _, e := range recon {
		ip := sourceIP(e)
		if _, ok := byIP[ip]; !ok {
			order = append(order, ip)
		}
		byIP[ip] = append(byIP[ip], e)
	}

	for _, ip := range order {
		bucket := byIP[ip]
		if len(bucket) >= reconMinEvents {
			members := sortChronologically(bucket)

			capped := members
			if len(capped) > reconEventIDCap {
				capped = capped[:reconEventIDCap]
			}

			var types []string
			seen := make(map[string]bool)
			for _, m := range members {
				if !seen[m.EventType] {
					seen[m.EventType] = true
					types = append(types, m.EventType)
					if len(types) == reconEventTypeCap {
						break
					}
				}
			}

			return &Record{
				Rule:          "reconnaissance",
				Description:   "Multiple discovery API calls",
				Severity:      events.SeverityMedium,
				SourceIP:      ip,
				EventCount:    len(members),
				EventIDs:      eventIDs(capped),
				EventTypes:    types,
				CorrelationID: correlationID("reconnaissance", members),
			}
		}
	}
	return nil
}
