package events

import "time"

// CloudContext captures the cloud-account/region/service blast radius of an
// event, when the source record carries that information.
type CloudContext struct {
	AccountID    string `json:"account_id,omitempty"`
	Region       string `json:"region,omitempty"`
	Service      string `json:"service,omitempty"`
	Resource     string `json:"resource,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
}

// Actor identifies who or what performed the action an event describes.
type Actor struct {
	Type        string `json:"type,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	IsRoot      bool   `json:"is_root,omitempty"`
	AccessKeyID string `json:"access_key_id,omitempty"`
	IdentityARN string `json:"identity_arn,omitempty"`
}

// Network captures the source/destination network properties tied to the
// underlying action.
type Network struct {
	SourceIP        string `json:"source_ip,omitempty"`
	SourcePort      int    `json:"source_port,omitempty"`
	DestinationIP   string `json:"destination_ip,omitempty"`
	DestinationPort int    `json:"destination_port,omitempty"`
	Protocol        string `json:"protocol,omitempty"`
	UserAgent       string `json:"user_agent,omitempty"`
}

// Technique records a MITRE ATT&CK mapping derived during normalization.
type Technique struct {
	TacticID      string `json:"tactic_id,omitempty"`
	TacticName    string `json:"tactic_name,omitempty"`
	TechniqueID   string `json:"technique_id,omitempty"`
	TechniqueName string `json:"technique_name,omitempty"`
}

// CanonicalEvent is the normalized, source-agnostic representation every
// normalizer produces and every downstream stage (correlator, risk scorer,
// pipeline, store) consumes.
type CanonicalEvent struct {
	EventID       string     `json:"event_id"`
	Source        Source     `json:"source"`
	SourceEventID string     `json:"source_event_id"`
	EventTime     time.Time  `json:"event_time"`
	IngestedAt    time.Time  `json:"ingested_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`

	EventType     string   `json:"event_type"`
	EventCategory Category `json:"event_category"`
	Severity      Severity `json:"severity"`
	Status        Status   `json:"status"`

	Title       string `json:"title"`
	Description string `json:"description"`

	CloudContext *CloudContext `json:"cloud_context,omitempty"`
	Actor        *Actor        `json:"actor,omitempty"`
	Network      *Network      `json:"network,omitempty"`
	Technique    *Technique    `json:"technique,omitempty"`

	CorrelationID   string   `json:"correlation_id,omitempty"`
	RelatedEventIDs []string `json:"related_event_ids"`

	Raw      Value            `json:"raw"`
	Tags     []string         `json:"tags"`
	Metadata map[string]Value `json:"metadata"`

	RiskScore int `json:"risk_score"`
}

// NewCanonicalEvent returns a CanonicalEvent initialized with the invariants
// every normalizer must satisfy regardless of source: non-nil slice/map
// fields and a NEW status.
func NewCanonicalEvent() CanonicalEvent {
	return CanonicalEvent{
		Status:          StatusNew,
		RelatedEventIDs: []string{},
		Tags:            []string{},
		Metadata:        map[string]Value{},
	}
}

// AddRelatedEventID appends id to RelatedEventIDs if it isn't already
// present, preserving the invariant that the list holds distinct IDs.
func (e *CanonicalEvent) AddRelatedEventID(id string) {
	for _, existing := range e.RelatedEventIDs {
		if existing == id {
			return
		}
	}
	e.RelatedEventIDs = append(e.RelatedEventIDs, id)
}

// AddTag appends tag if it isn't already present.
func (e *CanonicalEvent) AddTag(tag string) {
	for _, existing := range e.Tags {
		if existing == tag {
			return
		}
	}
	e.Tags = append(e.Tags, tag)
}

// RaiseSeverity sets e.Severity to next only if next outranks the current
// value, implementing the "severity may only be upgraded" invariant applied
// when correlation raises an event's urgency.
func (e *CanonicalEvent) RaiseSeverity(next Severity) {
	if next.HigherThan(e.Severity) {
		e.Severity = next
	}
}

// Advance transitions e.Status to next, panicking never: callers that
// attempt a backward transition are no-ops, preserving monotonic lifecycle.
func (e *CanonicalEvent) Advance(next Status) {
	if e.Status.CanAdvanceTo(next) {
		e.Status = next
	}
}
