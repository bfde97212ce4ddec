package alert

import (
	"fmt"
	"strings"

	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/events"
)

const delimiter = "============================================================"

const userAgentClip = 100

// FormatEventAlert renders event into the plain-text block the pipeline
// dispatches for a single-event alert, bounded by delimiter lines.
func FormatEventAlert(event events.CanonicalEvent, riskScore int, correlations []correlate.Record) string {
	var b strings.Builder

	writeLine(&b, delimiter)
	writeLine(&b, "SECURITY ALERT")
	writeLine(&b, delimiter)
	writeLine(&b, "")
	writeLine(&b, "Title: "+orUnknown(event.Title, "Unknown Event"))
	writeLine(&b, "Severity: "+strings.ToUpper(string(event.Severity)))
	writeLine(&b, fmt.Sprintf("Risk Score: %d/100", riskScore))
	writeLine(&b, "")
	writeLine(&b, "Event ID: "+orUnknown(event.EventID, "N/A"))
	writeLine(&b, "Source: "+string(event.Source))
	writeLine(&b, "Event Type: "+orUnknown(event.EventType, "unknown"))
	writeLine(&b, "Category: "+string(event.EventCategory))
	writeLine(&b, "Time: "+event.EventTime.UTC().Format("2006-01-02T15:04:05Z"))
	writeLine(&b, "")

	if cc := event.CloudContext; cc != nil {
		writeLine(&b, "Cloud Context:")
		writeFieldIfSet(&b, "Account", cc.AccountID)
		writeFieldIfSet(&b, "Region", cc.Region)
		writeFieldIfSet(&b, "Service", cc.Service)
		writeFieldIfSet(&b, "Resource", cc.Resource)
		writeLine(&b, "")
	}

	if actor := event.Actor; actor != nil {
		writeLine(&b, "Actor:")
		writeFieldIfSet(&b, "User", actor.Name)
		writeFieldIfSet(&b, "ID", actor.ID)
		writeFieldIfSet(&b, "Type", actor.Type)
		writeLine(&b, "")
	}

	if net := event.Network; net != nil {
		writeLine(&b, "Network:")
		writeFieldIfSet(&b, "Source IP", net.SourceIP)
		if net.UserAgent != "" {
			writeFieldIfSet(&b, "User Agent", clip(net.UserAgent, userAgentClip))
		}
		writeLine(&b, "")
	}

	if tech := event.Technique; tech != nil {
		writeLine(&b, "Technique:")
		writeFieldIfSet(&b, "Tactic", tech.TacticName)
		if tech.TechniqueID != "" {
			writeLine(&b, "  Technique: "+tech.TechniqueID+" - "+tech.TechniqueName)
		}
		writeLine(&b, "")
	}

	if len(correlations) > 0 {
		writeLine(&b, "Correlated Patterns:")
		for _, rec := range correlations {
			if rec.HasEvent(event.EventID) {
				writeLine(&b, "  - "+rec.Rule+": "+rec.Description)
			}
		}
		writeLine(&b, "")
	}

	if event.Description != "" {
		writeLine(&b, "Description:")
		writeLine(&b, "  "+event.Description)
		writeLine(&b, "")
	}

	writeLine(&b, delimiter)
	return b.String()
}

// FormatCorrelationAlert renders rec into the plain-text block dispatched
// when a correlation is first flagged.
func FormatCorrelationAlert(rec correlate.Record) string {
	var b strings.Builder

	writeLine(&b, delimiter)
	writeLine(&b, "SECURITY CORRELATION ALERT")
	writeLine(&b, delimiter)
	writeLine(&b, "")
	writeLine(&b, "Pattern: "+rec.Rule)
	writeLine(&b, "Description: "+orUnknown(rec.Description, "N/A"))
	writeLine(&b, "Severity: "+strings.ToUpper(string(rec.Severity)))
	writeLine(&b, "")
	writeLine(&b, "Correlation ID: "+orUnknown(rec.CorrelationID, "N/A"))
	writeLine(&b, fmt.Sprintf("Event Count: %d", rec.EventCount))
	writeLine(&b, "")

	writeFieldIfSet(&b, "Source IP", rec.SourceIP)
	writeFieldIfSet(&b, "Actor", rec.Actor)
	if len(rec.Sequence) > 0 {
		writeLine(&b, "Event Sequence: "+strings.Join(rec.Sequence, " -> "))
	}
	if len(rec.EventTypes) > 0 {
		types := rec.EventTypes
		if len(types) > 5 {
			types = types[:5]
		}
		writeLine(&b, "Event Types: "+strings.Join(types, ", "))
	}

	writeLine(&b, "")
	ids := rec.EventIDs
	shown := ids
	if len(shown) > 5 {
		shown = shown[:5]
	}
	writeLine(&b, "Related Event IDs: "+strings.Join(shown, ", "))
	if len(ids) > 5 {
		writeLine(&b, fmt.Sprintf("  ... and %d more", len(ids)-5))
	}

	writeLine(&b, "")
	writeLine(&b, delimiter)
	return b.String()
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\n")
}

func writeFieldIfSet(b *strings.Builder, label, value string) {
	if value != "" {
		writeLine(b, "  "+label+": "+value)
	}
}

func orUnknown(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
