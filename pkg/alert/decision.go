package alert

import "github.com/kestrel-security/sentinel/pkg/events"

// Thresholds configures when ShouldAlert fires, sourced from
// ALERT_THRESHOLD_SEVERITY and ALERT_THRESHOLD_RISK_SCORE.
type Thresholds struct {
	// AlertOnHigh mirrors ALERT_THRESHOLD_SEVERITY permitting HIGH
	// severity to alert on its own, independent of risk score. Default
	// true.
	AlertOnHigh bool
	// RiskScore is the minimum risk_score that alerts regardless of
	// severity. Default 70 (ALERT_THRESHOLD_RISK_SCORE).
	RiskScore int
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{AlertOnHigh: true, RiskScore: 70}
}

// ShouldAlert decides whether event warrants an outbound notification:
// always for CRITICAL, for HIGH when the threshold permits it, or whenever
// riskScore clears the configured floor.
func ShouldAlert(event events.CanonicalEvent, riskScore int, thresholds Thresholds) bool {
	if event.Severity == events.SeverityCritical {
		return true
	}
	if event.Severity == events.SeverityHigh && thresholds.AlertOnHigh {
		return true
	}
	return riskScore >= thresholds.RiskScore
}
