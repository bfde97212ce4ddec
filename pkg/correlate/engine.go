package correlate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/kestrel-security/sentinel/pkg/events"
)

// Engine runs the fixed rule set against a window of events. A rule that
// panics on unexpected input is caught and logged as a rule-evaluation
// failure; the remaining rules in the same tick still run.
type Engine struct {
	rules  []Rule
	logger *zap.SugaredLogger
}

// NewEngine returns an Engine with the four built-in rule evaluators
// (brute force, privilege escalation, logging tampering, reconnaissance). A
// nil logger disables failure logging.
func NewEngine(logger *zap.SugaredLogger) *Engine {
	return &Engine{
		rules: []Rule{
			bruteForceRule{},
			privilegeEscalationRule{},
			loggingTamperingRule{},
			reconnaissanceRule{},
		},
		logger: logger,
	}
}

// Correlate runs every rule against window and returns the resulting
// Records sorted by rule name, so that identical input always produces an
// identically-ordered output.
func (eng *Engine) Correlate(window []events.CanonicalEvent) []Record {
	var out []Record
	for _, rule := range eng.rules {
		if rec := eng.evaluateSafely(rule, window); rec != nil {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rule < out[j].Rule })
	return out
}

func (eng *Engine) evaluateSafely(rule Rule, window []events.CanonicalEvent) (rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			if eng.logger != nil {
				eng.logger.Errorw("rule evaluation failed",
					"rule", rule.Name(), "panic", r)
			}
		}
	}()
	return rule.Evaluate(window)
}
