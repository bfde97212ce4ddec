package risk

import (
	"testing"

	"github.com/kestrel-security/sentinel/pkg/correlate"
	"github.com/kestrel-security/sentinel/pkg/events"
)

func TestScoreComposition(t *testing.T) {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-1"
	e.Severity = events.SeverityHigh
	e.Technique = &events.Technique{TechniqueID: "T1078"}

	correlations := []correlate.Record{{EventIDs: []string{"evt-1"}}}

	got := Score(e, correlations)
	if got != 90 {
		t.Errorf("Score = %d, want 90 (60 base + 20 correlation + 10 technique)", got)
	}
}

func TestScoreClampsAtHundredWithRootAccount(t *testing.T) {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-1"
	e.Severity = events.SeverityHigh
	e.Technique = &events.Technique{TechniqueID: "T1078"}
	e.AddTag("root-account")

	correlations := []correlate.Record{{EventIDs: []string{"evt-1"}}}

	got := Score(e, correlations)
	if got != 100 {
		t.Errorf("Score = %d, want clamped to 100", got)
	}
}

func TestScorePureFunction(t *testing.T) {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-1"
	e.Severity = events.SeverityMedium

	first := Score(e, nil)
	second := Score(e, nil)
	if first != second || first != 40 {
		t.Errorf("Score not pure/stable: %d, %d", first, second)
	}
}

func TestMemberCorrelationsFiltersByEventID(t *testing.T) {
	e := events.NewCanonicalEvent()
	e.EventID = "evt-2"

	correlations := []correlate.Record{
		{Rule: "brute_force", EventIDs: []string{"evt-1"}},
		{Rule: "reconnaissance", EventIDs: []string{"evt-2", "evt-3"}},
	}

	members := MemberCorrelations(e, correlations)
	if len(members) != 1 || members[0].Rule != "reconnaissance" {
		t.Errorf("MemberCorrelations = %+v, want only reconnaissance", members)
	}
}
