package proctor

import (
	"fmt"
	"testing"
	"time"

	"github.com/openexams/invigil/internal/model"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func apply(t *testing.T, state model.ProctorState, types ...string) (model.ProctorState, Outcome) {
	t.Helper()
	var out Outcome
	for _, typ := range types {
		state, out = Reduce(state, Event{Type: typ}, testNow, DefaultMessages)
	}
	return state, out
}

func TestWeight(t *testing.T) {
	if got := Weight("mobile_phone"); got != 30 {
		t.Errorf("Weight(mobile_phone) = %d, want 30", got)
	}
	if got := Weight("something_new"); got != defaultWeight {
		t.Errorf("Weight(unknown) = %d, want %d", got, defaultWeight)
	}
}

func TestReduceAccumulatesRisk(t *testing.T) {
	state, out := apply(t, model.ProctorState{}, "tab_hidden", "window_blur")
	if state.RiskScore != 16 {
		t.Errorf("risk = %d, want 16", state.RiskScore)
	}
	if out.Warning != "" || out.Cancelled {
		t.Errorf("unexpected outcome below the warning ladder: %+v", out)
	}
	if len(state.Events) != 2 {
		t.Errorf("expected 2 recorded events, got %d", len(state.Events))
	}
	if state.Events[1].RiskScore != 16 {
		t.Errorf("event snapshot risk = %d, want 16", state.Events[1].RiskScore)
	}
}

func TestReduceRiskClamped(t *testing.T) {
	state := model.ProctorState{RiskScore: 95}
	state, out := apply(t, state, "media_muted")
	if state.RiskScore != 100 {
		t.Errorf("risk = %d, want clamp at 100", state.RiskScore)
	}
	if !out.Cancelled {
		t.Error("expected cancellation at the risk ceiling")
	}
	if out.Warning != DefaultMessages.CancelRisk {
		t.Errorf("warning = %q, want CancelRisk", out.Warning)
	}
}

func TestReduceWarningLadder(t *testing.T) {
	tests := []struct {
		name     string
		startRisk int
		want     string
	}{
		{"early warning at 30", 25, DefaultMessages.Early},
		{"high warning at 55", 50, DefaultMessages.High},
		{"critical warning at 80", 75, DefaultMessages.Critical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := model.ProctorState{RiskScore: tt.startRisk}
			state, out := apply(t, state, "tab_hidden")
			if out.Warning != tt.want {
				t.Errorf("warning = %q, want %q", out.Warning, tt.want)
			}
			if out.Cancelled {
				t.Error("ladder warning should not cancel")
			}
			if state.WarningCount != 1 {
				t.Errorf("warning count = %d, want 1", state.WarningCount)
			}
		})
	}
}

func TestReduceLadderWarnsOncePerSession(t *testing.T) {
	state := model.ProctorState{RiskScore: 28}

	state, out := apply(t, state, "copy_attempt") // 33, crosses early
	if out.Warning != DefaultMessages.Early {
		t.Fatalf("first crossing warning = %q", out.Warning)
	}
	state, out = apply(t, state, "copy_attempt") // 38, still early band
	if out.Warning != "" {
		t.Errorf("repeated early warning emitted: %q", out.Warning)
	}
	if state.WarningCount != 1 {
		t.Errorf("warning count = %d, want 1", state.WarningCount)
	}
}

func TestReduceMobilePhone(t *testing.T) {
	var state model.ProctorState
	var out Outcome

	state, out = apply(t, state, "mobile_phone")
	want := fmt.Sprintf(DefaultMessages.MobilePhone, 1, 3)
	if out.Warning != want {
		t.Errorf("first detection warning = %q, want %q", out.Warning, want)
	}

	state, out = apply(t, state, "mobile_phone")
	want = fmt.Sprintf(DefaultMessages.MobilePhone, 2, 3)
	if out.Warning != want || out.Cancelled {
		t.Errorf("second detection outcome = %+v", out)
	}

	_, out = apply(t, state, "mobile_phone")
	if !out.Cancelled {
		t.Fatal("third mobile phone detection must cancel")
	}
	// Risk hits 90 on the third event, so cancellation comes from the
	// three-strike rule, not the ceiling.
	if out.Warning != DefaultMessages.CancelMobile {
		t.Errorf("cancel warning = %q, want CancelMobile", out.Warning)
	}
}

func TestReduceMultipleFacesAlwaysWarns(t *testing.T) {
	var state model.ProctorState
	var out Outcome
	for i := 0; i < 3; i++ {
		state, out = Reduce(state, Event{Type: "multiple_faces"}, testNow, DefaultMessages)
		if out.Cancelled && state.RiskScore < 100 {
			t.Fatalf("multiple_faces cancelled below the ceiling at repeat %d", i)
		}
	}
	if state.WarningCount != 3 {
		t.Errorf("warning count = %d, want 3 (one per detection)", state.WarningCount)
	}

	// Repeats still push risk to the ceiling eventually.
	state, out = apply(t, state, "multiple_faces", "multiple_faces")
	if state.RiskScore != 100 || !out.Cancelled {
		t.Errorf("risk = %d cancelled = %v, want ceiling cancellation", state.RiskScore, out.Cancelled)
	}
}

func TestReduceEventMeta(t *testing.T) {
	state, _ := Reduce(model.ProctorState{}, Event{Type: "no_face", Meta: "camera 2"}, testNow, DefaultMessages)
	if len(state.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(state.Events))
	}
	e := state.Events[0]
	if e.Type != "no_face" || e.Meta != "camera 2" || !e.Timestamp.Equal(testNow) {
		t.Errorf("recorded event = %+v", e)
	}
}
