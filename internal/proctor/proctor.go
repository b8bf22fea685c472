// Package proctor accumulates a bounded integrity risk score from behavioral
// events. The core is a pure reducer over ProctorState so the warning ladder
// can be tested without a session around it.
package proctor

import (
	"fmt"
	"time"

	"github.com/openexams/invigil/internal/model"
)

// Event weights. Unknown event types fall back to defaultWeight.
var eventWeights = map[string]int{
	"tab_hidden":       10,
	"window_blur":      6,
	"fullscreen_exit":  12,
	"media_muted":      14,
	"copy_attempt":     5,
	"paste_attempt":    8,
	"context_menu":     3,
	"no_face":          10,
	"multiple_faces":   20,
	"mobile_phone":     30,
	"suspicious_noise": 7,
}

const (
	defaultWeight = 5
	maxRisk       = 100

	criticalAt = 80
	highAt     = 55
	earlyAt    = 30

	mobilePhoneLimit = 3
)

// Messages holds the student-facing warning texts. Resolved once per
// deployment so membership tracking in WarningMessages stays stable.
type Messages struct {
	Early          string
	High           string
	Critical       string
	MultipleFaces  string
	MobilePhone    string // fmt template taking (count, limit)
	CancelRisk     string
	CancelMobile   string
	CancelDeadline string
}

// DefaultMessages are the English warning texts.
var DefaultMessages = Messages{
	Early:          "Unusual activity detected. Keep your focus on the exam window.",
	High:           "High integrity risk recorded. Further violations will lower your score.",
	Critical:       "Critical integrity risk. Your exam is one violation from cancellation.",
	MultipleFaces:  "Multiple faces detected in the camera frame.",
	MobilePhone:    "Mobile phone detected (%d/%d). The exam is cancelled on the third detection.",
	CancelRisk:     "Exam auto-cancelled: integrity risk score reached the limit.",
	CancelMobile:   "Exam auto-cancelled: mobile phone detected three times.",
	CancelDeadline: "Exam closed: the time limit expired.",
}

// Event is one incoming behavioral signal.
type Event struct {
	Type string
	Meta string
}

// Outcome is what an applied event produced beyond the state change.
type Outcome struct {
	Warning   string
	Cancelled bool
}

// Weight returns the risk weight for an event type.
func Weight(eventType string) int {
	if w, ok := eventWeights[eventType]; ok {
		return w
	}
	return defaultWeight
}

// Reduce applies one event to the proctor state and returns the new state
// plus any warning or cancellation it triggered. The risk score is clamped to
// [0,100] and never decreases. Ladder warnings are emitted at most once per
// session, tracked by membership in WarningMessages.
func Reduce(state model.ProctorState, ev Event, now time.Time, msgs Messages) (model.ProctorState, Outcome) {
	state.RiskScore += Weight(ev.Type)
	if state.RiskScore > maxRisk {
		state.RiskScore = maxRisk
	}
	state.Events = append(state.Events, model.ProctorEvent{
		Type:      ev.Type,
		Meta:      ev.Meta,
		Timestamp: now,
		RiskScore: state.RiskScore,
	})

	if state.RiskScore >= maxRisk {
		return cancel(state, msgs.CancelRisk)
	}

	switch ev.Type {
	case "mobile_phone":
		count := state.EventCount("mobile_phone")
		if count >= mobilePhoneLimit {
			return cancel(state, msgs.CancelMobile)
		}
		return warn(state, fmt.Sprintf(msgs.MobilePhone, count, mobilePhoneLimit))
	case "multiple_faces":
		// Always warns; never cancels on its own.
		return warn(state, msgs.MultipleFaces)
	}

	switch {
	case state.RiskScore >= criticalAt:
		return warnOnce(state, msgs.Critical)
	case state.RiskScore >= highAt:
		return warnOnce(state, msgs.High)
	case state.RiskScore >= earlyAt:
		return warnOnce(state, msgs.Early)
	}
	return state, Outcome{}
}

func warn(state model.ProctorState, msg string) (model.ProctorState, Outcome) {
	state.WarningMessages = append(state.WarningMessages, msg)
	state.WarningCount++
	return state, Outcome{Warning: msg}
}

func warnOnce(state model.ProctorState, msg string) (model.ProctorState, Outcome) {
	if state.HasWarning(msg) {
		return state, Outcome{}
	}
	return warn(state, msg)
}

func cancel(state model.ProctorState, msg string) (model.ProctorState, Outcome) {
	state.WarningMessages = append(state.WarningMessages, msg)
	return state, Outcome{Warning: msg, Cancelled: true}
}
