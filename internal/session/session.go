// Package session implements the adaptive quiz state machine: level-biased
// question selection, promotion/demotion thresholds, and lazy deadline
// expiry. A session moves from active to completed exactly once.
package session

import (
	"time"

	"github.com/openexams/invigil/internal/model"
)

const (
	promoteAt = 82
	demoteAt  = 45
)

// AdjustLevel promotes one tier on a strong result and demotes one tier on a
// weak one, clamped at the beginner and advanced ends.
func AdjustLevel(level model.Difficulty, percentage float64) model.Difficulty {
	idx := levelIndex(level)
	switch {
	case percentage >= promoteAt && idx < len(model.Levels)-1:
		return model.Levels[idx+1]
	case percentage <= demoteAt && idx > 0:
		return model.Levels[idx-1]
	default:
		return level
	}
}

// PickNext selects the session's next question, preferring the current level,
// then one level up, then one level down, then anything left. It appends the
// chosen id to AskedQuestionIDs and sets CurrentQuestionID. Returns false
// once the question budget is exhausted or no candidate remains.
func PickNext(s *model.QuizSession) (model.Question, bool) {
	if len(s.AskedQuestionIDs) >= s.QuestionCount {
		return model.Question{}, false
	}

	var candidates []model.Question
	for _, q := range s.AssignedBank {
		if !s.Asked(q.ID) {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return model.Question{}, false
	}

	idx := levelIndex(s.CurrentLevel)
	higher := idx + 1
	if higher > len(model.Levels)-1 {
		higher = len(model.Levels) - 1
	}
	lower := idx - 1
	if lower < 0 {
		lower = 0
	}

	var same, up, down []model.Question
	for _, q := range candidates {
		switch levelIndex(q.Difficulty) {
		case idx:
			same = append(same, q)
		case higher:
			up = append(up, q)
		case lower:
			down = append(down, q)
		}
	}

	preferred := append(append(same, up...), down...)
	var next model.Question
	if len(preferred) > 0 {
		next = preferred[0]
	} else {
		next = candidates[0]
	}

	s.AskedQuestionIDs = append(s.AskedQuestionIDs, next.ID)
	s.CurrentQuestionID = next.ID
	return next, true
}

// ExpireIfOverdue completes a still-active session whose deadline has
// passed. Deadlines are enforced lazily, on the next access.
func ExpireIfOverdue(s *model.QuizSession, now time.Time) bool {
	if s.Completed || s.DeadlineAt.IsZero() || !now.After(s.DeadlineAt) {
		return false
	}
	s.Complete(now)
	return true
}

func levelIndex(level model.Difficulty) int {
	for i, l := range model.Levels {
		if l == level {
			return i
		}
	}
	return 0
}
