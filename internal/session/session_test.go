package session

import (
	"testing"
	"time"

	"github.com/openexams/invigil/internal/model"
)

func TestAdjustLevel(t *testing.T) {
	tests := []struct {
		name       string
		level      model.Difficulty
		percentage float64
		want       model.Difficulty
	}{
		{"promote at threshold", model.DifficultyBeginner, 82, model.DifficultyIntermediate},
		{"promote from intermediate", model.DifficultyIntermediate, 95, model.DifficultyAdvanced},
		{"no promote past advanced", model.DifficultyAdvanced, 100, model.DifficultyAdvanced},
		{"demote at threshold", model.DifficultyIntermediate, 45, model.DifficultyBeginner},
		{"no demote below beginner", model.DifficultyBeginner, 0, model.DifficultyBeginner},
		{"hold between thresholds", model.DifficultyIntermediate, 60, model.DifficultyIntermediate},
		{"hold just under promote", model.DifficultyBeginner, 81.9, model.DifficultyBeginner},
		{"hold just over demote", model.DifficultyAdvanced, 45.1, model.DifficultyAdvanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustLevel(tt.level, tt.percentage); got != tt.want {
				t.Errorf("AdjustLevel(%s, %v) = %s, want %s", tt.level, tt.percentage, got, tt.want)
			}
		})
	}
}

func newTestSession(count int) *model.QuizSession {
	return &model.QuizSession{
		ID:            "s1",
		CurrentLevel:  model.DifficultyIntermediate,
		QuestionCount: count,
		AssignedBank: []model.Question{
			{ID: "b1", Difficulty: model.DifficultyBeginner},
			{ID: "b2", Difficulty: model.DifficultyBeginner},
			{ID: "i1", Difficulty: model.DifficultyIntermediate},
			{ID: "i2", Difficulty: model.DifficultyIntermediate},
			{ID: "a1", Difficulty: model.DifficultyAdvanced},
		},
	}
}

func TestPickNextPrefersCurrentLevel(t *testing.T) {
	s := newTestSession(5)
	q, ok := PickNext(s)
	if !ok {
		t.Fatal("expected a question")
	}
	if q.Difficulty != model.DifficultyIntermediate {
		t.Errorf("first pick difficulty = %s, want intermediate", q.Difficulty)
	}
	if s.CurrentQuestionID != q.ID {
		t.Errorf("CurrentQuestionID = %q, want %q", s.CurrentQuestionID, q.ID)
	}
	if len(s.AskedQuestionIDs) != 1 || s.AskedQuestionIDs[0] != q.ID {
		t.Errorf("AskedQuestionIDs = %v", s.AskedQuestionIDs)
	}
}

func TestPickNextFallbackOrder(t *testing.T) {
	s := newTestSession(5)

	// Drain both intermediate questions; next pick must come from one up.
	s.AskedQuestionIDs = []string{"i1", "i2"}
	q, ok := PickNext(s)
	if !ok {
		t.Fatal("expected a question")
	}
	if q.Difficulty != model.DifficultyAdvanced {
		t.Errorf("fallback pick difficulty = %s, want advanced", q.Difficulty)
	}

	// Then one level down.
	q, ok = PickNext(s)
	if !ok {
		t.Fatal("expected a question")
	}
	if q.Difficulty != model.DifficultyBeginner {
		t.Errorf("second fallback difficulty = %s, want beginner", q.Difficulty)
	}
}

func TestPickNextNeverRepeats(t *testing.T) {
	s := newTestSession(5)
	seen := make(map[string]bool)
	for {
		q, ok := PickNext(s)
		if !ok {
			break
		}
		if seen[q.ID] {
			t.Fatalf("question %s picked twice", q.ID)
		}
		seen[q.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("picked %d questions, want 5", len(seen))
	}
}

func TestPickNextRespectsBudget(t *testing.T) {
	s := newTestSession(2)
	for i := 0; i < 2; i++ {
		if _, ok := PickNext(s); !ok {
			t.Fatalf("pick %d failed", i)
		}
	}
	if _, ok := PickNext(s); ok {
		t.Error("pick beyond question budget succeeded")
	}
}

func TestPickNextExhaustedBank(t *testing.T) {
	s := newTestSession(10)
	s.AskedQuestionIDs = []string{"b1", "b2", "i1", "i2", "a1"}
	if _, ok := PickNext(s); ok {
		t.Error("expected no candidate from a drained bank")
	}
}

func TestExpireIfOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		done     bool
		want     bool
	}{
		{"past deadline expires", now.Add(-time.Minute), false, true},
		{"future deadline keeps running", now.Add(time.Minute), false, false},
		{"zero deadline never expires", time.Time{}, false, false},
		{"already completed is untouched", now.Add(-time.Hour), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &model.QuizSession{DeadlineAt: tt.deadline, Completed: tt.done}
			if got := ExpireIfOverdue(s, now); got != tt.want {
				t.Errorf("ExpireIfOverdue = %v, want %v", got, tt.want)
			}
			if tt.want && (!s.Completed || s.CompletedAt == nil) {
				t.Error("expired session not marked completed")
			}
		})
	}
}
