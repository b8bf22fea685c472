package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openexams/invigil/internal/model"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("newTestSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs a subtest against each Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestSQLite(t)) })
}

func testSet(id string) *model.SourceDocumentSet {
	return &model.SourceDocumentSet{
		ID:      id,
		OwnerID: "teacher-1",
		Texts:   []string{"corpus text"},
		Bank: []model.Question{
			{ID: "q1", Difficulty: model.DifficultyBeginner, Prompt: "Define quorum.", Type: model.TypeSubjective},
		},
		BankSeed:  "seed",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testStoreSession(id string) *model.QuizSession {
	return &model.QuizSession{
		ID:                  id,
		SourceDocumentSetID: "set-1",
		StudentID:           "student-1",
		InitialLevel:        model.DifficultyBeginner,
		CurrentLevel:        model.DifficultyIntermediate,
		AskedQuestionIDs:    []string{"q1"},
		Responses:           []model.Response{{QuestionID: "q1", Percentage: 80, MarksAwarded: 8}},
		AssignedBank:        []model.Question{{ID: "q1", Type: model.TypeSubjective}},
		QuestionCount:       4,
		Format:              model.FormatSubjective,
		StartedAt:           time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TotalMarks:          40,
		MarksPerQuestion:    10,
	}
}

func TestDocumentSetRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.GetDocumentSet(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		set := testSet("set-1")
		if err := s.PutDocumentSet(ctx, set); err != nil {
			t.Fatalf("PutDocumentSet: %v", err)
		}

		got, err := s.GetDocumentSet(ctx, "set-1")
		if err != nil {
			t.Fatalf("GetDocumentSet: %v", err)
		}
		if got.OwnerID != set.OwnerID || len(got.Bank) != 1 || got.Bank[0].ID != "q1" {
			t.Errorf("round-trip mismatch: %+v", got)
		}

		// Returned entity is a copy, not an alias of stored state.
		got.OwnerID = "someone-else"
		again, err := s.GetDocumentSet(ctx, "set-1")
		if err != nil {
			t.Fatalf("GetDocumentSet: %v", err)
		}
		if again.OwnerID != "teacher-1" {
			t.Error("mutating a returned set changed stored state")
		}

		// Upsert overwrites.
		set.Flows.Record("fp-1")
		if err := s.PutDocumentSet(ctx, set); err != nil {
			t.Fatalf("PutDocumentSet update: %v", err)
		}
		again, err = s.GetDocumentSet(ctx, "set-1")
		if err != nil {
			t.Fatalf("GetDocumentSet: %v", err)
		}
		if !again.Flows.Issued("fp-1") {
			t.Error("update did not persist the flow log")
		}

		if err := s.DeleteDocumentSet(ctx, "set-1"); err != nil {
			t.Fatalf("DeleteDocumentSet: %v", err)
		}
		if _, err := s.GetDocumentSet(ctx, "set-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSessionRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		sess := testStoreSession("sess-1")
		if err := s.PutSession(ctx, sess); err != nil {
			t.Fatalf("PutSession: %v", err)
		}

		got, err := s.GetSession(ctx, "sess-1")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if got.StudentID != "student-1" || got.CurrentLevel != model.DifficultyIntermediate {
			t.Errorf("round-trip mismatch: %+v", got)
		}
		if len(got.Responses) != 1 || got.Responses[0].MarksAwarded != 8 {
			t.Errorf("responses not preserved: %+v", got.Responses)
		}

		// Completion state survives an update.
		sess.Complete(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
		if err := s.PutSession(ctx, sess); err != nil {
			t.Fatalf("PutSession update: %v", err)
		}
		got, err = s.GetSession(ctx, "sess-1")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if !got.Completed || got.CompletedAt == nil {
			t.Error("completion state lost on update")
		}

		if err := s.DeleteSession(ctx, "sess-1"); err != nil {
			t.Fatalf("DeleteSession: %v", err)
		}
		if _, err := s.GetSession(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestListSessions(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		list, err := s.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected empty list, got %d", len(list))
		}

		for _, id := range []string{"sess-a", "sess-b", "sess-c"} {
			if err := s.PutSession(ctx, testStoreSession(id)); err != nil {
				t.Fatalf("PutSession %s: %v", id, err)
			}
		}

		list, err = s.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(list))
		}
		seen := make(map[string]bool)
		for _, sess := range list {
			seen[sess.ID] = true
		}
		for _, id := range []string{"sess-a", "sess-b", "sess-c"} {
			if !seen[id] {
				t.Errorf("session %s missing from list", id)
			}
		}
	})
}

func TestImportedFileHash(t *testing.T) {
	s := newTestSQLite(t)

	hash, err := s.GetImportedFileHash("notes.pdf")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash for unknown path, got %q", hash)
	}

	if err := s.SetImportedFileHash("notes.pdf", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("notes.pdf")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("hash = %q, want abc123", hash)
	}

	// Re-ingest replaces the hash.
	if err := s.SetImportedFileHash("notes.pdf", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("notes.pdf")
	if hash != "def456" {
		t.Errorf("hash = %q, want def456", hash)
	}
}
