package bank

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/rng"
	"github.com/openexams/invigil/internal/textproc"
)

func testChunks(n int) []textproc.Chunk {
	chunks := make([]textproc.Chunk, n)
	for i := range chunks {
		chunks[i] = textproc.Chunk{
			ID: fmt.Sprintf("chunk_%d", i),
			Text: fmt.Sprintf(
				"Consensus protocols replicate ordered log entries across follower nodes, topic %d. "+
					"Leaders serialize appended commands before commitment is acknowledged back, topic %d.",
				i, i),
		}
	}
	return chunks
}

func TestGenerate(t *testing.T) {
	chunks := testChunks(5)
	questions, err := Generate(chunks, "seed-a")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(questions) != 10 {
		t.Fatalf("expected 10 questions (2 per chunk), got %d", len(questions))
	}

	seen := make(map[string]bool)
	for _, q := range questions {
		if seen[q.ID] {
			t.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if !q.Difficulty.Valid() {
			t.Errorf("question %s has invalid difficulty %q", q.ID, q.Difficulty)
		}
		if q.Type != model.TypeSubjective {
			t.Errorf("question %s type = %q, want subjective", q.ID, q.Type)
		}
		if q.Prompt == "" || strings.Contains(q.Prompt, "%s") {
			t.Errorf("question %s has unfilled prompt %q", q.ID, q.Prompt)
		}
		if q.Reference == "" {
			t.Errorf("question %s missing reference passage", q.ID)
		}
		if len(q.Keywords) == 0 {
			t.Errorf("question %s has no keywords", q.ID)
		}
		if q.SourceChunkID == "" {
			t.Errorf("question %s missing source chunk id", q.ID)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	chunks := testChunks(4)
	a, err := Generate(chunks, "fixed-seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(chunks, "fixed-seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different banks")
	}

	c, err := Generate(chunks, "other-seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical banks")
	}
}

func TestGenerateChunkCap(t *testing.T) {
	questions, err := Generate(testChunks(200), "seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(questions) != 160*tiersPerChunk {
		t.Errorf("expected %d questions from capped chunks, got %d", 160*tiersPerChunk, len(questions))
	}
}

func TestGenerateEmpty(t *testing.T) {
	_, err := Generate(nil, "seed")
	if !errors.Is(err, ErrEmptyBank) {
		t.Errorf("expected ErrEmptyBank, got %v", err)
	}
}

func TestFillTemplate(t *testing.T) {
	tests := []struct {
		name     string
		tpl      string
		keywords []string
		want     string
	}{
		{"single", "Define %s.", []string{"quorum"}, "Define quorum."},
		{"cycles keywords", "Compare %s with %s and %s.", []string{"raft", "paxos"}, "Compare raft with paxos and raft."},
		{"no keywords", "Define %s.", nil, "Define this topic."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fillTemplate(tt.tpl, tt.keywords); got != tt.want {
				t.Errorf("fillTemplate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildMCQ(t *testing.T) {
	pool, err := Generate(testChunks(6), "mcq-seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	r := rng.New("mcq-session")
	q := pool[0]
	mcq := BuildMCQ(q, pool, r)

	if mcq.Type != model.TypeMCQ {
		t.Fatalf("type = %q, want mcq", mcq.Type)
	}
	if len(mcq.Choices) != 4 {
		t.Fatalf("expected 4 choices, got %d", len(mcq.Choices))
	}
	if !strings.HasPrefix(mcq.Prompt, mcqPromptPrefix) {
		t.Errorf("prompt missing MCQ prefix: %q", mcq.Prompt)
	}
	if mcq.CorrectIndex < 0 || mcq.CorrectIndex >= len(mcq.Choices) {
		t.Fatalf("correct index %d out of range", mcq.CorrectIndex)
	}
	if got := mcq.Choices[mcq.CorrectIndex]; got != firstSentence(q.Reference) {
		t.Errorf("correct choice = %q, want first sentence of reference", got)
	}

	seen := make(map[string]bool)
	for _, c := range mcq.Choices {
		key := strings.ToLower(c)
		if seen[key] {
			t.Errorf("duplicate choice %q", c)
		}
		seen[key] = true
	}

	// Original subjective question untouched.
	if q.Type != model.TypeSubjective || q.Choices != nil {
		t.Error("BuildMCQ mutated its input question")
	}
}

func TestBuildMCQFillerPad(t *testing.T) {
	// A pool with one distinct reference cannot supply real distractors.
	pool, err := Generate(testChunks(1), "pad-seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	mcq := BuildMCQ(pool[0], pool, rng.New("pad"))
	if len(mcq.Choices) != 4 {
		t.Fatalf("expected filler padding to 4 choices, got %d", len(mcq.Choices))
	}
	fillers := 0
	for _, c := range mcq.Choices {
		for _, f := range fillerChoices {
			if c == f {
				fillers++
			}
		}
	}
	if fillers != 3 {
		t.Errorf("expected 3 filler choices, got %d", fillers)
	}
}

func TestApplyFormat(t *testing.T) {
	pool, err := Generate(testChunks(6), "fmt-seed")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	selected := pool[:4]

	tests := []struct {
		name   string
		format model.QuestionFormat
		check  func(t *testing.T, out []model.Question)
	}{
		{"subjective keeps all", model.FormatSubjective, func(t *testing.T, out []model.Question) {
			for i, q := range out {
				if q.Type != model.TypeSubjective {
					t.Errorf("position %d type = %q", i, q.Type)
				}
			}
		}},
		{"mcq converts all", model.FormatMCQ, func(t *testing.T, out []model.Question) {
			for i, q := range out {
				if q.Type != model.TypeMCQ {
					t.Errorf("position %d type = %q", i, q.Type)
				}
			}
		}},
		{"mixed alternates", model.FormatMixed, func(t *testing.T, out []model.Question) {
			for i, q := range out {
				want := model.TypeSubjective
				if i%2 == 1 {
					want = model.TypeMCQ
				}
				if q.Type != want {
					t.Errorf("position %d type = %q, want %q", i, q.Type, want)
				}
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyFormat(selected, pool, tt.format, rng.New("fmt"))
			if len(out) != len(selected) {
				t.Fatalf("length changed: %d -> %d", len(selected), len(out))
			}
			tt.check(t, out)
		})
	}
}
