package evaluate

import (
	"context"
	"log/slog"
	"time"

	"github.com/openexams/invigil/internal/model"
)

// OracleVerdict is the external scoring oracle's output contract.
type OracleVerdict struct {
	Score      float64
	Feedback   string
	Reasoning  string
	Confidence float64
	Rubric     string
}

// Oracle is the external AI scoring collaborator. Absence or failure must
// never prevent scoring.
type Oracle interface {
	EvaluateSubjectiveAnswer(ctx context.Context, answer, prompt, reference string, maxScore int) (OracleVerdict, error)
}

// OracleScorer delegates subjective scoring to an AI oracle, bounded by a
// timeout, and degrades synchronously to the lexical scorer on any failure.
type OracleScorer struct {
	oracle   Oracle
	fallback *LexicalScorer
	timeout  time.Duration
}

// NewOracleScorer wraps an oracle with its lexical fallback.
func NewOracleScorer(oracle Oracle, fallback *LexicalScorer, timeout time.Duration) *OracleScorer {
	return &OracleScorer{oracle: oracle, fallback: fallback, timeout: timeout}
}

// ScoreSubjective implements Scorer. The oracle's verdict is propagated
// verbatim; a failed or timed-out call falls back to the lexical path with a
// disclaimer appended to the feedback.
func (s *OracleScorer) ScoreSubjective(ctx context.Context, q model.Question, answer string) (Verdict, error) {
	octx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ov, err := s.oracle.EvaluateSubjectiveAnswer(octx, answer, q.Prompt, q.Reference, 100)
	if err != nil {
		slog.Warn("scoring oracle failed, falling back to lexical scorer",
			"question_id", q.ID, "error", err)
		v, ferr := s.fallback.ScoreSubjective(ctx, q, answer)
		if ferr != nil {
			return Verdict{}, ferr
		}
		v.Feedback += s.fallback.Msgs.AIDisclaimer
		return v, nil
	}

	pct := ov.Score
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return Verdict{
		Percentage: pct,
		Feedback:   ov.Feedback,
		Reasoning:  ov.Reasoning,
		Confidence: ov.Confidence,
		IsAI:       true,
	}, nil
}
