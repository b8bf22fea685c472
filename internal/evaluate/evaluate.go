// Package evaluate scores answers. Multiple-choice answers are exact-match;
// subjective answers go through one of two scoring strategies with an
// identical output contract: a blended lexical similarity scorer, or an
// external AI oracle that falls back to the lexical path on any failure.
package evaluate

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/openexams/invigil/internal/keyword"
	"github.com/openexams/invigil/internal/model"
)

var (
	// ErrAnswerTooShort rejects subjective answers under ten characters.
	ErrAnswerTooShort = errors.New("answer too short to evaluate")
	// ErrInvalidChoice rejects MCQ choice indexes outside the choice list.
	ErrInvalidChoice = errors.New("invalid choice index")
)

const (
	minAnswerLen = 10

	cosineWeight   = 0.5
	coverageWeight = 0.3
	jaccardWeight  = 0.2

	strongAt = 75
	decentAt = 50

	penaltyStep   = 35
	penaltyWeight = 4
)

// Messages holds the student-facing feedback texts per tier.
type Messages struct {
	Strong       string
	Decent       string
	Weak         string
	MCQCorrect   string
	MCQIncorrect string
	AIDisclaimer string
}

// DefaultMessages are the English feedback texts.
var DefaultMessages = Messages{
	Strong:       "Strong answer. You covered the key ideas from the material.",
	Decent:       "Decent answer. Some key ideas are present, others are missing.",
	Weak:         "Weak answer. Revisit the source material for this topic.",
	MCQCorrect:   "Correct choice.",
	MCQIncorrect: "Incorrect choice.",
	AIDisclaimer: " (AI review unavailable; scored by similarity analysis.)",
}

// Verdict is the uniform output contract of both scoring strategies.
type Verdict struct {
	Percentage float64
	Feedback   string
	Reasoning  string
	Confidence float64
	IsAI       bool
}

// Scorer is a subjective-answer scoring strategy.
type Scorer interface {
	ScoreSubjective(ctx context.Context, q model.Question, answer string) (Verdict, error)
}

// LexicalScorer blends cosine similarity, keyword coverage, and Jaccard
// overlap between the answer and the question's reference passage.
type LexicalScorer struct {
	Msgs Messages
}

// NewLexicalScorer returns a lexical scorer with the given feedback catalog.
func NewLexicalScorer(msgs Messages) *LexicalScorer {
	return &LexicalScorer{Msgs: msgs}
}

// ScoreSubjective implements Scorer.
func (s *LexicalScorer) ScoreSubjective(_ context.Context, q model.Question, answer string) (Verdict, error) {
	answerStems := keyword.StemTokens(answer)
	refStems := keyword.StemTokens(q.Reference)

	cos := keyword.Cosine(answerStems, refStems)
	jac := keyword.Jaccard(answerStems, refStems)
	cov := keywordCoverage(q.Keywords, answer)

	pct := math.Round(100 * clamp01(cosineWeight*cos+coverageWeight*cov+jaccardWeight*jac))
	return Verdict{
		Percentage: pct,
		Feedback:   s.feedbackFor(pct),
		Confidence: 1,
	}, nil
}

func (s *LexicalScorer) feedbackFor(pct float64) string {
	switch {
	case pct >= strongAt:
		return s.Msgs.Strong
	case pct >= decentAt:
		return s.Msgs.Decent
	default:
		return s.Msgs.Weak
	}
}

// keywordCoverage is the fraction of the question's raw keywords literally
// present among the answer's lowercase tokens. Stemming is deliberately not
// applied here; coverage rewards using the source's own vocabulary.
func keywordCoverage(keywords []string, answer string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	answerSet := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(answer)) {
		answerSet[strings.Trim(t, ".,;:!?\"'()")] = true
	}
	hit := 0
	for _, kw := range keywords {
		if answerSet[strings.ToLower(kw)] {
			hit++
		}
	}
	return float64(hit) / float64(len(keywords))
}

// ValidateSubjective rejects answers too short to score meaningfully.
func ValidateSubjective(answer string) error {
	if len(strings.TrimSpace(answer)) < minAnswerLen {
		return ErrAnswerTooShort
	}
	return nil
}

// ScoreMCQ scores a multiple-choice answer: 100 for the correct index,
// 0 for any other valid index, ErrInvalidChoice otherwise.
func ScoreMCQ(q model.Question, choice int) (float64, error) {
	if choice < 0 || choice >= len(q.Choices) {
		return 0, ErrInvalidChoice
	}
	if choice == q.CorrectIndex {
		return 100, nil
	}
	return 0, nil
}

// ApplyRiskPenalty reduces a raw percentage by the cheating penalty derived
// from the session's risk score: floor(risk/35) x 4, floored at zero.
func ApplyRiskPenalty(raw float64, riskScore int) (adjusted float64, penalty int) {
	penalty = (riskScore / penaltyStep) * penaltyWeight
	adjusted = raw - float64(penalty)
	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted, penalty
}

// Marks converts an adjusted percentage into marks for one question,
// rounded to two decimal places.
func Marks(adjustedPercentage, marksPerQuestion float64) float64 {
	return Round2(adjustedPercentage / 100 * marksPerQuestion)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
