package bank

import (
	"strings"

	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/rng"
	"github.com/openexams/invigil/internal/textproc"
)

const (
	mcqChoices       = 4
	mcqDistractorCap = 8
	mcqDrawAttempts  = 80
	mcqSentenceCap   = 220

	mcqPromptPrefix = "Select the statement that best reflects the source material. "
)

// Filler options used when the bank cannot supply enough unique distractors.
var fillerChoices = []string{
	"The passage does not address this point.",
	"None of the other statements matches the material.",
	"This cannot be determined from the source text.",
}

// BuildMCQ derives a multiple-choice variant of a subjective question. The
// correct choice is the first sentence of the question's reference passage;
// distractors are first sentences of other questions' references sampled with
// the seeded RNG.
func BuildMCQ(q model.Question, pool []model.Question, r *rng.Rand) model.Question {
	correct := firstSentence(q.Reference)

	seen := map[string]bool{strings.ToLower(correct): true}
	var distractors []string
	for attempts := 0; attempts < mcqDrawAttempts && len(distractors) < mcqDistractorCap; attempts++ {
		other := pool[r.IntN(len(pool))]
		if other.ID == q.ID {
			continue
		}
		s := firstSentence(other.Reference)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		distractors = append(distractors, s)
	}
	if len(distractors) > mcqChoices-1 {
		distractors = distractors[:mcqChoices-1]
	}

	choices := append([]string{correct}, distractors...)
	for i := 0; len(choices) < mcqChoices && i < len(fillerChoices); i++ {
		f := fillerChoices[i]
		if !seen[strings.ToLower(f)] {
			seen[strings.ToLower(f)] = true
			choices = append(choices, f)
		}
	}

	r.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	correctIndex := 0
	for i, c := range choices {
		if c == correct {
			correctIndex = i
			break
		}
	}

	mcq := q
	mcq.Type = model.TypeMCQ
	mcq.Prompt = mcqPromptPrefix + q.Prompt
	mcq.Choices = choices
	mcq.CorrectIndex = correctIndex
	return mcq
}

// ApplyFormat rewrites an ordered question selection according to the
// requested format policy: subjective and mcq apply uniformly, mixed
// alternates by position (even positions stay subjective).
func ApplyFormat(selected []model.Question, pool []model.Question, format model.QuestionFormat, r *rng.Rand) []model.Question {
	out := make([]model.Question, len(selected))
	for i, q := range selected {
		switch format {
		case model.FormatMCQ:
			out[i] = BuildMCQ(q, pool, r)
		case model.FormatMixed:
			if i%2 == 1 {
				out[i] = BuildMCQ(q, pool, r)
			} else {
				out[i] = q
			}
		default:
			out[i] = q
		}
	}
	return out
}

// firstSentence returns the reference's leading sentence, capped at 220 chars.
func firstSentence(text string) string {
	sentences := textproc.SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	s := sentences[0]
	if len(s) > mcqSentenceCap {
		s = strings.TrimSpace(s[:mcqSentenceCap])
	}
	return s
}
