// Package bank deterministically synthesizes a question bank from text
// chunks. The same seed string always yields the same bank, so a bank can be
// derived once per document set and cached on it.
package bank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openexams/invigil/internal/keyword"
	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/rng"
	"github.com/openexams/invigil/internal/textproc"
)

// ErrEmptyBank indicates generation produced no questions.
var ErrEmptyBank = errors.New("question bank is empty")

const (
	maxChunks        = 160
	keywordsPerChunk = 10
	tiersPerChunk    = 2
)

// Generate emits questions for up to the first 160 chunks. Each chunk yields
// one subjective question per independently drawn difficulty tier.
func Generate(chunks []textproc.Chunk, seed string) ([]model.Question, error) {
	r := rng.New(seed)
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}

	var questions []model.Question
	used := make(map[string]bool)
	for idx, chunk := range chunks {
		keywords := keyword.TopKeywords(chunk.Text, keywordsPerChunk)
		for t := 0; t < tiersPerChunk; t++ {
			tier := rng.Pick(r, model.Levels)
			questions = append(questions, model.Question{
				ID:            newQuestionID(r, used, idx, tier),
				Difficulty:    tier,
				Prompt:        buildPrompt(r, tier, keywords),
				Reference:     chunk.Text,
				Keywords:      keywords,
				SourceChunkID: chunk.ID,
				Type:          model.TypeSubjective,
			})
		}
	}
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	return questions, nil
}

// newQuestionID embeds the chunk index, difficulty, and a random suffix,
// redrawing the suffix until the id is unique within the bank.
func newQuestionID(r *rng.Rand, used map[string]bool, chunkIdx int, tier model.Difficulty) string {
	for {
		id := fmt.Sprintf("q%d_%s_%06x", chunkIdx, tier, r.Uint32()&0xffffff)
		if !used[id] {
			used[id] = true
			return id
		}
	}
}

// buildPrompt fills a randomly chosen tier template with up to three of the
// chunk's keywords.
func buildPrompt(r *rng.Rand, tier model.Difficulty, keywords []string) string {
	tpl := rng.Pick(r, templatesFor(tier))
	return fillTemplate(tpl, keywords)
}

// fillTemplate substitutes the template's placeholders with keywords in
// order, cycling when the template wants more than are available.
func fillTemplate(tpl string, keywords []string) string {
	if len(keywords) == 0 {
		return strings.ReplaceAll(tpl, "%s", "this topic")
	}
	out := tpl
	for i := 0; strings.Contains(out, "%s"); i++ {
		out = strings.Replace(out, "%s", keywords[i%len(keywords)], 1)
	}
	return out
}
