// Package textproc turns raw extracted document text into sentence-window
// chunks, the unit of question generation, and computes a short core summary
// for each chunk.
package textproc

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/openexams/invigil/internal/keyword"
)

// ErrInsufficientContent indicates the cleaned corpus is too small to derive
// a question bank from.
var ErrInsufficientContent = errors.New("insufficient source content")

const (
	minCorpusLen      = 600
	minSentenceLen    = 35
	sentencesPerChunk = 4
	minChunkLen       = 120

	summarySentences  = 3
	minSummarySentLen = 30
	maxSummarySentLen = 500
	summaryFallback   = 240
)

// Chunk is a fixed window of consecutive sentences with a stable id.
type Chunk struct {
	ID      string
	Text    string
	Summary string
}

// Normalize collapses whitespace runs and strips non-printable characters.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	space := false
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			space = true
		case !unicode.IsPrint(r):
			// drop control characters
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitSentences splits text on sentence-terminating punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(b.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// BuildChunks normalizes the corpus, filters its sentences, and groups them
// into fixed windows. It fails with ErrInsufficientContent if the cleaned
// text is under 600 characters or no chunk survives filtering.
func BuildChunks(raw string) ([]Chunk, error) {
	clean := Normalize(raw)
	if len(clean) < minCorpusLen {
		return nil, ErrInsufficientContent
	}

	var kept []string
	for _, s := range SplitSentences(clean) {
		if len(s) > minSentenceLen {
			kept = append(kept, s)
		}
	}

	var chunks []Chunk
	for start := 0; start < len(kept); start += sentencesPerChunk {
		end := start + sentencesPerChunk
		if end > len(kept) {
			end = len(kept)
		}
		text := strings.Join(kept[start:end], " ")
		if len(text) < minChunkLen {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:   chunkID(len(chunks)),
			Text: text,
		})
	}
	if len(chunks) == 0 {
		return nil, ErrInsufficientContent
	}

	for i := range chunks {
		chunks[i].Summary = CoreSummary(chunks[i].Text)
	}
	return chunks, nil
}

// CoreSummary keeps the chunk's three densest sentences, in their original
// order, as a compact summary. Density is the count of distinct content words.
// Falls back to a truncated raw slice when no sentence fits the length window.
func CoreSummary(chunk string) string {
	type scored struct {
		idx   int
		score int
	}
	var candidates []scored
	sentences := SplitSentences(chunk)
	for i, s := range sentences {
		if len(s) < minSummarySentLen || len(s) > maxSummarySentLen {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: keyword.DistinctCount(s)})
	}
	if len(candidates) == 0 {
		if len(chunk) > summaryFallback {
			return strings.TrimSpace(chunk[:summaryFallback])
		}
		return chunk
	}

	// Stable selection of the top sentences by score.
	for i := 1; i < len(candidates); i++ {
		c := candidates[i]
		j := i - 1
		for j >= 0 && candidates[j].score < c.score {
			candidates[j+1] = candidates[j]
			j--
		}
		candidates[j+1] = c
	}
	if len(candidates) > summarySentences {
		candidates = candidates[:summarySentences]
	}

	picked := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		picked[c.idx] = true
	}
	var out []string
	for i, s := range sentences {
		if picked[i] {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

func chunkID(n int) string {
	return "chunk_" + strconv.Itoa(n)
}
