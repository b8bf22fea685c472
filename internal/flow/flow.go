// Package flow narrows a question bank to a topic and produces the seeded,
// fingerprint-deduplicated ordering handed to a new quiz session.
package flow

import (
	"sort"
	"strconv"
	"strings"

	"github.com/openexams/invigil/internal/bank"
	"github.com/openexams/invigil/internal/keyword"
	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/rng"
)

const (
	relevanceThreshold = 0.12
	minFilteredSize    = 10
	fingerprintWidth   = 8
	fingerprintSep     = "|"
)

// FilterByTopic keeps the questions relevant to the topic, most relevant
// first. A blank topic returns the bank unchanged; a topic matching fewer
// than ten questions discards the filter entirely, since a flow cut from a
// handful of questions would repeat across students anyway.
func FilterByTopic(pool []model.Question, topic string) []model.Question {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return pool
	}
	topicTokens := keyword.StemTokens(topic)

	type scored struct {
		q     model.Question
		score float64
	}
	var kept []scored
	for _, q := range pool {
		kw := keyword.StemTokens(strings.Join(q.Keywords, " "))
		ref := keyword.StemTokens(q.Reference)
		score := 0.35*keyword.Jaccard(topicTokens, kw) + 0.65*keyword.Jaccard(topicTokens, ref)
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		if score >= relevanceThreshold {
			kept = append(kept, scored{q: q, score: score})
		}
	}
	if len(kept) < minFilteredSize {
		return pool
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	out := make([]model.Question, len(kept))
	for i, s := range kept {
		out[i] = s.q
	}
	return out
}

// Assemble builds a session's private question flow from the document set's
// shared bank. It bumps the set's flow counter, shuffles the topic-filtered
// bank with a seed derived from (student, set, ordinal), and rotates the
// ordering until its fingerprint has not been issued before. When every
// rotation is exhausted the duplicate is accepted; uniqueness is best effort.
// The caller must hold the document set's lock.
func Assemble(set *model.SourceDocumentSet, studentID string, questionCount int, topic string, format model.QuestionFormat) ([]model.Question, string) {
	set.Flows.Counter++
	ordinal := strconv.FormatInt(set.Flows.Counter, 10)

	r := rng.NewFromParts(studentID, set.ID, ordinal)

	filtered := FilterByTopic(set.Bank, topic)
	ordered := make([]model.Question, len(filtered))
	copy(ordered, filtered)
	r.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})

	fp := Fingerprint(ordered, questionCount)
	for rotations := 0; rotations < len(ordered) && set.Flows.Issued(fp); rotations++ {
		ordered = append(ordered[1:], ordered[0])
		fp = Fingerprint(ordered, questionCount)
	}
	set.Flows.Record(fp)

	if questionCount < len(ordered) {
		ordered = ordered[:questionCount]
	}

	fr := rng.NewFromParts(studentID, ordinal, string(format))
	return bank.ApplyFormat(ordered, set.Bank, format, fr), fp
}

// Fingerprint is the first-K question-id signature of an ordering.
func Fingerprint(ordered []model.Question, questionCount int) string {
	k := questionCount
	if k > fingerprintWidth {
		k = fingerprintWidth
	}
	if k > len(ordered) {
		k = len(ordered)
	}
	ids := make([]string, k)
	for i := 0; i < k; i++ {
		ids[i] = ordered[i].ID
	}
	return strings.Join(ids, fingerprintSep)
}
