// Package keyword provides the lexical primitives shared by question
// generation, topic filtering, and answer scoring: tokenization with stop-word
// removal, frequency-ranked keyword extraction, Porter stemming, and the
// cosine/Jaccard similarity measures.
package keyword

import (
	"math"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Tokenize lowercases the text and returns its alphabetic words, with
// stop-words and tokens of two characters or fewer removed.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		w := b.String()
		b.Reset()
		if len(w) <= 2 || stopwords[w] {
			return
		}
		tokens = append(tokens, w)
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// StemTokens tokenizes the text and applies Porter stemming to each surviving
// token. Stemmed tokens feed the similarity measures, never keyword display.
func StemTokens(text string) []string {
	raw := Tokenize(text)
	stemmed := make([]string, 0, len(raw))
	for _, t := range raw {
		stemmed = append(stemmed, english.Stem(t, false))
	}
	return stemmed
}

// TopKeywords returns the k most frequent surviving tokens in the text.
// Ties are broken by first-encounter order.
func TopKeywords(text string, k int) []string {
	tokens := Tokenize(text)
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, t := range tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	// Stable selection sort over the encounter-ordered vocabulary keeps
	// equal-frequency tokens in their original relative order.
	for i := 1; i < len(order); i++ {
		w := order[i]
		j := i - 1
		for j >= 0 && counts[order[j]] < counts[w] {
			order[j+1] = order[j]
			j--
		}
		order[j+1] = w
	}
	if k < len(order) {
		order = order[:k]
	}
	return order
}

// Cosine computes term-frequency cosine similarity between two token lists.
// Returns 0 if either side is empty.
func Cosine(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	fa := frequencies(a)
	fb := frequencies(b)
	var dot, magA, magB float64
	for t, n := range fa {
		dot += float64(n) * float64(fb[t])
		magA += float64(n) * float64(n)
	}
	for _, n := range fb {
		magB += float64(n) * float64(n)
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Jaccard computes set-overlap similarity between two token lists.
// Returns 0 if both sets are empty.
func Jaccard(a, b []string) float64 {
	sa := toSet(a)
	sb := toSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}
	inter := 0
	for t := range sa {
		if sb[t] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// DistinctCount returns the number of distinct surviving tokens in the text.
func DistinctCount(text string) int {
	return len(toSet(Tokenize(text)))
}

func frequencies(tokens []string) map[string]int {
	f := make(map[string]int, len(tokens))
	for _, t := range tokens {
		f[t]++
	}
	return f
}

func toSet(tokens []string) map[string]bool {
	s := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		s[t] = true
	}
	return s
}
