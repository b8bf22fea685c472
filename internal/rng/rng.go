// Package rng provides the deterministic seeded randomness used by question
// bank generation and flow assembly. Identical seed strings always reproduce
// identical sequences, which is what makes banks cacheable and flow
// fingerprint deduplication meaningful. The platform's ambient random source
// is never used for generation or shuffling.
package rng

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
)

// Rand is a deterministic pseudo-random source seeded from a string.
type Rand struct {
	*rand.Rand
}

// New derives a Rand from a 32-bit FNV-1a hash of the seed string.
func New(seed string) *Rand {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	s := uint64(h.Sum32())
	return &Rand{rand.New(rand.NewPCG(s, s<<32|s))}
}

// NewFromParts joins the parts with ":" and seeds from the result.
func NewFromParts(parts ...string) *Rand {
	return New(strings.Join(parts, ":"))
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](r *Rand, items []T) T {
	return items[r.IntN(len(items))]
}
