package oracle

import (
	"strings"
	"testing"
)

func TestIsValidVariant(t *testing.T) {
	tests := []struct {
		variant string
		want    bool
	}{
		{"strict", true},
		{"standard", true},
		{"lenient", true},
		{"", false},
		{"harsh", false},
		{"Strict", false},
	}
	for _, tt := range tests {
		if got := IsValidVariant(tt.variant); got != tt.want {
			t.Errorf("IsValidVariant(%q) = %v, want %v", tt.variant, got, tt.want)
		}
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt(VariantStrict, "Explain quorums.", "A quorum is a majority of nodes.", 100)

	for _, want := range []string{
		"QUESTION: Explain quorums.",
		"A quorum is a majority of nodes.",
		"MAX SCORE: 100",
		variantInstructions[VariantStrict],
		`"score"`,
		`"confidence"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptUnknownVariantFallsBack(t *testing.T) {
	prompt := buildSystemPrompt(Variant("bogus"), "Q", "R", 10)
	if !strings.Contains(prompt, variantInstructions[VariantStandard]) {
		t.Error("unknown variant did not fall back to the standard instructions")
	}
}

func TestBuildSystemPromptVariantsDiffer(t *testing.T) {
	base := "Explain quorums."
	ref := "A quorum is a majority of nodes."
	strict := buildSystemPrompt(VariantStrict, base, ref, 100)
	lenient := buildSystemPrompt(VariantLenient, base, ref, 100)
	if strict == lenient {
		t.Error("strict and lenient prompts are identical")
	}
}
