package oracle

import (
	"fmt"
	"strings"
)

// Variant selects how strictly the oracle is asked to grade.
type Variant string

const (
	// VariantStrict grades against the reference with little latitude.
	VariantStrict Variant = "strict"
	// VariantStandard is the default grading posture.
	VariantStandard Variant = "standard"
	// VariantLenient rewards partial understanding generously.
	VariantLenient Variant = "lenient"
)

var validVariants = map[Variant]bool{
	VariantStrict:   true,
	VariantStandard: true,
	VariantLenient:  true,
}

// IsValidVariant checks if a variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[Variant(v)]
}

var variantInstructions = map[Variant]string{
	VariantStrict:   "Grade strictly. Award points only for ideas explicitly supported by the reference passage.",
	VariantStandard: "Grade for correctness, completeness, and understanding relative to the reference passage.",
	VariantLenient:  "Grade generously. Reward partial understanding and correct ideas expressed in the student's own words.",
}

func buildSystemPrompt(variant Variant, prompt, reference string, maxScore int) string {
	instruction, ok := variantInstructions[variant]
	if !ok {
		instruction = variantInstructions[VariantStandard]
	}

	var sb strings.Builder
	sb.WriteString("You are an exam answer evaluator. The student was asked:\n\n")
	sb.WriteString("QUESTION: " + prompt + "\n\n")
	sb.WriteString("REFERENCE PASSAGE (not shown to the student):\n" + reference + "\n\n")
	sb.WriteString(fmt.Sprintf("MAX SCORE: %d\n\n", maxScore))
	sb.WriteString("INSTRUCTIONS:\n- " + instruction + "\n")
	sb.WriteString("- The user message is the student's answer. Evaluate it against the reference passage.\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(fmt.Sprintf(`{"score": <number 0 to %d>, "feedback": "<brief feedback for the student>", "reasoning": "<why this score>", "confidence": <number 0 to 1>, "rubric": "<criteria applied>"}`, maxScore))
	sb.WriteString("\n")
	return sb.String()
}
