package bank

import "github.com/openexams/invigil/internal/model"

// Six hand-authored prompt templates per tier. Beginner prompts ask for
// definitions and examples, intermediate ones for comparisons and mechanisms,
// advanced ones for critical evaluation and design.
var beginnerTemplates = []string{
	"Define %s in your own words and give one example from the material.",
	"What does %s mean in this context? Explain briefly.",
	"Describe the role of %s as presented in the passage.",
	"List the main characteristics of %s mentioned in the text.",
	"Explain %s and %s in simple terms, as if teaching a classmate.",
	"Give an example that illustrates %s and state why it fits.",
}

var intermediateTemplates = []string{
	"Compare %s and %s as they are treated in the passage. What distinguishes them?",
	"Explain the mechanism by which %s relates to %s in the material.",
	"How does %s influence %s according to the text? Describe the connection.",
	"Summarize how %s works and what role %s plays in that process.",
	"What would change about %s if %s were removed? Reason from the passage.",
	"Explain the relationship between %s, %s, and %s described in the material.",
}

var advancedTemplates = []string{
	"Critically evaluate the treatment of %s in the passage. What assumptions does it rest on?",
	"Design an alternative approach to %s and argue whether it improves on the one described.",
	"Assess the limitations of %s as presented, and propose how %s could address them.",
	"Argue for or against the claim implied about %s, citing evidence from the passage.",
	"How would you extend the ideas behind %s and %s to a new situation? Justify your design.",
	"Evaluate the trade-offs between %s and %s raised by the material, and defend a position.",
}

func templatesFor(tier model.Difficulty) []string {
	switch tier {
	case model.DifficultyAdvanced:
		return advancedTemplates
	case model.DifficultyIntermediate:
		return intermediateTemplates
	default:
		return beginnerTemplates
	}
}
