package keyword

// stopwords is the English stop-word list applied during tokenization.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "him": true, "his": true, "how": true, "its": true,
	"may": true, "new": true, "now": true, "old": true, "see": true,
	"two": true, "way": true, "who": true, "did": true, "get": true,
	"use": true, "any": true, "she": true, "they": true, "this": true,
	"that": true, "with": true, "from": true, "have": true, "will": true,
	"been": true, "were": true, "said": true, "each": true, "which": true,
	"their": true, "would": true, "there": true, "what": true, "about": true,
	"when": true, "your": true, "them": true, "these": true, "than": true,
	"then": true, "some": true, "into": true, "more": true, "other": true,
	"could": true, "also": true, "such": true, "only": true, "most": true,
	"over": true, "very": true, "after": true, "where": true, "many": true,
	"those": true, "being": true, "both": true, "between": true, "because": true,
	"through": true, "during": true, "before": true, "under": true, "while": true,
	"should": true, "does": true, "same": true, "here": true, "must": true,
	"well": true, "just": true, "much": true, "even": true, "made": true,
	"upon": true, "used": true, "using": true, "within": true, "without": true,
	"however": true, "therefore": true, "thus": true, "hence": true,
	"among": true, "since": true, "often": true,
	"might": true, "every": true, "another": true, "against": true,
	"itself": true, "toward": true, "towards": true, "further": true,
	"given": true, "known": true, "called": true,
}
