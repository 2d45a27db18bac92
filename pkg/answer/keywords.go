package answer

import "strings"

var stopWords = map[string]bool{
	"what": true, "is": true, "are": true, "how": true, "does": true, "do": true,
	"the": true, "a": true, "an": true, "in": true, "of": true, "to": true,
	"for": true, "and": true, "or": true, "but": true, "with": true, "about": true,
	"can": true, "will": true, "should": true, "would": true, "could": true,
	"why": true, "when": true, "where": true, "who": true, "which": true,
	"has": true, "have": true, "had": true, "was": true, "were": true,
	"been": true, "be": true, "this": true, "that": true, "these": true,
	"those": true, "it": true, "its": true, "my": true, "your": true, "our": true,
	"their": true, "me": true, "you": true, "us": true, "them": true, "on": true,
	"at": true, "by": true, "from": true, "up": true, "out": true, "if": true,
	"not": true, "no": true, "so": true, "just": true, "than": true, "too": true,
	"very": true, "also": true, "as": true, "into": true, "through": true,
	"between": true, "after": true, "before": true, "during": true,
	"explain": true, "tell": true, "give": true, "define": true,
	"describe": true, "please": true, "make": true, "need": true, "want": true,
	"much": true, "many": true,
}

const punctuation = `?!.,;:'"()`

// Keywords returns the meaningful lowercase terms of a query. If stop-word
// filtering leaves nothing, every multi-character word is kept instead.
func Keywords(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(query))
	words := strings.Fields(cleaned)

	var kept []string
	for _, w := range words {
		if len(w) > 1 && !stopWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) > 0 {
		return kept
	}
	for _, w := range words {
		if len(w) > 1 {
			kept = append(kept, w)
		}
	}
	return kept
}
