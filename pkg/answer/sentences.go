package answer

import (
	"strings"
	"unicode"
)

const (
	minSentenceLen = 18
	maxSentenceLen = 500
)

// SplitSentences breaks text at sentence-ending punctuation followed by
// whitespace, and at newlines. Fragments outside the accepted length range
// are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if len(s) >= minSentenceLen && len(s) <= maxSentenceLen {
			sentences = append(sentences, s)
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}

// Similar reports whether two sentences share most of their significant
// words: Jaccard overlap above 0.55 on words longer than three characters.
// Very short sentences never match.
func Similar(a, b string) bool {
	s1 := wordSet(a)
	s2 := wordSet(b)
	if len(s1) < 3 || len(s2) < 3 {
		return false
	}
	inter := 0
	for w := range s1 {
		if s2[w] {
			inter++
		}
	}
	union := len(s1) + len(s2) - inter
	return float64(inter)/float64(union) > 0.55
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}
