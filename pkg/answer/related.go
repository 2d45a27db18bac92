package answer

import (
	"regexp"
	"strings"
)

var junkHeadingRe = regexp.MustCompile(`(?i)cookie|privacy|subscribe|sign up|menu|navigation|external links|references|see also|further reading|contents|edit|advertisement|trending|popular|footer|header|sidebar|share|comment|log in|register|search|home|about us|contact|disclaimer|skip to`)

const maxRelated = 6

// RelatedQuestions suggests follow-up queries: usable page headings first,
// then keyword-based template variants.
func RelatedQuestions(query string, pieces []ContentPiece) []string {
	var related []string
	seen := make(map[string]bool)
	qLower := strings.ToLower(query)

	for _, piece := range pieces {
		for _, heading := range piece.Headings {
			h := strings.TrimSpace(heading)
			if len(h) < 8 || len(h) > 80 {
				continue
			}
			lower := strings.ToLower(h)
			if lower == qLower || seen[lower] || junkHeadingRe.MatchString(h) {
				continue
			}
			seen[lower] = true
			related = append(related, h)
		}
	}

	if kw := strings.Join(Keywords(query), " "); len(kw) > 2 {
		variants := []string{
			"What is " + kw + "?",
			kw + " explained in detail",
			"Latest news about " + kw,
			kw + " examples and use cases",
			kw + " vs alternatives",
		}
		for _, v := range variants {
			lower := strings.ToLower(v)
			if !seen[lower] {
				seen[lower] = true
				related = append(related, v)
			}
		}
	}

	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	return related
}
