package fetch

import "strings"

// blockPhrases are signals that a response is a CAPTCHA or bot-block
// interstitial rather than real content. The table is deliberately small and
// isolated here so it can be tested and extended without touching callers.
var blockPhrases = []string{
	"unusual traffic from your",
	"are you a robot",
	"verify you are human",
	"complete the security check",
	"automated requests from your",
	"please solve this captcha",
	"captcha challenge",
	"access denied",
	"request blocked",
	"your ip has been",
}

// blockPageMaxLen is the size above which a page is assumed to be real
// content. Block pages are short; articles are not.
const blockPageMaxLen = 25000

// IsBlockPage reports whether an HTML body looks like a CAPTCHA or
// bot-detection page instead of content.
func IsBlockPage(html string) bool {
	if html == "" || len(html) > blockPageMaxLen {
		return false
	}
	lower := strings.ToLower(html)
	for _, phrase := range blockPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
