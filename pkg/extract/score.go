package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	positiveClassRe = regexp.MustCompile(`article|content|post|body|text|entry|main|story|prose|wiki|answer`)
	negativeClassRe = regexp.MustCompile(`sidebar|nav|menu|footer|header|ad|comment|widget|related|social|cookie|banner|promo`)
)

type blockCandidate struct {
	text  string
	score float64
}

// scoreBlocks runs a simplified readability pass over the document: every
// block-level container is scored by text length, paragraph density, link
// density, class/id signals, and heading presence. Returns the best block's
// text, or "" when no block scores above the acceptance floor.
func scoreBlocks(doc *goquery.Document) string {
	var candidates []blockCandidate

	doc.Find("div, section, article, main, td").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) < 100 {
			return
		}

		score := math.Log2(math.Max(float64(len(text)), 1)) * 2

		pCount := sel.Find("p").Length()
		score += math.Min(float64(pCount)*3, 30)

		linkText := len(strings.TrimSpace(sel.Find("a").Text()))
		linkDensity := float64(linkText) / float64(len(text))
		score -= linkDensity * 50

		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		clsID := strings.ToLower(class + " " + id)
		if positiveClassRe.MatchString(clsID) {
			score += 15
		}
		if negativeClassRe.MatchString(clsID) {
			score -= 25
		}

		score += math.Min(float64(sel.Find("h1,h2,h3").Length())*2, 8)

		if len(text) < 200 {
			score -= 5
		}

		candidates = append(candidates, blockCandidate{text: text, score: score})
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > 0 && candidates[0].score > 5 {
		return candidates[0].text
	}
	return ""
}
