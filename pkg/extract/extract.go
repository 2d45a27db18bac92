// Package extract pulls readable article content out of raw HTML. It layers
// three strategies: JSON-LD structured data, a priority list of known content
// selectors, and a readability-style block scoring pass, with a plain body
// fallback when everything else comes up short.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

const (
	// MaxContentLen caps extracted article text.
	MaxContentLen = 15000
	// MinContentLen is the floor below which a page is treated as having no
	// usable content.
	MinContentLen = 50

	maxTitleLen       = 200
	maxDescriptionLen = 400
	maxHeadings       = 25
	maxListItems      = 25
)

// Content is the readable portion of a scraped page.
type Content struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Headings    []string `json:"headings"`
	ListItems   []string `json:"listItems"`
	URL         string   `json:"url"`
}

// noiseSelector lists elements that never contribute readable content. It is
// applied after structured data has been read out of the document.
const noiseSelector = "script,style,nav,footer,header,aside,iframe,noscript,form,svg,video,audio,canvas,template,select,button,input,textarea"

// chromeSelector lists page chrome stripped by class, id, or role.
const chromeSelector = ".sidebar,.nav,.menu,.footer,.header,.ad,.advertisement,.social,.share,.comments," +
	".comment,.cookie,.popup,.modal,.newsletter,.subscribe,.related-posts,.recommended," +
	".promo,.banner,.widget,.breadcrumb,.pagination,.toc,.table-of-contents," +
	"[role=\"navigation\"],[role=\"banner\"],[role=\"complementary\"],[aria-hidden=\"true\"]," +
	".skip-link,.screen-reader-text,.visually-hidden"

// contentSelectors is tried in order; the first selector whose best element
// has substantial text wins.
var contentSelectors = []string{
	// Article / blog
	"article", "[role=\"main\"]", "main",
	".post-content", ".article-content", ".article-body", ".article__body",
	".entry-content", ".content-body", ".story-body", ".post-body",
	".page-content", ".text-content", ".blog-content",
	// Q&A
	".s-prose", ".answer-body", ".post-text", ".question-body", ".AnswerContent",
	// Docs / wiki
	".markdown-body", ".documentation-content", ".doc-content",
	".mw-parser-output", "#mw-content-text",
	"#content", "#main-content",
	// News
	".article-text", ".story-content", ".news-content", ".body-content",
	".field-body", ".article__content", ".story-text",
	// How-to
	".how-to-content", ".tutorial-content", ".guide-content", ".answer", ".explanation",
	// Generic
	".content", ".post", ".text", "#article", "#post-content",
	"[itemprop=\"articleBody\"]", "[itemprop=\"text\"]",
}

// Extract parses HTML and returns its readable content, or nil when the page
// has nothing worth keeping.
func Extract(html, pageURL string) *Content {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	og := parseOpenGraph(html)

	body := jsonLDBody(doc)

	doc.Find(noiseSelector).Remove()
	doc.Find(chromeSelector).Remove()

	if len(body) > 200 {
		content := Truncate(CleanText(body), MaxContentLen)
		return &Content{
			Title:       pageTitle(doc, og),
			Description: pageDescription(doc, og),
			Content:     content,
			Headings:    headings(doc),
			ListItems:   listItems(doc),
			URL:         pageURL,
		}
	}

	var best string
	for _, sel := range contentSelectors {
		els := doc.Find(sel)
		if els.Length() == 0 {
			continue
		}
		var longest string
		els.Each(func(_ int, el *goquery.Selection) {
			if text := strings.TrimSpace(el.Text()); len(text) > len(longest) {
				longest = text
			}
		})
		if len(longest) > 100 {
			best = longest
			break
		}
	}

	if len(best) < 200 {
		if scored := scoreBlocks(doc); scored != "" {
			best = scored
		}
	}
	if len(best) < 100 {
		best = strings.TrimSpace(doc.Find("body").Text())
	}

	best = Truncate(CleanText(best), MaxContentLen)
	if len(best) < MinContentLen {
		return nil
	}

	return &Content{
		Title:       pageTitle(doc, og),
		Description: pageDescription(doc, og),
		Content:     best,
		Headings:    headings(doc),
		ListItems:   listItems(doc),
		URL:         pageURL,
	}
}

func parseOpenGraph(html string) *opengraph.OpenGraph {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(html)); err != nil {
		return opengraph.NewOpenGraph()
	}
	return og
}

type ldNode struct {
	ArticleBody string   `json:"articleBody"`
	Text        string   `json:"text"`
	Graph       []ldNode `json:"@graph"`
}

func (n *ldNode) body() string {
	if n.ArticleBody != "" {
		return n.ArticleBody
	}
	return n.Text
}

// jsonLDBody returns the longest articleBody (or text) found in any JSON-LD
// block, handling top-level arrays and @graph wrappers.
func jsonLDBody(doc *goquery.Document) string {
	var best string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := []byte(sel.Text())

		var node ldNode
		if err := json.Unmarshal(raw, &node); err != nil {
			var nodes []ldNode
			if err := json.Unmarshal(raw, &nodes); err != nil || len(nodes) == 0 {
				return
			}
			node = nodes[0]
		}
		if node.body() == "" {
			for _, g := range node.Graph {
				if g.body() != "" {
					node = g
					break
				}
			}
		}
		if body := node.body(); len(body) > len(best) {
			best = body
		}
	})
	return best
}

func pageTitle(doc *goquery.Document, og *opengraph.OpenGraph) string {
	title := og.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return Truncate(title, maxTitleLen)
}

func pageDescription(doc *goquery.Document, og *opengraph.OpenGraph) string {
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if desc == "" {
		desc = og.Description
	}
	return Truncate(CleanText(desc), maxDescriptionLen)
}

func headings(doc *goquery.Document) []string {
	var out []string
	doc.Find("h1,h2,h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(out) >= maxHeadings {
			return false
		}
		if text := strings.TrimSpace(sel.Text()); len(text) > 3 && len(text) < 150 {
			out = append(out, text)
		}
		return true
	})
	return out
}

func listItems(doc *goquery.Document) []string {
	var out []string
	doc.Find("li, dt, dd").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(out) >= maxListItems {
			return false
		}
		if text := strings.TrimSpace(sel.Text()); len(text) > 15 && len(text) < 300 {
			out = append(out, text)
		}
		return true
	})
	return out
}
