package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wickcity/sift/pkg/fetch"
)

type ddgHTMLEngine struct {
	fetcher *fetch.Client
	baseURL string
}

func (e *ddgHTMLEngine) Name() string {
	return EngineDDGHTML
}

func (e *ddgHTMLEngine) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	base := e.baseURL
	if base == "" {
		base = "https://html.duckduckgo.com/html/"
	}
	searchURL := base + "?q=" + url.QueryEscape(query)
	html, err := e.fetcher.Page(ctx, searchURL, fetch.Options{
		Timeout: e.fetcher.Config().SearchTimeout(),
		Retries: 2,
	})
	if err != nil {
		return nil, err
	}
	if len(html) < 300 || fetch.IsBlockPage(html) {
		return nil, fmt.Errorf("blocked or empty response")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	var results []Result
	seen := make(map[string]bool)
	doc.Find(".result, .web-result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		linkEl := sel.Find(".result__a, .result-link").First()
		if linkEl.Length() == 0 {
			linkEl = sel.Find("a[href]").First()
		}
		href := decodeDDGRedirect(strings.TrimSpace(linkEl.AttrOr("href", "")))
		title := strings.TrimSpace(linkEl.Text())
		if !strings.HasPrefix(href, "http") || strings.Contains(href, "duckduckgo.com") {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true

		snippet := strings.TrimSpace(sel.Find(".result__snippet, .result-snippet").Text())
		if snippet == "" {
			snippet = strings.TrimSpace(sel.Find(".result__body, .result-body").Text())
		}
		if len(title) > 2 {
			results = append(results, Result{Title: title, URL: href, Snippet: snippet, Engine: EngineDDGHTML})
		}
		return true
	})
	return results, nil
}

// decodeDDGRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// target URL.
func decodeDDGRedirect(href string) string {
	idx := strings.Index(href, "uddg=")
	if idx == -1 {
		return href
	}
	encoded := href[idx+len("uddg="):]
	if amp := strings.Index(encoded, "&"); amp != -1 {
		encoded = encoded[:amp]
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return href
	}
	return decoded
}
