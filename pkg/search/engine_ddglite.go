package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wickcity/sift/pkg/fetch"
)

type ddgLiteEngine struct {
	fetcher *fetch.Client
	baseURL string
}

func (e *ddgLiteEngine) Name() string {
	return EngineDDGLite
}

func (e *ddgLiteEngine) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	base := e.baseURL
	if base == "" {
		base = "https://lite.duckduckgo.com/lite/"
	}
	searchURL := base + "?q=" + url.QueryEscape(query)
	html, err := e.fetcher.Page(ctx, searchURL, fetch.Options{
		Timeout: e.fetcher.Config().SearchTimeout(),
		Retries: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(html) < 200 || fetch.IsBlockPage(html) {
		return nil, fmt.Errorf("blocked or empty response")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	var results []Result
	seen := make(map[string]bool)
	// The lite frontend is table-based with minimal markup.
	doc.Find(`a.result-link, table a[href*="http"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		href := decodeDDGRedirect(strings.TrimSpace(sel.AttrOr("href", "")))
		title := strings.TrimSpace(sel.Text())
		if !strings.HasPrefix(href, "http") || strings.Contains(href, "duckduckgo.com") {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		if len(title) > 2 {
			results = append(results, Result{Title: title, URL: href, Engine: EngineDDGLite})
		}
		return true
	})

	// Snippets live in sibling cells, in result order.
	doc.Find("td.result-snippet, .result-snippet").Each(func(i int, sel *goquery.Selection) {
		if i < len(results) {
			results[i].Snippet = strings.TrimSpace(sel.Text())
		}
	})
	return results, nil
}
