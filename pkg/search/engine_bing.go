package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wickcity/sift/pkg/fetch"
)

type bingEngine struct {
	fetcher *fetch.Client
	baseURL string
}

func (e *bingEngine) Name() string {
	return EngineBing
}

func (e *bingEngine) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	base := e.baseURL
	if base == "" {
		base = "https://www.bing.com/search"
	}
	searchURL := fmt.Sprintf("%s?q=%s&count=%d&setlang=en", base, url.QueryEscape(query), maxResults)
	html, err := e.fetcher.Page(ctx, searchURL, fetch.Options{
		Timeout: e.fetcher.Config().SearchTimeout(),
		Retries: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(html) < 500 || fetch.IsBlockPage(html) {
		return nil, fmt.Errorf("blocked or empty response")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	var results []Result
	seen := make(map[string]bool)
	doc.Find("li.b_algo, .b_algo").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		linkEl := sel.Find("h2 a, a").First()
		href := strings.TrimSpace(linkEl.AttrOr("href", ""))
		if !strings.HasPrefix(href, "http") || strings.Contains(href, "bing.com") || strings.Contains(href, "microsoft.com/bing") {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true

		title := strings.TrimSpace(linkEl.Text())
		snippet := strings.TrimSpace(sel.Find(".b_caption p, .b_lineclamp2, .b_lineclamp3, .b_lineclamp4").Text())
		if len(title) > 2 {
			results = append(results, Result{Title: title, URL: href, Snippet: snippet, Engine: EngineBing})
		}
		return true
	})
	return results, nil
}
