package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wickcity/sift/pkg/fetch"
)

// googleEngine is a last resort: Google aggressively blocks server IPs, so it
// gets no retries and sits in the final cascade wave.
type googleEngine struct {
	fetcher *fetch.Client
	baseURL string
}

func (e *googleEngine) Name() string {
	return EngineGoogle
}

func (e *googleEngine) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	base := e.baseURL
	if base == "" {
		base = "https://www.google.com/search"
	}
	searchURL := fmt.Sprintf("%s?q=%s&num=%d&hl=en", base, url.QueryEscape(query), maxResults)
	html, err := e.fetcher.Page(ctx, searchURL, fetch.Options{
		Timeout: e.fetcher.Config().SearchTimeout(),
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
	doc.Find("div.g, div[data-sokoban-container]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		linkEl := sel.Find("a").First()
		href := decodeGoogleRedirect(strings.TrimSpace(linkEl.AttrOr("href", "")))
		if !strings.HasPrefix(href, "http") || strings.Contains(href, "google.com") || strings.Contains(href, "google.co") {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true

		title := strings.TrimSpace(sel.Find("h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(linkEl.Text())
		}
		snippet := strings.TrimSpace(sel.Find(".VwiC3b, [data-sncf], .IsZvec, .s3v9rd").Text())
		if snippet == "" {
			sel.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
				if text := strings.TrimSpace(span.Text()); len(text) > 30 {
					snippet = text
					return false
				}
				return true
			})
		}
		if len(title) > 3 {
			results = append(results, Result{Title: title, URL: href, Snippet: snippet, Engine: EngineGoogle})
		}
		return true
	})
	return results, nil
}

func decodeGoogleRedirect(href string) string {
	idx := strings.Index(href, "/url?q=")
	if idx == -1 {
		return href
	}
	encoded := href[idx+len("/url?q="):]
	if amp := strings.Index(encoded, "&"); amp != -1 {
		encoded = encoded[:amp]
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return href
	}
	return decoded
}
