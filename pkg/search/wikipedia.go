package search

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/wickcity/sift/pkg/fetch"
)

var wikiAPIBase = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// WikiResult is a Wikipedia page summary used to supplement thin search
// results.
type WikiResult struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// WikiSummary queries the Wikipedia REST summary API, trying the raw query
// first and then any fallback titles (typically a keyword slug). Returns nil
// without error when no attempt yields a usable extract.
func WikiSummary(ctx context.Context, fetcher *fetch.Client, query string, fallbacks ...string) (*WikiResult, error) {
	attempts := append([]string{query}, fallbacks...)

	var lastErr error
	for _, attempt := range attempts {
		attempt = strings.TrimSpace(attempt)
		if attempt == "" {
			continue
		}
		encoded := url.PathEscape(strings.ReplaceAll(attempt, " ", "_"))
		apiURL := wikiAPIBase + encoded

		var data struct {
			Title       string `json:"title"`
			Extract     string `json:"extract"`
			Description string `json:"description"`
			ContentURLs struct {
				Desktop struct {
					Page string `json:"page"`
				} `json:"desktop"`
			} `json:"content_urls"`
		}
		if err := fetcher.JSON(ctx, apiURL, fetch.Options{Timeout: 5 * time.Second}, &data); err != nil {
			lastErr = err
			continue
		}
		if len(data.Extract) <= 40 {
			continue
		}
		pageURL := data.ContentURLs.Desktop.Page
		if pageURL == "" {
			pageURL = "https://en.wikipedia.org/wiki/" + encoded
		}
		title := data.Title
		if title == "" {
			title = attempt
		}
		return &WikiResult{
			Title:       title,
			Content:     data.Extract,
			Description: data.Description,
			URL:         pageURL,
		}, nil
	}
	return nil, lastErr
}
