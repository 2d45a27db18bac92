package search

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/wickcity/sift/pkg/fetch"
)

// searxngEngine queries public SearXNG mirrors over their JSON API. The
// mirror list is shuffled per query and a bounded number of mirrors is tried,
// stopping at the first that answers.
type searxngEngine struct {
	fetcher   *fetch.Client
	instances []string
	tries     int

	shuffle func([]string)
}

func newSearXNGEngine(fetcher *fetch.Client, instances []string, tries int) *searxngEngine {
	return &searxngEngine{
		fetcher:   fetcher,
		instances: instances,
		tries:     tries,
		shuffle: func(items []string) {
			rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		},
	}
}

func (e *searxngEngine) Name() string {
	return EngineSearXNG
}

func (e *searxngEngine) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	candidates := append([]string{}, e.instances...)
	e.shuffle(candidates)
	tries := min(e.tries, len(candidates))

	var lastErr error
	for i := 0; i < tries; i++ {
		base := candidates[i]
		searchURL := fmt.Sprintf("%s/search?q=%s&format=json&categories=general&language=en", base, url.QueryEscape(query))

		var payload struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Content string `json:"content"`
			} `json:"results"`
		}
		err := e.fetcher.JSON(ctx, searchURL, fetch.Options{Timeout: 8 * time.Second}, &payload)
		if err != nil {
			lastErr = err
			continue
		}

		var results []Result
		for _, r := range payload.Results {
			if len(results) >= maxResults {
				break
			}
			if r.Title == "" || !strings.HasPrefix(r.URL, "http") {
				continue
			}
			results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content, Engine: EngineSearXNG})
		}
		if len(results) > 0 {
			return results, nil
		}
		lastErr = fmt.Errorf("no results from %s", base)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no instances configured")
	}
	return nil, lastErr
}
