package search

import "context"

// Result is a single normalized search engine result. URL is the dedup key
// across engines.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Engine  string `json:"engine"`
}

// Engine queries one external search engine or aggregator and parses its
// result list. Implementations differ only in URL construction and parsing;
// they share the fetch client and fail soft by returning an error that the
// orchestrator converts to an empty wave contribution.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
