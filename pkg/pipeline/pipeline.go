// Package pipeline wires search, scraping, extraction, and synthesis into
// the three user-facing operations: full answers, instant answers, and
// single-URL scrapes.
package pipeline

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wickcity/sift/pkg/answer"
	"github.com/wickcity/sift/pkg/extract"
	"github.com/wickcity/sift/pkg/fetch"
	"github.com/wickcity/sift/pkg/search"
)

const (
	// maxConcurrentScrapes bounds parallel page fetches per query.
	maxConcurrentScrapes = 5
	// maxSnippetOnly caps how many unscraped results contribute their
	// snippets as sources.
	maxSnippetOnly = 3

	minInstantLen = 30
	minSnippetLen = 25
	scrapeTimeout = 12 * time.Second
)

// Searcher runs the engine cascade for a query.
type Searcher interface {
	Search(ctx context.Context, query string) []search.Result
}

// Pipeline owns one query's journey from search results to a cited answer.
type Pipeline struct {
	fetcher  *fetch.Client
	searcher Searcher
	log      zerolog.Logger

	instant func(ctx context.Context, fetcher *fetch.Client, query string) (*search.InstantAnswer, error)
	wiki    func(ctx context.Context, fetcher *fetch.Client, query string, fallbacks ...string) (*search.WikiResult, error)
}

// New builds a pipeline over a shared fetch client and search cascade.
func New(fetcher *fetch.Client, searcher Searcher, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		searcher: searcher,
		log:      log.With().Str("component", "pipeline").Logger(),
		instant:  search.Instant,
		wiki:     search.WikiSummary,
	}
}

// sourced pairs a citation with the content piece it backs. Keeping them in
// lockstep makes the final renumbering a single pass.
type sourced struct {
	src   answer.Source
	piece answer.ContentPiece
}

// Answer runs the full pipeline: cascade search, parallel scraping with
// snippet degradation, instant-answer and Wikipedia supplements, then
// synthesis. It never fails; a dry run produces a no-results answer.
func (p *Pipeline) Answer(ctx context.Context, query string, mode answer.Mode) *answer.Result {
	start := time.Now()
	budget := mode.Budget()

	results := p.searcher.Search(ctx, query)
	seenURLs := make(map[string]bool, len(results))
	for _, r := range results {
		seenURLs[r.URL] = true
	}

	// Instant answer runs concurrently with scraping.
	instantCh := make(chan *search.InstantAnswer, 1)
	go func() {
		ia, err := p.instant(ctx, p.fetcher, query)
		if err != nil {
			p.log.Debug().Err(err).Msg("instant answer failed")
		}
		instantCh <- ia
	}()

	// Partition results: pages worth scraping versus snippet-only sources
	// (blocked domains and overflow beyond the page budget).
	var toScrape, snippetOnly []search.Result
	for _, r := range results {
		switch {
		case p.fetcher.DomainBlocked(fetch.Domain(r.URL)):
			if len(r.Snippet) > minSnippetLen {
				snippetOnly = append(snippetOnly, r)
			}
		case len(toScrape) < budget.MaxPages:
			toScrape = append(toScrape, r)
		case len(r.Snippet) > minSnippetLen:
			snippetOnly = append(snippetOnly, r)
		}
	}

	p.log.Info().Str("query", query).Int("results", len(results)).
		Int("scraping", len(toScrape)).Msg("scraping pages")

	scraped := make([]*extract.Content, len(toScrape))
	var eg errgroup.Group
	eg.SetLimit(maxConcurrentScrapes)
	for i, r := range toScrape {
		eg.Go(func() error {
			scraped[i] = p.scrapePage(ctx, r.URL, p.fetcher.Config().PageTimeout())
			return nil
		})
	}
	_ = eg.Wait()

	var entries []sourced
	for i, r := range toScrape {
		if data := scraped[i]; data != nil && len(data.Content) > extract.MinContentLen {
			title := data.Title
			if title == "" {
				title = r.Title
			}
			desc := data.Description
			if desc == "" {
				desc = r.Snippet
			}
			entries = append(entries, sourced{
				src: answer.Source{Name: fetch.Domain(r.URL), URL: r.URL, Title: title},
				piece: answer.ContentPiece{
					Content:     data.Content,
					Headings:    data.Headings,
					Description: desc,
					ListItems:   data.ListItems,
					Priority:    5,
				},
			})
		} else if len(r.Snippet) > minSnippetLen {
			entries = append(entries, sourced{
				src: answer.Source{Name: fetch.Domain(r.URL), URL: r.URL, Title: r.Title},
				piece: answer.ContentPiece{
					Content:     r.Snippet,
					Description: r.Snippet,
					Priority:    2,
				},
			})
		}
	}

	for _, r := range snippetOnly[:min(len(snippetOnly), maxSnippetOnly)] {
		entries = append(entries, sourced{
			src:   answer.Source{Name: fetch.Domain(r.URL), URL: r.URL, Title: r.Title},
			piece: answer.ContentPiece{Content: r.Snippet, Priority: 1},
		})
	}

	if instant := <-instantCh; instant != nil && len(instant.Answer) > minInstantLen {
		iaURL := instant.URL
		if iaURL == "" {
			iaURL = "https://duckduckgo.com/?q=" + url.QueryEscape(query)
		}
		if !seenURLs[iaURL] {
			title := instant.Source
			if title == "" {
				title = "Quick Answer"
			}
			lead := sourced{
				src:   answer.Source{Name: fetch.Domain(iaURL), URL: iaURL, Title: title},
				piece: answer.ContentPiece{Content: instant.Answer, Priority: 10},
			}
			entries = append([]sourced{lead}, entries...)
			seenURLs[iaURL] = true
		}
	}

	if len(entries) < 3 {
		slug := strings.Join(answer.Keywords(query), " ")
		wiki, err := p.wiki(ctx, p.fetcher, query, slug)
		if err != nil {
			p.log.Debug().Err(err).Msg("wikipedia supplement failed")
		}
		if wiki != nil && len(wiki.Content) > minInstantLen && !seenURLs[wiki.URL] {
			entries = append(entries, sourced{
				src: answer.Source{Name: "en.wikipedia.org", URL: wiki.URL, Title: wiki.Title},
				piece: answer.ContentPiece{
					Content:     wiki.Content,
					Description: wiki.Description,
					Priority:    6,
				},
			})
			seenURLs[wiki.URL] = true
			p.log.Info().Str("title", wiki.Title).Msg("added wikipedia supplement")
		}
	}

	if len(entries) == 0 {
		p.log.Info().Str("query", query).Msg("no results found")
		return &answer.Result{
			Answer:  `No results found for "` + query + `". Try rephrasing your search or using different keywords.`,
			Sources: []answer.Source{},
			Related: answer.RelatedQuestions(query, nil),
			Title:   query,
		}
	}

	sources := make([]answer.Source, len(entries))
	pieces := make([]answer.ContentPiece, len(entries))
	for i, e := range entries {
		e.src.Index = i + 1
		e.piece.SourceIndex = i + 1
		sources[i] = e.src
		pieces[i] = e.piece
	}

	result := &answer.Result{
		Answer:  answer.Synthesize(query, pieces, mode),
		Sources: sources,
		Related: answer.RelatedQuestions(query, pieces),
		Title:   query,
	}
	p.log.Info().Dur("elapsed", time.Since(start)).
		Int("sources", len(sources)).Int("answer_chars", len(result.Answer)).
		Msg("answer synthesized")
	return result
}

// InstantResult is the quick-answer payload combining DuckDuckGo's instant
// API with a Wikipedia summary.
type InstantResult struct {
	Answer    string       `json:"answer"`
	Source    string       `json:"source"`
	URL       string       `json:"url"`
	Wikipedia *WikiSummary `json:"wikipedia"`
}

// WikiSummary is the trimmed Wikipedia portion of an instant result.
type WikiSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// Instant answers a query from the instant-answer API and Wikipedia alone,
// skipping search and scraping. Both lookups run concurrently.
func (p *Pipeline) Instant(ctx context.Context, query string) *InstantResult {
	var (
		ia   *search.InstantAnswer
		wiki *search.WikiResult
	)
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		if ia, err = p.instant(ctx, p.fetcher, query); err != nil {
			p.log.Debug().Err(err).Msg("instant lookup failed")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if wiki, err = p.wiki(ctx, p.fetcher, query); err != nil {
			p.log.Debug().Err(err).Msg("wikipedia lookup failed")
		}
		return nil
	})
	_ = eg.Wait()

	var wikiPart *WikiSummary
	if wiki != nil {
		wikiPart = &WikiSummary{
			Title:   wiki.Title,
			Summary: extract.Truncate(wiki.Content, 300),
			URL:     wiki.URL,
		}
	}
	if ia != nil {
		return &InstantResult{Answer: ia.Answer, Source: ia.Source, URL: ia.URL, Wikipedia: wikiPart}
	}
	if wiki != nil {
		return &InstantResult{Answer: wiki.Content, Source: "Wikipedia", URL: wiki.URL, Wikipedia: wikiPart}
	}
	return &InstantResult{}
}

// ScrapeURL fetches and extracts a single page on demand.
func (p *Pipeline) ScrapeURL(ctx context.Context, rawURL string) (*extract.Content, error) {
	if data := p.scrapePage(ctx, rawURL, scrapeTimeout); data != nil {
		return data, nil
	}
	return nil, ErrNoContent
}

// scrapePage fetches one page and extracts its readable content, returning
// nil on any failure. Unscrapable URLs (bad scheme, binary extension,
// blocked domain) are skipped outright.
func (p *Pipeline) scrapePage(ctx context.Context, rawURL string, timeout time.Duration) *extract.Content {
	if !p.fetcher.Allowed(rawURL) {
		return nil
	}
	html, err := p.fetcher.Page(ctx, rawURL, fetch.Options{Timeout: timeout, Retries: 1})
	if err != nil {
		p.log.Debug().Err(err).Str("domain", fetch.Domain(rawURL)).Msg("page fetch failed")
		return nil
	}
	if len(html) < 200 || fetch.IsBlockPage(html) {
		return nil
	}
	return extract.Extract(html, rawURL)
}
