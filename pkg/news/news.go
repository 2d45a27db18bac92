// Package news builds a headline digest from Indian news sources. RSS feeds
// are tried first as the reliable path; site-specific HTML scraping fills in
// when feeds come up short.
package news

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/answer"
	"github.com/wickcity/sift/pkg/extract"
	"github.com/wickcity/sift/pkg/fetch"
)

// Article is one headline with optional body snippet.
type Article struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Time    string `json:"time"`
	Source  string `json:"source"`
}

// Digest is the rendered news payload, shaped like a search answer so the
// client renders it with the same component.
type Digest struct {
	Answer       string          `json:"answer"`
	Sources      []answer.Source `json:"sources"`
	Related      []string        `json:"related"`
	Title        string          `json:"title"`
	NewsArticles []Article       `json:"newsArticles"`
}

// Feed is one RSS source.
type Feed struct {
	URL  string
	Name string
}

// DefaultFeeds are the primary headline sources, in priority order.
var DefaultFeeds = []Feed{
	{URL: "https://www.thehindu.com/news/national/feeder/default.rss", Name: "The Hindu"},
	{URL: "https://timesofindia.indiatimes.com/rssfeedstopstories.cms", Name: "Times of India"},
	{URL: "https://www.hindustantimes.com/feeds/rss/india-news/rssfeed.xml", Name: "Hindustan Times"},
	{URL: "https://indianexpress.com/feed/", Name: "Indian Express"},
	{URL: "https://feeds.feedburner.com/ndtvnews-top-stories", Name: "NDTV"},
}

const (
	perFeedMax     = 6
	perSiteMax     = 5
	feedSufficient = 8
	scrapeCeiling  = 15
	digestSize     = 12
	bodyScrapeMax  = 8

	feedTimeout    = 10 * time.Second
	siteTimeout    = 12 * time.Second
	articleTimeout = 10 * time.Second
)

// Scraper fetches and assembles the digest.
type Scraper struct {
	fetcher *fetch.Client
	log     zerolog.Logger
	feeds   []Feed
	sites   []siteRule
	parser  *gofeed.Parser

	now func() time.Time
}

// NewScraper builds a scraper over the default feed and site tables.
func NewScraper(fetcher *fetch.Client, log zerolog.Logger) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		log:     log.With().Str("component", "news").Logger(),
		feeds:   DefaultFeeds,
		sites:   defaultSites,
		parser:  gofeed.NewParser(),
		now:     time.Now,
	}
}

// Latest assembles the digest: feeds, HTML fallback, dedup, body scraping,
// and markdown rendering. It never fails; an empty digest explains itself.
func (s *Scraper) Latest(ctx context.Context) *Digest {
	var all []Article
	for _, feed := range s.feeds {
		all = append(all, s.fromFeed(ctx, feed)...)
	}

	if len(all) < feedSufficient {
		s.log.Info().Int("articles", len(all)).Msg("feeds were thin, scraping site pages")
		for _, site := range s.sites {
			if len(all) >= scrapeCeiling {
				break
			}
			all = append(all, s.fromSite(ctx, site)...)
		}
	}

	unique := dedupeByTitle(all)
	s.log.Info().Int("articles", len(unique)).Msg("assembled headlines")

	top := unique[:min(len(unique), digestSize)]
	for i := range top[:min(len(top), bodyScrapeMax)] {
		if top[i].URL != "" && len(top[i].Snippet) < 50 {
			if body := s.articleBody(ctx, top[i].URL); len(body) > 50 {
				top[i].Snippet = extract.Truncate(body, 400)
			}
		}
	}

	return renderDigest(top)
}

func (s *Scraper) fromFeed(ctx context.Context, feed Feed) []Article {
	xml, err := s.fetcher.Page(ctx, feed.URL, fetch.Options{
		Timeout: feedTimeout,
		Accept:  "application/rss+xml,application/xml,text/xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		s.log.Warn().Err(err).Str("feed", feed.Name).Msg("feed fetch failed")
		return nil
	}
	parsed, err := s.parser.ParseString(xml)
	if err != nil {
		s.log.Warn().Err(err).Str("feed", feed.Name).Msg("feed parse failed")
		return nil
	}

	var articles []Article
	for _, item := range parsed.Items {
		if len(articles) >= perFeedMax {
			break
		}
		title := extract.CleanText(item.Title)
		if len(title) <= 10 {
			continue
		}
		when := ""
		if item.PublishedParsed != nil {
			when = s.relativeTime(*item.PublishedParsed)
		}
		articles = append(articles, Article{
			Title:   title,
			Snippet: extract.Truncate(extract.CleanText(stripTags(item.Description)), 400),
			URL:     strings.TrimSpace(item.Link),
			Time:    when,
			Source:  feed.Name,
		})
	}
	s.log.Debug().Str("feed", feed.Name).Int("articles", len(articles)).Msg("feed parsed")
	return articles
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(html string) string {
	return tagRe.ReplaceAllString(html, "")
}

// relativeTime renders a publish time the way readers expect on a news page.
func (s *Scraper) relativeTime(t time.Time) string {
	diff := s.now().Sub(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2 Jan 2006")
	}
}

func dedupeByTitle(articles []Article) []Article {
	var unique []Article
	seen := make(map[string]bool)
	for _, a := range articles {
		key := strings.ToLower(a.Title)
		if len(key) > 50 {
			key = key[:50]
		}
		if !seen[key] {
			seen[key] = true
			unique = append(unique, a)
		}
	}
	return unique
}

func renderDigest(articles []Article) *Digest {
	var b strings.Builder
	b.WriteString("## 📰 Latest News from India\n\n")
	b.WriteString("*Live headlines from top Indian news sources*\n\n---\n\n")

	sources := make([]answer.Source, 0, len(articles))
	for i, a := range articles {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, a.Title)
		if len(a.Snippet) > 20 {
			b.WriteString(a.Snippet + "\n\n")
		}
		b.WriteString("**" + a.Source + "**")
		if a.Time != "" {
			b.WriteString(" · " + a.Time)
		}
		b.WriteString("\n\n---\n\n")

		sources = append(sources, answer.Source{
			Name:  strings.ReplaceAll(strings.ToLower(a.Source), " ", ".") + ".com",
			URL:   a.URL,
			Title: a.Title,
			Index: i + 1,
		})
	}
	if len(articles) == 0 {
		b.WriteString("Unable to fetch news at the moment. Please try again in a few seconds.\n\n")
	}

	return &Digest{
		Answer:  b.String(),
		Sources: sources,
		Related: []string{
			"India politics latest updates",
			"India cricket news today",
			"Indian stock market today",
			"India technology news",
			"India weather forecast today",
		},
		Title:        "Latest News - India",
		NewsArticles: articles,
	}
}
