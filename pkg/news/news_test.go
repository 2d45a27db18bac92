package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/fetch"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<item>
  <title>Parliament passes landmark infrastructure bill after marathon session</title>
  <link>https://news.example.com/bill</link>
  <description><![CDATA[<p>The bill allocates funding for <b>highway</b> projects across twelve states.</p>]]></description>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>
<item>
  <title>short</title>
  <link>https://news.example.com/short</link>
</item>
<item>
  <title>Monsoon arrives early bringing relief to farmers across the south</title>
  <link>https://news.example.com/monsoon</link>
  <description>Rainfall totals exceeded seasonal averages in several districts.</description>
</item>
</channel></rss>`

func testScraper(t *testing.T, handler http.Handler) (*Scraper, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := fetch.NewClient(nil, zerolog.Nop())
	t.Cleanup(client.Close)
	s := NewScraper(client, zerolog.Nop())
	return s, server
}

func TestLatestFromFeeds(t *testing.T) {
	s, server := testScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	s.feeds = []Feed{{URL: server.URL + "/feed", Name: "Test Wire"}}
	s.sites = nil

	digest := s.Latest(context.Background())
	if len(digest.NewsArticles) != 2 {
		t.Fatalf("expected 2 articles (short title dropped), got %d", len(digest.NewsArticles))
	}
	first := digest.NewsArticles[0]
	if !strings.HasPrefix(first.Title, "Parliament passes") {
		t.Fatalf("unexpected first article %+v", first)
	}
	if strings.Contains(first.Snippet, "<") {
		t.Fatalf("HTML leaked into snippet: %q", first.Snippet)
	}
	if first.Source != "Test Wire" {
		t.Fatalf("unexpected source %q", first.Source)
	}
	if !strings.Contains(digest.Answer, "### 1. Parliament passes") {
		t.Fatalf("digest answer missing numbered headline: %q", digest.Answer[:120])
	}
	if len(digest.Sources) != 2 || digest.Sources[1].Index != 2 {
		t.Fatalf("unexpected sources %+v", digest.Sources)
	}
}

func TestLatestFallsBackToSiteScraping(t *testing.T) {
	sitePage := `<html><body>
		<div class="headline-card">
			<h3><a href="/story/one">State assembly approves new renewable energy policy framework</a></h3>
			<p>The policy sets binding targets for solar capacity additions.</p>
		</div>
	</body></html>`
	s, server := testScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "feed") {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sitePage))
	}))
	s.feeds = []Feed{{URL: server.URL + "/feed", Name: "Dead Feed"}}
	s.sites = []siteRule{{
		name:        "Test Site",
		pageURL:     server.URL + "/front",
		baseURL:     server.URL,
		card:        ".headline-card",
		cardTitle:   "h3 a",
		cardSnippet: "p",
		minTitle:    15,
	}}

	digest := s.Latest(context.Background())
	if len(digest.NewsArticles) != 1 {
		t.Fatalf("expected 1 scraped article, got %d", len(digest.NewsArticles))
	}
	a := digest.NewsArticles[0]
	if a.Source != "Test Site" || !strings.HasPrefix(a.URL, server.URL) {
		t.Fatalf("unexpected article %+v", a)
	}
}

func TestDedupeByTitle(t *testing.T) {
	long := strings.Repeat("same prefix for the first fifty characters here!! ", 2)
	articles := []Article{
		{Title: long + "variant one"},
		{Title: long + "variant two"},
		{Title: "A completely different headline about something else"},
	}
	unique := dedupeByTitle(articles)
	if len(unique) != 2 {
		t.Fatalf("expected prefix-duplicates collapsed to 2, got %d", len(unique))
	}
}

func TestRelativeTime(t *testing.T) {
	s := &Scraper{}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-5 * time.Minute), "5 min ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-48 * time.Hour), "2d ago"},
		{now.Add(-30 * 24 * time.Hour), "31 Jul 2026"},
	}
	for _, tc := range cases {
		if got := s.relativeTime(tc.at); got != tc.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestRenderDigestEmpty(t *testing.T) {
	digest := renderDigest(nil)
	if !strings.Contains(digest.Answer, "Unable to fetch news") {
		t.Fatalf("empty digest missing notice: %q", digest.Answer)
	}
	if len(digest.Related) == 0 {
		t.Fatal("related suggestions missing")
	}
}
