package news

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wickcity/sift/pkg/extract"
	"github.com/wickcity/sift/pkg/fetch"
)

// siteRule describes how to lift headlines off one news front page: a card
// selector with title/snippet/time sub-selectors, plus a looser link
// selector used when the cards yield nothing.
type siteRule struct {
	name        string
	pageURL     string
	baseURL     string
	card        string
	cardTitle   string
	cardSnippet string
	cardTime    string
	fallback    string
	minTitle    int
}

var defaultSites = []siteRule{
	{
		name:        "NDTV",
		pageURL:     "https://www.ndtv.com/latest",
		card:        ".news_Ede",
		cardTitle:   ".newsHdng a, h2 a",
		cardSnippet: ".newsCont, p",
		cardTime:    ".posted-by span, time",
		fallback:    "h2 a, .story__title a, .newsHdng a",
		minTitle:    15,
	},
	{
		name:     "Times of India",
		pageURL:  "https://timesofindia.indiatimes.com/news",
		baseURL:  "https://timesofindia.indiatimes.com",
		fallback: ".col_l_6 .w_tle a, .top-newslist li a, .list5 li a, ._1tLba a",
		minTitle: 15,
	},
	{
		name:        "The Hindu",
		pageURL:     "https://www.thehindu.com/news/",
		baseURL:     "https://www.thehindu.com",
		card:        ".story-card, .element, .Other-StoryCard",
		cardTitle:   "h3 a, h2 a, .title a",
		cardSnippet: "p",
		fallback:    "h3 a, h2 a",
		minTitle:    15,
	},
	{
		name:     "Indian Express",
		pageURL:  "https://indianexpress.com/",
		fallback: ".top-news .title a, .other-article h3 a, .articles h2 a, .title a",
		minTitle: 15,
	},
	{
		name:     "Hindustan Times",
		pageURL:  "https://www.hindustantimes.com/latest-news",
		baseURL:  "https://www.hindustantimes.com",
		fallback: ".cartHolder h3 a, .hdg3 a, .storyShortDetail h3 a, .media-heading a",
		minTitle: 15,
	},
}

func (s *Scraper) fromSite(ctx context.Context, site siteRule) []Article {
	html, err := s.fetcher.Page(ctx, site.pageURL, fetch.Options{Timeout: siteTimeout})
	if err != nil {
		s.log.Warn().Err(err).Str("site", site.name).Msg("site fetch failed")
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var articles []Article
	if site.card != "" {
		doc.Find(site.card).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if len(articles) >= perSiteMax {
				return false
			}
			titleEl := sel.Find(site.cardTitle).First()
			title := extract.CleanText(titleEl.Text())
			link := site.resolve(titleEl.AttrOr("href", sel.Find("a").First().AttrOr("href", "")))
			if len(title) <= 10 || link == "" {
				return true
			}
			snippet := ""
			if site.cardSnippet != "" {
				snippet = extract.Truncate(extract.CleanText(sel.Find(site.cardSnippet).First().Text()), 300)
			}
			when := ""
			if site.cardTime != "" {
				when = extract.CleanText(sel.Find(site.cardTime).First().Text())
			}
			articles = append(articles, Article{Title: title, Snippet: snippet, URL: link, Time: when, Source: site.name})
			return true
		})
	}

	if len(articles) == 0 && site.fallback != "" {
		doc.Find(site.fallback).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if len(articles) >= perSiteMax {
				return false
			}
			title := extract.CleanText(sel.Text())
			link := site.resolve(sel.AttrOr("href", ""))
			if len(title) > site.minTitle && strings.HasPrefix(link, "http") {
				articles = append(articles, Article{Title: title, URL: link, Source: site.name})
			}
			return true
		})
	}

	s.log.Debug().Str("site", site.name).Int("articles", len(articles)).Msg("site scraped")
	return articles
}

func (r siteRule) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if r.baseURL == "" {
		return ""
	}
	return r.baseURL + href
}

// articleSelectors locate story bodies on Indian news article pages.
var articleSelectors = []string{
	"article .content-body", ".article-body", ".story-details", ".article__content",
	".article_content", ".story_details", ".full-details", ".content-area",
	".story-content", ".artText", ".article-content", ".post-content",
	"article p", ".story p", ".article p", "main p",
}

const articleNoise = "script, style, nav, footer, header, aside, iframe, noscript, form, button, svg, img, video, audio, .sidebar, .nav, .menu, .footer, .header, .ad, .advertisement, .social, .share, .comments, .cookie, .popup, .modal, .newsletter, .related, .also-read, .recommended"

// articleBody pulls the story text off one article page, capped at 2000
// characters. Empty on any failure.
func (s *Scraper) articleBody(ctx context.Context, url string) string {
	html, err := s.fetcher.Page(ctx, url, fetch.Options{Timeout: articleTimeout})
	if err != nil || len(html) < 500 {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(articleNoise).Remove()

	var content string
	for _, selector := range articleSelectors {
		els := doc.Find(selector)
		if els.Length() == 0 {
			continue
		}
		var texts []string
		els.Each(func(_ int, sel *goquery.Selection) {
			if t := strings.TrimSpace(sel.Text()); len(t) > 30 {
				texts = append(texts, t)
			}
		})
		if len(texts) > 0 {
			content = strings.Join(texts, "\n\n")
			break
		}
	}

	if len(content) < 100 {
		var paragraphs []string
		doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if len(paragraphs) >= 10 {
				return false
			}
			if t := strings.TrimSpace(sel.Text()); len(t) > 40 {
				paragraphs = append(paragraphs, t)
			}
			return true
		})
		content = strings.Join(paragraphs, "\n\n")
	}

	return extract.Truncate(extract.CleanText(content), 2000)
}
