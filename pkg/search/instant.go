package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wickcity/sift/pkg/fetch"
)

// InstantAnswer is a short, high-confidence snippet from DuckDuckGo's
// instant-answer API. It gets top synthesis priority when present.
type InstantAnswer struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgInstantPayload struct {
	Abstract       string `json:"Abstract"`
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	Answer         string `json:"Answer"`
	AnswerType     string `json:"AnswerType"`
	Infobox        struct {
		Content []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"content"`
	} `json:"Infobox"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

var instantAPIBase = "https://api.duckduckgo.com/"

// Instant queries the DuckDuckGo instant-answer API. It returns nil without
// error when the API has nothing substantial for the query.
func Instant(ctx context.Context, fetcher *fetch.Client, query string) (*InstantAnswer, error) {
	apiURL := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1", instantAPIBase, url.QueryEscape(query))

	var data ddgInstantPayload
	if err := fetcher.JSON(ctx, apiURL, fetch.Options{Timeout: 6 * time.Second, Retries: 1}, &data); err != nil {
		return nil, err
	}

	answer := data.AbstractText
	if answer == "" {
		answer = data.Abstract
	}
	if answer == "" {
		answer = data.Answer
	}
	source := data.AbstractSource
	if source == "" {
		source = data.AnswerType
	}
	if len(answer) > 30 {
		return &InstantAnswer{Answer: answer, Source: source, URL: data.AbstractURL}, nil
	}

	// Infobox rows as "label: value" pairs.
	if len(data.Infobox.Content) > 0 {
		var rows []string
		for _, row := range data.Infobox.Content {
			if row.Label != "" && row.Value != "" {
				rows = append(rows, row.Label+": "+row.Value)
			}
		}
		if info := strings.Join(rows, ". "); len(info) > 30 {
			return &InstantAnswer{Answer: info, Source: "DuckDuckGo Infobox", URL: data.AbstractURL}, nil
		}
	}

	// Related topic blurbs as a last resort.
	var blurbs []string
	for _, topic := range data.RelatedTopics {
		if len(blurbs) >= 3 {
			break
		}
		if len(topic.Text) > 20 {
			blurbs = append(blurbs, topic.Text)
		}
	}
	if text := strings.Join(blurbs, " "); len(text) > 30 {
		iaURL := data.AbstractURL
		if iaURL == "" {
			iaURL = "https://duckduckgo.com/?q=" + url.QueryEscape(query)
		}
		return &InstantAnswer{Answer: text, Source: "DuckDuckGo", URL: iaURL}, nil
	}

	return nil, nil
}
