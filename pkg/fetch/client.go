package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Client is a shared, keep-alive HTTP client for search engine queries and
// page scraping. One Client is constructed per process and injected into
// everything that talks to the network; Close tears down the connection pool
// at shutdown.
type Client struct {
	cfg       *Config
	http      *http.Client
	transport *http.Transport
	uaIdx     atomic.Uint32
	log       zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Options tune a single fetch.
type Options struct {
	Timeout time.Duration
	Retries int
	Accept  string
	Headers map[string]string
}

// NewClient creates a fetch client with a shared keep-alive transport.
func NewClient(cfg *Config, log zerolog.Logger) *Client {
	cfg = cfg.WithDefaults()
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxSockets * 2,
		MaxIdleConnsPerHost: cfg.MaxSockets,
		MaxConnsPerHost:     cfg.MaxSockets,
		IdleConnTimeout:     30 * time.Second,
	}
	c := &Client{
		cfg:       cfg,
		transport: transport,
		log:       log.With().Str("component", "fetch").Logger(),
		sleep:     sleepCtx,
	}
	c.uaIdx.Store(rand.Uint32() % uint32(len(cfg.UserAgents)))
	c.http = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
	return c
}

// Close destroys the shared connection pool.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// Config returns the resolved client configuration.
func (c *Client) Config() *Config {
	return c.cfg
}

func (c *Client) rotateUA() string {
	idx := c.uaIdx.Add(1)
	return c.cfg.UserAgents[int(idx)%len(c.cfg.UserAgents)]
}

// Page fetches a URL and returns the response body as text. Retries are
// attempted only for 429 and 5xx responses, with increasing backoff; all
// other failures return immediately. The body is capped at the configured
// maximum size.
func (c *Client) Page(ctx context.Context, rawURL string, opts Options) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.PageTimeout()
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	accept := opts.Accept
	if accept == "" {
		accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		body, retryable, err := c.attempt(ctx, rawURL, timeout, accept, opts.Headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || attempt >= retries {
			return "", lastErr
		}
		backoff := c.cfg.RetryBackoff() * time.Duration(attempt+1)
		if err := c.sleep(ctx, backoff); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, rawURL string, timeout time.Duration, accept string, extra map[string]string) (body string, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("invalid request: %w", err)
	}
	req.Header.Set("User-Agent", c.rotateUA())
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes))
	if err != nil {
		return "", false, fmt.Errorf("reading body: %w", err)
	}
	return string(data), false, nil
}

// JSON fetches a URL and decodes the response body into out.
func (c *Client) JSON(ctx context.Context, rawURL string, opts Options, out any) error {
	if opts.Accept == "" {
		opts.Accept = "application/json,*/*;q=0.8"
	}
	body, err := c.Page(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("parsing json: %w", err)
	}
	return nil
}

// Allowed reports whether a URL is worth fetching at all: http(s) scheme, no
// known binary extension in the path, and not on the blocked-domain list.
func (c *Client) Allowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range c.cfg.SkipExtensions {
		if strings.Contains(lowerPath, ext) {
			return false
		}
	}
	return !c.DomainBlocked(Domain(rawURL))
}

// DomainBlocked reports whether a domain is on the scrape denylist.
func (c *Client) DomainBlocked(domain string) bool {
	for _, bd := range c.cfg.BlockedDomains {
		if strings.Contains(domain, bd) {
			return true
		}
	}
	return false
}

// Domain returns the hostname of a URL without a leading www prefix, or the
// input unchanged if it does not parse.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
