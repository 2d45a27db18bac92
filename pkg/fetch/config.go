package fetch

import "time"

const (
	DefaultPageTimeoutSecs   = 8
	DefaultSearchTimeoutSecs = 12
	DefaultMaxResponseBytes  = 2 * 1024 * 1024
	DefaultMaxRedirects      = 5
	DefaultMaxSockets        = 15
	DefaultRetryBackoff      = 1200 * time.Millisecond
)

// DefaultUserAgents is a rotation of current desktop browser user agents.
// Rotating per request spreads fingerprints across engines that throttle
// repeated identical clients.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15",
}

// DefaultSkipExtensions are URL path extensions that never contain readable
// article text.
var DefaultSkipExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".mp4", ".mp3",
	".zip", ".exe", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".rar", ".7z",
}

// DefaultBlockedDomains are sites that reliably block scrapers or yield
// login walls instead of content.
var DefaultBlockedDomains = []string{
	"facebook.com", "instagram.com", "twitter.com", "x.com", "linkedin.com",
	"pinterest.com", "tiktok.com", "snapchat.com", "discord.com", "telegram.org",
}

// Config controls the shared page-fetching client.
type Config struct {
	PageTimeoutSecs   int      `yaml:"page_timeout_seconds"`
	SearchTimeoutSecs int      `yaml:"search_timeout_seconds"`
	MaxResponseBytes  int64    `yaml:"max_response_bytes"`
	MaxRedirects      int      `yaml:"max_redirects"`
	MaxSockets        int      `yaml:"max_sockets"`
	RetryBackoffMs    int      `yaml:"retry_backoff_ms"`
	UserAgents        []string `yaml:"user_agents"`
	SkipExtensions    []string `yaml:"skip_extensions"`
	BlockedDomains    []string `yaml:"blocked_domains"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.PageTimeoutSecs <= 0 {
		c.PageTimeoutSecs = DefaultPageTimeoutSecs
	}
	if c.SearchTimeoutSecs <= 0 {
		c.SearchTimeoutSecs = DefaultSearchTimeoutSecs
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.MaxSockets <= 0 {
		c.MaxSockets = DefaultMaxSockets
	}
	if c.RetryBackoffMs <= 0 {
		c.RetryBackoffMs = int(DefaultRetryBackoff / time.Millisecond)
	}
	if len(c.UserAgents) == 0 {
		c.UserAgents = append([]string{}, DefaultUserAgents...)
	}
	if len(c.SkipExtensions) == 0 {
		c.SkipExtensions = append([]string{}, DefaultSkipExtensions...)
	}
	if len(c.BlockedDomains) == 0 {
		c.BlockedDomains = append([]string{}, DefaultBlockedDomains...)
	}
	return c
}

// PageTimeout returns the per-page fetch timeout.
func (c *Config) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSecs) * time.Second
}

// SearchTimeout returns the timeout used for search engine queries.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSecs) * time.Second
}

// RetryBackoff returns the base backoff between retry attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}
