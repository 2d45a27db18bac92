package search

const (
	EngineDDGHTML = "duckduckgo"
	EngineDDGLite = "ddg-lite"
	EngineBing    = "bing"
	EngineGoogle  = "google"
	EngineSearXNG = "searxng"

	// DefaultSufficientResults stops the cascade after the primary wave.
	DefaultSufficientResults = 6
	// DefaultMinimumResults triggers the aggregator wave when still unmet.
	DefaultMinimumResults = 4

	DefaultPrimaryMax   = 15
	DefaultSecondaryMax = 10
	DefaultSearXNGTries = 3
)

// DefaultSearXNGInstances are public SearXNG mirrors. A shuffled subset is
// tried per query to spread load.
var DefaultSearXNGInstances = []string{
	"https://search.sapti.me",
	"https://priv.au",
	"https://searx.be",
	"https://search.ononoki.org",
	"https://searx.tiekoetter.com",
	"https://search.mdosch.de",
	"https://searx.info",
	"https://etsi.me",
}

// Config controls the cascade thresholds and engine availability.
type Config struct {
	SufficientResults int      `yaml:"sufficient_results"`
	MinimumResults    int      `yaml:"minimum_results"`
	PrimaryMax        int      `yaml:"primary_max"`
	SecondaryMax      int      `yaml:"secondary_max"`
	SearXNGInstances  []string `yaml:"searxng_instances"`
	SearXNGTries      int      `yaml:"searxng_tries"`

	DDGHTML *bool `yaml:"ddg_html_enabled"`
	DDGLite *bool `yaml:"ddg_lite_enabled"`
	Bing    *bool `yaml:"bing_enabled"`
	Google  *bool `yaml:"google_enabled"`
	SearXNG *bool `yaml:"searxng_enabled"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.SufficientResults <= 0 {
		c.SufficientResults = DefaultSufficientResults
	}
	if c.MinimumResults <= 0 {
		c.MinimumResults = DefaultMinimumResults
	}
	if c.PrimaryMax <= 0 {
		c.PrimaryMax = DefaultPrimaryMax
	}
	if c.SecondaryMax <= 0 {
		c.SecondaryMax = DefaultSecondaryMax
	}
	if len(c.SearXNGInstances) == 0 {
		c.SearXNGInstances = append([]string{}, DefaultSearXNGInstances...)
	}
	if c.SearXNGTries <= 0 {
		c.SearXNGTries = DefaultSearXNGTries
	}
	return c
}

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
