// Package config loads the root YAML configuration and applies environment
// overrides. Every section is optional; zero values resolve to defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wickcity/sift/pkg/fetch"
	"github.com/wickcity/sift/pkg/search"
)

const (
	DefaultAddress           = ":3001"
	DefaultUploadDir         = "uploads"
	DefaultMaxUploadBytes    = 10 * 1024 * 1024
	DefaultSearchRate        = 25
	DefaultGeneralRate       = 60
	DefaultSearchCacheSize   = 80
	DefaultSearchCacheTTL    = 10
	DefaultInstantCacheSize  = 100
	DefaultInstantCacheTTL   = 15
	DefaultRequestTimeoutSec = 120
	DefaultWorkerBinary      = "sift-worker"
)

// Server holds the HTTP surface settings: address, upload handling, rate
// limits, and response caches.
type Server struct {
	Address        string `yaml:"address"`
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	SearchRatePerMin  int `yaml:"search_rate_per_minute"`
	GeneralRatePerMin int `yaml:"general_rate_per_minute"`

	SearchCacheSize     int `yaml:"search_cache_size"`
	SearchCacheTTLMins  int `yaml:"search_cache_ttl_minutes"`
	InstantCacheSize    int `yaml:"instant_cache_size"`
	InstantCacheTTLMins int `yaml:"instant_cache_ttl_minutes"`

	RequestTimeoutSecs int `yaml:"request_timeout_seconds"`

	WorkerBinary string `yaml:"worker_binary"`
}

// Logging selects zerolog's level and output format.
type Logging struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Config is the root of the YAML file.
type Config struct {
	Server  Server        `yaml:"server"`
	Logging Logging       `yaml:"logging"`
	Fetch   fetch.Config  `yaml:"fetch"`
	Search  search.Config `yaml:"search"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	s := &c.Server
	if s.Address == "" {
		s.Address = DefaultAddress
	}
	if s.UploadDir == "" {
		s.UploadDir = DefaultUploadDir
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if s.SearchRatePerMin <= 0 {
		s.SearchRatePerMin = DefaultSearchRate
	}
	if s.GeneralRatePerMin <= 0 {
		s.GeneralRatePerMin = DefaultGeneralRate
	}
	if s.SearchCacheSize <= 0 {
		s.SearchCacheSize = DefaultSearchCacheSize
	}
	if s.SearchCacheTTLMins <= 0 {
		s.SearchCacheTTLMins = DefaultSearchCacheTTL
	}
	if s.InstantCacheSize <= 0 {
		s.InstantCacheSize = DefaultInstantCacheSize
	}
	if s.InstantCacheTTLMins <= 0 {
		s.InstantCacheTTLMins = DefaultInstantCacheTTL
	}
	if s.RequestTimeoutSecs <= 0 {
		s.RequestTimeoutSecs = DefaultRequestTimeoutSec
	}
	if s.WorkerBinary == "" {
		s.WorkerBinary = DefaultWorkerBinary
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return c
}

// SearchCacheTTL returns the answer cache TTL.
func (s *Server) SearchCacheTTL() time.Duration {
	return time.Duration(s.SearchCacheTTLMins) * time.Minute
}

// InstantCacheTTL returns the instant-answer cache TTL.
func (s *Server) InstantCacheTTL() time.Duration {
	return time.Duration(s.InstantCacheTTLMins) * time.Minute
}

// RequestTimeout returns the hard deadline for answer requests.
func (s *Server) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSecs) * time.Second
}

// Load reads a YAML config file and applies environment overrides. An empty
// path or missing file yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg.WithDefaults(), nil
}

// applyEnv maps legacy-style environment variables over file settings.
func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Address = ":" + port
	}
	if addr := getenv("SIFT_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if dir := getenv("SIFT_UPLOAD_DIR"); dir != "" {
		c.Server.UploadDir = dir
	}
	if bin := getenv("SIFT_WORKER_BINARY"); bin != "" {
		c.Server.WorkerBinary = bin
	}
	if level := getenv("SIFT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if getenv("SIFT_LOG_CONSOLE") == "true" {
		c.Logging.Console = true
	}
}
