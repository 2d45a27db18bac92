package search

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/fetch"
)

// Orchestrator runs the staged engine cascade. Each wave only fires if the
// previous waves did not accumulate enough unique results, and engines within
// a wave run in parallel. Engine failures are logged and absorbed; only a
// fully empty cascade surfaces as an empty result list.
type Orchestrator struct {
	cfg *Config
	log zerolog.Logger

	primary   Engine
	secondary []Engine
	tertiary  []Engine
}

// NewOrchestrator builds the engine cascade from config. The primary engine
// is DuckDuckGo's HTML frontend (most reliable from server IPs), backed by
// DDG Lite and Bing, then the SearXNG aggregators and Google as a last
// resort.
func NewOrchestrator(cfg *Config, fetcher *fetch.Client, log zerolog.Logger) *Orchestrator {
	cfg = cfg.WithDefaults()
	o := &Orchestrator{
		cfg: cfg,
		log: log.With().Str("component", "search").Logger(),
	}
	if isEnabled(cfg.DDGHTML, true) {
		o.primary = &ddgHTMLEngine{fetcher: fetcher}
	}
	if isEnabled(cfg.DDGLite, true) {
		o.secondary = append(o.secondary, &ddgLiteEngine{fetcher: fetcher})
	}
	if isEnabled(cfg.Bing, true) {
		o.secondary = append(o.secondary, &bingEngine{fetcher: fetcher})
	}
	if isEnabled(cfg.SearXNG, true) {
		o.tertiary = append(o.tertiary, newSearXNGEngine(fetcher, cfg.SearXNGInstances, cfg.SearXNGTries))
	}
	if isEnabled(cfg.Google, true) {
		o.tertiary = append(o.tertiary, &googleEngine{fetcher: fetcher})
	}
	return o
}

// Search runs the cascade and returns deduplicated results ordered by engine
// priority then discovery order. It never returns an error; an empty slice
// means every stage came up dry.
func (o *Orchestrator) Search(ctx context.Context, query string) []Result {
	var merged []Result
	seen := make(map[string]bool)

	merge := func(results []Result) {
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			merged = append(merged, r)
		}
	}

	if o.primary != nil {
		merge(o.runEngine(ctx, o.primary, query, o.cfg.PrimaryMax))
	}

	if len(merged) < o.cfg.SufficientResults && len(o.secondary) > 0 {
		o.log.Debug().Int("results", len(merged)).Msg("below sufficiency threshold, running secondary wave")
		for _, results := range o.runWave(ctx, o.secondary, query) {
			merge(results)
		}
	}

	if len(merged) < o.cfg.MinimumResults && len(o.tertiary) > 0 {
		o.log.Debug().Int("results", len(merged)).Msg("below minimum threshold, running aggregator wave")
		for _, results := range o.runWave(ctx, o.tertiary, query) {
			merge(results)
		}
	}

	o.log.Info().Str("query", query).Int("results", len(merged)).Msg("search cascade finished")
	return merged
}

// runWave runs a set of engines in parallel and returns their result lists
// in engine order, so merge order stays deterministic.
func (o *Orchestrator) runWave(ctx context.Context, engines []Engine, query string) [][]Result {
	results := make([][]Result, len(engines))
	var wg sync.WaitGroup
	for i, engine := range engines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.runEngine(ctx, engine, query, o.cfg.SecondaryMax)
		}()
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) runEngine(ctx context.Context, engine Engine, query string, maxResults int) []Result {
	results, err := engine.Search(ctx, query, maxResults)
	if err != nil {
		o.log.Warn().Err(err).Str("engine", engine.Name()).Msg("engine failed, continuing cascade")
		return nil
	}
	o.log.Debug().Str("engine", engine.Name()).Int("results", len(results)).Msg("engine finished")
	return results
}
