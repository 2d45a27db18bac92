// Package server exposes the answer engine over HTTP: search, instant
// answers, single-URL scraping, image search, the news digest, and a couple
// of lightweight helper endpoints. Responses are capped by per-endpoint
// deadlines and per-client rate limits, and search results are served from
// TTL caches.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"

	"github.com/wickcity/sift/pkg/answer"
	"github.com/wickcity/sift/pkg/cache"
	"github.com/wickcity/sift/pkg/config"
	"github.com/wickcity/sift/pkg/extract"
	"github.com/wickcity/sift/pkg/news"
	"github.com/wickcity/sift/pkg/pipeline"
	"github.com/wickcity/sift/pkg/ratelimit"
	"github.com/wickcity/sift/pkg/worker"
)

const (
	maxQueryLen     = 500
	shutdownGrace   = 15 * time.Second
	instantDeadline = 15 * time.Second
	scrapeDeadline  = 20 * time.Second
	newsDeadline    = 90 * time.Second
	version         = "2.0.0"
)

// Answerer is the query-side surface the handlers call into.
type Answerer interface {
	Answer(ctx context.Context, query string, mode answer.Mode) *answer.Result
	Instant(ctx context.Context, query string) *pipeline.InstantResult
	ScrapeURL(ctx context.Context, rawURL string) (*extract.Content, error)
}

// WorkerRunner runs the out-of-process jobs: image analysis and the news
// digest.
type WorkerRunner interface {
	ImageSearch(ctx context.Context, imagePath, extraQuery string) (*worker.ImageResult, error)
	News(ctx context.Context) (*news.Digest, error)
}

// Server is the HTTP front end.
type Server struct {
	cfg     *config.Server
	log     zerolog.Logger
	answers Answerer
	workers WorkerRunner

	searchCache  *cache.Cache[*answer.Result]
	instantCache *cache.Cache[*pipeline.InstantResult]
	searchLimit  *ratelimit.Limiter
	generalLimit *ratelimit.Limiter

	mux     *http.ServeMux
	httpSrv *http.Server
	jobs    *cron.Cron
	started time.Time
}

// New wires the HTTP surface over the given services. Call Run to serve.
func New(cfg *config.Server, answers Answerer, workers WorkerRunner, log zerolog.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		log:          log.With().Str("component", "server").Logger(),
		answers:      answers,
		workers:      workers,
		searchCache:  cache.New[*answer.Result](cfg.SearchCacheSize, cfg.SearchCacheTTL()),
		instantCache: cache.New[*pipeline.InstantResult](cfg.InstantCacheSize, cfg.InstantCacheTTL()),
		searchLimit:  ratelimit.New(time.Minute, cfg.SearchRatePerMin),
		generalLimit: ratelimit.New(time.Minute, cfg.GeneralRatePerMin),
		started:      time.Now(),
	}
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	searchTimeout := s.cfg.RequestTimeout()
	s.mux.HandleFunc("POST /api/search", s.guard(true, searchTimeout, s.handleSearchPost))
	s.mux.HandleFunc("GET /api/search", s.guard(true, searchTimeout, s.handleSearchGet))
	s.mux.HandleFunc("GET /api/instant", s.guard(true, instantDeadline, s.handleInstant))
	s.mux.HandleFunc("POST /api/scrape", s.guard(true, scrapeDeadline, s.handleScrape))
	s.mux.HandleFunc("POST /api/image-search", s.guard(false, 0, s.handleImageSearch))
	s.mux.HandleFunc("GET /api/news", s.guard(false, newsDeadline, s.handleNews))
	s.mux.HandleFunc("GET /api/suggestions", s.guard(false, 0, s.handleSuggestions))
	s.mux.HandleFunc("GET /api/health", s.guard(false, 0, s.handleHealth))
}

// Handler returns the full middleware-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.withRequestLog(s.mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully with a hard
// deadline. Background cache sweeps and limiter purges run on a cron
// schedule for the server's lifetime.
func (s *Server) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	s.jobs = cron.New()
	_, _ = s.jobs.AddFunc("@every 5m", func() {
		if n := s.searchCache.Sweep() + s.instantCache.Sweep(); n > 0 {
			s.log.Debug().Int("expired", n).Msg("swept response caches")
		}
	})
	_, _ = s.jobs.AddFunc("@every 1m", func() {
		s.searchLimit.Purge()
		s.generalLimit.Purge()
	})
	s.jobs.Start()
	defer s.jobs.Stop()

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       65 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.cfg.Address).Msg("HTTP server listening")
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("forced shutdown after grace period")
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	exhttp.WriteJSONResponse(w, status, map[string]any{"error": msg})
}

func writeData(w http.ResponseWriter, data any) {
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// Mode rewrite patterns: modes that are really query templates only apply
// when the query doesn't already carry the intent.
var (
	compareRe      = regexp.MustCompile(`(?i)\bvs\b|\bcompare`)
	troubleshootRe = regexp.MustCompile(`(?i)\bfix\b|\bsolve`)
	recommendRe    = regexp.MustCompile(`(?i)\bbest\b|\brecommend`)
)

// rewriteQuery maps a client-facing mode to a synthesis mode plus the query
// actually searched. Template modes (compare, troubleshoot, recommend, news)
// reshape the query and synthesize in default mode.
func rewriteQuery(query, rawMode string) (answer.Mode, string) {
	mode := answer.ParseMode(rawMode)
	searchQuery := query
	switch rawMode {
	case "compare":
		if !compareRe.MatchString(query) {
			searchQuery = "compare " + query
		}
	case "troubleshoot":
		if !troubleshootRe.MatchString(query) {
			searchQuery = "how to fix " + query
		}
	case "recommend":
		if !recommendRe.MatchString(query) {
			searchQuery = "best " + query + " recommendations"
		}
	case "news":
		searchQuery = fmt.Sprintf("%s latest news %d", query, time.Now().Year())
	}
	return mode, searchQuery
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Mode  string `json:"mode"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	s.runSearch(w, r, req.Query, req.Mode)
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, r.URL.Query().Get("q"), r.URL.Query().Get("mode"))
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query, rawMode string) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query is required.")
		return
	}
	if len(query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "Query too long (max 500 chars).")
		return
	}

	mode, searchQuery := rewriteQuery(query, rawMode)
	cacheKey := string(mode) + ":" + strings.ToLower(searchQuery)
	if cached, ok := s.searchCache.Get(cacheKey); ok {
		hit := *cached
		hit.Cached = true
		s.log.Info().
			Str("query", searchQuery).
			Dur("duration", time.Since(start)).
			Msg("search cache hit")
		writeData(w, &hit)
		return
	}

	result := sanitizeResult(s.answers.Answer(r.Context(), searchQuery, mode))
	s.searchCache.Set(cacheKey, result)
	s.log.Info().
		Str("query", searchQuery).
		Int("answer_chars", len(result.Answer)).
		Int("sources", len(result.Sources)).
		Dur("duration", time.Since(start)).
		Msg("search done")
	writeData(w, result)
}

func (s *Server) handleInstant(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, `Query parameter "q" is required.`)
		return
	}
	cacheKey := "instant:" + strings.ToLower(query)
	if cached, ok := s.instantCache.Get(cacheKey); ok {
		writeData(w, cached)
		return
	}
	result := s.answers.Instant(r.Context(), query)
	s.instantCache.Set(cacheKey, result)
	writeData(w, result)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" || !strings.HasPrefix(rawURL, "http") {
		writeError(w, http.StatusBadRequest, "Valid URL is required.")
		return
	}
	result, err := s.answers.ScrapeURL(r.Context(), rawURL)
	if errors.Is(err, pipeline.ErrNoContent) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	} else if err != nil {
		s.log.Error().Err(err).Msg("scrape failed")
		writeError(w, http.StatusInternalServerError, "Scrape failed.")
		return
	}
	writeData(w, result)
}

// imageExtRe matches the upload formats the vision worker can decode.
var imageExtRe = regexp.MustCompile(`^\.(jpeg|jpg|png|gif|webp|bmp|tiff)$`)

func (s *Server) handleImageSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image uploaded.")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtRe.MatchString(ext) {
		writeError(w, http.StatusBadRequest, "Only image files are allowed.")
		return
	}

	imagePath, err := s.saveUpload(file, ext)
	if err != nil {
		s.log.Error().Err(err).Msg("upload save failed")
		writeError(w, http.StatusInternalServerError, "Failed to store uploaded image.")
		return
	}
	defer os.Remove(imagePath)

	extraQuery := strings.TrimSpace(r.FormValue("query"))
	result, err := s.workers.ImageSearch(r.Context(), imagePath, extraQuery)
	if err != nil {
		s.log.Error().Err(err).Msg("image worker failed")
		writeError(w, http.StatusInternalServerError, "Image search failed: "+err.Error())
		return
	}
	s.log.Info().Int("answer_chars", len(result.Answer)).Msg("image search done")
	writeData(w, result)
}

func (s *Server) saveUpload(file multipart.File, ext string) (string, error) {
	path := filepath.Join(s.cfg.UploadDir, xid.New().String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err = io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	digest, err := s.workers.News(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("news worker failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch news.")
		return
	}
	s.log.Info().Int("articles", len(digest.NewsArticles)).Msg("news digest served")
	writeData(w, digest)
}

var suggestions = []string{
	"What is artificial intelligence?",
	"Explain quantum computing",
	"Latest technology trends",
	"How does machine learning work?",
	"Climate change effects",
	"Space exploration breakthroughs",
	"Mental health tips",
	"History of ancient civilizations",
	"Web development best practices",
	"Cybersecurity best practices",
	"How to learn programming",
	"Best laptops 2026",
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	filtered := suggestions[:6]
	if q != "" {
		filtered = nil
		for _, sug := range suggestions {
			if strings.Contains(strings.ToLower(sug), q) {
				filtered = append(filtered, sug)
			}
		}
		if filtered == nil {
			filtered = []string{}
		}
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{"suggestions": filtered})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    int(time.Since(s.started).Seconds()),
		"memory": map[string]string{
			"heap":      fmt.Sprintf("%dMB", mem.HeapAlloc/1024/1024),
			"heapTotal": fmt.Sprintf("%dMB", mem.HeapSys/1024/1024),
			"sys":       fmt.Sprintf("%dMB", mem.Sys/1024/1024),
		},
		"cache": map[string]int{
			"search":  s.searchCache.Len(),
			"instant": s.instantCache.Len(),
		},
		"version": version,
		"runtime": runtime.Version(),
	})
}
