package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/answer"
	"github.com/wickcity/sift/pkg/config"
	"github.com/wickcity/sift/pkg/extract"
	"github.com/wickcity/sift/pkg/news"
	"github.com/wickcity/sift/pkg/pipeline"
	"github.com/wickcity/sift/pkg/ratelimit"
	"github.com/wickcity/sift/pkg/worker"
)

type stubAnswers struct {
	answerCalls atomic.Int32
	lastQuery   string
	lastMode    answer.Mode

	result    *answer.Result
	instant   *pipeline.InstantResult
	scrape    *extract.Content
	scrapeErr error
}

func (s *stubAnswers) Answer(_ context.Context, query string, mode answer.Mode) *answer.Result {
	s.answerCalls.Add(1)
	s.lastQuery = query
	s.lastMode = mode
	if s.result != nil {
		return s.result
	}
	return &answer.Result{Answer: "stub answer [1]", Title: query}
}

func (s *stubAnswers) Instant(_ context.Context, query string) *pipeline.InstantResult {
	if s.instant != nil {
		return s.instant
	}
	return &pipeline.InstantResult{Answer: "instant: " + query, Source: "DuckDuckGo"}
}

func (s *stubAnswers) ScrapeURL(_ context.Context, _ string) (*extract.Content, error) {
	return s.scrape, s.scrapeErr
}

type stubWorkers struct {
	image *worker.ImageResult
	news  *news.Digest
	err   error
}

func (s *stubWorkers) ImageSearch(_ context.Context, _, _ string) (*worker.ImageResult, error) {
	return s.image, s.err
}

func (s *stubWorkers) News(_ context.Context) (*news.Digest, error) {
	return s.news, s.err
}

func testServer(t *testing.T, answers *stubAnswers, workers *stubWorkers) *Server {
	t.Helper()
	cfg := (&config.Config{}).WithDefaults()
	if answers == nil {
		answers = &stubAnswers{}
	}
	if workers == nil {
		workers = &stubWorkers{}
	}
	return New(&cfg.Server, answers, workers, zerolog.Nop())
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	RetryAfter int             `json:"retryAfter"`
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, *apiResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, &resp
}

func TestSearchCacheHit(t *testing.T) {
	answers := &stubAnswers{}
	srv := testServer(t, answers, nil)
	h := srv.Handler()

	rec, resp := doRequest(t, h, http.MethodPost, "/api/search", `{"query":"go generics"}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("first search failed: status %d body %s", rec.Code, rec.Body.String())
	}
	var first answer.Result
	if err := json.Unmarshal(resp.Data, &first); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if first.Cached {
		t.Fatal("first response should not be marked cached")
	}

	_, resp = doRequest(t, h, http.MethodPost, "/api/search", `{"query":"Go Generics"}`)
	var second answer.Result
	if err := json.Unmarshal(resp.Data, &second); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !second.Cached {
		t.Fatal("second response should be served from cache")
	}
	if second.Answer != first.Answer {
		t.Fatalf("cached answer diverged: %q vs %q", second.Answer, first.Answer)
	}
	if calls := answers.answerCalls.Load(); calls != 1 {
		t.Fatalf("expected 1 pipeline call, got %d", calls)
	}
}

func TestSearchValidation(t *testing.T) {
	srv := testServer(t, nil, nil)
	h := srv.Handler()

	rec, resp := doRequest(t, h, http.MethodPost, "/api/search", `{"query":"  "}`)
	if rec.Code != http.StatusBadRequest || resp.Error == "" {
		t.Fatalf("empty query: status %d error %q", rec.Code, resp.Error)
	}

	long := strings.Repeat("x", maxQueryLen+1)
	rec, resp = doRequest(t, h, http.MethodPost, "/api/search", `{"query":"`+long+`"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(resp.Error, "too long") {
		t.Fatalf("long query: status %d error %q", rec.Code, resp.Error)
	}
}

func TestSearchGetVariant(t *testing.T) {
	answers := &stubAnswers{}
	srv := testServer(t, answers, nil)

	rec, resp := doRequest(t, srv.Handler(), http.MethodGet, "/api/search?q=rust+ownership&mode=concise", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("GET search failed: status %d body %s", rec.Code, rec.Body.String())
	}
	if answers.lastQuery != "rust ownership" {
		t.Fatalf("query = %q", answers.lastQuery)
	}
	if answers.lastMode != answer.ModeConcise {
		t.Fatalf("mode = %q", answers.lastMode)
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		rawMode   string
		query     string
		wantMode  answer.Mode
		wantQuery string
	}{
		{"", "golang channels", answer.ModeDefault, "golang channels"},
		{"detailed", "golang channels", answer.ModeDetailed, "golang channels"},
		{"concise", "golang channels", answer.ModeConcise, "golang channels"},
		{"compare", "python ruby", answer.ModeDefault, "compare python ruby"},
		{"compare", "python vs ruby", answer.ModeDefault, "python vs ruby"},
		{"troubleshoot", "wifi keeps dropping", answer.ModeDefault, "how to fix wifi keeps dropping"},
		{"troubleshoot", "fix wifi drops", answer.ModeDefault, "fix wifi drops"},
		{"recommend", "mechanical keyboards", answer.ModeDefault, "best mechanical keyboards recommendations"},
		{"recommend", "best keyboards", answer.ModeDefault, "best keyboards"},
	}
	for _, tt := range tests {
		mode, query := rewriteQuery(tt.query, tt.rawMode)
		if mode != tt.wantMode || query != tt.wantQuery {
			t.Errorf("rewriteQuery(%q, %q) = (%q, %q), want (%q, %q)",
				tt.query, tt.rawMode, mode, query, tt.wantMode, tt.wantQuery)
		}
	}

	mode, query := rewriteQuery("elections", "news")
	if mode != answer.ModeDefault || !strings.HasPrefix(query, "elections latest news 2") {
		t.Errorf("news rewrite = (%q, %q)", mode, query)
	}
}

func TestSearchRateLimit(t *testing.T) {
	srv := testServer(t, nil, nil)
	srv.searchLimit = ratelimit.New(time.Minute, 2)
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, h, http.MethodGet, "/api/instant?q=go", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
	rec, resp := doRequest(t, h, http.MethodGet, "/api/instant?q=go", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if resp.RetryAfter < 1 {
		t.Fatalf("retryAfter = %d, want >= 1", resp.RetryAfter)
	}
}

func TestInstantCachesByQuery(t *testing.T) {
	answers := &stubAnswers{instant: &pipeline.InstantResult{Answer: "42", Source: "DuckDuckGo"}}
	srv := testServer(t, answers, nil)
	h := srv.Handler()

	rec, resp := doRequest(t, h, http.MethodGet, "/api/instant?q=meaning+of+life", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("instant failed: %s", rec.Body.String())
	}
	if srv.instantCache.Len() != 1 {
		t.Fatalf("instant cache size = %d, want 1", srv.instantCache.Len())
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/api/instant", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q: status = %d, want 400", rec.Code)
	}
}

func TestScrapeEndpoint(t *testing.T) {
	answers := &stubAnswers{scrapeErr: pipeline.ErrNoContent}
	srv := testServer(t, answers, nil)
	h := srv.Handler()

	rec, _ := doRequest(t, h, http.MethodPost, "/api/scrape", `{"url":"ftp://example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-http URL: status = %d, want 400", rec.Code)
	}

	rec, resp := doRequest(t, h, http.MethodPost, "/api/scrape", `{"url":"https://example.com/empty"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("no content: status = %d, want 422", rec.Code)
	}
	if resp.Error == "" {
		t.Fatal("expected error message for unextractable page")
	}

	answers.scrapeErr = nil
	answers.scrape = &extract.Content{Content: "readable text", URL: "https://example.com/a"}
	rec, resp = doRequest(t, h, http.MethodPost, "/api/scrape", `{"url":"https://example.com/a"}`)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("scrape failed: %s", rec.Body.String())
	}
}

func TestSuggestions(t *testing.T) {
	srv := testServer(t, nil, nil)
	h := srv.Handler()

	rec, _ := doRequest(t, h, http.MethodGet, "/api/suggestions", "")
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(body.Suggestions) != 6 {
		t.Fatalf("default suggestions = %d, want 6", len(body.Suggestions))
	}

	rec, _ = doRequest(t, h, http.MethodGet, "/api/suggestions?q=quantum", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(body.Suggestions) != 1 || !strings.Contains(body.Suggestions[0], "quantum") {
		t.Fatalf("filtered suggestions = %v", body.Suggestions)
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil, nil)
	rec, _ := doRequest(t, srv.Handler(), http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string         `json:"status"`
		Cache  map[string]int `json:"cache"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("status field = %q", body.Status)
	}
	if _, ok := body.Cache["search"]; !ok {
		t.Fatal("health response missing cache sizes")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}

func TestSanitizeResult(t *testing.T) {
	dirty := &answer.Result{
		Answer: "clean\x00 text\x1F here\nwith newline",
		Sources: []answer.Source{
			{Name: "example.com", Title: strings.Repeat("t", 400), Index: 1},
		},
		Related: []string{"next question"},
	}
	clean := sanitizeResult(dirty)
	if strings.ContainsAny(clean.Answer, "\x00\x1f") {
		t.Fatalf("control chars survived: %q", clean.Answer)
	}
	if !strings.Contains(clean.Answer, "\nwith newline") {
		t.Fatal("newlines should survive sanitization")
	}
	if len(clean.Sources[0].Title) != maxSourceTitleLen {
		t.Fatalf("title length = %d, want %d", len(clean.Sources[0].Title), maxSourceTitleLen)
	}
	if dirty.Sources[0].Title == clean.Sources[0].Title {
		t.Fatal("sanitize should not mutate the input")
	}
}
