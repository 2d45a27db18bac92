package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	c := NewClient(cfg, zerolog.Nop())
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	t.Cleanup(c.Close)
	return c
}

func TestPageRetriesOn429ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok body"))
	}))
	defer server.Close()

	c := testClient(t, nil)
	body, err := c.Page(context.Background(), server.URL, Options{Retries: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "ok body" {
		t.Fatalf("expected body, got %q", body)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestPageDoesNotRetryOn404(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, nil)
	if _, err := c.Page(context.Background(), server.URL, Options{Retries: 3}); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestPageCapsResponseSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	c := testClient(t, &Config{MaxResponseBytes: 100})
	body, err := c.Page(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(body))
	}
}

func TestPageSendsBrowserHeaders(t *testing.T) {
	var ua, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := testClient(t, nil)
	if _, err := c.Page(context.Background(), server.URL, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ua, "Mozilla/5.0") {
		t.Fatalf("expected browser UA, got %q", ua)
	}
	if !strings.Contains(accept, "text/html") {
		t.Fatalf("expected html accept header, got %q", accept)
	}
}

func TestUserAgentRotation(t *testing.T) {
	c := testClient(t, nil)
	first := c.rotateUA()
	second := c.rotateUA()
	if first == second {
		t.Fatalf("expected rotation to advance, got %q twice", first)
	}
}

func TestAllowed(t *testing.T) {
	c := testClient(t, nil)
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/article", true},
		{"http://example.com/report.pdf", false},
		{"https://en.wikipedia.org/wiki/Go", true},
		{"https://facebook.com/somepage", false},
		{"https://www.x.com/status/1", false},
		{"ftp://example.com/file", false},
		{"not a url", false},
	}
	for _, tc := range cases {
		if got := c.Allowed(tc.url); got != tc.want {
			t.Errorf("Allowed(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestDomain(t *testing.T) {
	if got := Domain("https://www.example.com/path"); got != "example.com" {
		t.Fatalf("expected example.com, got %q", got)
	}
	if got := Domain("garbage"); got != "garbage" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
