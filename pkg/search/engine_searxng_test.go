package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/fetch"
)

func TestSearXNGStopsAtFirstWorkingMirror(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer dead.Close()

	var liveHits int
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		liveHits++
		if q := r.URL.Query().Get("q"); q != "golang" {
			t.Errorf("unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Go","url":"https://go.dev","content":"the language"},
			{"title":"","url":"https://skip.me","content":"no title"},
			{"title":"bad scheme","url":"ftp://nope","content":"x"}
		]}`))
	}))
	defer live.Close()

	unreached := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("mirror after a successful one should not be tried")
	}))
	defer unreached.Close()

	client := fetch.NewClient(nil, zerolog.Nop())
	defer client.Close()

	engine := newSearXNGEngine(client, []string{dead.URL, live.URL, unreached.URL}, 3)
	engine.shuffle = func([]string) {} // keep the configured order

	results, err := engine.Search(context.Background(), "golang", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 filtered result, got %d: %+v", len(results), results)
	}
	if results[0].URL != "https://go.dev" || results[0].Snippet != "the language" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if liveHits != 1 {
		t.Fatalf("expected 1 hit on the working mirror, got %d", liveHits)
	}
}

func TestSearXNGHonorsTryLimit(t *testing.T) {
	var hits int
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer dead.Close()

	client := fetch.NewClient(nil, zerolog.Nop())
	defer client.Close()

	engine := newSearXNGEngine(client, []string{dead.URL, dead.URL, dead.URL, dead.URL}, 2)
	engine.shuffle = func([]string) {}

	if _, err := engine.Search(context.Background(), "golang", 10); err == nil {
		t.Fatal("expected error when every tried mirror fails")
	}
	if hits != 2 {
		t.Fatalf("expected exactly 2 mirror attempts, got %d", hits)
	}
}
