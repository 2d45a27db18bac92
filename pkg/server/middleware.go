package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/hlog"
	"go.mau.fi/util/exhttp"
)

// guard applies the per-client rate limits and an optional hard deadline to
// a handler. Search-shaped endpoints count against the stricter search
// limit on top of the general API limit.
func (s *Server) guard(search bool, timeout time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)
		if search {
			if ok, retryAfter := s.searchLimit.Allow(client); !ok {
				writeRateLimited(w, retryAfter)
				return
			}
		}
		if ok, retryAfter := s.generalLimit.Allow(client); !ok {
			writeRateLimited(w, retryAfter)
			return
		}
		if timeout > 0 {
			s.withDeadline(timeout, next)(w, r)
			return
		}
		next(w, r)
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	exhttp.WriteJSONResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":      "Too many requests. Please wait a moment and try again.",
		"retryAfter": retryAfter,
	})
}

// clientIP prefers the first X-Forwarded-For hop so limits hold behind a
// proxy, falling back to the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withDeadline runs the handler against a buffered writer under a context
// deadline. If the handler misses the deadline the client gets a timeout
// response and the late write is discarded.
func (s *Server) withDeadline(d time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()

		bw := &bufferedWriter{header: make(http.Header)}
		done := make(chan struct{})
		go func() {
			defer close(done)
			next(bw, r.WithContext(ctx))
		}()

		select {
		case <-done:
			bw.flush(w)
		case <-ctx.Done():
			writeError(w, http.StatusGatewayTimeout, "Request timed out. Please try a simpler query.")
		}
	}
}

// bufferedWriter holds a handler's full response in memory so a timed-out
// handler can't race the timeout response on the real connection.
type bufferedWriter struct {
	mu     sync.Mutex
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.header
}

func (b *bufferedWriter) WriteHeader(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) flush(w http.ResponseWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, vs := range b.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestLog tags each request with an ID and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	chain := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request handled")
	})(next)
	chain = hlog.RequestIDHandler("request_id", "X-Request-ID")(chain)
	return hlog.NewHandler(s.log)(chain)
}

func readJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(out)
}
