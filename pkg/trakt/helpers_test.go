package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// recorder keeps the requests a fake API received.
type recorder struct {
	mu       sync.Mutex
	requests []recorded
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

func (r *recorder) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
		r.mu.Lock()
		r.requests = append(r.requests, recorded{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.RawQuery,
			Header: req.Header.Clone(),
			Body:   body,
		})
		r.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatal("no request recorded")
	}
	return r.requests[len(r.requests)-1]
}

// newFakeAPI starts a chi router behind httptest and returns a client
// pointed at it. setup registers the routes.
func newFakeAPI(t *testing.T, cfg Config, setup func(r chi.Router)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := chi.NewRouter()
	r.Use(rec.middleware)
	setup(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	if cfg.ClientID == "" {
		cfg.ClientID = "test-client"
	}
	cfg.APIURL = server.URL

	c, err := NewClient(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c, rec
}

func testConfig() Config {
	return DefaultConfig().WithClientID("test-client").WithClientSecret("test-secret")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// failTransport fails the test if any request is sent.
func failTransport(t *testing.T) Transport {
	return TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		t.Errorf("unexpected request %s %s", req.Method, req.URL)
		return nil, &TransportError{StatusCode: http.StatusTeapot}
	})
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
	return m
}
