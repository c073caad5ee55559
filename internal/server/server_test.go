package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomotask/internal/config"
	"github.com/sadopc/pomotask/internal/tasks"
)

type mockFinder struct {
	next *tasks.Candidate
	err  error
}

func (m *mockFinder) Next(ctx context.Context) (*tasks.Candidate, error) {
	return m.next, m.err
}

func newTestServer(finder NextFinder) *Server {
	gin.SetMode(gin.TestMode)
	cfg := config.Defaults()
	cfg.CORSOrigin = "http://localhost:3000"
	return New(cfg, finder)
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&mockFinder{})
	w := do(t, s, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestNextReturnsCandidate(t *testing.T) {
	s := newTestServer(&mockFinder{next: &tasks.Candidate{
		ID:              "t1",
		Title:           "Write docs",
		PlannedStartISO: "2026-10-19T14:00:00Z",
		LengthMin:       45,
	}})

	w := do(t, s, http.MethodGet, "/tasks/next")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp tasks.NextResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Next == nil || resp.Next.Title != "Write docs" || resp.Next.LengthMin != 45 {
		t.Fatalf("unexpected candidate %+v", resp.Next)
	}
}

func TestNextNullWhenNothingScheduled(t *testing.T) {
	s := newTestServer(&mockFinder{})
	w := do(t, s, http.MethodGet, "/tasks/next")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"next":null}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestNextUpstreamError(t *testing.T) {
	s := newTestServer(&mockFinder{err: errors.New("notion unavailable")})
	w := do(t, s, http.MethodGet, "/tasks/next")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "notion unavailable") {
		t.Fatalf("expected error in body, got %s", w.Body.String())
	}
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(&mockFinder{})
	w := do(t, s, http.MethodGet, "/tasks/next")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestPreflight(t *testing.T) {
	s := newTestServer(&mockFinder{})
	w := do(t, s, http.MethodOptions, "/tasks/next")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Fatalf("unexpected allow-methods %q", got)
	}
}

func TestDebugConfigRedactsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Defaults()
	cfg.NotionToken = "secret_token_value"
	cfg.NotionDatabaseID = "db42"
	s := New(cfg, &mockFinder{})

	w := do(t, s, http.MethodGet, "/debug/config")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "secret_token_value") {
		t.Fatal("token leaked in debug output")
	}
	if !strings.Contains(body, "db42") || !strings.Contains(body, `"source":"notion"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestClientAgainstServer(t *testing.T) {
	s := newTestServer(&mockFinder{next: &tasks.Candidate{Title: "Plan sprint", LengthMin: 30}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c := tasks.NewClient(ts.URL + "/")
	next, err := c.Next(context.Background())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if next == nil || next.Title != "Plan sprint" {
		t.Fatalf("unexpected candidate %+v", next)
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(&mockFinder{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := s.Start(); !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Start after Shutdown = %v, want http.ErrServerClosed", err)
	}
}

func TestShutdownWhileStarting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Defaults()
	cfg.Port = 0
	s := New(cfg, &mockFinder{})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Start = %v, want http.ErrServerClosed", err)
	}
}
