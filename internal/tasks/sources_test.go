package tasks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ============================================================
// Notion
// ============================================================

const notionBody = `{
  "results": [
    {
      "id": "page-1",
      "properties": {
        "Name": {"type": "title", "title": [{"plain_text": "Write "}, {"plain_text": "report"}]},
        "Date": {"type": "date", "date": {"start": "2026-10-19T11:00:00+00:00", "end": null}},
        "Length": {"type": "number", "number": 50},
        "Estimate": {"type": "rich_text", "rich_text": []}
      }
    },
    {
      "id": "page-2",
      "properties": {
        "Name": {"type": "title", "title": [{"plain_text": "Plan"}]},
        "Date": {"type": "date", "date": {"start": "2026-10-20"}},
        "Length": {"type": "number", "number": null},
        "Estimate": {"type": "select", "select": {"name": "1h 30m"}}
      }
    },
    {
      "id": "page-3",
      "properties": {
        "Name": {"type": "title", "title": [{"plain_text": "Undated"}]},
        "Date": {"type": "date", "date": null}
      }
    }
  ]
}`

func TestNotionSourceUpcoming(t *testing.T) {
	var gotAuth, gotVersion, gotPath string
	var gotQuery notionQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotQuery)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(notionBody))
	}))
	defer srv.Close()

	src := NewNotionSource("secret", "db123", DefaultNotionProps())
	src.BaseURL = srv.URL

	items, err := src.Upcoming(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer secret" || gotVersion != notionVersion {
		t.Fatalf("bad headers: %q %q", gotAuth, gotVersion)
	}
	if gotPath != "/v1/databases/db123/query" {
		t.Fatalf("bad path: %s", gotPath)
	}
	if gotQuery.Filter.Property != "Date" || gotQuery.Filter.Date["on_or_after"] != "2026-10-19" {
		t.Fatalf("bad filter: %+v", gotQuery.Filter)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 dated items, got %d", len(items))
	}
	if items[0].Title != "Write report" || items[0].LengthMin == nil || *items[0].LengthMin != 50 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Label != "1h 30m" || items[1].LengthMin != nil {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
}

func TestNotionSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewNotionSource("bad", "db", DefaultNotionProps())
	src.BaseURL = srv.URL
	_, err := src.Upcoming(context.Background(), now)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestNotionSourceBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	src := NewNotionSource("t", "db", DefaultNotionProps())
	src.BaseURL = srv.URL
	if _, err := src.Upcoming(context.Background(), now); err == nil {
		t.Fatal("expected decode error")
	}
}

// ============================================================
// File source
// ============================================================

const taskYAML = `tasks:
  - id: old
    title: Yesterday
    start: "2026-10-18"
  - id: t1
    title: Write report
    start: "2026-10-19T11:00"
    length: 40
  - id: t2
    title: Plan week
    start: "2026-10-20"
    label: 2h
`

func TestFileSourceUpcoming(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(taskYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	items, err := src.Upcoming(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items from today on, got %d", len(items))
	}
	if items[0].ID != "t1" || items[0].LengthMin == nil || *items[0].LengthMin != 40 {
		t.Fatalf("unexpected item: %+v", items[0])
	}

	got := Next(items, now)
	if got == nil || got.ID != "t1" || got.LengthMin != 40 {
		t.Fatalf("unexpected next: %+v", got)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "none.yaml"))
	items, err := src.Upcoming(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestFileSourceBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	os.WriteFile(path, []byte("tasks: [unclosed"), 0o644)
	if _, err := NewFileSource(path).Upcoming(context.Background(), now); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFileSourceCacheAndInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	os.WriteFile(path, []byte(taskYAML), 0o644)

	src := NewFileSource(path)
	src.Upcoming(context.Background(), now)

	os.WriteFile(path, []byte("tasks: []\n"), 0o644)
	items, _ := src.Upcoming(context.Background(), now)
	if len(items) != 2 {
		t.Fatalf("cached items expected, got %d", len(items))
	}

	src.Invalidate()
	items, _ = src.Upcoming(context.Background(), now)
	if len(items) != 0 {
		t.Fatalf("expected reload after invalidate, got %d", len(items))
	}
}

func TestFileSourceWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	os.WriteFile(path, []byte(taskYAML), 0o644)

	src := NewFileSource(path)
	src.Upcoming(context.Background(), now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 8)
	if err := src.Watch(ctx, func() { changed <- struct{}{} }); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(path, []byte("tasks: []\n"), 0o644)
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	items, _ := src.Upcoming(context.Background(), now)
	if len(items) != 0 {
		t.Fatalf("expected reloaded empty list, got %d", len(items))
	}
}

// ============================================================
// Client
// ============================================================

func TestClientNext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/next" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"next":{"id":"t1","title":"Write","plannedStartISO":"2026-10-19T11:00:00Z","plannedEndISO":"","lengthMin":50}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	got, err := c.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "t1" || got.LengthMin != 50 {
		t.Fatalf("unexpected candidate: %+v", got)
	}
}

func TestClientNextNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"next":null}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestClientNextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Next(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}

func TestClientNextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL).Next(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
