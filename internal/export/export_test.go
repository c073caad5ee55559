package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/pomotask/internal/store"
)

func sampleData() []store.Session {
	now := time.Now().UTC().Truncate(time.Second)

	return []store.Session{
		{
			ID:          "s1",
			Mode:        store.ModeFocus,
			StartTime:   now.Add(-90 * time.Minute),
			EndTime:     now.Add(-30 * time.Minute),
			DurationSec: 3600,
			TaskID:      "t1",
			TaskLabel:   "worked on feature",
		},
		{
			ID:          "s2",
			Mode:        store.ModeBreak,
			StartTime:   now.Add(-30 * time.Minute),
			EndTime:     now.Add(-25 * time.Minute),
			DurationSec: 300,
		},
		{
			ID:          "s3",
			Mode:        store.ModeFocus,
			StartTime:   now.Add(-25 * time.Minute),
			EndTime:     now,
			DurationSec: 1500,
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	sessions := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	err := ToCSV(sessions, path)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	header := records[0]
	for i, h := range csvHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "s1" {
		t.Fatalf("ID = %q, want s1", row[0])
	}
	if row[1] != "focus" {
		t.Fatalf("Mode = %q, want focus", row[1])
	}
	if row[4] != "3600" {
		t.Fatalf("Duration (s) = %q, want 3600", row[4])
	}
	if row[5] != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", row[5])
	}
	if row[6] != "t1" || row[7] != "worked on feature" {
		t.Fatalf("task columns = %q %q", row[6], row[7])
	}

	breakRow := records[2]
	if breakRow[6] != "" || breakRow[7] != "" {
		t.Fatalf("break should have no task, got %q %q", breakRow[6], breakRow[7])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	err := ToCSV(nil, path)
	if err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	r := csv.NewReader(f)
	records, _ := r.ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	now := time.Now()
	sessions := []store.Session{
		{
			ID:          "x",
			Mode:        store.ModeFocus,
			StartTime:   now,
			EndTime:     now.Add(time.Minute),
			DurationSec: 60,
			TaskLabel:   `label with "quotes" and, commas`,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sessions); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][7] != `label with "quotes" and, commas` {
		t.Fatalf("label mangled: %q", records[1][7])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	err := ToJSON(sampleData(), path)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if result.Focus != 2 || result.FocusSec != 5100 {
		t.Fatalf("focus totals = %d/%d, want 2/5100", result.Focus, result.FocusSec)
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	s := result.Sessions[0]
	if s.ID != "s1" || s.Mode != "focus" {
		t.Fatalf("unexpected first session %+v", s)
	}
	if s.Duration != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", s.Duration)
	}
	if s.Task != "worked on feature" {
		t.Fatalf("Task = %q", s.Task)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	err := ToJSON(nil, path)
	if err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Sessions != nil {
		t.Fatal("sessions should be nil/null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	err := ToJSON(nil, "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteJSONPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, sampleData())

	out := buf.String()
	if !strings.Contains(out, "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(out, "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
	if strings.Count(out, `"task":`) != 1 {
		t.Fatal("task should be omitted for sessions without one")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(sampleData(), path)

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, s := range result.Sessions {
		if _, err := time.Parse(time.RFC3339, s.StartTime); err != nil {
			t.Fatalf("start_time is not valid RFC3339: %q", s.StartTime)
		}
		if _, err := time.Parse(time.RFC3339, s.EndTime); err != nil {
			t.Fatalf("end_time is not valid RFC3339: %q", s.EndTime)
		}
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
