package engine

import (
	"testing"
	"time"

	"github.com/sadopc/pomotask/internal/store"
)

func day(offset int) time.Time {
	return noon.AddDate(0, 0, offset)
}

func TestRecordFocusStreak(t *testing.T) {
	base := store.DailyStats{
		DateKey:            dayKey(day(0)),
		PomodorosCompleted: 2,
		FocusSeconds:       3000,
		StreakCount:        4,
		LastActiveDay:      dayKey(day(0)),
	}

	tests := []struct {
		name       string
		at         time.Time
		wantStreak int
		wantPomos  int
	}{
		{"same day", day(0), 4, 3},
		{"next day", day(1), 5, 1},
		{"two days later", day(2), 1, 1},
		{"a week later", day(7), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recordFocus(base, tt.at, 1500)
			if got.StreakCount != tt.wantStreak {
				t.Fatalf("streak = %d, want %d", got.StreakCount, tt.wantStreak)
			}
			if got.PomodorosCompleted != tt.wantPomos {
				t.Fatalf("pomodoros = %d, want %d", got.PomodorosCompleted, tt.wantPomos)
			}
			if got.LastActiveDay != dayKey(tt.at) || got.DateKey != dayKey(tt.at) {
				t.Fatalf("expected day keys %s, got %+v", dayKey(tt.at), got)
			}
		})
	}
}

func TestRecordFocusFirstEver(t *testing.T) {
	got := recordFocus(store.DailyStats{}, day(0), 1490)
	if got.StreakCount != 1 || got.PomodorosCompleted != 1 || got.FocusSeconds != 1490 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestRecordFocusSameDayKeepsStreakAcrossSessions(t *testing.T) {
	d := recordFocus(store.DailyStats{}, day(0), 1500)
	d = recordFocus(d, day(0).Add(time.Hour), 1500)
	d = recordFocus(d, day(0).Add(2*time.Hour), 1500)

	if d.StreakCount != 1 {
		t.Fatalf("streak = %d, want 1", d.StreakCount)
	}
	if d.PomodorosCompleted != 3 || d.FocusSeconds != 4500 {
		t.Fatalf("unexpected totals: %+v", d)
	}
}

func TestRolloverKeepsToday(t *testing.T) {
	d := store.DailyStats{DateKey: "2026-10-19", PomodorosCompleted: 3}
	if got := rollover(d, "2026-10-19"); got != d {
		t.Fatalf("rollover changed today's row: %+v", got)
	}
}

func TestCurrentStreak(t *testing.T) {
	d := recordFocus(store.DailyStats{}, day(0), 1500)
	d = recordFocus(d, day(1), 1500)

	if got := CurrentStreak(d, day(1)); got != 2 {
		t.Fatalf("today: got %d, want 2", got)
	}
	if got := CurrentStreak(d, day(2)); got != 2 {
		t.Fatalf("day after: got %d, want 2", got)
	}
	if got := CurrentStreak(d, day(3)); got != 0 {
		t.Fatalf("lapsed: got %d, want 0", got)
	}
}

func TestPreviousDayAcrossMonth(t *testing.T) {
	if got := previousDay("2026-03-01"); got != "2026-02-28" {
		t.Fatalf("got %q", got)
	}
	if got := previousDay("garbage"); got != "" {
		t.Fatalf("got %q", got)
	}
}
