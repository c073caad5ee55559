package engine

import (
	"time"

	"github.com/sadopc/pomotask/internal/store"
)

const dayLayout = "2006-01-02"

func dayKey(t time.Time) string {
	return t.Local().Format(dayLayout)
}

// rollover returns d for today. A stale row starts a fresh day with zero
// counts; the streak and last active day carry over.
func rollover(d store.DailyStats, today string) store.DailyStats {
	if d.DateKey == today {
		return d
	}
	return store.DailyStats{
		DateKey:       today,
		StreakCount:   d.StreakCount,
		LastActiveDay: d.LastActiveDay,
	}
}

// recordFocus counts one finished focus session of secs seconds at now.
func recordFocus(d store.DailyStats, now time.Time, secs int) store.DailyStats {
	today := dayKey(now)
	d = rollover(d, today)

	switch {
	case d.LastActiveDay == today:
		if d.StreakCount < 1 {
			d.StreakCount = 1
		}
	case d.LastActiveDay == previousDay(today):
		d.StreakCount++
	default:
		d.StreakCount = 1
	}
	d.LastActiveDay = today
	d.PomodorosCompleted++
	d.FocusSeconds += secs
	return d
}

// CurrentStreak is the streak as it should be shown at now: it lapses to zero
// once a whole day has passed without a focus session.
func CurrentStreak(d store.DailyStats, now time.Time) int {
	today := dayKey(now)
	if d.LastActiveDay == today || d.LastActiveDay == previousDay(today) {
		return d.StreakCount
	}
	return 0
}

func previousDay(key string) string {
	t, err := time.ParseInLocation(dayLayout, key, time.Local)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(dayLayout)
}
