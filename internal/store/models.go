package store

import "time"

// Session modes as stored in the sessions table.
const (
	ModeFocus = "focus"
	ModeBreak = "break"
)

// Session is one finished countdown. Rows are never updated after insert.
type Session struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	DurationSec int       `json:"durationSec"` // actual wall-clock seconds
	TaskID      string    `json:"taskId,omitempty"`
	TaskLabel   string    `json:"taskLabel,omitempty"`
}

// DailyStats is the single stats row kept under the daily_stats setting.
type DailyStats struct {
	DateKey            string `json:"dateKey"` // 2006-01-02, local time
	PomodorosCompleted int    `json:"pomodorosCompleted"`
	FocusSeconds       int    `json:"focusSecondsAccumulated"`
	StreakCount        int    `json:"streakCount"`
	LastActiveDay      string `json:"lastActiveDay"`
}

type Setting struct {
	Key   string
	Value string
}

// SessionFilter is used to filter sessions in queries.
type SessionFilter struct {
	Mode  string
	From  *time.Time
	To    *time.Time
	Limit int
}

// DailySummary represents aggregated time per mode per day.
type DailySummary struct {
	Date         string
	Mode         string
	TotalSeconds int64
	SessionCount int
}
