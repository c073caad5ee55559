package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/pomotask/internal/engine"
	"github.com/sadopc/pomotask/internal/store"
	"github.com/sadopc/pomotask/internal/tasks"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewDashboard
	viewReports
	viewSettings
)

var viewNames = []string{"Timer", "Dashboard", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// engineEventMsg carries an engine event into the update loop.
type engineEventMsg engine.Event

type nextTaskMsg struct {
	next *tasks.Candidate
	err  error
}

type exportDoneMsg struct {
	path string
}

type settingsSavedMsg struct{}

// --- Helpers ---

// engineConfig reads the timer preferences from the settings table.
func engineConfig(s *store.Store) engine.Config {
	def := engine.DefaultConfig()
	return engine.Config{
		FocusDuration:   time.Duration(s.GetSettingInt("pomodoro_work", int(def.FocusDuration/time.Second))) * time.Second,
		BreakDuration:   time.Duration(s.GetSettingInt("pomodoro_break", int(def.BreakDuration/time.Second))) * time.Second,
		AutoStartBreaks: s.GetSettingBool("auto_start_breaks", false),
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// formatCountdown renders remaining seconds as MM:SS; minutes may exceed 59.
func formatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func modeLabel(m engine.Mode) string {
	if m == engine.Break {
		return "BREAK"
	}
	return "FOCUS"
}
