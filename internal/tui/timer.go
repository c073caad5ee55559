package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomotask/internal/engine"
	"github.com/sadopc/pomotask/internal/tasks"
)

// timerModel is the countdown view. All timer state lives in the engine.
type timerModel struct {
	engine *engine.Engine
	width  int
	height int

	formActive bool
	form       *huh.Form
	minutes    *string // survives value copies
}

func newTimerModel(e *engine.Engine) timerModel {
	m := ""
	return timerModel{engine: e, minutes: &m}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) update(msg tea.Msg, next *tasks.Candidate) (timerModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	switch {
	case key.Matches(km, keys.Toggle):
		t.engine.Toggle()

	case key.Matches(km, keys.Reset):
		t.engine.Reset()
		return t, status("Timer reset")

	case key.Matches(km, keys.Skip):
		if t.engine.Snapshot().Mode != engine.Break {
			return t, nil
		}
		t.engine.SkipBreak()
		return t, status("Break skipped")

	case key.Matches(km, keys.Apply):
		if next == nil {
			return t, status("No upcoming task to apply")
		}
		t.engine.ApplyTask(*next)
		text := "Applied: " + next.Label()
		if at := t.engine.Snapshot().AutoStartAt; !at.IsZero() {
			text += " (starts " + at.Local().Format("15:04") + ")"
		}
		return t, status(text)

	case key.Matches(km, keys.Clear):
		t.engine.ClearTask()
		return t, status("Task cleared")

	case key.Matches(km, keys.Longer):
		st := t.engine.Snapshot()
		t.engine.EditDuration(float64(st.RemainingSec/60 + 1))

	case key.Matches(km, keys.Shorter):
		// Durations floor at one minute, so shortening below that would
		// lengthen the countdown instead.
		st := t.engine.Snapshot()
		if st.RemainingSec/60 <= 1 {
			return t, nil
		}
		t.engine.EditDuration(float64(st.RemainingSec/60 - 1))

	case key.Matches(km, keys.Duration):
		return t.showForm()
	}
	return t, nil
}

func (t timerModel) showForm() (timerModel, tea.Cmd) {
	*t.minutes = strconv.Itoa(t.engine.Snapshot().RemainingSec / 60)

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Minutes").
				Description("1 to 999, seconds are kept").
				Value(t.minutes).
				Validate(validateMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func validateMinutes(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return errors.New("enter a number of minutes")
	}
	return nil
}

func (t timerModel) updateForm(msg tea.Msg) (timerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		if n, err := strconv.ParseFloat(strings.TrimSpace(*t.minutes), 64); err == nil {
			t.engine.EditDuration(n)
		}
		return t, nil
	}

	return t, cmd
}

func (t timerModel) view(next *tasks.Candidate) string {
	w := t.width - 4
	if w < 20 {
		return "Terminal too small"
	}

	if t.formActive && t.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Set countdown"), "", t.form.View()),
		)
	}

	st := t.engine.Snapshot()
	style := modeStyle(st.Mode)

	var indicator string
	switch {
	case st.Running:
		indicator = successStyle.Render("●  RUNNING")
	case st.SessionID != "":
		indicator = warningStyle.Render("⏸  PAUSED")
	default:
		indicator = mutedStyle.Render("■  READY")
	}

	rows := []string{
		style.Render(modeLabel(st.Mode)),
		"",
		countdownStyle.Foreground(modeColor(st.Mode)).Width(w - 6).Render(formatCountdown(st.RemainingSec)),
		indicator,
		"",
		renderProgress(st, w-10),
	}

	if st.Task != nil {
		rows = append(rows, "", highlightStyle.Render("Task: "+st.Task.Label()))
	}
	if !st.AutoStartAt.IsZero() {
		rows = append(rows, mutedStyle.Render("Auto-start at "+st.AutoStartAt.Local().Format("15:04")))
	}

	rows = append(rows, "", renderNextTask(next))

	var controls string
	if st.Mode == engine.Break {
		controls = mutedStyle.Render("space: start/pause  r: reset  b: skip break  d: minutes")
	} else {
		controls = mutedStyle.Render("space: start/pause  r: reset  a: apply task  n: refresh  d: minutes")
	}
	rows = append(rows, "", controls)

	panel := panelStyle
	if st.Running {
		panel = activePanelStyle.BorderForeground(modeColor(st.Mode))
	}
	return panel.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func renderProgress(st engine.State, width int) string {
	if width < 10 {
		width = 10
	}
	filled := 0
	if st.TotalSec > 0 {
		filled = (st.TotalSec - st.RemainingSec) * width / st.TotalSec
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(modeColor(st.Mode)).Render(strings.Repeat("█", filled))
	rest := mutedStyle.Render(strings.Repeat("░", width-filled))
	return bar + rest
}

func renderNextTask(next *tasks.Candidate) string {
	if next == nil {
		return mutedStyle.Render("No upcoming task")
	}
	parts := []string{fmt.Sprintf("%.0f min", next.LengthMin)}
	if start, ok := next.PlannedStart(); ok {
		if start.After(time.Now()) {
			parts = append(parts, start.Local().Format("Mon 15:04"))
		} else {
			parts = append(parts, "now")
		}
	}
	return "Next: " + titleStyle.Render(next.Label()) + mutedStyle.Render("  "+strings.Join(parts, " · "))
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}
