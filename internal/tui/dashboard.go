package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomotask/internal/engine"
	"github.com/sadopc/pomotask/internal/store"
	"github.com/sadopc/pomotask/internal/tasks"
)

type dashboardModel struct {
	store  *store.Store
	width  int
	height int

	goal         int
	todaySummary []store.DailySummary
	recent       []store.Session
}

func newDashboardModel(s *store.Store) dashboardModel {
	return dashboardModel{store: s, goal: 8}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	goal         int
	todaySummary []store.DailySummary
	recent       []store.Session
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
		summary, _ := d.store.GetDailySummary(dayStart, dayStart.AddDate(0, 0, 1))
		recent, _ := d.store.ListSessions(store.SessionFilter{Limit: 8})

		return dashboardDataMsg{
			goal:         d.store.GetSettingInt("daily_goal", 8),
			todaySummary: summary,
			recent:       recent,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(dashboardDataMsg); ok {
		d.goal = msg.goal
		d.todaySummary = msg.todaySummary
		d.recent = msg.recent
	}
	return d, nil
}

func (d dashboardModel) view(st engine.State, next *tasks.Candidate) string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTodayPanel(w, st),
		d.renderNextPanel(w, next),
		d.renderRecentPanel(w),
	)
}

func (d dashboardModel) renderTodayPanel(w int, st engine.State) string {
	title := titleStyle.Render("Today")
	pomos := st.Stats.PomodorosCompleted

	counter := highlightStyle.Render(fmt.Sprintf("%d/%d pomodoros", pomos, d.goal))
	if d.goal > 0 && pomos >= d.goal {
		counter = successStyle.Render(fmt.Sprintf("%d/%d pomodoros ✓", pomos, d.goal))
	}

	streak := engine.CurrentStreak(st.Stats, time.Now())
	streakText := mutedStyle.Render("no streak")
	if streak > 0 {
		unit := "days"
		if streak == 1 {
			unit = "day"
		}
		streakText = warningStyle.Render(fmt.Sprintf("🔥 %d %s", streak, unit))
	}

	var breakSecs int64
	var breaks int
	for _, s := range d.todaySummary {
		if s.Mode == store.ModeBreak {
			breakSecs += s.TotalSeconds
			breaks += s.SessionCount
		}
	}

	rows := []string{
		fmt.Sprintf("%s  %s", title, counter),
		renderGoalDots(pomos, d.goal),
		"",
		fmt.Sprintf("  Focus   %s", highlightStyle.Render(formatSeconds(int64(st.Stats.FocusSeconds)))),
		fmt.Sprintf("  Breaks  %s  (%d)", mutedStyle.Render(formatSeconds(breakSecs)), breaks),
		fmt.Sprintf("  Streak  %s", streakText),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func renderGoalDots(done, goal int) string {
	if goal <= 0 {
		return ""
	}
	n := goal
	if done > n {
		n = done
	}
	var parts []string
	for i := 0; i < n; i++ {
		if i < done {
			parts = append(parts, lipgloss.NewStyle().Foreground(colorFocus).Render("●"))
		} else {
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return "  " + strings.Join(parts, " ")
}

func (d dashboardModel) renderNextPanel(w int, next *tasks.Candidate) string {
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Up next"),
		renderNextTask(next),
	))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, s := range d.recent {
		mode := engine.Focus
		if s.Mode == store.ModeBreak {
			mode = engine.Break
		}
		dot := lipgloss.NewStyle().Foreground(modeColor(mode)).Render("●")
		label := s.TaskLabel
		if label == "" {
			label = mutedStyle.Render("-")
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-6s %s  %s",
			dot,
			s.StartTime.Local().Format("Jan 02 15:04"),
			s.Mode,
			formatSeconds(int64(s.DurationSec)),
			label,
		))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
