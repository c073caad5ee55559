package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomotask/internal/engine"
	"github.com/sadopc/pomotask/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	mode      reportMode
	weekStart time.Weekday
	summaries []store.DailySummary
	offset    int // weeks or 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store:     s,
		weekStart: time.Monday,
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	weekStart time.Weekday
	summaries []store.DailySummary
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ws := time.Monday
		if v, err := r.store.GetSetting("week_start"); err == nil && v == "sunday" {
			ws = time.Sunday
		}
		r.weekStart = ws
		from, to := r.dateRange(time.Now())
		summaries, _ := r.store.GetDailySummary(from, to)
		return reportsDataMsg{weekStart: ws, summaries: summaries}
	}
}

// dateRange returns the local-midnight bounds of the period shown.
func (r reportsModel) dateRange(now time.Time) (time.Time, time.Time) {
	now = now.Local()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	switch r.mode {
	case reportWeekly:
		back := (int(today.Weekday()) - int(r.weekStart) + 7) % 7
		startOfWeek := today.AddDate(0, 0, -back-7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// last 7 days including today
		end := today.AddDate(0, 0, 1-7*r.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.weekStart = msg.weekStart
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange(time.Now())

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		var values []barchart.BarValue
		for _, s := range r.summaries {
			if s.Date != dateStr {
				continue
			}
			mode := engine.Focus
			if s.Mode == store.ModeBreak {
				mode = engine.Break
			}
			values = append(values, barchart.BarValue{
				Name:  s.Mode,
				Value: float64(s.TotalSeconds) / 60,
				Style: lipgloss.NewStyle().Foreground(modeColor(mode)),
			})
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// totals sums focus and break seconds plus the focus session count.
func (r reportsModel) totals() (focus, brk int64, pomos int) {
	for _, s := range r.summaries {
		if s.Mode == store.ModeFocus {
			focus += s.TotalSeconds
			pomos += s.SessionCount
		} else {
			brk += s.TotalSeconds
		}
	}
	return focus, brk, pomos
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange(time.Now())
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	focus, brk, pomos := r.totals()
	totals := fmt.Sprintf("  %s focus in %d pomodoros  %s break",
		highlightStyle.Render(formatHours(focus)), pomos, mutedStyle.Render(formatHours(brk)))

	legend := "  " + modeStyle(engine.Focus).Render("● focus") + "  " + modeStyle(engine.Break).Render("● break") +
		mutedStyle.Render("  (minutes)")

	nav := mutedStyle.Render("  ←/→: navigate  m: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, totals, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-8s %10s %9s", "Date", "Mode", "Duration", "Sessions")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 42))))

	for _, s := range r.summaries {
		rows = append(rows, fmt.Sprintf("  %-12s %-8s %10s %9d",
			s.Date, s.Mode, formatSeconds(s.TotalSeconds), s.SessionCount,
		))
	}

	return strings.Join(rows, "\n")
}
