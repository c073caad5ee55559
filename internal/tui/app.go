// Package tui is the terminal front end: countdown, dashboard, reports and
// settings views over one engine instance.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomotask/internal/engine"
	"github.com/sadopc/pomotask/internal/export"
	"github.com/sadopc/pomotask/internal/store"
	"github.com/sadopc/pomotask/internal/tasks"
)

// TaskLookup finds the next scheduled task. *tasks.Client satisfies it.
type TaskLookup interface {
	Next(ctx context.Context) (*tasks.Candidate, error)
}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	engine *engine.Engine
	events chan engine.Event

	lookup TaskLookup
	// followSettings rebuilds lookup when the tasks_url setting changes.
	followSettings bool
	ctx            context.Context
	cancel         context.CancelFunc

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer     timerModel
	dashboard dashboardModel
	reports   reportsModel
	settings  settingsModel

	next     *tasks.Candidate
	fetching bool

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the UI around a new engine. A nil lookup uses the tasks_url
// setting. opts are passed to the engine.
func NewApp(s *store.Store, lookup TaskLookup, opts ...engine.Option) App {
	events := make(chan engine.Event, 32)
	opts = append(opts, engine.WithEventHandler(func(ev engine.Event) {
		// Never block the engine; a full buffer only loses a status line.
		select {
		case events <- ev:
		default:
		}
	}))
	eng := engine.New(s, engineConfig(s), opts...)

	follow := lookup == nil
	if follow {
		lookup = newSettingsLookup(s)
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := help.New()
	h.ShowAll = false

	return App{
		store:          s,
		engine:         eng,
		events:         events,
		lookup:         lookup,
		followSettings: follow,
		ctx:            ctx,
		cancel:         cancel,
		activeView:     viewTimer,
		timer:          newTimerModel(eng),
		dashboard:      newDashboardModel(s),
		reports:        newReportsModel(s),
		settings:       newSettingsModel(s),
		fetching:       true, // Init issues the first lookup
		help:           h,
	}
}

func newSettingsLookup(s *store.Store) TaskLookup {
	u, err := s.GetSetting("tasks_url")
	if err != nil || u == "" {
		u = "http://127.0.0.1:8787"
	}
	return tasks.NewClient(u)
}

// Close cancels any in-flight lookup and stops the engine's timers.
func (a App) Close() {
	a.cancel()
	a.engine.Close()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.fetchNext(),
		waitForEvent(a.events),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/2, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		return engineEventMsg(<-ch)
	}
}

// fetchNext queries the lookup service once. Failures read as "no task".
func (a App) fetchNext() tea.Cmd {
	lookup, ctx := a.lookup, a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, tasks.DefaultClientTimeout)
		defer cancel()
		next, err := lookup.Next(ctx)
		return nextTaskMsg{next: next, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.Close()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Refresh):
			if a.fetching {
				return a, nil
			}
			a.fetching = true
			a.status = "Looking up next task..."
			a.statusErr = false
			return a, a.fetchNext()
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		return a, tickCmd()

	case engineEventMsg:
		return a.handleEngineEvent(engine.Event(msg))

	case nextTaskMsg:
		a.fetching = false
		a.next = msg.next
		switch {
		case msg.err != nil:
			a.next = nil
			a.status = "No task available"
		case msg.next == nil:
			a.status = "No upcoming task"
		default:
			a.status = "Next: " + msg.next.Label()
		}
		a.statusErr = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case settingsSavedMsg:
		a.engine.SetConfig(engineConfig(a.store))
		if a.followSettings {
			a.lookup = newSettingsLookup(a.store)
		}
		a.status = "Settings saved"
		a.statusErr = false
		return a, a.dashboard.loadData()

	case dashboardDataMsg:
		a.dashboard, _ = a.dashboard.update(msg)
		return a, nil

	case reportsDataMsg:
		a.reports, _ = a.reports.update(msg)
		return a, nil

	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) handleEngineEvent(ev engine.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForEvent(a.events)}

	switch ev.Kind {
	case engine.EventModeEnd:
		if ev.Mode == engine.Focus {
			a.status = "Focus complete, time for a break \a"
		} else {
			a.status = "Break over, back to focus \a"
		}
		a.statusErr = false
		cmds = append(cmds, a.dashboard.loadData())
		if a.activeView == viewReports {
			cmds = append(cmds, a.reports.refresh())
		}
	case engine.EventAutoStart:
		a.status = "Started on schedule"
		if st := a.engine.Snapshot(); st.Task != nil {
			a.status = "Started: " + st.Task.Label()
		}
		a.statusErr = false
	case engine.EventStoreError:
		a.status = fmt.Sprintf("Save failed: %v", ev.Err)
		a.statusErr = true
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer, viewDashboard:
		// Timer controls work from the dashboard too.
		a.timer, cmd = a.timer.update(msg, a.next)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer, viewDashboard:
		return a.timer.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view(a.next)
	case viewDashboard:
		if a.timer.formActive {
			content = a.timer.view(a.next)
		} else {
			content = a.dashboard.view(a.engine.Snapshot(), a.next)
		}
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("pomotask")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Countdown indicator outside the timer view
	timerInfo := ""
	if a.activeView != viewTimer {
		st := a.engine.Snapshot()
		if st.Running {
			timerInfo = modeStyle(st.Mode).Render(" ● " + formatCountdown(st.RemainingSec))
		} else if st.SessionID != "" {
			timerInfo = warningStyle.Render(" ⏸ " + formatCountdown(st.RemainingSec))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Sessions"))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		sessions, err := a.store.SessionLog()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("pomotask-export-%s.csv", dateStr))
			if err := export.ToCSV(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("pomotask-export-%s.json", dateStr))
			if err := export.ToJSON(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
