package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomotask/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focusMin   *string
	breakMin   *string
	autoBreaks *bool
	dailyGoal  *string
	weekStart  *string
	tasksURL   *string
}

func newSettingsModel(s *store.Store) settingsModel {
	fm, bm, dg, ws, tu := "", "", "", "", ""
	ab := false
	return settingsModel{
		store:      s,
		focusMin:   &fm,
		breakMin:   &bm,
		autoBreaks: &ab,
		dailyGoal:  &dg,
		weekStart:  &ws,
		tasksURL:   &tu,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.focusMin = secsToMin(s.getVal("pomodoro_work", "1500"))
	*s.breakMin = secsToMin(s.getVal("pomodoro_break", "300"))
	*s.autoBreaks = s.store.GetSettingBool("auto_start_breaks", false)
	*s.dailyGoal = s.getVal("daily_goal", "8")
	*s.weekStart = s.getVal("week_start", "monday")
	*s.tasksURL = s.getVal("tasks_url", "http://127.0.0.1:8787")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.focusMin).Validate(validateMinuteSetting),
			huh.NewInput().Title("Break (min)").Value(s.breakMin).Validate(validateMinuteSetting),
			huh.NewConfirm().Title("Start breaks automatically?").Value(s.autoBreaks),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (pomodoros)").Value(s.dailyGoal).Validate(validateGoal),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
			huh.NewInput().Title("Task lookup URL").Value(s.tasksURL).Validate(validateURL),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
			}
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return settingsSavedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []store.Setting{
		{Key: "pomodoro_work", Value: minToSecs(*s.focusMin)},
		{Key: "pomodoro_break", Value: minToSecs(*s.breakMin)},
		{Key: "auto_start_breaks", Value: strconv.FormatBool(*s.autoBreaks)},
		{Key: "daily_goal", Value: strings.TrimSpace(*s.dailyGoal)},
		{Key: "week_start", Value: *s.weekStart},
		{Key: "tasks_url", Value: strings.TrimRight(strings.TrimSpace(*s.tasksURL), "/")},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "pomodoro_work", "pomodoro_break":
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", secs/60)
		}
	case "daily_goal":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d pomodoros", n)
		}
	case "auto_start_breaks":
		if v == "true" {
			return "on"
		}
		return "off"
	}
	return v
}

func validateMinuteSetting(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 999 {
		return errors.New("minutes must be between 1 and 999")
	}
	return nil
}

func validateGoal(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("goal must be a whole number")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

func secsToMin(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(secs / 60)
	}
	return s
}

func minToSecs(s string) string {
	if mins, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return strconv.Itoa(mins * 60)
	}
	return s
}
