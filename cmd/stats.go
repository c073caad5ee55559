package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/pomotask/internal/engine"
)

var statsJSON bool

// statsReport is today's progress as printed by `pomotask stats`.
type statsReport struct {
	Date         string `json:"date"`
	Pomodoros    int    `json:"pomodoros"`
	Goal         int    `json:"goal"`
	FocusSeconds int    `json:"focusSeconds"`
	Streak       int    `json:"streak"`
	Sessions     int    `json:"sessions"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's pomodoros, focus time and streak",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.LoadDailyStats()
	if err != nil {
		return err
	}
	count, err := s.CountSessions()
	if err != nil {
		return err
	}

	now := time.Now()
	r := statsReport{
		Date:     now.Format("2006-01-02"),
		Goal:     s.GetSettingInt("daily_goal", 8),
		Streak:   engine.CurrentStreak(d, now),
		Sessions: count,
	}
	// A row from an earlier day has not been rolled over yet.
	if d.DateKey == r.Date {
		r.Pomodoros = d.PomodorosCompleted
		r.FocusSeconds = d.FocusSeconds
	}

	out := cmd.OutOrStdout()
	if statsJSON || !isTerminal(out) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(out, "Today      %s\n", r.Date)
	fmt.Fprintf(out, "Pomodoros  %d/%d\n", r.Pomodoros, r.Goal)
	fmt.Fprintf(out, "Focus      %s\n", time.Duration(r.FocusSeconds)*time.Second)
	fmt.Fprintf(out, "Streak     %d day(s)\n", r.Streak)
	fmt.Fprintf(out, "Sessions   %d logged\n", r.Sessions)
	return nil
}
