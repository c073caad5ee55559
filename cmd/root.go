// Package cmd is the pomotask command line.
package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomotask/internal/store"
	"github.com/sadopc/pomotask/internal/tasks"
	"github.com/sadopc/pomotask/internal/tui"
)

var (
	dbPath   string
	tasksURL string
)

var rootCmd = &cobra.Command{
	Use:   "pomotask",
	Short: "Focus/break timer that follows your task schedule",
	Long: `pomotask runs a focus/break countdown in the terminal, records finished
sessions and keeps a daily streak. It can size and start focus sessions
from the next scheduled task served by "pomotask serve".`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default ~/.config/pomotask/pomotask.db)")
	rootCmd.PersistentFlags().StringVar(&tasksURL, "tasks-url", "", "task lookup service URL (default: tasks_url setting)")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	}
	s, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	var lookup tui.TaskLookup
	if tasksURL != "" {
		lookup = tasks.NewClient(tasksURL)
	}

	app := tui.NewApp(s, lookup)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
