package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/sadopc/pomotask/internal/tasks"
)

const defaultTasksURL = "http://127.0.0.1:8787"

var nextJSON bool

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next scheduled task",
	Long: `Asks the lookup service for the next task. Prints JSON when --json is set
or stdout is not a terminal.`,
	RunE: runNext,
}

func init() {
	nextCmd.Flags().BoolVar(&nextJSON, "json", false, "print the raw lookup response")
	rootCmd.AddCommand(nextCmd)
}

// lookupURL prefers --tasks-url, then the tasks_url setting.
func lookupURL() (string, error) {
	if tasksURL != "" {
		return tasksURL, nil
	}
	s, err := openStore()
	if err != nil {
		return "", err
	}
	defer s.Close()

	u, err := s.GetSetting("tasks_url")
	if err != nil || u == "" {
		return defaultTasksURL, nil
	}
	return u, nil
}

func runNext(cmd *cobra.Command, args []string) error {
	url, err := lookupURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), tasks.DefaultClientTimeout)
	defer cancel()

	// An unreachable service means no task, the same as the timer's view.
	next, err := tasks.NewClient(url).Next(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "lookup next task: %v\n", err)
		next = nil
	}

	out := cmd.OutOrStdout()
	if nextJSON || !isTerminal(out) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks.NextResponse{Next: next})
	}

	if next == nil {
		fmt.Fprintln(out, "No upcoming task")
		return nil
	}
	fmt.Fprintln(out, next.Label())
	fmt.Fprintf(out, "  Length: %.0f min\n", next.LengthMin)
	if start, ok := next.PlannedStart(); ok {
		fmt.Fprintf(out, "  Starts: %s\n", start.Local().Format(time.DateTime))
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
