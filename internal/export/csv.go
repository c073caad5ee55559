// Package export writes the session log as CSV or JSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/pomotask/internal/store"
)

var csvHeader = []string{"ID", "Mode", "Start", "End", "Duration (s)", "Duration", "Task ID", "Task"}

func ToCSV(sessions []store.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, sessions); err != nil {
		return err
	}
	return f.Close()
}

func WriteCSV(out io.Writer, sessions []store.Session) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			s.ID,
			s.Mode,
			s.StartTime.Local().Format(time.RFC3339),
			s.EndTime.Local().Format(time.RFC3339),
			strconv.Itoa(s.DurationSec),
			formatDuration(int64(s.DurationSec)),
			s.TaskID,
			s.TaskLabel,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
