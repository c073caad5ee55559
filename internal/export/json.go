package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/pomotask/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Focus      int           `json:"focus_sessions"`
	FocusSec   int           `json:"focus_seconds"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          string `json:"id"`
	Mode        string `json:"mode"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationSec int    `json:"duration_seconds"`
	Duration    string `json:"duration"`
	TaskID      string `json:"task_id,omitempty"`
	Task        string `json:"task,omitempty"`
}

func ToJSON(sessions []store.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, sessions); err != nil {
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, sessions []store.Session) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		if s.Mode == store.ModeFocus {
			export.Focus++
			export.FocusSec += s.DurationSec
		}
		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			Mode:        s.Mode,
			StartTime:   s.StartTime.Local().Format(time.RFC3339),
			EndTime:     s.EndTime.Local().Format(time.RFC3339),
			DurationSec: s.DurationSec,
			Duration:    formatDuration(int64(s.DurationSec)),
			TaskID:      s.TaskID,
			Task:        s.TaskLabel,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
