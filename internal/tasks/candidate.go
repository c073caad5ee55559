// Package tasks finds the next scheduled task in an external task store and
// normalizes it for the timer.
package tasks

import (
	"strings"
	"time"
)

// DefaultLengthMin is used when no length can be derived for a task.
const DefaultLengthMin = 25

// Candidate is the normalized next task served at /tasks/next.
type Candidate struct {
	ID              string  `json:"id,omitempty"`
	Title           string  `json:"title"`
	PlannedStartISO string  `json:"plannedStartISO"`
	PlannedEndISO   string  `json:"plannedEndISO,omitempty"`
	LengthMin       float64 `json:"lengthMin"`
}

// PlannedStart parses PlannedStartISO. Date-only values resolve to local midnight.
func (c Candidate) PlannedStart() (time.Time, bool) {
	w, ok := parseWhen(c.PlannedStartISO)
	if !ok {
		return time.Time{}, false
	}
	return w.t, true
}

// Label is the text shown for the task in the timer.
func (c Candidate) Label() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	if c.ID != "" {
		return c.ID
	}
	return "Untitled task"
}

// Item is a raw task as read from a Source.
type Item struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Start     string   `yaml:"start"`
	End       string   `yaml:"end,omitempty"`
	LengthMin *float64 `yaml:"length,omitempty"`
	Label     string   `yaml:"label,omitempty"`
}

type when struct {
	t        time.Time
	dateOnly bool
}

var timedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseWhen(s string) (when, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return when{}, false
	}
	for _, layout := range timedLayouts {
		var t time.Time
		var err error
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return when{t: t}, true
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return when{t: t, dateOnly: true}, true
	}
	return when{}, false
}
