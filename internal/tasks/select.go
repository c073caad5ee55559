package tasks

import (
	"sort"
	"time"
)

type scheduled struct {
	item  Item
	start when
	idx   int
}

// Next picks the task to work on at now. Timed tasks starting at or after now
// win; otherwise the earliest task scheduled today or later is used, with
// date-only entries covering their whole day. Returns nil when nothing qualifies.
func Next(items []Item, now time.Time) *Candidate {
	today := startOfDay(now)

	var all []scheduled
	for i, it := range items {
		w, ok := parseWhen(it.Start)
		if !ok {
			continue
		}
		all = append(all, scheduled{item: it, start: w, idx: i})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].start.t.Before(all[j].start.t)
	})

	for _, s := range all {
		if !s.start.dateOnly && !s.start.t.Before(now) {
			return normalize(s)
		}
	}
	for _, s := range all {
		if !s.start.t.Before(today) {
			return normalize(s)
		}
	}
	return nil
}

func normalize(s scheduled) *Candidate {
	return &Candidate{
		ID:              s.item.ID,
		Title:           s.item.Title,
		PlannedStartISO: s.item.Start,
		PlannedEndISO:   s.item.End,
		LengthMin:       lengthFor(s.item, s.start),
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
