package tasks

import (
	"context"
	"fmt"
	"time"
)

// Source lists tasks scheduled on or after the day of now.
type Source interface {
	Upcoming(ctx context.Context, now time.Time) ([]Item, error)
}

// Lookup answers the next-task query against a Source.
type Lookup struct {
	src Source
	now func() time.Time
}

func NewLookup(src Source) *Lookup {
	return &Lookup{src: src, now: time.Now}
}

// Next returns the next candidate, or nil when there is none.
func (l *Lookup) Next(ctx context.Context) (*Candidate, error) {
	now := l.now()
	items, err := l.src.Upcoming(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list upcoming tasks: %w", err)
	}
	return Next(items, now), nil
}
