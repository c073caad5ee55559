package engine

import "github.com/sadopc/pomotask/internal/store"

type EventKind int

const (
	// EventModeEnd is sent when a countdown reaches zero. Session holds the
	// record that was appended to the log.
	EventModeEnd EventKind = iota
	// EventAutoStart is sent when a task's planned start began the countdown.
	EventAutoStart
	// EventStoreError reports a failed write. The in-memory state is kept.
	EventStoreError
)

func (k EventKind) String() string {
	switch k {
	case EventModeEnd:
		return "mode-end"
	case EventAutoStart:
		return "auto-start"
	case EventStoreError:
		return "store-error"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind    EventKind
	Mode    Mode
	Session *store.Session
	Err     error
}
