// Package engine owns the focus/break countdown, records finished sessions and
// keeps the daily stats and streak.
package engine

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/pomotask/internal/clock"
	"github.com/sadopc/pomotask/internal/store"
	"github.com/sadopc/pomotask/internal/tasks"
)

type Mode int

const (
	Focus Mode = iota
	Break
)

func (m Mode) String() string {
	if m == Break {
		return store.ModeBreak
	}
	return store.ModeFocus
}

const (
	minMinutes = 1
	maxMinutes = 999
	minTaskSec = 60
)

// Recorder persists finished sessions and the daily stats row.
type Recorder interface {
	AppendSession(s store.Session) error
	LoadDailyStats() (store.DailyStats, error)
	SaveDailyStats(d store.DailyStats) error
}

type Config struct {
	FocusDuration   time.Duration
	BreakDuration   time.Duration
	AutoStartBreaks bool
}

func DefaultConfig() Config {
	return Config{
		FocusDuration: 25 * time.Minute,
		BreakDuration: 5 * time.Minute,
	}
}

// State is a point-in-time copy of the engine for rendering.
type State struct {
	Mode         Mode
	RemainingSec int
	TotalSec     int
	Running      bool
	SessionID    string
	StartedAt    time.Time
	Task         *tasks.Candidate
	AutoStartAt  time.Time // zero when no auto-start is pending
	Stats        store.DailyStats
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithEventHandler registers fn for engine events. fn is called without the
// engine lock held, from whichever goroutine caused the event.
func WithEventHandler(fn func(Event)) Option {
	return func(e *Engine) { e.onEvent = fn }
}

// Engine is the timer state machine. All methods are safe to call from any
// goroutine; timer callbacks are serialized with user actions.
type Engine struct {
	mu      sync.Mutex
	clock   clock.Clock
	rec     Recorder
	onEvent func(Event)

	// countdown length per mode in seconds; override wins when non-zero
	configured   [2]int
	override     [2]int
	autoContinue bool

	mode      Mode
	remaining int
	total     int
	running   bool
	fired     bool // end of the current countdown already handled

	sessionID string
	startedAt time.Time
	task      *tasks.Candidate

	stats store.DailyStats

	tick      clock.Timer
	tickEpoch uint64

	autoStart   clock.Timer
	autoStartAt time.Time
	autoEpoch   uint64
}

// New creates an engine in paused Focus mode. Stats are loaded from rec and
// rolled over to today; a load failure starts from empty stats.
func New(rec Recorder, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		clock: clock.Real{},
		rec:   rec,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.applyConfig(cfg)
	e.beginCountdownLocked(Focus)

	stats, err := rec.LoadDailyStats()
	if err != nil {
		stats = store.DailyStats{}
	}
	e.stats = rollover(stats, dayKey(e.clock.Now()))
	return e
}

func (e *Engine) applyConfig(cfg Config) {
	def := DefaultConfig()
	if cfg.FocusDuration <= 0 {
		cfg.FocusDuration = def.FocusDuration
	}
	if cfg.BreakDuration <= 0 {
		cfg.BreakDuration = def.BreakDuration
	}
	e.configured[Focus] = clampSeconds(int(cfg.FocusDuration / time.Second))
	e.configured[Break] = clampSeconds(int(cfg.BreakDuration / time.Second))
	e.autoContinue = cfg.AutoStartBreaks
}

// SetConfig replaces the configured durations and drops manual edits. A
// countdown that has not been started picks up the new length right away.
// A focus length set by an applied task is kept.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyConfig(cfg)
	e.override[Break] = 0
	if e.task == nil {
		e.override[Focus] = 0
	}
	if !e.running && e.sessionID == "" && e.remaining == e.total {
		e.beginCountdownLocked(e.mode)
	}
}

func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := State{
		Mode:         e.mode,
		RemainingSec: e.remaining,
		TotalSec:     e.total,
		Running:      e.running,
		SessionID:    e.sessionID,
		StartedAt:    e.startedAt,
		AutoStartAt:  e.autoStartAt,
		Stats:        rollover(e.stats, dayKey(e.clock.Now())),
	}
	if e.task != nil {
		t := *e.task
		st.Task = &t
	}
	return st
}

// Toggle starts a paused countdown or pauses a running one.
func (e *Engine) Toggle() {
	e.mu.Lock()
	if e.running {
		e.pauseLocked()
	} else {
		e.cancelAutoStartLocked()
		e.startLocked()
	}
	e.mu.Unlock()
}

func (e *Engine) Start() {
	e.mu.Lock()
	e.cancelAutoStartLocked()
	e.startLocked()
	e.mu.Unlock()
}

func (e *Engine) Pause() {
	e.mu.Lock()
	e.pauseLocked()
	e.mu.Unlock()
}

// Reset stops the countdown and restores the configured length of the current
// mode. The in-flight session is dropped without a record.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickLocked()
	e.cancelAutoStartLocked()
	e.running = false
	e.discardSessionLocked()
	e.beginCountdownLocked(e.mode)
}

// SkipBreak abandons a break and returns to a paused Focus countdown. It does
// nothing in Focus mode.
func (e *Engine) SkipBreak() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Break {
		return
	}
	e.stopTickLocked()
	e.cancelAutoStartLocked()
	e.running = false
	e.discardSessionLocked()
	e.beginCountdownLocked(Focus)
}

// ApplyTask switches to a paused Focus countdown sized to the task and, when
// the task has a planned start, arms a single auto-start for that moment. Any
// earlier pending auto-start is cancelled.
func (e *Engine) ApplyTask(c tasks.Candidate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelAutoStartLocked()
	e.stopTickLocked()
	e.running = false
	e.discardSessionLocked()

	task := c
	e.task = &task
	e.override[Focus] = taskSeconds(c.LengthMin)
	e.beginCountdownLocked(Focus)

	start, ok := c.PlannedStart()
	if !ok {
		return
	}
	delay := start.Sub(e.clock.Now())
	if delay < 0 {
		delay = 0
	}
	e.autoEpoch++
	epoch := e.autoEpoch
	e.autoStartAt = start
	e.autoStart = e.clock.AfterFunc(delay, func() { e.fireAutoStart(epoch) })
}

// ClearTask forgets the applied task and any pending auto-start. The current
// countdown is left as is.
func (e *Engine) ClearTask() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelAutoStartLocked()
	if e.task != nil {
		e.task = nil
		e.override[Focus] = 0
	}
}

// EditDuration sets the minutes of the current countdown, clamped to
// [1, 999], keeping the seconds part of the remaining time. Non-finite input
// other than ±Inf is ignored.
func (e *Engine) EditDuration(minutes float64) {
	if math.IsNaN(minutes) {
		return
	}
	m := clampMinutes(minutes)

	e.mu.Lock()
	defer e.mu.Unlock()
	secs := e.remaining % 60
	e.override[e.mode] = m * 60
	e.remaining = m*60 + secs
	e.total = e.remaining
	e.fired = false
}

// Close cancels all pending timers. The engine stays usable but paused.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickLocked()
	e.cancelAutoStartLocked()
	e.running = false
}

func (e *Engine) startLocked() {
	if e.running {
		return
	}
	if e.remaining <= 0 {
		e.beginCountdownLocked(e.mode)
	}
	if e.sessionID == "" {
		e.sessionID = uuid.New().String()
		e.startedAt = e.clock.Now()
	}
	e.running = true
	e.scheduleTickLocked()
}

func (e *Engine) pauseLocked() {
	if !e.running {
		return
	}
	e.running = false
	e.stopTickLocked()
}

func (e *Engine) tickLocked() []Event {
	if !e.running {
		return nil
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining == 0 {
		return e.endLocked()
	}
	return nil
}

// endLocked handles the end of the current countdown at most once.
func (e *Engine) endLocked() []Event {
	if e.fired {
		return nil
	}
	e.fired = true

	now := e.clock.Now()
	ended := e.mode
	sess := e.finalizeLocked(now)
	evs := []Event{{Kind: EventModeEnd, Mode: ended, Session: &sess}}

	if err := e.rec.AppendSession(sess); err != nil {
		evs = append(evs, Event{Kind: EventStoreError, Mode: ended, Err: err})
	}

	next := Break
	if ended == Focus {
		e.stats = recordFocus(e.stats, now, sess.DurationSec)
		if err := e.rec.SaveDailyStats(e.stats); err != nil {
			evs = append(evs, Event{Kind: EventStoreError, Mode: ended, Err: err})
		}
	} else {
		next = Focus
	}

	e.stopTickLocked()
	e.cancelAutoStartLocked()
	e.running = false
	if ended == Focus && e.task != nil {
		// A task only sizes the focus countdown it was applied to.
		e.task = nil
		e.override[Focus] = 0
	}
	e.beginCountdownLocked(next)
	if next == Break && e.autoContinue {
		e.startLocked()
	}
	return evs
}

func (e *Engine) finalizeLocked(now time.Time) store.Session {
	id := e.sessionID
	start := e.startedAt
	if id == "" {
		id = uuid.New().String()
		start = now.Add(-time.Duration(e.total-e.remaining) * time.Second)
	}
	dur := int(math.Round(now.Sub(start).Seconds()))
	if dur < 1 {
		dur = 1
	}
	sess := store.Session{
		ID:          id,
		Mode:        e.mode.String(),
		StartTime:   start,
		EndTime:     now,
		DurationSec: dur,
	}
	if e.mode == Focus && e.task != nil {
		sess.TaskID = e.task.ID
		sess.TaskLabel = e.task.Label()
	}
	e.sessionID = ""
	e.startedAt = time.Time{}
	return sess
}

// beginCountdownLocked enters a fresh countdown for m and re-arms the end guard.
func (e *Engine) beginCountdownLocked(m Mode) {
	e.mode = m
	e.total = e.configured[m]
	if e.override[m] > 0 {
		e.total = e.override[m]
	}
	e.remaining = e.total
	e.fired = false
}

func (e *Engine) discardSessionLocked() {
	e.sessionID = ""
	e.startedAt = time.Time{}
}

func (e *Engine) scheduleTickLocked() {
	e.stopTickLocked()
	epoch := e.tickEpoch
	e.tick = e.clock.AfterFunc(time.Second, func() { e.onTick(epoch) })
}

// stopTickLocked cancels the pending tick and invalidates any tick callback
// that is already running.
func (e *Engine) stopTickLocked() {
	if e.tick != nil {
		e.tick.Stop()
		e.tick = nil
	}
	e.tickEpoch++
}

// onTick advances the countdown by one second. Each scheduled tick carries
// the epoch it was armed in and counts at most once: rescheduling, pausing
// and mode end all move the epoch on, so a duplicate or late delivery is
// dropped.
func (e *Engine) onTick(epoch uint64) {
	e.mu.Lock()
	if epoch != e.tickEpoch || !e.running {
		e.mu.Unlock()
		return
	}
	e.tick = nil
	evs := e.tickLocked()
	if e.running && epoch == e.tickEpoch {
		e.scheduleTickLocked()
	}
	e.mu.Unlock()
	e.emit(evs)
}

func (e *Engine) cancelAutoStartLocked() {
	if e.autoStart != nil {
		e.autoStart.Stop()
		e.autoStart = nil
	}
	e.autoEpoch++
	e.autoStartAt = time.Time{}
}

func (e *Engine) fireAutoStart(epoch uint64) {
	e.mu.Lock()
	if epoch != e.autoEpoch {
		e.mu.Unlock()
		return
	}
	e.autoStart = nil
	e.autoStartAt = time.Time{}
	e.startLocked()
	var evs []Event
	if e.running {
		evs = append(evs, Event{Kind: EventAutoStart, Mode: e.mode})
	}
	e.mu.Unlock()
	e.emit(evs)
}

func (e *Engine) emit(evs []Event) {
	if e.onEvent == nil {
		return
	}
	for _, ev := range evs {
		e.onEvent(ev)
	}
}

func taskSeconds(lengthMin float64) int {
	if math.IsNaN(lengthMin) || lengthMin <= 0 {
		return minTaskSec
	}
	if math.IsInf(lengthMin, 1) {
		return maxMinutes * 60
	}
	secs := int(math.Round(lengthMin)) * 60
	if secs < minTaskSec {
		return minTaskSec
	}
	return clampSeconds(secs)
}

func clampMinutes(minutes float64) int {
	if math.IsInf(minutes, 1) || minutes > maxMinutes {
		return maxMinutes
	}
	if math.IsInf(minutes, -1) || minutes < minMinutes {
		return minMinutes
	}
	m := int(math.Round(minutes))
	if m < minMinutes {
		return minMinutes
	}
	if m > maxMinutes {
		return maxMinutes
	}
	return m
}

func clampSeconds(secs int) int {
	if secs < minMinutes*60 {
		return minMinutes * 60
	}
	if secs > maxMinutes*60 {
		return maxMinutes * 60
	}
	return secs
}
