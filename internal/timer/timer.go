// Package timer implements focus/break study sessions (Pomodoro).
package timer

import (
	"errors"
	"fmt"
	"time"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

var (
	ErrAlreadyRunning = errors.New("timer is already running")
	ErrNotRunning     = errors.New("timer is not running")
	ErrNotPaused      = errors.New("timer is not paused")
	ErrIdle           = errors.New("timer has not been started")
)

// Config holds phase lengths. A long break replaces the short break after
// every LongBreakEvery completed focus sessions.
type Config struct {
	Focus          time.Duration
	ShortBreak     time.Duration
	LongBreak      time.Duration
	LongBreakEvery int
}

func DefaultConfig() Config {
	return Config{
		Focus:          25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      15 * time.Minute,
		LongBreakEvery: 4,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Focus <= 0 {
		errs = append(errs, fmt.Errorf("focus duration must be positive, got %v", c.Focus))
	}
	if c.ShortBreak <= 0 {
		errs = append(errs, fmt.Errorf("short break duration must be positive, got %v", c.ShortBreak))
	}
	if c.LongBreak <= 0 {
		errs = append(errs, fmt.Errorf("long break duration must be positive, got %v", c.LongBreak))
	}
	if c.LongBreakEvery < 1 {
		errs = append(errs, fmt.Errorf("long break interval must be at least 1, got %d", c.LongBreakEvery))
	}
	return errors.Join(errs...)
}

// Timer is not safe for concurrent use; Manager serializes access.
type Timer struct {
	cfg       Config
	phase     Phase
	running   bool
	endsAt    time.Time
	remaining time.Duration
	completed int
}

func New(cfg Config) *Timer {
	return &Timer{cfg: cfg, phase: PhaseIdle}
}

// Snapshot is the externally visible state at a point in time.
type Snapshot struct {
	Phase            Phase      `json:"phase"`
	Running          bool       `json:"running"`
	RemainingSeconds int64      `json:"remainingSeconds"`
	EndsAt           *time.Time `json:"endsAt,omitempty"`
	CompletedFocus   int        `json:"completedFocus"`
}

// Start begins a focus session from idle, or resumes a paused timer.
func (t *Timer) Start(now time.Time) error {
	t.advance(now)
	switch {
	case t.running:
		return ErrAlreadyRunning
	case t.phase == PhaseIdle:
		t.enter(PhaseFocus, now)
		return nil
	default:
		return t.Resume(now)
	}
}

func (t *Timer) Pause(now time.Time) error {
	t.advance(now)
	if !t.running {
		return ErrNotRunning
	}
	t.remaining = t.endsAt.Sub(now)
	t.running = false
	return nil
}

func (t *Timer) Resume(now time.Time) error {
	t.advance(now)
	if t.phase == PhaseIdle {
		return ErrIdle
	}
	if t.running {
		return ErrNotPaused
	}
	t.endsAt = now.Add(t.remaining)
	t.remaining = 0
	t.running = true
	return nil
}

// Skip ends the current phase early and starts the next one. A skipped
// focus session still counts as completed.
func (t *Timer) Skip(now time.Time) error {
	t.advance(now)
	if t.phase == PhaseIdle {
		return ErrIdle
	}
	t.enter(t.next(), now)
	return nil
}

// Reset returns to idle and forgets completed sessions.
func (t *Timer) Reset() {
	*t = Timer{cfg: t.cfg, phase: PhaseIdle}
}

func (t *Timer) Snapshot(now time.Time) Snapshot {
	t.advance(now)
	s := Snapshot{Phase: t.phase, Running: t.running, CompletedFocus: t.completed}
	switch {
	case t.running:
		endsAt := t.endsAt
		s.EndsAt = &endsAt
		s.RemainingSeconds = ceilSeconds(t.endsAt.Sub(now))
	case t.phase != PhaseIdle:
		s.RemainingSeconds = ceilSeconds(t.remaining)
	}
	return s
}

// advance rolls a running timer through every phase that ended by now.
// Each phase starts exactly when the previous one ended.
func (t *Timer) advance(now time.Time) {
	for t.running && !now.Before(t.endsAt) {
		t.enter(t.next(), t.endsAt)
	}
}

func (t *Timer) next() Phase {
	if t.phase != PhaseFocus {
		return PhaseFocus
	}
	t.completed++
	if t.completed%t.cfg.LongBreakEvery == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

func (t *Timer) enter(p Phase, at time.Time) {
	t.phase = p
	t.running = true
	t.remaining = 0
	t.endsAt = at.Add(t.duration(p))
}

func (t *Timer) duration(p Phase) time.Duration {
	switch p {
	case PhaseShortBreak:
		return t.cfg.ShortBreak
	case PhaseLongBreak:
		return t.cfg.LongBreak
	default:
		return t.cfg.Focus
	}
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
