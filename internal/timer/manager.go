package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionSkip   Action = "skip"
	ActionReset  Action = "reset"
)

var ErrUnknownAction = errors.New("unknown timer action")

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionStart, ActionPause, ActionResume, ActionSkip, ActionReset:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Manager keeps one timer per study session id.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	timers map[string]*Timer
}

func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timer config: %w", err)
	}
	return &Manager{cfg: cfg, timers: make(map[string]*Timer)}, nil
}

// Snapshot reports the timer for id; unknown ids read as idle.
func (m *Manager) Snapshot(id string, now time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[id]
	if !ok {
		return New(m.cfg).Snapshot(now)
	}
	return t.Snapshot(now)
}

// Apply runs action on the timer for id and returns the resulting state.
// A timer is only kept once an action on it succeeds.
func (m *Manager) Apply(id string, action Action, now time.Time) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timers[id]
	if !ok {
		t = New(m.cfg)
	}
	var err error
	switch action {
	case ActionStart:
		err = t.Start(now)
	case ActionPause:
		err = t.Pause(now)
	case ActionResume:
		err = t.Resume(now)
	case ActionSkip:
		err = t.Skip(now)
	case ActionReset:
		t.Reset()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return Snapshot{}, err
	}
	if !ok && action != ActionReset {
		m.timers[id] = t
	}
	return t.Snapshot(now), nil
}

// Remove forgets the timer for id and reports whether one existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[id]
	delete(m.timers, id)
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
