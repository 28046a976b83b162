package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/timer"
)

// TimerService drives study session timers
type TimerService interface {
	Get(ctx context.Context, id string) (timer.Snapshot, error)
	Apply(ctx context.Context, id, action string) (timer.Snapshot, error)
	Remove(ctx context.Context, id string) error
}

type timerService struct {
	manager *timer.Manager
	now     func() time.Time
}

// NewTimerService creates a new TimerService. A nil now uses time.Now.
func NewTimerService(manager *timer.Manager, now func() time.Time) TimerService {
	if now == nil {
		now = time.Now
	}
	return &timerService{manager: manager, now: now}
}

func (s *timerService) Get(_ context.Context, id string) (timer.Snapshot, error) {
	id, err := validateTimerID(id)
	if err != nil {
		return timer.Snapshot{}, err
	}
	return s.manager.Snapshot(id, s.now()), nil
}

func (s *timerService) Apply(ctx context.Context, id, action string) (timer.Snapshot, error) {
	id, err := validateTimerID(id)
	if err != nil {
		return timer.Snapshot{}, err
	}
	a, err := timer.ParseAction(action)
	if err != nil {
		return timer.Snapshot{}, errors.NewValidationError("action", "must be one of start, pause, resume, skip, reset")
	}

	snap, err := s.manager.Apply(id, a, s.now())
	switch {
	case err == nil:
		logger.FromContext(ctx).Debug("timer %s: %s -> %s", id, a, snap.Phase)
		return snap, nil
	case stderrors.Is(err, timer.ErrAlreadyRunning),
		stderrors.Is(err, timer.ErrNotRunning),
		stderrors.Is(err, timer.ErrNotPaused),
		stderrors.Is(err, timer.ErrIdle):
		return timer.Snapshot{}, errors.NewConflictError(err.Error())
	default:
		return timer.Snapshot{}, errors.NewInternalError(err)
	}
}

// Remove discards the timer for id. Unknown ids are not found.
func (s *timerService) Remove(ctx context.Context, id string) error {
	id, err := validateTimerID(id)
	if err != nil {
		return err
	}
	if !s.manager.Remove(id) {
		return errors.NewNotFoundError("timer", id)
	}
	logger.FromContext(ctx).Debug("timer %s removed", id)
	return nil
}

func validateTimerID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewValidationError("id", "must not be empty")
	}
	return id, nil
}
