// Package review turns a learner's difficulty rating into the card's next
// review time and keeps the whole schedule in one key of a KV repository.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// DefaultKey is the storage key holding the serialized schedule.
const DefaultKey = "review_schedule"

// Review intervals per difficulty.
const (
	HardInterval      = 3 * time.Hour
	ConfusingInterval = 2 * 24 * time.Hour
	EasyInterval      = 7 * 24 * time.Hour
)

// upcomingDays is how many calendar days after today count as upcoming.
const upcomingDays = 3

// ComputeNextReviewDate returns when a card rated d at base is due again.
// Unrecognized difficulties get the easy interval.
func ComputeNextReviewDate(d models.Difficulty, base time.Time) time.Time {
	switch d {
	case models.DifficultyHard:
		return base.Add(HardInterval)
	case models.DifficultyConfusing:
		return base.Add(ConfusingInterval)
	default:
		return base.Add(EasyInterval)
	}
}

// Scheduler records ratings and answers due-count queries. Storage failures
// never reach the caller: a failed read is an empty schedule and a failed
// write is logged and dropped.
type Scheduler struct {
	repo repository.KVRepository
	key  string
	loc  *time.Location
	now  func() time.Time

	// mu serializes read-modify-write cycles on the schedule key.
	mu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Scheduler) { s.key = key }
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(repo repository.KVRepository, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo: repo,
		key:  DefaultKey,
		loc:  time.Local,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordRating schedules cardID's next review from now, replacing any
// previous entry for the card.
func (s *Scheduler) RecordRating(ctx context.Context, cardID string, d models.Difficulty) models.ReviewScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.loadOrEmpty(ctx)
	entry := models.ReviewScheduleEntry{
		CardID:      cardID,
		Difficulty:  d,
		ScheduledAt: ComputeNextReviewDate(d, s.now()),
	}
	schedule[cardID] = entry
	s.save(ctx, schedule)

	ctxLog(ctx).Debug("card %s rated %s, next review at %s", cardID, d, entry.ScheduledAt.Format(time.RFC3339))
	return entry
}

// RemoveCard drops cardID from the schedule. Unknown cards are ignored.
func (s *Scheduler) RemoveCard(ctx context.Context, cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.loadOrEmpty(ctx)
	if _, ok := schedule[cardID]; !ok {
		return
	}
	delete(schedule, cardID)
	s.save(ctx, schedule)
}

// LoadAll returns every entry keyed by card id.
func (s *Scheduler) LoadAll(ctx context.Context) map[string]models.ReviewScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrEmpty(ctx)
}

// AggregateCounts buckets entries by calendar day relative to base: the same
// day is today, the next three days are upcoming, earlier days are overdue.
// Entries further out are not counted.
func (s *Scheduler) AggregateCounts(ctx context.Context, base time.Time) models.ReviewCounts {
	var counts models.ReviewCounts
	for _, entry := range s.LoadAll(ctx) {
		switch diff := dayDiff(base, entry.ScheduledAt, s.loc); {
		case diff < 0:
			counts.OverdueCount++
		case diff == 0:
			counts.TodayCount++
		case diff <= upcomingDays:
			counts.UpcomingCount++
		}
	}
	return counts
}

// Due returns the entries scheduled at or before at, earliest first.
func (s *Scheduler) Due(ctx context.Context, at time.Time) []models.ReviewScheduleEntry {
	due := make([]models.ReviewScheduleEntry, 0)
	for _, entry := range s.LoadAll(ctx) {
		if !entry.ScheduledAt.After(at) {
			due = append(due, entry)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].ScheduledAt.Equal(due[j].ScheduledAt) {
			return due[i].CardID < due[j].CardID
		}
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})
	return due
}

// dayDiff is the number of calendar days from base to t in loc.
func dayDiff(base, t time.Time, loc *time.Location) int {
	by, bm, bd := base.In(loc).Date()
	ty, tm, td := t.In(loc).Date()
	// Noon UTC keeps DST shifts out of the division.
	from := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	to := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func ctxLog(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx).WithPrefix("review")
}

func (s *Scheduler) loadOrEmpty(ctx context.Context) map[string]models.ReviewScheduleEntry {
	schedule, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			ctxLog(ctx).Warn("treating review schedule as empty: %v", err)
		}
		return make(map[string]models.ReviewScheduleEntry)
	}
	return schedule
}

func (s *Scheduler) load(ctx context.Context) (map[string]models.ReviewScheduleEntry, error) {
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	var schedule map[string]models.ReviewScheduleEntry
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if schedule == nil {
		schedule = make(map[string]models.ReviewScheduleEntry)
	}
	return schedule, nil
}

func (s *Scheduler) save(ctx context.Context, schedule map[string]models.ReviewScheduleEntry) {
	raw, err := json.Marshal(schedule)
	if err != nil {
		ctxLog(ctx).Warn("failed to encode review schedule: %v", err)
		return
	}
	if err := s.repo.Set(ctx, s.key, raw); err != nil {
		ctxLog(ctx).Warn("failed to save review schedule: %v", err)
	}
}
