package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

// ReviewScheduler is the subset of review.Scheduler the service uses.
type ReviewScheduler interface {
	RecordRating(ctx context.Context, cardID string, d models.Difficulty) models.ReviewScheduleEntry
	RemoveCard(ctx context.Context, cardID string)
	LoadAll(ctx context.Context) map[string]models.ReviewScheduleEntry
	AggregateCounts(ctx context.Context, base time.Time) models.ReviewCounts
	Due(ctx context.Context, at time.Time) []models.ReviewScheduleEntry
}

// ReviewService handles review scheduling requests
type ReviewService interface {
	Schedule(ctx context.Context) map[string]models.ReviewScheduleEntry
	Due(ctx context.Context) []models.ReviewScheduleEntry
	Counts(ctx context.Context) models.ReviewCounts
	Rate(ctx context.Context, cardID, difficulty string) (models.ReviewScheduleEntry, error)
	Remove(ctx context.Context, cardID string) error
}

type reviewService struct {
	scheduler ReviewScheduler
	now       func() time.Time
}

// NewReviewService creates a new ReviewService. A nil now uses time.Now.
func NewReviewService(scheduler ReviewScheduler, now func() time.Time) ReviewService {
	if now == nil {
		now = time.Now
	}
	return &reviewService{scheduler: scheduler, now: now}
}

func (s *reviewService) Schedule(ctx context.Context) map[string]models.ReviewScheduleEntry {
	return s.scheduler.LoadAll(ctx)
}

func (s *reviewService) Due(ctx context.Context) []models.ReviewScheduleEntry {
	return s.scheduler.Due(ctx, s.now())
}

func (s *reviewService) Counts(ctx context.Context) models.ReviewCounts {
	return s.scheduler.AggregateCounts(ctx, s.now())
}

func (s *reviewService) Rate(ctx context.Context, cardID, difficulty string) (models.ReviewScheduleEntry, error) {
	log := logger.FromContext(ctx)

	cardID, err := validateCardID(cardID)
	if err != nil {
		return models.ReviewScheduleEntry{}, err
	}

	d, err := models.ParseDifficulty(difficulty)
	if err != nil {
		if stderrors.Is(err, models.ErrInvalidDifficulty) {
			return models.ReviewScheduleEntry{}, errors.NewValidationError("difficulty", "must be one of easy, confusing, hard")
		}
		return models.ReviewScheduleEntry{}, errors.NewInternalError(err)
	}

	log.Debug("rating card: card_id=%s, difficulty=%s", cardID, d)
	return s.scheduler.RecordRating(ctx, cardID, d), nil
}

func (s *reviewService) Remove(ctx context.Context, cardID string) error {
	cardID, err := validateCardID(cardID)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("removing card from schedule: card_id=%s", cardID)
	s.scheduler.RemoveCard(ctx, cardID)
	return nil
}

func validateCardID(cardID string) (string, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return "", errors.NewValidationError("cardId", "must not be empty")
	}
	return cardID, nil
}
