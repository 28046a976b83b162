package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

var fixedNow = time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)

func newReviewService(t *testing.T) (services.ReviewService, *mocks.MockReviewScheduler) {
	t.Helper()
	sched := new(mocks.MockReviewScheduler)
	t.Cleanup(func() { sched.AssertExpectations(t) })
	return services.NewReviewService(sched, func() time.Time { return fixedNow }), sched
}

func TestReviewService_Rate(t *testing.T) {
	svc, sched := newReviewService(t)
	ctx := context.Background()
	want := models.ReviewScheduleEntry{CardID: "c1", Difficulty: models.DifficultyHard, ScheduledAt: fixedNow.Add(3 * time.Hour)}
	sched.On("RecordRating", ctx, "c1", models.DifficultyHard).Return(want)

	got, err := svc.Rate(ctx, " c1 ", "Hard")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReviewService_RateRejectsUnknownDifficulty(t *testing.T) {
	svc, _ := newReviewService(t)

	_, err := svc.Rate(context.Background(), "c1", "trivial")

	appErr := errors.As(err)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "difficulty")
}

func TestReviewService_RateRejectsEmptyCardID(t *testing.T) {
	svc, _ := newReviewService(t)

	_, err := svc.Rate(context.Background(), "  ", "easy")

	assert.Equal(t, errors.ErrCodeValidation, errors.As(err).Code)
}

func TestReviewService_QueriesUseClock(t *testing.T) {
	svc, sched := newReviewService(t)
	ctx := context.Background()
	counts := models.ReviewCounts{TodayCount: 1}
	due := []models.ReviewScheduleEntry{{CardID: "c1"}}
	all := map[string]models.ReviewScheduleEntry{"c1": due[0]}

	sched.On("AggregateCounts", ctx, fixedNow).Return(counts)
	sched.On("Due", ctx, fixedNow).Return(due)
	sched.On("LoadAll", ctx).Return(all)

	assert.Equal(t, counts, svc.Counts(ctx))
	assert.Equal(t, due, svc.Due(ctx))
	assert.Equal(t, all, svc.Schedule(ctx))
}

func TestReviewService_Remove(t *testing.T) {
	svc, sched := newReviewService(t)
	sched.On("RemoveCard", mock.Anything, "c1").Return()

	require.NoError(t, svc.Remove(context.Background(), "c1"))
	assert.Error(t, svc.Remove(context.Background(), ""))
}
