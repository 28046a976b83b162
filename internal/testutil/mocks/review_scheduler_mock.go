package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockReviewScheduler is a mock implementation of services.ReviewScheduler
type MockReviewScheduler struct {
	mock.Mock
}

func (m *MockReviewScheduler) RecordRating(ctx context.Context, cardID string, d models.Difficulty) models.ReviewScheduleEntry {
	args := m.Called(ctx, cardID, d)
	return args.Get(0).(models.ReviewScheduleEntry)
}

func (m *MockReviewScheduler) RemoveCard(ctx context.Context, cardID string) {
	m.Called(ctx, cardID)
}

func (m *MockReviewScheduler) LoadAll(ctx context.Context) map[string]models.ReviewScheduleEntry {
	args := m.Called(ctx)
	return args.Get(0).(map[string]models.ReviewScheduleEntry)
}

func (m *MockReviewScheduler) AggregateCounts(ctx context.Context, base time.Time) models.ReviewCounts {
	args := m.Called(ctx, base)
	return args.Get(0).(models.ReviewCounts)
}

func (m *MockReviewScheduler) Due(ctx context.Context, at time.Time) []models.ReviewScheduleEntry {
	args := m.Called(ctx, at)
	return args.Get(0).([]models.ReviewScheduleEntry)
}
