package mocks

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/cache"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/timer"
)

// MockReviewService is a mock implementation of services.ReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Schedule(ctx context.Context) map[string]models.ReviewScheduleEntry {
	args := m.Called(ctx)
	return args.Get(0).(map[string]models.ReviewScheduleEntry)
}

func (m *MockReviewService) Due(ctx context.Context) []models.ReviewScheduleEntry {
	args := m.Called(ctx)
	return args.Get(0).([]models.ReviewScheduleEntry)
}

func (m *MockReviewService) Counts(ctx context.Context) models.ReviewCounts {
	args := m.Called(ctx)
	return args.Get(0).(models.ReviewCounts)
}

func (m *MockReviewService) Rate(ctx context.Context, cardID, difficulty string) (models.ReviewScheduleEntry, error) {
	args := m.Called(ctx, cardID, difficulty)
	return args.Get(0).(models.ReviewScheduleEntry), args.Error(1)
}

func (m *MockReviewService) Remove(ctx context.Context, cardID string) error {
	args := m.Called(ctx, cardID)
	return args.Error(0)
}

// MockGatewayService is a mock implementation of services.GatewayService
type MockGatewayService struct {
	mock.Mock
}

func (m *MockGatewayService) Fetch(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	args := m.Called(ctx, path, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockGatewayService) Warm(ctx context.Context, path string, query url.Values) error {
	args := m.Called(ctx, path, query)
	return args.Error(0)
}

// MockCacheService is a mock implementation of services.CacheService
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Stats(ctx context.Context) cache.Stats {
	args := m.Called(ctx)
	return args.Get(0).(cache.Stats)
}

func (m *MockCacheService) Clear(ctx context.Context, storage string) error {
	args := m.Called(ctx, storage)
	return args.Error(0)
}

func (m *MockCacheService) Warm(ctx context.Context, paths []string) (int, error) {
	args := m.Called(ctx, paths)
	return args.Int(0), args.Error(1)
}

// MockTimerService is a mock implementation of services.TimerService
type MockTimerService struct {
	mock.Mock
}

func (m *MockTimerService) Get(ctx context.Context, id string) (timer.Snapshot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(timer.Snapshot), args.Error(1)
}

func (m *MockTimerService) Apply(ctx context.Context, id, action string) (timer.Snapshot, error) {
	args := m.Called(ctx, id, action)
	return args.Get(0).(timer.Snapshot), args.Error(1)
}

func (m *MockTimerService) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
