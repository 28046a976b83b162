package mocks

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of upstream.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	args := m.Called(ctx, path, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
