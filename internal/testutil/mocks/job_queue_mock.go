package mocks

import (
	"net/url"

	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueWarm(path string, query url.Values) error {
	args := m.Called(path, query)
	return args.Error(0)
}

func (m *MockJobQueue) Pending() int {
	args := m.Called()
	return args.Int(0)
}
