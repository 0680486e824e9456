// Package testutil provides shared test doubles for the SDK packages.
package testutil

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockMetricsCollector records the measurements the HTTP client reports.
type MockMetricsCollector struct {
	mock.Mock
}

func (m *MockMetricsCollector) RecordRequestDuration(method, path string, statusCode int, duration time.Duration) {
	m.Called(method, path, statusCode, duration)
}

func (m *MockMetricsCollector) RecordRequestCount(method, path string, statusCode int) {
	m.Called(method, path, statusCode)
}

func (m *MockMetricsCollector) RecordRequestError(method, path string) {
	m.Called(method, path)
}
