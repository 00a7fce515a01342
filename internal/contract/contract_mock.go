package contract

import (
	"context"

	"github.com/huangsam/liftwatch/schema"
	"github.com/stretchr/testify/mock"
)

// MockRecordSource is a mock implementation of RecordSource for testing.
type MockRecordSource struct {
	mock.Mock
}

var _ RecordSource = &MockRecordSource{} // Compile-time check

// DistinctPeriods implements the RecordSource interface.
func (m *MockRecordSource) DistinctPeriods(ctx context.Context, dataset string, field string, limit int) ([]string, error) {
	args := m.Called(ctx, dataset, field, limit)
	periods, _ := args.Get(0).([]string)
	return periods, args.Error(1)
}

// Fetch implements the RecordSource interface.
func (m *MockRecordSource) Fetch(ctx context.Context, dataset string, q schema.Query) ([]schema.StationRecord, error) {
	args := m.Called(ctx, dataset, q)
	records, _ := args.Get(0).([]schema.StationRecord)
	return records, args.Error(1)
}

// MockChartPublisher is a mock implementation of ChartPublisher for testing.
type MockChartPublisher struct {
	mock.Mock
}

var _ ChartPublisher = &MockChartPublisher{} // Compile-time check

// Publish implements the ChartPublisher interface.
func (m *MockChartPublisher) Publish(ctx context.Context, chartID string, table schema.ChartTable, title string) error {
	args := m.Called(ctx, chartID, table, title)
	return args.Error(0)
}
