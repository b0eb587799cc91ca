package ml

import (
	"context"
	"sync"

	"github.com/mandrita16/WastePrediction/internal/dataset"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu             sync.Mutex
	predictions    int
	fetchFailures  int
	broadMatches   int
	defaultResults int
	latencySum     float64
	predictedKg    []float64
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) FetchFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchFailures++
}

func (m *MockMetrics) BroadMatchInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadMatches++
}

func (m *MockMetrics) DefaultResultInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResults++
}

func (m *MockMetrics) LatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) PredictedWasteObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictedKg = append(m.predictedKg, v)
}

// StaticSource serves a fixed snapshot of records, or Err when set.
type StaticSource struct {
	Records []dataset.EventRecord
	Err     error
	Calls   int
}

func (s *StaticSource) Load(ctx context.Context) ([]dataset.EventRecord, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]dataset.EventRecord(nil), s.Records...), nil
}
