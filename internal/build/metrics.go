package build

import (
	"sync"
	"time"
)

// PageResult is the outcome of compiling and writing one view.
type PageResult struct {
	Source      string
	Destination string
	Duration    time.Duration
	Error       error
}

// Metrics tracks what a builder has done across walks.
type Metrics struct {
	compiled      int64
	failed        int64
	totalDuration time.Duration
	mutex         sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Pages           int64
	Compiled        int64
	Failed          int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordPage records a page result.
func (m *Metrics) RecordPage(result PageResult) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalDuration += result.Duration
	if result.Error != nil {
		m.failed++
	} else {
		m.compiled++
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s := MetricsSnapshot{
		Pages:         m.compiled + m.failed,
		Compiled:      m.compiled,
		Failed:        m.failed,
		TotalDuration: m.totalDuration,
	}
	if s.Pages > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(s.Pages)
	}

	return s
}

// SuccessRate returns the share of pages that compiled and wrote, as a
// percentage.
func (s MetricsSnapshot) SuccessRate() float64 {
	if s.Pages == 0 {
		return 0.0
	}

	return float64(s.Compiled) / float64(s.Pages) * 100.0
}
