// Package measure records per-step timings of a pipeline run: average
// compute duration per element and average time spent waiting on the input
// channels of each step.
package measure

import (
	"sort"
	"sync"
	"time"
)

type DefaultMeasure struct {
	mu    sync.Mutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string, workers int) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt := newDefaultMetric(workers)
	m.Steps[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps
}

var _ Measure = (*DefaultMeasure)(nil)

// StepTiming is one entry of the Ranking report.
type StepTiming struct {
	Name    string
	Average time.Duration
}

// Ranking returns the steps sorted by average compute duration, slowest
// first. Steps that never processed an element are skipped.
func Ranking(m Measure) []StepTiming {
	timings := make([]StepTiming, 0, len(m.AllMetrics()))
	for name, metric := range m.AllMetrics() {
		avg := metric.AVGDuration()
		if avg == 0 {
			continue
		}
		timings = append(timings, StepTiming{Name: name, Average: avg})
	}
	sort.Slice(timings, func(i, j int) bool {
		if timings[i].Average == timings[j].Average {
			return timings[i].Name < timings[j].Name
		}

		return timings[i].Average > timings[j].Average
	})

	return timings
}
