package measure

import (
	"sync"
	"time"
)

// TransportInfo accumulates the time one step spent waiting on a single
// input channel.
type TransportInfo struct {
	Elapsed time.Duration
	total   int64
}

func (ti *TransportInfo) add(elapsed time.Duration) {
	ti.Elapsed += elapsed
	ti.total++
}

// DefaultMetric records the timings of one step: compute time per element
// and wait time per input channel. All methods are safe for concurrent use,
// a stage with several workers reports into one metric.
type DefaultMetric struct {
	mu            sync.Mutex
	allTransports map[string]*TransportInfo
	stepElapsed   time.Duration
	endDuration   time.Duration
	total         int64
	workers       int
}

func newDefaultMetric(workers int) *DefaultMetric {
	return &DefaultMetric{
		allTransports: make(map[string]*TransportInfo),
		workers:       workers,
	}
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) AddTransportDuration(inputStepName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	info, ok := mt.allTransports[inputStepName]
	if !ok {
		info = &TransportInfo{}
		mt.allTransports[inputStepName] = info
	}
	info.add(elapsed)
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.endDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

// AVGDuration is the average compute time per element, zero when the step
// never processed one.
func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.total == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AVGTransportDuration folds the accumulated wait times into per-channel
// averages, normalised by the worker count of the step.
func (mt *DefaultMetric) AVGTransportDuration() map[string]*TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for _, info := range mt.allTransports {
		if info.Elapsed == 0 {
			continue
		}

		info.Elapsed = round(time.Duration(float64(info.Elapsed) / float64(info.total) / float64(mt.workers)))
	}

	return mt.allTransports
}

func (mt *DefaultMetric) AllTransports() map[string]*TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.allTransports
}

var _ Metric = (*DefaultMetric)(nil)

// round trims sub-resolution noise so labels stay readable.
func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		return d.Round(time.Second)
	case d > time.Millisecond:
		return d.Round(time.Millisecond)
	case d > time.Microsecond:
		return d.Round(time.Microsecond)
	}

	return d
}
