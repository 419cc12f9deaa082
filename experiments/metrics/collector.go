package metrics

import (
	"sync/atomic"
	"time"
)

// RunMetric summarizes one PSA run.
type RunMetric struct {
	Goroutines int
	Trials     int // requested
	Committed  int
	Skipped    int
	StartTime  time.Time
	Duration   time.Duration
}

type Collector interface {
	Start(goroutines, trials int)
	AddTrial()
	AddSkipped()
	Complete() RunMetric
}

type collector struct {
	goroutines int
	trials     int
	startTime  time.Time
	committed  atomic.Int64
	skipped    atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines, trials int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.trials = trials
	m.committed.Store(0)
	m.skipped.Store(0)
}

func (m *collector) AddTrial() {
	m.committed.Add(1)
}

func (m *collector) AddSkipped() {
	m.skipped.Add(1)
}

func (m *collector) Complete() RunMetric {
	return RunMetric{
		Goroutines: m.goroutines,
		Trials:     m.trials,
		Committed:  int(m.committed.Load()),
		Skipped:    int(m.skipped.Load()),
		StartTime:  m.startTime,
		Duration:   time.Since(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, trials int) {}
func (m *dummyCollector) AddTrial()                    {}
func (m *dummyCollector) AddSkipped()                  {}
func (m *dummyCollector) Complete() RunMetric          { return RunMetric{} }
