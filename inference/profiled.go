package inference

import (
	"context"
	"sync"
	"time"
)

// Metrics is a snapshot of the executor performance counters.
type Metrics struct {
	Runs          int64
	Failures      int64
	TotalTime     time.Duration
	AverageTime   time.Duration
	ThroughputFPS float64
}

// ProfiledExecutor wraps an Executor and tracks how many runs it served and how long they took.
type ProfiledExecutor struct {
	Executor

	mu        sync.RWMutex
	runs      int64
	failures  int64
	totalTime time.Duration
}

// NewProfiledExecutor wraps exec with performance tracking.
func NewProfiledExecutor(exec Executor) *ProfiledExecutor {
	return &ProfiledExecutor{Executor: exec}
}

// Run executes the wrapped executor and records its latency.
func (p *ProfiledExecutor) Run(ctx context.Context, inputs []Tensor) ([]Tensor, error) {
	start := time.Now()
	outputs, err := p.Executor.Run(ctx, inputs)
	elapsed := time.Since(start)

	p.mu.Lock()
	p.runs++
	p.totalTime += elapsed
	if err != nil {
		p.failures++
	}
	p.mu.Unlock()

	return outputs, err
}

// Metrics returns the current performance counters.
func (p *ProfiledExecutor) Metrics() Metrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m := Metrics{Runs: p.runs, Failures: p.failures, TotalTime: p.totalTime}
	if p.runs > 0 {
		m.AverageTime = p.totalTime / time.Duration(p.runs)
		if m.AverageTime > 0 {
			m.ThroughputFPS = float64(time.Second) / float64(m.AverageTime)
		}
	}
	return m
}

// ResetMetrics clears all performance counters.
func (p *ProfiledExecutor) ResetMetrics() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = 0
	p.failures = 0
	p.totalTime = 0
}
