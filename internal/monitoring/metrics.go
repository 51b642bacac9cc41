// Package monitoring provides performance metrics collection for mask evaluation.
package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// EvalMetrics records the cost of a single evaluation operation.
type EvalMetrics struct {
	Duration         time.Duration `json:"duration"`
	Partitions       int64         `json:"partitions"`
	Rows             int64         `json:"rows"`
	Materializations int64         `json:"materializations"`
	CacheHits        int64         `json:"cache_hits"`
	MemoryUsed       int64         `json:"memory_used"`
	Operation        string        `json:"operation"`
	Parallel         bool          `json:"parallel"`
}

// Collector accumulates evaluation metrics behind a mutex so parallel
// evaluations can report into a shared instance.
type Collector struct {
	mu      sync.RWMutex
	metrics []EvalMetrics
	enabled bool
}

// NewCollector creates a collector. A disabled collector records nothing
// and adds no overhead beyond the enabled check.
func NewCollector(enabled bool) *Collector {
	return &Collector{
		metrics: make([]EvalMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled reports whether metrics collection is active.
func (c *Collector) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles collection. Already-recorded metrics are kept.
func (c *Collector) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Record executes fn and records its duration and approximate allocation
// delta under the given operation name. The error from fn is returned
// unchanged; failed operations are recorded too.
func (c *Collector) Record(operation string, fn func() error) error {
	if !c.IsEnabled() {
		return fn()
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	c.RecordEval(EvalMetrics{
		Duration:   duration,
		MemoryUsed: int64(memAfter.Alloc - memBefore.Alloc), //nolint:gosec // Memory values are expected to be safe
		Operation:  operation,
	})

	return err
}

// RecordEval appends a fully populated record. Callers that already know
// their partition, row, and provider counters report through this instead
// of Record.
func (c *Collector) RecordEval(m EvalMetrics) {
	if !c.IsEnabled() {
		return
	}

	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	c.mu.Unlock()
}

// GetMetrics returns a copy of all collected records.
func (c *Collector) GetMetrics() []EvalMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]EvalMetrics, len(c.metrics))
	copy(result, c.metrics)
	return result
}

// Clear removes all collected records.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = c.metrics[:0]
}

// Summary aggregates the collected records.
func (c *Collector) Summary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.metrics) == 0 {
		return Summary{}
	}

	var s Summary
	s.OperationCounts = make(map[string]int)

	for _, m := range c.metrics {
		s.TotalDuration += m.Duration
		s.TotalMemory += m.MemoryUsed
		s.TotalPartitions += m.Partitions
		s.TotalRows += m.Rows
		s.TotalMaterializations += m.Materializations
		s.TotalCacheHits += m.CacheHits
		s.OperationCounts[m.Operation]++
	}

	s.TotalOperations = len(c.metrics)
	s.AverageDuration = s.TotalDuration / time.Duration(len(c.metrics))
	return s
}

// Summary provides aggregate statistics over collected records.
type Summary struct {
	TotalOperations       int            `json:"total_operations"`
	TotalDuration         time.Duration  `json:"total_duration"`
	TotalMemory           int64          `json:"total_memory"`
	TotalPartitions       int64          `json:"total_partitions"`
	TotalRows             int64          `json:"total_rows"`
	TotalMaterializations int64          `json:"total_materializations"`
	TotalCacheHits        int64          `json:"total_cache_hits"`
	OperationCounts       map[string]int `json:"operation_counts"`
	AverageDuration       time.Duration  `json:"average_duration"`
}
