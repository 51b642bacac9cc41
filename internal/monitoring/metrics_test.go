//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("create disabled collector", func(t *testing.T) {
		c := NewCollector(false)
		assert.NotNil(t, c)
		assert.False(t, c.IsEnabled())
		assert.Empty(t, c.GetMetrics())
	})

	t.Run("create enabled collector", func(t *testing.T) {
		c := NewCollector(true)
		assert.True(t, c.IsEnabled())
		assert.Empty(t, c.GetMetrics())
	})

	t.Run("disabled collector still runs the operation", func(t *testing.T) {
		c := NewCollector(false)

		callCount := 0
		err := c.Record("eval", func() error {
			callCount++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, c.GetMetrics())
	})

	t.Run("record wraps the operation", func(t *testing.T) {
		c := NewCollector(true)

		err := c.Record("eval", func() error {
			time.Sleep(5 * time.Millisecond)
			return nil
		})

		require.NoError(t, err)
		metrics := c.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "eval", metrics[0].Operation)
		assert.Greater(t, metrics[0].Duration, 2*time.Millisecond)
	})

	t.Run("errors are returned unchanged and still recorded", func(t *testing.T) {
		c := NewCollector(true)

		err := c.Record("eval", func() error {
			return assert.AnError
		})

		assert.Equal(t, assert.AnError, err)
		require.Len(t, c.GetMetrics(), 1)
	})

	t.Run("record eval keeps caller counters", func(t *testing.T) {
		c := NewCollector(true)

		c.RecordEval(EvalMetrics{
			Duration:         10 * time.Millisecond,
			Partitions:       4,
			Rows:             1000,
			Materializations: 8,
			CacheHits:        12,
			Operation:        "eval_all",
			Parallel:         true,
		})

		metrics := c.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, int64(4), metrics[0].Partitions)
		assert.Equal(t, int64(8), metrics[0].Materializations)
		assert.Equal(t, int64(12), metrics[0].CacheHits)
		assert.True(t, metrics[0].Parallel)
	})

	t.Run("record eval is a no-op when disabled", func(t *testing.T) {
		c := NewCollector(false)
		c.RecordEval(EvalMetrics{Operation: "eval"})
		assert.Empty(t, c.GetMetrics())
	})

	t.Run("clear", func(t *testing.T) {
		c := NewCollector(true)
		c.RecordEval(EvalMetrics{Operation: "eval"})
		require.Len(t, c.GetMetrics(), 1)

		c.Clear()
		assert.Empty(t, c.GetMetrics())
	})

	t.Run("set enabled toggles collection", func(t *testing.T) {
		c := NewCollector(false)
		c.SetEnabled(true)
		assert.True(t, c.IsEnabled())

		c.RecordEval(EvalMetrics{Operation: "eval"})
		assert.Len(t, c.GetMetrics(), 1)
	})
}

func TestCollectorSummary(t *testing.T) {
	t.Run("empty collector", func(t *testing.T) {
		c := NewCollector(true)
		assert.Equal(t, Summary{}, c.Summary())
	})

	t.Run("aggregates across records", func(t *testing.T) {
		c := NewCollector(true)

		c.RecordEval(EvalMetrics{
			Duration:         10 * time.Millisecond,
			Partitions:       2,
			Rows:             3,
			Materializations: 2,
			CacheHits:        1,
			Operation:        "eval",
		})
		c.RecordEval(EvalMetrics{
			Duration:         30 * time.Millisecond,
			Partitions:       8,
			Rows:             100,
			Materializations: 16,
			CacheHits:        4,
			Operation:        "eval_all",
			Parallel:         true,
		})
		c.RecordEval(EvalMetrics{
			Duration:  20 * time.Millisecond,
			Operation: "eval",
		})

		s := c.Summary()
		assert.Equal(t, 3, s.TotalOperations)
		assert.Equal(t, 60*time.Millisecond, s.TotalDuration)
		assert.Equal(t, 20*time.Millisecond, s.AverageDuration)
		assert.Equal(t, int64(10), s.TotalPartitions)
		assert.Equal(t, int64(103), s.TotalRows)
		assert.Equal(t, int64(18), s.TotalMaterializations)
		assert.Equal(t, int64(5), s.TotalCacheHits)
		assert.Equal(t, 2, s.OperationCounts["eval"])
		assert.Equal(t, 1, s.OperationCounts["eval_all"])
	})
}

func TestCollectorConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency tests in short mode")
	}

	t.Run("concurrent records", func(t *testing.T) {
		c := NewCollector(true)

		numOps := 10
		done := make(chan bool, numOps)

		for range numOps {
			go func() {
				defer func() { done <- true }()

				err := c.Record("concurrent_eval", func() error {
					time.Sleep(1 * time.Millisecond)
					return nil
				})
				assert.NoError(t, err)
			}()
		}

		for range numOps {
			<-done
		}

		metrics := c.GetMetrics()
		assert.Len(t, metrics, numOps)

		for _, m := range metrics {
			assert.Equal(t, "concurrent_eval", m.Operation)
		}
	})
}
