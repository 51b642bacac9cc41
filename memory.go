package datamask

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable represents any resource that can be released to free memory.
//
// This interface is implemented by DataFrames, Series, Masks, and other
// resources that use Apache Arrow memory management. Always call Release()
// when done with a resource to prevent memory leaks.
//
// The recommended pattern is to use defer for automatic cleanup:
//
//	df := datamask.NewDataFrame(series1, series2)
//	defer df.Release() // Automatic cleanup
type Releasable interface {
	Release()
}

// MemoryManager helps track and release multiple resources automatically.
//
// MemoryManager is useful when an evaluation produces many short-lived
// resources that need bulk cleanup, such as the per-partition arrays
// returned by EvalAll. For most use cases, prefer the defer pattern with
// individual Release() calls for better readability.
//
// The MemoryManager is safe for concurrent use from multiple goroutines.
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex // Mutex to synchronize access to resources
}

// NewMemoryManager creates a new memory manager with the given allocator
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	return &MemoryManager{
		allocator: allocator,
		resources: make([]Releasable, 0),
	}
}

// Track adds a resource to be managed and automatically released
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources and clears the tracking list
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, resource := range m.resources {
		if resource != nil {
			resource.Release()
		}
	}
	m.resources = m.resources[:0] // Clear the slice but keep capacity
}

// WithDataFrame provides automatic resource management for DataFrame
// operations.
//
// The factory function creates and returns a DataFrame. The operation
// function receives the DataFrame and performs the desired work. The
// DataFrame is released when the operation returns, and any error from
// the operation function is returned to the caller.
//
// Example:
//
//	err := datamask.WithDataFrame(func() *datamask.DataFrame {
//		mem := memory.NewGoAllocator()
//		values := datamask.NewSeries("x", []int64{1, 2, 3}, mem)
//		return datamask.NewDataFrame(values)
//	}, func(df *datamask.DataFrame) error {
//		mk, err := datamask.NewMask(df, datamask.DefaultMaskOptions())
//		if err != nil {
//			return err
//		}
//		defer mk.Release()
//		out, err := mk.Eval(datamask.Col("x").Add(datamask.Lit(int64(1))), 0)
//		if err != nil {
//			return err
//		}
//		defer out.Release()
//		fmt.Println(out)
//		return nil
//	})
//	// DataFrame is automatically released here
func WithDataFrame(factory func() *DataFrame, fn func(*DataFrame) error) error {
	df := factory()
	defer df.Release()
	return fn(df)
}

// WithSeries creates a Series, executes a function with it, and automatically releases it
func WithSeries(factory func() ISeries, fn func(ISeries) error) error {
	s := factory()
	defer s.Release()
	return fn(s)
}

// WithMask builds a mask over the frame, executes a function with it, and
// releases the mask afterwards. Construction errors are returned before
// the function runs.
func WithMask(df *DataFrame, opts MaskOptions, fn func(*Mask) error) error {
	mk, err := NewMask(df, opts)
	if err != nil {
		return err
	}
	defer mk.Release()
	return fn(mk)
}

// WithMemoryManager creates a memory manager, executes a function with it, and releases all tracked resources
func WithMemoryManager(allocator memory.Allocator, fn func(*MemoryManager) error) error {
	manager := NewMemoryManager(allocator)
	defer manager.ReleaseAll()
	return fn(manager)
}
