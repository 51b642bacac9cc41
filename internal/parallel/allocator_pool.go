package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// AllocatorPool manages a pool of memory allocators so concurrent
// evaluations never share one. Each worker takes an allocator for the
// duration of its chunk and returns it afterwards.
type AllocatorPool struct {
	pool     sync.Pool
	active   int64
	maxSize  int
	released bool
	mu       sync.RWMutex
}

// NewAllocatorPool creates a new allocator pool with the specified maximum size
func NewAllocatorPool(maxSize int) *AllocatorPool {
	if maxSize <= 0 {
		maxSize = runtime.NumCPU()
	}

	return &AllocatorPool{
		pool: sync.Pool{
			New: func() interface{} {
				return memory.NewGoAllocator()
			},
		},
		maxSize: maxSize,
	}
}

// Get retrieves an allocator from the pool
func (p *AllocatorPool) Get() memory.Allocator {
	p.mu.RLock()
	if p.released {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	atomic.AddInt64(&p.active, 1)
	alloc, ok := p.pool.Get().(memory.Allocator)
	if !ok {
		return memory.NewGoAllocator()
	}
	return alloc
}

// Put returns an allocator to the pool for reuse
func (p *AllocatorPool) Put(alloc memory.Allocator) {
	if alloc == nil {
		return
	}

	p.mu.RLock()
	if p.released {
		p.mu.RUnlock()
		return
	}
	p.mu.RUnlock()

	atomic.AddInt64(&p.active, -1)
	p.pool.Put(alloc)
}

// ActiveCount returns the number of allocators currently in use
func (p *AllocatorPool) ActiveCount() int64 {
	return atomic.LoadInt64(&p.active)
}

// Close shuts down the allocator pool
func (p *AllocatorPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
}
