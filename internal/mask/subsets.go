// Package mask implements partition-aware evaluation contexts over
// Arrow-backed columns. A mask layers scopes so that expressions see
// the current partition's slice of each column, materialized lazily
// and cached until the partition changes.
package mask

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/datamask/internal/dataframe"
	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
)

// Subsets supplies partition slices of named columns. Get is
// idempotent per (name, partition): the first call materializes and
// caches, repeat calls serve the cache. Update retargets the provider
// to a new partition and drops the cache.
type Subsets interface {
	// Names returns the provided column names in stable order.
	Names() []string

	// Get returns the slice of name for partition ix. The returned
	// array is borrowed from the provider's cache; callers that keep
	// it must Retain. On materialization the value is also written
	// into dest so later scope lookups short-circuit.
	Get(name string, ix *partition.Index, dest *scope.Scope) (arrow.Array, error)

	// WholeColumn returns column i in full, bypassing partition
	// logic. The caller owns the returned array.
	WholeColumn(i int) (arrow.Array, error)

	// Update retargets the provider to ix, dropping every cached
	// slice and removing the corresponding names from dest.
	Update(ix *partition.Index, dest *scope.Scope) error

	// Clear drops all cached slices and forgets the current partition.
	Clear()
}

// Stats counts provider work for instrumentation.
type Stats struct {
	// Materializations is the number of column reads that actually
	// touched the backing data.
	Materializations int
	// CacheHits is the number of Get calls served from the cache.
	CacheHits int
}

// ColumnSubsets is the Arrow-backed Subsets over a DataFrame. It
// retains each source column for its lifetime; Close releases them.
type ColumnSubsets struct {
	mem     memory.Allocator
	names   []string
	lookup  map[string]int
	sources []arrow.Array
	cache   []arrow.Array
	current *partition.Index
	stats   Stats
}

// NewColumnSubsets builds a provider over the frame's columns. The
// sources are retained here and released by Close, so the caller may
// release the frame independently.
func NewColumnSubsets(df *dataframe.DataFrame, mem memory.Allocator) (*ColumnSubsets, error) {
	if df == nil {
		return nil, errs.NewInvalidInputError("NewColumnSubsets", "dataframe cannot be nil")
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	names := df.Columns()
	cs := &ColumnSubsets{
		mem:     mem,
		names:   names,
		lookup:  make(map[string]int, len(names)),
		sources: make([]arrow.Array, len(names)),
		cache:   make([]arrow.Array, len(names)),
	}
	for i, name := range names {
		col, ok := df.Column(name)
		if !ok {
			cs.Close()
			return nil, errs.NewUnknownColumnError("NewColumnSubsets", name)
		}
		cs.sources[i] = col.Array()
		cs.lookup[name] = i
	}
	return cs, nil
}

// Names returns the column names in frame order.
func (cs *ColumnSubsets) Names() []string {
	result := make([]string, len(cs.names))
	copy(result, cs.names)
	return result
}

// Get returns the slice of name for partition ix. ix must be the
// partition the provider was last updated to; anything else is a
// stale-update contract violation.
func (cs *ColumnSubsets) Get(name string, ix *partition.Index, dest *scope.Scope) (arrow.Array, error) {
	i, ok := cs.lookup[name]
	if !ok {
		return nil, errs.NewUnknownColumnError("Get", name)
	}
	if ix == nil {
		return nil, errs.NewInvalidInputError("Get", "nil partition index")
	}
	if ix != cs.current {
		return nil, errs.NewStaleUpdateError("Get",
			fmt.Sprintf("requested %s for a partition the provider was not updated to", name))
	}

	if cached := cs.cache[i]; cached != nil {
		cs.stats.CacheHits++
		return cached, nil
	}

	arr, err := cs.takeArray(cs.sources[i], ix)
	if err != nil {
		return nil, err
	}
	cs.stats.Materializations++
	cs.cache[i] = arr
	if dest != nil {
		dest.Define(name, arr)
	}
	return arr, nil
}

// WholeColumn returns column i in full. The caller owns the result.
func (cs *ColumnSubsets) WholeColumn(i int) (arrow.Array, error) {
	if i < 0 || i >= len(cs.sources) {
		return nil, errs.NewInvalidInputError("WholeColumn",
			fmt.Sprintf("column index %d out of range [0, %d)", i, len(cs.sources)))
	}
	src := cs.sources[i]
	src.Retain()
	cs.stats.Materializations++
	return src, nil
}

// Update retargets the provider to ix. Cached slices are released and
// their names removed from dest so the next resolution goes back
// through the provider.
func (cs *ColumnSubsets) Update(ix *partition.Index, dest *scope.Scope) error {
	if ix == nil {
		return errs.NewInvalidInputError("Update", "nil partition index")
	}
	for i, cached := range cs.cache {
		if cached == nil {
			continue
		}
		if dest != nil {
			dest.Remove(cs.names[i])
		}
		cached.Release()
		cs.cache[i] = nil
	}
	cs.current = ix
	return nil
}

// Clear drops all cached slices and forgets the current partition.
func (cs *ColumnSubsets) Clear() {
	for i, cached := range cs.cache {
		if cached != nil {
			cached.Release()
			cs.cache[i] = nil
		}
	}
	cs.current = nil
}

// Stats returns cumulative provider counters.
func (cs *ColumnSubsets) Stats() Stats {
	return cs.stats
}

// Close releases the cache and the retained sources. Idempotent.
func (cs *ColumnSubsets) Close() {
	cs.Clear()
	for i, src := range cs.sources {
		if src != nil {
			src.Release()
			cs.sources[i] = nil
		}
	}
}

// takeArray materializes the partition's rows out of src. A natural
// index is served zero-copy by retaining src; anything else copies
// through the matching builder, preserving nulls.
func (cs *ColumnSubsets) takeArray(src arrow.Array, ix *partition.Index) (arrow.Array, error) {
	if ix.IsNatural() {
		src.Retain()
		return src, nil
	}

	for _, row := range ix.Rows() {
		if row < 0 || row >= src.Len() {
			return nil, errs.NewInvalidInputError("Get",
				fmt.Sprintf("row %d out of range for column of length %d", row, src.Len()))
		}
	}

	switch arr := src.(type) {
	case *array.Int64:
		builder := array.NewInt64Builder(cs.mem)
		defer builder.Release()
		for _, row := range ix.Rows() {
			if arr.IsNull(row) {
				builder.AppendNull()
				continue
			}
			builder.Append(arr.Value(row))
		}
		return builder.NewArray(), nil
	case *array.Int32:
		builder := array.NewInt32Builder(cs.mem)
		defer builder.Release()
		for _, row := range ix.Rows() {
			if arr.IsNull(row) {
				builder.AppendNull()
				continue
			}
			builder.Append(arr.Value(row))
		}
		return builder.NewArray(), nil
	case *array.Float64:
		builder := array.NewFloat64Builder(cs.mem)
		defer builder.Release()
		for _, row := range ix.Rows() {
			if arr.IsNull(row) {
				builder.AppendNull()
				continue
			}
			builder.Append(arr.Value(row))
		}
		return builder.NewArray(), nil
	case *array.Float32:
		builder := array.NewFloat32Builder(cs.mem)
		defer builder.Release()
		for _, row := range ix.Rows() {
			if arr.IsNull(row) {
				builder.AppendNull()
				continue
			}
			builder.Append(arr.Value(row))
		}
		return builder.NewArray(), nil
	case *array.String:
		builder := array.NewStringBuilder(cs.mem)
		defer builder.Release()
		for _, row := range ix.Rows() {
			if arr.IsNull(row) {
				builder.AppendNull()
				continue
			}
			builder.Append(arr.Value(row))
		}
		return builder.NewArray(), nil
	case *array.Boolean:
		builder := array.NewBooleanBuilder(cs.mem)
		defer builder.Release()
		for _, row := range ix.Rows() {
			if arr.IsNull(row) {
				builder.AppendNull()
				continue
			}
			builder.Append(arr.Value(row))
		}
		return builder.NewArray(), nil
	default:
		return nil, errs.NewUnsupportedTypeError("Get", src.DataType().Name())
	}
}
