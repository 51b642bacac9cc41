// Package partition describes row-index partitions of columnar data
// and derives them from grouping columns.
//
// An Index selects a subset of rows by position; a Groups value is an
// ordered partitioning whose ordinals are stable across evaluations.
// Indices do not copy or own their row slices.
package partition

import (
	"fmt"
)

// Index identifies one partition: which rows belong to it and where it
// sits in its partitioning. A nil row slice marks the natural index,
// which selects the whole range without materializing positions.
type Index struct {
	rows    []int
	length  int
	ordinal int
}

// NewIndex builds an index over the given rows. The slice is not
// copied; the caller keeps it alive while the index is in use.
func NewIndex(rows []int, ordinal int) *Index {
	return &Index{
		rows:    rows,
		length:  len(rows),
		ordinal: ordinal,
	}
}

// Natural builds the whole-range index over n rows.
func Natural(n int) *Index {
	return &Index{length: n}
}

// Rows returns the row positions, or nil for a natural index.
func (ix *Index) Rows() []int {
	return ix.rows
}

// Len returns the number of rows in the partition.
func (ix *Index) Len() int {
	return ix.length
}

// Ordinal returns the 0-based position of the partition in its
// partitioning.
func (ix *Index) Ordinal() int {
	return ix.ordinal
}

// IsNatural reports whether the index selects the whole range.
func (ix *Index) IsNatural() bool {
	return ix.rows == nil
}

func (ix *Index) String() string {
	if ix.IsNatural() {
		return fmt.Sprintf("partition %d (natural, %d rows)", ix.ordinal, ix.length)
	}
	return fmt.Sprintf("partition %d (%d rows)", ix.ordinal, ix.length)
}

// Groups is an ordered partitioning. Ordinals follow slice order.
type Groups struct {
	indices []*Index
	flat    bool
}

// Whole builds the single-partition partitioning over n rows. Masks
// built from it take the eager single-partition shape.
func Whole(n int) *Groups {
	return &Groups{
		indices: []*Index{Natural(n)},
		flat:    true,
	}
}

// FromIndices builds a partitioning from explicit row sets, assigning
// ordinals in slice order. Row slices are not copied.
func FromIndices(rowSets [][]int) *Groups {
	indices := make([]*Index, len(rowSets))
	for i, rows := range rowSets {
		indices[i] = NewIndex(rows, i)
	}
	return &Groups{indices: indices}
}

// Count returns the number of partitions.
func (g *Groups) Count() int {
	return len(g.indices)
}

// At returns the i-th partition.
func (g *Groups) At(i int) *Index {
	return g.indices[i]
}

// All returns the partitions in ordinal order.
func (g *Groups) All() []*Index {
	return append([]*Index(nil), g.indices...)
}

// Flat reports whether this is the single natural partitioning.
func (g *Groups) Flat() bool {
	return g.flat
}
