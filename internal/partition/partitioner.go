package partition

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/paveg/datamask/internal/dataframe"
	"github.com/paveg/datamask/internal/errors"
)

// Constants for the grouping hash table.
const (
	tableLoadFactor     = 0.75       // load factor before resize
	tableGrowthFactor   = 2          // growth factor on resize
	tableCapacityFactor = 1.3        // capacity factor for initial size
	hashSignBitMask     = 0x7FFFFFFF // mask to remove sign bit from hash for positive modulo
)

// ByColumns partitions df by the distinct row values of the given
// columns. Partitions appear in first-occurrence order of their keys,
// so ordinals are deterministic for a given row order.
func ByColumns(df *dataframe.DataFrame, columns ...string) (*Groups, error) {
	if len(columns) == 0 {
		return nil, errors.NewInvalidInputError("ByColumns", "no grouping columns given")
	}
	for _, col := range columns {
		if !df.HasColumn(col) {
			return nil, errors.NewUnknownColumnError("ByColumns", col)
		}
	}

	rowCount := df.Len()
	if rowCount == 0 {
		return &Groups{}, nil
	}

	keyArrays := make([]arrow.Array, len(columns))
	for i, col := range columns {
		series, _ := df.Column(col)
		keyArrays[i] = series.Array()
	}
	defer func() {
		for _, arr := range keyArrays {
			arr.Release()
		}
	}()

	table := newGroupTable(rowCount)
	var rowSets [][]int
	for rowIdx := 0; rowIdx < rowCount; rowIdx++ {
		key := groupKey(keyArrays, rowIdx)
		slot, ok := table.lookup(key)
		if !ok {
			slot = len(rowSets)
			rowSets = append(rowSets, nil)
			table.insert(key, slot)
		}
		rowSets[slot] = append(rowSets[slot], rowIdx)
	}

	return FromIndices(rowSets), nil
}

// groupKey creates a unique string key for a row based on its values
// in the key columns.
func groupKey(keyArrays []arrow.Array, rowIdx int) string {
	keyParts := make([]string, 0, len(keyArrays))

	for _, arr := range keyArrays {
		if arr.IsNull(rowIdx) {
			keyParts = append(keyParts, "null")
			continue
		}

		switch typedArr := arr.(type) {
		case *array.String:
			keyParts = append(keyParts, typedArr.Value(rowIdx))
		case *array.Int64:
			keyParts = append(keyParts, fmt.Sprintf("%d", typedArr.Value(rowIdx)))
		case *array.Int32:
			keyParts = append(keyParts, fmt.Sprintf("%d", typedArr.Value(rowIdx)))
		case *array.Float64:
			keyParts = append(keyParts, fmt.Sprintf("%f", typedArr.Value(rowIdx)))
		case *array.Float32:
			keyParts = append(keyParts, fmt.Sprintf("%f", typedArr.Value(rowIdx)))
		case *array.Boolean:
			keyParts = append(keyParts, fmt.Sprintf("%t", typedArr.Value(rowIdx)))
		default:
			keyParts = append(keyParts, "unknown")
		}
	}

	return strings.Join(keyParts, "|")
}

// groupTable maps group keys to partition slots using xxhash.
type groupTable struct {
	buckets  [][]tableEntry
	capacity int
	size     int
}

type tableEntry struct {
	key  string
	slot int
}

func newGroupTable(estimatedSize int) *groupTable {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * tableCapacityFactor))
	return &groupTable{
		buckets:  make([][]tableEntry, capacity),
		capacity: capacity,
	}
}

func (gt *groupTable) bucketIdx(key string) int {
	hash := xxhash.Sum64String(key)
	//nolint:gosec // capacity is always positive
	return int((hash & hashSignBitMask) % uint64(gt.capacity))
}

// lookup returns the slot recorded for key.
func (gt *groupTable) lookup(key string) (int, bool) {
	for _, entry := range gt.buckets[gt.bucketIdx(key)] {
		if entry.key == key {
			return entry.slot, true
		}
	}
	return 0, false
}

// insert records a new key. The caller has checked the key is absent.
func (gt *groupTable) insert(key string, slot int) {
	idx := gt.bucketIdx(key)
	gt.buckets[idx] = append(gt.buckets[idx], tableEntry{key: key, slot: slot})
	gt.size++

	if float64(gt.size) > float64(gt.capacity)*tableLoadFactor {
		gt.resize()
	}
}

// resize doubles the capacity and rehashes all entries.
func (gt *groupTable) resize() {
	gt.capacity *= tableGrowthFactor
	newBuckets := make([][]tableEntry, gt.capacity)

	for _, bucket := range gt.buckets {
		for _, entry := range bucket {
			idx := gt.bucketIdx(entry.key)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	gt.buckets = newBuckets
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
