package mask

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/datamask/internal/dataframe"
	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
	"github.com/paveg/datamask/internal/series"
)

// newTestFrame builds the x/y frame most scenarios run against.
func newTestFrame(mem memory.Allocator) *dataframe.DataFrame {
	xs := series.New("x", []int64{1, 2, 3}, mem)
	ys := series.New("y", []int64{10, 20, 30}, mem)
	return dataframe.New(xs, ys)
}

func newTestSubsets(t *testing.T, mem memory.Allocator) *ColumnSubsets {
	t.Helper()
	df := newTestFrame(mem)
	defer df.Release()

	cs, err := NewColumnSubsets(df, mem)
	require.NoError(t, err)
	return cs
}

func TestColumnSubsetsNames(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	assert.Equal(t, []string{"x", "y"}, cs.Names())
}

func TestColumnSubsetsGetMaterializesOnce(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	ix := partition.NewIndex([]int{0, 1}, 0)
	dest := scope.New()
	require.NoError(t, cs.Update(ix, dest))

	first, err := cs.Get("x", ix, dest)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, first.(*array.Int64).Int64Values())

	second, err := cs.Get("x", ix, dest)
	require.NoError(t, err)
	assert.Same(t, first, second)

	stats := cs.Stats()
	assert.Equal(t, 1, stats.Materializations)
	assert.Equal(t, 1, stats.CacheHits)
}

func TestColumnSubsetsGetWritesToDest(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	ix := partition.NewIndex([]int{2}, 1)
	dest := scope.New()
	require.NoError(t, cs.Update(ix, dest))

	assert.False(t, dest.Has("x"))
	_, err := cs.Get("x", ix, dest)
	require.NoError(t, err)
	assert.True(t, dest.Has("x"))
}

func TestColumnSubsetsNaturalIndexZeroCopy(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	ix := partition.Natural(3)
	require.NoError(t, cs.Update(ix, nil))

	arr, err := cs.Get("y", ix, nil)
	require.NoError(t, err)

	// The natural index serves the retained source itself.
	assert.Same(t, cs.sources[1], arr)
	assert.Equal(t, []int64{10, 20, 30}, arr.(*array.Int64).Int64Values())
}

func TestColumnSubsetsUnknownColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	ix := partition.Natural(3)
	require.NoError(t, cs.Update(ix, nil))

	_, err := cs.Get("z", ix, nil)
	require.Error(t, err)
	assert.True(t, errs.IsUnknownColumn(err))
}

func TestColumnSubsetsStaleIndex(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	current := partition.NewIndex([]int{0, 1}, 0)
	other := partition.NewIndex([]int{2}, 1)
	require.NoError(t, cs.Update(current, nil))

	_, err := cs.Get("x", other, nil)
	require.Error(t, err)
	assert.True(t, errs.IsStale(err))

	// Never updated at all counts as stale too.
	fresh := newTestSubsets(t, mem)
	defer fresh.Close()
	_, err = fresh.Get("x", current, nil)
	require.Error(t, err)
	assert.True(t, errs.IsStale(err))
}

func TestColumnSubsetsUpdateDropsCache(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	p0 := partition.NewIndex([]int{0, 1}, 0)
	p1 := partition.NewIndex([]int{2}, 1)
	dest := scope.New()

	require.NoError(t, cs.Update(p0, dest))
	_, err := cs.Get("x", p0, dest)
	require.NoError(t, err)
	require.True(t, dest.Has("x"))

	require.NoError(t, cs.Update(p1, dest))
	assert.False(t, dest.Has("x"))

	arr, err := cs.Get("x", p1, dest)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, arr.(*array.Int64).Int64Values())
	assert.Equal(t, 2, cs.Stats().Materializations)
}

func TestColumnSubsetsWholeColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	arr, err := cs.WholeColumn(0)
	require.NoError(t, err)
	defer arr.Release()

	assert.Equal(t, []int64{1, 2, 3}, arr.(*array.Int64).Int64Values())

	_, err = cs.WholeColumn(5)
	require.Error(t, err)
}

func TestColumnSubsetsNullPreservation(t *testing.T) {
	mem := memory.NewGoAllocator()

	builder := array.NewInt64Builder(mem)
	builder.AppendValues([]int64{1, 0, 3}, []bool{true, false, true})
	arr := builder.NewArray()
	builder.Release()
	defer arr.Release()

	vs := series.FromArray("v", arr)
	df := dataframe.New(vs)
	defer df.Release()

	cs, err := NewColumnSubsets(df, mem)
	require.NoError(t, err)
	defer cs.Close()

	ix := partition.NewIndex([]int{0, 1}, 0)
	require.NoError(t, cs.Update(ix, nil))

	got, err := cs.Get("v", ix, nil)
	require.NoError(t, err)

	int64Got := got.(*array.Int64)
	assert.Equal(t, int64(1), int64Got.Value(0))
	assert.True(t, int64Got.IsNull(1))
}

func TestColumnSubsetsStringAndBool(t *testing.T) {
	mem := memory.NewGoAllocator()

	names := series.New("name", []string{"a", "b", "c"}, mem)
	flags := series.New("flag", []bool{true, false, true}, mem)
	df := dataframe.New(names, flags)
	defer df.Release()

	cs, err := NewColumnSubsets(df, mem)
	require.NoError(t, err)
	defer cs.Close()

	ix := partition.NewIndex([]int{2, 0}, 0)
	require.NoError(t, cs.Update(ix, nil))

	strArr, err := cs.Get("name", ix, nil)
	require.NoError(t, err)
	assert.Equal(t, "c", strArr.(*array.String).Value(0))
	assert.Equal(t, "a", strArr.(*array.String).Value(1))

	boolArr, err := cs.Get("flag", ix, nil)
	require.NoError(t, err)
	assert.True(t, boolArr.(*array.Boolean).Value(0))
	assert.True(t, boolArr.(*array.Boolean).Value(1))
}

func TestColumnSubsetsRowOutOfRange(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	ix := partition.NewIndex([]int{0, 99}, 0)
	require.NoError(t, cs.Update(ix, nil))

	_, err := cs.Get("x", ix, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestColumnSubsetsClear(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)
	defer cs.Close()

	ix := partition.NewIndex([]int{0}, 0)
	require.NoError(t, cs.Update(ix, nil))
	_, err := cs.Get("x", ix, nil)
	require.NoError(t, err)

	cs.Clear()

	// Current partition forgotten: the old index is stale now.
	_, err = cs.Get("x", ix, nil)
	require.Error(t, err)
	assert.True(t, errs.IsStale(err))
}

func TestColumnSubsetsCloseIdempotent(t *testing.T) {
	mem := memory.NewGoAllocator()
	cs := newTestSubsets(t, mem)

	cs.Close()
	cs.Close()
}
