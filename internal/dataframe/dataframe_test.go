package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/datamask/internal/dataframe"
	"github.com/paveg/datamask/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrame(t *testing.T, mem memory.Allocator) *dataframe.DataFrame {
	t.Helper()
	ages := series.New("age", []int64{25, 30, 35}, mem)
	names := series.New("name", []string{"alice", "bob", "charlie"}, mem)
	return dataframe.New(ages, names)
}

func TestDataFrameBasics(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newTestFrame(t, mem)
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, 2, df.Width())
	assert.Equal(t, []string{"age", "name"}, df.Columns())
	assert.True(t, df.HasColumn("age"))
	assert.False(t, df.HasColumn("salary"))
}

func TestDataFrameColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newTestFrame(t, mem)
	defer df.Release()

	col, ok := df.Column("age")
	require.True(t, ok)
	assert.Equal(t, "age", col.Name())
	assert.Equal(t, 3, col.Len())

	_, ok = df.Column("missing")
	assert.False(t, ok)
}

func TestDataFrameColumnOrderPreserved(t *testing.T) {
	mem := memory.NewGoAllocator()
	c := series.New("c", []int64{1}, mem)
	a := series.New("a", []int64{2}, mem)
	b := series.New("b", []int64{3}, mem)
	df := dataframe.New(c, a, b)
	defer df.Release()

	assert.Equal(t, []string{"c", "a", "b"}, df.Columns())
}

func TestEmptyDataFrame(t *testing.T) {
	df := dataframe.New()
	defer df.Release()

	assert.Equal(t, 0, df.Len())
	assert.Equal(t, 0, df.Width())
	assert.Equal(t, "DataFrame[empty]", df.String())
}

func TestDataFrameString(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := newTestFrame(t, mem)
	defer df.Release()

	s := df.String()
	assert.Contains(t, s, "DataFrame[3x2]")
	assert.Contains(t, s, "age: int64")
	assert.Contains(t, s, "name: utf8")
}
