// Package testutil provides common testing utilities shared across the
// datamask test files.
//
// It covers the recurring patterns: memory allocator setup, standard
// test frames with a grouping column, and value-level assertions on
// Arrow arrays.
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/datamask/internal/dataframe"
	"github.com/paveg/datamask/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultRowCount = 4

// TestMemoryContext provides a memory allocator with cleanup hook.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator for tests. Release with
// defer.
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewGoAllocator(),
		cleanup:   func() {},
	}
}

// TestDataFrameOption configures test DataFrame creation.
type TestDataFrameOption func(*testDataFrameConfig)

type testDataFrameConfig struct {
	rowCount   int
	withActive bool
}

// WithRowCount sets the number of rows in test data.
func WithRowCount(count int) TestDataFrameOption {
	return func(cfg *testDataFrameConfig) {
		cfg.rowCount = count
	}
}

// WithActiveColumn includes an 'active' boolean column.
func WithActiveColumn() TestDataFrameOption {
	return func(cfg *testDataFrameConfig) {
		cfg.withActive = true
	}
}

// CreateTestDataFrame creates a standard employee frame whose
// department column doubles as a grouping key.
//
// Default columns:
//   - name (string): ["Alice", "Bob", "Charlie", "David"]
//   - age (int64): [25, 30, 35, 28]
//   - department (string): ["Engineering", "Sales", "Engineering", "Marketing"]
//   - salary (int64): [100000, 80000, 120000, 75000]
func CreateTestDataFrame(allocator memory.Allocator, opts ...TestDataFrameOption) *dataframe.DataFrame {
	cfg := &testDataFrameConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}

	seriesList := []dataframe.ISeries{
		series.New("name", cycle(cfg.rowCount, baseNames), allocator),
		series.New("age", cycle(cfg.rowCount, baseAges), allocator),
		series.New("department", cycle(cfg.rowCount, baseDepartments), allocator),
		series.New("salary", cycle(cfg.rowCount, baseSalaries), allocator),
	}

	if cfg.withActive {
		seriesList = append(seriesList, series.New("active", cycle(cfg.rowCount, baseFlags), allocator))
	}

	return dataframe.New(seriesList...)
}

// CreateSimpleTestDataFrame creates a two-column frame for basic tests.
func CreateSimpleTestDataFrame(allocator memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("name", []string{"Alice", "Bob"}, allocator),
		series.New("age", []int64{25, 30}, allocator),
	)
}

var (
	baseNames       = []string{"Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry"}
	baseAges        = []int64{25, 30, 35, 28, 32, 45, 29, 38}
	baseDepartments = []string{"Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance", "Engineering", "Sales"}
	baseSalaries    = []int64{100000, 80000, 120000, 75000, 90000, 110000, 95000, 85000}
	baseFlags       = []bool{true, true, false, true, true, false, true, false}
)

func cycle[T any](count int, base []T) []T {
	values := make([]T, count)
	for i := range count {
		values[i] = base[i%len(base)]
	}
	return values
}

// AssertDataFrameEqual performs value-level comparison of DataFrames.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")

	for _, colName := range expected.Columns() {
		expectedCol, ok := expected.Column(colName)
		require.True(t, ok)
		actualCol, ok := actual.Column(colName)
		require.True(t, ok, "actual column %s should exist", colName)

		expectedArr := expectedCol.Array()
		actualArr := actualCol.Array()
		AssertArrayEqual(t, expectedArr, actualArr)
		expectedArr.Release()
		actualArr.Release()
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Len(t, df.Columns(), len(expectedColumns), "column count should match")

	for _, col := range expectedColumns {
		assert.True(t, df.HasColumn(col), "DataFrame should have column %s", col)
	}
}

// AssertDataFrameNotEmpty verifies that a DataFrame has rows and columns.
func AssertDataFrameNotEmpty(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Positive(t, df.Len(), "DataFrame should not be empty")
	assert.Positive(t, df.Width(), "DataFrame should have columns")
}

// AssertArrayEqual compares two Arrow arrays by type, length, null
// positions, and values.
func AssertArrayEqual(t *testing.T, expected, actual arrow.Array) {
	t.Helper()

	require.Equal(t, expected.DataType().ID(), actual.DataType().ID(), "array types should match")
	require.Equal(t, expected.Len(), actual.Len(), "array lengths should match")

	for i := 0; i < expected.Len(); i++ {
		require.Equal(t, expected.IsNull(i), actual.IsNull(i), "null mismatch at row %d", i)
		if expected.IsNull(i) {
			continue
		}
		assert.Equal(t, expected.ValueStr(i), actual.ValueStr(i), "value mismatch at row %d", i)
	}
}

// AssertInt64Array asserts the array is an Int64 column with the given
// values and no nulls.
func AssertInt64Array(t *testing.T, arr arrow.Array, want []int64) {
	t.Helper()

	typed, ok := arr.(*array.Int64)
	require.True(t, ok, "expected *array.Int64, got %T", arr)
	require.Equal(t, len(want), typed.Len())

	for i, v := range want {
		require.False(t, typed.IsNull(i), "unexpected null at row %d", i)
		assert.Equal(t, v, typed.Value(i), "row %d", i)
	}
}

// AssertFloat64Array asserts the array is a Float64 column with the
// given values and no nulls.
func AssertFloat64Array(t *testing.T, arr arrow.Array, want []float64) {
	t.Helper()

	typed, ok := arr.(*array.Float64)
	require.True(t, ok, "expected *array.Float64, got %T", arr)
	require.Equal(t, len(want), typed.Len())

	for i, v := range want {
		require.False(t, typed.IsNull(i), "unexpected null at row %d", i)
		assert.InDelta(t, v, typed.Value(i), 1e-9, "row %d", i)
	}
}

// AssertBooleanArray asserts the array is a Boolean column with the
// given values and no nulls.
func AssertBooleanArray(t *testing.T, arr arrow.Array, want []bool) {
	t.Helper()

	typed, ok := arr.(*array.Boolean)
	require.True(t, ok, "expected *array.Boolean, got %T", arr)
	require.Equal(t, len(want), typed.Len())

	for i, v := range want {
		require.False(t, typed.IsNull(i), "unexpected null at row %d", i)
		assert.Equal(t, v, typed.Value(i), "row %d", i)
	}
}
