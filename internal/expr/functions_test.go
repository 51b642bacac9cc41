package expr

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/datamask/internal/scope"
)

func TestEvaluateSum(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	t.Run("int64 sums to int64", func(t *testing.T) {
		x := buildInt64(mem, []int64{5, 6, 7}, nil)
		defer x.Release()

		sc := scope.New()
		sc.Define("z", x)

		result, err := eval.Evaluate(Sum(Col("z")), sc)
		require.NoError(t, err)
		defer result.Release()

		require.Equal(t, 1, result.Len())
		assert.Equal(t, int64(18), result.(*array.Int64).Value(0))
	})

	t.Run("float64 sums to float64", func(t *testing.T) {
		x := buildFloat64(mem, []float64{1.5, 2.5}, nil)
		defer x.Release()

		sc := scope.New()
		sc.Define("v", x)

		result, err := eval.Evaluate(Sum(Col("v")), sc)
		require.NoError(t, err)
		defer result.Release()

		require.Equal(t, 1, result.Len())
		assert.Equal(t, 4.0, result.(*array.Float64).Value(0))
	})

	t.Run("nulls are skipped", func(t *testing.T) {
		x := buildInt64(mem, []int64{1, 0, 3}, []bool{true, false, true})
		defer x.Release()

		sc := scope.New()
		sc.Define("v", x)

		result, err := eval.Evaluate(Sum(Col("v")), sc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, int64(4), result.(*array.Int64).Value(0))
	})

	t.Run("sum over expression", func(t *testing.T) {
		x := buildInt64(mem, []int64{1, 2}, nil)
		defer x.Release()
		y := buildInt64(mem, []int64{10, 20}, nil)
		defer y.Release()

		sc := scope.New()
		sc.Define("x", x)
		sc.Define("y", y)

		result, err := eval.Evaluate(Sum(Col("x").Add(Col("y"))), sc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, int64(33), result.(*array.Int64).Value(0))
	})

	t.Run("string input rejected", func(t *testing.T) {
		x := buildString(mem, []string{"a"}, nil)
		defer x.Release()

		sc := scope.New()
		sc.Define("s", x)

		_, err := eval.Evaluate(Sum(Col("s")), sc)
		require.Error(t, err)
	})
}

func TestEvaluateMean(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	t.Run("int input averages as float64", func(t *testing.T) {
		x := buildInt64(mem, []int64{1, 2, 3, 4}, nil)
		defer x.Release()

		sc := scope.New()
		sc.Define("v", x)

		result, err := eval.Evaluate(Mean(Col("v")), sc)
		require.NoError(t, err)
		defer result.Release()

		require.Equal(t, 1, result.Len())
		assert.Equal(t, 2.5, result.(*array.Float64).Value(0))
	})

	t.Run("all nulls yield null", func(t *testing.T) {
		x := buildInt64(mem, []int64{0, 0}, []bool{false, false})
		defer x.Release()

		sc := scope.New()
		sc.Define("v", x)

		result, err := eval.Evaluate(Mean(Col("v")), sc)
		require.NoError(t, err)
		defer result.Release()

		assert.True(t, result.IsNull(0))
	})
}

func TestEvaluateCount(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	// Count covers all rows, null entries included.
	x := buildInt64(mem, []int64{1, 0, 3}, []bool{true, false, true})
	defer x.Release()

	sc := scope.New()
	sc.Define("v", x)

	result, err := eval.Evaluate(Count(Col("v")), sc)
	require.NoError(t, err)
	defer result.Release()

	require.Equal(t, 1, result.Len())
	assert.Equal(t, int64(3), result.(*array.Int64).Value(0))
}

func TestEvaluateMinMax(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	x := buildInt64(mem, []int64{7, 2, 9, 4}, nil)
	defer x.Release()

	sc := scope.New()
	sc.Define("v", x)

	t.Run("min", func(t *testing.T) {
		result, err := eval.Evaluate(Min(Col("v")), sc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, int64(2), result.(*array.Int64).Value(0))
	})

	t.Run("max", func(t *testing.T) {
		result, err := eval.Evaluate(Max(Col("v")), sc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, int64(9), result.(*array.Int64).Value(0))
	})

	t.Run("min keeps float type", func(t *testing.T) {
		f := buildFloat64(mem, []float64{3.5, 1.25}, nil)
		defer f.Release()

		fsc := scope.New()
		fsc.Define("f", f)

		result, err := eval.Evaluate(Min(Col("f")), fsc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, 1.25, result.(*array.Float64).Value(0))
	})

	t.Run("empty input yields null", func(t *testing.T) {
		empty := buildInt64(mem, nil, nil)
		defer empty.Release()

		esc := scope.New()
		esc.Define("e", empty)

		result, err := eval.Evaluate(Max(Col("e")), esc)
		require.NoError(t, err)
		defer result.Release()

		assert.True(t, result.IsNull(0))
	})
}

func TestEvaluateAbs(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	x := buildInt64(mem, []int64{-3, 0, 5}, nil)
	defer x.Release()

	sc := scope.New()
	sc.Define("v", x)

	result, err := eval.Evaluate(Abs(Col("v")), sc)
	require.NoError(t, err)
	defer result.Release()

	assert.Equal(t, []int64{3, 0, 5}, result.(*array.Int64).Int64Values())
}

func TestEvaluateRounding(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	x := buildFloat64(mem, []float64{1.4, 1.6, -1.5}, nil)
	defer x.Release()

	sc := scope.New()
	sc.Define("v", x)

	tests := []struct {
		name     string
		expr     Expr
		expected []float64
	}{
		{"round", Round(Col("v")), []float64{1, 2, -2}},
		{"floor", Floor(Col("v")), []float64{1, 1, -2}},
		{"ceil", Ceil(Col("v")), []float64{2, 2, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.Evaluate(tt.expr, sc)
			require.NoError(t, err)
			defer result.Release()

			assert.Equal(t, tt.expected, result.(*array.Float64).Float64Values())
		})
	}

	t.Run("integers pass through", func(t *testing.T) {
		i := buildInt64(mem, []int64{4, 5}, nil)
		defer i.Release()

		isc := scope.New()
		isc.Define("i", i)

		result, err := eval.Evaluate(Round(Col("i")), isc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, []int64{4, 5}, result.(*array.Int64).Int64Values())
	})
}

func TestEvaluateSqrt(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	x := buildInt64(mem, []int64{4, 9, 16}, nil)
	defer x.Release()

	sc := scope.New()
	sc.Define("v", x)

	result, err := eval.Evaluate(Sqrt(Col("v")), sc)
	require.NoError(t, err)
	defer result.Release()

	assert.Equal(t, []float64{2, 3, 4}, result.(*array.Float64).Float64Values())
}

func TestEvaluateStringFunctions(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	names := buildString(mem, []string{"  Alice ", "bob"}, nil)
	defer names.Release()

	sc := scope.New()
	sc.Define("name", names)

	t.Run("upper", func(t *testing.T) {
		result, err := eval.Evaluate(Upper(Col("name")), sc)
		require.NoError(t, err)
		defer result.Release()

		strResult := result.(*array.String)
		assert.Equal(t, "  ALICE ", strResult.Value(0))
		assert.Equal(t, "BOB", strResult.Value(1))
	})

	t.Run("trim", func(t *testing.T) {
		result, err := eval.Evaluate(Trim(Col("name")), sc)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, "Alice", result.(*array.String).Value(0))
	})

	t.Run("length counts runes", func(t *testing.T) {
		unicode := buildString(mem, []string{"héllo", "ab"}, nil)
		defer unicode.Release()

		usc := scope.New()
		usc.Define("s", unicode)

		result, err := eval.Evaluate(Length(Col("s")), usc)
		require.NoError(t, err)
		defer result.Release()

		int64Result := result.(*array.Int64)
		assert.Equal(t, int64(5), int64Result.Value(0))
		assert.Equal(t, int64(2), int64Result.Value(1))
	})

	t.Run("numeric input rejected", func(t *testing.T) {
		nums := buildInt64(mem, []int64{1}, nil)
		defer nums.Release()

		nsc := scope.New()
		nsc.Define("n", nums)

		_, err := eval.Evaluate(Upper(Col("n")), nsc)
		require.Error(t, err)
	})
}

func TestEvaluateFunctionErrors(t *testing.T) {
	mem := memory.NewGoAllocator()
	eval := NewEvaluator(mem)

	t.Run("unsupported function name", func(t *testing.T) {
		x := buildInt64(mem, []int64{1}, nil)
		defer x.Release()

		sc := scope.New()
		sc.Define("x", x)

		_, err := eval.Evaluate(NewFunction("median", Col("x")), sc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported function")
	})

	t.Run("wrong argument count", func(t *testing.T) {
		_, err := eval.Evaluate(NewFunction("sum"), scope.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one argument")
	})
}
