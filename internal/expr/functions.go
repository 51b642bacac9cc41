package expr

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/paveg/datamask/internal/scope"
)

// floatMod is the modulo for floating point operands.
func floatMod(l, r float64) float64 {
	return math.Mod(l, r)
}

// evaluateFunction dispatches named functions. Aggregations reduce
// their argument to a length-1 array; scalar functions map
// element-wise.
func (e *Evaluator) evaluateFunction(expr *FunctionExpr, sc *scope.Scope) (arrow.Array, error) {
	if len(expr.args) != 1 {
		return nil, fmt.Errorf("function %s expects exactly one argument, got %d", expr.name, len(expr.args))
	}

	arg, err := e.Evaluate(expr.args[0], sc)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s argument: %w", expr.name, err)
	}
	defer arg.Release()

	switch expr.name {
	case AggNameSum:
		return e.evaluateSum(arg)
	case AggNameMean:
		return e.evaluateMean(arg)
	case AggNameCount:
		return e.evaluateCount(arg)
	case AggNameMin, AggNameMax:
		return e.evaluateMinMax(arg, expr.name)
	case "abs":
		return e.evaluateAbs(arg)
	case "round":
		return e.evaluateRounding(arg, math.Round)
	case "floor":
		return e.evaluateRounding(arg, math.Floor)
	case "ceil":
		return e.evaluateRounding(arg, math.Ceil)
	case "sqrt":
		return e.evaluateFloatFunc(arg, math.Sqrt)
	case "log":
		return e.evaluateFloatFunc(arg, math.Log)
	case "upper":
		return e.evaluateStringFunc(arg, expr.name, strings.ToUpper)
	case "lower":
		return e.evaluateStringFunc(arg, expr.name, strings.ToLower)
	case "trim":
		return e.evaluateStringFunc(arg, expr.name, strings.TrimSpace)
	case "length":
		return e.evaluateStringLength(arg)
	default:
		return nil, fmt.Errorf("unsupported function: %s", expr.name)
	}
}

// evaluateSum reduces to a length-1 array. Integer inputs sum as
// int64, floats as float64. Nulls are skipped; an empty or all-null
// input sums to zero.
func (e *Evaluator) evaluateSum(arg arrow.Array) (arrow.Array, error) {
	switch arr := arg.(type) {
	case *array.Int64:
		var total int64
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += arr.Value(i)
			}
		}
		return e.int64Scalar(total), nil
	case *array.Int32:
		var total int64
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += int64(arr.Value(i))
			}
		}
		return e.int64Scalar(total), nil
	case *array.Float64:
		var total float64
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += arr.Value(i)
			}
		}
		return e.float64Scalar(total), nil
	case *array.Float32:
		var total float64
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += float64(arr.Value(i))
			}
		}
		return e.float64Scalar(total), nil
	default:
		return nil, fmt.Errorf("sum requires a numeric argument, got %s", arg.DataType().Name())
	}
}

// evaluateMean reduces to a length-1 float64 array. Nulls are
// skipped; with no values the result is null.
func (e *Evaluator) evaluateMean(arg arrow.Array) (arrow.Array, error) {
	var total float64
	var count int64

	switch arr := arg.(type) {
	case *array.Int64:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += float64(arr.Value(i))
				count++
			}
		}
	case *array.Int32:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += float64(arr.Value(i))
				count++
			}
		}
	case *array.Float64:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += arr.Value(i)
				count++
			}
		}
	case *array.Float32:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				total += float64(arr.Value(i))
				count++
			}
		}
	default:
		return nil, fmt.Errorf("mean requires a numeric argument, got %s", arg.DataType().Name())
	}

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	if count == 0 {
		builder.AppendNull()
	} else {
		builder.Append(total / float64(count))
	}
	return builder.NewArray(), nil
}

// evaluateCount counts all rows of the argument, nulls included.
func (e *Evaluator) evaluateCount(arg arrow.Array) (arrow.Array, error) {
	return e.int64Scalar(int64(arg.Len())), nil
}

// evaluateMinMax keeps the argument type. Nulls are skipped; with no
// values the result is null.
func (e *Evaluator) evaluateMinMax(arg arrow.Array, aggName string) (arrow.Array, error) {
	want := aggName == AggNameMax

	switch arr := arg.(type) {
	case *array.Int64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		var best int64
		seen := false
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			v := arr.Value(i)
			if !seen || (want && v > best) || (!want && v < best) {
				best = v
			}
			seen = true
		}
		if !seen {
			builder.AppendNull()
		} else {
			builder.Append(best)
		}
		return builder.NewArray(), nil
	case *array.Int32:
		builder := array.NewInt32Builder(e.mem)
		defer builder.Release()
		var best int32
		seen := false
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			v := arr.Value(i)
			if !seen || (want && v > best) || (!want && v < best) {
				best = v
			}
			seen = true
		}
		if !seen {
			builder.AppendNull()
		} else {
			builder.Append(best)
		}
		return builder.NewArray(), nil
	case *array.Float64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		var best float64
		seen := false
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			v := arr.Value(i)
			if !seen || (want && v > best) || (!want && v < best) {
				best = v
			}
			seen = true
		}
		if !seen {
			builder.AppendNull()
		} else {
			builder.Append(best)
		}
		return builder.NewArray(), nil
	case *array.Float32:
		builder := array.NewFloat32Builder(e.mem)
		defer builder.Release()
		var best float32
		seen := false
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			v := arr.Value(i)
			if !seen || (want && v > best) || (!want && v < best) {
				best = v
			}
			seen = true
		}
		if !seen {
			builder.AppendNull()
		} else {
			builder.Append(best)
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("%s requires a numeric argument, got %s", aggName, arg.DataType().Name())
	}
}

func (e *Evaluator) evaluateAbs(arg arrow.Array) (arrow.Array, error) {
	switch arr := arg.(type) {
	case *array.Int64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			v := arr.Value(i)
			if v < 0 {
				v = -v
			}
			builder.Append(v)
		}
		return builder.NewArray(), nil
	case *array.Int32:
		builder := array.NewInt32Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			v := arr.Value(i)
			if v < 0 {
				v = -v
			}
			builder.Append(v)
		}
		return builder.NewArray(), nil
	case *array.Float64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(math.Abs(arr.Value(i)))
		}
		return builder.NewArray(), nil
	case *array.Float32:
		builder := array.NewFloat32Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(float32(math.Abs(float64(arr.Value(i)))))
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("abs requires a numeric argument, got %s", arg.DataType().Name())
	}
}

// evaluateRounding applies a float64 rounding function. Integer
// inputs pass through unchanged.
func (e *Evaluator) evaluateRounding(arg arrow.Array, fn func(float64) float64) (arrow.Array, error) {
	switch arg.(type) {
	case *array.Int64, *array.Int32:
		arg.Retain()
		return arg, nil
	}
	return e.evaluateFloatFunc(arg, fn)
}

// evaluateFloatFunc converts to float64 and applies fn element-wise.
func (e *Evaluator) evaluateFloatFunc(arg arrow.Array, fn func(float64) float64) (arrow.Array, error) {
	converted, err := e.convertToType(arg, typeFloat64)
	if err != nil {
		return nil, fmt.Errorf("converting argument to float64: %w", err)
	}
	defer converted.Release()

	arr, ok := converted.(*array.Float64)
	if !ok {
		return nil, fmt.Errorf("numeric function requires a numeric argument, got %s", arg.DataType().Name())
	}

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(fn(arr.Value(i)))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateStringFunc(arg arrow.Array, name string, fn func(string) string) (arrow.Array, error) {
	arr, ok := arg.(*array.String)
	if !ok {
		return nil, fmt.Errorf("%s requires a string argument, got %s", name, arg.DataType().Name())
	}

	builder := array.NewStringBuilder(e.mem)
	defer builder.Release()
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(fn(arr.Value(i)))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateStringLength(arg arrow.Array) (arrow.Array, error) {
	arr, ok := arg.(*array.String)
	if !ok {
		return nil, fmt.Errorf("length requires a string argument, got %s", arg.DataType().Name())
	}

	builder := array.NewInt64Builder(e.mem)
	defer builder.Release()
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(int64(utf8.RuneCountInString(arr.Value(i))))
	}
	return builder.NewArray(), nil
}

func (e *Evaluator) int64Scalar(v int64) arrow.Array {
	builder := array.NewInt64Builder(e.mem)
	defer builder.Release()
	builder.Append(v)
	return builder.NewArray()
}

func (e *Evaluator) float64Scalar(v float64) arrow.Array {
	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	builder.Append(v)
	return builder.NewArray()
}
