package expr

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/scope"
)

// Type name constants
const (
	typeInt32   = "int32"
	typeInt64   = "int64"
	typeFloat32 = "float32"
	typeFloat64 = "float64"
	typeDouble  = "double"
)

// Type hierarchy levels
const (
	levelInt32   = 1
	levelInt64   = 2
	levelFloat32 = 3
	levelFloat64 = 4
)

// Evaluator evaluates expressions against a scope chain. Column
// references resolve through scope.Resolve, so the same evaluator
// serves flat masks, partitioned masks, and plain environments.
//
// Results are freshly allocated arrays the caller owns and must
// Release; column lookups return retained references. Scalars are
// length-1 arrays and broadcast against longer operands.
type Evaluator struct {
	mem memory.Allocator
}

// NewEvaluator creates a new expression evaluator
func NewEvaluator(mem memory.Allocator) *Evaluator {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Evaluator{mem: mem}
}

// Evaluate evaluates an expression that returns a value array
func (e *Evaluator) Evaluate(expr Expr, sc *scope.Scope) (arrow.Array, error) {
	switch ex := expr.(type) {
	case *ColumnExpr:
		return e.evaluateColumn(ex, sc)
	case *LiteralExpr:
		return e.evaluateLiteral(ex)
	case *BinaryExpr:
		return e.evaluateBinary(ex, sc)
	case *UnaryExpr:
		return e.evaluateUnary(ex, sc)
	case *FunctionExpr:
		return e.evaluateFunction(ex, sc)
	case *DataExpr:
		return e.evaluateData(ex, sc)
	case *InvalidExpr:
		return nil, fmt.Errorf("invalid expression: %s", ex.Message())
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

// EvaluateBoolean evaluates an expression that must produce a boolean
// array, for predicate callers.
func (e *Evaluator) EvaluateBoolean(expr Expr, sc *scope.Scope) (arrow.Array, error) {
	result, err := e.Evaluate(expr, sc)
	if err != nil {
		return nil, err
	}
	if _, ok := result.(*array.Boolean); !ok {
		defer result.Release()
		return nil, fmt.Errorf("expression %s is not boolean, got %s",
			expr.String(), result.DataType().Name())
	}
	return result, nil
}

func (e *Evaluator) evaluateColumn(expr *ColumnExpr, sc *scope.Scope) (arrow.Array, error) {
	v, err := sc.Resolve(expr.name)
	if err != nil {
		if errors.Is(err, scope.ErrNotBound) {
			return nil, errs.NewUnknownColumnError("Evaluate", expr.name)
		}
		// Producer failures pass through unchanged.
		return nil, err
	}
	return e.valueToArray(v, expr.name)
}

func (e *Evaluator) evaluateData(expr *DataExpr, sc *scope.Scope) (arrow.Array, error) {
	v, err := sc.Resolve(DataPronounName)
	if err != nil {
		return nil, fmt.Errorf("no %s pronoun in scope: %w", DataPronounName, err)
	}
	pron, ok := v.(*scope.Pronoun)
	if !ok {
		return nil, fmt.Errorf("%s is bound to %T, not a pronoun", DataPronounName, v)
	}

	pv, err := pron.Resolve(expr.name)
	if err != nil {
		if errors.Is(err, scope.ErrNotBound) {
			return nil, errs.NewUnknownColumnError("Evaluate", expr.name)
		}
		return nil, err
	}
	return e.valueToArray(pv, expr.name)
}

// valueToArray converts a resolved scope value into an owned array.
func (e *Evaluator) valueToArray(v any, name string) (arrow.Array, error) {
	switch val := v.(type) {
	case arrow.Array:
		val.Retain()
		return val, nil
	case scope.AbsentValue:
		return nil, errs.NewAbsentValueError("Evaluate", name)
	case *scope.Pronoun:
		return nil, fmt.Errorf("%q is a data pronoun, not a value", name)
	default:
		return nil, errs.NewUnsupportedTypeError("Evaluate", fmt.Sprintf("%T", v))
	}
}

// evaluateLiteral builds a length-1 array; binary operations broadcast
// it against column-length operands.
func (e *Evaluator) evaluateLiteral(expr *LiteralExpr) (arrow.Array, error) {
	switch val := expr.value.(type) {
	case string:
		builder := array.NewStringBuilder(e.mem)
		defer builder.Release()
		builder.Append(val)
		return builder.NewArray(), nil
	case int32:
		builder := array.NewInt32Builder(e.mem)
		defer builder.Release()
		builder.Append(val)
		return builder.NewArray(), nil
	case int64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		builder.Append(val)
		return builder.NewArray(), nil
	case float32:
		builder := array.NewFloat32Builder(e.mem)
		defer builder.Release()
		builder.Append(val)
		return builder.NewArray(), nil
	case float64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		builder.Append(val)
		return builder.NewArray(), nil
	case bool:
		builder := array.NewBooleanBuilder(e.mem)
		defer builder.Release()
		builder.Append(val)
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", val)
	}
}

func (e *Evaluator) evaluateBinary(expr *BinaryExpr, sc *scope.Scope) (arrow.Array, error) {
	left, err := e.Evaluate(expr.left, sc)
	if err != nil {
		return nil, fmt.Errorf("evaluating left operand: %w", err)
	}
	defer left.Release()

	right, err := e.Evaluate(expr.right, sc)
	if err != nil {
		return nil, fmt.Errorf("evaluating right operand: %w", err)
	}
	defer right.Release()

	if ln, rn := left.Len(), right.Len(); ln != rn && ln != 1 && rn != 1 {
		return nil, errs.NewInvalidInputError("Evaluate",
			fmt.Sprintf("length mismatch: %d vs %d", ln, rn))
	}

	switch expr.op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return e.evaluateArithmetic(left, right, expr.op)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return e.evaluateComparison(left, right, expr.op)
	case OpAnd, OpOr:
		return e.evaluateLogical(left, right, expr.op)
	default:
		return nil, fmt.Errorf("unsupported binary operation: %v", expr.op)
	}
}

func (e *Evaluator) evaluateUnary(expr *UnaryExpr, sc *scope.Scope) (arrow.Array, error) {
	operand, err := e.Evaluate(expr.operand, sc)
	if err != nil {
		return nil, fmt.Errorf("evaluating operand: %w", err)
	}
	defer operand.Release()

	switch expr.op {
	case UnaryNeg:
		return e.evaluateNegation(operand)
	case UnaryNot:
		boolArr, ok := operand.(*array.Boolean)
		if !ok {
			return nil, fmt.Errorf("logical negation requires a boolean operand, got %s",
				operand.DataType().Name())
		}
		builder := array.NewBooleanBuilder(e.mem)
		defer builder.Release()
		for i := 0; i < boolArr.Len(); i++ {
			if boolArr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(!boolArr.Value(i))
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported unary operation: %v", expr.op)
	}
}

func (e *Evaluator) evaluateNegation(operand arrow.Array) (arrow.Array, error) {
	switch arr := operand.(type) {
	case *array.Int32:
		builder := array.NewInt32Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(-arr.Value(i))
		}
		return builder.NewArray(), nil
	case *array.Int64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(-arr.Value(i))
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
			builder.Append(-arr.Value(i))
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
			builder.Append(-arr.Value(i))
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("negation requires a numeric operand, got %s",
			operand.DataType().Name())
	}
}

// resultLen is the broadcast length of two operands. Callers have
// checked the lengths are compatible.
func resultLen(ln, rn int) int {
	if ln > rn {
		return ln
	}
	return rn
}

// bcastIdx maps a result index onto an operand, pinning length-1
// operands to their single element.
func bcastIdx(i, length int) int {
	if length == 1 {
		return 0
	}
	return i
}

func (e *Evaluator) evaluateArithmetic(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	leftType := left.DataType().Name()
	rightType := right.DataType().Name()
	promotedType := getPromotedType(leftType, rightType)

	leftConverted, err := e.convertToType(left, promotedType)
	if err != nil {
		return nil, fmt.Errorf("converting left operand to %s: %w", promotedType, err)
	}
	defer leftConverted.Release()

	rightConverted, err := e.convertToType(right, promotedType)
	if err != nil {
		return nil, fmt.Errorf("converting right operand to %s: %w", promotedType, err)
	}
	defer rightConverted.Release()

	switch promotedType {
	case typeInt32:
		return e.evaluateInt32Arithmetic(leftConverted.(*array.Int32), rightConverted.(*array.Int32), op)
	case typeInt64:
		return e.evaluateInt64Arithmetic(leftConverted.(*array.Int64), rightConverted.(*array.Int64), op)
	case typeFloat32:
		return e.evaluateFloat32Arithmetic(leftConverted.(*array.Float32), rightConverted.(*array.Float32), op)
	case typeFloat64:
		return e.evaluateFloat64Arithmetic(leftConverted.(*array.Float64), rightConverted.(*array.Float64), op)
	default:
		return nil, fmt.Errorf("unsupported promoted type for arithmetic: %s", promotedType)
	}
}

func (e *Evaluator) evaluateInt64Arithmetic(left, right *array.Int64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewInt64Builder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}

		l := left.Value(li)
		r := right.Value(ri)

		var result int64
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			if r == 0 {
				builder.AppendNull()
				continue
			}
			result = l / r
		case OpMod:
			if r == 0 {
				builder.AppendNull()
				continue
			}
			result = l % r
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateInt32Arithmetic(left, right *array.Int32, op BinaryOp) (arrow.Array, error) {
	builder := array.NewInt32Builder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}

		l := left.Value(li)
		r := right.Value(ri)

		var result int32
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			if r == 0 {
				builder.AppendNull()
				continue
			}
			result = l / r
		case OpMod:
			if r == 0 {
				builder.AppendNull()
				continue
			}
			result = l % r
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFloat64Arithmetic(left, right *array.Float64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}

		l := left.Value(li)
		r := right.Value(ri)

		var result float64
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			result = l / r // Division by zero yields +/-Inf
		case OpMod:
			result = floatMod(l, r)
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFloat32Arithmetic(left, right *array.Float32, op BinaryOp) (arrow.Array, error) {
	builder := array.NewFloat32Builder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}

		l := left.Value(li)
		r := right.Value(ri)

		var result float32
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			result = l / r
		case OpMod:
			result = float32(floatMod(float64(l), float64(r)))
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateComparison(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	leftType := left.DataType().Name()
	rightType := right.DataType().Name()

	if isNumericType(leftType) && isNumericType(rightType) {
		return e.evaluateNumericComparison(left, right, op)
	}

	switch leftArr := left.(type) {
	case *array.String:
		if rightArr, ok := right.(*array.String); ok {
			return e.evaluateStringComparison(leftArr, rightArr, op)
		}
	case *array.Boolean:
		if rightArr, ok := right.(*array.Boolean); ok {
			return e.evaluateBooleanComparison(leftArr, rightArr, op)
		}
	}

	return nil, fmt.Errorf("unsupported comparison between %s and %s", leftType, rightType)
}

// isNumericType checks if a type name represents a numeric type
func isNumericType(typeName string) bool {
	switch typeName {
	case typeInt32, typeInt64, typeFloat32, typeFloat64, typeDouble:
		return true
	default:
		return false
	}
}

func (e *Evaluator) evaluateNumericComparison(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	promotedType := getPromotedType(left.DataType().Name(), right.DataType().Name())

	leftConverted, err := e.convertToType(left, promotedType)
	if err != nil {
		return nil, fmt.Errorf("converting left operand to %s: %w", promotedType, err)
	}
	defer leftConverted.Release()

	rightConverted, err := e.convertToType(right, promotedType)
	if err != nil {
		return nil, fmt.Errorf("converting right operand to %s: %w", promotedType, err)
	}
	defer rightConverted.Release()

	switch promotedType {
	case typeInt32:
		return e.evaluateInt32Comparison(leftConverted.(*array.Int32), rightConverted.(*array.Int32), op)
	case typeInt64:
		return e.evaluateInt64Comparison(leftConverted.(*array.Int64), rightConverted.(*array.Int64), op)
	case typeFloat32:
		return e.evaluateFloat32Comparison(leftConverted.(*array.Float32), rightConverted.(*array.Float32), op)
	case typeFloat64:
		return e.evaluateFloat64Comparison(leftConverted.(*array.Float64), rightConverted.(*array.Float64), op)
	default:
		return nil, fmt.Errorf("unsupported promoted type for comparison: %s", promotedType)
	}
}

func compareOrdered[T int32 | int64 | float32 | float64 | string](l, r T, op BinaryOp) (bool, error) {
	switch op {
	case OpEq:
		return l == r, nil
	case OpNe:
		return l != r, nil
	case OpLt:
		return l < r, nil
	case OpLe:
		return l <= r, nil
	case OpGt:
		return l > r, nil
	case OpGe:
		return l >= r, nil
	default:
		return false, fmt.Errorf("unsupported comparison operation: %v", op)
	}
}

func (e *Evaluator) evaluateInt32Comparison(left, right *array.Int32, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}
		result, err := compareOrdered(left.Value(li), right.Value(ri), op)
		if err != nil {
			return nil, err
		}
		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateInt64Comparison(left, right *array.Int64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}
		result, err := compareOrdered(left.Value(li), right.Value(ri), op)
		if err != nil {
			return nil, err
		}
		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFloat32Comparison(left, right *array.Float32, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}
		result, err := compareOrdered(left.Value(li), right.Value(ri), op)
		if err != nil {
			return nil, err
		}
		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFloat64Comparison(left, right *array.Float64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}
		result, err := compareOrdered(left.Value(li), right.Value(ri), op)
		if err != nil {
			return nil, err
		}
		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateStringComparison(left, right *array.String, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}
		result, err := compareOrdered(left.Value(li), right.Value(ri), op)
		if err != nil {
			return nil, err
		}
		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateBooleanComparison(left, right *array.Boolean, op BinaryOp) (arrow.Array, error) {
	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if left.IsNull(li) || right.IsNull(ri) {
			builder.AppendNull()
			continue
		}

		l := left.Value(li)
		r := right.Value(ri)

		var result bool
		switch op {
		case OpEq:
			result = l == r
		case OpNe:
			result = l != r
		default:
			return nil, fmt.Errorf("unsupported boolean comparison operation: %v", op)
		}
		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateLogical(left, right arrow.Array, op BinaryOp) (arrow.Array, error) {
	leftBool, ok1 := left.(*array.Boolean)
	rightBool, ok2 := right.(*array.Boolean)

	if !ok1 || !ok2 {
		return nil, fmt.Errorf("logical operations require boolean operands")
	}

	builder := array.NewBooleanBuilder(e.mem)
	defer builder.Release()

	n := resultLen(left.Len(), right.Len())
	for i := 0; i < n; i++ {
		li := bcastIdx(i, left.Len())
		ri := bcastIdx(i, right.Len())
		if leftBool.IsNull(li) || rightBool.IsNull(ri) {
			builder.AppendNull()
			continue
		}

		l := leftBool.Value(li)
		r := rightBool.Value(ri)

		var result bool
		switch op {
		case OpAnd:
			result = l && r
		case OpOr:
			result = l || r
		default:
			return nil, fmt.Errorf("unsupported logical operation: %v", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

// getPromotedType determines the promoted type for mixed arithmetic operations
func getPromotedType(leftType, rightType string) string {
	// Arrow names float64 "double"
	if leftType == typeDouble {
		leftType = typeFloat64
	}
	if rightType == typeDouble {
		rightType = typeFloat64
	}

	typeHierarchy := map[string]int{
		typeInt32:   levelInt32,
		typeInt64:   levelInt64,
		typeFloat32: levelFloat32,
		typeFloat64: levelFloat64,
	}

	leftLevel, leftExists := typeHierarchy[leftType]
	rightLevel, rightExists := typeHierarchy[rightType]

	if !leftExists || !rightExists {
		if leftExists {
			return leftType
		}
		if rightExists {
			return rightType
		}
		return leftType
	}

	// int64 + float32 promotes to float64 for precision
	if (leftType == typeInt64 && rightType == typeFloat32) || (leftType == typeFloat32 && rightType == typeInt64) {
		return typeFloat64
	}

	promotedType := leftType
	if rightLevel > leftLevel {
		promotedType = rightType
	}

	return promotedType
}

// convertToType converts an Arrow array to the target type
func (e *Evaluator) convertToType(arr arrow.Array, targetType string) (arrow.Array, error) {
	sourceType := arr.DataType().Name()

	if sourceType == typeDouble {
		sourceType = typeFloat64
	}
	if targetType == typeDouble {
		targetType = typeFloat64
	}

	if sourceType == targetType {
		arr.Retain()
		return arr, nil
	}

	switch sourceType {
	case typeInt32:
		return e.convertInt32ToType(arr.(*array.Int32), targetType)
	case typeInt64:
		return e.convertInt64ToType(arr.(*array.Int64), targetType)
	case typeFloat32:
		return e.convertFloat32ToType(arr.(*array.Float32), targetType)
	case typeFloat64:
		return e.convertFloat64ToType(arr.(*array.Float64), targetType)
	default:
		return nil, fmt.Errorf("unsupported source type for conversion: %s", sourceType)
	}
}

func (e *Evaluator) convertInt32ToType(arr *array.Int32, targetType string) (arrow.Array, error) {
	switch targetType {
	case typeInt64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(int64(arr.Value(i)))
			}
		}
		return builder.NewArray(), nil
	case typeFloat32:
		builder := array.NewFloat32Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(float32(arr.Value(i)))
			}
		}
		return builder.NewArray(), nil
	case typeFloat64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(float64(arr.Value(i)))
			}
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("cannot convert int32 to %s", targetType)
	}
}

func (e *Evaluator) convertInt64ToType(arr *array.Int64, targetType string) (arrow.Array, error) {
	switch targetType {
	case typeFloat64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(float64(arr.Value(i)))
			}
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("cannot convert int64 to %s", targetType)
	}
}

func (e *Evaluator) convertFloat32ToType(arr *array.Float32, targetType string) (arrow.Array, error) {
	switch targetType {
	case typeFloat64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(float64(arr.Value(i)))
			}
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("cannot convert float32 to %s", targetType)
	}
}

func (e *Evaluator) convertFloat64ToType(arr *array.Float64, targetType string) (arrow.Array, error) {
	return nil, fmt.Errorf("cannot convert float64 to %s", targetType)
}
