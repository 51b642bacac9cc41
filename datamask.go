// Package datamask provides grouped evaluation of column expressions over
// Arrow-backed data frames. This package is the sole public API for the
// library.
//
// A Mask binds the columns of a DataFrame into a layered scope chain and
// evaluates expressions against one partition of rows at a time. Column
// subsets materialize lazily: a partition's slice of a column is cut only
// when an expression first touches it, then cached until the mask moves to
// another partition.
package datamask

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/datamask/internal/dataframe"
	"github.com/paveg/datamask/internal/expr"
	"github.com/paveg/datamask/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// DataFrame is the public type for a column-ordered table of data.
// It wraps the internal dataframe.DataFrame to hide implementation details.
type DataFrame struct {
	df *dataframe.DataFrame
}

// Expression is the public type for defining computations over columns.
type Expression struct {
	expr expr.Expr
}

// NewDataFrame creates a new DataFrame from ISeries.
func NewDataFrame(series ...ISeries) *DataFrame {
	// Convert ISeries to dataframe.ISeries
	internalSeries := make([]dataframe.ISeries, len(series))
	for i, s := range series {
		internalSeries[i] = s
	}
	return &DataFrame{df: dataframe.New(internalSeries...)}
}

// NewSeries creates a new typed Series from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewSeriesFromArray creates a Series backed by an existing Arrow array.
// The series retains the array; the caller keeps its own reference.
func NewSeriesFromArray(name string, arr arrow.Array) ISeries {
	return series.FromArray(name, arr)
}

// DataFrame methods

// Columns returns the column names in order.
func (d *DataFrame) Columns() []string {
	return d.df.Columns()
}

// Len returns the number of rows.
func (d *DataFrame) Len() int {
	return d.df.Len()
}

// Width returns the number of columns.
func (d *DataFrame) Width() int {
	return d.df.Width()
}

// Column returns the column with the given name.
func (d *DataFrame) Column(name string) (ISeries, bool) {
	return d.df.Column(name)
}

// HasColumn returns true if the DataFrame has the given column.
func (d *DataFrame) HasColumn(name string) bool {
	return d.df.HasColumn(name)
}

// String returns a string representation of the DataFrame.
func (d *DataFrame) String() string {
	return d.df.String()
}

// Release frees the memory used by the DataFrame.
func (d *DataFrame) Release() {
	d.df.Release()
}

// Expression factory functions

// Col returns an Expression referencing a column by name. Resolution walks
// the mask's scope chain, so a Col reference can also pick up computed
// bindings and caller-supplied environment values.
func Col(name string) Expression {
	return Expression{expr: expr.Col(name)}
}

// Lit returns an Expression representing a literal value.
func Lit(value any) Expression {
	return Expression{expr: expr.Lit(value)}
}

// Data returns an Expression referencing a column through the .data
// pronoun. Pronoun references resolve against the frame's columns only and
// never fall through to environment bindings.
func Data(name string) Expression {
	return Expression{expr: expr.Data(name)}
}

// Neg returns an arithmetic negation expression.
func Neg(e Expression) Expression {
	return Expression{expr: expr.Neg(e.expr)}
}

// Not returns a logical negation expression.
func Not(e Expression) Expression {
	return Expression{expr: expr.Not(e.expr)}
}

// Sum returns an aggregation expression that sums over the current
// partition's rows.
func Sum(e Expression) Expression {
	return Expression{expr: expr.Sum(e.expr)}
}

// Mean returns an aggregation expression for the partition mean.
func Mean(e Expression) Expression {
	return Expression{expr: expr.Mean(e.expr)}
}

// Count returns an aggregation expression counting the partition's rows.
func Count(e Expression) Expression {
	return Expression{expr: expr.Count(e.expr)}
}

// Min returns an aggregation expression for the partition minimum.
func Min(e Expression) Expression {
	return Expression{expr: expr.Min(e.expr)}
}

// Max returns an aggregation expression for the partition maximum.
func Max(e Expression) Expression {
	return Expression{expr: expr.Max(e.expr)}
}

// Abs returns an element-wise absolute value expression.
func Abs(e Expression) Expression {
	return Expression{expr: expr.Abs(e.expr)}
}

// Round returns an element-wise rounding expression.
func Round(e Expression) Expression {
	return Expression{expr: expr.Round(e.expr)}
}

// Floor returns an element-wise floor expression.
func Floor(e Expression) Expression {
	return Expression{expr: expr.Floor(e.expr)}
}

// Ceil returns an element-wise ceiling expression.
func Ceil(e Expression) Expression {
	return Expression{expr: expr.Ceil(e.expr)}
}

// Sqrt returns an element-wise square root expression.
func Sqrt(e Expression) Expression {
	return Expression{expr: expr.Sqrt(e.expr)}
}

// Log returns an element-wise natural logarithm expression.
func Log(e Expression) Expression {
	return Expression{expr: expr.Log(e.expr)}
}

// Upper returns an element-wise uppercase expression for string columns.
func Upper(e Expression) Expression {
	return Expression{expr: expr.Upper(e.expr)}
}

// Lower returns an element-wise lowercase expression for string columns.
func Lower(e Expression) Expression {
	return Expression{expr: expr.Lower(e.expr)}
}

// Length returns an element-wise string length expression.
func Length(e Expression) Expression {
	return Expression{expr: expr.Length(e.expr)}
}

// Trim returns an element-wise whitespace-trimming expression.
func Trim(e Expression) Expression {
	return Expression{expr: expr.Trim(e.expr)}
}

// String returns a string representation of the expression.
func (e Expression) String() string {
	return e.expr.String()
}

// Expression methods for chaining.
//
// Unsupported receiver combinations return an invalid expression rather
// than panicking; evaluating one yields an error that names the operation.

// Add returns an addition expression.
func (e Expression) Add(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Add(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Add(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Add(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Add(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Add operation unsupported on %T", e.expr))}
	}
}

// Sub returns a subtraction expression.
func (e Expression) Sub(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Sub(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Sub(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Sub(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Sub(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Sub operation unsupported on %T", e.expr))}
	}
}

// Mul returns a multiplication expression.
func (e Expression) Mul(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Mul(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Mul(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Mul(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Mul(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Mul operation unsupported on %T", e.expr))}
	}
}

// Div returns a division expression.
func (e Expression) Div(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Div(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Div(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Div(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Div(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Div operation unsupported on %T", e.expr))}
	}
}

// Mod returns a modulo expression. Modulo is defined for column and
// compound arithmetic expressions only.
func (e Expression) Mod(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Mod(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Mod(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Mod operation unsupported on %T", e.expr))}
	}
}

// Eq returns an equality comparison expression.
func (e Expression) Eq(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Eq(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Eq(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Eq(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Eq(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Eq operation unsupported on %T", e.expr))}
	}
}

// Ne returns an inequality comparison expression.
func (e Expression) Ne(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Ne(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Ne(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Ne(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Ne(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Ne operation unsupported on %T", e.expr))}
	}
}

// Lt returns a less-than comparison expression.
func (e Expression) Lt(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Lt(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Lt(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Lt(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Lt(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Lt operation unsupported on %T", e.expr))}
	}
}

// Le returns a less-than-or-equal comparison expression.
func (e Expression) Le(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Le(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Le(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Le(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Le(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Le operation unsupported on %T", e.expr))}
	}
}

// Gt returns a greater-than comparison expression.
func (e Expression) Gt(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Gt(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Gt(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Gt(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Gt(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Gt operation unsupported on %T", e.expr))}
	}
}

// Ge returns a greater-than-or-equal comparison expression.
func (e Expression) Ge(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.ColumnExpr:
		return Expression{expr: x.Ge(other.expr)}
	case *expr.BinaryExpr:
		return Expression{expr: x.Ge(other.expr)}
	case *expr.DataExpr:
		return Expression{expr: x.Ge(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Ge(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Ge operation unsupported on %T", e.expr))}
	}
}

// And returns a logical AND expression. Logical operations chain off
// comparisons and predicate functions.
func (e Expression) And(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.BinaryExpr:
		return Expression{expr: x.And(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.And(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("And operation unsupported on %T", e.expr))}
	}
}

// Or returns a logical OR expression.
func (e Expression) Or(other Expression) Expression {
	switch x := e.expr.(type) {
	case *expr.BinaryExpr:
		return Expression{expr: x.Or(other.expr)}
	case *expr.FunctionExpr:
		return Expression{expr: x.Or(other.expr)}
	default:
		return Expression{expr: expr.Invalid(fmt.Sprintf("Or operation unsupported on %T", e.expr))}
	}
}
