// Package expr provides the expression tree and evaluator that masked
// scopes feed. Expressions are built with fluent constructors and
// evaluated against a scope chain; column references resolve through
// whatever bindings the scope supplies.
package expr

import (
	"fmt"
	"strings"

	"github.com/paveg/datamask/internal/common"
)

// DataPronounName is the binding under which evaluation contexts
// expose the current mask as a first-class pronoun value.
const DataPronounName = ".data"

// ExprType represents the type of expression
type ExprType int

const (
	ExprColumn ExprType = iota
	ExprLiteral
	ExprBinary
	ExprUnary
	ExprFunction
	ExprData
	ExprInvalid
)

// Expr represents an expression that can be evaluated against a scope
type Expr interface {
	Type() ExprType
	String() string
}

// ColumnExpr represents a column reference
type ColumnExpr struct {
	name string
}

func (c *ColumnExpr) Type() ExprType {
	return ExprColumn
}

func (c *ColumnExpr) String() string {
	return fmt.Sprintf("col(%s)", c.name)
}

func (c *ColumnExpr) Name() string {
	return c.name
}

// LiteralExpr represents a literal value
type LiteralExpr struct {
	value any
}

func (l *LiteralExpr) Type() ExprType {
	return ExprLiteral
}

func (l *LiteralExpr) String() string {
	return fmt.Sprintf("lit(%v)", l.value)
}

func (l *LiteralExpr) Value() any {
	return l.value
}

// BinaryOp represents binary operations
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// BinaryExpr represents a binary operation
type BinaryExpr struct {
	left  Expr
	op    BinaryOp
	right Expr
}

func (b *BinaryExpr) Type() ExprType {
	return ExprBinary
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left.String(), b.op.String(), b.right.String())
}

func (b *BinaryExpr) Left() Expr {
	return b.left
}

func (b *BinaryExpr) Op() BinaryOp {
	return b.op
}

func (b *BinaryExpr) Right() Expr {
	return b.right
}

// UnaryOp represents unary operations
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// UnaryExpr represents a unary operation
type UnaryExpr struct {
	op      UnaryOp
	operand Expr
}

func (u *UnaryExpr) Type() ExprType {
	return ExprUnary
}

func (u *UnaryExpr) String() string {
	var opStr string
	switch u.op {
	case UnaryNeg:
		opStr = "-"
	case UnaryNot:
		opStr = "!"
	}
	return fmt.Sprintf("(%s%s)", opStr, u.operand.String())
}

func (u *UnaryExpr) Op() UnaryOp {
	return u.op
}

func (u *UnaryExpr) Operand() Expr {
	return u.operand
}

// DataExpr references a column strictly through the data pronoun: the
// name resolves inside the mask only, never in the surrounding
// environment.
type DataExpr struct {
	name string
}

func (d *DataExpr) Type() ExprType {
	return ExprData
}

func (d *DataExpr) String() string {
	return fmt.Sprintf("%s$%s", DataPronounName, d.name)
}

func (d *DataExpr) Name() string {
	return d.name
}

// FunctionExpr represents a function call expression
type FunctionExpr struct {
	name string
	args []Expr
}

func (f *FunctionExpr) Type() ExprType {
	return ExprFunction
}

func (f *FunctionExpr) String() string {
	if len(f.args) == 0 {
		return fmt.Sprintf("%s()", f.name)
	}

	argStrs := make([]string, len(f.args))
	for i, arg := range f.args {
		argStrs[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(argStrs, ", "))
}

func (f *FunctionExpr) Name() string {
	return f.name
}

func (f *FunctionExpr) Args() []Expr {
	return f.args
}

// InvalidExpr represents an invalid expression with an error message
type InvalidExpr struct {
	message string
}

func (i *InvalidExpr) Type() ExprType {
	return ExprInvalid
}

func (i *InvalidExpr) String() string {
	return fmt.Sprintf("invalid(%s)", i.message)
}

func (i *InvalidExpr) Message() string {
	return i.message
}

// Aggregation function name constants
const (
	AggNameSum   = "sum"
	AggNameCount = "count"
	AggNameMean  = "mean"
	AggNameMin   = "min"
	AggNameMax   = "max"
)

// Constructor functions

// Col creates a column expression
func Col(name string) *ColumnExpr {
	return &ColumnExpr{name: name}
}

// Lit creates a literal expression. Small integer types widen to int64
// so literal arithmetic matches column arithmetic.
func Lit(value any) *LiteralExpr {
	return &LiteralExpr{value: common.NormalizeValue(value)}
}

// Data creates a pronoun column reference
func Data(name string) *DataExpr {
	return &DataExpr{name: name}
}

// Invalid creates an invalid expression with an error message
func Invalid(message string) *InvalidExpr {
	return &InvalidExpr{message: message}
}

// NewFunction creates a function expression
func NewFunction(name string, args ...Expr) *FunctionExpr {
	return &FunctionExpr{name: name, args: args}
}

// Neg creates an arithmetic negation expression
func Neg(operand Expr) *UnaryExpr {
	return &UnaryExpr{op: UnaryNeg, operand: operand}
}

// Not creates a logical negation expression
func Not(operand Expr) *UnaryExpr {
	return &UnaryExpr{op: UnaryNot, operand: operand}
}

// Aggregation constructors. Each reduces its argument to a single value
// over the rows of the current partition.

// Sum creates a sum aggregation expression
func Sum(e Expr) *FunctionExpr {
	return &FunctionExpr{name: AggNameSum, args: []Expr{e}}
}

// Mean creates a mean aggregation expression
func Mean(e Expr) *FunctionExpr {
	return &FunctionExpr{name: AggNameMean, args: []Expr{e}}
}

// Count creates a row count aggregation expression
func Count(e Expr) *FunctionExpr {
	return &FunctionExpr{name: AggNameCount, args: []Expr{e}}
}

// Min creates a minimum aggregation expression
func Min(e Expr) *FunctionExpr {
	return &FunctionExpr{name: AggNameMin, args: []Expr{e}}
}

// Max creates a maximum aggregation expression
func Max(e Expr) *FunctionExpr {
	return &FunctionExpr{name: AggNameMax, args: []Expr{e}}
}

// Scalar function constructors

// Abs creates an absolute value function expression
func Abs(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "abs", args: []Expr{e}}
}

// Round creates a round function expression
func Round(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "round", args: []Expr{e}}
}

// Floor creates a floor function expression
func Floor(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "floor", args: []Expr{e}}
}

// Ceil creates a ceil function expression
func Ceil(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "ceil", args: []Expr{e}}
}

// Sqrt creates a square root function expression
func Sqrt(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "sqrt", args: []Expr{e}}
}

// Log creates a natural logarithm function expression
func Log(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "log", args: []Expr{e}}
}

// Upper creates an uppercase function expression
func Upper(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "upper", args: []Expr{e}}
}

// Lower creates a lowercase function expression
func Lower(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "lower", args: []Expr{e}}
}

// Length creates a string length function expression
func Length(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "length", args: []Expr{e}}
}

// Trim creates a whitespace trim function expression
func Trim(e Expr) *FunctionExpr {
	return &FunctionExpr{name: "trim", args: []Expr{e}}
}

// Binary operations on column expressions

// Add creates an addition expression
func (c *ColumnExpr) Add(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpAdd, right: other}
}

// Sub creates a subtraction expression
func (c *ColumnExpr) Sub(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpSub, right: other}
}

// Mul creates a multiplication expression
func (c *ColumnExpr) Mul(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpMul, right: other}
}

// Div creates a division expression
func (c *ColumnExpr) Div(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpDiv, right: other}
}

// Mod creates a modulo expression
func (c *ColumnExpr) Mod(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpMod, right: other}
}

// Eq creates an equality expression
func (c *ColumnExpr) Eq(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpEq, right: other}
}

// Ne creates a not-equal expression
func (c *ColumnExpr) Ne(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpNe, right: other}
}

// Lt creates a less-than expression
func (c *ColumnExpr) Lt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpLt, right: other}
}

// Le creates a less-than-or-equal expression
func (c *ColumnExpr) Le(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpLe, right: other}
}

// Gt creates a greater-than expression
func (c *ColumnExpr) Gt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpGt, right: other}
}

// Ge creates a greater-than-or-equal expression
func (c *ColumnExpr) Ge(other Expr) *BinaryExpr {
	return &BinaryExpr{left: c, op: OpGe, right: other}
}

// Binary operations on binary expressions (for chaining)

// Add creates an addition expression
func (b *BinaryExpr) Add(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpAdd, right: other}
}

// Sub creates a subtraction expression
func (b *BinaryExpr) Sub(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpSub, right: other}
}

// Mul creates a multiplication expression
func (b *BinaryExpr) Mul(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpMul, right: other}
}

// Div creates a division expression
func (b *BinaryExpr) Div(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpDiv, right: other}
}

// Mod creates a modulo expression
func (b *BinaryExpr) Mod(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpMod, right: other}
}

// Eq creates an equality expression
func (b *BinaryExpr) Eq(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpEq, right: other}
}

// Ne creates a not-equal expression
func (b *BinaryExpr) Ne(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpNe, right: other}
}

// Lt creates a less-than expression
func (b *BinaryExpr) Lt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpLt, right: other}
}

// Le creates a less-than-or-equal expression
func (b *BinaryExpr) Le(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpLe, right: other}
}

// Gt creates a greater-than expression
func (b *BinaryExpr) Gt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpGt, right: other}
}

// Ge creates a greater-than-or-equal expression
func (b *BinaryExpr) Ge(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpGe, right: other}
}

// And creates a logical AND expression
func (b *BinaryExpr) And(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpAnd, right: other}
}

// Or creates a logical OR expression
func (b *BinaryExpr) Or(other Expr) *BinaryExpr {
	return &BinaryExpr{left: b, op: OpOr, right: other}
}

// Math function methods for BinaryExpr

// Abs creates an absolute value function expression
func (b *BinaryExpr) Abs() *FunctionExpr {
	return &FunctionExpr{name: "abs", args: []Expr{b}}
}

// Round creates a round function expression
func (b *BinaryExpr) Round() *FunctionExpr {
	return &FunctionExpr{name: "round", args: []Expr{b}}
}

// Floor creates a floor function expression
func (b *BinaryExpr) Floor() *FunctionExpr {
	return &FunctionExpr{name: "floor", args: []Expr{b}}
}

// Ceil creates a ceil function expression
func (b *BinaryExpr) Ceil() *FunctionExpr {
	return &FunctionExpr{name: "ceil", args: []Expr{b}}
}

// Sqrt creates a square root function expression
func (b *BinaryExpr) Sqrt() *FunctionExpr {
	return &FunctionExpr{name: "sqrt", args: []Expr{b}}
}

// Log creates a natural logarithm function expression
func (b *BinaryExpr) Log() *FunctionExpr {
	return &FunctionExpr{name: "log", args: []Expr{b}}
}

// Binary operations on pronoun references

// Add creates an addition expression
func (d *DataExpr) Add(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpAdd, right: other}
}

// Sub creates a subtraction expression
func (d *DataExpr) Sub(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpSub, right: other}
}

// Mul creates a multiplication expression
func (d *DataExpr) Mul(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpMul, right: other}
}

// Div creates a division expression
func (d *DataExpr) Div(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpDiv, right: other}
}

// Eq creates an equality expression
func (d *DataExpr) Eq(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpEq, right: other}
}

// Ne creates a not-equal expression
func (d *DataExpr) Ne(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpNe, right: other}
}

// Lt creates a less-than expression
func (d *DataExpr) Lt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpLt, right: other}
}

// Le creates a less-than-or-equal expression
func (d *DataExpr) Le(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpLe, right: other}
}

// Gt creates a greater-than expression
func (d *DataExpr) Gt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpGt, right: other}
}

// Ge creates a greater-than-or-equal expression
func (d *DataExpr) Ge(other Expr) *BinaryExpr {
	return &BinaryExpr{left: d, op: OpGe, right: other}
}

// Binary operations on function expressions (for chaining)

// Add creates an addition expression
func (f *FunctionExpr) Add(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpAdd, right: other}
}

// Sub creates a subtraction expression
func (f *FunctionExpr) Sub(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpSub, right: other}
}

// Mul creates a multiplication expression
func (f *FunctionExpr) Mul(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpMul, right: other}
}

// Div creates a division expression
func (f *FunctionExpr) Div(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpDiv, right: other}
}

// Eq creates an equality expression
func (f *FunctionExpr) Eq(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpEq, right: other}
}

// Ne creates a not-equal expression
func (f *FunctionExpr) Ne(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpNe, right: other}
}

// Lt creates a less-than expression
func (f *FunctionExpr) Lt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpLt, right: other}
}

// Le creates a less-than-or-equal expression
func (f *FunctionExpr) Le(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpLe, right: other}
}

// Gt creates a greater-than expression
func (f *FunctionExpr) Gt(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpGt, right: other}
}

// Ge creates a greater-than-or-equal expression
func (f *FunctionExpr) Ge(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpGe, right: other}
}

// And creates a logical AND expression
func (f *FunctionExpr) And(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpAnd, right: other}
}

// Or creates a logical OR expression
func (f *FunctionExpr) Or(other Expr) *BinaryExpr {
	return &BinaryExpr{left: f, op: OpOr, right: other}
}

// Binary operations on literal expressions

// Sub creates a subtraction expression
func (l *LiteralExpr) Sub(other Expr) *BinaryExpr {
	return &BinaryExpr{left: l, op: OpSub, right: other}
}
