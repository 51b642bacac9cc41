// Package validation provides input validation for mask evaluation.
// Validators check expressions and partitionings before evaluation
// starts, so callers get a single clear error instead of a partial
// evaluation failing midway.
package validation

import (
	"fmt"

	"github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/expr"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// NameProvider is the part of a subset provider validation needs.
type NameProvider interface {
	Names() []string
}

// ExpressionValidator checks that every column an expression reads is
// bound somewhere: provider columns, extra names supplied by the
// caller, or the environment chain. The check is approximate for
// pronoun references, which resolve against provider columns only at
// evaluation time.
type ExpressionValidator struct {
	x        expr.Expr
	provider NameProvider
	env      *scope.Scope
	extras   []string
	op       string
}

// NewExpressionValidator creates a validator for expression inputs.
func NewExpressionValidator(
	x expr.Expr, provider NameProvider, env *scope.Scope, op string, extras ...string,
) *ExpressionValidator {
	return &ExpressionValidator{
		x:        x,
		provider: provider,
		env:      env,
		extras:   extras,
		op:       op,
	}
}

// Validate checks every free column of the expression.
func (v *ExpressionValidator) Validate() error {
	if v.x == nil {
		return errors.NewInvalidInputError(v.op, "expression is nil")
	}

	known := make(map[string]bool)
	if v.provider != nil {
		for _, name := range v.provider.Names() {
			known[name] = true
		}
	}
	for _, name := range v.extras {
		known[name] = true
	}

	for _, name := range expr.FreeColumns(v.x) {
		if known[name] || boundInChain(v.env, name) {
			continue
		}
		return errors.NewUnknownColumnError(v.op, name)
	}
	return nil
}

func boundInChain(sc *scope.Scope, name string) bool {
	for ; sc != nil; sc = sc.Parent() {
		if sc.Has(name) {
			return true
		}
	}
	return false
}

// IndexValidator validates one partition index against the row count
// of the frame it will select from.
type IndexValidator struct {
	ix   *partition.Index
	rows int
	op   string
}

// NewIndexValidator creates a validator for a partition index.
func NewIndexValidator(ix *partition.Index, rows int, op string) *IndexValidator {
	return &IndexValidator{
		ix:   ix,
		rows: rows,
		op:   op,
	}
}

// Validate checks that every row position is within bounds.
func (v *IndexValidator) Validate() error {
	if v.ix == nil {
		return errors.NewInvalidInputError(v.op, "partition index is nil")
	}
	if v.ix.IsNatural() {
		if v.ix.Len() != v.rows {
			message := fmt.Sprintf("natural index spans %d rows, frame has %d", v.ix.Len(), v.rows)
			return errors.NewInvalidInputError(v.op, message)
		}
		return nil
	}
	for _, row := range v.ix.Rows() {
		if row < 0 || row >= v.rows {
			message := fmt.Sprintf("%s: row %d out of bounds [0, %d)", v.ix, row, v.rows)
			return errors.NewInvalidInputError(v.op, message)
		}
	}
	return nil
}

// GroupsValidator validates a whole partitioning against a frame's
// row count.
type GroupsValidator struct {
	groups *partition.Groups
	rows   int
	op     string
}

// NewGroupsValidator creates a validator for a partitioning.
func NewGroupsValidator(groups *partition.Groups, rows int, op string) *GroupsValidator {
	return &GroupsValidator{
		groups: groups,
		rows:   rows,
		op:     op,
	}
}

// Validate checks every partition in the partitioning.
func (v *GroupsValidator) Validate() error {
	if v.groups == nil {
		return errors.NewInvalidInputError(v.op, "partitioning is nil")
	}

	validators := make([]Validator, 0, v.groups.Count())
	for i := 0; i < v.groups.Count(); i++ {
		validators = append(validators, NewIndexValidator(v.groups.At(i), v.rows, v.op))
	}
	return NewCompoundValidator(validators...).Validate()
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateExpression is a convenience function for expression validation
func ValidateExpression(
	x expr.Expr, provider NameProvider, env *scope.Scope, op string, extras ...string,
) error {
	return NewExpressionValidator(x, provider, env, op, extras...).Validate()
}

// ValidateIndex is a convenience function for single-index validation
func ValidateIndex(ix *partition.Index, rows int, op string) error {
	return NewIndexValidator(ix, rows, op).Validate()
}

// ValidateGroups is a convenience function for partitioning validation
func ValidateGroups(groups *partition.Groups, rows int, op string) error {
	return NewGroupsValidator(groups, rows, op).Validate()
}
