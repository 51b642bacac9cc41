package validation_test

import (
	"testing"

	"github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/expr"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
	"github.com/paveg/datamask/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNameProvider implements NameProvider for testing.
type mockNameProvider struct {
	names []string
}

func (m *mockNameProvider) Names() []string {
	return m.names
}

func TestExpressionValidator(t *testing.T) {
	provider := &mockNameProvider{names: []string{"x", "y"}}

	t.Run("provider columns resolve", func(t *testing.T) {
		err := validation.ValidateExpression(expr.Col("x").Add(expr.Col("y")), provider, nil, "Eval")
		require.NoError(t, err)
	})

	t.Run("unknown column", func(t *testing.T) {
		err := validation.ValidateExpression(expr.Col("z"), provider, nil, "Eval")
		require.Error(t, err)
		assert.True(t, errors.IsUnknownColumn(err))
		assert.Contains(t, err.Error(), "z")
	})

	t.Run("extras resolve", func(t *testing.T) {
		x := expr.Col("x").Add(expr.Col("..group_size"))
		require.Error(t, validation.ValidateExpression(x, provider, nil, "Eval"))
		require.NoError(t, validation.ValidateExpression(x, provider, nil, "Eval", "..group_size"))
	})

	t.Run("environment chain resolves", func(t *testing.T) {
		outer := scope.New()
		outer.Define("threshold", int64(5))
		env := scope.NewChild(outer)

		err := validation.ValidateExpression(expr.Col("x").Gt(expr.Col("threshold")), provider, env, "Eval")
		require.NoError(t, err)
	})

	t.Run("pronoun references count as free columns", func(t *testing.T) {
		require.NoError(t, validation.ValidateExpression(expr.Data("x"), provider, nil, "Eval"))
		err := validation.ValidateExpression(expr.Data("missing"), provider, nil, "Eval")
		assert.True(t, errors.IsUnknownColumn(err))
	})

	t.Run("literal-only expression needs nothing", func(t *testing.T) {
		require.NoError(t, validation.ValidateExpression(expr.Lit(int64(1)), nil, nil, "Eval"))
	})

	t.Run("nil expression", func(t *testing.T) {
		err := validation.ValidateExpression(nil, provider, nil, "Eval")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expression is nil")
	})
}

func TestIndexValidator(t *testing.T) {
	t.Run("rows in bounds", func(t *testing.T) {
		ix := partition.NewIndex([]int{0, 2}, 0)
		require.NoError(t, validation.ValidateIndex(ix, 3, "Eval"))
	})

	t.Run("row out of bounds", func(t *testing.T) {
		ix := partition.NewIndex([]int{0, 5}, 1)
		err := validation.ValidateIndex(ix, 3, "Eval")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 5 out of bounds [0, 3)")
	})

	t.Run("negative row", func(t *testing.T) {
		ix := partition.NewIndex([]int{-1}, 0)
		require.Error(t, validation.ValidateIndex(ix, 3, "Eval"))
	})

	t.Run("natural index matches frame", func(t *testing.T) {
		require.NoError(t, validation.ValidateIndex(partition.Natural(3), 3, "Eval"))
	})

	t.Run("natural index length mismatch", func(t *testing.T) {
		err := validation.ValidateIndex(partition.Natural(4), 3, "Eval")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "natural index spans 4 rows, frame has 3")
	})

	t.Run("nil index", func(t *testing.T) {
		err := validation.ValidateIndex(nil, 3, "Eval")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "partition index is nil")
	})
}

func TestGroupsValidator(t *testing.T) {
	t.Run("valid partitioning", func(t *testing.T) {
		groups := partition.FromIndices([][]int{{0, 1}, {2}})
		require.NoError(t, validation.ValidateGroups(groups, 3, "EvalAll"))
	})

	t.Run("whole partitioning", func(t *testing.T) {
		require.NoError(t, validation.ValidateGroups(partition.Whole(3), 3, "EvalAll"))
	})

	t.Run("one bad partition fails the whole check", func(t *testing.T) {
		groups := partition.FromIndices([][]int{{0, 1}, {9}})
		err := validation.ValidateGroups(groups, 3, "EvalAll")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 9")
	})

	t.Run("nil partitioning", func(t *testing.T) {
		err := validation.ValidateGroups(nil, 3, "EvalAll")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "partitioning is nil")
	})
}

func TestCompoundValidator(t *testing.T) {
	provider := &mockNameProvider{names: []string{"x"}}
	groups := partition.FromIndices([][]int{{0}, {1, 2}})

	t.Run("all pass", func(t *testing.T) {
		v := validation.NewCompoundValidator(
			validation.NewExpressionValidator(expr.Col("x"), provider, nil, "Eval"),
			validation.NewGroupsValidator(groups, 3, "Eval"),
		)
		require.NoError(t, v.Validate())
	})

	t.Run("first failure wins", func(t *testing.T) {
		v := validation.NewCompoundValidator(
			validation.NewExpressionValidator(expr.Col("missing"), provider, nil, "Eval"),
			validation.NewGroupsValidator(groups, 0, "Eval"),
		)
		err := v.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsUnknownColumn(err))
	})

	t.Run("empty compound passes", func(t *testing.T) {
		require.NoError(t, validation.NewCompoundValidator().Validate())
	})
}
