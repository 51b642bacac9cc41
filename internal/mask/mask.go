package mask

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/expr"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
)

// Reserved names bound in the overscope on every evaluation.
const (
	// GroupSizeName resolves to the current partition's row count.
	GroupSizeName = "..group_size"
	// GroupNumberName resolves to the current partition's 1-based
	// ordinal.
	GroupNumberName = "..group_number"
	// DataName is the pronoun for strict column-only resolution.
	DataName = expr.DataPronounName
)

// Options configures a Mask.
type Options struct {
	// Logger receives diagnostics, most notably the warning emitted
	// when a released resolver handle is used. Nil means no logging.
	Logger *zap.Logger
	// Allocator backs metadata and evaluation arrays. Nil means the
	// default Go allocator.
	Allocator memory.Allocator
}

// DefaultOptions returns the default mask configuration.
func DefaultOptions() Options {
	return Options{}
}

// Mask is the evaluation context: a Bindings layout, an overscope
// where per-partition metadata and the data pronoun live, and the
// expression evaluator. Evaluate retargets the layout to a partition
// and runs an expression against the overscope.
type Mask struct {
	bindings    Bindings
	over        *scope.Scope
	eval        *expr.Evaluator
	mem         memory.Allocator
	logger      *zap.Logger
	groupSize   arrow.Array
	groupNumber arrow.Array
	released    bool
}

// New builds a mask over the provider. A flat grouping gets the eager
// layout; anything else gets the lazy partitioned one. env is the
// enclosing environment for non-column names; it may be nil.
func New(subsets Subsets, env *scope.Scope, groups *partition.Groups, opts Options) (*Mask, error) {
	if subsets == nil {
		return nil, errs.NewInvalidInputError("New", "subsets cannot be nil")
	}
	if groups == nil {
		return nil, errs.NewInvalidInputError("New", "groups cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mem := opts.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var bindings Bindings
	if groups.Flat() {
		fb, err := NewFlatBindings(env, subsets, logger)
		if err != nil {
			return nil, err
		}
		bindings = fb
	} else {
		bindings = NewPartitionedBindings(env, subsets, logger)
	}

	over := scope.NewChild(bindings.Bottom())
	over.Define(DataName, scope.NewPronoun(bindings.Top()))

	logger.Debug("mask created",
		zap.Int("columns", len(subsets.Names())),
		zap.Bool("flat", groups.Flat()),
		zap.Int("partitions", groups.Count()))

	return &Mask{
		bindings: bindings,
		over:     over,
		eval:     expr.NewEvaluator(mem),
		mem:      mem,
		logger:   logger,
	}, nil
}

// Evaluate runs x against partition ix. The bindings are retargeted
// first and the metadata names rebound, so every call sees fresh
// ..group_size and ..group_number values. Evaluator errors propagate
// unchanged. The caller owns the returned array.
func (m *Mask) Evaluate(x expr.Expr, ix *partition.Index) (arrow.Array, error) {
	if m.released {
		return nil, errs.NewInvalidInputError("Evaluate", "mask has been released")
	}
	if x == nil {
		return nil, errs.NewInvalidInputError("Evaluate", "nil expression")
	}
	if ix == nil {
		return nil, errs.NewInvalidInputError("Evaluate", "nil partition index")
	}

	if err := m.bindings.Update(ix); err != nil {
		return nil, err
	}
	m.bindMetadata(ix)

	return m.eval.Evaluate(x, m.over)
}

// bindMetadata rebinds the per-partition metadata names as length-1
// int64 arrays. The previous arrays are released first.
func (m *Mask) bindMetadata(ix *partition.Index) {
	m.releaseMetadata()

	m.groupSize = m.int64Scalar(int64(ix.Len()))
	m.groupNumber = m.int64Scalar(int64(ix.Ordinal() + 1))
	m.over.Define(GroupSizeName, m.groupSize)
	m.over.Define(GroupNumberName, m.groupNumber)
}

func (m *Mask) releaseMetadata() {
	if m.groupSize != nil {
		m.groupSize.Release()
		m.groupSize = nil
	}
	if m.groupNumber != nil {
		m.groupNumber.Release()
		m.groupNumber = nil
	}
}

func (m *Mask) int64Scalar(v int64) arrow.Array {
	builder := array.NewInt64Builder(m.mem)
	defer builder.Release()
	builder.Append(v)
	return builder.NewArray()
}

// Top returns the scope where column names enter the chain.
func (m *Mask) Top() *scope.Scope {
	return m.bindings.Top()
}

// Bottom returns the scope resolved column values land in.
func (m *Mask) Bottom() *scope.Scope {
	return m.bindings.Bottom()
}

// Overscope returns the evaluation scope holding metadata and the
// data pronoun.
func (m *Mask) Overscope() *scope.Scope {
	return m.over
}

// Resolver returns the bindings' column resolver handle. For a
// partitioned mask the handle outlives Release safely, degrading to
// warn-and-absent.
func (m *Mask) Resolver() Resolver {
	return m.bindings.Resolver()
}

// Release tears the mask down: metadata arrays, overscope names,
// then the bindings. Idempotent. Evaluating a released mask is an
// error.
func (m *Mask) Release() {
	if m.released {
		return
	}
	m.released = true

	m.releaseMetadata()
	m.over.Remove(GroupSizeName)
	m.over.Remove(GroupNumberName)
	m.over.Remove(DataName)
	m.bindings.Release()
}
