package datamask

import (
	"fmt"
	"runtime"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/paveg/datamask/internal/config"
	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/mask"
	"github.com/paveg/datamask/internal/monitoring"
	"github.com/paveg/datamask/internal/parallel"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
	"github.com/paveg/datamask/internal/validation"
)

// Reserved names available to every expression during evaluation.
const (
	// GroupSizeName evaluates to the current partition's row count.
	GroupSizeName = mask.GroupSizeName
	// GroupNumberName evaluates to the current partition's 1-based ordinal.
	GroupNumberName = mask.GroupNumberName
	// DataPronounName is the pronoun for strict column-only resolution.
	DataPronounName = mask.DataName
)

// ColumnResolver resolves column names to the current partition's
// materialized subsets. A resolver handle stays safe to call after its
// mask is released: it warns and reports the column as absent instead of
// reaching into freed state.
type ColumnResolver interface {
	ResolveColumn(name string) (arrow.Array, error)
}

// SubsetStats reports how often column subsets were cut versus served
// from the resolved cache.
type SubsetStats = mask.Stats

// MetricsSummary aggregates the metrics recorded across evaluations.
type MetricsSummary = monitoring.Summary

// OperationConfig overrides the global evaluation configuration for a
// single mask.
type OperationConfig = config.OperationConfig

// PartitionInfo describes one partition of a mask.
type PartitionInfo struct {
	// Ordinal is the partition's 0-based position.
	Ordinal int
	// Rows is the number of frame rows in the partition.
	Rows int
}

// MaskOptions configures a Mask.
type MaskOptions struct {
	// GroupBy partitions the frame by the given columns. Empty means a
	// single partition spanning every row.
	GroupBy []string
	// Env supplies named values expressions may reference in addition to
	// the frame's columns. Values may be Go scalars (bound as length-1
	// arrays that broadcast against column operands) or Arrow arrays,
	// which the mask retains. Column names shadow environment names.
	Env map[string]any
	// Logger receives diagnostics. Nil means no logging.
	Logger *zap.Logger
	// Allocator backs materialized subsets and evaluation results. Nil
	// means the default Go allocator.
	Allocator memory.Allocator
	// Metrics enables per-evaluation metrics collection. The global
	// configuration can also switch collection on.
	Metrics bool
}

// DefaultMaskOptions returns the default mask configuration.
func DefaultMaskOptions() MaskOptions {
	return MaskOptions{}
}

// Mask evaluates expressions against one partition of a DataFrame at a
// time. Create one with NewMask and release it when done; results are
// owned by the caller and released independently.
//
// A Mask is not safe for concurrent use. EvalAll fans work out to
// per-worker masks internally when the partition count warrants it.
type Mask struct {
	df        *DataFrame
	mem       memory.Allocator
	logger    *zap.Logger
	groups    *partition.Groups
	env       *scope.Scope
	envArrays []arrow.Array
	subsets   *mask.ColumnSubsets
	inner     *mask.Mask
	collector *monitoring.Collector
	opConfig  OperationConfig
	released  bool
}

// NewMask builds a mask over the frame. The mask borrows the frame's
// columns; the frame must stay alive until the mask is released.
func NewMask(df *DataFrame, opts MaskOptions) (*Mask, error) {
	if df == nil || df.df == nil {
		return nil, errs.NewInvalidInputError("NewMask", "data frame is nil")
	}

	mem := opts.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var groups *partition.Groups
	if len(opts.GroupBy) == 0 {
		groups = partition.Whole(df.Len())
	} else {
		g, err := partition.ByColumns(df.df, opts.GroupBy...)
		if err != nil {
			return nil, err
		}
		groups = g
	}
	if err := validation.ValidateGroups(groups, df.Len(), "NewMask"); err != nil {
		return nil, err
	}

	env := scope.New()
	var envArrays []arrow.Array
	for name, value := range opts.Env {
		arr, err := scalarArray(mem, value)
		if err != nil {
			releaseArrays(envArrays)
			return nil, err
		}
		env.Define(name, arr)
		envArrays = append(envArrays, arr)
	}

	subsets, err := mask.NewColumnSubsets(df.df, mem)
	if err != nil {
		releaseArrays(envArrays)
		return nil, err
	}
	inner, err := mask.New(subsets, env, groups, mask.Options{Logger: logger, Allocator: mem})
	if err != nil {
		subsets.Close()
		releaseArrays(envArrays)
		return nil, err
	}

	cfg := config.GetGlobalConfig()

	return &Mask{
		df:        df,
		mem:       mem,
		logger:    logger,
		groups:    groups,
		env:       env,
		envArrays: envArrays,
		subsets:   subsets,
		inner:     inner,
		collector: monitoring.NewCollector(opts.Metrics || cfg.MetricsCollection),
	}, nil
}

// scalarArray converts an environment value into an array the evaluator
// can broadcast. Integers widen to int64 and floats to float64, matching
// the evaluator's arithmetic types.
func scalarArray(mem memory.Allocator, value any) (arrow.Array, error) {
	switch v := value.(type) {
	case arrow.Array:
		v.Retain()
		return v, nil
	case int:
		return int64Scalar(mem, int64(v)), nil
	case int32:
		return int64Scalar(mem, int64(v)), nil
	case int64:
		return int64Scalar(mem, v), nil
	case float32:
		return float64Scalar(mem, float64(v)), nil
	case float64:
		return float64Scalar(mem, v), nil
	case string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.Append(v)
		return builder.NewArray(), nil
	case bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.Append(v)
		return builder.NewArray(), nil
	default:
		return nil, errs.NewUnsupportedTypeError("NewMask", fmt.Sprintf("%T", value))
	}
}

func int64Scalar(mem memory.Allocator, v int64) arrow.Array {
	builder := array.NewInt64Builder(mem)
	defer builder.Release()
	builder.Append(v)
	return builder.NewArray()
}

func float64Scalar(mem memory.Allocator, v float64) arrow.Array {
	builder := array.NewFloat64Builder(mem)
	defer builder.Release()
	builder.Append(v)
	return builder.NewArray()
}

func releaseArrays(arrays []arrow.Array) {
	for _, arr := range arrays {
		if arr != nil {
			arr.Release()
		}
	}
}

// WithConfig applies per-mask overrides for parallel evaluation and
// returns the mask for chaining.
func (mk *Mask) WithConfig(cfg OperationConfig) *Mask {
	mk.opConfig = cfg
	return mk
}

// PartitionCount returns the number of partitions.
func (mk *Mask) PartitionCount() int {
	return mk.groups.Count()
}

// Partition describes the partition at ordinal i.
func (mk *Mask) Partition(i int) (PartitionInfo, error) {
	if i < 0 || i >= mk.groups.Count() {
		return PartitionInfo{}, errs.NewInvalidInputError("Partition",
			fmt.Sprintf("partition %d out of range [0, %d)", i, mk.groups.Count()))
	}
	ix := mk.groups.At(i)
	return PartitionInfo{Ordinal: ix.Ordinal(), Rows: ix.Len()}, nil
}

// Validate checks that every free column name in the expression resolves
// to a frame column, an environment binding, or a reserved metadata name,
// without evaluating anything.
func (mk *Mask) Validate(x Expression) error {
	if mk.released {
		return errs.NewInvalidInputError("Validate", "mask has been released")
	}
	return validation.ValidateExpression(x.expr, mk.subsets, mk.env, "Validate",
		GroupSizeName, GroupNumberName)
}

// Eval evaluates the expression against partition i. The caller owns the
// returned array. Evaluation errors propagate unchanged.
func (mk *Mask) Eval(x Expression, i int) (arrow.Array, error) {
	if mk.released {
		return nil, errs.NewInvalidInputError("Eval", "mask has been released")
	}
	if i < 0 || i >= mk.groups.Count() {
		return nil, errs.NewInvalidInputError("Eval",
			fmt.Sprintf("partition %d out of range [0, %d)", i, mk.groups.Count()))
	}

	ix := mk.groups.At(i)
	if !mk.collector.IsEnabled() {
		return mk.inner.Evaluate(x.expr, ix)
	}

	before := mk.subsets.Stats()
	start := time.Now()
	out, err := mk.inner.Evaluate(x.expr, ix)
	if err != nil {
		return nil, err
	}
	after := mk.subsets.Stats()
	mk.collector.RecordEval(monitoring.EvalMetrics{
		Duration:         time.Since(start),
		Partitions:       1,
		Rows:             int64(ix.Len()),
		Materializations: int64(after.Materializations - before.Materializations),
		CacheHits:        int64(after.CacheHits - before.CacheHits),
		Operation:        "eval",
	})
	return out, nil
}

// EvalAll evaluates the expression against every partition and returns
// one array per partition, in partition order. The caller owns each
// returned array.
//
// Large partition counts evaluate in parallel: the partition list is
// split into chunks and every worker gets its own mask over the shared
// frame, so no evaluation state crosses goroutines. The global
// configuration sets the threshold and pool sizes; WithConfig overrides
// them per mask. On error all partial results are released and the first
// error in partition order is returned.
func (mk *Mask) EvalAll(x Expression) ([]arrow.Array, error) {
	if mk.released {
		return nil, errs.NewInvalidInputError("EvalAll", "mask has been released")
	}

	cfg := config.GetGlobalConfig()
	n := mk.groups.Count()
	if n == 0 {
		return nil, nil
	}

	enabled := mk.collector.IsEnabled()
	var before SubsetStats
	var start time.Time
	if enabled {
		before = mk.subsets.Stats()
		start = time.Now()
	}

	var (
		out    []arrow.Array
		fanned bool
		err    error
	)
	if mk.parallelEligible(n, cfg) {
		fanned = true
		out, err = mk.evalAllParallel(x, cfg)
	} else {
		out, err = mk.evalAllSequential(x)
	}
	if err != nil {
		return nil, err
	}

	if enabled {
		var rows int64
		for _, ix := range mk.groups.All() {
			rows += int64(ix.Len())
		}
		after := mk.subsets.Stats()
		mk.collector.RecordEval(monitoring.EvalMetrics{
			Duration:         time.Since(start),
			Partitions:       int64(n),
			Rows:             rows,
			Materializations: int64(after.Materializations - before.Materializations),
			CacheHits:        int64(after.CacheHits - before.CacheHits),
			Operation:        "eval_all",
			Parallel:         fanned,
		})
	}
	return out, nil
}

// parallelEligible decides whether EvalAll fans out. A single partition
// never pays for the pool.
func (mk *Mask) parallelEligible(n int, cfg config.Config) bool {
	if mk.opConfig.DisableParallel {
		return false
	}
	if n <= 1 {
		return false
	}
	if mk.opConfig.ForceParallel {
		return true
	}
	return n >= cfg.ParallelThreshold
}

func (mk *Mask) evalAllSequential(x Expression) ([]arrow.Array, error) {
	n := mk.groups.Count()
	out := make([]arrow.Array, 0, n)
	for i := range n {
		arr, err := mk.inner.Evaluate(x.expr, mk.groups.At(i))
		if err != nil {
			releaseArrays(out)
			return nil, err
		}
		out = append(out, arr)
	}
	return out, nil
}

// chunkResult carries one worker's arrays, in partition order within the
// chunk.
type chunkResult struct {
	arrays []arrow.Array
	err    error
}

func (mk *Mask) evalAllParallel(x Expression, cfg config.Config) ([]arrow.Array, error) {
	n := mk.groups.Count()

	chunkSize := cfg.ChunkSize
	if mk.opConfig.CustomChunkSize > 0 {
		chunkSize = mk.opConfig.CustomChunkSize
	}
	bounds := parallel.ChunkBounds(n, chunkSize)

	workers := cfg.WorkerPoolSize
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if cfg.MaxParallelism > 0 && workers > cfg.MaxParallelism {
		workers = cfg.MaxParallelism
	}
	if workers > len(bounds) {
		workers = len(bounds)
	}

	pool := parallel.NewWorkerPool(workers)
	defer pool.Close()
	allocs := parallel.NewAllocatorPool(workers)
	defer allocs.Close()

	results := parallel.ProcessIndexed(pool, bounds, func(_ int, b [2]int) chunkResult {
		return mk.evalChunk(x, b, allocs)
	})

	out := make([]arrow.Array, 0, n)
	var firstErr error
	for _, res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		out = append(out, res.arrays...)
	}
	if firstErr != nil {
		releaseArrays(out)
		return nil, firstErr
	}
	return out, nil
}

// evalChunk evaluates partitions [b[0], b[1]) on a worker-local mask.
// The worker borrows an allocator from the pool and builds its own
// subsets over the shared frame, so the caller's cache is untouched.
func (mk *Mask) evalChunk(x Expression, b [2]int, allocs *parallel.AllocatorPool) chunkResult {
	alloc := allocs.Get()
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	} else {
		defer allocs.Put(alloc)
	}

	subsets, err := mask.NewColumnSubsets(mk.df.df, alloc)
	if err != nil {
		return chunkResult{err: err}
	}
	defer subsets.Close()

	m, err := mask.New(subsets, mk.env, mk.groups, mask.Options{Logger: mk.logger, Allocator: alloc})
	if err != nil {
		return chunkResult{err: err}
	}
	defer m.Release()

	out := make([]arrow.Array, 0, b[1]-b[0])
	for i := b[0]; i < b[1]; i++ {
		arr, evalErr := m.Evaluate(x.expr, mk.groups.At(i))
		if evalErr != nil {
			releaseArrays(out)
			return chunkResult{err: evalErr}
		}
		out = append(out, arr)
	}
	return chunkResult{arrays: out}
}

// ColumnResolver returns a handle that resolves column names against the
// current partition's subsets. The handle may outlive the mask; after
// Release it warns through the mask's logger and reports columns as
// absent.
func (mk *Mask) ColumnResolver() ColumnResolver {
	return mk.inner.Resolver()
}

// SubsetStats returns materialization and cache counters for the mask's
// own subsets. Worker-local subsets used by parallel EvalAll are not
// included.
func (mk *Mask) SubsetStats() SubsetStats {
	return mk.subsets.Stats()
}

// Metrics returns a summary of recorded evaluations. The zero summary is
// returned when collection is disabled or nothing has run.
func (mk *Mask) Metrics() MetricsSummary {
	return mk.collector.Summary()
}

// Release frees the mask's evaluation state, subset cache, and
// environment bindings. Idempotent. The frame itself is not released.
func (mk *Mask) Release() {
	if mk.released {
		return
	}
	mk.released = true

	mk.inner.Release()
	mk.subsets.Close()
	releaseArrays(mk.envArrays)
	mk.envArrays = nil
}
