package mask

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
)

// Resolver resolves a column name to its slice for the currently
// active partition.
type Resolver interface {
	ResolveColumn(name string) (arrow.Array, error)
}

// partitionResolver binds a Subsets to the active partition and the
// destination scope materialized values are written into.
type partitionResolver struct {
	subsets Subsets
	current *partition.Index
	dest    *scope.Scope
}

func newPartitionResolver(subsets Subsets, dest *scope.Scope) *partitionResolver {
	return &partitionResolver{subsets: subsets, dest: dest}
}

// Retarget points the resolver at a new partition. The provider must
// have been updated to the same partition first.
func (r *partitionResolver) Retarget(ix *partition.Index) {
	r.current = ix
}

func (r *partitionResolver) ResolveColumn(name string) (arrow.Array, error) {
	if r.current == nil {
		return nil, errs.NewStaleUpdateError("ResolveColumn",
			fmt.Sprintf("no active partition for column %s", name))
	}
	return r.subsets.Get(name, r.current, r.dest)
}

// resolverCell is the liveness link between a bindings object and the
// proxies it hands out. The bindings invalidate the cell at teardown;
// proxies that outlive their bindings then observe a nil target
// instead of a dangling one. Single-threaded contract, no lock.
type resolverCell struct {
	target *partitionResolver
}

func (c *resolverCell) get() *partitionResolver {
	return c.target
}

func (c *resolverCell) invalidate() {
	c.target = nil
}

// WeakProxy resolves through a resolverCell. When the cell has been
// invalidated it warns through the diagnostic logger and reports
// ErrResolverReleased; it never panics. The binding layer absorbs
// that sentinel into an absent value, so an outlived handle degrades
// to a missing column with a diagnostic on every access.
type WeakProxy struct {
	cell   *resolverCell
	logger *zap.Logger
}

func newWeakProxy(cell *resolverCell, logger *zap.Logger) *WeakProxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeakProxy{cell: cell, logger: logger}
}

func (p *WeakProxy) ResolveColumn(name string) (arrow.Array, error) {
	target := p.cell.get()
	if target == nil {
		p.logger.Warn("column resolver out of scope", zap.String("column", name))
		return nil, errs.ErrResolverReleased
	}
	return target.ResolveColumn(name)
}

// DirectProxy forwards unconditionally. It exists so every consumer
// sees the same indirection type even where lifetime is not a
// concern.
type DirectProxy struct {
	target Resolver
}

// NewDirectProxy wraps target in the uniform proxy type.
func NewDirectProxy(target Resolver) *DirectProxy {
	return &DirectProxy{target: target}
}

func (p *DirectProxy) ResolveColumn(name string) (arrow.Array, error) {
	return p.target.ResolveColumn(name)
}

// scopeResolver serves columns already bound as values in a scope.
// Flat bindings put one behind a DirectProxy.
type scopeResolver struct {
	sc *scope.Scope
}

func (r *scopeResolver) ResolveColumn(name string) (arrow.Array, error) {
	v, err := r.sc.ResolveLocal(name)
	if err != nil {
		return nil, errs.NewUnknownColumnError("ResolveColumn", name)
	}
	arr, ok := v.(arrow.Array)
	if !ok {
		return nil, errs.NewUnsupportedTypeError("ResolveColumn", fmt.Sprintf("%T", v))
	}
	return arr, nil
}
