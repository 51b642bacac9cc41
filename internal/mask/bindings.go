package mask

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	errs "github.com/paveg/datamask/internal/errors"
	"github.com/paveg/datamask/internal/partition"
	"github.com/paveg/datamask/internal/scope"
)

// Bindings lays the provider's columns out as a scope chain for
// evaluation. Top is where column names enter the chain; Bottom is
// where resolved values land and where evaluation scopes attach.
type Bindings interface {
	// Update retargets the bindings to partition ix.
	Update(ix *partition.Index) error

	// Top returns the scope holding the column bindings.
	Top() *scope.Scope

	// Bottom returns the scope resolved values land in. Evaluation
	// scopes chain off this one.
	Bottom() *scope.Scope

	// Resolver returns the indirection handle for out-of-band column
	// access. The handle stays safe to call after Release.
	Resolver() Resolver

	// Release tears the bindings down. Idempotent.
	Release()
}

// PartitionedBindings is the lazy layout for multi-partition
// evaluation. Column names are computed bindings in the active scope;
// each resolves through a weak proxy into the provider, which caches
// the slice and writes it into the resolved scope. Retargeting to a
// new partition empties the resolved scope so names resolve freshly.
type PartitionedBindings struct {
	subsets  Subsets
	active   *scope.Scope
	resolved *scope.Scope
	resolver *partitionResolver
	cell     *resolverCell
	proxy    *WeakProxy
	released bool
}

// NewPartitionedBindings lays out the provider's columns under
// parent. Construction clears any cache the provider carried over
// from a previous owner.
func NewPartitionedBindings(parent *scope.Scope, subsets Subsets, logger *zap.Logger) *PartitionedBindings {
	b := &PartitionedBindings{
		subsets: subsets,
		cell:    &resolverCell{},
	}
	b.proxy = newWeakProxy(b.cell, logger)

	b.active = scope.NewChild(parent)
	for _, name := range subsets.Names() {
		b.active.DefineComputed(name, b.resolveThunk)
	}

	b.resolved = scope.NewChild(b.active)
	subsets.Clear()
	b.resolver = newPartitionResolver(subsets, b.resolved)
	b.cell.target = b.resolver
	return b
}

// resolveThunk is the computed binding behind every column name. A
// released resolver degrades to an absent value; provider errors pass
// through.
func (b *PartitionedBindings) resolveThunk(name string) (any, error) {
	arr, err := b.proxy.ResolveColumn(name)
	if err != nil {
		if errors.Is(err, errs.ErrResolverReleased) {
			return scope.Absent, nil
		}
		return nil, err
	}
	return arr, nil
}

// Update retargets to partition ix: cached slices are dropped, their
// names removed from the resolved scope, and the resolver pointed at
// ix.
func (b *PartitionedBindings) Update(ix *partition.Index) error {
	if b.released {
		return errs.NewInvalidInputError("Update", "bindings have been released")
	}
	if err := b.subsets.Update(ix, b.resolved); err != nil {
		return err
	}
	b.resolver.Retarget(ix)
	return nil
}

// Top returns the active scope.
func (b *PartitionedBindings) Top() *scope.Scope {
	return b.active
}

// Bottom returns the resolved scope.
func (b *PartitionedBindings) Bottom() *scope.Scope {
	return b.resolved
}

// Resolver returns the weak proxy. Handles that outlive the bindings
// warn and report absence instead of crashing.
func (b *PartitionedBindings) Resolver() Resolver {
	return b.proxy
}

// Release clears the provider cache and invalidates the resolver
// cell. Idempotent.
func (b *PartitionedBindings) Release() {
	if b.released {
		return
	}
	b.released = true
	for _, name := range b.subsets.Names() {
		b.resolved.Remove(name)
	}
	b.subsets.Clear()
	b.cell.invalidate()
}

// FlatBindings is the eager layout for a single natural partition.
// Every column is bound up front via WholeColumn into one scope; no
// thunks, no weak machinery.
type FlatBindings struct {
	sc       *scope.Scope
	names    []string
	arrays   []arrow.Array
	proxy    *DirectProxy
	released bool
}

// NewFlatBindings binds every provider column eagerly under parent.
func NewFlatBindings(parent *scope.Scope, subsets Subsets, _ *zap.Logger) (*FlatBindings, error) {
	sc := scope.NewChild(parent)
	names := subsets.Names()
	arrays := make([]arrow.Array, 0, len(names))
	for i, name := range names {
		arr, err := subsets.WholeColumn(i)
		if err != nil {
			for _, bound := range arrays {
				bound.Release()
			}
			return nil, err
		}
		sc.Define(name, arr)
		arrays = append(arrays, arr)
	}

	b := &FlatBindings{sc: sc, names: names, arrays: arrays}
	b.proxy = NewDirectProxy(&scopeResolver{sc: sc})
	return b, nil
}

// Update is a no-op: a flat layout has exactly one partition.
func (b *FlatBindings) Update(ix *partition.Index) error {
	return nil
}

// Top returns the mask scope.
func (b *FlatBindings) Top() *scope.Scope {
	return b.sc
}

// Bottom returns the mask scope; flat layouts have a single level.
func (b *FlatBindings) Bottom() *scope.Scope {
	return b.sc
}

// Resolver returns a direct proxy over the bound columns.
func (b *FlatBindings) Resolver() Resolver {
	return b.proxy
}

// Release releases the bound arrays and removes their bindings.
// Idempotent.
func (b *FlatBindings) Release() {
	if b.released {
		return
	}
	b.released = true
	for i, arr := range b.arrays {
		b.sc.Remove(b.names[i])
		arr.Release()
	}
	b.arrays = nil
}
