package scope

// AbsentValue is the host-level "no value" marker, distinct from an
// unbound name. Producers return it when their backing resolver has
// been released; evaluators map it to a typed missing-value failure.
type AbsentValue struct{}

// Absent is the canonical AbsentValue instance.
var Absent = AbsentValue{}

func (AbsentValue) String() string { return "<absent>" }

// Pronoun wraps a scope as a first-class value so expressions can
// address "the current data" explicitly. Resolution through a Pronoun
// is strict: only the wrapped scope's own bindings are consulted,
// never its parents, so a pronoun lookup cannot leak into the
// surrounding evaluation environment.
type Pronoun struct {
	target *Scope
}

// NewPronoun binds target as a pronoun value.
func NewPronoun(target *Scope) *Pronoun {
	return &Pronoun{target: target}
}

// Resolve looks name up in the wrapped scope without parent fallback.
func (p *Pronoun) Resolve(name string) (any, error) {
	return p.target.ResolveLocal(name)
}

func (p *Pronoun) String() string { return "<data>" }
