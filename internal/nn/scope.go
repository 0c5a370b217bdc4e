package nn

import "strconv"

// Scope is a hierarchical parameter-naming path. Layers are constructed
// under a scope so every learned tensor carries the fully qualified name it
// has in a serialized checkpoint, e.g.
//
//	layers.0.self_attn.q_proj.weight
//
// Scope values are immutable; Sub and Index return derived scopes.
type Scope struct {
	prefix string
}

// RootScope returns the empty root scope.
func RootScope() Scope {
	return Scope{}
}

// Sub returns a child scope with the given name appended.
func (s Scope) Sub(name string) Scope {
	return Scope{prefix: s.Name(name)}
}

// Index returns a child scope for a numbered sub-module (e.g. a layer).
func (s Scope) Index(i int) Scope {
	return s.Sub(strconv.Itoa(i))
}

// Name returns the fully qualified name for a leaf under this scope.
func (s Scope) Name(leaf string) string {
	if s.prefix == "" {
		return leaf
	}
	return s.prefix + "." + leaf
}
