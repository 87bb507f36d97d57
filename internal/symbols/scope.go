package symbols

import (
	"zsem/internal/ast"
	"zsem/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid   ScopeKind = iota
	ScopeContainer           // struct/enum/union/error-set/root body
	ScopeFunction            // function signature + body
	ScopeBlock               // { ... }
	ScopeOther               // branch bodies, case prongs
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeContainer:
		return "container"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeOther:
		return "other"
	default:
		return "invalid"
	}
}

// Scope models one lexical region. Decls maps declared names to declaration
// IDs; later writes replace earlier ones. Spans of sibling scopes are
// laterally disjoint and nested within the parent's span.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Node     ast.NodeID // owning syntax node
	Span     source.Span
	Decls    map[string]DeclID
	Children []ScopeID
	Usings   []ast.NodeID // usingnamespace target expressions, in order
	Tests    []ast.NodeID
}
