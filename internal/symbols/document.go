package symbols

import (
	"zsem/internal/ast"
	"zsem/internal/token"
)

// DocumentScope owns the scope forest and declaration table for one file,
// plus the two completion sets gathered during the build pass. It is built
// once per tree, immutable afterward, and rebuilt wholesale when the owning
// file's text changes.
type DocumentScope struct {
	Tree   *ast.Tree
	Scopes *Scopes
	Decls  *Decls
	Root   ScopeID

	// ErrorCompletions and EnumCompletions are deduplicated by name,
	// first occurrence wins.
	ErrorCompletions []string
	EnumCompletions  []string

	scopeByNode map[ast.NodeID]ScopeID
}

// ScopeForNode returns the scope opened by the given syntax node, if any.
func (d *DocumentScope) ScopeForNode(node ast.NodeID) ScopeID {
	return d.scopeByNode[node]
}

// InnermostAt returns the innermost scope whose span contains the byte
// offset, starting at the root. Sibling spans are disjoint, so the first
// matching child is the only one.
func (d *DocumentScope) InnermostAt(off uint32) ScopeID {
	cur := d.Root
	if s := d.Scopes.Get(cur); s == nil || !s.Span.Contains(off) {
		return cur // root still answers queries at the file edges
	}
	for {
		s := d.Scopes.Get(cur)
		descended := false
		for _, child := range s.Children {
			cs := d.Scopes.Get(child)
			if cs != nil && cs.Span.Contains(off) {
				cur = child
				descended = true
				break
			}
		}
		if !descended {
			return cur
		}
	}
}

// DeclInScope looks up a name directly in one scope.
func (d *DocumentScope) DeclInScope(scope ScopeID, name string) DeclID {
	s := d.Scopes.Get(scope)
	if s == nil {
		return NoDeclID
	}
	return s.Decls[name]
}

// DeclVisibleAt reports whether a declaration is in effect at the byte
// offset. Container and function declarations are visible throughout their
// scope; a block local only from its declaring statement onward, so a use
// above it falls through to the outer binding.
func (d *DocumentScope) DeclVisibleAt(scope ScopeID, id DeclID, off uint32) bool {
	s := d.Scopes.Get(scope)
	if s == nil {
		return false
	}
	if s.Kind != ScopeBlock {
		return true
	}
	decl := d.Decls.Get(id)
	if decl == nil || decl.Kind != DeclAstNode {
		return true
	}
	return d.Tree.Span(decl.Node).Start <= off
}

// ContainerIsEnum reports whether the scope was opened by an enum body.
// Root containers and error sets are not enums.
func (d *DocumentScope) ContainerIsEnum(scope ScopeID) bool {
	s := d.Scopes.Get(scope)
	if s == nil {
		return false
	}
	n := d.Tree.Node(s.Node)
	if n == nil || n.Kind != ast.NodeContainerDecl {
		return false
	}
	return d.Tree.TokenAt(n.Tok).Kind == token.KwEnum
}

// ContainerIsUnion reports whether the scope was opened by a union body.
func (d *DocumentScope) ContainerIsUnion(scope ScopeID) bool {
	s := d.Scopes.Get(scope)
	if s == nil {
		return false
	}
	n := d.Tree.Node(s.Node)
	if n == nil || n.Kind != ast.NodeContainerDecl {
		return false
	}
	return d.Tree.TokenAt(n.Tok).Kind == token.KwUnion
}
