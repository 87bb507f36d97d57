package sema

import (
	"zsem/internal/ast"
	"zsem/internal/symbols"
)

// DeclType maps a declaration to its type. Labels have no type and always
// report "not found".
func (s *Session) DeclType(h DeclHandle) (TypeWithHandle, bool) {
	if !h.IsValid() {
		return TypeWithHandle{}, false
	}
	s.enter()
	defer s.leave()
	tree, doc, ok := s.document(h.File)
	if !ok {
		return TypeWithHandle{}, false
	}
	d := doc.Decls.Get(h.Decl)
	if d == nil {
		return TypeWithHandle{}, false
	}

	switch d.Kind {
	case symbols.DeclAstNode:
		return s.astNodeDeclType(tree, doc, h, d)

	case symbols.DeclParam:
		return s.paramDeclType(tree, h, d)

	case symbols.DeclPointerPayload:
		cond, ok := s.ResolveType(NodeRef{Node: d.Owner, File: h.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		if t, ok := s.stripOptional(cond); ok {
			return t, true
		}
		// while over an error union binds the payload
		return s.errorPayloadOf(cond)

	case symbols.DeclErrorPayload:
		if !d.Owner.IsValid() {
			// errdefer capture; the error set is not recoverable from syntax
			return primitiveType("anyerror", h.File, false), true
		}
		cond, ok := s.ResolveType(NodeRef{Node: d.Owner, File: h.File})
		if !ok || cond.Type.Kind != TypeErrorUnion {
			return TypeWithHandle{}, false
		}
		if cond.Type.Err != nil {
			return cond.Type.Err.Instance(), true
		}
		return primitiveType("anyerror", h.File, false), true

	case symbols.DeclArrayPayload:
		arr, ok := s.ResolveType(NodeRef{Node: d.Owner, File: h.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return s.elemOf(arr)

	case symbols.DeclArrayIndex:
		return TypeWithHandle{
			Type: Type{Kind: TypeArrayIndex},
			File: h.File,
		}, true

	case symbols.DeclSwitchPayload:
		return s.switchPayloadType(tree, h, d)
	}

	// labels and anything unhandled have no type
	return TypeWithHandle{}, false
}

func (s *Session) astNodeDeclType(tree *ast.Tree, doc *symbols.DocumentScope, h DeclHandle, d *symbols.Declaration) (TypeWithHandle, bool) {
	n := tree.Node(d.Node)
	if n == nil {
		return TypeWithHandle{}, false
	}
	switch n.Kind {
	case ast.NodeContainerField:
		if n.LHS.IsValid() {
			t, ok := s.ResolveType(NodeRef{Node: n.LHS, File: h.File})
			if !ok {
				return TypeWithHandle{}, false
			}
			return t.Instance(), true
		}
		// untyped enum member: its type is the enclosing container
		return s.enclosingContainerType(doc, n, h)

	case ast.NodeErrorSetMember:
		return s.enclosingContainerType(doc, n, h)

	default:
		return s.ResolveType(NodeRef{Node: d.Node, File: h.File})
	}
}

func (s *Session) enclosingContainerType(doc *symbols.DocumentScope, n *ast.Node, h DeclHandle) (TypeWithHandle, bool) {
	for sc := doc.InnermostAt(n.Span.Start); sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
		scope := doc.Scopes.Get(sc)
		if scope.Kind == symbols.ScopeContainer {
			return otherType(scope.Node, h.File, false), true
		}
	}
	return TypeWithHandle{}, false
}

// paramDeclType resolves a parameter's type. A generic binding installed
// by a call in flight takes precedence; anytype parameters fall back to
// call-site inference.
func (s *Session) paramDeclType(tree *ast.Tree, h DeclHandle, d *symbols.Declaration) (TypeWithHandle, bool) {
	if t, ok := s.binding(NodeRef{Node: d.Node, File: h.File}); ok {
		return t, true
	}
	p := tree.Node(d.Node)
	if p == nil {
		return TypeWithHandle{}, false
	}
	if p.Flags&ast.FlagAnytype != 0 {
		return s.anytypeFromCallsites(tree, h, d)
	}
	if !p.LHS.IsValid() {
		return TypeWithHandle{}, false
	}
	// guard `fn f(T: T)` style self-reference
	if te := tree.Node(p.LHS); te != nil && te.Kind == ast.NodeIdent &&
		tree.TokenText(te.Tok) == d.Name {
		return TypeWithHandle{}, false
	}
	t, ok := s.ResolveType(NodeRef{Node: p.LHS, File: h.File})
	if !ok {
		return TypeWithHandle{}, false
	}
	return t.Instance(), true
}

// anytypeFromCallsites infers an untyped parameter's type from the actual
// argument at each known call site, aggregating the distinct results into
// an Either. Duplicates are dropped by structural identity.
func (s *Session) anytypeFromCallsites(tree *ast.Tree, h DeclHandle, d *symbols.Declaration) (TypeWithHandle, bool) {
	if s.callsites == nil {
		return TypeWithHandle{}, false
	}
	calls := s.callsites.FindCalls(NodeRef{Node: d.Owner, File: h.File})
	var entries []EitherEntry
	for _, site := range calls {
		callTree, _, ok := s.document(site.File)
		if !ok {
			continue
		}
		call := callTree.Node(site.Call)
		if call == nil || int(d.Index) >= len(call.Extra) {
			continue
		}
		arg := call.Extra[d.Index]
		t, ok := s.ResolveType(NodeRef{Node: arg, File: site.File})
		if !ok {
			continue
		}
		dup := false
		for _, e := range entries {
			if Equal(e.Type, t) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		entries = append(entries, EitherEntry{
			Type:       t,
			Descriptor: s.text(callTree, arg),
		})
	}
	switch len(entries) {
	case 0:
		return TypeWithHandle{}, false
	case 1:
		return entries[0].Type, true
	default:
		return TypeWithHandle{
			Type: Type{Kind: TypeEither, Entries: entries},
			File: h.File,
		}, true
	}
}

// switchPayloadType resolves a union switch capture: the subject must be a
// union and the matching case's field supplies the type.
func (s *Session) switchPayloadType(tree *ast.Tree, h DeclHandle, d *symbols.Declaration) (TypeWithHandle, bool) {
	subject, ok := s.ResolveType(NodeRef{Node: d.Owner, File: h.File})
	if !ok {
		return TypeWithHandle{}, false
	}
	container, ok := s.containerOf(subject)
	if !ok {
		return TypeWithHandle{}, false
	}
	_, containerDoc, ok := s.document(container.File)
	if !ok || !containerDoc.ContainerIsUnion(containerDoc.ScopeForNode(container.Node)) {
		return TypeWithHandle{}, false
	}
	c := tree.Node(d.Extra)
	if c == nil || len(c.Extra) <= ast.CaseFirstItem {
		return TypeWithHandle{}, false
	}
	name := tree.NodeName(c.Extra[ast.CaseFirstItem])
	if name == "" {
		return TypeWithHandle{}, false
	}
	fh, ok := s.LookupContainer(container, name, true, h.File)
	if !ok {
		return TypeWithHandle{}, false
	}
	return s.DeclType(fh)
}
