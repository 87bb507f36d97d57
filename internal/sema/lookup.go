package sema

import (
	"sort"

	"zsem/internal/ast"
	"zsem/internal/source"
	"zsem/internal/symbols"
)

// LookupLexical resolves name at a byte offset in file, walking the scope
// chain innermost-out. Container fields and labels are skipped; they have
// their own lookup paths. When no direct declaration matches, each scope's
// using directives are consulted in order.
func (s *Session) LookupLexical(file source.FileID, off uint32, name string) (DeclHandle, bool) {
	s.enter()
	defer s.leave()
	tree, doc, ok := s.document(file)
	if !ok {
		return DeclHandle{}, false
	}
	start := doc.InnermostAt(off)
	for sc := start; sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
		id := doc.DeclInScope(sc, name)
		if !id.IsValid() {
			continue
		}
		d := doc.Decls.Get(id)
		if d.IsField(tree) || d.Kind == symbols.DeclLabel {
			continue
		}
		if !doc.DeclVisibleAt(sc, id, off) {
			continue
		}
		return DeclHandle{Decl: id, File: file}, true
	}
	for sc := start; sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
		if h, ok := s.lookupUsings(doc, file, sc, name, file); ok {
			return h, true
		}
	}
	return DeclHandle{}, false
}

// LookupLabel resolves a loop or block label visible at off.
func (s *Session) LookupLabel(file source.FileID, off uint32, name string) (DeclHandle, bool) {
	_, doc, ok := s.document(file)
	if !ok {
		return DeclHandle{}, false
	}
	for sc := doc.InnermostAt(off); sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
		id := doc.DeclInScope(sc, name)
		if id.IsValid() && doc.Decls.Get(id).Kind == symbols.DeclLabel {
			return DeclHandle{Decl: id, File: file}, true
		}
	}
	return DeclHandle{}, false
}

// LookupContainer resolves name among the members of a container node.
// Field declarations are gated on instanceAccess: enum members are
// type-level, struct/union fields are instance-level, and a mismatch is a
// miss rather than a wrong answer. Lookups that cross a file boundary see
// only public declarations.
func (s *Session) LookupContainer(container NodeRef, name string, instanceAccess bool, origin source.FileID) (DeclHandle, bool) {
	s.enter()
	defer s.leave()
	tree, doc, ok := s.document(container.File)
	if !ok {
		return DeclHandle{}, false
	}
	scope := doc.ScopeForNode(container.Node)
	if !scope.IsValid() {
		return DeclHandle{}, false
	}
	if id := doc.DeclInScope(scope, name); id.IsValid() {
		d := doc.Decls.Get(id)
		if s.containerDeclVisible(tree, doc, scope, d, instanceAccess, container.File, origin) {
			return DeclHandle{Decl: id, File: container.File}, true
		}
	}
	return s.lookupUsings(doc, container.File, scope, name, origin)
}

func (s *Session) containerDeclVisible(tree *ast.Tree, doc *symbols.DocumentScope, scope symbols.ScopeID, d *symbols.Declaration, instanceAccess bool, file, origin source.FileID) bool {
	if d.Kind == symbols.DeclLabel {
		return false
	}
	if d.IsField(tree) {
		if doc.ContainerIsEnum(scope) {
			if instanceAccess {
				return false
			}
		} else if !instanceAccess {
			return false
		}
	}
	if file != origin && !d.Public {
		return false
	}
	return true
}

// lookupUsings resolves each using directive of scope to a container and
// retries the lookup there. The visited set breaks mutually merging
// namespaces.
func (s *Session) lookupUsings(doc *symbols.DocumentScope, file source.FileID, scope symbols.ScopeID, name string, origin source.FileID) (DeclHandle, bool) {
	sc := doc.Scopes.Get(scope)
	if sc == nil {
		return DeclHandle{}, false
	}
	for _, usingExpr := range sc.Usings {
		ref := NodeRef{Node: usingExpr, File: file}
		if _, seen := s.usingVisited[ref]; seen {
			continue
		}
		s.usingVisited[ref] = struct{}{}
		t, ok := s.ResolveType(ref)
		if !ok {
			continue
		}
		target, ok := s.containerOf(t)
		if !ok {
			continue
		}
		if h, ok := s.LookupContainer(target, name, false, origin); ok {
			return h, true
		}
	}
	return DeclHandle{}, false
}

// MemberCandidate is one suggestion produced by ContainerMembers.
type MemberCandidate struct {
	Name string
	Decl DeclHandle
}

// ContainerMembers lists the members of t visible for the given access
// mode, in sorted name order. Pointers are dereferenced one level, the way
// member access does.
func (s *Session) ContainerMembers(t TypeWithHandle, instanceAccess bool, origin source.FileID) []MemberCandidate {
	if t.Type.Kind == TypePointer && t.Type.Elem != nil {
		t = *t.Type.Elem
	}
	container, ok := s.containerOf(t)
	if !ok {
		return nil
	}
	tree, doc, ok := s.document(container.File)
	if !ok {
		return nil
	}
	scope := doc.ScopeForNode(container.Node)
	if !scope.IsValid() {
		return nil
	}
	sc := doc.Scopes.Get(scope)
	names := make([]string, 0, len(sc.Decls))
	for name := range sc.Decls {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]MemberCandidate, 0, len(names))
	for _, name := range names {
		id := sc.Decls[name]
		d := doc.Decls.Get(id)
		if !s.containerDeclVisible(tree, doc, scope, d, instanceAccess, container.File, origin) {
			continue
		}
		out = append(out, MemberCandidate{Name: name, Decl: DeclHandle{Decl: id, File: container.File}})
	}
	return out
}

// containerOf extracts the container node a type refers to, when it is
// one.
func (s *Session) containerOf(t TypeWithHandle) (NodeRef, bool) {
	if t.Type.Kind != TypeOther {
		return NodeRef{}, false
	}
	tree, _, ok := s.document(t.File)
	if !ok {
		return NodeRef{}, false
	}
	switch tree.Kind(t.Type.Node) {
	case ast.NodeRoot, ast.NodeContainerDecl, ast.NodeErrorSetDecl:
		return NodeRef{Node: t.Type.Node, File: t.File}, true
	default:
		return NodeRef{}, false
	}
}
