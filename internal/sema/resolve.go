package sema

import (
	"strings"

	"zsem/internal/ast"
	"zsem/internal/symbols"
	"zsem/internal/token"
)

// ResolveType computes the type of an expression node, memoized per
// (node, file) for the session. A sentinel entry is installed before
// recursing, so cyclic definitions observe "not found" instead of looping.
func (s *Session) ResolveType(ref NodeRef) (TypeWithHandle, bool) {
	if !ref.IsValid() {
		return TypeWithHandle{}, false
	}
	s.enter()
	defer s.leave()
	if entry, hit := s.memo[ref]; hit {
		if !entry.done {
			return TypeWithHandle{}, false
		}
		return entry.typ, entry.ok
	}
	s.memo[ref] = memoEntry{}
	t, ok := s.resolveUncached(ref)
	s.memo[ref] = memoEntry{typ: t, ok: ok, done: true}
	return t, ok
}

func (s *Session) resolveUncached(ref NodeRef) (TypeWithHandle, bool) {
	tree, doc, ok := s.document(ref.File)
	if !ok {
		return TypeWithHandle{}, false
	}
	n := tree.Node(ref.Node)
	if n == nil {
		return TypeWithHandle{}, false
	}

	switch n.Kind {
	case ast.NodeRoot, ast.NodeContainerDecl, ast.NodeErrorSetDecl, ast.NodeFnProto:
		return otherType(ref.Node, ref.File, true), true

	case ast.NodeFnDecl:
		return otherType(ref.Node, ref.File, false), true

	case ast.NodeVarDecl:
		if n.LHS.IsValid() {
			t, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
			if !ok {
				return TypeWithHandle{}, false
			}
			return t.Instance(), true
		}
		return s.ResolveType(NodeRef{Node: n.RHS, File: ref.File})

	case ast.NodeIdent:
		return s.resolveIdent(tree, doc, ref, n)

	case ast.NodeFieldAccess:
		return s.resolveFieldAccess(tree, ref, n)

	case ast.NodeCall:
		return s.resolveCall(ref, n)

	case ast.NodeBuiltinCall:
		return s.resolveBuiltin(tree, doc, ref, n)

	case ast.NodeIndexAccess:
		base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return s.elemOf(base)

	case ast.NodeSliceExpr:
		return s.resolveSlice(ref, n)

	case ast.NodeDeref:
		base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok || base.Type.Kind != TypePointer || base.Type.Elem == nil {
			return TypeWithHandle{}, false
		}
		return base.Type.Elem.Instance(), true

	case ast.NodeUnwrapOptional:
		base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return s.stripOptional(base)

	case ast.NodeAddressOf:
		base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return TypeWithHandle{
			Type: Type{Kind: TypePointer, Elem: &base},
			File: ref.File,
		}, true

	case ast.NodeTry, ast.NodeCatch:
		base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return s.errorPayloadOf(base)

	case ast.NodeOrelse:
		base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return s.stripOptional(base)

	case ast.NodeIf:
		return s.resolveIf(tree, ref, n)

	case ast.NodeSwitch:
		return s.resolveSwitch(tree, ref, n)

	case ast.NodeComptime, ast.NodeGrouped:
		return s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})

	case ast.NodeBinOp:
		return s.resolveBinOp(tree, ref, n)

	case ast.NodeStructInit:
		if !n.LHS.IsValid() {
			return TypeWithHandle{}, false
		}
		t, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return t.Instance(), true

	case ast.NodeErrorValue:
		return otherType(ref.Node, ref.File, false), true

	case ast.NodeIntLit, ast.NodeCharLit:
		return primitiveType("comptime_int", ref.File, false), true

	case ast.NodeFloatLit:
		return primitiveType("comptime_float", ref.File, false), true

	case ast.NodeBoolLit:
		return primitiveType("bool", ref.File, false), true

	case ast.NodeStringLit:
		elem := primitiveType("u8", ref.File, false)
		return TypeWithHandle{
			Type: Type{Kind: TypeSlice, Elem: &elem},
			File: ref.File,
		}, true

	case ast.NodeUnreachableLit:
		return primitiveType("noreturn", ref.File, false), true

	case ast.NodePtrType:
		elem, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return TypeWithHandle{
			Type: Type{Kind: TypePointer, IsTypeVal: true, Elem: &elem},
			File: ref.File,
		}, true

	case ast.NodeSliceType:
		elem, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		return TypeWithHandle{
			Type: Type{Kind: TypeSlice, IsTypeVal: true, Elem: &elem},
			File: ref.File,
		}, true

	case ast.NodeOptionalType, ast.NodeArrayType:
		return otherType(ref.Node, ref.File, true), true

	case ast.NodeErrorUnionType:
		payload, ok := s.ResolveType(NodeRef{Node: n.RHS, File: ref.File})
		if !ok {
			return TypeWithHandle{}, false
		}
		t := Type{Kind: TypeErrorUnion, IsTypeVal: true, Elem: &payload}
		if errSet, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File}); ok {
			t.Err = &errSet
		}
		return TypeWithHandle{Type: t, File: ref.File}, true
	}

	return TypeWithHandle{}, false
}

func (s *Session) resolveIdent(tree *ast.Tree, doc *symbols.DocumentScope, ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	name := tree.TokenText(n.Tok)
	if isPrimitiveName(name) {
		return primitiveType(name, ref.File, true), true
	}
	h, ok := s.LookupLexical(ref.File, n.Span.Start, name)
	if !ok {
		return TypeWithHandle{}, false
	}
	if h.File == ref.File {
		d := doc.Decls.Get(h.Decl)
		if d.Kind == symbols.DeclAstNode {
			// trivial self-reference, e.g. `const A = A;`
			if d.Node == ref.Node {
				return TypeWithHandle{}, false
			}
			if dn := tree.Node(d.Node); dn != nil && dn.Kind == ast.NodeVarDecl && dn.RHS == ref.Node {
				return TypeWithHandle{}, false
			}
		}
	}
	return s.DeclType(h)
}

// resolveFieldAccess resolves lhs.name with one implicit pointer
// dereference. Slice pseudo-fields len and ptr are answered directly.
func (s *Session) resolveFieldAccess(tree *ast.Tree, ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
	if !ok {
		return TypeWithHandle{}, false
	}
	if base.Type.Kind == TypePointer && base.Type.Elem != nil {
		base = base.Type.Elem.Instance()
	}
	name := tree.TokenText(n.Tok)

	if base.Type.Kind == TypeSlice {
		switch name {
		case "len":
			return primitiveType("usize", ref.File, false), true
		case "ptr":
			if base.Type.Elem != nil {
				elem := *base.Type.Elem
				return TypeWithHandle{
					Type: Type{Kind: TypePointer, Elem: &elem},
					File: base.File,
				}, true
			}
		}
		return TypeWithHandle{}, false
	}

	container, ok := s.containerOf(base)
	if !ok {
		return TypeWithHandle{}, false
	}
	h, ok := s.LookupContainer(container, name, !base.Type.IsTypeVal, ref.File)
	if !ok {
		return TypeWithHandle{}, false
	}
	return s.DeclType(h)
}

// resolveCall resolves the callee to a function declaration, binds generic
// type parameters to the corresponding argument type values, and resolves
// the return type. The const evaluator is the fallback when the return
// type is not determined syntactically.
func (s *Session) resolveCall(ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	calleeT, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
	if !ok {
		return TypeWithHandle{}, false
	}
	fnRef, proto, ok := s.functionOf(calleeT)
	if !ok {
		return TypeWithHandle{}, false
	}
	fnTree, _, ok := s.document(fnRef.File)
	if !ok {
		return TypeWithHandle{}, false
	}
	protoNode := fnTree.Node(proto)
	if protoNode == nil {
		return TypeWithHandle{}, false
	}

	for i, paramID := range protoNode.Extra {
		if i >= len(n.Extra) {
			break
		}
		param := fnTree.Node(paramID)
		if param == nil || !s.isMetaTypeExpr(fnTree, param.LHS) {
			continue
		}
		argT, ok := s.ResolveType(NodeRef{Node: n.Extra[i], File: ref.File})
		if !ok {
			continue
		}
		s.bind(NodeRef{Node: paramID, File: fnRef.File}, argT)
	}

	// The return type memo key is (node, file) and does not include the
	// binding environment: within one session, the first call site's
	// bindings decide the memoized return type for every later call to
	// the same function. Best-effort; a Reset starts over.
	if protoNode.RHS.IsValid() {
		if ret, ok := s.ResolveType(NodeRef{Node: protoNode.RHS, File: fnRef.File}); ok {
			if ret.Type.IsTypeVal {
				return ret.Instance(), true
			}
			return ret, true
		}
	}

	if s.evaluator != nil {
		v, err := s.evaluator.Evaluate(ref, fnTree.Root)
		if err != nil {
			s.point("const_eval_error", err.Error())
			return TypeWithHandle{}, false
		}
		return TypeWithHandle{
			Type: Type{Kind: TypeComptime, Value: v},
			File: ref.File,
		}, true
	}
	return TypeWithHandle{}, false
}

// castBuiltins yield the instance type named by their first argument.
var castBuiltins = map[string]struct{}{
	"@as":             {},
	"@bitCast":        {},
	"@intCast":        {},
	"@ptrCast":        {},
	"@truncate":       {},
	"@floatCast":      {},
	"@intFromFloat":   {},
	"@floatFromInt":   {},
	"@enumFromInt":    {},
	"@alignCast":      {},
	"@constCast":      {},
	"@volatileCast":   {},
	"@errorCast":      {},
	"@fieldParentPtr": {},
}

func (s *Session) resolveBuiltin(tree *ast.Tree, doc *symbols.DocumentScope, ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	name := tree.TokenText(n.Tok)
	arg := func(i int) (NodeRef, bool) {
		if i >= len(n.Extra) || !n.Extra[i].IsValid() {
			return NodeRef{}, false
		}
		return NodeRef{Node: n.Extra[i], File: ref.File}, true
	}

	if _, isCast := castBuiltins[name]; isCast {
		a, ok := arg(0)
		if !ok {
			return TypeWithHandle{}, false
		}
		t, ok := s.ResolveType(a)
		if !ok {
			return TypeWithHandle{}, false
		}
		return t.Instance(), true
	}

	switch name {
	case "@TypeOf":
		a, ok := arg(0)
		if !ok {
			return TypeWithHandle{}, false
		}
		t, ok := s.ResolveType(a)
		if !ok {
			return TypeWithHandle{}, false
		}
		return t.TypeValue(), true

	case "@This":
		for sc := doc.InnermostAt(n.Span.Start); sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
			scope := doc.Scopes.Get(sc)
			if scope.Kind == symbols.ScopeContainer {
				return otherType(scope.Node, ref.File, true), true
			}
		}
		return TypeWithHandle{}, false

	case "@import", "@cImport":
		a, ok := arg(0)
		if !ok {
			return TypeWithHandle{}, false
		}
		path := strings.Trim(s.text(tree, a.Node), `"`)
		target, ok := s.provider.ResolveImport(ref.File, path)
		if !ok {
			s.point("import_unresolved", path)
			return TypeWithHandle{}, false
		}
		targetTree, _, ok := s.document(target)
		if !ok {
			return TypeWithHandle{}, false
		}
		return otherType(targetTree.Root, target, true), true

	case "@errorName", "@tagName", "@typeName", "@embedFile":
		elem := primitiveType("u8", ref.File, false)
		return TypeWithHandle{
			Type: Type{Kind: TypeSlice, Elem: &elem},
			File: ref.File,
		}, true

	case "@sizeOf", "@alignOf", "@bitSizeOf", "@offsetOf", "@bitOffsetOf":
		return primitiveType("comptime_int", ref.File, false), true

	case "@hasField", "@hasDecl":
		return primitiveType("bool", ref.File, false), true
	}
	return TypeWithHandle{}, false
}

func (s *Session) resolveSlice(ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	base, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File})
	if !ok {
		return TypeWithHandle{}, false
	}
	switch base.Type.Kind {
	case TypeSlice:
		return base.Instance(), true
	case TypePointer:
		if base.Type.Elem != nil {
			elem := *base.Type.Elem
			return TypeWithHandle{
				Type: Type{Kind: TypeSlice, Elem: &elem},
				File: base.File,
			}, true
		}
	case TypeOther:
		elem, ok := s.elemOf(base)
		if !ok {
			return TypeWithHandle{}, false
		}
		return TypeWithHandle{
			Type: Type{Kind: TypeSlice, Elem: &elem},
			File: base.File,
		}, true
	}
	return TypeWithHandle{}, false
}

func (s *Session) resolveIf(tree *ast.Tree, ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	cond := n.Extra[ast.IfCond]
	desc := s.text(tree, cond)
	var entries []EitherEntry
	if t, ok := s.ResolveType(NodeRef{Node: n.Extra[ast.IfThen], File: ref.File}); ok {
		entries = append(entries, EitherEntry{Type: t, Descriptor: desc})
	}
	if t, ok := s.ResolveType(NodeRef{Node: n.Extra[ast.IfElse], File: ref.File}); ok {
		entries = append(entries, EitherEntry{Type: t, Descriptor: desc})
	}
	if len(entries) == 0 {
		return TypeWithHandle{}, false
	}
	return TypeWithHandle{
		Type: Type{Kind: TypeEither, Entries: entries},
		File: ref.File,
	}, true
}

func (s *Session) resolveSwitch(tree *ast.Tree, ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	var entries []EitherEntry
	for _, caseID := range n.Extra {
		c := tree.Node(caseID)
		if c == nil || len(c.Extra) < 2 {
			continue
		}
		t, ok := s.ResolveType(NodeRef{Node: c.Extra[ast.CaseBody], File: ref.File})
		if !ok {
			continue
		}
		desc := "else"
		if c.Flags&ast.FlagElse == 0 {
			var items []string
			for _, item := range c.Extra[ast.CaseFirstItem:] {
				items = append(items, s.text(tree, item))
			}
			desc = strings.Join(items, ", ")
		}
		entries = append(entries, EitherEntry{Type: t, Descriptor: desc})
	}
	if len(entries) == 0 {
		return TypeWithHandle{}, false
	}
	return TypeWithHandle{
		Type: Type{Kind: TypeEither, Entries: entries},
		File: ref.File,
	}, true
}

func (s *Session) resolveBinOp(tree *ast.Tree, ref NodeRef, n *ast.Node) (TypeWithHandle, bool) {
	switch tree.TokenAt(n.Tok).Kind {
	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq,
		token.KwAnd, token.KwOr:
		return primitiveType("bool", ref.File, false), true
	}
	// first-match peer handling: the left operand decides
	if t, ok := s.ResolveType(NodeRef{Node: n.LHS, File: ref.File}); ok {
		return t, true
	}
	return s.ResolveType(NodeRef{Node: n.RHS, File: ref.File})
}

// functionOf extracts the function a callee type refers to, returning its
// proto node.
func (s *Session) functionOf(t TypeWithHandle) (NodeRef, ast.NodeID, bool) {
	if t.Type.Kind != TypeOther {
		return NodeRef{}, ast.NoNodeID, false
	}
	tree, _, ok := s.document(t.File)
	if !ok {
		return NodeRef{}, ast.NoNodeID, false
	}
	switch tree.Kind(t.Type.Node) {
	case ast.NodeFnDecl:
		return NodeRef{Node: t.Type.Node, File: t.File}, tree.Node(t.Type.Node).LHS, true
	case ast.NodeFnProto:
		return NodeRef{Node: t.Type.Node, File: t.File}, t.Type.Node, true
	default:
		return NodeRef{}, ast.NoNodeID, false
	}
}

func (s *Session) isMetaTypeExpr(tree *ast.Tree, node ast.NodeID) bool {
	n := tree.Node(node)
	return n != nil && n.Kind == ast.NodeIdent && tree.TokenText(n.Tok) == "type"
}

// elemOf strips one array/slice layer and yields the element as an
// instance.
func (s *Session) elemOf(t TypeWithHandle) (TypeWithHandle, bool) {
	switch t.Type.Kind {
	case TypeSlice, TypePointer:
		if t.Type.Elem != nil {
			return t.Type.Elem.Instance(), true
		}
	case TypeOther:
		tree, _, ok := s.document(t.File)
		if !ok {
			return TypeWithHandle{}, false
		}
		n := tree.Node(t.Type.Node)
		if n != nil && (n.Kind == ast.NodeArrayType || n.Kind == ast.NodeSliceType) {
			elem, ok := s.ResolveType(NodeRef{Node: n.LHS, File: t.File})
			if !ok {
				return TypeWithHandle{}, false
			}
			return elem.Instance(), true
		}
	}
	return TypeWithHandle{}, false
}

// stripOptional removes one optional layer.
func (s *Session) stripOptional(t TypeWithHandle) (TypeWithHandle, bool) {
	if t.Type.Kind != TypeOther {
		return TypeWithHandle{}, false
	}
	tree, _, ok := s.document(t.File)
	if !ok {
		return TypeWithHandle{}, false
	}
	n := tree.Node(t.Type.Node)
	if n == nil || n.Kind != ast.NodeOptionalType {
		return TypeWithHandle{}, false
	}
	inner, ok := s.ResolveType(NodeRef{Node: n.LHS, File: t.File})
	if !ok {
		return TypeWithHandle{}, false
	}
	return inner.Instance(), true
}

// errorPayloadOf strips the error side of an error union.
func (s *Session) errorPayloadOf(t TypeWithHandle) (TypeWithHandle, bool) {
	if t.Type.Kind == TypeErrorUnion && t.Type.Elem != nil {
		return t.Type.Elem.Instance(), true
	}
	return TypeWithHandle{}, false
}
