package symbols

import (
	"zsem/internal/ast"
	"zsem/internal/token"
)

// Build turns a syntax tree into a DocumentScope in a single pass. It is
// total: malformed trees produce partial scopes, never an error.
func Build(tree *ast.Tree) *DocumentScope {
	doc := &DocumentScope{
		Tree:        tree,
		Scopes:      NewScopes(tree.Len() / 4),
		Decls:       NewDecls(tree.Len() / 4),
		scopeByNode: make(map[ast.NodeID]ScopeID),
	}
	b := &builder{
		tree:     tree,
		doc:      doc,
		errSeen:  make(map[string]struct{}),
		enumSeen: make(map[string]struct{}),
	}
	doc.Root = b.buildContainer(tree.Root, NoScopeID)
	return doc
}

type builder struct {
	tree     *ast.Tree
	doc      *DocumentScope
	errSeen  map[string]struct{}
	enumSeen map[string]struct{}
}

func (b *builder) open(kind ScopeKind, parent ScopeID, node ast.NodeID) ScopeID {
	id := b.doc.Scopes.New(kind, parent, node, b.tree.Span(node))
	b.doc.scopeByNode[node] = id
	return id
}

// declare installs a declaration under its name; later writes replace
// earlier ones.
func (b *builder) declare(scope ScopeID, decl Declaration) DeclID {
	if decl.Name == "" {
		return NoDeclID
	}
	id := b.doc.Decls.New(decl)
	if s := b.doc.Scopes.Get(scope); s != nil {
		s.Decls[decl.Name] = id
	}
	return id
}

func (b *builder) addErrorCompletion(name string) {
	if _, seen := b.errSeen[name]; seen || name == "" {
		return
	}
	b.errSeen[name] = struct{}{}
	b.doc.ErrorCompletions = append(b.doc.ErrorCompletions, name)
}

func (b *builder) addEnumCompletion(name string) {
	if _, seen := b.enumSeen[name]; seen || name == "" {
		return
	}
	b.enumSeen[name] = struct{}{}
	b.doc.EnumCompletions = append(b.doc.EnumCompletions, name)
}

// buildContainer opens a container scope for root/struct/enum/union/error
// set bodies and registers each member.
func (b *builder) buildContainer(node ast.NodeID, parent ScopeID) ScopeID {
	scope := b.open(ScopeContainer, parent, node)
	n := b.tree.Node(node)
	if n == nil {
		return scope
	}
	isEnum := n.Kind == ast.NodeContainerDecl && b.tree.TokenAt(n.Tok).Kind == token.KwEnum

	for _, member := range n.Extra {
		m := b.tree.Node(member)
		if m == nil {
			continue
		}
		switch m.Kind {
		case ast.NodeVarDecl:
			b.declare(scope, Declaration{
				Kind:   DeclAstNode,
				Name:   b.tree.NodeName(member),
				Node:   member,
				Public: m.Flags&ast.FlagPub != 0,
			})
			b.visit(m.LHS, scope)
			b.visit(m.RHS, scope)

		case ast.NodeFnDecl:
			b.declare(scope, Declaration{
				Kind:   DeclAstNode,
				Name:   b.tree.NodeName(member),
				Node:   member,
				Public: m.Flags&ast.FlagPub != 0,
			})
			b.buildFunction(member, scope)

		case ast.NodeContainerField:
			name := b.tree.NodeName(member)
			b.declare(scope, Declaration{
				Kind:   DeclAstNode,
				Name:   name,
				Node:   member,
				Public: true,
			})
			if isEnum {
				b.addEnumCompletion(name)
			}
			b.visit(m.LHS, scope)
			b.visit(m.RHS, scope)

		case ast.NodeErrorSetMember:
			name := b.tree.NodeName(member)
			b.declare(scope, Declaration{
				Kind:   DeclAstNode,
				Name:   name,
				Node:   member,
				Public: true,
			})
			b.addErrorCompletion(name)

		case ast.NodeTestDecl:
			if s := b.doc.Scopes.Get(scope); s != nil {
				s.Tests = append(s.Tests, member)
			}
			b.visit(m.LHS, scope)

		case ast.NodeUsingnamespace:
			if s := b.doc.Scopes.Get(scope); s != nil {
				s.Usings = append(s.Usings, m.LHS)
			}
			b.visit(m.LHS, scope)

		default:
			b.visit(member, scope)
		}
	}
	return scope
}

// buildFunction opens a function scope covering signature and body.
// Parameter type expressions are visited so errors/enums nested inside them
// are still registered.
func (b *builder) buildFunction(node ast.NodeID, parent ScopeID) {
	scope := b.open(ScopeFunction, parent, node)
	n := b.tree.Node(node)
	proto := b.tree.Node(n.LHS)
	if proto != nil {
		for i, paramID := range proto.Extra {
			p := b.tree.Node(paramID)
			if p == nil {
				continue
			}
			if p.Flags&ast.FlagNamed != 0 {
				b.declare(scope, Declaration{
					Kind:   DeclParam,
					Name:   b.tree.TokenText(p.Tok),
					Node:   paramID,
					Owner:  n.LHS,
					Index:  uint32(i),
					Public: true,
				})
			}
			b.visit(p.LHS, scope)
		}
		b.visit(proto.RHS, scope)
	}
	b.visit(n.RHS, scope)
}

// buildBlock opens a block scope; a leading label registers a LabelDecl.
func (b *builder) buildBlock(node ast.NodeID, parent ScopeID) {
	scope := b.open(ScopeBlock, parent, node)
	n := b.tree.Node(node)
	if n.LHS.IsValid() {
		b.declare(scope, Declaration{
			Kind:   DeclLabel,
			Name:   b.tree.NodeName(n.LHS),
			Node:   n.LHS,
			Public: true,
		})
	}
	for _, stmt := range n.Extra {
		s := b.tree.Node(stmt)
		if s == nil {
			continue
		}
		if s.Kind == ast.NodeVarDecl {
			b.declare(scope, Declaration{
				Kind:   DeclAstNode,
				Name:   b.tree.NodeName(stmt),
				Node:   stmt,
				Public: s.Flags&ast.FlagPub != 0,
			})
			b.visit(s.LHS, scope)
			b.visit(s.RHS, scope)
			continue
		}
		b.visit(stmt, scope)
	}
}

// visit walks any node, opening scopes for the constructs that need them and
// descending into children for everything else.
func (b *builder) visit(node ast.NodeID, scope ScopeID) {
	if !node.IsValid() {
		return
	}
	n := b.tree.Node(node)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeContainerDecl, ast.NodeErrorSetDecl:
		b.buildContainer(node, scope)
	case ast.NodeErrorValue:
		b.addErrorCompletion(b.tree.NodeName(node))
	case ast.NodeFnDecl:
		b.buildFunction(node, scope)
	case ast.NodeBlock:
		b.buildBlock(node, scope)
	case ast.NodeIf:
		b.buildIf(node, scope)
	case ast.NodeWhile:
		b.buildWhile(node, scope)
	case ast.NodeFor:
		b.buildFor(node, scope)
	case ast.NodeSwitch:
		b.buildSwitch(node, scope)
	case ast.NodeCatch:
		b.buildCatch(node, scope)
	case ast.NodeErrdefer:
		b.buildErrdefer(node, scope)
	default:
		b.tree.Children(node, func(child ast.NodeID) {
			b.visit(child, scope)
		})
	}
}

// buildBranchScope opens a scope covering only one branch body, so captures
// never leak into sibling branches.
func (b *builder) buildBranchScope(body ast.NodeID, parent ScopeID, decls ...Declaration) {
	if !body.IsValid() {
		return
	}
	scope := b.doc.Scopes.New(ScopeOther, parent, body, b.tree.Span(body))
	for _, d := range decls {
		b.declare(scope, d)
	}
	b.visit(body, scope)
}

func (b *builder) capture(captureNode ast.NodeID, kind DeclKind, owner, extra ast.NodeID) (Declaration, bool) {
	if !captureNode.IsValid() {
		return Declaration{}, false
	}
	return Declaration{
		Kind:   kind,
		Name:   b.tree.NodeName(captureNode),
		Node:   captureNode,
		Owner:  owner,
		Extra:  extra,
		Public: true,
	}, true
}

func (b *builder) buildIf(node ast.NodeID, scope ScopeID) {
	n := b.tree.Node(node)
	cond := n.Extra[ast.IfCond]
	b.visit(cond, scope)

	if d, ok := b.capture(n.Extra[ast.IfPayload], DeclPointerPayload, cond, ast.NoNodeID); ok {
		b.buildBranchScope(n.Extra[ast.IfThen], scope, d)
	} else {
		b.visit(n.Extra[ast.IfThen], scope)
	}
	if d, ok := b.capture(n.Extra[ast.IfElsePayload], DeclErrorPayload, cond, ast.NoNodeID); ok {
		b.buildBranchScope(n.Extra[ast.IfElse], scope, d)
	} else {
		b.visit(n.Extra[ast.IfElse], scope)
	}
}

// buildWhile scopes the loop label to both the body and the else branch,
// separately, alongside the optional payload captures.
func (b *builder) buildWhile(node ast.NodeID, scope ScopeID) {
	n := b.tree.Node(node)
	cond := n.Extra[ast.WhileCond]
	b.visit(cond, scope)

	var label Declaration
	hasLabel := false
	if n.LHS.IsValid() {
		label = Declaration{
			Kind:   DeclLabel,
			Name:   b.tree.NodeName(n.LHS),
			Node:   n.LHS,
			Public: true,
		}
		hasLabel = true
	}

	var bodyDecls []Declaration
	if hasLabel {
		bodyDecls = append(bodyDecls, label)
	}
	if d, ok := b.capture(n.Extra[ast.WhilePayload], DeclPointerPayload, cond, ast.NoNodeID); ok {
		bodyDecls = append(bodyDecls, d)
	}
	if len(bodyDecls) > 0 {
		b.buildBranchScope(n.Extra[ast.WhileBody], scope, bodyDecls...)
	} else {
		b.visit(n.Extra[ast.WhileBody], scope)
	}

	var elseDecls []Declaration
	if hasLabel {
		elseDecls = append(elseDecls, label)
	}
	if d, ok := b.capture(n.Extra[ast.WhileElsePayload], DeclErrorPayload, cond, ast.NoNodeID); ok {
		elseDecls = append(elseDecls, d)
	}
	if len(elseDecls) > 0 {
		b.buildBranchScope(n.Extra[ast.WhileElse], scope, elseDecls...)
	} else {
		b.visit(n.Extra[ast.WhileElse], scope)
	}
}

func (b *builder) buildFor(node ast.NodeID, scope ScopeID) {
	n := b.tree.Node(node)
	array := n.Extra[ast.ForArray]
	b.visit(array, scope)

	var bodyDecls []Declaration
	if n.LHS.IsValid() {
		bodyDecls = append(bodyDecls, Declaration{
			Kind:   DeclLabel,
			Name:   b.tree.NodeName(n.LHS),
			Node:   n.LHS,
			Public: true,
		})
	}
	if d, ok := b.capture(n.Extra[ast.ForItem], DeclArrayPayload, array, ast.NoNodeID); ok {
		bodyDecls = append(bodyDecls, d)
	}
	if d, ok := b.capture(n.Extra[ast.ForIndex], DeclArrayIndex, ast.NoNodeID, ast.NoNodeID); ok {
		bodyDecls = append(bodyDecls, d)
	}
	if len(bodyDecls) > 0 {
		b.buildBranchScope(n.Extra[ast.ForBody], scope, bodyDecls...)
	} else {
		b.visit(n.Extra[ast.ForBody], scope)
	}
	b.visit(n.Extra[ast.ForElse], scope)
}

func (b *builder) buildSwitch(node ast.NodeID, scope ScopeID) {
	n := b.tree.Node(node)
	subject := n.LHS
	b.visit(subject, scope)

	for _, caseID := range n.Extra {
		c := b.tree.Node(caseID)
		if c == nil || len(c.Extra) < 2 {
			continue
		}
		for _, item := range c.Extra[ast.CaseFirstItem:] {
			b.visit(item, scope)
		}
		if d, ok := b.capture(c.Extra[ast.CasePayload], DeclSwitchPayload, subject, caseID); ok {
			b.buildBranchScope(c.Extra[ast.CaseBody], scope, d)
		} else {
			b.visit(c.Extra[ast.CaseBody], scope)
		}
	}
}

func (b *builder) buildCatch(node ast.NodeID, scope ScopeID) {
	n := b.tree.Node(node)
	b.visit(n.LHS, scope)
	var captureNode ast.NodeID
	if len(n.Extra) > 0 {
		captureNode = n.Extra[0]
	}
	if d, ok := b.capture(captureNode, DeclErrorPayload, n.LHS, ast.NoNodeID); ok {
		b.buildBranchScope(n.RHS, scope, d)
	} else {
		b.visit(n.RHS, scope)
	}
}

func (b *builder) buildErrdefer(node ast.NodeID, scope ScopeID) {
	n := b.tree.Node(node)
	var captureNode ast.NodeID
	if len(n.Extra) > 0 {
		captureNode = n.Extra[0]
	}
	if d, ok := b.capture(captureNode, DeclErrorPayload, ast.NoNodeID, ast.NoNodeID); ok {
		b.buildBranchScope(n.LHS, scope, d)
	} else {
		b.visit(n.LHS, scope)
	}
}
