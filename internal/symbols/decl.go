package symbols

import (
	"zsem/internal/ast"
)

// DeclKind tags the declaration variants. Not every declaration is a
// defining syntax node; captures and parameters carry enough context to be
// resolved without re-walking the enclosing syntax.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	// DeclAstNode: Node is the defining node (var/fn/field/error member).
	DeclAstNode
	// DeclParam: Node is the param node, Owner the fn proto, Index the
	// parameter position.
	DeclParam
	// DeclPointerPayload: capture bound by an optional unwrap; Owner is the
	// condition expression it was derived from.
	DeclPointerPayload
	// DeclErrorPayload: capture bound by catch/errdefer/else-of-error-union;
	// Owner is the failing expression (NoNodeID for errdefer).
	DeclErrorPayload
	// DeclArrayPayload: loop item capture; Owner is the array expression.
	DeclArrayPayload
	// DeclArrayIndex: loop index capture; always resolves to usize.
	DeclArrayIndex
	// DeclSwitchPayload: case capture; Owner is the switch subject, Extra
	// the case node the capture belongs to.
	DeclSwitchPayload
	// DeclLabel: loop/block label; has no type.
	DeclLabel
)

func (k DeclKind) String() string {
	switch k {
	case DeclAstNode:
		return "ast_node"
	case DeclParam:
		return "param"
	case DeclPointerPayload:
		return "pointer_payload"
	case DeclErrorPayload:
		return "error_payload"
	case DeclArrayPayload:
		return "array_payload"
	case DeclArrayIndex:
		return "array_index"
	case DeclSwitchPayload:
		return "switch_payload"
	case DeclLabel:
		return "label"
	default:
		return "invalid"
	}
}

// Declaration is one named or positional binding.
type Declaration struct {
	Kind   DeclKind
	Name   string
	Node   ast.NodeID // defining node or capture node
	Owner  ast.NodeID // context node, meaning depends on Kind
	Extra  ast.NodeID // secondary context (switch case node)
	Index  uint32     // parameter position for DeclParam
	Public bool
}

// IsField reports whether the declaration is a container field or enum
// member. Fields are skipped by lexical lookup and gated by instance access
// in container lookup.
func (d *Declaration) IsField(tree *ast.Tree) bool {
	return d.Kind == DeclAstNode && tree.Kind(d.Node) == ast.NodeContainerField
}
