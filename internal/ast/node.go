package ast

import (
	"zsem/internal/source"
)

// NodeKind enumerates every node the parser produces.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota

	// NodeRoot is the implicit container holding a file's top-level members
	// (members in Extra).
	NodeRoot
	// NodeContainerDecl is struct/enum/union body; Tok is the container
	// keyword, members in Extra.
	NodeContainerDecl
	// NodeErrorSetDecl is error{...}; members in Extra.
	NodeErrorSetDecl
	// NodeErrorSetMember is one name inside an error set; Tok is the name.
	NodeErrorSetMember
	// NodeContainerField is a struct/union field or enum member; Tok name,
	// LHS type expr, RHS default value.
	NodeContainerField
	// NodeVarDecl is const/var; Tok name, LHS type annotation, RHS initializer.
	NodeVarDecl
	// NodeFnDecl is a function declaration; Tok name, LHS proto, RHS body.
	NodeFnDecl
	// NodeFnProto is a function signature; Tok name, params in Extra, RHS
	// return type expr.
	NodeFnProto
	// NodeParam is one parameter; Tok name (FlagNamed), LHS type expr
	// (FlagAnytype when typed 'anytype').
	NodeParam
	// NodeTestDecl is a test block; Tok the optional name string, LHS body.
	NodeTestDecl
	// NodeUsingnamespace merges another container; LHS target expr.
	NodeUsingnamespace

	// NodeBlock is { ... }; LHS optional label capture, statements in Extra.
	NodeBlock
	// NodeCapture is a |name| binding or block/loop label; Tok is the name.
	NodeCapture
	// NodeReturn; LHS optional value.
	NodeReturn
	// NodeBreak / NodeContinue; Tok optional label name token (FlagNamed).
	NodeBreak
	NodeContinue
	// NodeDefer; LHS deferred expr/block.
	NodeDefer
	// NodeErrdefer; LHS body, Extra[0] optional error capture.
	NodeErrdefer
	// NodeAssign statement; LHS target, RHS value.
	NodeAssign

	// NodeIdent; Tok is the identifier.
	NodeIdent
	// NodeFieldAccess; LHS operand, Tok field name.
	NodeFieldAccess
	// NodeCall; LHS callee, args in Extra.
	NodeCall
	// NodeBuiltinCall; Tok the @name token, args in Extra.
	NodeBuiltinCall
	// NodeIndexAccess; LHS operand, RHS index.
	NodeIndexAccess
	// NodeSliceExpr; LHS operand, Extra = [start, end] (end may be 0).
	NodeSliceExpr
	// NodeDeref; LHS.* pointer dereference.
	NodeDeref
	// NodeUnwrapOptional; LHS.? optional unwrap.
	NodeUnwrapOptional
	// NodeAddressOf; &LHS.
	NodeAddressOf
	// NodeTry; try LHS.
	NodeTry
	// NodeCatch; LHS catch |err| RHS; Extra[0] optional error capture.
	NodeCatch
	// NodeOrelse; LHS orelse RHS.
	NodeOrelse
	// NodeIf expression/statement;
	// Extra = [cond, payload capture, then, else capture, else].
	NodeIf
	// NodeWhile; LHS optional label capture,
	// Extra = [cond, payload capture, body, else capture, else].
	NodeWhile
	// NodeFor; LHS optional label capture,
	// Extra = [array, item capture, index capture, body, else].
	NodeFor
	// NodeSwitch; LHS subject, cases in Extra.
	NodeSwitch
	// NodeSwitchCase; Extra = [payload capture, body, item0, item1, ...].
	// FlagElse marks the else prong.
	NodeSwitchCase
	// NodeComptime; comptime LHS.
	NodeComptime
	// NodeGrouped; (LHS).
	NodeGrouped
	// NodeBinOp; Tok operator, LHS, RHS.
	NodeBinOp
	// NodeStructInit; LHS type expr, field inits in Extra.
	NodeStructInit
	// NodeFieldInit; Tok field name, LHS value.
	NodeFieldInit
	// NodeEnumLiteral; .name, Tok is the name.
	NodeEnumLiteral
	// NodeErrorValue; error.Name, Tok is the name.
	NodeErrorValue

	// Literals; Tok holds the literal token.
	NodeIntLit
	NodeFloatLit
	NodeStringLit
	NodeCharLit
	NodeBoolLit
	NodeNullLit
	NodeUndefinedLit
	NodeUnreachableLit

	// Type expressions.
	// NodePtrType; *LHS.
	NodePtrType
	// NodeOptionalType; ?LHS.
	NodeOptionalType
	// NodeArrayType; [RHS]LHS — RHS is the length expr.
	NodeArrayType
	// NodeSliceType; []LHS.
	NodeSliceType
	// NodeErrorUnionType; LHS!RHS — error set ! payload.
	NodeErrorUnionType
)

// NodeFlags encode small per-node attributes.
type NodeFlags uint8

const (
	// FlagPub marks a public declaration.
	FlagPub NodeFlags = 1 << iota
	// FlagConst marks a var decl introduced with 'const'.
	FlagConst
	// FlagAnytype marks a parameter typed 'anytype'.
	FlagAnytype
	// FlagNamed marks that Tok carries a valid name token.
	FlagNamed
	// FlagElse marks the else prong of a switch.
	FlagElse
)

// Node is one syntax tree node. The meaning of Tok, LHS, RHS, and Extra
// depends on Kind; unused fields are zero.
type Node struct {
	Kind  NodeKind
	Flags NodeFlags
	Tok   TokenIndex
	Span  source.Span
	LHS   NodeID
	RHS   NodeID
	Extra []NodeID
}

// Fixed Extra layouts for branching nodes.
const (
	IfCond        = 0
	IfPayload     = 1
	IfThen        = 2
	IfElsePayload = 3
	IfElse        = 4

	WhileCond        = 0
	WhilePayload     = 1
	WhileBody        = 2
	WhileElsePayload = 3
	WhileElse        = 4

	ForArray = 0
	ForItem  = 1
	ForIndex = 2
	ForBody  = 3
	ForElse  = 4

	CasePayload   = 0
	CaseBody      = 1
	CaseFirstItem = 2
)
