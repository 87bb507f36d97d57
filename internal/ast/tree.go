package ast

import (
	"zsem/internal/source"
	"zsem/internal/token"
)

// Tree is the parsed form of one file: a token list plus a flat node arena.
// Node IDs are stable for the lifetime of the tree and are rebuilt wholesale
// when the file changes.
type Tree struct {
	File   source.FileID
	Source []byte // the file content the spans index into
	Tokens []token.Token
	Root   NodeID

	nodes *Arena[Node]
}

// NewTree creates an empty tree for the given file.
func NewTree(file source.FileID, src []byte, tokens []token.Token) *Tree {
	return &Tree{
		File:   file,
		Source: src,
		Tokens: tokens,
		nodes:  NewArena[Node](uint(len(tokens))),
	}
}

// Add allocates a node and returns its ID.
func (t *Tree) Add(n Node) NodeID {
	return NodeID(t.nodes.Allocate(n))
}

// Node returns the node for id, or nil for NoNodeID / out of range.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes.Get(uint32(id))
}

// Kind returns the node kind, NodeInvalid for missing nodes.
func (t *Tree) Kind(id NodeID) NodeKind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return NodeInvalid
}

// Span returns the source span of a node, the zero span for missing nodes.
func (t *Tree) Span(id NodeID) source.Span {
	if n := t.Node(id); n != nil {
		return n.Span
	}
	return source.Span{}
}

// Len reports the number of allocated nodes.
func (t *Tree) Len() uint32 {
	return t.nodes.Len()
}

// TokenAt returns the token at the given index.
func (t *Tree) TokenAt(idx TokenIndex) token.Token {
	if int(idx) >= len(t.Tokens) {
		return token.Token{}
	}
	return t.Tokens[idx]
}

// TokenText returns the source text of the token at idx.
func (t *Tree) TokenText(idx TokenIndex) string {
	return t.TokenAt(idx).Text
}

// NodeText returns the source text under a node, "" when the span is out
// of range.
func (t *Tree) NodeText(id NodeID) string {
	sp := t.Span(id)
	if int(sp.End) > len(t.Source) || sp.Start > sp.End {
		return ""
	}
	return string(t.Source[sp.Start:sp.End])
}

// NodeName returns the name token text of a node carrying one, "" otherwise.
func (t *Tree) NodeName(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case NodeVarDecl, NodeFnDecl, NodeFnProto, NodeContainerField, NodeIdent,
		NodeFieldAccess, NodeCapture, NodeEnumLiteral, NodeErrorValue,
		NodeErrorSetMember, NodeFieldInit, NodeBuiltinCall:
		return t.TokenText(n.Tok)
	case NodeParam:
		if n.Flags&FlagNamed != 0 {
			return t.TokenText(n.Tok)
		}
	}
	return ""
}

// Children visits every valid child node ID of id in source order.
func (t *Tree) Children(id NodeID, fn func(NodeID)) {
	n := t.Node(id)
	if n == nil {
		return
	}
	if n.LHS.IsValid() {
		fn(n.LHS)
	}
	if n.RHS.IsValid() {
		fn(n.RHS)
	}
	for _, child := range n.Extra {
		if child.IsValid() {
			fn(child)
		}
	}
}

// NodeAt returns the smallest node whose span contains the byte offset, or
// NoNodeID when the offset falls outside every node.
func (t *Tree) NodeAt(off uint32) NodeID {
	best := NoNodeID
	bestLen := ^uint32(0)
	for i := uint32(1); i <= t.nodes.Len(); i++ {
		id := NodeID(i)
		n := t.nodes.Get(i)
		if !n.Span.Contains(off) {
			continue
		}
		if n.Span.Len() < bestLen {
			best = id
			bestLen = n.Span.Len()
		}
	}
	return best
}
