package ast

import (
	"testing"

	"zsem/internal/source"
	"zsem/internal/token"
)

func TestNodeText(t *testing.T) {
	src := []byte("const x = 1;")
	tree := NewTree(0, src, nil)

	id := tree.Add(Node{
		Kind: NodeIdent,
		Span: source.Span{Start: 6, End: 7},
	})
	if got := tree.NodeText(id); got != "x" {
		t.Fatalf("NodeText = %q, want %q", got, "x")
	}

	bad := tree.Add(Node{
		Kind: NodeIdent,
		Span: source.Span{Start: 10, End: 99},
	})
	if got := tree.NodeText(bad); got != "" {
		t.Fatalf("out-of-range NodeText = %q, want empty", got)
	}
	if got := tree.NodeText(NoNodeID); got != "" {
		t.Fatalf("missing-node NodeText = %q, want empty", got)
	}
}

func TestTreeTokenText(t *testing.T) {
	toks := []token.Token{{Kind: token.KwConst, Text: "const"}}
	tree := NewTree(0, []byte("const"), toks)
	if got := tree.TokenText(0); got != "const" {
		t.Fatalf("TokenText = %q, want %q", got, "const")
	}
	if got := tree.TokenText(5); got != "" {
		t.Fatalf("out-of-range TokenText = %q, want empty", got)
	}
}
