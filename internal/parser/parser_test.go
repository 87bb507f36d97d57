package parser

import (
	"testing"

	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/source"
)

func parseSource(t *testing.T, src string) (*ast.Tree, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte(src))
	bag := diag.NewBag(32)
	tree := Parse(fs.Get(id), diag.BagReporter{Bag: bag})
	if tree == nil {
		t.Fatalf("expected non-nil tree")
	}
	return tree, bag
}

func parseClean(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", bag.Items())
	}
	return tree
}

func rootMembers(t *testing.T, tree *ast.Tree) []ast.NodeID {
	t.Helper()
	root := tree.Node(tree.Root)
	if root == nil || root.Kind != ast.NodeRoot {
		t.Fatalf("expected root container, got %v", tree.Kind(tree.Root))
	}
	return root.Extra
}

func TestParseVarDecl(t *testing.T) {
	tree := parseClean(t, "pub const answer: u32 = 42;")
	members := rootMembers(t, tree)
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	decl := tree.Node(members[0])
	if decl.Kind != ast.NodeVarDecl {
		t.Fatalf("expected var decl, got %v", decl.Kind)
	}
	if decl.Flags&ast.FlagPub == 0 || decl.Flags&ast.FlagConst == 0 {
		t.Fatalf("expected pub const flags, got %v", decl.Flags)
	}
	if tree.NodeName(members[0]) != "answer" {
		t.Fatalf("expected name answer, got %q", tree.NodeName(members[0]))
	}
	if tree.Kind(decl.LHS) != ast.NodeIdent {
		t.Fatalf("expected ident type annotation, got %v", tree.Kind(decl.LHS))
	}
	if tree.Kind(decl.RHS) != ast.NodeIntLit {
		t.Fatalf("expected int initializer, got %v", tree.Kind(decl.RHS))
	}
}

func TestParseStructContainer(t *testing.T) {
	tree := parseClean(t, `const Point = struct {
    x: f32,
    y: f32,
    pub fn len(self: Point) f32 { return self.x; }
};`)
	members := rootMembers(t, tree)
	decl := tree.Node(members[0])
	container := tree.Node(decl.RHS)
	if container.Kind != ast.NodeContainerDecl {
		t.Fatalf("expected container decl, got %v", container.Kind)
	}
	if len(container.Extra) != 3 {
		t.Fatalf("expected 3 members, got %d", len(container.Extra))
	}
	if tree.Kind(container.Extra[0]) != ast.NodeContainerField {
		t.Fatalf("expected field, got %v", tree.Kind(container.Extra[0]))
	}
	fn := tree.Node(container.Extra[2])
	if fn.Kind != ast.NodeFnDecl || fn.Flags&ast.FlagPub == 0 {
		t.Fatalf("expected pub fn, got %v flags %v", fn.Kind, fn.Flags)
	}
	proto := tree.Node(fn.LHS)
	if proto.Kind != ast.NodeFnProto || len(proto.Extra) != 1 {
		t.Fatalf("expected proto with 1 param, got %v with %d", proto.Kind, len(proto.Extra))
	}
}

func TestParseAnytypeParam(t *testing.T) {
	tree := parseClean(t, "fn dump(value: anytype) void {}")
	members := rootMembers(t, tree)
	proto := tree.Node(tree.Node(members[0]).LHS)
	param := tree.Node(proto.Extra[0])
	if param.Kind != ast.NodeParam {
		t.Fatalf("expected param, got %v", param.Kind)
	}
	if param.Flags&ast.FlagAnytype == 0 || param.Flags&ast.FlagNamed == 0 {
		t.Fatalf("expected named anytype param, got flags %v", param.Flags)
	}
	if param.LHS.IsValid() {
		t.Fatalf("anytype param should have no type expr")
	}
}

func TestParsePostfixChain(t *testing.T) {
	tree := parseClean(t, "const v = a.b.?.*[0];")
	members := rootMembers(t, tree)
	init := tree.Node(members[0]).RHS

	// innermost-out: ident -> field -> unwrap -> deref -> index
	index := tree.Node(init)
	if index.Kind != ast.NodeIndexAccess {
		t.Fatalf("expected index access, got %v", index.Kind)
	}
	deref := tree.Node(index.LHS)
	if deref.Kind != ast.NodeDeref {
		t.Fatalf("expected deref, got %v", deref.Kind)
	}
	unwrap := tree.Node(deref.LHS)
	if unwrap.Kind != ast.NodeUnwrapOptional {
		t.Fatalf("expected optional unwrap, got %v", unwrap.Kind)
	}
	field := tree.Node(unwrap.LHS)
	if field.Kind != ast.NodeFieldAccess || tree.TokenText(field.Tok) != "b" {
		t.Fatalf("expected field access .b, got %v %q", field.Kind, tree.TokenText(field.Tok))
	}
}

func TestParseIfElseWithCapture(t *testing.T) {
	tree := parseClean(t, "const v = if (opt) |val| val else |err| err;")
	members := rootMembers(t, tree)
	ifNode := tree.Node(tree.Node(members[0]).RHS)
	if ifNode.Kind != ast.NodeIf {
		t.Fatalf("expected if, got %v", ifNode.Kind)
	}
	if !ifNode.Extra[ast.IfCond].IsValid() || !ifNode.Extra[ast.IfThen].IsValid() {
		t.Fatalf("expected cond and then present")
	}
	payload := tree.Node(ifNode.Extra[ast.IfPayload])
	if payload == nil || payload.Kind != ast.NodeCapture || tree.TokenText(payload.Tok) != "val" {
		t.Fatalf("expected |val| capture")
	}
	elsePayload := tree.Node(ifNode.Extra[ast.IfElsePayload])
	if elsePayload == nil || tree.TokenText(elsePayload.Tok) != "err" {
		t.Fatalf("expected |err| capture on else branch")
	}
}

func TestParseSwitch(t *testing.T) {
	tree := parseClean(t, `const v = switch (u) {
    .a => |x| x,
    .b, .c => 2,
    else => 0,
};`)
	members := rootMembers(t, tree)
	sw := tree.Node(tree.Node(members[0]).RHS)
	if sw.Kind != ast.NodeSwitch || !sw.LHS.IsValid() {
		t.Fatalf("expected switch with subject, got %v", sw.Kind)
	}
	if len(sw.Extra) != 3 {
		t.Fatalf("expected 3 prongs, got %d", len(sw.Extra))
	}
	first := tree.Node(sw.Extra[0])
	if tree.Kind(first.Extra[ast.CasePayload]) != ast.NodeCapture {
		t.Fatalf("expected payload capture on first prong")
	}
	second := tree.Node(sw.Extra[1])
	if len(second.Extra)-ast.CaseFirstItem != 2 {
		t.Fatalf("expected 2 items on second prong, got %d", len(second.Extra)-ast.CaseFirstItem)
	}
	last := tree.Node(sw.Extra[2])
	if last.Flags&ast.FlagElse == 0 {
		t.Fatalf("expected else prong flag")
	}
}

func TestParseErrorSetAndValue(t *testing.T) {
	tree := parseClean(t, "const E = error{ NotFound, Denied }; const v = error.NotFound;")
	members := rootMembers(t, tree)
	set := tree.Node(tree.Node(members[0]).RHS)
	if set.Kind != ast.NodeErrorSetDecl || len(set.Extra) != 2 {
		t.Fatalf("expected error set with 2 members, got %v/%d", set.Kind, len(set.Extra))
	}
	if tree.NodeName(set.Extra[0]) != "NotFound" {
		t.Fatalf("expected NotFound, got %q", tree.NodeName(set.Extra[0]))
	}
	val := tree.Node(tree.Node(members[1]).RHS)
	if val.Kind != ast.NodeErrorValue || tree.TokenText(val.Tok) != "NotFound" {
		t.Fatalf("expected error value NotFound, got %v", val.Kind)
	}
}

func TestParseTypeExpressions(t *testing.T) {
	tree := parseClean(t, "const a: *u8 = undefined; const b: ?[]u8 = null; const c: [4]u8 = undefined; const d: E!u8 = undefined;")
	members := rootMembers(t, tree)
	if tree.Kind(tree.Node(members[0]).LHS) != ast.NodePtrType {
		t.Fatalf("expected pointer type")
	}
	opt := tree.Node(tree.Node(members[1]).LHS)
	if opt.Kind != ast.NodeOptionalType || tree.Kind(opt.LHS) != ast.NodeSliceType {
		t.Fatalf("expected optional slice type")
	}
	arr := tree.Node(tree.Node(members[2]).LHS)
	if arr.Kind != ast.NodeArrayType || !arr.RHS.IsValid() {
		t.Fatalf("expected sized array type")
	}
	if tree.Kind(tree.Node(members[3]).LHS) != ast.NodeErrorUnionType {
		t.Fatalf("expected error union type")
	}
}

func TestParseLabeledLoopAndBreak(t *testing.T) {
	tree := parseClean(t, `fn run() void {
    outer: while (true) {
        break :outer;
    }
}`)
	members := rootMembers(t, tree)
	body := tree.Node(tree.Node(members[0]).RHS)
	loop := tree.Node(body.Extra[0])
	if loop.Kind != ast.NodeWhile {
		t.Fatalf("expected while, got %v", loop.Kind)
	}
	label := tree.Node(loop.LHS)
	if label == nil || label.Kind != ast.NodeCapture || tree.TokenText(label.Tok) != "outer" {
		t.Fatalf("expected outer label on loop")
	}
	inner := tree.Node(loop.Extra[ast.WhileBody])
	brk := tree.Node(inner.Extra[0])
	if brk.Kind != ast.NodeBreak || tree.TokenText(brk.Tok) != "outer" {
		t.Fatalf("expected break :outer")
	}
}

func TestParseBuiltinAndImport(t *testing.T) {
	tree := parseClean(t, `const std = @import("std");`)
	members := rootMembers(t, tree)
	call := tree.Node(tree.Node(members[0]).RHS)
	if call.Kind != ast.NodeBuiltinCall || tree.TokenText(call.Tok) != "@import" {
		t.Fatalf("expected @import call, got %v %q", call.Kind, tree.TokenText(call.Tok))
	}
	if len(call.Extra) != 1 || tree.Kind(call.Extra[0]) != ast.NodeStringLit {
		t.Fatalf("expected one string argument")
	}
}

func TestParseUsingnamespaceAndTest(t *testing.T) {
	tree := parseClean(t, `usingnamespace @import("util.zg");
test "basics" { }
`)
	members := rootMembers(t, tree)
	if tree.Kind(members[0]) != ast.NodeUsingnamespace {
		t.Fatalf("expected usingnamespace, got %v", tree.Kind(members[0]))
	}
	testDecl := tree.Node(members[1])
	if testDecl.Kind != ast.NodeTestDecl || testDecl.Flags&ast.FlagNamed == 0 {
		t.Fatalf("expected named test decl")
	}
}

func TestParseRecoversFromJunk(t *testing.T) {
	tree, bag := parseSource(t, "const a = 1; ??? const b = 2;")
	if !bag.HasErrors() {
		t.Fatalf("expected parse errors")
	}
	members := rootMembers(t, tree)
	names := make([]string, 0, len(members))
	for _, m := range members {
		if n := tree.NodeName(m); n != "" {
			names = append(names, n)
		}
	}
	found := false
	for _, n := range names {
		if n == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected declaration after junk to be parsed, got %v", names)
	}
}

func TestNodeAtFindsSmallestNode(t *testing.T) {
	src := "const v = obj.field;"
	tree := parseClean(t, src)
	// offset inside "field"
	off := uint32(15)
	id := tree.NodeAt(off)
	if tree.Kind(id) != ast.NodeFieldAccess {
		t.Fatalf("expected field access at offset, got %v", tree.Kind(id))
	}
}
