package symbols

import (
	"strings"
	"testing"

	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/parser"
	"zsem/internal/source"
)

func buildSource(t *testing.T, src string) *DocumentScope {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte(src))
	tree := parser.Parse(fs.Get(id), diag.NopReporter{})
	return Build(tree)
}

// lookup walks the scope chain from the innermost scope at off.
func lookup(doc *DocumentScope, off uint32, name string) DeclID {
	for sc := doc.InnermostAt(off); sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
		if id := doc.DeclInScope(sc, name); id.IsValid() {
			return id
		}
	}
	return NoDeclID
}

func markerOffset(t *testing.T, src, marker string) uint32 {
	t.Helper()
	i := strings.Index(src, marker)
	if i < 0 {
		t.Fatalf("marker %q not found", marker)
	}
	return uint32(i)
}

func TestBuildRootDecls(t *testing.T) {
	doc := buildSource(t, `
const a: u32 = 1;
pub var b: bool = true;
fn f(x: u32) u32 { return x; }
`)
	root := doc.Scopes.Get(doc.Root)
	if root == nil || root.Kind != ScopeContainer {
		t.Fatalf("root scope missing or wrong kind")
	}
	for _, name := range []string{"a", "b", "f"} {
		if !doc.DeclInScope(doc.Root, name).IsValid() {
			t.Fatalf("root decl %q not found", name)
		}
	}
	dB := doc.Decls.Get(doc.DeclInScope(doc.Root, "b"))
	if !dB.Public {
		t.Fatalf("pub var b should be public")
	}
	dA := doc.Decls.Get(doc.DeclInScope(doc.Root, "a"))
	if dA.Public {
		t.Fatalf("const a should not be public")
	}
}

func TestBuildShadowing(t *testing.T) {
	src := `
fn f() void {
    var x: u32 = 0;
    {
        var x: bool = true;
        probe();
    }
}
`
	doc := buildSource(t, src)
	off := markerOffset(t, src, "probe")
	inner := lookup(doc, off, "x")
	if !inner.IsValid() {
		t.Fatalf("x not found at probe")
	}
	d := doc.Decls.Get(inner)
	typeText := doc.Tree.TokenText(doc.Tree.Node(doc.Tree.Node(d.Node).LHS).Tok)
	if typeText != "bool" {
		t.Fatalf("inner x should be the bool decl, got type %q", typeText)
	}

	outerOff := markerOffset(t, src, "{\n        var x")
	outer := lookup(doc, outerOff-1, "x")
	if outer == inner {
		t.Fatalf("outer lookup should not see inner decl")
	}
}

func TestDeclVisibleAtBlockOrder(t *testing.T) {
	src := `
fn f() void {
    var a: u32 = 0;
    use(a);
    var b: bool = true;
}
`
	doc := buildSource(t, src)
	useOff := markerOffset(t, src, "use")
	sc := doc.InnermostAt(useOff)

	idA := doc.DeclInScope(sc, "a")
	idB := doc.DeclInScope(sc, "b")
	if !idA.IsValid() || !idB.IsValid() {
		t.Fatalf("block locals not declared")
	}
	if !doc.DeclVisibleAt(sc, idA, useOff) {
		t.Fatalf("a declared above the use should be visible")
	}
	if doc.DeclVisibleAt(sc, idB, useOff) {
		t.Fatalf("b declared below the use should not be visible yet")
	}

	// container declarations are order-independent
	rootDecl := doc.DeclInScope(doc.Root, "f")
	if !doc.DeclVisibleAt(doc.Root, rootDecl, 0) {
		t.Fatalf("container decl should be visible at any offset")
	}
}

func TestBuildParams(t *testing.T) {
	src := `fn add(a: u32, b: u32) u32 { return probe; }`
	doc := buildSource(t, src)
	off := markerOffset(t, src, "probe")
	id := lookup(doc, off, "b")
	if !id.IsValid() {
		t.Fatalf("param b not visible in body")
	}
	d := doc.Decls.Get(id)
	if d.Kind != DeclParam || d.Index != 1 {
		t.Fatalf("param b: kind=%v index=%d", d.Kind, d.Index)
	}
}

func TestBuildCapturesScopedToBranch(t *testing.T) {
	src := `
fn f(opt: ?u32) void {
    if (opt) |v| {
        then_probe();
    } else {
        else_probe();
    }
}
`
	doc := buildSource(t, src)
	thenOff := markerOffset(t, src, "then_probe")
	if !lookup(doc, thenOff, "v").IsValid() {
		t.Fatalf("capture v not visible in then branch")
	}
	elseOff := markerOffset(t, src, "else_probe")
	if lookup(doc, elseOff, "v").IsValid() {
		t.Fatalf("capture v leaked into else branch")
	}
	d := doc.Decls.Get(lookup(doc, thenOff, "v"))
	if d.Kind != DeclPointerPayload {
		t.Fatalf("if capture kind = %v, want DeclPointerPayload", d.Kind)
	}
	if !d.Owner.IsValid() {
		t.Fatalf("if capture should record its condition")
	}
}

func TestBuildElsePayload(t *testing.T) {
	src := `
fn f(r: E!u32) void {
    if (r) |v| {
        use(v);
    } else |err| {
        err_probe();
    }
}
`
	doc := buildSource(t, src)
	off := markerOffset(t, src, "err_probe")
	id := lookup(doc, off, "err")
	if !id.IsValid() {
		t.Fatalf("else payload err not visible")
	}
	if doc.Decls.Get(id).Kind != DeclErrorPayload {
		t.Fatalf("else payload kind = %v", doc.Decls.Get(id).Kind)
	}
}

func TestBuildForCaptures(t *testing.T) {
	src := `
fn f(items: []u32) void {
    for (items) |item, i| {
        body_probe();
    }
}
`
	doc := buildSource(t, src)
	off := markerOffset(t, src, "body_probe")
	item := lookup(doc, off, "item")
	idx := lookup(doc, off, "i")
	if !item.IsValid() || !idx.IsValid() {
		t.Fatalf("for captures missing: item=%v i=%v", item, idx)
	}
	if doc.Decls.Get(item).Kind != DeclArrayPayload {
		t.Fatalf("item kind = %v", doc.Decls.Get(item).Kind)
	}
	if doc.Decls.Get(idx).Kind != DeclArrayIndex {
		t.Fatalf("index kind = %v", doc.Decls.Get(idx).Kind)
	}
}

func TestBuildLoopLabelInBodyAndElse(t *testing.T) {
	src := `
fn f() void {
    outer: while (cond()) {
        body_probe();
    } else {
        else_probe();
    }
}
`
	doc := buildSource(t, src)
	bodyOff := markerOffset(t, src, "body_probe")
	elseOff := markerOffset(t, src, "else_probe")
	for _, off := range []uint32{bodyOff, elseOff} {
		id := lookup(doc, off, "outer")
		if !id.IsValid() {
			t.Fatalf("label outer not visible at offset %d", off)
		}
		if doc.Decls.Get(id).Kind != DeclLabel {
			t.Fatalf("label kind = %v", doc.Decls.Get(id).Kind)
		}
	}
}

func TestBuildSwitchPayload(t *testing.T) {
	src := `
fn f(u: U) void {
    switch (u) {
        .a => |x| case_probe(),
        else => other_probe(),
    }
}
`
	doc := buildSource(t, src)
	off := markerOffset(t, src, "case_probe")
	id := lookup(doc, off, "x")
	if !id.IsValid() {
		t.Fatalf("switch payload x not visible in its prong")
	}
	d := doc.Decls.Get(id)
	if d.Kind != DeclSwitchPayload || !d.Owner.IsValid() || !d.Extra.IsValid() {
		t.Fatalf("switch payload: kind=%v owner=%v case=%v", d.Kind, d.Owner, d.Extra)
	}
	otherOff := markerOffset(t, src, "other_probe")
	if lookup(doc, otherOff, "x").IsValid() {
		t.Fatalf("switch payload leaked into sibling prong")
	}
}

func TestBuildCatchAndErrdefer(t *testing.T) {
	src := `
fn f() void {
    const v = risky() catch |e| handle(e);
    errdefer |e2| cleanup(e2);
}
`
	doc := buildSource(t, src)
	off := markerOffset(t, src, "handle")
	id := lookup(doc, off, "e")
	if !id.IsValid() {
		t.Fatalf("catch capture e not visible")
	}
	d := doc.Decls.Get(id)
	if d.Kind != DeclErrorPayload || !d.Owner.IsValid() {
		t.Fatalf("catch capture: kind=%v owner=%v", d.Kind, d.Owner)
	}

	off2 := markerOffset(t, src, "cleanup")
	id2 := lookup(doc, off2, "e2")
	if !id2.IsValid() {
		t.Fatalf("errdefer capture e2 not visible")
	}
	d2 := doc.Decls.Get(id2)
	if d2.Kind != DeclErrorPayload || d2.Owner.IsValid() {
		t.Fatalf("errdefer capture should have no owner expression, got %v", d2.Owner)
	}
}

func TestBuildUsingsAndTests(t *testing.T) {
	src := `
usingnamespace @import("other.zg");
test "sanity" { probe(); }
`
	doc := buildSource(t, src)
	root := doc.Scopes.Get(doc.Root)
	if len(root.Usings) != 1 {
		t.Fatalf("usings = %d, want 1", len(root.Usings))
	}
	if doc.Tree.Kind(root.Usings[0]) != ast.NodeBuiltinCall {
		t.Fatalf("using target kind = %v", doc.Tree.Kind(root.Usings[0]))
	}
	if len(root.Tests) != 1 {
		t.Fatalf("tests = %d, want 1", len(root.Tests))
	}
}

func TestBuildCompletionSets(t *testing.T) {
	src := `
const E = error{NotFound, OutOfMemory};
const Color = enum { red, green, blue };
fn f() E!void {
    return error.NotFound;
}
`
	doc := buildSource(t, src)
	wantErr := []string{"NotFound", "OutOfMemory"}
	if len(doc.ErrorCompletions) != len(wantErr) {
		t.Fatalf("error completions = %v", doc.ErrorCompletions)
	}
	for i, name := range wantErr {
		if doc.ErrorCompletions[i] != name {
			t.Fatalf("error completion %d = %q, want %q", i, doc.ErrorCompletions[i], name)
		}
	}
	wantEnum := []string{"red", "green", "blue"}
	if len(doc.EnumCompletions) != len(wantEnum) {
		t.Fatalf("enum completions = %v", doc.EnumCompletions)
	}
	for i, name := range wantEnum {
		if doc.EnumCompletions[i] != name {
			t.Fatalf("enum completion %d = %q, want %q", i, doc.EnumCompletions[i], name)
		}
	}
}

func TestBuildNestedContainer(t *testing.T) {
	src := `
const Point = struct {
    x: u32,
    y: u32,
    pub fn len(self: Point) u32 { return self.x; }
};
`
	doc := buildSource(t, src)
	var inner ScopeID
	for i := 1; i <= doc.Scopes.Len(); i++ {
		id := ScopeID(i)
		sc := doc.Scopes.Get(id)
		if sc.Kind == ScopeContainer && id != doc.Root {
			inner = id
			break
		}
	}
	if !inner.IsValid() {
		t.Fatalf("nested container scope not built")
	}
	for _, name := range []string{"x", "y", "len"} {
		if !doc.DeclInScope(inner, name).IsValid() {
			t.Fatalf("struct member %q not declared", name)
		}
	}
	if !doc.Decls.Get(doc.DeclInScope(inner, "x")).IsField(doc.Tree) {
		t.Fatalf("x should be a field")
	}
	if doc.ContainerIsEnum(inner) {
		t.Fatalf("struct reported as enum")
	}
}

func TestBuildIdempotent(t *testing.T) {
	src := `
const E = error{A};
const C = enum { one, two };
fn f(x: u32) u32 { if (g(x)) |v| { return v; } return 0; }
`
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte(src))
	tree := parser.Parse(fs.Get(id), diag.NopReporter{})

	a := Build(tree)
	b := Build(tree)
	if a.Scopes.Len() != b.Scopes.Len() || a.Decls.Len() != b.Decls.Len() {
		t.Fatalf("scope/decl counts differ between builds: %d/%d vs %d/%d",
			a.Scopes.Len(), a.Decls.Len(), b.Scopes.Len(), b.Decls.Len())
	}
	if len(a.ErrorCompletions) != len(b.ErrorCompletions) ||
		len(a.EnumCompletions) != len(b.EnumCompletions) {
		t.Fatalf("completion sets differ between builds")
	}
	for i := range a.ErrorCompletions {
		if a.ErrorCompletions[i] != b.ErrorCompletions[i] {
			t.Fatalf("error completion order differs at %d", i)
		}
	}
}
