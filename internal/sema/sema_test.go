package sema

import (
	"errors"
	"strings"
	"testing"

	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/parser"
	"zsem/internal/source"
	"zsem/internal/symbols"
)

// fixtureProvider parses every file up front and serves them by name.
type fixtureProvider struct {
	fs    *source.FileSet
	trees map[source.FileID]*ast.Tree
	docs  map[source.FileID]*symbols.DocumentScope
	names map[string]source.FileID
}

func newFixture(t *testing.T, files map[string]string) *fixtureProvider {
	t.Helper()
	p := &fixtureProvider{
		fs:    source.NewFileSet(),
		trees: make(map[source.FileID]*ast.Tree),
		docs:  make(map[source.FileID]*symbols.DocumentScope),
		names: make(map[string]source.FileID),
	}
	for name, src := range files {
		id := p.fs.AddVirtual(name, []byte(src))
		tree := parser.Parse(p.fs.Get(id), diag.NopReporter{})
		p.trees[id] = tree
		p.docs[id] = symbols.Build(tree)
		p.names[name] = id
	}
	return p
}

func (p *fixtureProvider) ResolveImport(_ source.FileID, path string) (source.FileID, bool) {
	id, ok := p.names[path]
	return id, ok
}

func (p *fixtureProvider) GetOrLoad(file source.FileID) (*ast.Tree, *symbols.DocumentScope, error) {
	tree, ok := p.trees[file]
	if !ok {
		return nil, nil, errors.New("unknown file")
	}
	return tree, p.docs[file], nil
}

func (p *fixtureProvider) id(name string) source.FileID { return p.names[name] }

// nodeAt finds the smallest node covering the first occurrence of marker.
func (p *fixtureProvider) nodeAt(t *testing.T, name, marker string) NodeRef {
	t.Helper()
	id := p.names[name]
	src := string(p.fs.Get(id).Content)
	off := strings.Index(src, marker)
	if off < 0 {
		t.Fatalf("marker %q not found in %s", marker, name)
	}
	node := p.trees[id].NodeAt(uint32(off))
	if !node.IsValid() {
		t.Fatalf("no node at %q", marker)
	}
	return NodeRef{Node: node, File: id}
}

func (p *fixtureProvider) offsetOf(t *testing.T, name, marker string) uint32 {
	t.Helper()
	src := string(p.fs.Get(p.names[name]).Content)
	off := strings.Index(src, marker)
	if off < 0 {
		t.Fatalf("marker %q not found in %s", marker, name)
	}
	return uint32(off)
}

func newTestSession(p *fixtureProvider) *Session {
	return NewSession(p, Options{})
}

func TestResolveVarDeclAnnotation(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const x: u32 = 1;`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "x:")
	ty, ok := s.ResolveType(ref)
	if !ok {
		t.Fatalf("var decl did not resolve")
	}
	if ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" || ty.Type.IsTypeVal {
		t.Fatalf("got %s, want u32 instance", ty)
	}
}

func TestResolveIdempotent(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const x: u32 = 1; const y = x;`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "y")
	a, okA := s.ResolveType(ref)
	b, okB := s.ResolveType(ref)
	if !okA || !okB {
		t.Fatalf("resolution failed: %v %v", okA, okB)
	}
	if !Equal(a, b) {
		t.Fatalf("repeated resolution differs: %s vs %s", a, b)
	}
}

func TestCycleSelfReference(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const A = A;`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "A =")
	if ty, ok := s.ResolveType(ref); ok {
		t.Fatalf("self-referential const resolved to %s", ty)
	}
}

func TestCycleMutualUsings(t *testing.T) {
	p := newFixture(t, map[string]string{
		"a.zg": `usingnamespace @import("b.zg");
pub const fromA: u32 = 1;`,
		"b.zg": `usingnamespace @import("a.zg");
pub const fromB: u32 = 2;`,
	})
	s := newTestSession(p)
	// merged names are visible across the cycle
	off := p.offsetOf(t, "a.zg", "fromA")
	if _, ok := s.LookupLexical(p.id("a.zg"), off, "fromB"); !ok {
		t.Fatalf("fromB not found through using directive")
	}
	// and unknown names terminate instead of recursing forever
	if _, ok := s.LookupLexical(p.id("a.zg"), off, "missing"); ok {
		t.Fatalf("missing name should not resolve")
	}
}

func TestUsingLookupRepeatsWithinSession(t *testing.T) {
	p := newFixture(t, map[string]string{
		"a.zg": `usingnamespace @import("b.zg");
const local: u32 = 1;`,
		"b.zg": `pub const fromB: u32 = 2;`,
	})
	s := newTestSession(p)
	off := p.offsetOf(t, "a.zg", "local")
	// the cycle guard is per query: the same directive must be
	// traversable again by the next lookup in the same session
	for i := 0; i < 3; i++ {
		if _, ok := s.LookupLexical(p.id("a.zg"), off, "fromB"); !ok {
			t.Fatalf("lookup %d through using directive failed", i)
		}
	}
}

func TestBlockUseBeforeDeclSeesOuter(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn f() void {
    var x: u32 = 0;
    {
        use(x);
        var x: bool = true;
    }
}`,
	})
	s := newTestSession(p)
	id := p.id("main.zg")

	// a use above the shadowing declaration binds to the outer x
	useOff := p.offsetOf(t, "main.zg", "x);")
	h, ok := s.LookupLexical(id, useOff, "x")
	if !ok {
		t.Fatalf("x not found at use site")
	}
	ty, ok := s.DeclType(h)
	if !ok {
		t.Fatalf("outer x did not resolve")
	}
	if ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" {
		t.Fatalf("use above the shadow resolved to %s, want u32", ty)
	}

	// from the declaration onward the shadow wins
	afterOff := p.offsetOf(t, "main.zg", "true")
	h2, ok := s.LookupLexical(id, afterOff, "x")
	if !ok {
		t.Fatalf("x not found after shadowing decl")
	}
	ty2, ok := s.DeclType(h2)
	if !ok {
		t.Fatalf("inner x did not resolve")
	}
	if ty2.Type.Kind != TypePrimitive || ty2.Type.Name != "bool" {
		t.Fatalf("use after the shadow resolved to %s, want bool", ty2)
	}
}

func TestVisibilityAcrossFiles(t *testing.T) {
	p := newFixture(t, map[string]string{
		"b.zg": `const hidden: u32 = 0;
pub const visible: u32 = 1;`,
	})
	s := newTestSession(p)
	bID := p.id("b.zg")
	root := NodeRef{Node: p.trees[bID].Root, File: bID}
	otherOrigin := bID + 100

	if _, ok := s.LookupContainer(root, "hidden", false, otherOrigin); ok {
		t.Fatalf("non-public decl visible across files")
	}
	if _, ok := s.LookupContainer(root, "visible", false, otherOrigin); !ok {
		t.Fatalf("public decl not visible across files")
	}
	if _, ok := s.LookupContainer(root, "hidden", false, bID); !ok {
		t.Fatalf("non-public decl not visible from its own file")
	}
}

func TestEnumVsStructInstanceAccess(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const E = enum { a, b };
const S = struct { f: u32 };`,
	})
	s := newTestSession(p)
	id := p.id("main.zg")

	enumNode := p.nodeAt(t, "main.zg", "enum")
	if _, ok := s.LookupContainer(enumNode, "a", false, id); !ok {
		t.Fatalf("enum member not visible as type-level access")
	}
	if _, ok := s.LookupContainer(enumNode, "a", true, id); ok {
		t.Fatalf("enum member visible as instance access")
	}

	structNode := p.nodeAt(t, "main.zg", "struct")
	if _, ok := s.LookupContainer(structNode, "f", true, id); !ok {
		t.Fatalf("struct field not visible as instance access")
	}
	if _, ok := s.LookupContainer(structNode, "f", false, id); ok {
		t.Fatalf("struct field visible as type-level access")
	}
}

func TestFieldAccessEndToEnd(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const A = struct { x: u32 };
const b: A = undefined;
const use = b.x;`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "x;")
	ty, ok := s.ResolveType(ref)
	if !ok {
		t.Fatalf("b.x did not resolve")
	}
	if ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" || ty.Type.IsTypeVal {
		t.Fatalf("b.x = %s, want u32 instance", ty)
	}
}

func TestIfEitherKeepsBothBranches(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const cond: bool = true;
const v = if (cond) @as(u32, 1) else @as(bool, true);`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "if")
	ty, ok := s.ResolveType(ref)
	if !ok {
		t.Fatalf("if expression did not resolve")
	}
	if ty.Type.Kind != TypeEither || len(ty.Type.Entries) != 2 {
		t.Fatalf("got %s, want Either of 2", ty)
	}
	want := []string{"u32", "bool"}
	for i, e := range ty.Type.Entries {
		if e.Type.Type.Kind != TypePrimitive || e.Type.Type.Name != want[i] {
			t.Fatalf("entry %d = %s, want %s", i, e.Type, want[i])
		}
		if e.Descriptor != "cond" {
			t.Fatalf("entry %d descriptor = %q, want condition text", i, e.Descriptor)
		}
	}
}

func TestSwitchEither(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const x: u32 = 0;
const v = switch (x) {
    0 => @as(u32, 1),
    else => @as(bool, false),
};`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "switch")
	ty, ok := s.ResolveType(ref)
	if !ok {
		t.Fatalf("switch did not resolve")
	}
	if ty.Type.Kind != TypeEither || len(ty.Type.Entries) != 2 {
		t.Fatalf("got %s, want Either of 2", ty)
	}
	if ty.Type.Entries[0].Descriptor != "0" {
		t.Fatalf("case descriptor = %q", ty.Type.Entries[0].Descriptor)
	}
	if ty.Type.Entries[1].Descriptor != "else" {
		t.Fatalf("else descriptor = %q", ty.Type.Entries[1].Descriptor)
	}
}

func TestCallReturnType(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn f() u32 { return 0; }
const v = f();`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "();")
	ty, ok := s.ResolveType(ref)
	if !ok {
		t.Fatalf("call did not resolve")
	}
	if ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" || ty.Type.IsTypeVal {
		t.Fatalf("f() = %s, want u32 instance", ty)
	}
}

func TestGenericCallBindsTypeParam(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn id(comptime T: type, v: T) T { return v; }
const r = id(u32, 1);`,
	})
	s := newTestSession(p)
	ref := p.nodeAt(t, "main.zg", "(u32")
	ty, ok := s.ResolveType(ref)
	if !ok {
		t.Fatalf("generic call did not resolve")
	}
	if ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" || ty.Type.IsTypeVal {
		t.Fatalf("id(u32, 1) = %s, want u32 instance", ty)
	}
}

func TestGenericCallMemoSharedInSession(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn id(comptime T: type, v: T) T { return v; }
const a = id(u32, 1);
const b = id(bool, true);`,
	})
	s := newTestSession(p)
	refA := p.nodeAt(t, "main.zg", "(u32")
	refB := p.nodeAt(t, "main.zg", "(bool")

	tyA, ok := s.ResolveType(refA)
	if !ok || tyA.Type.Name != "u32" {
		t.Fatalf("first call site = %s, want u32", tyA)
	}
	// the return type was memoized under the first call's binding; the
	// second call in the same session observes it
	tyB, ok := s.ResolveType(refB)
	if !ok || tyB.Type.Name != "u32" {
		t.Fatalf("second call site in same session = %s, want memoized u32", tyB)
	}

	// a fresh session resolves the second call on its own binding
	s.Reset()
	tyB2, ok := s.ResolveType(refB)
	if !ok || tyB2.Type.Name != "bool" {
		t.Fatalf("second call site after reset = %s, want bool", tyB2)
	}
}

func TestPointerLayers(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const x: u32 = 0;
const ptr = &x;
const back = ptr.*;`,
	})
	s := newTestSession(p)

	ptrTy, ok := s.ResolveType(p.nodeAt(t, "main.zg", "&x"))
	if !ok || ptrTy.Type.Kind != TypePointer {
		t.Fatalf("&x = %v %v, want pointer", ptrTy, ok)
	}
	backTy, ok := s.ResolveType(p.nodeAt(t, "main.zg", ".*"))
	if !ok || backTy.Type.Kind != TypePrimitive || backTy.Type.Name != "u32" {
		t.Fatalf("ptr.* = %s, want u32", backTy)
	}
}

func TestOptionalAndErrorUnwrap(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const opt: ?u32 = null;
const a = opt.?;
fn f() anyerror!u32 { return 0; }
fn g() void {
    const b = try f();
    const c = f() catch 0;
    const d = opt orelse 0;
}`,
	})
	s := newTestSession(p)
	for _, marker := range []string{".?", "try f()", " catch", " orelse"} {
		ty, ok := s.ResolveType(p.nodeAt(t, "main.zg", marker))
		if !ok {
			t.Fatalf("%s did not resolve", marker)
		}
		if ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" || ty.Type.IsTypeVal {
			t.Fatalf("%s = %s, want u32 instance", marker, ty)
		}
	}
}

func TestSliceAndIndex(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const items: []u32 = undefined;
const one = items[0];
const n = items.len;`,
	})
	s := newTestSession(p)

	ty, ok := s.ResolveType(p.nodeAt(t, "main.zg", "[0]"))
	if !ok || ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" {
		t.Fatalf("items[0] = %v, want u32", ty)
	}
	ty, ok = s.ResolveType(p.nodeAt(t, "main.zg", ".len"))
	if !ok || ty.Type.Kind != TypePrimitive || ty.Type.Name != "usize" {
		t.Fatalf("items.len = %v, want usize", ty)
	}
}

func TestImportRootTypeValue(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const other = @import("other.zg");
const v = other.shared;`,
		"other.zg": `pub const shared: u32 = 7;
const private: u32 = 8;`,
	})
	s := newTestSession(p)

	impTy, ok := s.ResolveType(p.nodeAt(t, "main.zg", `@import`))
	if !ok || impTy.Type.Kind != TypeOther || !impTy.Type.IsTypeVal {
		t.Fatalf("@import = %v, want root container type value", impTy)
	}
	if impTy.File != p.id("other.zg") {
		t.Fatalf("@import resolved into file %d, want other.zg", impTy.File)
	}

	ty, ok := s.ResolveType(p.nodeAt(t, "main.zg", "shared;"))
	if !ok || ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" {
		t.Fatalf("other.shared = %v, want u32", ty)
	}
}

func TestTypeOfAndThis(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const x: u32 = 0;
const T = @TypeOf(x);
const S = struct {
    fn self() @This() { return undefined; }
};`,
	})
	s := newTestSession(p)

	ty, ok := s.ResolveType(p.nodeAt(t, "main.zg", "@TypeOf"))
	if !ok || !ty.Type.IsTypeVal || ty.Type.Name != "u32" {
		t.Fatalf("@TypeOf(x) = %v, want u32 type value", ty)
	}
	ty, ok = s.ResolveType(p.nodeAt(t, "main.zg", "@This"))
	if !ok || ty.Type.Kind != TypeOther || !ty.Type.IsTypeVal {
		t.Fatalf("@This() = %v, want container type value", ty)
	}
}

type stubEvaluator struct {
	value ComptimeValue
	err   error
	calls int
}

func (e *stubEvaluator) Evaluate(NodeRef, ast.NodeID) (ComptimeValue, error) {
	e.calls++
	return e.value, e.err
}

func TestConstEvalFallback(t *testing.T) {
	src := map[string]string{
		"main.zg": `fn f() Mystery { return undefined; }
const v = f();`,
	}

	p := newFixture(t, src)
	eval := &stubEvaluator{value: 7}
	s := NewSession(p, Options{Evaluator: eval})
	ty, ok := s.ResolveType(p.nodeAt(t, "main.zg", "();"))
	if !ok || ty.Type.Kind != TypeComptime || ty.Type.Value != 7 {
		t.Fatalf("fallback = %v %v, want comptime handle 7", ty, ok)
	}
	if eval.calls != 1 {
		t.Fatalf("evaluator calls = %d", eval.calls)
	}

	// evaluator failure downgrades to "not found"
	p = newFixture(t, src)
	s = NewSession(p, Options{Evaluator: &stubEvaluator{err: errors.New("boom")}})
	if _, ok := s.ResolveType(p.nodeAt(t, "main.zg", "();")); ok {
		t.Fatalf("evaluator failure should yield not found")
	}
}

// collectCalls gathers calls whose callee is a plain identifier matching
// name.
func collectCalls(p *fixtureProvider, file source.FileID, name string) []CallSite {
	tree := p.trees[file]
	var out []CallSite
	var walk func(id ast.NodeID)
	walk = func(id ast.NodeID) {
		n := tree.Node(id)
		if n == nil {
			return
		}
		if n.Kind == ast.NodeCall && tree.NodeName(n.LHS) == name {
			out = append(out, CallSite{File: file, Call: id})
		}
		tree.Children(id, walk)
	}
	walk(tree.Root)
	return out
}

type stubCallsites struct {
	sites []CallSite
}

func (c *stubCallsites) FindCalls(NodeRef) []CallSite { return c.sites }

func TestAnytypeCallsiteInference(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn f(x: anytype) void { use(x); }
fn g() void {
    f(@as(u32, 1));
    f(true);
    f(@as(u32, 2));
}`,
	})
	id := p.id("main.zg")
	s := NewSession(p, Options{
		Callsites: &stubCallsites{sites: collectCalls(p, id, "f")},
	})

	off := p.offsetOf(t, "main.zg", "x);")
	h, ok := s.LookupLexical(id, off, "x")
	if !ok {
		t.Fatalf("param x not found")
	}
	ty, ok := s.DeclType(h)
	if !ok {
		t.Fatalf("anytype param did not resolve")
	}
	if ty.Type.Kind != TypeEither {
		t.Fatalf("anytype param = %s, want Either", ty)
	}
	// two distinct argument types; the duplicate u32 is dropped
	if len(ty.Type.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 after dedup", len(ty.Type.Entries))
	}
}

func TestArrayIndexCapture(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn f(items: []u32) void {
    for (items) |item, i| {
        use(item, i);
    }
}`,
	})
	id := p.id("main.zg")
	s := newTestSession(p)
	off := p.offsetOf(t, "main.zg", "item, i)")

	h, ok := s.LookupLexical(id, off, "item")
	if !ok {
		t.Fatalf("loop capture not found")
	}
	ty, ok := s.DeclType(h)
	if !ok || ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" {
		t.Fatalf("item = %v, want u32", ty)
	}

	h, ok = s.LookupLexical(id, off, "i")
	if !ok {
		t.Fatalf("index capture not found")
	}
	ty, ok = s.DeclType(h)
	if !ok || ty.Type.Kind != TypeArrayIndex {
		t.Fatalf("i = %v, want array index marker", ty)
	}
}

func TestSwitchUnionPayload(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `const U = union { num: u32, flag: bool };
fn f(u: U) void {
    switch (u) {
        .num => |n| use(n),
        else => {},
    }
}`,
	})
	id := p.id("main.zg")
	s := newTestSession(p)
	off := p.offsetOf(t, "main.zg", "use(n)")

	h, ok := s.LookupLexical(id, off, "n")
	if !ok {
		t.Fatalf("switch payload not found")
	}
	ty, ok := s.DeclType(h)
	if !ok || ty.Type.Kind != TypePrimitive || ty.Type.Name != "u32" {
		t.Fatalf("payload n = %v, want u32", ty)
	}
}

func TestLabelHasNoType(t *testing.T) {
	p := newFixture(t, map[string]string{
		"main.zg": `fn f() void {
    outer: while (true) {
        break :outer;
    }
}`,
	})
	id := p.id("main.zg")
	s := newTestSession(p)
	off := p.offsetOf(t, "main.zg", "break")
	h, ok := s.LookupLabel(id, off, "outer")
	if !ok {
		t.Fatalf("label not found")
	}
	if _, ok := s.DeclType(h); ok {
		t.Fatalf("label should have no type")
	}
}
