package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"zsem/internal/pipeline"
	"zsem/internal/sema"
)

func TestStoreOpenVirtualAndGetOrLoad(t *testing.T) {
	st := NewStore(0)
	id := st.OpenVirtual("main.zg", []byte(`const x: u32 = 1;`))

	tree, doc, err := st.GetOrLoad(id)
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if tree == nil || doc == nil {
		t.Fatalf("missing artifacts")
	}
	if !doc.DeclInScope(doc.Root, "x").IsValid() {
		t.Fatalf("decl x not indexed")
	}
	if st.Diagnostics(id).HasErrors() {
		t.Fatalf("unexpected parse errors: %v", st.Diagnostics(id).Items())
	}
}

func TestStoreResolveImportRelative(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.zg")
	libPath := filepath.Join(dir, "sub", "lib.zg")
	if err := os.MkdirAll(filepath.Dir(libPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mainPath, []byte(`const lib = @import("sub/lib.zg");`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(libPath, []byte(`pub const answer: u32 = 42;`), 0o644); err != nil {
		t.Fatal(err)
	}

	st := NewStore(0)
	mainID, err := st.Open(mainPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	libID, ok := st.ResolveImport(mainID, "sub/lib.zg")
	if !ok {
		t.Fatalf("import not resolved")
	}
	_, doc, err := st.GetOrLoad(libID)
	if err != nil {
		t.Fatalf("GetOrLoad lib: %v", err)
	}
	if !doc.DeclInScope(doc.Root, "answer").IsValid() {
		t.Fatalf("lib decl not visible")
	}

	if _, ok := st.ResolveImport(mainID, "missing.zg"); ok {
		t.Fatalf("missing import resolved")
	}
}

func TestStoreFindCalls(t *testing.T) {
	st := NewStore(0)
	id := st.OpenVirtual("main.zg", []byte(`
fn f(x: anytype) void { use(x); }
fn g() void {
    f(1);
    f(true);
}`))
	tree, doc, err := st.GetOrLoad(id)
	if err != nil {
		t.Fatal(err)
	}
	fnDecl := doc.DeclInScope(doc.Root, "f")
	if !fnDecl.IsValid() {
		t.Fatalf("fn f not found")
	}
	proto := tree.Node(doc.Decls.Get(fnDecl).Node).LHS

	sites := st.FindCalls(sema.NodeRef{Node: proto, File: id})
	if len(sites) != 2 {
		t.Fatalf("call sites = %d, want 2", len(sites))
	}
	for _, site := range sites {
		if site.File != id || !site.Call.IsValid() {
			t.Fatalf("bad call site %+v", site)
		}
	}
}

func TestPreloadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.zg":        `const a: u32 = 1;`,
		"b.zg":        `pub const b: bool = true;`,
		"nested/c.zg": `const c = a;`,
		"ignored.txt": `not source`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	st := NewStore(0)
	var mu sync.Mutex
	queued, scoped, failed := 0, 0, 0
	sink := pipeline.FuncSink(func(evt pipeline.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case evt.Status == pipeline.StatusQueued:
			queued++
		case evt.Status == pipeline.StatusDone && evt.Stage == pipeline.StageScope:
			scoped++
		case evt.Status == pipeline.StatusError:
			failed++
		}
	})
	results, err := st.Preload(context.Background(), dir, 2, sink)
	if err != nil {
		t.Fatalf("preload: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 (.zg files only)", len(results))
	}
	if queued != 3 || scoped != 3 {
		t.Fatalf("queued = %d scoped = %d, want 3/3", queued, scoped)
	}
	if failed != 0 {
		t.Fatalf("error events = %d, want 0", failed)
	}
	for _, res := range results {
		if res.LoadErr != nil {
			t.Fatalf("%s: %v", res.Path, res.LoadErr)
		}
		if _, _, err := st.GetOrLoad(res.File); err != nil {
			t.Fatalf("%s not in store: %v", res.Path, err)
		}
	}
}

func TestIndexCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenIndexCache("zsem-test")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	st := NewStore(0)
	id := st.OpenVirtual("main.zg", []byte(`
const E = error{NotFound};
const C = enum { on, off };
pub fn run() void {}
`))
	payload, ok := st.Summary(id)
	if !ok {
		t.Fatalf("summary not built")
	}

	key := st.FileSet().Get(id).Hash
	if err := cache.Put(key, payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got IndexPayload
	hit, err := cache.Get(key, &got)
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if len(got.Decls) != 3 {
		t.Fatalf("decls = %v, want E, C, run", got.Decls)
	}
	if len(got.Errors) != 1 || got.Errors[0] != "NotFound" {
		t.Fatalf("errors = %v", got.Errors)
	}
	if len(got.EnumMembers) != 2 {
		t.Fatalf("enum members = %v", got.EnumMembers)
	}

	var miss IndexPayload
	if hit, _ := cache.Get([32]byte{1}, &miss); hit {
		t.Fatalf("unexpected cache hit")
	}
}

func TestStoreEndToEndResolve(t *testing.T) {
	st := NewStore(0)
	st.OpenVirtual("lib.zg", []byte(`pub const Point = struct { x: u32, y: u32 };`))
	mainID := st.OpenVirtual("main.zg", []byte(`const lib = @import("lib.zg");
const p: lib.Point = undefined;
const v = p.x;`))

	s := sema.NewSession(st, sema.Options{Callsites: st})
	tree, _, err := st.GetOrLoad(mainID)
	if err != nil {
		t.Fatal(err)
	}
	content := string(st.FileSet().Get(mainID).Content)
	off := uint32(len(content) - len("x;"))
	node := tree.NodeAt(off)
	ty, ok := s.ResolveType(sema.NodeRef{Node: node, File: mainID})
	if !ok {
		t.Fatalf("p.x did not resolve across files")
	}
	if ty.Type.Kind != sema.TypePrimitive || ty.Type.Name != "u32" {
		t.Fatalf("p.x = %s, want u32", ty)
	}
}
