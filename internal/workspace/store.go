package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/parser"
	"zsem/internal/sema"
	"zsem/internal/source"
	"zsem/internal/symbols"
)

// Store owns the workspace's files, their syntax trees and scope indexes.
// It serves the resolver as both document provider and call-site index.
// Thread-safe so the preloader can fill it from worker goroutines.
type Store struct {
	mu             sync.RWMutex
	fs             *source.FileSet
	trees          map[source.FileID]*ast.Tree
	docs           map[source.FileID]*symbols.DocumentScope
	bags           map[source.FileID]*diag.Bag
	calls          map[string][]sema.CallSite
	maxDiagnostics int
}

// NewStore creates an empty store. maxDiagnostics caps the per-file
// diagnostic bag; zero means unlimited.
func NewStore(maxDiagnostics int) *Store {
	return &Store{
		fs:             source.NewFileSet(),
		trees:          make(map[source.FileID]*ast.Tree),
		docs:           make(map[source.FileID]*symbols.DocumentScope),
		bags:           make(map[source.FileID]*diag.Bag),
		maxDiagnostics: maxDiagnostics,
	}
}

// FileSet exposes the underlying file set for position rendering.
func (st *Store) FileSet() *source.FileSet { return st.fs }

// Open loads a file from disk and parses it.
func (st *Store) Open(path string) (source.FileID, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	id, err := st.fs.Load(path)
	if err != nil {
		return source.NoFileID, err
	}
	st.parseLocked(id)
	return id, nil
}

// OpenVirtual registers an in-memory file and parses it.
func (st *Store) OpenVirtual(name string, content []byte) source.FileID {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.fs.AddVirtual(name, content)
	st.parseLocked(id)
	return id
}

func (st *Store) parseLocked(id source.FileID) {
	bag := diag.NewBag(st.maxDiagnostics)
	tree := parser.Parse(st.fs.Get(id), diag.BagReporter{Bag: bag})
	st.trees[id] = tree
	st.docs[id] = symbols.Build(tree)
	st.bags[id] = bag
	st.calls = nil // call index is stale once a file changes
}

// GetOrLoad returns the parsed artifacts for a file already in the store.
func (st *Store) GetOrLoad(file source.FileID) (*ast.Tree, *symbols.DocumentScope, error) {
	st.mu.RLock()
	tree, ok := st.trees[file]
	doc := st.docs[file]
	st.mu.RUnlock()
	if ok {
		return tree, doc, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if tree, ok := st.trees[file]; ok {
		return tree, st.docs[file], nil
	}
	f := st.fs.Get(file)
	if f == nil {
		return nil, nil, fmt.Errorf("file %d not in store", file)
	}
	st.parseLocked(file)
	return st.trees[file], st.docs[file], nil
}

// ResolveImport maps an import string to a file, relative to the importing
// file's directory. Unknown paths are loaded from disk on first use.
func (st *Store) ResolveImport(from source.FileID, path string) (source.FileID, bool) {
	st.mu.RLock()
	fromFile := st.fs.Get(from)
	st.mu.RUnlock()
	if fromFile == nil || path == "" {
		return source.NoFileID, false
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(fromFile.Path), path)
	}

	st.mu.RLock()
	id, ok := st.fs.GetLatest(target)
	st.mu.RUnlock()
	if ok {
		return id, true
	}
	if _, err := os.Stat(target); err != nil {
		return source.NoFileID, false
	}
	id, err := st.Open(target)
	if err != nil {
		return source.NoFileID, false
	}
	return id, true
}

// Diagnostics returns the parse diagnostics recorded for a file.
func (st *Store) Diagnostics(file source.FileID) *diag.Bag {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.bags[file]
}

// Files lists every parsed file in load order.
func (st *Store) Files() []source.FileID {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]source.FileID, 0, len(st.trees))
	for i := 0; i < st.fs.Len(); i++ {
		id := source.FileID(i)
		if _, ok := st.trees[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// FindCalls returns the known call sites of a function, matched by callee
// name across every parsed file. Name collisions can produce extra sites;
// the resolver's deduplication absorbs them.
func (st *Store) FindCalls(fn sema.NodeRef) []sema.CallSite {
	st.mu.Lock()
	if st.calls == nil {
		st.buildCallIndexLocked()
	}
	tree := st.trees[fn.File]
	st.mu.Unlock()
	if tree == nil {
		return nil
	}
	name := tree.NodeName(fn.Node)
	if name == "" {
		return nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.calls[name]
}

func (st *Store) buildCallIndexLocked() {
	st.calls = make(map[string][]sema.CallSite)
	for i := 0; i < st.fs.Len(); i++ {
		id := source.FileID(i)
		tree, ok := st.trees[id]
		if !ok {
			continue
		}
		var walk func(node ast.NodeID)
		walk = func(node ast.NodeID) {
			n := tree.Node(node)
			if n == nil {
				return
			}
			if n.Kind == ast.NodeCall {
				if name := tree.NodeName(n.LHS); name != "" {
					st.calls[name] = append(st.calls[name], sema.CallSite{
						File: id,
						Call: node,
					})
				}
			}
			tree.Children(node, walk)
		}
		walk(tree.Root)
	}
}
