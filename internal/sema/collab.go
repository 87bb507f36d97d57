package sema

import (
	"zsem/internal/ast"
	"zsem/internal/source"
	"zsem/internal/symbols"
)

// NodeRef pairs a node with the file it belongs to. Raw node indices are
// never meaningful across files.
type NodeRef struct {
	Node ast.NodeID
	File source.FileID
}

func (r NodeRef) IsValid() bool {
	return r.Node.IsValid() && r.File != source.NoFileID
}

// DeclHandle pairs a declaration index with its owning file.
type DeclHandle struct {
	Decl symbols.DeclID
	File source.FileID
}

func (h DeclHandle) IsValid() bool {
	return h.Decl.IsValid() && h.File != source.NoFileID
}

// DocumentProvider supplies parsed documents on demand. Implementations
// must be deterministic within one session.
type DocumentProvider interface {
	// ResolveImport maps an import string, relative to the importing file,
	// to a file handle.
	ResolveImport(from source.FileID, path string) (source.FileID, bool)

	// GetOrLoad returns the syntax tree and scope index for a file,
	// building them if needed.
	GetOrLoad(file source.FileID) (*ast.Tree, *symbols.DocumentScope, error)
}

// ComptimeValue is an opaque handle into the const evaluator. Zero means
// no value.
type ComptimeValue uint32

// NoComptimeValue is the absent handle.
const NoComptimeValue ComptimeValue = 0

// ConstEvaluator is the optional compile-time interpreter hook. Failures
// are reported as errors and downgraded by the caller, never fatal.
type ConstEvaluator interface {
	Evaluate(node NodeRef, namespace ast.NodeID) (ComptimeValue, error)
}

// CallSite is one call expression referencing a function.
type CallSite struct {
	File source.FileID
	Call ast.NodeID
}

// CallsiteIndex finds the call sites of a function, used for inferring
// the type of untyped parameters.
type CallsiteIndex interface {
	FindCalls(fn NodeRef) []CallSite
}
