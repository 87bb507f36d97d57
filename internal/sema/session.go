package sema

import (
	"time"

	"zsem/internal/ast"
	"zsem/internal/source"
	"zsem/internal/symbols"
	"zsem/internal/trace"
)

// Options configures a Session.
type Options struct {
	// Evaluator is the optional const-evaluation fallback.
	Evaluator ConstEvaluator
	// Callsites enables untyped-parameter inference.
	Callsites CallsiteIndex
	// Tracer receives diagnostics about downgraded collaborator failures.
	Tracer trace.Tracer
}

// Session holds the per-analysis-session caches. A session spans one
// request or one edit generation; Reset clears everything so stale results
// never survive a file change. Not safe for concurrent use.
type Session struct {
	provider  DocumentProvider
	evaluator ConstEvaluator
	callsites CallsiteIndex
	tracer    trace.Tracer

	memo     map[NodeRef]memoEntry
	bindings map[NodeRef]TypeWithHandle // generic type-param bindings, keyed by param node

	// usingVisited breaks using-directive cycles. It is scoped to one
	// top-level query, not the session: depth tracks the outermost
	// entry point and the set is cleared there, so a later query may
	// traverse the same directives again.
	usingVisited map[NodeRef]struct{}
	depth        int
}

type memoEntry struct {
	typ TypeWithHandle
	ok  bool
	// done is false while the key is being resolved; a re-entrant lookup
	// in that window observes "not found" instead of recursing.
	done bool
}

// NewSession creates a session over the given provider.
func NewSession(provider DocumentProvider, opts Options) *Session {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	s := &Session{
		provider:  provider,
		evaluator: opts.Evaluator,
		callsites: opts.Callsites,
		tracer:    tr,
	}
	s.Reset()
	return s
}

// Reset clears the memo table, generic bindings and using-visited set.
// Call it when any file content changes.
func (s *Session) Reset() {
	s.memo = make(map[NodeRef]memoEntry)
	s.bindings = make(map[NodeRef]TypeWithHandle)
	s.usingVisited = make(map[NodeRef]struct{})
}

// document fetches a file's tree and scope index, downgrading provider
// failures to "not found".
func (s *Session) document(file source.FileID) (*ast.Tree, *symbols.DocumentScope, bool) {
	tree, doc, err := s.provider.GetOrLoad(file)
	if err != nil {
		s.point("provider_error", err.Error())
		return nil, nil, false
	}
	if tree == nil || doc == nil {
		return nil, nil, false
	}
	return tree, doc, true
}

// text returns the source text under a node.
func (s *Session) text(tree *ast.Tree, node ast.NodeID) string {
	return tree.NodeText(node)
}

func (s *Session) point(name, detail string) {
	if !s.tracer.Enabled() || !s.tracer.Level().ShouldEmit(trace.ScopeNode) {
		return
	}
	s.tracer.Emit(&trace.Event{
		Time:   time.Now(),
		Seq:    trace.NextSeq(),
		Kind:   trace.KindPoint,
		Scope:  trace.ScopeNode,
		Name:   name,
		Detail: detail,
	})
}

// enter marks the start of a (possibly nested) query. The outermost entry
// starts with a fresh using-visited set.
func (s *Session) enter() {
	if s.depth == 0 {
		clear(s.usingVisited)
	}
	s.depth++
}

func (s *Session) leave() {
	s.depth--
}

func (s *Session) bind(param NodeRef, t TypeWithHandle) {
	s.bindings[param] = t
}

func (s *Session) binding(param NodeRef) (TypeWithHandle, bool) {
	t, ok := s.bindings[param]
	return t, ok
}
