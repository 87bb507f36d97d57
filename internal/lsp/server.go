package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"zsem/internal/comptime"
	"zsem/internal/diag"
	"zsem/internal/sema"
	"zsem/internal/source"
	"zsem/internal/trace"
	"zsem/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	MaxDiagnostics int
	Tracer         trace.Tracer
}

// Server handles stdio JSON-RPC for the zsem language server. Documents
// live in a workspace store; every edit registers a fresh snapshot and
// queries always run against the latest one.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu        sync.Mutex
	store     *workspace.Store
	docs      map[string]source.FileID
	texts     map[string]string
	versions  map[string]int
	published map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	maxDiagnostics    int
	tracer            trace.Tracer
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		store:          workspace.NewStore(maxDiagnostics),
		docs:           make(map[string]source.FileID),
		texts:          make(map[string]string),
		versions:       make(map[string]int),
		published:      make(map[string]struct{}),
		maxDiagnostics: maxDiagnostics,
		tracer:         tracer,
	}
}

// Run serves LSP requests until shutdown.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	span := trace.Begin(s.tracer, trace.ScopeDriver, "lsp "+msg.Method, 0)
	defer span.End("")

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{"."},
			},
		},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	published := make([]string, 0, len(s.published))
	for uri := range s.published {
		published = append(published, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for _, uri := range published {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.texts[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	id := s.store.OpenVirtual(uriToPath(uri), []byte(params.TextDocument.Text))
	s.docs[uri] = id
	s.mu.Unlock()
	return s.publishDiagnostics(uri, id)
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	text := applyChanges(s.texts[uri], params.ContentChanges)
	s.texts[uri] = text
	s.versions[uri] = params.TextDocument.Version
	id := s.store.OpenVirtual(uriToPath(uri), []byte(text))
	s.docs[uri] = id
	s.mu.Unlock()
	return s.publishDiagnostics(uri, id)
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" || params.Text == nil {
		return nil
	}
	s.mu.Lock()
	s.texts[uri] = *params.Text
	id := s.store.OpenVirtual(uriToPath(uri), []byte(*params.Text))
	s.docs[uri] = id
	s.mu.Unlock()
	return s.publishDiagnostics(uri, id)
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.docs, uri)
	delete(s.texts, uri)
	delete(s.versions, uri)
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

// docFile returns the latest snapshot for an open document.
func (s *Server) docFile(uri string) (source.FileID, *source.File, bool) {
	s.mu.Lock()
	id, ok := s.docs[canonicalURI(uri)]
	s.mu.Unlock()
	if !ok {
		return source.NoFileID, nil, false
	}
	file := s.store.FileSet().Get(id)
	if file == nil {
		return source.NoFileID, nil, false
	}
	return id, file, true
}

// newSession builds a fresh resolver session. Sessions are per-request so
// edits never serve stale memo entries.
func (s *Server) newSession() *sema.Session {
	return sema.NewSession(s.store, sema.Options{
		Evaluator: comptime.New(s.store, true),
		Callsites: s.store,
		Tracer:    s.tracer,
	})
}

func (s *Server) publishDiagnostics(uri string, id source.FileID) error {
	bag := s.store.Diagnostics(id)
	file := s.store.FileSet().Get(id)
	var list []lspDiagnostic
	if bag != nil && file != nil {
		bag.Sort()
		for _, d := range bag.Items() {
			list = append(list, lspDiagnostic{
				Range:    rangeForSpan(file, d.Primary),
				Severity: lspSeverity(d.Severity),
				Code:     d.Code.String(),
				Source:   "zsem",
				Message:  d.Message,
			})
		}
	}
	s.mu.Lock()
	if len(list) > 0 {
		s.published[uri] = struct{}{}
	} else {
		if _, ok := s.published[uri]; !ok {
			s.mu.Unlock()
			return nil
		}
		delete(s.published, uri)
	}
	s.mu.Unlock()
	return s.sendPublish(uri, list)
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
