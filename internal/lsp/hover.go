package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"zsem/internal/ast"
	"zsem/internal/sema"
	"zsem/internal/source"
	"zsem/internal/symbols"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	id, file, ok := s.docFile(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	result := s.buildHover(id, file, params.Position)
	return s.sendResponse(msg.ID, result)
}

func (s *Server) buildHover(id source.FileID, file *source.File, pos position) *hover {
	tree, _, err := s.store.GetOrLoad(id)
	if err != nil {
		return nil
	}
	offset := offsetForPositionInFile(file, pos)
	node := tree.NodeAt(offset)
	if !node.IsValid() {
		return nil
	}
	sess := s.newSession()

	lines := make([]string, 0, 3)
	name := tree.NodeName(node)
	if name != "" {
		if h, ok := sess.LookupLexical(id, offset, name); ok {
			if sig := s.declSignature(sess, h, name); sig != "" {
				lines = append(lines, "```zg\n"+sig+"\n```")
			}
			if loc := s.declLocation(h); loc != "" {
				lines = append(lines, loc)
			}
		}
	}

	if t, ok := sess.ResolveType(sema.NodeRef{Node: node, File: id}); ok {
		lines = append(lines, "Type: `"+t.String()+"`")
		if t.Type.Kind == sema.TypeEither {
			for _, entry := range t.Type.Entries {
				if entry.Descriptor != "" {
					lines = append(lines, fmt.Sprintf("- `%s` when `%s`", entry.Type.String(), entry.Descriptor))
				} else {
					lines = append(lines, fmt.Sprintf("- `%s`", entry.Type.String()))
				}
			}
		}
	}

	if len(lines) == 0 {
		return nil
	}
	hoverRange := rangeForSpan(file, tree.Span(node))
	return &hover{
		Contents: markupContent{
			Kind:  "markdown",
			Value: strings.Join(lines, "\n"),
		},
		Range: &hoverRange,
	}
}

func (s *Server) declSignature(sess *sema.Session, h sema.DeclHandle, name string) string {
	_, doc, err := s.store.GetOrLoad(h.File)
	if err != nil {
		return ""
	}
	d := doc.Decls.Get(h.Decl)
	if d == nil {
		return ""
	}
	out := declKeyword(doc, d) + " " + name
	if t, ok := sess.DeclType(h); ok {
		out += ": " + t.String()
	}
	return out
}

func declKeyword(doc *symbols.DocumentScope, d *symbols.Declaration) string {
	switch d.Kind {
	case symbols.DeclAstNode:
		switch doc.Tree.Kind(d.Node) {
		case ast.NodeFnDecl:
			return "fn"
		case ast.NodeContainerField:
			return "field"
		default:
			return "const"
		}
	case symbols.DeclParam:
		return "param"
	case symbols.DeclLabel:
		return "label"
	default:
		return "capture"
	}
}

func (s *Server) declLocation(h sema.DeclHandle) string {
	_, doc, err := s.store.GetOrLoad(h.File)
	if err != nil {
		return ""
	}
	d := doc.Decls.Get(h.Decl)
	if d == nil || !d.Node.IsValid() {
		return ""
	}
	span := doc.Tree.Span(d.Node)
	start, _ := s.store.FileSet().Resolve(span)
	f := s.store.FileSet().Get(span.File)
	if f == nil {
		return ""
	}
	return fmt.Sprintf("declared at %s:%d:%d", f.Path, start.Line, start.Col)
}
