package lsp

import (
	"encoding/json"
	"sort"

	"zsem/internal/ast"
	"zsem/internal/sema"
	"zsem/internal/source"
	"zsem/internal/symbols"
)

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	id, file, ok := s.docFile(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []completionItem{})
	}
	items := s.buildCompletion(id, file, params.Position)
	if items == nil {
		items = []completionItem{}
	}
	return s.sendResponse(msg.ID, items)
}

func (s *Server) buildCompletion(id source.FileID, file *source.File, pos position) []completionItem {
	offset := offsetForPositionInFile(file, pos)
	dotOff, afterDot := dotBefore(file.Content, offset)
	if afterDot {
		if items := s.memberCompletion(id, file, dotOff); items != nil {
			return items
		}
		return s.literalCompletion(id)
	}
	return s.lexicalCompletion(id, offset)
}

// dotBefore reports whether the cursor sits right after a '.', skipping
// any partial identifier already typed.
func dotBefore(content []byte, offset uint32) (uint32, bool) {
	i := int(offset)
	if i > len(content) {
		i = len(content)
	}
	for i > 0 && isIdentByte(content[i-1]) {
		i--
	}
	if i > 0 && content[i-1] == '.' {
		return uint32(i - 1), true
	}
	return 0, false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// memberCompletion lists the members of the expression left of the dot.
func (s *Server) memberCompletion(id source.FileID, file *source.File, dotOff uint32) []completionItem {
	tree, _, err := s.store.GetOrLoad(id)
	if err != nil || dotOff == 0 {
		return nil
	}
	// Skip whitespace between the expression and the dot.
	end := dotOff
	for end > 0 && (file.Content[end-1] == ' ' || file.Content[end-1] == '\t') {
		end--
	}
	if end == 0 {
		return nil
	}
	node := tree.NodeAt(end - 1)
	if !node.IsValid() {
		return nil
	}
	sess := s.newSession()
	t, ok := sess.ResolveType(sema.NodeRef{Node: node, File: id})
	if !ok {
		return nil
	}
	members := sess.ContainerMembers(t, !t.Type.IsTypeVal, id)
	if len(members) == 0 {
		return nil
	}
	items := make([]completionItem, 0, len(members))
	for _, m := range members {
		item := completionItem{Label: m.Name, Kind: completionKindVariable}
		if _, doc, err := s.store.GetOrLoad(m.Decl.File); err == nil {
			if d := doc.Decls.Get(m.Decl.Decl); d != nil {
				item.Kind = completionKind(doc, d)
			}
		}
		if dt, ok := sess.DeclType(m.Decl); ok {
			item.Detail = dt.String()
		}
		items = append(items, item)
	}
	return items
}

// literalCompletion offers the document's enum-member and error-value
// completion sets for a bare ".name" context.
func (s *Server) literalCompletion(id source.FileID) []completionItem {
	_, doc, err := s.store.GetOrLoad(id)
	if err != nil {
		return nil
	}
	items := make([]completionItem, 0, len(doc.EnumCompletions)+len(doc.ErrorCompletions))
	for _, name := range doc.EnumCompletions {
		items = append(items, completionItem{Label: name, Kind: completionKindEnum})
	}
	for _, name := range doc.ErrorCompletions {
		items = append(items, completionItem{Label: name, Kind: completionKindConstant})
	}
	return items
}

// lexicalCompletion lists every name visible at offset, innermost scopes
// shadowing outer ones.
func (s *Server) lexicalCompletion(id source.FileID, offset uint32) []completionItem {
	tree, doc, err := s.store.GetOrLoad(id)
	if err != nil {
		return nil
	}
	sess := s.newSession()
	seen := make(map[string]completionItem)
	for sc := doc.InnermostAt(offset); sc.IsValid(); sc = doc.Scopes.Get(sc).Parent {
		scope := doc.Scopes.Get(sc)
		for name, declID := range scope.Decls {
			if _, dup := seen[name]; dup {
				continue
			}
			d := doc.Decls.Get(declID)
			if d.Kind == symbols.DeclLabel || d.IsField(tree) {
				continue
			}
			item := completionItem{Label: name, Kind: completionKind(doc, d)}
			if dt, ok := sess.DeclType(sema.DeclHandle{Decl: declID, File: id}); ok {
				item.Detail = dt.String()
			}
			seen[name] = item
		}
	}
	items := make([]completionItem, 0, len(seen))
	for _, item := range seen {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func completionKind(doc *symbols.DocumentScope, d *symbols.Declaration) int {
	switch d.Kind {
	case symbols.DeclAstNode:
		switch doc.Tree.Kind(d.Node) {
		case ast.NodeFnDecl:
			return completionKindFunction
		case ast.NodeContainerField:
			return completionKindField
		default:
			return completionKindConstant
		}
	case symbols.DeclParam:
		return completionKindVariable
	default:
		return completionKindVariable
	}
}
