package lsp

import (
	"encoding/json"

	"zsem/internal/source"
)

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	id, file, ok := s.docFile(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	result := s.buildDefinition(id, file, params.Position)
	if result == nil {
		result = []location{}
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) buildDefinition(id source.FileID, file *source.File, pos position) []location {
	tree, _, err := s.store.GetOrLoad(id)
	if err != nil {
		return nil
	}
	offset := offsetForPositionInFile(file, pos)
	node := tree.NodeAt(offset)
	if !node.IsValid() {
		return nil
	}
	name := tree.NodeName(node)
	if name == "" {
		return nil
	}
	sess := s.newSession()
	h, ok := sess.LookupLexical(id, offset, name)
	if !ok {
		return nil
	}
	_, doc, err := s.store.GetOrLoad(h.File)
	if err != nil {
		return nil
	}
	d := doc.Decls.Get(h.Decl)
	if d == nil || !d.Node.IsValid() {
		return nil
	}
	span := doc.Tree.Span(d.Node)
	defFile := s.store.FileSet().Get(span.File)
	if defFile == nil {
		return nil
	}
	return []location{{
		URI:   pathToURI(defFile.Path),
		Range: rangeForSpan(defFile, span),
	}}
}
