package parser

import (
	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/lexer"
	"zsem/internal/source"
	"zsem/internal/token"
)

// Parser turns a token stream into a flat-arena syntax tree. It is a plain
// recursive-descent parser with single-token error recovery: a bad token is
// reported once and skipped, so parsing always terminates with a usable tree.
type Parser struct {
	tree *ast.Tree
	file *source.File
	toks []token.Token
	pos  uint32
	rep  diag.Reporter
}

type lexAdapter struct {
	rep diag.Reporter
}

func (a lexAdapter) Report(code string, sp source.Span, msg string) {
	mapped := diag.LexUnknownChar
	switch code {
	case "L0001":
		mapped = diag.LexBadNumber
	case "L0002":
		mapped = diag.LexUnterminatedString
	case "L0003":
		mapped = diag.LexBadBuiltin
	}
	a.rep.Report(mapped, diag.SevError, sp, msg)
}

// Parse lexes and parses one file. The returned tree is always non-nil;
// syntax errors are reported through rep and recovery keeps going.
func Parse(file *source.File, rep diag.Reporter) *ast.Tree {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	toks := lexer.Tokenize(file, lexer.Options{Reporter: lexAdapter{rep: rep}})
	tree := ast.NewTree(file.ID, file.Content, toks)
	p := &Parser{
		tree: tree,
		file: file,
		toks: toks,
		rep:  rep,
	}
	tree.Root = p.parseRoot()
	return tree
}

func (p *Parser) cur() token.Token {
	if int(p.pos) >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peek() token.Token {
	if int(p.pos)+1 >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos+1]
}

func (p *Parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

// bump consumes the current token and returns its index.
func (p *Parser) bump() ast.TokenIndex {
	idx := ast.TokenIndex(p.pos)
	if int(p.pos) < len(p.toks)-1 {
		p.pos++
	}
	return idx
}

// eat consumes the current token when it matches k.
func (p *Parser) eat(k token.Kind) (ast.TokenIndex, bool) {
	if p.at(k) {
		return p.bump(), true
	}
	return 0, false
}

func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (ast.TokenIndex, bool) {
	if idx, ok := p.eat(k); ok {
		return idx, true
	}
	p.err(code, msg)
	return 0, false
}

func (p *Parser) err(code diag.Code, msg string) {
	p.rep.Report(code, diag.SevError, p.cur().Span, msg)
}

// mark remembers the current token position for span construction.
func (p *Parser) mark() uint32 { return p.pos }

// spanFrom covers the tokens from mark up to (not including) the current one.
func (p *Parser) spanFrom(m uint32) source.Span {
	start := p.toks[m].Span.Start
	end := start
	if p.pos > m {
		end = p.toks[p.pos-1].Span.End
	}
	return source.Span{File: p.file.ID, Start: start, End: end}
}

func (p *Parser) add(n ast.Node) ast.NodeID {
	return p.tree.Add(n)
}

// parseRoot collects top-level members into the implicit root container.
func (p *Parser) parseRoot() ast.NodeID {
	members := p.parseContainerMembers(token.EOF)
	span := source.Span{File: p.file.ID, Start: 0, End: uint32(len(p.file.Content))}
	return p.add(ast.Node{Kind: ast.NodeRoot, Span: span, Extra: members})
}

// parseContainerMembers parses declarations until the terminator.
func (p *Parser) parseContainerMembers(term token.Kind) []ast.NodeID {
	var members []ast.NodeID
	for !p.at(term) && !p.at(token.EOF) {
		before := p.pos
		if id := p.parseContainerMember(); id.IsValid() {
			members = append(members, id)
		}
		if p.pos == before {
			// no progress; skip the offending token
			p.err(diag.SynUnexpectedToken, "unexpected token in container body")
			p.bump()
		}
	}
	return members
}

func (p *Parser) parseContainerMember() ast.NodeID {
	var flags ast.NodeFlags
	if _, ok := p.eat(token.KwPub); ok {
		flags |= ast.FlagPub
	}

	switch p.cur().Kind {
	case token.KwConst, token.KwVar:
		return p.parseVarDecl(flags)
	case token.KwFn:
		return p.parseFnDecl(flags)
	case token.KwTest:
		return p.parseTestDecl()
	case token.KwUsingnamespace:
		m := p.mark()
		p.bump()
		target := p.parseExpr()
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after usingnamespace")
		return p.add(ast.Node{Kind: ast.NodeUsingnamespace, Span: p.spanFrom(m), LHS: target, Flags: flags})
	case token.KwComptime:
		m := p.mark()
		p.bump()
		body := p.parseBlockOrExpr()
		return p.add(ast.Node{Kind: ast.NodeComptime, Span: p.spanFrom(m), LHS: body})
	case token.Ident:
		return p.parseContainerField()
	default:
		return ast.NoNodeID
	}
}

// parseContainerField parses a struct/union field or enum member:
// name[: type][= default] followed by ',' or the container end.
func (p *Parser) parseContainerField() ast.NodeID {
	m := p.mark()
	nameIdx := p.bump()

	var typeExpr, defaultExpr ast.NodeID
	if _, ok := p.eat(token.Colon); ok {
		typeExpr = p.parseExpr()
	}
	if _, ok := p.eat(token.Assign); ok {
		defaultExpr = p.parseExpr()
	}
	p.eat(token.Comma)
	return p.add(ast.Node{
		Kind: ast.NodeContainerField,
		Span: p.spanFrom(m),
		Tok:  nameIdx,
		LHS:  typeExpr,
		RHS:  defaultExpr,
	})
}

// parseVarDecl parses const/var declarations in container or block position.
func (p *Parser) parseVarDecl(flags ast.NodeFlags) ast.NodeID {
	m := p.mark()
	kw := p.bump()
	if p.toks[kw].Kind == token.KwConst {
		flags |= ast.FlagConst
	}

	nameIdx, ok := p.expect(token.Ident, diag.SynExpectIdent, "expected declaration name")
	if !ok {
		return ast.NoNodeID
	}

	var typeExpr, initExpr ast.NodeID
	if _, ok := p.eat(token.Colon); ok {
		typeExpr = p.parseExpr()
	}
	if _, ok := p.eat(token.Assign); ok {
		initExpr = p.parseExpr()
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after declaration")
	return p.add(ast.Node{
		Kind:  ast.NodeVarDecl,
		Flags: flags,
		Span:  p.spanFrom(m),
		Tok:   nameIdx,
		LHS:   typeExpr,
		RHS:   initExpr,
	})
}

// parseFnDecl parses a function declaration with proto and optional body.
func (p *Parser) parseFnDecl(flags ast.NodeFlags) ast.NodeID {
	m := p.mark()
	p.bump() // fn

	nameIdx, _ := p.expect(token.Ident, diag.SynExpectIdent, "expected function name")
	p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' after function name")

	var params []ast.NodeID
	for !p.at(token.RParen) && !p.at(token.EOF) {
		params = append(params, p.parseParam())
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after parameters")

	var retType ast.NodeID
	if !p.at(token.LBrace) && !p.at(token.Semicolon) {
		retType = p.parseExpr()
	}
	proto := p.add(ast.Node{
		Kind:  ast.NodeFnProto,
		Flags: flags,
		Span:  p.spanFrom(m),
		Tok:   nameIdx,
		RHS:   retType,
		Extra: params,
	})

	var body ast.NodeID
	if p.at(token.LBrace) {
		body = p.parseBlock(ast.NoNodeID)
	} else {
		p.eat(token.Semicolon)
	}
	return p.add(ast.Node{
		Kind:  ast.NodeFnDecl,
		Flags: flags,
		Span:  p.spanFrom(m),
		Tok:   nameIdx,
		LHS:   proto,
		RHS:   body,
	})
}

// parseParam parses one parameter: [comptime] [name:] (anytype | type expr).
func (p *Parser) parseParam() ast.NodeID {
	m := p.mark()
	var flags ast.NodeFlags
	p.eat(token.KwComptime)

	var nameIdx ast.TokenIndex
	if p.at(token.Ident) && p.peek().Kind == token.Colon {
		nameIdx = p.bump()
		p.bump() // ':'
		flags |= ast.FlagNamed
	}

	var typeExpr ast.NodeID
	if _, ok := p.eat(token.KwAnytype); ok {
		flags |= ast.FlagAnytype
	} else {
		typeExpr = p.parseExpr()
	}
	return p.add(ast.Node{
		Kind:  ast.NodeParam,
		Flags: flags,
		Span:  p.spanFrom(m),
		Tok:   nameIdx,
		LHS:   typeExpr,
	})
}

// parseTestDecl parses test "name" { ... }.
func (p *Parser) parseTestDecl() ast.NodeID {
	m := p.mark()
	p.bump() // test

	var flags ast.NodeFlags
	var nameIdx ast.TokenIndex
	if p.at(token.StringLit) {
		nameIdx = p.bump()
		flags |= ast.FlagNamed
	}
	body := p.parseBlock(ast.NoNodeID)
	return p.add(ast.Node{
		Kind:  ast.NodeTestDecl,
		Flags: flags,
		Span:  p.spanFrom(m),
		Tok:   nameIdx,
		LHS:   body,
	})
}
