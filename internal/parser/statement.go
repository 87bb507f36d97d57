package parser

import (
	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/token"
)

// parseBlock parses { stmt* }. label is an optional NodeCapture for a
// labeled block.
func (p *Parser) parseBlock(label ast.NodeID) ast.NodeID {
	m := p.mark()
	p.expect(token.LBrace, diag.SynUnclosedBrace, "expected '{'")

	var stmts []ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		if id := p.parseStatement(); id.IsValid() {
			stmts = append(stmts, id)
		}
		if p.pos == before {
			p.err(diag.SynUnexpectedToken, "unexpected token in block")
			p.bump()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block")
	return p.add(ast.Node{Kind: ast.NodeBlock, Span: p.spanFrom(m), LHS: label, Extra: stmts})
}

func (p *Parser) parseStatement() ast.NodeID {
	switch p.cur().Kind {
	case token.KwConst, token.KwVar:
		return p.parseVarDecl(0)

	case token.KwDefer:
		m := p.mark()
		p.bump()
		body := p.parseBlockOrExprStmt()
		return p.add(ast.Node{Kind: ast.NodeDefer, Span: p.spanFrom(m), LHS: body})

	case token.KwErrdefer:
		m := p.mark()
		p.bump()
		capture := p.parseOptionalCapture()
		body := p.parseBlockOrExprStmt()
		return p.add(ast.Node{
			Kind:  ast.NodeErrdefer,
			Span:  p.spanFrom(m),
			LHS:   body,
			Extra: []ast.NodeID{capture},
		})

	case token.KwReturn:
		m := p.mark()
		p.bump()
		var value ast.NodeID
		if !p.at(token.Semicolon) && !p.at(token.RBrace) {
			value = p.parseExpr()
		}
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return")
		return p.add(ast.Node{Kind: ast.NodeReturn, Span: p.spanFrom(m), LHS: value})

	case token.KwBreak, token.KwContinue:
		return p.parseBreakContinue()

	case token.KwIf, token.KwWhile, token.KwFor, token.KwSwitch, token.KwComptime:
		expr := p.parseExpr()
		p.eat(token.Semicolon)
		return expr

	case token.LBrace:
		return p.parseBlock(ast.NoNodeID)

	case token.Ident:
		// label: block / loop
		if p.peek().Kind == token.Colon {
			return p.parseLabeledStatement()
		}
		return p.parseAssignOrExprStatement()

	default:
		return p.parseAssignOrExprStatement()
	}
}

func (p *Parser) parseBreakContinue() ast.NodeID {
	m := p.mark()
	kw := p.bump()
	kind := ast.NodeBreak
	if p.toks[kw].Kind == token.KwContinue {
		kind = ast.NodeContinue
	}

	var flags ast.NodeFlags
	var labelIdx ast.TokenIndex
	if p.at(token.Colon) && p.peek().Kind == token.Ident {
		p.bump()
		labelIdx = p.bump()
		flags |= ast.FlagNamed
	}
	var value ast.NodeID
	if kind == ast.NodeBreak && !p.at(token.Semicolon) && !p.at(token.RBrace) {
		value = p.parseExpr()
	}
	p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';'")
	return p.add(ast.Node{Kind: kind, Flags: flags, Span: p.spanFrom(m), Tok: labelIdx, LHS: value})
}

// parseLabeledStatement handles `name: {`, `name: while`, `name: for`.
func (p *Parser) parseLabeledStatement() ast.NodeID {
	m := p.mark()
	nameIdx := p.bump()
	p.bump() // ':'
	label := p.add(ast.Node{Kind: ast.NodeCapture, Span: p.spanFrom(m), Tok: nameIdx, Flags: ast.FlagNamed})

	switch p.cur().Kind {
	case token.LBrace:
		return p.parseBlock(label)
	case token.KwWhile:
		return p.parseWhile(label)
	case token.KwFor:
		return p.parseFor(label)
	default:
		p.err(diag.SynUnexpectedToken, "expected block or loop after label")
		return label
	}
}

func (p *Parser) parseAssignOrExprStatement() ast.NodeID {
	m := p.mark()
	lhs := p.parseExpr()
	if !lhs.IsValid() {
		return ast.NoNodeID
	}
	if _, ok := p.eat(token.Assign); ok {
		rhs := p.parseExpr()
		p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after assignment")
		return p.add(ast.Node{Kind: ast.NodeAssign, Span: p.spanFrom(m), LHS: lhs, RHS: rhs})
	}
	p.eat(token.Semicolon)
	return lhs
}

// parseBlockOrExprStmt is used by defer/errdefer bodies.
func (p *Parser) parseBlockOrExprStmt() ast.NodeID {
	if p.at(token.LBrace) {
		return p.parseBlock(ast.NoNodeID)
	}
	expr := p.parseExpr()
	p.eat(token.Semicolon)
	return expr
}

// parseBlockOrExpr is used by if/while/for/switch bodies.
func (p *Parser) parseBlockOrExpr() ast.NodeID {
	if p.at(token.LBrace) {
		return p.parseBlock(ast.NoNodeID)
	}
	return p.parseExpr()
}

// parseOptionalCapture parses |name| or |*name|, returning NoNodeID when the
// next token is not '|'.
func (p *Parser) parseOptionalCapture() ast.NodeID {
	if !p.at(token.Pipe) {
		return ast.NoNodeID
	}
	m := p.mark()
	p.bump() // '|'
	p.eat(token.Star)
	nameIdx, ok := p.expect(token.Ident, diag.SynBadCapture, "expected capture name")
	if !ok {
		return ast.NoNodeID
	}
	p.expect(token.Pipe, diag.SynBadCapture, "expected '|' to close capture")
	return p.add(ast.Node{Kind: ast.NodeCapture, Span: p.spanFrom(m), Tok: nameIdx, Flags: ast.FlagNamed})
}
