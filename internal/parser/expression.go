package parser

import (
	"zsem/internal/ast"
	"zsem/internal/diag"
	"zsem/internal/source"
	"zsem/internal/token"
)

// Expression precedence, loosest first:
// orelse/catch < or < and < comparison < add < mul < error-union < prefix < postfix.

func (p *Parser) parseExpr() ast.NodeID {
	return p.parseOrelseCatch()
}

func (p *Parser) parseOrelseCatch() ast.NodeID {
	m := p.mark()
	lhs := p.parseOr()
	for {
		switch p.cur().Kind {
		case token.KwOrelse:
			p.bump()
			rhs := p.parseOr()
			lhs = p.add(ast.Node{Kind: ast.NodeOrelse, Span: p.spanFrom(m), LHS: lhs, RHS: rhs})
		case token.KwCatch:
			p.bump()
			capture := p.parseOptionalCapture()
			rhs := p.parseBlockOrExpr()
			lhs = p.add(ast.Node{
				Kind:  ast.NodeCatch,
				Span:  p.spanFrom(m),
				LHS:   lhs,
				RHS:   rhs,
				Extra: []ast.NodeID{capture},
			})
		default:
			return lhs
		}
	}
}

func (p *Parser) parseOr() ast.NodeID {
	m := p.mark()
	lhs := p.parseAnd()
	for p.at(token.KwOr) {
		op := p.bump()
		rhs := p.parseAnd()
		lhs = p.add(ast.Node{Kind: ast.NodeBinOp, Span: p.spanFrom(m), Tok: op, LHS: lhs, RHS: rhs})
	}
	return lhs
}

func (p *Parser) parseAnd() ast.NodeID {
	m := p.mark()
	lhs := p.parseCompare()
	for p.at(token.KwAnd) {
		op := p.bump()
		rhs := p.parseCompare()
		lhs = p.add(ast.Node{Kind: ast.NodeBinOp, Span: p.spanFrom(m), Tok: op, LHS: lhs, RHS: rhs})
	}
	return lhs
}

func isCompareOp(k token.Kind) bool {
	switch k {
	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCompare() ast.NodeID {
	m := p.mark()
	lhs := p.parseAdd()
	for isCompareOp(p.cur().Kind) {
		op := p.bump()
		rhs := p.parseAdd()
		lhs = p.add(ast.Node{Kind: ast.NodeBinOp, Span: p.spanFrom(m), Tok: op, LHS: lhs, RHS: rhs})
	}
	return lhs
}

func (p *Parser) parseAdd() ast.NodeID {
	m := p.mark()
	lhs := p.parseMul()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.bump()
		rhs := p.parseMul()
		lhs = p.add(ast.Node{Kind: ast.NodeBinOp, Span: p.spanFrom(m), Tok: op, LHS: lhs, RHS: rhs})
	}
	return lhs
}

func (p *Parser) parseMul() ast.NodeID {
	m := p.mark()
	lhs := p.parseErrorUnion()
	for p.at(token.Star) || p.at(token.Slash) || p.at(token.Percent) {
		op := p.bump()
		rhs := p.parseErrorUnion()
		lhs = p.add(ast.Node{Kind: ast.NodeBinOp, Span: p.spanFrom(m), Tok: op, LHS: lhs, RHS: rhs})
	}
	return lhs
}

// parseErrorUnion handles the tight infix '!' forming error-union types.
func (p *Parser) parseErrorUnion() ast.NodeID {
	m := p.mark()
	lhs := p.parsePrefix()
	for p.at(token.Bang) {
		p.bump()
		rhs := p.parsePrefix()
		lhs = p.add(ast.Node{Kind: ast.NodeErrorUnionType, Span: p.spanFrom(m), LHS: lhs, RHS: rhs})
	}
	return lhs
}

func (p *Parser) parsePrefix() ast.NodeID {
	m := p.mark()
	switch p.cur().Kind {
	case token.KwTry:
		p.bump()
		return p.add(ast.Node{Kind: ast.NodeTry, Span: p.spanFrom(m), LHS: p.parsePrefix()})
	case token.Amp:
		p.bump()
		return p.add(ast.Node{Kind: ast.NodeAddressOf, Span: p.spanFrom(m), LHS: p.parsePrefix()})
	case token.Star:
		// prefix '*' is a pointer type; dereference is postfix '.*'
		p.bump()
		return p.add(ast.Node{Kind: ast.NodePtrType, Span: p.spanFrom(m), LHS: p.parsePrefix()})
	case token.Question:
		p.bump()
		return p.add(ast.Node{Kind: ast.NodeOptionalType, Span: p.spanFrom(m), LHS: p.parsePrefix()})
	case token.Minus, token.Bang:
		op := p.bump()
		return p.add(ast.Node{Kind: ast.NodeBinOp, Span: p.spanFrom(m), Tok: op, RHS: p.parsePrefix()})
	case token.KwComptime:
		p.bump()
		return p.add(ast.Node{Kind: ast.NodeComptime, Span: p.spanFrom(m), LHS: p.parsePrefix()})
	case token.LBracket:
		return p.parseArrayOrSliceType()
	default:
		return p.parsePostfix()
	}
}

// parseArrayOrSliceType parses []Elem and [len]Elem prefixes.
func (p *Parser) parseArrayOrSliceType() ast.NodeID {
	m := p.mark()
	p.bump() // '['
	if _, ok := p.eat(token.RBracket); ok {
		elem := p.parsePrefix()
		return p.add(ast.Node{Kind: ast.NodeSliceType, Span: p.spanFrom(m), LHS: elem})
	}
	length := p.parseExpr()
	p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' in array type")
	elem := p.parsePrefix()
	return p.add(ast.Node{Kind: ast.NodeArrayType, Span: p.spanFrom(m), LHS: elem, RHS: length})
}

func (p *Parser) parsePostfix() ast.NodeID {
	m := p.mark()
	operand := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LParen:
			args := p.parseArgList()
			operand = p.add(ast.Node{
				Kind:  ast.NodeCall,
				Span:  p.spanFrom(m),
				LHS:   operand,
				Extra: args,
			})
		case token.Dot:
			p.bump()
			nameIdx, ok := p.expect(token.Ident, diag.SynExpectIdent, "expected field name after '.'")
			if !ok {
				return operand
			}
			operand = p.add(ast.Node{Kind: ast.NodeFieldAccess, Span: p.spanFrom(m), LHS: operand, Tok: nameIdx})
		case token.DotStar:
			p.bump()
			operand = p.add(ast.Node{Kind: ast.NodeDeref, Span: p.spanFrom(m), LHS: operand})
		case token.DotQuestion:
			p.bump()
			operand = p.add(ast.Node{Kind: ast.NodeUnwrapOptional, Span: p.spanFrom(m), LHS: operand})
		case token.LBracket:
			operand = p.parseIndexOrSlice(m, operand)
		case token.LBrace:
			// struct init only when the brace clearly opens an init list;
			// otherwise the brace belongs to an enclosing construct
			if k := p.peek().Kind; k != token.Dot && k != token.RBrace {
				return operand
			}
			operand = p.parseStructInit(m, operand)
		default:
			return operand
		}
	}
}

func (p *Parser) parseArgList() []ast.NodeID {
	p.bump() // '('
	var args []ast.NodeID
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close arguments")
	return args
}

func (p *Parser) parseIndexOrSlice(m uint32, operand ast.NodeID) ast.NodeID {
	p.bump() // '['
	start := p.parseExpr()
	if _, ok := p.eat(token.Ellipsis2); ok {
		var end ast.NodeID
		if !p.at(token.RBracket) {
			end = p.parseExpr()
		}
		p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' to close slice")
		return p.add(ast.Node{
			Kind:  ast.NodeSliceExpr,
			Span:  p.spanFrom(m),
			LHS:   operand,
			Extra: []ast.NodeID{start, end},
		})
	}
	p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' to close index")
	return p.add(ast.Node{Kind: ast.NodeIndexAccess, Span: p.spanFrom(m), LHS: operand, RHS: start})
}

// parseStructInit parses Type{ .field = value, ... }. typeExpr may be
// NoNodeID for anonymous '.{ ... }' literals.
func (p *Parser) parseStructInit(m uint32, typeExpr ast.NodeID) ast.NodeID {
	p.bump() // '{'
	var inits []ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fm := p.mark()
		if _, ok := p.eat(token.Dot); !ok {
			// positional entries are tolerated but not modeled
			p.parseExpr()
			p.eat(token.Comma)
			if p.pos == fm {
				p.bump()
			}
			continue
		}
		nameIdx, ok := p.expect(token.Ident, diag.SynExpectIdent, "expected field name in init")
		if !ok {
			break
		}
		p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' in field init")
		value := p.parseExpr()
		p.eat(token.Comma)
		inits = append(inits, p.add(ast.Node{
			Kind: ast.NodeFieldInit,
			Span: p.spanFrom(fm),
			Tok:  nameIdx,
			LHS:  value,
		}))
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close init")
	return p.add(ast.Node{Kind: ast.NodeStructInit, Span: p.spanFrom(m), LHS: typeExpr, Extra: inits})
}

func (p *Parser) parsePrimary() ast.NodeID {
	m := p.mark()
	switch p.cur().Kind {
	case token.Ident:
		return p.add(ast.Node{Kind: ast.NodeIdent, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.IntLit:
		return p.add(ast.Node{Kind: ast.NodeIntLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.FloatLit:
		return p.add(ast.Node{Kind: ast.NodeFloatLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.StringLit:
		return p.add(ast.Node{Kind: ast.NodeStringLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.CharLit:
		return p.add(ast.Node{Kind: ast.NodeCharLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.KwTrue, token.KwFalse:
		return p.add(ast.Node{Kind: ast.NodeBoolLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.KwNull:
		return p.add(ast.Node{Kind: ast.NodeNullLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.KwUndefined:
		return p.add(ast.Node{Kind: ast.NodeUndefinedLit, Span: p.spanFrom0(m), Tok: p.bump()})
	case token.KwUnreachable:
		return p.add(ast.Node{Kind: ast.NodeUnreachableLit, Span: p.spanFrom0(m), Tok: p.bump()})

	case token.Builtin:
		nameIdx := p.bump()
		var args []ast.NodeID
		if p.at(token.LParen) {
			args = p.parseArgList()
		}
		return p.add(ast.Node{Kind: ast.NodeBuiltinCall, Span: p.spanFrom(m), Tok: nameIdx, Extra: args})

	case token.KwStruct, token.KwEnum, token.KwUnion:
		return p.parseContainerDecl()

	case token.KwError:
		return p.parseErrorExpr()

	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile(ast.NoNodeID)
	case token.KwFor:
		return p.parseFor(ast.NoNodeID)
	case token.KwSwitch:
		return p.parseSwitch()

	case token.LParen:
		p.bump()
		inner := p.parseExpr()
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'")
		return p.add(ast.Node{Kind: ast.NodeGrouped, Span: p.spanFrom(m), LHS: inner})

	case token.LBrace:
		return p.parseBlock(ast.NoNodeID)

	case token.Dot:
		p.bump()
		if p.at(token.LBrace) {
			return p.parseStructInit(m, ast.NoNodeID)
		}
		nameIdx, ok := p.expect(token.Ident, diag.SynExpectIdent, "expected enum literal name after '.'")
		if !ok {
			return ast.NoNodeID
		}
		return p.add(ast.Node{Kind: ast.NodeEnumLiteral, Span: p.spanFrom(m), Tok: nameIdx})

	default:
		p.err(diag.SynExpectExpression, "expected expression")
		return ast.NoNodeID
	}
}

// spanFrom0 is spanFrom for single-token nodes created before bumping.
func (p *Parser) spanFrom0(m uint32) source.Span {
	return source.Span{File: p.file.ID, Start: p.toks[m].Span.Start, End: p.toks[m].Span.End}
}

// parseContainerDecl parses struct/enum/union bodies.
func (p *Parser) parseContainerDecl() ast.NodeID {
	m := p.mark()
	kwIdx := p.bump()
	// union(enum) and enum(u8) tag clauses are skipped, not modeled
	if p.at(token.LParen) {
		p.bump()
		for !p.at(token.RParen) && !p.at(token.EOF) {
			p.bump()
		}
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' in container header")
	}
	p.expect(token.LBrace, diag.SynBadContainer, "expected '{' to open container body")
	members := p.parseContainerMembers(token.RBrace)
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close container body")
	return p.add(ast.Node{Kind: ast.NodeContainerDecl, Span: p.spanFrom(m), Tok: kwIdx, Extra: members})
}

// parseErrorExpr parses error.Name values and error{...} set declarations.
func (p *Parser) parseErrorExpr() ast.NodeID {
	m := p.mark()
	p.bump() // 'error'
	if _, ok := p.eat(token.Dot); ok {
		nameIdx, ok := p.expect(token.Ident, diag.SynExpectIdent, "expected error name after 'error.'")
		if !ok {
			return ast.NoNodeID
		}
		return p.add(ast.Node{Kind: ast.NodeErrorValue, Span: p.spanFrom(m), Tok: nameIdx})
	}

	p.expect(token.LBrace, diag.SynBadContainer, "expected '{' or '.' after 'error'")
	var members []ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		em := p.mark()
		nameIdx, ok := p.eat(token.Ident)
		if !ok {
			p.err(diag.SynExpectIdent, "expected error set member name")
			p.bump()
			continue
		}
		members = append(members, p.add(ast.Node{
			Kind: ast.NodeErrorSetMember,
			Span: p.spanFrom(em),
			Tok:  nameIdx,
		}))
		p.eat(token.Comma)
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close error set")
	return p.add(ast.Node{Kind: ast.NodeErrorSetDecl, Span: p.spanFrom(m), Extra: members})
}

// parseIf parses if (cond) |payload| then else |payload| else-body.
func (p *Parser) parseIf() ast.NodeID {
	m := p.mark()
	p.bump() // 'if'
	p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' after 'if'")
	cond := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after condition")

	payload := p.parseOptionalCapture()
	then := p.parseBlockOrExpr()

	var elsePayload, elseBody ast.NodeID
	if _, ok := p.eat(token.KwElse); ok {
		elsePayload = p.parseOptionalCapture()
		elseBody = p.parseBlockOrExpr()
	}
	extra := make([]ast.NodeID, 5)
	extra[ast.IfCond] = cond
	extra[ast.IfPayload] = payload
	extra[ast.IfThen] = then
	extra[ast.IfElsePayload] = elsePayload
	extra[ast.IfElse] = elseBody
	return p.add(ast.Node{Kind: ast.NodeIf, Span: p.spanFrom(m), Extra: extra})
}

func (p *Parser) parseWhile(label ast.NodeID) ast.NodeID {
	m := p.mark()
	p.bump() // 'while'
	p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' after 'while'")
	cond := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after condition")

	payload := p.parseOptionalCapture()
	body := p.parseBlockOrExpr()

	var elsePayload, elseBody ast.NodeID
	if _, ok := p.eat(token.KwElse); ok {
		elsePayload = p.parseOptionalCapture()
		elseBody = p.parseBlockOrExpr()
	}
	extra := make([]ast.NodeID, 5)
	extra[ast.WhileCond] = cond
	extra[ast.WhilePayload] = payload
	extra[ast.WhileBody] = body
	extra[ast.WhileElsePayload] = elsePayload
	extra[ast.WhileElse] = elseBody
	return p.add(ast.Node{Kind: ast.NodeWhile, Span: p.spanFrom(m), LHS: label, Extra: extra})
}

func (p *Parser) parseFor(label ast.NodeID) ast.NodeID {
	m := p.mark()
	p.bump() // 'for'
	p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' after 'for'")
	array := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after loop operand")

	var item, index ast.NodeID
	if p.at(token.Pipe) {
		cm := p.mark()
		p.bump() // '|'
		p.eat(token.Star)
		if nameIdx, ok := p.expect(token.Ident, diag.SynBadCapture, "expected loop capture name"); ok {
			item = p.add(ast.Node{Kind: ast.NodeCapture, Span: p.spanFrom(cm), Tok: nameIdx, Flags: ast.FlagNamed})
		}
		if _, ok := p.eat(token.Comma); ok {
			im := p.mark()
			if nameIdx, ok := p.expect(token.Ident, diag.SynBadCapture, "expected index capture name"); ok {
				index = p.add(ast.Node{Kind: ast.NodeCapture, Span: p.spanFrom(im), Tok: nameIdx, Flags: ast.FlagNamed})
			}
		}
		p.expect(token.Pipe, diag.SynBadCapture, "expected '|' to close loop capture")
	}
	body := p.parseBlockOrExpr()

	var elseBody ast.NodeID
	if _, ok := p.eat(token.KwElse); ok {
		elseBody = p.parseBlockOrExpr()
	}
	extra := make([]ast.NodeID, 5)
	extra[ast.ForArray] = array
	extra[ast.ForItem] = item
	extra[ast.ForIndex] = index
	extra[ast.ForBody] = body
	extra[ast.ForElse] = elseBody
	return p.add(ast.Node{Kind: ast.NodeFor, Span: p.spanFrom(m), LHS: label, Extra: extra})
}

func (p *Parser) parseSwitch() ast.NodeID {
	m := p.mark()
	p.bump() // 'switch'
	p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' after 'switch'")
	subject := p.parseExpr()
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after subject")
	p.expect(token.LBrace, diag.SynUnclosedBrace, "expected '{' to open switch body")

	var cases []ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		cases = append(cases, p.parseSwitchCase())
		p.eat(token.Comma)
		if p.pos == before {
			p.err(diag.SynUnexpectedToken, "unexpected token in switch body")
			p.bump()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close switch")
	return p.add(ast.Node{Kind: ast.NodeSwitch, Span: p.spanFrom(m), LHS: subject, Extra: cases})
}

func (p *Parser) parseSwitchCase() ast.NodeID {
	m := p.mark()
	var flags ast.NodeFlags
	var items []ast.NodeID
	if _, ok := p.eat(token.KwElse); ok {
		flags |= ast.FlagElse
	} else {
		for {
			items = append(items, p.parseExpr())
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
			if p.at(token.FatArrow) {
				break
			}
		}
	}
	p.expect(token.FatArrow, diag.SynUnexpectedToken, "expected '=>' in switch prong")
	payload := p.parseOptionalCapture()
	body := p.parseBlockOrExpr()

	extra := make([]ast.NodeID, 2, 2+len(items))
	extra[ast.CasePayload] = payload
	extra[ast.CaseBody] = body
	extra = append(extra, items...)
	return p.add(ast.Node{Kind: ast.NodeSwitchCase, Flags: flags, Span: p.spanFrom(m), Extra: extra})
}
