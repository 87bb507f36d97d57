package lexer

import (
	"zsem/internal/token"
)

// scanOperatorOrPunct scans operators and punctuation, longest match first.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()

	kind := token.Invalid
	switch b {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semicolon
	case ':':
		kind = token.Colon
	case '?':
		kind = token.Question
	case '&':
		kind = token.Amp
	case '|':
		kind = token.Pipe
	case '*':
		kind = token.Star
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case '=':
		kind = token.Assign
		switch lx.cursor.Peek() {
		case '=':
			lx.cursor.Bump()
			kind = token.EqEq
		case '>':
			lx.cursor.Bump()
			kind = token.FatArrow
		}
	case '!':
		kind = token.Bang
		if lx.cursor.Peek() == '=' {
			lx.cursor.Bump()
			kind = token.BangEq
		}
	case '<':
		kind = token.Lt
		if lx.cursor.Peek() == '=' {
			lx.cursor.Bump()
			kind = token.LtEq
		}
	case '>':
		kind = token.Gt
		if lx.cursor.Peek() == '=' {
			lx.cursor.Bump()
			kind = token.GtEq
		}
	case '.':
		kind = token.Dot
		switch lx.cursor.Peek() {
		case '*':
			lx.cursor.Bump()
			kind = token.DotStar
		case '?':
			lx.cursor.Bump()
			kind = token.DotQuestion
		case '.':
			lx.cursor.Bump()
			kind = token.Ellipsis2
			if lx.cursor.Peek() == '.' {
				lx.cursor.Bump()
				kind = token.Ellipsis3
			}
		}
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if kind == token.Invalid {
		lx.report("L0004", sp, "unexpected character")
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}
