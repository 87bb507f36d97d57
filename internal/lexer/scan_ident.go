package lexer

import (
	"zsem/internal/token"
)

// scanIdentOrKeyword scans an identifier and classifies it via LookupKeyword.
// Token.Text is exactly the source slice. Identifiers are ASCII.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// scanBuiltin scans an @-prefixed builtin name, '@' included in Text.
func (lx *Lexer) scanBuiltin() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '@'
	if !isIdentStart(lx.cursor.Peek()) {
		sp := lx.cursor.SpanFrom(start)
		lx.report("L0003", sp, "expected builtin name after '@'")
		return token.Token{Kind: token.Invalid, Span: sp, Text: "@"}
	}
	for isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	return token.Token{Kind: token.Builtin, Span: sp, Text: text}
}
