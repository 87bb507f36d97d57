package lexer

import (
	"testing"

	"zsem/internal/source"
	"zsem/internal/token"
)

func lexKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte(src))
	toks := Tokenize(fs.Get(id), Options{})
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func expectKinds(t *testing.T, src string, want []token.Kind) {
	t.Helper()
	got := lexKinds(t, src)
	if len(got) != len(want) {
		t.Fatalf("%q: expected %d tokens, got %d: %v", src, len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d: expected %v, got %v", src, i, want[i], got[i])
		}
	}
}

func TestLexDeclaration(t *testing.T) {
	expectKinds(t, "const x: u32 = 42;", []token.Kind{
		token.KwConst, token.Ident, token.Colon, token.Ident,
		token.Assign, token.IntLit, token.Semicolon, token.EOF,
	})
}

func TestLexPostfixOperators(t *testing.T) {
	expectKinds(t, "p.* q.? a.b", []token.Kind{
		token.Ident, token.DotStar,
		token.Ident, token.DotQuestion,
		token.Ident, token.Dot, token.Ident,
		token.EOF,
	})
}

func TestLexBuiltin(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte(`@import("std")`))
	toks := Tokenize(fs.Get(id), Options{})
	if toks[0].Kind != token.Builtin || toks[0].Text != "@import" {
		t.Fatalf("expected @import builtin, got %v %q", toks[0].Kind, toks[0].Text)
	}
	if toks[2].Kind != token.StringLit || toks[2].Text != `"std"` {
		t.Fatalf("expected raw string literal, got %v %q", toks[2].Kind, toks[2].Text)
	}
}

func TestLexSkipsComments(t *testing.T) {
	expectKinds(t, "a // trailing comment\nb", []token.Kind{
		token.Ident, token.Ident, token.EOF,
	})
}

func TestLexNumbers(t *testing.T) {
	expectKinds(t, "10 0xFF 1_000 3.14", []token.Kind{
		token.IntLit, token.IntLit, token.IntLit, token.FloatLit, token.EOF,
	})
}

func TestLexKeywordsVsIdents(t *testing.T) {
	expectKinds(t, "orelse orelsea usingnamespace", []token.Kind{
		token.KwOrelse, token.Ident, token.KwUsingnamespace, token.EOF,
	})
}

type capturingReporter struct {
	codes []string
}

func (r *capturingReporter) Report(code string, _ source.Span, _ string) {
	r.codes = append(r.codes, code)
}

func TestLexReportsUnterminatedString(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte("\"abc\nconst"))
	rep := &capturingReporter{}
	toks := Tokenize(fs.Get(id), Options{Reporter: rep})
	if toks[0].Kind != token.Invalid {
		t.Fatalf("expected invalid token, got %v", toks[0].Kind)
	}
	if len(rep.codes) != 1 || rep.codes[0] != "L0002" {
		t.Fatalf("expected one L0002 report, got %v", rep.codes)
	}
	// lexing continues past the error
	if toks[1].Kind != token.KwConst {
		t.Fatalf("expected const after recovery, got %v", toks[1].Kind)
	}
}

func TestSpansCoverSource(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.zg", []byte("abc def"))
	toks := Tokenize(fs.Get(id), Options{})
	if toks[0].Span.Start != 0 || toks[0].Span.End != 3 {
		t.Fatalf("unexpected span for first token: %v", toks[0].Span)
	}
	if toks[1].Span.Start != 4 || toks[1].Span.End != 7 {
		t.Fatalf("unexpected span for second token: %v", toks[1].Span)
	}
}
