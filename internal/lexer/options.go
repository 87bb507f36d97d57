package lexer

import (
	"zsem/internal/source"
)

// Reporter is a thin interface so the lexer does not depend on diag.
// The lexer only calls it; formatting happens in the outer layer.
type Reporter interface {
	Report(code string, span source.Span, msg string)
}

type Options struct {
	Reporter Reporter // nil means errors are dropped but lexing continues
}

func (lx *Lexer) report(code string, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, sp, msg)
	}
}
