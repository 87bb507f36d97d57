package token

var keywords = map[string]Kind{
	"const":          KwConst,
	"var":            KwVar,
	"fn":             KwFn,
	"pub":            KwPub,
	"struct":         KwStruct,
	"enum":           KwEnum,
	"union":          KwUnion,
	"error":          KwError,
	"test":           KwTest,
	"if":             KwIf,
	"else":           KwElse,
	"while":          KwWhile,
	"for":            KwFor,
	"switch":         KwSwitch,
	"return":         KwReturn,
	"break":          KwBreak,
	"continue":       KwContinue,
	"defer":          KwDefer,
	"errdefer":       KwErrdefer,
	"try":            KwTry,
	"catch":          KwCatch,
	"orelse":         KwOrelse,
	"and":            KwAnd,
	"or":             KwOr,
	"usingnamespace": KwUsingnamespace,
	"undefined":      KwUndefined,
	"null":           KwNull,
	"true":           KwTrue,
	"false":          KwFalse,
	"anytype":        KwAnytype,
	"comptime":       KwComptime,
	"unreachable":    KwUnreachable,
}

// LookupKeyword returns the keyword kind for ident, if any. Keywords are
// case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
