package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// Builtin represents an @-prefixed builtin call name, '@' included.
	Builtin

	// IntLit represents an integer literal.
	IntLit
	// FloatLit represents a floating-point literal.
	FloatLit
	// StringLit represents a string literal.
	StringLit
	// CharLit represents a character literal.
	CharLit

	// KwConst represents the 'const' keyword.
	KwConst
	// KwVar represents the 'var' keyword.
	KwVar
	// KwFn represents the 'fn' keyword.
	KwFn
	// KwPub represents the 'pub' keyword.
	KwPub
	// KwStruct represents the 'struct' keyword.
	KwStruct
	// KwEnum represents the 'enum' keyword.
	KwEnum
	// KwUnion represents the 'union' keyword.
	KwUnion
	// KwError represents the 'error' keyword.
	KwError
	// KwTest represents the 'test' keyword.
	KwTest
	// KwIf represents the 'if' keyword.
	KwIf
	// KwElse represents the 'else' keyword.
	KwElse
	// KwWhile represents the 'while' keyword.
	KwWhile
	// KwFor represents the 'for' keyword.
	KwFor
	// KwSwitch represents the 'switch' keyword.
	KwSwitch
	// KwReturn represents the 'return' keyword.
	KwReturn
	// KwBreak represents the 'break' keyword.
	KwBreak
	// KwContinue represents the 'continue' keyword.
	KwContinue
	// KwDefer represents the 'defer' keyword.
	KwDefer
	// KwErrdefer represents the 'errdefer' keyword.
	KwErrdefer
	// KwTry represents the 'try' keyword.
	KwTry
	// KwCatch represents the 'catch' keyword.
	KwCatch
	// KwOrelse represents the 'orelse' keyword.
	KwOrelse
	// KwAnd represents the 'and' keyword.
	KwAnd
	// KwOr represents the 'or' keyword.
	KwOr
	// KwUsingnamespace represents the 'usingnamespace' keyword.
	KwUsingnamespace
	// KwUndefined represents the 'undefined' keyword.
	KwUndefined
	// KwNull represents the 'null' keyword.
	KwNull
	// KwTrue represents the 'true' keyword.
	KwTrue
	// KwFalse represents the 'false' keyword.
	KwFalse
	// KwAnytype represents the 'anytype' keyword.
	KwAnytype
	// KwComptime represents the 'comptime' keyword.
	KwComptime
	// KwUnreachable represents the 'unreachable' keyword.
	KwUnreachable

	// LParen '('
	LParen
	// RParen ')'
	RParen
	// LBrace '{'
	LBrace
	// RBrace '}'
	RBrace
	// LBracket '['
	LBracket
	// RBracket ']'
	RBracket
	// Comma ','
	Comma
	// Semicolon ';'
	Semicolon
	// Colon ':'
	Colon
	// Assign '='
	Assign
	// FatArrow '=>'
	FatArrow
	// Dot '.'
	Dot
	// DotStar '.*'
	DotStar
	// DotQuestion '.?'
	DotQuestion
	// Ellipsis2 '..'
	Ellipsis2
	// Ellipsis3 '...'
	Ellipsis3
	// Question '?'
	Question
	// Bang '!'
	Bang
	// Amp '&'
	Amp
	// Pipe '|'
	Pipe
	// Star '*'
	Star
	// Plus '+'
	Plus
	// Minus '-'
	Minus
	// Slash '/'
	Slash
	// Percent '%'
	Percent
	// EqEq '=='
	EqEq
	// BangEq '!='
	BangEq
	// Lt '<'
	Lt
	// Gt '>'
	Gt
	// LtEq '<='
	LtEq
	// GtEq '>='
	GtEq
)

var kindNames = map[Kind]string{
	Invalid:          "invalid",
	EOF:              "eof",
	Ident:            "ident",
	Builtin:          "builtin",
	IntLit:           "int",
	FloatLit:         "float",
	StringLit:        "string",
	CharLit:          "char",
	KwConst:          "const",
	KwVar:            "var",
	KwFn:             "fn",
	KwPub:            "pub",
	KwStruct:         "struct",
	KwEnum:           "enum",
	KwUnion:          "union",
	KwError:          "error",
	KwTest:           "test",
	KwIf:             "if",
	KwElse:           "else",
	KwWhile:          "while",
	KwFor:            "for",
	KwSwitch:         "switch",
	KwReturn:         "return",
	KwBreak:          "break",
	KwContinue:       "continue",
	KwDefer:          "defer",
	KwErrdefer:       "errdefer",
	KwTry:            "try",
	KwCatch:          "catch",
	KwOrelse:         "orelse",
	KwAnd:            "and",
	KwOr:             "or",
	KwUsingnamespace: "usingnamespace",
	KwUndefined:      "undefined",
	KwNull:           "null",
	KwTrue:           "true",
	KwFalse:          "false",
	KwAnytype:        "anytype",
	KwComptime:       "comptime",
	KwUnreachable:    "unreachable",
	LParen:           "(",
	RParen:           ")",
	LBrace:           "{",
	RBrace:           "}",
	LBracket:         "[",
	RBracket:         "]",
	Comma:            ",",
	Semicolon:        ";",
	Colon:            ":",
	Assign:           "=",
	FatArrow:         "=>",
	Dot:              ".",
	DotStar:          ".*",
	DotQuestion:      ".?",
	Ellipsis2:        "..",
	Ellipsis3:        "...",
	Question:         "?",
	Bang:             "!",
	Amp:              "&",
	Pipe:             "|",
	Star:             "*",
	Plus:             "+",
	Minus:            "-",
	Slash:            "/",
	Percent:          "%",
	EqEq:             "==",
	BangEq:           "!=",
	Lt:               "<",
	Gt:               ">",
	LtEq:             "<=",
	GtEq:             ">=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}
