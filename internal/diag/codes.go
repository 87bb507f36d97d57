package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical.
	LexBadNumber          Code = 1001
	LexUnterminatedString Code = 1002
	LexBadBuiltin         Code = 1003
	LexUnknownChar        Code = 1004

	// Syntactic.
	SynUnexpectedToken  Code = 2001
	SynExpectSemicolon  Code = 2002
	SynUnclosedParen    Code = 2003
	SynUnclosedBrace    Code = 2004
	SynUnclosedBracket  Code = 2005
	SynExpectIdent      Code = 2006
	SynExpectExpression Code = 2007
	SynBadContainer     Code = 2008
	SynBadCapture       Code = 2009
)

// String formats a code as a stable Zxxxx identifier.
func (c Code) String() string {
	return fmt.Sprintf("Z%04d", uint16(c))
}
