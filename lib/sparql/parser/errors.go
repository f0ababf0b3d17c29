package parser

import (
	"fmt"

	"github.com/graphshape/graphshape/lib/token"
)

// SyntaxError describes a parsing failure with source position context.
type SyntaxError struct {
	Pos token.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return ""
	}
	if e.Pos.Line > 0 && e.Pos.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return e.Msg
}

// LexError describes malformed input detected at the lexical level, such as
// an unterminated string literal or a bad escape sequence.
type LexError struct {
	Pos token.Position
	Msg string
}

func (e *LexError) Error() string {
	if e == nil {
		return ""
	}
	if e.Pos.Line > 0 && e.Pos.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return e.Msg
}
