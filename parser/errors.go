package parser

import (
	"fmt"

	"github.com/protospec-dev/protospec/ast"
)

// ErrUnexpectedEOF is produced when the token stream ends inside a
// declaration.
type ErrUnexpectedEOF struct {
	Loc ast.Span
}

func (e *ErrUnexpectedEOF) Error() string { return "unexpected end of input" }

// ErrUnexpected is produced when a token does not match what the
// grammar requires at that point.
type ErrUnexpected struct {
	Got    Token
	Wanted string
	Loc    ast.Span
}

func (e *ErrUnexpected) Error() string {
	return fmt.Sprintf("unexpected token '%s', wanted %s", e.Got, e.Wanted)
}

// ErrEmptyLengthConstraint is produced for a bare `[]`.
type ErrEmptyLengthConstraint struct {
	Loc ast.Span
}

func (e *ErrEmptyLengthConstraint) Error() string { return "empty length constraint" }

// ErrEnumMissingRep is produced when an enum or bitfield omits its
// scalar representation.
type ErrEnumMissingRep struct {
	Loc ast.Span
}

func (e *ErrEnumMissingRep) Error() string {
	return "enum/bitfield missing scalar representation"
}

// ErrUnknownContainerDirective is produced for a `.name:` entry other
// than `.pad:`.
type ErrUnknownContainerDirective struct {
	Name string
	Loc  ast.Span
}

func (e *ErrUnknownContainerDirective) Error() string {
	return fmt.Sprintf("unknown container directive '.%s'", e.Name)
}
