package boxdsl

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind classifies a diagnostic produced by the parser or validator.
type ErrorKind string

const (
	// KindSyntax covers malformed grammar and invalid enum-like values.
	KindSyntax ErrorKind = "syntax"
	// KindReference covers unresolved paths, unresolved anchors and duplicate IDs.
	KindReference ErrorKind = "reference"
	// KindConstraint covers numeric range violations.
	KindConstraint ErrorKind = "constraint"
)

// Error is a single recoverable diagnostic. Parser and validator collect
// these instead of stopping at the first problem.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     Position
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

// Errors is a list of diagnostics that can be returned as a single error.
type Errors []*Error

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no errors"
	case 1:
		return es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n  %s", len(es), strings.Join(msgs, "\n  "))
}

// OfKind returns the diagnostics with the given kind, preserving order.
func (es Errors) OfKind(kind ErrorKind) Errors {
	var out Errors
	for _, e := range es {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// LexError is the fatal tokenizer error (invalid character, unterminated
// string). Tokenization does not recover from it.
type LexError struct {
	Message string
	Pos     Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// AsError converts the lexer failure into a syntax diagnostic so callers can
// report it alongside parser output.
func (e *LexError) AsError() *Error {
	return &Error{Kind: KindSyntax, Message: e.Message, Pos: e.Pos}
}

func syntaxErr(pos Position, format string, args ...any) *Error {
	return &Error{Kind: KindSyntax, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func referenceErr(pos Position, format string, args ...any) *Error {
	return &Error{Kind: KindReference, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func constraintErr(pos Position, format string, args ...any) *Error {
	return &Error{Kind: KindConstraint, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func quote(s string) string {
	return strconv.Quote(s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
