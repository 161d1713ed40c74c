package reporter

import (
	"errors"
	"fmt"

	"github.com/protospec-dev/protospec/ast"
)

// ErrInvalidSchema is a sentinel error returned when compilation fails
// but the configured ErrorReporter swallowed every reported error.
var ErrInvalidSchema = errors.New("compile failed: invalid schema source")

// ErrorWithSpan is an error about schema source that carries the span
// of the offending region.
//
// Error() renders both the span and the underlying message; Unwrap()
// yields only the underlying error.
type ErrorWithSpan interface {
	error
	GetSpan() ast.Span
	Unwrap() error
}

// Error wraps err with a source span.
func Error(span ast.Span, err error) ErrorWithSpan {
	return errorWithSpan{span: span, underlying: err}
}

// Errorf formats an error message attached to a source span.
func Errorf(span ast.Span, format string, args ...any) ErrorWithSpan {
	return errorWithSpan{span: span, underlying: fmt.Errorf(format, args...)}
}

type errorWithSpan struct {
	underlying error
	span       ast.Span
}

func (e errorWithSpan) Error() string {
	return fmt.Sprintf("%s: %v", e.span, e.underlying)
}

func (e errorWithSpan) GetSpan() ast.Span { return e.span }

func (e errorWithSpan) Unwrap() error { return e.underlying }

var _ ErrorWithSpan = errorWithSpan{}
