package reporter_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/reporter"
)

func span() ast.Span {
	return ast.Span{LineStart: 3, LineStop: 3, ColStart: 5, ColStop: 9}
}

func TestErrorWithSpan(t *testing.T) {
	underlying := errors.New("boom")
	err := reporter.Error(span(), underlying)
	assert.Equal(t, span(), err.GetSpan())
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "3:5-9")
	assert.Contains(t, err.Error(), "boom")
}

func TestErrorf(t *testing.T) {
	err := reporter.Errorf(span(), "bad %s", "thing")
	assert.Contains(t, err.Error(), "bad thing")
}

func TestHandlerAbortsByDefault(t *testing.T) {
	h := reporter.NewHandler(nil)
	first := reporter.Errorf(span(), "first")
	require.Error(t, h.HandleError(first))
	assert.Equal(t, first, h.Err())
}

func TestHandlerContinuesWhenReporterSwallows(t *testing.T) {
	var seen []error
	h := reporter.NewHandler(reporter.NewReporter(func(err reporter.ErrorWithSpan) error {
		seen = append(seen, err)
		return nil
	}))
	require.NoError(t, h.HandleError(reporter.Errorf(span(), "one")))
	require.NoError(t, h.HandleError(reporter.Errorf(span(), "two")))
	assert.Len(t, seen, 2)
	assert.ErrorIs(t, h.Err(), reporter.ErrInvalidSchema)
}
