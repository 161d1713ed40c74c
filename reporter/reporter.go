// Package reporter contains the types used for reporting errors from
// protospec operations: span-carrying error values and the handler
// interface the pipeline reports through.
package reporter

// ErrorReporter is responsible for reporting the given error. If it
// returns a non-nil error the pipeline aborts with that error; if it
// returns nil the pipeline continues and reports further errors as it
// finds them.
type ErrorReporter func(err ErrorWithSpan) error

// Reporter handles errors found while compiling a schema.
type Reporter interface {
	// Error is called for each error encountered. A non-nil return
	// aborts the operation immediately with that error. If every call
	// returns nil, the operation eventually fails with
	// ErrInvalidSchema.
	Error(ErrorWithSpan) error
}

// NewReporter creates a Reporter that invokes errs on each error. A nil
// errs aborts on the first error, which matches the compile-time
// propagation rule: no partial-success artifact is produced.
func NewReporter(errs ErrorReporter) Reporter {
	return reporterFuncs{errs: errs}
}

type reporterFuncs struct {
	errs ErrorReporter
}

func (r reporterFuncs) Error(err ErrorWithSpan) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

// Handler tracks whether any error was reported through a Reporter.
type Handler struct {
	reporter     Reporter
	errsReported bool
	err          error
}

// NewHandler wraps rep; a nil rep aborts on first error.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil)
	}
	return &Handler{reporter: rep}
}

// HandleError reports err. The returned error is nil if the pipeline
// should keep going.
func (h *Handler) HandleError(err ErrorWithSpan) error {
	if h.err != nil {
		return h.err
	}
	h.errsReported = true
	if abort := h.reporter.Error(err); abort != nil {
		h.err = abort
		return abort
	}
	return nil
}

// Err returns the error the pipeline should surface: the aborting error
// if any, ErrInvalidSchema if errors were reported but swallowed, and
// nil otherwise.
func (h *Handler) Err() error {
	if h.err != nil {
		return h.err
	}
	if h.errsReported {
		return ErrInvalidSchema
	}
	return nil
}
