package ast

import "fmt"

// Span identifies a region of schema source by line and column. Lines
// and columns are 1-based. Spans exist only for diagnostics; semantic
// comparisons of nodes must go through SpansEqual, which reports every
// pair of spans as equal.
type Span struct {
	LineStart uint64
	LineStop  uint64
	ColStart  uint64
	ColStop   uint64
}

func (s Span) String() string {
	if s.LineStart == s.LineStop {
		return fmt.Sprintf("%d:%d-%d", s.LineStart, s.ColStart, s.ColStop)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.LineStart, s.ColStart, s.LineStop, s.ColStop)
}

// Add merges two spans into the smallest span covering both.
func (s Span) Add(other Span) Span {
	// order the pair so that s starts first and other ends last
	if other.LineStart < s.LineStart || (other.LineStart == s.LineStart && other.ColStart < s.ColStart) {
		s, other = other, s
	}
	if other.LineStop < s.LineStop || (other.LineStop == s.LineStop && other.ColStop < s.ColStop) {
		other.LineStop, other.ColStop = s.LineStop, s.ColStop
	}
	if s.LineStart == other.LineStop {
		return Span{
			LineStart: s.LineStart,
			LineStop:  s.LineStop,
			ColStart:  min(s.ColStart, other.ColStart),
			ColStop:   max(s.ColStop, other.ColStop),
		}
	}
	if s.LineStart <= other.LineStart {
		return Span{
			LineStart: s.LineStart,
			LineStop:  other.LineStop,
			ColStart:  s.ColStart,
			ColStop:   other.ColStop,
		}
	}
	return Span{
		LineStart: other.LineStart,
		LineStop:  s.LineStop,
		ColStart:  other.ColStart,
		ColStop:   s.ColStop,
	}
}

// SpansEqual is the comparison semantic nodes must use for spans:
// location never participates in structural equality.
func SpansEqual(Span, Span) bool { return true }

// Node is implemented by every syntactic element.
type Node interface {
	Span() Span
}
