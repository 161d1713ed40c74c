package asg

import (
	"github.com/protospec-dev/protospec/internal/ordered"
)

// Scope is one lexical level of name resolution during lowering. Each
// container body and each argument list pushes a scope; reference
// search order is local fields, then inputs, then program consts.
type Scope struct {
	Parent  *Scope
	Program *Program

	DeclaredFields ordered.Map[*Field]
	DeclaredInputs ordered.Map[*Input]
}

func (s *Scope) push() *Scope {
	return &Scope{Parent: s, Program: s.Program}
}

// ResolveField searches the scope chain for a declared field.
func (s *Scope) ResolveField(name string) (*Field, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if f, ok := cur.DeclaredFields.Get(name); ok {
			return f, true
		}
	}
	return nil, false
}

// ResolveInput searches the scope chain for a bound formal argument.
func (s *Scope) ResolveInput(name string) (*Input, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if in, ok := cur.DeclaredInputs.Get(name); ok {
			return in, true
		}
	}
	return nil, false
}
