package asg

import (
	"fmt"

	"github.com/protospec-dev/protospec/ast"
)

// PartialScalarKind distinguishes how constrained a scalar expectation
// is during inference.
type PartialScalarKind int

const (
	// PartialScalarSome expects the given width and accepts any scalar
	// assignable to it.
	PartialScalarSome PartialScalarKind = iota
	// PartialScalarDefaults accepts what PartialScalarSome accepts; it
	// differs only in printing with a trailing "?".
	PartialScalarDefaults
	// PartialScalarNone accepts any scalar.
	PartialScalarNone
)

// PartialType is the expectation threaded through expression lowering:
// a concrete type, a (possibly unconstrained) scalar, an array with a
// partially known element, or anything.
type PartialType struct {
	kind       partialKind
	typ        Type
	scalarKind PartialScalarKind
	scalar     ast.ScalarType
	element    *PartialType
}

type partialKind int

const (
	partialType partialKind = iota
	partialScalar
	partialArray
	partialAny
)

// PartialOf wraps a concrete type.
func PartialOf(t Type) PartialType {
	switch r := t.(type) {
	case *RefType:
		return PartialOf(r.Target.Type)
	case *ScalarValue:
		return PartialScalar(PartialScalarSome, r.Scalar.Scalar)
	case *ArrayType:
		element := PartialOf(r.Element.Type)
		return PartialType{kind: partialArray, element: &element}
	default:
		return PartialType{kind: partialType, typ: t}
	}
}

// PartialScalar builds a scalar expectation.
func PartialScalar(kind PartialScalarKind, scalar ast.ScalarType) PartialType {
	return PartialType{kind: partialScalar, scalarKind: kind, scalar: scalar}
}

// PartialAnyScalar accepts any scalar width.
func PartialAnyScalar() PartialType {
	return PartialType{kind: partialScalar, scalarKind: PartialScalarNone}
}

// PartialAny accepts anything.
func PartialAny() PartialType {
	return PartialType{kind: partialAny}
}

// PartialArray expects an array whose element matches the inner
// expectation (nil inner = any element).
func PartialArray(element *PartialType) PartialType {
	return PartialType{kind: partialArray, element: element}
}

// AssignableFrom reports whether a value of concrete type t satisfies
// the expectation.
func (p PartialType) AssignableFrom(t Type) bool {
	resolved := Resolved(t)
	if f, ok := resolved.(*ForeignType); ok {
		return foreignAssignableToPartial(f.Obj, p)
	}
	switch p.kind {
	case partialType:
		return Assignable(p.typ, t)
	case partialScalar:
		if p.scalarKind == PartialScalarNone {
			_, ok := resolved.(*ScalarValue)
			return ok
		}
		return Assignable(NewScalar(p.scalar), t)
	case partialArray:
		arr, ok := resolved.(*ArrayType)
		if !ok {
			return false
		}
		if p.element == nil {
			return true
		}
		return p.element.AssignableFrom(arr.Element.Type)
	case partialAny:
		return true
	}
	return false
}

// CoercableFrom reports whether a value of type t can be implicitly
// cast to satisfy the expectation.
func (p PartialType) CoercableFrom(t Type) bool {
	resolved := Resolved(t)
	switch p.kind {
	case partialScalar:
		if p.scalarKind == PartialScalarNone {
			return false
		}
		if e, ok := resolved.(*EnumType); ok {
			return e.Rep.CanImplicitCastTo(p.scalar)
		}
		return CanCoerce(t, NewScalar(p.scalar))
	case partialType:
		return CanCoerce(t, p.typ)
	}
	return false
}

// IntoType returns the concrete type of the expectation, when it has
// one.
func (p PartialType) IntoType() (Type, bool) {
	switch p.kind {
	case partialType:
		return p.typ, true
	case partialScalar:
		if p.scalarKind == PartialScalarNone {
			return nil, false
		}
		return NewScalar(p.scalar), true
	}
	return nil, false
}

// ScalarWidth returns the expected scalar width when one is known.
func (p PartialType) ScalarWidth() (ast.ScalarType, bool) {
	if p.kind == partialScalar && p.scalarKind != PartialScalarNone {
		return p.scalar, true
	}
	if p.kind == partialType {
		if s, ok := Resolved(p.typ).(*ScalarValue); ok {
			return s.Scalar.Scalar, true
		}
	}
	return 0, false
}

// IsAny reports an unconstrained expectation.
func (p PartialType) IsAny() bool { return p.kind == partialAny }

// IsAnyScalar reports a scalar expectation with no fixed width.
func (p PartialType) IsAnyScalar() bool {
	return p.kind == partialScalar && p.scalarKind == PartialScalarNone
}

// IsBool reports an expectation of exactly bool.
func (p PartialType) IsBool() bool {
	if p.kind != partialType {
		return false
	}
	_, ok := p.typ.(*BoolType)
	return ok
}

// ElementPartial returns the element expectation for array
// expectations.
func (p PartialType) ElementPartial() (PartialType, bool) {
	if p.kind != partialArray || p.element == nil {
		return PartialType{}, false
	}
	return *p.element, true
}

func (p PartialType) String() string {
	switch p.kind {
	case partialType:
		return p.typ.String()
	case partialScalar:
		switch p.scalarKind {
		case PartialScalarSome:
			return p.scalar.String()
		case PartialScalarDefaults:
			return p.scalar.String() + "?"
		default:
			return "integer"
		}
	case partialArray:
		if p.element == nil {
			return "array"
		}
		return fmt.Sprintf("%s[]", p.element)
	default:
		return "any"
	}
}

// foreignAssignableToPartial mirrors the foreign object's typing hooks
// over partial expectations.
func foreignAssignableToPartial(obj ForeignTypeObj, p PartialType) bool {
	switch p.kind {
	case partialType:
		return obj.AssignableToType(p.typ)
	case partialAny:
		return true
	case partialScalar:
		if p.scalarKind == PartialScalarNone {
			return true
		}
		return obj.AssignableToType(NewScalar(p.scalar))
	}
	return false
}
