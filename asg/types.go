package asg

import (
	"fmt"
	"strings"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/internal/ordered"
)

// Type is the semantic type sum: Container, Enum, Bitfield, Scalar,
// Array, Foreign, F32, F64, Bool, Ref. Types form a possibly cyclic
// graph through Ref.
type Type interface {
	typeNode()
	String() string
}

// ContainerType is an ordered, named collection of fields, optionally
// length-bounded, optionally a tagged enum.
type ContainerType struct {
	Length Expression
	Items  ordered.Map[*Field]
	IsEnum bool
}

func (*ContainerType) typeNode() {}

func (c *ContainerType) String() string {
	var sb strings.Builder
	sb.WriteString("container ")
	if c.Length != nil {
		sb.WriteString("[...] ")
	}
	sb.WriteString("{ ")
	c.Items.Range(func(name string, field *Field) bool {
		fmt.Fprintf(&sb, "%s: %s, ", name, field.Type)
		return true
	})
	sb.WriteString("}")
	return sb.String()
}

// FlattenView yields the leaf fields of the container, descending
// through nested inline containers, in declaration order.
func (c *ContainerType) FlattenView() []FlatField {
	var out []FlatField
	c.Items.Range(func(name string, field *Field) bool {
		if inner, ok := field.Type.(*ContainerType); ok {
			out = append(out, inner.FlattenView()...)
		} else {
			out = append(out, FlatField{Name: name, Field: field})
		}
		return true
	})
	return out
}

// FlatField is one entry of a flattened container view.
type FlatField struct {
	Name  string
	Field *Field
}

// EnumType is a scalar representation plus an ordered variant map. A
// variant named "default" matches any non-registered discriminant on
// decode.
type EnumType struct {
	Name string
	Rep  ast.ScalarType
	Items ordered.Map[*Const]
}

func (*EnumType) typeNode() {}

func (e *EnumType) String() string {
	return fmt.Sprintf("enum %s", e.Rep)
}

// HasDefault reports whether a default arm is declared.
func (e *EnumType) HasDefault() bool {
	_, ok := e.Items.Get("default")
	return ok
}

// BitfieldType is a scalar representation plus an ordered flag map;
// members are read via dotted access yielding bool.
type BitfieldType struct {
	Name string
	Rep  ast.ScalarType
	Items ordered.Map[*Const]
}

func (*BitfieldType) typeNode() {}

func (b *BitfieldType) String() string {
	return fmt.Sprintf("bitfield %s", b.Rep)
}

// ScalarValue is a fixed-width integer type with a byte order.
type ScalarValue struct {
	Scalar ast.EndianScalar
}

func (*ScalarValue) typeNode() {}

func (s *ScalarValue) String() string { return s.Scalar.String() }

// NewScalar builds a big-endian scalar type.
func NewScalar(s ast.ScalarType) *ScalarValue {
	return &ScalarValue{Scalar: ast.BigScalar(s)}
}

// LengthConstraint bounds an array: a concrete expression, or
// expandable (read-to-end when Value is nil, matched-to-terminator
// when Value is set).
type LengthConstraint struct {
	Expandable bool
	Value      Expression
}

// ArrayType is an element field plus a length constraint.
type ArrayType struct {
	Element *Field
	Length  LengthConstraint
}

func (*ArrayType) typeNode() {}

func (a *ArrayType) String() string {
	return fmt.Sprintf("%s[]", a.Element.Type)
}

// ForeignType is a named externally supplied code generator.
type ForeignType struct {
	Name string
	Span ast.Span
	Obj  ForeignTypeObj
}

func (*ForeignType) typeNode() {}

func (f *ForeignType) String() string { return f.Name }

type F32Type struct{}

func (*F32Type) typeNode()        {}
func (*F32Type) String() string   { return "f32" }

type F64Type struct{}

func (*F64Type) typeNode()        {}
func (*F64Type) String() string   { return "f64" }

type BoolType struct{}

func (*BoolType) typeNode()       {}
func (*BoolType) String() string  { return "bool" }

// RefType is a pointer to a named top-level field with actual
// arguments.
type RefType struct {
	Target    *Field
	Arguments []Expression
}

func (*RefType) typeNode() {}

func (r *RefType) String() string { return r.Target.Name }

var (
	// Bool is the shared bool type instance.
	Bool = &BoolType{}
	// F32 and F64 are the shared float type instances.
	F32 = &F32Type{}
	F64 = &F64Type{}
)

// Resolved follows Ref links to the underlying type.
func Resolved(t Type) Type {
	for {
		ref, ok := t.(*RefType)
		if !ok {
			return t
		}
		t = ref.Target.Type
	}
}

// Assignable reports whether a value of from may be stored where a
// value of to is required, without an explicit cast.
func Assignable(to, from Type) bool {
	to = Resolved(to)
	from = Resolved(from)
	if f, ok := from.(*ForeignType); ok {
		return f.Obj.AssignableToType(to)
	}
	if t, ok := to.(*ForeignType); ok {
		return t.Obj.AssignableFromType(from)
	}
	switch t := to.(type) {
	case *ContainerType:
		f, ok := from.(*ContainerType)
		return ok && t == f
	case *EnumType:
		switch f := from.(type) {
		case *EnumType:
			return t == f
		case *ScalarValue:
			return f.Scalar.Scalar.CanImplicitCastTo(t.Rep)
		}
	case *BitfieldType:
		switch f := from.(type) {
		case *BitfieldType:
			return t == f
		case *ScalarValue:
			return f.Scalar.Scalar.CanImplicitCastTo(t.Rep)
		}
	case *ScalarValue:
		switch f := from.(type) {
		case *ScalarValue:
			return f.Scalar.Scalar.CanImplicitCastTo(t.Scalar.Scalar)
		case *EnumType:
			return f.Rep.CanImplicitCastTo(t.Scalar.Scalar)
		case *BitfieldType:
			return f.Rep.CanImplicitCastTo(t.Scalar.Scalar)
		}
	case *ArrayType:
		f, ok := from.(*ArrayType)
		if !ok {
			return false
		}
		if t == f {
			return true
		}
		// arrays are compatible when the source element type is
		// assignable to the target element type; length constraints are
		// not compared
		return Assignable(t.Element.Type, f.Element.Type)
	case *F32Type:
		_, ok := from.(*F32Type)
		return ok
	case *F64Type:
		switch from.(type) {
		case *F64Type, *F32Type:
			return true
		}
	case *BoolType:
		_, ok := from.(*BoolType)
		return ok
	}
	return false
}

// CanCast reports whether an explicit `:>` cast from one type to
// another is legal: assignability, any scalar/float pair, or an
// enum/bitfield with its representation scalar.
func CanCast(from, to Type) bool {
	if Assignable(to, from) {
		return true
	}
	from = Resolved(from)
	to = Resolved(to)
	switch f := from.(type) {
	case *ScalarValue, *F32Type, *F64Type:
		switch to.(type) {
		case *ScalarValue, *F32Type, *F64Type:
			return true
		}
	case *EnumType:
		if s, ok := to.(*ScalarValue); ok {
			return s.Scalar.Scalar == f.Rep
		}
	case *BitfieldType:
		if s, ok := to.(*ScalarValue); ok {
			return s.Scalar.Scalar == f.Rep
		}
	}
	if e, ok := to.(*EnumType); ok {
		if s, okf := from.(*ScalarValue); okf {
			return s.Scalar.Scalar == e.Rep
		}
	}
	if b, ok := to.(*BitfieldType); ok {
		if s, okf := from.(*ScalarValue); okf {
			return s.Scalar.Scalar == b.Rep
		}
	}
	return false
}

// CanCoerce reports whether an implicit conversion (an inserted cast)
// from one type to another is permitted during inference.
func CanCoerce(from, to Type) bool {
	if Assignable(to, from) {
		return true
	}
	from = Resolved(from)
	to = Resolved(to)
	if e, ok := from.(*EnumType); ok {
		if s, ok := to.(*ScalarValue); ok {
			return e.Rep.CanImplicitCastTo(s.Scalar.Scalar)
		}
	}
	return false
}

// ScalarOf extracts the scalar kind when t resolves to a scalar.
func ScalarOf(t Type) (ast.EndianScalar, bool) {
	if s, ok := Resolved(t).(*ScalarValue); ok {
		return s.Scalar, true
	}
	return ast.EndianScalar{}, false
}
