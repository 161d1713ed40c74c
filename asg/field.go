package asg

import (
	"fmt"
	"strings"

	"github.com/protospec-dev/protospec/ast"
)

// TypeArgument is a formal argument of a top-level field or foreign
// type. Optional (defaulted) arguments must form a suffix of the list.
type TypeArgument struct {
	Name           string
	Type           Type
	DefaultValue   Expression
	CanResolveAuto bool
}

// TypeTransform is one applied transform: a transform reference with
// an optional condition and actual arguments. Encode applies
// transforms in declared order (outside-in); decode in reverse.
type TypeTransform struct {
	Transform *Transform
	Condition Expression
	Arguments []Expression
}

// Field is the unit of the semantic graph: every named type
// declaration and every container child is a Field. Fields are shared
// by pointer from Ref targets and container items; the placeholder
// Bool type installed at allocation time is replaced once the body is
// lowered.
type Field struct {
	Name       string
	Arguments  []TypeArgument
	Span       ast.Span
	Type       Type
	Condition  Expression
	Transforms []TypeTransform
	Calculated Expression
	Toplevel   bool

	IsAuto          bool
	IsPad           bool
	IsMaybeCyclical bool
}

func (f *Field) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", f.Name, f.Type)
	if f.Condition != nil {
		sb.WriteString(" { ... }")
	}
	for _, t := range f.Transforms {
		fmt.Fprintf(&sb, " -> %s", t.Transform.Name)
	}
	return sb.String()
}

// GetType implements expression typing for field references.
func (f *Field) GetType() Type { return f.Type }

// Copyable reports whether values of the field's resolved type are
// cheap value types in generated code (no indirection needed for
// conditional handling).
func (f *Field) Copyable() bool {
	return TypeCopyable(f.Type)
}

// TypeCopyable reports whether t lowers to a Go value type that can be
// copied freely.
func TypeCopyable(t Type) bool {
	switch Resolved(t).(type) {
	case *ScalarValue, *F32Type, *F64Type, *BoolType, *EnumType, *BitfieldType:
		return true
	}
	return false
}

// Const is a named constant: a type and a folded-at-generation-time
// expression. Enum and bitfield variants are Consts too.
type Const struct {
	Name  string
	Span  ast.Span
	Type  Type
	Value Expression
}

// GetType implements expression typing for const references.
func (c *Const) GetType() Type { return c.Type }

// Input is a formal argument bound inside a field body.
type Input struct {
	Name string
	Type Type
}

// GetType implements expression typing for input references.
func (i *Input) GetType() Type { return i.Type }

// Transform is a registered foreign transform.
type Transform struct {
	Name      string
	Span      ast.Span
	Inner     ForeignTransformObj
	Arguments []FFIArgument
}

// Function is a registered foreign function.
type Function struct {
	Name      string
	Span      ast.Span
	Inner     ForeignFunctionObj
	Arguments []FFIArgument
}
