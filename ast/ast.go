// Package ast defines the syntactic tree produced by the parser. Nodes
// carry spans for diagnostics and nothing else; all resolution and
// typing happens during semantic analysis.
package ast

// Program is a parsed schema file.
type Program struct {
	Declarations []Declaration
}

// Declaration is one of TypeDeclaration, ImportDeclaration,
// FFIDeclaration, or ConstDeclaration.
type Declaration interface {
	Node
	declaration()
}

// TypeArgument is a formal argument of a top-level type.
type TypeArgument struct {
	Name         Ident
	Type         Type
	DefaultValue Expression
	Loc          Span
}

func (t *TypeArgument) Span() Span { return t.Loc }

// TypeDeclaration is `type Name(args) = field;`.
type TypeDeclaration struct {
	Name      Ident
	Arguments []TypeArgument
	Value     Field
	Loc       Span
}

func (t *TypeDeclaration) Span() Span    { return t.Loc }
func (*TypeDeclaration) declaration()    {}

// ImportItem is a single imported symbol, optionally aliased.
type ImportItem struct {
	Name  Ident
	Alias *Ident
	Loc   Span
}

func (i *ImportItem) Span() Span { return i.Loc }

// ImportDeclaration is `import a, b as c from "path";`.
type ImportDeclaration struct {
	Items []ImportItem
	From  Str
	Loc   Span
}

func (i *ImportDeclaration) Span() Span  { return i.Loc }
func (*ImportDeclaration) declaration()  {}

// FFIKind discriminates what an import_ffi declaration binds.
type FFIKind int

const (
	FFIType FFIKind = iota
	FFITransform
	FFIFunction
)

func (k FFIKind) String() string {
	switch k {
	case FFIType:
		return "type"
	case FFITransform:
		return "transform"
	case FFIFunction:
		return "function"
	}
	return "ffi"
}

// FFIDeclaration is `import_ffi name as type|transform|function;`.
type FFIDeclaration struct {
	Name Ident
	Kind FFIKind
	Loc  Span
}

func (f *FFIDeclaration) Span() Span   { return f.Loc }
func (*FFIDeclaration) declaration()   {}

// ConstDeclaration is `const name: type = expr;`.
type ConstDeclaration struct {
	Name  Ident
	Type  Type
	Value Expression
	Loc   Span
}

func (c *ConstDeclaration) Span() Span { return c.Loc }
func (*ConstDeclaration) declaration() {}

// LengthConstraint is the `[..]`, `[expr]`, or `[..expr]` suffix of a
// type. Expandable means read-to-end (no Inner) or terminator-matched
// (Inner is the terminator).
type LengthConstraint struct {
	Expandable bool
	Inner      Expression
	Loc        Span
}

func (l *LengthConstraint) Span() Span { return l.Loc }

// TypeCall is a reference to a named type with actual arguments.
type TypeCall struct {
	Name      Ident
	Arguments []Expression
	Loc       Span
}

func (t *TypeCall) Span() Span { return t.Loc }

// RawType is one of Container, EnumDef, BitfieldDef, ScalarRaw,
// ArrayRaw, F32Raw, F64Raw, BoolRaw, or TypeCall (via RefRaw).
type RawType interface {
	Node
	rawType()
}

// Type pairs a raw type with the span of its full written form.
type Type struct {
	Raw RawType
	Loc Span
}

func (t *Type) Span() Span { return t.Loc }

// Transform is a trailing `-> name(args){cond}` applied to a field.
type Transform struct {
	Name        Ident
	Arguments   []Expression
	Conditional Expression
	Loc         Span
}

func (t *Transform) Span() Span { return t.Loc }

// Field is a type use with flags, condition, transforms, and an
// optional calculated expression.
type Field struct {
	Type       Type
	Flags      []Ident
	Condition  Expression
	Transforms []Transform
	Calculated Expression
	Loc        Span
}

func (f *Field) Span() Span { return f.Loc }

// ContainerItem is a named child of a container or a directive entry.
type ContainerItem struct {
	Name  Ident
	Value Field
	IsPad bool
	Loc   Span
}

func (c *ContainerItem) Span() Span { return c.Loc }

// Container is `container [len] +flags { items }`.
type Container struct {
	Length Expression
	Flags  []Ident
	Items  []ContainerItem
	Loc    Span
}

func (c *Container) Span() Span { return c.Loc }
func (*Container) rawType()     {}

// ArrayRaw is an element field plus a length constraint.
type ArrayRaw struct {
	Element *Field
	Length  LengthConstraint
	Loc     Span
}

func (a *ArrayRaw) Span() Span { return a.Loc }
func (*ArrayRaw) rawType()     {}

// EnumDef is `enum scalar { name [= expr], ... }`. A variant named
// "default" marks the catch-all arm.
type EnumDef struct {
	Rep   ScalarType
	Items []EnumItem
	Loc   Span
}

type EnumItem struct {
	Name  Ident
	Value Expression
}

func (e *EnumDef) Span() Span { return e.Loc }
func (*EnumDef) rawType()     {}

// BitfieldDef is `bitfield scalar { name [= expr], ... }`.
type BitfieldDef struct {
	Rep   ScalarType
	Items []EnumItem
	Loc   Span
}

func (b *BitfieldDef) Span() Span { return b.Loc }
func (*BitfieldDef) rawType()     {}

// ScalarRaw is a bare scalar keyword.
type ScalarRaw struct {
	Scalar ScalarType
	Loc    Span
}

func (s *ScalarRaw) Span() Span { return s.Loc }
func (*ScalarRaw) rawType()     {}

type F32Raw struct{ Loc Span }

func (f *F32Raw) Span() Span { return f.Loc }
func (*F32Raw) rawType()     {}

type F64Raw struct{ Loc Span }

func (f *F64Raw) Span() Span { return f.Loc }
func (*F64Raw) rawType()     {}

type BoolRaw struct{ Loc Span }

func (b *BoolRaw) Span() Span { return b.Loc }
func (*BoolRaw) rawType()     {}

// RefRaw is a named type use with optional arguments.
type RefRaw struct {
	Call TypeCall
	Loc  Span
}

func (r *RefRaw) Span() Span { return r.Loc }
func (*RefRaw) rawType()     {}
