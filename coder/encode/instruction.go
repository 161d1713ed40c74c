package encode

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/coder"
)

// Instruction is one step of the encode stream.
type Instruction interface {
	encodeInstruction()
}

// Eval computes an expression into a register.
type Eval struct {
	Target coder.Register
	Expr   asg.Expression
}

// GetField projects a value through an access path into a register.
type GetField struct {
	Target coder.Register
	Source coder.Register
	Ops    []coder.FieldRefOp
}

// AllocBuf allocates a fixed-size in-memory buffer.
type AllocBuf struct {
	Buf coder.Register
	Len coder.Register
}

// AllocDynBuf allocates a growable in-memory buffer (auto-field
// placeholders).
type AllocDynBuf struct {
	Buf coder.Register
}

// WrapStream wraps the target in a transform's encode direction.
type WrapStream struct {
	Stream    coder.Target
	NewStream coder.Register
	Transform *asg.Transform
	Arguments []coder.Register
}

// ConditionalWrapStream wraps only when the condition holds; both the
// wrapped stream and its owned backing storage are carried so both can
// be released.
type ConditionalWrapStream struct {
	Condition      coder.Register
	Prelude        []Instruction
	Stream         coder.Target
	NewStream      coder.Register
	OwnedNewStream coder.Register
	Transform      *asg.Transform
	Arguments      []coder.Register
}

// EndStream flushes and releases a wrapped stream.
type EndStream struct {
	Stream coder.Register
}

// EmitBuf writes a buffer's bytes to the target.
type EmitBuf struct {
	Target coder.Target
	Buf    coder.Register
}

// EncodeForeign writes a foreign-typed value.
type EncodeForeign struct {
	Target    coder.Target
	Source    coder.Register
	Type      *asg.ForeignType
	Arguments []coder.Register
}

// EncodeRef calls another top-level type's encoder.
type EncodeRef struct {
	Target    coder.Target
	Source    coder.Register
	Name      string
	Arguments []coder.Register
}

// EncodeEnum writes an enum through its representation scalar.
type EncodeEnum struct {
	Type   coder.PrimitiveType
	Target coder.Target
	Source coder.Register
}

// EncodeBitfield writes a bitfield through its representation scalar.
type EncodeBitfield struct {
	Type   coder.PrimitiveType
	Target coder.Target
	Source coder.Register
}

// EncodePrimitive writes one primitive value.
type EncodePrimitive struct {
	Target coder.Target
	Source coder.Register
	Type   coder.PrimitiveType
}

// EncodePrimitiveArray writes a contiguous fixed-width array; a
// non-nil Len asserts the element count.
type EncodePrimitiveArray struct {
	Target coder.Target
	Source coder.Register
	Type   coder.PrimitiveType
	Len    *coder.Register
}

// Pad writes Len zero bytes.
type Pad struct {
	Target coder.Target
	Len    coder.Register
}

// Loop runs the body once per index from zero to the stop register.
type Loop struct {
	Iter coder.Register
	Stop coder.Register
	Body []Instruction
}

// GetLen reads the length of a buffer or collection, optionally cast
// to a scalar width (auto-field resolution).
type GetLen struct {
	Target coder.Register
	Source coder.Register
	Cast   *ast.ScalarType
}

// Drop releases a register's owned resource.
type Drop struct {
	Register coder.Register
}

// NullCheck extracts the present value of a conditional field, failing
// the encode when the source is absent.
type NullCheck struct {
	Source   coder.Register
	Target   coder.Register
	Copyable bool
	Message  string
}

// Conditional runs Then when the condition holds, Else otherwise.
type Conditional struct {
	Condition coder.Register
	Then      []Instruction
	Else      []Instruction
}

// UnwrapEnum extracts the raw payload of a tagged-enum arm, failing
// when the value holds a different discriminant.
type UnwrapEnum struct {
	Name         string
	Discriminant string
	Source       coder.Register
	Target       coder.Register
	Message      string
}

// UnwrapEnumStruct extracts the named members of a struct-valued
// tagged-enum arm.
type UnwrapEnumStruct struct {
	Name         string
	Discriminant string
	Source       coder.Register
	Targets      []UnwrapItem
	Message      string
}

// UnwrapItem is one extracted member.
type UnwrapItem struct {
	Name     string
	Register coder.Register
}

// BreakBlock is a block that Break exits (tagged-enum dispatch).
type BreakBlock struct {
	Body []Instruction
}

// Break exits the innermost BreakBlock.
type Break struct{}

func (Eval) encodeInstruction()                  {}
func (GetField) encodeInstruction()              {}
func (AllocBuf) encodeInstruction()              {}
func (AllocDynBuf) encodeInstruction()           {}
func (WrapStream) encodeInstruction()            {}
func (ConditionalWrapStream) encodeInstruction() {}
func (EndStream) encodeInstruction()             {}
func (EmitBuf) encodeInstruction()               {}
func (EncodeForeign) encodeInstruction()         {}
func (EncodeRef) encodeInstruction()             {}
func (EncodeEnum) encodeInstruction()            {}
func (EncodeBitfield) encodeInstruction()        {}
func (EncodePrimitive) encodeInstruction()       {}
func (EncodePrimitiveArray) encodeInstruction()  {}
func (Pad) encodeInstruction()                   {}
func (Loop) encodeInstruction()                  {}
func (GetLen) encodeInstruction()                {}
func (Drop) encodeInstruction()                  {}
func (NullCheck) encodeInstruction()             {}
func (Conditional) encodeInstruction()           {}
func (UnwrapEnum) encodeInstruction()            {}
func (UnwrapEnumStruct) encodeInstruction()      {}
func (BreakBlock) encodeInstruction()            {}
func (Break) encodeInstruction()                 {}
