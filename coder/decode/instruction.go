package decode

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
)

// Constructable describes how decoded registers assemble into an
// output value.
type Constructable interface {
	constructable()
}

// ConstructStruct builds a named struct from (field, register) pairs.
type ConstructStruct struct {
	Name  string
	Items []ConstructItem
}

// ConstructItem is one named member of a struct construction.
type ConstructItem struct {
	Name     string
	Register coder.Register
}

func (ConstructStruct) constructable() {}

// ConstructTuple builds an anonymous tuple.
type ConstructTuple struct {
	Items []coder.Register
}

func (ConstructTuple) constructable() {}

// ConstructTaggedTuple builds a newtype wrapper around positional
// values.
type ConstructTaggedTuple struct {
	Name  string
	Items []coder.Register
}

func (ConstructTaggedTuple) constructable() {}

// ConstructTaggedEnum builds one raw-valued arm of a tagged enum.
type ConstructTaggedEnum struct {
	Name         string
	Discriminant string
	Values       []coder.Register
}

func (ConstructTaggedEnum) constructable() {}

// ConstructTaggedEnumStruct builds one struct-valued arm of a tagged
// enum.
type ConstructTaggedEnumStruct struct {
	Name         string
	Discriminant string
	Values       []ConstructItem
}

func (ConstructTaggedEnumStruct) constructable() {}

// Instruction is one step of the decode stream.
type Instruction interface {
	decodeInstruction()
}

// Eval computes an expression into a register. The field→register
// snapshot is carried because decoder expressions reference previously
// decoded registers that are not yet bound to any object.
type Eval struct {
	Target           coder.Register
	Expr             asg.Expression
	FieldRegisterMap map[string]coder.Register
}

// Construct assembles an output value.
type Construct struct {
	Target coder.Register
	Value  Constructable
}

// Constrict takes a length-bounded sub-reader over the source.
type Constrict struct {
	Source    coder.Target
	NewStream coder.Register
	Len       coder.Register
}

// WrapStream wraps the source in a transform's decode direction.
type WrapStream struct {
	Stream    coder.Target
	NewStream coder.Register
	Transform *asg.Transform
	Arguments []coder.Register
}

// ConditionalWrapStream wraps the source only when the condition
// register is true; the prelude computes the transform's arguments.
type ConditionalWrapStream struct {
	Condition coder.Register
	Prelude   []Instruction
	Stream    coder.Target
	NewStream coder.Register
	Transform *asg.Transform
	Arguments []coder.Register
}

// DecodeForeign reads a foreign-typed value.
type DecodeForeign struct {
	Target    coder.Target
	Output    coder.Register
	Type      *asg.ForeignType
	Arguments []coder.Register
}

// DecodeRef calls another top-level type's decoder.
type DecodeRef struct {
	Target    coder.Target
	Output    coder.Register
	Name      string
	Arguments []coder.Register
}

// DecodeRepr reads an enum or bitfield through its representation
// scalar; unknown enum discriminants are rejected by the generated
// from-repr helper.
type DecodeRepr struct {
	Name   string
	Type   coder.PrimitiveType
	Output coder.Register
	Target coder.Target
}

// DecodePrimitive reads one primitive value.
type DecodePrimitive struct {
	Target coder.Target
	Output coder.Register
	Type   coder.PrimitiveType
}

// DecodePrimitiveArray reads a contiguous fixed-width array; a nil Len
// reads to end of stream.
type DecodePrimitiveArray struct {
	Target coder.Target
	Output coder.Register
	Type   coder.PrimitiveType
	Len    *coder.Register
}

// DecodeReprArray is DecodePrimitiveArray through an enum/bitfield
// representation.
type DecodeReprArray struct {
	Target coder.Target
	Output coder.Register
	Name   string
	Type   coder.PrimitiveType
	Len    *coder.Register
}

// Skip discards Len bytes (pad fields).
type Skip struct {
	Target coder.Target
	Len    coder.Register
}

// Loop decodes elements until the stop count, the terminator match, or
// end of stream.
type Loop struct {
	Target     coder.Target
	Stop       *coder.Register
	Terminator *coder.Register
	Output     coder.Register
	Body       []Instruction
}

// LoopOutput appends an item to a loop's output collection.
type LoopOutput struct {
	Output coder.Register
	Item   coder.Register
}

// Conditional runs the body only when the condition register is true;
// the target register is the optional-wrapped interior register, None
// on the false branch.
type Conditional struct {
	Target    coder.Register
	Interior  coder.Register
	Condition coder.Register
	Body      []Instruction
}

// ConditionalPredicate runs the body when the condition register is
// true (tagged-enum arms).
type ConditionalPredicate struct {
	Condition coder.Register
	Body      []Instruction
}

// Return returns the register's value from the decoder early.
type Return struct {
	Register coder.Register
}

// Error fails the decode with a message.
type Error struct {
	Message string
}

func (Eval) decodeInstruction()                  {}
func (Construct) decodeInstruction()             {}
func (Constrict) decodeInstruction()             {}
func (WrapStream) decodeInstruction()            {}
func (ConditionalWrapStream) decodeInstruction() {}
func (DecodeForeign) decodeInstruction()         {}
func (DecodeRef) decodeInstruction()             {}
func (DecodeRepr) decodeInstruction()            {}
func (DecodePrimitive) decodeInstruction()       {}
func (DecodePrimitiveArray) decodeInstruction()  {}
func (DecodeReprArray) decodeInstruction()       {}
func (Skip) decodeInstruction()                  {}
func (Loop) decodeInstruction()                  {}
func (LoopOutput) decodeInstruction()            {}
func (Conditional) decodeInstruction()           {}
func (ConditionalPredicate) decodeInstruction()  {}
func (Return) decodeInstruction()                {}
func (Error) decodeInstruction()                 {}
