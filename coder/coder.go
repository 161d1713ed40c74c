// Package coder defines the abstract codec VM shared by the encode and
// decode lowerings: registers, stream targets, and primitive kinds.
// Instruction lists are flat except for Loop, Conditional, and
// BreakBlock bodies, which nest.
package coder

import (
	"fmt"

	"github.com/protospec-dev/protospec/ast"
)

// Register is a monotonically numbered virtual value slot. The emitter
// lowers each register to a fresh local.
type Register = int

// Target identifies where bytes flow: the outermost reader/writer, a
// wrapped sub-stream, or an in-memory buffer.
type Target struct {
	Kind     TargetKind
	Register Register
}

type TargetKind int

const (
	// TargetDirect is the outer reader/writer parameter.
	TargetDirect TargetKind = iota
	// TargetStream is a wrapped or bounded stream held in a register.
	TargetStream
	// TargetBuf is an in-memory byte buffer held in a register.
	TargetBuf
)

// Direct is the outermost stream target.
var Direct = Target{Kind: TargetDirect}

// Stream wraps a stream register as a target.
func Stream(r Register) Target { return Target{Kind: TargetStream, Register: r} }

// Buf wraps a buffer register as a target.
func Buf(r Register) Target { return Target{Kind: TargetBuf, Register: r} }

// UnwrapBuf asserts the target is a buffer and returns its register.
func (t Target) UnwrapBuf() Register {
	if t.Kind != TargetBuf {
		panic("target is not a buffer")
	}
	return t.Register
}

func (t Target) String() string {
	switch t.Kind {
	case TargetDirect:
		return "direct"
	case TargetStream:
		return fmt.Sprintf("stream(r%d)", t.Register)
	default:
		return fmt.Sprintf("buf(r%d)", t.Register)
	}
}

// PrimitiveType is the kind carried by primitive codec instructions.
type PrimitiveType struct {
	Kind   PrimitiveKind
	Scalar ast.EndianScalar
}

type PrimitiveKind int

const (
	PrimitiveBool PrimitiveKind = iota
	PrimitiveF32
	PrimitiveF64
	PrimitiveScalar
)

// Size returns the wire width in bytes.
func (p PrimitiveType) Size() uint64 {
	switch p.Kind {
	case PrimitiveBool:
		return 1
	case PrimitiveF32:
		return 4
	case PrimitiveF64:
		return 8
	default:
		return p.Scalar.Scalar.Size()
	}
}

func (p PrimitiveType) String() string {
	switch p.Kind {
	case PrimitiveBool:
		return "bool"
	case PrimitiveF32:
		return "f32"
	case PrimitiveF64:
		return "f64"
	default:
		return p.Scalar.String()
	}
}

// ScalarPrimitive wraps an endian scalar.
func ScalarPrimitive(s ast.EndianScalar) PrimitiveType {
	return PrimitiveType{Kind: PrimitiveScalar, Scalar: s}
}

// FieldRefOpKind enumerates the steps of a GetField access path.
type FieldRefOpKind int

const (
	// FieldRefRef takes the address of the current value.
	FieldRefRef FieldRefOpKind = iota
	// FieldRefName projects a named struct field.
	FieldRefName
	// FieldRefArrayAccess indexes with the register's value.
	FieldRefArrayAccess
	// FieldRefTupleAccess projects a positional field.
	FieldRefTupleAccess
)

// FieldRefOp is one step of a GetField access path.
type FieldRefOp struct {
	Kind     FieldRefOpKind
	Name     string
	Register Register
	Index    int
}

// RefOp takes the address of the current value.
func RefOp() FieldRefOp { return FieldRefOp{Kind: FieldRefRef} }

// NameOp projects a named field.
func NameOp(name string) FieldRefOp { return FieldRefOp{Kind: FieldRefName, Name: name} }

// ArrayAccessOp indexes with a register.
func ArrayAccessOp(r Register) FieldRefOp {
	return FieldRefOp{Kind: FieldRefArrayAccess, Register: r}
}

// TupleAccessOp projects a positional field.
func TupleAccessOp(i int) FieldRefOp { return FieldRefOp{Kind: FieldRefTupleAccess, Index: i} }
