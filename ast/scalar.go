package ast

import "fmt"

// ScalarType is one of the ten fixed-width integer kinds.
type ScalarType int

const (
	U8 ScalarType = iota
	U16
	U32
	U64
	U128
	I8
	I16
	I32
	I64
	I128
)

func (s ScalarType) Signed() bool {
	switch s {
	case I8, I16, I32, I64, I128:
		return true
	}
	return false
}

// Size returns the width in bytes.
func (s ScalarType) Size() uint64 {
	switch s {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32:
		return 4
	case I64, U64:
		return 8
	case I128, U128:
		return 16
	}
	panic(fmt.Sprintf("unknown scalar type %d", int(s)))
}

// CanImplicitCastTo reports whether a value of s implicitly widens to
// to: same signedness and no loss of width.
func (s ScalarType) CanImplicitCastTo(to ScalarType) bool {
	if s.Signed() != to.Signed() {
		return false
	}
	return s.Size() <= to.Size()
}

// Unsigned returns the same-width unsigned kind.
func (s ScalarType) Unsigned() ScalarType {
	switch s {
	case I8:
		return U8
	case I16:
		return U16
	case I32:
		return U32
	case I64:
		return U64
	case I128:
		return U128
	}
	return s
}

func (s ScalarType) String() string {
	switch s {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	}
	return fmt.Sprintf("scalar(%d)", int(s))
}

// ScalarTypeFromName maps a scalar keyword to its kind.
func ScalarTypeFromName(name string) (ScalarType, bool) {
	switch name {
	case "u8":
		return U8, true
	case "u16":
		return U16, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "u128":
		return U128, true
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "i128":
		return I128, true
	}
	return 0, false
}

// Endian selects the byte order of a scalar on the wire.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	if e == LittleEndian {
		return "le"
	}
	return "be"
}

// EndianScalar is a scalar kind paired with its wire byte order. The
// default order everywhere is big-endian.
type EndianScalar struct {
	Scalar ScalarType
	Endian Endian
}

func (e EndianScalar) String() string {
	if e.Endian == LittleEndian {
		return e.Scalar.String() + "le"
	}
	return e.Scalar.String()
}

// BigScalar wraps a scalar kind in the default byte order.
func BigScalar(s ScalarType) EndianScalar {
	return EndianScalar{Scalar: s, Endian: BigEndian}
}
