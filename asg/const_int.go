package asg

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/reporter"
)

// ConstInt is an integer constant tagged with one of the ten scalar
// widths. Arithmetic is defined only between equal widths; mixed-width
// operations report ok=false. Values wrap to their width, matching the
// runtime semantics of generated code.
type ConstInt struct {
	Type ast.ScalarType
	val  *big.Int
}

// ErrInvalidInt is produced when an integer literal cannot be parsed
// at the required width.
type ErrInvalidInt struct {
	Literal string
	Loc     ast.Span
}

func (e *ErrInvalidInt) Error() string {
	return fmt.Sprintf("invalid integer literal '%s'", e.Literal)
}

// ParseConstInt parses a decimal or 0x-prefixed literal at the given
// width, rejecting out-of-range values.
func ParseConstInt(scalar ast.ScalarType, value string, span ast.Span) (ConstInt, error) {
	neg := false
	body := value
	if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}
	base := 10
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		base = 16
		body = body[2:]
	}
	v, ok := new(big.Int).SetString(body, base)
	if !ok {
		return ConstInt{}, reporter.Error(span, &ErrInvalidInt{Literal: value, Loc: span})
	}
	if neg {
		v.Neg(v)
	}
	out := ConstInt{Type: scalar, val: v}
	if !out.fits() {
		return ConstInt{}, reporter.Error(span, &ErrInvalidInt{Literal: value, Loc: span})
	}
	return out, nil
}

// NewConstInt builds a constant from a native value, wrapping to the
// width.
func NewConstInt(scalar ast.ScalarType, value int64) ConstInt {
	return ConstInt{Type: scalar, val: big.NewInt(value)}.wrap()
}

// ConstU64 is shorthand for a u64 constant.
func ConstU64(value uint64) ConstInt {
	return ConstInt{Type: ast.U64, val: new(big.Int).SetUint64(value)}
}

func (c ConstInt) bits() uint { return uint(c.Type.Size()) * 8 }

func (c ConstInt) fits() bool {
	bits := c.bits()
	if c.Type.Signed() {
		lo := new(big.Int).Lsh(big.NewInt(-1), bits-1)
		hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
		return c.val.Cmp(lo) >= 0 && c.val.Cmp(hi) <= 0
	}
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	return c.val.Sign() >= 0 && c.val.Cmp(hi) <= 0
}

// wrap reduces the value into the width's range with two's-complement
// semantics.
func (c ConstInt) wrap() ConstInt {
	bits := c.bits()
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	v := new(big.Int).Mod(c.val, mod)
	if v.Sign() < 0 {
		v.Add(v, mod)
	}
	if c.Type.Signed() {
		hi := new(big.Int).Lsh(big.NewInt(1), bits-1)
		if v.Cmp(hi) >= 0 {
			v.Sub(v, mod)
		}
	}
	return ConstInt{Type: c.Type, val: v}
}

func (c ConstInt) binop(other ConstInt, op func(z, x, y *big.Int)) (ConstInt, bool) {
	if c.Type != other.Type || c.val == nil || other.val == nil {
		return ConstInt{}, false
	}
	z := new(big.Int)
	op(z, c.val, other.val)
	return ConstInt{Type: c.Type, val: z}.wrap(), true
}

func (c ConstInt) Add(o ConstInt) (ConstInt, bool) {
	return c.binop(o, func(z, x, y *big.Int) { z.Add(x, y) })
}

func (c ConstInt) Sub(o ConstInt) (ConstInt, bool) {
	return c.binop(o, func(z, x, y *big.Int) { z.Sub(x, y) })
}

func (c ConstInt) Mul(o ConstInt) (ConstInt, bool) {
	return c.binop(o, func(z, x, y *big.Int) { z.Mul(x, y) })
}

func (c ConstInt) Div(o ConstInt) (ConstInt, bool) {
	if o.val == nil || o.val.Sign() == 0 {
		return ConstInt{}, false
	}
	return c.binop(o, func(z, x, y *big.Int) { z.Quo(x, y) })
}

func (c ConstInt) Mod(o ConstInt) (ConstInt, bool) {
	if o.val == nil || o.val.Sign() == 0 {
		return ConstInt{}, false
	}
	return c.binop(o, func(z, x, y *big.Int) { z.Rem(x, y) })
}

func (c ConstInt) And(o ConstInt) (ConstInt, bool) {
	return c.binop(o, func(z, x, y *big.Int) { z.And(x, y) })
}

func (c ConstInt) Or(o ConstInt) (ConstInt, bool) {
	return c.binop(o, func(z, x, y *big.Int) { z.Or(x, y) })
}

func (c ConstInt) Xor(o ConstInt) (ConstInt, bool) {
	return c.binop(o, func(z, x, y *big.Int) { z.Xor(x, y) })
}

func (c ConstInt) Shl(o ConstInt) (ConstInt, bool) {
	if c.Type != o.Type || !o.val.IsUint64() {
		return ConstInt{}, false
	}
	z := new(big.Int).Lsh(c.val, uint(o.val.Uint64()))
	return ConstInt{Type: c.Type, val: z}.wrap(), true
}

func (c ConstInt) Shr(o ConstInt) (ConstInt, bool) {
	if c.Type != o.Type || !o.val.IsUint64() {
		return ConstInt{}, false
	}
	z := new(big.Int).Rsh(c.val, uint(o.val.Uint64()))
	return ConstInt{Type: c.Type, val: z}.wrap(), true
}

func (c ConstInt) Neg() (ConstInt, bool) {
	if !c.Type.Signed() || c.val == nil {
		return ConstInt{}, false
	}
	return ConstInt{Type: c.Type, val: new(big.Int).Neg(c.val)}.wrap(), true
}

func (c ConstInt) BitNot() (ConstInt, bool) {
	if c.val == nil {
		return ConstInt{}, false
	}
	return ConstInt{Type: c.Type, val: new(big.Int).Not(c.val)}.wrap(), true
}

// Cmp compares equal-width constants; ok is false on width mismatch.
func (c ConstInt) Cmp(o ConstInt) (int, bool) {
	if c.Type != o.Type || c.val == nil || o.val == nil {
		return 0, false
	}
	return c.val.Cmp(o.val), true
}

// CastTo reinterprets the value at another width with wrapping.
func (c ConstInt) CastTo(target ast.ScalarType) ConstInt {
	return ConstInt{Type: target, val: new(big.Int).Set(c.val)}.wrap()
}

// IsZero reports whether the value is zero.
func (c ConstInt) IsZero() bool { return c.val == nil || c.val.Sign() == 0 }

// Uint64 returns the value as a uint64 when it fits.
func (c ConstInt) Uint64() (uint64, bool) {
	if c.val == nil || !c.val.IsUint64() {
		return 0, false
	}
	return c.val.Uint64(), true
}

func (c ConstInt) String() string {
	if c.val == nil {
		return "0"
	}
	return c.val.String()
}

// Equal compares width and value.
func (c ConstInt) Equal(o ConstInt) bool {
	if c.Type != o.Type {
		return false
	}
	if c.val == nil || o.val == nil {
		return c.IsZero() && o.IsZero()
	}
	return c.val.Cmp(o.val) == 0
}
