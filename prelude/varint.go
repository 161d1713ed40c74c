// Package prelude supplies the foreign types, transforms, and
// functions available to every schema without registration: LEB128
// varints, UTF-8/UTF-16 strings, base64/base58/gzip/lz4 stream
// transforms, and the len/blen/pad/bits/sum functions.
package prelude

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

func goScalarType(s ast.ScalarType) string {
	switch s {
	case ast.U8:
		return "uint8"
	case ast.U16:
		return "uint16"
	case ast.U32:
		return "uint32"
	case ast.U64:
		return "uint64"
	case ast.I8:
		return "int8"
	case ast.I16:
		return "int16"
	case ast.I32:
		return "int32"
	case ast.I64:
		return "int64"
	default:
		return "*big.Int"
	}
}

// VarInt is the v8..v128 family: LEB128 over the unsigned bit pattern
// of the scalar.
type VarInt struct {
	scalar ast.ScalarType
}

// NewVarInt builds the varint type for one scalar width.
func NewVarInt(scalar ast.ScalarType) *VarInt {
	return &VarInt{scalar: scalar}
}

func (v *VarInt) AssignableFromType(t asg.Type) bool {
	return asg.Assignable(asg.NewScalar(v.scalar), t)
}

func (v *VarInt) AssignableToType(t asg.Type) bool {
	return asg.Assignable(t, asg.NewScalar(v.scalar))
}

func (v *VarInt) TypeRef() string { return goScalarType(v.scalar) }

func (v *VarInt) Arguments() []asg.TypeArgument { return nil }

func (v *VarInt) CanReceiveAuto() (ast.ScalarType, bool) { return v.scalar, true }

func (v *VarInt) Imports() []string { return nil }

func ctxGuard(isAsync bool) string {
	if !isAsync {
		return ""
	}
	return "if err = ctx.Err(); err != nil {\n\treturn\n}\n"
}

func (v *VarInt) DecodingGen(source, outputRef string, _ []string, isAsync bool) string {
	if v.scalar.Size() == 16 {
		return fmt.Sprintf(`{
	%s%s = new(big.Int)
	psShift := uint(0)
	for {
		psB, psErr := %s.ReadByte()
		if psErr != nil {
			err = psErr
			return
		}
		%s.Or(%s, new(big.Int).Lsh(big.NewInt(int64(psB&0x7f)), psShift))
		if psB&0x80 == 0 {
			break
		}
		psShift += 7
		if psShift > 133 {
			break
		}
	}
}`, ctxGuard(isAsync), outputRef, source, outputRef, outputRef)
	}
	unsigned := goScalarType(v.scalar.Unsigned())
	maxShift := (v.scalar.Size()*8/7 + 1) * 7
	return fmt.Sprintf(`{
	%spsShift := uint(0)
	for {
		psB, psErr := %s.ReadByte()
		if psErr != nil {
			err = psErr
			return
		}
		%s |= %s(%s(psB&0x7f) << psShift)
		if psB&0x80 == 0 {
			break
		}
		psShift += 7
		if psShift > %d {
			break
		}
	}
}`, ctxGuard(isAsync), source, outputRef, v.TypeRef(), unsigned, maxShift)
}

func (v *VarInt) EncodingGen(target, fieldRef string, _ []string, isAsync bool) string {
	if v.scalar.Size() == 16 {
		return fmt.Sprintf(`{
	%spsV := new(big.Int).Set(%s)
	if psV.Sign() < 0 {
		psV.Add(psV, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	for psV.BitLen() > 7 {
		if _, err = %s.Write([]byte{byte(psV.Uint64()&0x7f) | 0x80}); err != nil {
			return
		}
		psV.Rsh(psV, 7)
	}
	if _, err = %s.Write([]byte{byte(psV.Uint64() & 0x7f)}); err != nil {
		return
	}
}`, ctxGuard(isAsync), fieldRef, target, target)
	}
	unsigned := goScalarType(v.scalar.Unsigned())
	return fmt.Sprintf(`{
	%spsV := %s(%s)
	for psV >= 0x80 {
		if _, err = %s.Write([]byte{byte(psV) | 0x80}); err != nil {
			return
		}
		psV >>= 7
	}
	if _, err = %s.Write([]byte{byte(psV)}); err != nil {
		return
	}
}`, ctxGuard(isAsync), unsigned, fieldRef, target, target)
}

var _ asg.ForeignTypeObj = (*VarInt)(nil)
