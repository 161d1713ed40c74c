package prelude

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

// stringAssignable reports whether t is the u8-array shape strings
// exchange with.
func stringAssignable(t asg.Type) bool {
	switch resolved := asg.Resolved(t).(type) {
	case *asg.ArrayType:
		s, ok := asg.ScalarOf(resolved.Element.Type)
		return ok && s.Scalar == ast.U8
	}
	return false
}

func lengthArgument() []asg.TypeArgument {
	return []asg.TypeArgument{{
		Name: "length",
		Type: asg.NewScalar(ast.U64),
		DefaultValue: &asg.IntLiteral{
			Value: asg.ConstU64(0),
			Type:  ast.U64,
		},
		CanResolveAuto: true,
	}}
}

// UTF8 is a length-prefixed or read-to-end UTF-8 string. A zero
// length argument means read to end of stream.
type UTF8 struct{}

func (UTF8) AssignableFromType(t asg.Type) bool { return stringAssignable(t) }
func (UTF8) AssignableToType(t asg.Type) bool   { return stringAssignable(t) }
func (UTF8) TypeRef() string                    { return "string" }
func (UTF8) Arguments() []asg.TypeArgument      { return lengthArgument() }

func (UTF8) CanReceiveAuto() (ast.ScalarType, bool) { return 0, false }

func (UTF8) Imports() []string { return []string{"io"} }

func (UTF8) DecodingGen(source, outputRef string, args []string, isAsync bool) string {
	length := "uint64(0)"
	if len(args) > 0 {
		length = "uint64(" + args[0] + ")"
	}
	return fmt.Sprintf(`{
	%spsLen := %s
	var psBuf []byte
	var psErr error
	if psLen == 0 {
		psBuf, psErr = io.ReadAll(%s)
	} else {
		psBuf = make([]byte, psLen)
		psErr = psReadFull(%s, psBuf)
	}
	if psErr != nil {
		err = psErr
		return
	}
	%s = string(psBuf)
}`, ctxGuard(isAsync), length, source, source, outputRef)
}

func (UTF8) EncodingGen(target, fieldRef string, _ []string, isAsync bool) string {
	return fmt.Sprintf(`{
	%sif _, err = io.WriteString(%s, %s); err != nil {
		return
	}
}`, ctxGuard(isAsync), target, fieldRef)
}

var _ asg.ForeignTypeObj = UTF8{}

// UTF16 is a big-endian UTF-16 string; the length argument counts
// code units, zero meaning read to end.
type UTF16 struct{}

func (UTF16) AssignableFromType(t asg.Type) bool { return stringAssignable(t) }
func (UTF16) AssignableToType(t asg.Type) bool   { return stringAssignable(t) }
func (UTF16) TypeRef() string                    { return "string" }
func (UTF16) Arguments() []asg.TypeArgument      { return lengthArgument() }

func (UTF16) CanReceiveAuto() (ast.ScalarType, bool) { return 0, false }

func (UTF16) Imports() []string { return []string{"unicode/utf16"} }

func (UTF16) DecodingGen(source, outputRef string, args []string, isAsync bool) string {
	length := "uint64(0)"
	if len(args) > 0 {
		length = "uint64(" + args[0] + ")"
	}
	return fmt.Sprintf(`{
	%spsLen := %s
	var psUnits []uint16
	var psErr error
	if psLen == 0 {
		psUnits, psErr = psReadScalarArrAll[uint16](%s, 2, true)
	} else {
		psUnits, psErr = psReadScalarArr[uint16](%s, psLen, 2, true)
	}
	if psErr != nil {
		err = psErr
		return
	}
	%s = string(utf16.Decode(psUnits))
}`, ctxGuard(isAsync), length, source, source, outputRef)
}

func (UTF16) EncodingGen(target, fieldRef string, _ []string, isAsync bool) string {
	return fmt.Sprintf(`{
	%spsUnits := utf16.Encode([]rune(%s))
	if err = psWriteScalarArr(%s, psUnits, 2, true); err != nil {
		return
	}
}`, ctxGuard(isAsync), fieldRef, target)
}

var _ asg.ForeignTypeObj = UTF16{}
