package prelude

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

func anyArg(name string) []asg.FFIArgument {
	return []asg.FFIArgument{{Name: name}}
}

// LenFunction counts the elements of an array value.
type LenFunction struct{}

func (LenFunction) Arguments() []asg.FFIArgument { return anyArg("value") }
func (LenFunction) ReturnType() asg.Type         { return asg.NewScalar(ast.U64) }
func (LenFunction) Imports() []string            { return nil }

func (LenFunction) Call(arguments []asg.FFIArgumentValue) string {
	return fmt.Sprintf("uint64(len(%s))", arguments[0].Value)
}

// BLenFunction counts the bytes of a u8 array value.
type BLenFunction struct{}

func (BLenFunction) Arguments() []asg.FFIArgument { return anyArg("value") }
func (BLenFunction) ReturnType() asg.Type         { return asg.NewScalar(ast.U64) }
func (BLenFunction) Imports() []string            { return nil }

func (BLenFunction) Call(arguments []asg.FFIArgumentValue) string {
	return fmt.Sprintf("uint64(len(%s))", arguments[0].Value)
}

// PadFunction computes the padding needed to align a length.
type PadFunction struct{}

func (PadFunction) Arguments() []asg.FFIArgument {
	return []asg.FFIArgument{
		{Name: "length", Type: asg.NewScalar(ast.U64)},
		{Name: "align", Type: asg.NewScalar(ast.U64)},
	}
}

func (PadFunction) ReturnType() asg.Type { return asg.NewScalar(ast.U64) }
func (PadFunction) Imports() []string    { return nil }

func (PadFunction) Call(arguments []asg.FFIArgumentValue) string {
	return fmt.Sprintf("psPadLen(uint64(%s), uint64(%s))", arguments[0].Value, arguments[1].Value)
}

// BitsFunction counts set bits.
type BitsFunction struct{}

func (BitsFunction) Arguments() []asg.FFIArgument { return anyArg("value") }
func (BitsFunction) ReturnType() asg.Type         { return asg.NewScalar(ast.U64) }
func (BitsFunction) Imports() []string            { return []string{"math/bits"} }

func (BitsFunction) Call(arguments []asg.FFIArgumentValue) string {
	return fmt.Sprintf("uint64(bits.OnesCount64(uint64(%s)))", arguments[0].Value)
}

// SumFunction adds the elements of a scalar array.
type SumFunction struct{}

func (SumFunction) Arguments() []asg.FFIArgument { return anyArg("value") }
func (SumFunction) ReturnType() asg.Type         { return asg.NewScalar(ast.U64) }
func (SumFunction) Imports() []string            { return nil }

func (SumFunction) Call(arguments []asg.FFIArgumentValue) string {
	return fmt.Sprintf("psSum(%s)", arguments[0].Value)
}
