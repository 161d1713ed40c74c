package decode

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/coder"
)

func astBig(s ast.ScalarType) ast.EndianScalar { return ast.BigScalar(s) }

// decodeArray lowers an array field. Primitive, enum, and bitfield
// elements with no condition, transform, or terminator take the
// contiguous fast path; everything else decodes in a loop.
func (c *Context) decodeArray(typ *asg.ArrayType, source coder.Target) coder.Register {
	var terminator *coder.Register
	if typ.Length.Expandable && typ.Length.Value != nil {
		r := c.eval(typ.Length.Value)
		terminator = &r
	}

	var length *coder.Register
	if !typ.Length.Expandable {
		r := c.eval(typ.Length.Value)
		length = &r
	}

	output := c.allocRegister()
	if terminator == nil && typ.Element.Condition == nil && len(typ.Element.Transforms) == 0 {
		switch element := asg.Resolved(typ.Element.Type).(type) {
		case *asg.EnumType:
			c.Instructions = append(c.Instructions, DecodeReprArray{
				Target: source, Output: output, Name: element.Name,
				Type: coder.ScalarPrimitive(astBig(element.Rep)), Len: length,
			})
			return output
		case *asg.BitfieldType:
			c.Instructions = append(c.Instructions, DecodeReprArray{
				Target: source, Output: output, Name: element.Name,
				Type: coder.ScalarPrimitive(astBig(element.Rep)), Len: length,
			})
			return output
		case *asg.ScalarValue:
			c.Instructions = append(c.Instructions, DecodePrimitiveArray{
				Target: source, Output: output,
				Type: coder.ScalarPrimitive(element.Scalar), Len: length,
			})
			return output
		case *asg.F32Type:
			c.Instructions = append(c.Instructions, DecodePrimitiveArray{
				Target: source, Output: output,
				Type: coder.PrimitiveType{Kind: coder.PrimitiveF32}, Len: length,
			})
			return output
		case *asg.F64Type:
			c.Instructions = append(c.Instructions, DecodePrimitiveArray{
				Target: source, Output: output,
				Type: coder.PrimitiveType{Kind: coder.PrimitiveF64}, Len: length,
			})
			return output
		case *asg.BoolType:
			c.Instructions = append(c.Instructions, DecodePrimitiveArray{
				Target: source, Output: output,
				Type: coder.PrimitiveType{Kind: coder.PrimitiveBool}, Len: length,
			})
			return output
		}
	}

	start := len(c.Instructions)
	item := c.decodeField(source, typ.Element)
	if len(item) == 0 {
		panic("cannot decode inline container inside array")
	}
	c.Instructions = append(c.Instructions, LoopOutput{Output: output, Item: item[0]})
	body := c.drain(start)
	c.Instructions = append(c.Instructions, Loop{
		Target:     source,
		Stop:       length,
		Terminator: terminator,
		Output:     output,
		Body:       body,
	})
	return output
}
