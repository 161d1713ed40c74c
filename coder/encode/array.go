package encode

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/coder"
)

// encodeArray writes an array. Primitive, enum, and bitfield elements
// with no condition, transform, or terminator take the contiguous fast
// path. A length expression referencing an auto field resolves it here
// against the array's own element count.
func (c *Context) encodeArray(typ *asg.ArrayType, target coder.Target, source coder.Register) {
	var terminator *coder.Register
	if typ.Length.Expandable && typ.Length.Value != nil {
		r := c.eval(typ.Length.Value)
		terminator = &r
	}

	var length *coder.Register
	if terminator == nil && !typ.Length.Expandable {
		if resolved, ok := c.checkAuto(typ.Length.Value, source); ok {
			length = &resolved
		} else {
			r := c.eval(typ.Length.Value)
			length = &r
		}
	}

	if terminator == nil && typ.Element.Condition == nil && len(typ.Element.Transforms) == 0 {
		switch element := asg.Resolved(typ.Element.Type).(type) {
		case *asg.EnumType:
			c.Instructions = append(c.Instructions, EncodePrimitiveArray{
				Target: target, Source: source,
				Type: coder.ScalarPrimitive(astBig(element.Rep)), Len: length,
			})
			return
		case *asg.BitfieldType:
			c.Instructions = append(c.Instructions, EncodePrimitiveArray{
				Target: target, Source: source,
				Type: coder.ScalarPrimitive(astBig(element.Rep)), Len: length,
			})
			return
		case *asg.ScalarValue:
			c.Instructions = append(c.Instructions, EncodePrimitiveArray{
				Target: target, Source: source,
				Type: coder.ScalarPrimitive(element.Scalar), Len: length,
			})
			return
		case *asg.F32Type:
			c.Instructions = append(c.Instructions, EncodePrimitiveArray{
				Target: target, Source: source,
				Type: coder.PrimitiveType{Kind: coder.PrimitiveF32}, Len: length,
			})
			return
		case *asg.F64Type:
			c.Instructions = append(c.Instructions, EncodePrimitiveArray{
				Target: target, Source: source,
				Type: coder.PrimitiveType{Kind: coder.PrimitiveF64}, Len: length,
			})
			return
		case *asg.BoolType:
			c.Instructions = append(c.Instructions, EncodePrimitiveArray{
				Target: target, Source: source,
				Type: coder.PrimitiveType{Kind: coder.PrimitiveBool}, Len: length,
			})
			return
		}
	}

	start := len(c.Instructions)
	iter := c.allocRegister()
	newSource := c.allocRegister()
	var ops []coder.FieldRefOp
	if !typ.Element.Copyable() {
		ops = append(ops, coder.RefOp())
	}
	ops = append(ops, coder.ArrayAccessOp(iter))
	c.Instructions = append(c.Instructions, GetField{Target: newSource, Source: source, Ops: ops})
	c.encodeType(typ.Element.Type, target, newSource)
	body := c.drain(start)

	var stop coder.Register
	if length != nil {
		stop = *length
	} else {
		stop = c.allocRegister()
		c.Instructions = append(c.Instructions, GetLen{Target: stop, Source: source})
	}
	c.Instructions = append(c.Instructions, Loop{Iter: iter, Stop: stop, Body: body})

	if terminator != nil {
		c.Instructions = append(c.Instructions, EncodePrimitiveArray{
			Target: target,
			Source: *terminator,
			Type:   coder.ScalarPrimitive(ast.BigScalar(ast.U8)),
		})
	}
}
