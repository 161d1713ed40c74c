// Package decode lowers analyzed fields into the linear decode
// instruction stream of the codec VM.
package decode

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
)

// Context accumulates the decode instruction stream for one top-level
// field.
type Context struct {
	RegisterCount    int
	FieldRegisterMap map[string]coder.Register
	Instructions     []Instruction
	Name             string
}

// NewContext returns an empty decode context.
func NewContext() *Context {
	return &Context{FieldRegisterMap: map[string]coder.Register{}}
}

func (c *Context) allocRegister() coder.Register {
	r := c.RegisterCount
	c.RegisterCount++
	return r
}

func (c *Context) snapshotFields() map[string]coder.Register {
	out := make(map[string]coder.Register, len(c.FieldRegisterMap))
	for k, v := range c.FieldRegisterMap {
		out[k] = v
	}
	return out
}

func (c *Context) eval(expr asg.Expression) coder.Register {
	r := c.allocRegister()
	c.Instructions = append(c.Instructions, Eval{
		Target:           r,
		Expr:             expr,
		FieldRegisterMap: c.snapshotFields(),
	})
	return r
}

// drain removes and returns the instructions appended since start.
func (c *Context) drain(start int) []Instruction {
	drained := append([]Instruction(nil), c.Instructions[start:]...)
	c.Instructions = c.Instructions[:start]
	return drained
}

// DecodeFieldTop lowers a whole top-level field, ending with a Return
// of the constructed value.
func (c *Context) DecodeFieldTop(field *asg.Field) {
	if !field.Toplevel {
		panic("DecodeFieldTop on non-toplevel field")
	}
	c.Name = field.Name
	values := c.decodeField(coder.Direct, field)
	switch field.Type.(type) {
	case *asg.ForeignType, *asg.ContainerType, *asg.EnumType, *asg.BitfieldType:
	default:
		// non-structural top-level fields get a newtype wrapper
		if len(values) == 1 {
			wrapped := c.allocRegister()
			c.Instructions = append(c.Instructions, Construct{
				Target: wrapped,
				Value:  ConstructTaggedTuple{Name: field.Name, Items: []coder.Register{values[0]}},
			})
			values = []coder.Register{wrapped}
		}
	}
	if len(values) == 1 {
		c.Instructions = append(c.Instructions, Return{Register: values[0]})
	}
}

func (c *Context) decodeFieldCondition(field *asg.Field) (coder.Register, bool) {
	if field.Condition == nil {
		return 0, false
	}
	return c.eval(field.Condition), true
}

// decodeField lowers one field: condition, transforms (reverse order),
// then the type dispatch. An empty result means the field was an
// interior container whose children were decoded in place.
func (c *Context) decodeField(source coder.Target, field *asg.Field) []coder.Register {
	condition, conditional := c.decodeFieldCondition(field)
	start := len(c.Instructions)

	emitted := c.decodeFieldUnconditional(source, field)

	if !conditional {
		return emitted
	}
	if len(emitted) == 0 {
		panic(fmt.Sprintf("cannot decode conditional interior container %q", field.Name))
	}
	target := c.allocRegister()
	body := c.drain(start)
	c.Instructions = append(c.Instructions, Conditional{
		Target:    target,
		Interior:  emitted[0],
		Condition: condition,
		Body:      body,
	})
	return []coder.Register{target}
}

// decodeFieldUnconditional applies transforms innermost-last (decode
// flows inside-out) and dispatches on the type.
func (c *Context) decodeFieldUnconditional(source coder.Target, field *asg.Field) []coder.Register {
	for i := len(field.Transforms) - 1; i >= 0; i-- {
		transform := &field.Transforms[i]
		var condition *coder.Register
		if transform.Condition != nil {
			r := c.eval(transform.Condition)
			condition = &r
		}
		argumentStart := len(c.Instructions)
		var args []coder.Register
		for _, arg := range transform.Arguments {
			args = append(args, c.eval(arg))
		}
		newStream := c.allocRegister()
		if condition != nil {
			prelude := c.drain(argumentStart)
			c.Instructions = append(c.Instructions, ConditionalWrapStream{
				Condition: *condition,
				Prelude:   prelude,
				Stream:    source,
				NewStream: newStream,
				Transform: transform.Transform,
				Arguments: args,
			})
		} else {
			c.Instructions = append(c.Instructions, WrapStream{
				Stream:    source,
				NewStream: newStream,
				Transform: transform.Transform,
				Arguments: args,
			})
		}
		source = coder.Stream(newStream)
	}

	if field.IsPad {
		arrayType, ok := field.Type.(*asg.ArrayType)
		if !ok {
			panic("pad field is not an array")
		}
		len_ := c.eval(arrayType.Length.Value)
		c.Instructions = append(c.Instructions, Skip{Target: source, Len: len_})
		return nil
	}

	return c.decodeType(source, field)
}

// decodeType dispatches on the field's resolved type category.
func (c *Context) decodeType(source coder.Target, field *asg.Field) []coder.Register {
	switch t := field.Type.(type) {
	case *asg.ContainerType:
		return c.decodeContainer(field, t, source)
	case *asg.ArrayType:
		return []coder.Register{c.decodeArray(t, source)}
	case *asg.EnumType:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodeRepr{
			Name:   t.Name,
			Type:   coder.ScalarPrimitive(astBig(t.Rep)),
			Output: output,
			Target: source,
		})
		return []coder.Register{output}
	case *asg.BitfieldType:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodeRepr{
			Name:   t.Name,
			Type:   coder.ScalarPrimitive(astBig(t.Rep)),
			Output: output,
			Target: source,
		})
		return []coder.Register{output}
	case *asg.ScalarValue:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodePrimitive{
			Target: source,
			Output: output,
			Type:   coder.ScalarPrimitive(t.Scalar),
		})
		return []coder.Register{output}
	case *asg.F32Type:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodePrimitive{
			Target: source, Output: output, Type: coder.PrimitiveType{Kind: coder.PrimitiveF32},
		})
		return []coder.Register{output}
	case *asg.F64Type:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodePrimitive{
			Target: source, Output: output, Type: coder.PrimitiveType{Kind: coder.PrimitiveF64},
		})
		return []coder.Register{output}
	case *asg.BoolType:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodePrimitive{
			Target: source, Output: output, Type: coder.PrimitiveType{Kind: coder.PrimitiveBool},
		})
		return []coder.Register{output}
	case *asg.ForeignType:
		output := c.allocRegister()
		c.Instructions = append(c.Instructions, DecodeForeign{
			Target: source, Output: output, Type: t,
		})
		return []coder.Register{output}
	case *asg.RefType:
		var args []coder.Register
		for _, arg := range t.Arguments {
			args = append(args, c.eval(arg))
		}
		output := c.allocRegister()
		if foreign, ok := t.Target.Type.(*asg.ForeignType); ok {
			c.Instructions = append(c.Instructions, DecodeForeign{
				Target: source, Output: output, Type: foreign, Arguments: args,
			})
		} else {
			c.Instructions = append(c.Instructions, DecodeRef{
				Target: source, Output: output, Name: t.Target.Name, Arguments: args,
			})
		}
		return []coder.Register{output}
	default:
		panic(fmt.Sprintf("unknown type %T in decode", field.Type))
	}
}
