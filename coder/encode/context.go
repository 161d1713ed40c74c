// Package encode lowers analyzed fields into the linear encode
// instruction stream of the codec VM.
package encode

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
	"github.com/protospec-dev/protospec/internal/ordered"
)

// Resolver maps a flattened field name to the register holding its
// source value for the container currently being encoded.
type Resolver func(c *Context, name string) coder.Register

// Context accumulates the encode instruction stream for one top-level
// field. ResolvedAutos records auto fields whose values have been
// computed from downstream content; auto buffers form a strict LIFO
// stack.
type Context struct {
	RegisterCount int
	Instructions  []Instruction
	ResolvedAutos ordered.Map[coder.Register]
	Name          string
}

// NewContext returns an empty encode context.
func NewContext() *Context {
	return &Context{}
}

func (c *Context) allocRegister() coder.Register {
	r := c.RegisterCount
	c.RegisterCount++
	return r
}

func (c *Context) eval(expr asg.Expression) coder.Register {
	r := c.allocRegister()
	c.Instructions = append(c.Instructions, Eval{Target: r, Expr: expr})
	return r
}

func (c *Context) drain(start int) []Instruction {
	drained := append([]Instruction(nil), c.Instructions[start:]...)
	c.Instructions = c.Instructions[:start]
	return drained
}

// EncodeFieldTop lowers a whole top-level field. Register 0 is the
// receiver.
func (c *Context) EncodeFieldTop(field *asg.Field) {
	c.Name = field.Name
	top := c.allocRegister() // the receiver
	source := top
	switch field.Type.(type) {
	case *asg.ForeignType:
		return
	case *asg.ContainerType, *asg.EnumType, *asg.BitfieldType:
	default:
		// unwrap the newtype: the single positional member is the
		// encoded value
		inner := c.allocRegister()
		var ops []coder.FieldRefOp
		if !asg.TypeCopyable(field.Type) {
			ops = append(ops, coder.RefOp())
		}
		ops = append(ops, coder.TupleAccessOp(0))
		c.Instructions = append(c.Instructions, GetField{Target: inner, Source: top, Ops: ops})
		source = inner
	}
	resolver := Resolver(func(c *Context, name string) coder.Register {
		r := c.allocRegister()
		c.Instructions = append(c.Instructions, GetField{
			Target: r,
			Source: top,
			Ops:    []coder.FieldRefOp{coder.NameOp(name)},
		})
		return r
	})
	c.encodeField(coder.Direct, resolver, source, field)
}

func (c *Context) encodeFieldCondition(field *asg.Field) (coder.Register, bool) {
	if field.Condition == nil {
		return 0, false
	}
	return c.eval(field.Condition), true
}

// encodeField lowers one field, wrapping everything it produced in a
// Conditional when the field carries a condition.
func (c *Context) encodeField(target coder.Target, resolver Resolver, source coder.Register, field *asg.Field) {
	condition, conditional := c.encodeFieldCondition(field)
	start := len(c.Instructions)

	c.encodeFieldUnconditional(target, resolver, source, field, conditional)

	if conditional {
		body := c.drain(start)
		c.Instructions = append(c.Instructions, Conditional{
			Condition: condition,
			Then:      body,
		})
	}
}

// encodeFieldUnconditional applies transforms in declared order
// (encode flows outside-in), null-checks conditional sources, and
// dispatches on the type. Wrapped streams are ended in reverse order
// of acquisition.
func (c *Context) encodeFieldUnconditional(target coder.Target, resolver Resolver, source coder.Register, field *asg.Field, selfConditional bool) {
	type stream struct {
		wrapped coder.Register
		owned   *coder.Register
	}
	var newStreams []stream

	for i := range field.Transforms {
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
			owned := c.allocRegister()
			prelude := c.drain(argumentStart)
			c.Instructions = append(c.Instructions, ConditionalWrapStream{
				Condition:      *condition,
				Prelude:        prelude,
				Stream:         target,
				NewStream:      newStream,
				OwnedNewStream: owned,
				Transform:      transform.Transform,
				Arguments:      args,
			})
			newStreams = append(newStreams, stream{wrapped: newStream, owned: &owned})
		} else {
			c.Instructions = append(c.Instructions, WrapStream{
				Stream:    target,
				NewStream: newStream,
				Transform: transform.Transform,
				Arguments: args,
			})
			newStreams = append(newStreams, stream{wrapped: newStream})
		}
		target = coder.Stream(newStream)
	}

	_, isContainer := field.Type.(*asg.ContainerType)
	isPseudocontainer := !field.Toplevel && isContainer

	if selfConditional && !isPseudocontainer && field.Calculated == nil && !field.IsPad {
		realSource := c.allocRegister()
		c.Instructions = append(c.Instructions, NullCheck{
			Source:   source,
			Target:   realSource,
			Copyable: field.Copyable(),
			Message:  fmt.Sprintf("failed null check for conditional field %s", field.Name),
		})
		source = realSource
	}

	switch {
	case field.IsPad:
		arrayType, ok := field.Type.(*asg.ArrayType)
		if !ok {
			panic("pad field is not an array")
		}
		length := c.eval(arrayType.Length.Value)
		c.Instructions = append(c.Instructions, Pad{Target: target, Len: length})
	case field.Calculated != nil:
		// calculated fields are recomputed from content on encode
		value := c.eval(field.Calculated)
		c.encodeComplexType(field, field.Type, target, resolver, value)
	default:
		c.encodeComplexType(field, field.Type, target, resolver, source)
	}

	for i := len(newStreams) - 1; i >= 0; i-- {
		c.Instructions = append(c.Instructions, EndStream{Stream: newStreams[i].wrapped})
		if newStreams[i].owned != nil {
			c.Instructions = append(c.Instructions, Drop{Register: *newStreams[i].owned})
		}
	}
}

func (c *Context) encodeComplexType(field *asg.Field, typ asg.Type, target coder.Target, resolver Resolver, source coder.Register) {
	if containerType, ok := typ.(*asg.ContainerType); ok {
		c.encodeContainer(field, containerType, target, resolver, source)
		return
	}
	c.encodeType(typ, target, source)
}

func (c *Context) encodeType(typ asg.Type, target coder.Target, source coder.Register) {
	switch t := typ.(type) {
	case *asg.ContainerType:
		panic("invalid container in non-complex context")
	case *asg.ArrayType:
		c.encodeArray(t, target, source)
	case *asg.EnumType:
		c.Instructions = append(c.Instructions, EncodeEnum{
			Type:   coder.ScalarPrimitive(astBig(t.Rep)),
			Target: target,
			Source: source,
		})
	case *asg.BitfieldType:
		c.Instructions = append(c.Instructions, EncodeBitfield{
			Type:   coder.ScalarPrimitive(astBig(t.Rep)),
			Target: target,
			Source: source,
		})
	case *asg.ScalarValue:
		c.Instructions = append(c.Instructions, EncodePrimitive{
			Target: target, Source: source, Type: coder.ScalarPrimitive(t.Scalar),
		})
	case *asg.F32Type:
		c.Instructions = append(c.Instructions, EncodePrimitive{
			Target: target, Source: source, Type: coder.PrimitiveType{Kind: coder.PrimitiveF32},
		})
	case *asg.F64Type:
		c.Instructions = append(c.Instructions, EncodePrimitive{
			Target: target, Source: source, Type: coder.PrimitiveType{Kind: coder.PrimitiveF64},
		})
	case *asg.BoolType:
		c.Instructions = append(c.Instructions, EncodePrimitive{
			Target: target, Source: source, Type: coder.PrimitiveType{Kind: coder.PrimitiveBool},
		})
	case *asg.ForeignType:
		c.Instructions = append(c.Instructions, EncodeForeign{
			Target: target, Source: source, Type: t,
		})
	case *asg.RefType:
		c.encodeVarRef(t, target, source)
	default:
		panic(fmt.Sprintf("unknown type %T in encode", typ))
	}
}

// encodeVarRef lowers a named-type use. Foreign targets may resolve
// auto fields through arguments marked CanResolveAuto (a utf8 length,
// for instance).
func (c *Context) encodeVarRef(ref *asg.RefType, target coder.Target, source coder.Register) {
	var args []coder.Register
	for _, arg := range ref.Arguments {
		args = append(args, c.eval(arg))
	}
	if foreign, ok := ref.Target.Type.(*asg.ForeignType); ok {
		formals := foreign.Obj.Arguments()
		for i, expr := range ref.Arguments {
			if i < len(formals) && formals[i].CanResolveAuto {
				if fieldRef, ok := expr.(*asg.FieldRef); ok && fieldRef.Field.IsAuto {
					cast := autoCastType(fieldRef.Field)
					lenTarget := c.allocRegister()
					c.Instructions = append(c.Instructions, GetLen{
						Target: lenTarget, Source: source, Cast: &cast,
					})
					c.ResolvedAutos.Set(fieldRef.Field.Name, lenTarget)
				}
			}
		}
		c.Instructions = append(c.Instructions, EncodeForeign{
			Target: target, Source: source, Type: foreign, Arguments: args,
		})
		return
	}
	c.Instructions = append(c.Instructions, EncodeRef{
		Target: target, Source: source, Name: ref.Target.Name, Arguments: args,
	})
}
