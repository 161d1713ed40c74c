package encode

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/coder"
)

func astBig(s ast.ScalarType) ast.EndianScalar { return ast.BigScalar(s) }

// autoCastType is the scalar width an auto field's length is cast to.
func autoCastType(field *asg.Field) ast.ScalarType {
	switch t := asg.Resolved(field.Type).(type) {
	case *asg.ScalarValue:
		return t.Scalar.Scalar
	case *asg.ForeignType:
		if s, ok := t.Obj.CanReceiveAuto(); ok {
			return s
		}
	}
	panic("bad type for auto field " + field.Name)
}

// resolveAuto materializes an auto field's value as the length of the
// content in source.
func (c *Context) resolveAuto(field *asg.Field, source coder.Register) coder.Register {
	cast := autoCastType(field)
	target := c.allocRegister()
	c.Instructions = append(c.Instructions, GetLen{
		Target: target,
		Source: source,
		Cast:   &cast,
	})
	c.ResolvedAutos.Set(field.Name, target)
	return target
}

// checkAuto resolves an auto field referenced (possibly through casts)
// by a length expression, using source as the measured content.
// Returns ok=false when the expression does not resolve an auto field.
func (c *Context) checkAuto(base asg.Expression, source coder.Register) (coder.Register, bool) {
	switch e := base.(type) {
	case *asg.FieldRef:
		if e.Field.IsAuto {
			return c.resolveAuto(e.Field, source), true
		}
	case *asg.CastExpression:
		return c.checkAuto(e.Inner, source)
	}
	return 0, false
}
