package decode

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
)

// decodeContainer bounds the source when the container carries a
// length, then decodes either the struct or the tagged-enum form.
func (c *Context) decodeContainer(field *asg.Field, typ *asg.ContainerType, source coder.Target) []coder.Register {
	bufTarget := source
	if typ.Length != nil {
		lenRegister := c.eval(typ.Length)
		sub := c.allocRegister()
		c.Instructions = append(c.Instructions, Constrict{
			Source:    source,
			NewStream: sub,
			Len:       lenRegister,
		})
		bufTarget = coder.Stream(sub)
	}
	if typ.IsEnum {
		return c.decodeEnumContainer(field, typ, bufTarget)
	}
	return c.decodeStructContainer(field, typ, bufTarget)
}

func (c *Context) decodeStructContainer(field *asg.Field, typ *asg.ContainerType, bufTarget coder.Target) []coder.Register {
	var decodedFields []coder.Register
	typ.Items.Range(func(name string, child *asg.Field) bool {
		decoded := c.decodeField(bufTarget, child)
		decodedFields = append(decodedFields, decoded...)
		if _, isContainer := child.Type.(*asg.ContainerType); !isContainer && len(decoded) > 0 {
			c.FieldRegisterMap[name] = decoded[len(decoded)-1]
		}
		return true
	})
	if !field.Toplevel {
		return decodedFields
	}
	emitted := c.allocRegister()
	var items []ConstructItem
	for _, flat := range typ.FlattenView() {
		if flat.Field.IsPad {
			continue
		}
		register, ok := c.FieldRegisterMap[flat.Name]
		if !ok {
			panic(fmt.Sprintf("missing register for field %q", flat.Name))
		}
		items = append(items, ConstructItem{Name: flat.Name, Register: register})
	}
	c.Instructions = append(c.Instructions, Construct{
		Target: emitted,
		Value:  ConstructStruct{Name: field.Name, Items: items},
	})
	return []coder.Register{emitted}
}

// decodeEnumContainer iterates the arms of a tagged enum: evaluate the
// arm condition, decode and return on match, fall through otherwise.
// Exhausting every arm is a decode error.
func (c *Context) decodeEnumContainer(field *asg.Field, typ *asg.ContainerType, bufTarget coder.Target) []coder.Register {
	result := []coder.Register(nil)
	unconditional := false
	typ.Items.Range(func(name string, child *asg.Field) bool {
		condition, conditional := c.decodeFieldCondition(child)
		start := len(c.Instructions)
		decoded := c.decodeFieldUnconditional(bufTarget, child)
		target := c.allocRegister()

		if containerType, ok := child.Type.(*asg.ContainerType); ok {
			var values []ConstructItem
			for _, flat := range containerType.FlattenView() {
				if flat.Field.IsPad {
					continue
				}
				register, ok := c.FieldRegisterMap[flat.Name]
				if !ok {
					panic(fmt.Sprintf("missing register for field %q", flat.Name))
				}
				values = append(values, ConstructItem{Name: flat.Name, Register: register})
			}
			c.Instructions = append(c.Instructions, Construct{
				Target: target,
				Value: ConstructTaggedEnumStruct{
					Name:         field.Name,
					Discriminant: name,
					Values:       values,
				},
			})
		} else {
			if len(decoded) == 0 {
				panic("tagged enum arm decoded no value")
			}
			c.Instructions = append(c.Instructions, Construct{
				Target: target,
				Value: ConstructTaggedEnum{
					Name:         field.Name,
					Discriminant: name,
					Values:       []coder.Register{decoded[0]},
				},
			})
		}

		if conditional {
			c.Instructions = append(c.Instructions, Return{Register: target})
			body := c.drain(start)
			c.Instructions = append(c.Instructions, ConditionalPredicate{
				Condition: condition,
				Body:      body,
			})
			return true
		}
		result = []coder.Register{target}
		unconditional = true
		return false
	})
	if unconditional {
		return result
	}
	c.Instructions = append(c.Instructions, Error{
		Message: fmt.Sprintf("no enum conditions matched for %s", field.Name),
	})
	return nil
}
