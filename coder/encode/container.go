package encode

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
)

// encodeContainerItems writes each child in declaration order. Auto
// fields are not written in source order: each allocates a dynamic
// buffer that subsequent children write into; once a later site
// resolves the auto value, the auto field itself is written to the
// enclosing target followed by the deferred buffer. Auto buffers
// resolve strictly LIFO.
func (c *Context) encodeContainerItems(container *asg.ContainerType, bufTarget coder.Target, resolver Resolver, source coder.Register) {
	type pendingAuto struct {
		buf   coder.Register
		field *asg.Field
	}
	var autoStack []pendingAuto

	container.Items.Range(func(name string, child *asg.Field) bool {
		if child.IsAuto {
			buf := c.allocRegister()
			c.Instructions = append(c.Instructions, AllocDynBuf{Buf: buf})
			autoStack = append(autoStack, pendingAuto{buf: buf, field: child})
			return true
		}
		realTarget := bufTarget
		if len(autoStack) > 0 {
			realTarget = coder.Buf(autoStack[len(autoStack)-1].buf)
		}
		_, isContainer := child.Type.(*asg.ContainerType)
		if isContainer || child.IsPad {
			c.encodeField(realTarget, resolver, source, child)
		} else {
			resolved := resolver(c, name)
			c.encodeField(realTarget, resolver, resolved, child)
		}

		// drain every resolved auto from the top of the stack
		for len(autoStack) > 0 {
			top := autoStack[len(autoStack)-1]
			resolved, ok := c.ResolvedAutos.Get(top.field.Name)
			if !ok {
				break
			}
			autoStack = autoStack[:len(autoStack)-1]
			target := bufTarget
			if len(autoStack) > 0 {
				target = coder.Buf(autoStack[len(autoStack)-1].buf)
			}
			c.encodeField(target, resolver, resolved, top.field)
			c.Instructions = append(c.Instructions, EmitBuf{Target: target, Buf: top.buf})
		}
		return true
	})

	if len(autoStack) > 0 {
		panic(fmt.Sprintf("unresolved +auto field: %s", autoStack[len(autoStack)-1].field.Name))
	}
}

// encodeContainer writes a container, buffering it when
// length-bounded, and dispatching tagged-enum containers through a
// break block of unwrap arms.
func (c *Context) encodeContainer(field *asg.Field, typ *asg.ContainerType, target coder.Target, resolver Resolver, source coder.Register) {
	bufTarget := target
	if typ.Length != nil {
		lenRegister := c.eval(typ.Length)
		buf := c.allocRegister()
		c.Instructions = append(c.Instructions, AllocBuf{Buf: buf, Len: lenRegister})
		bufTarget = coder.Buf(buf)
	}

	if typ.IsEnum {
		breakStart := len(c.Instructions)
		typ.Items.Range(func(name string, child *asg.Field) bool {
			condition, conditional := c.encodeFieldCondition(child)
			start := len(c.Instructions)

			if containerType, ok := child.Type.(*asg.ContainerType); ok {
				var unwrapped []UnwrapItem
				for _, flat := range containerType.FlattenView() {
					if flat.Field.IsPad {
						continue
					}
					unwrapped = append(unwrapped, UnwrapItem{
						Name:     flat.Name,
						Register: c.allocRegister(),
					})
				}
				c.Instructions = append(c.Instructions, UnwrapEnumStruct{
					Name:         field.Name,
					Discriminant: name,
					Source:       source,
					Targets:      unwrapped,
					Message:      "mismatch between condition and enum discriminant",
				})
				registers := map[string]coder.Register{}
				for _, item := range unwrapped {
					registers[item.Name] = item.Register
				}
				armResolver := Resolver(func(_ *Context, name string) coder.Register {
					r, ok := registers[name]
					if !ok {
						panic("illegal field ref in tagged enum arm")
					}
					return r
				})
				c.encodeContainerItems(containerType, bufTarget, armResolver, source)
				c.Instructions = append(c.Instructions, Break{})
			} else {
				unwrapped := c.allocRegister()
				c.Instructions = append(c.Instructions, UnwrapEnum{
					Name:         field.Name,
					Discriminant: name,
					Source:       source,
					Target:       unwrapped,
					Message:      "mismatch between condition and enum discriminant",
				})
				armResolver := Resolver(func(_ *Context, _ string) coder.Register {
					panic("field refs illegal in raw enum value")
				})
				c.encodeFieldUnconditional(bufTarget, armResolver, unwrapped, child, false)
				c.Instructions = append(c.Instructions, Break{})
			}

			if conditional {
				body := c.drain(start)
				c.Instructions = append(c.Instructions, Conditional{Condition: condition, Then: body})
			}
			return true
		})
		body := c.drain(breakStart)
		c.Instructions = append(c.Instructions, BreakBlock{Body: body})
	} else {
		c.encodeContainerItems(typ, bufTarget, resolver, source)
	}

	if typ.Length != nil {
		buf := bufTarget.UnwrapBuf()
		c.checkAuto(typ.Length, buf)
		c.Instructions = append(c.Instructions, EmitBuf{Target: target, Buf: buf})
	}
}
