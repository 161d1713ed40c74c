package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

// exported upper-cases the first rune so the identifier is visible
// outside the generated package and turns hyphens into underscores; the
// rest of the user's spelling is preserved.
func exported(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return strings.ReplaceAll(string(runes), "-", "_")
}

// sanitizeIdent rewrites the hyphens the schema language permits in
// identifiers into something Go accepts.
func sanitizeIdent(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func scalarGoType(s ast.ScalarType) string {
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

func isBigScalar(s ast.ScalarType) bool {
	return s == ast.U128 || s == ast.I128
}

// goTypeRef maps a semantic type to the Go type generated values have.
func (g *generator) goTypeRef(t asg.Type) string {
	switch typ := t.(type) {
	case *asg.ScalarValue:
		return scalarGoType(typ.Scalar.Scalar)
	case *asg.F32Type:
		return "float32"
	case *asg.F64Type:
		return "float64"
	case *asg.BoolType:
		return "bool"
	case *asg.EnumType:
		return exported(typ.Name)
	case *asg.BitfieldType:
		return exported(typ.Name)
	case *asg.ArrayType:
		return "[]" + g.goTypeRef(typ.Element.Type)
	case *asg.ForeignType:
		return typ.Obj.TypeRef()
	case *asg.ContainerType:
		panic("inline container has no type reference")
	case *asg.RefType:
		if foreign, ok := typ.Target.Type.(*asg.ForeignType); ok {
			return foreign.Obj.TypeRef()
		}
		return exported(typ.Target.Name)
	default:
		panic(fmt.Sprintf("unknown type %T", t))
	}
}

// fieldGoType is goTypeRef with the conditional pointer wrapper.
func (g *generator) fieldGoType(f *asg.Field) string {
	ref := g.goTypeRef(f.Type)
	if f.Condition != nil {
		return "*" + ref
	}
	return ref
}

// emitTypeDecl prints the Go declaration(s) for one top-level field.
func (g *generator) emitTypeDecl(p *printer, field *asg.Field) {
	name := exported(field.Name)
	switch t := field.Type.(type) {
	case *asg.ForeignType:
		// foreign types are inlined at use sites; no declaration
	case *asg.ContainerType:
		if t.IsEnum {
			g.emitTaggedEnumDecl(p, field, t)
			g.emitNestedReprDecls(p, t)
			return
		}
		g.emitNestedReprDecls(p, t)
		p.p("type %s struct {", name)
		p.in()
		for _, flat := range t.FlattenView() {
			if flat.Field.IsPad {
				continue
			}
			p.p("%s %s", exported(flat.Name), g.fieldGoType(flat.Field))
		}
		p.out()
		p.p("}")
		p.p("")
		g.emitDerives(p, name, g.opts.StructDerives)
	case *asg.EnumType:
		goName := exported(t.Name)
		rep := scalarGoType(t.Rep)
		p.p("type %s %s", goName, rep)
		p.p("")
		p.p("const (")
		p.in()
		t.Items.Range(func(variant string, cons *asg.Const) bool {
			value, ok := asg.EvalConst(cons.Value)
			if !ok || value.Int == nil {
				panic(fmt.Sprintf("enum variant %s::%s does not fold", t.Name, variant))
			}
			p.p("%s_%s %s = %s", goName, sanitizeIdent(variant), goName, value.Int)
			return true
		})
		p.out()
		p.p(")")
		p.p("")
		g.emitFromRepr(p, goName, rep, t)
		g.emitEnumDerives(p, goName, t, g.opts.EnumDerives)
	case *asg.BitfieldType:
		goName := exported(t.Name)
		rep := scalarGoType(t.Rep)
		p.p("type %s %s", goName, rep)
		p.p("")
		p.p("const (")
		p.in()
		t.Items.Range(func(flag string, cons *asg.Const) bool {
			value, ok := asg.EvalConst(cons.Value)
			if !ok || value.Int == nil {
				panic(fmt.Sprintf("bitfield flag %s.%s does not fold", t.Name, flag))
			}
			p.p("%s_%s %s = %s", goName, sanitizeIdent(flag), goName, value.Int)
			return true
		})
		p.out()
		p.p(")")
		p.p("")
	default:
		// newtype wrapper for scalar, float, bool, array, and ref
		// top-level fields
		inner := g.goTypeRef(field.Type)
		if field.Condition != nil {
			inner = "*" + inner
		}
		p.p("type %s struct {", name)
		p.in()
		p.p("Inner %s", inner)
		p.out()
		p.p("}")
		p.p("")
		g.emitDerives(p, name, g.opts.StructDerives)
	}
}

// emitNestedReprDecls prints declarations for enum and bitfield types
// defined inline inside a container body.
func (g *generator) emitNestedReprDecls(p *printer, t *asg.ContainerType) {
	var walk func(typ asg.Type)
	walk = func(typ asg.Type) {
		switch inner := typ.(type) {
		case *asg.EnumType:
			g.emitTypeDecl(p, &asg.Field{Name: inner.Name, Type: inner})
		case *asg.BitfieldType:
			g.emitTypeDecl(p, &asg.Field{Name: inner.Name, Type: inner})
		case *asg.ContainerType:
			inner.Items.Range(func(_ string, child *asg.Field) bool {
				walk(child.Type)
				return true
			})
		case *asg.ArrayType:
			walk(inner.Element.Type)
		}
	}
	t.Items.Range(func(_ string, child *asg.Field) bool {
		walk(child.Type)
		return true
	})
}

// emitTaggedEnumDecl prints the sealed interface plus one variant type
// per arm.
func (g *generator) emitTaggedEnumDecl(p *printer, field *asg.Field, t *asg.ContainerType) {
	name := exported(field.Name)
	p.p("type %s interface {", name)
	p.in()
	p.p("is%s()", name)
	p.out()
	p.p("}")
	p.p("")
	t.Items.Range(func(arm string, child *asg.Field) bool {
		variant := name + exported(arm)
		if container, ok := child.Type.(*asg.ContainerType); ok {
			p.p("type %s struct {", variant)
			p.in()
			for _, flat := range container.FlattenView() {
				if flat.Field.IsPad {
					continue
				}
				p.p("%s %s", exported(flat.Name), g.fieldGoType(flat.Field))
			}
			p.out()
			p.p("}")
		} else {
			p.p("type %s struct {", variant)
			p.in()
			p.p("Value %s", g.goTypeRef(child.Type))
			p.out()
			p.p("}")
		}
		p.p("")
		p.p("func (%s) is%s() {}", variant, name)
		p.p("")
		return true
	})
}

// emitFromRepr prints the discriminant validation helper: a decoded
// enum either maps to a registered variant, falls back to the default
// arm, or fails.
func (g *generator) emitFromRepr(p *printer, goName, rep string, t *asg.EnumType) {
	p.p("func %sFromRepr(v %s) (%s, error) {", lowerFirst(goName), rep, goName)
	p.in()
	p.p("switch %s(v) {", goName)
	t.Items.Range(func(variant string, _ *asg.Const) bool {
		if variant == "default" {
			return true
		}
		p.p("case %s_%s:", goName, sanitizeIdent(variant))
		p.in()
		p.p("return %s(v), nil", goName)
		p.out()
		return true
	})
	p.p("}")
	if t.HasDefault() {
		p.p("return %s_default, nil", goName)
	} else {
		p.p("return 0, &DecodeError{Message: fmt.Sprintf(\"unknown %s discriminant %%v\", v)}", goName)
	}
	p.out()
	p.p("}")
	p.p("")
}

// emitDerives prints the auxiliary methods selected by the derive
// lists. Unknown derive names are ignored so option bundles written
// for other targets still work.
func (g *generator) emitDerives(p *printer, name string, derives []string) {
	for _, derive := range derives {
		switch derive {
		case "Debug", "String":
			p.p("func (v %s) String() string {", name)
			p.in()
			p.p("type plain %s", name)
			p.p("return fmt.Sprintf(\"%s%%+v\", plain(v))", name)
			p.out()
			p.p("}")
			p.p("")
		case "Eq", "PartialEq", "Equal":
			p.p("func (v %s) Equal(other %s) bool { return psEqual(v, other) }", name, name)
			p.p("")
		}
	}
}

// emitEnumDerives prints derive methods for repr-backed enum types.
func (g *generator) emitEnumDerives(p *printer, goName string, t *asg.EnumType, derives []string) {
	for _, derive := range derives {
		switch derive {
		case "Debug", "String":
			p.p("func (v %s) String() string {", goName)
			p.in()
			p.p("switch v {")
			t.Items.Range(func(variant string, _ *asg.Const) bool {
				p.p("case %s_%s:", goName, sanitizeIdent(variant))
				p.in()
				p.p("return %q", goName+"::"+variant)
				p.out()
				return true
			})
			p.p("}")
			p.p("return fmt.Sprintf(\"%s(%%d)\", %s(v))", goName, scalarGoType(t.Rep))
			p.out()
			p.p("}")
			p.p("")
		}
	}
}

func lowerFirst(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// emitConsts prints program constants as folded Go declarations.
func (g *generator) emitConsts(p *printer, program *asg.Program) {
	program.Consts.Range(func(name string, cons *asg.Const) bool {
		value, ok := asg.EvalConst(cons.Value)
		switch {
		case ok && value.Int != nil:
			if isBigScalar(value.Int.Type) {
				p.p("var %s = psBigLit(%q)", exported(name), value.Int.String())
			} else {
				p.p("const %s %s = %s", exported(name), scalarGoType(value.Int.Type), value.Int)
			}
		case ok && value.Bool != nil:
			p.p("const %s = %v", exported(name), *value.Bool)
		case ok && value.Bytes != nil:
			p.p("var %s = %s", exported(name), byteSliceLit(value.Bytes))
		default:
			panic(fmt.Sprintf("const %s does not fold", name))
		}
		p.p("")
		return true
	})
}

func byteSliceLit(b []byte) string {
	var sb strings.Builder
	sb.WriteString("[]byte{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x", v)
	}
	sb.WriteString("}")
	return sb.String()
}
