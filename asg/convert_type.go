package asg

import (
	"fmt"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/internal/ordered"
	"github.com/protospec-dev/protospec/reporter"
)

// convertASTType lowers a raw syntactic type. nameHint names enum and
// bitfield types after their declaration so generated code has a
// stable identifier.
func (s *Scope) convertASTType(typ ast.RawType, toplevel bool, nameHint string) (Type, error) {
	switch value := typ.(type) {
	case *ast.Container:
		return s.convertContainerType(value, toplevel)
	case *ast.EnumDef:
		items, err := s.convertEnumItems(value.Rep, value.Items, value.Loc, "enum variant", false)
		if err != nil {
			return nil, err
		}
		out := &EnumType{Name: nameHint, Rep: value.Rep}
		for _, it := range items {
			out.Items.Set(it.Name, it)
		}
		return out, nil
	case *ast.BitfieldDef:
		items, err := s.convertEnumItems(value.Rep, value.Items, value.Loc, "bitfield flag", true)
		if err != nil {
			return nil, err
		}
		out := &BitfieldType{Name: nameHint, Rep: value.Rep}
		for _, it := range items {
			out.Items.Set(it.Name, it)
		}
		return out, nil
	case *ast.ScalarRaw:
		return NewScalar(value.Scalar), nil
	case *ast.ArrayRaw:
		length, err := s.convertLength(&value.Length)
		if err != nil {
			return nil, err
		}
		element, err := s.convertASTType(value.Element.Type.Raw, false, nameHint+"Item")
		if err != nil {
			return nil, err
		}
		switch element.(type) {
		case *ContainerType, *EnumType, *BitfieldType:
			return nil, reporter.Error(value.Loc, &ErrInlineRepetition{Loc: value.Loc})
		}
		elementField := &Field{
			Name: "$array_field",
			Span: value.Loc,
			Type: element,
		}
		// an element-level condition carries over from the syntactic
		// element field; element transforms are not lowered
		if value.Element.Condition != nil {
			cond, err := s.convertExpr(value.Element.Condition, PartialOf(Bool))
			if err != nil {
				return nil, err
			}
			elementField.Condition = cond
		}
		return &ArrayType{Element: elementField, Length: *length}, nil
	case *ast.F32Raw:
		return F32, nil
	case *ast.F64Raw:
		return F64, nil
	case *ast.BoolRaw:
		return Bool, nil
	case *ast.RefRaw:
		return s.convertTypeCall(&value.Call)
	default:
		panic(fmt.Sprintf("unknown raw type %T", typ))
	}
}

func (s *Scope) convertLength(length *ast.LengthConstraint) (*LengthConstraint, error) {
	out := &LengthConstraint{Expandable: length.Expandable}
	if length.Inner != nil {
		expected := PartialScalar(PartialScalarDefaults, ast.U64)
		if length.Expandable {
			// the inner expression of an expandable constraint is the
			// terminator byte string, not a count
			element := PartialScalar(PartialScalarSome, ast.U8)
			expected = PartialArray(&element)
		}
		value, err := s.convertExpr(length.Inner, expected)
		if err != nil {
			return nil, err
		}
		out.Value = value
	}
	return out, nil
}

func (s *Scope) convertContainerType(value *ast.Container, toplevel bool) (Type, error) {
	var length Expression
	if value.Length != nil {
		var err error
		length, err = s.convertExpr(value.Length, PartialScalar(PartialScalarSome, ast.U64))
		if err != nil {
			return nil, err
		}
	}

	isEnum := false
	for _, flag := range value.Flags {
		switch flag.Name {
		case "tagged_enum":
			isEnum = true
		default:
			return nil, reporter.Error(flag.Loc, &ErrInvalidFlag{Flag: flag.Name, Loc: flag.Loc})
		}
	}
	if isEnum && !toplevel {
		return nil, reporter.Error(value.Loc, &ErrMustBeToplevel{Loc: value.Loc})
	}

	subScope := s.push()
	var items ordered.Map[*Field]
	hadUnconditional := false
	for i := range value.Items {
		item := &value.Items[i]
		name := item.Name.Name
		if prev, ok := items.Get(name); ok {
			return nil, reporter.Error(item.Name.Loc, &ErrRedefinition{
				Kind: "container field", Name: name, NewSpan: item.Name.Loc, OldSpan: prev.Span,
			})
		}
		if item.IsPad && isEnum {
			return nil, reporter.Error(item.Loc, &ErrEnumContainerPad{Loc: item.Loc})
		}
		fieldOut := &Field{
			Name:  name,
			Span:  item.Value.Loc,
			Type:  Bool, // placeholder while the body lowers
			IsPad: item.IsPad,
		}
		if err := subScope.convertASTField(&item.Value, fieldOut); err != nil {
			return nil, err
		}
		if isEnum && hadUnconditional {
			return nil, reporter.Error(item.Value.Loc, &ErrEnumContainerFieldAfterUnconditional{Loc: item.Value.Loc})
		}
		if fieldOut.Condition == nil {
			hadUnconditional = true
		}
		subScope.DeclaredFields.Set(name, fieldOut)
		items.Set(name, fieldOut)
	}

	out := &ContainerType{Length: length, IsEnum: isEnum}
	out.Items = items
	return out, nil
}

// convertEnumItems lowers enum variants or bitfield flags. Undefined
// values are synthesized relative to the last defined value: +1 for
// enums, << 1 per step for bitfields.
func (s *Scope) convertEnumItems(rep ast.ScalarType, astItems []ast.EnumItem, span ast.Span, kind string, bitfield bool) ([]*Const, error) {
	var items []*Const
	byName := map[string]*Const{}
	var lastDefined *Const
	undefinedCounter := 0
	for _, item := range astItems {
		name := item.Name.Name
		if prev, ok := byName[name]; ok {
			return nil, reporter.Error(item.Name.Loc, &ErrRedefinition{
				Kind: kind, Name: name, NewSpan: item.Name.Loc, OldSpan: prev.Span,
			})
		}
		var value Expression
		if item.Value != nil {
			var err error
			value, err = s.convertExpr(item.Value, PartialScalar(PartialScalarSome, rep))
			if err != nil {
				return nil, err
			}
		} else {
			if lastDefined == nil {
				// no prior defined value: enums start at 0, bitfields
				// at bit 0 scaled by position
				base := int64(undefinedCounter)
				if bitfield {
					base = 1 << uint(undefinedCounter)
				}
				value = &IntLiteral{Value: NewConstInt(rep, base), Type: rep, Span: item.Name.Loc}
			} else {
				op := ast.OpAdd
				if bitfield {
					op = ast.OpShl
				}
				step, err := ParseConstInt(rep, fmt.Sprintf("%d", undefinedCounter), item.Name.Loc)
				if err != nil {
					return nil, err
				}
				value = &BinaryExpression{
					Op:    op,
					Left:  &ConstRef{Const: lastDefined, Span: item.Name.Loc},
					Right: &IntLiteral{Value: step, Type: rep, Span: item.Name.Loc},
					Span:  span,
				}
			}
		}
		cons := &Const{
			Name:  name,
			Span:  item.Name.Loc,
			Type:  NewScalar(rep),
			Value: value,
		}
		if item.Value != nil {
			lastDefined = cons
			undefinedCounter = 1
		} else {
			undefinedCounter++
		}
		byName[name] = cons
		items = append(items, cons)
	}
	return items, nil
}

// convertTypeCall resolves a named type use with its actual arguments.
func (s *Scope) convertTypeCall(call *ast.TypeCall) (Type, error) {
	target, ok := s.Program.Types.Get(call.Name.Name)
	if !ok {
		return nil, reporter.Error(call.Name.Loc, &ErrUnresolved{Kind: "type", Name: call.Name.Name, Loc: call.Name.Loc})
	}
	targetArgs := target.Arguments
	required := 0
	for _, a := range targetArgs {
		if a.DefaultValue == nil {
			required++
		}
	}
	// defaulted arguments must be a suffix of the declaration
	seenDefault := false
	for _, a := range targetArgs {
		if a.DefaultValue != nil {
			seenDefault = true
		} else if seenDefault {
			return nil, reporter.Error(call.Loc, &ErrInvalidTypeArgumentOrder{Loc: call.Loc})
		}
	}
	if len(call.Arguments) < required || len(call.Arguments) > len(targetArgs) {
		return nil, reporter.Error(call.Loc, &ErrInvalidTypeArgumentCount{
			Min: required, Max: len(targetArgs), Got: len(call.Arguments), Loc: call.Loc,
		})
	}
	var arguments []Expression
	for i, expr := range call.Arguments {
		arg, err := s.convertExpr(expr, PartialOf(targetArgs[i].Type))
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, arg)
	}
	return &RefType{Target: target, Arguments: arguments}, nil
}
