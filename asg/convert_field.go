package asg

import (
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/reporter"
)

// convertASTFieldArguments lowers the formal-argument list of a
// top-level field in a freshly pushed scope; each argument is bound as
// an Input visible inside the field body.
func (s *Scope) convertASTFieldArguments(into *Field, astArguments []ast.TypeArgument) (*Scope, error) {
	subScope := s.push()
	var arguments []TypeArgument
	seenDefault := false
	for _, argument := range astArguments {
		targetType, err := subScope.convertASTType(argument.Type.Raw, false, argument.Name.Name)
		if err != nil {
			return nil, err
		}
		subScope.DeclaredInputs.Set(argument.Name.Name, &Input{
			Name: argument.Name.Name,
			Type: targetType,
		})
		var defaultValue Expression
		if argument.DefaultValue != nil {
			defaultValue, err = subScope.convertExpr(argument.DefaultValue, PartialOf(targetType))
			if err != nil {
				return nil, err
			}
			seenDefault = true
		} else if seenDefault {
			// defaulted arguments must be a suffix
			return nil, reporter.Error(argument.Loc, &ErrInvalidTypeArgumentOrder{Loc: argument.Loc})
		}
		arguments = append(arguments, TypeArgument{
			Name:         argument.Name.Name,
			Type:         targetType,
			DefaultValue: defaultValue,
		})
	}
	into.Arguments = arguments
	return subScope, nil
}

// convertASTField lowers a field body (type, condition, transforms,
// flags) into an already allocated Field.
func (s *Scope) convertASTField(field *ast.Field, into *Field) error {
	var condition Expression
	if field.Condition != nil {
		var err error
		condition, err = s.convertExpr(field.Condition, PartialOf(Bool))
		if err != nil {
			return err
		}
	}

	asgType, err := s.convertASTType(field.Type.Raw, into.Toplevel, into.Name)
	if err != nil {
		return err
	}

	var transforms []TypeTransform
	for i := range field.Transforms {
		t := &field.Transforms[i]
		defTransform, ok := s.Program.Transforms.Get(t.Name.Name)
		if !ok {
			return reporter.Error(t.Name.Loc, &ErrUnresolved{Kind: "transform", Name: t.Name.Name, Loc: t.Name.Loc})
		}
		arguments, err := s.convertFFIArguments(t.Loc, t.Arguments, defTransform.Arguments)
		if err != nil {
			return err
		}
		var transformCondition Expression
		if t.Conditional != nil {
			transformCondition, err = s.convertExpr(t.Conditional, PartialOf(Bool))
			if err != nil {
				return err
			}
		}
		transforms = append(transforms, TypeTransform{
			Transform: defTransform,
			Condition: transformCondition,
			Arguments: arguments,
		})
	}

	isAuto := false
	for _, flag := range field.Flags {
		switch flag.Name {
		case "auto":
			switch resolved := Resolved(asgType).(type) {
			case *ScalarValue:
			case *ForeignType:
				if _, ok := resolved.Obj.CanReceiveAuto(); !ok {
					return reporter.Error(field.Type.Loc, &ErrTypeNotAutoCompatible{Type: resolved.String(), Loc: field.Type.Loc})
				}
			default:
				return reporter.Error(field.Type.Loc, &ErrTypeNotAutoCompatible{Type: resolved.String(), Loc: field.Type.Loc})
			}
			isAuto = true
		default:
			return reporter.Error(flag.Loc, &ErrInvalidFlag{Flag: flag.Name, Loc: flag.Loc})
		}
	}

	var calculated Expression
	if field.Calculated != nil {
		calculated, err = s.convertExpr(field.Calculated, PartialOf(asgType))
		if err != nil {
			return err
		}
	}

	into.Type = asgType
	into.Condition = condition
	into.Transforms = transforms
	into.IsAuto = isAuto
	into.Calculated = calculated
	return nil
}
