package asg

import (
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/reporter"
)

// convertExpr lowers a syntactic expression against an expected
// partial type, then coerces the result to the expectation by
// inserting a cast when the coercion relation permits.
func (s *Scope) convertExpr(expr ast.Expression, expectedType PartialType) (Expression, error) {
	out, err := s.convertExprInner(expr, expectedType)
	if err != nil {
		return nil, err
	}
	outType := out.GetType()
	if outType == nil {
		return out, nil
	}
	if expectedType.AssignableFrom(outType) {
		return out, nil
	}
	if expectedType.CoercableFrom(outType) {
		target, ok := expectedType.IntoType()
		if ok {
			return &CastExpression{Inner: out, Type: target, Span: expr.Span()}, nil
		}
	}
	return nil, reporter.Error(expr.Span(), &ErrUnexpectedType{
		Got: outType.String(), Expected: expectedType.String(), Loc: expr.Span(),
	})
}

func (s *Scope) convertExprInner(expr ast.Expression, expectedType PartialType) (Expression, error) {
	switch e := expr.(type) {
	case *ast.BinaryExpression:
		return s.convertBinaryExpr(e, expectedType)
	case *ast.UnaryExpression:
		return s.convertUnaryExpr(e, expectedType)
	case *ast.CastExpression:
		return s.convertCastExpr(e, expectedType)
	case *ast.ArrayIndexExpression:
		array, err := s.convertExpr(e.Array, PartialArray(&expectedType))
		if err != nil {
			return nil, err
		}
		index, err := s.convertExpr(e.Index, PartialScalar(PartialScalarSome, ast.U64))
		if err != nil {
			return nil, err
		}
		return &ArrayIndexExpression{Array: array, Index: index, Span: e.Loc}, nil
	case *ast.EnumAccessExpression:
		return s.convertEnumAccessExpr(e, expectedType)
	case *ast.MemberExpression:
		return s.convertMemberExpr(e, expectedType)
	case *ast.Int:
		return s.convertIntExpr(e, expectedType)
	case *ast.Bool:
		if !expectedType.AssignableFrom(Bool) {
			return nil, reporter.Error(e.Loc, &ErrUnexpectedType{
				Got: "bool", Expected: expectedType.String(), Loc: e.Loc,
			})
		}
		return &BoolLiteral{Value: e.Value, Span: e.Loc}, nil
	case *ast.Ident:
		// search order: local fields, then inputs, then consts
		if field, ok := s.ResolveField(e.Name); ok {
			return &FieldRef{Field: field, Span: e.Loc}, nil
		}
		if input, ok := s.ResolveInput(e.Name); ok {
			return &InputRef{Input: input, Span: e.Loc}, nil
		}
		if cons, ok := s.Program.Consts.Get(e.Name); ok {
			return &ConstRef{Const: cons, Span: e.Loc}, nil
		}
		return nil, reporter.Error(e.Loc, &ErrUnresolved{Kind: "variable", Name: e.Name, Loc: e.Loc})
	case *ast.Str:
		out := &StrLiteral{Content: e.Content, Span: e.Loc}
		outType := out.GetType()
		if !expectedType.AssignableFrom(outType) {
			return nil, reporter.Error(e.Loc, &ErrUnexpectedType{
				Got: outType.String(), Expected: expectedType.String(), Loc: e.Loc,
			})
		}
		return out, nil
	case *ast.TernaryExpression:
		condition, err := s.convertExpr(e.Condition, PartialOf(Bool))
		if err != nil {
			return nil, err
		}
		ifTrue, err := s.convertExpr(e.IfTrue, expectedType)
		if err != nil {
			return nil, err
		}
		rightExpected := expectedType
		if expectedType.IsAny() {
			trueType := ifTrue.GetType()
			if trueType == nil {
				return nil, reporter.Error(e.IfTrue.Span(), &ErrUninferredType{Loc: e.IfTrue.Span()})
			}
			rightExpected = PartialOf(trueType)
		}
		ifFalse, err := s.convertExpr(e.IfFalse, rightExpected)
		if err != nil {
			return nil, err
		}
		return &TernaryExpression{
			Condition: condition, IfTrue: ifTrue, IfFalse: ifFalse, Span: e.Loc,
		}, nil
	case *ast.CallExpression:
		function, ok := s.Program.Functions.Get(e.Function.Name)
		if !ok {
			return nil, reporter.Error(e.Function.Loc, &ErrUnresolved{Kind: "function", Name: e.Function.Name, Loc: e.Function.Loc})
		}
		arguments, err := s.convertFFIArguments(e.Loc, e.Arguments, function.Arguments)
		if err != nil {
			return nil, err
		}
		return &CallExpression{Function: function, Arguments: arguments, Span: e.Loc}, nil
	default:
		return nil, reporter.Errorf(expr.Span(), "unhandled expression")
	}
}

func (s *Scope) convertBinaryExpr(expr *ast.BinaryExpression, expectedType PartialType) (Expression, error) {
	if expr.Op.IsBoolResult() {
		if !expectedType.AssignableFrom(Bool) {
			return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
				Got: "bool", Expected: expectedType.String(), Loc: expr.Loc,
			})
		}
	}

	// the operator dictates what expectation is threaded into each
	// side; arithmetic inherits the outer expectation
	var initExpected PartialType
	switch expr.Op {
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		initExpected = PartialAnyScalar()
	case ast.OpEq, ast.OpNe:
		initExpected = PartialAny()
	case ast.OpOr, ast.OpAnd:
		initExpected = PartialOf(Bool)
	default:
		initExpected = expectedType
	}

	left, leftErr := s.convertExpr(expr.Left, initExpected)
	var right Expression
	var err error
	var leftType Type
	if leftErr == nil {
		leftType = left.GetType()
	}
	if leftType != nil {
		right, err = s.convertExpr(expr.Right, PartialOf(leftType))
		if err != nil {
			return nil, err
		}
	} else {
		// re-infer the lesser-constrained side from the other
		right, err = s.convertExpr(expr.Right, initExpected)
		if err != nil {
			if leftErr != nil {
				return nil, leftErr
			}
			return nil, err
		}
		rightType := right.GetType()
		if rightType == nil {
			return nil, reporter.Error(expr.Loc, &ErrUninferredType{Loc: expr.Loc})
		}
		left, err = s.convertExpr(expr.Left, PartialOf(rightType))
		if err != nil {
			return nil, err
		}
		if left.GetType() == nil {
			return nil, reporter.Error(expr.Left.Span(), &ErrUninferredType{Loc: expr.Left.Span()})
		}
	}

	if !expr.Op.IsBoolResult() {
		finalLeftType := left.GetType()
		if finalLeftType != nil && !expectedType.AssignableFrom(finalLeftType) && !expectedType.CoercableFrom(finalLeftType) {
			return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
				Got: finalLeftType.String(), Expected: expectedType.String(), Loc: expr.Loc,
			})
		}
	}

	return &BinaryExpression{
		Op:    expr.Op,
		Left:  left,
		Right: right,
		Span:  expr.Loc,
	}, nil
}

func (s *Scope) convertUnaryExpr(expr *ast.UnaryExpression, expectedType PartialType) (Expression, error) {
	inner, err := s.convertExpr(expr.Inner, expectedType)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case ast.OpNot:
		if !expectedType.AssignableFrom(Bool) {
			return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
				Got: "bool", Expected: expectedType.String(), Loc: expr.Loc,
			})
		}
	case ast.OpNegate, ast.OpBitNot:
		innerType := inner.GetType()
		if innerType != nil {
			scalar, ok := ScalarOf(innerType)
			if !ok {
				return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
					Got: innerType.String(), Expected: "integer", Loc: expr.Loc,
				})
			}
			if expr.Op == ast.OpNegate && !scalar.Scalar.Signed() {
				return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
					Got: innerType.String(), Expected: "signed integer", Loc: expr.Loc,
				})
			}
		}
	}
	return &UnaryExpression{Op: expr.Op, Inner: inner, Span: expr.Loc}, nil
}

func (s *Scope) convertCastExpr(expr *ast.CastExpression, expectedType PartialType) (Expression, error) {
	switch expr.Type.Raw.(type) {
	case *ast.Container, *ast.EnumDef, *ast.BitfieldDef:
		return nil, reporter.Error(expr.Loc, &ErrCastTypeDefinition{Loc: expr.Loc})
	}
	target, err := s.convertASTType(expr.Type.Raw, false, "")
	if err != nil {
		return nil, err
	}
	if !expectedType.AssignableFrom(target) {
		return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
			Got: target.String(), Expected: expectedType.String(), Loc: expr.Loc,
		})
	}
	inner, err := s.convertExpr(expr.Inner, PartialAny())
	if err != nil {
		return nil, err
	}
	innerType := inner.GetType()
	if innerType == nil {
		return nil, reporter.Error(expr.Inner.Span(), &ErrUninferredType{Loc: expr.Inner.Span()})
	}
	if !CanCast(innerType, target) {
		return nil, reporter.Error(expr.Loc, &ErrIllegalCast{
			From: innerType.String(), To: target.String(), Loc: expr.Loc,
		})
	}
	return &CastExpression{Inner: inner, Type: target, Span: expr.Loc}, nil
}

func (s *Scope) convertEnumAccessExpr(expr *ast.EnumAccessExpression, expectedType PartialType) (Expression, error) {
	field, ok := s.Program.Types.Get(expr.Name.Name)
	if !ok {
		return nil, reporter.Error(expr.Name.Loc, &ErrUnresolved{Kind: "type", Name: expr.Name.Name, Loc: expr.Name.Loc})
	}
	enumType, ok := field.Type.(*EnumType)
	if !ok {
		return nil, reporter.Error(expr.Name.Loc, &ErrUnexpectedType{
			Got: field.Type.String(), Expected: "enum", Loc: expr.Name.Loc,
		})
	}
	variant, ok := enumType.Items.Get(expr.Variant.Name)
	if !ok {
		return nil, reporter.Error(expr.Variant.Loc, &ErrUnresolved{
			Kind: "enum variant", Name: field.Name + "::" + expr.Variant.Name, Loc: expr.Variant.Loc,
		})
	}
	return &EnumAccessExpression{EnumField: field, Variant: variant, Span: expr.Loc}, nil
}

func (s *Scope) convertMemberExpr(expr *ast.MemberExpression, _ PartialType) (Expression, error) {
	target, err := s.convertExpr(expr.Target, PartialAny())
	if err != nil {
		return nil, err
	}
	targetType := target.GetType()
	if targetType == nil {
		return nil, reporter.Error(expr.Target.Span(), &ErrUninferredType{Loc: expr.Target.Span()})
	}
	bitfield, ok := Resolved(targetType).(*BitfieldType)
	if !ok {
		return nil, reporter.Error(expr.Target.Span(), &ErrUnexpectedType{
			Got: targetType.String(), Expected: "bitfield", Loc: expr.Target.Span(),
		})
	}
	member, ok := bitfield.Items.Get(expr.Member.Name)
	if !ok {
		return nil, reporter.Error(expr.Member.Loc, &ErrBitfieldMemberUndefined{
			Member: expr.Member.Name, Loc: expr.Member.Loc,
		})
	}
	return &MemberExpression{Target: target, Member: member, Span: expr.Loc}, nil
}

// convertIntExpr reconciles the literal's explicit width (if any), the
// expectation, and the lexeme parse.
func (s *Scope) convertIntExpr(expr *ast.Int, expectedType PartialType) (Expression, error) {
	var width ast.ScalarType
	switch {
	case expr.Type != nil:
		explicit := NewScalar(*expr.Type)
		if !expectedType.AssignableFrom(explicit) && !expectedType.IsAny() && !expectedType.IsAnyScalar() {
			return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
				Got: explicit.String(), Expected: expectedType.String(), Loc: expr.Loc,
			})
		}
		width = *expr.Type
	default:
		w, ok := expectedType.ScalarWidth()
		if !ok {
			return nil, reporter.Error(expr.Loc, &ErrUnexpectedType{
				Got: "integer", Expected: expectedType.String(), Loc: expr.Loc,
			})
		}
		width = w
	}
	value, err := ParseConstInt(width, expr.Value, expr.Loc)
	if err != nil {
		return nil, err
	}
	return &IntLiteral{Value: value, Type: width, Span: expr.Loc}, nil
}

// convertFFIArguments checks arity against (required, total), enforces
// the optional-suffix rule, and lowers each actual against its
// formal's type.
func (s *Scope) convertFFIArguments(span ast.Span, arguments []ast.Expression, formals []FFIArgument) ([]Expression, error) {
	required := 0
	for _, f := range formals {
		if !f.Optional {
			required++
		}
	}
	seenOptional := false
	for _, f := range formals {
		if f.Optional {
			seenOptional = true
		} else if seenOptional {
			return nil, reporter.Error(span, &ErrInvalidTypeArgumentOrder{Loc: span})
		}
	}
	if len(arguments) < required || len(arguments) > len(formals) {
		return nil, reporter.Error(span, &ErrInvalidFFIArgumentCount{
			Min: required, Max: len(formals), Got: len(arguments), Loc: span,
		})
	}
	var out []Expression
	for i, expr := range arguments {
		expected := PartialAny()
		if formals[i].Type != nil {
			expected = PartialOf(formals[i].Type)
		}
		arg, err := s.convertExpr(expr, expected)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}
