package gen

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

// exprEmitter prints semantic expressions as Go expressions. fieldRef
// supplies the binding for field references, which differs between
// directions: decoded registers on the decode side, receiver access on
// the encode side.
type exprEmitter struct {
	g        *generator
	fieldRef func(f *asg.Field) string
	inputRef func(in *asg.Input) string
}

func (e *exprEmitter) emit(expr asg.Expression) string {
	// fold what the const evaluator can; this is where enum variant
	// values and constant lengths become literals
	if folded, ok := asg.EvalConst(expr); ok {
		switch x := expr.(type) {
		case *asg.ConstRef:
			return exported(x.Const.Name)
		case *asg.EnumAccessExpression:
			enumType := asg.Resolved(x.EnumField.Type).(*asg.EnumType)
			return fmt.Sprintf("%s_%s", exported(enumType.Name), sanitizeIdent(x.Variant.Name))
		}
		if lit, ok := e.foldedLit(expr, folded); ok {
			return lit
		}
	}
	return e.emitRaw(expr)
}

func (e *exprEmitter) foldedLit(expr asg.Expression, v asg.ConstValue) (string, bool) {
	switch {
	case v.Int != nil:
		if isBigScalar(v.Int.Type) {
			return fmt.Sprintf("psBigLit(%q)", v.Int.String()), true
		}
		return fmt.Sprintf("%s(%s)", scalarGoType(v.Int.Type), v.Int), true
	case v.Bool != nil:
		return fmt.Sprintf("%v", *v.Bool), true
	case v.Bytes != nil:
		return byteSliceLit(v.Bytes), true
	}
	return "", false
}

func (e *exprEmitter) emitRaw(expr asg.Expression) string {
	switch x := expr.(type) {
	case *asg.IntLiteral:
		if isBigScalar(x.Type) {
			return fmt.Sprintf("psBigLit(%q)", x.Value.String())
		}
		return fmt.Sprintf("%s(%s)", scalarGoType(x.Type), x.Value)
	case *asg.BoolLiteral:
		return fmt.Sprintf("%v", x.Value)
	case *asg.StrLiteral:
		return byteSliceLit(x.Content)
	case *asg.FieldRef:
		return e.fieldRef(x.Field)
	case *asg.InputRef:
		return e.inputRef(x.Input)
	case *asg.ConstRef:
		return exported(x.Const.Name)
	case *asg.EnumAccessExpression:
		enumType := asg.Resolved(x.EnumField.Type).(*asg.EnumType)
		return fmt.Sprintf("%s_%s", exported(enumType.Name), sanitizeIdent(x.Variant.Name))
	case *asg.MemberExpression:
		mask, ok := asg.EvalConst(x.Member.Value)
		if !ok || mask.Int == nil {
			panic("bitfield member mask does not fold")
		}
		return fmt.Sprintf("((uint64(%s) & %s) != 0)", e.emit(x.Target), mask.Int)
	case *asg.ArrayIndexExpression:
		return fmt.Sprintf("%s[int(%s)]", e.emit(x.Array), e.emit(x.Index))
	case *asg.TernaryExpression:
		return fmt.Sprintf("psTernary(%s, %s, %s)",
			e.emit(x.Condition), e.emit(x.IfTrue), e.emit(x.IfFalse))
	case *asg.UnaryExpression:
		inner := e.emit(x.Inner)
		switch x.Op {
		case ast.OpNot:
			return fmt.Sprintf("(!%s)", inner)
		case ast.OpNegate:
			return fmt.Sprintf("(-%s)", inner)
		default:
			return fmt.Sprintf("(^%s)", inner)
		}
	case *asg.BinaryExpression:
		return e.emitBinary(x)
	case *asg.CastExpression:
		return e.emitCast(x)
	case *asg.CallExpression:
		return e.emitCall(x)
	default:
		panic(fmt.Sprintf("unknown expression %T", expr))
	}
}

func (e *exprEmitter) emitBinary(x *asg.BinaryExpression) string {
	left := e.emit(x.Left)
	right := e.emit(x.Right)
	switch x.Op {
	case ast.OpElvis:
		return fmt.Sprintf("psElvis(%s, %s)", left, right)
	case ast.OpShrSigned:
		// arithmetic right shift; Go's >> is already arithmetic on
		// signed operands and logical on unsigned ones
		return fmt.Sprintf("(%s >> %s)", left, right)
	case ast.OpShl, ast.OpShr:
		return fmt.Sprintf("(%s %s %s)", left, x.Op, right)
	default:
		return fmt.Sprintf("(%s %s %s)", left, x.Op, right)
	}
}

func (e *exprEmitter) emitCast(x *asg.CastExpression) string {
	inner := e.emit(x.Inner)
	innerType := x.Inner.GetType()
	target := asg.Resolved(x.Type)

	innerBig := false
	if s, ok := asg.ScalarOf(innerType); ok && isBigScalar(s.Scalar) {
		innerBig = true
	}

	switch t := target.(type) {
	case *asg.ScalarValue:
		if isBigScalar(t.Scalar.Scalar) {
			if innerBig {
				return inner
			}
			if s, ok := asg.ScalarOf(innerType); ok && s.Scalar.Signed() {
				return fmt.Sprintf("psBigFromI64(int64(%s))", inner)
			}
			return fmt.Sprintf("psBigFromU64(uint64(%s))", inner)
		}
		if innerBig {
			return fmt.Sprintf("%s(psBigToU64(%s))", scalarGoType(t.Scalar.Scalar), inner)
		}
		return fmt.Sprintf("%s(%s)", scalarGoType(t.Scalar.Scalar), inner)
	case *asg.EnumType:
		return fmt.Sprintf("%s(%s)", exported(t.Name), inner)
	case *asg.BitfieldType:
		return fmt.Sprintf("%s(%s)", exported(t.Name), inner)
	case *asg.F32Type:
		return fmt.Sprintf("float32(%s)", inner)
	case *asg.F64Type:
		return fmt.Sprintf("float64(%s)", inner)
	default:
		// assignable casts need no conversion in Go
		return inner
	}
}

func (e *exprEmitter) emitCall(x *asg.CallExpression) string {
	e.g.noteImports(x.Function.Inner.Imports())
	formals := x.Function.Arguments
	var values []asg.FFIArgumentValue
	for i, formal := range formals {
		if i < len(x.Arguments) {
			values = append(values, asg.FFIArgumentValue{
				Type:    x.Arguments[i].GetType(),
				Present: true,
				Value:   e.emit(x.Arguments[i]),
			})
		} else {
			values = append(values, asg.FFIArgumentValue{Type: formal.Type, Present: false})
		}
	}
	return x.Function.Inner.Call(values)
}
