package asg

import (
	"github.com/protospec-dev/protospec/ast"
)

// ConstValue is the result of constant folding: an integer, bool, or
// byte-string.
type ConstValue struct {
	Int   *ConstInt
	Bool  *bool
	Bytes []byte
}

// IntValue wraps a folded integer.
func IntValue(v ConstInt) ConstValue { return ConstValue{Int: &v} }

// BoolValue wraps a folded bool.
func BoolValue(v bool) ConstValue { return ConstValue{Bool: &v} }

// EvalConst folds a closed expression to a constant, or reports
// ok=false for anything outside the foldable subset (array indexing,
// input and field references, calls, and elvis are never folded).
func EvalConst(expr Expression) (ConstValue, bool) {
	switch e := expr.(type) {
	case *IntLiteral:
		return IntValue(e.Value), true
	case *BoolLiteral:
		return BoolValue(e.Value), true
	case *StrLiteral:
		return ConstValue{Bytes: e.Content}, true
	case *ConstRef:
		return EvalConst(e.Const.Value)
	case *EnumAccessExpression:
		return EvalConst(e.Variant.Value)
	case *CastExpression:
		inner, ok := EvalConst(e.Inner)
		if !ok {
			return ConstValue{}, false
		}
		if inner.Int != nil {
			if s, ok := ScalarOf(e.Type); ok {
				return IntValue(inner.Int.CastTo(s.Scalar)), true
			}
			if en, ok := Resolved(e.Type).(*EnumType); ok {
				return IntValue(inner.Int.CastTo(en.Rep)), true
			}
		}
		return inner, true
	case *UnaryExpression:
		inner, ok := EvalConst(e.Inner)
		if !ok {
			return ConstValue{}, false
		}
		switch e.Op {
		case ast.OpNot:
			if inner.Bool == nil {
				return ConstValue{}, false
			}
			return BoolValue(!*inner.Bool), true
		case ast.OpNegate:
			if inner.Int == nil {
				return ConstValue{}, false
			}
			v, ok := inner.Int.Neg()
			if !ok {
				return ConstValue{}, false
			}
			return IntValue(v), true
		case ast.OpBitNot:
			if inner.Int == nil {
				return ConstValue{}, false
			}
			v, ok := inner.Int.BitNot()
			if !ok {
				return ConstValue{}, false
			}
			return IntValue(v), true
		}
		return ConstValue{}, false
	case *TernaryExpression:
		cond, ok := EvalConst(e.Condition)
		if !ok || cond.Bool == nil {
			return ConstValue{}, false
		}
		if *cond.Bool {
			return EvalConst(e.IfTrue)
		}
		return EvalConst(e.IfFalse)
	case *MemberExpression:
		// a bitfield member test folds when both sides are constant
		target, ok := EvalConst(e.Target)
		if !ok || target.Int == nil {
			return ConstValue{}, false
		}
		mask, ok := EvalConst(e.Member.Value)
		if !ok || mask.Int == nil {
			return ConstValue{}, false
		}
		v, ok := target.Int.And(*mask.Int)
		if !ok {
			return ConstValue{}, false
		}
		return BoolValue(!v.IsZero()), true
	case *BinaryExpression:
		return evalConstBinary(e)
	}
	return ConstValue{}, false
}

func evalConstBinary(e *BinaryExpression) (ConstValue, bool) {
	if e.Op == ast.OpElvis {
		return ConstValue{}, false
	}
	left, ok := EvalConst(e.Left)
	if !ok {
		return ConstValue{}, false
	}
	right, ok := EvalConst(e.Right)
	if !ok {
		return ConstValue{}, false
	}
	switch e.Op {
	case ast.OpOr, ast.OpAnd:
		if left.Bool == nil || right.Bool == nil {
			return ConstValue{}, false
		}
		if e.Op == ast.OpOr {
			return BoolValue(*left.Bool || *right.Bool), true
		}
		return BoolValue(*left.Bool && *right.Bool), true
	case ast.OpEq, ast.OpNe:
		var eq bool
		switch {
		case left.Int != nil && right.Int != nil:
			eq = left.Int.Equal(*right.Int)
		case left.Bool != nil && right.Bool != nil:
			eq = *left.Bool == *right.Bool
		default:
			return ConstValue{}, false
		}
		if e.Op == ast.OpNe {
			eq = !eq
		}
		return BoolValue(eq), true
	}
	if left.Int == nil || right.Int == nil {
		return ConstValue{}, false
	}
	l, r := *left.Int, *right.Int
	switch e.Op {
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		c, ok := l.Cmp(r)
		if !ok {
			return ConstValue{}, false
		}
		switch e.Op {
		case ast.OpLt:
			return BoolValue(c < 0), true
		case ast.OpGt:
			return BoolValue(c > 0), true
		case ast.OpLte:
			return BoolValue(c <= 0), true
		default:
			return BoolValue(c >= 0), true
		}
	case ast.OpAdd:
		return foldInt(l.Add(r))
	case ast.OpSub:
		return foldInt(l.Sub(r))
	case ast.OpMul:
		return foldInt(l.Mul(r))
	case ast.OpDiv:
		return foldInt(l.Div(r))
	case ast.OpMod:
		return foldInt(l.Mod(r))
	case ast.OpBitOr:
		return foldInt(l.Or(r))
	case ast.OpBitAnd:
		return foldInt(l.And(r))
	case ast.OpBitXor:
		return foldInt(l.Xor(r))
	case ast.OpShl:
		return foldInt(l.Shl(r))
	case ast.OpShr, ast.OpShrSigned:
		return foldInt(l.Shr(r))
	}
	return ConstValue{}, false
}

func foldInt(v ConstInt, ok bool) (ConstValue, bool) {
	if !ok {
		return ConstValue{}, false
	}
	return IntValue(v), true
}
