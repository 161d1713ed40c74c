package asg

import (
	"github.com/protospec-dev/protospec/ast"
)

// Expression is the typed expression sum of the semantic graph. Every
// expression can report its type; nil means the type could not be
// determined from this node alone.
type Expression interface {
	GetType() Type
	ExprSpan() ast.Span
	exprNode()
}

type BinaryExpression struct {
	Op    ast.BinaryOp
	Left  Expression
	Right Expression
	Span  ast.Span
}

func (*BinaryExpression) exprNode() {}

func (e *BinaryExpression) ExprSpan() ast.Span { return e.Span }

func (e *BinaryExpression) GetType() Type {
	if e.Op.IsBoolResult() {
		return Bool
	}
	if t := e.Left.GetType(); t != nil {
		return t
	}
	return e.Right.GetType()
}

type UnaryExpression struct {
	Op    ast.UnaryOp
	Inner Expression
	Span  ast.Span
}

func (*UnaryExpression) exprNode() {}

func (e *UnaryExpression) ExprSpan() ast.Span { return e.Span }

func (e *UnaryExpression) GetType() Type { return e.Inner.GetType() }

type CastExpression struct {
	Inner Expression
	Type  Type
	Span  ast.Span
}

func (*CastExpression) exprNode() {}

func (e *CastExpression) ExprSpan() ast.Span { return e.Span }

func (e *CastExpression) GetType() Type { return e.Type }

type ArrayIndexExpression struct {
	Array Expression
	Index Expression
	Span  ast.Span
}

func (*ArrayIndexExpression) exprNode() {}

func (e *ArrayIndexExpression) ExprSpan() ast.Span { return e.Span }

func (e *ArrayIndexExpression) GetType() Type {
	parent := e.Array.GetType()
	if parent == nil {
		return nil
	}
	if arr, ok := Resolved(parent).(*ArrayType); ok {
		return arr.Element.Type
	}
	return nil
}

// EnumAccessExpression is `Enum::Variant`.
type EnumAccessExpression struct {
	EnumField *Field
	Variant   *Const
	Span      ast.Span
}

func (*EnumAccessExpression) exprNode() {}

func (e *EnumAccessExpression) ExprSpan() ast.Span { return e.Span }

func (e *EnumAccessExpression) GetType() Type {
	return e.EnumField.Type
}

// MemberExpression is bitfield flag access, `flags.X`, yielding bool.
type MemberExpression struct {
	Target Expression
	Member *Const
	Span   ast.Span
}

func (*MemberExpression) exprNode() {}

func (e *MemberExpression) ExprSpan() ast.Span { return e.Span }

func (e *MemberExpression) GetType() Type { return Bool }

// IntLiteral is a width-resolved integer literal.
type IntLiteral struct {
	Value ConstInt
	Type  ast.ScalarType
	Span  ast.Span
}

func (*IntLiteral) exprNode() {}

func (e *IntLiteral) ExprSpan() ast.Span { return e.Span }

func (e *IntLiteral) GetType() Type { return NewScalar(e.Type) }

// StrLiteral types as an expandable u8 array of the literal's length.
type StrLiteral struct {
	Content []byte
	Span    ast.Span
}

func (*StrLiteral) exprNode() {}

func (e *StrLiteral) ExprSpan() ast.Span { return e.Span }

func (e *StrLiteral) GetType() Type {
	return &ArrayType{
		Element: &Field{
			Name: "$string",
			Span: e.Span,
			Type: NewScalar(ast.U8),
		},
		Length: LengthConstraint{
			Expandable: true,
			Value: &IntLiteral{
				Value: ConstU64(uint64(len(e.Content))),
				Type:  ast.U64,
				Span:  e.Span,
			},
		},
	}
}

type BoolLiteral struct {
	Value bool
	Span  ast.Span
}

func (*BoolLiteral) exprNode() {}

func (e *BoolLiteral) ExprSpan() ast.Span { return e.Span }

func (e *BoolLiteral) GetType() Type { return Bool }

// FieldRef references a previously declared field in scope.
type FieldRef struct {
	Field *Field
	Span  ast.Span
}

func (*FieldRef) exprNode() {}

func (e *FieldRef) ExprSpan() ast.Span { return e.Span }

func (e *FieldRef) GetType() Type { return e.Field.GetType() }

// ConstRef references a program constant.
type ConstRef struct {
	Const *Const
	Span  ast.Span
}

func (*ConstRef) exprNode() {}

func (e *ConstRef) ExprSpan() ast.Span { return e.Span }

func (e *ConstRef) GetType() Type { return e.Const.GetType() }

// InputRef references a formal argument of the enclosing type.
type InputRef struct {
	Input *Input
	Span  ast.Span
}

func (*InputRef) exprNode() {}

func (e *InputRef) ExprSpan() ast.Span { return e.Span }

func (e *InputRef) GetType() Type { return e.Input.GetType() }

type TernaryExpression struct {
	Condition Expression
	IfTrue    Expression
	IfFalse   Expression
	Span      ast.Span
}

func (*TernaryExpression) exprNode() {}

func (e *TernaryExpression) ExprSpan() ast.Span { return e.Span }

func (e *TernaryExpression) GetType() Type {
	if t := e.IfTrue.GetType(); t != nil {
		return t
	}
	return e.IfFalse.GetType()
}

type CallExpression struct {
	Function  *Function
	Arguments []Expression
	Span      ast.Span
}

func (*CallExpression) exprNode() {}

func (e *CallExpression) ExprSpan() ast.Span { return e.Span }

func (e *CallExpression) GetType() Type { return e.Function.Inner.ReturnType() }
