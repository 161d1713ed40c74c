package asg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/ast"
)

func TestConstIntParse(t *testing.T) {
	v, err := ParseConstInt(ast.U8, "255", ast.Span{})
	require.NoError(t, err)
	assert.Equal(t, "255", v.String())

	v, err = ParseConstInt(ast.U32, "0xCAFE", ast.Span{})
	require.NoError(t, err)
	assert.Equal(t, "51966", v.String())

	v, err = ParseConstInt(ast.I8, "-128", ast.Span{})
	require.NoError(t, err)
	assert.Equal(t, "-128", v.String())

	_, err = ParseConstInt(ast.U8, "256", ast.Span{})
	require.Error(t, err)

	_, err = ParseConstInt(ast.I8, "-129", ast.Span{})
	require.Error(t, err)

	_, err = ParseConstInt(ast.U8, "abc", ast.Span{})
	require.Error(t, err)
}

func TestConstIntMixedWidth(t *testing.T) {
	a := NewConstInt(ast.U8, 1)
	b := NewConstInt(ast.U16, 1)
	_, ok := a.Add(b)
	assert.False(t, ok, "mixed-width arithmetic must not fold")

	_, ok = a.Cmp(b)
	assert.False(t, ok)
}

func TestConstIntWrapping(t *testing.T) {
	a := NewConstInt(ast.U8, 255)
	b := NewConstInt(ast.U8, 1)
	sum, ok := a.Add(b)
	require.True(t, ok)
	assert.Equal(t, "0", sum.String())

	c := NewConstInt(ast.I8, 127)
	d := NewConstInt(ast.I8, 1)
	wrapped, ok := c.Add(d)
	require.True(t, ok)
	assert.Equal(t, "-128", wrapped.String())
}

func TestConstIntNeg(t *testing.T) {
	_, ok := NewConstInt(ast.U8, 1).Neg()
	assert.False(t, ok, "negating an unsigned width is rejected")

	v, ok := NewConstInt(ast.I32, 5).Neg()
	require.True(t, ok)
	assert.Equal(t, "-5", v.String())
}

func TestConstIntCast(t *testing.T) {
	v := NewConstInt(ast.U16, 0x1FF)
	assert.Equal(t, "255", v.CastTo(ast.U8).String())
	neg := NewConstInt(ast.I8, -1)
	assert.Equal(t, "255", neg.CastTo(ast.U8).String())
}

func TestConstIntDivByZero(t *testing.T) {
	_, ok := NewConstInt(ast.U8, 1).Div(NewConstInt(ast.U8, 0))
	assert.False(t, ok)
	_, ok = NewConstInt(ast.U8, 1).Mod(NewConstInt(ast.U8, 0))
	assert.False(t, ok)
}

func lit(s ast.ScalarType, v int64) Expression {
	return &IntLiteral{Value: NewConstInt(s, v), Type: s}
}

func TestEvalConstOperators(t *testing.T) {
	// (2 + 3) * 4 == 20
	expr := &BinaryExpression{
		Op: ast.OpMul,
		Left: &BinaryExpression{
			Op: ast.OpAdd, Left: lit(ast.U32, 2), Right: lit(ast.U32, 3),
		},
		Right: lit(ast.U32, 4),
	}
	v, ok := EvalConst(expr)
	require.True(t, ok)
	assert.Equal(t, "20", v.Int.String())

	shifted, ok := EvalConst(&BinaryExpression{Op: ast.OpShl, Left: lit(ast.U8, 1), Right: lit(ast.U8, 3)})
	require.True(t, ok)
	assert.Equal(t, "8", shifted.Int.String())

	cmp, ok := EvalConst(&BinaryExpression{Op: ast.OpLt, Left: lit(ast.U8, 1), Right: lit(ast.U8, 3)})
	require.True(t, ok)
	require.NotNil(t, cmp.Bool)
	assert.True(t, *cmp.Bool)
}

func TestEvalConstTernary(t *testing.T) {
	cond := &BoolLiteral{Value: true}
	v, ok := EvalConst(&TernaryExpression{Condition: cond, IfTrue: lit(ast.U8, 1), IfFalse: lit(ast.U8, 2)})
	require.True(t, ok)
	assert.Equal(t, "1", v.Int.String())
}

func TestEvalConstExclusions(t *testing.T) {
	// elvis is never folded
	_, ok := EvalConst(&BinaryExpression{Op: ast.OpElvis, Left: lit(ast.U8, 1), Right: lit(ast.U8, 2)})
	assert.False(t, ok)

	// field and input references are never folded
	_, ok = EvalConst(&FieldRef{Field: &Field{Name: "x", Type: NewScalar(ast.U8)}})
	assert.False(t, ok)
	_, ok = EvalConst(&InputRef{Input: &Input{Name: "x", Type: NewScalar(ast.U8)}})
	assert.False(t, ok)

	// array indexing is never folded
	_, ok = EvalConst(&ArrayIndexExpression{Array: &StrLiteral{Content: []byte{1}}, Index: lit(ast.U64, 0)})
	assert.False(t, ok)
}

func TestEvalConstConstRef(t *testing.T) {
	cons := &Const{Name: "M", Type: NewScalar(ast.U32), Value: lit(ast.U32, 7)}
	v, ok := EvalConst(&ConstRef{Const: cons})
	require.True(t, ok)
	assert.Equal(t, "7", v.Int.String())
}

func TestEvalConstMemberTest(t *testing.T) {
	mask := &Const{Name: "X", Type: NewScalar(ast.U8), Value: lit(ast.U8, 1)}
	v, ok := EvalConst(&MemberExpression{Target: lit(ast.U8, 5), Member: mask})
	require.True(t, ok)
	require.NotNil(t, v.Bool)
	assert.True(t, *v.Bool)
}
