package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/reporter"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	tokens, err := Tokenize(`type Foo = container { a: u8, b: bool };`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		TokenType, TokenIdent, TokenEqual, TokenContainer, TokenLeftCurly,
		TokenIdent, TokenColon, TokenScalar, TokenComma,
		TokenIdent, TokenColon, TokenBool,
		TokenRightCurly, TokenSemicolon,
	}, kinds(tokens))
	assert.Equal(t, "Foo", tokens[1].Text)
	assert.Equal(t, ast.U8, tokens[7].Scalar)
}

func TestTokenizeOperators(t *testing.T) {
	tokens, err := Tokenize(`== != <= >= << >> >>> && || .. :: -> :> ?: ? : . < > | & ^ ~ ! + - * / % =`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		TokenEq, TokenNe, TokenLtEq, TokenGtEq, TokenShl, TokenShr, TokenShrSigned,
		TokenAnd, TokenOr, TokenDotDot, TokenDoubleColon, TokenArrow, TokenCast,
		TokenElvis, TokenQuestion, TokenColon, TokenDot, TokenLt, TokenGt,
		TokenBitOr, TokenBitAnd, TokenBitXor, TokenBitNot, TokenNot,
		TokenPlus, TokenMinus, TokenMul, TokenDiv, TokenMod, TokenEqual,
	}, kinds(tokens))
}

func TestTokenizeStringEscapes(t *testing.T) {
	tokens, err := Tokenize(`"str\"ing" "str\\ing" "\41\7"`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, []byte(`str"ing`), tokens[0].Bytes)
	assert.Equal(t, []byte(`str\ing`), tokens[1].Bytes)
	assert.Equal(t, []byte{0x41, 0x07}, tokens[2].Bytes)
}

func TestTokenizeIntLiterals(t *testing.T) {
	tokens, err := Tokenize(`12345 0xFF 0`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "12345", tokens[0].Text)
	assert.Equal(t, "0xFF", tokens[1].Text)
	assert.Equal(t, "0", tokens[2].Text)
}

func TestTokenizeComments(t *testing.T) {
	tokens, err := Tokenize("a // line comment\nb /* block\ncomment */ c")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "a", tokens[0].Text)
	assert.Equal(t, "b", tokens[1].Text)
	assert.Equal(t, "c", tokens[2].Text)
}

func TestTokenizeSpans(t *testing.T) {
	tokens, err := Tokenize("ab\n  cd")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, uint64(1), tokens[0].Span.LineStart)
	assert.Equal(t, uint64(1), tokens[0].Span.ColStart)
	assert.Equal(t, uint64(2), tokens[1].Span.LineStart)
	assert.Equal(t, uint64(3), tokens[1].Span.ColStart)
}

func TestTokenizeError(t *testing.T) {
	_, err := Tokenize("a $ b")
	require.Error(t, err)
	var spanned reporter.ErrorWithSpan
	require.ErrorAs(t, err, &spanned)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, byte('$'), tokenErr.Byte)
}

func TestKeywordsAndScalars(t *testing.T) {
	tokens, err := Tokenize("import_ffi transform bitfield i128 u128 f32 f64 from true false")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		TokenImportFFI, TokenTransform, TokenBitfield, TokenScalar, TokenScalar,
		TokenF32, TokenF64, TokenFrom, TokenTrue, TokenFalse,
	}, kinds(tokens))
	assert.Equal(t, ast.I128, tokens[3].Scalar)
	assert.Equal(t, ast.U128, tokens[4].Scalar)
}

func TestIdentWithHyphen(t *testing.T) {
	tokens, err := Tokenize("foo-bar baz_qux")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "foo-bar", tokens[0].Text)
	assert.Equal(t, "baz_qux", tokens[1].Text)
}
