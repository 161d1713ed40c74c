package parser

import (
	"fmt"

	"github.com/protospec-dev/protospec/ast"
)

// TokenKind enumerates every lexeme the tokenizer can produce.
type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenString
	TokenInt

	// keywords
	TokenType
	TokenAs
	TokenImport
	TokenImportFFI
	TokenTransform
	TokenFunction
	TokenConst
	TokenContainer
	TokenEnum
	TokenBitfield
	TokenFrom
	TokenTrue
	TokenFalse
	TokenBool
	TokenScalar // any of the ten width keywords; Scalar field holds which
	TokenF32
	TokenF64

	// punctuation and operators
	TokenEqual
	TokenComma
	TokenSemicolon
	TokenColon
	TokenDoubleColon
	TokenDot
	TokenDotDot
	TokenQuestion
	TokenElvis
	TokenLeftSquare
	TokenRightSquare
	TokenLeftCurly
	TokenRightCurly
	TokenLeftParen
	TokenRightParen
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenNot
	TokenBitNot
	TokenLt
	TokenGt
	TokenLtEq
	TokenGtEq
	TokenEq
	TokenNe
	TokenArrow
	TokenCast
	TokenOr
	TokenAnd
	TokenBitOr
	TokenBitXor
	TokenBitAnd
	TokenShr
	TokenShl
	TokenShrSigned
)

// Token is a spanned lexeme. Text carries the raw identifier or
// integer lexeme; Bytes carries decoded string-literal content; Scalar
// is set for TokenScalar.
type Token struct {
	Kind   TokenKind
	Text   string
	Bytes  []byte
	Scalar ast.ScalarType
	Span   ast.Span
}

var tokenNames = map[TokenKind]string{
	TokenIdent:       "identifier",
	TokenString:      "string",
	TokenInt:         "integer",
	TokenType:        "type",
	TokenAs:          "as",
	TokenImport:      "import",
	TokenImportFFI:   "import_ffi",
	TokenTransform:   "transform",
	TokenFunction:    "function",
	TokenConst:       "const",
	TokenContainer:   "container",
	TokenEnum:        "enum",
	TokenBitfield:    "bitfield",
	TokenFrom:        "from",
	TokenTrue:        "true",
	TokenFalse:       "false",
	TokenBool:        "bool",
	TokenScalar:      "scalar",
	TokenF32:         "f32",
	TokenF64:         "f64",
	TokenEqual:       "=",
	TokenComma:       ",",
	TokenSemicolon:   ";",
	TokenColon:       ":",
	TokenDoubleColon: "::",
	TokenDot:         ".",
	TokenDotDot:      "..",
	TokenQuestion:    "?",
	TokenElvis:       "?:",
	TokenLeftSquare:  "[",
	TokenRightSquare: "]",
	TokenLeftCurly:   "{",
	TokenRightCurly:  "}",
	TokenLeftParen:   "(",
	TokenRightParen:  ")",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenMul:         "*",
	TokenDiv:         "/",
	TokenMod:         "%",
	TokenNot:         "!",
	TokenBitNot:      "~",
	TokenLt:          "<",
	TokenGt:          ">",
	TokenLtEq:        "<=",
	TokenGtEq:        ">=",
	TokenEq:          "==",
	TokenNe:          "!=",
	TokenArrow:       "->",
	TokenCast:        ":>",
	TokenOr:          "||",
	TokenAnd:         "&&",
	TokenBitOr:       "|",
	TokenBitXor:      "^",
	TokenBitAnd:      "&",
	TokenShr:         ">>",
	TokenShl:         "<<",
	TokenShrSigned:   ">>>",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

func (t Token) String() string {
	switch t.Kind {
	case TokenIdent, TokenInt:
		return t.Text
	case TokenString:
		return fmt.Sprintf("%q", t.Bytes)
	case TokenScalar:
		return t.Scalar.String()
	default:
		return t.Kind.String()
	}
}

var keywords = map[string]TokenKind{
	"type":       TokenType,
	"as":         TokenAs,
	"import":     TokenImport,
	"import_ffi": TokenImportFFI,
	"transform":  TokenTransform,
	"function":   TokenFunction,
	"const":      TokenConst,
	"container":  TokenContainer,
	"enum":       TokenEnum,
	"bitfield":   TokenBitfield,
	"from":       TokenFrom,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"bool":       TokenBool,
	"f32":        TokenF32,
	"f64":        TokenF64,
}
