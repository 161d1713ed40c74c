package parser

import (
	"os"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/protospec-dev/protospec/ast"
)

func parseOne(t *testing.T, src string) ast.Declaration {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)
	return prog.Declarations[0]
}

func TestParseTypeDeclaration(t *testing.T) {
	decl := parseOne(t, `type T = container { len: u32, present: bool, data: u8[len] { present } };`)
	typeDecl, ok := decl.(*ast.TypeDeclaration)
	require.True(t, ok)
	assert.Equal(t, "T", typeDecl.Name.Name)
	container, ok := typeDecl.Value.Type.Raw.(*ast.Container)
	require.True(t, ok)
	require.Len(t, container.Items, 3)

	data := container.Items[2]
	assert.Equal(t, "data", data.Name.Name)
	require.NotNil(t, data.Value.Condition)
	arr, ok := data.Value.Type.Raw.(*ast.ArrayRaw)
	require.True(t, ok)
	assert.False(t, arr.Length.Expandable)
	_, ok = arr.Element.Type.Raw.(*ast.ScalarRaw)
	assert.True(t, ok)
}

func TestParseArguments(t *testing.T) {
	decl := parseOne(t, `type P(t: u8, extra: u32 ? 5) = container +tagged_enum { Byte: i8 { t == 1 } };`)
	typeDecl := decl.(*ast.TypeDeclaration)
	require.Len(t, typeDecl.Arguments, 2)
	assert.Equal(t, "t", typeDecl.Arguments[0].Name.Name)
	assert.Nil(t, typeDecl.Arguments[0].DefaultValue)
	assert.NotNil(t, typeDecl.Arguments[1].DefaultValue)
	container := typeDecl.Value.Type.Raw.(*ast.Container)
	require.Len(t, container.Flags, 1)
	assert.Equal(t, "tagged_enum", container.Flags[0].Name)
}

func TestParseEnumAndBitfield(t *testing.T) {
	decl := parseOne(t, `type E = enum u8 { A = 1, B = 2, C };`)
	enum := decl.(*ast.TypeDeclaration).Value.Type.Raw.(*ast.EnumDef)
	assert.Equal(t, ast.U8, enum.Rep)
	require.Len(t, enum.Items, 3)
	assert.Nil(t, enum.Items[2].Value)

	decl = parseOne(t, `type F = bitfield u16 { X, Y, Z = 0x10 };`)
	bitfield := decl.(*ast.TypeDeclaration).Value.Type.Raw.(*ast.BitfieldDef)
	assert.Equal(t, ast.U16, bitfield.Rep)
	require.Len(t, bitfield.Items, 3)
}

func TestParseEnumMissingRep(t *testing.T) {
	_, err := Parse(`type E = enum { A };`)
	require.Error(t, err)
	var missing *ErrEnumMissingRep
	require.ErrorAs(t, err, &missing)
}

func TestParseEmptyLengthConstraint(t *testing.T) {
	_, err := Parse(`type T = u8[];`)
	require.Error(t, err)
	var empty *ErrEmptyLengthConstraint
	require.ErrorAs(t, err, &empty)
}

func TestParseUnknownContainerDirective(t *testing.T) {
	_, err := Parse(`type T = container { .align: 4 };`)
	require.Error(t, err)
	var unknown *ErrUnknownContainerDirective
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "align", unknown.Name)
}

func TestParsePadDirective(t *testing.T) {
	decl := parseOne(t, `type T = container { a: u8, .pad: 3, b: u8 };`)
	container := decl.(*ast.TypeDeclaration).Value.Type.Raw.(*ast.Container)
	require.Len(t, container.Items, 3)
	assert.True(t, container.Items[1].IsPad)
	_, ok := container.Items[1].Value.Type.Raw.(*ast.ArrayRaw)
	assert.True(t, ok)
}

func TestParseTransformChain(t *testing.T) {
	decl := parseOne(t, `type T = u8[..] -> gzip -> base64 { compressed };`)
	field := decl.(*ast.TypeDeclaration).Value
	require.Len(t, field.Transforms, 2)
	assert.Equal(t, "gzip", field.Transforms[0].Name.Name)
	assert.Equal(t, "base64", field.Transforms[1].Name.Name)
	assert.NotNil(t, field.Transforms[1].Conditional)
}

func TestParseImportAndFFI(t *testing.T) {
	prog, err := Parse(`import A, B as C from "other.pspec"; import_ffi v32 as type; import_ffi gzip as transform;`)
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 3)
	imp := prog.Declarations[0].(*ast.ImportDeclaration)
	require.Len(t, imp.Items, 2)
	assert.Equal(t, "B", imp.Items[1].Name.Name)
	require.NotNil(t, imp.Items[1].Alias)
	assert.Equal(t, "C", imp.Items[1].Alias.Name)
	assert.Equal(t, "other.pspec", string(imp.From.Content))

	ffi := prog.Declarations[1].(*ast.FFIDeclaration)
	assert.Equal(t, ast.FFIType, ffi.Kind)
	assert.Equal(t, ast.FFITransform, prog.Declarations[2].(*ast.FFIDeclaration).Kind)
}

func TestParseConstDeclaration(t *testing.T) {
	decl := parseOne(t, `const MAGIC: u32 = 0xCAFE;`)
	cons := decl.(*ast.ConstDeclaration)
	assert.Equal(t, "MAGIC", cons.Name.Name)
	lit, ok := cons.Value.(*ast.Int)
	require.True(t, ok)
	assert.Equal(t, "0xCAFE", lit.Value)
}

// expression precedence: + binds tighter than ==, * tighter than +.
func TestParseExpressionPrecedence(t *testing.T) {
	decl := parseOne(t, `const X: bool = 1 + 2 * 3 == 7;`)
	eq := decl.(*ast.ConstDeclaration).Value.(*ast.BinaryExpression)
	assert.Equal(t, ast.OpEq, eq.Op)
	add := eq.Left.(*ast.BinaryExpression)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul := add.Right.(*ast.BinaryExpression)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestParseTernaryAndElvis(t *testing.T) {
	decl := parseOne(t, `const X: u8 = true ? 1 : 2;`)
	_, ok := decl.(*ast.ConstDeclaration).Value.(*ast.TernaryExpression)
	assert.True(t, ok)

	decl = parseOne(t, `const Y: u8 = 1 ?: 2;`)
	elvis := decl.(*ast.ConstDeclaration).Value.(*ast.BinaryExpression)
	assert.Equal(t, ast.OpElvis, elvis.Op)
}

func TestParseCastAndUnary(t *testing.T) {
	decl := parseOne(t, `const X: u16 = -1i8 :> u16;`)
	cast := decl.(*ast.ConstDeclaration).Value.(*ast.CastExpression)
	lit, ok := cast.Inner.(*ast.Int)
	require.True(t, ok)
	assert.Equal(t, "-1", lit.Value)
	require.NotNil(t, lit.Type)
	assert.Equal(t, ast.I8, *lit.Type)
}

func TestParseEnumAccessAndMember(t *testing.T) {
	decl := parseOne(t, `type T = container { flags: F, x: u8 { flags.X && E::A == 1 } };`)
	container := decl.(*ast.TypeDeclaration).Value.Type.Raw.(*ast.Container)
	cond := container.Items[1].Value.Condition.(*ast.BinaryExpression)
	assert.Equal(t, ast.OpAnd, cond.Op)
	member := cond.Left.(*ast.MemberExpression)
	assert.Equal(t, "X", member.Member.Name)
	eq := cond.Right.(*ast.BinaryExpression)
	access := eq.Left.(*ast.EnumAccessExpression)
	assert.Equal(t, "E", access.Name.Name)
	assert.Equal(t, "A", access.Variant.Name)
}

func TestParseExpandableLengths(t *testing.T) {
	decl := parseOne(t, `type T = container { rest: u8[..], terminated: u8[.."\0"] };`)
	container := decl.(*ast.TypeDeclaration).Value.Type.Raw.(*ast.Container)
	rest := container.Items[0].Value.Type.Raw.(*ast.ArrayRaw)
	assert.True(t, rest.Length.Expandable)
	assert.Nil(t, rest.Length.Inner)
	terminated := container.Items[1].Value.Type.Raw.(*ast.ArrayRaw)
	assert.True(t, terminated.Length.Expandable)
	assert.NotNil(t, terminated.Length.Inner)
}

type corpusCase struct {
	Name          string `yaml:"name"`
	Schema        string `yaml:"schema"`
	OK            bool   `yaml:"ok"`
	ErrorContains string `yaml:"error_contains"`
	Declarations  int    `yaml:"declarations"`
}

// TestParseCorpus runs the table of schemas in testdata/corpus.yaml.
func TestParseCorpus(t *testing.T) {
	raw, err := os.ReadFile("testdata/corpus.yaml")
	require.NoError(t, err)
	var cases []corpusCase
	require.NoError(t, yaml.Unmarshal(raw, &cases))
	require.NotEmpty(t, cases)

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			prog, err := Parse(tc.Schema)
			if !tc.OK {
				require.Error(t, err)
				if tc.ErrorContains != "" {
					assert.Contains(t, err.Error(), tc.ErrorContains)
				}
				return
			}
			if err != nil {
				diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(tc.Schema),
					B:        difflib.SplitLines(err.Error()),
					FromFile: "schema",
					ToFile:   "error",
					Context:  2,
				})
				t.Fatalf("unexpected parse failure:\n%s", diff)
			}
			if tc.Declarations > 0 {
				assert.Len(t, prog.Declarations, tc.Declarations)
			}
		})
	}
}

func TestParseErrorsMentionSpan(t *testing.T) {
	_, err := Parse("type T = ;")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), ":"), "error should carry a span: %v", err)
}
