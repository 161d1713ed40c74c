package asg_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/parser"
	"github.com/protospec-dev/protospec/prelude"
)

// mapResolver serves imports from an in-memory table, with the prelude
// layered on top by analyze.
type mapResolver struct {
	prelude.NullImportResolver
	files map[string]string
}

func (m *mapResolver) ResolveImport(path string) (string, bool, error) {
	content, ok := m.files[path]
	return content, ok, nil
}

func analyze(t *testing.T, schema string) *asg.Program {
	t.Helper()
	program, err := analyzeErr(schema, nil)
	require.NoError(t, err)
	return program
}

func analyzeErr(schema string, files map[string]string) (*asg.Program, error) {
	parsed, err := parser.Parse(schema)
	if err != nil {
		return nil, err
	}
	return asg.ProgramFromAST(parsed, prelude.WrapResolver(&mapResolver{files: files}))
}

func TestAnalyzeConditionalArray(t *testing.T) {
	program := analyze(t, `type T = container { len: u32, present: bool, data: u8[len] { present } };`)
	field, ok := program.Types.Get("T")
	require.True(t, ok)
	container, ok := field.Type.(*asg.ContainerType)
	require.True(t, ok)

	data, ok := container.Items.Get("data")
	require.True(t, ok)
	require.NotNil(t, data.Condition)
	arr, ok := data.Type.(*asg.ArrayType)
	require.True(t, ok)
	assert.False(t, arr.Length.Expandable)
	require.NotNil(t, arr.Length.Value)
	// the length expression resolved to the sibling field
	ref, ok := arr.Length.Value.(*asg.FieldRef)
	require.True(t, ok)
	assert.Equal(t, "len", ref.Field.Name)
}

func TestAnalyzeEnumValues(t *testing.T) {
	program := analyze(t, `type E = enum u8 { A = 1, B = 2, C, D = 10 };`)
	field, _ := program.Types.Get("E")
	enum, ok := field.Type.(*asg.EnumType)
	require.True(t, ok)
	assert.Equal(t, ast.U8, enum.Rep)

	expect := map[string]string{"A": "1", "B": "2", "C": "3", "D": "10"}
	enum.Items.Range(func(name string, cons *asg.Const) bool {
		value, ok := asg.EvalConst(cons.Value)
		require.True(t, ok, "variant %s should fold", name)
		require.NotNil(t, value.Int)
		assert.Equal(t, expect[name], value.Int.String())
		return true
	})
}

func TestAnalyzeBitfieldValues(t *testing.T) {
	program := analyze(t, `type F = bitfield u8 { X, Y, Z, BIG = 0x40 };`)
	field, _ := program.Types.Get("F")
	bitfield, ok := field.Type.(*asg.BitfieldType)
	require.True(t, ok)

	expect := map[string]string{"X": "1", "Y": "2", "Z": "4", "BIG": "64"}
	bitfield.Items.Range(func(name string, cons *asg.Const) bool {
		value, ok := asg.EvalConst(cons.Value)
		require.True(t, ok)
		assert.Equal(t, expect[name], value.Int.String())
		return true
	})
}

func TestAnalyzeBitfieldMemberCondition(t *testing.T) {
	program := analyze(t, `
		type F = bitfield u8 { X = 1, Y = 2, Z = 4 };
		type T = container { flags: F, x: u8 { flags.X }, z: u8 { flags.Z } };
	`)
	field, _ := program.Types.Get("T")
	container := field.Type.(*asg.ContainerType)
	x, _ := container.Items.Get("x")
	member, ok := x.Condition.(*asg.MemberExpression)
	require.True(t, ok)
	assert.Equal(t, "X", member.Member.Name)
}

func TestAnalyzeBitfieldMemberUndefined(t *testing.T) {
	_, err := analyzeErr(`
		type F = bitfield u8 { X = 1 };
		type T = container { flags: F, x: u8 { flags.W } };
	`, nil)
	require.Error(t, err)
	var undefined *asg.ErrBitfieldMemberUndefined
	require.ErrorAs(t, err, &undefined)
	assert.Equal(t, "W", undefined.Member)
}

func TestAnalyzeTaggedEnumRules(t *testing.T) {
	// valid: conditional arms, final unconditional arm allowed
	analyze(t, `type P(t: u8) = container +tagged_enum { A: i8 { t == 1 }, B: i16 };`)

	// arm after an unconditional arm is rejected
	_, err := analyzeErr(`type P(t: u8) = container +tagged_enum { A: i8, B: i16 { t == 2 } };`, nil)
	require.Error(t, err)
	var after *asg.ErrEnumContainerFieldAfterUnconditional
	require.ErrorAs(t, err, &after)

	// tagged enums must be top-level
	_, err = analyzeErr(`type T = container { inner: container +tagged_enum { A: i8 } };`, nil)
	require.Error(t, err)
	var toplevel *asg.ErrMustBeToplevel
	require.ErrorAs(t, err, &toplevel)

	// pads are rejected inside tagged enums
	_, err = analyzeErr(`type P(t: u8) = container +tagged_enum { .pad: 2, A: i8 { t == 1 } };`, nil)
	require.Error(t, err)
	var pad *asg.ErrEnumContainerPad
	require.ErrorAs(t, err, &pad)
}

func TestAnalyzeInlineRepetition(t *testing.T) {
	_, err := analyzeErr(`type T = container { xs: container { a: u8 }[4] };`, nil)
	require.Error(t, err)
	var inline *asg.ErrInlineRepetition
	require.ErrorAs(t, err, &inline)
}

func TestAnalyzeAutoField(t *testing.T) {
	program := analyze(t, `type T = container { n: u16 +auto, data: u8[n] };`)
	field, _ := program.Types.Get("T")
	container := field.Type.(*asg.ContainerType)
	n, _ := container.Items.Get("n")
	assert.True(t, n.IsAuto)

	// bool is not auto-compatible
	_, err := analyzeErr(`type T = container { b: bool +auto, data: u8[..] };`, nil)
	require.Error(t, err)
	var notAuto *asg.ErrTypeNotAutoCompatible
	require.ErrorAs(t, err, &notAuto)
}

func TestAnalyzeInvalidFlag(t *testing.T) {
	_, err := analyzeErr(`type T = u8 +bogus;`, nil)
	require.Error(t, err)
	var invalid *asg.ErrInvalidFlag
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "bogus", invalid.Flag)
}

func TestAnalyzeUnresolved(t *testing.T) {
	_, err := analyzeErr(`type T = container { data: u8[missing] };`, nil)
	require.Error(t, err)
	var unresolved *asg.ErrUnresolved
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "variable", unresolved.Kind)

	_, err = analyzeErr(`type T = Missing;`, nil)
	require.Error(t, err)
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "type", unresolved.Kind)

	_, err = analyzeErr(`type T = u8[..] -> zstd;`, nil)
	require.Error(t, err)
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "transform", unresolved.Kind)
}

func TestAnalyzeRedefinition(t *testing.T) {
	_, err := analyzeErr(`type T = u8; type T = u16;`, nil)
	require.Error(t, err)
	var redef *asg.ErrRedefinition
	require.ErrorAs(t, err, &redef)
	assert.Equal(t, "T", redef.Name)

	_, err = analyzeErr(`type E = enum u8 { A = 1, A = 2 };`, nil)
	require.Error(t, err)
	require.ErrorAs(t, err, &redef)
	assert.Equal(t, "enum variant", redef.Kind)
}

func TestAnalyzeTypeArguments(t *testing.T) {
	program := analyze(t, `
		type P(t: u8) = container +tagged_enum { A: i8 { t == 1 }, B: i16 { t == 2 } };
		type O = container { t: u8, p: P(t) };
	`)
	field, _ := program.Types.Get("O")
	container := field.Type.(*asg.ContainerType)
	p, _ := container.Items.Get("p")
	ref, ok := p.Type.(*asg.RefType)
	require.True(t, ok)
	assert.Equal(t, "P", ref.Target.Name)
	require.Len(t, ref.Arguments, 1)

	// wrong arity
	_, err := analyzeErr(`
		type P(t: u8) = container +tagged_enum { A: i8 { t == 1 } };
		type O = container { p: P() };
	`, nil)
	require.Error(t, err)
	var count *asg.ErrInvalidTypeArgumentCount
	require.ErrorAs(t, err, &count)
}

func TestAnalyzeDefaultArgumentSuffix(t *testing.T) {
	_, err := analyzeErr(`type P(a: u8 ? 1, b: u8) = container { x: u8[a], y: u8[b] };`, nil)
	require.Error(t, err)
	var order *asg.ErrInvalidTypeArgumentOrder
	require.ErrorAs(t, err, &order)
}

func TestAnalyzeCasts(t *testing.T) {
	// scalar to scalar, any pair
	analyze(t, `type T = container { a: u8, b: u64 { (a :> u64) > 2 } };`)

	// enum to its representation scalar
	analyze(t, `
		type E = enum u8 { A = 1 };
		type T = container { e: E, x: u8 { (e :> u8) == 1 } };
	`)

	// bool does not cast to scalar
	_, err := analyzeErr(`type T = container { b: bool, x: u8 { (b :> u8) == 1 } };`, nil)
	require.Error(t, err)
	var illegal *asg.ErrIllegalCast
	require.ErrorAs(t, err, &illegal)
}

func TestAnalyzeUnaryNegateRequiresSigned(t *testing.T) {
	_, err := analyzeErr(`type T = container { a: u8, b: u8 { -a == 1 } };`, nil)
	require.Error(t, err)
	var unexpected *asg.ErrUnexpectedType
	require.ErrorAs(t, err, &unexpected)
}

func TestAnalyzeCycleDetection(t *testing.T) {
	program := analyze(t, `
		type Node = container { value: u8, more: bool, next: Node { more } };
		type Leaf = container { value: u8 };
	`)
	node, _ := program.Types.Get("Node")
	assert.True(t, node.IsMaybeCyclical)
	leaf, _ := program.Types.Get("Leaf")
	assert.False(t, leaf.IsMaybeCyclical)
}

func TestAnalyzeImports(t *testing.T) {
	files := map[string]string{
		"common.pspec": `type Header = container { magic: u32 };`,
	}
	program, err := analyzeErr(`
		import Header as Hdr from "common.pspec";
		type T = container { hdr: Hdr, body: u8[..] };
	`, files)
	require.NoError(t, err)
	_, ok := program.Types.Get("Hdr")
	assert.True(t, ok)

	// missing import file
	_, err = analyzeErr(`import X from "nope.pspec"; type T = u8;`, files)
	require.Error(t, err)
	var missing *asg.ErrImportMissing
	require.ErrorAs(t, err, &missing)

	// missing item inside an import
	_, err = analyzeErr(`import Nope from "common.pspec"; type T = u8;`, files)
	require.Error(t, err)
	var unresolvedImport *asg.ErrImportUnresolved
	require.ErrorAs(t, err, &unresolvedImport)

	// parse failure inside an import
	files["bad.pspec"] = `type = ;`
	_, err = analyzeErr(`import X from "bad.pspec"; type T = u8;`, files)
	require.Error(t, err)
	var parseErr *asg.ErrImportParse
	require.ErrorAs(t, err, &parseErr)
}

// FFI registration, import resolution, and const/enum lowering are
// separate passes over the whole file, so earlier declarations may
// reference later ones across categories.
func TestAnalyzeDeclarationOrderIndependence(t *testing.T) {
	files := map[string]string{
		"consts.pspec": `const MAX: u32 = 7; const REP: u8 = 2;`,
	}

	// a const referencing an import declared after it
	program, err := analyzeErr(`
		const LIMIT: u32 = MAX;
		import MAX from "consts.pspec";
	`, files)
	require.NoError(t, err)
	limit, ok := program.Consts.Get("LIMIT")
	require.True(t, ok)
	value, ok := asg.EvalConst(limit.Value)
	require.True(t, ok)
	assert.Equal(t, "7", value.Int.String())

	// an enum variant referencing an import declared after it
	program, err = analyzeErr(`
		type E = enum u8 { A = REP };
		import REP from "consts.pspec";
	`, files)
	require.NoError(t, err)
	enumField, _ := program.Types.Get("E")
	variant, ok := enumField.Type.(*asg.EnumType).Items.Get("A")
	require.True(t, ok)
	value, ok = asg.EvalConst(variant.Value)
	require.True(t, ok)
	assert.Equal(t, "2", value.Int.String())

	// a type using ffi objects whose import_ffi comes after it
	_, err = analyzeErr(`
		type T = container { data: u8[..] -> gzip, tail: v32 };
		import_ffi gzip as transform;
		import_ffi v32 as type;
	`, nil)
	require.NoError(t, err)
}

// bitfields fill with the remaining types rather than eagerly, so a
// bitfield may reference a later import while earlier peers may not
// see a later bitfield's members.
func TestAnalyzeBitfieldLowersLazily(t *testing.T) {
	files := map[string]string{
		"consts.pspec": `const MASK: u8 = 8;`,
	}
	program, err := analyzeErr(`
		type F = bitfield u8 { X = MASK };
		import MASK from "consts.pspec";
	`, files)
	require.NoError(t, err)
	field, _ := program.Types.Get("F")
	flag, ok := field.Type.(*asg.BitfieldType).Items.Get("X")
	require.True(t, ok)
	value, ok := asg.EvalConst(flag.Value)
	require.True(t, ok)
	assert.Equal(t, "8", value.Int.String())

	// forward-only visibility between peers still holds: a container
	// before the bitfield it references does not resolve
	_, err = analyzeErr(`
		type T = container { flags: F, x: u8 { flags.X } };
		type F = bitfield u8 { X = 1 };
	`, nil)
	require.Error(t, err)
}

func TestAnalyzePreludeTypes(t *testing.T) {
	program := analyze(t, `
		import_ffi v32 as type;
		import_ffi utf8 as type;
		import_ffi gzip as transform;
		type T = v32;
		type S = container { n: u8 +auto, s: utf8(n) };
	`)
	v32, ok := program.Types.Get("v32")
	require.True(t, ok)
	foreign, ok := v32.Type.(*asg.ForeignType)
	require.True(t, ok)
	scalar, canAuto := foreign.Obj.CanReceiveAuto()
	assert.True(t, canAuto)
	assert.Equal(t, ast.I32, scalar)

	_, ok = program.Transforms.Get("gzip")
	assert.True(t, ok)
}

func TestAnalyzeFFIMissing(t *testing.T) {
	_, err := analyzeErr(`import_ffi nonesuch as type; type T = u8;`, nil)
	require.Error(t, err)
	var missing *asg.ErrFFIMissing
	require.ErrorAs(t, err, &missing)
}

func TestAnalyzePreludeFunctions(t *testing.T) {
	// len and blen are available without declaration
	analyze(t, `type T = container { data: u8[..], ok: bool { len(data) > 0 && blen(data) > 0 } };`)

	_, err := analyzeErr(`type T = container { x: u8 { frobnicate(x) } };`, nil)
	require.Error(t, err)
	var unresolved *asg.ErrUnresolved
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "function", unresolved.Kind)
}

// the same enum laid out on different lines and columns analyzes to the
// same variant values.
func TestSpanInsensitiveComparison(t *testing.T) {
	first := analyze(t, "type E = enum u8 { A = 1, B = 2 };")
	second := analyze(t, "type E =\n  enum u8 {\n    A = 1,\n    B = 2\n  };")

	firstField, _ := first.Types.Get("E")
	secondField, _ := second.Types.Get("E")
	firstEnum := firstField.Type.(*asg.EnumType)
	secondEnum := secondField.Type.(*asg.EnumType)

	var firstValues, secondValues []string
	firstEnum.Items.Range(func(name string, cons *asg.Const) bool {
		v, _ := asg.EvalConst(cons.Value)
		firstValues = append(firstValues, name+"="+v.Int.String())
		return true
	})
	secondEnum.Items.Range(func(name string, cons *asg.Const) bool {
		v, _ := asg.EvalConst(cons.Value)
		secondValues = append(secondValues, name+"="+v.Int.String())
		return true
	})
	if diff := cmp.Diff(firstValues, secondValues); diff != "" {
		t.Fatalf("enum values differ despite identical semantics:\n%s", diff)
	}
}
