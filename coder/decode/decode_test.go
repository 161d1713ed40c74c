package decode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
	"github.com/protospec-dev/protospec/coder/decode"
	"github.com/protospec-dev/protospec/parser"
	"github.com/protospec-dev/protospec/prelude"
)

func lower(t *testing.T, schema, name string) *decode.Context {
	t.Helper()
	parsed, err := parser.Parse(schema)
	require.NoError(t, err)
	program, err := asg.ProgramFromAST(parsed, prelude.WrapResolver(nil))
	require.NoError(t, err)
	field, ok := program.Types.Get(name)
	require.True(t, ok)
	ctx := decode.NewContext()
	ctx.DecodeFieldTop(field)
	return ctx
}

func countKind[T decode.Instruction](instructions []decode.Instruction) int {
	count := 0
	var walk func([]decode.Instruction)
	walk = func(list []decode.Instruction) {
		for _, inst := range list {
			if _, ok := inst.(T); ok {
				count++
			}
			switch nested := inst.(type) {
			case decode.Loop:
				walk(nested.Body)
			case decode.Conditional:
				walk(nested.Body)
			case decode.ConditionalPredicate:
				walk(nested.Body)
			case decode.ConditionalWrapStream:
				walk(nested.Prelude)
			}
		}
	}
	walk(instructions)
	return count
}

func TestDecodeConditionalArray(t *testing.T) {
	ctx := lower(t, `type T = container { len: u32, present: bool, data: u8[len] { present } };`, "T")

	// the conditional field's decode is wrapped in a Conditional whose
	// body takes the primitive-array fast path
	require.Equal(t, 1, countKind[decode.Conditional](ctx.Instructions))
	require.Equal(t, 1, countKind[decode.DecodePrimitiveArray](ctx.Instructions))
	// len and present decode as plain primitives
	assert.Equal(t, 2, countKind[decode.DecodePrimitive](ctx.Instructions))
	// the whole container constructs a struct and returns it
	assert.Equal(t, 1, countKind[decode.Construct](ctx.Instructions))
	assert.Equal(t, 1, countKind[decode.Return](ctx.Instructions))

	var conditional decode.Conditional
	for _, inst := range ctx.Instructions {
		if c, ok := inst.(decode.Conditional); ok {
			conditional = c
		}
	}
	require.NotEmpty(t, conditional.Body)
	assert.Equal(t, 1, countKind[decode.DecodePrimitiveArray](conditional.Body))
}

func TestDecodeEnumRepr(t *testing.T) {
	ctx := lower(t, `type E = enum u8 { A = 1, B = 2 };`, "E")
	require.Equal(t, 1, countKind[decode.DecodeRepr](ctx.Instructions))
	assert.Equal(t, 1, countKind[decode.Return](ctx.Instructions))

	repr := ctx.Instructions[0].(decode.DecodeRepr)
	assert.Equal(t, "E", repr.Name)
	assert.Equal(t, uint64(1), repr.Type.Size())
}

func TestDecodeTaggedEnumArms(t *testing.T) {
	ctx := lower(t, `type P(t: u8) = container +tagged_enum { Byte: i8 { t == 1 }, Short: i16 { t == 2 } };`, "P")

	// each arm decodes under a predicate and returns on match
	assert.Equal(t, 2, countKind[decode.ConditionalPredicate](ctx.Instructions))
	assert.Equal(t, 2, countKind[decode.Return](ctx.Instructions))
	// exhausting all arms is a decode error
	require.Equal(t, 1, countKind[decode.Error](ctx.Instructions))
	last := ctx.Instructions[len(ctx.Instructions)-1].(decode.Error)
	assert.Contains(t, last.Message, "no enum conditions matched")
}

func TestDecodeExpandableArrayLoop(t *testing.T) {
	// ref elements disable the fast path, so a loop is emitted
	ctx := lower(t, `
		type Item = container { v: u8 };
		type T = container { items: Item[..] };
	`, "T")
	require.Equal(t, 1, countKind[decode.Loop](ctx.Instructions))
	assert.Equal(t, 1, countKind[decode.LoopOutput](ctx.Instructions))

	var loop decode.Loop
	var walk func([]decode.Instruction)
	walk = func(list []decode.Instruction) {
		for _, inst := range list {
			if l, ok := inst.(decode.Loop); ok {
				loop = l
			}
		}
	}
	walk(ctx.Instructions)
	assert.Nil(t, loop.Stop)
	assert.Nil(t, loop.Terminator)
	assert.Equal(t, 1, countKind[decode.DecodeRef](loop.Body))
}

func TestDecodeTerminatedArray(t *testing.T) {
	ctx := lower(t, `type Item = container { v: u8 }; type T = container { items: Item[.."\0"] };`, "T")
	var loop *decode.Loop
	for _, inst := range ctx.Instructions {
		if l, ok := inst.(decode.Loop); ok {
			loop = &l
		}
	}
	require.NotNil(t, loop)
	assert.NotNil(t, loop.Terminator)
	assert.Nil(t, loop.Stop)
}

func TestDecodePrimitiveArrayFastPath(t *testing.T) {
	ctx := lower(t, `type T = container { xs: u32[8] };`, "T")
	assert.Equal(t, 0, countKind[decode.Loop](ctx.Instructions))
	require.Equal(t, 1, countKind[decode.DecodePrimitiveArray](ctx.Instructions))
}

func TestDecodeLengthBoundedContainer(t *testing.T) {
	ctx := lower(t, `type T = container { n: u32, body: container [n] { a: u8, b: u8 } };`, "T")
	require.Equal(t, 1, countKind[decode.Constrict](ctx.Instructions))
}

func TestDecodeTransformWrap(t *testing.T) {
	ctx := lower(t, `import_ffi gzip as transform; type T = container { data: u8[..] -> gzip };`, "T")
	require.Equal(t, 1, countKind[decode.WrapStream](ctx.Instructions))
}

func TestDecodeConditionalTransformWrap(t *testing.T) {
	ctx := lower(t, `import_ffi gzip as transform; type T = container { z: bool, data: u8[..] -> gzip { z } };`, "T")
	require.Equal(t, 1, countKind[decode.ConditionalWrapStream](ctx.Instructions))
	assert.Equal(t, 0, countKind[decode.WrapStream](ctx.Instructions))
}

func TestDecodePadSkips(t *testing.T) {
	ctx := lower(t, `type T = container { a: u8, .pad: 3, b: u8 };`, "T")
	require.Equal(t, 1, countKind[decode.Skip](ctx.Instructions))
	// pads do not appear in the constructed struct
	for _, inst := range ctx.Instructions {
		if c, ok := inst.(decode.Construct); ok {
			s := c.Value.(decode.ConstructStruct)
			require.Len(t, s.Items, 2)
		}
	}
}

func TestDecodeNewtypeWrapsTuple(t *testing.T) {
	ctx := lower(t, `import_ffi v32 as type; type T = v32;`, "T")
	require.Equal(t, 1, countKind[decode.DecodeForeign](ctx.Instructions))
	found := false
	for _, inst := range ctx.Instructions {
		if c, ok := inst.(decode.Construct); ok {
			if _, ok := c.Value.(decode.ConstructTaggedTuple); ok {
				found = true
			}
		}
	}
	assert.True(t, found, "non-structural top-level types get a newtype constructor")
}

func TestDecodeRefWithArguments(t *testing.T) {
	ctx := lower(t, `
		type P(t: u8) = container +tagged_enum { A: i8 { t == 1 }, B: i16 };
		type O = container { t: u8, p: P(t) };
	`, "O")
	var ref *decode.DecodeRef
	for _, inst := range ctx.Instructions {
		if r, ok := inst.(decode.DecodeRef); ok {
			ref = &r
		}
	}
	require.NotNil(t, ref)
	assert.Equal(t, "P", ref.Name)
	assert.Len(t, ref.Arguments, 1)
}

func TestDecodeEvalCarriesFieldSnapshot(t *testing.T) {
	ctx := lower(t, `type T = container { len: u32, data: u8[len] };`, "T")
	// the Eval of the array length must see the decoded len register
	found := false
	for _, inst := range ctx.Instructions {
		if e, ok := inst.(decode.Eval); ok {
			if _, ok := e.FieldRegisterMap["len"]; ok {
				found = true
			}
		}
	}
	assert.True(t, found)
	_ = coder.Direct
}
