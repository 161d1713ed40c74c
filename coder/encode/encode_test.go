package encode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder/encode"
	"github.com/protospec-dev/protospec/parser"
	"github.com/protospec-dev/protospec/prelude"
)

func lower(t *testing.T, schema, name string) *encode.Context {
	t.Helper()
	parsed, err := parser.Parse(schema)
	require.NoError(t, err)
	program, err := asg.ProgramFromAST(parsed, prelude.WrapResolver(nil))
	require.NoError(t, err)
	field, ok := program.Types.Get(name)
	require.True(t, ok)
	ctx := encode.NewContext()
	ctx.EncodeFieldTop(field)
	return ctx
}

func flatten(list []encode.Instruction) []encode.Instruction {
	var out []encode.Instruction
	for _, inst := range list {
		out = append(out, inst)
		switch nested := inst.(type) {
		case encode.Loop:
			out = append(out, flatten(nested.Body)...)
		case encode.Conditional:
			out = append(out, flatten(nested.Then)...)
			out = append(out, flatten(nested.Else)...)
		case encode.BreakBlock:
			out = append(out, flatten(nested.Body)...)
		case encode.ConditionalWrapStream:
			out = append(out, flatten(nested.Prelude)...)
		}
	}
	return out
}

func count[T encode.Instruction](list []encode.Instruction) int {
	n := 0
	for _, inst := range flatten(list) {
		if _, ok := inst.(T); ok {
			n++
		}
	}
	return n
}

func TestEncodeConditionalNullCheck(t *testing.T) {
	ctx := lower(t, `type T = container { len: u32, present: bool, data: u8[len] { present } };`, "T")
	all := flatten(ctx.Instructions)

	require.Equal(t, 1, count[encode.Conditional](ctx.Instructions))
	require.Equal(t, 1, count[encode.NullCheck](ctx.Instructions))

	// the null check sits inside the conditional branch
	var conditional encode.Conditional
	for _, inst := range ctx.Instructions {
		if c, ok := inst.(encode.Conditional); ok {
			conditional = c
		}
	}
	assert.Equal(t, 1, count[encode.NullCheck](conditional.Then))
	_ = all
}

func TestEncodeAutoFieldBuffering(t *testing.T) {
	ctx := lower(t, `type T = container { n: u16 +auto, data: u8[n] };`, "T")

	// the auto field defers into a dynamic buffer that is emitted
	// after the length resolves
	require.Equal(t, 1, count[encode.AllocDynBuf](ctx.Instructions))
	require.Equal(t, 1, count[encode.GetLen](ctx.Instructions))
	require.Equal(t, 1, count[encode.EmitBuf](ctx.Instructions))

	// resolution order: buffer allocated, content written into it,
	// length computed, auto written, buffer flushed
	var order []string
	for _, inst := range flatten(ctx.Instructions) {
		switch inst.(type) {
		case encode.AllocDynBuf:
			order = append(order, "alloc")
		case encode.GetLen:
			order = append(order, "getlen")
		case encode.EncodePrimitiveArray:
			order = append(order, "array")
		case encode.EncodePrimitive:
			order = append(order, "auto")
		case encode.EmitBuf:
			order = append(order, "emit")
		}
	}
	assert.Equal(t, []string{"alloc", "getlen", "array", "auto", "emit"}, order)

	resolved, ok := ctx.ResolvedAutos.Get("n")
	assert.True(t, ok)
	assert.Greater(t, resolved, 0)
}

func TestEncodeTaggedEnumBreakBlock(t *testing.T) {
	ctx := lower(t, `type P(t: u8) = container +tagged_enum { Byte: i8 { t == 1 }, Short: i16 { t == 2 } };`, "P")

	require.Equal(t, 1, count[encode.BreakBlock](ctx.Instructions))
	assert.Equal(t, 2, count[encode.UnwrapEnum](ctx.Instructions))
	assert.Equal(t, 2, count[encode.Break](ctx.Instructions))
	// both arms are conditional
	assert.Equal(t, 2, count[encode.Conditional](ctx.Instructions))
}

func TestEncodeTaggedEnumStructArm(t *testing.T) {
	ctx := lower(t, `type P(t: u8) = container +tagged_enum { Pair: container { a: u8, b: u8 } { t == 1 } };`, "P")
	all := flatten(ctx.Instructions)
	var unwrap *encode.UnwrapEnumStruct
	for _, inst := range all {
		if u, ok := inst.(encode.UnwrapEnumStruct); ok {
			unwrap = &u
		}
	}
	require.NotNil(t, unwrap)
	require.Len(t, unwrap.Targets, 2)
	assert.Equal(t, "a", unwrap.Targets[0].Name)
	assert.Equal(t, "b", unwrap.Targets[1].Name)
}

func TestEncodePrimitiveArrayFastPath(t *testing.T) {
	ctx := lower(t, `type T = container { xs: u32[8] };`, "T")
	assert.Equal(t, 0, count[encode.Loop](ctx.Instructions))
	require.Equal(t, 1, count[encode.EncodePrimitiveArray](ctx.Instructions))
}

func TestEncodeRefElementLoop(t *testing.T) {
	ctx := lower(t, `
		type Item = container { v: u8 };
		type T = container { items: Item[..] };
	`, "T")
	require.Equal(t, 1, count[encode.Loop](ctx.Instructions))
	assert.Equal(t, 1, count[encode.GetLen](ctx.Instructions))
	assert.Equal(t, 1, count[encode.EncodeRef](ctx.Instructions))
}

func TestEncodeTransformStreamLifecycle(t *testing.T) {
	ctx := lower(t, `import_ffi gzip as transform; import_ffi base64 as transform;
		type T = container { data: u8[..] -> gzip -> base64 };`, "T")

	require.Equal(t, 2, count[encode.WrapStream](ctx.Instructions))
	require.Equal(t, 2, count[encode.EndStream](ctx.Instructions))

	// streams end in reverse order of acquisition
	var wraps, ends []int
	for _, inst := range flatten(ctx.Instructions) {
		switch w := inst.(type) {
		case encode.WrapStream:
			wraps = append(wraps, w.NewStream)
		case encode.EndStream:
			ends = append(ends, w.Stream)
		}
	}
	require.Len(t, wraps, 2)
	require.Len(t, ends, 2)
	assert.Equal(t, wraps[0], ends[1])
	assert.Equal(t, wraps[1], ends[0])
}

func TestEncodeConditionalTransformOwnsStream(t *testing.T) {
	ctx := lower(t, `import_ffi gzip as transform; type T = container { z: bool, data: u8[..] -> gzip { z } };`, "T")
	all := flatten(ctx.Instructions)
	var wrap *encode.ConditionalWrapStream
	for _, inst := range all {
		if cw, ok := inst.(encode.ConditionalWrapStream); ok {
			wrap = &cw
		}
	}
	require.NotNil(t, wrap)
	assert.NotEqual(t, wrap.NewStream, wrap.OwnedNewStream)
	assert.Equal(t, 1, count[encode.Drop](ctx.Instructions))
}

func TestEncodePad(t *testing.T) {
	ctx := lower(t, `type T = container { a: u8, .pad: 3, b: u8 };`, "T")
	require.Equal(t, 1, count[encode.Pad](ctx.Instructions))
}

func TestEncodeLengthBoundedContainerBuffers(t *testing.T) {
	ctx := lower(t, `type T = container { n: u32, body: container [n] { a: u8, b: u8 } };`, "T")
	require.Equal(t, 1, count[encode.AllocBuf](ctx.Instructions))
	require.Equal(t, 1, count[encode.EmitBuf](ctx.Instructions))
}

func TestEncodeForeignAutoResolution(t *testing.T) {
	ctx := lower(t, `import_ffi utf8 as type;
		type T = container { n: u8 +auto, s: utf8(n) };`, "T")
	// the utf8 length argument resolves the auto field from the
	// string's own length
	require.Equal(t, 1, count[encode.EncodeForeign](ctx.Instructions))
	require.Equal(t, 1, count[encode.GetLen](ctx.Instructions))
	_, ok := ctx.ResolvedAutos.Get("n")
	assert.True(t, ok)
}
