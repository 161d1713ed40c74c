package prelude

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

func TestVarIntTyping(t *testing.T) {
	v32 := NewVarInt(ast.I32)
	assert.Equal(t, "int32", v32.TypeRef())
	scalar, ok := v32.CanReceiveAuto()
	require.True(t, ok)
	assert.Equal(t, ast.I32, scalar)

	assert.True(t, v32.AssignableFromType(asg.NewScalar(ast.I8)))
	assert.False(t, v32.AssignableFromType(asg.NewScalar(ast.I64)))
	assert.True(t, v32.AssignableToType(asg.NewScalar(ast.I64)))
}

func TestVarIntFragments(t *testing.T) {
	v32 := NewVarInt(ast.I32)
	decode := v32.DecodingGen("src", "r_1", nil, false)
	// LEB128: 7 value bits per byte, continuation in the high bit
	assert.Contains(t, decode, "0x7f")
	assert.Contains(t, decode, "0x80")
	assert.Contains(t, decode, "psShift += 7")

	encode := v32.EncodingGen("dst", "r_1", nil, false)
	assert.Contains(t, encode, "psV >= 0x80")
	assert.Contains(t, encode, "psV >>= 7")

	// async fragments suspend before I/O
	asyncDecode := v32.DecodingGen("src", "r_1", nil, true)
	assert.Contains(t, asyncDecode, "ctx.Err()")
}

func TestVarInt128UsesBig(t *testing.T) {
	v128 := NewVarInt(ast.I128)
	assert.Equal(t, "*big.Int", v128.TypeRef())
	assert.Contains(t, v128.DecodingGen("src", "r_1", nil, false), "big.NewInt")
}

func TestUTF8Fragments(t *testing.T) {
	var u UTF8
	assert.Equal(t, "string", u.TypeRef())
	args := u.Arguments()
	require.Len(t, args, 1)
	assert.True(t, args[0].CanResolveAuto)
	assert.NotNil(t, args[0].DefaultValue)

	decode := u.DecodingGen("src", "r_1", []string{"r_0"}, false)
	assert.Contains(t, decode, "io.ReadAll")
	assert.Contains(t, decode, "psReadFull")
}

func TestResolverPreludeTable(t *testing.T) {
	r := WrapResolver(nil)
	for _, name := range []string{"v8", "v16", "v32", "v64", "v128", "utf8", "utf16"} {
		obj, err := r.ResolveFFIType(name)
		require.NoError(t, err)
		assert.NotNil(t, obj, name)
	}
	for _, name := range []string{"gzip", "base64", "base58", "lz4"} {
		obj, err := r.ResolveFFITransform(name)
		require.NoError(t, err)
		assert.NotNil(t, obj, name)
	}
	for _, name := range []string{"len", "blen", "pad", "bits", "sum"} {
		obj, err := r.ResolveFFIFunction(name)
		require.NoError(t, err)
		assert.NotNil(t, obj, name)
	}

	obj, err := r.ResolveFFIType("nonesuch")
	require.NoError(t, err)
	assert.Nil(t, obj)

	fns, err := r.PreludeFFIFunctions()
	require.NoError(t, err)
	assert.Contains(t, fns, "len")
	assert.Contains(t, fns, "blen")
}

func TestFunctionEmission(t *testing.T) {
	arg := func(v string) []asg.FFIArgumentValue {
		return []asg.FFIArgumentValue{{Present: true, Value: v}}
	}
	assert.Equal(t, "uint64(len(xs))", LenFunction{}.Call(arg("xs")))
	assert.Equal(t, "psSum(xs)", SumFunction{}.Call(arg("xs")))
	assert.Contains(t, BitsFunction{}.Call(arg("x")), "bits.OnesCount64")
	assert.Contains(t, PadFunction{}.Call([]asg.FFIArgumentValue{
		{Present: true, Value: "a"}, {Present: true, Value: "b"},
	}), "psPadLen")
	assert.Contains(t, BitsFunction{}.Imports(), "math/bits")
}

// The stream transforms lean on their libraries' round-trip and
// flush-on-close behavior; these pin the contracts the generated
// fragments assume.

func TestGzipLibraryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), out)
}

func TestBase64LibraryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	_, err := enc.Write([]byte{0x01, 0x02, 0xFF})
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	out, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, strings.NewReader(buf.String())))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF}, out)
}

func TestLZ4LibraryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte("payload payload payload"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := io.ReadAll(lz4.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload payload payload"), out)
}

func TestBase58LibraryRoundTrip(t *testing.T) {
	encoded := base58.Encode([]byte{0x00, 0x01, 0xFF})
	decoded, err := base58.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0xFF}, decoded)
}

func TestTransformFragments(t *testing.T) {
	decode := GzipTransform{}.DecodingGen("src", "r_2", nil, false)
	assert.Contains(t, decode, "gzip.NewReader(src)")
	assert.Contains(t, decode, "r_2 = bufio.NewReader")

	encode := Base58Transform{}.EncodingGen("dst", "r_2", nil, false)
	assert.Contains(t, encode, "psFuncWriter")
	assert.Contains(t, encode, "base58.Encode")

	end := LZ4Transform{}.EncodingEnd("r_2", false)
	assert.Contains(t, end, "psEndStream(r_2)")
}
