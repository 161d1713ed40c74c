package protospec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	protospec "github.com/protospec-dev/protospec"
)

const conditionalSchema = `type T = container { len: u32, present: bool, data: u8[len] { present } };`

func TestCompilerGenerate(t *testing.T) {
	c := protospec.Compiler{
		Options: protospec.DefaultOptions(),
		Logger:  zaptest.NewLogger(t),
	}
	source, err := c.Generate("wire", conditionalSchema)
	require.NoError(t, err)
	assert.Contains(t, string(source), "package wire")
	assert.Contains(t, string(source), "func DecodeTSync")
	assert.Contains(t, string(source), "func (v T) EncodeSync")
}

func TestCompilerGenerateAsync(t *testing.T) {
	options := protospec.DefaultOptions()
	options.IncludeAsync = true
	c := protospec.Compiler{Options: options}
	source, err := c.Generate("wire", conditionalSchema)
	require.NoError(t, err)
	assert.Contains(t, string(source), "func DecodeTCtx")
	assert.Contains(t, string(source), "func (v T) EncodeCtx")
}

func TestCompilerCompileWritesFile(t *testing.T) {
	dir := t.TempDir()
	c := protospec.Compiler{
		Options:   protospec.DefaultOptions(),
		OutputDir: dir,
	}
	require.NoError(t, c.Compile("packets", conditionalSchema))
	written, err := os.ReadFile(filepath.Join(dir, "packets.go"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "package packets")
}

func TestCompilerCompileNoOutputDir(t *testing.T) {
	c := protospec.Compiler{Options: protospec.DefaultOptions()}
	err := c.Compile("packets", conditionalSchema)
	require.Error(t, err)
}

func TestCompilerSurfacesParseErrors(t *testing.T) {
	c := protospec.Compiler{Options: protospec.DefaultOptions()}
	_, err := c.Generate("wire", "type T = ;")
	require.Error(t, err)
	// compile-time errors abort at the first occurrence with a span
	assert.Contains(t, err.Error(), ":")
}

func TestCompilerSurfacesAnalysisErrors(t *testing.T) {
	c := protospec.Compiler{Options: protospec.DefaultOptions()}
	_, err := c.Generate("wire", `type T = container { data: u8[nope] };`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

// scenarioResolver serves the import used by the end-to-end scenarios.
type scenarioResolver struct {
	protospec.NullImportResolver
}

func (scenarioResolver) ResolveImport(path string) (string, bool, error) {
	if path == "shared.pspec" {
		return `type Shared = container { magic: u32 };`, true, nil
	}
	return "", false, nil
}

func TestCompilerWithImports(t *testing.T) {
	c := protospec.Compiler{
		Resolver: scenarioResolver{},
		Options:  protospec.DefaultOptions(),
	}
	source, err := c.Generate("wire", `
		import Shared from "shared.pspec";
		type T = container { hdr: Shared, rest: u8[..] };
	`)
	require.NoError(t, err)
	assert.Contains(t, string(source), "DecodeSharedSync")
}

// the six specification scenarios all compile end to end.
func TestCompilerScenarios(t *testing.T) {
	scenarios := map[string]string{
		"conditional_array": conditionalSchema,
		"enum":              `type E = enum u8 { A = 1, B = 2 };`,
		"bitfield": `type F = bitfield u8 { X = 1, Y = 2, Z = 4 };
			type T = container { flags: F, x: u8 { flags.X }, z: u8 { flags.Z } };`,
		"auto_length": `type T = container { n: u16 +auto, data: u8[n] };`,
		"tagged_enum": `type P(t: u8) = container +tagged_enum { Byte: i8 { t == 1 }, Short: i16 { t == 2 } };
			type O = container { t: u8, p: P(t) };`,
		"varint": `import_ffi v32 as type; type T = v32;`,
	}
	for name, schema := range scenarios {
		t.Run(name, func(t *testing.T) {
			c := protospec.Compiler{Options: protospec.DefaultOptions()}
			source, err := c.Generate("wire", schema)
			require.NoError(t, err, "generated source:\n%s", source)
			assert.NotEmpty(t, source)
		})
	}
}
