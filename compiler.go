package protospec

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/gen"
	"github.com/protospec-dev/protospec/parser"
)

// Options bundles the user-facing generation switches.
type Options struct {
	// FormatOutput runs generated source through go/format.
	FormatOutput bool
	// IncludeAsync additionally emits context-aware encode/decode
	// variants.
	IncludeAsync bool
	// EnumDerives and StructDerives select auxiliary methods generated
	// on emitted types ("String", "Equal"); unknown names are ignored.
	EnumDerives   []string
	StructDerives []string
	// WrapErrors annotates errors leaving generated functions with the
	// type being coded.
	WrapErrors bool
	// DebugMode interleaves codec instruction comments with generated
	// code. Logging does not depend on it.
	DebugMode bool
}

// DefaultOptions mirrors what most build scripts want: formatted
// synchronous code with comparison and printing helpers.
func DefaultOptions() Options {
	return Options{
		FormatOutput:  true,
		EnumDerives:   []string{"Debug", "Eq"},
		StructDerives: []string{"Debug", "Eq"},
	}
}

// Compiler turns schema text into generated Go source files.
type Compiler struct {
	// Resolver locates imports and foreign objects; the prelude is
	// always layered on top. Nil resolves only the prelude.
	Resolver ImportResolver
	Options  Options
	// OutputDir receives one generated file per Compile call.
	OutputDir string
	// Logger receives stage timings and debug output; nil disables
	// logging.
	Logger *zap.Logger
}

func (c *Compiler) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Generate compiles a named schema and returns the generated source.
func (c *Compiler) Generate(name, schema string) ([]byte, error) {
	log := c.logger()
	start := time.Now()

	parsed, err := parser.Parse(schema)
	if err != nil {
		return nil, err
	}
	log.Debug("parsed schema",
		zap.String("name", name),
		zap.Int("declarations", len(parsed.Declarations)),
	)

	resolver := PreludeImportResolver(c.Resolver)
	program, err := asg.ProgramFromAST(parsed, resolver)
	if err != nil {
		return nil, err
	}
	log.Debug("analyzed schema",
		zap.String("name", name),
		zap.Int("types", program.Types.Len()),
		zap.Int("consts", program.Consts.Len()),
	)

	source, err := gen.CompileProgram(program, &gen.Options{
		PackageName:   name,
		FormatOutput:  c.Options.FormatOutput,
		IncludeAsync:  c.Options.IncludeAsync,
		EnumDerives:   c.Options.EnumDerives,
		StructDerives: c.Options.StructDerives,
		WrapErrors:    c.Options.WrapErrors,
		DebugMode:     c.Options.DebugMode,
	}, log)
	if err != nil {
		return nil, err
	}
	log.Debug("generated source",
		zap.String("name", name),
		zap.Int("bytes", len(source)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return source, nil
}

// Compile generates the schema's source and writes it into the
// configured output directory as <name>.go.
func (c *Compiler) Compile(name, schema string) error {
	source, err := c.Generate(name, schema)
	if err != nil {
		return err
	}
	if c.OutputDir == "" {
		return fmt.Errorf("no output directory configured")
	}
	target := filepath.Join(c.OutputDir, name+".go")
	if err := os.WriteFile(target, source, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
