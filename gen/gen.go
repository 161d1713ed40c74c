// Package gen translates codec instruction streams into Go source.
// The walkers in decoder.go and encoder.go print one small block per
// instruction; everything stateful lives in the generated file's
// runtime preamble.
package gen

import (
	"fmt"
	"go/format"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder/decode"
	"github.com/protospec-dev/protospec/coder/encode"
)

// Options selects what the emitter produces.
type Options struct {
	// PackageName names the generated package; defaults to "schema".
	PackageName string
	// FormatOutput runs the source through go/format.
	FormatOutput bool
	// IncludeAsync additionally emits context-aware variants whose
	// every I/O operation is a cancellation point.
	IncludeAsync bool
	// EnumDerives and StructDerives select auxiliary generated
	// methods ("String", "Equal"); unknown names are ignored.
	EnumDerives   []string
	StructDerives []string
	// WrapErrors annotates errors leaving generated functions with the
	// type they were decoding or encoding.
	WrapErrors bool
	// DebugMode interleaves instruction comments with generated code.
	DebugMode bool
}

type generator struct {
	program *asg.Program
	opts    *Options
	logger  *zap.Logger
	reprs   map[string]asg.Type
	// extraImports collects the packages referenced by emitted foreign
	// fragments, so the generated file imports only what it uses
	extraImports map[string]bool
}

func (g *generator) noteImports(imports []string) {
	if g.extraImports == nil {
		g.extraImports = map[string]bool{}
	}
	for _, imp := range imports {
		g.extraImports[imp] = true
	}
}

// CompileProgram emits the complete generated source for a program.
func CompileProgram(program *asg.Program, opts *Options, logger *zap.Logger) ([]byte, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts == nil {
		opts = &Options{FormatOutput: true}
	}
	g := &generator{program: program, opts: opts, logger: logger}

	body := &printer{}
	g.emitConsts(body, program)

	count := 0
	var emitErr error
	program.Types.Range(func(name string, field *asg.Field) bool {
		if _, ok := field.Type.(*asg.ForeignType); ok {
			return true
		}
		defer func() {
			if r := recover(); r != nil {
				emitErr = fmt.Errorf("emitting %s: %v", name, r)
			}
		}()
		g.emitTypeDecl(body, field)
		g.emitCodecs(body, field)
		count++
		return true
	})
	if emitErr != nil {
		return nil, emitErr
	}
	g.logger.Debug("emitted types", zap.Int("count", count))

	out := &printer{}
	pkg := opts.PackageName
	if pkg == "" {
		pkg = "schema"
	}
	out.p("// Code generated by protospec. DO NOT EDIT.")
	out.p("")
	out.p("package %s", pkg)
	out.p("")
	out.p("import (")
	out.in()
	for _, imp := range g.collectImports() {
		out.p("%q", imp)
	}
	out.out()
	out.p(")")
	out.p("%s", runtimePreamble)
	out.splice(body)

	source := []byte(out.String())
	if opts.FormatOutput {
		formatted, err := format.Source(source)
		if err != nil {
			// surface the unformatted source in the error path so the
			// caller can see what failed to parse
			return source, fmt.Errorf("formatting generated code: %w", err)
		}
		source = formatted
	}
	return source, nil
}

func (g *generator) collectImports() []string {
	set := map[string]bool{}
	for _, imp := range baseImports {
		set[imp] = true
	}
	if g.opts.IncludeAsync {
		set["context"] = true
	}
	for imp := range g.extraImports {
		set[imp] = true
	}
	var out []string
	for imp := range set {
		out = append(out, imp)
	}
	sort.Strings(out)
	return out
}

// emitCodecs lowers the field through both coder directions and prints
// the decode/encode functions, sync always, context-aware when
// enabled.
func (g *generator) emitCodecs(p *printer, field *asg.Field) {
	decodeCtx := decode.NewContext()
	decodeCtx.DecodeFieldTop(field)
	encodeCtx := encode.NewContext()
	encodeCtx.EncodeFieldTop(field)
	g.logger.Debug("lowered codecs",
		zap.String("type", field.Name),
		zap.Int("decode_instructions", len(decodeCtx.Instructions)),
		zap.Int("encode_instructions", len(encodeCtx.Instructions)),
	)

	g.emitDecodeFunc(p, field, decodeCtx, false)
	g.emitEncodeFunc(p, field, encodeCtx, false)
	if g.opts.IncludeAsync {
		g.emitDecodeFunc(p, field, decodeCtx, true)
		g.emitEncodeFunc(p, field, encodeCtx, true)
	}
}

// argParams renders the formal-argument list shared by both
// directions. Optional-defaulted arguments are accepted as pointers.
func (g *generator) argParams(field *asg.Field) string {
	var sb strings.Builder
	for _, arg := range field.Arguments {
		sb.WriteString(", ")
		if arg.DefaultValue != nil {
			fmt.Fprintf(&sb, "ps_%s *%s", arg.Name, g.goTypeRef(arg.Type))
		} else {
			fmt.Fprintf(&sb, "%s %s", arg.Name, g.goTypeRef(arg.Type))
		}
	}
	return sb.String()
}

// emitRedefaults rebinds optional arguments to their defaults when the
// caller passed nil.
func (g *generator) emitRedefaults(p *printer, field *asg.Field) {
	for _, arg := range field.Arguments {
		if arg.DefaultValue == nil {
			continue
		}
		em := g.staticExprEmitter()
		p.p("var %s %s", arg.Name, g.goTypeRef(arg.Type))
		p.p("if ps_%s != nil {", arg.Name)
		p.in()
		p.p("%s = *ps_%s", arg.Name, arg.Name)
		p.out()
		p.p("} else {")
		p.in()
		p.p("%s = %s", arg.Name, em.emit(arg.DefaultValue))
		p.out()
		p.p("}")
		p.p("_ = %s", arg.Name)
	}
}

// staticExprEmitter resolves no field references; used for default
// argument values, which may only reference inputs and consts.
func (g *generator) staticExprEmitter() *exprEmitter {
	return &exprEmitter{
		g: g,
		fieldRef: func(f *asg.Field) string {
			panic("field reference in static context: " + f.Name)
		},
		inputRef: func(in *asg.Input) string { return in.Name },
	}
}

// outType is the Go type a decode function returns.
func (g *generator) outType(field *asg.Field) string {
	return exported(field.Name)
}

// isTaggedEnum reports whether the field is a tagged-enum container.
func isTaggedEnum(field *asg.Field) bool {
	c, ok := field.Type.(*asg.ContainerType)
	return ok && c.IsEnum
}

// refCallArgs renders the trailing call arguments for a reference to
// another top-level type, wrapping optional-defaulted formals as
// pointers and passing nil for omitted ones.
func (g *generator) refCallArgs(name string, registers []int) string {
	var formals []asg.TypeArgument
	if target, ok := g.program.Types.Get(name); ok {
		formals = target.Arguments
	}
	var sb strings.Builder
	for i, formal := range formals {
		sb.WriteString(", ")
		switch {
		case i >= len(registers):
			sb.WriteString("nil")
		case formal.DefaultValue != nil:
			fmt.Fprintf(&sb, "psPtr(r_%d)", registers[i])
		default:
			fmt.Fprintf(&sb, "r_%d", registers[i])
		}
	}
	// calls to types with no declared formals still pass any evaluated
	// argument registers positionally
	if len(formals) == 0 {
		for _, r := range registers {
			fmt.Fprintf(&sb, ", r_%d", r)
		}
	}
	return sb.String()
}

// isBitfield reports whether the named repr type is a bitfield (any
// raw value is valid) rather than an enum (unknown discriminants are
// rejected).
func (g *generator) isBitfield(name string) bool {
	if t, ok := g.reprIndex()[name]; ok {
		_, isBitfield := t.(*asg.BitfieldType)
		return isBitfield
	}
	return false
}

// reprIndex maps enum and bitfield names, including ones declared
// inline inside containers, to their semantic types.
func (g *generator) reprIndex() map[string]asg.Type {
	if g.reprs != nil {
		return g.reprs
	}
	g.reprs = map[string]asg.Type{}
	var walk func(t asg.Type)
	walk = func(t asg.Type) {
		switch typ := t.(type) {
		case *asg.EnumType:
			g.reprs[typ.Name] = typ
		case *asg.BitfieldType:
			g.reprs[typ.Name] = typ
		case *asg.ContainerType:
			typ.Items.Range(func(_ string, child *asg.Field) bool {
				walk(child.Type)
				return true
			})
		case *asg.ArrayType:
			walk(typ.Element.Type)
		}
	}
	g.program.Types.Range(func(_ string, field *asg.Field) bool {
		walk(field.Type)
		return true
	})
	return g.reprs
}

func decodeFuncName(name string, isAsync bool) string {
	if isAsync {
		return "Decode" + exported(name) + "Ctx"
	}
	return "Decode" + exported(name) + "Sync"
}
