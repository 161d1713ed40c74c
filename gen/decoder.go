package gen

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/coder"
	"github.com/protospec-dev/protospec/coder/decode"
)

type decodeWalker struct {
	g        *generator
	isAsync  bool
	regTypes map[int]string
	outType  string
}

func (g *generator) emitDecodeFunc(p *printer, field *asg.Field, ctx *decode.Context, isAsync bool) {
	name := decodeFuncName(field.Name, isAsync)
	outType := g.outType(field)
	args := g.argParams(field)
	if isAsync {
		p.p("func %s(ctx context.Context, r *bufio.Reader%s) (out %s, err error) {", name, args, outType)
	} else {
		p.p("func %s(r *bufio.Reader%s) (out %s, err error) {", name, args, outType)
	}
	p.in()
	if g.opts.WrapErrors {
		p.p("defer func() {")
		p.in()
		p.p("if err != nil {")
		p.in()
		p.p("err = fmt.Errorf(\"decode %s: %%w\", err)", outType)
		p.out()
		p.p("}")
		p.out()
		p.p("}()")
	}
	g.emitRedefaults(p, field)
	w := &decodeWalker{g: g, isAsync: isAsync, regTypes: map[int]string{}, outType: outType}
	w.emitAll(p, ctx.Instructions)
	p.p("return")
	p.out()
	p.p("}")
	p.p("")
}

func (w *decodeWalker) emitAll(p *printer, instructions []decode.Instruction) {
	for _, inst := range instructions {
		w.emit(p, inst)
	}
}

func reg(n coder.Register) string { return fmt.Sprintf("r_%d", n) }

// target renders a decode target as a *bufio.Reader expression.
func (w *decodeWalker) target(t coder.Target) string {
	switch t.Kind {
	case coder.TargetDirect:
		return "r"
	default:
		return reg(t.Register)
	}
}

func (w *decodeWalker) ctxCheck(p *printer) {
	if w.isAsync {
		p.p("if err = ctx.Err(); err != nil {")
		p.in()
		p.p("return")
		p.out()
		p.p("}")
	}
}

// exprEmitter builds the resolver for a decode-side Eval: field
// references read the registers decoded so far.
func (w *decodeWalker) exprEmitter(fieldRegisters map[string]coder.Register) *exprEmitter {
	return &exprEmitter{
		g: w.g,
		fieldRef: func(f *asg.Field) string {
			register, ok := fieldRegisters[f.Name]
			if !ok {
				panic("unbound field reference in decoder: " + f.Name)
			}
			if f.Condition != nil {
				return "(*" + reg(register) + ")"
			}
			return reg(register)
		},
		inputRef: func(in *asg.Input) string { return in.Name },
	}
}

func (w *decodeWalker) exprGoType(expr asg.Expression) string {
	t := expr.GetType()
	if t == nil {
		return "uint64"
	}
	if _, ok := t.(*asg.ContainerType); ok {
		return "uint64"
	}
	return w.g.goTypeRef(t)
}

func (w *decodeWalker) errCheck(p *printer, errVar string) {
	p.p("if %s != nil {", errVar)
	p.in()
	p.p("err = %s", errVar)
	p.p("return")
	p.out()
	p.p("}")
}

func (w *decodeWalker) emit(p *printer, inst decode.Instruction) {
	if w.g.opts.DebugMode {
		p.p("// %T", inst)
	}
	switch i := inst.(type) {
	case decode.Eval:
		em := w.exprEmitter(i.FieldRegisterMap)
		p.p("%s := %s", reg(i.Target), em.emit(i.Expr))
		p.p("_ = %s", reg(i.Target))
		w.regTypes[i.Target] = w.exprGoType(i.Expr)

	case decode.Construct:
		w.emitConstruct(p, i)

	case decode.Constrict:
		p.p("%s := bufio.NewReader(io.LimitReader(%s, int64(%s)))",
			reg(i.NewStream), w.target(i.Source), reg(i.Len))
		w.regTypes[i.NewStream] = "*bufio.Reader"

	case decode.WrapStream:
		w.g.noteImports(i.Transform.Inner.Imports())
		p.p("var %s *bufio.Reader", reg(i.NewStream))
		args := make([]string, len(i.Arguments))
		for n, a := range i.Arguments {
			args[n] = reg(a)
		}
		p.p("%s", i.Transform.Inner.DecodingGen(w.target(i.Stream), reg(i.NewStream), args, w.isAsync))
		w.regTypes[i.NewStream] = "*bufio.Reader"

	case decode.ConditionalWrapStream:
		w.g.noteImports(i.Transform.Inner.Imports())
		p.p("%s := %s", reg(i.NewStream), w.target(i.Stream))
		p.p("if %s {", reg(i.Condition))
		p.in()
		w.emitAll(p, i.Prelude)
		args := make([]string, len(i.Arguments))
		for n, a := range i.Arguments {
			args[n] = reg(a)
		}
		p.p("%s", i.Transform.Inner.DecodingGen(w.target(i.Stream), reg(i.NewStream), args, w.isAsync))
		p.out()
		p.p("}")
		w.regTypes[i.NewStream] = "*bufio.Reader"

	case decode.DecodeForeign:
		w.g.noteImports(i.Type.Obj.Imports())
		w.ctxCheck(p)
		p.p("var %s %s", reg(i.Output), i.Type.Obj.TypeRef())
		args := make([]string, len(i.Arguments))
		for n, a := range i.Arguments {
			args[n] = reg(a)
		}
		p.p("%s", i.Type.Obj.DecodingGen(w.target(i.Target), reg(i.Output), args, w.isAsync))
		p.p("_ = %s", reg(i.Output))
		w.regTypes[i.Output] = i.Type.Obj.TypeRef()

	case decode.DecodeRef:
		w.ctxCheck(p)
		callee := decodeFuncName(i.Name, w.isAsync)
		callArgs := w.g.refCallArgs(i.Name, i.Arguments)
		e := "e_" + reg(i.Output)
		if w.isAsync {
			p.p("%s, %s := %s(ctx, %s%s)", reg(i.Output), e, callee, w.target(i.Target), callArgs)
		} else {
			p.p("%s, %s := %s(%s%s)", reg(i.Output), e, callee, w.target(i.Target), callArgs)
		}
		w.errCheck(p, e)
		p.p("_ = %s", reg(i.Output))
		w.regTypes[i.Output] = exported(i.Name)

	case decode.DecodeRepr:
		w.emitDecodeRepr(p, i)

	case decode.DecodePrimitive:
		w.ctxCheck(p)
		e := "e_" + reg(i.Output)
		src := w.target(i.Target)
		switch i.Type.Kind {
		case coder.PrimitiveBool:
			p.p("%s, %s := psReadBool(%s)", reg(i.Output), e, src)
			w.regTypes[i.Output] = "bool"
		case coder.PrimitiveF32:
			p.p("%s, %s := psReadF32(%s, true)", reg(i.Output), e, src)
			w.regTypes[i.Output] = "float32"
		case coder.PrimitiveF64:
			p.p("%s, %s := psReadF64(%s, true)", reg(i.Output), e, src)
			w.regTypes[i.Output] = "float64"
		default:
			s := i.Type.Scalar
			if isBigScalar(s.Scalar) {
				p.p("%s, %s := psReadBig(%s, %v, %v)", reg(i.Output), e, src,
					s.Scalar.Signed(), bigEndian(s))
				w.regTypes[i.Output] = "*big.Int"
			} else {
				goType := scalarGoType(s.Scalar)
				p.p("%s, %s := psReadScalar[%s](%s, %d, %v)", reg(i.Output), e, goType, src,
					s.Scalar.Size(), bigEndian(s))
				w.regTypes[i.Output] = goType
			}
		}
		w.errCheck(p, e)
		p.p("_ = %s", reg(i.Output))

	case decode.DecodePrimitiveArray:
		w.ctxCheck(p)
		w.emitPrimitiveArray(p, i)

	case decode.DecodeReprArray:
		w.ctxCheck(p)
		w.emitReprArray(p, i)

	case decode.Skip:
		w.ctxCheck(p)
		p.p("if err = psSkip(%s, uint64(%s)); err != nil {", w.target(i.Target), reg(i.Len))
		p.in()
		p.p("return")
		p.out()
		p.p("}")

	case decode.Loop:
		w.emitLoop(p, i)

	case decode.LoopOutput:
		p.p("%s = append(%s, %s)", reg(i.Output), reg(i.Output), reg(i.Item))

	case decode.Conditional:
		body := &printer{}
		w.emitAll(body, i.Body)
		interiorType := w.regTypes[i.Interior]
		if interiorType == "" {
			interiorType = "uint64"
		}
		p.p("var %s *%s", reg(i.Target), interiorType)
		p.p("if %s {", reg(i.Condition))
		p.in()
		p.splice(body)
		p.p("%s = psPtr(%s)", reg(i.Target), reg(i.Interior))
		p.out()
		p.p("}")
		p.p("_ = %s", reg(i.Target))
		w.regTypes[i.Target] = "*" + interiorType

	case decode.ConditionalPredicate:
		p.p("if %s {", reg(i.Condition))
		p.in()
		w.emitAll(p, i.Body)
		p.out()
		p.p("}")

	case decode.Return:
		p.p("out = %s", reg(i.Register))
		p.p("return")

	case decode.Error:
		p.p("err = &DecodeError{Message: %q}", i.Message)
		p.p("return")

	default:
		panic(fmt.Sprintf("unknown decode instruction %T", inst))
	}
}

func bigEndian(s ast.EndianScalar) bool { return s.Endian == ast.BigEndian }

func (w *decodeWalker) emitConstruct(p *printer, i decode.Construct) {
	switch c := i.Value.(type) {
	case decode.ConstructStruct:
		p.p("%s := %s{", reg(i.Target), exported(c.Name))
		p.in()
		for _, item := range c.Items {
			p.p("%s: %s,", exported(item.Name), reg(item.Register))
		}
		p.out()
		p.p("}")
		w.regTypes[i.Target] = exported(c.Name)
	case decode.ConstructTaggedTuple:
		p.p("%s := %s{Inner: %s}", reg(i.Target), exported(c.Name), reg(c.Items[0]))
		w.regTypes[i.Target] = exported(c.Name)
	case decode.ConstructTaggedEnum:
		p.p("var %s %s = %s%s{Value: %s}", reg(i.Target), exported(c.Name),
			exported(c.Name), exported(c.Discriminant), reg(c.Values[0]))
		w.regTypes[i.Target] = exported(c.Name)
	case decode.ConstructTaggedEnumStruct:
		p.p("var %s %s = %s%s{", reg(i.Target), exported(c.Name),
			exported(c.Name), exported(c.Discriminant))
		p.in()
		for _, item := range c.Values {
			p.p("%s: %s,", exported(item.Name), reg(item.Register))
		}
		p.out()
		p.p("}")
		w.regTypes[i.Target] = exported(c.Name)
	default:
		panic(fmt.Sprintf("unknown constructable %T", i.Value))
	}
}

func (w *decodeWalker) emitDecodeRepr(p *printer, i decode.DecodeRepr) {
	w.ctxCheck(p)
	goName := exported(i.Name)
	raw := "raw_" + reg(i.Output)
	e := "e_" + reg(i.Output)
	goType := scalarGoType(i.Type.Scalar.Scalar)
	p.p("%s, %s := psReadScalar[%s](%s, %d, %v)", raw, e, goType,
		w.target(i.Target), i.Type.Scalar.Scalar.Size(), bigEndian(i.Type.Scalar))
	w.errCheck(p, e)
	if w.g.isBitfield(i.Name) {
		p.p("%s := %s(%s)", reg(i.Output), goName, raw)
	} else {
		e2 := "e2_" + reg(i.Output)
		p.p("%s, %s := %sFromRepr(%s)", reg(i.Output), e2, lowerFirst(goName), raw)
		w.errCheck(p, e2)
	}
	p.p("_ = %s", reg(i.Output))
	w.regTypes[i.Output] = goName
}

func (w *decodeWalker) emitPrimitiveArray(p *printer, i decode.DecodePrimitiveArray) {
	e := "e_" + reg(i.Output)
	src := w.target(i.Target)
	switch i.Type.Kind {
	case coder.PrimitiveBool:
		if i.Len != nil {
			p.p("%s, %s := psReadBoolArr(%s, uint64(%s))", reg(i.Output), e, src, reg(*i.Len))
		} else {
			p.p("%s, %s := psReadBoolArrAll(%s)", reg(i.Output), e, src)
		}
		w.regTypes[i.Output] = "[]bool"
	case coder.PrimitiveF32:
		if i.Len != nil {
			p.p("%s, %s := psReadF32Arr(%s, uint64(%s), true)", reg(i.Output), e, src, reg(*i.Len))
		} else {
			p.p("%s, %s := psReadF32ArrAll(%s, true)", reg(i.Output), e, src)
		}
		w.regTypes[i.Output] = "[]float32"
	case coder.PrimitiveF64:
		if i.Len != nil {
			p.p("%s, %s := psReadF64Arr(%s, uint64(%s), true)", reg(i.Output), e, src, reg(*i.Len))
		} else {
			p.p("%s, %s := psReadF64ArrAll(%s, true)", reg(i.Output), e, src)
		}
		w.regTypes[i.Output] = "[]float64"
	default:
		s := i.Type.Scalar
		if isBigScalar(s.Scalar) {
			if i.Len != nil {
				p.p("%s, %s := psReadBigArr(%s, uint64(%s), %v, %v)", reg(i.Output), e, src,
					reg(*i.Len), s.Scalar.Signed(), bigEndian(s))
			} else {
				p.p("%s, %s := psReadBigArrAll(%s, %v, %v)", reg(i.Output), e, src,
					s.Scalar.Signed(), bigEndian(s))
			}
			w.regTypes[i.Output] = "[]*big.Int"
		} else {
			goType := scalarGoType(s.Scalar)
			if i.Len != nil {
				p.p("%s, %s := psReadScalarArr[%s](%s, uint64(%s), %d, %v)", reg(i.Output), e,
					goType, src, reg(*i.Len), s.Scalar.Size(), bigEndian(s))
			} else {
				p.p("%s, %s := psReadScalarArrAll[%s](%s, %d, %v)", reg(i.Output), e,
					goType, src, s.Scalar.Size(), bigEndian(s))
			}
			w.regTypes[i.Output] = "[]" + goType
		}
	}
	w.errCheck(p, e)
	p.p("_ = %s", reg(i.Output))
}

func (w *decodeWalker) emitReprArray(p *printer, i decode.DecodeReprArray) {
	goName := exported(i.Name)
	raw := "raw_" + reg(i.Output)
	e := "e_" + reg(i.Output)
	goType := scalarGoType(i.Type.Scalar.Scalar)
	src := w.target(i.Target)
	if i.Len != nil {
		p.p("%s, %s := psReadScalarArr[%s](%s, uint64(%s), %d, %v)", raw, e, goType, src,
			reg(*i.Len), i.Type.Scalar.Scalar.Size(), bigEndian(i.Type.Scalar))
	} else {
		p.p("%s, %s := psReadScalarArrAll[%s](%s, %d, %v)", raw, e, goType, src,
			i.Type.Scalar.Scalar.Size(), bigEndian(i.Type.Scalar))
	}
	w.errCheck(p, e)
	p.p("%s := make([]%s, 0, len(%s))", reg(i.Output), goName, raw)
	p.p("for _, psV := range %s {", raw)
	p.in()
	if w.g.isBitfield(i.Name) {
		p.p("%s = append(%s, %s(psV))", reg(i.Output), reg(i.Output), goName)
	} else {
		p.p("psE, psErr := %sFromRepr(psV)", lowerFirst(goName))
		w.errCheck(p, "psErr")
		p.p("%s = append(%s, psE)", reg(i.Output), reg(i.Output))
	}
	p.out()
	p.p("}")
	p.p("_ = %s", reg(i.Output))
	w.regTypes[i.Output] = "[]" + goName
}

func (w *decodeWalker) emitLoop(p *printer, i decode.Loop) {
	body := &printer{}
	w.emitAll(body, i.Body)
	itemType := "uint64"
	for _, inst := range i.Body {
		if lo, ok := inst.(decode.LoopOutput); ok {
			if t, ok := w.regTypes[lo.Item]; ok {
				itemType = t
			}
		}
	}
	out := reg(i.Output)
	src := w.target(i.Target)
	switch {
	case i.Stop != nil:
		p.p("%s := make([]%s, 0, int(%s))", out, itemType, reg(*i.Stop))
		p.p("for psI_%d := uint64(0); psI_%d < uint64(%s); psI_%d++ {", i.Output, i.Output, reg(*i.Stop), i.Output)
		p.in()
		w.ctxCheck(p)
		p.splice(body)
		p.out()
		p.p("}")
	case i.Terminator != nil:
		term := reg(*i.Terminator)
		p.p("%s := []%s{}", out, itemType)
		p.p("for {")
		p.in()
		w.ctxCheck(p)
		p.p("psBuf_%d, _ := %s.Peek(len(%s))", i.Output, src, term)
		p.p("if len(psBuf_%d) == 0 {", i.Output)
		p.in()
		p.p("break")
		p.out()
		p.p("}")
		p.p("if len(psBuf_%d) >= len(%s) && bytes.Equal(psBuf_%d[:len(%s)], %s) {", i.Output, term, i.Output, term, term)
		p.in()
		p.p("if _, err = %s.Discard(len(%s)); err != nil {", src, term)
		p.in()
		p.p("return")
		p.out()
		p.p("}")
		p.p("break")
		p.out()
		p.p("}")
		p.splice(body)
		p.out()
		p.p("}")
	default:
		// no length and not terminated: consume until end of stream
		p.p("%s := []%s{}", out, itemType)
		p.p("{")
		p.in()
		p.p("psData_%d, psErr_%d := io.ReadAll(%s)", i.Output, i.Output, src)
		w.errCheck(p, fmt.Sprintf("psErr_%d", i.Output))
		p.p("%s := bufio.NewReader(bytes.NewReader(psData_%d))", src, i.Output)
		p.p("for {")
		p.in()
		w.ctxCheck(p)
		p.p("if _, psE := %s.Peek(1); psE != nil {", src)
		p.in()
		p.p("break")
		p.out()
		p.p("}")
		p.splice(body)
		p.out()
		p.p("}")
		p.out()
		p.p("}")
	}
	p.p("_ = %s", reg(i.Output))
	w.regTypes[i.Output] = "[]" + itemType
}
