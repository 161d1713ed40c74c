package gen

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/coder"
	"github.com/protospec-dev/protospec/coder/encode"
)

type encodeWalker struct {
	g       *generator
	isAsync bool

	bufRegs    map[int]bool
	condOwned  map[int]int // conditionally wrapped stream -> owned register
	transforms map[int]*asg.Transform
	labels     []string
	labelSeq   int
}

func (g *generator) emitEncodeFunc(p *printer, field *asg.Field, ctx *encode.Context, isAsync bool) {
	name := exported(field.Name)
	args := g.argParams(field)
	switch {
	case isTaggedEnum(field) && isAsync:
		p.p("func Encode%sCtx(ctx context.Context, v %s, w io.Writer%s) (err error) {", name, name, args)
	case isTaggedEnum(field):
		p.p("func Encode%sSync(v %s, w io.Writer%s) (err error) {", name, name, args)
	case isAsync:
		p.p("func (v %s) EncodeCtx(ctx context.Context, w io.Writer%s) (err error) {", name, args)
	default:
		p.p("func (v %s) EncodeSync(w io.Writer%s) (err error) {", name, args)
	}
	p.in()
	if g.opts.WrapErrors {
		p.p("defer func() {")
		p.in()
		p.p("if err != nil {")
		p.in()
		p.p("err = fmt.Errorf(\"encode %s: %%w\", err)", name)
		p.out()
		p.p("}")
		p.out()
		p.p("}()")
	}
	g.emitRedefaults(p, field)
	w := &encodeWalker{
		g:          g,
		isAsync:    isAsync,
		bufRegs:    map[int]bool{},
		condOwned:  map[int]int{},
		transforms: map[int]*asg.Transform{},
	}
	w.emitAll(p, ctx.Instructions)
	p.p("return")
	p.out()
	p.p("}")
	p.p("")
}

func (w *encodeWalker) emitAll(p *printer, instructions []encode.Instruction) {
	for _, inst := range instructions {
		w.emit(p, inst)
	}
}

// encReg names an encode register; register 0 is the receiver.
func encReg(n coder.Register) string {
	if n == 0 {
		return "v"
	}
	return fmt.Sprintf("r_%d", n)
}

// target renders an encode target as an io.Writer expression.
func (w *encodeWalker) target(t coder.Target) string {
	switch t.Kind {
	case coder.TargetDirect:
		return "w"
	default:
		return encReg(t.Register)
	}
}

func (w *encodeWalker) ctxCheck(p *printer) {
	if w.isAsync {
		p.p("if err = ctx.Err(); err != nil {")
		p.in()
		p.p("return")
		p.out()
		p.p("}")
	}
}

func (w *encodeWalker) errCheck(p *printer, errVar string) {
	p.p("if %s != nil {", errVar)
	p.in()
	p.p("err = %s", errVar)
	p.p("return")
	p.out()
	p.p("}")
}

// exprEmitter resolves field references for the encode side through
// the receiver. Auto fields resolve through the receiver too: the
// freshly computed length register is only used where the lowering
// passes it as an explicit source.
func (w *encodeWalker) exprEmitter() *exprEmitter {
	return &exprEmitter{
		g: w.g,
		fieldRef: func(f *asg.Field) string {
			access := "v." + exported(f.Name)
			if f.Condition != nil {
				return "(*" + access + ")"
			}
			return access
		},
		inputRef: func(in *asg.Input) string { return in.Name },
	}
}

func (w *encodeWalker) emit(p *printer, inst encode.Instruction) {
	if w.g.opts.DebugMode {
		p.p("// %T", inst)
	}
	switch i := inst.(type) {
	case encode.Eval:
		p.p("%s := %s", encReg(i.Target), w.exprEmitter().emit(i.Expr))
		p.p("_ = %s", encReg(i.Target))

	case encode.GetField:
		expr := encReg(i.Source)
		for _, op := range i.Ops {
			switch op.Kind {
			case coder.FieldRefRef:
				// value access needs no indirection in Go
			case coder.FieldRefName:
				expr += "." + exported(op.Name)
			case coder.FieldRefTupleAccess:
				expr += ".Inner"
			case coder.FieldRefArrayAccess:
				expr += "[int(" + encReg(op.Register) + ")]"
			}
		}
		p.p("%s := %s", encReg(i.Target), expr)
		p.p("_ = %s", encReg(i.Target))

	case encode.AllocBuf:
		p.p("%s := bytes.NewBuffer(make([]byte, 0, int(%s)))", encReg(i.Buf), encReg(i.Len))
		w.bufRegs[i.Buf] = true

	case encode.AllocDynBuf:
		p.p("%s := new(bytes.Buffer)", encReg(i.Buf))
		w.bufRegs[i.Buf] = true

	case encode.WrapStream:
		w.g.noteImports(i.Transform.Inner.Imports())
		p.p("var %s io.Writer", encReg(i.NewStream))
		args := make([]string, len(i.Arguments))
		for n, a := range i.Arguments {
			args[n] = encReg(a)
		}
		p.p("%s", i.Transform.Inner.EncodingGen(w.target(i.Stream), encReg(i.NewStream), args, w.isAsync))
		w.transforms[i.NewStream] = i.Transform

	case encode.ConditionalWrapStream:
		w.g.noteImports(i.Transform.Inner.Imports())
		p.p("var %s io.Writer", encReg(i.OwnedNewStream))
		p.p("%s := io.Writer(%s)", encReg(i.NewStream), w.target(i.Stream))
		p.p("if %s {", encReg(i.Condition))
		p.in()
		w.emitAll(p, i.Prelude)
		args := make([]string, len(i.Arguments))
		for n, a := range i.Arguments {
			args[n] = encReg(a)
		}
		p.p("%s", i.Transform.Inner.EncodingGen(w.target(i.Stream), encReg(i.NewStream), args, w.isAsync))
		p.p("%s = %s", encReg(i.OwnedNewStream), encReg(i.NewStream))
		p.out()
		p.p("}")
		w.condOwned[i.NewStream] = i.OwnedNewStream
		w.transforms[i.NewStream] = i.Transform

	case encode.EndStream:
		w.ctxCheck(p)
		if owned, ok := w.condOwned[i.Stream]; ok {
			p.p("if %s != nil {", encReg(owned))
			p.in()
			p.p("if err = psEndStream(%s); err != nil {", encReg(owned))
			p.in()
			p.p("return")
			p.out()
			p.p("}")
			p.out()
			p.p("}")
		} else if transform, ok := w.transforms[i.Stream]; ok {
			p.p("%s", transform.Inner.EncodingEnd(encReg(i.Stream), w.isAsync))
		} else {
			p.p("if err = psEndStream(%s); err != nil {", encReg(i.Stream))
			p.in()
			p.p("return")
			p.out()
			p.p("}")
		}

	case encode.Drop:
		p.p("_ = %s", encReg(i.Register))

	case encode.EmitBuf:
		w.ctxCheck(p)
		p.p("if _, err = %s.Write(%s.Bytes()); err != nil {", w.target(i.Target), encReg(i.Buf))
		p.in()
		p.p("return")
		p.out()
		p.p("}")

	case encode.EncodeForeign:
		w.g.noteImports(i.Type.Obj.Imports())
		w.ctxCheck(p)
		args := make([]string, len(i.Arguments))
		for n, a := range i.Arguments {
			args[n] = encReg(a)
		}
		p.p("%s", i.Type.Obj.EncodingGen(w.target(i.Target), encReg(i.Source), args, w.isAsync))

	case encode.EncodeRef:
		w.ctxCheck(p)
		callArgs := w.g.refCallArgs(i.Name, i.Arguments)
		target, _ := w.g.program.Types.Get(i.Name)
		switch {
		case target != nil && isTaggedEnum(target) && w.isAsync:
			p.p("if err = Encode%sCtx(ctx, %s, %s%s); err != nil {", exported(i.Name), encReg(i.Source), w.target(i.Target), callArgs)
		case target != nil && isTaggedEnum(target):
			p.p("if err = Encode%sSync(%s, %s%s); err != nil {", exported(i.Name), encReg(i.Source), w.target(i.Target), callArgs)
		case w.isAsync:
			p.p("if err = %s.EncodeCtx(ctx, %s%s); err != nil {", encReg(i.Source), w.target(i.Target), callArgs)
		default:
			p.p("if err = %s.EncodeSync(%s%s); err != nil {", encReg(i.Source), w.target(i.Target), callArgs)
		}
		p.in()
		p.p("return")
		p.out()
		p.p("}")

	case encode.EncodeEnum:
		w.ctxCheck(p)
		w.emitWritePrimitive(p, i.Target, encReg(i.Source), i.Type)

	case encode.EncodeBitfield:
		w.ctxCheck(p)
		w.emitWritePrimitive(p, i.Target, encReg(i.Source), i.Type)

	case encode.EncodePrimitive:
		w.ctxCheck(p)
		w.emitWritePrimitive(p, i.Target, encReg(i.Source), i.Type)

	case encode.EncodePrimitiveArray:
		w.ctxCheck(p)
		if i.Len != nil {
			p.p("if uint64(len(%s)) != uint64(%s) {", encReg(i.Source), encReg(*i.Len))
			p.in()
			p.p("err = &EncodeError{Message: %q}", "array length does not match declared length")
			p.p("return")
			p.out()
			p.p("}")
		}
		w.emitWritePrimitiveArray(p, i.Target, encReg(i.Source), i.Type)

	case encode.Pad:
		w.ctxCheck(p)
		p.p("if err = psPad(%s, uint64(%s)); err != nil {", w.target(i.Target), encReg(i.Len))
		p.in()
		p.p("return")
		p.out()
		p.p("}")

	case encode.Loop:
		body := &printer{}
		w.emitAll(body, i.Body)
		p.p("for %s := uint64(0); %s < uint64(%s); %s++ {", encReg(i.Iter), encReg(i.Iter), encReg(i.Stop), encReg(i.Iter))
		p.in()
		w.ctxCheck(p)
		p.splice(body)
		p.out()
		p.p("}")

	case encode.GetLen:
		length := fmt.Sprintf("len(%s)", encReg(i.Source))
		if w.bufRegs[i.Source] {
			length = fmt.Sprintf("%s.Len()", encReg(i.Source))
		}
		switch {
		case i.Cast == nil:
			p.p("%s := uint64(%s)", encReg(i.Target), length)
		case isBigScalar(*i.Cast):
			p.p("%s := psBigFromU64(uint64(%s))", encReg(i.Target), length)
		default:
			p.p("%s := %s(%s)", encReg(i.Target), scalarGoType(*i.Cast), length)
		}
		p.p("_ = %s", encReg(i.Target))

	case encode.NullCheck:
		p.p("if %s == nil {", encReg(i.Source))
		p.in()
		p.p("err = &EncodeError{Message: %q}", i.Message)
		p.p("return")
		p.out()
		p.p("}")
		p.p("%s := *%s", encReg(i.Target), encReg(i.Source))
		p.p("_ = %s", encReg(i.Target))

	case encode.Conditional:
		thenBody := &printer{}
		w.emitAll(thenBody, i.Then)
		p.p("if %s {", encReg(i.Condition))
		p.in()
		p.splice(thenBody)
		p.out()
		if len(i.Else) > 0 {
			p.p("} else {")
			p.in()
			w.emitAll(p, i.Else)
			p.out()
		}
		p.p("}")

	case encode.UnwrapEnum:
		variant := exported(i.Name) + exported(i.Discriminant)
		p.p("psV_%d, psOk_%d := %s.(%s)", i.Target, i.Target, encReg(i.Source), variant)
		p.p("if !psOk_%d {", i.Target)
		p.in()
		p.p("err = &EncodeError{Message: %q}", i.Message)
		p.p("return")
		p.out()
		p.p("}")
		p.p("%s := psV_%d.Value", encReg(i.Target), i.Target)
		p.p("_ = %s", encReg(i.Target))

	case encode.UnwrapEnumStruct:
		variant := exported(i.Name) + exported(i.Discriminant)
		first := 0
		if len(i.Targets) > 0 {
			first = i.Targets[0].Register
		}
		p.p("psV_%d, psOk_%d := %s.(%s)", first, first, encReg(i.Source), variant)
		p.p("if !psOk_%d {", first)
		p.in()
		p.p("err = &EncodeError{Message: %q}", i.Message)
		p.p("return")
		p.out()
		p.p("}")
		for _, item := range i.Targets {
			p.p("%s := psV_%d.%s", encReg(item.Register), first, exported(item.Name))
			p.p("_ = %s", encReg(item.Register))
		}

	case encode.BreakBlock:
		w.labelSeq++
		label := fmt.Sprintf("psBlock_%d", w.labelSeq)
		w.labels = append(w.labels, label)
		body := &printer{}
		w.emitAll(body, i.Body)
		w.labels = w.labels[:len(w.labels)-1]
		p.p("%s:", label)
		p.p("for {")
		p.in()
		p.splice(body)
		p.p("break")
		p.out()
		p.p("}")

	case encode.Break:
		if len(w.labels) == 0 {
			panic("break outside break block")
		}
		p.p("break %s", w.labels[len(w.labels)-1])

	default:
		panic(fmt.Sprintf("unknown encode instruction %T", inst))
	}
}

func (w *encodeWalker) emitWritePrimitive(p *printer, target coder.Target, src string, t coder.PrimitiveType) {
	dst := w.target(target)
	switch t.Kind {
	case coder.PrimitiveBool:
		p.p("if err = psWriteBool(%s, %s); err != nil {", dst, src)
	case coder.PrimitiveF32:
		p.p("if err = psWriteF32(%s, %s, true); err != nil {", dst, src)
	case coder.PrimitiveF64:
		p.p("if err = psWriteF64(%s, %s, true); err != nil {", dst, src)
	default:
		s := t.Scalar
		if isBigScalar(s.Scalar) {
			p.p("if err = psWriteBig(%s, %s, %v); err != nil {", dst, src, bigEndian(s))
		} else {
			p.p("if err = psWriteScalar(%s, %s, %d, %v); err != nil {", dst, src, s.Scalar.Size(), bigEndian(s))
		}
	}
	p.in()
	p.p("return")
	p.out()
	p.p("}")
}

func (w *encodeWalker) emitWritePrimitiveArray(p *printer, target coder.Target, src string, t coder.PrimitiveType) {
	dst := w.target(target)
	switch t.Kind {
	case coder.PrimitiveBool:
		p.p("if err = psWriteBoolArr(%s, %s); err != nil {", dst, src)
	case coder.PrimitiveF32:
		p.p("if err = psWriteF32Arr(%s, %s, true); err != nil {", dst, src)
	case coder.PrimitiveF64:
		p.p("if err = psWriteF64Arr(%s, %s, true); err != nil {", dst, src)
	default:
		s := t.Scalar
		if isBigScalar(s.Scalar) {
			p.p("if err = psWriteBigArr(%s, %s, %v); err != nil {", dst, src, bigEndian(s))
		} else {
			p.p("if err = psWriteScalarArr(%s, %s, %d, %v); err != nil {", dst, src, s.Scalar.Size(), bigEndian(s))
		}
	}
	p.in()
	p.p("return")
	p.out()
	p.p("}")
}
