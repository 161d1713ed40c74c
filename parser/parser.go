// Package parser turns schema source text into the AST. The tokenizer
// and parser are hand-written; expressions use precedence climbing.
package parser

import (
	"strconv"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/reporter"
)

// Parse tokenizes and parses a whole schema file.
func Parse(input string) (*ast.Program, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseProgram()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) eof() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() (Token, bool) {
	if p.eof() {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) lastSpan() ast.Span {
	if len(p.tokens) == 0 {
		return ast.Span{LineStart: 1, LineStop: 1, ColStart: 1, ColStop: 1}
	}
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos].Span
	}
	return p.tokens[len(p.tokens)-1].Span
}

func (p *parser) errEOF() error {
	span := p.lastSpan()
	return reporter.Error(span, &ErrUnexpectedEOF{Loc: span})
}

func (p *parser) errUnexpected(got Token, wanted string) error {
	return reporter.Error(got.Span, &ErrUnexpected{Got: got, Wanted: wanted, Loc: got.Span})
}

func (p *parser) next() (Token, error) {
	if p.eof() {
		return Token{}, p.errEOF()
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, p.errUnexpected(tok, "'"+kind.String()+"'")
	}
	return tok, nil
}

// eat consumes the next token if it has the given kind.
func (p *parser) eat(kind TokenKind) (Token, bool) {
	if tok, ok := p.peek(); ok && tok.Kind == kind {
		p.pos++
		return tok, true
	}
	return Token{}, false
}

func (p *parser) expectIdent() (ast.Ident, error) {
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return ast.Ident{}, err
	}
	return ast.Ident{Name: tok.Text, Loc: tok.Span}, nil
}

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.eof() {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		prog.Declarations = append(prog.Declarations, decl)
	}
	return prog, nil
}

func (p *parser) parseDeclaration() (ast.Declaration, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errEOF()
	}
	var decl ast.Declaration
	var err error
	switch tok.Kind {
	case TokenType:
		decl, err = p.parseTypeDeclaration()
	case TokenImport:
		decl, err = p.parseImportDeclaration()
	case TokenImportFFI:
		decl, err = p.parseFFIDeclaration()
	case TokenConst:
		decl, err = p.parseConstDeclaration()
	default:
		return nil, p.errUnexpected(tok, "'type', 'import', 'import_ffi', or 'const'")
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) parseTypeDeclaration() (*ast.TypeDeclaration, error) {
	start, _ := p.next() // 'type'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var args []ast.TypeArgument
	if _, ok := p.eat(TokenLeftParen); ok {
		for {
			if _, ok := p.eat(TokenRightParen); ok {
				break
			}
			argName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			argType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			arg := ast.TypeArgument{Name: argName, Type: argType, Loc: argName.Loc.Add(argType.Loc)}
			if _, ok := p.eat(TokenQuestion); ok {
				def, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				arg.DefaultValue = def
				arg.Loc = arg.Loc.Add(def.Span())
			}
			args = append(args, arg)
			if _, ok := p.eat(TokenComma); ok {
				continue
			}
			if _, err := p.expect(TokenRightParen); err != nil {
				return nil, err
			}
			break
		}
	}
	if _, err := p.expect(TokenEqual); err != nil {
		return nil, err
	}
	field, err := p.parseField()
	if err != nil {
		return nil, err
	}
	return &ast.TypeDeclaration{
		Name:      name,
		Arguments: args,
		Value:     *field,
		Loc:       start.Span.Add(field.Loc),
	}, nil
}

func (p *parser) parseImportDeclaration() (*ast.ImportDeclaration, error) {
	start, _ := p.next() // 'import'
	var items []ast.ImportItem
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		item := ast.ImportItem{Name: name, Loc: name.Loc}
		if _, ok := p.eat(TokenAs); ok {
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			item.Alias = &alias
			item.Loc = item.Loc.Add(alias.Loc)
		}
		items = append(items, item)
		if _, ok := p.eat(TokenComma); !ok {
			break
		}
	}
	if _, err := p.expect(TokenFrom); err != nil {
		return nil, err
	}
	from, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}
	return &ast.ImportDeclaration{
		Items: items,
		From:  ast.Str{Content: from.Bytes, Loc: from.Span},
		Loc:   start.Span.Add(from.Span),
	}, nil
}

func (p *parser) parseFFIDeclaration() (*ast.FFIDeclaration, error) {
	start, _ := p.next() // 'import_ffi'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAs); err != nil {
		return nil, err
	}
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	var kind ast.FFIKind
	switch tok.Kind {
	case TokenType:
		kind = ast.FFIType
	case TokenTransform:
		kind = ast.FFITransform
	case TokenFunction:
		kind = ast.FFIFunction
	default:
		return nil, p.errUnexpected(tok, "'type', 'transform', or 'function'")
	}
	return &ast.FFIDeclaration{Name: name, Kind: kind, Loc: start.Span.Add(tok.Span)}, nil
}

func (p *parser) parseConstDeclaration() (*ast.ConstDeclaration, error) {
	start, _ := p.next() // 'const'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEqual); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ConstDeclaration{
		Name:  name,
		Type:  typ,
		Value: value,
		Loc:   start.Span.Add(value.Span()),
	}, nil
}

// parseField parses `type (+flag)* ({cond})? (-> transform)* ([len])*`.
// Array suffixes already consumed by the type itself bind tighter than
// the condition; trailing suffixes wrap the field's type, while its
// flags, condition and transforms stay on the resulting array field.
func (p *parser) parseField() (*ast.Field, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	field := &ast.Field{Type: typ, Loc: typ.Loc}
	for {
		if _, ok := p.eat(TokenPlus); ok {
			flag, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			field.Flags = append(field.Flags, flag)
			field.Loc = field.Loc.Add(flag.Loc)
			continue
		}
		break
	}
	if _, ok := p.eat(TokenLeftCurly); ok {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(TokenRightCurly)
		if err != nil {
			return nil, err
		}
		field.Condition = cond
		field.Loc = field.Loc.Add(end.Span)
	}
	for {
		if _, ok := p.eat(TokenArrow); ok {
			transform, err := p.parseTransform()
			if err != nil {
				return nil, err
			}
			field.Transforms = append(field.Transforms, *transform)
			field.Loc = field.Loc.Add(transform.Loc)
			continue
		}
		break
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenLeftSquare {
			break
		}
		length, err := p.parseLengthConstraint()
		if err != nil {
			return nil, err
		}
		element := &ast.Field{Type: field.Type, Loc: field.Type.Loc}
		field.Type = ast.Type{
			Raw: &ast.ArrayRaw{Element: element, Length: *length, Loc: field.Loc.Add(length.Loc)},
			Loc: field.Loc.Add(length.Loc),
		}
		field.Loc = field.Type.Loc
	}
	return field, nil
}

func (p *parser) parseTransform() (*ast.Transform, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	transform := &ast.Transform{Name: name, Loc: name.Loc}
	if _, ok := p.eat(TokenLeftParen); ok {
		for {
			if _, ok := p.eat(TokenRightParen); ok {
				break
			}
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			transform.Arguments = append(transform.Arguments, arg)
			if _, ok := p.eat(TokenComma); ok {
				continue
			}
			if _, err := p.expect(TokenRightParen); err != nil {
				return nil, err
			}
			break
		}
	}
	if _, ok := p.eat(TokenLeftCurly); ok {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(TokenRightCurly)
		if err != nil {
			return nil, err
		}
		transform.Conditional = cond
		transform.Loc = transform.Loc.Add(end.Span)
	}
	return transform, nil
}

// parseLengthConstraint parses `[expr]`, `[..]`, or `[..expr]`.
func (p *parser) parseLengthConstraint() (*ast.LengthConstraint, error) {
	start, err := p.expect(TokenLeftSquare)
	if err != nil {
		return nil, err
	}
	if end, ok := p.eat(TokenRightSquare); ok {
		span := start.Span.Add(end.Span)
		return nil, reporter.Error(span, &ErrEmptyLengthConstraint{Loc: span})
	}
	out := &ast.LengthConstraint{}
	if _, ok := p.eat(TokenDotDot); ok {
		out.Expandable = true
		if end, ok := p.eat(TokenRightSquare); ok {
			out.Loc = start.Span.Add(end.Span)
			return out, nil
		}
	}
	inner, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(TokenRightSquare)
	if err != nil {
		return nil, err
	}
	out.Inner = inner
	out.Loc = start.Span.Add(end.Span)
	return out, nil
}

func (p *parser) parseType() (ast.Type, error) {
	raw, err := p.parseRawType()
	if err != nil {
		return ast.Type{}, err
	}
	typ := ast.Type{Raw: raw, Loc: raw.Span()}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenLeftSquare {
			break
		}
		length, err := p.parseLengthConstraint()
		if err != nil {
			return ast.Type{}, err
		}
		element := &ast.Field{Type: typ, Loc: typ.Loc}
		span := typ.Loc.Add(length.Loc)
		typ = ast.Type{
			Raw: &ast.ArrayRaw{Element: element, Length: *length, Loc: span},
			Loc: span,
		}
	}
	return typ, nil
}

func (p *parser) parseRawType() (ast.RawType, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errEOF()
	}
	switch tok.Kind {
	case TokenContainer:
		return p.parseContainer()
	case TokenEnum:
		return p.parseEnumLike(false)
	case TokenBitfield:
		return p.parseEnumLike(true)
	case TokenScalar:
		p.pos++
		return &ast.ScalarRaw{Scalar: tok.Scalar, Loc: tok.Span}, nil
	case TokenF32:
		p.pos++
		return &ast.F32Raw{Loc: tok.Span}, nil
	case TokenF64:
		p.pos++
		return &ast.F64Raw{Loc: tok.Span}, nil
	case TokenBool:
		p.pos++
		return &ast.BoolRaw{Loc: tok.Span}, nil
	case TokenIdent:
		p.pos++
		call := ast.TypeCall{
			Name: ast.Ident{Name: tok.Text, Loc: tok.Span},
			Loc:  tok.Span,
		}
		if _, ok := p.eat(TokenLeftParen); ok {
			for {
				if _, ok := p.eat(TokenRightParen); ok {
					break
				}
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				call.Arguments = append(call.Arguments, arg)
				if _, ok := p.eat(TokenComma); ok {
					continue
				}
				if _, err := p.expect(TokenRightParen); err != nil {
					return nil, err
				}
				break
			}
		}
		return &ast.RefRaw{Call: call, Loc: tok.Span}, nil
	default:
		return nil, p.errUnexpected(tok, "a type")
	}
}

func (p *parser) parseContainer() (*ast.Container, error) {
	start, _ := p.next() // 'container'
	out := &ast.Container{Loc: start.Span}
	if tok, ok := p.peek(); ok && tok.Kind == TokenLeftSquare {
		p.pos++
		length, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightSquare); err != nil {
			return nil, err
		}
		out.Length = length
	}
	for {
		if _, ok := p.eat(TokenPlus); ok {
			flag, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			out.Flags = append(out.Flags, flag)
			continue
		}
		break
	}
	if _, err := p.expect(TokenLeftCurly); err != nil {
		return nil, err
	}
	padCount := 0
	for {
		if end, ok := p.eat(TokenRightCurly); ok {
			out.Loc = start.Span.Add(end.Span)
			return out, nil
		}
		if dot, ok := p.eat(TokenDot); ok {
			directive, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if directive.Name != "pad" {
				return nil, reporter.Error(directive.Loc, &ErrUnknownContainerDirective{Name: directive.Name, Loc: directive.Loc})
			}
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			length, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			span := dot.Span.Add(length.Span())
			// a pad is modeled as an unnamed u8 array field of the
			// given byte count
			element := &ast.Field{
				Type: ast.Type{Raw: &ast.ScalarRaw{Scalar: ast.U8, Loc: span}, Loc: span},
				Loc:  span,
			}
			padCount++
			out.Items = append(out.Items, ast.ContainerItem{
				Name:  ast.Ident{Name: padName(padCount), Loc: span},
				IsPad: true,
				Value: ast.Field{
					Type: ast.Type{
						Raw: &ast.ArrayRaw{
							Element: element,
							Length:  ast.LengthConstraint{Inner: length, Loc: span},
							Loc:     span,
						},
						Loc: span,
					},
					Loc: span,
				},
				Loc: span,
			})
		} else {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenColon); err != nil {
				return nil, err
			}
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, ast.ContainerItem{
				Name:  name,
				Value: *field,
				Loc:   name.Loc.Add(field.Loc),
			})
		}
		if _, ok := p.eat(TokenComma); ok {
			continue
		}
		end, err := p.expect(TokenRightCurly)
		if err != nil {
			return nil, err
		}
		out.Loc = start.Span.Add(end.Span)
		return out, nil
	}
}

func padName(n int) string {
	return "_pad" + strconv.Itoa(n)
}

// parseEnumLike parses enum and bitfield bodies, which share a shape.
func (p *parser) parseEnumLike(bitfield bool) (ast.RawType, error) {
	start, _ := p.next() // 'enum' or 'bitfield'
	repTok, ok := p.peek()
	if !ok || repTok.Kind != TokenScalar {
		span := start.Span
		if ok {
			span = repTok.Span
		}
		return nil, reporter.Error(span, &ErrEnumMissingRep{Loc: span})
	}
	p.pos++
	if _, err := p.expect(TokenLeftCurly); err != nil {
		return nil, err
	}
	var items []ast.EnumItem
	for {
		if end, ok := p.eat(TokenRightCurly); ok {
			span := start.Span.Add(end.Span)
			if bitfield {
				return &ast.BitfieldDef{Rep: repTok.Scalar, Items: items, Loc: span}, nil
			}
			return &ast.EnumDef{Rep: repTok.Scalar, Items: items, Loc: span}, nil
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		item := ast.EnumItem{Name: name}
		if _, ok := p.eat(TokenEqual); ok {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			item.Value = value
		}
		items = append(items, item)
		if _, ok := p.eat(TokenComma); ok {
			continue
		}
		end, err := p.expect(TokenRightCurly)
		if err != nil {
			return nil, err
		}
		span := start.Span.Add(end.Span)
		if bitfield {
			return &ast.BitfieldDef{Rep: repTok.Scalar, Items: items, Loc: span}, nil
		}
		return &ast.EnumDef{Rep: repTok.Scalar, Items: items, Loc: span}, nil
	}
}
