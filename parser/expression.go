package parser

import (
	"github.com/protospec-dev/protospec/ast"
)

// Binary precedence levels, loosest first. Ternary sits above all of
// these; cast and elvis bind tighter than any listed level but looser
// than unary operators.
var precedenceLevels = [][]struct {
	kind TokenKind
	op   ast.BinaryOp
}{
	{{TokenOr, ast.OpOr}},
	{{TokenAnd, ast.OpAnd}},
	{{TokenBitOr, ast.OpBitOr}},
	{{TokenBitXor, ast.OpBitXor}},
	{{TokenBitAnd, ast.OpBitAnd}},
	{{TokenEq, ast.OpEq}, {TokenNe, ast.OpNe}},
	{{TokenLt, ast.OpLt}, {TokenLtEq, ast.OpLte}, {TokenGt, ast.OpGt}, {TokenGtEq, ast.OpGte}},
	{{TokenShl, ast.OpShl}, {TokenShr, ast.OpShr}, {TokenShrSigned, ast.OpShrSigned}},
	{{TokenPlus, ast.OpAdd}, {TokenMinus, ast.OpSub}},
	{{TokenMul, ast.OpMul}, {TokenDiv, ast.OpDiv}, {TokenMod, ast.OpMod}},
}

func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseTernary()
}

func (p *parser) parseTernary() (ast.Expression, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if _, ok := p.eat(TokenQuestion); !ok {
		return cond, nil
	}
	ifTrue, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	ifFalse, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ast.TernaryExpression{
		Condition: cond,
		IfTrue:    ifTrue,
		IfFalse:   ifFalse,
		Loc:       cond.Span().Add(ifFalse.Span()),
	}, nil
}

func (p *parser) parseBinary(level int) (ast.Expression, error) {
	if level >= len(precedenceLevels) {
		return p.parseCastElvis()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return left, nil
		}
		matched := false
		for _, entry := range precedenceLevels[level] {
			if tok.Kind == entry.kind {
				p.pos++
				right, err := p.parseBinary(level + 1)
				if err != nil {
					return nil, err
				}
				left = &ast.BinaryExpression{
					Op:    entry.op,
					Left:  left,
					Right: right,
					Loc:   left.Span().Add(right.Span()),
				}
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
	}
}

// parseCastElvis parses `expr :> type` and `expr ?: expr`, which share
// a precedence level just above unary.
func (p *parser) parseCastElvis() (ast.Expression, error) {
	inner, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.eat(TokenCast); ok {
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			inner = &ast.CastExpression{
				Inner: inner,
				Type:  typ,
				Loc:   inner.Span().Add(typ.Loc),
			}
			continue
		}
		if _, ok := p.eat(TokenElvis); ok {
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			inner = &ast.BinaryExpression{
				Op:    ast.OpElvis,
				Left:  inner,
				Right: right,
				Loc:   inner.Span().Add(right.Span()),
			}
			continue
		}
		return inner, nil
	}
}

func (p *parser) parseUnary() (ast.Expression, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errEOF()
	}
	var op ast.UnaryOp
	switch tok.Kind {
	case TokenMinus:
		op = ast.OpNegate
	case TokenNot:
		op = ast.OpNot
	case TokenBitNot:
		op = ast.OpBitNot
	default:
		return p.parsePostfix()
	}
	p.pos++
	inner, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	// fold a negation into the literal so that `-1` parses as a signed
	// literal rather than a unary expression over an unsigned one
	if op == ast.OpNegate {
		if lit, ok := inner.(*ast.Int); ok && lit.Value[0] != '-' {
			lit.Value = "-" + lit.Value
			lit.Loc = tok.Span.Add(lit.Loc)
			return lit, nil
		}
	}
	return &ast.UnaryExpression{Op: op, Inner: inner, Loc: tok.Span.Add(inner.Span())}, nil
}

func (p *parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return expr, nil
		}
		switch tok.Kind {
		case TokenLeftSquare:
			p.pos++
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(TokenRightSquare)
			if err != nil {
				return nil, err
			}
			expr = &ast.ArrayIndexExpression{
				Array: expr,
				Index: index,
				Loc:   expr.Span().Add(end.Span),
			}
		case TokenDot:
			p.pos++
			member, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{
				Target: expr,
				Member: member,
				Loc:    expr.Span().Add(member.Loc),
			}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TokenInt:
		lit := &ast.Int{Value: tok.Text, Loc: tok.Span}
		// a scalar keyword directly after a literal is its width
		// suffix: 5i32
		if suffix, ok := p.eat(TokenScalar); ok {
			s := suffix.Scalar
			lit.Type = &s
			lit.Loc = lit.Loc.Add(suffix.Span)
		}
		return lit, nil
	case TokenString:
		return &ast.Str{Content: tok.Bytes, Loc: tok.Span}, nil
	case TokenTrue:
		return &ast.Bool{Value: true, Loc: tok.Span}, nil
	case TokenFalse:
		return &ast.Bool{Value: false, Loc: tok.Span}, nil
	case TokenLeftParen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenIdent:
		name := ast.Ident{Name: tok.Text, Loc: tok.Span}
		if _, ok := p.eat(TokenDoubleColon); ok {
			variant, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			return &ast.EnumAccessExpression{
				Name:    name,
				Variant: variant,
				Loc:     name.Loc.Add(variant.Loc),
			}, nil
		}
		if next, ok := p.peek(); ok && next.Kind == TokenLeftParen {
			p.pos++
			call := &ast.CallExpression{Function: name, Loc: name.Loc}
			for {
				if end, ok := p.eat(TokenRightParen); ok {
					call.Loc = name.Loc.Add(end.Span)
					return call, nil
				}
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				call.Arguments = append(call.Arguments, arg)
				if _, ok := p.eat(TokenComma); ok {
					continue
				}
				end, err := p.expect(TokenRightParen)
				if err != nil {
					return nil, err
				}
				call.Loc = name.Loc.Add(end.Span)
				return call, nil
			}
		}
		return &name, nil
	default:
		return nil, p.errUnexpected(tok, "an expression")
	}
}
