package lang

import (
	"fmt"
	"strconv"

	"github.com/bluewin4/infinite-contract/internal/protocol"
)

// Parse validates raw statement text against the restricted grammar and
// returns its typed form. On rejection the statement is nil and code is one
// of E_SYNTAX / E_DISALLOWED_CONSTRUCT. Pure function, no side effects.
//
//	stmt   := ident ('=' | '+=' | '-=' | '*=' | '/=') expr
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := number | ident | '-' factor | '(' expr ')'
//
// Every ident must belong to the declared variable set.
func Parse(src string, vars Bindings) (st *Statement, code string, msg string) {
	toks, code, msg := lex(src)
	if code != "" {
		return nil, code, msg
	}
	p := &parser{toks: toks, vars: vars}

	target, ok := p.expect(tokIdent)
	if !ok {
		return nil, protocol.ErrSyntax, "statement must start with a variable name"
	}
	if !p.declared(target.text) {
		return nil, protocol.ErrDisallowedConstruct, fmt.Sprintf("unknown variable %q", target.text)
	}
	assign, ok := p.expect(tokAssign)
	if !ok {
		return nil, protocol.ErrSyntax, "expected assignment operator"
	}
	expr, code, msg := p.parseExpr()
	if code != "" {
		return nil, code, msg
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokIdent && !p.declared(t.text) {
			return nil, protocol.ErrDisallowedConstruct, fmt.Sprintf("keyword or name %q is not allowed", t.text)
		}
		return nil, protocol.ErrSyntax, fmt.Sprintf("unexpected trailing input at %d", t.pos)
	}
	return &Statement{Target: target.text, Op: AssignOp(assign.text), Expr: expr}, "", ""
}

type parser struct {
	toks []token
	i    int
	vars Bindings
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, bool) {
	if p.peek().kind != k {
		return token{}, false
	}
	return p.next(), true
}

func (p *parser) declared(name string) bool {
	_, ok := p.vars[name]
	return ok
}

func (p *parser) parseExpr() (Expr, string, string) {
	left, code, msg := p.parseTerm()
	if code != "" {
		return nil, code, msg
	}
	for {
		switch p.peek().kind {
		case tokPlus, tokMinus:
			op := byte(p.next().text[0])
			right, code, msg := p.parseTerm()
			if code != "" {
				return nil, code, msg
			}
			left = Binary{Op: op, Left: left, Right: right}
		default:
			return left, "", ""
		}
	}
}

func (p *parser) parseTerm() (Expr, string, string) {
	left, code, msg := p.parseFactor()
	if code != "" {
		return nil, code, msg
	}
	for {
		switch p.peek().kind {
		case tokStar, tokSlash:
			op := byte(p.next().text[0])
			right, code, msg := p.parseFactor()
			if code != "" {
				return nil, code, msg
			}
			left = Binary{Op: op, Left: left, Right: right}
		default:
			return left, "", ""
		}
	}
}

func (p *parser) parseFactor() (Expr, string, string) {
	switch t := p.peek(); t.kind {
	case tokNumber:
		p.next()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, protocol.ErrSyntax, fmt.Sprintf("bad number %q", t.text)
		}
		return NumLit{Value: n}, "", ""
	case tokIdent:
		p.next()
		if !p.declared(t.text) {
			return nil, protocol.ErrDisallowedConstruct, fmt.Sprintf("unknown variable %q", t.text)
		}
		if p.peek().kind == tokLParen {
			return nil, protocol.ErrDisallowedConstruct, "function calls are not allowed"
		}
		return VarRef{Name: t.text}, "", ""
	case tokMinus:
		p.next()
		inner, code, msg := p.parseFactor()
		if code != "" {
			return nil, code, msg
		}
		return Neg{Expr: inner}, "", ""
	case tokLParen:
		p.next()
		inner, code, msg := p.parseExpr()
		if code != "" {
			return nil, code, msg
		}
		if _, ok := p.expect(tokRParen); !ok {
			return nil, protocol.ErrSyntax, "missing closing parenthesis"
		}
		return inner, "", ""
	case tokEOF:
		return nil, protocol.ErrSyntax, "unexpected end of statement"
	default:
		return nil, protocol.ErrSyntax, fmt.Sprintf("unexpected %q at %d", t.text, t.pos)
	}
}
