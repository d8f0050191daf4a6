// SPDX-License-Identifier: GPL-3.0-or-later

package codeinterp

import (
	"strings"

	"github.com/bassosimone/probeengine/value"
)

type exprParser struct {
	toks []token
	pos  int
}

// parseExpr parses a full expression (including an optional trailing
// comparison operator, for IF/ELIF conditions) from s.
func parseExpr(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	e, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errorf("unexpected trailing input in expression %q", s)
	}
	return e, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true, "CONTAINS": true,
}

func (p *exprParser) parseComparison() (Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	isComparisonToken := (tok.kind == tokSymbol && comparisonOps[tok.text]) ||
		(tok.kind == tokIdent && tok.text == "CONTAINS")
	if isComparisonToken {
		op := tok.text
		p.next()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return BinOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *exprParser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && p.peek().text == "[" {
		p.next()
		idx, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.peek().text != "]" {
			return nil, errorf("expected ']' in index expression")
		}
		p.next()
		e = Index{Base: e, Idx: idx}
	}
	return e, nil
}

func (p *exprParser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return Literal{Value: value.String(tok.text)}, nil
	case tokNumber:
		if strings.Contains(tok.text, ".") {
			return Literal{Value: value.Float(tok.num)}, nil
		}
		return Literal{Value: value.Int(int64(tok.num))}, nil
	case tokSymbol:
		if tok.text == "[" {
			return p.parseArrayLit()
		}
		return nil, errorf("unexpected token %q", tok.text)
	case tokIdent:
		if p.peek().kind == tokSymbol && p.peek().text == "(" {
			return p.parseCall(tok.text)
		}
		return Ident{Name: tok.text}, nil
	default:
		return nil, errorf("unexpected end of expression")
	}
}

func (p *exprParser) parseArrayLit() (Expr, error) {
	var elems []Expr
	if p.peek().text == "]" {
		p.next()
		return ArrayLit{Elems: elems}, nil
	}
	for {
		e, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.peek().text == "," {
			p.next()
			continue
		}
		break
	}
	if p.peek().text != "]" {
		return nil, errorf("expected ']' closing array literal")
	}
	p.next()
	return ArrayLit{Elems: elems}, nil
}

func (p *exprParser) parseCall(name string) (Expr, error) {
	p.next() // consume '('
	var args []Expr
	if p.peek().text != ")" {
		for {
			a, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().text == "," {
				p.next()
				continue
			}
			break
		}
	}
	if p.peek().text != ")" {
		return nil, errorf("expected ')' closing call to %s", name)
	}
	p.next()
	return Call{Func: name, Args: args}, nil
}
