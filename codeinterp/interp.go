// SPDX-License-Identifier: GPL-3.0-or-later

package codeinterp

import (
	"fmt"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/value"
)

type breakSignal struct{}

func (breakSignal) Error() string { return "break" }

type env struct {
	parsed *value.Table
	code   *value.Table
}

func (e *env) get(name string) (value.Value, bool) {
	if v, ok := e.code.Get(name); ok {
		return v, true
	}
	return e.parsed.Get(name)
}

// Run executes prog against parsed (the merged, read-only parsed-variable
// table), returning the code-variable table it produced. Code variables
// shadow parsed variables on lookup (spec.md §4.6).
func Run(prog *Program, parsed *value.Table) (*value.Table, error) {
	e := &env{parsed: parsed, code: value.NewTable()}
	if prog == nil {
		return e.code, nil
	}
	if err := execStmts(prog.Stmts, e); err != nil {
		if _, ok := err.(breakSignal); ok {
			return e.code, probeengine.NewEngineError(probeengine.ErrValidation, "BREAK outside FOR loop")
		}
		return e.code, err
	}
	return e.code, nil
}

func execStmts(stmts []Stmt, e *env) error {
	for _, s := range stmts {
		if err := execStmt(s, e); err != nil {
			return err
		}
	}
	return nil
}

func execStmt(s Stmt, e *env) error {
	switch st := s.(type) {
	case Assign:
		v, err := eval(st.Expr, e)
		if err != nil {
			return err
		}
		e.code.Set(st.Name, v)
		return nil
	case Break:
		return breakSignal{}
	case For:
		iter, err := eval(st.Iter, e)
		if err != nil {
			return err
		}
		if iter.Kind() != value.KindArray {
			return probeengine.NewEngineError(probeengine.ErrValidation, "FOR: expression is not an array")
		}
		for _, item := range iter.AsArray() {
			e.code.Set(st.Var, item)
			if err := execStmts(st.Body, e); err != nil {
				if _, ok := err.(breakSignal); ok {
					break
				}
				return err
			}
		}
		return nil
	case If:
		for _, branch := range st.Branches {
			if branch.Cond == nil {
				return execStmts(branch.Body, e)
			}
			v, err := eval(branch.Cond, e)
			if err != nil {
				return err
			}
			if v.AsBool() {
				return execStmts(branch.Body, e)
			}
		}
		return nil
	default:
		return probeengine.NewEngineError(probeengine.ErrSyntax, fmt.Sprintf("unknown statement %T", s))
	}
}

func eval(expr Expr, e *env) (value.Value, error) {
	switch x := expr.(type) {
	case Literal:
		return x.Value, nil
	case Ident:
		v, ok := e.get(x.Name)
		if !ok {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrValidation, fmt.Sprintf("unknown variable %q", x.Name))
		}
		return v, nil
	case ArrayLit:
		items := make([]value.Value, len(x.Elems))
		for i, el := range x.Elems {
			v, err := eval(el, e)
			if err != nil {
				return value.Null(), err
			}
			items[i] = v
		}
		return value.Array(items), nil
	case Index:
		base, err := eval(x.Base, e)
		if err != nil {
			return value.Null(), err
		}
		idx, err := eval(x.Idx, e)
		if err != nil {
			return value.Null(), err
		}
		if base.Kind() != value.KindArray {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrValidation, "indexing requires an array")
		}
		n, ok := idx.AsInt64()
		if !ok || n < 0 {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrValidation, "index must be a non-negative integer")
		}
		arr := base.AsArray()
		if int(n) >= len(arr) {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrValidation, "index out of bounds")
		}
		return arr[n], nil
	case Call:
		return evalCall(x, e)
	case BinOp:
		return evalBinOp(x, e)
	default:
		return value.Null(), probeengine.NewEngineError(probeengine.ErrSyntax, fmt.Sprintf("unknown expression %T", expr))
	}
}

func evalCall(c Call, e *env) (value.Value, error) {
	switch c.Func {
	case "SPLIT":
		if len(c.Args) != 2 {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrSyntax, "SPLIT requires 2 arguments")
		}
		src, err := evalString(c.Args[0], e)
		if err != nil {
			return value.Null(), err
		}
		sep, err := evalString(c.Args[1], e)
		if err != nil {
			return value.Null(), err
		}
		parts := strings.Split(src, sep)
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.String(p)
		}
		return value.Array(items), nil
	case "REPLACE":
		if len(c.Args) != 3 {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrSyntax, "REPLACE requires 3 arguments")
		}
		src, err := evalString(c.Args[0], e)
		if err != nil {
			return value.Null(), err
		}
		needle, err := evalString(c.Args[1], e)
		if err != nil {
			return value.Null(), err
		}
		repl, err := evalString(c.Args[2], e)
		if err != nil {
			return value.Null(), err
		}
		return value.String(strings.ReplaceAll(src, needle, repl)), nil
	default:
		return value.Null(), probeengine.NewEngineError(probeengine.ErrSyntax, fmt.Sprintf("unknown function %q", c.Func))
	}
}

func evalString(expr Expr, e *env) (string, error) {
	v, err := eval(expr, e)
	if err != nil {
		return "", err
	}
	if v.Kind() != value.KindString {
		return "", probeengine.NewEngineError(probeengine.ErrValidation, "expected a string value")
	}
	return v.AsString(), nil
}

func evalBinOp(b BinOp, e *env) (value.Value, error) {
	left, err := eval(b.Left, e)
	if err != nil {
		return value.Null(), err
	}
	right, err := eval(b.Right, e)
	if err != nil {
		return value.Null(), err
	}
	switch b.Op {
	case "==":
		return value.Bool(left.Equal(right)), nil
	case "!=":
		return value.Bool(!left.Equal(right)), nil
	case ">", "<", ">=", "<=":
		lf, ok1 := left.AsFloat64()
		rf, ok2 := right.AsFloat64()
		if !ok1 || !ok2 {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrValidation, "ordering comparison requires numeric operands")
		}
		var result bool
		switch b.Op {
		case ">":
			result = lf > rf
		case "<":
			result = lf < rf
		case ">=":
			result = lf >= rf
		case "<=":
			result = lf <= rf
		}
		return value.Bool(result), nil
	case "CONTAINS":
		if left.Kind() != value.KindString || right.Kind() != value.KindString {
			return value.Null(), probeengine.NewEngineError(probeengine.ErrValidation, "CONTAINS requires two strings")
		}
		return value.Bool(strings.Contains(left.AsString(), right.AsString())), nil
	default:
		return value.Null(), probeengine.NewEngineError(probeengine.ErrSyntax, fmt.Sprintf("unknown operator %q", b.Op))
	}
}
