// SPDX-License-Identifier: GPL-3.0-or-later

package codeinterp

import "strings"

// RawLine is one non-empty, non-comment line inside a CODE_START…CODE_END
// block, as handed over by the script package's section assembler. Indent
// is the count of leading whitespace characters; Num is the 1-based
// source line number, used for [SyntaxError] reporting.
type RawLine struct {
	Text  string
	Indent int
	Num   int
}

// Parse builds a [Program] from a code block's lines.
func Parse(lines []RawLine) (*Program, error) {
	if len(lines) == 0 {
		return &Program{}, nil
	}
	stmts, rest, err := parseBlock(lines, lines[0].Indent)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errorfAt(rest[0].Num, "unexpected indentation")
	}
	return &Program{Stmts: stmts}, nil
}

// parseBlock consumes statements at exactly indent, returning them plus
// whatever lines remain (the next statement at a shallower indent, or
// nothing).
func parseBlock(lines []RawLine, indent int) ([]Stmt, []RawLine, error) {
	var stmts []Stmt
	for len(lines) > 0 {
		line := lines[0]
		if line.Indent < indent {
			break
		}
		if line.Indent > indent {
			return nil, nil, errorfAt(line.Num, "unexpected indentation")
		}
		text := strings.TrimSpace(line.Text)
		switch {
		case text == "BREAK":
			stmts = append(stmts, Break{})
			lines = lines[1:]
		case strings.HasPrefix(text, "FOR "):
			stmt, rest, err := parseFor(lines)
			if err != nil {
				return nil, nil, err
			}
			stmts = append(stmts, stmt)
			lines = rest
		case strings.HasPrefix(text, "IF "):
			stmt, rest, err := parseIf(lines)
			if err != nil {
				return nil, nil, err
			}
			stmts = append(stmts, stmt)
			lines = rest
		default:
			stmt, err := parseAssign(line)
			if err != nil {
				return nil, nil, err
			}
			stmts = append(stmts, stmt)
			lines = lines[1:]
		}
	}
	return stmts, lines, nil
}

// bodyOf splits off the contiguous run of lines more indented than
// parentIndent, returning the body and the remainder.
func bodyOf(lines []RawLine, parentIndent int) ([]RawLine, []RawLine) {
	i := 0
	for i < len(lines) && lines[i].Indent > parentIndent {
		i++
	}
	return lines[:i], lines[i:]
}

func parseFor(lines []RawLine) (Stmt, []RawLine, error) {
	header := lines[0]
	text := strings.TrimSpace(header.Text)
	if !strings.HasSuffix(text, ":") {
		return nil, nil, errorfAt(header.Num, "FOR header must end with ':'")
	}
	text = strings.TrimSuffix(text, ":")
	name, iterText, ok := strings.Cut(strings.TrimPrefix(text, "FOR "), " IN ")
	name = strings.TrimSpace(name)
	iterText = strings.TrimSpace(iterText)
	if !ok || name == "" || iterText == "" || len(strings.Fields(name)) != 1 {
		return nil, nil, errorfAt(header.Num, "malformed FOR header: %q", header.Text)
	}
	iter, err := parseExpr(iterText)
	if err != nil {
		return nil, nil, err
	}
	bodyLines, rest := bodyOf(lines[1:], header.Indent)
	var body []Stmt
	if len(bodyLines) > 0 {
		body, _, err = parseBlock(bodyLines, bodyLines[0].Indent)
		if err != nil {
			return nil, nil, err
		}
	}
	return For{Var: name, Iter: iter, Body: body}, rest, nil
}

func parseIf(lines []RawLine) (Stmt, []RawLine, error) {
	header := lines[0]
	branch, rest, err := parseIfBranch(lines, "IF ")
	if err != nil {
		return nil, nil, err
	}
	branches := []IfBranch{branch}
	for len(rest) > 0 && rest[0].Indent == header.Indent {
		text := strings.TrimSpace(rest[0].Text)
		switch {
		case strings.HasPrefix(text, "ELIF "):
			var b IfBranch
			b, rest, err = parseIfBranch(rest, "ELIF ")
			if err != nil {
				return nil, nil, err
			}
			branches = append(branches, b)
		case text == "ELSE:":
			elseHeader := rest[0]
			bodyLines, afterElse := bodyOf(rest[1:], elseHeader.Indent)
			var body []Stmt
			if len(bodyLines) > 0 {
				body, _, err = parseBlock(bodyLines, bodyLines[0].Indent)
				if err != nil {
					return nil, nil, err
				}
			}
			branches = append(branches, IfBranch{Body: body})
			rest = afterElse
		default:
			goto done
		}
	}
done:
	return If{Branches: branches}, rest, nil
}

func parseIfBranch(lines []RawLine, keyword string) (IfBranch, []RawLine, error) {
	header := lines[0]
	text := strings.TrimSpace(header.Text)
	if !strings.HasSuffix(text, ":") {
		return IfBranch{}, nil, errorfAt(header.Num, "%s header must end with ':'", strings.TrimSpace(keyword))
	}
	condText := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, keyword), ":"))
	cond, err := parseExpr(condText)
	if err != nil {
		return IfBranch{}, nil, err
	}
	bodyLines, rest := bodyOf(lines[1:], header.Indent)
	var body []Stmt
	if len(bodyLines) > 0 {
		body, _, err = parseBlock(bodyLines, bodyLines[0].Indent)
		if err != nil {
			return IfBranch{}, nil, err
		}
	}
	return IfBranch{Cond: cond, Body: body}, rest, nil
}

func parseAssign(line RawLine) (Stmt, error) {
	text := strings.TrimSpace(line.Text)
	eq := strings.Index(text, "=")
	if eq < 0 {
		return nil, errorfAt(line.Num, "expected assignment, got %q", line.Text)
	}
	lhs := strings.Fields(strings.TrimSpace(text[:eq]))
	rhsText := strings.TrimSpace(text[eq+1:])
	expr, err := parseExpr(rhsText)
	if err != nil {
		return nil, err
	}
	switch len(lhs) {
	case 1:
		return Assign{Name: lhs[0], Expr: expr}, nil
	case 2:
		return Assign{Type: lhs[0], Name: lhs[1], Expr: expr}, nil
	default:
		return nil, errorfAt(line.Num, "malformed assignment: %q", line.Text)
	}
}
