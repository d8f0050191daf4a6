// SPDX-License-Identifier: GPL-3.0-or-later

// Package output implements the probe engine's template formatter: the
// RETURN-line renderer and JSON_OUTPUT's in-place re-parse (spec.md §4.7).
package output

import (
	"strconv"
	"strings"
	"unicode"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/value"
)

// Command is one OUTPUT_SUCCESS/OUTPUT_ERROR block command.
type Command struct {
	// JSONOutputVar is set for JSON_OUTPUT; empty otherwise.
	JSONOutputVar string
	// ReturnTemplate is set for RETURN; empty otherwise (mutually
	// exclusive with JSONOutputVar).
	ReturnTemplate string
	IsReturn       bool
}

// Status tags an [OutputBlock].
type Status int

const (
	Success Status = iota
	Error
)

// OutputBlock is one OUTPUT_SUCCESS/OUTPUT_ERROR…OUTPUT_END section.
type OutputBlock struct {
	Status   Status
	Commands []Command
}

// Run executes blocks matching status against vars, returning the rendered
// RETURN lines in order. errMsg is the error message substituted for
// "<ERROR REASON>" and the bare word "ERROR" (empty on success). vars is
// mutated in place by JSON_OUTPUT commands. logger receives a record of
// each JSON_OUTPUT failure; pass [probeengine.DefaultSLogger] to discard.
//
// A JSON_OUTPUT parse failure aborts the rest of that block's commands and
// contributes no lines — it does not abort sibling blocks or the probe.
func Run(blocks []OutputBlock, status Status, vars *value.Table, errMsg string, endpoint *probeengine.Endpoint, logger probeengine.SLogger) []string {
	if logger == nil {
		logger = probeengine.DefaultSLogger()
	}
	var lines []string
	for _, block := range blocks {
		if block.Status != status {
			continue
		}
		start := len(lines)
		for _, cmd := range block.Commands {
			if !cmd.IsReturn {
				if err := jsonOutput(cmd.JSONOutputVar, vars); err != nil {
					logger.Info("jsonOutputFailed", "var", cmd.JSONOutputVar, "err", err.Error())
					lines = lines[:start]
					break
				}
				continue
			}
			lines = append(lines, Render(cmd.ReturnTemplate, vars, errMsg, endpoint))
		}
	}
	return lines
}

func jsonOutput(name string, vars *value.Table) error {
	v, ok := vars.Get(name)
	if !ok {
		return probeengine.NewEngineError(probeengine.ErrValidation, "JSON_OUTPUT: unknown variable "+name)
	}
	if v.Kind() != value.KindString {
		return nil
	}
	parsed, err := value.ParseJSON([]byte(v.AsString()))
	if err != nil {
		return probeengine.NewEngineError(probeengine.ErrValidation, "JSON_OUTPUT: "+err.Error())
	}
	vars.Set(name, parsed)
	return nil
}

// Render expands one RETURN template against vars (spec.md §4.7 step by
// step): error substitution, quote stripping, the whole-template identifier
// shortcut, then a character scan resolving dot-paths and falling back to
// the reserved pseudo-variable set before emitting a token verbatim.
//
// The outer quotes a template may be wrapped in (used to disambiguate a
// literal string from a bare identifier reference) are stripped and never
// restored: the formatter this was ported from strips them once, before
// the template ever reaches its rendering step, so no rendered line in
// practice ever carries them back — see DESIGN.md's note on this for why
// the "re-wrap in quotes" reading of the prose algorithm is not what's
// implemented here.
//
// endpoint supplies the HOST/IP/HOST_LEN/IP_LEN/PORT fallback values: a
// token that both fails the vars-table path lookup AND matches one of
// these five reserved names resolves directly off endpoint rather than
// being emitted verbatim, mirroring the two independent resolution paths
// (vars lookup, then a hardcoded special case) of the formatter this was
// ported from. endpoint may be nil if none of these names can occur.
func Render(template string, vars *value.Table, errMsg string, endpoint *probeengine.Endpoint) string {
	template = strings.ReplaceAll(template, "<ERROR REASON>", errMsg)
	template = strings.ReplaceAll(template, "ERROR", errMsg)

	body := strings.TrimSpace(template)
	if len(body) >= 2 {
		first, last := body[0], body[len(body)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			body = body[1 : len(body)-1]
		}
	}

	if isValidVarName(body) {
		if resolved, ok := vars.ResolvePath(strings.Split(body, ".")); ok {
			return body + "=\"" + valueToString(resolved) + "\""
		}
	}

	var out strings.Builder
	var token strings.Builder
	flush := func() {
		if token.Len() == 0 {
			return
		}
		t := token.String()
		if isValidVarName(t) || strings.Contains(t, ".") {
			if resolved, ok := vars.ResolvePath(strings.Split(t, ".")); ok {
				out.WriteString(valueToString(resolved))
			} else {
				out.WriteString(resolvePseudo(t, endpoint))
			}
		} else {
			out.WriteString(t)
		}
		token.Reset()
	}
	for _, r := range body {
		if isTokenRune(r) {
			token.WriteRune(r)
		} else {
			flush()
			out.WriteRune(r)
		}
	}
	flush()
	return out.String()
}

// resolvePseudo implements the formatter's hardcoded fallback for the five
// reserved server-identity names, tried only after a vars-table path lookup
// has already missed. An unrecognized token is returned unchanged.
func resolvePseudo(token string, endpoint *probeengine.Endpoint) string {
	if endpoint == nil {
		return token
	}
	switch token {
	case "HOST_LEN", "IP_LEN":
		return strconv.Itoa(len(endpoint.Address))
	case "HOST", "IP":
		return endpoint.Address
	case "PORT":
		return strconv.Itoa(int(endpoint.Port))
	default:
		return token
	}
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func isValidVarName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// valueToString renders v the way the output formatter's Rust ancestor
// rendered its JSON value type: strings unquoted, numbers/bools in their
// natural form, null as the literal word "null", arrays/objects as compact
// JSON.
func valueToString(v value.Value) string {
	if v.IsNull() {
		return "null"
	}
	return v.AsString()
}
