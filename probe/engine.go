// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/codeinterp"
	"github.com/bassosimone/probeengine/output"
	"github.com/bassosimone/probeengine/script"
	"github.com/bassosimone/probeengine/value"
)

// Engine runs probe scripts against endpoints (spec.md §2: "Probe Engine
// performs: 1. Placeholder substitution … 5. Formatter").
type Engine struct {
	cfg *Config
}

// NewEngine returns a new [*Engine].
func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run executes one probe against endpoint, never returning an error
// itself: any failure is captured in the returned [*Result]'s Error field
// (spec.md §7: "The error object is returned AND drives the OUTPUT_ERROR
// block").
func (e *Engine) Run(ctx context.Context, endpoint *probeengine.Endpoint) *Result {
	t0 := e.cfg.Engine.TimeNow()
	spanID := probeengine.NewSpanID()
	logger := e.cfg.Logger
	logger.Info("probeStart", "spanID", spanID, "endpoint", endpoint.Name, "protocol", endpoint.Protocol.String())

	expanded := script.ExpandPlaceholders(endpoint.Script, endpoint)
	prog, err := script.Parse(expanded)
	if err != nil {
		return e.finish(t0, endpoint, nil, nil, nil, nil, err)
	}

	if err := validatePairKinds(prog, endpoint.Protocol); err != nil {
		return e.finish(t0, endpoint, nil, nil, nil, nil, err)
	}

	vars, raw, pairErr := e.runPairs(ctx, endpoint, prog)

	code, codeErr := codeinterp.Run(prog.CodeProgram, vars)
	if codeErr != nil {
		logger.Info("codeInterpreterFailed", "spanID", spanID, "err", codeErr.Error())
		code = value.NewTable()
	}
	merged := value.Merge(vars, code)

	result := e.finish(t0, endpoint, vars, merged, raw, prog.OutputBlocks, pairErr)
	logger.Info("probeDone", "spanID", spanID, "success", result.Success, "responseTimeMS", result.ResponseTimeMS)
	return result
}

// validatePairKinds enforces spec.md §3's "HTTP pairs are only legal when
// the transport is HTTP/HTTPS; binary pairs only when UDP/TCP".
func validatePairKinds(prog *script.Script, protocol probeengine.Protocol) error {
	for i, pair := range prog.Pairs {
		switch pair.Kind {
		case script.HTTPPair:
			if !protocol.IsHTTP() {
				return probeengine.NewEngineErrorAt(probeengine.ErrProtocol,
					fmt.Sprintf("HTTP pair not legal on %s transport", protocol), i+1)
			}
		case script.BinaryPair:
			if !protocol.IsBinary() {
				return probeengine.NewEngineErrorAt(probeengine.ErrProtocol,
					fmt.Sprintf("binary pair not legal on %s transport", protocol), i+1)
			}
		}
	}
	return nil
}

// runPairs executes every pair in order (spec.md §4.5/§5: "pair i
// completes … before pair i+1 begins building"), stopping at the first
// error. It always returns the variable table accumulated so far, even on
// error, so the error-path output block still has partial data to render.
func (e *Engine) runPairs(ctx context.Context, endpoint *probeengine.Endpoint, prog *script.Script) (*value.Table, [][]byte, error) {
	vars := value.NewTable()
	var raw [][]byte

	var bin *binarySession
	var htp *httpSession
	if endpoint.Protocol.IsBinary() {
		bin = newBinarySession(e.cfg, endpoint)
		defer bin.close()
	} else {
		htp = newHTTPSession(e.cfg, endpoint)
	}

	for _, pair := range prog.Pairs {
		var pairVars *value.Table
		var received []byte
		var err error

		if pair.Kind == script.HTTPPair {
			pairVars, received, err = htp.runPair(ctx, pair, vars)
		} else {
			pairVars, received, err = bin.runPair(ctx, pair, vars)
		}
		if received != nil {
			raw = append(raw, received)
		}
		if err != nil {
			return vars, raw, err
		}
		vars = value.Merge(vars, pairVars)
	}
	return vars, raw, nil
}

// finish assembles the [*Result] once pairs and the code interpreter have
// run (or failed), formatting whichever output block matches the outcome.
// parsed holds the pair-produced variables alone; merged adds the code
// interpreter's on top and is what the output block renders against. The
// caller-visible ParsedValues/Variables maps are zeroed on failure, but
// the error-path template still sees everything gathered up to the
// failing pair.
func (e *Engine) finish(t0 time.Time, endpoint *probeengine.Endpoint, parsed, merged *value.Table,
	raw [][]byte, blocks []output.OutputBlock, probeErr error) *Result {
	if parsed == nil {
		parsed = value.NewTable()
	}
	if merged == nil {
		merged = parsed
	}

	result := &Result{
		ResponseTimeMS: e.cfg.Engine.TimeNow().Sub(t0).Milliseconds(),
		RawResponse:    rawResponseHex(raw),
		Success:        probeErr == nil,
	}
	if result.Success {
		result.ParsedValues = tableToMap(parsed)
		result.Variables = tableToMap(merged)
	} else {
		result.ParsedValues = map[string]any{}
		result.Variables = map[string]any{}
	}

	errMsg := ""
	if probeErr != nil {
		result.Error = newErrorInfo(probeErr)
		errMsg = result.Error.Message
	}

	status := output.Success
	if !result.Success {
		status = output.Error
	}
	lines := output.Run(blocks, status, merged, errMsg, endpoint, e.cfg.Logger)
	if result.Success {
		result.OutputLabelsSuccess = lines
	} else {
		result.OutputLabelsError = lines
	}
	return result
}

func rawResponseHex(raw [][]byte) *string {
	if len(raw) == 0 {
		return nil
	}
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = hex.EncodeToString(b)
	}
	s := strings.Join(parts, " ")
	return &s
}

func tableToMap(t *value.Table) map[string]any {
	data, err := json.Marshal(t)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}
