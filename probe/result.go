// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import "github.com/bassosimone/probeengine"

// ErrorInfo is the caller-visible error shape (spec.md §6: "error: {
// type, message, line? }").
type ErrorInfo struct {
	Type    probeengine.ErrorType `json:"type"`
	Message string                `json:"message"`
	Line    *int                  `json:"line,omitempty"`
}

// newErrorInfo converts an [*probeengine.EngineError] into an [*ErrorInfo];
// any other error is reported as a [probeengine.ErrNetwork] with no line.
func newErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*probeengine.EngineError); ok {
		return &ErrorInfo{Type: ee.Type, Message: ee.Message, Line: ee.Line}
	}
	return &ErrorInfo{Type: probeengine.ErrNetwork, Message: err.Error()}
}

// Result is the probe engine's caller-visible outcome (spec.md §6: "Probe
// result (returned to callers)").
type Result struct {
	// Success is false whenever any pair failed.
	Success bool `json:"success"`

	// ResponseTimeMS is the wall-clock elapsed from probe entry to result.
	ResponseTimeMS int64 `json:"response_time_ms"`

	// RawResponse is the lowercase-hex concatenation of all received
	// bodies/datagrams, separated by single spaces; nil if nothing was
	// ever received.
	RawResponse *string `json:"raw_response"`

	// ParsedValues holds the pair-produced variables only (pseudo-variables
	// never appear here).
	ParsedValues map[string]any `json:"parsed_values"`

	// Variables holds parsed-plus-code variables (still no pseudo-variables).
	Variables map[string]any `json:"variables"`

	// Error is set whenever Success is false.
	Error *ErrorInfo `json:"error"`

	// OutputLabelsSuccess is the rendered OUTPUT_SUCCESS lines; empty
	// unless Success.
	OutputLabelsSuccess []string `json:"output_labels_success"`

	// OutputLabelsError is the rendered OUTPUT_ERROR lines; empty unless
	// !Success.
	OutputLabelsError []string `json:"output_labels_error"`
}
