// SPDX-License-Identifier: GPL-3.0-or-later

// Package script implements the probe engine's top-level script assembler:
// placeholder expansion over the raw pseudo_code text, then the
// line-oriented section lexer that groups PACKET_START/RESPONSE_START,
// HTTP_START/RESPONSE_START, CODE_START, and OUTPUT_SUCCESS/OUTPUT_ERROR
// blocks into a [Script] (spec.md §4.1).
package script

import (
	"github.com/bassosimone/probeengine/codeinterp"
	"github.com/bassosimone/probeengine/httpdsl"
	"github.com/bassosimone/probeengine/output"
	"github.com/bassosimone/probeengine/packetio"
)

// PairKind tags whether a [Pair] carries binary packet/response ops or an
// HTTP request/response.
type PairKind int

const (
	// BinaryPair carries PACKET_START packet lists and RESPONSE_START ops.
	BinaryPair PairKind = iota
	// HTTPPair carries one HTTP_START request and RESPONSE_START ops.
	HTTPPair
)

// Pair is one PACKET_START…RESPONSE_END or HTTP_START…RESPONSE_END unit
// (spec.md §4.1's assembly rules).
type Pair struct {
	Kind PairKind

	// CloseBefore is set when a CONNECTION_CLOSE directive preceded this
	// pair; only meaningful for TCP.
	CloseBefore bool

	// Packets holds one write-op list per accumulated PACKET_START…
	// PACKET_END block; BinaryPair only.
	Packets [][]packetio.WriteOp

	// ResponseOps is the binary response op list; BinaryPair only.
	ResponseOps []packetio.ReadOp

	// HTTPRequest is set for HTTPPair.
	HTTPRequest httpdsl.Request

	// HTTPResponseOps is the HTTP response op list; HTTPPair only.
	HTTPResponseOps []httpdsl.ResponseOp
}

// Script is the fully assembled result of parsing a pseudo_code source
// (spec.md §4.1's "Script AST").
type Script struct {
	Pairs        []Pair
	CodeProgram  *codeinterp.Program
	OutputBlocks []output.OutputBlock
}
