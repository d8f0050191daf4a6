// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"fmt"
	"strconv"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/codeinterp"
	"github.com/bassosimone/probeengine/httpdsl"
	"github.com/bassosimone/probeengine/output"
	"github.com/bassosimone/probeengine/packetio"
)

// Parse assembles a placeholder-expanded script source into a [Script]
// (spec.md §4.1). Lexing is line-oriented: lines are trimmed, empty lines
// and '#'-comments are skipped, and every remaining line either opens/closes
// a named section or contributes a command to whichever section is open.
func Parse(text string) (*Script, error) {
	lines := splitLines(text)

	var pairs []Pair
	var curPackets [][]packetio.WriteOp
	var curPacket []packetio.WriteOp
	var curResponse []packetio.ReadOp
	var curHTTPReq *httpdsl.Request
	var curHTTPResp []httpdsl.ResponseOp

	var codeLines []codeinterp.RawLine
	var outputBlocks []output.OutputBlock
	var curOutput *output.OutputBlock

	inPacket, inResponse, inHTTP, inCode := false, false, false, false
	// respIsHTTP is latched the instant RESPONSE_START opens, based on
	// which accumulator the preceding section populated: an HTTP_START…
	// HTTP_END always leaves curHTTPReq set, a PACKET_START…PACKET_END
	// run always leaves at least one packet in curPackets/curPacket.
	respIsHTTP := false
	pendingCloseBefore := false

	savePair := func() {
		if curHTTPReq != nil {
			pairs = append(pairs, Pair{
				Kind:            HTTPPair,
				CloseBefore:     pendingCloseBefore,
				HTTPRequest:     *curHTTPReq,
				HTTPResponseOps: curHTTPResp,
			})
			curHTTPReq = nil
			curHTTPResp = nil
			pendingCloseBefore = false
			return
		}
		if len(curPackets) > 0 {
			pairs = append(pairs, Pair{
				Kind:        BinaryPair,
				CloseBefore: pendingCloseBefore,
				Packets:     curPackets,
				ResponseOps: curResponse,
			})
			curPackets = nil
			curResponse = nil
			pendingCloseBefore = false
		}
	}

	for i, raw := range lines {
		lineNum := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if inCode {
			if line == "CODE_END" {
				inCode = false
				continue
			}
			indent := leadingSpace(raw)
			codeLines = append(codeLines, codeinterp.RawLine{Text: raw, Indent: indent, Num: lineNum})
			continue
		}

		switch {
		case line == "CONNECTION_CLOSE":
			pendingCloseBefore = true
			continue
		case line == "CODE_START":
			inCode = true
			continue
		case line == "PACKET_START":
			if inPacket && len(curPacket) > 0 {
				curPackets = append(curPackets, curPacket)
				curPacket = nil
			}
			inPacket, inResponse = true, false
			continue
		case line == "PACKET_END":
			curPackets = append(curPackets, curPacket)
			curPacket = nil
			inPacket = false
			continue
		case line == "RESPONSE_START":
			respIsHTTP = curHTTPReq != nil
			inResponse, inPacket = true, false
			continue
		case line == "RESPONSE_END":
			savePair()
			inResponse = false
			continue
		case strings.HasPrefix(line, "HTTP_START"):
			req, err := parseHTTPStart(line, lineNum)
			if err != nil {
				return nil, err
			}
			curHTTPReq = req
			inHTTP = true
			continue
		case line == "HTTP_END":
			inHTTP = false
			continue
		case line == "OUTPUT_SUCCESS":
			if curOutput != nil {
				return nil, errorfAt(lineNum, "OUTPUT_SUCCESS without closing previous block")
			}
			curOutput = &output.OutputBlock{Status: output.Success}
			continue
		case line == "OUTPUT_ERROR":
			if curOutput != nil {
				return nil, errorfAt(lineNum, "OUTPUT_ERROR without closing previous block")
			}
			curOutput = &output.OutputBlock{Status: output.Error}
			continue
		case line == "OUTPUT_END":
			if curOutput == nil {
				return nil, errorfAt(lineNum, "OUTPUT_END without active block")
			}
			outputBlocks = append(outputBlocks, *curOutput)
			curOutput = nil
			continue
		}

		switch {
		case inPacket:
			op, err := parsePacketCommand(line, lineNum)
			if err != nil {
				return nil, err
			}
			curPacket = append(curPacket, op)
		case inHTTP:
			if err := parseHTTPRequestLine(curHTTPReq, line, lineNum); err != nil {
				return nil, err
			}
		case inResponse && respIsHTTP:
			op, err := parseHTTPResponseCommand(line, lineNum)
			if err != nil {
				return nil, err
			}
			curHTTPResp = append(curHTTPResp, op)
		case inResponse:
			op, err := parseResponseCommand(line, lineNum)
			if err != nil {
				return nil, err
			}
			curResponse = append(curResponse, op)
		default:
			if err := handleOutputLine(line, lineNum, curOutput); err != nil {
				return nil, err
			}
		}
	}

	if len(curPacket) > 0 {
		curPackets = append(curPackets, curPacket)
	}
	savePair()
	if curOutput != nil {
		outputBlocks = append(outputBlocks, *curOutput)
	}

	prog, err := codeinterp.Parse(codeLines)
	if err != nil {
		return nil, err
	}

	return &Script{Pairs: pairs, CodeProgram: prog, OutputBlocks: outputBlocks}, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func leadingSpace(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

func errorfAt(line int, format string, args ...any) error {
	return probeengine.NewEngineErrorAt(probeengine.ErrSyntax, fmt.Sprintf(format, args...), line)
}

// buildErrorfAt tags a parse-time failure as [probeengine.ErrBuild] rather
// than [probeengine.ErrSyntax], for request-assembly violations the parser
// can already see (fixed-length underflow on a negative length).
func buildErrorfAt(line int, format string, args ...any) error {
	return probeengine.NewEngineErrorAt(probeengine.ErrBuild, fmt.Sprintf(format, args...), line)
}

func fieldsOf(line string) []string { return strings.Fields(line) }

func isNumericLiteral(token string) bool {
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		return true
	}
	_, err := strconv.ParseUint(token, 10, 64)
	return err == nil
}

func parseLiteralValue(token string) (uint64, error) {
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		return strconv.ParseUint(token[2:], 16, 64)
	}
	return strconv.ParseUint(token, 10, 64)
}
