// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"strconv"
	"strings"

	"github.com/bassosimone/probeengine/httpdsl"
)

// parseHTTPStart parses "HTTP_START REQUEST <METHOD> <PATH>" (spec.md
// §4.1's section-opener grammar).
func parseHTTPStart(line string, lineNum int) (*httpdsl.Request, error) {
	fields := fieldsOf(line)
	if len(fields) != 4 || fields[0] != "HTTP_START" || fields[1] != "REQUEST" {
		return nil, errorfAt(lineNum, "malformed HTTP_START line: %q", line)
	}
	return &httpdsl.Request{Method: fields[2], Path: fields[3]}, nil
}

// parseHTTPRequestLine handles one line inside HTTP_START…HTTP_END: PARAM,
// HEADER, BODY_START/BODY_END, and DATA (spec.md §4.1's "Command grammar
// (HTTP request)").
func parseHTTPRequestLine(req *httpdsl.Request, line string, lineNum int) error {
	fields := fieldsOf(line)
	if len(fields) == 0 {
		return errorfAt(lineNum, "empty HTTP command")
	}

	switch fields[0] {
	case "PARAM":
		kv, err := parseKV(fields, lineNum, "PARAM")
		if err != nil {
			return err
		}
		req.Params = append(req.Params, kv)
	case "HEADER":
		kv, err := parseKV(fields, lineNum, "HEADER")
		if err != nil {
			return err
		}
		req.Headers = append(req.Headers, kv)
	case "BODY_START":
		if len(fields) != 3 {
			return errorfAt(lineNum, "BODY_START requires a body type (FORM|RAW)")
		}
		switch strings.ToUpper(fields[2]) {
		case "FORM":
			req.BodyType = httpdsl.FormBody
		case "RAW":
			req.BodyType = httpdsl.RawBody
		default:
			return errorfAt(lineNum, "unknown body type %q", fields[2])
		}
	case "BODY_END":
		// no-op: the accumulated fragments are already on req.
	case "DATA":
		rest := strings.TrimSpace(strings.TrimPrefix(line, "DATA"))
		req.BodyFragments = append(req.BodyFragments, rest)
	default:
		return errorfAt(lineNum, "unknown HTTP request command: %s", fields[0])
	}
	return nil
}

func parseKV(fields []string, lineNum int, cmd string) (httpdsl.KV, error) {
	if len(fields) < 3 {
		return httpdsl.KV{}, errorfAt(lineNum, "%s requires a key and a value", cmd)
	}
	return httpdsl.KV{Key: fields[1], Value: strings.Join(fields[2:], " ")}, nil
}

// parseHTTPResponseCommand parses one line inside an HTTP pair's
// RESPONSE_START…RESPONSE_END block.
func parseHTTPResponseCommand(line string, lineNum int) (httpdsl.ResponseOp, error) {
	fields := fieldsOf(line)
	if len(fields) == 0 {
		return httpdsl.ResponseOp{}, errorfAt(lineNum, "empty response command")
	}
	switch fields[0] {
	case "EXPECT_STATUS":
		if len(fields) != 2 {
			return httpdsl.ResponseOp{}, errorfAt(lineNum, "EXPECT_STATUS requires a status code")
		}
		code, err := strconv.Atoi(fields[1])
		if err != nil {
			return httpdsl.ResponseOp{}, errorfAt(lineNum, "invalid status code: %v", err)
		}
		return httpdsl.ResponseOp{Kind: httpdsl.ExpectStatus, StatusCode: code}, nil
	case "EXPECT_HEADER":
		kv, err := parseKV(fields, lineNum, "EXPECT_HEADER")
		if err != nil {
			return httpdsl.ResponseOp{}, err
		}
		return httpdsl.ResponseOp{Kind: httpdsl.ExpectHeader, HeaderName: kv.Key, HeaderValue: kv.Value}, nil
	case "READ_BODY":
		name, err := requireArg(fields, 1, lineNum, "READ_BODY")
		if err != nil {
			return httpdsl.ResponseOp{}, err
		}
		return httpdsl.ResponseOp{Kind: httpdsl.ReadBody, Name: name}, nil
	case "READ_BODY_JSON":
		name, err := requireArg(fields, 1, lineNum, "READ_BODY_JSON")
		if err != nil {
			return httpdsl.ResponseOp{}, err
		}
		return httpdsl.ResponseOp{Kind: httpdsl.ReadBodyJSON, Name: name}, nil
	default:
		return httpdsl.ResponseOp{}, errorfAt(lineNum, "unknown HTTP response command: %s", fields[0])
	}
}
