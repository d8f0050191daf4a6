// SPDX-License-Identifier: GPL-3.0-or-later

package packetio

import (
	"fmt"
	"strings"
	"unicode/utf8"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/value"
)

// ParseResponse runs ops against response on a non-backtracking cursor
// starting at 0, returning the variables extracted and the final cursor
// position (spec.md §4.3).
func ParseResponse(ops []ReadOp, response []byte) (*value.Table, int, error) {
	vars := value.NewTable()
	cursor := 0

	for idx, op := range ops {
		opNum := idx + 1
		switch op.Kind {
		case ReadByte:
			if err := need(response, cursor, 1, opNum); err != nil {
				return nil, cursor, err
			}
			vars.Set(op.Name, value.Int(int64(response[cursor])))
			cursor++
		case ReadShort:
			if err := need(response, cursor, 2, opNum); err != nil {
				return nil, cursor, err
			}
			var v uint16
			if op.BigEndian {
				v = uint16(response[cursor])<<8 | uint16(response[cursor+1])
			} else {
				v = uint16(response[cursor]) | uint16(response[cursor+1])<<8
			}
			vars.Set(op.Name, value.Int(int64(v)))
			cursor += 2
		case ReadInt:
			if err := need(response, cursor, 4, opNum); err != nil {
				return nil, cursor, err
			}
			var v uint32
			b := response[cursor : cursor+4]
			if op.BigEndian {
				v = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
			} else {
				v = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
			}
			vars.Set(op.Name, value.Int(int64(v)))
			cursor += 4
		case ReadVarInt:
			v, err := decodeVarint(response, &cursor)
			if err != nil {
				return nil, cursor, probeengine.NewEngineErrorAt(probeengine.ErrParse, err.Error(), opNum)
			}
			vars.Set(op.Name, value.Int(int64(v)))
		case ReadString:
			if err := need(response, cursor, op.Length, opNum); err != nil {
				return nil, cursor, err
			}
			text := lossyUTF8(response[cursor : cursor+op.Length])
			text = strings.TrimRight(text, "\x00")
			vars.Set(op.Name, value.String(text))
			cursor += op.Length
		case ReadStringNull:
			start := cursor
			for cursor < len(response) && response[cursor] != 0 {
				cursor++
			}
			vars.Set(op.Name, value.String(lossyUTF8(response[start:cursor])))
			if cursor < len(response) {
				cursor++
			}
		case SkipBytes:
			if err := need(response, cursor, op.Length, opNum); err != nil {
				return nil, cursor, err
			}
			cursor += op.Length
		case ExpectByte:
			if err := need(response, cursor, 1, opNum); err != nil {
				return nil, cursor, err
			}
			actual := response[cursor]
			if len(op.Expect) != 1 || actual != op.Expect[0] {
				return nil, cursor, probeengine.NewEngineErrorAt(probeengine.ErrValidation,
					fmt.Sprintf("Expected byte 0x%02X, got 0x%02X", op.Expect[0], actual), opNum)
			}
			cursor++
		case ExpectMagic:
			if err := need(response, cursor, len(op.Expect), opNum); err != nil {
				return nil, cursor, err
			}
			actual := response[cursor : cursor+len(op.Expect)]
			if string(actual) != string(op.Expect) {
				return nil, cursor, probeengine.NewEngineErrorAt(probeengine.ErrValidation,
					fmt.Sprintf("Expected magic bytes %x, got %x", op.Expect, actual), opNum)
			}
			cursor += len(op.Expect)
		default:
			return nil, cursor, probeengine.NewEngineErrorAt(probeengine.ErrParse, fmt.Sprintf("unknown read op kind %d", op.Kind), opNum)
		}
	}

	return vars, cursor, nil
}

func need(response []byte, cursor, length, opNum int) error {
	if length < 0 || cursor+length > len(response) {
		have := len(response) - cursor
		if have < 0 {
			have = 0
		}
		return probeengine.NewEngineErrorAt(probeengine.ErrParse,
			fmt.Sprintf("insufficient data: need %d byte(s), have %d", length, have), opNum)
	}
	return nil
}

// lossyUTF8 replaces invalid byte sequences with U+FFFD, matching
// String::from_utf8_lossy semantics for READ_STRING/READ_STRING_NULL.
func lossyUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
