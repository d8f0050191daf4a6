// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"strconv"
	"strings"

	"github.com/bassosimone/probeengine/packetio"
)

// parsePacketCommand parses one request-side command line (spec.md §4.1's
// "Command grammar (request side)"), grounded on packet_parser.rs's
// parse_packet_command.
func parsePacketCommand(line string, lineNum int) (packetio.WriteOp, error) {
	parts := fieldsOf(line)
	if len(parts) == 0 {
		return packetio.WriteOp{}, errorfAt(lineNum, "empty command")
	}

	switch parts[0] {
	case "WRITE_BYTE":
		v, isVar, err := numericArg(parts, 1, lineNum, "WRITE_BYTE")
		if err != nil {
			return packetio.WriteOp{}, err
		}
		if isVar {
			return packetio.WriteOp{Kind: packetio.WriteByte, Var: parts[1]}, nil
		}
		return packetio.WriteOp{Kind: packetio.WriteByte, Byte: uint8(v)}, nil

	case "WRITE_SHORT", "WRITE_SHORT_BE":
		v, isVar, err := numericArg(parts, 1, lineNum, parts[0])
		if err != nil {
			return packetio.WriteOp{}, err
		}
		op := packetio.WriteOp{Kind: packetio.WriteShort, BigEndian: parts[0] == "WRITE_SHORT_BE"}
		if isVar {
			op.Var = parts[1]
		} else {
			op.Short = uint16(v)
		}
		return op, nil

	case "WRITE_INT", "WRITE_INT_BE":
		if len(parts) < 2 {
			return packetio.WriteOp{}, errorfAt(lineNum, "%s requires value", parts[0])
		}
		bigEndian := parts[0] == "WRITE_INT_BE"
		if strings.EqualFold(parts[1], "PACKET_LEN") {
			return packetio.WriteOp{Kind: packetio.WriteIntLen, BigEndian: bigEndian}, nil
		}
		v, isVar, err := numericArg(parts, 1, lineNum, parts[0])
		if err != nil {
			return packetio.WriteOp{}, err
		}
		op := packetio.WriteOp{Kind: packetio.WriteInt, BigEndian: bigEndian}
		if isVar {
			op.Var = parts[1]
		} else {
			op.Int = uint32(v)
		}
		return op, nil

	case "WRITE_STRING":
		rest, ok := stripPrefixSpace(line, "WRITE_STRING")
		if !ok {
			return packetio.WriteOp{}, errorfAt(lineNum, "WRITE_STRING requires text")
		}
		if text, ok := quotedLiteral(rest); ok {
			return packetio.WriteOp{Kind: packetio.WriteString, Text: text, Length: -1}, nil
		}
		return packetio.WriteOp{Kind: packetio.WriteString, Var: strings.TrimSpace(rest), Length: -1}, nil

	case "WRITE_STRING_LEN":
		rest, ok := stripPrefixSpace(line, "WRITE_STRING_LEN")
		if !ok {
			return packetio.WriteOp{}, errorfAt(lineNum, "WRITE_STRING_LEN requires text and length")
		}
		if text, afterQuote, ok := quotedLiteralWithRemainder(rest); ok {
			length, err := strconv.Atoi(strings.TrimSpace(afterQuote))
			if err != nil {
				return packetio.WriteOp{}, errorfAt(lineNum, "invalid length: %v", err)
			}
			if length < 0 {
				return packetio.WriteOp{}, buildErrorfAt(lineNum, "WRITE_STRING_LEN length cannot be negative, got %d", length)
			}
			return packetio.WriteOp{Kind: packetio.WriteString, Text: text, Length: length}, nil
		}
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return packetio.WriteOp{}, errorfAt(lineNum, "WRITE_STRING_LEN requires text and length")
		}
		length, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			return packetio.WriteOp{}, errorfAt(lineNum, "invalid length: %v", err)
		}
		if length < 0 {
			return packetio.WriteOp{}, buildErrorfAt(lineNum, "WRITE_STRING_LEN length cannot be negative, got %d", length)
		}
		return packetio.WriteOp{Kind: packetio.WriteString, Var: fields[0], Length: length}, nil

	case "WRITE_VARINT":
		if len(parts) < 2 {
			return packetio.WriteOp{}, errorfAt(lineNum, "WRITE_VARINT requires value")
		}
		if strings.EqualFold(parts[1], "PACKET_LEN") {
			return packetio.WriteOp{Kind: packetio.WriteVarIntLen}, nil
		}
		v, isVar, err := numericArg(parts, 1, lineNum, "WRITE_VARINT")
		if err != nil {
			return packetio.WriteOp{}, err
		}
		op := packetio.WriteOp{Kind: packetio.WriteVarInt}
		if isVar {
			op.Var = parts[1]
		} else {
			op.VarInt = v
		}
		return op, nil

	case "WRITE_BYTES":
		if len(parts) < 2 {
			return packetio.WriteOp{}, errorfAt(lineNum, "WRITE_BYTES requires hex string")
		}
		b, err := packetio.DecodeHex(parts[1])
		if err != nil {
			return packetio.WriteOp{}, err
		}
		return packetio.WriteOp{Kind: packetio.WriteBytes, Bytes: b}, nil

	default:
		return packetio.WriteOp{}, errorfAt(lineNum, "unknown packet command: %s", parts[0])
	}
}

// parseResponseCommand parses one binary response-side command line,
// grounded on packet_parser.rs's parse_response_command.
func parseResponseCommand(line string, lineNum int) (packetio.ReadOp, error) {
	parts := fieldsOf(line)
	if len(parts) == 0 {
		return packetio.ReadOp{}, errorfAt(lineNum, "empty command")
	}

	switch parts[0] {
	case "READ_BYTE":
		name, err := requireArg(parts, 1, lineNum, "READ_BYTE")
		if err != nil {
			return packetio.ReadOp{}, err
		}
		return packetio.ReadOp{Kind: packetio.ReadByte, Name: name}, nil
	case "READ_SHORT", "READ_SHORT_BE":
		name, err := requireArg(parts, 1, lineNum, parts[0])
		if err != nil {
			return packetio.ReadOp{}, err
		}
		return packetio.ReadOp{Kind: packetio.ReadShort, Name: name, BigEndian: parts[0] == "READ_SHORT_BE"}, nil
	case "READ_INT", "READ_INT_BE":
		name, err := requireArg(parts, 1, lineNum, parts[0])
		if err != nil {
			return packetio.ReadOp{}, err
		}
		return packetio.ReadOp{Kind: packetio.ReadInt, Name: name, BigEndian: parts[0] == "READ_INT_BE"}, nil
	case "READ_STRING":
		if len(parts) < 3 {
			return packetio.ReadOp{}, errorfAt(lineNum, "READ_STRING requires variable name and length")
		}
		length, err := strconv.Atoi(parts[2])
		if err != nil {
			return packetio.ReadOp{}, errorfAt(lineNum, "invalid length: %v", err)
		}
		return packetio.ReadOp{Kind: packetio.ReadString, Name: parts[1], Length: length}, nil
	case "READ_STRING_NULL":
		name, err := requireArg(parts, 1, lineNum, "READ_STRING_NULL")
		if err != nil {
			return packetio.ReadOp{}, err
		}
		return packetio.ReadOp{Kind: packetio.ReadStringNull, Name: name}, nil
	case "READ_VARINT":
		name, err := requireArg(parts, 1, lineNum, "READ_VARINT")
		if err != nil {
			return packetio.ReadOp{}, err
		}
		return packetio.ReadOp{Kind: packetio.ReadVarInt, Name: name}, nil
	case "SKIP_BYTES":
		if len(parts) < 2 {
			return packetio.ReadOp{}, errorfAt(lineNum, "SKIP_BYTES requires count")
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return packetio.ReadOp{}, errorfAt(lineNum, "invalid count: %v", err)
		}
		return packetio.ReadOp{Kind: packetio.SkipBytes, Length: n}, nil
	case "EXPECT_BYTE":
		v, isVar, err := numericArg(parts, 1, lineNum, "EXPECT_BYTE")
		if err != nil {
			return packetio.ReadOp{}, err
		}
		if isVar {
			return packetio.ReadOp{}, errorfAt(lineNum, "EXPECT_BYTE requires a literal value, got %q", parts[1])
		}
		return packetio.ReadOp{Kind: packetio.ExpectByte, Expect: []byte{byte(v)}}, nil
	case "EXPECT_MAGIC":
		if len(parts) < 2 {
			return packetio.ReadOp{}, errorfAt(lineNum, "EXPECT_MAGIC requires hex string")
		}
		b, err := packetio.DecodeHex(parts[1])
		if err != nil {
			return packetio.ReadOp{}, err
		}
		return packetio.ReadOp{Kind: packetio.ExpectMagic, Expect: b}, nil
	default:
		return packetio.ReadOp{}, errorfAt(lineNum, "unknown response command: %s", parts[0])
	}
}

func numericArg(parts []string, idx, lineNum int, cmd string) (uint64, bool, error) {
	if idx >= len(parts) {
		return 0, false, errorfAt(lineNum, "%s requires value", cmd)
	}
	token := parts[idx]
	if !isNumericLiteral(token) {
		return 0, true, nil
	}
	v, err := parseLiteralValue(token)
	if err != nil {
		return 0, false, errorfAt(lineNum, "invalid numeric value %q: %v", token, err)
	}
	return v, false, nil
}

func requireArg(parts []string, idx, lineNum int, cmd string) (string, error) {
	if idx >= len(parts) {
		return "", errorfAt(lineNum, "%s requires variable name", cmd)
	}
	return parts[idx], nil
}

// stripPrefixSpace removes "KEYWORD " from line, mirroring the Rust
// parser's strip_prefix("WRITE_STRING ") check.
func stripPrefixSpace(line, keyword string) (string, bool) {
	prefix := keyword + " "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return line[len(prefix):], true
}

// quotedLiteral extracts a double-quoted literal from the start of rest,
// returning ok=false if rest isn't quoted (the caller then treats the whole
// trimmed remainder as a variable name).
func quotedLiteral(rest string) (string, bool) {
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := strings.Index(rest[1:], `"`)
	if end < 0 {
		return "", false
	}
	return rest[1 : 1+end], true
}

// quotedLiteralWithRemainder is quotedLiteral but also returns whatever
// text follows the closing quote, for WRITE_STRING_LEN's trailing length.
func quotedLiteralWithRemainder(rest string) (text, remainder string, ok bool) {
	trimmed := strings.TrimSpace(rest)
	if len(trimmed) < 2 || trimmed[0] != '"' {
		return "", "", false
	}
	end := strings.Index(trimmed[1:], `"`)
	if end < 0 {
		return "", "", false
	}
	return trimmed[1 : 1+end], trimmed[1+end+1:], true
}
