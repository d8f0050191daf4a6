// SPDX-License-Identifier: GPL-3.0-or-later

package packetio

import (
	"encoding/hex"
	"fmt"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/value"
)

type intPlaceholder struct {
	offset    int
	bigEndian bool
}

// Build serializes ops into a byte buffer against vars, resolving variable
// references and back-patching length placeholders (spec.md §4.2).
func Build(ops []WriteOp, vars *value.Table) ([]byte, error) {
	buf := make([]byte, 0, 64)
	var varintPlaceholders []int
	var intPlaceholders []intPlaceholder

	for _, op := range ops {
		switch op.Kind {
		case WriteByte:
			v, err := resolveByte(op, vars)
			if err != nil {
				return nil, err
			}
			buf = append(buf, v)
		case WriteShort:
			v, err := resolveShort(op, vars)
			if err != nil {
				return nil, err
			}
			buf = appendUint16(buf, v, op.BigEndian)
		case WriteInt:
			v, err := resolveInt(op, vars)
			if err != nil {
				return nil, err
			}
			buf = appendUint32(buf, v, op.BigEndian)
		case WriteString:
			text, err := resolveString(op, vars)
			if err != nil {
				return nil, err
			}
			switch {
			case op.Length >= 0:
				fixed := make([]byte, op.Length)
				copy(fixed, text)
				buf = append(buf, fixed...)
			case op.Length == -1:
				buf = append(buf, text...)
				buf = append(buf, 0)
			default:
				return nil, probeengine.NewEngineError(probeengine.ErrBuild,
					fmt.Sprintf("negative length %d for fixed-length string", op.Length))
			}
		case WriteBytes:
			buf = append(buf, op.Bytes...)
		case WriteVarInt:
			v, err := resolveVarInt(op, vars)
			if err != nil {
				return nil, err
			}
			buf = append(buf, encodeVarint(v)...)
		case WriteVarIntLen:
			varintPlaceholders = append(varintPlaceholders, len(buf))
		case WriteIntLen:
			intPlaceholders = append(intPlaceholders, intPlaceholder{offset: len(buf), bigEndian: op.BigEndian})
			buf = append(buf, 0, 0, 0, 0)
		default:
			return nil, probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("unknown write op kind %d", op.Kind))
		}
	}

	// Int placeholders overwrite their reserved slots in place, so they
	// resolve first while every recorded offset is still valid.
	for i := len(intPlaceholders) - 1; i >= 0; i-- {
		ph := intPlaceholders[i]
		length := len(buf) - ph.offset - 4
		if length < 0 {
			return nil, probeengine.NewEngineError(probeengine.ErrBuild, "negative length for PACKET_LEN placeholder")
		}
		b := make([]byte, 4)
		if ph.bigEndian {
			b[0], b[1], b[2], b[3] = byte(length>>24), byte(length>>16), byte(length>>8), byte(length)
		} else {
			b[0], b[1], b[2], b[3] = byte(length), byte(length>>8), byte(length>>16), byte(length>>24)
		}
		copy(buf[ph.offset:ph.offset+4], b)
	}
	// Right-to-left: a varint insertion shifts everything after its
	// offset, including any later placeholder already resolved above,
	// so later offsets must be processed first.
	for i := len(varintPlaceholders) - 1; i >= 0; i-- {
		offset := varintPlaceholders[i]
		length := len(buf) - offset
		encoded := encodeVarint(uint64(length))
		tail := append([]byte{}, buf[offset:]...)
		buf = append(buf[:offset], append(encoded, tail...)...)
	}

	return buf, nil
}

func appendUint16(buf []byte, v uint16, bigEndian bool) []byte {
	if bigEndian {
		return append(buf, byte(v>>8), byte(v))
	}
	return append(buf, byte(v), byte(v>>8))
}

func appendUint32(buf []byte, v uint32, bigEndian bool) []byte {
	if bigEndian {
		return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func resolveByte(op WriteOp, vars *value.Table) (byte, error) {
	if op.Var == "" {
		return op.Byte, nil
	}
	n, err := lookupInt(op.Var, vars)
	if err != nil {
		return 0, err
	}
	return byte(n), nil
}

func resolveShort(op WriteOp, vars *value.Table) (uint16, error) {
	if op.Var == "" {
		return op.Short, nil
	}
	n, err := lookupInt(op.Var, vars)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

func resolveInt(op WriteOp, vars *value.Table) (uint32, error) {
	if op.Var == "" {
		return op.Int, nil
	}
	n, err := lookupInt(op.Var, vars)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func resolveVarInt(op WriteOp, vars *value.Table) (uint64, error) {
	if op.Var == "" {
		return op.VarInt, nil
	}
	n, err := lookupInt(op.Var, vars)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func resolveString(op WriteOp, vars *value.Table) (string, error) {
	if op.Var == "" {
		return op.Text, nil
	}
	v, ok := vars.Get(op.Var)
	if !ok {
		return "", probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("unknown variable %q", op.Var))
	}
	return v.AsString(), nil
}

func lookupInt(name string, vars *value.Table) (int64, error) {
	v, ok := vars.Get(name)
	if !ok {
		return 0, probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("unknown variable %q", name))
	}
	n, ok := v.AsInt64()
	if !ok {
		return 0, probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("variable %q is not numeric", name))
	}
	return n, nil
}

// DecodeHex decodes a WRITE_BYTES/EXPECT_MAGIC hex literal, stripping any
// "0x"/"0X" occurrences the way the reference parser does before handing
// the remainder to its hex decoder.
func DecodeHex(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, "0x", "")
	s = strings.ReplaceAll(s, "0X", "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("invalid hex string: %v", err))
	}
	return b, nil
}
