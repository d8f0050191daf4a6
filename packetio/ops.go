// SPDX-License-Identifier: GPL-3.0-or-later

// Package packetio implements the probe engine's binary packet layer: the
// request builder that serializes WRITE_* commands into byte buffers with
// length back-patching, and the response parser that reads READ_*/EXPECT_*
// commands off a non-backtracking cursor (spec.md §4.2, §4.3).
package packetio

// WriteOp is one request-side command parsed from a PACKET_START…PACKET_END
// block. Exactly one of the typed fields is meaningful, selected by Kind.
type WriteOp struct {
	Kind WriteKind

	// Byte/Short/Int hold a literal numeric value when Var == "".
	Byte  uint8
	Short uint16
	Int   uint32

	// Var, when non-empty, names a variable to resolve at build time
	// instead of using the literal field above.
	Var string

	// BigEndian selects the wire byte order for Short/Int/PacketLen ops.
	BigEndian bool

	// Text is the literal payload for String ops when Var == "".
	Text string

	// Length is the fixed width for WRITE_STRING_LEN; -1 means
	// unbounded (null-terminated WRITE_STRING). Any other negative
	// value is a BuildError.
	Length int

	// Bytes holds the decoded payload for WRITE_BYTES.
	Bytes []byte

	// VarInt holds the literal value for WRITE_VARINT when Var == "".
	VarInt uint64
}

// WriteKind tags the variant of a [WriteOp].
type WriteKind int

const (
	WriteByte WriteKind = iota
	WriteShort
	WriteInt
	WriteString
	WriteBytes
	WriteVarInt
	WriteVarIntLen
	WriteIntLen
)

// ReadOp is one response-side command parsed from a RESPONSE_START…RESPONSE_END
// block.
type ReadOp struct {
	Kind ReadKind

	// Name receives the parsed value for Read* ops.
	Name string

	// BigEndian selects wire byte order for Short/Int.
	BigEndian bool

	// Length is the byte count for SkipBytes/fixed ReadString.
	Length int

	// Expect holds the comparison payload for ExpectByte/ExpectMagic.
	Expect []byte
}

// ReadKind tags the variant of a [ReadOp].
type ReadKind int

const (
	ReadByte ReadKind = iota
	ReadShort
	ReadInt
	ReadString
	ReadStringNull
	ReadVarInt
	SkipBytes
	ExpectByte
	ExpectMagic
)
