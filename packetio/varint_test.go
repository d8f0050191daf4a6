// SPDX-License-Identifier: GPL-3.0-or-later

package packetio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 34}
	for _, n := range cases {
		encoded := encodeVarint(n)
		cursor := 0
		decoded, err := decodeVarint(encoded, &cursor)
		require.NoError(t, err)
		assert.Equal(t, n, decoded)
		assert.Equal(t, len(encoded), cursor)
	}
}

func TestVarIntTooLarge(t *testing.T) {
	// Five continuation bytes exceed the 35-bit guard.
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	cursor := 0
	_, err := decodeVarint(data, &cursor)
	require.Error(t, err)
}
