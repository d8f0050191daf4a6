// SPDX-License-Identifier: GPL-3.0-or-later

package packetio

import (
	"fmt"
	"strings"
)

// HexDump renders data as a classic 16-bytes-per-row hex dump (offset,
// hex bytes with a gap after the eighth column, then the ASCII gloss with
// non-printable bytes shown as '.'), for attaching to Debug-level logs.
func HexDump(data []byte) string {
	var b strings.Builder
	for offset := 0; offset < len(data); offset += 16 {
		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]

		fmt.Fprintf(&b, "%08X: ", offset)
		for j := 0; j < 16; j++ {
			if j == 8 {
				b.WriteByte(' ')
			}
			if j < len(chunk) {
				fmt.Fprintf(&b, "%02X ", chunk[j])
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteByte(' ')
		for _, c := range chunk {
			if c >= 32 && c < 127 {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
