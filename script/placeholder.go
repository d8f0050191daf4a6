// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"fmt"
	"strconv"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
)

// ExpandPlaceholders substitutes the endpoint's pseudo-variables into the
// raw script text before it is tokenized, in the precedence order spec.md
// §6 requires: IP_LEN_HEX, HOST_LEN, IP_LEN, PORT, IP, HOST (longest/most-
// specific names first, since these are textual substitutions and a
// shorter name would otherwise eat part of a longer one).
//
// Substitution is not quote-aware: a quoted literal that happens to
// contain one of these names as a standalone token (for example
// WRITE_STRING "PORT=8080") is substituted too. That sharp edge is
// inherited on purpose from the original implementation. Occurrences
// embedded inside a longer identifier are left alone, so command
// keywords such as SKIP_BYTES survive expansion intact.
func ExpandPlaceholders(text string, endpoint *probeengine.Endpoint) string {
	addrLen := strconv.Itoa(len(endpoint.Address))
	addrLenHex := strings.ToUpper(fmt.Sprintf("%x", len(endpoint.Address)))
	port := strconv.Itoa(int(endpoint.Port))

	text = replaceToken(text, "IP_LEN_HEX", addrLenHex)
	text = replaceToken(text, "HOST_LEN", addrLen)
	text = replaceToken(text, "IP_LEN", addrLen)
	text = replaceToken(text, "PORT", port)
	text = replaceToken(text, "IP", endpoint.Address)
	text = replaceToken(text, "HOST", endpoint.Address)
	return text
}

// replaceToken replaces every occurrence of name that is not embedded in a
// longer identifier, i.e. not flanked by [A-Za-z0-9_] on either side.
func replaceToken(text, name, repl string) string {
	var sb strings.Builder
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], name)
		if j < 0 {
			sb.WriteString(text[i:])
			break
		}
		start := i + j
		end := start + len(name)
		sb.WriteString(text[i:start])
		if (start > 0 && isIdentChar(text[start-1])) || (end < len(text) && isIdentChar(text[end])) {
			sb.WriteString(name)
		} else {
			sb.WriteString(repl)
		}
		i = end
	}
	return sb.String()
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
