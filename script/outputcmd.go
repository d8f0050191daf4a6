// SPDX-License-Identifier: GPL-3.0-or-later

package script

import (
	"strings"

	"github.com/bassosimone/probeengine/output"
)

// handleOutputLine parses one JSON_OUTPUT/RETURN line into block, grounded
// on packet_parser.rs's parse_output_command.
func handleOutputLine(line string, lineNum int, block *output.OutputBlock) error {
	if block == nil {
		return errorfAt(lineNum, "output command outside OUTPUT_SUCCESS/OUTPUT_ERROR block: %q", line)
	}
	if rest, ok := stripKeyword(line, "JSON_OUTPUT"); ok {
		name := strings.TrimSpace(rest)
		if name == "" {
			return errorfAt(lineNum, "JSON_OUTPUT requires a variable name")
		}
		block.Commands = append(block.Commands, output.Command{JSONOutputVar: name})
		return nil
	}
	if rest, ok := stripKeyword(line, "RETURN"); ok {
		arg := strings.TrimSpace(rest)
		if arg == "" {
			return errorfAt(lineNum, "RETURN requires a value")
		}
		block.Commands = append(block.Commands, output.Command{IsReturn: true, ReturnTemplate: arg})
		return nil
	}
	return errorfAt(lineNum, "unknown output command: %s", line)
}

func stripKeyword(line, keyword string) (string, bool) {
	if line == keyword {
		return "", true
	}
	if strings.HasPrefix(line, keyword+" ") {
		return line[len(keyword):], true
	}
	return "", false
}
