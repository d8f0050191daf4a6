// SPDX-License-Identifier: GPL-3.0-or-later

package httpdsl

import (
	"fmt"
	"net/http"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/value"
)

// ParseResponse pre-populates STATUS_CODE and one HEADER_<name> variable
// per response header (dashes become underscores), then runs ops against
// status/headers/body (spec.md §4.4).
func ParseResponse(ops []ResponseOp, status int, headers http.Header, body []byte) (*value.Table, error) {
	vars := value.NewTable()
	vars.Set("STATUS_CODE", value.Int(int64(status)))
	for name, vals := range headers {
		if len(vals) == 0 {
			continue
		}
		key := "HEADER_" + strings.ReplaceAll(name, "-", "_")
		vars.Set(key, value.String(vals[0]))
	}

	for idx, op := range ops {
		opNum := idx + 1
		switch op.Kind {
		case ExpectStatus:
			if status != op.StatusCode {
				return nil, probeengine.NewEngineErrorAt(probeengine.ErrValidation,
					fmt.Sprintf("expected status %d, got %d", op.StatusCode, status), opNum)
			}
		case ExpectHeader:
			got := headers.Get(op.HeaderName)
			if got != op.HeaderValue {
				return nil, probeengine.NewEngineErrorAt(probeengine.ErrValidation,
					fmt.Sprintf("expected header %s: %s, got %q", op.HeaderName, op.HeaderValue, got), opNum)
			}
		case ReadBody:
			vars.Set(op.Name, value.String(string(body)))
		case ReadBodyJSON:
			parsed, err := value.ParseJSON(body)
			if err != nil {
				return nil, probeengine.NewEngineErrorAt(probeengine.ErrParse,
					fmt.Sprintf("invalid JSON body: %v", err), opNum)
			}
			vars.Set(op.Name, parsed)
		default:
			return nil, probeengine.NewEngineErrorAt(probeengine.ErrParse, fmt.Sprintf("unknown response op kind %d", op.Kind), opNum)
		}
	}

	return vars, nil
}
