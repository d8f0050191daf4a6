// SPDX-License-Identifier: GPL-3.0-or-later

package httpdsl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/value"
)

// userAgent is the fixed product string sent when the script does not
// set its own User-Agent header.
const userAgent = "probeengine/1.0"

// substitute resolves fragment against vars: a fragment that exactly
// matches a known variable name becomes that variable's string form; any
// other fragment is left untouched (spec.md §4.4: "exact-name only").
func substitute(fragment string, vars *value.Table) string {
	if v, ok := vars.Get(fragment); ok {
		return v.AsString()
	}
	return fragment
}

// Do builds an *http.Request from req against baseURL, resolves variable
// fragments, executes it on client, and returns the raw response parts for
// [ParseResponse] to consume.
func Do(ctx context.Context, client *http.Client, baseURL string, req Request, vars *value.Table) (status int, headers http.Header, body []byte, err error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(substitute(req.Path, vars), "/"))
	if err != nil {
		return 0, nil, nil, probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("invalid HTTP path: %v", err))
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for _, kv := range req.Params {
			q.Add(substitute(kv.Key, vars), substitute(kv.Value, vars))
		}
		u.RawQuery = q.Encode()
	}

	bodyBytes, contentType := buildBody(req, vars)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, nil, probeengine.NewEngineError(probeengine.ErrBuild, fmt.Sprintf("invalid HTTP request: %v", err))
	}

	hasContentType, hasUserAgent := false, false
	for _, kv := range req.Headers {
		name := substitute(kv.Key, vars)
		v := substitute(kv.Value, vars)
		switch strings.ToLower(name) {
		case "content-type":
			hasContentType = true
		case "user-agent":
			hasUserAgent = true
		case "authorization":
			v = bearerize(v)
		}
		httpReq.Header.Set(name, v)
	}
	if !hasContentType && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if !hasUserAgent {
		httpReq.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		var nerr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			return 0, nil, nil, probeengine.NewEngineError(probeengine.ErrNetwork, fmt.Sprintf("HTTP request timed out: %v", err))
		}
		return 0, nil, nil, probeengine.NewEngineError(probeengine.ErrNetwork, fmt.Sprintf("HTTP request failed: %v", err))
	}
	defer resp.Body.Close()

	const maxBody = 16 * 1024
	buf := make([]byte, maxBody)
	n, _ := readFull(resp.Body, buf)
	return resp.StatusCode, resp.Header, buf[:n], nil
}

// bearerize ensures an Authorization value provided without a scheme is
// sent as a bearer token, the one request field the DSL treats specially
// (spec.md §4.4: honored via a dedicated bearer-auth path, not duplicated
// if the script already supplied the header).
func bearerize(v string) string {
	if strings.HasPrefix(strings.ToLower(v), "bearer ") {
		return v
	}
	return "Bearer " + v
}

func buildBody(req Request, vars *value.Table) (body []byte, contentType string) {
	if req.BodyType == NoBody || len(req.BodyFragments) == 0 {
		return nil, ""
	}
	resolved := make([]string, len(req.BodyFragments))
	for i, f := range req.BodyFragments {
		resolved[i] = substitute(f, vars)
	}
	switch req.BodyType {
	case RawBody:
		raw := strings.Join(resolved, "\n")
		if canonical, ok := canonicalJSON(raw); ok {
			return []byte(canonical), "application/json"
		}
		return []byte(raw), "text/plain"
	case FormBody:
		return []byte(strings.Join(resolved, "&")), "application/x-www-form-urlencoded"
	default:
		return nil, ""
	}
}

// canonicalJSON re-emits raw in compact canonical form when it parses as
// JSON (spec.md §4.4: "if the result parses as JSON it is re-emitted in
// canonical form").
func canonicalJSON(raw string) (string, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return "", false
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
