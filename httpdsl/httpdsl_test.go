// SPDX-License-Identifier: GPL-3.0-or-later

package httpdsl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bassosimone/probeengine/httpdsl"
	"github.com/bassosimone/probeengine/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoAndParseResponseJSONProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"server":{"version":"1.20.1"},"players":{"online":42}}`))
	}))
	defer srv.Close()

	vars := value.NewTable()
	vars.Set("token_var", value.String("secret-token"))

	req := httpdsl.Request{
		Method:  "GET",
		Path:    "/status",
		Headers: []httpdsl.KV{{Key: "Authorization", Value: "token_var"}},
	}
	status, headers, body, err := httpdsl.Do(context.Background(), srv.Client(), srv.URL, req, vars)
	require.NoError(t, err)

	ops := []httpdsl.ResponseOp{
		{Kind: httpdsl.ExpectStatus, StatusCode: 200},
		{Kind: httpdsl.ReadBodyJSON, Name: "payload"},
	}
	parsed, err := httpdsl.ParseResponse(ops, status, headers, body)
	require.NoError(t, err)

	payload, ok := parsed.Get("payload")
	require.True(t, ok)
	resolved, ok := payload.AsObject().ResolvePath([]string{"server", "version"})
	require.True(t, ok)
	assert.Equal(t, "1.20.1", resolved.AsString())
}

func TestParseResponseExpectStatusMismatch(t *testing.T) {
	ops := []httpdsl.ResponseOp{{Kind: httpdsl.ExpectStatus, StatusCode: 200}}
	_, err := httpdsl.ParseResponse(ops, 404, http.Header{}, nil)
	require.Error(t, err)
}

func TestParseResponsePrePopulatesHeaders(t *testing.T) {
	headers := http.Header{"X-Game-Version": []string{"1.2.3"}}
	vars, err := httpdsl.ParseResponse(nil, 200, headers, nil)
	require.NoError(t, err)
	v, ok := vars.Get("HEADER_X_Game_Version")
	require.True(t, ok)
	assert.Equal(t, "1.2.3", v.AsString())
	status, _ := vars.Get("STATUS_CODE")
	n, _ := status.AsInt64()
	assert.Equal(t, int64(200), n)
}
