// SPDX-License-Identifier: GPL-3.0-or-later

package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run drives an HTTP JSON probe end to end against a real loopback server
// (spec.md §8 scenario 3: game server status API).
func TestEngineRunHTTPJSONProbeScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"server":{"version":"1.2.3"},"players":{"online":7}}`))
	}))
	defer server.Close()

	host, port := splitHostPort(t, server.Listener.Addr().String())

	cfg := probe.NewConfig()
	endpoint := &probeengine.Endpoint{
		Address:   host,
		Port:      port,
		Protocol:  probeengine.ProtocolHTTP,
		TimeoutMS: 2000,
		Script: `
HTTP_START REQUEST GET /status
HEADER Authorization secret-token
HTTP_END
RESPONSE_START
EXPECT_STATUS 200
READ_BODY_JSON payload
RESPONSE_END
OUTPUT_SUCCESS
JSON_OUTPUT payload
RETURN "version=payload.server.version, players=payload.players.online"
OUTPUT_END
`,
	}

	result := probe.NewEngine(cfg).Run(context.Background(), endpoint)

	require.True(t, result.Success)
	require.Nil(t, result.Error)
	assert.Equal(t, []string{"version=1.2.3, players=7"}, result.OutputLabelsSuccess)
}

// Run reports a mismatched EXPECT_STATUS as an [probeengine.ErrValidation]
// and leaves Success false.
func TestEngineRunHTTPExpectStatusMismatchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	host, port := splitHostPort(t, server.Listener.Addr().String())

	cfg := probe.NewConfig()
	endpoint := &probeengine.Endpoint{
		Address:   host,
		Port:      port,
		Protocol:  probeengine.ProtocolHTTP,
		TimeoutMS: 2000,
		Script: `
HTTP_START REQUEST GET /status
HTTP_END
RESPONSE_START
EXPECT_STATUS 200
RESPONSE_END
OUTPUT_SUCCESS
RETURN "ok"
OUTPUT_END
`,
	}

	result := probe.NewEngine(cfg).Run(context.Background(), endpoint)

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, probeengine.ErrValidation, result.Error.Type)
}
