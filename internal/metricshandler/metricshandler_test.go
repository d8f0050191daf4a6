// SPDX-License-Identifier: GPL-3.0-or-later

package metricshandler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bassosimone/probeengine/internal/api"
	"github.com/bassosimone/probeengine/internal/metricshandler"
	"github.com/bassosimone/probeengine/internal/store"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesPrometheusExposition(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	require.NoError(t, s.Write(func(db *store.Database) error {
		db.GameServers = append(db.GameServers, store.GameServer{
			ID:         db.NextID(),
			Name:       "Dust II",
			Address:    "127.0.0.1",
			Port:       1,
			Protocol:   0, // ProtocolUDP
			TimeoutMS:  50,
			Pseudocode: "PACKET_START\nWRITE_BYTE 0x01\nPACKET_END\nRESPONSE_START\nRESPONSE_END\n",
		})
		return nil
	}))

	server := api.NewServer(s)
	handler := metricshandler.New(server)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "probeengine_gameserver_up")
	require.Contains(t, string(body), `name="Dust II"`)
}
