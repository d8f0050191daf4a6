// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"os"
	"path/filepath"
	"testing"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/internal/store"
	"github.com/stretchr/testify/require"
)

func TestNewSeedsEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "db.json")

	s, err := store.New(path)
	require.NoError(t, err)

	db, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, db.ISPs)
	require.Empty(t, db.Websites)
	require.Empty(t, db.GameServers)
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	s, err := store.New(path)
	require.NoError(t, err)

	err = s.Write(func(db *store.Database) error {
		db.GameServers = append(db.GameServers, store.GameServer{
			ID:        db.NextID(),
			Name:      "Dust II",
			Address:   "10.0.0.1",
			Port:      27015,
			Protocol:  probeengine.ProtocolUDP,
			TimeoutMS: 2000,
			Pseudocode: "PACKET_START\nPACKET_END\n",
		})
		return nil
	})
	require.NoError(t, err)

	db, err := s.Load()
	require.NoError(t, err)
	require.Len(t, db.GameServers, 1)
	require.Equal(t, int64(1), db.GameServers[0].ID)
	require.Equal(t, probeengine.ProtocolUDP, db.GameServers[0].Protocol)
}

func TestNextIDIsMonotonicAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	s, err := store.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(func(db *store.Database) error {
		db.ISPs = append(db.ISPs, store.ISP{ID: db.NextID(), Name: "ispA", IP: "1.1.1.1"})
		db.ISPs = append(db.ISPs, store.ISP{ID: db.NextID(), Name: "ispB", IP: "2.2.2.2"})
		return nil
	}))

	reopened, err := store.New(path)
	require.NoError(t, err)
	db, err := reopened.Load()
	require.NoError(t, err)
	nextID := db.NextID()
	require.Equal(t, int64(3), nextID)
}

func TestLoadRecoversPartiallyFromCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	corrupt := `{"isps":[{"id":1,"name":"ispA","ip":"1.1.1.1"}],"websites":"not-an-array","game_servers":[]}`
	require.NoError(t, os.WriteFile(path, []byte(corrupt), 0o644))

	s, err := store.New(path)
	require.NoError(t, err)

	db, err := s.Load()
	require.NoError(t, err)
	require.Len(t, db.ISPs, 1)
	require.Empty(t, db.Websites)
}
