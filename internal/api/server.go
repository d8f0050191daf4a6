// SPDX-License-Identifier: GPL-3.0-or-later

// Package api implements the HTTP CRUD surface for ISPs, websites, and
// game server endpoints, plus on-demand connectivity checks, backed by a
// [*store.JSONStore].
package api

import (
	"net/http"
	"time"

	"github.com/bassosimone/probeengine/internal/store"
	"github.com/bassosimone/probeengine/probe"
	"github.com/bassosimone/probeengine/stats"
)

// Server handles the HTTP requests for ISPs, websites, and game servers.
type Server struct {
	store  *store.JSONStore
	engine *probe.Engine
	stats  *stats.Registry

	// httpClient is used for the internet/website connectivity checks; it
	// carries a short, fixed timeout independent of any single endpoint's
	// configured TimeoutMS.
	httpClient *http.Client
}

// NewServer returns a [*Server] wired to s and backed by a fresh
// [*probe.Engine] and [*stats.Registry].
func NewServer(s *store.JSONStore) *Server {
	return &Server{
		store:  s,
		engine: probe.NewEngine(probe.NewConfig()),
		stats:  stats.NewRegistry(),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// RegisterRoutes wires every handler onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/isps", s.handleListISPs)
	mux.HandleFunc("POST /api/isps", s.handleCreateISP)
	mux.HandleFunc("DELETE /api/isps/{id}", s.handleDeleteISP)

	mux.HandleFunc("GET /api/websites", s.handleListWebsites)
	mux.HandleFunc("POST /api/websites", s.handleCreateWebsite)
	mux.HandleFunc("DELETE /api/websites/{id}", s.handleDeleteWebsite)

	mux.HandleFunc("GET /api/gameservers", s.handleListGameServers)
	mux.HandleFunc("POST /api/gameservers", s.handleCreateGameServer)
	mux.HandleFunc("POST /api/gameservers/test", s.handleTestGameServerConfig)
	mux.HandleFunc("DELETE /api/gameservers/{id}", s.handleDeleteGameServer)
	mux.HandleFunc("POST /api/gameservers/{id}/test", s.handleTestGameServer)
}

// Stats exposes the server's counters registry for the metrics handler.
func (s *Server) Stats() *stats.Registry {
	return s.stats
}

// Store exposes the server's backing store for the metrics handler.
func (s *Server) Store() *store.JSONStore {
	return s.store
}
