// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/internal/store"
)

// createGameServerRequest is the body accepted by handleCreateGameServer
// and handleTestGameServerConfig.
type createGameServerRequest struct {
	Name       string               `json:"name"`
	Address    string               `json:"address"`
	Port       uint16               `json:"port"`
	Protocol   probeengine.Protocol `json:"protocol"`
	TimeoutMS  int64                `json:"timeout_ms"`
	Pseudocode string               `json:"pseudo_code"`
}

func (s *Server) handleListGameServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.listGameServers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, servers)
}

func (s *Server) listGameServers() ([]store.GameServer, error) {
	db, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	servers := append([]store.GameServer(nil), db.GameServers...)
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })
	return servers, nil
}

func (s *Server) handleCreateGameServer(w http.ResponseWriter, r *http.Request) {
	var req createGameServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateGameServerRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var created store.GameServer
	err := s.store.Write(func(db *store.Database) error {
		for _, existing := range db.GameServers {
			if existing.Address == req.Address && existing.Port == req.Port && existing.Protocol == req.Protocol {
				return errors.New("game server with the same address/protocol already exists")
			}
		}
		created = store.GameServer{
			ID:         db.NextID(),
			Name:       req.Name,
			Address:    req.Address,
			Port:       req.Port,
			Protocol:   req.Protocol,
			TimeoutMS:  req.TimeoutMS,
			Pseudocode: req.Pseudocode,
		}
		db.GameServers = append(db.GameServers, created)
		return nil
	})
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "already exists") {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func validateGameServerRequest(req createGameServerRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if strings.TrimSpace(req.Address) == "" {
		return errors.New("address cannot be empty")
	}
	if strings.TrimSpace(req.Pseudocode) == "" {
		return errors.New("pseudo code cannot be empty")
	}
	return nil
}

func (s *Server) handleDeleteGameServer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = s.store.Write(func(db *store.Database) error {
		before := len(db.GameServers)
		kept := db.GameServers[:0]
		for _, server := range db.GameServers {
			if server.ID != id {
				kept = append(kept, server)
			}
		}
		db.GameServers = kept
		if len(db.GameServers) == before {
			return errors.New("game server not found")
		}
		return nil
	})
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleTestGameServer runs a saved game server's probe script and records
// the outcome in the server's stats registry.
func (s *Server) handleTestGameServer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	db, err := s.store.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var found *store.GameServer
	for i := range db.GameServers {
		if db.GameServers[i].ID == id {
			found = &db.GameServers[i]
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "game server not found")
		return
	}

	result := s.engine.Run(r.Context(), found.Endpoint())
	s.stats.Get(id).Record(result.Success)
	writeJSON(w, http.StatusOK, result)
}

// handleTestGameServerConfig runs an ad-hoc, unsaved game server
// configuration, mirroring handleTestGameServer without touching the
// store or the stats registry.
func (s *Server) handleTestGameServerConfig(w http.ResponseWriter, r *http.Request) {
	var req createGameServerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, "address cannot be empty")
		return
	}
	if strings.TrimSpace(req.Pseudocode) == "" {
		writeError(w, http.StatusBadRequest, "pseudo code is required")
		return
	}

	name := req.Name
	if strings.TrimSpace(name) == "" {
		name = "Preview Server"
	}

	server := &store.GameServer{
		Name:       name,
		Address:    req.Address,
		Port:       req.Port,
		Protocol:   req.Protocol,
		TimeoutMS:  req.TimeoutMS,
		Pseudocode: req.Pseudocode,
	}

	result := s.engine.Run(r.Context(), server.Endpoint())
	writeJSON(w, http.StatusOK, result)
}
