// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/bassosimone/probeengine/internal/store"
)

// createISPRequest is the body accepted by handleCreateISP.
type createISPRequest struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

func (s *Server) handleListISPs(w http.ResponseWriter, r *http.Request) {
	isps, err := s.listISPs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, isps)
}

func (s *Server) listISPs() ([]store.ISP, error) {
	db, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	isps := append([]store.ISP(nil), db.ISPs...)
	sort.Slice(isps, func(i, j int) bool { return isps[i].ID < isps[j].ID })
	return isps, nil
}

func (s *Server) handleCreateISP(w http.ResponseWriter, r *http.Request) {
	var req createISPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if strings.TrimSpace(req.IP) == "" {
		writeError(w, http.StatusBadRequest, "ip cannot be empty")
		return
	}

	var created store.ISP
	err := s.store.Write(func(db *store.Database) error {
		for _, isp := range db.ISPs {
			if isp.IP == req.IP {
				return errors.New("ip address already exists")
			}
		}
		created = store.ISP{ID: db.NextID(), Name: req.Name, IP: req.IP}
		db.ISPs = append(db.ISPs, created)
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

func (s *Server) handleDeleteISP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = s.store.Write(func(db *store.Database) error {
		before := len(db.ISPs)
		kept := db.ISPs[:0]
		for _, isp := range db.ISPs {
			if isp.ID != id {
				kept = append(kept, isp)
			}
		}
		db.ISPs = kept
		if len(db.ISPs) == before {
			return errors.New("isp not found")
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
