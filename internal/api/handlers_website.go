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

// createWebsiteRequest is the body accepted by handleCreateWebsite.
type createWebsiteRequest struct {
	URL              string  `json:"url"`
	DirectConnect    bool    `json:"direct_connect"`
	DirectConnectURL *string `json:"direct_connect_url,omitempty"`
}

func (s *Server) handleListWebsites(w http.ResponseWriter, r *http.Request) {
	websites, err := s.listWebsites()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, websites)
}

func (s *Server) listWebsites() ([]store.Website, error) {
	db, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	websites := append([]store.Website(nil), db.Websites...)
	sort.Slice(websites, func(i, j int) bool { return websites[i].ID < websites[j].ID })
	return websites, nil
}

func (s *Server) handleCreateWebsite(w http.ResponseWriter, r *http.Request) {
	var req createWebsiteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url cannot be empty")
		return
	}

	var created store.Website
	err := s.store.Write(func(db *store.Database) error {
		for _, w := range db.Websites {
			if w.URL == req.URL {
				return errors.New("url already exists")
			}
		}
		created = store.Website{
			ID:               db.NextID(),
			URL:              req.URL,
			DirectConnect:    req.DirectConnect,
			DirectConnectURL: req.DirectConnectURL,
		}
		db.Websites = append(db.Websites, created)
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

func (s *Server) handleDeleteWebsite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = s.store.Write(func(db *store.Database) error {
		before := len(db.Websites)
		kept := db.Websites[:0]
		for _, site := range db.Websites {
			if site.ID != id {
				kept = append(kept, site)
			}
		}
		db.Websites = kept
		if len(db.Websites) == before {
			return errors.New("website not found")
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
