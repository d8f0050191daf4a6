// SPDX-License-Identifier: GPL-3.0-or-later

// Package webui serves the embedded operator console: an index page and
// the pseudo-code editor's language definition script.
package webui

import (
	"embed"
	"net/http"
	"strings"
)

//go:embed assets/index.html assets/code-server.js
var assets embed.FS

var indexTemplate string

func init() {
	raw, err := assets.ReadFile("assets/index.html")
	if err != nil {
		panic("webui: embedded index.html missing: " + err.Error())
	}
	indexTemplate = string(raw)
}

// Handler serves the operator console.
type Handler struct {
	version string
}

// New returns a [*Handler] that stamps version into the index page.
func New(version string) *Handler {
	return &Handler{version: version}
}

// RegisterRoutes wires the console's routes onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /api/code-server.js", h.handleCodeServerJS)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	html := strings.ReplaceAll(indexTemplate, "{{VERSION}}", h.version)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handler) handleCodeServerJS(w http.ResponseWriter, r *http.Request) {
	js, err := assets.ReadFile("assets/code-server.js")
	if err != nil {
		http.Error(w, "webui: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(js)
}
