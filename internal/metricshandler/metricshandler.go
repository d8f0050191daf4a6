// SPDX-License-Identifier: GPL-3.0-or-later

// Package metricshandler exposes the engine's current connectivity and
// probe state as Prometheus metrics on /metrics.
package metricshandler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bassosimone/probeengine/internal/api"
	"github.com/bassosimone/probeengine/internal/store"
	"github.com/bassosimone/probeengine/probe"
)

// Handler serves a single on-demand /metrics scrape: every call re-checks
// internet connectivity, every configured website, and re-runs every
// game server's probe script, then renders the results as a fresh
// Prometheus registry. There is no background polling: a scrape is itself
// the check.
type Handler struct {
	server *api.Server
}

// New returns a [*Handler] backed by server.
func New(server *api.Server) *Handler {
	return &Handler{server: server}
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reg := prometheus.NewRegistry()

	db, err := h.server.Store().Read()
	if err != nil {
		http.Error(w, "metricshandler: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.registerConnectivity(ctx, reg, db)
	h.registerGameServers(ctx, reg, db)

	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (h *Handler) registerConnectivity(ctx context.Context, reg *prometheus.Registry, db *store.Database) {
	internetUp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probeengine_internet_up",
		Help: "Internet connectivity status, derived from the first reachable configured ISP (1 = up, 0 = down).",
	})
	reg.MustRegister(internetUp)
	internetUp.Set(boolToFloat(h.anyISPReachable(ctx, db)))

	websiteExternalUp := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probeengine_website_external_up",
		Help: "External (normally resolved) website connectivity status (1 = up, 0 = down).",
	}, []string{"site"})
	websiteDirectUp := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probeengine_website_direct_up",
		Help: "Direct (resolver-bypassing) website connectivity status (1 = up, 0 = down).",
	}, []string{"site"})
	reg.MustRegister(websiteExternalUp, websiteDirectUp)

	var wg sync.WaitGroup
	for _, website := range db.Websites {
		website := website
		label := siteLabel(website.URL)
		wg.Add(1)
		go func() {
			defer wg.Done()
			websiteExternalUp.WithLabelValues(label).Set(boolToFloat(h.server.CheckWebsiteExternal(ctx, website.URL)))
		}()
		if website.DirectConnect {
			wg.Add(1)
			go func() {
				defer wg.Done()
				websiteDirectUp.WithLabelValues(label).Set(boolToFloat(h.server.CheckWebsiteDirect(ctx, website.URL, website.DirectConnectURL)))
			}()
		}
	}
	wg.Wait()
}

func (h *Handler) anyISPReachable(ctx context.Context, db *store.Database) bool {
	if len(db.ISPs) == 0 {
		return false
	}

	type result struct{ ok bool }
	results := make(chan result, len(db.ISPs))
	for _, isp := range db.ISPs {
		isp := isp
		go func() {
			results <- result{ok: h.server.CheckInternetConnectivity(ctx, isp.IP)}
		}()
	}
	for range db.ISPs {
		if r := <-results; r.ok {
			return true
		}
	}
	return false
}

func (h *Handler) registerGameServers(ctx context.Context, reg *prometheus.Registry, db *store.Database) {
	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probeengine_gameserver_up",
		Help: "Game server connectivity status (1 = up, 0 = down).",
	}, []string{"name", "address", "port"})
	responseTime := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probeengine_gameserver_response_time_ms",
		Help: "Game server probe response time in milliseconds.",
	}, []string{"name", "address", "port"})
	probesTotal := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probeengine_gameserver_probes_total",
		Help: "Cumulative number of ad-hoc probes run against a game server via the API, since process start.",
	}, []string{"name", "address", "port"})
	probesSuccessTotal := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probeengine_gameserver_probes_success_total",
		Help: "Cumulative number of successful ad-hoc probes run against a game server via the API, since process start.",
	}, []string{"name", "address", "port"})
	reg.MustRegister(up, responseTime, probesTotal, probesSuccessTotal)

	engine := probe.NewEngine(probe.NewConfig())

	type checked struct {
		server store.GameServer
		result *probe.Result
	}
	results := make([]checked, len(db.GameServers))
	var wg sync.WaitGroup
	for i, server := range db.GameServers {
		i, server := i, server
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = checked{server: server, result: engine.Run(ctx, server.Endpoint())}
		}()
	}
	wg.Wait()

	labelCounters := newOutputLabelRegistry(reg)
	for _, c := range results {
		port := strconv.Itoa(int(c.server.Port))
		labels := prometheus.Labels{"name": c.server.Name, "address": c.server.Address, "port": port}

		up.With(labels).Set(boolToFloat(c.result.Success))
		responseTime.With(labels).Set(float64(c.result.ResponseTimeMS))

		snap := h.server.Stats().Get(c.server.ID).Snapshot()
		probesTotal.With(labels).Set(float64(snap.Total))
		probesSuccessTotal.With(labels).Set(float64(snap.Success))

		for _, line := range c.result.OutputLabelsSuccess {
			labelCounters.observe(line, labels)
		}
		for _, line := range c.result.OutputLabelsError {
			labelCounters.observe(line, labels)
		}
	}
}

func siteLabel(url string) string {
	site := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	if i := strings.IndexByte(site, '/'); i >= 0 {
		site = site[:i]
	}
	if i := strings.IndexByte(site, ':'); i >= 0 {
		site = site[:i]
	}
	return site
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
