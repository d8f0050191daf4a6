// SPDX-License-Identifier: GPL-3.0-or-later

// Package store persists ISPs, websites, and game server endpoints to a
// single JSON file, the same flat-file shape used before this engine grew
// a database migration.
package store

import "github.com/bassosimone/probeengine"

// ISP is an internet service provider whose IP is probed to approximate
// the operator's own internet connectivity.
type ISP struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// Website is an HTTP(S) endpoint monitored for reachability both through
// the normal resolver path and, optionally, via a direct connection that
// bypasses DNS.
type Website struct {
	ID               int64   `json:"id"`
	URL              string  `json:"url"`
	DirectConnect    bool    `json:"direct_connect"`
	DirectConnectURL *string `json:"direct_connect_url,omitempty"`
}

// GameServer is a persisted probe target: everything [probeengine.Endpoint]
// needs, plus the display Name.
type GameServer struct {
	ID         int64                `json:"id"`
	Name       string               `json:"name"`
	Address    string               `json:"address"`
	Port       uint16               `json:"port"`
	Protocol   probeengine.Protocol `json:"protocol"`
	TimeoutMS  int64                `json:"timeout_ms"`
	Pseudocode string               `json:"pseudo_code"`
}

// Endpoint converts g into a [*probeengine.Endpoint] ready to hand to the
// probe engine.
func (g *GameServer) Endpoint() *probeengine.Endpoint {
	return &probeengine.Endpoint{
		ID:        g.ID,
		Name:      g.Name,
		Address:   g.Address,
		Port:      g.Port,
		Protocol:  g.Protocol,
		TimeoutMS: g.TimeoutMS,
		Script:    g.Pseudocode,
	}
}

// Database is the whole persisted document (grounded on the original
// application's flat-file layout: isps, websites, and game_servers arrays
// plus a monotonic ID counter not itself serialized).
type Database struct {
	ISPs        []ISP        `json:"isps"`
	Websites    []Website    `json:"websites"`
	GameServers []GameServer `json:"game_servers"`
	nextID      int64
}

// NextID returns the next unused ID and advances the counter.
func (d *Database) NextID() int64 {
	d.nextID++
	return d.nextID
}

// updateNextID recomputes nextID as one past the highest ID currently in
// use across all three collections, so IDs stay monotonic across restarts
// even though the counter itself is not persisted.
func (d *Database) updateNextID() {
	var max int64
	for _, isp := range d.ISPs {
		if isp.ID > max {
			max = isp.ID
		}
	}
	for _, w := range d.Websites {
		if w.ID > max {
			max = w.ID
		}
	}
	for _, g := range d.GameServers {
		if g.ID > max {
			max = g.ID
		}
	}
	d.nextID = max
}
