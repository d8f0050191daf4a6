// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import "sync"

// EndpointCounters tracks the cumulative probe history for one endpoint.
type EndpointCounters struct {
	Total   *Counter
	Success *Counter
	Failure *Counter
}

func newEndpointCounters() *EndpointCounters {
	return &EndpointCounters{
		Total:   NewCounter(),
		Success: NewCounter(),
		Failure: NewCounter(),
	}
}

// Record adds one observation to Total and to Success or Failure.
func (e *EndpointCounters) Record(success bool) {
	e.Total.Add(1)
	if success {
		e.Success.Add(1)
		return
	}
	e.Failure.Add(1)
}

// Snapshot is a point-in-time read of an [*EndpointCounters].
type Snapshot struct {
	Total   int64
	Success int64
	Failure int64
}

// Snapshot reads the current values of e.
func (e *EndpointCounters) Snapshot() Snapshot {
	return Snapshot{
		Total:   e.Total.Value(),
		Success: e.Success.Value(),
		Failure: e.Failure.Value(),
	}
}

// Registry maps endpoint IDs to their cumulative counters, created on
// first use. A zero [Registry] is ready to use.
type Registry struct {
	mu   sync.RWMutex
	byID map[int64]*EndpointCounters
}

// NewRegistry returns an empty [*Registry].
func NewRegistry() *Registry {
	return &Registry{byID: make(map[int64]*EndpointCounters)}
}

// Get returns the counters for id, creating them on first access.
func (r *Registry) Get(id int64) *EndpointCounters {
	r.mu.RLock()
	c, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		return c
	}
	if r.byID == nil {
		r.byID = make(map[int64]*EndpointCounters)
	}
	c = newEndpointCounters()
	r.byID[id] = c
	return c
}

// Snapshot returns a copy of every tracked endpoint's current counts.
func (r *Registry) Snapshot() map[int64]Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]Snapshot, len(r.byID))
	for id, c := range r.byID {
		out[id] = c.Snapshot()
	}
	return out
}
