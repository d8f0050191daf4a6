// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/packetio"
	"github.com/bassosimone/probeengine/script"
	"github.com/bassosimone/probeengine/value"
)

// netError wraps a socket failure as a [probeengine.ErrNetwork], spelling
// out timeouts in the message the way callers expect ("… timed out …").
func netError(op string, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return probeengine.NewEngineError(probeengine.ErrNetwork, fmt.Sprintf("%s timed out: %v", op, err))
	}
	return probeengine.NewEngineError(probeengine.ErrNetwork, fmt.Sprintf("%s failed: %v", op, err))
}

// binarySession drives the UDP/TCP state machine of spec.md §4.5 across a
// script's binary pairs, keeping a TCP connection open across pairs
// (dropped and redialed on close_before) and binding a UDP socket once.
type binarySession struct {
	cfg      *Config
	endpoint *probeengine.Endpoint
	connect  *probeengine.ConnectFunc
	observe  *probeengine.ObserveConnFunc
	cancel   *probeengine.CancelWatchFunc
	network  string // "tcp" or "udp"

	conn net.Conn // nil until first dial; UDP dials once and never redials
}

func newBinarySession(cfg *Config, endpoint *probeengine.Endpoint) *binarySession {
	network := "tcp"
	if endpoint.Protocol == probeengine.ProtocolUDP {
		network = "udp"
	}
	return &binarySession{
		cfg:      cfg,
		endpoint: endpoint,
		connect:  probeengine.NewConnectFunc(cfg.Engine, network, cfg.Logger),
		observe:  probeengine.NewObserveConnFunc(cfg.Engine, cfg.Logger),
		cancel:   probeengine.NewCancelWatchFunc(),
		network:  network,
	}
}

func (s *binarySession) close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// ensureConn dials (or redials after close_before) the connection needed
// for this pair. The dial itself is one network step, bounded by the
// endpoint timeout like every other one.
func (s *binarySession) ensureConn(ctx context.Context, closeBefore bool) error {
	if closeBefore {
		s.close()
	}
	if s.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, s.endpoint.Timeout())
	defer cancel()
	raw, err := s.connect.Call(dialCtx, s.endpoint.HostPort())
	if err != nil {
		return netError("connect", err)
	}
	observed, err := s.observe.Call(dialCtx, raw)
	if err != nil {
		raw.Close()
		return netError("connect", err)
	}
	// The cancel watch binds the connection to the probe-level context,
	// not the dial-scoped one, so caller cancellation aborts in-flight
	// reads for the whole session.
	watched, err := s.cancel.Call(ctx, observed)
	if err != nil {
		observed.Close()
		return netError("connect", err)
	}
	s.conn = watched
	return nil
}

// runPair executes one binary [script.Pair] (spec.md §4.2/§4.3/§4.5) and
// returns the variables it produced plus the raw bytes received, if any.
func (s *binarySession) runPair(ctx context.Context, pair script.Pair, vars *value.Table) (*value.Table, []byte, error) {
	if err := s.ensureConn(ctx, pair.CloseBefore); err != nil {
		return nil, nil, err
	}

	// Each pair's send/receive cycle is bounded by the endpoint timeout
	// (spec.md §5: every socket op is a suspension point bounded by
	// timeout_ms).
	s.conn.SetDeadline(s.cfg.Engine.TimeNow().Add(s.endpoint.Timeout()))

	packets := pair.Packets
	if s.network == "udp" && len(packets) > 1 {
		// spec.md §4.5: "only the first PACKET_START of a pair is
		// transmitted — multiple binary packets per pair on UDP are
		// undefined". We pick the first and drop the rest.
		packets = packets[:1]
	}

	for _, ops := range packets {
		buf, err := packetio.Build(ops, vars)
		if err != nil {
			return nil, nil, err
		}
		if _, err := s.conn.Write(buf); err != nil {
			return nil, nil, netError("send", err)
		}
		s.cfg.Logger.Debug("packetio: sent bytes", "endpoint", s.endpoint.HostPort(), "dump", packetio.HexDump(buf))
	}

	if len(pair.ResponseOps) == 0 {
		if s.network == "udp" {
			// spec.md §9 Open Question (b): "UDP pairs must have a
			// non-empty response".
			return nil, nil, probeengine.NewEngineError(probeengine.ErrProtocol, "UDP pairs must have a non-empty RESPONSE block")
		}
		return value.NewTable(), nil, nil
	}

	buf := make([]byte, maxReceiveBytes)
	n, err := s.conn.Read(buf)
	if err != nil && n == 0 {
		return nil, nil, netError("receive", err)
	}
	received := buf[:n]
	s.cfg.Logger.Debug("packetio: received bytes", "endpoint", s.endpoint.HostPort(), "dump", packetio.HexDump(received))

	parsed, _, err := packetio.ParseResponse(pair.ResponseOps, received)
	if err != nil {
		return nil, received, err
	}
	return parsed, received, nil
}
