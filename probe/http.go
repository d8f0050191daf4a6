// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"

	probeengine "github.com/bassosimone/probeengine"
	"github.com/bassosimone/probeengine/httpdsl"
	"github.com/bassosimone/probeengine/script"
	"github.com/bassosimone/probeengine/value"
)

// httpSession builds one short-lived *http.Client per probe (spec.md §4.5:
// "no persistent connection across pairs; a fresh client is built per
// probe"), composing the root package's connect/TLS/HTTPConn primitives.
type httpSession struct {
	cfg      *Config
	endpoint *probeengine.Endpoint
	client   *http.Client
}

func newHTTPSession(cfg *Config, endpoint *probeengine.Endpoint) *httpSession {
	connectFn := probeengine.NewConnectFunc(cfg.Engine, "tcp", cfg.Logger)
	observeFn := probeengine.NewObserveConnFunc(cfg.Engine, cfg.Logger)
	cancelFn := probeengine.NewCancelWatchFunc()

	var pipeline probeengine.Func[string, *probeengine.HTTPConn]
	if endpoint.Protocol == probeengine.ProtocolHTTPS {
		// Certificate validation is off on purpose: the usual target is a
		// self-signed game-panel API.
		tlsConfig := &tls.Config{
			ServerName:         endpoint.Address,
			NextProtos:         []string{"h2", "http/1.1"},
			InsecureSkipVerify: true,
		}
		pipeline = probeengine.Compose5(
			connectFn,
			observeFn,
			cancelFn,
			probeengine.NewTLSHandshakeFunc(cfg.Engine, tlsConfig, cfg.Logger),
			probeengine.NewHTTPConnFuncTLS(cfg.Engine, cfg.Logger),
		)
	} else {
		pipeline = probeengine.Compose4(
			connectFn,
			observeFn,
			cancelFn,
			probeengine.NewHTTPConnFuncPlain(cfg.Engine, cfg.Logger),
		)
	}

	return &httpSession{
		cfg:      cfg,
		endpoint: endpoint,
		client: &http.Client{
			Transport: &dialTransport{pipeline: pipeline},
			Timeout:   endpoint.Timeout(),
		},
	}
}

// dialTransport builds a fresh single-use [*probeengine.HTTPConn] for every
// round trip, matching the per-probe-not-per-pair connection lifecycle of
// spec.md §4.5.
type dialTransport struct {
	pipeline probeengine.Func[string, *probeengine.HTTPConn]
}

func (t *dialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	port := req.URL.Port()
	if port == "" {
		if req.URL.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	addr := net.JoinHostPort(req.URL.Hostname(), port)

	hc, err := t.pipeline.Call(req.Context(), addr)
	if err != nil {
		return nil, err
	}
	resp, err := hc.RoundTrip(req)
	if err != nil {
		hc.Close()
		return nil, err
	}
	resp.Body = &closeConnBody{ReadCloser: resp.Body, conn: hc}
	return resp, nil
}

// closeConnBody tears the single-use connection down together with the
// response body, so the conn lives exactly as long as the body is being
// drained.
type closeConnBody struct {
	io.ReadCloser
	conn *probeengine.HTTPConn
}

func (b *closeConnBody) Close() error {
	err := b.ReadCloser.Close()
	b.conn.Close()
	return err
}

// runPair executes one HTTP [script.Pair] (spec.md §4.4) against vars (the
// variables produced by earlier pairs, visible to this pair's request
// fragment substitution) and returns the variables it produced plus the
// raw response body, for RawResponse hex concatenation.
func (s *httpSession) runPair(ctx context.Context, pair script.Pair, vars *value.Table) (*value.Table, []byte, error) {
	status, headers, body, err := httpdsl.Do(ctx, s.client, s.endpoint.BaseURL(), pair.HTTPRequest, vars)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := httpdsl.ParseResponse(pair.HTTPResponseOps, status, headers, body)
	if err != nil {
		return nil, body, err
	}
	return parsed, body, nil
}
