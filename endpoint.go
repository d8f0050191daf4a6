// SPDX-License-Identifier: GPL-3.0-or-later

package probeengine

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Protocol identifies the transport a [Endpoint] is probed over.
type Protocol int

const (
	// ProtocolUDP probes the endpoint with raw UDP datagrams.
	ProtocolUDP Protocol = iota

	// ProtocolTCP probes the endpoint with a raw TCP byte stream.
	ProtocolTCP

	// ProtocolHTTP probes the endpoint with plaintext HTTP requests.
	ProtocolHTTP

	// ProtocolHTTPS probes the endpoint with HTTP requests over TLS.
	ProtocolHTTPS
)

// String implements [fmt.Stringer].
func (p Protocol) String() string {
	switch p {
	case ProtocolUDP:
		return "UDP"
	case ProtocolTCP:
		return "TCP"
	case ProtocolHTTP:
		return "HTTP"
	case ProtocolHTTPS:
		return "HTTPS"
	default:
		return "UNKNOWN"
	}
}

// ParseProtocol parses the textual spelling used in endpoint descriptors
// (see [Endpoint]) and JSON persistence into a [Protocol].
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UDP":
		return ProtocolUDP, nil
	case "TCP":
		return ProtocolTCP, nil
	case "HTTP":
		return ProtocolHTTP, nil
	case "HTTPS":
		return ProtocolHTTPS, nil
	default:
		return 0, fmt.Errorf("probeengine: unknown protocol %q", s)
	}
}

// MarshalJSON implements [json.Marshaler], persisting the protocol as the
// uppercase string spelling ("UDP", "TCP", "HTTP", "HTTPS") used by
// [Endpoint] descriptors on disk and over the wire.
func (p Protocol) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Protocol) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseProtocol(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IsBinary reports whether the protocol carries binary packets (§3: "binary
// pairs only when UDP/TCP").
func (p Protocol) IsBinary() bool {
	return p == ProtocolUDP || p == ProtocolTCP
}

// IsHTTP reports whether the protocol carries HTTP request templates (§3:
// "HTTP pairs are only legal when the transport is HTTP/HTTPS").
func (p Protocol) IsHTTP() bool {
	return p == ProtocolHTTP || p == ProtocolHTTPS
}

// defaultPort returns the scheme-default port for HTTP/HTTPS, used to decide
// whether the port must appear explicitly in a probe's base URL (§4.5).
func (p Protocol) defaultPort() uint16 {
	switch p {
	case ProtocolHTTPS:
		return 443
	default:
		return 80
	}
}

// Endpoint is the immutable descriptor of one probe target (spec.md §3, §6).
//
// An Endpoint is immutable for the duration of a single probe: the engine
// never mutates it, only reads it to seed pseudo-variables and to select a
// transport driver.
type Endpoint struct {
	// ID is the persisted identifier, or 0 for ad-hoc (e.g. "test this
	// config before saving") probes.
	ID int64

	// Name is a human display label, not used by the engine itself.
	Name string

	// Address is a hostname or a literal IP address.
	Address string

	// Port is the TCP/UDP port, 0-65535.
	Port uint16

	// Protocol selects the transport driver.
	Protocol Protocol

	// TimeoutMS bounds every network step of the probe (spec.md §5).
	TimeoutMS int64

	// Script is the unexpanded pseudo_code source text.
	Script string
}

// Timeout returns the endpoint's timeout as a [time.Duration].
func (e *Endpoint) Timeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// HostPort returns "address:port", suitable for [Dialer.DialContext].
func (e *Endpoint) HostPort() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(int(e.Port)))
}

// BaseURL returns the HTTP(S) base URL for this endpoint, omitting the port
// when it equals the scheme default (spec.md §4.5).
func (e *Endpoint) BaseURL() string {
	scheme := "http"
	if e.Protocol == ProtocolHTTPS {
		scheme = "https"
	}
	if e.Port == e.Protocol.defaultPort() {
		return fmt.Sprintf("%s://%s", scheme, e.Address)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, e.Address, e.Port)
}
