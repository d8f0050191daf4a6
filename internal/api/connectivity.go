// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"
)

// CheckInternetConnectivity reports whether ip is reachable over plain
// HTTP or HTTPS, used as a coarse proxy for "is the internet up" when no
// single well-known target is configured.
//
// Any response at all, even a 4xx/5xx one, counts as reachable: the point
// is to observe that *something* answered on the other end, not to judge
// the response.
func (s *Server) CheckInternetConnectivity(ctx context.Context, ip string) bool {
	for _, scheme := range []string{"http", "https"} {
		if s.probeGET(ctx, scheme+"://"+ip, "") {
			return true
		}
	}
	return false
}

// CheckWebsiteExternal reports whether url answers a normal, DNS-resolved
// request with a successful (2xx) status.
func (s *Server) CheckWebsiteExternal(ctx context.Context, url string) bool {
	return s.probeGETSuccessOnly(ctx, withScheme(url))
}

// CheckWebsiteDirect reports whether a website is reachable bypassing the
// normal resolver path: either through an explicit directConnectURL, or by
// resolving the hostname once and then connecting straight to the
// resulting IP with the original Host header attached.
func (s *Server) CheckWebsiteDirect(ctx context.Context, url string, directConnectURL *string) bool {
	if directConnectURL != nil && strings.TrimSpace(*directConnectURL) != "" {
		return s.probeGETSuccessOnlyInsecure(ctx, *directConnectURL, "")
	}

	full := withScheme(url)
	_, hostname, port, ok := splitForDirectConnect(full)
	if !ok {
		return false
	}

	resolver := net.Resolver{}
	addrs, err := resolver.LookupHost(ctx, hostname)
	if err != nil || len(addrs) == 0 {
		return false
	}
	ip := addrs[0]

	for _, scheme := range []string{"http", "https"} {
		directURL := scheme + "://" + net.JoinHostPort(ip, port) + "/"
		if s.probeGETSuccessOnlyInsecure(ctx, directURL, hostname) {
			return true
		}
	}
	return false
}

func withScheme(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// splitForDirectConnect extracts the hostname and port (defaulting per
// scheme) out of an already-schemed URL.
func splitForDirectConnect(url string) (scheme, hostname, port string, ok bool) {
	rest := url
	switch {
	case strings.HasPrefix(rest, "https://"):
		scheme = "https"
		rest = strings.TrimPrefix(rest, "https://")
	case strings.HasPrefix(rest, "http://"):
		scheme = "http"
		rest = strings.TrimPrefix(rest, "http://")
	default:
		return "", "", "", false
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	host, p, err := net.SplitHostPort(rest)
	if err != nil {
		host = rest
		if scheme == "https" {
			p = "443"
		} else {
			p = "80"
		}
	}
	if host == "" {
		return "", "", "", false
	}
	return scheme, host, p, true
}

func (s *Server) probeGET(ctx context.Context, url, hostHeader string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, ok := s.do(ctx, url, hostHeader, s.httpClient)
	return ok
}

func (s *Server) probeGETSuccessOnly(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	status, ok := s.do(ctx, url, "", s.httpClient)
	return ok && status >= 200 && status < 300
}

// probeGETSuccessOnlyInsecure skips certificate verification, mirroring
// the original "direct IP connection" check where the certificate's SAN
// will not match the literal IP address used to dial.
func (s *Server) probeGETSuccessOnlyInsecure(ctx context.Context, url, hostHeader string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
	status, ok := s.do(ctx, url, hostHeader, client)
	return ok && status >= 200 && status < 300
}

func (s *Server) do(ctx context.Context, url, hostHeader string, client *http.Client) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false
	}
	if hostHeader != "" {
		req.Host = hostHeader
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	return resp.StatusCode, true
}
