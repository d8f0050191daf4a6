// SPDX-License-Identifier: GPL-3.0-or-later

// Package probe implements the transport executor and top-level Run
// orchestration for the probe engine: placeholder expansion, script
// parsing, the per-pair UDP/TCP/HTTP(S) build/send/receive/parse cycle,
// the post-processing code interpreter, and the output formatter, wired
// together in the order spec.md §2 describes.
package probe

import "github.com/bassosimone/probeengine"

// maxReceiveBytes caps every timed read/datagram receive (spec.md §5:
// "Receive buffers are capped at 16 KiB").
const maxReceiveBytes = 16 * 1024

// Config holds the probe executor's dependencies, layered on top of the
// root package's [probeengine.Config] the same way the root package's own
// primitives are (see doc.go: "the [probe] package is exactly such a
// higher-level package").
type Config struct {
	// Engine is the shared configuration for the underlying connect/TLS/
	// HTTP primitives.
	Engine *probeengine.Config

	// Logger receives lifecycle events for each probe and pair.
	Logger probeengine.SLogger
}

// NewConfig returns a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Engine: probeengine.NewConfig(),
		Logger: probeengine.DefaultSLogger(),
	}
}
