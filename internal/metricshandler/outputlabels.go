// SPDX-License-Identifier: GPL-3.0-or-later

package metricshandler

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// outputLabelRegistry turns each "key=value, key2=value2" RETURN line
// rendered by a game server's OUTPUT_SUCCESS/OUTPUT_ERROR block into one
// gauge per key, named probeengine_gameserver_output_<key>. Numeric
// values become the gauge value directly; non-numeric values are
// recorded as a constant 1 with the original value attached as a
// "value" label, since Prometheus gauges carry no native string type.
type outputLabelRegistry struct {
	reg   *prometheus.Registry
	mu    sync.Mutex
	known map[string]*prometheus.GaugeVec
}

func newOutputLabelRegistry(reg *prometheus.Registry) *outputLabelRegistry {
	return &outputLabelRegistry{reg: reg, known: make(map[string]*prometheus.GaugeVec)}
}

// observe parses line and records one gauge observation per key/value
// pair found, tagged with the given common labels.
func (o *outputLabelRegistry) observe(line string, common prometheus.Labels) {
	for key, value := range parseReturnOutput(line) {
		metricName := "probeengine_gameserver_output_" + sanitizeMetricName(key)
		gauge := o.gaugeVecFor(metricName, key, common)

		labels := prometheus.Labels{"value": ""}
		for k, v := range common {
			labels[k] = v
		}

		if num, err := strconv.ParseFloat(value, 64); err == nil {
			gauge.With(labels).Set(num)
			continue
		}
		labels["value"] = value
		gauge.With(labels).Set(1)
	}
}

func (o *outputLabelRegistry) gaugeVecFor(metricName, key string, common prometheus.Labels) *prometheus.GaugeVec {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gv, ok := o.known[metricName]; ok {
		return gv
	}

	labelNames := make([]string, 0, len(common)+1)
	for name := range common {
		labelNames = append(labelNames, name)
	}
	labelNames = append(labelNames, "value")

	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metricName,
		Help: "Game server output metric for " + key,
	}, labelNames)
	o.reg.MustRegister(gv)
	o.known[metricName] = gv
	return gv
}

// parseReturnOutput parses a RETURN line like
// "server_name=Counter-Strike, current_map=de_dust2" into key/value
// pairs, trimming surrounding whitespace and matching quotes from each
// value.
func parseReturnOutput(line string) map[string]string {
	pairs := make(map[string]string)
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(part[:eq])
		value := unquote(strings.TrimSpace(part[eq+1:]))
		if key == "" {
			continue
		}
		pairs[key] = value
	}
	return pairs
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// sanitizeMetricName rewrites name so it matches Prometheus's metric name
// grammar ([a-zA-Z_:][a-zA-Z0-9_:]*), replacing any other character with
// an underscore.
func sanitizeMetricName(name string) string {
	var b strings.Builder
	for i, r := range name {
		valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == ':'
		if i == 0 {
			if valid {
				b.WriteRune(r)
			} else {
				b.WriteByte('_')
			}
			continue
		}
		if valid || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
