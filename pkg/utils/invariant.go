// Invariants are conditions in code that must be true; otherwise, there is a bug in code.
// Think of what you'd `panic()` on, but you don't want to take the whole process down for it. A violated invariant
// records an error log and increments a counter that alerting is built on. It is still up to the caller to handle the
// erroneous case, e.g. by an early return.
//
// Do not use invariants for conditions that depend on external factors; a failed disk write or a missing cache file is
// a regular error. A directory listing that returns "." or a layout deeper than its checksum is an invariant.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant reports a violated invariant. In test mode (see TestMode) it panics so tests catch it.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + invariantType)
	}
}

// GetMetricValue returns the current value of invariant metric with labels `module` and `invariantType`.
func GetMetricValue(module, invariantType string) int {
	var metric = &promclient.Metric{}
	if err := invariantsMetric.WithLabelValues(module, invariantType).Write(metric); err != nil {
		slog.Error(err.Error())
		return 0
	}
	return int(metric.Counter.GetValue())
}
