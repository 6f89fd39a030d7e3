// Package metrics manages the process-wide Prometheus registry.
//
// Metrics are opt-in: call InitRegistry once at startup to enable
// collection. Constructors in the prometheus subpackage return nil
// when the registry was never initialized, and all instrumented code
// treats a nil metrics collaborator as a no-op.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the global registry with the standard Go and
// process collectors. Safe to call multiple times; only the first call
// has an effect.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return registry != nil
}

// GetRegistry returns the global registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler returns an HTTP handler serving the registry in the
// Prometheus exposition format, or nil when metrics are disabled.
func Handler() http.Handler {
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
