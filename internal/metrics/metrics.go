// Package metrics exposes C8 usage bookkeeping and C7 precache pool state
// as a pluggable prometheus.Collector (SPEC_FULL.md §2 domain stack).
// github.com/prometheus/client_golang is grounded on jordigilh-kubernaut's
// go.mod, the pack's example that exports rather than merely scrapes
// Prometheus metrics; client_model and common arrive transitively as its
// own dependencies. The core never starts an HTTP /metrics server itself —
// the spec's CLI/GUI non-goal excludes any such outer surface — so a host
// application registers the Collector with its own registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// UsageSource is read by Collect to report the dispatch engine's current
// allowance snapshot. Implemented by *dispatch.Engine via a thin adapter
// in the root package to avoid an import cycle (metrics must not import
// dispatch, and dispatch must not import metrics).
type UsageSource interface {
	RequestsRemaining() (int64, bool)
	BitsRemaining() (int64, bool)
}

// PrecacheSource is read by Collect to report one named pool's state.
type PrecacheSource interface {
	Pending() int
	BulkFactor() int
	BitsUsed() int64
	RequestsUsed() int64
}

var (
	requestsRemainingDesc = prometheus.NewDesc(
		"rorandom_requests_remaining", "Last-known remaining request allowance for a credential.",
		[]string{"credential"}, nil)
	bitsRemainingDesc = prometheus.NewDesc(
		"rorandom_bits_remaining", "Last-known remaining bit allowance for a credential.",
		[]string{"credential"}, nil)
	precachePendingDesc = prometheus.NewDesc(
		"rorandom_precache_pending_batches", "Number of ready batches buffered in a precache pool.",
		[]string{"pool"}, nil)
	precacheBulkFactorDesc = prometheus.NewDesc(
		"rorandom_precache_bulk_factor", "Current bulk-factor of a precache pool.",
		[]string{"pool"}, nil)
	precacheBitsUsedDesc = prometheus.NewDesc(
		"rorandom_precache_bits_used_total", "Lifetime bit-estimate total consumed by a precache pool.",
		[]string{"pool"}, nil)
	precacheRequestsUsedDesc = prometheus.NewDesc(
		"rorandom_precache_requests_used_total", "Lifetime round-trip count issued by a precache pool.",
		[]string{"pool"}, nil)
)

// Registry collects metrics across every client and precache pool that
// registers itself. It implements prometheus.Collector.
type Registry struct {
	mu        sync.Mutex
	clients   map[string]UsageSource
	precaches map[string]PrecacheSource
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:   make(map[string]UsageSource),
		precaches: make(map[string]PrecacheSource),
	}
}

// RegisterClient makes a client's usage bookkeeping visible under the
// given credential label. Re-registering the same credential replaces
// the prior source.
func (r *Registry) RegisterClient(credential string, src UsageSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[credential] = src
}

// RegisterPrecache makes a pool's state visible under the given name.
func (r *Registry) RegisterPrecache(name string, src PrecacheSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.precaches[name] = src
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestsRemainingDesc
	ch <- bitsRemainingDesc
	ch <- precachePendingDesc
	ch <- precacheBulkFactorDesc
	ch <- precacheBitsUsedDesc
	ch <- precacheRequestsUsedDesc
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.mu.Lock()
	clients := make(map[string]UsageSource, len(r.clients))
	for k, v := range r.clients {
		clients[k] = v
	}
	precaches := make(map[string]PrecacheSource, len(r.precaches))
	for k, v := range r.precaches {
		precaches[k] = v
	}
	r.mu.Unlock()

	for credential, src := range clients {
		if reqs, ok := src.RequestsRemaining(); ok {
			ch <- prometheus.MustNewConstMetric(requestsRemainingDesc, prometheus.GaugeValue, float64(reqs), credential)
		}
		if bits, ok := src.BitsRemaining(); ok {
			ch <- prometheus.MustNewConstMetric(bitsRemainingDesc, prometheus.GaugeValue, float64(bits), credential)
		}
	}
	for name, src := range precaches {
		ch <- prometheus.MustNewConstMetric(precachePendingDesc, prometheus.GaugeValue, float64(src.Pending()), name)
		ch <- prometheus.MustNewConstMetric(precacheBulkFactorDesc, prometheus.GaugeValue, float64(src.BulkFactor()), name)
		ch <- prometheus.MustNewConstMetric(precacheBitsUsedDesc, prometheus.CounterValue, float64(src.BitsUsed()), name)
		ch <- prometheus.MustNewConstMetric(precacheRequestsUsedDesc, prometheus.CounterValue, float64(src.RequestsUsed()), name)
	}
}
