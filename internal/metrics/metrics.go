// Package metrics records import counters in a private Prometheus registry.
// Batch runs write the registry to a node-exporter textfile; the local
// food-chain service exposes it over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeFailure  = "failure"
)

// Recorder holds the pantry counters. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	GatewayRequests *prometheus.CounterVec
	GatewayRetries  prometheus.Counter
	EntitiesCreated *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	Links           *prometheus.CounterVec
	Recipes         *prometheus.CounterVec
	ServiceRequests *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_gateway_requests_total",
				Help: "Total number of food-chain API attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		GatewayRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pantry_gateway_retries_total",
				Help: "Total number of retried food-chain API attempts",
			},
		),
		EntitiesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_entities_created_total",
				Help: "Total number of entities created by kind",
			},
			[]string{"kind"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_cache_hits_total",
				Help: "Total number of entity lookups answered from the run cache",
			},
			[]string{"kind"},
		),
		Links: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_links_total",
				Help: "Total number of link creation calls by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Recipes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_recipes_total",
				Help: "Total number of processed recipes by outcome",
			},
			[]string{"outcome"},
		),
		ServiceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_service_requests_total",
				Help: "Total number of requests served by the local food-chain service",
			},
			[]string{"method", "status"},
		),
	}
}

// Request counts one gateway attempt.
func (r *Recorder) Request(method, outcome string) {
	if r == nil {
		return
	}
	r.GatewayRequests.WithLabelValues(method, outcome).Inc()
}

// Retry counts one retried attempt.
func (r *Recorder) Retry() {
	if r == nil {
		return
	}
	r.GatewayRetries.Inc()
}

// Created counts one created entity.
func (r *Recorder) Created(kind string) {
	if r == nil {
		return
	}
	r.EntitiesCreated.WithLabelValues(kind).Inc()
}

// CacheHit counts one cached lookup.
func (r *Recorder) CacheHit(kind string) {
	if r == nil {
		return
	}
	r.CacheHits.WithLabelValues(kind).Inc()
}

// Link counts one link creation call.
func (r *Recorder) Link(kind, outcome string) {
	if r == nil {
		return
	}
	r.Links.WithLabelValues(kind, outcome).Inc()
}

// Recipe counts one processed recipe.
func (r *Recorder) Recipe(outcome string) {
	if r == nil {
		return
	}
	r.Recipes.WithLabelValues(outcome).Inc()
}

// Served counts one request handled by the local service.
func (r *Recorder) Served(method, status string) {
	if r == nil {
		return
	}
	r.ServiceRequests.WithLabelValues(method, status).Inc()
}

// Gatherer returns the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the textfile collector format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
