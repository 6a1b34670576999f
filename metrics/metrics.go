// Package metrics provides Prometheus instrumentation for the auction
// engine and a standalone metrics server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine operation counters.
type Metrics struct {
	registry *prometheus.Registry

	AuctionsCreated  prometheus.Counter
	AuctionsCanceled prometheus.Counter
	BidsPlaced       prometheus.Counter
	BidsRevealed     prometheus.Counter
	Settlements      prometheus.Counter
	RefundsClaimed   prometheus.Counter
	ExternalFailures prometheus.Counter
}

// New creates the metric set under the given namespace, registered on a
// fresh registry together with the standard Go and process collectors.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}

	return &Metrics{
		registry:         registry,
		AuctionsCreated:  counter("auctions_created_total", "Auctions created."),
		AuctionsCanceled: counter("auctions_canceled_total", "Auctions canceled."),
		BidsPlaced:       counter("bids_placed_total", "Sealed bids placed."),
		BidsRevealed:     counter("bids_revealed_total", "Bids successfully revealed."),
		Settlements:      counter("settlements_total", "Auctions settled."),
		RefundsClaimed:   counter("refunds_claimed_total", "Refunds claimed."),
		ExternalFailures: counter("external_failures_total", "Collaborator call failures."),
	}
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server exposes the metrics registry on its own listen address.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server. A nil server is returned when addr is
// empty; its methods are no-ops.
func NewServer(m *Metrics, addr string) *Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		srv: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving metrics in the background.
func (s *Server) Start() {
	if s == nil {
		return
	}
	go func() {
		_ = s.srv.ListenAndServe()
	}()
}

// Shutdown stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
