//go:build prometheus
// +build prometheus

package main

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/fancyd/pkg/fancyd/httpd"
)

var (
	connsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fancyd",
		Subsystem: "connpool",
		Name:      "in_use",
		Help:      "Connections currently checked out of the fixed-cardinality pool",
	})
	connsCap = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fancyd",
		Subsystem: "connpool",
		Name:      "capacity",
		Help:      "Fixed cardinality of the connection pool",
	})
	arenasCreated = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fancyd",
		Subsystem: "arena_pool",
		Name:      "created_total",
		Help:      "Arenas allocated fresh rather than reused from the pool",
	})
	arenasReused = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fancyd",
		Subsystem: "arena_pool",
		Name:      "reused_total",
		Help:      "Arenas taken from the free list instead of allocated",
	})
	headerInCreated = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fancyd",
		Subsystem: "header_in_pool",
		Name:      "created_total",
		Help:      "header_in buffers allocated fresh rather than reused from the pool",
	})
	headerOutCreated = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fancyd",
		Subsystem: "header_out_pool",
		Name:      "created_total",
		Help:      "header_out buffers allocated fresh rather than reused from the pool",
	})
)

// serveMetrics polls srv.Stats on a fixed interval and starts an HTTP
// server exposing them on addr at /metrics. It returns immediately;
// both the polling loop and the HTTP server run until process exit.
func serveMetrics(addr string, srv *httpd.Server, logger *log.Logger) {
	if addr == "" {
		return
	}

	go pollStats(srv)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Printf("metrics server: %v", err)
		}
	}()
	logger.Printf("metrics listening on %s/metrics", addr)
}

func pollStats(srv *httpd.Server) {
	for {
		s := srv.Stats()
		connsInUse.Set(float64(s.ConnsInUse))
		connsCap.Set(float64(s.ConnsCap))
		arenasCreated.Set(float64(s.Arenas.Created))
		arenasReused.Set(float64(s.Arenas.Reused))
		headerInCreated.Set(float64(s.HeaderIn.Created))
		headerOutCreated.Set(float64(s.HeaderOut.Created))
		time.Sleep(10 * time.Second)
	}
}
