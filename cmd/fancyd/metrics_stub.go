//go:build !prometheus
// +build !prometheus

package main

import (
	"log"

	"github.com/yourusername/fancyd/pkg/fancyd/httpd"
)

// serveMetrics is a no-op in the default build: metrics export only
// exists when built with -tags prometheus.
func serveMetrics(addr string, srv *httpd.Server, logger *log.Logger) {
	if addr != "" {
		logger.Printf("metrics-addr given but binary was not built with -tags prometheus; ignoring")
	}
}
