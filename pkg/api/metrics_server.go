package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsServer creates a server that exposes gatherer on /metrics in
// the Prometheus text format. It binds every interface, unlike the API.
func NewMetricsServer(port int, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	return newHTTPServer("Metrics", Config{BindAddress: "0.0.0.0", Port: port}, mux)
}
