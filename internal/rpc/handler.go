package rpc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandlerConfig selects what NewHandler mounts besides JSON-RPC at "/"
type HandlerConfig struct {
	// WebSocketPath mounts the WebSocket server when set
	WebSocketPath string

	// Gatherer exposes metrics at /metrics when set
	Gatherer prometheus.Gatherer
}

// NewHandler returns the HTTP handler serving rpc and, as configured, the
// WebSocket endpoint and metrics.
func NewHandler(rpc *Server, ws *WebSocketServer, cfg HandlerConfig) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", rpc)
	if ws != nil && cfg.WebSocketPath != "" {
		mux.Handle(cfg.WebSocketPath, ws)
	}
	if cfg.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}
