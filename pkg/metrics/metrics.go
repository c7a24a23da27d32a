package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PeerRows = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "trg_peer_rows", Help: "Live rows in the peer table"},
	)
	ReconcilePasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trg_reconcile_passes_total", Help: "Peer snapshot passes applied"},
		[]string{"kind"}, // first|incremental
	)
	PeersEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trg_peers_evicted_total", Help: "Rows removed as stale"},
	)
	PeersSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trg_peers_skipped_total", Help: "Malformed snapshot entries skipped"},
	)
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trg_dns_resolutions_total", Help: "Reverse lookups by outcome"},
		[]string{"result"}, // ok|failed|vanished
	)
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trg_rpc_requests_total", Help: "Daemon RPC calls"},
		[]string{"method", "status"},
	)
	PollFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trg_poll_failures_total", Help: "Failed update cycles"},
	)
	WSConnected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trg_ws_connected_total", Help: "Total WebSocket connections"},
	)
	WSError = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trg_ws_errors_total", Help: "WebSocket errors"},
	)
)

func Init() {
	prometheus.MustRegister(PeerRows, ReconcilePasses, PeersEvicted, PeersSkipped, Resolutions)
	prometheus.MustRegister(RPCRequests, PollFailures)
	prometheus.MustRegister(WSConnected, WSError)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
