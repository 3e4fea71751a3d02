package server

import (
	"fmt"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"net/http"
	"time"
)

// serverMetrics holds the metrics of one server instance
type serverMetrics struct {
	set *metrics.Set
}

// newServerMetrics creates the metric set of a server.
// The connection gauge is only registered if the transport reports its connections.
func newServerMetrics(t transport.IRPCServerTransport) *serverMetrics {
	set := metrics.NewSet()
	if stats, ok := t.(transport.IConnectionStats); ok {
		set.NewGauge("qdb_connections_active", func() float64 {
			return float64(stats.ActiveConnections())
		})
	}
	return &serverMetrics{set: set}
}

// observeRequest records one executed request
func (m *serverMetrics) observeRequest(op common.OpTag, success bool, duration time.Duration) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`qdb_requests_total{op=%q}`, op)).Inc()
	if !success {
		m.set.GetOrCreateCounter(fmt.Sprintf(`qdb_request_failures_total{op=%q}`, op)).Inc()
	}
	m.set.GetOrCreateHistogram(fmt.Sprintf(`qdb_request_duration_seconds{op=%q}`, op)).Update(duration.Seconds())
}

// observeDecodeError records a request that could not be decoded
func (m *serverMetrics) observeDecodeError(kind string) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`qdb_decode_errors_total{kind=%q}`, kind)).Inc()
}

// writePrometheus writes the server metrics and the process metrics in prometheus text format
func (m *serverMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WritePrometheus(w, true)
}

// newMetricsServer creates the http server exposing /metrics
func (m *serverMetrics) newMetricsServer(endpoint string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.writePrometheus(w)
	})
	return &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
