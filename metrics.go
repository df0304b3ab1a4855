package byteflow

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_connections_total",
			Help: "Total number of connections attached to servers",
		},
	)
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "byteflow_connections_active",
			Help: "Number of currently open connections",
		},
	)
	chunksReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_chunks_received_total",
			Help: "Chunks accepted from the transport receive path",
		},
	)
	chunksWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_chunks_written_total",
			Help: "Chunks written to the transport",
		},
	)
	bytesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_bytes_received_total",
			Help: "Bytes accepted from the transport receive path",
		},
	)
	bytesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_bytes_written_total",
			Help: "Bytes written to the transport",
		},
	)
	chunksDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_chunks_dropped_total",
			Help: "Inbound chunks discarded after close or on queue overflow",
		},
	)
	handlerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_handler_errors_total",
			Help: "Handler runs ended by a production error or panic",
		},
	)
	closesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "byteflow_closes_total",
			Help: "Connection closes by initiating side",
		},
		[]string{"side"},
	)
	rejectedConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "byteflow_connections_rejected_total",
			Help: "Connections refused by the accept rate limit or shutdown",
		},
	)
)

func init() {
	prometheus.MustRegister(connectionsTotal)
	prometheus.MustRegister(activeConnections)
	prometheus.MustRegister(chunksReceived)
	prometheus.MustRegister(chunksWritten)
	prometheus.MustRegister(bytesReceived)
	prometheus.MustRegister(bytesWritten)
	prometheus.MustRegister(chunksDropped)
	prometheus.MustRegister(handlerErrors)
	prometheus.MustRegister(closesTotal)
	prometheus.MustRegister(rejectedConnections)
}
