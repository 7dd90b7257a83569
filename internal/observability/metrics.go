package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total number of RPC requests served, by method and outcome",
		},
		[]string{"service", "method", "outcome"},
	)
	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"service", "method"},
	)

	PoolSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connection_pool_size",
			Help: "Number of connections currently owned by the pool",
		},
		[]string{"pool"},
	)
	PoolIdle = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connection_pool_idle",
			Help: "Number of idle connections in the pool",
		},
		[]string{"pool"},
	)
	PoolBacklog = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connection_pool_backlog",
			Help: "Number of acquirers waiting on the pool",
		},
		[]string{"pool"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries, by database and query type",
		},
		[]string{"database", "type"},
	)
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"database", "type"},
	)
)

// InitMetrics registers the collectors on the default registry. Call once at
// process startup.
func InitMetrics() {
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(PoolSize)
	prometheus.MustRegister(PoolIdle)
	prometheus.MustRegister(PoolBacklog)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
}

// ObserveRPC records one served RPC.
func ObserveRPC(service, method, outcome string, elapsed time.Duration) {
	RPCRequestsTotal.WithLabelValues(service, method, outcome).Inc()
	RPCRequestDuration.WithLabelValues(service, method).Observe(elapsed.Seconds())
}

// ObserveQuery records one database query.
func ObserveQuery(database, queryType string, elapsed time.Duration) {
	QueriesTotal.WithLabelValues(database, queryType).Inc()
	QueryDuration.WithLabelValues(database, queryType).Observe(elapsed.Seconds())
}

// SetPoolStats updates the pool gauges.
func SetPoolStats(pool string, size, idle, backlog int) {
	PoolSize.WithLabelValues(pool).Set(float64(size))
	PoolIdle.WithLabelValues(pool).Set(float64(idle))
	PoolBacklog.WithLabelValues(pool).Set(float64(backlog))
}
