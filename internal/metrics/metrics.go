package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Ledger
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Committed ledger transactions",
		},
		[]string{"type"}, // SEND|CASH_IN|CASH_OUT|CASH_REQUEST|WITHDRAW
	)
	TransactionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_failed_total",
			Help: "Rejected or failed money movements",
		},
		[]string{"type", "kind"},
	)
	FeesCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_fees_collected_poisha_total",
			Help: "Fees charged, in poisha",
		},
		[]string{"type"},
	)
	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_resolved_total",
			Help: "Resolved agent cash/withdraw requests",
		},
		[]string{"kind", "status"},
	)
	TxnIDCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_txn_id_collisions_total",
			Help: "Transaction id collisions that triggered a retry",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"routing_key", "result"},
	)
)

var Handler = promhttp.Handler

var once sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDuration,
			RateLimited,
			TransactionsTotal,
			TransactionsFailed,
			FeesCollected,
			SettlementsTotal,
			TxnIDCollisions,
			WorkerQueueDepth,
			EventsPublished,
		)
	})
}
