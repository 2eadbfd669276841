package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector reports ledger metrics to the default prometheus
// registry, exposed on /metrics.
type PrometheusCollector struct {
	opDuration   *prometheus.HistogramVec
	transactions *prometheus.CounterVec
	volume       *prometheus.CounterVec
	errors       *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	rateRefresh  *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		opDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		transactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Completed ledger transactions by type and currency.",
		}, []string{"type", "currency"}),
		volume: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transaction_volume",
			Help: "Absolute transaction volume by type and currency.",
		}, []string{"type", "currency"}),
		errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_errors_total",
			Help: "Ledger operation errors by operation and kind.",
		}, []string{"operation", "error"}),
		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_cache_requests_total",
			Help: "Wallet cache lookups by result.",
		}, []string{"result"}),
		rateRefresh: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_rate_refresh_total",
			Help: "Exchange rate refresh attempts by result.",
		}, []string{"result"}),
	}
}

func (p *PrometheusCollector) RecordOperationDuration(operation string, duration time.Duration) {
	p.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordTransaction(txType, currency string, amount float64) {
	p.transactions.WithLabelValues(txType, currency).Inc()
	if amount < 0 {
		amount = -amount
	}
	p.volume.WithLabelValues(txType, currency).Add(amount)
}

func (p *PrometheusCollector) RecordError(operation, errType string) {
	p.errors.WithLabelValues(operation, errType).Inc()
}

func (p *PrometheusCollector) RecordCacheHit(string) {
	p.cacheHits.WithLabelValues("hit").Inc()
}

func (p *PrometheusCollector) RecordCacheMiss(string) {
	p.cacheHits.WithLabelValues("miss").Inc()
}

func (p *PrometheusCollector) RecordRateRefresh(result string) {
	p.rateRefresh.WithLabelValues(result).Inc()
}
