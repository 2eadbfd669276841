// Package metrics collects operational metrics for the ledger engines.
package metrics

import "time"

// Collector is implemented by metric backends. Services treat it as
// optional and fall back to the no-op collector.
type Collector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordTransaction(txType, currency string, amount float64)
	RecordError(operation, errType string)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
	RecordRateRefresh(result string)
}

// NoopCollector is a no-op implementation of Collector
type NoopCollector struct{}

func (NoopCollector) RecordOperationDuration(string, time.Duration) {}
func (NoopCollector) RecordTransaction(string, string, float64)     {}
func (NoopCollector) RecordError(string, string)                    {}
func (NoopCollector) RecordCacheHit(string)                         {}
func (NoopCollector) RecordCacheMiss(string)                        {}
func (NoopCollector) RecordRateRefresh(string)                      {}
