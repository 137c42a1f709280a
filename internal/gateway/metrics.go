package gateway

import (
	"sync/atomic"
	"time"
)

// Metrics tracks generation call metrics
type Metrics struct {
	calls        int64
	errors       int64
	totalLatency int64 // nanoseconds
	imageCalls   int64
	textCalls    int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		calls:        atomic.LoadInt64(&globalMetrics.calls),
		errors:       atomic.LoadInt64(&globalMetrics.errors),
		totalLatency: atomic.LoadInt64(&globalMetrics.totalLatency),
		imageCalls:   atomic.LoadInt64(&globalMetrics.imageCalls),
		textCalls:    atomic.LoadInt64(&globalMetrics.textCalls),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.calls, 0)
	atomic.StoreInt64(&globalMetrics.errors, 0)
	atomic.StoreInt64(&globalMetrics.totalLatency, 0)
	atomic.StoreInt64(&globalMetrics.imageCalls, 0)
	atomic.StoreInt64(&globalMetrics.textCalls, 0)
}

func recordTextCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.calls, 1)
	atomic.AddInt64(&globalMetrics.textCalls, 1)
	atomic.AddInt64(&globalMetrics.totalLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.errors, 1)
	}
}

func recordImageCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.calls, 1)
	atomic.AddInt64(&globalMetrics.imageCalls, 1)
	atomic.AddInt64(&globalMetrics.totalLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.errors, 1)
	}
}

// AverageLatency returns the average call latency in milliseconds
func (m Metrics) AverageLatency() float64 {
	if m.calls == 0 {
		return 0
	}
	return float64(m.totalLatency) / float64(m.calls) / 1e6
}

// ErrorRate returns the error rate as a percentage
func (m Metrics) ErrorRate() float64 {
	if m.calls == 0 {
		return 0
	}
	return float64(m.errors) / float64(m.calls) * 100
}

// Calls returns the total number of gateway calls
func (m Metrics) Calls() int64 { return m.calls }

// Errors returns the total number of failed gateway calls
func (m Metrics) Errors() int64 { return m.errors }
