package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps cheap in-process counters for the request path and the
// aggregation engine. Snapshot feeds the /metrics endpoint.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64
	reviewWrites    uint64
	recomputes      uint64
	warningsRaised  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordReviewWrite() {
	atomic.AddUint64(&c.reviewWrites, 1)
	atomic.AddUint64(&c.recomputes, 1)
}

func (c *Collector) RecordWarningRaised() {
	atomic.AddUint64(&c.warningsRaised, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":       total,
		"errorsTotal":         atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":       avg,
		"reviewWritesTotal":   atomic.LoadUint64(&c.reviewWrites),
		"recomputesTotal":     atomic.LoadUint64(&c.recomputes),
		"warningsRaisedTotal": atomic.LoadUint64(&c.warningsRaised),
	}
}
