package analytics

import (
	"sync"
	"time"
)

// Report building walks every transaction and may call the LLM, so results
// are held for a few minutes before a rebuild.
const reportTTL = 5 * time.Minute

type reportCache struct {
	mu        sync.Mutex
	report    *Report
	expiresAt time.Time
}

func newReportCache() *reportCache {
	return &reportCache{}
}

func (c *reportCache) get() (*Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.report, true
}

func (c *reportCache) set(report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = report
	c.expiresAt = time.Now().Add(reportTTL)
}

func (c *reportCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = nil
}
