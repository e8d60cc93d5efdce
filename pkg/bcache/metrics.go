package bcache

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsOnce sync.Once

	cacheDiskAccesses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockfs",
		Subsystem: "buffer_cache",
		Name:      "disk_accesses_total",
		Help:      "Number of ReadSector/WriteSector calls issued to the block device.",
	})
	cacheTotalAccesses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockfs",
		Subsystem: "buffer_cache",
		Name:      "total_accesses_total",
		Help:      "Number of Read/Write calls made against the buffer cache.",
	})
	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockfs",
		Subsystem: "buffer_cache",
		Name:      "evictions_total",
		Help:      "Number of cache entries evicted, either to make room for a miss or by a flush.",
	})
)

// metrics bundles the cache's instrumentation. The Prometheus counters
// are process-wide, mirroring how pkg/blobstore/local wires its
// metrics; the atomics underneath are per-Cache so that Cache.Stats()
// and tests asserting a hit rate can observe one instance in isolation.
type metrics struct {
	diskAccesses  *uint64
	totalAccesses *uint64
	evictions     *uint64
}

func newMetrics() metrics {
	cacheMetricsOnce.Do(func() {
		prometheus.MustRegister(cacheDiskAccesses, cacheTotalAccesses, cacheEvictions)
	})
	return metrics{
		diskAccesses:  new(uint64),
		totalAccesses: new(uint64),
		evictions:     new(uint64),
	}
}

func (m metrics) incDiskAccesses() {
	atomic.AddUint64(m.diskAccesses, 1)
	cacheDiskAccesses.Inc()
}

func (m metrics) incTotalAccesses() {
	atomic.AddUint64(m.totalAccesses, 1)
	cacheTotalAccesses.Inc()
}

func (m metrics) incEvictions() {
	atomic.AddUint64(m.evictions, 1)
	cacheEvictions.Inc()
}

func (m metrics) diskAccessCount() uint64 {
	return atomic.LoadUint64(m.diskAccesses)
}

func (m metrics) totalAccessCount() uint64 {
	return atomic.LoadUint64(m.totalAccesses)
}
