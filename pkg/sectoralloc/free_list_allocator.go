package sectoralloc

import (
	"sort"
	"sync"

	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/fserrors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	freeListAllocatorMetricsOnce sync.Once

	freeListAllocatorAllocations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockfs",
		Subsystem: "sector_allocator",
		Name:      "allocations_total",
		Help:      "Number of sector runs successfully allocated.",
	})
	freeListAllocatorExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockfs",
		Subsystem: "sector_allocator",
		Name:      "exhausted_total",
		Help:      "Number of allocation requests that found no sufficiently large free run.",
	})
	freeListAllocatorReleases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockfs",
		Subsystem: "sector_allocator",
		Name:      "releases_total",
		Help:      "Number of sector release calls.",
	})
)

type freeRange struct {
	start blockdevice.SectorID
	count int
}

// freeListAllocator is a reference Allocator implementation that hands
// out sectors by first-fit search over a sorted list of free runs,
// merging adjacent runs back together on release. It is a
// generalization, from fixed-size blocks to variable-length contiguous
// runs, of the teacher's block_device_backed_block_allocator free-offset
// list strategy.
//
// It is not wear-leveling and does not attempt to minimize
// fragmentation beyond first-fit; that policy belongs to the real
// free-space allocator this package stands in for.
type freeListAllocator struct {
	lock  sync.Mutex
	free  []freeRange
	total int
}

// NewFreeListAllocator creates an Allocator managing sectorCount sectors
// numbered [0, sectorCount).
func NewFreeListAllocator(sectorCount int) Allocator {
	freeListAllocatorMetricsOnce.Do(func() {
		prometheus.MustRegister(freeListAllocatorAllocations)
		prometheus.MustRegister(freeListAllocatorExhausted)
		prometheus.MustRegister(freeListAllocatorReleases)
	})
	return &freeListAllocator{
		free:  []freeRange{{start: 0, count: sectorCount}},
		total: sectorCount,
	}
}

func (a *freeListAllocator) Allocate(n int) (blockdevice.SectorID, error) {
	if n <= 0 {
		return 0, fserrors.Newf(fserrors.OutOfSpace, "cannot allocate %d sectors", n)
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	for i, r := range a.free {
		if r.count < n {
			continue
		}
		start := r.start
		if r.count == n {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = freeRange{start: r.start + blockdevice.SectorID(n), count: r.count - n}
		}
		freeListAllocatorAllocations.Inc()
		return start, nil
	}
	freeListAllocatorExhausted.Inc()
	return 0, fserrors.Newf(fserrors.OutOfSpace, "no run of %d contiguous sectors available", n)
}

func (a *freeListAllocator) Release(start blockdevice.SectorID, n int) {
	if n <= 0 {
		return
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	freeListAllocatorReleases.Inc()

	a.free = append(a.free, freeRange{start: start, count: n})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].start < a.free[j].start })

	merged := a.free[:1]
	for _, r := range a.free[1:] {
		last := &merged[len(merged)-1]
		if last.start+blockdevice.SectorID(last.count) == r.start {
			last.count += r.count
		} else {
			merged = append(merged, r)
		}
	}
	a.free = merged
}
