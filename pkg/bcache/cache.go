// Package bcache implements a bounded, write-back cache of fixed-size
// sectors indexed by SectorID, backed by a blockdevice.BlockDevice and
// evicted in least-recently-used order.
package bcache

import (
	"sync"
	"time"

	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/clock"
	"github.com/coursevm/blockfs/pkg/eviction"
)

// Capacity is the maximum number of resident cache entries.
const Capacity = 64

// FlushInterval is the maximum amount of time dirty data is allowed to
// sit unflushed before Tick forces a full flush.
const FlushInterval = 30 * time.Second

// entry is one resident sector. It is never exposed outside the cache;
// all access goes through Read/Write/Flush, which hold lock for the
// duration of index lookup, entry mutation, LRU mutation and dispatch
// of device I/O.
type entry struct {
	data     blockdevice.Sector
	dirty    bool
	accessed bool
}

// Cache is a bounded write-back cache of sectors belonging to a single
// block device. The zero value is not usable; construct one with New.
type Cache struct {
	bda      blockdevice.BlockDevice
	clk      clock.Clock
	capacity int
	metrics  metrics

	lock      sync.Mutex
	index     map[blockdevice.SectorID]*entry
	lru       eviction.Set[blockdevice.SectorID]
	lastFlush time.Time
}

// New creates an empty Cache of the given capacity backed by bda. A
// Cache is owned by a single Filesystem value rather than held as
// package-level mutable state.
func New(bda blockdevice.BlockDevice, clk clock.Clock, capacity int) *Cache {
	return &Cache{
		bda:       bda,
		clk:       clk,
		capacity:  capacity,
		metrics:   newMetrics(),
		index:     make(map[blockdevice.SectorID]*entry, capacity),
		lru:       eviction.NewLRUSet[blockdevice.SectorID](),
		lastFlush: clk.Now(),
	}
}

// Read copies the current contents of sector into out. On a cache hit
// the entry is promoted to most-recently-used; on a miss it is fetched
// through the block device and inserted as a clean entry.
func (c *Cache) Read(sector blockdevice.SectorID, out *blockdevice.Sector) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.metrics.incTotalAccesses()

	if e, ok := c.index[sector]; ok {
		e.accessed = true
		c.lru.Touch(sector)
		*out = e.data
		return nil
	}

	e := &entry{}
	c.metrics.incDiskAccesses()
	if err := c.bda.ReadSector(sector, &e.data); err != nil {
		return blockdevice.NewDeviceIOError(err, sector, "buffer cache refill read")
	}
	e.accessed = true

	if err := c.insert(sector, e); err != nil {
		return err
	}
	*out = e.data
	return nil
}

// Write stores in as the contents of sector, marking the entry dirty. On
// a miss this is a write-allocate-without-read: no device read is
// issued, which is only correct for full-sector writes; partial writes
// must go through a bounce buffer first (see pkg/fileio).
func (c *Cache) Write(sector blockdevice.SectorID, in *blockdevice.Sector) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.metrics.incTotalAccesses()

	if e, ok := c.index[sector]; ok {
		// Mutate the resident entry in place; there is never a
		// reason to remove and reinsert it for the same key.
		e.data = *in
		e.dirty = true
		e.accessed = true
		c.lru.Touch(sector)
		return nil
	}

	e := &entry{data: *in, dirty: true, accessed: true}
	return c.insert(sector, e)
}

// insert adds a freshly constructed entry for sector to the index and
// LRU order, evicting the least-recently-used resident entry first if
// the cache is already at capacity. Callers must hold c.lock.
func (c *Cache) insert(sector blockdevice.SectorID, e *entry) error {
	if len(c.index) >= c.capacity {
		if err := c.evictOne(); err != nil {
			return err
		}
	}
	c.index[sector] = e
	c.lru.Insert(sector)
	return nil
}

// evictOne removes the least-recently-used resident entry, writing it
// through the block device first if dirty. Callers must hold c.lock.
func (c *Cache) evictOne() error {
	victim := c.lru.Peek()
	e := c.index[victim]

	if e.dirty {
		c.metrics.incDiskAccesses()
		if err := c.bda.WriteSector(victim, &e.data); err != nil {
			return blockdevice.NewDeviceIOError(err, victim, "eviction writeback")
		}
	}

	// The entry's buffer is released on every eviction path, dirty
	// or not.
	c.lru.Remove()
	delete(c.index, victim)
	c.metrics.incEvictions()
	return nil
}

// Flush evicts every resident entry, writing dirty ones through the
// block device first. After Flush returns, the device's byte image
// matches the cache's logical image of everything previously written.
func (c *Cache) Flush() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.flushLocked()
}

func (c *Cache) flushLocked() error {
	for len(c.index) > 0 {
		if err := c.evictOne(); err != nil {
			return err
		}
	}
	c.lastFlush = c.clk.Now()
	return nil
}

// Tick checks whether FlushInterval has elapsed since the last flush
// and, if so, performs one under the cache lock. It reports whether a
// flush occurred. A due flush runs inside Tick and may block on device
// I/O, so callers (see pkg/filesystem) invoke Tick from a goroutine of
// their own rather than directly from a timer's own callback.
func (c *Cache) Tick() (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.clk.Now().Sub(c.lastFlush) < FlushInterval {
		return false, nil
	}
	if err := c.flushLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Stats reports the cumulative instrumentation counters: the number of
// operations dispatched to the block device and the total number of
// cache operations performed.
func (c *Cache) Stats() (diskAccesses, totalAccesses uint64) {
	return c.metrics.diskAccessCount(), c.metrics.totalAccessCount()
}

// Len reports how many entries are currently resident. Exposed
// primarily for tests asserting the "at most CACHE_CAPACITY entries"
// invariant.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.index)
}
