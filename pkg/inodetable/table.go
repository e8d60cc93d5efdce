// Package inodetable implements the in-memory registry of open inodes
// described in spec.md §4.5: opening the same sector twice returns the
// same shared record, reference-counted, with removal deferred until
// the last opener closes it. It is a direct generalization of the
// original Pintos filesys/inode.c's open_inodes list, replaced with a
// map keyed by sector per the §9 design note against global mutable
// state.
package inodetable

import (
	"sync"

	"github.com/coursevm/blockfs/pkg/bcache"
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/inode"
	"github.com/coursevm/blockfs/pkg/sectoralloc"
)

// Table is the registry of currently open inodes, one entry at most per
// sector. A single Table is owned by a Filesystem value; it replaces the
// original's process-wide open_inodes list.
type Table struct {
	cache *bcache.Cache
	alloc sectoralloc.Allocator

	lock sync.Mutex
	open map[blockdevice.SectorID]*entry
}

// entry is the shared state behind every Handle referring to the same
// inode. Its own lock serializes the inode's write path (growth,
// translation cache, deny-write count) per spec.md §5, independent of
// the table lock that merely protects Table.open.
type entry struct {
	lock sync.Mutex

	table  *Table
	sector blockdevice.SectorID
	idx    *inode.Index

	openCount    int
	denyWriteCnt int
	removed      bool
}

// New creates an empty Table backed by cache for reading/writing inode
// records and indirect blocks, and alloc for sector growth.
func New(cache *bcache.Cache, alloc sectoralloc.Allocator) *Table {
	return &Table{
		cache: cache,
		alloc: alloc,
		open:  make(map[blockdevice.SectorID]*entry),
	}
}

// Open returns a Handle onto the inode stored at sector, reading its
// InodeDisk record through the cache on first open and sharing the
// resulting entry with any other Handle already open on the same
// sector, exactly as spec.md §4.5 "open" specifies.
func (t *Table) Open(sector blockdevice.SectorID) (*Handle, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if e, ok := t.open[sector]; ok {
		e.lock.Lock()
		e.openCount++
		e.lock.Unlock()
		return &Handle{e: e}, nil
	}

	idx, err := inode.Open(t.cache, t.alloc, sector)
	if err != nil {
		return nil, err
	}
	e := &entry{table: t, sector: sector, idx: idx, openCount: 1}
	t.open[sector] = e
	return &Handle{e: e}, nil
}

// closeEntry decrements e's open count and, if it reaches zero, removes
// e from the table and (if the inode was marked removed) releases every
// sector it owns back to the allocator.
func (t *Table) closeEntry(e *entry) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	e.lock.Lock()
	e.openCount--
	openCount := e.openCount
	removed := e.removed
	e.lock.Unlock()

	if openCount > 0 {
		return nil
	}

	delete(t.open, e.sector)
	if removed {
		return releaseInodeSectors(t.alloc, e)
	}
	return nil
}

// releaseInodeSectors frees the inode's own record sector plus every
// data, indirect, and doubly-indirect sector reachable from it,
// mirroring the original's inode_close releasing data.start for
// bytes_to_sectors(data.length) sectors, generalized to the full
// fan-out layout.
func releaseInodeSectors(alloc sectoralloc.Allocator, e *entry) error {
	alloc.Release(e.sector, 1)
	return e.idx.ReleaseAllocatedSectors(alloc)
}
