package inodetable

import (
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/fileio"
	"github.com/coursevm/blockfs/pkg/inode"
)

// Handle is one opener's view onto a shared entry. Every Handle
// returned by Open/Reopen on the same sector refers to the same entry;
// closing one does not invalidate the others until the last is closed.
type Handle struct {
	e *entry
}

// Reopen increments the shared entry's open count and returns a new
// Handle referring to it, mirroring spec.md §4.5 "reopen".
func (h *Handle) Reopen() *Handle {
	h.e.lock.Lock()
	h.e.openCount++
	h.e.lock.Unlock()
	return &Handle{e: h.e}
}

// Close decrements the shared entry's open count. When it reaches zero,
// the entry is removed from its Table and, if Remove had been called,
// every sector it owns is released back to the allocator.
func (h *Handle) Close() error {
	return h.e.table.closeEntry(h.e)
}

// Remove marks the underlying inode for deletion. Deallocation is
// deferred until the last opener calls Close, per spec.md §4.5.
func (h *Handle) Remove() {
	h.e.lock.Lock()
	h.e.removed = true
	h.e.lock.Unlock()
}

// DenyWrite increments the entry's deny-write count. While it is
// nonzero, WriteAt refuses every call, returning zero bytes written.
func (h *Handle) DenyWrite() {
	h.e.lock.Lock()
	defer h.e.lock.Unlock()
	h.e.denyWriteCnt++
}

// AllowWrite decrements the entry's deny-write count, re-enabling
// writes once it reaches zero.
func (h *Handle) AllowWrite() {
	h.e.lock.Lock()
	defer h.e.lock.Unlock()
	if h.e.denyWriteCnt > 0 {
		h.e.denyWriteCnt--
	}
}

// Length returns the inode's current logical byte length.
func (h *Handle) Length() uint32 {
	h.e.lock.Lock()
	defer h.e.lock.Unlock()
	return h.e.idx.Length()
}

// Inumber returns the device sector that identifies this inode, the
// same value passed to Table.Open.
func (h *Handle) Inumber() blockdevice.SectorID {
	return h.e.sector
}

// ReadAt reads len(buf) bytes starting at offset, stopping early at
// end-of-file, and reports how many bytes were actually read. It holds
// the entry's lock for the duration of the read loop, per spec.md §5's
// per-inode serialization.
func (h *Handle) ReadAt(buf []byte, offset uint32) (int, error) {
	h.e.lock.Lock()
	defer h.e.lock.Unlock()
	return fileio.ReadAt(h.e.table.cache, h.e.idx, buf, offset)
}

// WriteAt writes len(buf) bytes starting at offset, growing the inode
// as needed, and reports how many bytes were actually written. It
// returns 0 immediately, without touching the inode, while the entry's
// deny-write count is nonzero (spec.md §4.6).
func (h *Handle) WriteAt(buf []byte, offset uint32) (int, error) {
	h.e.lock.Lock()
	defer h.e.lock.Unlock()
	if h.e.denyWriteCnt > 0 {
		return 0, nil
	}
	return fileio.WriteAt(h.e.table.cache, h.e.idx, buf, offset)
}

// EndOfFile reports whether err is the sentinel Translate returns for a
// read-only translation past the inode's current length.
func EndOfFile(err error) bool {
	return inode.IsEndOfFile(err)
}
