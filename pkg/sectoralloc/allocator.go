// Package sectoralloc defines the Allocator interface the inode index
// consumes to grow files, and provides a minimal, testable reference
// implementation. A production free-space policy is an external
// collaborator; FreeListAllocator exists only so the rest of the module
// is usable and testable standalone.
package sectoralloc

import "github.com/coursevm/blockfs/pkg/blockdevice"

// Allocator reserves and releases runs of contiguous sectors on behalf
// of the inode index. Implementations are assumed to be internally
// synchronized: the inode index may call Allocate/Release from multiple
// goroutines without additional locking.
type Allocator interface {
	// Allocate reserves n contiguous sectors and returns the ID of
	// the first one. The inode index's common case is n == 1.
	// Returns a fserrors.OutOfSpace error if no run of that length is
	// free.
	Allocate(n int) (blockdevice.SectorID, error)

	// Release returns n contiguous sectors, starting at start, to
	// the free pool. start and n must describe a run previously
	// handed out by Allocate (or a sub-run thereof); behavior is
	// undefined otherwise.
	Release(start blockdevice.SectorID, n int)
}
