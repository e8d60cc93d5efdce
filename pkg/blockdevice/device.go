package blockdevice

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// BlockDevice is the single entry point the buffer cache uses to reach
// the storage medium. Every method is synchronous and operates on whole
// sectors; there is no notion of partial-sector I/O here, and no
// caching — that is the buffer cache's job.
//
// Implementations fail only on unrecoverable device errors; there is no
// concept of a sector being temporarily unavailable.
type BlockDevice interface {
	// ReadSector fills out with the device's current contents of
	// sector. It is the only way the cache refills a clean entry.
	ReadSector(sector SectorID, out *Sector) error

	// WriteSector persists in to sector. It is only ever called with
	// a full sector's worth of data; callers needing partial writes
	// must read-modify-write through a bounce buffer themselves.
	WriteSector(sector SectorID, in *Sector) error

	// Sync blocks until every WriteSector call that has returned so
	// far is durable. Neither the cache nor the inode layer calls
	// this directly; it exists for collaborators that need a
	// stronger guarantee than a cache flush.
	Sync() error
}

// NewDeviceIOError wraps an underlying device error with the
// DeviceIOError classification used throughout the filesystem core.
func NewDeviceIOError(err error, sector SectorID, op string) error {
	return status.Errorf(codes.Unavailable, "%s sector %d: %s", op, sector, err)
}
