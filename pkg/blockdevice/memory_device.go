package blockdevice

import (
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// memoryBlockDevice is a BlockDevice backed by a plain slice of sectors.
// It never fails except on out-of-range access, which makes it useful for
// unit tests that want to observe exactly which sectors the cache issued
// I/O against without involving a filesystem.
type memoryBlockDevice struct {
	lock    sync.Mutex
	sectors []Sector
}

// NewMemoryBlockDevice creates an in-memory BlockDevice with the given
// number of zero-initialized sectors.
func NewMemoryBlockDevice(sectorCount int) BlockDevice {
	return &memoryBlockDevice{
		sectors: make([]Sector, sectorCount),
	}
}

func (bd *memoryBlockDevice) checkRange(sector SectorID) error {
	if int(sector) >= len(bd.sectors) {
		return status.Errorf(codes.OutOfRange, "sector %d exceeds device capacity of %d sectors", sector, len(bd.sectors))
	}
	return nil
}

func (bd *memoryBlockDevice) ReadSector(sector SectorID, out *Sector) error {
	bd.lock.Lock()
	defer bd.lock.Unlock()

	if err := bd.checkRange(sector); err != nil {
		return err
	}
	*out = bd.sectors[sector]
	return nil
}

func (bd *memoryBlockDevice) WriteSector(sector SectorID, in *Sector) error {
	bd.lock.Lock()
	defer bd.lock.Unlock()

	if err := bd.checkRange(sector); err != nil {
		return err
	}
	bd.sectors[sector] = *in
	return nil
}

func (bd *memoryBlockDevice) Sync() error {
	return nil
}
