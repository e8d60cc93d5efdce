package inode

import (
	"errors"

	"github.com/coursevm/blockfs/pkg/bcache"
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/fserrors"
	"github.com/coursevm/blockfs/pkg/sectoralloc"
)

// zeroSector is reused across allocation paths to zero newly allocated
// sectors, mirroring the original's single static zeros[BLOCK_SECTOR_SIZE]
// buffer rather than allocating a fresh zero buffer per call.
var zeroSector blockdevice.Sector

// Index is the in-memory translation and growth state for one open
// inode: a cached copy of its on-disk record plus whichever indirect
// and doubly-indirect blocks translation has touched, so that repeated
// translations within one file do not refetch them from the cache
// (spec.md §4.4). All methods assume the caller holds whatever
// per-inode serialization spec.md §5 requires; Index itself does no
// locking.
type Index struct {
	cache *bcache.Cache
	alloc sectoralloc.Allocator

	sector blockdevice.SectorID
	disk   *Disk

	indirect    *Indirect       // cached iff disk.IndirectUsed != 0
	dblIndirect *DoubleIndirect // cached iff disk.DblIndirectUsed != 0
	// dblChildren caches Indirect children of dblIndirect, keyed by
	// their position in dblIndirect.Indirect, fetched lazily.
	dblChildren map[int]*Indirect
}

// Open reads the InodeDisk record at sector through cache and returns
// an Index ready for translation.
func Open(cache *bcache.Cache, alloc sectoralloc.Allocator, sector blockdevice.SectorID) (*Index, error) {
	var buf blockdevice.Sector
	if err := cache.Read(sector, &buf); err != nil {
		return nil, err
	}
	disk := DecodeDisk(&buf)
	if disk.Magic != Magic {
		return nil, fserrors.Newf(fserrors.DeviceIOError, "sector %d is not a valid inode (bad magic)", sector)
	}
	idx := &Index{
		cache:       cache,
		alloc:       alloc,
		sector:      sector,
		disk:        disk,
		dblChildren: make(map[int]*Indirect),
	}
	if disk.IndirectUsed != 0 {
		if err := idx.loadIndirect(); err != nil {
			return nil, err
		}
	}
	if disk.DblIndirectUsed != 0 {
		if err := idx.loadDblIndirect(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) loadIndirect() error {
	var buf blockdevice.Sector
	if err := idx.cache.Read(idx.disk.Indirect, &buf); err != nil {
		return err
	}
	idx.indirect = DecodeIndirect(&buf)
	return nil
}

func (idx *Index) loadDblIndirect() error {
	var buf blockdevice.Sector
	if err := idx.cache.Read(idx.disk.DblIndirect, &buf); err != nil {
		return err
	}
	idx.dblIndirect = DecodeDoubleIndirect(&buf)
	return nil
}

func (idx *Index) loadDblChild(childIndex int) (*Indirect, error) {
	if c, ok := idx.dblChildren[childIndex]; ok {
		return c, nil
	}
	var buf blockdevice.Sector
	if err := idx.cache.Read(idx.dblIndirect.Indirect[childIndex], &buf); err != nil {
		return nil, err
	}
	c := DecodeIndirect(&buf)
	idx.dblChildren[childIndex] = c
	return c, nil
}

// Length returns the inode's current logical byte length.
func (idx *Index) Length() uint32 {
	return uint32(idx.disk.Length)
}

// Sector returns the device sector holding this inode's on-disk record,
// i.e. its inumber.
func (idx *Index) Sector() blockdevice.SectorID {
	return idx.sector
}

// persistDisk writes the inode's on-disk record through the cache. It
// must be called whenever Length or the direct/indirect pointer arrays
// change.
func (idx *Index) persistDisk() error {
	s := EncodeDisk(idx.disk)
	return idx.cache.Write(idx.sector, &s)
}

// Translate maps byteOffset to the device sector holding that byte,
// following spec.md §4.4. When byteOffset falls within the current
// logical length, it descends the direct/indirect/doubly-indirect
// layout (never consulting the on-disk parent/self fields, which are
// debugging metadata only per spec.md §9). When byteOffset is at or
// past the current length:
//   - forWrite == false returns ErrEndOfFile.
//   - forWrite == true grows the file to cover byteOffset and
//     retranslates.
func (idx *Index) Translate(byteOffset uint32, forWrite bool) (blockdevice.SectorID, error) {
	if byteOffset >= MaxFileSize {
		return 0, fserrors.Newf(fserrors.FileTooLarge, "offset %d exceeds max file size %d", byteOffset, MaxFileSize)
	}

	if byteOffset < uint32(idx.disk.Length) {
		return idx.translateWithinLength(byteOffset)
	}

	if !forWrite {
		return 0, ErrEndOfFile
	}

	if err := idx.growTo(byteOffset + 1); err != nil {
		return 0, err
	}
	return idx.translateWithinLength(byteOffset)
}

func (idx *Index) translateWithinLength(byteOffset uint32) (blockdevice.SectorID, error) {
	blk := int(byteOffset / blockdevice.SectorSize)

	switch {
	case blk < DirectBlocks:
		return idx.disk.Direct[blk], nil

	case blk < DirectBlocks+IndirectBlocks:
		i := blk - DirectBlocks
		return idx.indirect.Blocks[i], nil

	case blk < TotalSectors:
		b := blk - (DirectBlocks + IndirectBlocks)
		childIndex := b / IndirectBlocks
		innerIndex := b % IndirectBlocks
		child, err := idx.loadDblChild(childIndex)
		if err != nil {
			return 0, err
		}
		return child.Blocks[innerIndex], nil

	default:
		return 0, fserrors.Newf(fserrors.FileTooLarge, "block %d exceeds the %d blocks an inode can address", blk, TotalSectors)
	}
}

// ErrEndOfFile is returned by Translate when a read-only translation
// falls past the inode's current length. It is not a failure: spec.md
// §7 classifies it as "not an error", a signal consumed by FIO to stop
// its read loop. It is a plain sentinel, not a gRPC status error, since
// it never crosses the collaborator boundary as a failure.
var ErrEndOfFile = errors.New("inode: end of file")

// IsEndOfFile reports whether err is the sentinel Translate returns for
// a read past the end of the file.
func IsEndOfFile(err error) bool {
	return err == ErrEndOfFile
}
