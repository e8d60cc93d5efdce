// Package blockdevice provides the boundary between the buffer cache and
// the underlying sector-addressable storage medium. It deliberately knows
// nothing about caching, dirtiness, or file layout: it only moves whole
// sectors in and out of a device.
package blockdevice

// SectorSize is the fixed size, in bytes, of every sector moved across the
// BlockDevice boundary. All on-disk structures defined by pkg/inode are
// sized to fit in exactly one Sector.
const SectorSize = 512

// SectorID identifies a single sector on one device. Sector 0 is
// device-defined; this package assigns it no special meaning.
type SectorID uint32

// Sector is a fixed-size buffer holding the contents of exactly one
// sector. Using an array rather than a slice makes it impossible to pass
// a mis-sized buffer across the BlockDevice boundary.
type Sector [SectorSize]byte
