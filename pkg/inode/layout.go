// Package inode implements the multi-level indexed translation from a
// file's byte offset to the device sector holding that byte, plus
// allocate-on-write growth. It is a direct generalization of the
// original Pintos filesys/inode.c's byte_to_sector/extend_file, with
// the source's disk struct reduced to a typed binary view over a
// blockdevice.Sector instead of a raw C struct cast.
package inode

import (
	"bytes"
	"encoding/binary"

	"github.com/coursevm/blockfs/pkg/blockdevice"
)

// Fan-out constants fixed by the on-disk layout. These are not tunable:
// changing them changes the byte layout of every on-disk structure.
const (
	DirectBlocks       = 10
	IndirectBlocks     = 125
	DoubleIndirectFans = 125

	// TotalSectors is the maximum number of data sectors one inode can
	// address: 10 direct + 125 indirect + 125*125 doubly indirect.
	TotalSectors = DirectBlocks + IndirectBlocks + DoubleIndirectFans*IndirectBlocks

	// MaxFileSize is the largest byte offset (exclusive) addressable
	// by an inode, given SectorSize-byte sectors.
	MaxFileSize = TotalSectors * blockdevice.SectorSize

	// Magic identifies a valid InodeDisk record.
	Magic uint32 = 0x494E4F44
)

// Disk is the on-disk inode record: exactly one sector, byte-exact and
// little-endian, mirroring spec.md §6. Unlike the original's raw struct,
// this type is never cast directly over device bytes; Encode/Decode do
// that translation explicitly so the 512-byte layout is enforced in one
// place.
type Disk struct {
	Direct          [DirectBlocks]blockdevice.SectorID
	Length          int32
	Self            blockdevice.SectorID
	Indirect        blockdevice.SectorID
	DblIndirect     blockdevice.SectorID
	IndirectUsed    uint32
	DblIndirectUsed uint32
	Magic           uint32
}

// diskUnusedWords pads Disk out to exactly one sector: 40 bytes of
// direct + 6 four-byte fields (24 bytes) + magic (4 bytes) = 68 bytes,
// leaving 512-68 = 444 bytes, i.e. 111 uint32 words.
const diskUnusedWords = 111

// Indirect is the on-disk indirect block: 125 sector pointers, each
// directly addressing one data sector.
type Indirect struct {
	Self    blockdevice.SectorID
	Parent  blockdevice.SectorID
	Length  int32
	Blocks  [IndirectBlocks]blockdevice.SectorID
}

// DoubleIndirect is the on-disk doubly-indirect block: 125 pointers,
// each addressing an Indirect block.
type DoubleIndirect struct {
	Self     blockdevice.SectorID
	Parent   blockdevice.SectorID
	Length   int32
	Indirect [DoubleIndirectFans]blockdevice.SectorID
}

func init() {
	assertLayout("InodeDisk", encodedSize(&Disk{}))
	assertLayout("IndirectBlock", encodedSize(&Indirect{}))
	assertLayout("DoubleIndirectBlock", encodedSize(&DoubleIndirect{}))
}

// assertLayout panics at package load if name's encoded size does not
// match SectorSize exactly, realizing the "must be exactly one sector"
// assertion spec.md §9 calls for as a compile-time check where the
// target language allows it.
func assertLayout(name string, size int) {
	if size != blockdevice.SectorSize {
		panic("inode: " + name + " does not encode to exactly one sector")
	}
}

func encodedSize(v interface{}) int {
	var buf bytes.Buffer
	switch t := v.(type) {
	case *Disk:
		writeDisk(&buf, t)
	case *Indirect:
		writeIndirect(&buf, t)
	case *DoubleIndirect:
		writeDoubleIndirect(&buf, t)
	}
	return buf.Len()
}

func writeDisk(buf *bytes.Buffer, d *Disk) {
	binary.Write(buf, binary.LittleEndian, d.Direct)
	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.Self)
	binary.Write(buf, binary.LittleEndian, d.Indirect)
	binary.Write(buf, binary.LittleEndian, d.DblIndirect)
	binary.Write(buf, binary.LittleEndian, d.IndirectUsed)
	binary.Write(buf, binary.LittleEndian, d.DblIndirectUsed)
	binary.Write(buf, binary.LittleEndian, d.Magic)
	var unused [diskUnusedWords]uint32
	binary.Write(buf, binary.LittleEndian, unused)
}

func writeIndirect(buf *bytes.Buffer, b *Indirect) {
	binary.Write(buf, binary.LittleEndian, b.Self)
	binary.Write(buf, binary.LittleEndian, b.Parent)
	binary.Write(buf, binary.LittleEndian, b.Length)
	binary.Write(buf, binary.LittleEndian, b.Blocks)
}

func writeDoubleIndirect(buf *bytes.Buffer, b *DoubleIndirect) {
	binary.Write(buf, binary.LittleEndian, b.Self)
	binary.Write(buf, binary.LittleEndian, b.Parent)
	binary.Write(buf, binary.LittleEndian, b.Length)
	binary.Write(buf, binary.LittleEndian, b.Indirect)
}

// EncodeDisk serializes d into exactly one Sector.
func EncodeDisk(d *Disk) blockdevice.Sector {
	var buf bytes.Buffer
	buf.Grow(blockdevice.SectorSize)
	writeDisk(&buf, d)
	var s blockdevice.Sector
	copy(s[:], buf.Bytes())
	return s
}

// DecodeDisk deserializes a Disk record out of sector.
func DecodeDisk(sector *blockdevice.Sector) *Disk {
	r := bytes.NewReader(sector[:])
	d := &Disk{}
	binary.Read(r, binary.LittleEndian, &d.Direct)
	binary.Read(r, binary.LittleEndian, &d.Length)
	binary.Read(r, binary.LittleEndian, &d.Self)
	binary.Read(r, binary.LittleEndian, &d.Indirect)
	binary.Read(r, binary.LittleEndian, &d.DblIndirect)
	binary.Read(r, binary.LittleEndian, &d.IndirectUsed)
	binary.Read(r, binary.LittleEndian, &d.DblIndirectUsed)
	binary.Read(r, binary.LittleEndian, &d.Magic)
	return d
}

// EncodeIndirect serializes b into exactly one Sector.
func EncodeIndirect(b *Indirect) blockdevice.Sector {
	var buf bytes.Buffer
	buf.Grow(blockdevice.SectorSize)
	writeIndirect(&buf, b)
	var s blockdevice.Sector
	copy(s[:], buf.Bytes())
	return s
}

// DecodeIndirect deserializes an Indirect block out of sector.
func DecodeIndirect(sector *blockdevice.Sector) *Indirect {
	r := bytes.NewReader(sector[:])
	b := &Indirect{}
	binary.Read(r, binary.LittleEndian, &b.Self)
	binary.Read(r, binary.LittleEndian, &b.Parent)
	binary.Read(r, binary.LittleEndian, &b.Length)
	binary.Read(r, binary.LittleEndian, &b.Blocks)
	return b
}

// EncodeDoubleIndirect serializes b into exactly one Sector.
func EncodeDoubleIndirect(b *DoubleIndirect) blockdevice.Sector {
	var buf bytes.Buffer
	buf.Grow(blockdevice.SectorSize)
	writeDoubleIndirect(&buf, b)
	var s blockdevice.Sector
	copy(s[:], buf.Bytes())
	return s
}

// DecodeDoubleIndirect deserializes a DoubleIndirect block out of sector.
func DecodeDoubleIndirect(sector *blockdevice.Sector) *DoubleIndirect {
	r := bytes.NewReader(sector[:])
	b := &DoubleIndirect{}
	binary.Read(r, binary.LittleEndian, &b.Self)
	binary.Read(r, binary.LittleEndian, &b.Parent)
	binary.Read(r, binary.LittleEndian, &b.Length)
	binary.Read(r, binary.LittleEndian, &b.Indirect)
	return b
}

// BytesToSectors returns the number of sectors needed to hold size
// bytes, i.e. ceil(size / SectorSize). This corrects the original's
// extend_file, which computed cur_sectors via a truncating division
// followed by a spurious "% SECTOR_SIZE" check (spec.md §9).
func BytesToSectors(size uint32) int {
	return int((uint64(size) + blockdevice.SectorSize - 1) / blockdevice.SectorSize)
}
