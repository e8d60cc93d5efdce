package inode_test

import (
	"testing"

	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/inode"
	"github.com/stretchr/testify/require"
)

func TestDiskEncodeDecodeRoundTrip(t *testing.T) {
	d := &inode.Disk{
		Length:          1234,
		Self:            7,
		Indirect:        8,
		DblIndirect:     9,
		IndirectUsed:    1,
		DblIndirectUsed: 1,
		Magic:           inode.Magic,
	}
	d.Direct[0] = 100
	d.Direct[9] = 109

	s := inode.EncodeDisk(d)
	got := inode.DecodeDisk(&s)

	require.Equal(t, d.Length, got.Length)
	require.Equal(t, d.Self, got.Self)
	require.Equal(t, d.Indirect, got.Indirect)
	require.Equal(t, d.DblIndirect, got.DblIndirect)
	require.Equal(t, d.IndirectUsed, got.IndirectUsed)
	require.Equal(t, d.DblIndirectUsed, got.DblIndirectUsed)
	require.Equal(t, d.Magic, got.Magic)
	require.Equal(t, d.Direct, got.Direct)
}

func TestIndirectEncodeDecodeRoundTrip(t *testing.T) {
	b := &inode.Indirect{Self: 1, Parent: 2, Length: 3}
	b.Blocks[0] = 55
	b.Blocks[124] = 66

	s := inode.EncodeIndirect(b)
	got := inode.DecodeIndirect(&s)
	require.Equal(t, *b, *got)
}

func TestDoubleIndirectEncodeDecodeRoundTrip(t *testing.T) {
	b := &inode.DoubleIndirect{Self: 1, Parent: 2, Length: 3}
	b.Indirect[0] = 77
	b.Indirect[124] = 88

	s := inode.EncodeDoubleIndirect(b)
	got := inode.DecodeDoubleIndirect(&s)
	require.Equal(t, *b, *got)
}

func TestBytesToSectorsRoundsUp(t *testing.T) {
	require.Equal(t, 0, inode.BytesToSectors(0))
	require.Equal(t, 1, inode.BytesToSectors(1))
	require.Equal(t, 1, inode.BytesToSectors(blockdevice.SectorSize))
	require.Equal(t, 2, inode.BytesToSectors(blockdevice.SectorSize+1))
}

func TestCapacityMatchesSpecBudget(t *testing.T) {
	require.Equal(t, 15760, inode.TotalSectors)
	require.Equal(t, 8069120, inode.MaxFileSize)
}
