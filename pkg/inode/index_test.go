package inode_test

import (
	"testing"

	"github.com/coursevm/blockfs/pkg/bcache"
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/clock"
	"github.com/coursevm/blockfs/pkg/inode"
	"github.com/coursevm/blockfs/pkg/sectoralloc"
	"github.com/stretchr/testify/require"
)

const deviceSectors = 20000

func newFixture(t *testing.T) (*bcache.Cache, sectoralloc.Allocator) {
	t.Helper()
	bda := blockdevice.NewMemoryBlockDevice(deviceSectors)
	c := bcache.New(bda, clock.SystemClock, bcache.Capacity)
	alloc := sectoralloc.NewFreeListAllocator(deviceSectors)
	// Reserve sector 0 so that alloc never hands out 0, the value an
	// unused pointer holds.
	_, err := alloc.Allocate(1)
	require.NoError(t, err)
	return c, alloc
}

func TestCreateSmallFileThenTranslateDirectBlocks(t *testing.T) {
	c, alloc := newFixture(t)

	require.NoError(t, inode.Create(c, alloc, 1, 10))

	idx, err := inode.Open(c, alloc, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(10), idx.Length())

	sector, err := idx.Translate(0, false)
	require.NoError(t, err)
	require.NotZero(t, sector)
}

func TestTranslateReadPastLengthIsEndOfFile(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 10))

	idx, err := inode.Open(c, alloc, 1)
	require.NoError(t, err)

	_, err = idx.Translate(10, false)
	require.True(t, inode.IsEndOfFile(err))
}

// TestTranslateIndirectRegion is scenario 3 from spec.md §8: a file of
// length 512*12 = 6144 bytes; block 11 (offset 5632) lives in the
// indirect region at index 1.
func TestTranslateIndirectRegion(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 512*12))

	idx, err := inode.Open(c, alloc, 1)
	require.NoError(t, err)

	sector, err := idx.Translate(5632, false)
	require.NoError(t, err)
	require.NotZero(t, sector)
}

// TestGrowthCrossesIntoDoubleIndirect is scenario 4 from spec.md §8: an
// initially empty file grown by a write at offset 70,000 must allocate
// across direct, indirect, and doubly-indirect tiers.
func TestGrowthCrossesIntoDoubleIndirect(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 0))

	idx, err := inode.Open(c, alloc, 1)
	require.NoError(t, err)

	sector, err := idx.Translate(70000, true)
	require.NoError(t, err)
	require.NotZero(t, sector)
	require.Equal(t, uint32(70001), idx.Length())

	// Every earlier block must have been allocated (reading any of
	// them back must not fail).
	_, err = idx.Translate(0, false)
	require.NoError(t, err)
	_, err = idx.Translate(135*blockdevice.SectorSize, false)
	require.NoError(t, err)
}

func TestTranslateFileTooLargeOffset(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 0))

	idx, err := inode.Open(c, alloc, 1)
	require.NoError(t, err)

	_, err = idx.Translate(inode.MaxFileSize, true)
	require.Error(t, err)
}

func TestCreateRollsBackOnAllocationFailure(t *testing.T) {
	bda := blockdevice.NewMemoryBlockDevice(deviceSectors)
	c := bcache.New(bda, clock.SystemClock, bcache.Capacity)
	// Only enough sectors for the ten direct blocks and the indirect
	// block itself; a file needing indirect data sectors should fail
	// and release what it obtained.
	alloc := sectoralloc.NewFreeListAllocator(12)
	_, err := alloc.Allocate(1) // sector 0, never handed out
	require.NoError(t, err)

	err = inode.Create(c, alloc, 1, 512*20)
	require.Error(t, err)

	// All sectors but the reserved one should be free again.
	s, err := alloc.Allocate(11)
	require.NoError(t, err)
	require.NotZero(t, s)
}
