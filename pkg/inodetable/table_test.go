package inodetable_test

import (
	"testing"

	"github.com/coursevm/blockfs/pkg/bcache"
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/clock"
	"github.com/coursevm/blockfs/pkg/inode"
	"github.com/coursevm/blockfs/pkg/inodetable"
	"github.com/coursevm/blockfs/pkg/sectoralloc"
	"github.com/stretchr/testify/require"
)

const deviceSectors = 20000

func newFixture(t *testing.T) (*bcache.Cache, sectoralloc.Allocator) {
	t.Helper()
	bda := blockdevice.NewMemoryBlockDevice(deviceSectors)
	c := bcache.New(bda, clock.SystemClock, bcache.Capacity)
	alloc := sectoralloc.NewFreeListAllocator(deviceSectors)
	_, err := alloc.Allocate(1)
	require.NoError(t, err)
	return c, alloc
}

func TestOpenSameSectorTwiceSharesEntry(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 10))

	table := inodetable.New(c, alloc)
	h1, err := table.Open(1)
	require.NoError(t, err)
	h2, err := table.Open(1)
	require.NoError(t, err)

	_, err = h1.WriteAt([]byte("hi"), 0)
	require.NoError(t, err)
	buf := make([]byte, 2)
	n, err := h2.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "hi", string(buf))

	require.NoError(t, h1.Close())
	require.NoError(t, h2.Close())
}

func TestDenyWriteBlocksUntilAllowed(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 10))

	table := inodetable.New(c, alloc)
	h, err := table.Open(1)
	require.NoError(t, err)
	defer h.Close()

	h.DenyWrite()
	n, err := h.WriteAt([]byte("x"), 0)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	h.AllowWrite()
	n, err = h.WriteAt([]byte("x"), 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRemoveDeferredUntilLastClose(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 1, 10))

	table := inodetable.New(c, alloc)
	h1, err := table.Open(1)
	require.NoError(t, err)
	h2, err := table.Open(1)
	require.NoError(t, err)

	h1.Remove()
	// Sector 1 cannot have been released yet: a second opener still
	// references it.
	require.NoError(t, h1.Close())

	// Still alive through h2.
	require.Equal(t, uint32(10), h2.Length())

	require.NoError(t, h2.Close())
}

func TestInumberIsTheOpenedSector(t *testing.T) {
	c, alloc := newFixture(t)
	require.NoError(t, inode.Create(c, alloc, 5, 0))

	table := inodetable.New(c, alloc)
	h, err := table.Open(5)
	require.NoError(t, err)
	defer h.Close()

	require.Equal(t, blockdevice.SectorID(5), h.Inumber())
}
