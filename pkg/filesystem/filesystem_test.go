package filesystem_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coursevm/blockfs/internal/mock"
	"github.com/coursevm/blockfs/pkg/bcache"
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/clock"
	"github.com/coursevm/blockfs/pkg/filesystem"
	"github.com/coursevm/blockfs/pkg/sectoralloc"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const deviceSectors = 256

func TestCreateOpenReadWriteRoundTrip(t *testing.T) {
	bda := blockdevice.NewMemoryBlockDevice(deviceSectors)
	alloc := sectoralloc.NewFreeListAllocator(deviceSectors)
	_, err := alloc.Allocate(1)
	require.NoError(t, err)

	fs := filesystem.New(bda, alloc, clock.SystemClock)
	require.NoError(t, fs.CreateInode(1, 5))

	h, err := fs.Open(1)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, fs.Flush())

	buf := make([]byte, 5)
	_, err = h.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
}

// TestRunLogsFlushFailuresFromTheFlusherGoroutine exercises the
// dedicated-goroutine flush path (spec.md §5/§9): Tick only ever posts
// to the flusher, so a failing writeback must surface through the
// injected ErrorLogger rather than from Tick's caller.
func TestRunLogsFlushFailuresFromTheFlusherGoroutine(t *testing.T) {
	ctrl := gomock.NewController(t)
	bda := mock.NewMockBlockDevice(ctrl)
	logger := mock.NewMockErrorLogger(ctrl)

	bda.EXPECT().WriteSector(gomock.Any(), gomock.Any()).DoAndReturn(
		func(blockdevice.SectorID, *blockdevice.Sector) error {
			return errors.New("injected device fault")
		},
	).AnyTimes()
	bda.EXPECT().ReadSector(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	logged := make(chan error, 1)
	logger.EXPECT().Log(gomock.Any()).Do(func(err error) {
		select {
		case logged <- err:
		default:
		}
	}).AnyTimes()

	fakeClock := clock.NewFakeClock(time.Unix(0, 0))
	alloc := sectoralloc.NewFreeListAllocator(deviceSectors)
	_, err := alloc.Allocate(1)
	require.NoError(t, err)

	fs := filesystem.New(bda, alloc, fakeClock).WithErrorLogger(logger)
	require.NoError(t, fs.CreateInode(1, 5))

	h, err := fs.Open(1)
	require.NoError(t, err)
	defer h.Close()
	_, err = h.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fs.Run(ctx)
		close(done)
	}()

	fakeClock.Advance(bcache.FlushInterval)
	fs.Tick()

	select {
	case err := <-logged:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Run to log the injected flush failure")
	}

	cancel()
	<-done
}
