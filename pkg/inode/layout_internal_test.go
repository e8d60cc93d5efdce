package inode

import (
	"testing"

	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/stretchr/testify/require"
)

// TestOnDiskStructuresEncodeToExactlyOneSector asserts against the
// intermediate bytes.Buffer length writeDisk/writeIndirect/
// writeDoubleIndirect actually produce, not against len() on the
// fixed-size blockdevice.Sector array EncodeDisk et al. return — the
// array's length is always SectorSize regardless of what was written
// into it, so asserting on it can never catch a layout that encodes to
// the wrong size before the copy into the array silently truncates or
// zero-pads.
func TestOnDiskStructuresEncodeToExactlyOneSector(t *testing.T) {
	require.Equal(t, blockdevice.SectorSize, encodedSize(&Disk{}))
	require.Equal(t, blockdevice.SectorSize, encodedSize(&Indirect{}))
	require.Equal(t, blockdevice.SectorSize, encodedSize(&DoubleIndirect{}))
}
