// Package filesystem wires the buffer cache, sector allocator, and
// inode table into the single value a directory layer (or anything
// else external to this module) drives, replacing the process-wide
// mutable globals the original source used (spec.md §9).
package filesystem

import (
	"context"

	"github.com/coursevm/blockfs/pkg/bcache"
	"github.com/coursevm/blockfs/pkg/blockdevice"
	"github.com/coursevm/blockfs/pkg/clock"
	"github.com/coursevm/blockfs/pkg/fserrors"
	"github.com/coursevm/blockfs/pkg/inode"
	"github.com/coursevm/blockfs/pkg/inodetable"
	"github.com/coursevm/blockfs/pkg/sectoralloc"
)

// Filesystem owns one buffer cache, one inode table, and a reference to
// a sector allocator. It exposes exactly the operations spec.md §6
// lists as exposed to collaborators (the directory layer, in
// particular).
type Filesystem struct {
	cache *bcache.Cache
	table *inodetable.Table
	alloc sectoralloc.Allocator
	clk   clock.Clock

	flushRequests chan struct{}
	errorLogger   fserrors.ErrorLogger
}

// New wires bda, sa, and clk into a Filesystem with a Capacity-sized
// buffer cache and a fresh, empty inode table. This is the
// reimplementation of the original's inode_init plus the module-level
// cache it implicitly shared.
func New(bda blockdevice.BlockDevice, sa sectoralloc.Allocator, clk clock.Clock) *Filesystem {
	c := bcache.New(bda, clk, bcache.Capacity)
	return &Filesystem{
		cache:         c,
		table:         inodetable.New(c, sa),
		alloc:         sa,
		clk:           clk,
		flushRequests: make(chan struct{}, 1),
		errorLogger:   fserrors.DefaultErrorLogger,
	}
}

// WithErrorLogger overrides the ErrorLogger used to report failures on
// the asynchronous flusher path started by Run.
func (fs *Filesystem) WithErrorLogger(l fserrors.ErrorLogger) *Filesystem {
	fs.errorLogger = l
	return fs
}

// CreateInode initializes a fresh inode of length bytes at sector,
// mirroring spec.md §6's inode_create.
func (fs *Filesystem) CreateInode(sector blockdevice.SectorID, length uint32) error {
	return inode.Create(fs.cache, fs.alloc, sector, length)
}

// Open returns a Handle onto the inode at sector, mirroring spec.md §6's
// inode_open.
func (fs *Filesystem) Open(sector blockdevice.SectorID) (*inodetable.Handle, error) {
	return fs.table.Open(sector)
}

// Flush evicts every resident cache entry, writing dirty ones through
// the block device first, mirroring spec.md §6's cache.flush.
func (fs *Filesystem) Flush() error {
	return fs.cache.Flush()
}

// Tick requests a periodic-flush check. It exists for a caller that
// plays the role of the timer interrupt path directly (rather than
// relying on Run's own clock.Ticker below). It touches neither the clock
// nor the cache and never blocks: it only posts a request to the loop in
// Run, which performs the cache's timestamp check and any due flush. A
// request made while another is still pending is dropped.
func (fs *Filesystem) Tick() {
	select {
	case fs.flushRequests <- struct{}{}:
	default:
	}
}

// Run is the flusher loop: in the calling goroutine it serves the
// requests Tick posts, running the cache's periodic-flush check for
// each and reporting failures through the ErrorLogger, and blocks until
// ctx is cancelled, issuing one final Flush before returning. Callers
// start it on a goroutine of its own. This realizes the §5/§9
// requirement that the actual flush run outside interrupt/timer-callback
// context.
//
// Run also owns a clock.Ticker of its own, obtained from clk.NewTicker,
// so that a Filesystem drives its own periodic flush even when nothing
// external ever calls Tick — the hardware timer interrupt a real OS
// would wire this to is outside this module's scope.
func (fs *Filesystem) Run(ctx context.Context) error {
	ticker, tickerCh := fs.clk.NewTicker(bcache.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fs.Flush()
		case <-tickerCh:
			fs.Tick()
		case <-fs.flushRequests:
			if _, err := fs.cache.Tick(); err != nil {
				fs.errorLogger.Log(err)
			}
		}
	}
}
