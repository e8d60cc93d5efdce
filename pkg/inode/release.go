package inode

import "github.com/coursevm/blockfs/pkg/sectoralloc"

// ReleaseAllocatedSectors returns every data, indirect, and
// doubly-indirect sector reachable from this inode back to alloc. It is
// called once, when the inode table closes an inode marked removed with
// no remaining openers (spec.md §4.5 "close"). The inode's own record
// sector is the table's responsibility, not this method's. Any indirect
// children this Index never happened to translate through are read
// through the cache here so nothing reachable is leaked.
func (idx *Index) ReleaseAllocatedSectors(alloc sectoralloc.Allocator) error {
	for i := 0; i < DirectBlocks; i++ {
		if idx.disk.Direct[i] != 0 {
			alloc.Release(idx.disk.Direct[i], 1)
		}
	}

	if idx.disk.IndirectUsed != 0 {
		if idx.indirect == nil {
			if err := idx.loadIndirect(); err != nil {
				return err
			}
		}
		for _, s := range idx.indirect.Blocks {
			if s != 0 {
				alloc.Release(s, 1)
			}
		}
		alloc.Release(idx.disk.Indirect, 1)
	}

	if idx.disk.DblIndirectUsed != 0 {
		if idx.dblIndirect == nil {
			if err := idx.loadDblIndirect(); err != nil {
				return err
			}
		}
		for i, childSector := range idx.dblIndirect.Indirect {
			if childSector == 0 {
				continue
			}
			child, err := idx.loadDblChild(i)
			if err != nil {
				return err
			}
			for _, s := range child.Blocks {
				if s != 0 {
					alloc.Release(s, 1)
				}
			}
			alloc.Release(childSector, 1)
		}
		alloc.Release(idx.disk.DblIndirect, 1)
	}
	return nil
}
