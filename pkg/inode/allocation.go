package inode

import "github.com/coursevm/blockfs/pkg/fserrors"

// Layout is the result of distributing a target sector count across the
// three fan-out tiers, exactly as the original's sector_allocation does:
// fill direct first, then the single indirect block, then as many full
// indirect children of the double-indirect block as fit, with Remainder
// holding the count for a final, partially-filled indirect child.
type Layout struct {
	Direct    int
	Indirect  int
	Dbl       int
	Remainder int
}

// sectorsToLayout computes the fan-out distribution for n target
// sectors. It returns an error classified as FileTooLarge if n exceeds
// TotalSectors.
func sectorsToLayout(n int) (Layout, error) {
	var l Layout
	rem := n

	l.Direct = min(rem, DirectBlocks)
	rem -= l.Direct

	l.Indirect = min(rem, IndirectBlocks)
	rem -= l.Indirect

	l.Dbl = min(rem/IndirectBlocks, DoubleIndirectFans)
	rem -= l.Dbl * IndirectBlocks

	l.Remainder = rem % IndirectBlocks
	rem -= l.Remainder

	if rem != 0 || n > TotalSectors {
		return Layout{}, fserrors.Newf(fserrors.FileTooLarge, "%d sectors exceeds the %d sectors an inode can address", n, TotalSectors)
	}
	return l, nil
}

// indirectChildren reports how many Indirect children the
// doubly-indirect block must hold for a given layout: l.Dbl full
// children plus one more, partially filled, when l.Remainder is
// nonzero.
func (l Layout) indirectChildren() int {
	n := l.Dbl
	if l.Remainder > 0 {
		n++
	}
	return n
}
