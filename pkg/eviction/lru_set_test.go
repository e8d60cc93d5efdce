package eviction_test

import (
	"testing"

	"github.com/coursevm/blockfs/pkg/eviction"
	"github.com/stretchr/testify/require"
)

func TestLRUSetOrdering(t *testing.T) {
	set := eviction.NewLRUSet[int]()

	for _, v := range []int{1, 2, 3} {
		set.Insert(v)
	}

	// Access sequence a, b, c, a with capacity 3, then d: the entry
	// evicted first should be b (spec.md §8 LRU discipline example).
	set.Touch(1)

	require.Equal(t, 3, set.Len())
	require.Equal(t, 2, set.Peek())
	set.Remove()

	require.Equal(t, 3, set.Peek())
	set.Remove()

	require.Equal(t, 1, set.Peek())
	set.Remove()

	require.Equal(t, 0, set.Len())
}

func TestLRUSetInsertAfterTouch(t *testing.T) {
	set := eviction.NewLRUSet[string]()
	for _, v := range []string{"a", "b", "c"} {
		set.Insert(v)
	}
	set.Touch("a")
	set.Insert("d")

	// Eviction order should now be b, c, a, d.
	for _, want := range []string{"b", "c", "a", "d"} {
		require.Equal(t, want, set.Peek())
		set.Remove()
	}
}
