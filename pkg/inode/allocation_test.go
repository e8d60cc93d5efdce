package inode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectorsToLayoutDistributesAcrossTiers(t *testing.T) {
	cases := []struct {
		n    int
		want Layout
	}{
		{0, Layout{}},
		{5, Layout{Direct: 5}},
		{10, Layout{Direct: 10}},
		{12, Layout{Direct: 10, Indirect: 2}},
		{135, Layout{Direct: 10, Indirect: 125}},
		{136, Layout{Direct: 10, Indirect: 125, Dbl: 0, Remainder: 1}},
		{260, Layout{Direct: 10, Indirect: 125, Dbl: 1, Remainder: 0}},
		{261, Layout{Direct: 10, Indirect: 125, Dbl: 1, Remainder: 1}},
		{TotalSectors, Layout{Direct: 10, Indirect: 125, Dbl: 125, Remainder: 0}},
	}
	for _, c := range cases {
		got, err := sectorsToLayout(c.n)
		require.NoError(t, err)
		require.Equal(t, c.want, got, "n=%d", c.n)
	}
}

func TestSectorsToLayoutFailsWhenTooLarge(t *testing.T) {
	_, err := sectorsToLayout(TotalSectors + 1)
	require.Error(t, err)
}

func TestIndirectChildrenCountsPartialChild(t *testing.T) {
	require.Equal(t, 0, Layout{}.indirectChildren())
	require.Equal(t, 1, Layout{Remainder: 1}.indirectChildren())
	require.Equal(t, 2, Layout{Dbl: 2}.indirectChildren())
	require.Equal(t, 3, Layout{Dbl: 2, Remainder: 1}.indirectChildren())
}
