package ordering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	id     int64
	order  int
	active bool
}

func (i *item) EntityID() int64 { return i.id }
func (i *item) Position() int   { return i.order }
func (i *item) Active() bool    { return i.active }
func (i *item) WithPosition(order int) *item {
	c := *i
	c.order = order
	return &c
}

func list(orders ...int) []*item {
	out := make([]*item, len(orders))
	for i, o := range orders {
		out[i] = &item{id: int64(i + 1), order: o, active: true}
	}
	return out
}

func TestApplyPlacesMovedEntityAheadOfTies(t *testing.T) {
	items := list(0, 1, 2)

	out := Apply(items, []Pair{{ID: 3, Order: 0}})

	require.Equal(t, []int64{3, 1, 2}, IDs(out))
	require.Equal(t, 0, out[0].Position())
	// untouched entities keep their order values and identity
	require.Same(t, items[0], out[1])
	require.Same(t, items[1], out[2])
	// the input is never mutated
	require.Equal(t, 2, items[2].Position())
}

func TestApplyBreaksTiesByPairOrder(t *testing.T) {
	out := Apply(list(0, 1, 2), []Pair{{ID: 1, Order: 2}})
	require.Equal(t, []int64{2, 1, 3}, IDs(out))

	out = Apply(list(0, 1, 2, 3), []Pair{{ID: 4, Order: 1}, {ID: 1, Order: 1}})
	require.Equal(t, []int64{4, 1, 2, 3}, IDs(out))
}

func TestApplyIsIdempotentAfterRanking(t *testing.T) {
	pairs := []Pair{{ID: 4, Order: 0}, {ID: 3, Order: 1}, {ID: 2, Order: 1}, {ID: 1, Order: 2}}

	first := Rank(Apply(list(0, 1, 2, 3), pairs))
	second := Rank(Apply(first, pairs))

	require.Equal(t, []int64{4, 3, 2, 1}, IDs(first))
	require.True(t, Equal(first, second))
}

func TestApplyIgnoresUnknownIDs(t *testing.T) {
	out := Apply(list(0, 1), []Pair{{ID: 99, Order: 0}})
	require.Equal(t, []int64{1, 2}, IDs(out))
}

func TestApplyIsIdempotentForFullPairSets(t *testing.T) {
	items := list(0, 1, 2, 3)
	pairs := []Pair{{ID: 4, Order: 0}, {ID: 2, Order: 1}, {ID: 1, Order: 1}, {ID: 3, Order: 2}}

	first := Apply(items, pairs)
	second := Apply(first, pairs)

	require.Equal(t, IDs(first), IDs(second))
	require.True(t, Equal(first, second))
}

func TestSortIsStable(t *testing.T) {
	items := list(1, 0, 1, 0)
	require.Equal(t, []int64{2, 4, 1, 3}, IDs(Sort(items)))
}

func TestRankProducesDensePositions(t *testing.T) {
	items := Sort(list(5, 5, 9, 0))
	ranked := Rank(items)

	require.Equal(t, []int64{4, 1, 2, 3}, IDs(ranked))
	for i, it := range ranked {
		require.Equal(t, i, it.Position())
	}
	require.Same(t, items[0], ranked[0], "entity already at its index keeps identity")
}

func TestVisibleFiltersAfterSorting(t *testing.T) {
	items := list(2, 0, 1)
	items[1].active = false

	visible := Visible(items)
	require.Equal(t, []int64{3, 1}, IDs(visible))
}

func TestDiffAndMove(t *testing.T) {
	items := list(0, 1, 2, 3)

	pairs, err := Move(items, 4, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []Pair{{ID: 4, Order: 1}, {ID: 2, Order: 2}, {ID: 3, Order: 3}}, pairs)

	require.Equal(t, []int64{1, 4, 2, 3}, IDs(Apply(items, pairs)))

	_, err = Move(items, 42, 0)
	require.Error(t, err)
	_, err = Move(items, 1, 4)
	require.Error(t, err)
}

func TestSequenceComparisons(t *testing.T) {
	a := list(0, 1)
	b := []*item{{id: 1, order: 0}, {id: 2, order: 5}}

	require.True(t, SameSequence(a, b))
	require.False(t, Equal(a, b))
	require.False(t, SameSequence(a, a[:1]))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]Pair{{ID: 1, Order: 0}, {ID: 2, Order: 1}}))
	require.Error(t, Validate(nil))
	require.Error(t, Validate([]Pair{{ID: 1, Order: 0}, {ID: 1, Order: 1}}))
	require.Error(t, Validate([]Pair{{ID: 1, Order: -1}}))
	require.Error(t, Validate([]Pair{{ID: 0, Order: 1}}))
}
