// Package ordering defines how user-sortable collections are sequenced. The same rules
// run in the admin client's optimistic updates and in the server's persisted reorder, so
// both sides agree on the display sequence produced by a set of position changes.
package ordering

import (
	"fmt"
	"sort"
)

// Entity is a record that takes part in a user-sortable list. WithPosition must return a
// copy: callers keep the original around as a rollback snapshot.
type Entity[T any] interface {
	EntityID() int64
	Position() int
	Active() bool
	WithPosition(order int) T
}

// Pair assigns a new position to one entity. It is the wire shape of a reorder request.
type Pair struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

// Sort returns a new slice ordered by ascending position. The sort is stable, so entities
// sharing a position keep their relative input order.
func Sort[T Entity[T]](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position() < out[j].Position()
	})
	return out
}

// Apply assigns the positions named in pairs and re-sorts. Entities absent from pairs keep
// their position; pairs naming unknown ids are ignored. Where positions tie, entities named
// in pairs go first, in the order the pairs list them, so the outcome depends only on the
// request and applying the same full pair set twice yields the same sequence.
func Apply[T Entity[T]](items []T, pairs []Pair) []T {
	type target struct {
		order int
		rank  int
	}
	next := make(map[int64]target, len(pairs))
	for i, p := range pairs {
		next[p.ID] = target{order: p.Order, rank: i}
	}

	type slot struct {
		item T
		rank int
	}

	slots := make([]slot, len(items))
	for i, item := range items {
		s := slot{item: item, rank: len(pairs)}
		if t, ok := next[item.EntityID()]; ok {
			s.rank = t.rank
			if t.order != item.Position() {
				s.item = item.WithPosition(t.order)
			}
		}
		slots[i] = s
	}

	sort.SliceStable(slots, func(i, j int) bool {
		pi, pj := slots[i].item.Position(), slots[j].item.Position()
		if pi != pj {
			return pi < pj
		}
		return slots[i].rank < slots[j].rank
	})

	out := make([]T, len(slots))
	for i, s := range slots {
		out[i] = s.item
	}
	return out
}

// Rank assigns dense, contiguous positions 0..n-1 following the order of sorted.
// Entities already at their index are returned as-is.
func Rank[T Entity[T]](sorted []T) []T {
	out := make([]T, len(sorted))
	for i, item := range sorted {
		if item.Position() != i {
			item = item.WithPosition(i)
		}
		out[i] = item
	}
	return out
}

// Visible sorts first and only then drops inactive entities, so an entity's place in the
// sequence does not depend on which siblings happen to be active.
func Visible[T Entity[T]](items []T) []T {
	sorted := Sort(items)
	out := make([]T, 0, len(sorted))
	for _, item := range sorted {
		if item.Active() {
			out = append(out, item)
		}
	}
	return out
}

// IDs lists entity ids in slice order.
func IDs[T Entity[T]](items []T) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.EntityID()
	}
	return ids
}

// SameSequence reports whether both lists show the same ids in the same order.
func SameSequence[T Entity[T]](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].EntityID() != b[i].EntityID() {
			return false
		}
	}
	return true
}

// Equal reports whether both lists carry the same ids at the same positions in the same order.
func Equal[T Entity[T]](a, b []T) bool {
	if !SameSequence(a, b) {
		return false
	}
	for i := range a {
		if a[i].Position() != b[i].Position() {
			return false
		}
	}
	return true
}

// Diff returns the pairs needed to turn before into after: one pair for every entity of
// after whose position differs from (or is missing in) before.
func Diff[T Entity[T]](before, after []T) []Pair {
	prev := make(map[int64]int, len(before))
	for _, item := range before {
		prev[item.EntityID()] = item.Position()
	}

	var pairs []Pair
	for _, item := range after {
		if pos, ok := prev[item.EntityID()]; ok && pos == item.Position() {
			continue
		}
		pairs = append(pairs, Pair{ID: item.EntityID(), Order: item.Position()})
	}
	return pairs
}

// Move computes the pairs that place entity id at index to of the sorted list, with the
// whole list densely ranked afterwards. Only entities whose position changes are returned.
func Move[T Entity[T]](items []T, id int64, to int) ([]Pair, error) {
	sorted := Sort(items)

	from := -1
	for i, item := range sorted {
		if item.EntityID() == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("ordering: entity %d not in list", id)
	}
	if to < 0 || to >= len(sorted) {
		return nil, fmt.Errorf("ordering: index %d out of range [0,%d)", to, len(sorted))
	}

	moved := sorted[from]
	rest := append(append([]T{}, sorted[:from]...), sorted[from+1:]...)
	reordered := append(append(append([]T{}, rest[:to]...), moved), rest[to:]...)

	return Diff(sorted, Rank(reordered)), nil
}

// Validate rejects empty pair sets, duplicate ids and negative positions.
func Validate(pairs []Pair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("ordering: no positions supplied")
	}
	seen := make(map[int64]struct{}, len(pairs))
	for _, p := range pairs {
		if p.ID <= 0 {
			return fmt.Errorf("ordering: invalid id %d", p.ID)
		}
		if p.Order < 0 {
			return fmt.Errorf("ordering: negative position %d for id %d", p.Order, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("ordering: id %d listed more than once", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
