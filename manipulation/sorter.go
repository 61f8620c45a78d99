package manipulation

import (
	"slices"
	"strings"

	"github.com/hupe1980/testmesh/core"
)

// Sorter orders the immediate children of a composite by a comparison.
type Sorter struct {
	compare func(a, b *core.Description) int
}

// Sortable is implemented by runners whose children can be sorted. A
// composite sorts only its own children and hands the sorter to each child,
// which decides on its own whether to honor it.
type Sortable interface {
	Sort(s *Sorter)
}

// NewSorter creates a Sorter from a three-way comparison.
func NewSorter(compare func(a, b *core.Description) int) *Sorter {
	return &Sorter{compare: compare}
}

// Alphanumeric sorts by display name.
var Alphanumeric = NewSorter(func(a, b *core.Description) int {
	return strings.Compare(a.DisplayName(), b.DisplayName())
})

// NullSorter keeps the existing order.
var NullSorter = NewSorter(func(*core.Description, *core.Description) int { return 0 })

// Compare compares two Descriptions.
func (s *Sorter) Compare(a, b *core.Description) int { return s.compare(a, b) }

// OrderItems returns a stably sorted copy of descs. It makes every Sorter
// usable as an Ordering.
func (s *Sorter) OrderItems(descs []*core.Description) []*core.Description {
	out := slices.Clone(descs)
	slices.SortStableFunc(out, s.compare)

	return out
}

// Apply sorts target if it is Sortable.
func (s *Sorter) Apply(target any) {
	if st, ok := target.(Sortable); ok {
		st.Sort(s)
	}
}
