package manipulation

import (
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/testmesh/core"
)

// Ordering computes a permutation of a list of sibling Descriptions.
// Implementations are untrusted: every result is validated by an Orderer.
type Ordering interface {
	OrderItems(descs []*core.Description) []*core.Description
}

// OrderingFunc adapts a function to the Ordering interface.
type OrderingFunc func(descs []*core.Description) []*core.Description

// OrderItems calls f(descs).
func (f OrderingFunc) OrderItems(descs []*core.Description) []*core.Description { return f(descs) }

// Orderable is implemented by runners whose children can be reordered.
type Orderable interface {
	OrderWith(o *Orderer) error
}

// Orderer applies an Ordering and rejects results that are not a true
// permutation of the input.
type Orderer struct {
	ordering Ordering
}

// NewOrderer wraps ordering.
func NewOrderer(ordering Ordering) *Orderer {
	return &Orderer{ordering: ordering}
}

// Order returns the validated ordering of descs. The input slice is never
// modified.
func (o *Orderer) Order(descs []*core.Description) ([]*core.Description, error) {
	ordered := o.ordering.OrderItems(slices.Clone(descs))

	if err := ValidatePermutation(descs, ordered); err != nil {
		return nil, err
	}

	return ordered, nil
}

// Apply orders target if it is Orderable.
func (o *Orderer) Apply(target any) error {
	if ot, ok := target.(Orderable); ok {
		return ot.OrderWith(o)
	}

	return nil
}

// ValidatePermutation checks that output holds exactly the elements of input
// (by structural identity), in any order. Violations are checked in a fixed
// order: added, then duplicated, then removed items.
func ValidatePermutation(input, output []*core.Description) error {
	want := make(map[string]int, len(input))
	for _, d := range input {
		want[d.Key()]++
	}

	seen := make(map[string]int, len(output))
	for _, d := range output {
		if d == nil {
			return &core.InvalidOrderingError{Kind: core.OrderingAddedItems}
		}

		if _, ok := want[d.Key()]; !ok {
			return &core.InvalidOrderingError{Kind: core.OrderingAddedItems}
		}

		seen[d.Key()]++
	}

	for key, n := range seen {
		if n > want[key] {
			return &core.InvalidOrderingError{Kind: core.OrderingDuplicatedItems}
		}
	}

	if len(output) < len(input) {
		return &core.InvalidOrderingError{Kind: core.OrderingRemovedItems}
	}

	return nil
}

// Shuffled returns an Ordering that shuffles siblings with r. The same seed
// yields the same order.
func Shuffled(r *rand.Rand) Ordering {
	return OrderingFunc(func(descs []*core.Description) []*core.Description {
		r.Shuffle(len(descs), func(i, j int) { descs[i], descs[j] = descs[j], descs[i] })
		return descs
	})
}

// Reversed reverses the sibling order.
var Reversed Ordering = OrderingFunc(func(descs []*core.Description) []*core.Description {
	slices.Reverse(descs)
	return descs
})
