package runner

import (
	"fmt"

	"github.com/hupe1980/testmesh/manipulation"
)

// Request is a lazily built description of what to run. Filters, sorters
// and orderings are applied in the order they were added when Runner is
// called.
type Request struct {
	build func() (Runner, error)
}

// RunnerRequest wraps an existing runner.
func RunnerRequest(r Runner) *Request {
	return &Request{build: func() (Runner, error) { return r, nil }}
}

// UnitRequest builds u with b.
func UnitRequest(b *Builder, u Unit) *Request {
	return &Request{build: func() (Runner, error) { return b.Build(u), nil }}
}

// Aggregate runs units as the children of one suite named name.
func Aggregate(b *Builder, name string, units ...Unit) *Request {
	return &Request{build: func() (Runner, error) {
		return NewSuite(name, b.BuildAll(units...), func(o *ParentOptions) { o.Options = b.opts }), nil
	}}
}

// FilterWith restricts the request to the tests f accepts. If nothing is
// left the resulting runner reports the mismatch as a failure.
func (r *Request) FilterWith(f manipulation.Filter) *Request {
	prev := r.build

	return &Request{build: func() (Runner, error) {
		runner, err := prev()
		if err != nil {
			return nil, err
		}

		if err := manipulation.ApplyFilter(f, runner); err != nil {
			if manipulation.IsNoTestsRemain(err) {
				return NewErrorReportingRunner("Filter", fmt.Errorf("no tests found matching %s from %s", f.Describe(), runner.Description())), nil
			}

			return nil, err
		}

		return runner, nil
	}}
}

// SortWith sorts the request with s.
func (r *Request) SortWith(s *manipulation.Sorter) *Request {
	prev := r.build

	return &Request{build: func() (Runner, error) {
		runner, err := prev()
		if err != nil {
			return nil, err
		}

		s.Apply(runner)

		return runner, nil
	}}
}

// OrderWith orders the request with o. An ordering that is not a
// permutation makes Runner fail with a *core.InvalidOrderingError.
func (r *Request) OrderWith(o manipulation.Ordering) *Request {
	prev := r.build

	return &Request{build: func() (Runner, error) {
		runner, err := prev()
		if err != nil {
			return nil, err
		}

		if err := manipulation.NewOrderer(o).Apply(runner); err != nil {
			return nil, err
		}

		return runner, nil
	}}
}

// Runner builds the runner of the request.
func (r *Request) Runner() (Runner, error) {
	return r.build()
}
