package runner

import (
	"fmt"
	"maps"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/manipulation"
)

// BuildContext tracks the suites currently being built so a suite that
// contains itself, directly or not, is detected. It is immutable: Enter
// returns a new context and leaves the receiver untouched.
type BuildContext struct {
	parents map[string]struct{}
}

// Enter returns the context for building the children of the suite name.
func (c BuildContext) Enter(name string) (BuildContext, error) {
	if _, ok := c.parents[name]; ok {
		return c, core.NewInitializationError(
			fmt.Errorf("suite '%s' (possibly indirectly) contains itself as a child suite", name),
		)
	}

	next := make(map[string]struct{}, len(c.parents)+1)
	maps.Copy(next, c.parents)
	next[name] = struct{}{}

	return BuildContext{parents: next}, nil
}

// Builder turns units into runners. Build never fails: a unit that cannot
// be built becomes an ErrorReportingRunner.
type Builder struct {
	opts Options
	*loggerAdapter
}

// NewBuilder creates a Builder. The options are passed to every runner it
// creates.
func NewBuilder(optFns ...func(o *Options)) *Builder {
	opts := newOptions(optFns...)

	return &Builder{opts: opts, loggerAdapter: newLoggerAdapter(opts.Logger)}
}

// Build creates the runner for u.
func (b *Builder) Build(u Unit) Runner {
	defer b.StartTimer("build runner")()

	return b.build(BuildContext{}, u)
}

// BuildAll creates one runner per unit, in order.
func (b *Builder) BuildAll(units ...Unit) []Runner {
	defer b.StartTimer("build runners")()

	return b.buildAll(BuildContext{}, units)
}

func (b *Builder) buildAll(ctx BuildContext, units []Unit) []Runner {
	runners := make([]Runner, 0, len(units))
	for _, u := range units {
		runners = append(runners, b.build(ctx, u))
	}

	return runners
}

func (b *Builder) build(ctx BuildContext, u Unit) Runner {
	switch unit := u.(type) {
	case nil:
		return NewErrorReportingRunner("null", core.NewInitializationError(errNilUnit))
	case prebuilt:
		return unit.Runner
	case *Class:
		r, err := NewClassRunner(unit, b.withOptions)
		if err != nil {
			return b.failed(unit.Name, err)
		}

		return r
	case *SuiteSpec:
		return b.buildSuite(ctx, unit)
	default:
		return b.failed(u.UnitName(), core.NewInitializationError(fmt.Errorf("unsupported unit type %T", u)))
	}
}

func (b *Builder) buildSuite(ctx BuildContext, spec *SuiteSpec) Runner {
	inner, err := ctx.Enter(spec.Name)
	if err != nil {
		return b.failed(spec.Name, err)
	}

	var errs []error

	if spec.Name == "" {
		errs = append(errs, fmt.Errorf("suite has no name"))
	}

	if len(spec.Units) == 0 {
		errs = append(errs, fmt.Errorf("suite %s has no children", spec.Name))
	}

	errs = append(errs, checkFixtures("before class", spec.BeforeClass)...)
	errs = append(errs, checkFixtures("after class", spec.AfterClass)...)
	errs = append(errs, checkRules("class rule", spec.ClassRules)...)

	if len(errs) > 0 {
		return b.failed(spec.Name, core.NewInitializationError(errs...))
	}

	children := b.buildAll(inner, spec.Units)

	seen := make(map[string]bool, len(children))
	for _, c := range children {
		key := c.Description().Key()
		if seen[key] {
			errs = append(errs, fmt.Errorf("suite %s contains %s more than once", spec.Name, c.Description().DisplayName()))
		}

		seen[key] = true
	}

	if len(errs) > 0 {
		return b.failed(spec.Name, core.NewInitializationError(errs...))
	}

	s := NewSuite(spec.Name, children, func(o *ParentOptions) {
		o.Options = b.opts
		o.BeforeClass = spec.BeforeClass
		o.AfterClass = spec.AfterClass
		o.ClassRules = spec.ClassRules
	})

	if spec.Ordering != nil {
		if err := s.OrderWith(manipulation.NewOrderer(spec.Ordering)); err != nil {
			return b.failed(spec.Name, core.NewInitializationError(err))
		}
	}

	return s
}

func (b *Builder) failed(name string, err error) Runner {
	b.LogWarn("unit could not be built", "unit", name, "error", err)
	return NewErrorReportingRunner(name, err)
}

func (b *Builder) withOptions(o *Options) { *o = b.opts }
