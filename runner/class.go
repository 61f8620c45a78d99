package runner

import (
	"context"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/manipulation"
	"github.com/hupe1980/testmesh/notification"
)

// ClassRunner runs the tests of a Class. Each test is a leaf; its pipeline
// is rebuilt from the class plan every time it runs.
type ClassRunner struct {
	*ParentRunner[*Test]
	class *Class
}

// NewClassRunner validates class and creates its runner. Every structural
// problem is reported at once in a *core.InitializationError.
func NewClassRunner(class *Class, optFns ...func(o *Options)) (*ClassRunner, error) {
	if class == nil {
		return nil, core.NewInitializationError(errNilUnit)
	}

	if errs := class.validate(); len(errs) > 0 {
		return nil, core.NewInitializationError(errs...)
	}

	opts := newOptions(optFns...)

	strategy := &classStrategy{
		class: class,
		descs: make(map[*Test]*core.Description, len(class.Tests)),
		log:   newLoggerAdapter(opts.Logger),
	}

	for _, t := range class.Tests {
		strategy.descs[t] = core.NewTestDescription(class.Name, t.Name)
	}

	r := &ClassRunner{
		ParentRunner: NewParentRunner(class.Name, class.Tests, strategy, func(o *ParentOptions) {
			o.Options = opts
			o.BeforeClass = class.BeforeClass
			o.AfterClass = class.AfterClass
			o.ClassRules = class.ClassRules
		}),
		class: class,
	}

	if class.Ordering != nil {
		if err := r.OrderWith(manipulation.NewOrderer(class.Ordering)); err != nil {
			return nil, core.NewInitializationError(err)
		}
	}

	return r, nil
}

// Class returns the declaration the runner was built from.
func (r *ClassRunner) Class() *Class { return r.class }

type classStrategy struct {
	class *Class
	descs map[*Test]*core.Description
	log   *loggerAdapter
}

func (s *classStrategy) DescribeChild(t *Test) *core.Description { return s.descs[t] }

func (s *classStrategy) IsIgnored(t *Test) bool { return t.Ignored }

func (s *classStrategy) RunChild(ctx context.Context, t *Test, n *notification.Notifier) error {
	d := s.descs[t]

	if t.Ignored {
		return n.FireTestIgnored(d)
	}

	return runLeaf(ctx, planStatement(s.class, d), d, n, s.log)
}
