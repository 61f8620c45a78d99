package runner

import (
	"context"
	"errors"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/manipulation"
	"github.com/hupe1980/testmesh/notification"
)

var errNilUnit = errors.New("unit is nil")

// Unit is something a Builder can turn into a Runner: a *Class, a
// *SuiteSpec, or an already built runner wrapped by Prebuilt.
type Unit interface {
	UnitName() string
}

// SuiteSpec declares a suite whose children are other units.
type SuiteSpec struct {
	Name  string
	Units []Unit

	BeforeClass []core.Fixture
	AfterClass  []core.Fixture
	ClassRules  []core.Rule

	// Ordering, if set, reorders the children at build time.
	Ordering manipulation.Ordering
}

// UnitName implements Unit.
func (s *SuiteSpec) UnitName() string { return s.Name }

type prebuilt struct {
	Runner
}

func (p prebuilt) UnitName() string { return p.Description().DisplayName() }

// Prebuilt wraps r so it can be used as a child unit of a SuiteSpec.
func Prebuilt(r Runner) Unit { return prebuilt{Runner: r} }

// Suite is a composite runner whose children are runners.
type Suite struct {
	*ParentRunner[Runner]
}

// NewSuite creates a suite named name running children in order.
func NewSuite(name string, children []Runner, optFns ...func(o *ParentOptions)) *Suite {
	return &Suite{ParentRunner: NewParentRunner[Runner](name, children, suiteStrategy{}, optFns...)}
}

type suiteStrategy struct{}

func (suiteStrategy) DescribeChild(r Runner) *core.Description { return r.Description() }

func (suiteStrategy) IsIgnored(Runner) bool { return false }

func (suiteStrategy) RunChild(ctx context.Context, r Runner, n *notification.Notifier) error {
	return r.Run(ctx, n)
}
