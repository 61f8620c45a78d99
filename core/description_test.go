package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptionTestCount(t *testing.T) {
	leafA := NewTestDescription("C", "a")
	leafB := NewTestDescription("C", "b")
	leafC := NewTestDescription("D", "c")

	tests := []struct {
		name string
		desc *Description
		want int
	}{
		{name: "leaf", desc: leafA, want: 1},
		{name: "flat suite", desc: NewSuiteDescription("C", leafA, leafB), want: 2},
		{name: "nested", desc: NewSuiteDescription("all", NewSuiteDescription("C", leafA, leafB), NewSuiteDescription("D", leafC)), want: 3},
		{name: "nil children skipped", desc: NewSuiteDescription("C", leafA, nil), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.desc.TestCount())
			assert.Len(t, tt.desc.Leaves(), tt.want)
		})
	}
}

func TestDescriptionEquality(t *testing.T) {
	a := NewSuiteDescription("S", NewTestDescription("C", "a"))
	b := NewSuiteDescription("S", NewTestDescription("C", "a"))
	c := NewSuiteDescription("S", NewTestDescription("C", "b"))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, a.Key(), b.Key())

	// names containing key delimiters must not collide
	x := NewSuiteDescription("a,b")
	y := NewSuiteDescription("a", NewSuiteDescription("b"))
	assert.NotEqual(t, x.Key(), y.Key())
}

func TestDescriptionNames(t *testing.T) {
	d := NewTestDescription("com.example.FooTest", "testBar")

	assert.Equal(t, "testBar(com.example.FooTest)", d.DisplayName())
	assert.Equal(t, "com.example.FooTest", d.ClassName())
	assert.Equal(t, "testBar", d.MethodName())
	assert.True(t, d.IsTest())

	s := NewSuiteDescription("AllTests", d)
	assert.Equal(t, "AllTests", s.ClassName())
	assert.Empty(t, s.MethodName())
	assert.True(t, s.IsSuite())
}

func TestDescriptionChildrenIsCopy(t *testing.T) {
	s := NewSuiteDescription("S", NewTestDescription("C", "a"))
	children := s.Children()
	children[0] = nil

	assert.NotNil(t, s.Children()[0])
}

func TestDescriptionWalk(t *testing.T) {
	s := NewSuiteDescription("all",
		NewSuiteDescription("C", NewTestDescription("C", "a")),
		NewTestDescription("D", "b"),
	)

	var names []string
	s.Walk(func(d *Description) bool {
		names = append(names, d.DisplayName())
		return d.DisplayName() != "C"
	})

	assert.Equal(t, []string{"all", "C", "b(D)"}, names)
}
