package core

import (
	"strings"
)

// TestMechanism is the Description used for failures raised by the test
// infrastructure itself, e.g. a listener that failed while handling an event.
var TestMechanism = NewSuiteDescription("Test mechanism")

// Description identifies one test (a leaf) or a group of tests (a suite).
//
// A Description is immutable once constructed and is shared by reference with
// every event fired about it. Composite runners build a fresh Description
// whenever their children change instead of mutating an existing one.
type Description struct {
	displayName string
	children    []*Description
	key         string
	testCount   int
}

// NewSuiteDescription creates a Description named name with the given
// children. A suite without children is still a suite by name but counts
// as a single test, matching leaf semantics.
func NewSuiteDescription(name string, children ...*Description) *Description {
	d := &Description{
		displayName: name,
		children:    make([]*Description, 0, len(children)),
	}

	for _, c := range children {
		if c == nil {
			continue
		}

		d.children = append(d.children, c)
	}

	d.key = buildKey(d)
	d.testCount = countTests(d)

	return d
}

// NewTestDescription creates a leaf Description for methodName inside
// className. The display name is rendered as "method(Class)".
func NewTestDescription(className, methodName string) *Description {
	return NewSuiteDescription(FormatDisplayName(className, methodName))
}

// FormatDisplayName renders the canonical "method(Class)" display name.
func FormatDisplayName(className, methodName string) string {
	return methodName + "(" + className + ")"
}

// DisplayName returns the human readable name.
func (d *Description) DisplayName() string { return d.displayName }

// String implements fmt.Stringer.
func (d *Description) String() string { return d.displayName }

// Children returns a copy of the child list.
func (d *Description) Children() []*Description {
	out := make([]*Description, len(d.children))
	copy(out, d.children)

	return out
}

// IsTest reports whether the Description is a leaf.
func (d *Description) IsTest() bool { return len(d.children) == 0 }

// IsSuite reports whether the Description has children.
func (d *Description) IsSuite() bool { return !d.IsTest() }

// IsEmpty reports whether the Description is the empty suite.
func (d *Description) IsEmpty() bool { return d.displayName == "" && d.IsTest() }

// TestCount returns 1 for a leaf, otherwise the sum over all children.
func (d *Description) TestCount() int { return d.testCount }

// Key returns a string identifying the Description by structure: display name
// plus the keys of all children, recursively. Two Descriptions are Equal iff
// their keys are identical.
func (d *Description) Key() string { return d.key }

// Equal reports deep structural equality (display name and children).
func (d *Description) Equal(other *Description) bool {
	if d == nil || other == nil {
		return d == other
	}

	return d.key == other.key
}

// ClassName extracts the class part of a "method(Class)" display name. For
// names without that shape the whole display name is returned.
func (d *Description) ClassName() string {
	if _, class, ok := splitDisplayName(d.displayName); ok {
		return class
	}

	return d.displayName
}

// MethodName extracts the method part of a "method(Class)" display name, or
// returns "" when the name has no such shape.
func (d *Description) MethodName() string {
	if method, _, ok := splitDisplayName(d.displayName); ok {
		return method
	}

	return ""
}

// Leaves returns every leaf reachable from d in tree order.
func (d *Description) Leaves() []*Description {
	if d.IsTest() {
		return []*Description{d}
	}

	var out []*Description
	for _, c := range d.children {
		out = append(out, c.Leaves()...)
	}

	return out
}

// Walk visits d and all descendants depth-first, pre-order. Returning false
// from fn stops descent into the visited node's children.
func (d *Description) Walk(fn func(*Description) bool) {
	if !fn(d) {
		return
	}

	for _, c := range d.children {
		c.Walk(fn)
	}
}

func splitDisplayName(name string) (method, class string, ok bool) {
	if !strings.HasSuffix(name, ")") {
		return "", "", false
	}

	open := strings.LastIndex(name, "(")
	if open <= 0 {
		return "", "", false
	}

	return name[:open], name[open+1 : len(name)-1], true
}

func buildKey(d *Description) string {
	if len(d.children) == 0 {
		return quoteKey(d.displayName)
	}

	var sb strings.Builder
	sb.WriteString(quoteKey(d.displayName))
	sb.WriteByte('[')

	for i, c := range d.children {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(c.key)
	}

	sb.WriteByte(']')

	return sb.String()
}

func quoteKey(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `,`, `\,`)
	return r.Replace(s)
}

func countTests(d *Description) int {
	if len(d.children) == 0 {
		return 1
	}

	n := 0
	for _, c := range d.children {
		n += c.testCount
	}

	return n
}
