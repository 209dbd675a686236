package paludis

import "fmt"

// A VersionConstraint restricts which VersionSpecs are admissible for a
// given PackageDepSpec atom. The interface mirrors golang-dep's
// Constraint: a private method closes the set to this file's
// implementations so callers can only build one through the
// constructors below.
type VersionConstraint interface {
	fmt.Stringer
	// Matches reports whether v satisfies the constraint.
	Matches(v VersionSpec) bool
	// MatchesAny reports whether c and o may admit a common version. It
	// is conservative: it reports false only where the two are known to
	// be disjoint, and the unbounded constraint reports true for any o.
	MatchesAny(o VersionConstraint) bool
	// Intersect computes the constraint admitting exactly the versions
	// both c and o admit.
	Intersect(o VersionConstraint) VersionConstraint
	_private()
}

var (
	anyVersion  VersionConstraint = anyVersionConstraint{}
	noneVersion VersionConstraint = noneVersionConstraint{}
)

// AnyVersion returns the constraint admitting every VersionSpec.
func AnyVersion() VersionConstraint { return anyVersion }

// NoVersion returns the constraint admitting no VersionSpec at all, the
// result of intersecting two disjoint constraints.
func NoVersion() VersionConstraint { return noneVersion }

type anyVersionConstraint struct{}

func (anyVersionConstraint) _private()           {}
func (anyVersionConstraint) String() string      { return "*" }
func (anyVersionConstraint) Matches(VersionSpec) bool { return true }
func (anyVersionConstraint) MatchesAny(VersionConstraint) bool { return true }
func (anyVersionConstraint) Intersect(o VersionConstraint) VersionConstraint { return o }

type noneVersionConstraint struct{}

func (noneVersionConstraint) _private()           {}
func (noneVersionConstraint) String() string      { return "<none>" }
func (noneVersionConstraint) Matches(VersionSpec) bool { return false }
func (noneVersionConstraint) MatchesAny(VersionConstraint) bool { return false }
func (noneVersionConstraint) Intersect(VersionConstraint) VersionConstraint { return noneVersion }

// operatorConstraint is a single "<op><version>" atom, e.g. ">=1.2.3".
type operatorConstraint struct {
	op     VersionOperator
	target VersionSpec
}

// NewOperatorConstraint builds the VersionConstraint for a single
// PackageDepSpec version component.
func NewOperatorConstraint(op VersionOperator, target VersionSpec) VersionConstraint {
	return operatorConstraint{op: op, target: target}
}

func (operatorConstraint) _private() {}

func (c operatorConstraint) String() string {
	return string(c.op) + c.target.String()
}

func (c operatorConstraint) Matches(v VersionSpec) bool {
	return c.op.Matches(v, c.target)
}

func (c operatorConstraint) MatchesAny(o VersionConstraint) bool {
	switch o := o.(type) {
	case anyVersionConstraint:
		return true
	case noneVersionConstraint:
		return false
	case operatorConstraint:
		return operatorsOverlap(c, o)
	case intersectionConstraint:
		return o.MatchesAny(c)
	}
	return false
}

func (c operatorConstraint) Intersect(o VersionConstraint) VersionConstraint {
	switch o := o.(type) {
	case anyVersionConstraint:
		return c
	case noneVersionConstraint:
		return noneVersion
	case operatorConstraint:
		if c.op == o.op && c.target.Equal(o.target) {
			return c
		}
		if !operatorsOverlap(c, o) {
			return noneVersion
		}
		return intersectionConstraint{members: []operatorConstraint{c, o}}
	case intersectionConstraint:
		return o.Intersect(c)
	}
	return noneVersion
}

// operatorsOverlap is a conservative feasibility test: it only rules out
// overlap for the cases this resolver actually needs to disambiguate
// (two exact-equality constraints on different versions, or disjoint
// relational bounds), erring towards "may overlap" otherwise so callers
// fall back to enumerating candidates against the full intersection.
func operatorsOverlap(a, b operatorConstraint) bool {
	if a.op == OpEqual && b.op == OpEqual {
		return a.target.Equal(b.target)
	}
	if a.op == OpTildeEqual && b.op == OpTildeEqual {
		return a.target.Compare(b.target, true) == 0
	}
	lowA, highA, okA := operatorBounds(a)
	lowB, highB, okB := operatorBounds(b)
	if !okA || !okB {
		return true
	}
	if highA != nil && lowB != nil && highA.Less(*lowB) {
		return false
	}
	if highB != nil && lowA != nil && highB.Less(*lowA) {
		return false
	}
	return true
}

// operatorBounds extracts a [low, high] relational envelope from a
// single-operator constraint, when the operator is purely relational.
func operatorBounds(c operatorConstraint) (low, high *VersionSpec, ok bool) {
	t := c.target
	switch c.op {
	case OpGreater, OpGreaterEqual:
		return &t, nil, true
	case OpLess, OpLessEqual:
		return nil, &t, true
	default:
		return nil, nil, false
	}
}

// intersectionConstraint is the conjunction of two or more
// operatorConstraints, produced when a PackageDepSpec atom (rare in
// practice, but legal) combines more than one bound on the same
// package, or when a solver step narrows an existing range.
type intersectionConstraint struct {
	members []operatorConstraint
}

func (intersectionConstraint) _private() {}

func (c intersectionConstraint) String() string {
	s := ""
	for i, m := range c.members {
		if i > 0 {
			s += " & "
		}
		s += m.String()
	}
	return s
}

func (c intersectionConstraint) Matches(v VersionSpec) bool {
	for _, m := range c.members {
		if !m.Matches(v) {
			return false
		}
	}
	return true
}

func (c intersectionConstraint) MatchesAny(o VersionConstraint) bool {
	switch o := o.(type) {
	case anyVersionConstraint:
		return true
	case noneVersionConstraint:
		return false
	case operatorConstraint:
		for _, m := range c.members {
			if !operatorsOverlap(m, o) {
				return false
			}
		}
		return true
	case intersectionConstraint:
		for _, ma := range c.members {
			for _, mb := range o.members {
				if !operatorsOverlap(ma, mb) {
					return false
				}
			}
		}
		return true
	}
	return false
}

func (c intersectionConstraint) Intersect(o VersionConstraint) VersionConstraint {
	switch o := o.(type) {
	case anyVersionConstraint:
		return c
	case noneVersionConstraint:
		return noneVersion
	case operatorConstraint:
		if !c.MatchesAny(o) {
			return noneVersion
		}
		return intersectionConstraint{members: append(append([]operatorConstraint{}, c.members...), o)}
	case intersectionConstraint:
		if !c.MatchesAny(o) {
			return noneVersion
		}
		return intersectionConstraint{members: append(append([]operatorConstraint{}, c.members...), o.members...)}
	}
	return noneVersion
}
