package paludis

import "testing"

func v(t *testing.T, s string) VersionSpec {
	t.Helper()
	parsed, err := ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return parsed
}

func TestAnyVersionMatchesEverything(t *testing.T) {
	if !AnyVersion().Matches(v(t, "1.0")) {
		t.Errorf("AnyVersion() should match any version")
	}
	if !AnyVersion().MatchesAny(NoVersion()) {
		t.Errorf("AnyVersion().MatchesAny(NoVersion()) should report MatchesAny=true; the emptiness is NoVersion's to report")
	}
}

func TestNoVersionMatchesNothing(t *testing.T) {
	if NoVersion().Matches(v(t, "1.0")) {
		t.Errorf("NoVersion() should never match")
	}
	if NoVersion().MatchesAny(AnyVersion()) {
		t.Errorf("NoVersion().MatchesAny(...) should always be false")
	}
}

func TestOperatorConstraintIntersectSameEqualityCollapses(t *testing.T) {
	a := NewOperatorConstraint(OpEqual, v(t, "1.2.3"))
	b := NewOperatorConstraint(OpEqual, v(t, "1.2.3"))
	got := a.Intersect(b)
	if _, ok := got.(operatorConstraint); !ok {
		t.Fatalf("expected intersecting two identical equality constraints to collapse to a single operatorConstraint, got %T", got)
	}
	if !got.Matches(v(t, "1.2.3")) {
		t.Errorf("expected collapsed constraint to still match 1.2.3")
	}
}

func TestOperatorConstraintIntersectDifferentEqualityIsNone(t *testing.T) {
	a := NewOperatorConstraint(OpEqual, v(t, "1.2.3"))
	b := NewOperatorConstraint(OpEqual, v(t, "1.2.4"))
	got := a.Intersect(b)
	if got != NoVersion() {
		t.Errorf("expected intersecting two conflicting equality constraints to yield NoVersion, got %v", got)
	}
}

func TestOperatorConstraintIntersectOverlappingRangesBuildsIntersection(t *testing.T) {
	a := NewOperatorConstraint(OpGreaterEqual, v(t, "1.0"))
	b := NewOperatorConstraint(OpLess, v(t, "2.0"))
	got := a.Intersect(b)
	ic, ok := got.(intersectionConstraint)
	if !ok {
		t.Fatalf("expected an intersectionConstraint, got %T", got)
	}
	if !ic.Matches(v(t, "1.5")) {
		t.Errorf("expected 1.5 to satisfy >=1.0 & <2.0")
	}
	if ic.Matches(v(t, "2.0")) {
		t.Errorf("expected 2.0 to fail <2.0")
	}
	if ic.Matches(v(t, "0.9")) {
		t.Errorf("expected 0.9 to fail >=1.0")
	}
}

func TestOperatorConstraintIntersectDisjointRangesIsNone(t *testing.T) {
	a := NewOperatorConstraint(OpLess, v(t, "1.0"))
	b := NewOperatorConstraint(OpGreaterEqual, v(t, "2.0"))
	got := a.Intersect(b)
	if got != NoVersion() {
		t.Errorf("expected disjoint ranges <1.0 and >=2.0 to intersect to NoVersion, got %v", got)
	}
}

func TestOperatorConstraintIntersectWithAnyReturnsSelf(t *testing.T) {
	a := NewOperatorConstraint(OpGreaterEqual, v(t, "1.0"))
	got := a.Intersect(AnyVersion())
	oc, ok := got.(operatorConstraint)
	if !ok || oc.op != OpGreaterEqual {
		t.Errorf("expected Intersect(AnyVersion()) to return the receiver unchanged, got %#v", got)
	}
}

func TestIntersectionConstraintAccumulatesMembers(t *testing.T) {
	a := NewOperatorConstraint(OpGreaterEqual, v(t, "1.0"))
	b := NewOperatorConstraint(OpLess, v(t, "2.0"))
	c := NewOperatorConstraint(OpGreaterEqual, v(t, "1.1"))
	ab := a.Intersect(b)
	abc := ab.Intersect(c)
	ic, ok := abc.(intersectionConstraint)
	if !ok {
		t.Fatalf("expected intersectionConstraint, got %T", abc)
	}
	if len(ic.members) != 3 {
		t.Fatalf("expected 3 accumulated members, got %d", len(ic.members))
	}
	if !ic.Matches(v(t, "1.5")) {
		t.Errorf("expected 1.5 to satisfy >=1.0 & <2.0 & >=1.1")
	}
	if ic.Matches(v(t, "1.05")) {
		t.Errorf("expected 1.05 to fail >=1.1")
	}
}

func TestIntersectionConstraintIntersectWithDisjointOperatorIsNone(t *testing.T) {
	a := NewOperatorConstraint(OpGreaterEqual, v(t, "1.0"))
	b := NewOperatorConstraint(OpLess, v(t, "2.0"))
	ab := a.Intersect(b)
	c := NewOperatorConstraint(OpGreaterEqual, v(t, "5.0"))
	got := ab.Intersect(c)
	if got != NoVersion() {
		t.Errorf("expected [1.0,2.0) & >=5.0 to be NoVersion, got %v", got)
	}
}

func TestOperatorConstraintMatchesAnyTildeIgnoresRevision(t *testing.T) {
	a := NewOperatorConstraint(OpTildeEqual, v(t, "1.0-r1"))
	b := NewOperatorConstraint(OpTildeEqual, v(t, "1.0-r2"))
	if !a.MatchesAny(b) {
		t.Errorf("expected two ~ constraints on the same base version (different revisions) to overlap")
	}
}
