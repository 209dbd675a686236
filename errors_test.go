package paludis

import (
	"testing"

	"paludis/internal/eapi"
)

func TestSpecParseErrorMessage(t *testing.T) {
	err := &SpecParseError{Raw: "dev-lang/", Detail: "atom has no 'category/package' component"}
	want := `error parsing "dev-lang/": atom has no 'category/package' component`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNoMatchMessage(t *testing.T) {
	atom, err := ParseAtom("dev-lang/python", eapi.MustLookup("7"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nm := &NoMatch{Atom: atom}
	if nm.Error() == "" {
		t.Errorf("expected non-empty Error()")
	}
}

func TestSlotCollisionTraceString(t *testing.T) {
	existing := newFakeID("dev-lang/python", "3.10", "0")
	newer := newFakeID("dev-lang/python", "3.11", "0")
	err := &SlotCollision{
		Name:     existing.Name(),
		Slot:     existing.Slot(),
		Existing: existing,
		New:      newer,
		path:     "|| ( ... ) [arm 0]",
	}
	var te traceError = err
	if te.TraceString() != "|| ( ... ) [arm 0]" {
		t.Errorf("TraceString() = %q", te.TraceString())
	}
	if err.Error() == "" {
		t.Errorf("expected non-empty Error()")
	}
}

func TestCircularDependencyMessage(t *testing.T) {
	a := QualifiedPackageName{Category: "dev-lang", Package: "a"}
	b := QualifiedPackageName{Category: "dev-lang", Package: "b"}
	err := &CircularDependency{Cycle: []QualifiedPackageName{a, b, a}}
	if err.Error() == "" {
		t.Errorf("expected non-empty Error()")
	}
}
