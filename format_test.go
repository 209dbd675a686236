package paludis

import (
	"testing"

	"paludis/internal/eapi"
)

func TestFormatRoundTripsSimpleAtom(t *testing.T) {
	opts := eapi.MustLookup("7")
	n, err := Parse(">=dev-lang/python-3.11:0", DependencyTree, opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Format(n)
	want := ">=dev-lang/python-3.11:0"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatAnyOfAndUseConditional(t *testing.T) {
	opts := eapi.MustLookup("7")
	n, err := Parse("ssl? ( dev-libs/openssl ) || ( a/b c/d )", DependencyTree, opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Format(n)
	want := "ssl? ( dev-libs/openssl ) || ( a/b c/d )"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFlattenAndCountPackages(t *testing.T) {
	opts := eapi.MustLookup("7")
	n, err := Parse("ssl? ( dev-libs/openssl !!app-misc/conflicting ) a/b", DependencyTree, opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaves := Flatten(n)
	if len(leaves) != 3 {
		t.Fatalf("expected 3 leaves, got %d: %#v", len(leaves), leaves)
	}
	if CountPackages(n) != 3 {
		t.Errorf("CountPackages() = %d, want 3", CountPackages(n))
	}
}

func TestLegalInAdmissionTable(t *testing.T) {
	cases := []struct {
		n    Node
		kind TreeKind
		want bool
	}{
		{AnyOfNode{}, DependencyTree, true},
		{AnyOfNode{}, LicenseTree, false},
		{UseConditionalNode{}, LicenseTree, true},
		{UseConditionalNode{}, FetchableURITree, false},
		{PackageNode{}, DependencyTree, true},
		{PackageNode{}, LicenseTree, false},
		{LicenseNode{}, LicenseTree, true},
		{UriNode{}, FetchableURITree, true},
		{PlainUriNode{}, SimpleURITree, true},
		{TextNode{}, RestrictTree, true},
		{TextNode{}, ProvideTree, true},
		{TextNode{}, DependencyTree, false},
	}
	for _, c := range cases {
		if got := legalIn(c.n, c.kind); got != c.want {
			t.Errorf("legalIn(%#v, %v) = %v, want %v", c.n, c.kind, got, c.want)
		}
	}
}
