package paludis

import (
	"context"
	"testing"

	"paludis/internal/eapi"
)

type testEnv struct {
	db        PackageDatabase
	installed []PackageID
}

func (e *testEnv) PackageDatabase() PackageDatabase { return e.db }
func (e *testEnv) Installed() []PackageID           { return e.installed }

func parseDeps(t *testing.T, s string, opts eapi.EapiOptions) metadataParser {
	t.Helper()
	if s == "" {
		return nil
	}
	return func() (Node, error) {
		return Parse(s, DependencyTree, opts, nil, nil)
	}
}

func TestResolverOrdersDependenciesBeforeDependents(t *testing.T) {
	opts := eapi.MustLookup("7")
	bar := &LazyPackageID{
		QName: QualifiedPackageName{Category: "app-misc", Package: "bar"},
		Ver:   mustVersion(t, "1.0"),
		Repo:  "test",
		Flags: map[UseFlagName]bool{},
	}
	foo := &LazyPackageID{
		QName:    QualifiedPackageName{Category: "app-misc", Package: "foo"},
		Ver:      mustVersion(t, "1.0"),
		Repo:     "test",
		Flags:    map[UseFlagName]bool{},
		ParseRun: parseDeps(t, "app-misc/bar", opts),
	}
	db := NewMemoryDatabase("test", []PackageID{foo, bar})
	env := &testEnv{db: db}

	target, err := ParseAtom("app-misc/foo", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := NewResolver(env, nil)
	plan, err := r.Resolve(context.Background(), ResolveParams{Targets: []*PackageDepSpec{target}, Env: env})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(plan.Entries))
	}
	barIdx, fooIdx := -1, -1
	for i, e := range plan.Entries {
		switch e.ID.Name().Package {
		case "bar":
			barIdx = i
		case "foo":
			fooIdx = i
		}
	}
	if barIdx < 0 || fooIdx < 0 || barIdx > fooIdx {
		t.Errorf("expected bar before foo, got bar=%d foo=%d", barIdx, fooIdx)
	}
}

func TestResolverDetectsSlotCollision(t *testing.T) {
	opts := eapi.MustLookup("7")
	v1 := &LazyPackageID{
		QName: QualifiedPackageName{Category: "app-misc", Package: "foo"},
		Ver:   mustVersion(t, "1.0"),
		Repo:  "test",
		Flags: map[UseFlagName]bool{},
	}
	v2 := &LazyPackageID{
		QName: QualifiedPackageName{Category: "app-misc", Package: "foo"},
		Ver:   mustVersion(t, "2.0"),
		Repo:  "test",
		Flags: map[UseFlagName]bool{},
	}
	db := NewMemoryDatabase("test", []PackageID{v1, v2})
	env := &testEnv{db: db}

	a1, err := ParseAtom("=app-misc/foo-1.0", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := ParseAtom("=app-misc/foo-2.0", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := NewResolver(env, nil)
	_, err = r.Resolve(context.Background(), ResolveParams{Targets: []*PackageDepSpec{a1, a2}, Env: env})
	if err == nil {
		t.Fatalf("expected a SlotCollision error")
	}
	if _, ok := err.(*SlotCollision); !ok {
		t.Errorf("expected *SlotCollision, got %T: %v", err, err)
	}
}

func TestResolverStrongBlockIsFatal(t *testing.T) {
	opts := eapi.MustLookup("7")
	bad := &LazyPackageID{
		QName: QualifiedPackageName{Category: "app-misc", Package: "bad"},
		Ver:   mustVersion(t, "1.0"),
		Repo:  "test",
		Flags: map[UseFlagName]bool{},
	}
	foo := &LazyPackageID{
		QName:    QualifiedPackageName{Category: "app-misc", Package: "foo"},
		Ver:      mustVersion(t, "1.0"),
		Repo:     "test",
		Flags:    map[UseFlagName]bool{},
		ParseRun: parseDeps(t, "!!app-misc/bad", opts),
	}
	db := NewMemoryDatabase("test", []PackageID{foo, bad})
	env := &testEnv{db: db}

	fooAtom, err := ParseAtom("app-misc/foo", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	badAtom, err := ParseAtom("app-misc/bad", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := NewResolver(env, nil)
	_, err = r.Resolve(context.Background(), ResolveParams{Targets: []*PackageDepSpec{fooAtom, badAtom}, Env: env})
	if err == nil {
		t.Fatalf("expected a BlockedByInstalled error")
	}
	if _, ok := err.(*BlockedByInstalled); !ok {
		t.Errorf("expected *BlockedByInstalled, got %T: %v", err, err)
	}
}

func TestResolverAnyOfPicksSatisfiableArm(t *testing.T) {
	opts := eapi.MustLookup("7")
	libressl := &LazyPackageID{
		QName: QualifiedPackageName{Category: "dev-libs", Package: "libressl"},
		Ver:   mustVersion(t, "3.0"),
		Repo:  "test",
		Flags: map[UseFlagName]bool{},
	}
	foo := &LazyPackageID{
		QName:    QualifiedPackageName{Category: "app-misc", Package: "foo"},
		Ver:      mustVersion(t, "1.0"),
		Repo:     "test",
		Flags:    map[UseFlagName]bool{},
		ParseRun: parseDeps(t, "|| ( dev-libs/openssl dev-libs/libressl )", opts),
	}
	db := NewMemoryDatabase("test", []PackageID{foo, libressl})
	env := &testEnv{db: db}

	target, err := ParseAtom("app-misc/foo", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := NewResolver(env, nil)
	plan, err := r.Resolve(context.Background(), ResolveParams{Targets: []*PackageDepSpec{target}, Env: env})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range plan.Entries {
		if e.ID.Name().Package == "libressl" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected libressl (the only satisfiable arm) to be selected")
	}
}

func TestResolverAnyOfUnsatisfiable(t *testing.T) {
	opts := eapi.MustLookup("7")
	foo := &LazyPackageID{
		QName:    QualifiedPackageName{Category: "app-misc", Package: "foo"},
		Ver:      mustVersion(t, "1.0"),
		Repo:     "test",
		Flags:    map[UseFlagName]bool{},
		ParseRun: parseDeps(t, "|| ( dev-libs/openssl dev-libs/libressl )", opts),
	}
	db := NewMemoryDatabase("test", []PackageID{foo})
	env := &testEnv{db: db}

	target, err := ParseAtom("app-misc/foo", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := NewResolver(env, nil)
	_, err = r.Resolve(context.Background(), ResolveParams{Targets: []*PackageDepSpec{target}, Env: env})
	if err == nil {
		t.Fatalf("expected an AnyOfUnsatisfiable error")
	}
	if _, ok := err.(*AnyOfUnsatisfiable); !ok {
		t.Errorf("expected *AnyOfUnsatisfiable, got %T: %v", err, err)
	}
}

func TestResolverBreaksCycleOnPostDependency(t *testing.T) {
	opts := eapi.MustLookup("7")
	var a, b *LazyPackageID
	a = &LazyPackageID{
		QName:    QualifiedPackageName{Category: "app-misc", Package: "a"},
		Ver:      mustVersion(t, "1.0"),
		Repo:     "test",
		Flags:    map[UseFlagName]bool{},
		ParseRun: parseDeps(t, "app-misc/b", opts),
	}
	b = &LazyPackageID{
		QName:     QualifiedPackageName{Category: "app-misc", Package: "b"},
		Ver:       mustVersion(t, "1.0"),
		Repo:      "test",
		Flags:     map[UseFlagName]bool{},
		ParsePost: parseDeps(t, "app-misc/a", opts),
	}
	db := NewMemoryDatabase("test", []PackageID{a, b})
	env := &testEnv{db: db}

	target, err := ParseAtom("app-misc/a", opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := NewResolver(env, nil)
	plan, err := r.Resolve(context.Background(), ResolveParams{Targets: []*PackageDepSpec{target}, Env: env})
	if err != nil {
		t.Fatalf("expected the post-dependency cycle to be broken, got error: %v", err)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(plan.Entries))
	}
}

func mustVersion(t *testing.T, s string) VersionSpec {
	t.Helper()
	v, err := ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}
