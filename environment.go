package paludis

import "context"

// Environment is the resolver's view of everything outside the dep-spec
// language itself: the package database to query and the installed set
// used for block checks. It is the thin Go analogue of the original's
// Environment class, narrowed to exactly what this module's resolver
// needs, with every other collaborator (fetching, sandboxing, hooks)
// left out per scope.
type Environment interface {
	// PackageDatabase returns the database consulted for candidate
	// lookups during resolution.
	PackageDatabase() PackageDatabase

	// Installed reports the set of PackageIDs already present on the
	// target system, consulted for block resolution.
	Installed() []PackageID
}

// Repository is a named source of PackageIDs, the Go analogue of the
// original's Repository class narrowed to query operations.
type Repository interface {
	Name() RepositoryName
	// PackageIDs returns every PackageID this repository holds for name.
	PackageIDs(name QualifiedPackageName) []PackageID
	// HasCategory reports whether this repository carries any package
	// under the given category at all.
	HasCategory(cat CategoryName) bool
}

// PackageDatabase aggregates zero or more Repositories behind a single
// query surface, matching spec.md's Query & selection component.
type PackageDatabase interface {
	Repositories() []Repository
	// Query returns every PackageID across every repository matching
	// atom's restrictions. mine is the package whose dependency string
	// produced atom, consulted by self-dep USE-requirement forms; it
	// may be nil when the atom carries no such forms.
	Query(atom *PackageDepSpec, mine PackageID) []PackageID
	// QueryUnqualified resolves a bare PackageName to the categories
	// that contain it, for disambiguating an atom with no category
	// component.
	QueryUnqualified(name PackageName) []CategoryName
}

// resolveContext bundles a context.Context together with an
// Environment. Nothing in the package constructs one: the Resolver
// keeps its Environment in a field and receives the context as an
// argument of Resolve.
type resolveContext struct {
	ctx context.Context
	env Environment
}
