package paludis

import "sync"

// PackageID is the read-only contract for one installable or installed
// package version. It is an interface, not a struct, so test doubles and
// the demonstration CLI's in-memory repository can both satisfy it —
// mirroring the original's own `PackageID` base class, which several
// concrete classes (ordinary ebuilds, virtuals, installed packages)
// implement behind the same contract; see
// `paludis/repositories/virtuals/package_id.hh`'s `VirtualsPackageID`.
type PackageID interface {
	Name() QualifiedPackageName
	Version() VersionSpec
	Slot() SlotName
	Repository() RepositoryName

	// Flag reports the enabled/disabled state of a USE flag on this ID.
	// ok is false if the ID declares no such flag at all.
	Flag(name UseFlagName) (enabled, ok bool)

	// BuildDependencies, RunDependencies, PostDependencies, and
	// SuggestedDependencies return the dependency-tree root for each of
	// the four dependency classes, lazily parsed from whatever backing
	// store produced this ID.
	BuildDependencies() (Node, error)
	RunDependencies() (Node, error)
	PostDependencies() (Node, error)
	SuggestedDependencies() (Node, error)

	License() (Node, error)
	Provide() (Node, error)
	FetchableURI() (Node, error)
	Homepage() (Node, error)
}

// metadataParser produces the parsed Node for one lazily-materialized
// metadata key, returning the error that should be memoised on failure.
type metadataParser func() (Node, error)

// LazyPackageID is a reusable PackageID skeleton implementing the
// one-parse-one-publish materialization rule: each metadata key is
// backed by its own sync.Once so concurrent readers block on, rather
// than duplicate, the first parse, and a parse failure is memoised so
// repeated access is deterministic instead of silently retrying. Embed
// it in a concrete PackageID and set the Parse* fields to the raw-text
// parse functions for this ID's backing store.
type LazyPackageID struct {
	QName   QualifiedPackageName
	Ver     VersionSpec
	SlotVal SlotName
	Repo    RepositoryName
	Flags   map[UseFlagName]bool

	ParseBuild     metadataParser
	ParseRun       metadataParser
	ParsePost      metadataParser
	ParseSuggested metadataParser
	ParseLicense   metadataParser
	ParseProvide   metadataParser
	ParseFetch     metadataParser
	ParseHomepage  metadataParser

	buildOnce, runOnce, postOnce, suggestedOnce                 sync.Once
	licenseOnce, provideOnce, fetchOnce, homepageOnce           sync.Once
	buildNode, runNode, postNode, suggestedNode                 Node
	licenseNode, provideNode, fetchNode, homepageNode           Node
	buildErr, runErr, postErr, suggestedErr                     error
	licenseErr, provideErr, fetchErr, homepageErr               error
}

func (p *LazyPackageID) Name() QualifiedPackageName { return p.QName }
func (p *LazyPackageID) Version() VersionSpec       { return p.Ver }
func (p *LazyPackageID) Slot() SlotName             { return p.SlotVal }
func (p *LazyPackageID) Repository() RepositoryName { return p.Repo }

func (p *LazyPackageID) Flag(name UseFlagName) (bool, bool) {
	v, ok := p.Flags[name]
	return v, ok
}

func once(o *sync.Once, node *Node, errp *error, parse metadataParser) (Node, error) {
	o.Do(func() {
		if parse == nil {
			*node, *errp = AllOfNode{}, nil
			return
		}
		*node, *errp = parse()
	})
	return *node, *errp
}

func (p *LazyPackageID) BuildDependencies() (Node, error) {
	return once(&p.buildOnce, &p.buildNode, &p.buildErr, p.ParseBuild)
}

func (p *LazyPackageID) RunDependencies() (Node, error) {
	return once(&p.runOnce, &p.runNode, &p.runErr, p.ParseRun)
}

func (p *LazyPackageID) PostDependencies() (Node, error) {
	return once(&p.postOnce, &p.postNode, &p.postErr, p.ParsePost)
}

func (p *LazyPackageID) SuggestedDependencies() (Node, error) {
	return once(&p.suggestedOnce, &p.suggestedNode, &p.suggestedErr, p.ParseSuggested)
}

func (p *LazyPackageID) License() (Node, error) {
	return once(&p.licenseOnce, &p.licenseNode, &p.licenseErr, p.ParseLicense)
}

func (p *LazyPackageID) Provide() (Node, error) {
	return once(&p.provideOnce, &p.provideNode, &p.provideErr, p.ParseProvide)
}

func (p *LazyPackageID) FetchableURI() (Node, error) {
	return once(&p.fetchOnce, &p.fetchNode, &p.fetchErr, p.ParseFetch)
}

func (p *LazyPackageID) Homepage() (Node, error) {
	return once(&p.homepageOnce, &p.homepageNode, &p.homepageErr, p.ParseHomepage)
}
