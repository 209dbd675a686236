package paludis

// fakeID is a minimal PackageID used across this package's tests: a
// fixed name/version/slot/repo plus a flat USE-flag map, with every
// dependency-tree accessor returning an empty AllOfNode.
type fakeID struct {
	name  QualifiedPackageName
	ver   VersionSpec
	slot  SlotName
	repo  RepositoryName
	flags map[UseFlagName]bool

	build, run, post, suggest Node
}

func newFakeID(qpn, ver, slot string) *fakeID {
	cat, pkg := splitQPN(qpn)
	v, err := ParseVersion(ver)
	if err != nil {
		panic(err)
	}
	return &fakeID{
		name:  QualifiedPackageName{Category: CategoryName(cat), Package: PackageName(pkg)},
		ver:   v,
		slot:  SlotName(slot),
		repo:  RepositoryName("test"),
		flags: map[UseFlagName]bool{},
	}
}

func splitQPN(qpn string) (string, string) {
	for i := 0; i < len(qpn); i++ {
		if qpn[i] == '/' {
			return qpn[:i], qpn[i+1:]
		}
	}
	panic("qpn has no '/': " + qpn)
}

func (f *fakeID) withFlag(name string, enabled bool) *fakeID {
	flag, err := NewUseFlagName(name)
	if err != nil {
		panic(err)
	}
	f.flags[flag] = enabled
	return f
}

func (f *fakeID) Name() QualifiedPackageName { return f.name }
func (f *fakeID) Version() VersionSpec       { return f.ver }
func (f *fakeID) Slot() SlotName             { return f.slot }
func (f *fakeID) Repository() RepositoryName { return f.repo }

func (f *fakeID) Flag(name UseFlagName) (bool, bool) {
	v, ok := f.flags[name]
	return v, ok
}

func (f *fakeID) BuildDependencies() (Node, error)     { return orEmpty(f.build), nil }
func (f *fakeID) RunDependencies() (Node, error)        { return orEmpty(f.run), nil }
func (f *fakeID) PostDependencies() (Node, error)       { return orEmpty(f.post), nil }
func (f *fakeID) SuggestedDependencies() (Node, error)  { return orEmpty(f.suggest), nil }
func (f *fakeID) License() (Node, error)                { return AllOfNode{}, nil }
func (f *fakeID) Provide() (Node, error)                { return AllOfNode{}, nil }
func (f *fakeID) FetchableURI() (Node, error)           { return AllOfNode{}, nil }
func (f *fakeID) Homepage() (Node, error)               { return AllOfNode{}, nil }

func orEmpty(n Node) Node {
	if n == nil {
		return AllOfNode{}
	}
	return n
}
