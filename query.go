package paludis

import (
	"sort"
	"sync"

	radix "github.com/armon/go-radix"
)

// qpnTrie is a typed wrapper over armon/go-radix keyed on "category/package",
// letting MemoryDatabase avoid type assertions anywhere else — the same
// shape golang-dep's typed_radix.go wraps radix.Tree in for its own
// import-path keyed lookups, applied here to Gentoo's own
// slash-segmented qualified names.
type qpnTrie struct {
	mu sync.RWMutex
	t  *radix.Tree
}

func newQpnTrie() *qpnTrie { return &qpnTrie{t: radix.New()} }

func (q *qpnTrie) get(key string) ([]PackageID, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	v, ok := q.t.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]PackageID), true
}

func (q *qpnTrie) insert(key string, ids []PackageID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.t.Insert(key, ids)
}

func (q *qpnTrie) walkPrefix(prefix string, fn func(key string, ids []PackageID) bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	q.t.WalkPrefix(prefix, func(key string, v interface{}) bool {
		return fn(key, v.([]PackageID))
	})
}

func (q *qpnTrie) len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.t.Len()
}

// MemoryDatabase is the reference PackageDatabase implementation used by
// tests and the demonstration CLI: an in-process index over a fixed set
// of PackageIDs, with no repository I/O. Production backends implement
// PackageDatabase directly against their own storage.
type MemoryDatabase struct {
	name RepositoryName
	trie *qpnTrie
}

// NewMemoryDatabase builds a MemoryDatabase indexing ids under a single
// synthetic repository named repo.
func NewMemoryDatabase(repo RepositoryName, ids []PackageID) *MemoryDatabase {
	db := &MemoryDatabase{name: repo, trie: newQpnTrie()}
	byName := map[string][]PackageID{}
	for _, id := range ids {
		key := id.Name().String()
		byName[key] = append(byName[key], id)
	}
	for key, group := range byName {
		sort.Slice(group, func(i, j int) bool { return group[i].Version().Less(group[j].Version()) })
		db.trie.insert(key, group)
	}
	return db
}

func (db *MemoryDatabase) Name() RepositoryName { return db.name }

func (db *MemoryDatabase) PackageIDs(name QualifiedPackageName) []PackageID {
	ids, _ := db.trie.get(name.String())
	return ids
}

func (db *MemoryDatabase) HasCategory(cat CategoryName) bool {
	found := false
	db.trie.walkPrefix(string(cat)+"/", func(string, []PackageID) bool {
		found = true
		return true
	})
	return found
}

func (db *MemoryDatabase) Repositories() []Repository { return []Repository{db} }

func (db *MemoryDatabase) Query(atom *PackageDepSpec, mine PackageID) []PackageID {
	var out []PackageID
	for _, id := range db.PackageIDs(atom.Package) {
		if atom.Matches(id, mine) {
			out = append(out, id)
		}
	}
	return out
}

func (db *MemoryDatabase) QueryUnqualified(name PackageName) []CategoryName {
	var cats []CategoryName
	seen := map[CategoryName]bool{}
	db.trie.walkPrefix("", func(key string, ids []PackageID) bool {
		for _, id := range ids {
			if id.Name().Package == name && !seen[id.Name().Category] {
				seen[id.Name().Category] = true
				cats = append(cats, id.Name().Category)
			}
		}
		return false
	})
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// aggregateDatabase fans Query and QueryUnqualified out across more than
// one PackageDatabase, for an Environment backed by several independent
// repositories that each expose their own MemoryDatabase (or other
// PackageDatabase implementation).
type aggregateDatabase struct {
	dbs []PackageDatabase
}

// NewAggregateDatabase combines multiple PackageDatabases into one.
func NewAggregateDatabase(dbs ...PackageDatabase) PackageDatabase {
	return &aggregateDatabase{dbs: dbs}
}

func (a *aggregateDatabase) Repositories() []Repository {
	var repos []Repository
	for _, db := range a.dbs {
		repos = append(repos, db.Repositories()...)
	}
	return repos
}

func (a *aggregateDatabase) Query(atom *PackageDepSpec, mine PackageID) []PackageID {
	var out []PackageID
	for _, db := range a.dbs {
		out = append(out, db.Query(atom, mine)...)
	}
	return out
}

func (a *aggregateDatabase) QueryUnqualified(name PackageName) []CategoryName {
	seen := map[CategoryName]bool{}
	var cats []CategoryName
	for _, db := range a.dbs {
		for _, c := range db.QueryUnqualified(name) {
			if !seen[c] {
				seen[c] = true
				cats = append(cats, c)
			}
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
