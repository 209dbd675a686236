package paludis

import (
	"context"
	"time"

	"github.com/sdboyer/constext"

	"paludis/internal/logsink"
)

// qpnSlotKey is the resolver's uniqueness key: at most one PackageID may
// be selected per (qualified name, slot) pair, the "by_qpn_slot"
// invariant. This replaces golang-dep's ProjectRoot as the identity the
// selection map is keyed on.
type qpnSlotKey struct {
	Name QualifiedPackageName
	Slot SlotName
}

// PlanAction classifies what a Plan entry represents.
type PlanAction int

const (
	// ActionInstall means this entry must be installed to satisfy the plan.
	ActionInstall PlanAction = iota
	// ActionSuggestedSkipped means this entry was offered only via a
	// suggested dependency and was not pulled into the install set.
	ActionSuggestedSkipped
)

func (a PlanAction) String() string {
	if a == ActionSuggestedSkipped {
		return "suggested-skipped"
	}
	return "install"
}

// PlanEntry is one resolved package in a Plan, together with the
// dependency class and condition path that pulled it in (for
// diagnostics).
type PlanEntry struct {
	ID     PackageID
	Action PlanAction
	Class  DependencyClass
	Path   ConditionPath
}

// Plan is the ordered install plan a Resolver pass produces: Entries
// are in dependency-first order (a package's dependencies always
// appear before it), suitable for sequential installation.
type Plan struct {
	Entries     []*PlanEntry
	Aborted     bool
	Diagnostics []*BlockedByInstalled
}

// ShowSuggestions returns every entry recorded as suggested-but-skipped,
// rendered for a "you could also install ..." style report. This
// mirrors show_suggest_visitor.hh, which existed as a dedicated visitor
// purely to surface this information to the caller without re-walking
// the dependency trees.
func (p *Plan) ShowSuggestions() []*PlanEntry {
	var out []*PlanEntry
	for _, e := range p.Entries {
		if e.Action == ActionSuggestedSkipped {
			out = append(out, e)
		}
	}
	return out
}

// ResolveParams configures one Resolver pass.
type ResolveParams struct {
	Targets        []*PackageDepSpec
	Env            Environment
	Warn           *logsink.Logger
	SafetyDeadline time.Duration // 0 disables the internal backstop
}

type edge struct {
	from, to qpnSlotKey
	class    DependencyClass
}

// Resolver runs exactly one DepList resolution pass. It is not safe for
// concurrent reuse or for issuing a second Resolve call — construct one
// per pass, mirroring the concurrency contract of golang-dep's own
// *solver (built fresh per Solve invocation via Prepare()).
type Resolver struct {
	env      Environment
	warn     *logsink.Logger
	selected map[qpnSlotKey]PackageID
	order    []qpnSlotKey
	entries  map[qpnSlotKey]*PlanEntry
	edges    []edge
	queue    *depQueue
	blocks   *blockSet
	tracker  *ConditionTracker
	attempts int
}

// NewResolver constructs a Resolver against env.
func NewResolver(env Environment, warn *logsink.Logger) *Resolver {
	if warn == nil {
		warn = logsink.Discard
	}
	return &Resolver{
		env:      env,
		warn:     warn,
		selected: map[qpnSlotKey]PackageID{},
		entries:  map[qpnSlotKey]*PlanEntry{},
		queue:    newDepQueue(),
		blocks:   newBlockSet(),
		tracker:  NewConditionTracker(),
	}
}

// Resolve runs the resolution pass described by params. Cancellation is
// cooperative: ctx is joined with an internal best-effort safety
// deadline via sdboyer/constext's Cons, the same composition
// golang-dep's cmd.go needed to cancel a monitored subprocess on
// whichever of two signals fired first — here the two "processes" being
// joined are the caller's cancellation and this resolver's own
// runaway-backtrack guard, not a subprocess and a timer, but the
// composition need is identical. Each pop-loop iteration checks the
// joined context and, if it is done, returns a partial Plan with
// Aborted set rather than mutating any other caller-visible state.
func (r *Resolver) Resolve(ctx context.Context, params ResolveParams) (*Plan, error) {
	r.env = params.Env
	if params.Warn != nil {
		r.warn = params.Warn
	}

	runCtx := ctx
	if params.SafetyDeadline > 0 {
		deadlineCtx, cancel := context.WithTimeout(context.Background(), params.SafetyDeadline)
		defer cancel()
		joined, cancelJoined := constext.Cons(ctx, deadlineCtx)
		defer cancelJoined()
		runCtx = joined
	}

	for _, atom := range params.Targets {
		r.queue.push(pendingEntry{atom: atom, class: ClassRun})
	}

	for r.queue.len() > 0 {
		select {
		case <-runCtx.Done():
			return r.buildPlan(true)
		default:
		}

		entry, ok := r.queue.pop()
		if !ok {
			break
		}
		r.attempts++
		if err := r.resolveEntry(entry); err != nil {
			return nil, err
		}
	}

	return r.buildPlan(false)
}

func (r *Resolver) resolveEntry(entry pendingEntry) error {
	key := qpnSlotKey{Name: entry.atom.Package}
	if entry.atom.HasSlot {
		key.Slot = entry.atom.Slot
	}

	if existing, ok := r.selected[key]; ok {
		if entry.atom.Matches(existing, entry.depender) {
			// Record the edge even though the target was selected earlier
			// by some other depender: a second (diamond) dependent on the
			// same package still needs it ordered before itself in the
			// final plan.
			if entry.depender != nil {
				fromKey := qpnSlotKey{Name: entry.depender.Name(), Slot: entry.depender.Slot()}
				r.edges = append(r.edges, edge{from: fromKey, to: key, class: entry.class})
			}
			return nil
		}
		newCandidate := existing
		if cands := r.env.PackageDatabase().Query(entry.atom, entry.depender); len(cands) > 0 {
			newCandidate = cands[len(cands)-1]
		}
		return &SlotCollision{
			Name:     entry.atom.Package,
			Slot:     key.Slot,
			Existing: existing,
			New:      newCandidate,
			path:     entry.path.String(),
		}
	}

	candidates := r.env.PackageDatabase().Query(entry.atom, entry.depender)
	if len(candidates) == 0 {
		return &NoMatch{Atom: entry.atom}
	}
	chosen := candidates[len(candidates)-1]
	for _, c := range candidates {
		if existing, ok := r.selected[qpnSlotKey{Name: c.Name(), Slot: c.Slot()}]; ok {
			chosen = existing
			break
		}
	}

	selKey := qpnSlotKey{Name: chosen.Name(), Slot: chosen.Slot()}
	if entry.class == ClassSuggested {
		// Listed in the plan but neither selected nor expanded; a later
		// hard dependency on the same package replaces this entry.
		if _, installed := r.selected[selKey]; !installed {
			r.order = append(r.order, selKey)
			r.entries[selKey] = &PlanEntry{ID: chosen, Action: ActionSuggestedSkipped, Class: entry.class, Path: entry.path}
		}
		return nil
	}
	r.selected[selKey] = chosen
	r.order = append(r.order, selKey)
	r.entries[selKey] = &PlanEntry{ID: chosen, Action: ActionInstall, Class: entry.class, Path: entry.path}

	if entry.depender != nil {
		fromKey := qpnSlotKey{Name: entry.depender.Name(), Slot: entry.depender.Slot()}
		r.edges = append(r.edges, edge{from: fromKey, to: selKey, class: entry.class})
	}

	return r.expandDependencies(chosen)
}

func (r *Resolver) expandDependencies(id PackageID) error {
	classes := []struct {
		class DependencyClass
		parse func() (Node, error)
	}{
		{ClassBuild, id.BuildDependencies},
		{ClassRun, id.RunDependencies},
		{ClassPost, id.PostDependencies},
		{ClassSuggested, id.SuggestedDependencies},
	}
	for _, c := range classes {
		tree, err := c.parse()
		if err != nil {
			return err
		}
		if tree == nil {
			continue
		}
		if err := r.walk(tree, c.class, id, nil); err != nil {
			return err
		}
	}
	return nil
}

// walk descends n, enqueuing leaves and resolving "||" arm choice and
// USE-conditional guards immediately as they are encountered, so the
// queue only ever holds committed atoms. path accumulates the Frames
// the walk has passed through so far.
func (r *Resolver) walk(n Node, class DependencyClass, depender PackageID, path ConditionPath) error {
	switch v := n.(type) {
	case AllOfNode:
		for _, c := range v.Children {
			if err := r.walk(c, class, depender, path); err != nil {
				return err
			}
		}
	case UseConditionalNode:
		enabled, _ := depender.Flag(v.Flag)
		want := enabled
		if v.Negate {
			want = !enabled
		}
		if !want {
			return nil
		}
		childPath := append(append(ConditionPath{}, path...), UseConditionalFrame{Node: v})
		for _, c := range v.Children {
			if err := r.walk(c, class, depender, childPath); err != nil {
				return err
			}
		}
	case AnyOfNode:
		return r.resolveAnyOf(v, class, depender, path)
	case PackageNode:
		r.queue.push(pendingEntry{atom: v.Atom, class: class, depender: depender, path: path})
	case BlockNode:
		r.blocks.record(&v, depender, path)
	case LabelNode:
		// Pure annotation; carries no resolver action of its own.
	}
	return nil
}

// resolveAnyOf picks the first arm whose package leaves, at any depth
// and whatever the state of the USE conditionals around them, all
// have at least one candidate in the database (first-satisfiable, with
// the database query itself serving as the 1-step lookahead — it
// answers "could this arm work" without committing any selection).
//
// This is a deliberate simplification of the two-phase algorithm the
// any-of grammar could in principle support (first-satisfiable with a
// deferred retry once more of the walk has committed selections,
// falling back to AnyOfUnsatisfiable only once no arm ever became
// satisfiable): a single pass has no way to tell "this arm will never
// work" apart from "this arm would work once some other pending entry
// resolves", so a deferred retry queue would only postpone, not avoid,
// the same AnyOfUnsatisfiable outcome in the one-target-at-a-time
// walk this resolver performs. If no arm looks satisfiable against the
// database as it stands, resolution fails immediately.
func (r *Resolver) resolveAnyOf(n AnyOfNode, class DependencyClass, depender PackageID, path ConditionPath) error {
	var tried []error
	for i, arm := range n.Children {
		if r.armLooksSatisfiable(arm, depender) {
			armPath := append(append(ConditionPath{}, path...), AnyOfFrame{Node: n, ChosenArm: i})
			return r.walk(arm, class, depender, armPath)
		}
		tried = append(tried, &NoMatch{Atom: firstAtomIn(arm)})
	}
	return &AnyOfUnsatisfiable{Node: n, Tried: tried, path: path.String()}
}

func (r *Resolver) armLooksSatisfiable(n Node, depender PackageID) bool {
	ok := true
	Fold(n, func(leaf Node) {
		switch l := leaf.(type) {
		case PackageNode:
			if len(r.env.PackageDatabase().Query(l.Atom, depender)) == 0 {
				ok = false
			}
		}
	})
	return ok
}

func firstAtomIn(n Node) *PackageDepSpec {
	var found *PackageDepSpec
	Fold(n, func(leaf Node) {
		if found != nil {
			return
		}
		if p, ok := leaf.(PackageNode); ok {
			found = p.Atom
		}
	})
	return found
}

// buildPlan topologically sorts the selected entries (dependencies
// before dependents) and returns the finished Plan. Cycles are broken
// by dropping the weakest edge class first — post (and suggested),
// then run; build edges are never dropped (see topoSort).
func (r *Resolver) buildPlan(aborted bool) (*Plan, error) {
	diagnostics, err := r.blocks.resolve(r.selected, r.env.Installed())
	if err != nil {
		return nil, err
	}

	ordered, err := topoSort(r.order, r.edges)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Aborted: aborted, Diagnostics: diagnostics}
	for _, key := range ordered {
		plan.Entries = append(plan.Entries, r.entries[key])
	}
	return plan, nil
}

// topoSort orders keys so that every edge's "to" (the dependency)
// precedes its "from" (the dependent). Cycles are broken by dropping
// the lowest-priority class of edge found on the cycle — post before
// run before build, matching the resolver's documented circular_policy
// preference order — and the sort is retried from scratch; build-only
// cycles cannot be broken and are reported as CircularDependency.
func topoSort(keys []qpnSlotKey, edges []edge) ([]qpnSlotKey, error) {
	classWeight := map[DependencyClass]int{ClassPost: 0, ClassSuggested: 0, ClassRun: 1, ClassBuild: 2}

	depsOf := map[qpnSlotKey][]edge{}
	rebuild := func(es []edge) {
		depsOf = map[qpnSlotKey][]edge{}
		for _, e := range es {
			depsOf[e.from] = append(depsOf[e.from], e)
		}
	}
	rebuild(edges)

	for attempt := 0; attempt <= len(edges); attempt++ {
		out, cyclePath, cycleErr := attemptTopoSort(keys, depsOf)
		if cycleErr == nil {
			return out, nil
		}

		worst := -1
		var worstEdge edge
		for i := 0; i+1 < len(cyclePath); i++ {
			for _, e := range depsOf[cyclePath[i]] {
				if e.to == cyclePath[i+1] {
					if worst == -1 || classWeight[e.class] < classWeight[worstEdge.class] {
						worst = i
						worstEdge = e
					}
				}
			}
		}
		if worst == -1 || classWeight[worstEdge.class] >= classWeight[ClassBuild] {
			return nil, cycleErr
		}

		var kept []edge
		for _, e := range edges {
			if e == worstEdge {
				continue
			}
			kept = append(kept, e)
		}
		edges = kept
		rebuild(edges)
	}
	return nil, &CircularDependency{}
}

// attemptTopoSort runs one DFS-based topological sort pass, returning
// the cycle (as a slice of keys, earliest first) on failure.
func attemptTopoSort(keys []qpnSlotKey, depsOf map[qpnSlotKey][]edge) ([]qpnSlotKey, []qpnSlotKey, error) {
	var out []qpnSlotKey
	visited := map[qpnSlotKey]bool{}
	visiting := map[qpnSlotKey]bool{}
	var stack []qpnSlotKey

	var cycle []qpnSlotKey
	var visit func(k qpnSlotKey) bool
	visit = func(k qpnSlotKey) bool {
		if visited[k] {
			return true
		}
		if visiting[k] {
			for i, s := range stack {
				if s == k {
					cycle = append(append([]qpnSlotKey{}, stack[i:]...), k)
					return false
				}
			}
			cycle = []qpnSlotKey{k}
			return false
		}
		visiting[k] = true
		stack = append(stack, k)
		for _, e := range depsOf[k] {
			if !visit(e.to) {
				return false
			}
		}
		stack = stack[:len(stack)-1]
		visiting[k] = false
		visited[k] = true
		out = append(out, k)
		return true
	}

	for _, k := range keys {
		if !visit(k) {
			return nil, cycle, &CircularDependency{}
		}
	}
	return out, nil, nil
}
