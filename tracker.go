package paludis

import (
	"strconv"
	"strings"
)

// Frame is one step of the path under which a dependency entry was
// pulled into the resolver's walk: either inside a "||" disjunction's
// chosen arm, or inside a USE-conditional's guard. Frame is a closed
// sum of exactly these two, matching condition_tracker.hh: the original
// tracker's visit_leaf overloads for PackageDepSpec/BlockDepSpec are
// noreturn, because a condition path only ever *contains* group frames
// — the leaf is the destination the path leads to, never a frame in it.
type Frame interface {
	frame()
	String() string
}

// AnyOfFrame records that the path passed through the chosen arm (by
// index) of a "||" disjunction.
type AnyOfFrame struct {
	Node      AnyOfNode
	ChosenArm int
}

func (AnyOfFrame) frame() {}
func (f AnyOfFrame) String() string {
	return "|| ( ... ) [arm " + strconv.Itoa(f.ChosenArm) + "]"
}

// UseConditionalFrame records that the path passed through a
// "flag? ( ... )" or "!flag? ( ... )" guard.
type UseConditionalFrame struct {
	Node UseConditionalNode
}

func (UseConditionalFrame) frame() {}
func (f UseConditionalFrame) String() string {
	sign := ""
	if f.Node.Negate {
		sign = "!"
	}
	return sign + string(f.Node.Flag) + "?"
}

// ConditionPath is the full nested path of Frames leading to a
// resolver entry, oldest first. The resolver's walk builds one by
// appending a Frame to a copy of the parent's path at each group it
// enters; ConditionTracker builds one with Push/Pop. String renders it
// for diagnostics.
type ConditionPath []Frame

func (p ConditionPath) String() string {
	parts := make([]string, len(p))
	for i, f := range p {
		parts[i] = f.String()
	}
	return strings.Join(parts, " -> ")
}

// ConditionTracker accumulates a ConditionPath as a caller recursively
// descends into a dependency tree, popping each frame back off on the
// way out so sibling branches don't see each other's path.
type ConditionTracker struct {
	path ConditionPath
}

// NewConditionTracker returns an empty tracker.
func NewConditionTracker() *ConditionTracker { return &ConditionTracker{} }

// Path returns the current path, oldest frame first. The returned slice
// is a copy so callers may retain it past further Push/Pop calls.
func (t *ConditionTracker) Path() ConditionPath {
	out := make(ConditionPath, len(t.path))
	copy(out, t.path)
	return out
}

// PushAnyOf records entry into the chosen arm of an AnyOfNode.
func (t *ConditionTracker) PushAnyOf(n AnyOfNode, arm int) {
	t.path = append(t.path, AnyOfFrame{Node: n, ChosenArm: arm})
}

// PushUseConditional records entry into a UseConditionalNode's guard.
func (t *ConditionTracker) PushUseConditional(n UseConditionalNode) {
	t.path = append(t.path, UseConditionalFrame{Node: n})
}

// Pop removes the most recently pushed frame.
func (t *ConditionTracker) Pop() {
	if len(t.path) == 0 {
		return
	}
	t.path = t.path[:len(t.path)-1]
}
