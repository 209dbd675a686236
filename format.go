package paludis

import "strings"

// Format renders n back to its textual spec-tree form. It is a
// round-trip formatter in the sense of show_suggest_visitor.hh: a
// dedicated visitor whose only job is re-rendering a tree for humans,
// not evaluating it.
func Format(n Node) string {
	var b strings.Builder
	formatInto(&b, n)
	return b.String()
}

func formatInto(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case AllOfNode:
		formatChildren(b, v.Children, " ")
	case AnyOfNode:
		b.WriteString("|| ( ")
		formatChildren(b, v.Children, " ")
		b.WriteString(" )")
	case UseConditionalNode:
		if v.Negate {
			b.WriteByte('!')
		}
		b.WriteString(string(v.Flag))
		b.WriteString("? ( ")
		formatChildren(b, v.Children, " ")
		b.WriteString(" )")
	case PackageNode:
		b.WriteString(v.Atom.Format())
	case BlockNode:
		if v.Strong {
			b.WriteString("!!")
		} else {
			b.WriteByte('!')
		}
		b.WriteString(v.Atom.Format())
	case LabelNode:
		b.WriteString(v.Text)
	case LicenseNode:
		b.WriteString(v.Name)
	case UriNode:
		b.WriteString(v.URI)
		if v.Filename != "" {
			b.WriteString(" -> ")
			b.WriteString(v.Filename)
		}
	case PlainUriNode:
		b.WriteString(v.URI)
	case TextNode:
		b.WriteString(v.Text)
	}
}

func formatChildren(b *strings.Builder, children []Node, sep string) {
	for i, c := range children {
		if i > 0 {
			b.WriteString(sep)
		}
		if g, ok := c.(AllOfNode); ok {
			// a nested all-of group keeps its "( ... )" wrapper
			b.WriteString("( ")
			formatChildren(b, g.Children, sep)
			b.WriteString(" )")
			continue
		}
		formatInto(b, c)
	}
}

func (n AllOfNode) String() string          { return Format(n) }
func (n AnyOfNode) String() string          { return Format(n) }
func (n UseConditionalNode) String() string { return Format(n) }
func (n PackageNode) String() string        { return Format(n) }
func (n BlockNode) String() string          { return Format(n) }
func (n LabelNode) String() string          { return Format(n) }
func (n LicenseNode) String() string        { return Format(n) }
func (n UriNode) String() string            { return Format(n) }
func (n PlainUriNode) String() string       { return Format(n) }
func (n TextNode) String() string           { return Format(n) }

// Format renders the PackageDepSpec atom back to its
// "[!|!!][op]cat/pkg[-version][:slot[=]][::repo][[use-reqs]]" textual
// form. Block markers are not included here; formatting a BlockNode
// adds them, since a bare PackageDepSpec is always a positive
// requirement. The "=*" operator is written as "=cat/pkg-version*".
func (p *PackageDepSpec) Format() string {
	var b strings.Builder
	if p.HasVersion {
		if p.Op == OpEqualWildcard {
			b.WriteString(string(OpEqual))
		} else {
			b.WriteString(string(p.Op))
		}
	}
	b.WriteString(p.Package.String())
	if p.HasVersion {
		b.WriteByte('-')
		b.WriteString(p.Version.String())
		if p.Op == OpEqualWildcard {
			b.WriteByte('*')
		}
	}
	if p.HasSlot {
		b.WriteByte(':')
		b.WriteString(string(p.Slot))
		if p.SlotRebind {
			b.WriteByte('=')
		}
	}
	if p.HasRepo {
		b.WriteString("::")
		b.WriteString(string(p.Repository))
	}
	if len(p.UseReqs) > 0 {
		b.WriteByte('[')
		for i, r := range p.UseReqs {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(r.String())
		}
		b.WriteByte(']')
	}
	return b.String()
}

// Flatten walks n and every descendant, returning every leaf node (the
// seven variants that carry no Children field) in tree order. It is
// for callers and tests that want a tree's full leaf set without
// hand-walking it; the resolver's any-of check uses Fold directly.
func Flatten(n Node) []Node {
	var out []Node
	Fold(n, func(leaf Node) {
		out = append(out, leaf)
	})
	return out
}

// Fold performs a bottom-up traversal of n, invoking visit once per
// leaf node in tree order. Group nodes (AllOf, AnyOf, UseConditional)
// are walked but never themselves passed to visit. This collapses the
// original's ConstVisitor<DependencySpecTree> hierarchy into a single
// type-switch-based walk, per the observation that visitor dispatch
// over a closed sum type is just a pattern match.
func Fold(n Node, visit func(leaf Node)) {
	switch v := n.(type) {
	case AllOfNode:
		for _, c := range v.Children {
			Fold(c, visit)
		}
	case AnyOfNode:
		for _, c := range v.Children {
			Fold(c, visit)
		}
	case UseConditionalNode:
		for _, c := range v.Children {
			Fold(c, visit)
		}
	default:
		visit(n)
	}
}

// CountPackages returns the number of PackageNode and BlockNode leaves
// anywhere in n, a small diagnostic built on top of Fold.
func CountPackages(n Node) int {
	count := 0
	Fold(n, func(leaf Node) {
		switch leaf.(type) {
		case PackageNode, BlockNode:
			count++
		}
	})
	return count
}
