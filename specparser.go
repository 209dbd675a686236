package paludis

import (
	"strings"

	"paludis/internal/eapi"
	"paludis/internal/logsink"
)

// Parse parses s as a tree of kind treeKind, gated by opts. depender is
// the PackageID whose dependency string s is, consulted by self-dep
// USE-requirement forms in atom leaves (may be nil for a tree that
// carries no such atoms, e.g. a license string). warn receives every
// non-fatal diagnostic (portability warnings the EAPI doesn't forbid
// outright); a nil warn discards them.
//
// The tokeniser is whitespace-delimited, mirroring how golang-dep's
// deduce.go walks a token stream position by position and returns a
// typed error on malformed input rather than panicking.
func Parse(s string, treeKind TreeKind, opts eapi.EapiOptions, depender PackageID, warn *logsink.Logger) (Node, error) {
	if warn == nil {
		warn = logsink.Discard
	}
	toks := tokenize(s)
	p := &parser{toks: toks, kind: treeKind, opts: opts, depender: depender, warn: warn, raw: s}
	children, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, &SpecParseError{Raw: s, Detail: "unexpected ')' with no matching '('"}
	}
	return AllOfNode{Children: children}, nil
}

// ParseAtom parses s as a single PackageDepSpec atom (no block prefix,
// no surrounding "||" or USE-conditional group) — the form a caller
// supplies directly, e.g. a target on a command line, rather than one
// found as a leaf inside a dependency tree.
func ParseAtom(s string, opts eapi.EapiOptions, depender PackageID, warn *logsink.Logger) (*PackageDepSpec, error) {
	if warn == nil {
		warn = logsink.Discard
	}
	p := &parser{toks: []string{s}, kind: DependencyTree, opts: opts, depender: depender, warn: warn, raw: s}
	return p.parsePackageDepSpec(s)
}

func tokenize(s string) []string {
	var toks []string
	for _, f := range strings.Fields(s) {
		toks = append(toks, splitParens(f)...)
	}
	return toks
}

// splitParens splits a whitespace-delimited field into separate tokens
// around any leading/trailing '(' or ')' characters, so "(" and "foo)"
// both tokenize correctly whether or not the author put spaces around
// their parens.
func splitParens(f string) []string {
	var out []string
	for len(f) > 0 {
		switch f[0] {
		case '(', ')':
			out = append(out, f[:1])
			f = f[1:]
			continue
		}
		end := len(f)
		for i, r := range f {
			if r == '(' || r == ')' {
				end = i
				break
			}
		}
		out = append(out, f[:end])
		f = f[end:]
	}
	return out
}

type parser struct {
	toks     []string
	pos      int
	kind     TreeKind
	opts     eapi.EapiOptions
	depender PackageID
	warn     *logsink.Logger
	raw      string
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (string, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) expect(tok string) error {
	t, ok := p.next()
	if !ok || t != tok {
		return &SpecParseError{Raw: p.raw, Detail: "expected '" + tok + "'"}
	}
	return nil
}

// parseGroup parses nodes until it sees a ")" (left unconsumed for the
// caller that opened the group) or runs out of tokens (top level).
func (p *parser) parseGroup() ([]Node, error) {
	var nodes []Node
	for {
		tok, ok := p.peek()
		if !ok || tok == ")" {
			return nodes, nil
		}
		p.pos++

		switch {
		case tok == "(":
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			nodes = append(nodes, AllOfNode{Children: inner})

		case tok == "||":
			if err := p.expect("("); err != nil {
				return nil, err
			}
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			n := AnyOfNode{Children: inner}
			if !legalIn(n, p.kind) {
				return nil, &SpecParseError{Raw: p.raw, Detail: "'||' is not legal in a " + p.kind.String() + " tree"}
			}
			nodes = append(nodes, n)

		case isUseConditionalHead(tok):
			negate := tok[0] == '!'
			flagText := tok
			if negate {
				flagText = flagText[1:]
			}
			flagText = flagText[:len(flagText)-1]
			flag, err := NewUseFlagName(flagText)
			if err != nil {
				return nil, &SpecParseError{Raw: p.raw, Detail: err.Error()}
			}
			if err := p.expect("("); err != nil {
				return nil, err
			}
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			n := UseConditionalNode{Flag: flag, Negate: negate, Children: inner}
			if !legalIn(n, p.kind) {
				return nil, &SpecParseError{Raw: p.raw, Detail: "USE conditionals are not legal in a " + p.kind.String() + " tree"}
			}
			nodes = append(nodes, n)

		default:
			n, err := p.parseLeaf(tok)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
	}
}

func isUseConditionalHead(tok string) bool {
	body := tok
	if strings.HasPrefix(body, "!") {
		body = body[1:]
	}
	if !strings.HasSuffix(body, "?") {
		return false
	}
	body = body[:len(body)-1]
	return body != ""
}

func (p *parser) parseLeaf(tok string) (Node, error) {
	switch p.kind {
	case DependencyTree:
		if isLabelToken(tok) {
			n := LabelNode{Text: tok}
			if !legalIn(n, p.kind) {
				return nil, &SpecParseError{Raw: p.raw, Detail: "labels are not legal in a " + p.kind.String() + " tree"}
			}
			return n, nil
		}
		return p.parseAtomToken(tok)

	case LicenseTree:
		n := LicenseNode{Name: tok}
		if !legalIn(n, p.kind) {
			return nil, &SpecParseError{Raw: p.raw, Detail: "unexpected license token"}
		}
		return n, nil

	case FetchableURITree:
		uri := tok
		filename := ""
		if next, ok := p.peek(); ok && next == "->" {
			p.pos++
			fn, ok := p.next()
			if !ok {
				return nil, &SpecParseError{Raw: p.raw, Detail: "'->' with no filename"}
			}
			filename = fn
		}
		n := UriNode{URI: uri, Filename: filename}
		if !legalIn(n, p.kind) {
			return nil, &SpecParseError{Raw: p.raw, Detail: "unexpected fetchable-uri token"}
		}
		return n, nil

	case SimpleURITree:
		n := PlainUriNode{URI: tok}
		if !legalIn(n, p.kind) {
			return nil, &SpecParseError{Raw: p.raw, Detail: "unexpected simple-uri token"}
		}
		return n, nil

	case RestrictTree, ProvideTree:
		n := TextNode{Text: tok}
		if !legalIn(n, p.kind) {
			return nil, &SpecParseError{Raw: p.raw, Detail: "unexpected token"}
		}
		return n, nil
	}
	return nil, &SpecParseError{Raw: p.raw, Detail: "unknown tree kind"}
}

// isLabelToken recognises a dependency-class label such as "build:" or
// "run:" — a bare word ending in ':' with no atom-grammar characters
// ('/' or a leading operator) before it, as used by EAPIs that group
// dependencies inline instead of via separate DEPEND/RDEPEND keys.
func isLabelToken(tok string) bool {
	if !strings.HasSuffix(tok, ":") || len(tok) < 2 {
		return false
	}
	body := tok[:len(tok)-1]
	return !strings.ContainsAny(body, "/!<>=~")
}

var versionOperatorsByLength = []VersionOperator{OpLessEqual, OpGreaterEqual, OpLess, OpGreater, OpEqual, OpTildeEqual}

// parseAtomToken parses one dependency-tree leaf token, handling the
// "!"/"!!" block prefix and dispatching to parsePackageDepSpec for the
// PackageDepSpec atom proper.
func (p *parser) parseAtomToken(tok string) (Node, error) {
	raw := tok
	strong := false
	if strings.HasPrefix(tok, "!!") {
		strong = true
		tok = tok[2:]
	} else if strings.HasPrefix(tok, "!") {
		tok = tok[1:]
	}
	isBlock := raw != tok

	atom, err := p.parsePackageDepSpec(tok)
	if err != nil {
		return nil, err
	}
	if !isBlock {
		n := PackageNode{Atom: atom}
		if !legalIn(n, p.kind) {
			return nil, &SpecParseError{Raw: p.raw, Detail: "package atoms are not legal in a " + p.kind.String() + " tree"}
		}
		return n, nil
	}
	n := BlockNode{Strong: strong, Atom: atom}
	if !legalIn(n, p.kind) {
		return nil, &SpecParseError{Raw: p.raw, Detail: "blocks are not legal in a " + p.kind.String() + " tree"}
	}
	return n, nil
}

// parsePackageDepSpec parses the atom body
// "[op]cat/pkg[-version][:slot[=]][::repo][[use-reqs]]" (without any
// leading block marker, already stripped by the caller).
func (p *parser) parsePackageDepSpec(tok string) (*PackageDepSpec, error) {
	raw := tok
	spec := &PackageDepSpec{}

	if i := strings.IndexByte(tok, '['); i >= 0 {
		if tok[len(tok)-1] != ']' {
			return nil, &SpecParseError{Raw: raw, Detail: "unterminated '[' in atom"}
		}
		reqText := tok[i+1 : len(tok)-1]
		reqs, err := ParseUseRequirements(reqText, p.opts, p.depender != nil, p.warn)
		if err != nil {
			return nil, err
		}
		spec.UseReqs = reqs
		tok = tok[:i]
	}

	if i := strings.LastIndex(tok, "::"); i >= 0 {
		repo, err := NewRepositoryName(tok[i+2:])
		if err != nil {
			return nil, &SpecParseError{Raw: raw, Detail: err.Error()}
		}
		if !p.opts.AllowRepositorySpecs {
			return nil, &EapiViolation{Raw: raw, Detail: "'::repo' restrictions are not permitted for this EAPI"}
		}
		spec.Repository = repo
		spec.HasRepo = true
		tok = tok[:i]
	}

	if i := strings.LastIndexByte(tok, ':'); i >= 0 {
		slotText := tok[i+1:]
		rebind := strings.HasSuffix(slotText, "=")
		if rebind {
			slotText = slotText[:len(slotText)-1]
		}
		slot, err := NewSlotName(slotText)
		if err != nil {
			return nil, &SpecParseError{Raw: raw, Detail: err.Error()}
		}
		if !p.opts.AllowSlotDeps {
			return nil, &EapiViolation{Raw: raw, Detail: "':slot' restrictions are not permitted for this EAPI"}
		}
		spec.Slot = slot
		spec.HasSlot = true
		spec.SlotRebind = rebind
		tok = tok[:i]
	}

	var op VersionOperator
	hasOp := false
	for _, candidate := range versionOperatorsByLength {
		if strings.HasPrefix(tok, string(candidate)) {
			op = candidate
			hasOp = true
			tok = tok[len(candidate):]
			break
		}
	}

	wildcard := false
	if hasOp && op == OpEqual && strings.HasSuffix(tok, "*") {
		wildcard = true
		tok = tok[:len(tok)-1]
	}

	if hasOp {
		idx := lastHyphenVersionLike(tok)
		if idx < 0 {
			return nil, &SpecParseError{Raw: raw, Detail: "atom has a version operator but no version"}
		}
		ver, err := ParseVersion(tok[idx+1:])
		if err != nil {
			return nil, &SpecParseError{Raw: raw, Detail: err.Error()}
		}
		spec.Version = ver
		spec.HasVersion = true
		if wildcard {
			spec.Op = OpEqualWildcard
		} else {
			spec.Op = op
		}
		tok = tok[:idx]
	}

	slash := strings.IndexByte(tok, '/')
	if slash < 0 {
		return nil, &SpecParseError{Raw: raw, Detail: "atom has no 'category/package' component"}
	}
	cat, err := NewCategoryName(tok[:slash])
	if err != nil {
		return nil, &SpecParseError{Raw: raw, Detail: err.Error()}
	}
	pkg, err := NewPackageName(tok[slash+1:])
	if err != nil {
		return nil, &SpecParseError{Raw: raw, Detail: err.Error()}
	}
	spec.Package = QualifiedPackageName{Category: cat, Package: pkg}

	return spec, nil
}
