package paludis

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// suffixKind orders the named release suffixes. Ordering is
// _alpha < _beta < _pre < _rc < (none) < _p, per spec.
type suffixKind int

const (
	suffixAlpha suffixKind = iota
	suffixBeta
	suffixPre
	suffixRC
	suffixNone
	suffixP
)

var suffixNames = map[string]suffixKind{
	"_alpha": suffixAlpha,
	"_beta":  suffixBeta,
	"_pre":   suffixPre,
	"_rc":    suffixRC,
	"_p":     suffixP,
}

type versionSuffix struct {
	kind suffixKind
	num  int64
}

// VersionSpec is a parsed Gentoo package version, e.g. "1.2.3_pre4-r2".
//
// Ordering follows the Gentoo version grammar rather than semver:
// numeric parts compare numerically unless a non-first part has a
// leading zero (then it falls back to string comparison, a long-standing
// Gentoo quirk for parts like "08"); an optional trailing letter on the
// last numeric part is lexicographic; suffixes order as
// _alpha < _beta < _pre < _rc < (none) < _p; revisions compare last of
// all, and can be ignored on request by the "~" operator.
type VersionSpec struct {
	raw      string
	parts    []string // numeric-group parts, kept as strings for leading-zero compare
	partNums []int64
	letter   byte // 0 if absent
	suffixes []versionSuffix
	revision int64 // 0 if absent ("-r0" and absent are equal)
}

func (v VersionSpec) String() string { return v.raw }

// ParseVersion parses s into a VersionSpec, or returns a NameError of
// kind "version" wrapped with a description of what is malformed.
func ParseVersion(s string) (VersionSpec, error) {
	v := VersionSpec{raw: s}
	rest := s

	if rest == "" {
		return VersionSpec{}, errors.Wrap(nameErr(KindVersion, s), "empty version")
	}

	// revision suffix "-rN", stripped from the tail first
	if idx := strings.LastIndex(rest, "-r"); idx >= 0 {
		revStr := rest[idx+2:]
		if n, err := strconv.ParseInt(revStr, 10, 64); err == nil && revStr != "" && allDigits(revStr) {
			v.revision = n
			rest = rest[:idx]
		}
	}

	// numeric parts, dot separated
	dotParts := strings.Split(rest, ".")
	first := dotParts[0]

	// split suffixes off the final numeric part. Suffixes are of the form
	// "_alpha2", "_beta", "_pre3", "_rc1", "_p2", and may chain.
	lastIdx := len(dotParts) - 1
	tail := dotParts[lastIdx]

	var letter byte
	var suffixesRaw string
	numEnd := 0
	for numEnd < len(tail) && (tail[numEnd] >= '0' && tail[numEnd] <= '9') {
		numEnd++
	}
	if numEnd == 0 && lastIdx == 0 {
		return VersionSpec{}, errors.Wrapf(nameErr(KindVersion, s), "version %q has no leading digits", s)
	}
	numPart := tail[:numEnd]
	remainder := tail[numEnd:]
	if remainder != "" && (remainder[0] >= 'a' && remainder[0] <= 'z') {
		// could be a bare trailing letter (only legal if nothing else follows)
		if len(remainder) == 1 || remainder[1] == '_' {
			letter = remainder[0]
			remainder = remainder[1:]
		}
	}
	suffixesRaw = remainder
	dotParts[lastIdx] = numPart

	if first == "" {
		return VersionSpec{}, errors.Wrapf(nameErr(KindVersion, s), "version %q is malformed", s)
	}

	v.parts = make([]string, len(dotParts))
	v.partNums = make([]int64, len(dotParts))
	for i, p := range dotParts {
		if p == "" || !allDigits(p) {
			return VersionSpec{}, errors.Wrapf(nameErr(KindVersion, s), "version %q has a non-numeric component %q", s, p)
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return VersionSpec{}, errors.Wrapf(nameErr(KindVersion, s), "version %q component %q overflows", s, p)
		}
		v.parts[i] = p
		v.partNums[i] = n
	}
	v.letter = letter

	for suffixesRaw != "" {
		matched := false
		// "_pre" is tried before "_p", which is a prefix of it.
		for _, name := range []string{"_alpha", "_beta", "_pre", "_rc", "_p"} {
			kind := suffixNames[name]
			if strings.HasPrefix(suffixesRaw, name) {
				rest := suffixesRaw[len(name):]
				numEnd := 0
				for numEnd < len(rest) && rest[numEnd] >= '0' && rest[numEnd] <= '9' {
					numEnd++
				}
				var num int64
				if numEnd > 0 {
					num, _ = strconv.ParseInt(rest[:numEnd], 10, 64)
				}
				v.suffixes = append(v.suffixes, versionSuffix{kind: kind, num: num})
				suffixesRaw = rest[numEnd:]
				matched = true
				break
			}
		}
		if !matched {
			return VersionSpec{}, errors.Wrapf(nameErr(KindVersion, s), "version %q has an unrecognised suffix %q", s, suffixesRaw)
		}
	}

	return v, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than o. ignoreRevision implements the "~" (tilde) equality operator.
func (v VersionSpec) Compare(o VersionSpec, ignoreRevision bool) int {
	n := len(v.parts)
	if len(o.parts) > n {
		n = len(o.parts)
	}
	for i := 0; i < n; i++ {
		var pa, pb string
		var na, nb int64
		haveA, haveB := i < len(v.parts), i < len(o.parts)
		if haveA {
			pa, na = v.parts[i], v.partNums[i]
		}
		if haveB {
			pb, nb = o.parts[i], o.partNums[i]
		}
		if !haveA {
			na, pa = 0, "0"
		}
		if !haveB {
			nb, pb = 0, "0"
		}

		// Gentoo quirk: a leading zero on a non-first part forces string
		// comparison for that part, so "1.010" < "1.02" ("010" < "02" as
		// strings) even though 10 > 2 numerically.
		if i > 0 && (hasLeadingZero(pa) || hasLeadingZero(pb)) {
			if pa != pb {
				if pa < pb {
					return -1
				}
				return 1
			}
			continue
		}

		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	}

	if v.letter != o.letter {
		if v.letter < o.letter {
			return -1
		}
		return 1
	}

	if c := compareSuffixes(v.suffixes, o.suffixes); c != 0 {
		return c
	}

	if ignoreRevision {
		return 0
	}
	if v.revision != o.revision {
		if v.revision < o.revision {
			return -1
		}
		return 1
	}
	return 0
}

func hasLeadingZero(p string) bool {
	return len(p) > 1 && p[0] == '0'
}

// compareSuffixes compares two suffix chains. A missing suffix sorts as
// the "none" tier between _rc and _p, per the ordering table.
func compareSuffixes(a, b []versionSuffix) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sa := versionSuffix{kind: suffixNone}
		sb := versionSuffix{kind: suffixNone}
		if i < len(a) {
			sa = a[i]
		}
		if i < len(b) {
			sb = b[i]
		}
		if sa.kind != sb.kind {
			if sa.kind < sb.kind {
				return -1
			}
			return 1
		}
		if sa.num != sb.num {
			if sa.num < sb.num {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Less reports whether v < o under strict equality (revisions included).
func (v VersionSpec) Less(o VersionSpec) bool { return v.Compare(o, false) < 0 }

// Equal reports whether v == o under strict equality (revisions included).
func (v VersionSpec) Equal(o VersionSpec) bool { return v.Compare(o, false) == 0 }

// VersionOperator is one of the comparison operators legal in a
// PackageDepSpec atom.
type VersionOperator string

const (
	OpLess          VersionOperator = "<"
	OpLessEqual     VersionOperator = "<="
	OpEqual         VersionOperator = "="
	OpTildeEqual    VersionOperator = "~"
	OpGreaterEqual  VersionOperator = ">="
	OpGreater       VersionOperator = ">"
	OpEqualWildcard VersionOperator = "=*"
)

// Matches reports whether candidate satisfies op relative to target.
func (op VersionOperator) Matches(candidate, target VersionSpec) bool {
	switch op {
	case OpLess:
		return candidate.Compare(target, false) < 0
	case OpLessEqual:
		return candidate.Compare(target, false) <= 0
	case OpEqual:
		return candidate.Compare(target, false) == 0
	case OpTildeEqual:
		return candidate.Compare(target, true) == 0
	case OpGreaterEqual:
		return candidate.Compare(target, false) >= 0
	case OpGreater:
		return candidate.Compare(target, false) > 0
	case OpEqualWildcard:
		return versionHasPrefix(candidate, target)
	default:
		return false
	}
}

// versionHasPrefix implements "=*": candidate must match target as a
// dotted-numeric prefix, ignoring the revision on target.
func versionHasPrefix(candidate, target VersionSpec) bool {
	if len(candidate.parts) < len(target.parts) {
		return false
	}
	for i, p := range target.parts {
		if candidate.parts[i] != p {
			// numeric equality still counts unless a leading zero is
			// present on the target part, matching Compare's own rule
			if hasLeadingZero(p) || hasLeadingZero(candidate.parts[i]) {
				return false
			}
			if candidate.partNums[i] != target.partNums[i] {
				return false
			}
		}
	}
	return true
}
