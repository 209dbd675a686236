package paludis

import (
	"fmt"
	"strings"
)

// NameKind identifies which family of validation rules an invalid name
// literal was checked against, for NameError.
type NameKind string

const (
	KindCategoryName   NameKind = "category name"
	KindPackageName    NameKind = "package name"
	KindSlotName       NameKind = "slot name"
	KindRepositoryName NameKind = "repository name"
	KindKeywordName    NameKind = "keyword name"
	KindSetName        NameKind = "set name"
	KindUseFlagName    NameKind = "USE flag name"
	KindVersion        NameKind = "version"
)

// NameError is returned by every name constructor in this file when the
// supplied literal fails the validation rules for its kind.
type NameError struct {
	Kind  NameKind
	Value string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("'%s' is not a valid %s", e.Value, e.Kind)
}

func nameErr(kind NameKind, value string) error {
	return &NameError{Kind: kind, Value: value}
}

// CategoryName is the category part of a QualifiedPackageName, e.g. "dev-lang".
type CategoryName string

// PackageName is the package part of a QualifiedPackageName, e.g. "python".
type PackageName string

// QualifiedPackageName combines a category and a package name, e.g.
// "dev-lang/python".
type QualifiedPackageName struct {
	Category CategoryName
	Package  PackageName
}

func (q QualifiedPackageName) String() string {
	return string(q.Category) + "/" + string(q.Package)
}

func (q QualifiedPackageName) Less(o QualifiedPackageName) bool {
	if q.Category != o.Category {
		return q.Category < o.Category
	}
	return q.Package < o.Package
}

// SlotName names a SLOT, the parallel-install discriminator.
type SlotName string

// RepositoryName names a Repository. Two RepositoryNames are only ever
// compared for equality, never ordered, matching the original's
// EqualityComparisonTag validator.
type RepositoryName string

// KeywordName names a KEYWORDS token, e.g. "amd64" or "~x86".
type KeywordName string

// SetName names a package set, e.g. "@system".
type SetName string

// UseFlagName names a USE flag.
type UseFlagName string

func isNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '+' || r == '_' || r == '.' || r == '-'
}

// NewCategoryName validates and constructs a CategoryName.
//
// Category parts may contain alphanumerics, '+', '_', '.', and '-', and
// must not begin with '-' or '.'.
func NewCategoryName(s string) (CategoryName, error) {
	if !validSimpleName(s) {
		return "", nameErr(KindCategoryName, s)
	}
	return CategoryName(s), nil
}

// NewPackageName validates and constructs a PackageName.
//
// Package parts follow the same character rules as categories, but must
// not end in a hyphen immediately followed by what looks like a version
// (e.g. "foo-1.2") since that would make "cat/foo-1.2" ambiguous between
// package "foo-1" and "foo" at version "2", vs. package "foo" at version
// "1.2". This mirrors PackageNamePartValidator in the original.
func NewPackageName(s string) (PackageName, error) {
	if !validSimpleName(s) {
		return "", nameErr(KindPackageName, s)
	}
	if idx := lastHyphenVersionLike(s); idx >= 0 {
		return "", nameErr(KindPackageName, s)
	}
	return PackageName(s), nil
}

func validSimpleName(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '.' {
		return false
	}
	for _, r := range s {
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

// lastHyphenVersionLike returns the index of a trailing "-<digit>..." that
// would make s ambiguous as a package name part, or -1 if none is found.
func lastHyphenVersionLike(s string) int {
	idx := strings.LastIndexByte(s, '-')
	if idx < 0 || idx == len(s)-1 {
		return -1
	}
	rest := s[idx+1:]
	if rest[0] < '0' || rest[0] > '9' {
		return -1
	}
	return idx
}

// NewSlotName validates and constructs a SlotName.
func NewSlotName(s string) (SlotName, error) {
	if !validSimpleName(s) {
		return "", nameErr(KindSlotName, s)
	}
	return SlotName(s), nil
}

// NewRepositoryName validates and constructs a RepositoryName.
//
// Repository names allow alphanumerics, '_' and '-', but not '.' or '+',
// and must not begin with '-'.
func NewRepositoryName(s string) (RepositoryName, error) {
	if s == "" || s[0] == '-' {
		return "", nameErr(KindRepositoryName, s)
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return "", nameErr(KindRepositoryName, s)
		}
	}
	return RepositoryName(s), nil
}

// NewKeywordName validates and constructs a KeywordName. An optional
// leading '~' (unstable) or '-' (masked-on-arch) prefix is permitted
// before the architecture token, and a bare "*"/"~*"/"-*" wildcard is
// also accepted.
func NewKeywordName(s string) (KeywordName, error) {
	if s == "" {
		return "", nameErr(KindKeywordName, s)
	}
	body := s
	if body[0] == '~' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" {
		return "", nameErr(KindKeywordName, s)
	}
	if body == "*" {
		return KeywordName(s), nil
	}
	for _, r := range body {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return "", nameErr(KindKeywordName, s)
		}
	}
	return KeywordName(s), nil
}

// NewSetName validates and constructs a SetName. Set names carry a
// leading '@'.
func NewSetName(s string) (SetName, error) {
	if len(s) < 2 || s[0] != '@' {
		return "", nameErr(KindSetName, s)
	}
	if !validSimpleName(s[1:]) {
		return "", nameErr(KindSetName, s)
	}
	return SetName(s), nil
}

// NewUseFlagName validates and constructs a UseFlagName. USE flag names
// must start with an alphanumeric and may contain '+', '_', '-'
// thereafter.
func NewUseFlagName(s string) (UseFlagName, error) {
	if s == "" {
		return "", nameErr(KindUseFlagName, s)
	}
	first := rune(s[0])
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || (first >= '0' && first <= '9')) {
		return "", nameErr(KindUseFlagName, s)
	}
	for _, r := range s[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '+' || r == '_' || r == '-') {
			return "", nameErr(KindUseFlagName, s)
		}
	}
	return UseFlagName(s), nil
}
