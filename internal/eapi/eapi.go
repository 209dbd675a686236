// Package eapi holds the EAPI ("Ebuild API") compatibility matrix: the
// versioned dialect gate that decides which dependency-grammar and
// USE-requirement constructs are legal for a given ebuild format
// version. The matrix is data, not code, so adding a new EAPI is a
// table.toml edit rather than an if-ladder change.
package eapi

import (
	_ "embed"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

//go:embed table.toml
var tableData []byte

// EapiOptions is the authoritative set of grammar switches for one
// EAPI. The parser and USE-requirement evaluator consult it instead of
// hard-coding per-version behaviour.
type EapiOptions struct {
	AllowSelfDeps        bool `toml:"allow_self_deps"`
	AllowDefaultValues   bool `toml:"allow_default_values"`
	PortageSyntax        bool `toml:"portage_syntax"`
	BothSyntaxes         bool `toml:"both_syntaxes"`
	StrictParsing        bool `toml:"strict_parsing"`
	AllowSlotDeps        bool `toml:"allow_slot_deps"`
	AllowRepositorySpecs bool `toml:"allow_repository_specs"`
}

var table map[string]EapiOptions

func init() {
	if err := toml.Unmarshal(tableData, &table); err != nil {
		panic(errors.Wrap(err, "eapi: malformed table.toml"))
	}
}

// Lookup returns the EapiOptions registered for id, or an error if id
// names no known EAPI.
func Lookup(id string) (EapiOptions, error) {
	opts, ok := table[id]
	if !ok {
		return EapiOptions{}, errors.Errorf("eapi: unknown EAPI %q", id)
	}
	return opts, nil
}

// MustLookup is Lookup for callers (tests, the demonstration CLI) that
// treat an unknown EAPI as a programming error.
func MustLookup(id string) EapiOptions {
	opts, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return opts
}
