package paludis

import (
	"strings"

	"github.com/pkg/errors"

	"paludis/internal/eapi"
	"paludis/internal/logsink"
)

// UseReqParseError is returned when a "[use-requirement,...]" suffix on
// a PackageDepSpec atom cannot be parsed, or uses a form this atom's
// EAPI doesn't permit under strict parsing.
type UseReqParseError struct {
	Raw    string
	Detail string
}

func (e *UseReqParseError) Error() string {
	return "error parsing use requirement '" + e.Raw + "': " + e.Detail
}

func useReqErr(raw, detail string) error { return &UseReqParseError{Raw: raw, Detail: detail} }

// UseRequirement is one predicate inside a "[...]" USE-requirement
// list. The set of implementations is closed to the eight forms parsed
// by parseOneUseRequirement, matching
// elike_use_requirement.cc's UseRequirement subclass hierarchy.
type UseRequirement interface {
	// Satisfied reports whether cand meets this predicate. mine is the
	// package whose dependency string produced this requirement; the
	// conditional ("flag?", "flag=", ...) forms read mine's USE state
	// as well as cand's.
	Satisfied(cand, mine PackageID) bool
	String() string
}

// textUseRequirement carries the source text of one parsed requirement,
// so that String returns it and a formatted atom reads as it was written.
type textUseRequirement struct {
	UseRequirement
	text string
}

func (r textUseRequirement) String() string { return r.text }

// ickyUseQuery resolves a flag's boolean state on id, falling back to
// def when id declares no such flag. def == nil means "no fallback
// defined"; a missing flag with no fallback is treated as false but
// logs a warning, matching icky_use_query's own name (its author's
// acknowledgement that silently defaulting to false is a wart, kept
// for compatibility).
func ickyUseQuery(warn *logsink.Logger, flag UseFlagName, id PackageID, def *bool) bool {
	if id == nil {
		warn.Warn("no depending package in context for self-dep use requirement", logsink.F("flag", string(flag)))
		if def != nil {
			return *def
		}
		return false
	}
	enabled, ok := id.Flag(flag)
	if ok {
		return enabled
	}
	if def == nil {
		warn.Warn("no flag with this name on package", logsink.F("flag", string(flag)), logsink.F("package", id.Name().String()))
		return false
	}
	return *def
}

type enabledUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r enabledUseRequirement) Satisfied(cand, _ PackageID) bool {
	return ickyUseQuery(r.warn, r.flag, cand, r.def)
}
func (r enabledUseRequirement) String() string { return "flag '" + string(r.flag) + "' enabled" }

type disabledUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r disabledUseRequirement) Satisfied(cand, _ PackageID) bool {
	return !ickyUseQuery(r.warn, r.flag, cand, r.def)
}
func (r disabledUseRequirement) String() string { return "flag '" + string(r.flag) + "' disabled" }

type ifMineThenUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r ifMineThenUseRequirement) Satisfied(cand, mine PackageID) bool {
	return !ickyUseQuery(r.warn, r.flag, mine, nil) || ickyUseQuery(r.warn, r.flag, cand, r.def)
}
func (r ifMineThenUseRequirement) String() string {
	return "flag '" + string(r.flag) + "' enabled if enabled for the depending package"
}

type ifNotMineThenUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r ifNotMineThenUseRequirement) Satisfied(cand, mine PackageID) bool {
	return ickyUseQuery(r.warn, r.flag, mine, nil) || ickyUseQuery(r.warn, r.flag, cand, r.def)
}
func (r ifNotMineThenUseRequirement) String() string {
	return "flag '" + string(r.flag) + "' enabled if disabled for the depending package"
}

type ifMineThenNotUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r ifMineThenNotUseRequirement) Satisfied(cand, mine PackageID) bool {
	return !ickyUseQuery(r.warn, r.flag, mine, nil) || !ickyUseQuery(r.warn, r.flag, cand, r.def)
}
func (r ifMineThenNotUseRequirement) String() string {
	return "flag '" + string(r.flag) + "' disabled if enabled for the depending package"
}

type ifNotMineThenNotUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r ifNotMineThenNotUseRequirement) Satisfied(cand, mine PackageID) bool {
	return ickyUseQuery(r.warn, r.flag, mine, nil) || !ickyUseQuery(r.warn, r.flag, cand, r.def)
}
func (r ifNotMineThenNotUseRequirement) String() string {
	return "flag '" + string(r.flag) + "' disabled if disabled for the depending package"
}

type equalUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r equalUseRequirement) Satisfied(cand, mine PackageID) bool {
	return ickyUseQuery(r.warn, r.flag, cand, r.def) == ickyUseQuery(r.warn, r.flag, mine, nil)
}
func (r equalUseRequirement) String() string {
	return "flag '" + string(r.flag) + "' matches the depending package"
}

type notEqualUseRequirement struct {
	flag UseFlagName
	def  *bool
	warn *logsink.Logger
}

func (r notEqualUseRequirement) Satisfied(cand, mine PackageID) bool {
	return ickyUseQuery(r.warn, r.flag, cand, r.def) != ickyUseQuery(r.warn, r.flag, mine, nil)
}
func (r notEqualUseRequirement) String() string {
	return "flag '" + string(r.flag) + "' opposite to the depending package"
}

// ParseUseRequirements parses the comma-separated contents of a
// "[...]" suffix (without the brackets) into its component
// UseRequirements, gating each form's legality by opts the same way
// parse_elike_use_requirement does via ELikeUseRequirementOptions.
// opts.AllowSelfDeps and hasDepender must both be true for any of the
// conditional forms ("flag?", "flag=", ...).
func ParseUseRequirements(raw string, opts eapi.EapiOptions, hasDepender bool, warn *logsink.Logger) ([]UseRequirement, error) {
	if warn == nil {
		warn = logsink.Discard
	}
	fields := strings.Split(raw, ",")
	if len(fields) > 1 && !opts.PortageSyntax && !opts.BothSyntaxes {
		if opts.StrictParsing {
			return nil, useReqErr(raw, "[use,use] not safe for use here")
		}
		warn.Warn("comma-separated use requirements not portable for this EAPI", logsink.F("raw", raw))
	}
	var reqs []UseRequirement
	for _, flag := range fields {
		req, err := parseOneUseRequirement(raw, flag, opts, hasDepender, warn)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func parseOneUseRequirement(raw, flag string, opts eapi.EapiOptions, hasDepender bool, warn *logsink.Logger) (UseRequirement, error) {
	if flag == "" {
		return nil, useReqErr(raw, "invalid [] contents")
	}
	text := flag

	type factoryFn func(name UseFlagName, def *bool) UseRequirement
	var factory factoryFn

	switch {
	case flag[len(flag)-1] == '=':
		if !opts.AllowSelfDeps || !hasDepender {
			return nil, useReqErr(raw, "cannot use [use=] here")
		}
		flag = flag[:len(flag)-1]
		if flag == "" {
			return nil, useReqErr(raw, "invalid [] contents")
		}
		switch {
		case flag[len(flag)-1] == '!':
			if opts.PortageSyntax && !opts.BothSyntaxes {
				if opts.StrictParsing {
					return nil, useReqErr(raw, "[use!=] not safe for use here")
				}
				warn.Warn("[use!=] not portable for this EAPI", logsink.F("raw", raw))
			}
			flag = flag[:len(flag)-1]
			if flag == "" {
				return nil, useReqErr(raw, "invalid [] contents")
			}
			factory = func(name UseFlagName, def *bool) UseRequirement {
				return notEqualUseRequirement{flag: name, def: def, warn: warn}
			}
		case flag[0] == '!':
			if !opts.PortageSyntax && !opts.BothSyntaxes {
				if opts.StrictParsing {
					return nil, useReqErr(raw, "[!use=] not safe for use here")
				}
				warn.Warn("[!use=] not portable for this EAPI", logsink.F("raw", raw))
			}
			flag = flag[1:]
			if flag == "" {
				return nil, useReqErr(raw, "invalid [] contents")
			}
			factory = func(name UseFlagName, def *bool) UseRequirement {
				return notEqualUseRequirement{flag: name, def: def, warn: warn}
			}
		default:
			factory = func(name UseFlagName, def *bool) UseRequirement {
				return equalUseRequirement{flag: name, def: def, warn: warn}
			}
		}

	case flag[len(flag)-1] == '?':
		if !opts.AllowSelfDeps || !hasDepender {
			return nil, useReqErr(raw, "cannot use [use?] here")
		}
		flag = flag[:len(flag)-1]
		if flag == "" {
			return nil, useReqErr(raw, "invalid [] contents")
		}
		switch {
		case flag[len(flag)-1] == '!':
			flag = flag[:len(flag)-1]
			if flag == "" {
				return nil, useReqErr(raw, "invalid [] contents")
			}
			if flag[0] == '-' {
				if opts.PortageSyntax && !opts.BothSyntaxes {
					if opts.StrictParsing {
						return nil, useReqErr(raw, "[-use!?] not safe for use here")
					}
					warn.Warn("[-use!?] not portable for this EAPI", logsink.F("raw", raw))
				}
				flag = flag[1:]
				if flag == "" {
					return nil, useReqErr(raw, "invalid [] contents")
				}
				factory = func(name UseFlagName, def *bool) UseRequirement {
					return ifNotMineThenNotUseRequirement{flag: name, def: def, warn: warn}
				}
			} else {
				if opts.PortageSyntax && !opts.BothSyntaxes {
					if opts.StrictParsing {
						return nil, useReqErr(raw, "[use!?] not safe for use here")
					}
					warn.Warn("[use!?] not portable for this EAPI", logsink.F("raw", raw))
				}
				factory = func(name UseFlagName, def *bool) UseRequirement {
					return ifNotMineThenUseRequirement{flag: name, def: def, warn: warn}
				}
			}
		case flag[0] == '!':
			if !opts.PortageSyntax && !opts.BothSyntaxes {
				if opts.StrictParsing {
					return nil, useReqErr(raw, "[!use?] not safe for use here")
				}
				warn.Warn("[!use?] not portable for this EAPI", logsink.F("raw", raw))
			}
			flag = flag[1:]
			if flag == "" {
				return nil, useReqErr(raw, "invalid [] contents")
			}
			factory = func(name UseFlagName, def *bool) UseRequirement {
				return ifNotMineThenNotUseRequirement{flag: name, def: def, warn: warn}
			}
		default:
			if flag[0] == '-' {
				if opts.PortageSyntax && !opts.BothSyntaxes {
					if opts.StrictParsing {
						return nil, useReqErr(raw, "[-use?] not safe for use here")
					}
					warn.Warn("[-use?] not portable for this EAPI", logsink.F("raw", raw))
				}
				flag = flag[1:]
				if flag == "" {
					return nil, useReqErr(raw, "invalid [] contents")
				}
				factory = func(name UseFlagName, def *bool) UseRequirement {
					return ifMineThenNotUseRequirement{flag: name, def: def, warn: warn}
				}
			} else {
				factory = func(name UseFlagName, def *bool) UseRequirement {
					return ifMineThenUseRequirement{flag: name, def: def, warn: warn}
				}
			}
		}

	case flag[0] == '-':
		flag = flag[1:]
		if flag == "" {
			return nil, useReqErr(raw, "invalid [] contents")
		}
		factory = func(name UseFlagName, def *bool) UseRequirement {
			return disabledUseRequirement{flag: name, def: def, warn: warn}
		}

	default:
		factory = func(name UseFlagName, def *bool) UseRequirement {
			return enabledUseRequirement{flag: name, def: def, warn: warn}
		}
	}

	var def *bool
	if flag != "" && flag[len(flag)-1] == ')' {
		if len(flag) < 4 || flag[len(flag)-3] != '(' {
			return nil, useReqErr(raw, "invalid [] contents")
		}
		switch flag[len(flag)-2] {
		case '+':
			if !opts.AllowDefaultValues {
				if opts.StrictParsing {
					return nil, useReqErr(raw, "[use(+)] not safe for use here")
				}
				warn.Warn("[use(+)] not portable for this EAPI", logsink.F("raw", raw))
			}
			t := true
			def = &t
		case '-':
			if !opts.AllowDefaultValues {
				if opts.StrictParsing {
					return nil, useReqErr(raw, "[use(-)] not safe for use here")
				}
				warn.Warn("[use(-)] not portable for this EAPI", logsink.F("raw", raw))
			}
			f := false
			def = &f
		default:
			return nil, useReqErr(raw, "invalid [] contents")
		}
		flag = flag[:len(flag)-3]
	}

	name, err := NewUseFlagName(flag)
	if err != nil {
		return nil, errors.Wrapf(useReqErr(raw, "invalid flag name"), "parsing %q", flag)
	}
	return textUseRequirement{UseRequirement: factory(name, def), text: text}, nil
}
