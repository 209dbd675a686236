// Package kv reads the two flat line-oriented file formats Paludis
// leans on outside the dependency-spec grammar proper: KEY=VALUE
// profile/config fragments (package.use, bashrc-style environment
// files) and CONTENTS records (the installed-files manifest written
// for each merged package). Neither format is TOML or anything
// self-describing, so both readers are hand-rolled line scanners
// rather than a wrapped third-party parser.
package kv

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"paludis/internal/logsink"
)

// Entry is one KEY=VALUE pair read from a file, in file order.
type Entry struct {
	Key   string
	Value string
	Line  int
}

// reader tracks the current line number for a line scanner. Its fail
// method latches the first error in the "stop mapping if an error has
// already occurred" style of golang-dep's toml.go, but ParseKeyValue
// never calls it: malformed lines are warned about and skipped.
type reader struct {
	err  error
	line int
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = errors.Errorf("line %d: "+format, append([]interface{}{r.line}, args...)...)
	}
}

// ParseKeyValue reads r as a sequence of KEY=VALUE lines. Blank lines
// and lines whose first non-space character is '#' are skipped. A line
// ending in '\' is joined with the line after it (a '\' on the final
// line of input drops that line).
// Values may be shell-quoted with single or double quotes; a
// double-quoted value has ${VAR} references substituted from vars and
// from entries already read in this same file (an entry overrides a
// vars value or earlier entry of the same name, and an unresolved
// reference expands to the empty string, matching a profile file's
// best-effort substitution rather than failing the read outright).
// Malformed lines are reported via warn and skipped, not fatal, since
// one broken line in a large profile shouldn't abort every other
// setting in it.
func ParseKeyValue(r io.Reader, vars map[string]string, warn *logsink.Logger) ([]Entry, error) {
	if warn == nil {
		warn = logsink.Discard
	}
	if vars == nil {
		vars = map[string]string{}
	} else {
		copied := make(map[string]string, len(vars))
		for k, v := range vars {
			copied[k] = v
		}
		vars = copied
	}

	var entries []Entry
	rd := &reader{}
	sc := bufio.NewScanner(io.LimitReader(r, 64<<20))
	var pending string
	for sc.Scan() {
		rd.line++
		if text := sc.Text(); strings.HasSuffix(text, "\\") {
			pending += strings.TrimSuffix(text, "\\")
			continue
		}
		line := strings.TrimSpace(pending + sc.Text())
		pending = ""
		if line == "" || line[0] == '#' {
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			warn.Warn("kv: missing '=' in assignment", logsink.F("line", rd.line))
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			warn.Warn("kv: empty key", logsink.F("line", rd.line))
			continue
		}
		rawValue := strings.TrimSpace(line[eq+1:])

		value, quoted, err := unquote(rawValue)
		if err != nil {
			warn.Warn("kv: "+err.Error(), logsink.F("line", rd.line), logsink.F("key", key))
			continue
		}
		if quoted == doubleQuoted {
			value = expandVars(value, vars)
		}

		vars[key] = value
		entries = append(entries, Entry{Key: key, Value: value, Line: rd.line})
	}
	if err := sc.Err(); err != nil {
		return entries, errors.Wrap(err, "kv: reading key/value file")
	}
	return entries, nil
}

type quoteKind int

const (
	unquotedKind quoteKind = iota
	singleQuoted
	doubleQuoted
)

// unquote strips matching single or double quotes from v, reporting
// which kind (if any) were present so the caller knows whether ${VAR}
// substitution applies (shells expand inside double quotes only).
func unquote(v string) (string, quoteKind, error) {
	if len(v) < 2 {
		return v, unquotedKind, nil
	}
	first, last := v[0], v[len(v)-1]
	switch {
	case first == '\'' && last == '\'':
		return v[1 : len(v)-1], singleQuoted, nil
	case first == '"' && last == '"':
		return v[1 : len(v)-1], doubleQuoted, nil
	case first == '\'' || first == '"':
		return v, unquotedKind, errors.New("unterminated quote in value")
	default:
		return v, unquotedKind, nil
	}
}

// expandVars replaces every ${VAR} reference in s with vars[VAR],
// left as empty string if VAR is undefined. Plain $VAR (no braces) is
// left untouched; Paludis profile files only ever use the braced form.
func expandVars(s string, vars map[string]string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			b.WriteString(s)
			break
		}
		j := strings.IndexByte(s[i:], '}')
		if j < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		name := s[i+2 : i+j]
		b.WriteString(vars[name])
		s = s[i+j+1:]
	}
	return b.String()
}

// ToMap flattens entries into a map, later entries overriding earlier
// ones for the same key (matching file order: later definitions win).
func ToMap(entries []Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}
