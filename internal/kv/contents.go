package kv

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"paludis/internal/logsink"
)

// ContentsEntryKind distinguishes the six record kinds a CONTENTS
// file can hold, one per line, describing what a merged package put
// on disk.
type ContentsEntryKind int

const (
	ContentsObject ContentsEntryKind = iota
	ContentsDir
	ContentsSym
	ContentsFifo
	ContentsDevice
	ContentsMisc
)

func (k ContentsEntryKind) String() string {
	switch k {
	case ContentsObject:
		return "obj"
	case ContentsDir:
		return "dir"
	case ContentsSym:
		return "sym"
	case ContentsFifo:
		return "fif"
	case ContentsDevice:
		return "dev"
	case ContentsMisc:
		return "misc"
	default:
		return "unknown"
	}
}

// ContentsEntry is one parsed line of a CONTENTS file:
//
//	obj /path/to/file <md5> <mtime>
//	dir /path/to/dir
//	sym /path/to/link -> /path/to/target <mtime>
//	fif /path/to/fifo
//	dev /path/to/device
//	misc /path/to/anything/else
//
// Only Path (and, for sym, Target) is needed by this module; the
// trailing digest/mtime fields on obj and sym lines are retained
// verbatim in Extra for a caller that wants to verify them, since this
// module does not itself checksum installed files.
type ContentsEntry struct {
	Kind   ContentsEntryKind
	Path   string
	Target string
	Extra  []string
	Line   int
}

var contentsKindByWord = map[string]ContentsEntryKind{
	"obj":  ContentsObject,
	"dir":  ContentsDir,
	"sym":  ContentsSym,
	"fif":  ContentsFifo,
	"dev":  ContentsDevice,
	"misc": ContentsMisc,
}

// ParseContents reads r as a CONTENTS manifest. A malformed or
// unrecognised line is reported via warn and skipped rather than
// aborting the read, matching ParseKeyValue's per-line tolerance —
// a single corrupted record shouldn't hide every other file a package
// installed.
func ParseContents(r io.Reader, warn *logsink.Logger) ([]ContentsEntry, error) {
	if warn == nil {
		warn = logsink.Discard
	}

	var entries []ContentsEntry
	line := 0
	sc := bufio.NewScanner(io.LimitReader(r, 64<<20))
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		kind, ok := contentsKindByWord[fields[0]]
		if !ok {
			warn.Warn("contents: unrecognised record kind", logsink.F("line", line), logsink.F("kind", fields[0]))
			continue
		}
		if len(fields) < 2 {
			warn.Warn("contents: record has no path", logsink.F("line", line))
			continue
		}

		e := ContentsEntry{Kind: kind, Path: fields[1], Line: line}
		rest := fields[2:]

		if kind == ContentsSym {
			arrow := indexOf(rest, "->")
			if arrow < 0 || arrow+1 >= len(rest) {
				warn.Warn("contents: sym record missing '-> target'", logsink.F("line", line))
				continue
			}
			e.Target = rest[arrow+1]
			rest = append(append([]string{}, rest[:arrow]...), rest[arrow+2:]...)
		}

		e.Extra = rest
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, errors.Wrap(err, "contents: reading manifest")
	}
	return entries, nil
}

func indexOf(fields []string, s string) int {
	for i, f := range fields {
		if f == s {
			return i
		}
	}
	return -1
}
