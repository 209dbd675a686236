// Command paludis-resolve is a thin demonstration driver for the
// resolver package: it loads a flat-file stand-in for a package
// database, parses one or more atoms from the command line, runs one
// DepList resolution pass, and prints the resulting install plan. It
// exists to exercise the library end to end, the same role main.go
// plays for golang-dep's solver — a command-line front end, not a
// production package manager.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"paludis"
	"paludis/internal/eapi"
	"paludis/internal/logsink"
)

func main() {
	var (
		verbose     = flag.Bool("v", false, "enable verbose (warning) logging")
		eapiID      = flag.String("eapi", "7", "EAPI to parse atoms and dependency strings against")
		repoName    = flag.String("repo", "demo", "synthetic repository name for -packages entries")
		packagesArg = flag.String("packages", "", "path to a flat packages file (required)")
		installed   = flag.String("installed", "", "path to a flat packages file listing already-installed IDs")
		deadline    = flag.Duration("deadline", 5*time.Second, "safety deadline for the resolution pass (0 disables)")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: paludis-resolve -packages <file> [flags] <atom> [atom...]")
		fmt.Fprintln(os.Stderr)
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s\t%s\n", f.Name, f.Usage)
		})
		w.Flush()
	}
	flag.Parse()

	if err := run(*verbose, *eapiID, *repoName, *packagesArg, *installed, *deadline, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "paludis-resolve: %v\n", err)
		os.Exit(1)
	}
}

func run(verbose bool, eapiID, repoName, packagesPath, installedPath string, deadline time.Duration, targets []string) error {
	if packagesPath == "" {
		return errors.New("-packages is required")
	}
	if len(targets) == 0 {
		return errors.New("at least one target atom is required")
	}

	opts, err := eapi.Lookup(eapiID)
	if err != nil {
		return err
	}

	var warn *logsink.Logger
	if verbose {
		warn = logsink.New(os.Stderr)
	}

	repo, err := paludis.NewRepositoryName(repoName)
	if err != nil {
		return err
	}

	f, err := os.Open(packagesPath)
	if err != nil {
		return errors.Wrap(err, "opening packages file")
	}
	defer f.Close()
	ids, err := loadPackages(f, repo, opts, warn)
	if err != nil {
		return errors.Wrap(err, "loading packages file")
	}
	db := paludis.NewMemoryDatabase(repo, ids)

	var installedIDs []paludis.PackageID
	if installedPath != "" {
		instF, err := os.Open(installedPath)
		if err != nil {
			return errors.Wrap(err, "opening installed file")
		}
		defer instF.Close()
		installedIDs, err = loadPackages(instF, repo, opts, warn)
		if err != nil {
			return errors.Wrap(err, "loading installed file")
		}
	}

	env := &cliEnvironment{db: db, installed: installedIDs}

	var atoms []*paludis.PackageDepSpec
	for _, t := range targets {
		atom, err := paludis.ParseAtom(t, opts, nil, warn)
		if err != nil {
			return errors.Wrapf(err, "parsing target %q", t)
		}
		atoms = append(atoms, atom)
	}

	r := paludis.NewResolver(env, warn)
	plan, err := r.Resolve(context.Background(), paludis.ResolveParams{
		Targets:        atoms,
		Env:            env,
		Warn:           warn,
		SafetyDeadline: deadline,
	})
	if err != nil {
		return err
	}

	printPlan(os.Stdout, plan)
	return nil
}

func printPlan(w *os.File, plan *paludis.Plan) {
	if plan.Aborted {
		fmt.Fprintln(w, "# resolution aborted (safety deadline reached); showing partial plan")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range plan.Entries {
		if e.Action != paludis.ActionInstall {
			continue
		}
		fmt.Fprintf(tw, "install\t%s/%s\t%s\t:%s\t[%s]\n",
			e.ID.Name().Category, e.ID.Name().Package, e.ID.Version(), e.ID.Slot(), e.Class)
	}
	tw.Flush()

	if suggestions := plan.ShowSuggestions(); len(suggestions) > 0 {
		fmt.Fprintln(w, "\n# suggested, not installed:")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  %s/%s %s\n", s.ID.Name().Category, s.ID.Name().Package, s.ID.Version())
		}
	}
	for _, d := range plan.Diagnostics {
		fmt.Fprintf(w, "# warning: %s\n", d.Error())
	}
}

// cliEnvironment is the Environment the demonstration CLI builds around
// its flat-file-loaded MemoryDatabase.
type cliEnvironment struct {
	db        paludis.PackageDatabase
	installed []paludis.PackageID
}

func (e *cliEnvironment) PackageDatabase() paludis.PackageDatabase { return e.db }
func (e *cliEnvironment) Installed() []paludis.PackageID           { return e.installed }

// loadPackages reads the CLI's flat package-list format, one record per
// line:
//
//	cat/pkg-version[:slot] [use="flag1,-flag2"] [build="atom ..."] [run="..."] [post="..."] [suggest="..."]
//
// Fields after the leading atom are KEY="value" pairs (quotes required
// whenever value contains whitespace); unknown keys are rejected, a
// malformed line fails the whole load rather than silently dropping a
// package, since an incomplete demonstration database would make every
// subsequent resolve result misleading rather than merely incomplete.
func loadPackages(r *os.File, repo paludis.RepositoryName, opts eapi.EapiOptions, warn *logsink.Logger) ([]paludis.PackageID, error) {
	var ids []paludis.PackageID
	lineNo := 0
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		lineNo++
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := splitRecord(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		if len(fields) == 0 {
			continue
		}

		nv := fields[0]
		slotText := "0"
		if i := strings.LastIndexByte(nv, ':'); i >= 0 {
			slotText = nv[i+1:]
			nv = nv[:i]
		}
		idx := strings.LastIndexByte(nv, '-')
		if idx < 0 {
			return nil, errors.Errorf("line %d: %q has no trailing version", lineNo, nv)
		}
		qpn := nv[:idx]
		verText := nv[idx+1:]
		slash := strings.IndexByte(qpn, '/')
		if slash < 0 {
			return nil, errors.Errorf("line %d: %q has no 'category/package'", lineNo, qpn)
		}
		cat, err := paludis.NewCategoryName(qpn[:slash])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		pkg, err := paludis.NewPackageName(qpn[slash+1:])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		ver, err := paludis.ParseVersion(verText)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		slot, err := paludis.NewSlotName(slotText)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}

		rec := recordID{
			qname: paludis.QualifiedPackageName{Category: cat, Package: pkg},
			ver:   ver,
			slot:  slot,
			flags: map[paludis.UseFlagName]bool{},
		}

		for _, field := range fields[1:] {
			eq := strings.IndexByte(field, '=')
			if eq < 0 {
				return nil, errors.Errorf("line %d: malformed field %q", lineNo, field)
			}
			key, value := field[:eq], unquoteField(field[eq+1:])
			switch key {
			case "use":
				for _, tok := range strings.Split(value, ",") {
					tok = strings.TrimSpace(tok)
					if tok == "" {
						continue
					}
					enabled := true
					if strings.HasPrefix(tok, "-") {
						enabled = false
						tok = tok[1:]
					}
					flag, err := paludis.NewUseFlagName(tok)
					if err != nil {
						return nil, errors.Wrapf(err, "line %d", lineNo)
					}
					rec.flags[flag] = enabled
				}
			case "build":
				rec.build = value
			case "run":
				rec.run = value
			case "post":
				rec.post = value
			case "suggest":
				rec.suggest = value
			default:
				return nil, errors.Errorf("line %d: unknown field %q", lineNo, key)
			}
		}

		ids = append(ids, rec.toPackageID(repo, opts, warn))
	}
	return ids, nil
}

// recordID holds one parsed packages-file line before it is turned
// into a paludis.LazyPackageID; kept separate so dependency strings can
// be captured before the parse closures that need opts/warn exist.
type recordID struct {
	qname paludis.QualifiedPackageName
	ver   paludis.VersionSpec
	slot  paludis.SlotName
	flags map[paludis.UseFlagName]bool

	build, run, post, suggest string
}

func (r recordID) toPackageID(repo paludis.RepositoryName, opts eapi.EapiOptions, warn *logsink.Logger) paludis.PackageID {
	parse := func(s string) func() (paludis.Node, error) {
		if s == "" {
			return nil
		}
		return func() (paludis.Node, error) {
			return paludis.Parse(s, paludis.DependencyTree, opts, nil, warn)
		}
	}
	return &paludis.LazyPackageID{
		QName:          r.qname,
		Ver:            r.ver,
		SlotVal:        r.slot,
		Repo:           repo,
		Flags:          r.flags,
		ParseBuild:     parse(r.build),
		ParseRun:       parse(r.run),
		ParsePost:      parse(r.post),
		ParseSuggested: parse(r.suggest),
	}
}

// splitRecord splits a packages-file line on whitespace, treating a
// double-quoted span (balanced, no escaping) as one field regardless of
// the whitespace inside it.
func splitRecord(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, errors.New("unterminated '\"'")
	}
	flush()
	return fields, nil
}

func unquoteField(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
