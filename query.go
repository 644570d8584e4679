package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/enftools/classmap/internal/config"
	"github.com/enftools/classmap/internal/discover"
	"github.com/enftools/classmap/internal/hierarchy"
	"github.com/enftools/classmap/internal/model"
)

type queryOp struct {
	kind string // "subtype", "member", "cast"
	a, b string
}

// runQuery implements the `classmap query` subcommand: load one profile's
// registry and answer subtype/member/cast questions against it.
func runQuery(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("classmap query", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		profileName string
		maxFileSize int
		ops         []queryOp
	)

	fs.StringVar(&profileName, "p", "", "profile to load (default: first configured)")
	fs.StringVar(&profileName, "profile", "", "profile to load (default: first configured)")
	fs.IntVar(&maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	fs.Func("subtype", "check whether `A:B`'s left class is a subtype of the right (repeatable)", func(v string) error {
		a, b, err := splitPair(v, ":")
		if err != nil {
			return err
		}
		ops = append(ops, queryOp{kind: "subtype", a: a, b: b})
		return nil
	})
	fs.Func("member", "resolve `Class.Member` along the inheritance chain (repeatable)", func(v string) error {
		a, b, err := splitPair(v, ".")
		if err != nil {
			return err
		}
		ops = append(ops, queryOp{kind: "member", a: a, b: b})
		return nil
	})
	fs.Func("cast", "validate a Class.Cast conversion `From:To` (repeatable)", func(v string) error {
		a, b, err := splitPair(v, ":")
		if err != nil {
			return err
		}
		ops = append(ops, queryOp{kind: "cast", a: a, b: b})
		return nil
	})

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: classmap query [flags] [root]

Load a profile's class registry and answer one-off hierarchy questions.
Each query prints one result line; the command fails if any query errors
(unknown class, for example). Invalid casts and missing members are normal
results, not errors.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(ops) == 0 {
		return fmt.Errorf("no queries given (use -subtype, -member, or -cast)")
	}

	root, err := resolveRoot(fs)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	prof := &cfg.Profiles[0]
	if profileName != "" {
		prof = cfg.Profile(profileName)
		if prof == nil {
			return fmt.Errorf("unknown profile %q", profileName)
		}
	}

	reg, err := loadProfileRegistry(root, prof, maxFileSize, stderr)
	if err != nil {
		return err
	}

	failed := 0
	for _, op := range ops {
		line, ok := answer(reg, op)
		if !ok {
			failed++
		}
		_, _ = fmt.Fprintln(stdout, line)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(ops))
	}
	return nil
}

// loadProfileRegistry runs the discover/parse/register/finalize pipeline for
// one profile and returns the validated registry.
func loadProfileRegistry(root string, prof *config.Profile, maxFileSize int, stderr io.Writer) (*hierarchy.Registry, error) {
	files, err := discover.Files(root, prof.Paths)
	if err != nil {
		return nil, fmt.Errorf("profile %s: discovering files: %w", prof.Name, err)
	}
	files = filterBySize(root, files, maxFileSize, stderr)
	if len(files) == 0 {
		return nil, fmt.Errorf("profile %s: no script files found", prof.Name)
	}

	decls := parseFilesConcurrent(root, files, stderr)
	if len(decls) == 0 {
		return nil, fmt.Errorf("profile %s: no class declarations found", prof.Name)
	}

	reg := hierarchy.New()
	for _, d := range decls {
		if err := reg.Register(d); err != nil {
			return nil, fmt.Errorf("profile %s: %s:%d: %w", prof.Name, d.File, d.Line, err)
		}
	}
	if _, err := reg.Finalize(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", prof.Name, err)
	}
	return reg, nil
}

// answer runs one query and formats its result line. ok is false only for
// query errors; a false subtype, invalid cast, or missing member is a
// normal answer.
func answer(reg *hierarchy.Registry, op queryOp) (line string, ok bool) {
	switch op.kind {
	case "subtype":
		is, err := reg.IsSubtypeOf(op.a, op.b)
		if err != nil {
			return fmt.Sprintf("subtype %s %s: error: %v", op.a, op.b, err), false
		}
		return fmt.Sprintf("subtype %s %s: %t", op.a, op.b, is), true

	case "member":
		m, owner, err := reg.ResolveMember(op.a, op.b)
		if err != nil {
			var notFound *hierarchy.MemberNotFoundError
			if errors.As(err, &notFound) {
				return fmt.Sprintf("member %s.%s: not found", op.a, op.b), true
			}
			return fmt.Sprintf("member %s.%s: error: %v", op.a, op.b, err), false
		}
		return fmt.Sprintf("member %s.%s: %s (from %s)", op.a, op.b, formatMember(m), owner), true

	case "cast":
		out, err := reg.ValidateCast(op.a, op.b)
		if err != nil {
			return fmt.Sprintf("cast %s -> %s: error: %v", op.a, op.b, err), false
		}
		return fmt.Sprintf("cast %s -> %s: %s", op.a, op.b, out), true
	}
	return fmt.Sprintf("unknown query kind %q", op.kind), false
}

func formatMember(m model.Member) string {
	var b strings.Builder
	if m.Static {
		b.WriteString("static ")
	}
	if m.Native {
		b.WriteString("proto ")
	}
	b.WriteString(string(m.Kind))
	b.WriteString(" ")
	b.WriteString(m.Name)
	if m.Kind == model.Method {
		fmt.Fprintf(&b, "(%s)", strings.Join(m.Params, ", "))
	}
	if m.Type != "" {
		b.WriteString(" ")
		b.WriteString(m.Type)
	}
	return b.String()
}

func splitPair(v, sep string) (string, string, error) {
	a, b, found := strings.Cut(v, sep)
	if !found || a == "" || b == "" {
		return "", "", fmt.Errorf("expected two names separated by %q, got %q", sep, v)
	}
	return a, b, nil
}
