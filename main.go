// classmap generates a class hierarchy map for Enforce-style script SDKs
// in TOON format.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sanity-io/litter"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/enftools/classmap/internal/config"
	"github.com/enftools/classmap/internal/discover"
	"github.com/enftools/classmap/internal/hierarchy"
	"github.com/enftools/classmap/internal/lang"
	"github.com/enftools/classmap/internal/model"
	"github.com/enftools/classmap/internal/parse"
	"github.com/enftools/classmap/internal/toon"
)

var version = "dev"

const defaultMaxFileSize = 1_000_000 // 1 MB

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "query" {
		if err := runQuery(args[1:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := run(args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("classmap", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		profileName string
		cachePath   string
		maxFileSize int
		dump        bool
		showVersion bool
	)

	fs.StringVar(&profileName, "p", "", "load only the named profile")
	fs.StringVar(&profileName, "profile", "", "load only the named profile")
	fs.StringVar(&cachePath, "cache", "", "cache file path")
	fs.IntVar(&maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	fs.BoolVar(&dump, "dump", false, "dump extracted declarations to stderr")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "classmap %s\n", version)
		return nil
	}

	root, err := resolveRoot(fs)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	profiles := cfg.Profiles
	if profileName != "" {
		p := cfg.Profile(profileName)
		if p == nil {
			return fmt.Errorf("unknown profile %q", profileName)
		}
		profiles = []config.Profile{*p}
	}

	// Discover everything up front so the cache check covers all profiles.
	type profileLoad struct {
		prof  config.Profile
		files []discover.FileEntry
	}
	var loads []profileLoad
	var allFiles []discover.FileEntry
	for _, prof := range profiles {
		files, err := discover.Files(root, prof.Paths)
		if err != nil {
			return fmt.Errorf("profile %s: discovering files: %w", prof.Name, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("profile %s: no script files found", prof.Name)
		}
		loads = append(loads, profileLoad{prof: prof, files: files})
		allFiles = append(allFiles, files...)
	}

	if cachePath != "" && cacheIsFresh(cachePath, root, allFiles) {
		data, err := os.ReadFile(cachePath)
		if err == nil {
			_, _ = stdout.Write(data)
			return nil
		}
	}

	var maps []string
	for _, load := range loads {
		files := filterBySize(root, load.files, maxFileSize, stderr)
		if len(files) == 0 {
			return fmt.Errorf("profile %s: no script files found (all exceeded size limit)", load.prof.Name)
		}

		decls := parseFilesConcurrent(root, files, stderr)
		if len(decls) == 0 {
			return fmt.Errorf("profile %s: no class declarations found", load.prof.Name)
		}
		if dump {
			_, _ = fmt.Fprintln(stderr, litter.Sdump(decls))
		}

		hm, err := buildMap(load.prof.Name, root, decls)
		if err != nil {
			return fmt.Errorf("profile %s: %w", load.prof.Name, err)
		}
		maps = append(maps, toon.Encode(hm))
	}

	output := strings.Join(maps, "\n\n")

	if cachePath != "" {
		_ = os.WriteFile(cachePath, []byte(output+"\n"), 0o644)
	}

	_, _ = fmt.Fprintln(stdout, output)
	return nil
}

func resolveRoot(fs *flag.FlagSet) (string, error) {
	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

// buildMap registers all declarations, finalizes the registry, and produces
// the report view for one profile.
func buildMap(profile, root string, decls []model.ClassDecl) (*model.HierarchyMap, error) {
	reg := hierarchy.New()
	for _, d := range decls {
		if err := reg.Register(d); err != nil {
			var conflict *hierarchy.ConflictError
			if errors.As(err, &conflict) {
				return nil, fmt.Errorf("%s:%d: %w", d.File, d.Line, err)
			}
			return nil, err
		}
	}

	diags, err := reg.Finalize()
	if err != nil {
		return nil, err
	}

	entries, err := reg.Entries()
	if err != nil {
		return nil, err
	}

	return &model.HierarchyMap{
		Profile:     profile,
		Root:        filepath.Base(root),
		Classes:     entries,
		Diagnostics: diags,
	}, nil
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, stderr io.Writer) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// parseFilesConcurrent extracts class declarations from every file using a
// bounded worker pool. Results are re-assembled in discovery order so
// registration order is deterministic regardless of scheduling.
func parseFilesConcurrent(root string, files []discover.FileEntry, stderr io.Writer) []model.ClassDecl {
	type result struct {
		index int
		decls []model.ClassDecl
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	var stderrMu sync.Mutex

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			parsers := make(map[string]*parserPair)

			for idx := range work {
				f := files[idx]
				pp, ok := parsers[f.Language]
				if !ok {
					l := lang.Languages[f.Language]
					q, err := l.GetClassQuery()
					if err != nil {
						stderrMu.Lock()
						_, _ = fmt.Fprintf(stderr, "Warning: failed to compile query for %s: %v\n", f.Language, err)
						stderrMu.Unlock()
						continue
					}
					pp = &parserPair{lang: l, parser: l.NewParser(), query: q}
					parsers[f.Language] = pp
				}

				source, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					stderrMu.Lock()
					_, _ = fmt.Fprintf(stderr, "Warning: failed to read %s: %v\n", f.Path, err)
					stderrMu.Unlock()
					continue
				}

				decls := parse.ExtractClasses(pp.lang, pp.parser, pp.query, source, f.Path)
				results <- result{index: idx, decls: decls}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([][]model.ClassDecl, len(files))
	for r := range results {
		indexed[r.index] = r.decls
	}

	var decls []model.ClassDecl
	for _, d := range indexed {
		decls = append(decls, d...)
	}

	return decls
}

type parserPair struct {
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-p": true, "--p": true,
	"-profile": true, "--profile": true,
	"-cache": true, "--cache": true,
	"-max-file-size": true, "--max-file-size": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
