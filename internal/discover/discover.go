// Package discover finds script source files in an SDK tree.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/enftools/classmap/internal/lang"
)

// FileEntry represents a discovered script file.
type FileEntry struct {
	Path     string // Relative to the SDK root
	Language string
}

var skipDirs = map[string]struct{}{
	".git":      {},
	".hg":       {},
	".svn":      {},
	"build":     {},
	"dist":      {},
	"out":       {},
	"Workbench": {},
	"addons":    {},
}

// Files discovers script files under root. If subpaths is non-empty, only
// files below one of those root-relative paths are returned. Results are
// sorted by path so later stages see a deterministic declaration order.
func Files(root string, subpaths []string) ([]FileEntry, error) {
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	starts := []string{root}
	if len(subpaths) > 0 {
		starts = starts[:0]
		for _, p := range subpaths {
			start := filepath.Join(root, p)
			info, err := os.Stat(start)
			if err != nil {
				return nil, fmt.Errorf("profile path %s: %w", p, err)
			}
			if !info.IsDir() {
				return nil, fmt.Errorf("profile path %s: not a directory", p)
			}
			starts = append(starts, start)
		}
	}

	var results []FileEntry
	seen := make(map[string]struct{})

	for _, start := range starts {
		err := filepath.WalkDir(start, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // skip errors
			}

			name := d.Name()

			if d.IsDir() {
				if path == start {
					return nil
				}
				if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(name, ".") {
				return nil
			}

			// Skip symlinks
			if d.Type()&os.ModeSymlink != 0 {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}

			if gitFiles != nil {
				if _, ok := gitFiles[rel]; !ok {
					return nil
				}
			} else if gi != nil && gi.MatchesPath(rel) {
				return nil
			}

			langName := lang.ForExtension(filepath.Ext(name))
			if langName == "" {
				return nil
			}

			if _, dup := seen[rel]; dup {
				return nil // overlapping subpaths
			}
			seen[rel] = struct{}{}
			results = append(results, FileEntry{Path: rel, Language: langName})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
