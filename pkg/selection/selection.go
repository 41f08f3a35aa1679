// Package selection walks directories and yields the files to emit, applying
// hidden-file filtering, accumulated ignore rules, explicit ignore patterns,
// and suffix filters in that order.
package selection

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"promptpack/pkg/gitignore"
	"promptpack/pkg/matcher"

	"go.uber.org/zap"
)

// Options controls directory filtering. Filters apply only to directory
// walks; a plain file argument is always emitted.
type Options struct {
	Extensions      []string // keep only files whose name ends with one of these suffixes
	IncludeHidden   bool     // keep entries whose name starts with '.'
	IgnoreFilesOnly bool     // IgnorePatterns no longer reject directories
	NoGitignore     bool     // skip per-directory ignore files entirely
	IgnorePatterns  []string // command-level globs matched against entry names

	// Skipped, when set, is notified with the path of every selected file
	// that was dropped because its content does not decode as text.
	Skipped func(path string)
}

// VisitFunc receives each selected file with its content. Returning an error
// aborts the traversal and propagates the error to the caller.
type VisitFunc func(path, content string) error

// Process emits path itself when it is a plain file, or walks it top-down
// when it is a directory. Rules discovered inside the walk are scoped to the
// subtree where they were found; rules already present in the set apply
// throughout.
//
// A file that does not decode as text is skipped with a warning. Every other
// I/O failure aborts the traversal.
func Process(path string, rules *gitignore.RuleSet, opts Options, logger *zap.Logger, visit VisitFunc) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return emitFile(path, opts, logger, visit)
	}
	return walk(path, rules.Snapshot(), opts, logger, visit)
}

func emitFile(path string, opts Options, logger *zap.Logger, visit VisitFunc) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		logger.Warn("Skipping file that does not decode as text", zap.String("path", path))
		if opts.Skipped != nil {
			opts.Skipped(path)
		}
		return nil
	}
	return visit(path, string(data))
}

func walk(dir string, rules []string, opts Options, logger *zap.Logger, visit VisitFunc) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	if !opts.NoGitignore {
		loaded, err := gitignore.Load(dir)
		if err != nil {
			return err
		}
		// Snapshot capacity is clamped, so this append copies instead of
		// leaking the directory's rules into sibling subtrees.
		rules = append(rules, loaded...)
	}

	var files, dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		isDir := entry.IsDir()
		if !isDir && entry.Type()&fs.ModeSymlink != 0 {
			// A link resolving to a directory is neither read nor walked.
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
				continue
			}
		}
		if !opts.NoGitignore && gitignore.Ignored(name, isDir, rules) {
			continue
		}
		if len(opts.IgnorePatterns) > 0 {
			if isDir {
				if !opts.IgnoreFilesOnly && matcher.MatchAny(name, opts.IgnorePatterns) {
					continue
				}
			} else if matcher.MatchAny(name, opts.IgnorePatterns) {
				continue
			}
		}
		if isDir {
			dirs = append(dirs, name)
			continue
		}
		if len(opts.Extensions) > 0 && !hasAnySuffix(name, opts.Extensions) {
			continue
		}
		files = append(files, name)
	}

	sort.Strings(files)
	for _, name := range files {
		if err := emitFile(filepath.Join(dir, name), opts, logger, visit); err != nil {
			return err
		}
	}
	for _, name := range dirs {
		if err := walk(filepath.Join(dir, name), rules, opts, logger, visit); err != nil {
			return err
		}
	}
	return nil
}

// hasAnySuffix is a raw string-suffix test, not extension parsing: a file
// named "readme" matches the suffix "me".
func hasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
