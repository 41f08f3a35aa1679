// Package gitignore loads per-directory ignore rules.
//
// The supported syntax is a deliberately small subset of gitignore: one glob
// per line, blank lines and '#' comments dropped. Negation ('!') and '**'
// are not supported.
package gitignore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"promptpack/pkg/matcher"
)

// Filename is the ignore file consulted in each directory.
const Filename = ".gitignore"

// Load reads the ignore file in dir, non-recursively. A missing file yields
// no rules and no error; any other read failure is returned to the caller.
func Load(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var rules []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	return rules, nil
}

// RuleSet is an append-only collection of ignore patterns accumulated while
// descending a directory tree.
type RuleSet struct {
	patterns []string
}

// Append adds rules to the set.
func (r *RuleSet) Append(rules ...string) {
	r.patterns = append(r.patterns, rules...)
}

// Len returns the number of accumulated rules.
func (r *RuleSet) Len() int {
	return len(r.patterns)
}

// Snapshot returns the accumulated rules with capacity clamped to length, so
// appends by the caller allocate a fresh array instead of mutating the set.
func (r *RuleSet) Snapshot() []string {
	return r.patterns[:len(r.patterns):len(r.patterns)]
}

// Ignores reports whether the entry name is excluded by any accumulated
// rule. Directories additionally match rules written with a trailing slash,
// so 'build/' rejects a directory named build.
func (r *RuleSet) Ignores(name string, isDir bool) bool {
	return Ignored(name, isDir, r.patterns)
}

// Ignored applies RuleSet matching semantics to a plain rule slice.
func Ignored(name string, isDir bool, rules []string) bool {
	for _, rule := range rules {
		if matcher.Match(name, rule) {
			return true
		}
		if isDir && matcher.Match(name+"/", rule) {
			return true
		}
	}
	return false
}
