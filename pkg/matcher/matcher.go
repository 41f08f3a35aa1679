// Package matcher implements shell-style glob matching for ignore rules.
//
// Matching follows POSIX shell-glob semantics: '*' and '?' match any
// characters including path separators, and '[...]' matches a character
// class. There is no '**' expansion and no negation; those belong to the
// callers that layer rule semantics on top.
package matcher

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	cacheMu sync.Mutex
	cache   = map[string]*regexp.Regexp{}
)

// Match reports whether nameOrPath matches pattern. Both sides are
// normalized to forward slashes first so platform separator differences
// never cause false negatives.
func Match(nameOrPath, pattern string) bool {
	re := compile(filepath.ToSlash(pattern))
	if re == nil {
		return false
	}
	return re.MatchString(filepath.ToSlash(nameOrPath))
}

// MatchAny reports whether nameOrPath matches any of the given patterns.
func MatchAny(nameOrPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if Match(nameOrPath, pattern) {
			return true
		}
	}
	return false
}

// compile returns the cached regular expression for pattern, or nil when the
// pattern cannot be compiled (for example a malformed character range).
func compile(pattern string) *regexp.Regexp {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if re, ok := cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		re = nil
	}
	cache[pattern] = re
	return re
}

// translate converts a glob pattern into an anchored regular expression.
// '(?s)' keeps '*' matching across newlines, matching shell behavior where
// a wildcard is not line-oriented.
func translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
			i++
		case '?':
			b.WriteString(`.`)
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			// A ']' directly after the opening bracket is a literal member.
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				// Unterminated class: treat '[' as a literal.
				b.WriteString(`\[`)
				i++
				break
			}
			set := strings.ReplaceAll(pattern[i+1:j], `\`, `\\`)
			switch {
			case strings.HasPrefix(set, "!"):
				set = "^" + set[1:]
			case strings.HasPrefix(set, "^"):
				set = `\^` + set[1:]
			}
			b.WriteString("[" + set + "]")
			i = j + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString(`$`)
	return b.String()
}
