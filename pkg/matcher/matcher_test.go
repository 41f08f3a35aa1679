package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchWildcards(t *testing.T) {
	assert.True(t, Match("server.log", "*.log"))
	assert.False(t, Match("server.log.txt", "*.log"))
	assert.True(t, Match("a.py", "?.py"))
	assert.False(t, Match("ab.py", "?.py"))
	assert.True(t, Match("anything", "*"))
	assert.True(t, Match("", "*"))
	assert.False(t, Match("", "?"))
}

func TestMatchStarCrossesSeparators(t *testing.T) {
	// Shell-glob '*' is not path-aware; a pattern can span directories.
	assert.True(t, Match("src/app/main.py", "src/*.py"))
	assert.True(t, Match("docs/notes.txt", "docs/*"))
}

func TestMatchCharacterClass(t *testing.T) {
	assert.True(t, Match("a1.txt", "a[0-9].txt"))
	assert.False(t, Match("ax.txt", "a[0-9].txt"))
	assert.True(t, Match("ax.txt", "a[!0-9].txt"))
	assert.False(t, Match("a1.txt", "a[!0-9].txt"))
	// Unterminated class falls back to a literal bracket.
	assert.True(t, Match("a[b", "a[b"))
	assert.False(t, Match("ab", "a[b"))
}

func TestMatchLiteralsAreEscaped(t *testing.T) {
	assert.True(t, Match("a+b.txt", "a+b.txt"))
	assert.False(t, Match("aab.txt", "a+b.txt"))
	assert.True(t, Match("v1.2", "v1.2"))
	assert.False(t, Match("v1x2", "v1.2"))
}

func TestMatchNormalizesSeparators(t *testing.T) {
	assert.True(t, Match(`src\main.py`, "src/main.py"))
	assert.True(t, Match("src/main.py", `src\main.py`))
}

func TestMatchDirectoryRuleForm(t *testing.T) {
	// Callers test directories with a trailing slash appended to the name.
	assert.True(t, Match("build/", "build/"))
	assert.False(t, Match("build", "build/"))
	assert.True(t, Match("build", "build"))
}

func TestMatchCaseSensitive(t *testing.T) {
	assert.False(t, Match("README.md", "readme.md"))
}

func TestMatchNewlineContent(t *testing.T) {
	assert.True(t, Match("a\nb", "a*b"))
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"*.log", "tmp*"}
	assert.True(t, MatchAny("debug.log", patterns))
	assert.True(t, MatchAny("tmpfile", patterns))
	assert.False(t, MatchAny("main.go", patterns))
	assert.False(t, MatchAny("main.go", nil))
}
