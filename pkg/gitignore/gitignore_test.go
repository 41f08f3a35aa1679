package gitignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIgnoreFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "*.log\n\n  # comment\n  build/  \nnode_modules\n")

	rules, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.log", "build/", "node_modules"}, rules)
}

func TestLoadMissingFile(t *testing.T) {
	rules, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRuleSetIgnores(t *testing.T) {
	var rs RuleSet
	rs.Append("*.log", "build/")

	assert.True(t, rs.Ignores("debug.log", false))
	assert.False(t, rs.Ignores("debug.txt", false))

	// 'build/' only matches via the directory form.
	assert.True(t, rs.Ignores("build", true))
	assert.False(t, rs.Ignores("build", false))

	// Bare rules match directories by name as well.
	rs.Append("dist")
	assert.True(t, rs.Ignores("dist", true))
	assert.True(t, rs.Ignores("dist", false))
}

func TestRuleSetSnapshotIsolation(t *testing.T) {
	var rs RuleSet
	rs.Append("a", "b")

	snap := rs.Snapshot()
	snap = append(snap, "c")

	assert.Equal(t, 2, rs.Len())
	assert.False(t, rs.Ignores("c", false))
	assert.Len(t, snap, 3)
}
