package changes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is a canned-response Port for resolver tests.
type fakePort struct {
	toplevel    string
	refs        map[string]bool
	diffNames   []string
	diffErr     error
	statusLines []string
	statusErr   error
	symbolicRef string
	symbolicErr error
	showRemote  string
	showErr     error
	fetchErr    error
}

func (f *fakePort) Toplevel() (string, error) {
	if f.toplevel == "" {
		return "", errors.New("not a git repository")
	}
	return f.toplevel, nil
}

func (f *fakePort) Verify(ref string) bool { return f.refs[ref] }

func (f *fakePort) DiffNames(string) ([]string, error) { return f.diffNames, f.diffErr }

func (f *fakePort) Status() ([]string, error) { return f.statusLines, f.statusErr }

func (f *fakePort) Fetch(string) error { return f.fetchErr }

func (f *fakePort) SymbolicRef(string) (string, error) {
	if f.symbolicErr != nil {
		return "", f.symbolicErr
	}
	return f.symbolicRef, nil
}

func (f *fakePort) ShowRemote(string) (string, error) { return f.showRemote, f.showErr }

func TestResolveBaseExplicit(t *testing.T) {
	p := &fakePort{refs: map[string]bool{"develop": true}}
	ref, err := ResolveBase(p, "develop", "origin")
	require.NoError(t, err)
	assert.Equal(t, "develop", ref)
}

func TestResolveBaseFallsBackToRemotePrefix(t *testing.T) {
	p := &fakePort{refs: map[string]bool{"origin/develop": true}}
	ref, err := ResolveBase(p, "develop", "origin")
	require.NoError(t, err)
	assert.Equal(t, "origin/develop", ref)
}

func TestResolveBaseUnknownRef(t *testing.T) {
	p := &fakePort{refs: map[string]bool{}}
	_, err := ResolveBase(p, "develop", "origin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"develop"`)
	assert.Contains(t, err.Error(), `"origin/develop"`)
}

func TestResolveBaseSymbolicRef(t *testing.T) {
	p := &fakePort{symbolicRef: "origin/main"}
	ref, err := ResolveBase(p, "", "origin")
	require.NoError(t, err)
	assert.Equal(t, "origin/main", ref)
}

func TestResolveBaseShowRemoteFallback(t *testing.T) {
	p := &fakePort{
		symbolicErr: errors.New("no symbolic ref"),
		showRemote: `* remote origin
  Fetch URL: git@example.com:demo/repo.git
  HEAD branch: trunk
  Remote branches:
    trunk tracked
`,
	}
	ref, err := ResolveBase(p, "", "origin")
	require.NoError(t, err)
	assert.Equal(t, "origin/trunk", ref)
}

func TestResolveBaseNoDefaultBranch(t *testing.T) {
	p := &fakePort{
		symbolicErr: errors.New("no symbolic ref"),
		showRemote:  "* remote origin\n  Fetch URL: none\n",
	}
	_, err := ResolveBase(p, "", "origin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--base")
}

func TestCollectMergesAndPartitions(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"modified.go", "untracked.txt", "renamed-new.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	p := &fakePort{
		diffNames: []string{"modified.go", "deleted.go"},
		statusLines: []string{
			" M modified.go", // duplicate of the diff entry
			"R  renamed-old.go -> renamed-new.go",
			"?? untracked.txt",
			" D deleted.go",
		},
	}

	set, err := Collect(p, root, "origin/main", true)
	require.NoError(t, err)

	// First-seen order, diff entries ahead of status entries, no duplicates.
	assert.Equal(t, []string{"modified.go", "renamed-new.go", "untracked.txt"}, set.Existing)
	assert.Equal(t, []string{"deleted.go", "renamed-old.go"}, set.Missing)

	for _, missing := range set.Missing {
		assert.NotContains(t, set.Existing, missing)
	}
}

func TestCollectSkipUntracked(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"modified.go", "untracked.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	p := &fakePort{
		diffNames:   []string{"modified.go"},
		statusLines: []string{"?? untracked.txt"},
	}

	set, err := Collect(p, root, "origin/main", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"modified.go"}, set.Existing)
	assert.Empty(t, set.Missing)
}

func TestCollectDirectoryCountsAsMissing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o755))

	p := &fakePort{diffNames: []string{"subdir"}}
	set, err := Collect(p, root, "origin/main", true)
	require.NoError(t, err)
	assert.Empty(t, set.Existing)
	assert.Equal(t, []string{"subdir"}, set.Missing)
}

func TestCollectPropagatesDiffError(t *testing.T) {
	p := &fakePort{diffErr: errors.New("bad ref")}
	_, err := Collect(p, t.TempDir(), "origin/main", true)
	require.Error(t, err)
}

func TestCollectSkipsShortStatusLines(t *testing.T) {
	p := &fakePort{statusLines: []string{"??", " M "}}
	set, err := Collect(p, t.TempDir(), "origin/main", true)
	require.NoError(t, err)
	assert.Empty(t, set.Existing)
	assert.Empty(t, set.Missing)
}
