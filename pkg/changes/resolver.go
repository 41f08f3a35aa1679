package changes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChangeSet is the reconciled result of change detection.
type ChangeSet struct {
	// Existing holds repository-relative paths, deduplicated first-seen, diff
	// entries before status entries, that are regular files in the working
	// tree.
	Existing []string
	// Missing holds paths referenced by the diff or status but absent from
	// the working tree, such as deletions. No path appears in both lists.
	Missing []string
}

// ResolveBase returns the ref to diff against. An explicit base is verified
// as given, then as remote/<base>. Without one, the remote's default branch
// is detected via the remote HEAD symbolic ref, falling back to parsing the
// "remote show" report.
func ResolveBase(p Port, base, remote string) (string, error) {
	if base != "" {
		if p.Verify(base) {
			return base, nil
		}
		candidate := remote + "/" + base
		if p.Verify(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("unable to locate base reference %q: tried %q and %q", base, base, candidate)
	}
	return defaultRemoteHead(p, remote)
}

func defaultRemoteHead(p Port, remote string) (string, error) {
	if ref, err := p.SymbolicRef("refs/remotes/" + remote + "/HEAD"); err == nil && ref != "" {
		return ref, nil
	}

	report, err := p.ShowRemote(remote)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "HEAD branch:") {
			continue
		}
		branch := strings.TrimSpace(strings.TrimPrefix(line, "HEAD branch:"))
		if branch != "" {
			return remote + "/" + branch, nil
		}
	}
	return "", fmt.Errorf("unable to determine default branch for remote %q; pass --base explicitly", remote)
}

// Collect merges the name-only diff against baseRef with working-tree status
// and partitions the result against the filesystem under root. Untracked
// entries are included unless includeUntracked is false; a renamed status
// entry contributes both its old and new path.
func Collect(p Port, root, baseRef string, includeUntracked bool) (ChangeSet, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(path string) {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		paths = append(paths, path)
	}

	diffNames, err := p.DiffNames(baseRef)
	if err != nil {
		return ChangeSet{}, err
	}
	for _, name := range diffNames {
		add(name)
	}

	statusLines, err := p.Status()
	if err != nil {
		return ChangeSet{}, err
	}
	for _, line := range statusLines {
		// Porcelain format: two-character code, a space, then the payload.
		if len(line) < 4 {
			continue
		}
		code, payload := line[:2], line[3:]
		if code == "??" && !includeUntracked {
			continue
		}
		candidates := []string{payload}
		if i := strings.Index(payload, " -> "); i >= 0 {
			candidates = []string{payload[:i], payload[i+4:]}
		}
		for _, candidate := range candidates {
			add(candidate)
		}
	}

	var set ChangeSet
	for _, path := range paths {
		info, err := os.Stat(filepath.Join(root, path))
		if err == nil && info.Mode().IsRegular() {
			set.Existing = append(set.Existing, path)
		} else {
			set.Missing = append(set.Missing, path)
		}
	}
	return set, nil
}
