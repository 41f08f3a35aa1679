// Package changes resolves the set of files changed relative to a git base
// ref, merging the merge-base diff with working-tree status and reconciling
// the result against the filesystem.
package changes

import (
	"fmt"
	"os/exec"
	"strings"
)

// Port is the narrow view of the version-control system the resolver needs.
// Implementations block until the underlying query completes.
type Port interface {
	// Toplevel returns the repository root directory.
	Toplevel() (string, error)
	// Verify reports whether ref resolves to a commit.
	Verify(ref string) bool
	// DiffNames lists files changed between the merge base of baseRef and
	// HEAD, one path per entry.
	DiffNames(baseRef string) ([]string, error)
	// Status returns the porcelain status lines, unparsed.
	Status() ([]string, error)
	// Fetch updates the named remote.
	Fetch(remote string) error
	// SymbolicRef resolves a symbolic ref to its short target name.
	SymbolicRef(name string) (string, error)
	// ShowRemote returns the textual "remote show" report.
	ShowRemote(remote string) (string, error)
}

// GitCLI implements Port by shelling out to the git binary with a fixed
// working directory.
type GitCLI struct {
	Dir string
}

func (g GitCLI) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail := strings.TrimSpace(string(exitErr.Stderr))
			if detail == "" {
				detail = strings.TrimSpace(string(out))
			}
			if detail == "" {
				detail = "unknown error"
			}
			return string(out), fmt.Errorf("git %s failed: %s", strings.Join(args, " "), detail)
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (g GitCLI) Toplevel() (string, error) {
	out, err := g.run("rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g GitCLI) Verify(ref string) bool {
	_, err := g.run("rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}

func (g GitCLI) DiffNames(baseRef string) ([]string, error) {
	out, err := g.run("diff", "--name-only", "--no-ext-diff", baseRef+"...HEAD")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

func (g GitCLI) Status() ([]string, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

func (g GitCLI) Fetch(remote string) error {
	_, err := g.run("fetch", remote)
	return err
}

func (g GitCLI) SymbolicRef(name string) (string, error) {
	out, err := g.run("symbolic-ref", "--quiet", "--short", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g GitCLI) ShowRemote(remote string) (string, error) {
	return g.run("remote", "show", remote)
}

// nonEmptyLines splits output into lines, dropping blanks but preserving
// leading whitespace, which is positional in porcelain status output.
func nonEmptyLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
