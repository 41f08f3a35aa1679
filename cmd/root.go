package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"promptpack/pkg/changes"
	"promptpack/pkg/config"
	"promptpack/pkg/emit"
	"promptpack/pkg/gitignore"
	"promptpack/pkg/logging"
	"promptpack/pkg/matcher"
	"promptpack/pkg/selection"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// defaultMaxChars bounds the total output size unless overridden; zero
// disables the limit entirely.
const defaultMaxChars = 400_000

var (
	extensions      []string
	includeHidden   bool
	ignoreFilesOnly bool
	ignoreGitignore bool
	ignorePatterns  []string
	outputFile      string
	xmlFormat       bool
	markdownFormat  bool
	lineNumbers     bool
	nullSeparator   bool
	changedOnly     bool
	baseRef         string
	remoteName      string
	fetchRemote     bool
	skipUntracked   bool
	dryRun          bool
	maxChars        int
	debug           bool
)

var logger *zap.Logger

// RootCmd is the base command; the whole tool is a single verb.
var RootCmd = &cobra.Command{
	Use:   "promptpack [paths...]",
	Short: "promptpack combines files into a single LLM-ready document",
	Long: `promptpack takes files and directories (or the files changed relative to a
Git base ref) and renders every file into one bounded text stream, in a
plain, pseudo-XML, or fenced-Markdown layout suitable for pasting into a
large-language-model prompt.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args)
	},
}

// Execute runs the root command with the provided logger.
func Execute(l *zap.Logger) error {
	logger = l
	return RootCmd.Execute()
}

func init() {
	flags := RootCmd.Flags()
	flags.StringArrayVarP(&extensions, "extension", "e", nil, "Only include files whose name ends with this suffix (repeatable)")
	flags.BoolVar(&includeHidden, "include-hidden", false, "Include files and folders starting with .")
	flags.BoolVar(&ignoreFilesOnly, "ignore-files-only", false, "--ignore patterns only reject files, never directories")
	flags.BoolVar(&ignoreGitignore, "ignore-gitignore", false, "Ignore .gitignore files and include all files")
	flags.StringArrayVar(&ignorePatterns, "ignore", nil, "Glob pattern to exclude (repeatable)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file ('-' for stdout; default: a fresh temporary file)")
	flags.BoolVarP(&xmlFormat, "cxml", "c", false, "Emit a pseudo-XML document layout")
	flags.BoolVarP(&markdownFormat, "markdown", "m", false, "Emit Markdown with fenced code blocks")
	flags.BoolVarP(&lineNumbers, "line-numbers", "n", false, "Add line numbers to file content")
	flags.BoolVarP(&nullSeparator, "null", "0", false, "Use NUL as separator when reading paths from stdin")
	flags.BoolVar(&changedOnly, "changed", false, "Emit files changed relative to a Git base ref instead of positional paths")
	flags.StringVar(&baseRef, "base", "", "Base branch or ref used with --changed (default: remote HEAD)")
	flags.StringVar(&remoteName, "remote", "origin", "Remote inspected when resolving the default base branch (requires --changed)")
	flags.BoolVar(&fetchRemote, "fetch", false, "Fetch the remote before computing diffs (requires --changed)")
	flags.BoolVar(&skipUntracked, "skip-untracked", false, "Exclude untracked files from change detection (requires --changed)")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the detected base ref and files without emitting content (requires --changed)")
	flags.IntVar(&maxChars, "max-chars", defaultMaxChars, "Maximum characters to emit before failing (0 disables the limit)")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func run(args []string) error {
	if debug {
		if debugLogger, err := logging.Setup(true); err == nil {
			logger = debugLogger
		}
	}

	paths := make([]string, 0, len(args))
	paths = append(paths, args...)
	paths = append(paths, readStdinPaths(nullSeparator)...)

	if !changedOnly && (baseRef != "" || fetchRemote || skipUntracked || dryRun || remoteName != "origin") {
		return errors.New("--base/--remote/--fetch/--skip-untracked/--dry-run can only be used with --changed")
	}
	if maxChars < 0 {
		return errors.New("--max-chars must be zero or positive")
	}

	repoRoot := ""
	if root, err := (changes.GitCLI{}).Toplevel(); err == nil {
		repoRoot = root
	} else if changedOnly || len(paths) > 0 {
		return err
	}

	if repoRoot != "" {
		merged, done, err := resolveChanged(changes.GitCLI{Dir: repoRoot}, repoRoot, paths)
		if err != nil || done {
			return err
		}
		paths = merged
	}

	if len(paths) == 0 {
		return errors.New("no paths to process; provide explicit files (or pipe them via stdin) or use --changed to collect them from Git")
	}

	return emitPaths(paths, repoRoot)
}

// resolveChanged runs change detection against the repository and merges the
// result ahead of the explicit paths. done reports that the run is complete
// without emission (dry run, or nothing to do).
func resolveChanged(git changes.Port, repoRoot string, paths []string) (merged []string, done bool, err error) {
	cfg := config.Load(repoRoot, logger)

	if fetchRemote {
		if err := git.Fetch(remoteName); err != nil {
			logger.Warn("Failed to fetch remote", zap.String("remote", remoteName), zap.Error(err))
		}
	}

	base, err := changes.ResolveBase(git, baseRef, remoteName)
	if err != nil {
		return nil, false, err
	}

	set, err := changes.Collect(git, repoRoot, base, !skipUntracked)
	if err != nil {
		return nil, false, err
	}

	changedFiles, skipped := partitionIgnored(set.Existing, cfg.IgnorePaths)
	if len(skipped) > 0 {
		fmt.Fprintf(os.Stderr, "Ignoring paths via %s: %s\n", config.Filename, strings.Join(skipped, ", "))
	}

	if len(set.Missing) > 0 {
		fmt.Fprintf(os.Stderr, "Skipping missing or non-file paths: %s\n", strings.Join(set.Missing, ", "))
	}

	if len(changedFiles) == 0 && len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "No files changed relative to %s.\n", base)
		return nil, true, nil
	}

	if dryRun {
		fmt.Fprintf(os.Stderr, "Base ref: %s\n", base)
		for _, path := range changedFiles {
			fmt.Fprintln(os.Stderr, path)
		}
		fmt.Fprintln(os.Stderr, "Dry run requested; no files emitted.")
		return nil, true, nil
	}

	if len(changedFiles) > 0 {
		fmt.Fprintf(os.Stderr, "Using base ref %s.\n", base)
	}

	return mergeUnique(changedFiles, paths), false, nil
}

// partitionIgnored splits paths into those kept and those matching one of
// the repository config's ignore patterns.
func partitionIgnored(paths, patterns []string) (kept, skipped []string) {
	if len(patterns) == 0 {
		return paths, nil
	}
	for _, path := range paths {
		if matcher.MatchAny(path, patterns) {
			skipped = append(skipped, path)
			continue
		}
		kept = append(kept, path)
	}
	return kept, skipped
}

// mergeUnique returns changed followed by explicit with first-seen
// deduplication, so change-detected files always precede explicit arguments.
func mergeUnique(changed, explicit []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, candidate := range append(append([]string(nil), changed...), explicit...) {
		if !seen[candidate] {
			seen[candidate] = true
			merged = append(merged, candidate)
		}
	}
	return merged
}

// emitPaths renders every path through the bounded writer and reports the
// outcome. Inside a repository the working directory is switched to the
// repository root for the emission phase, so change-detected paths resolve.
func emitPaths(paths []string, repoRoot string) error {
	dest := io.Writer(os.Stdout)
	destination := "stdout"
	tempPath := ""
	var outFile *os.File

	switch outputFile {
	case "":
		f, err := os.CreateTemp("", "promptpack_*.txt")
		if err != nil {
			return fmt.Errorf("failed to create temporary output file: %w", err)
		}
		outFile = f
		tempPath = f.Name()
		destination = tempPath
	case "-":
	default:
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		outFile = f
		destination = outputFile
	}

	var buffered *bufio.Writer
	if outFile != nil {
		buffered = bufio.NewWriter(outFile)
		dest = buffered
	}

	if repoRoot != "" {
		previous, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := os.Chdir(repoRoot); err != nil {
			return err
		}
		defer func() {
			if err := os.Chdir(previous); err != nil {
				logger.Warn("Failed to restore working directory", zap.String("dir", previous), zap.Error(err))
			}
		}()
	}

	writer := emit.NewBoundedWriter(dest, maxChars)
	renderer := &emit.Renderer{Format: outputFormat(), LineNumbers: lineNumbers}
	opts := selection.Options{
		Extensions:      extensions,
		IncludeHidden:   includeHidden,
		IgnoreFilesOnly: ignoreFilesOnly,
		NoGitignore:     ignoreGitignore,
		IgnorePatterns:  ignorePatterns,
	}

	emitErr := renderAll(paths, writer, renderer, opts)

	if buffered != nil {
		if err := buffered.Flush(); err != nil && emitErr == nil {
			emitErr = err
		}
	}
	if outFile != nil {
		if err := outFile.Close(); err != nil && emitErr == nil {
			emitErr = err
		}
	}

	var limitErr *emit.LimitError
	if errors.As(emitErr, &limitErr) {
		if tempPath != "" {
			if err := os.Remove(tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Failed to remove partial output file", zap.String("file", tempPath), zap.Error(err))
			}
		}
		reportLimit(limitErr)
		return limitErr
	}
	if emitErr != nil {
		return emitErr
	}

	if outputFile != "-" {
		fmt.Fprintf(os.Stderr, "Wrote promptpack output to %s\n", destination)
	}
	if writer.FileCount() > 0 {
		fmt.Fprintf(os.Stderr, "Included %d files (%d chars) into %s:\n", writer.FileCount(), writer.Total(), destination)
		for _, c := range writer.Contributions() {
			fmt.Fprintf(os.Stderr, "  - %s: %d chars\n", contributionLabel(c.Path), c.Chars)
		}
	}
	return nil
}

func renderAll(paths []string, writer *emit.BoundedWriter, renderer *emit.Renderer, opts selection.Options) error {
	var rules gitignore.RuleSet
	// An undecodable file still shows up in the summary ledger, with a zero
	// contribution.
	opts.Skipped = func(path string) {
		writer.SetCurrentFile(path)
		writer.ClearCurrentFile()
	}
	if err := renderer.Begin(writer); err != nil {
		return err
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("path does not exist: %s", path)
		}
		if !ignoreGitignore {
			loaded, err := gitignore.Load(filepath.Dir(path))
			if err != nil {
				return err
			}
			rules.Append(loaded...)
		}
		err := selection.Process(path, &rules, opts, logger, func(filePath, content string) error {
			writer.SetCurrentFile(filePath)
			defer writer.ClearCurrentFile()
			return renderer.RenderFile(writer, filePath, content)
		})
		if err != nil {
			return err
		}
	}
	return renderer.End(writer)
}

// reportLimit prints the actionable diagnostic for a budget overflow: the
// overage, the offending file, and the per-file ledger committed so far.
func reportLimit(limitErr *emit.LimitError) {
	over := limitErr.TotalBefore + limitErr.AttemptedAdd - limitErr.Limit
	source := "the current chunk"
	if limitErr.File != "" {
		source = fmt.Sprintf("%q", limitErr.File)
	}
	fmt.Fprintf(os.Stderr, "Output exceeded the maximum of %d characters by %d while adding %d characters from %s.\n",
		limitErr.Limit, over, limitErr.AttemptedAdd, source)
	fmt.Fprintln(os.Stderr, "Use --max-chars to increase the limit or 0 to disable it.")
	if len(limitErr.Contributions) > 0 {
		fmt.Fprintln(os.Stderr, "Characters emitted per file before stopping:")
		for _, c := range limitErr.Contributions {
			fmt.Fprintf(os.Stderr, "  - %s: %d chars\n", contributionLabel(c.Path), c.Chars)
		}
	}
}

func contributionLabel(path string) string {
	if path == "" {
		return "(no file context)"
	}
	return path
}

func outputFormat() emit.Format {
	switch {
	case xmlFormat:
		return emit.FormatXML
	case markdownFormat:
		return emit.FormatMarkdown
	default:
		return emit.FormatDefault
	}
}

// readStdinPaths returns paths piped through stdin. An interactive terminal
// is never read, so the run does not block waiting for input.
func readStdinPaths(useNullSeparator bool) []string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Warn("Failed to read paths from stdin", zap.Error(err))
		return nil
	}
	return splitPathList(string(data), useNullSeparator)
}

// splitPathList breaks piped input into individual paths, using either NUL
// bytes or whitespace as the separator. Empty fields are dropped.
func splitPathList(data string, useNullSeparator bool) []string {
	var parts []string
	if useNullSeparator {
		parts = strings.Split(data, "\x00")
	} else {
		parts = strings.Fields(data)
	}
	var paths []string
	for _, part := range parts {
		if part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}
