// Package emit renders selected files into a single output stream, enforcing
// a total character budget and attributing consumption per source file.
package emit

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Writer is the sink contract the renderers drive: one call per logical
// output line, with optional per-file attribution. Sinks that do not track
// attribution implement SetCurrentFile and ClearCurrentFile as no-ops, so
// callers never probe for optional behavior.
type Writer interface {
	WriteLine(s string) error
	SetCurrentFile(path string)
	ClearCurrentFile()
}

// LineWriter adapts an io.Writer into a Writer with no budget and no
// attribution.
type LineWriter struct {
	Dest io.Writer
}

func (w LineWriter) WriteLine(s string) error {
	_, err := io.WriteString(w.Dest, s+"\n")
	return err
}

func (LineWriter) SetCurrentFile(string) {}

func (LineWriter) ClearCurrentFile() {}

// Contribution records how many characters one source file added to the
// output stream.
type Contribution struct {
	Path  string
	Chars int
}

// LimitError reports a write that was rejected because it would have
// exceeded the character budget. The rejected line never reaches the sink,
// and the running total excludes it; Contributions is the ledger snapshot at
// the instant of rejection.
type LimitError struct {
	Limit         int
	TotalBefore   int
	AttemptedAdd  int
	File          string // file being written when the limit hit, "" when unattributed
	Contributions []Contribution
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("output limit of %d characters reached after %d characters (attempted to add %d)",
		e.Limit, e.TotalBefore, e.AttemptedAdd)
}

// BoundedWriter forwards lines to a destination while enforcing a maximum
// total character count. Every line costs its rune count plus one for the
// trailing newline, so even an empty line costs one character.
type BoundedWriter struct {
	dest    io.Writer
	limit   int // 0 means unlimited
	total   int
	current string
	order   []string
	totals  map[string]int
}

// NewBoundedWriter returns a writer over dest. A maxChars of zero disables
// the budget.
func NewBoundedWriter(dest io.Writer, maxChars int) *BoundedWriter {
	return &BoundedWriter{
		dest:   dest,
		limit:  maxChars,
		totals: make(map[string]int),
	}
}

// SetCurrentFile attributes subsequent writes to path. The first association
// registers the path in the ledger with a zero contribution.
func (w *BoundedWriter) SetCurrentFile(path string) {
	w.current = path
	if _, ok := w.totals[path]; !ok {
		w.totals[path] = 0
		w.order = append(w.order, path)
	}
}

// ClearCurrentFile detaches attribution; subsequent writes count only toward
// the running total. Used for document-level wrapper tokens.
func (w *BoundedWriter) ClearCurrentFile() {
	w.current = ""
}

// WriteLine appends s plus a newline to the destination. Overflow is
// detected strictly before forwarding: a rejected write leaves the sink, the
// running total, and the ledger untouched and returns a *LimitError.
func (w *BoundedWriter) WriteLine(s string) error {
	additional := utf8.RuneCountInString(s) + 1
	if w.limit > 0 && w.total+additional > w.limit {
		return &LimitError{
			Limit:         w.limit,
			TotalBefore:   w.total,
			AttemptedAdd:  additional,
			File:          w.current,
			Contributions: w.Contributions(),
		}
	}
	if _, err := io.WriteString(w.dest, s); err != nil {
		return err
	}
	if _, err := io.WriteString(w.dest, "\n"); err != nil {
		return err
	}
	w.total += additional
	if w.current != "" {
		w.totals[w.current] += additional
	}
	return nil
}

// Total returns the characters written so far, separators included.
func (w *BoundedWriter) Total() int {
	return w.total
}

// FileCount returns the number of files registered in the ledger.
func (w *BoundedWriter) FileCount() int {
	return len(w.order)
}

// Contributions returns the per-file ledger in first-write order.
func (w *BoundedWriter) Contributions() []Contribution {
	out := make([]Contribution, 0, len(w.order))
	for _, path := range w.order {
		out = append(out, Contribution{Path: path, Chars: w.totals[path]})
	}
	return out
}
