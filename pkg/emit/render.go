package emit

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects the output layout for each emitted file.
type Format int

const (
	FormatDefault Format = iota
	FormatXML
	FormatMarkdown
)

// extLanguages maps a file's final dot-segment to a Markdown fence language
// tag. Unrecognized extensions get no tag.
var extLanguages = map[string]string{
	"py":   "python",
	"c":    "c",
	"cpp":  "cpp",
	"java": "java",
	"js":   "javascript",
	"ts":   "typescript",
	"html": "html",
	"css":  "css",
	"xml":  "xml",
	"json": "json",
	"yaml": "yaml",
	"yml":  "yaml",
	"sh":   "bash",
	"rb":   "ruby",
}

// Renderer drives a Writer with the fixed per-file call sequence for one
// output format. The XML document index is owned by the Renderer value, so a
// fresh invocation always restarts at 1.
type Renderer struct {
	Format      Format
	LineNumbers bool
	index       int
}

// Begin writes the document-level opening wrapper, with attribution cleared
// so wrapper tokens are not charged to any file. Only the XML format has one.
func (r *Renderer) Begin(w Writer) error {
	if r.Format != FormatXML {
		return nil
	}
	w.ClearCurrentFile()
	return w.WriteLine("<documents>")
}

// End writes the document-level closing wrapper.
func (r *Renderer) End(w Writer) error {
	if r.Format != FormatXML {
		return nil
	}
	w.ClearCurrentFile()
	return w.WriteLine("</documents>")
}

// RenderFile emits one file through the writer in the configured format.
func (r *Renderer) RenderFile(w Writer, path, content string) error {
	if r.LineNumbers {
		content = numberLines(content)
	}
	switch r.Format {
	case FormatXML:
		return r.renderXML(w, path, content)
	case FormatMarkdown:
		return renderMarkdown(w, path, content)
	default:
		return renderDefault(w, path, content)
	}
}

func renderDefault(w Writer, path, content string) error {
	for _, line := range []string{path, "---", content, "", "---"} {
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderXML(w Writer, path, content string) error {
	r.index++
	lines := []string{
		fmt.Sprintf("<document index=\"%d\">", r.index),
		"<source>" + path + "</source>",
		"<document_content>",
		content,
		"</document_content>",
		"</document>",
	}
	for _, line := range lines {
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func renderMarkdown(w Writer, path, content string) error {
	// The fence must be one backtick longer than the longest run already in
	// the content, so the content can never terminate it early.
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	for _, line := range []string{path, fence + languageTag(path), content, fence} {
		if err := w.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

// languageTag looks up the segment after the last dot; a path without a dot
// is looked up whole.
func languageTag(path string) string {
	return extLanguages[path[strings.LastIndexByte(path, '.')+1:]]
}

// numberLines prefixes each line with a right-aligned 1-based number padded
// to the width of the largest line number, followed by two spaces.
func numberLines(content string) string {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	width := len(strconv.Itoa(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d  %s", width, i+1, line)
	}
	return b.String()
}
