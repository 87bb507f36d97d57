package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"zsem/internal/diag"
	"zsem/internal/source"
)

// Pretty renders diagnostics in a human-readable form. Callers are
// expected to bag.Sort() beforehand. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line with a ^~~~ underline, then notes
// in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	for _, d := range bag.Items() {
		writePretty(w, &d, fs, opts)
	}
}

func writePretty(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	head := sevColor(d.Severity, opts.Color)
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s: ", formatPath(fs, d.Primary, opts.PathMode, start))
	head.Fprintf(w, "%s %s", d.Severity, d.Code)
	fmt.Fprintf(w, ": %s\n", d.Message)
	writeContext(w, fs, d.Primary, opts)

	if !opts.ShowNotes {
		return
	}
	for _, note := range d.Notes {
		nstart, _ := fs.Resolve(note.Span)
		fmt.Fprintf(w, "%s: note: %s\n", formatPath(fs, note.Span, opts.PathMode, nstart), note.Msg)
		writeContext(w, fs, note.Span, opts)
	}
}

func formatPath(fs *source.FileSet, span source.Span, mode PathMode, pos source.LineCol) string {
	f := fs.Get(span.File)
	if f == nil {
		return fmt.Sprintf("?:%d:%d", pos.Line, pos.Col)
	}
	path := f.Path
	if mode == PathModeBasename {
		path = filepath.Base(path)
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
}

// writeContext prints the first source line the span covers with a caret
// underline beneath it.
func writeContext(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	f := fs.Get(span.File)
	if f == nil || span.Empty() && span.Start >= uint32(len(f.Content)) {
		return
	}
	start, _ := fs.Resolve(span)
	lineStart, lineEnd := lineBounds(f, start.Line)
	line := strings.TrimRight(string(f.Content[lineStart:lineEnd]), "\n")

	fmt.Fprintf(w, "  %s\n", line)

	col := int(span.Start - lineStart)
	if col < 0 || col > len(line) {
		return
	}
	width := int(span.Len())
	if width < 1 {
		width = 1
	}
	if col+width > len(line) {
		width = len(line) - col
		if width < 1 {
			width = 1
		}
	}
	underline := strings.Repeat(" ", col) + "^" + strings.Repeat("~", width-1)
	mark := sevColor(diag.SevInfo, opts.Color)
	fmt.Fprint(w, "  ")
	mark.Fprintln(w, underline)
}

func lineBounds(f *source.File, line uint32) (uint32, uint32) {
	var start uint32
	if line > 1 && int(line-2) < len(f.LineIdx) {
		start = f.LineIdx[line-2] + 1
	}
	end := uint32(len(f.Content))
	if int(line-1) < len(f.LineIdx) {
		end = f.LineIdx[line-1]
	}
	if start > end {
		start = end
	}
	return start, end
}

func sevColor(sev diag.Severity, enabled bool) *color.Color {
	var c *color.Color
	switch sev {
	case diag.SevError:
		c = color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		c = color.New(color.FgYellow, color.Bold)
	default:
		c = color.New(color.FgCyan)
	}
	if !enabled {
		c.DisableColor()
	}
	return c
}
