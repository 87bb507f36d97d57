package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zsem/internal/comptime"
	"zsem/internal/sema"
	"zsem/internal/source"
	"zsem/internal/trace"
	"zsem/internal/workspace"
)

// openQueryStore loads one file (plus whatever it imports, lazily) and
// returns a resolver session wired to the workspace.
func openQueryStore(cmd *cobra.Command, path string) (*workspace.Store, *sema.Session, source.FileID, error) {
	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	st := workspace.NewStore(maxDiags)
	id, err := st.Open(path)
	if err != nil {
		return nil, nil, source.NoFileID, err
	}
	sess := sema.NewSession(st, sema.Options{
		Evaluator: comptime.New(st, true),
		Callsites: st,
		Tracer:    trace.FromContext(cmd.Context()),
	})
	return st, sess, id, nil
}

// parseQueryPos accepts either a byte offset or a 1-based "line:col".
func parseQueryPos(file *source.File, arg string) (uint32, error) {
	if line, col, ok := strings.Cut(arg, ":"); ok {
		l, err := strconv.ParseUint(line, 10, 32)
		if err != nil || l == 0 {
			return 0, fmt.Errorf("invalid line in position %q", arg)
		}
		c, err := strconv.ParseUint(col, 10, 32)
		if err != nil || c == 0 {
			return 0, fmt.Errorf("invalid column in position %q", arg)
		}
		if l > uint64(len(file.LineIdx))+1 {
			return 0, fmt.Errorf("line %d past end of %s", l, file.Path)
		}
		var lineStart uint64
		if l > 1 {
			lineStart = uint64(file.LineIdx[l-2]) + 1
		}
		off := lineStart + c - 1
		if off > uint64(len(file.Content)) {
			return 0, fmt.Errorf("column %d past end of line %d", c, l)
		}
		return uint32(off), nil
	}
	off, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q (want offset or line:col)", arg)
	}
	if off > uint64(len(file.Content)) {
		return 0, fmt.Errorf("offset %d past end of %s", off, file.Path)
	}
	return uint32(off), nil
}

func formatLocation(fs *source.FileSet, span source.Span) string {
	start, _ := fs.Resolve(span)
	path := ""
	if f := fs.Get(span.File); f != nil {
		path = f.Path
	}
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}
