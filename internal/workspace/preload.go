package workspace

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"zsem/internal/diag"
	"zsem/internal/parser"
	"zsem/internal/pipeline"
	"zsem/internal/source"
	"zsem/internal/symbols"
	"zsem/internal/trace"
)

// PreloadResult is the outcome for one file in a directory preload.
type PreloadResult struct {
	Path    string
	File    source.FileID
	Bag     *diag.Bag
	LoadErr error
}

// ListSourceFiles returns every *.zg file under dir in deterministic order.
func ListSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".zg") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Preload loads and parses every source file under dir, jobs files at a
// time. File registration is sequential; parsing and scope building run in
// parallel, each worker writing its own result slot. Progress events go to
// sink, which may be nil; sink is called from worker goroutines.
func (st *Store) Preload(ctx context.Context, dir string, jobs int, sink pipeline.ProgressSink) ([]PreloadResult, error) {
	files, err := ListSourceFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	emit := func(evt pipeline.Event) {
		if sink != nil {
			sink.OnEvent(evt)
		}
	}

	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "preload "+dir, 0)
	defer root.End("")

	results := make([]PreloadResult, len(files))

	st.mu.Lock()
	for i, path := range files {
		id, err := st.fs.Load(path)
		results[i] = PreloadResult{Path: path, File: id, LoadErr: err}
	}
	st.mu.Unlock()
	for i := range results {
		evt := pipeline.Event{File: results[i].Path, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued}
		if results[i].LoadErr != nil {
			evt.Status = pipeline.StatusError
			evt.Err = results[i].LoadErr
		}
		emit(evt)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i := range files {
		g.Go(func(i int) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				res := &results[i]
				if res.LoadErr != nil {
					return nil
				}
				emit(pipeline.Event{File: res.Path, Stage: pipeline.StageParse, Status: pipeline.StatusWorking})
				start := time.Now()
				span := trace.Begin(tracer, trace.ScopePass, "parse", root.ID())

				bag := diag.NewBag(st.maxDiagnostics)
				st.mu.RLock()
				file := st.fs.Get(res.File)
				st.mu.RUnlock()
				tree := parser.Parse(file, diag.BagReporter{Bag: bag})

				span.WithExtra("file", res.Path).End("")
				emit(pipeline.Event{
					File:    res.Path,
					Stage:   pipeline.StageParse,
					Status:  pipeline.StatusDone,
					Elapsed: time.Since(start),
				})
				emit(pipeline.Event{File: res.Path, Stage: pipeline.StageScope, Status: pipeline.StatusWorking})
				start = time.Now()
				span = trace.Begin(tracer, trace.ScopePass, "scope", root.ID())

				doc := symbols.Build(tree)

				st.mu.Lock()
				st.trees[res.File] = tree
				st.docs[res.File] = doc
				st.bags[res.File] = bag
				st.calls = nil
				st.mu.Unlock()
				res.Bag = bag

				span.WithExtra("file", res.Path).End("")
				emit(pipeline.Event{
					File:    res.Path,
					Stage:   pipeline.StageScope,
					Status:  pipeline.StatusDone,
					Elapsed: time.Since(start),
				})
				return nil
			}
		}(i))
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
