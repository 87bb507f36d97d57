package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zsem/internal/pipeline"
	"zsem/internal/project"
	"zsem/internal/workspace"
)

var (
	indexUI      string
	indexNoCache bool
	indexStats   bool
)

func init() {
	indexCmd.Flags().StringVar(&indexUI, "ui", "auto", "progress UI (auto|on|off)")
	indexCmd.Flags().BoolVar(&indexNoCache, "no-cache", false, "skip persisting per-file index summaries")
	indexCmd.Flags().BoolVar(&indexStats, "stats", false, "print per-stage timing after indexing")
}

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Parse and scope every .zg file under a directory",
	Long: `Index loads all .zg sources under a directory (or the project source
directory from zsem.toml), builds their scope trees and persists per-file
summaries for later queries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	colorValue, _ := cmd.Root().PersistentFlags().GetString("color")
	if err := applyColorMode(colorValue); err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	jobs, _ := cmd.Root().PersistentFlags().GetInt("jobs")
	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	dir, cacheEnabled, err := resolveIndexDir(args)
	if err != nil {
		return err
	}
	if indexNoCache {
		cacheEnabled = false
	}

	files, err := workspace.ListSourceFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no .zg files under %s\n", dir)
		return nil
	}

	mode, err := readUIMode(indexUI)
	if err != nil {
		return err
	}

	st := workspace.NewStore(maxDiags)
	start := time.Now()
	var timings pipeline.Timings
	var results []workspace.PreloadResult
	if shouldUseTUI(mode) {
		results, err = runIndexWithUI(cmd.Context(), st, "indexing "+dir, dir, jobs, files)
	} else {
		sink := pipeline.FuncSink(func(evt pipeline.Event) {
			if evt.Status == pipeline.StatusError {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", evt.File, evt.Err)
			}
			if evt.Status == pipeline.StatusDone {
				timings.Add(evt.Stage, evt.Elapsed)
			}
		})
		results, err = st.Preload(cmd.Context(), dir, jobs, sink)
	}
	if err != nil {
		return err
	}

	return reportIndex(cmd, st, results, cacheEnabled, time.Since(start), timings)
}

// resolveIndexDir picks the directory to index: an explicit argument wins,
// otherwise the manifest source directory, otherwise the working directory.
func resolveIndexDir(args []string) (dir string, cache bool, err error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], true, nil
	}
	manifest, ok, err := project.Load(".")
	if err != nil {
		return "", false, err
	}
	if ok {
		return manifest.SourceDir(), manifest.Config.Index.Cache, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", false, err
	}
	return wd, true, nil
}

func reportIndex(cmd *cobra.Command, st *workspace.Store, results []workspace.PreloadResult, cacheEnabled bool, elapsed time.Duration, timings pipeline.Timings) error {
	out := cmd.OutOrStdout()
	okColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)

	var loadErrs, diagCount int
	for _, res := range results {
		if res.LoadErr != nil {
			loadErrs++
			errColor.Fprintf(out, "  %s: %v\n", res.Path, res.LoadErr)
			continue
		}
		if res.Bag != nil && res.Bag.Len() > 0 {
			diagCount += res.Bag.Len()
			res.Bag.Sort()
			for _, d := range res.Bag.Items() {
				fmt.Fprintf(out, "  %s: %s: %s\n", res.Path, d.Severity, d.Message)
			}
		}
	}

	var cached int
	if cacheEnabled {
		cache, err := workspace.OpenIndexCache("zsem")
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cache unavailable: %v\n", err)
		} else {
			for _, res := range results {
				if res.LoadErr != nil {
					continue
				}
				payload, ok := st.Summary(res.File)
				if !ok {
					continue
				}
				key := st.FileSet().Get(res.File).Hash
				if err := cache.Put(key, payload); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "cache write %s: %v\n", res.Path, err)
					continue
				}
				cached++
			}
		}
	}

	okColor.Fprintf(out, "indexed %d files", len(results)-loadErrs)
	if loadErrs > 0 {
		errColor.Fprintf(out, ", %d failed", loadErrs)
	}
	fmt.Fprintf(out, " (%d diagnostics, %d summaries cached) in %s\n", diagCount, cached, elapsed.Round(time.Millisecond))

	if indexStats {
		for _, stage := range []pipeline.Stage{pipeline.StageLoad, pipeline.StageParse, pipeline.StageScope} {
			if d := timings.Duration(stage); d > 0 {
				fmt.Fprintf(out, "  %-6s %s\n", stage, d.Round(time.Microsecond))
			}
		}
	}
	return nil
}
