package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zsem/internal/diag"
	"zsem/internal/diagfmt"
	"zsem/internal/workspace"
)

var (
	checkFormat    string
	checkNoNotes   bool
	checkBasenames bool
)

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().BoolVar(&checkNoNotes, "no-notes", false, "omit secondary notes")
	checkCmd.Flags().BoolVar(&checkBasenames, "basenames", false, "print file basenames instead of full paths")
}

var checkCmd = &cobra.Command{
	Use:   "check <file-or-dir>",
	Short: "Parse and scope sources, reporting diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	st := workspace.NewStore(maxDiags)
	bag, err := collectDiagnostics(cmd, st, args[0], jobs)
	if err != nil {
		return err
	}
	bag.Sort()

	pathMode := diagfmt.PathModeFull
	if checkBasenames {
		pathMode = diagfmt.PathModeBasename
	}

	out := cmd.OutOrStdout()
	switch checkFormat {
	case "pretty":
		diagfmt.Pretty(out, bag, st.FileSet(), diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			PathMode:  pathMode,
			ShowNotes: !checkNoNotes,
		})
	case "json":
		err = diagfmt.JSON(out, bag, st.FileSet(), diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			Max:              maxDiags,
			IncludeNotes:     !checkNoNotes,
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", checkFormat)
	}

	if bag.HasErrors() {
		return fmt.Errorf("%d diagnostics", bag.Len())
	}
	if checkFormat == "pretty" {
		fmt.Fprintf(out, "checked ok (%d diagnostics)\n", bag.Len())
	}
	return nil
}

func collectDiagnostics(cmd *cobra.Command, st *workspace.Store, target string, jobs int) (*diag.Bag, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}

	bag := diag.NewBag(0)
	if !info.IsDir() {
		id, err := st.Open(target)
		if err != nil {
			return nil, err
		}
		if fileBag := st.Diagnostics(id); fileBag != nil {
			bag.Merge(fileBag)
		}
		return bag, nil
	}

	results, err := st.Preload(cmd.Context(), target, jobs, nil)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.LoadErr != nil {
			return nil, fmt.Errorf("load %s: %w", res.Path, res.LoadErr)
		}
		if res.Bag != nil {
			bag.Merge(res.Bag)
		}
	}
	return bag, nil
}
