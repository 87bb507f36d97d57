package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zsem/internal/sema"
)

var typeCmd = &cobra.Command{
	Use:   "type <file> <pos>",
	Short: "Resolve the type of the expression at a position",
	Long: `Type resolves the expression covering the given position (a byte
offset or 1-based line:col) and prints its inferred type.`,
	Args: cobra.ExactArgs(2),
	RunE: runType,
}

func runType(cmd *cobra.Command, args []string) error {
	colorValue, _ := cmd.Root().PersistentFlags().GetString("color")
	if err := applyColorMode(colorValue); err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	st, sess, id, err := openQueryStore(cmd, args[0])
	if err != nil {
		return err
	}
	file := st.FileSet().Get(id)
	off, err := parseQueryPos(file, args[1])
	if err != nil {
		return err
	}

	tree, _, err := st.GetOrLoad(id)
	if err != nil {
		return err
	}
	node := tree.NodeAt(off)
	if !node.IsValid() {
		return fmt.Errorf("no expression at %s", args[1])
	}

	t, ok := sess.ResolveType(sema.NodeRef{Node: node, File: id})
	if !ok {
		return fmt.Errorf("cannot resolve a type at %s", formatLocation(st.FileSet(), tree.Span(node)))
	}

	out := cmd.OutOrStdout()
	typeColor := color.New(color.FgCyan, color.Bold)
	fmt.Fprintf(out, "%s: ", formatLocation(st.FileSet(), tree.Span(node)))
	typeColor.Fprint(out, t.String())
	fmt.Fprintln(out)
	if t.Type.Kind == sema.TypeEither {
		for _, entry := range t.Type.Entries {
			if entry.Descriptor != "" {
				fmt.Fprintf(out, "  %s when %s\n", entry.Type.String(), entry.Descriptor)
			} else {
				fmt.Fprintf(out, "  %s\n", entry.Type.String())
			}
		}
	}
	return nil
}
