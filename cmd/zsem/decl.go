package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var declCmd = &cobra.Command{
	Use:   "decl <file> <pos>",
	Short: "Find the declaration of the name at a position",
	Args:  cobra.ExactArgs(2),
	RunE:  runDecl,
}

func runDecl(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("nothing at %s", args[1])
	}
	name := tree.NodeName(node)
	if name == "" {
		return fmt.Errorf("no name at %s", args[1])
	}

	h, ok := sess.LookupLexical(id, off, name)
	if !ok {
		return fmt.Errorf("%q is not declared here", name)
	}

	_, doc, err := st.GetOrLoad(h.File)
	if err != nil {
		return err
	}
	d := doc.Decls.Get(h.Decl)

	out := cmd.OutOrStdout()
	nameColor := color.New(color.FgCyan, color.Bold)
	nameColor.Fprint(out, name)
	fmt.Fprintf(out, " declared at %s (%s", formatLocation(st.FileSet(), doc.Tree.Span(d.Node)), d.Kind)
	if d.Public {
		fmt.Fprint(out, ", pub")
	}
	fmt.Fprint(out, ")\n")

	if t, ok := sess.DeclType(h); ok {
		fmt.Fprintf(out, "  type: %s\n", t.String())
	}
	return nil
}
