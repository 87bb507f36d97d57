package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zsem/internal/source"
	"zsem/internal/symbols"
)

var scopesShowCompletions bool

func init() {
	scopesCmd.Flags().BoolVar(&scopesShowCompletions, "completions", false, "also print error and enum completion sets")
}

var scopesCmd = &cobra.Command{
	Use:   "scopes <file>",
	Short: "Print the scope tree of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScopes,
}

func runScopes(cmd *cobra.Command, args []string) error {
	colorValue, _ := cmd.Root().PersistentFlags().GetString("color")
	if err := applyColorMode(colorValue); err != nil {
		return err
	}

	st, _, id, err := openQueryStore(cmd, args[0])
	if err != nil {
		return err
	}
	_, doc, err := st.GetOrLoad(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printScope(out, st.FileSet(), doc, doc.Root, 0)

	if scopesShowCompletions {
		if len(doc.ErrorCompletions) > 0 {
			fmt.Fprintf(out, "errors: %s\n", strings.Join(doc.ErrorCompletions, ", "))
		}
		if len(doc.EnumCompletions) > 0 {
			fmt.Fprintf(out, "enum members: %s\n", strings.Join(doc.EnumCompletions, ", "))
		}
	}
	return nil
}

func printScope(out io.Writer, fs *source.FileSet, doc *symbols.DocumentScope, id symbols.ScopeID, depth int) {
	sc := doc.Scopes.Get(id)
	indent := strings.Repeat("  ", depth)

	kindColor := color.New(color.FgYellow)
	declColor := color.New(color.FgCyan)

	start, end := fs.Resolve(sc.Span)
	fmt.Fprintf(out, "%s", indent)
	kindColor.Fprint(out, sc.Kind)
	fmt.Fprintf(out, " [%d:%d-%d:%d]", start.Line, start.Col, end.Line, end.Col)
	if len(sc.Usings) > 0 {
		fmt.Fprintf(out, " usings=%d", len(sc.Usings))
	}
	if len(sc.Tests) > 0 {
		fmt.Fprintf(out, " tests=%d", len(sc.Tests))
	}
	fmt.Fprintln(out)

	names := make([]string, 0, len(sc.Decls))
	for name := range sc.Decls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := doc.Decls.Get(sc.Decls[name])
		fmt.Fprintf(out, "%s  ", indent)
		declColor.Fprint(out, name)
		fmt.Fprintf(out, " (%s", d.Kind)
		if d.Public {
			fmt.Fprint(out, ", pub")
		}
		fmt.Fprint(out, ")\n")
	}

	for _, child := range sc.Children {
		printScope(out, fs, doc, child, depth+1)
	}
}
