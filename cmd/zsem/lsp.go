package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"zsem/internal/lsp"
	"zsem/internal/trace"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server on stdio",
	Args:  cobra.NoArgs,
	RunE:  runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	srv := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		MaxDiagnostics: maxDiags,
		Tracer:         trace.FromContext(cmd.Context()),
	})
	err = srv.Run(cmd.Context())
	if errors.Is(err, lsp.ErrExit) || errors.Is(err, lsp.ErrExitWithoutShutdown) {
		return nil
	}
	return err
}
