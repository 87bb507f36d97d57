package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"zsem/internal/workspace"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the persisted index cache",
	Long:  "Remove every per-file index summary stored under the user cache directory.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cache, err := workspace.OpenIndexCache("zsem")
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop index cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "index cache cleared")
	return nil
}
