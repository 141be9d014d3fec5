package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sec_extractor/pkg/core/store"
)

// --- Cache Command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the document cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached filing document",
	Long: `Delete every cached filing document from the configured backend
(cache.backend: file, sqlite or postgres). The next extraction fetches
from EDGAR again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		where, err := store.Clear(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		if where == "" {
			fmt.Fprintln(os.Stderr, "cache disabled, nothing to clear")
			return nil
		}
		fmt.Fprintf(os.Stderr, "cleared %s cache at %s\n", cfg.Cache.Backend, where)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
