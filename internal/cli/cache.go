package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the template cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cache location and entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()

		mgr, err := newManager(log)
		if err != nil {
			return err
		}

		store := mgr.Store()
		fmt.Fprintf(cmd.OutOrStdout(), "Cache directory: %s\n", store.Dir())
		fmt.Fprintf(cmd.OutOrStdout(), "Cached entries:  %d\n", store.Len())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached template content",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()

		mgr, err := newManager(log)
		if err != nil {
			return err
		}

		if err := mgr.Store().Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}
