package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch template listings from every enabled registry entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()

		mgr, err := newManager(log)
		if err != nil {
			return err
		}

		counts, err := mgr.Refresh(cmd.Context())
		if err != nil {
			return fmt.Errorf("refreshing registry entries: %w", err)
		}
		if len(counts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No registry entries could be refreshed.")
			return nil
		}

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ENTRY\tTEMPLATES")
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%d\n", name, counts[name])
		}
		return w.Flush()
	},
}
