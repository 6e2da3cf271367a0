package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listTypeFilter string
	listJSON       bool
)

func init() {
	listCmd.Flags().StringVar(&listTypeFilter, "type", "", "Filter by project type (e.g. vue, java)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates available across all registry entries",
	RunE:  runList,
}

// listEntry represents one available template for display.
type listEntry struct {
	Name        string `json:"name"`
	ProjectType string `json:"project_type"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	mgr, err := newManager(log)
	if err != nil {
		return err
	}

	templates, err := mgr.List(cmd.Context(), listTypeFilter)
	if err != nil {
		return fmt.Errorf("listing templates: %w", err)
	}

	if len(templates) == 0 {
		if listTypeFilter != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No templates matching --type=%s\n", listTypeFilter)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates available.")
		}
		return nil
	}

	entries := make([]listEntry, 0, len(templates))
	for _, md := range templates {
		entries = append(entries, listEntry{
			Name:        md.Name,
			ProjectType: md.ProjectType,
			Version:     md.Version,
			Description: md.Description,
			Tags:        strings.Join(md.Tags, ","),
		})
	}

	if listJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tVERSION\tDESCRIPTION")
	for _, e := range entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ProjectType, e.Name, version, e.Description)
	}
	return w.Flush()
}
