package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var infoJSON bool

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <project-type> <template>",
	Short: "Show a template's metadata and variables",
	Args:  cobra.ExactArgs(2),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	projectType, templateName := args[0], args[1]

	log := newLogger()
	defer log.Sync()

	mgr, err := newManager(log)
	if err != nil {
		return err
	}

	_, md, err := mgr.Resolve(cmd.Context(), projectType, templateName)
	if err != nil {
		return fmt.Errorf("resolving template %s/%s: %w", projectType, templateName, err)
	}

	if infoJSON {
		data, err := json.MarshalIndent(md, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:         %s\n", md.Name)
	fmt.Fprintf(out, "Project type: %s\n", md.ProjectType)
	if md.Version != "" {
		fmt.Fprintf(out, "Version:      %s\n", md.Version)
	}
	if md.Description != "" {
		fmt.Fprintf(out, "Description:  %s\n", md.Description)
	}
	if md.Author != "" {
		fmt.Fprintf(out, "Author:       %s\n", md.Author)
	}
	if len(md.Tags) > 0 {
		fmt.Fprintf(out, "Tags:         %s\n", strings.Join(md.Tags, ", "))
	}

	if len(md.Variables) > 0 {
		fmt.Fprintln(out, "\nVariables:")
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "  NAME\tTYPE\tREQUIRED\tDEFAULT\tDESCRIPTION")
		for _, v := range md.Variables {
			varType := v.Type
			if varType == "" {
				varType = "string"
			}
			if len(v.Options) > 0 {
				varType = fmt.Sprintf("%s(%s)", varType, strings.Join(v.Options, "|"))
			}
			def := v.Default
			if def == "" {
				def = "-"
			}
			fmt.Fprintf(w, "  %s\t%s\t%t\t%s\t%s\n", v.Name, varType, v.Required, def, v.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
