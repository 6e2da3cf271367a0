package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/projgen-labs/projgen/internal/generator"
	"github.com/projgen-labs/projgen/internal/prompt"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

var (
	createOutputDir string
	createVars      []string
	createNoInput   bool
)

func init() {
	createCmd.Flags().StringVarP(&createOutputDir, "output-dir", "o", "", "Output directory (default: ./<name>)")
	createCmd.Flags().StringArrayVar(&createVars, "var", nil, "Template variable as key=value (repeatable)")
	createCmd.Flags().BoolVar(&createNoInput, "no-input", false, "Never prompt; fail if a required variable is missing")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <project-type> <template> <name>",
	Short: "Generate a new project from a template",
	Long: `Create a new project from the named template. The template is resolved
across the configured registry entries in priority order; missing variable
values are collected interactively unless --no-input is set.

Examples:
  projgen create vue vue-basic my-app
  projgen create java spring-api billing --var package=com.acme.billing
  projgen create vue vue-basic my-app --no-input --var use_router=false`,
	Args: cobra.ExactArgs(3),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	projectType, templateName, projectName := args[0], args[1], args[2]
	if err := validateName(projectName); err != nil {
		return err
	}

	provided, err := parseVars(createVars)
	if err != nil {
		return err
	}
	provided["project_name"] = projectName

	log := newLogger()
	defer log.Sync()

	mgr, err := newManager(log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	templateDir, md, err := mgr.Resolve(ctx, projectType, templateName)
	if err != nil {
		return fmt.Errorf("resolving template %s/%s: %w", projectType, templateName, err)
	}

	if !createNoInput {
		provided, err = prompt.ForVariables(ctx, prompt.NewDriver(), md, provided)
		if err != nil {
			return err
		}
	}

	data, err := generator.ResolveVariables(md, provided)
	if err != nil {
		return err
	}

	outDir := createOutputDir
	if outDir == "" {
		outDir = projectName
	}

	result, err := generator.Generate(templateDir, outDir, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s from %s (%d files)\n",
		result.OutputDir, md.Name, len(result.Files))
	for _, warning := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
	}
	return nil
}

// parseVars splits repeated --var key=value flags into a map.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q: must start with a lowercase letter or digit and contain only [a-z0-9._-]", name)
	}
	return nil
}
