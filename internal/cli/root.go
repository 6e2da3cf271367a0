package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/projgen-labs/projgen/internal/config"
	"github.com/projgen-labs/projgen/internal/registry"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "projgen",
	Short: "Generate projects from templates",
	Long: `projgen scaffolds new projects from templates resolved across local
directories, git repositories, downloadable archives, and package registries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (default: ./projgen.yaml, ~/.projgen/projgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the console logger for the selected verbosity. Logs go
// to stderr so command output stays pipeable.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newManager loads the configuration and builds the registry manager every
// command works through.
func newManager(log *zap.Logger) (*registry.Manager, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	return registry.NewManager(cfg, registry.WithLogger(log))
}
