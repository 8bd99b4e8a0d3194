package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/splash/internal/config"
	"github.com/agentic-research/splash/internal/logging"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "Path to splash.hcl; commands with --project read it from the project by default")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:           "splash",
	Short:         "Configure native launch screens from an app manifest",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return err
		}
		logger = l

		loaded, err := config.Load(resolveConfigPath(cmd))
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// resolveConfigPath returns --config when given. Otherwise commands that take
// --project read splash.hcl from the project directory, and the rest from the
// working directory.
func resolveConfigPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return configPath
	}
	if f := cmd.Flags().Lookup("project"); f != nil {
		return filepath.Join(f.Value.String(), config.FileName)
	}
	return configPath
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
