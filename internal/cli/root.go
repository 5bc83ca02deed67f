// Package cli defines the molgen command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vagrantlab/molgen/internal/config"
	"github.com/vagrantlab/molgen/internal/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the global flags shared by all subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the molgen root command.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "molgen",
		Short:   "Generate molecules from a trained Vagrant latent space",
		Long: "molgen drives a trained Vagrant generative model: it samples the\n" +
			"latent space directly or through a robustness procedure, optionally\n" +
			"scores the samples with a reconstruction round trip, and writes the\n" +
			"results as CSV.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (optional; flags and MOLGEN_* env vars override it)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	cmd.AddCommand(newGenCommand(opts))
	return cmd
}

// newLogger builds the run logger from the resolved configuration.
func newLogger(cfg *config.GenConfig) (logging.Logger, error) {
	return logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCommand().Execute()
}
