package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags and the state loaded from them
// before any subcommand runs.
type rootOptions struct {
	configPath string
	envFile    string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scry-study",
		Short: "Spaced-repetition study scheduling service",
		Long: `scry-study schedules flash-card reviews for learners working through
content units. It serves the HTTP API and provides the maintenance commands
used to manage its database and catalog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file (default ./config.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCatalogCmd(opts),
		newReconcileCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// load reads the env file, configuration and logger. Variables already set in
// the environment win over the env file.
func (o *rootOptions) load(logOut io.Writer) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, logOut)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	o.cfg = cfg
	o.logger = log
	return nil
}
