package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/catalog"
	"github.com/phrazzld/scry-study/internal/platform/migrations"
	"github.com/spf13/cobra"
)

// withApplication builds the application for a single command run and
// releases it afterwards.
func withApplication(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, app *application) error) error {
	ctx := cmd.Context()
	app, err := newApplication(ctx, opts.cfg, opts.logger, nil)
	if err != nil {
		return err
	}
	defer app.cleanup()
	return fn(ctx, app)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the background reconciler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApplication(cmd, opts, func(_ context.Context, app *application) error {
				if err := app.reconciler.Start(ctx); err != nil {
					return err
				}
				defer app.reconciler.Stop()

				return runHTTPServer(ctx, app.router(), app.config.Server.Port, app.config.Server.ShutdownTimeout, app.logger)
			})
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Run database migrations",
		Long: `Apply or inspect schema migrations for the configured database driver.
Without an argument, all pending migrations are applied.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{migrations.CommandUp, migrations.CommandDown, migrations.CommandReset, migrations.CommandStatus, migrations.CommandVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := migrations.CommandUp
			if len(args) == 1 {
				command = args[0]
			}

			st, err := openStores(cmd.Context(), opts.cfg.Database, opts.logger)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = st.Close() }()

			return migrations.Run(cmd.Context(), st.db, opts.cfg.Database.Driver, command, opts.logger)
		},
	}
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the content catalog",
	}

	xlsx := catalog.DefaultXLSXConfig()
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import content units from a YAML manifest or XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, func(ctx context.Context, app *application) error {
				result, err := catalog.NewImporter(app.catalog, xlsx, app.logger).ImportFile(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d units (%d cards), skipped %d\n",
					result.UnitsImported, result.CardsImported, result.Skipped)
				for _, msg := range result.Errors {
					fmt.Fprintf(out, "  %s\n", msg)
				}
				return nil
			})
		},
	}

	flags := importCmd.Flags()
	flags.StringVar(&xlsx.SheetName, "sheet", xlsx.SheetName, "workbook sheet to read (default first sheet)")
	flags.StringVar(&xlsx.UnitColumn, "unit-column", xlsx.UnitColumn, "column holding the unit ID")
	flags.StringVar(&xlsx.TitleColumn, "title-column", xlsx.TitleColumn, "column holding the unit title")
	flags.StringVar(&xlsx.KeyColumn, "key-column", xlsx.KeyColumn, "column holding the card key")
	flags.IntVar(&xlsx.StartRow, "start-row", xlsx.StartRow, "first data row (1-based)")

	cmd.AddCommand(importCmd)
	return cmd
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Refresh stale lifecycle projections once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd, opts, func(ctx context.Context, app *application) error {
				result, err := app.reconciler.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned %d records, refreshed %d, conflicts %d\n",
					result.Scanned, result.Refreshed, result.Conflicts)
				return nil
			})
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token [learner-id]",
		Short: "Issue an access token for a learner",
		Long: `Issue a signed access token for the given learner ID. A new random
learner ID is generated when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			learnerID := uuid.New()
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil || id == uuid.Nil {
					return fmt.Errorf("invalid learner ID %q", args[0])
				}
				learnerID = id
			}

			// Token issuance needs no database.
			jwtService, err := newJWTService(opts.cfg.Auth)
			if err != nil {
				return err
			}
			token, err := jwtService.GenerateToken(cmd.Context(), learnerID)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			opts.logger.Debug("issued token", slog.String("learner_id", learnerID.String()))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
