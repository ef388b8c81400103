package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/japaniel/cards/pkg/config"
	"github.com/japaniel/cards/pkg/db"
	"github.com/japaniel/cards/pkg/ingest"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "cards",
		Short: "Multilingual vocabulary store",
		Long: `cards stores words tagged by language and optional grammatical gender,
and symmetric translation links between them.

Words can be added one by one, loaded from YAML files, imported from the
JMdict dictionary, or harvested from Japanese web articles.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr())
			if cfg.File != "" {
				a.logger.Debug("using config file", slog.String("path", cfg.File))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./cards.yaml)")
	pf.String("driver", "", "database driver (sqlite3|sqlite|pgx)")
	pf.String("dsn", "", "database data source name")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return db.Drivers, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newMigrateCmd(a),
		newAddCmd(a),
		newLoadCmd(a),
		newTranslateCmd(a),
		newLookupCmd(a),
		newImportCmd(a),
		newImportDictCmd(a),
		newHarvestCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

// openStore opens and migrates the configured database. The caller closes
// the returned connection.
func (a *app) openStore(ctx context.Context) (*sql.DB, *db.Store, error) {
	conn, dialect, err := db.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.InitDB(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return conn, db.NewStore(conn, dialect, a.logger), nil
}

func (a *app) newIngester(store *db.Store) *ingest.Ingester {
	ig := ingest.NewIngester(store)
	ig.Workers = a.cfg.Ingest.Workers
	ig.BatchSize = a.cfg.Ingest.BatchSize
	ig.Logger = a.logger
	return ig
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "number of concurrent workers")
	cmd.Flags().Int("batch-size", 0, "words per write transaction")
}
