package cmd

import (
	"fmt"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/internal/iocache"
	"github.com/huangsam/srcmeasure/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadHistoryBackend reads and validates the history backend settings.
func loadHistoryBackend() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need the store without full shared setup.
func historySetup(_ *cobra.Command, _ []string) error {
	if err := loadHistoryBackend(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historyMigrateSetup loads configuration for migrations without creating tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadHistoryBackend(); err != nil {
		return err
	}
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = iocache.GetHistoryDBFilePath()
	}
	return nil
}

// historyDBFilePath returns the SQLite file the history commands operate on.
func historyDBFilePath() string {
	if cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return iocache.GetHistoryDBFilePath()
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization instead of sharedSetup.
// This avoids definitions tree validation for simple store operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the audit history of measurement runs",
	Long: `Manage the run history recorded when --history-backend is enabled.

Each run stores:
- Run metadata (uuid, root definition, configuration, duration, interrupt flag)
- One metrics record per measured work item

History is never consulted to skip work; it exists for auditing and export.

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show history statistics
  export  - Export history to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded run history",
	Long: `Delete all stored runs and their metrics records.

For SQLite the database file is removed. For MySQL and PostgreSQL the history
tables are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  srcmeasure history export --output-file backup
  srcmeasure history clear --history-backend sqlite`,
	PreRunE: historyMigrateSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := iocache.ClearHistory(cfg.HistoryBackend, historyDBFilePath(), cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to clear run history: %w", err)
		}
		cmd.Println("Run history cleared successfully.")
		return nil
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show the backend, connection state, run counts, timestamps and table sizes
of the run history store.

Examples:
  srcmeasure history status --history-backend sqlite`,
	PreRunE: historySetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		status := schema.HistoryStatus{Backend: string(cfg.HistoryBackend)}
		if store := iocache.Manager.GetHistoryStore(); store != nil {
			var err error
			if status, err = store.GetStatus(); err != nil {
				return fmt.Errorf("failed to get run history status: %w", err)
			}
		}
		iocache.PrintHistoryStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for analytics",
	Long: `Export all runs and metrics records to two Parquet files named
<output-file>.runs.parquet and <output-file>.metrics.parquet.

Requires: --output-file parameter

Examples:
  srcmeasure history export --history-backend sqlite --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.metrics.parquet') LIMIT 10"`,
	PreRunE: historySetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return iocache.ExportHistory(iocache.Manager.GetHistoryStore(), cfg.OutputFile, cmd.OutOrStdout())
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  srcmeasure history migrate --history-backend sqlite

  # Rollback to initial state
  srcmeasure history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.HistoryBackend == schema.NoneBackend {
			return fmt.Errorf("run history is disabled; set --history-backend")
		}
		targetVersion := viper.GetInt("target-version")
		return iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion, cmd.OutOrStdout())
	},
}
