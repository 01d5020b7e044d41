// Package cmd defines the command-line interface for srcmeasure.
package cmd

import (
	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("definitions", "d", ".", "Path to the definitions tree")
	rootCmd.PersistentFlags().String("scratch-dir", "", "Parent directory for per-repository working copies")
	rootCmd.PersistentFlags().String("mirror-dir", "", "Directory holding the persistent git mirrors")
	rootCmd.PersistentFlags().String("output", string(schema.CSVOut), "Output format: csv or text or json or parquet")
	rootCmd.PersistentFlags().StringP("output-file", "o", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("line-counter", string(schema.SlocCountCounter), "Line counter: sloccount or native")
	rootCmd.PersistentFlags().String("sloccount-bin", contract.DefaultSloccountBin, "Path to the sloccount executable")
	rootCmd.PersistentFlags().String("command-timeout", contract.DefaultCommandTimeout.String(), "Timeout per external command (0 = none)")
	rootCmd.PersistentFlags().String("include-root", "yes", "Include the root definition in the results (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("order", string(schema.ReverseOrder), "Processing order: reverse or dependency")
	rootCmd.PersistentFlags().String("on-error", string(schema.SkipOnError), "Failure policy per repository: skip or abort")
	rootCmd.PersistentFlags().String("activity-scope", string(schema.RefScope), "Commit activity scope: ref or all")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-format", string(schema.ConsoleLog), "Progress log format: console or json")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every step, not just outcomes")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
