// dqctl: операторская утилита: отчёт о качестве набора и импорт CSV в SQL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moocdash/internal/config"
	"moocdash/internal/logger"
)

// Общие флаги
var (
	flagSource  string
	flagDataDir string
	flagDBType  string
	flagDSN     string
	flagVerbose bool
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dqctl",
	Short: "Data-quality tooling for the MOOC dropout dashboard",
	Long: `dqctl works with the same datasets as the dashboard server.

Configuration is read from the environment (and .env) exactly like the
server does; flags override it.

Examples:
  dqctl report clean                      # text report for clean_data.csv
  dqctl report users --format json        # JSON summary
  dqctl import --db-type sqlite --dsn ./data/moocdash.db`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("source") {
			c.Data.Source = flagSource
		}
		if flags.Changed("data-dir") {
			c.Data.Dir = flagDataDir
		}
		if flags.Changed("db-type") {
			c.Database.Type = flagDBType
		}
		if flags.Changed("dsn") {
			c.Database.DSN = flagDSN
		}
		if err := config.Validate(c); err != nil {
			return err
		}
		cfg = c

		mode := "production"
		if flagVerbose {
			mode = "development"
		}
		l, err := logger.New(mode)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSource, "source", "csv", "dataset source: csv or sql")
	pf.StringVar(&flagDataDir, "data-dir", "data", "directory with the CSV datasets")
	pf.StringVar(&flagDBType, "db-type", "sqlite", "database type: sqlite or postgres")
	pf.StringVar(&flagDSN, "dsn", "", "database DSN")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(reportCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
