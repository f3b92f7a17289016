package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"moocdash/internal/dataset"
	"moocdash/internal/dbstore"
	"moocdash/internal/quality"
	"moocdash/internal/view"
)

// Флаги report
var (
	reportFormat string
	reportRules  string
	reportColumn string
)

var reportCmd = &cobra.Command{
	Use:   "report [dataset]",
	Short: "Print the data-quality report of a dataset",
	Long: `Print completeness, consistency, timeliness, uniqueness, outliers and
Acc-DQ of one dataset. The default dataset is "clean" (clean_data.csv),
the one the dashboard's quality page shows.

Datasets: courses, users, train, clean, pred_p1 .. pred_p5.

Examples:
  dqctl report
  dqctl report pred_p5 --format json
  dqctl report clean --rules rules.yaml --column class_duration_days`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := dataset.Clean
		if len(args) == 1 {
			name = args[0]
		}
		src, closeSrc, err := openSource()
		if err != nil {
			return err
		}
		defer closeSrc()

		rulesPath := cfg.Quality.RulesFile
		if cmd.Flags().Changed("rules") {
			rulesPath = reportRules
		}
		return runReport(cmd.Context(), cmd.OutOrStdout(), src, name, rulesPath, reportColumn, reportFormat)
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFormat, "format", "f", "text", "output format: text or json")
	f.StringVar(&reportRules, "rules", "", "quality rules yaml: consistency rules and timeliness settings (default: QUALITY_RULES or built-in rules)")
	f.StringVar(&reportColumn, "column", "", "column for the IQR outlier check")
}

// runReport строит отчёт так же, как страница качества: справочные наборы
// для внешних ключей берутся из того же источника.
func runReport(ctx context.Context, w io.Writer, src dataset.Source, name, rulesPath, column, format string) error {
	if _, ok := dataset.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", dataset.ErrUnknownDataset, name)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	qopts, err := quality.LoadOptions(rulesPath)
	if err != nil {
		return err
	}

	store := dataset.NewStore(src, time.Hour, log)
	target, err := store.Get(ctx, name)
	if err != nil {
		return err
	}
	if target.NotFound {
		return fmt.Errorf("dataset %s: %w", name, dataset.ErrNotFound)
	}
	data, err := view.LoadData(ctx, store)
	if err != nil {
		log.Warn("some reference datasets failed to load", "error", err)
	}

	data.Quality = qopts
	data.Inputs.OutlierColumn = column
	rep := quality.Build(target.Table, view.QualityOptions(data))
	sum := quality.Summarize(rep)

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	return sum.WriteText(w)
}

func openSource() (dataset.Source, func(), error) {
	if cfg.Data.Source != "sql" {
		return dataset.NewCSVSource(cfg.Data.Dir), func() {}, nil
	}
	db, err := dbstore.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return dbstore.NewSource(db), func() { _ = dbstore.Close(db) }, nil
}
