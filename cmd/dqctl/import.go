package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"moocdash/internal/dataset"
	"moocdash/internal/dbstore"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the CSV datasets into the SQL database",
	Long: `Read every known dataset file from --data-dir and store it in the
database given by --db-type / --dsn (or DB_TYPE / DATABASE_URL). Each
dataset replaces its previous import. Missing files are skipped.

Afterwards the server can run with DATA_SOURCE=sql.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := dbstore.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer dbstore.Close(db)
		return runImport(cmd.Context(), cmd.OutOrStdout(), dbstore.NewImporter(db, log), cfg.Data.Dir)
	},
}

func runImport(ctx context.Context, w io.Writer, im *dbstore.Importer, dir string) error {
	recs, err := im.ImportCSVDir(ctx, dataset.NewCSVSource(dir))
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no dataset files found in %s", dir)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tFILE\tROWS\tIMPORTED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Dataset, r.File, r.RowCount, r.ImportedAt.Format(time.DateTime))
	}
	return tw.Flush()
}
