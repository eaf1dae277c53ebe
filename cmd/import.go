package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/ingest"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

var (
	importCSVPath   string
	importShapePath string
	importReplaceYr int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import crash records into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if (importCSVPath == "") == (importShapePath == "") {
			return eris.New("exactly one of --csv or --shapefile is required")
		}

		var (
			records []model.CrashRecord
			err     error
		)
		if importCSVPath != "" {
			f, openErr := os.Open(importCSVPath)
			if openErr != nil {
				return eris.Wrap(openErr, "open csv")
			}
			defer f.Close() //nolint:errcheck
			records, err = ingest.ReadCSV(ctx, f)
		} else {
			records, err = ingest.ReadShapefile(importShapePath)
		}
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if importReplaceYr > 0 {
			deleted, err := st.DeleteYear(ctx, importReplaceYr)
			if err != nil {
				return err
			}
			zap.L().Info("cleared year before re-import",
				zap.Int("year", importReplaceYr),
				zap.Int64("deleted", deleted),
			)
		}

		n, err := st.ImportCrashes(ctx, records)
		if err != nil {
			return eris.Wrap(err, "import crashes")
		}

		zap.L().Info("import complete",
			zap.Int64("imported", n),
			zap.Int("parsed", len(records)),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to accident CSV file")
	importCmd.Flags().StringVar(&importShapePath, "shapefile", "", "path to crash point shapefile")
	importCmd.Flags().IntVar(&importReplaceYr, "replace-year", 0, "delete this data year before importing")
	rootCmd.AddCommand(importCmd)
}
