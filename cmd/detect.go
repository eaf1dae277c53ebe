package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/config"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/export"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/hotspot"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/ingest"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

var (
	detectCSVPath     string
	detectFilter      ingest.Filter
	detectEps         float64
	detectMinSamples  int
	detectTopN        int
	detectRankBy      string
	detectNoise       bool
	detectWorkers     int
	detectPreset      string
	detectPresetsPath string
	detectFormat      string
	detectOutPath     string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Cluster crash records and rank hotspots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadDetectRecords(cmd)
		if err != nil {
			return err
		}

		opts, err := buildDetectOptions(cmd)
		if err != nil {
			return err
		}

		result, err := hotspot.Detect(records, opts)
		if err != nil {
			return err
		}

		zap.L().Info("detection complete",
			zap.Int("records", len(records)),
			zap.Int("clusters", len(result.Summaries)),
			zap.Int("skipped", result.Skipped),
		)

		return writeDetectOutput(result)
	},
}

func loadDetectRecords(cmd *cobra.Command) ([]model.CrashRecord, error) {
	if detectCSVPath != "" {
		f, err := os.Open(detectCSVPath)
		if err != nil {
			return nil, eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck

		records, err := ingest.ReadCSV(cmd.Context(), f)
		if err != nil {
			return nil, err
		}
		return detectFilter.Apply(records), nil
	}

	st, err := initStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	return st.ListCrashes(cmd.Context(), detectFilter)
}

func buildDetectOptions(cmd *cobra.Command) (hotspot.Options, error) {
	d := cfg.Detect

	if detectPreset != "" {
		path := detectPresetsPath
		if path == "" {
			path = "presets.yaml"
		}
		presets, err := config.LoadPresets(path)
		if err != nil {
			return hotspot.Options{}, err
		}
		preset, ok := presets[detectPreset]
		if !ok {
			return hotspot.Options{}, eris.Errorf("unknown preset %q in %s", detectPreset, path)
		}
		d = preset.Apply(d)
	}

	if cmd.Flags().Changed("eps") {
		d.Eps = detectEps
	}
	if cmd.Flags().Changed("min-samples") {
		d.MinSamples = detectMinSamples
	}
	if cmd.Flags().Changed("rank-by") {
		d.RankBy = detectRankBy
	}
	if cmd.Flags().Changed("workers") {
		d.Workers = detectWorkers
	}

	topN := d.TopN
	if cmd.Flags().Changed("top-n") {
		topN = detectTopN
	} else if detectFilter.County != "" || detectFilter.City != "" {
		// Scoped queries rank fewer hotspots.
		topN = ingest.DefaultTopN(detectFilter)
	}

	rankBy, err := hotspot.ParseRankKey(d.RankBy)
	if err != nil {
		return hotspot.Options{}, err
	}

	return hotspot.Options{
		Eps:          d.Eps,
		MinSamples:   d.MinSamples,
		TopN:         topN,
		RankBy:       rankBy,
		IncludeNoise: detectNoise,
		Workers:      d.Workers,
	}, nil
}

func writeDetectOutput(result *hotspot.Result) error {
	if detectFormat == "xlsx" {
		if detectOutPath == "" {
			return eris.New("--out is required for xlsx output")
		}
		return export.WriteXLSX(detectOutPath, result)
	}

	out := io.Writer(os.Stdout)
	if detectOutPath != "" {
		f, err := os.Create(detectOutPath)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	switch detectFormat {
	case "table":
		printRankedTable(out, result)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "encode json")
	case "geojson":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(hotspot.ToGeoJSON(result)), "encode geojson")
	default:
		return eris.Errorf("unknown output format %q", detectFormat)
	}
}

func printRankedTable(out io.Writer, result *hotspot.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tCLUSTER\tCRASHES\tFATALITIES\tTIER\tCENTROID")
	for _, r := range result.Ranked {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%.4f, %.4f\n",
			r.DisplayRank, r.ClusterID, r.CrashCount, r.FatalitySum, r.Tier,
			r.CentroidLat, r.CentroidLon,
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d clusters, %d records skipped for invalid coordinates\n",
		len(result.Summaries), result.Skipped,
	)
}

func init() {
	detectCmd.Flags().StringVar(&detectCSVPath, "csv", "", "detect from a CSV file instead of the store")
	detectCmd.Flags().StringVar(&detectFilter.County, "county", "", "restrict to a county")
	detectCmd.Flags().StringVar(&detectFilter.City, "city", "", "restrict to a city")
	detectCmd.Flags().StringVar(&detectFilter.Weather, "weather", "", "restrict to a weather condition")
	detectCmd.Flags().StringVar(&detectFilter.Route, "route", "", "restrict to a route type")
	detectCmd.Flags().IntVar(&detectFilter.YearMin, "year-min", 0, "earliest data year")
	detectCmd.Flags().IntVar(&detectFilter.YearMax, "year-max", 0, "latest data year")
	detectCmd.Flags().Float64Var(&detectEps, "eps", 0, "neighborhood radius in degrees")
	detectCmd.Flags().IntVar(&detectMinSamples, "min-samples", 0, "minimum neighborhood size for a core point")
	detectCmd.Flags().IntVar(&detectTopN, "top-n", 0, "number of ranked hotspots")
	detectCmd.Flags().StringVar(&detectRankBy, "rank-by", "", "ranking key: fatalities or crashes")
	detectCmd.Flags().BoolVar(&detectNoise, "include-noise", false, "include noise points in output")
	detectCmd.Flags().IntVar(&detectWorkers, "workers", 0, "parallel neighborhood workers")
	detectCmd.Flags().StringVar(&detectPreset, "preset", "", "named parameter preset")
	detectCmd.Flags().StringVar(&detectPresetsPath, "presets-file", "", "path to presets YAML (default presets.yaml)")
	detectCmd.Flags().StringVar(&detectFormat, "format", "table", "output format: table, json, geojson, xlsx")
	detectCmd.Flags().StringVar(&detectOutPath, "out", "", "output file path (default stdout)")
	rootCmd.AddCommand(detectCmd)
}
