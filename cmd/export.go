package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [period...]",
	Short: "Export region aggregates as CSV, XLSX or GeoJSON",
	Long: `Writes the aggregates of one or more periods. CSV and GeoJSON take a single
period; XLSX writes one sheet per period.

Examples:
  export 2023 --output 2023.csv
  export 2021 2022 2023 --format xlsx --output vancouver.xlsx
  export 2023 --format geojson --output regions.geojson`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")

		switch format {
		case "csv", "geojson":
			if len(args) > 1 {
				return eris.Errorf("export: --format %s takes one period (got %d)", format, len(args))
			}
		case "xlsx":
			if outputPath == "" {
				return eris.New("export: --format xlsx requires --output")
			}
		default:
			return eris.Errorf("export: --format must be csv, xlsx or geojson (got %q)", format)
		}

		var periods []string
		if len(args) > 0 {
			periods = args
		}
		env, err := initEnv(cmd.Context(), "load", periods)
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			periods = env.Store.Periods()
			if format != "xlsx" && len(periods) > 0 {
				periods = periods[len(periods)-1:]
			}
		}
		if len(periods) == 0 {
			return eris.New("export: no periods loaded")
		}

		snaps := make([]*crime.Snapshot, 0, len(periods))
		for _, p := range periods {
			snap, ok := env.Store.Snapshot(p)
			if !ok {
				return eris.Errorf("export: period %s not loaded", p)
			}
			snaps = append(snaps, snap)
		}

		w, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer w.Close() //nolint:errcheck

		switch format {
		case "csv":
			err = export.WriteCSV(w, snaps[0])
		case "xlsx":
			err = export.WriteXLSX(w, snaps)
		case "geojson":
			var data []byte
			data, err = export.RegionsGeoJSON(env.Index, snaps[0]).MarshalJSON()
			if err == nil {
				_, err = w.Write(append(data, '\n'))
			}
		}
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if outputPath != "" {
			zap.L().Info("export written",
				zap.String("format", format),
				zap.String("output", outputPath),
				zap.Strings("periods", periods),
			)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "output format: csv, xlsx or geojson")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
