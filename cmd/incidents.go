package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/export"
)

var incidentsCmd = &cobra.Command{
	Use:   "incidents <period>",
	Short: "Write the located incidents of a period as GeoJSON points",
	Long: `Writes one GeoJSON point per incident with coordinates, optionally
filtered by report day, incident type substrings and neighbourhood.

Examples:
  incidents 2023 --output incidents.geojson
  incidents 2023 --start 2023-06-01 --end 2023-08-31 --type "theft,mischief"
  incidents 2023 --region kitsilano`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		period := args[0]
		env, err := initEnv(cmd.Context(), "load", []string{period})
		if err != nil {
			return err
		}
		snap, ok := env.Store.Snapshot(period)
		if !ok {
			return eris.Errorf("incidents: period %s not loaded", period)
		}

		records := snap.Incidents(filter)
		data, err := export.IncidentsGeoJSON(records).MarshalJSON()
		if err != nil {
			return eris.Wrap(err, "incidents: marshal geojson")
		}

		outputPath, _ := cmd.Flags().GetString("output")
		w, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer w.Close() //nolint:errcheck
		if _, err := w.Write(append(data, '\n')); err != nil {
			return eris.Wrap(err, "incidents: write")
		}

		zap.L().Info("incidents written",
			zap.String("period", period),
			zap.Int("matched", len(records)),
			zap.String("output", outputPath),
		)
		return nil
	},
}

// addFilterFlags registers the incident filter flags shared by stats and
// incidents.
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("start", "", "first report day, YYYY-MM-DD")
	f.String("end", "", "last report day, YYYY-MM-DD")
	f.String("type", "", "comma-separated incident type substrings")
	f.String("region", "", "neighbourhood name substring")
}

func filterFromFlags(cmd *cobra.Command) (crime.IncidentFilter, error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	types, _ := cmd.Flags().GetString("type")
	name, _ := cmd.Flags().GetString("region")
	f, err := crime.ParseIncidentFilter(start, end, types, name)
	if err != nil {
		return crime.IncidentFilter{}, eris.Wrap(err, "filter flags")
	}
	return f, nil
}

func init() {
	addFilterFlags(incidentsCmd)
	incidentsCmd.Flags().String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(incidentsCmd)
}
