package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/export"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Score the crime exposure of a straight-line route",
	Long: `Samples the straight line between two points, sums the incident counts of
the neighbourhoods it passes through, and reports a risk tier. Routes above
the alternative threshold also get a single detour attempt.

Examples:
  route --from 49.2827,-123.1207 --to 49.2606,-123.1140 --period 2023
  route --from 49.28,-123.12 --to 49.26,-123.11 --category theft
  route --from 49.28,-123.12 --to 49.26,-123.11 --hours 22-3
  route --from 49.28,-123.12 --to 49.26,-123.11 --format geojson > route.geojson`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table", "json", "geojson":
		default:
			return eris.Errorf("route: --format must be table, json or geojson (got %q)", format)
		}

		q, err := routeQueryFromFlags(cmd)
		if err != nil {
			return err
		}

		var periods []string
		if q.Period != "" {
			periods = []string{q.Period}
		}
		env, err := initEnv(cmd.Context(), "load", periods)
		if err != nil {
			return err
		}
		if q.Period == "" {
			q.Period = latestPeriod(env.Store)
		}

		res, err := env.Scorer.Score(q)
		if err != nil {
			return eris.Wrap(err, "route")
		}

		switch format {
		case "json":
			return writeJSON(os.Stdout, map[string]any{"query": q, "result": res})
		case "geojson":
			data, err := export.RouteGeoJSON(q, res).MarshalJSON()
			if err != nil {
				return eris.Wrap(err, "route: marshal geojson")
			}
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		default:
			writeRouteSummary(os.Stdout, q, res)
			return nil
		}
	},
}

// routeQueryFromFlags reads the route flags shared by route and analyze route.
func routeQueryFromFlags(cmd *cobra.Command) (route.Query, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	period, _ := cmd.Flags().GetString("period")
	category, _ := cmd.Flags().GetString("category")
	hours, _ := cmd.Flags().GetString("hours")

	from, err := region.ParsePoint(fromStr)
	if err != nil {
		return route.Query{}, eris.Wrap(err, "--from")
	}
	to, err := region.ParsePoint(toStr)
	if err != nil {
		return route.Query{}, eris.Wrap(err, "--to")
	}
	cat, err := crime.ParseCategory(category)
	if err != nil {
		return route.Query{}, eris.Wrap(err, "--category")
	}
	window, err := route.ParseWindow(hours)
	if err != nil {
		return route.Query{}, eris.Wrap(err, "--hours")
	}

	q := route.Query{
		Start:    from,
		End:      to,
		Period:   strings.TrimSpace(period),
		Category: cat,
		Window:   window,
	}
	if err := q.Validate(); err != nil {
		return route.Query{}, err
	}
	if err := q.CheckFilters(); err != nil {
		return route.Query{}, err
	}
	return q, nil
}

func latestPeriod(store *crime.Store) string {
	periods := store.Periods()
	if len(periods) == 0 {
		return ""
	}
	return periods[len(periods)-1]
}

func addRouteFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("from", "", "start point as lat,lng (required)")
	f.String("to", "", "end point as lat,lng (required)")
	f.String("period", "", "reporting period (default: latest configured)")
	f.String("category", "all", "category filter: all, commercial, residential, theft, vehicle, person, mischief, other")
	f.String("hours", "", "inclusive hour window such as 22-3")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func init() {
	addRouteFlags(routeCmd)
	routeCmd.Flags().String("format", "table", "output format: table, json or geojson")
	rootCmd.AddCommand(routeCmd)
}
