package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/saferoute/internal/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate plain-language safety briefings with Claude",
	Long:  "Requires SAFEROUTE_ANTHROPIC_KEY. Briefings are generated from the computed aggregates; no incident rows are sent.",
}

var analyzeRegionCmd = &cobra.Command{
	Use:   "region <period> <region>",
	Short: "Brief the crime profile of one neighbourhood",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		period := args[0]
		env, err := initEnv(cmd.Context(), "analyze", []string{period})
		if err != nil {
			return err
		}
		snap, ok := env.Store.Snapshot(period)
		if !ok {
			return eris.Errorf("analyze: period %s not loaded", period)
		}
		name, agg, err := resolveRegion(env.Index, snap, args[1])
		if err != nil {
			return err
		}

		text, err := env.Analyst.Analyze(cmd.Context(), "region", analysis.RegionPrompt(name, period, agg))
		if err != nil {
			return eris.Wrap(err, "analyze region")
		}
		fmt.Fprintln(os.Stdout, text)
		return nil
	},
}

var analyzeRouteCmd = &cobra.Command{
	Use:   "route",
	Short: "Brief the risk of a route and its detour",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := routeQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		var periods []string
		if q.Period != "" {
			periods = []string{q.Period}
		}
		env, err := initEnv(cmd.Context(), "analyze", periods)
		if err != nil {
			return err
		}
		if q.Period == "" {
			q.Period = latestPeriod(env.Store)
		}

		res, err := env.Scorer.Score(q)
		if err != nil {
			return eris.Wrap(err, "analyze route")
		}
		writeRouteSummary(os.Stdout, q, res)

		text, err := env.Analyst.Analyze(cmd.Context(), "route", analysis.RoutePrompt(q, res))
		if err != nil {
			return eris.Wrap(err, "analyze route")
		}
		fmt.Fprintf(os.Stdout, "\n%s\n", text)
		return nil
	},
}

func init() {
	addRouteFlags(analyzeRouteCmd)
	analyzeCmd.AddCommand(analyzeRegionCmd, analyzeRouteCmd)
	rootCmd.AddCommand(analyzeCmd)
}
