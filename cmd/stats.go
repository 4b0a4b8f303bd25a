package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/region"
)

var statsCmd = &cobra.Command{
	Use:   "stats <period> [region]",
	Short: "Show neighbourhood statistics for a period",
	Long: `Prints per-category counts and the peak time slot of every region in a
period, or the full breakdown of one region when a name is given.

Examples:
  stats 2023
  stats 2023 kitsilano --format json
  stats 2023 --start 2023-12-01 --end 2023-12-31 --type theft`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "table" && format != "json" {
			return eris.Errorf("stats: --format must be table or json (got %q)", format)
		}

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
			return eris.Errorf("stats: period %s not loaded", period)
		}
		snap = snap.Filter(filter)

		if len(args) == 1 {
			if format == "json" {
				return writeJSON(os.Stdout, snap)
			}
			return writeSnapshotTable(os.Stdout, snap)
		}

		name, agg, err := resolveRegion(env.Index, snap, args[1])
		if err != nil {
			return err
		}
		if format == "json" {
			return writeJSON(os.Stdout, map[string]any{"period": period, "region": name, "aggregate": agg})
		}
		writeRegionDetail(os.Stdout, name, period, agg)
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types <period>",
	Short: "List the distinct raw incident types of a period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "load", args)
		if err != nil {
			return err
		}
		snap, ok := env.Store.Snapshot(args[0])
		if !ok {
			return eris.Errorf("types: period %s not loaded", args[0])
		}
		for _, t := range snap.Types {
			fmt.Printf("%-45s %s\n", t, crime.Categorize(t))
		}
		return nil
	},
}

// resolveRegion finds name in snap, falling back to the region table so
// that a known region with no incidents reports zeros.
func resolveRegion(idx *region.Index, snap *crime.Snapshot, name string) (string, *crime.RegionAggregate, error) {
	if key, agg, ok := snap.Find(name); ok {
		return key, agg, nil
	}
	reg, ok := idx.Lookup(name)
	if !ok {
		return "", nil, eris.Errorf("unknown region %q", name)
	}
	return reg.Name, crime.EmptyAggregate(), nil
}

func init() {
	statsCmd.Flags().String("format", "table", "output format: table or json")
	addFilterFlags(statsCmd)
	rootCmd.AddCommand(statsCmd, typesCmd)
}
