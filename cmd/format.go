package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/export"
	"github.com/sells-group/saferoute/internal/loader"
	"github.com/sells-group/saferoute/internal/route"
)

// openOutput returns stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal json")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatTopHours(hours []crime.HourCount) string {
	if len(hours) == 0 {
		return "-"
	}
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%02d:00 (%d)", h.Hour, h.Count)
	}
	return strings.Join(parts, ", ")
}

func writeSnapshotTable(w io.Writer, snap *crime.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tALL\tCOMMERCIAL\tRESIDENTIAL\tTHEFT\tVEHICLE\tPERSON\tMISCHIEF\tOTHER\tPEAK")
	for _, r := range export.Rows(snap) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Region, r.All, r.Commercial, r.Residential, r.Theft, r.Vehicle,
			r.Person, r.Mischief, r.Other, r.PeakTimeSlot)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write table")
	}
	fmt.Fprintf(w, "\n%d regions, %d incidents accepted, %d skipped\n",
		len(snap.Regions), snap.Accepted, snap.Skipped)
	return nil
}

func writeRegionDetail(w io.Writer, name, period string, agg *crime.RegionAggregate) {
	fmt.Fprintf(w, "Region:  %s\n", name)
	fmt.Fprintf(w, "Period:  %s\n", period)
	fmt.Fprintf(w, "Total:   %d\n", agg.Count(crime.CategoryAll))
	fmt.Fprintf(w, "Peak:    %s\n", agg.PeakTimeSlot)
	fmt.Fprintf(w, "Top:     %s\n", formatTopHours(agg.TopHours))
	fmt.Fprintln(w, "\nBy category:")
	for _, cat := range crime.Categories {
		fmt.Fprintf(w, "  %-13s %d\n", cat, agg.Count(cat))
	}
}

func writeRouteSummary(w io.Writer, q route.Query, res *route.Result) {
	fmt.Fprintf(w, "Period:    %s\n", q.Period)
	fmt.Fprintf(w, "Category:  %s\n", q.Category)
	if q.Window != nil {
		fmt.Fprintf(w, "Hours:     %02d-%02d\n", q.Window.Start, q.Window.End)
	}
	if res.NoData {
		fmt.Fprintln(w, "No data loaded for this period.")
	}
	fmt.Fprintf(w, "Total:     %d\n", res.Total)
	fmt.Fprintf(w, "Score:     %d (%s)\n", res.Score, res.Tier)
	fmt.Fprintf(w, "Regions:   %s\n", strings.Join(res.Regions, ", "))
	if len(res.Worst) > 0 {
		fmt.Fprintln(w, "\nWorst regions:")
		for _, rc := range res.Worst {
			fmt.Fprintf(w, "  %-30s %d\n", rc.Region, rc.Count)
		}
	}
	for i, alt := range res.Alternatives {
		fmt.Fprintf(w, "\nAlternative %d via (%.4f, %.4f): total %d, score %d (%s)\n",
			i+1, alt.Waypoint.Lat, alt.Waypoint.Lng, alt.Total, alt.Score, alt.Tier)
	}
}

func writeReport(w io.Writer, report loader.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tACCEPTED\tSKIPPED\tREGIONS\tERROR")
	for _, res := range report.Results {
		errText := "-"
		if res.Err != nil {
			errText = res.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", res.Period, res.Accepted, res.Skipped, res.Regions, errText)
	}
	return tw.Flush()
}
