// Package export renders aggregates and scored routes as CSV, XLSX and
// GeoJSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/crime"
)

// Row is one region of a period in tabular exports.
type Row struct {
	Region       string `csv:"region"`
	All          int    `csv:"all"`
	Commercial   int    `csv:"commercial"`
	Residential  int    `csv:"residential"`
	Theft        int    `csv:"theft"`
	Vehicle      int    `csv:"vehicle"`
	Person       int    `csv:"person"`
	Mischief     int    `csv:"mischief"`
	Other        int    `csv:"other"`
	PeakTimeSlot string `csv:"peak_time_slot"`
	TopHours     string `csv:"top_hours"`
}

// Header lists the tabular column names in order.
var Header = []string{
	"region", "all", "commercial", "residential", "theft", "vehicle",
	"person", "mischief", "other", "peak_time_slot", "top_hours",
}

// Rows flattens a snapshot into one row per region, sorted by name.
func Rows(snap *crime.Snapshot) []Row {
	if snap == nil {
		return nil
	}
	names := snap.RegionNames()
	rows := make([]Row, 0, len(names))
	for _, name := range names {
		agg := snap.Regions[name]
		c := agg.Counts
		rows = append(rows, Row{
			Region:       name,
			All:          c.All,
			Commercial:   c.Commercial,
			Residential:  c.Residential,
			Theft:        c.Theft,
			Vehicle:      c.Vehicle,
			Person:       c.Person,
			Mischief:     c.Mischief,
			Other:        c.Other,
			PeakTimeSlot: agg.PeakTimeSlot,
			TopHours:     formatTopHours(agg.TopHours),
		})
	}
	return rows
}

// formatTopHours renders top hours as "22:5;10:3".
func formatTopHours(hours []crime.HourCount) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%d:%d", h.Hour, h.Count)
	}
	return strings.Join(parts, ";")
}

// WriteCSV writes the snapshot as CSV with a header row.
func WriteCSV(w io.Writer, snap *crime.Snapshot) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	rows := Rows(snap)
	if len(rows) == 0 {
		if err := cw.Write(Header); err != nil {
			return eris.Wrap(err, "export: write csv header")
		}
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "export: encode region %s", row.Region)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}
