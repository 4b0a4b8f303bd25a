package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/saferoute/internal/crime"
)

// WriteXLSX writes one sheet per snapshot, named by period, with the same
// columns as WriteCSV.
func WriteXLSX(w io.Writer, snaps []*crime.Snapshot) error {
	if len(snaps) == 0 {
		return eris.New("export: no periods to write")
	}

	f := xlsx.NewFile()
	for _, snap := range snaps {
		if snap == nil {
			continue
		}
		sheet, err := f.AddSheet(sheetName(snap.Period))
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", snap.Period)
		}

		header := sheet.AddRow()
		for _, col := range Header {
			header.AddCell().SetString(col)
		}

		for _, r := range Rows(snap) {
			row := sheet.AddRow()
			row.AddCell().SetString(r.Region)
			for _, n := range []int{r.All, r.Commercial, r.Residential, r.Theft, r.Vehicle, r.Person, r.Mischief, r.Other} {
				row.AddCell().SetInt(n)
			}
			row.AddCell().SetString(r.PeakTimeSlot)
			row.AddCell().SetString(r.TopHours)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// sheetName makes a period usable as a sheet name: at most 31 characters,
// none of []:*?/\.
func sheetName(period string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, period)
	if name == "" {
		return "period"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
