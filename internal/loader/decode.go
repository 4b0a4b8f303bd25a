package loader

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/im7mortal/UTM"
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/fetcher"
)

// csvRow is one line of a police incident export.
type csvRow struct {
	Type          string `csv:"TYPE"`
	Year          string `csv:"YEAR"`
	Month         string `csv:"MONTH"`
	Day           string `csv:"DAY"`
	Hour          string `csv:"HOUR"`
	HundredBlock  string `csv:"HUNDRED_BLOCK"`
	Neighbourhood string `csv:"NEIGHBOURHOOD"`
	X             string `csv:"X"`
	Y             string `csv:"Y"`
}

// DecodeStats counts rows the decoder could not turn into records.
type DecodeStats struct {
	Rows      int
	Malformed int
}

// Projection converts export X/Y columns, which are UTM eastings and
// northings, to WGS84.
type Projection struct {
	Zone     int
	Northern bool
}

// DefaultProjection is UTM zone 10N, used by the Vancouver exports.
var DefaultProjection = Projection{Zone: 10, Northern: true}

// locate returns nil for blank or out-of-range coordinates. Exports zero
// the coordinates of incidents offset for privacy.
func (p Projection) locate(x, y string) *crime.Location {
	easting, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return nil
	}
	northing, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil || !(easting >= 100_000 && easting < 1_000_000) || !(northing >= 0 && northing <= 10_000_000) {
		return nil
	}
	lat, lng, err := UTM.ToLatLon(easting, northing, p.Zone, "", p.Northern)
	if err != nil {
		return nil
	}
	return &crime.Location{Lat: lat, Lng: lng}
}

// parseInt accepts "10" and spreadsheet-style "10.0".
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// parseHour returns an unknown hour for anything parseInt rejects or a value
// outside 0-23.
func parseHour(s string) crime.Hour {
	h, ok := parseInt(s)
	if !ok {
		return crime.Hour{}
	}
	return crime.HourOf(h)
}

// parseDate returns the zero time unless year, month and day form a real
// calendar day.
func parseDate(year, month, day string) time.Time {
	y, ok := parseInt(year)
	if !ok || y < 1 {
		return time.Time{}
	}
	m, ok := parseInt(month)
	if !ok || m < 1 || m > 12 {
		return time.Time{}
	}
	d, ok := parseInt(day)
	if !ok || d < 1 {
		return time.Time{}
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}
	}
	return t
}

// Decode reads CSV incident rows from r and tags each record with period.
// Header names are matched case-insensitively and missing columns are
// tolerated. Rows with the wrong field count are counted as malformed and
// skipped; a stream error aborts the decode. Coordinates are read with
// DefaultProjection.
func Decode(ctx context.Context, r io.Reader, period string) ([]crime.IncidentRecord, DecodeStats, error) {
	return DecodeWith(ctx, r, period, DefaultProjection)
}

// DecodeWith is Decode with an explicit coordinate projection.
func DecodeWith(ctx context.Context, r io.Reader, period string, proj Projection) ([]crime.IncidentRecord, DecodeStats, error) {
	var stats DecodeStats

	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})
	rr := fetcher.NewRowReader(rows, errs)
	defer rr.Drain()

	header, err := rr.Read()
	if err == io.EOF {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, eris.Wrap(err, "loader: read header")
	}
	for i, h := range header {
		header[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	dec, err := csvutil.NewDecoder(rr, header...)
	if err != nil {
		return nil, stats, eris.Wrap(err, "loader: create decoder")
	}

	var records []crime.IncidentRecord
	for line := 2; ; line++ {
		var row csvRow
		err := dec.Decode(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			if streamErr := rr.Err(); streamErr != nil {
				return records, stats, eris.Wrap(streamErr, "loader: decode")
			}
			stats.Malformed++
			zap.L().Debug("loader: skipping malformed row",
				zap.String("period", period),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}

		stats.Rows++
		records = append(records, crime.IncidentRecord{
			Region:   row.Neighbourhood,
			Type:     row.Type,
			Hour:     parseHour(row.Hour),
			Period:   period,
			Date:     parseDate(row.Year, row.Month, row.Day),
			Block:    row.HundredBlock,
			Location: proj.locate(row.X, row.Y),
		})
	}

	return records, stats, nil
}
