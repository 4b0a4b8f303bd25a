package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/loader"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

func testSnapshot() *crime.Snapshot {
	return crime.Build([]crime.IncidentRecord{
		{Region: "Kitsilano", Type: "Theft from Vehicle", Hour: crime.HourOf(22)},
		{Region: "Kitsilano", Type: "Theft from Vehicle", Hour: crime.HourOf(23)},
		{Region: "Fairview", Type: "Mischief", Hour: crime.HourOf(9)},
	}, "2023")
}

func TestWriteSnapshotTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshotTable(&buf, testSnapshot()))

	out := buf.String()
	assert.Contains(t, out, "REGION")
	assert.Contains(t, out, "Kitsilano")
	assert.Contains(t, out, "Night")
	assert.Contains(t, out, "2 regions, 3 incidents accepted, 0 skipped")
}

func TestWriteRegionDetail(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	writeRegionDetail(&buf, "Kitsilano", "2023", snap.Regions["Kitsilano"])

	out := buf.String()
	assert.Contains(t, out, "Total:   2")
	assert.Contains(t, out, "22:00 (1), 23:00 (1)")
	assert.Contains(t, out, "vehicle       2")
}

func TestWriteRouteSummary(t *testing.T) {
	q := route.Query{Period: "2023", Category: crime.CategoryAll, Window: &route.HourWindow{Start: 22, End: 3}}
	res := &route.Result{
		Total:   180,
		Score:   90,
		Tier:    "moderate",
		Regions: []string{"Fairview", "Kitsilano"},
		Worst:   []route.RegionCount{{Region: "Kitsilano", Count: 150}},
		Alternatives: []route.Alternative{
			{Waypoint: region.Point{Lat: 49.27, Lng: -123.14}, Total: 40, Score: 20, Tier: "low"},
		},
	}

	var buf bytes.Buffer
	writeRouteSummary(&buf, q, res)
	out := buf.String()
	assert.Contains(t, out, "Hours:     22-03")
	assert.Contains(t, out, "Score:     90 (moderate)")
	assert.Contains(t, out, "Fairview, Kitsilano")
	assert.Contains(t, out, "Alternative 1 via (49.2700, -123.1400): total 40, score 20 (low)")
}

func TestWriteReport(t *testing.T) {
	report := loader.Report{Results: []loader.PeriodResult{
		{Period: "2022", Accepted: 10, Regions: 2},
		{Period: "2023", Err: errors.New("boom")},
	}}
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "PERIOD")
	assert.Contains(t, out, "boom")
}

func TestResolveRegion(t *testing.T) {
	idx, err := region.NewIndex([]region.Region{
		{Name: "Kitsilano", Centroid: region.Point{Lat: 49.268, Lng: -123.165}},
		{Name: "Shaughnessy", Centroid: region.Point{Lat: 49.247, Lng: -123.138}},
	})
	require.NoError(t, err)
	snap := testSnapshot()

	name, agg, err := resolveRegion(idx, snap, "KITSILANO")
	require.NoError(t, err)
	assert.Equal(t, "Kitsilano", name)
	assert.Equal(t, 2, agg.Counts.All)

	// Fairview is in the data but not the table.
	name, _, err = resolveRegion(idx, snap, "fairview")
	require.NoError(t, err)
	assert.Equal(t, "Fairview", name)

	name, agg, err = resolveRegion(idx, snap, "shaughnessy")
	require.NoError(t, err)
	assert.Equal(t, "Shaughnessy", name)
	assert.Equal(t, crime.NoPeak, agg.PeakTimeSlot)

	_, _, err = resolveRegion(idx, snap, "Atlantis")
	assert.Error(t, err)
}

func TestLatestPeriod(t *testing.T) {
	store := crime.NewStore()
	assert.Equal(t, "", latestPeriod(store))
	store.Replace(crime.Empty("2021"))
	store.Replace(crime.Empty("2023"))
	store.Replace(crime.Empty("2022"))
	assert.Equal(t, "2023", latestPeriod(store))
}

func newRouteFlagCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRouteFlags(cmd)
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestRouteQueryFromFlags(t *testing.T) {
	cmd := newRouteFlagCmd(t, map[string]string{
		"from":     "49.28,-123.12",
		"to":       "49.26, -123.11",
		"category": "Theft",
		"period":   " 2023 ",
	})
	q, err := routeQueryFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, region.Point{Lat: 49.28, Lng: -123.12}, q.Start)
	assert.Equal(t, crime.CategoryTheft, q.Category)
	assert.Nil(t, q.Window)
	assert.Equal(t, "2023", q.Period)

	q, err = routeQueryFromFlags(newRouteFlagCmd(t, map[string]string{
		"from": "49.28,-123.12", "to": "49.26,-123.11", "hours": "22-3",
	}))
	require.NoError(t, err)
	assert.Equal(t, crime.CategoryAll, q.Category)
	assert.Equal(t, &route.HourWindow{Start: 22, End: 3}, q.Window)
}

func TestRouteQueryFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"bad from", map[string]string{"from": "north", "to": "49.26,-123.11"}},
		{"out of range", map[string]string{"from": "91,-123.12", "to": "49.26,-123.11"}},
		{"unknown category", map[string]string{"from": "49.28,-123.12", "to": "49.26,-123.11", "category": "arson"}},
		{"hour range", map[string]string{"from": "49.28,-123.12", "to": "49.26,-123.11", "hours": "22-24"}},
		{"category with hours", map[string]string{"from": "49.28,-123.12", "to": "49.26,-123.11", "category": "theft", "hours": "22-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := routeQueryFromFlags(newRouteFlagCmd(t, tt.flags))
			require.Error(t, err)
		})
	}

	_, err := routeQueryFromFlags(newRouteFlagCmd(t, map[string]string{
		"from": "49.28,-123.12", "to": "49.26,-123.11", "hours": "22-24",
	}))
	assert.True(t, eris.Is(err, route.ErrInvalidInput))
}
