package export

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

// RegionsGeoJSON returns one point feature per region at its centroid. When
// snap is non-nil each feature carries the region's counts, top hours and
// peak slot for that period. The bbox comes from the region table, or from
// the period's incident extent when the table has none.
func RegionsGeoJSON(index *region.Index, snap *crime.Snapshot) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	if index == nil {
		return fc
	}

	for _, r := range index.Regions() {
		props := map[string]any{"name": r.Name}
		if snap != nil {
			agg := snap.Regions[r.Name]
			counts := crime.CategoryCounts{}
			peak := crime.NoPeak
			topHours := []crime.HourCount{}
			if agg != nil {
				counts = agg.Counts
				peak = agg.PeakTimeSlot
				if agg.TopHours != nil {
					topHours = agg.TopHours
				}
			}
			props["period"] = snap.Period
			props["counts"] = counts
			props["peak_time_slot"] = peak
			props["top_hours"] = topHours
		}

		f := &geojson.Feature{
			ID:         r.Name,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Centroid.Lng, r.Centroid.Lat}).SetSRID(4326),
			Properties: props,
		}
		switch {
		case r.Bounds != nil:
			f.BBox = geom.NewBounds(geom.XY).Set(r.Bounds.MinLng, r.Bounds.MinLat, r.Bounds.MaxLng, r.Bounds.MaxLat)
		case snap != nil && snap.Regions[r.Name] != nil && snap.Regions[r.Name].Bounds != nil:
			b := snap.Regions[r.Name].Bounds
			f.BBox = geom.NewBounds(geom.XY).Set(b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// IncidentsGeoJSON returns one point feature per located incident. Records
// without a location are left out.
func IncidentsGeoJSON(records []crime.IncidentRecord) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, rec := range records {
		if rec.Location == nil {
			continue
		}
		date := ""
		if !rec.Date.IsZero() {
			date = rec.Date.Format(crime.DateLayout)
		}
		hour := -1
		if h, ok := rec.Hour.Get(); ok {
			hour = h
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{rec.Location.Lng, rec.Location.Lat}).SetSRID(4326),
			Properties: map[string]any{
				"type":          rec.Type,
				"category":      crime.Categorize(rec.Type),
				"date":          date,
				"hour":          hour,
				"neighbourhood": rec.Region,
				"hundred_block": rec.Block,
			},
		})
	}
	return fc
}

// RouteGeoJSON returns the baseline route and each alternative as line
// features.
func RouteGeoJSON(q route.Query, res *route.Result) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	if res == nil {
		return fc
	}

	fc.Features = append(fc.Features, &geojson.Feature{
		ID:       "baseline",
		Geometry: route.Path(q.Start, q.End),
		Properties: map[string]any{
			"kind":    "baseline",
			"period":  q.Period,
			"total":   res.Total,
			"score":   res.Score,
			"tier":    res.Tier,
			"color":   res.Color,
			"regions": res.Regions,
			"no_data": res.NoData,
		},
	})

	for i, alt := range res.Alternatives {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("alternative-%d", i+1),
			Geometry: route.Path(q.Start, alt.Waypoint, q.End),
			Properties: map[string]any{
				"kind":    "alternative",
				"period":  q.Period,
				"total":   alt.Total,
				"score":   alt.Score,
				"tier":    alt.Tier,
				"color":   route.TierFor(alt.Score).Color,
				"regions": alt.Regions,
			},
		})
	}
	return fc
}
