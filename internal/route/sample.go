package route

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/saferoute/internal/region"
)

// Path builds an XY line string (x = longitude, y = latitude) through points.
func Path(points ...region.Point) *geom.LineString {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.Lng, p.Lat)
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326)
}

// Sample returns n+1 evenly spaced points along every segment of path,
// endpoints included. Shared vertices between segments appear twice.
func Sample(path *geom.LineString, n int) []region.Point {
	if n < 1 {
		n = 1
	}
	segments := path.NumCoords() - 1
	if segments < 1 {
		if path.NumCoords() == 1 {
			c := path.Coord(0)
			return []region.Point{{Lat: c.Y(), Lng: c.X()}}
		}
		return nil
	}
	out := make([]region.Point, 0, segments*(n+1))
	for s := 0; s < segments; s++ {
		a, b := path.Coord(s), path.Coord(s+1)
		for i := 0; i <= n; i++ {
			t := float64(i) / float64(n)
			out = append(out, region.Point{
				Lat: a.Y() + (b.Y()-a.Y())*t,
				Lng: a.X() + (b.X()-a.X())*t,
			})
		}
	}
	return out
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b region.Point) region.Point {
	return region.Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}
