// Package region holds the static table of named regions and resolves
// coordinates to the nearest region centroid.
package region

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saferoute/internal/crime"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// Valid reports whether p is finite and within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Finite() && p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Region is a named area with a fixed centroid.
type Region struct {
	Name     string `json:"name" yaml:"name"`
	Centroid Point  `json:"centroid" yaml:"centroid"`
	Bounds   *BBox  `json:"bounds,omitempty" yaml:"-"`
}

// Index is an immutable, ordered table of regions.
//
// Nearest does a linear scan using squared Euclidean distance in degree
// space. That is only a fair approximation over a city-sized extent and
// with a few dozen regions; a larger table or extent needs a grid or k-d
// tree and a projected distance.
type Index struct {
	regions []Region
	byName  map[string]int
}

// NewIndex validates regions and builds an index preserving their order.
func NewIndex(regions []Region) (*Index, error) {
	if len(regions) == 0 {
		return nil, eris.New("region: empty region table")
	}
	idx := &Index{
		regions: make([]Region, len(regions)),
		byName:  make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		if r.Name == "" {
			return nil, eris.Errorf("region: entry %d has no name", i)
		}
		if !r.Centroid.Valid() {
			return nil, eris.Errorf("region: %q has invalid centroid (%v, %v)", r.Name, r.Centroid.Lat, r.Centroid.Lng)
		}
		key := crime.FoldKey(r.Name)
		if _, dup := idx.byName[key]; dup {
			return nil, eris.Errorf("region: duplicate name %q", r.Name)
		}
		idx.byName[key] = i
		idx.regions[i] = r
	}
	return idx, nil
}

// Nearest returns the region whose centroid is closest to p. Ties go to the
// region listed first. It returns false when p is not a finite coordinate.
func (x *Index) Nearest(p Point) (Region, bool) {
	if x == nil || len(x.regions) == 0 || !p.Finite() {
		return Region{}, false
	}
	best := 0
	bestDist := math.Inf(1)
	for i, r := range x.regions {
		dLat := p.Lat - r.Centroid.Lat
		dLng := p.Lng - r.Centroid.Lng
		if d := dLat*dLat + dLng*dLng; d < bestDist {
			best, bestDist = i, d
		}
	}
	return x.regions[best], true
}

// Lookup finds a region by name, ignoring case.
func (x *Index) Lookup(name string) (Region, bool) {
	i, ok := x.byName[crime.FoldKey(name)]
	if !ok {
		return Region{}, false
	}
	return x.regions[i], true
}

// Regions returns a copy of the table in its original order.
func (x *Index) Regions() []Region {
	out := make([]Region, len(x.regions))
	copy(out, x.regions)
	return out
}

// Len returns the number of regions.
func (x *Index) Len() int {
	return len(x.regions)
}
