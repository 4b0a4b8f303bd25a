package crime

import (
	"sort"
	"time"
)

// topHoursLimit caps the number of hours reported in RegionAggregate.TopHours.
const topHoursLimit = 3

// CategoryCounts holds incident counts per category. All is the sum of the
// seven category fields.
type CategoryCounts struct {
	All         int `json:"all"`
	Commercial  int `json:"commercial"`
	Residential int `json:"residential"`
	Theft       int `json:"theft"`
	Vehicle     int `json:"vehicle"`
	Person      int `json:"person"`
	Mischief    int `json:"mischief"`
	Other       int `json:"other"`
}

// Get returns the count for c. Unknown categories count as zero.
func (c CategoryCounts) Get(cat Category) int {
	switch cat {
	case CategoryAll:
		return c.All
	case CategoryCommercial:
		return c.Commercial
	case CategoryResidential:
		return c.Residential
	case CategoryTheft:
		return c.Theft
	case CategoryVehicle:
		return c.Vehicle
	case CategoryPerson:
		return c.Person
	case CategoryMischief:
		return c.Mischief
	case CategoryOther:
		return c.Other
	}
	return 0
}

func (c *CategoryCounts) add(cat Category) {
	c.All++
	switch cat {
	case CategoryCommercial:
		c.Commercial++
	case CategoryResidential:
		c.Residential++
	case CategoryTheft:
		c.Theft++
	case CategoryVehicle:
		c.Vehicle++
	case CategoryPerson:
		c.Person++
	case CategoryMischief:
		c.Mischief++
	default:
		c.Other++
	}
}

// HourCount pairs an hour of day with its incident count.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Extent is the bounding box of a region's located incidents.
type Extent struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

func (e *Extent) extend(loc Location) {
	e.MinLat = min(e.MinLat, loc.Lat)
	e.MaxLat = max(e.MaxLat, loc.Lat)
	e.MinLng = min(e.MinLng, loc.Lng)
	e.MaxLng = max(e.MaxLng, loc.Lng)
}

// RegionAggregate is the statistics for one region over one reporting period.
type RegionAggregate struct {
	Counts        CategoryCounts `json:"counts"`
	HourHistogram map[int]int    `json:"hour_histogram"`
	TopHours      []HourCount    `json:"top_hours"`
	PeakTimeSlot  string         `json:"peak_time_slot"`
	// Bounds is nil when none of the region's incidents has a location.
	Bounds *Extent `json:"bounds,omitempty"`
}

// Count returns the incident count for a category filter.
func (a *RegionAggregate) Count(cat Category) int {
	if a == nil {
		return 0
	}
	return a.Counts.Get(cat)
}

// SumWindow sums histogram slots over the inclusive, wrapping window start..end.
func (a *RegionAggregate) SumWindow(start, end int) int {
	if a == nil {
		return 0
	}
	total := 0
	for _, h := range WindowHours(start, end) {
		total += a.HourHistogram[h]
	}
	return total
}

// refresh recomputes the fields derived from the hour histogram.
func (a *RegionAggregate) refresh() {
	a.TopHours = topHours(a.HourHistogram)
	a.PeakTimeSlot = peakTimeSlot(a.HourHistogram)
}

// topHours returns up to three hours by descending count. Equal counts are
// ordered by hour so the result does not depend on map iteration.
func topHours(hist map[int]int) []HourCount {
	out := make([]HourCount, 0, len(hist))
	for h, n := range hist {
		out = append(out, HourCount{Hour: h, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > topHoursLimit {
		out = out[:topHoursLimit]
	}
	return out
}

// Aggregate builds per-region statistics for one period from scratch.
// Records with a missing or placeholder region are skipped, as are records
// tagged with a different period. Records without a known hour count toward
// the category totals but not the histogram.
func Aggregate(records []IncidentRecord, period string) map[string]*RegionAggregate {
	out := make(map[string]*RegionAggregate)
	for _, rec := range records {
		if !accepts(rec, period) {
			continue
		}
		name := trimRegion(rec.Region)
		agg, ok := out[name]
		if !ok {
			agg = &RegionAggregate{HourHistogram: make(map[int]int), PeakTimeSlot: NoPeak}
			out[name] = agg
		}
		agg.Counts.add(Categorize(rec.Type))
		if h, ok := rec.Hour.Get(); ok {
			agg.HourHistogram[h]++
		}
		if loc := rec.Location; loc != nil {
			if agg.Bounds == nil {
				agg.Bounds = &Extent{MinLng: loc.Lng, MinLat: loc.Lat, MaxLng: loc.Lng, MaxLat: loc.Lat}
			} else {
				agg.Bounds.extend(*loc)
			}
		}
	}
	for _, agg := range out {
		agg.refresh()
	}
	return out
}

func accepts(rec IncidentRecord, period string) bool {
	if !rec.ValidRegion() {
		return false
	}
	return rec.Period == "" || rec.Period == period
}

// Snapshot is everything the store keeps for one reporting period.
type Snapshot struct {
	Period   string                      `json:"period"`
	Regions  map[string]*RegionAggregate `json:"regions"`
	Types    []string                    `json:"types"`
	Accepted int                         `json:"accepted"`
	Skipped  int                         `json:"skipped"`
	BuiltAt  time.Time                   `json:"built_at"`

	// records are the accepted incidents, kept for filtered views.
	records []IncidentRecord
}

// Build aggregates records into a Snapshot for period.
func Build(records []IncidentRecord, period string) *Snapshot {
	snap := &Snapshot{
		Period:  period,
		Regions: Aggregate(records, period),
		BuiltAt: time.Now().UTC(),
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		if !accepts(rec, period) {
			snap.Skipped++
			continue
		}
		snap.Accepted++
		snap.records = append(snap.records, rec)
		if rec.Type == "" {
			continue
		}
		if _, ok := seen[rec.Type]; !ok {
			seen[rec.Type] = struct{}{}
			snap.Types = append(snap.Types, rec.Type)
		}
	}
	sort.Strings(snap.Types)
	return snap
}

// Empty returns a snapshot with no regions, used when a period could not be loaded.
func Empty(period string) *Snapshot {
	return &Snapshot{
		Period:  period,
		Regions: map[string]*RegionAggregate{},
		BuiltAt: time.Now().UTC(),
	}
}

// RegionNames returns the snapshot's region names in sorted order.
func (s *Snapshot) RegionNames() []string {
	names := make([]string, 0, len(s.Regions))
	for name := range s.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the aggregate for name, trying an exact match before a
// case-insensitive one. The returned name is the snapshot's key.
func (s *Snapshot) Find(name string) (string, *RegionAggregate, bool) {
	if agg, ok := s.Regions[name]; ok {
		return name, agg, true
	}
	key := FoldKey(name)
	for _, candidate := range s.RegionNames() {
		if FoldKey(candidate) == key {
			return candidate, s.Regions[candidate], true
		}
	}
	return "", nil, false
}

// EmptyAggregate is the aggregate of a region with no incidents.
func EmptyAggregate() *RegionAggregate {
	return &RegionAggregate{
		HourHistogram: map[int]int{},
		TopHours:      []HourCount{},
		PeakTimeSlot:  NoPeak,
	}
}
