// Package route scores the relative crime risk of a straight-line route
// between two points and tries a single safer detour.
//
// Routes are approximated by evenly sampled points on straight segments; no
// street network is involved. Each sample is attributed to its nearest
// region and the incident counts of the distinct regions touched are summed.
package route

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/region"
)

// Defaults for Scorer options.
const (
	DefaultSamples              = 40
	DefaultAlternativeThreshold = 100
	DefaultDetourOffset         = 0.01
	worstLimit                  = 3
)

// ErrInvalidInput marks queries that cannot be scored: malformed coordinates,
// unknown categories, or hour windows outside [0,23].
var ErrInvalidInput = eris.New("invalid input")

// StatsSource supplies region aggregates by period. *crime.Store implements it.
type StatsSource interface {
	Snapshot(period string) (*crime.Snapshot, bool)
}

// HourWindow is an inclusive hour range that may wrap past midnight.
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Query describes a route to score.
type Query struct {
	Start    region.Point   `json:"start"`
	End      region.Point   `json:"end"`
	Period   string         `json:"period"`
	Category crime.Category `json:"category"`
	Window   *HourWindow    `json:"window,omitempty"`
}

// RegionCount is a region's contribution to a route total.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// Result is the scored route.
type Result struct {
	Total        int           `json:"total"`
	Score        int           `json:"score"`
	Tier         string        `json:"tier"`
	Color        string        `json:"color"`
	Worst        []RegionCount `json:"worst"`
	Regions      []string      `json:"regions"`
	Samples      int           `json:"samples"`
	NoData       bool          `json:"no_data"`
	Alternatives []Alternative `json:"alternatives"`
}

// Scorer scores routes against a region index and aggregate source.
type Scorer struct {
	index     *region.Index
	stats     StatsSource
	samples   int
	threshold int
	offset    float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithSamples sets the number of intervals sampled per segment.
func WithSamples(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithAlternativeThreshold sets the score above which a detour is tried.
func WithAlternativeThreshold(score int) Option {
	return func(s *Scorer) { s.threshold = score }
}

// WithDetourOffset sets the latitude delta, in degrees, applied to the
// midpoint of the detour candidate.
func WithDetourOffset(deg float64) Option {
	return func(s *Scorer) { s.offset = deg }
}

// NewScorer creates a Scorer.
func NewScorer(index *region.Index, stats StatsSource, opts ...Option) *Scorer {
	s := &Scorer{
		index:     index,
		stats:     stats,
		samples:   DefaultSamples,
		threshold: DefaultAlternativeThreshold,
		offset:    DefaultDetourOffset,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a query and normalizes an empty category to CategoryAll.
func (q *Query) Validate() error {
	if !q.Start.Valid() {
		return eris.Wrapf(ErrInvalidInput, "route: start coordinate (%v, %v)", q.Start.Lat, q.Start.Lng)
	}
	if !q.End.Valid() {
		return eris.Wrapf(ErrInvalidInput, "route: end coordinate (%v, %v)", q.End.Lat, q.End.Lng)
	}
	if q.Category == "" {
		q.Category = crime.CategoryAll
	}
	if !q.Category.Valid() {
		return eris.Wrapf(ErrInvalidInput, "route: unknown category %q", q.Category)
	}
	if w := q.Window; w != nil {
		if w.Start < 0 || w.Start > 23 || w.End < 0 || w.End > 23 {
			return eris.Wrapf(ErrInvalidInput, "route: hour window %d-%d out of range", w.Start, w.End)
		}
	}
	return nil
}

// CheckFilters rejects a category filter combined with an hour window. The
// hour histogram is not split by category, so the window would silently
// count every category.
func (q Query) CheckFilters() error {
	if q.Window != nil && q.Category != "" && q.Category != crime.CategoryAll {
		return eris.Wrapf(ErrInvalidInput, "route: category %q cannot be combined with an hour window", q.Category)
	}
	return nil
}

// Score scores the straight line from q.Start to q.End. When the score is
// above the alternative threshold, the single detour attempt from Improve is
// attached if it is strictly safer.
func (s *Scorer) Score(q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	res, err := s.scorePath(q, Path(q.Start, q.End))
	if err != nil {
		return nil, err
	}
	alt, err := s.Improve(q, res)
	if err != nil {
		return nil, err
	}
	if alt != nil {
		res.Alternatives = append(res.Alternatives, *alt)
	}
	return res, nil
}

func (s *Scorer) scorePath(q Query, path *geom.LineString) (*Result, error) {
	points := Sample(path, s.samples)

	touched := make(map[string]struct{})
	for _, p := range points {
		r, ok := s.index.Nearest(p)
		if !ok {
			return nil, eris.Wrapf(ErrInvalidInput, "route: cannot resolve sample (%v, %v)", p.Lat, p.Lng)
		}
		touched[r.Name] = struct{}{}
	}

	res := &Result{
		Regions:      make([]string, 0, len(touched)),
		Samples:      len(points),
		Worst:        []RegionCount{},
		Alternatives: []Alternative{},
	}
	for name := range touched {
		res.Regions = append(res.Regions, name)
	}
	sort.Strings(res.Regions)

	snap, ok := s.lookup(q.Period)
	if !ok {
		res.NoData = true
		s.finish(res)
		return res, nil
	}

	counts := make([]RegionCount, 0, len(res.Regions))
	for _, name := range res.Regions {
		n := regionCount(snap.Regions[name], q)
		res.Total += n
		counts = append(counts, RegionCount{Region: name, Count: n})
	}
	res.Worst = worst(counts)
	s.finish(res)
	return res, nil
}

func (s *Scorer) lookup(period string) (*crime.Snapshot, bool) {
	if s.stats == nil {
		return nil, false
	}
	return s.stats.Snapshot(period)
}

// finish derives the normalized score and tier from the total.
func (s *Scorer) finish(res *Result) {
	distinct := max(len(res.Regions), 1)
	res.Score = int(math.Round(float64(res.Total) / float64(distinct)))
	t := TierFor(res.Score)
	res.Tier, res.Color = t.Name, t.Color
}

// regionCount is the count a region contributes to a route. With an hour
// window it sums the region's hour histogram, which covers all categories.
func regionCount(agg *crime.RegionAggregate, q Query) int {
	if agg == nil {
		return 0
	}
	if q.Window != nil {
		return agg.SumWindow(q.Window.Start, q.Window.End)
	}
	return agg.Count(q.Category)
}

// worst returns up to three non-zero contributors by descending count.
func worst(counts []RegionCount) []RegionCount {
	out := make([]RegionCount, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Region < out[j].Region
	})
	if len(out) > worstLimit {
		out = out[:worstLimit]
	}
	return out
}

// ParseWindow parses "start-end", for example "22-3". An empty string is no
// window. Ranges are checked by Query.Validate.
func ParseWindow(s string) (*HourWindow, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return nil, eris.Wrapf(ErrInvalidInput, "route: expected start-end hours, got %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidInput, "route: bad start hour %q", a)
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidInput, "route: bad end hour %q", b)
	}
	return &HourWindow{Start: start, End: end}, nil
}
