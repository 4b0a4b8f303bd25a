package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/region"
)

// detourFixture lays out a hot region H between A and B on the equator and a
// quiet region S one degree north of H. H is listed last so that equidistant
// samples resolve to the other regions.
func detourFixture(t *testing.T, a, h, b, s int) (*Scorer, Query) {
	t.Helper()
	idx := mustIndex(t,
		region.Region{Name: "A", Centroid: region.Point{Lat: 0, Lng: 0}},
		region.Region{Name: "S", Centroid: region.Point{Lat: 1, Lng: 1}},
		region.Region{Name: "B", Centroid: region.Point{Lat: 0, Lng: 2}},
		region.Region{Name: "H", Centroid: region.Point{Lat: 0, Lng: 1}},
	)
	var recs []crime.IncidentRecord
	recs = append(recs, records("A", "Mischief", a, crime.Hour{})...)
	recs = append(recs, records("H", "Mischief", h, crime.Hour{})...)
	recs = append(recs, records("B", "Mischief", b, crime.Hour{})...)
	recs = append(recs, records("S", "Mischief", s, crime.Hour{})...)
	store := crime.NewStore()
	store.Rebuild(recs, "2024")

	scorer := NewScorer(idx, store, WithDetourOffset(1.0))
	q := Query{
		Start:  region.Point{Lat: 0, Lng: 0},
		End:    region.Point{Lat: 0, Lng: 2},
		Period: "2024",
	}
	return scorer, q
}

func TestScore_AttachesSaferDetour(t *testing.T) {
	s, q := detourFixture(t, 100, 1000, 100, 10)

	res, err := s.Score(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "H"}, res.Regions)
	assert.Equal(t, 1200, res.Total)
	assert.Equal(t, 400, res.Score)
	assert.Equal(t, "severe", res.Tier)

	require.Len(t, res.Alternatives, 1)
	alt := res.Alternatives[0]
	assert.Equal(t, region.Point{Lat: 1, Lng: 1}, alt.Waypoint)
	assert.Equal(t, []string{"A", "B", "S"}, alt.Regions)
	assert.Equal(t, 210, alt.Total)
	assert.Equal(t, 70, alt.Score)
	assert.Equal(t, "moderate", alt.Tier)
}

func TestImprove_BelowThreshold(t *testing.T) {
	// The detour would total 21 against 120, but the baseline score of 40
	// does not reach the threshold.
	s, q := detourFixture(t, 10, 100, 10, 1)

	res, err := s.Score(q)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Score)
	assert.Empty(t, res.Alternatives)

	alt, err := s.Improve(q, res)
	require.NoError(t, err)
	assert.Nil(t, alt)
}

func TestImprove_NotStrictlySafer(t *testing.T) {
	s, q := detourFixture(t, 100, 1000, 100, 5000)

	res, err := s.Score(q)
	require.NoError(t, err)
	assert.Greater(t, res.Score, DefaultAlternativeThreshold)
	assert.Empty(t, res.Alternatives)
}

func TestImprove_EqualTotalRejected(t *testing.T) {
	s, q := detourFixture(t, 100, 1000, 100, 1000)

	res, err := s.Score(q)
	require.NoError(t, err)
	assert.Empty(t, res.Alternatives)
}

func TestImprove_NilBaseline(t *testing.T) {
	s, q := detourFixture(t, 1, 1, 1, 1)
	alt, err := s.Improve(q, nil)
	require.NoError(t, err)
	assert.Nil(t, alt)
}

func TestImprove_CustomThreshold(t *testing.T) {
	s, q := detourFixture(t, 10, 100, 10, 1)
	WithAlternativeThreshold(20)(s)

	res, err := s.Score(q)
	require.NoError(t, err)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, 21, res.Alternatives[0].Total)
}
