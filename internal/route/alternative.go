package route

import "github.com/sells-group/saferoute/internal/region"

// Alternative is a detour through a displaced midpoint that scored strictly
// lower than the baseline.
type Alternative struct {
	Waypoint region.Point `json:"waypoint"`
	Total    int          `json:"total"`
	Score    int          `json:"score"`
	Tier     string       `json:"tier"`
	Regions  []string     `json:"regions"`
}

// Improve tries one detour: the midpoint of the straight line shifted by a
// fixed latitude offset, scored as two sampled segments. It is a single,
// deterministic heuristic, not a search. It returns nil when the baseline
// score does not exceed the threshold or the detour total is not strictly
// lower than the baseline total.
func (s *Scorer) Improve(q Query, baseline *Result) (*Alternative, error) {
	if baseline == nil || baseline.Score <= s.threshold {
		return nil, nil
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	mid := Midpoint(q.Start, q.End)
	waypoint := region.Point{Lat: mid.Lat + s.offset, Lng: mid.Lng}

	cand, err := s.scorePath(q, Path(q.Start, waypoint, q.End))
	if err != nil {
		return nil, err
	}
	if cand.Total >= baseline.Total {
		return nil, nil
	}
	return &Alternative{
		Waypoint: waypoint,
		Total:    cand.Total,
		Score:    cand.Score,
		Tier:     cand.Tier,
		Regions:  cand.Regions,
	}, nil
}
