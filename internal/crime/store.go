package crime

import (
	"sort"
	"sync/atomic"
)

// Store maps reporting periods to their snapshots. Each Replace installs a
// new copy of the period map with a compare-and-swap, so readers always see
// either the previous or the new snapshot for a period, never a partial one.
//
// Snapshots must not be mutated once handed to the store. Rebuilds of the
// same period must be serialized by the caller.
type Store struct {
	periods atomic.Pointer[map[string]*Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	empty := map[string]*Snapshot{}
	s.periods.Store(&empty)
	return s
}

func (s *Store) load() map[string]*Snapshot {
	if p := s.periods.Load(); p != nil {
		return *p
	}
	return nil
}

// Replace installs snap as the snapshot for its period, discarding any
// previous snapshot for that period.
func (s *Store) Replace(snap *Snapshot) {
	for {
		old := s.periods.Load()
		var prev map[string]*Snapshot
		if old != nil {
			prev = *old
		}
		next := make(map[string]*Snapshot, len(prev)+1)
		for k, v := range prev {
			next[k] = v
		}
		next[snap.Period] = snap
		if s.periods.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Rebuild aggregates records for period and replaces the stored snapshot.
func (s *Store) Rebuild(records []IncidentRecord, period string) *Snapshot {
	snap := Build(records, period)
	s.Replace(snap)
	return snap
}

// Snapshot returns the snapshot for period.
func (s *Store) Snapshot(period string) (*Snapshot, bool) {
	snap, ok := s.load()[period]
	return snap, ok
}

// Region returns the aggregate for a region in period.
func (s *Store) Region(period, name string) (*RegionAggregate, bool) {
	snap, ok := s.Snapshot(period)
	if !ok {
		return nil, false
	}
	agg, ok := snap.Regions[name]
	return agg, ok
}

// Periods returns the loaded periods in sorted order.
func (s *Store) Periods() []string {
	m := s.load()
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
