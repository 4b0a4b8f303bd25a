package crime

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the day format accepted by ParseIncidentFilter.
const DateLayout = "2006-01-02"

// ErrInvalidFilter marks filter values that cannot be parsed.
var ErrInvalidFilter = eris.New("invalid incident filter")

// IncidentFilter selects incidents by report day, type and region. Zero
// fields do not filter.
type IncidentFilter struct {
	// Start and End are inclusive report days.
	Start time.Time
	End   time.Time
	// Types matches any type containing one of the substrings, ignoring case.
	Types []string
	// Region matches regions containing the substring, ignoring case.
	Region string
}

// ParseIncidentFilter builds a filter from query-string style values:
// YYYY-MM-DD days and a comma-separated type list.
func ParseIncidentFilter(start, end, types, region string) (IncidentFilter, error) {
	var f IncidentFilter
	var err error
	if f.Start, err = parseDay(start); err != nil {
		return IncidentFilter{}, eris.Wrapf(ErrInvalidFilter, "crime: start %q", start)
	}
	if f.End, err = parseDay(end); err != nil {
		return IncidentFilter{}, eris.Wrapf(ErrInvalidFilter, "crime: end %q", end)
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return IncidentFilter{}, eris.Wrapf(ErrInvalidFilter, "crime: end %s before start %s", end, start)
	}
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			f.Types = append(f.Types, strings.ToLower(t))
		}
	}
	f.Region = strings.ToLower(strings.TrimSpace(region))
	return f, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// IsZero reports whether the filter accepts every record.
func (f IncidentFilter) IsZero() bool {
	return f.Start.IsZero() && f.End.IsZero() && len(f.Types) == 0 && f.Region == ""
}

// Match reports whether rec passes the filter. A record with no date fails
// any date bound.
func (f IncidentFilter) Match(rec IncidentRecord) bool {
	if !f.Start.IsZero() || !f.End.IsZero() {
		if rec.Date.IsZero() {
			return false
		}
		if !f.Start.IsZero() && rec.Date.Before(f.Start) {
			return false
		}
		if !f.End.IsZero() && rec.Date.After(f.End) {
			return false
		}
	}
	if len(f.Types) > 0 {
		typ := strings.ToLower(rec.Type)
		matched := false
		for _, t := range f.Types {
			if strings.Contains(typ, strings.ToLower(t)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.Region != "" && !strings.Contains(strings.ToLower(rec.Region), strings.ToLower(f.Region)) {
		return false
	}
	return true
}

// Incidents returns the snapshot's accepted records that match f, in load
// order.
func (s *Snapshot) Incidents(f IncidentFilter) []IncidentRecord {
	out := make([]IncidentRecord, 0)
	for _, rec := range s.records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Filter aggregates the records matching f into a new snapshot for the same
// period. A zero filter returns s.
func (s *Snapshot) Filter(f IncidentFilter) *Snapshot {
	if f.IsZero() {
		return s
	}
	return Build(s.Incidents(f), s.Period)
}
