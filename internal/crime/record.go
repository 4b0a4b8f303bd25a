package crime

import (
	"strings"
	"time"
)

// Hour is an optional hour of day. The zero value means the hour is unknown.
type Hour struct {
	value int
	valid bool
}

// HourOf returns a known hour when h is in [0,23] and an unknown hour otherwise.
func HourOf(h int) Hour {
	if h < 0 || h > 23 {
		return Hour{}
	}
	return Hour{value: h, valid: true}
}

// Get returns the hour and whether it is known.
func (h Hour) Get() (int, bool) {
	return h.value, h.valid
}

// Location is a WGS84 coordinate in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IncidentRecord is a single reported crime event, already resolved at the
// ingestion boundary. Empty strings mean the field was absent.
type IncidentRecord struct {
	Region string
	Type   string
	Hour   Hour
	Period string
	// Date is the report day at midnight UTC, zero when unknown.
	Date time.Time
	// Block is the anonymized hundred-block address.
	Block string
	// Location is nil when the export carries no usable coordinates.
	Location *Location
}

// sentinelRegions are placeholder values seen in exported data in place of a
// real neighbourhood name.
var sentinelRegions = []string{"nan", "null", "none", "n/a"}

// ValidRegion reports whether the record carries a usable region name.
func (r IncidentRecord) ValidRegion() bool {
	name := strings.TrimSpace(r.Region)
	if name == "" {
		return false
	}
	for _, s := range sentinelRegions {
		if strings.EqualFold(name, s) {
			return false
		}
	}
	return true
}

func trimRegion(s string) string {
	return strings.TrimSpace(s)
}
