package region

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParsePoint parses "lat,lng". The result is not range checked.
func ParsePoint(s string) (Point, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, eris.Errorf("region: expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Point{}, eris.Errorf("region: bad latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Point{}, eris.Errorf("region: bad longitude %q", lngStr)
	}
	return Point{Lat: lat, Lng: lng}, nil
}
