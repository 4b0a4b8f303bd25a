// Package crime categorizes incident records and aggregates them into
// per-region statistics for a reporting period.
package crime

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
)

// Category is one of the fixed incident classes used for aggregation and filtering.
type Category string

// Incident categories. CategoryAll is only valid as a filter.
const (
	CategoryAll         Category = "all"
	CategoryCommercial  Category = "commercial"
	CategoryResidential Category = "residential"
	CategoryTheft       Category = "theft"
	CategoryVehicle     Category = "vehicle"
	CategoryPerson      Category = "person"
	CategoryMischief    Category = "mischief"
	CategoryOther       Category = "other"
)

// Categories lists the seven incident categories in reporting order.
var Categories = []Category{
	CategoryCommercial,
	CategoryResidential,
	CategoryTheft,
	CategoryVehicle,
	CategoryPerson,
	CategoryMischief,
	CategoryOther,
}

type rule struct {
	match    func(label string) bool
	category Category
}

func prefix(p string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, p) }
}

func contains(sub string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, sub) }
}

func equals(v string) func(string) bool {
	return func(s string) bool { return s == v }
}

func anyOf(fns ...func(string) bool) func(string) bool {
	return func(s string) bool {
		for _, fn := range fns {
			if fn(s) {
				return true
			}
		}
		return false
	}
}

// rules are evaluated top to bottom and the first match wins. Order matters:
// "Theft from Vehicle" must not fall into theft, and "Mischief" labels that
// also mention violence belong to person.
var rules = []rule{
	{prefix("Break and Enter Commercial"), CategoryCommercial},
	{prefix("Break and Enter Residential"), CategoryResidential},
	{anyOf(prefix("Theft of Vehicle"), prefix("Theft of Bicycle"), equals("Other Theft")), CategoryTheft},
	{prefix("Theft from Vehicle"), CategoryVehicle},
	{anyOf(prefix("Homicide"), prefix("Assault"), contains("Violence")), CategoryPerson},
	{contains("Mischief"), CategoryMischief},
}

// Categorize maps a raw incident-type label to its category. It is total:
// empty or unrecognized labels map to CategoryOther.
func Categorize(label string) Category {
	for _, r := range rules {
		if r.match(label) {
			return r.category
		}
	}
	return CategoryOther
}

// FoldKey returns the case-folded form of s used for case-insensitive lookups.
// A Caser holds state, so each call gets its own.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// ParseCategory resolves a filter name ("all" or one of Categories),
// ignoring case and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	key := FoldKey(s)
	if key == "" || key == string(CategoryAll) {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if key == string(c) {
			return c, nil
		}
	}
	return "", eris.Errorf("crime: unknown category %q", s)
}

// Valid reports whether c is a category or CategoryAll.
func (c Category) Valid() bool {
	if c == CategoryAll {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
