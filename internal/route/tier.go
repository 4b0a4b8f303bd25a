package route

// Tier is a risk band for a normalized route score.
type Tier struct {
	Name  string
	Color string
	Max   int // inclusive upper bound; the last tier has no bound
}

// Tiers are ordered from lowest to highest risk.
var Tiers = []Tier{
	{Name: "low", Color: "#2ecc71", Max: 50},
	{Name: "moderate", Color: "#f1c40f", Max: 150},
	{Name: "high", Color: "#e67e22", Max: 300},
	{Name: "severe", Color: "#e74c3c"},
}

// TierFor maps a score to its tier.
func TierFor(score int) Tier {
	for _, t := range Tiers[:len(Tiers)-1] {
		if score <= t.Max {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}
