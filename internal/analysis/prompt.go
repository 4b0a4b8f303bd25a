package analysis

import (
	"fmt"
	"strings"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/route"
)

const systemPrompt = `You are a public safety analyst for a city police open-data portal.
You receive aggregated incident counts for neighbourhoods and routes.
Write a short, factual briefing for a resident: the dominant incident
categories, the riskiest times of day, and one or two practical precautions.
Do not speculate beyond the numbers given. Do not mention individuals.
Keep it under 150 words.`

// RegionPrompt describes one region's aggregate for a period.
func RegionPrompt(name, period string, agg *crime.RegionAggregate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Neighbourhood: %s\nPeriod: %s\n", name, period)
	if agg == nil || agg.Counts.All == 0 {
		b.WriteString("No incidents were recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Total incidents: %d\n", agg.Counts.All)
	b.WriteString("By category:\n")
	for _, cat := range crime.Categories {
		if n := agg.Counts.Get(cat); n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", cat, n)
		}
	}

	if len(agg.TopHours) > 0 {
		b.WriteString("Busiest hours:")
		for _, h := range agg.TopHours {
			fmt.Fprintf(&b, " %02d:00 (%d)", h.Hour, h.Count)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Peak time slot: %s\n", agg.PeakTimeSlot)
	return b.String()
}

// RoutePrompt describes a scored route and any safer alternative.
func RoutePrompt(q route.Query, res *route.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route from (%.5f, %.5f) to (%.5f, %.5f)\nPeriod: %s\nCategory: %s\n",
		q.Start.Lat, q.Start.Lng, q.End.Lat, q.End.Lng, q.Period, q.Category)
	if q.Window != nil {
		fmt.Fprintf(&b, "Travel window: %02d:00 to %02d:59\n", q.Window.Start, q.Window.End)
	}
	if res == nil || res.NoData {
		b.WriteString("No incident data is available for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Incidents along the route: %d\nRisk score: %d (%s)\n", res.Total, res.Score, res.Tier)
	fmt.Fprintf(&b, "Neighbourhoods crossed: %s\n", strings.Join(res.Regions, ", "))
	if len(res.Worst) > 0 {
		b.WriteString("Highest-incident neighbourhoods:\n")
		for _, w := range res.Worst {
			fmt.Fprintf(&b, "- %s: %d\n", w.Region, w.Count)
		}
	}
	for _, alt := range res.Alternatives {
		fmt.Fprintf(&b, "Alternative via (%.5f, %.5f): %d incidents, score %d (%s), crossing %s\n",
			alt.Waypoint.Lat, alt.Waypoint.Lng, alt.Total, alt.Score, alt.Tier, strings.Join(alt.Regions, ", "))
	}
	return b.String()
}
