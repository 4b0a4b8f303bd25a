package crime

// NoPeak is the peak slot label for a region without any hour data.
const NoPeak = "N/A"

// TimeSlot is a named, inclusive range of hours.
type TimeSlot struct {
	Label string
	Start int
	End   int
}

// TimeSlots enumerates the fixed buckets used to derive a peak time slot.
// Earlier entries win ties.
var TimeSlots = []TimeSlot{
	{Label: "Late Night", Start: 0, End: 3},
	{Label: "Early Morning", Start: 4, End: 7},
	{Label: "Morning", Start: 8, End: 11},
	{Label: "Afternoon", Start: 12, End: 16},
	{Label: "Evening", Start: 17, End: 20},
	{Label: "Night", Start: 21, End: 23},
}

// peakTimeSlot returns the label of the slot with the highest summed count.
func peakTimeSlot(hist map[int]int) string {
	if len(hist) == 0 {
		return NoPeak
	}
	best, bestSum := "", -1
	for _, slot := range TimeSlots {
		sum := 0
		for h := slot.Start; h <= slot.End; h++ {
			sum += hist[h]
		}
		if sum > bestSum {
			best, bestSum = slot.Label, sum
		}
	}
	return best
}

// WindowHours lists the hours in the inclusive window start..end, walking
// forward and wrapping past midnight when end < start.
func WindowHours(start, end int) []int {
	hours := make([]int, 0, 24)
	h := start
	for {
		hours = append(hours, h)
		if h == end || len(hours) == 24 {
			return hours
		}
		h = (h + 1) % 24
	}
}
