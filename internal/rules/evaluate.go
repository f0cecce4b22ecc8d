package rules

import (
	"math"
	"sort"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

// Evaluate picks the rule that should override playback on screenID for the
// given audience. Inactive rules and rules scoped to other screens are skipped.
// Rules are tried by priority (highest first); at equal priority a rule scoped
// to the screen beats a global one, then the older rule (lower id) wins.
// ok is false when nothing matches.
func Evaluate(screenID int, snap model.AudienceSnapshot, candidates []model.Rule) (winner model.Rule, ok bool) {
	for _, r := range Order(screenID, candidates) {
		if Matches(r, snap) {
			return r, true
		}
	}
	return model.Rule{}, false
}

// Order returns the applicable rules for screenID in evaluation order. The
// input slice is not modified.
func Order(screenID int, candidates []model.Rule) []model.Rule {
	ordered := make([]model.Rule, 0, len(candidates))
	for _, r := range candidates {
		if !r.IsActive {
			continue
		}
		if r.ScreenID != nil && *r.ScreenID != screenID {
			continue
		}
		ordered = append(ordered, r)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Global() != b.Global() {
			return !a.Global()
		}
		return a.ID < b.ID
	})
	return ordered
}

// Matches reports whether every bound the rule specifies holds for snap.
func Matches(r model.Rule, snap model.AudienceSnapshot) bool {
	return within(snap.PeopleCount, r.MinPeople, r.MaxPeople) &&
		within(snap.MaleCount, r.MinMales, r.MaxMales) &&
		within(snap.FemaleCount, r.MinFemales, r.MaxFemales) &&
		within(RoundAge(snap.AvgAge), r.MinAvgAge, r.MaxAvgAge) &&
		within(snap.DwellSeconds, r.MinDwell, r.MaxDwell)
}

// RoundAge converts a fractional average age to the integer rules compare
// against. Out-of-range values saturate at the int32 limits, as bounds do.
func RoundAge(age float64) int {
	if math.IsNaN(age) {
		return 0
	}
	r := math.Round(age)
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	if r < math.MinInt32 {
		return math.MinInt32
	}
	return int(r)
}

func within(v int, min, max *int) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
