package schedule

import "github.com/Nixie-Tech-LLC/vantage/internal/model"

type ageBucket struct {
	Label string
	Min   int
	Max   int // inclusive; -1 is open-ended
}

var ageBuckets = []ageBucket{
	{"0-17", 0, 17},
	{"18-24", 18, 24},
	{"25-34", 25, 34},
	{"35-44", 35, 44},
	{"45-54", 45, 54},
	{"55+", 55, -1},
}

// AgeGroupOf maps an age to its bucket label.
func AgeGroupOf(age int) string {
	for _, b := range ageBuckets {
		if age >= b.Min && (b.Max < 0 || age <= b.Max) {
			return b.Label
		}
	}
	return ageBuckets[0].Label
}

// ValidAgeGroup reports whether label is "All" or a known bucket.
func ValidAgeGroup(label string) bool {
	if label == model.AgeGroupAll {
		return true
	}
	for _, b := range ageBuckets {
		if b.Label == label {
			return true
		}
	}
	return false
}

// AgeGroups lists the bucket labels in ascending order.
func AgeGroups() []string {
	out := make([]string, 0, len(ageBuckets))
	for _, b := range ageBuckets {
		out = append(out, b.Label)
	}
	return out
}
