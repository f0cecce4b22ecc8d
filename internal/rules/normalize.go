package rules

import "github.com/Nixie-Tech-LLC/vantage/internal/model"

// DefaultPriority is assigned to rules submitted without one.
const DefaultPriority = 100

// Input is a rule as submitted by an operator, before normalization.
type Input struct {
	Name          string
	Description   *string
	Priority      Bound
	ScreenID      *int
	MinPeople     Bound
	MaxPeople     Bound
	MinMales      Bound
	MaxMales      Bound
	MinFemales    Bound
	MaxFemales    Bound
	MinAvgAge     Bound
	MaxAvgAge     Bound
	MinDwell      Bound
	MaxDwell      Bound
	IsActive      bool
	OutputMediaID int
}

// NormalizeRange clamps both sides to floor and swaps them when inverted, so
// that min <= max whenever both are set.
func NormalizeRange(min, max *int, floor int) (*int, *int) {
	lo := clamp(min, floor)
	hi := clamp(max, floor)
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func clamp(v *int, floor int) *int {
	if v == nil {
		return nil
	}
	out := *v
	if out < floor {
		out = floor
	}
	return &out
}

// NormalizePriority applies the default and the non-negative floor.
func NormalizePriority(p *int) int {
	if p == nil {
		return DefaultPriority
	}
	if *p < 0 {
		return 0
	}
	return *p
}

// Normalize turns operator input into a storable rule.
func Normalize(in Input) model.Rule {
	r := model.Rule{
		Name:          in.Name,
		Description:   in.Description,
		Priority:      NormalizePriority(in.Priority.Value),
		ScreenID:      in.ScreenID,
		IsActive:      in.IsActive,
		OutputMediaID: in.OutputMediaID,
	}
	r.MinPeople, r.MaxPeople = NormalizeRange(in.MinPeople.Value, in.MaxPeople.Value, 0)
	r.MinMales, r.MaxMales = NormalizeRange(in.MinMales.Value, in.MaxMales.Value, 0)
	r.MinFemales, r.MaxFemales = NormalizeRange(in.MinFemales.Value, in.MaxFemales.Value, 0)
	r.MinAvgAge, r.MaxAvgAge = NormalizeRange(in.MinAvgAge.Value, in.MaxAvgAge.Value, 0)
	r.MinDwell, r.MaxDwell = NormalizeRange(in.MinDwell.Value, in.MaxDwell.Value, 0)
	return r
}

// NormalizeRule re-applies the write-time invariants to a rule that is already
// a model value. Running it on a normalized rule changes nothing.
func NormalizeRule(r model.Rule) model.Rule {
	p := r.Priority
	r.Priority = NormalizePriority(&p)
	r.MinPeople, r.MaxPeople = NormalizeRange(r.MinPeople, r.MaxPeople, 0)
	r.MinMales, r.MaxMales = NormalizeRange(r.MinMales, r.MaxMales, 0)
	r.MinFemales, r.MaxFemales = NormalizeRange(r.MinFemales, r.MaxFemales, 0)
	r.MinAvgAge, r.MaxAvgAge = NormalizeRange(r.MinAvgAge, r.MaxAvgAge, 0)
	r.MinDwell, r.MaxDwell = NormalizeRange(r.MinDwell, r.MaxDwell, 0)
	return r
}
