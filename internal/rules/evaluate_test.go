package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

func rule(id, priority, output int) model.Rule {
	return model.Rule{ID: id, Priority: priority, IsActive: true, OutputMediaID: output}
}

func TestEvaluateUnconstrainedRuleMatchesEverything(t *testing.T) {
	blanket := rule(1, 10, 99)
	snaps := []model.AudienceSnapshot{
		{},
		{PeopleCount: 1000, MaleCount: 600, FemaleCount: 400, AvgAge: 88.6, DwellSeconds: 3600},
		{PeopleCount: 3, AvgAge: 0.2},
	}
	for _, snap := range snaps {
		got, ok := Evaluate(5, snap, []model.Rule{blanket})
		assert.True(t, ok)
		assert.Equal(t, 99, got.OutputMediaID)
	}
}

func TestEvaluatePeopleRangeScenarios(t *testing.T) {
	r := rule(1, 10, 0)
	r.MinPeople, r.MaxPeople = ptr(2), ptr(5)
	r.OutputMediaID = 11

	got, ok := Evaluate(1, model.AudienceSnapshot{PeopleCount: 3}, []model.Rule{r})
	assert.True(t, ok)
	assert.Equal(t, 11, got.OutputMediaID)

	_, ok = Evaluate(1, model.AudienceSnapshot{PeopleCount: 7}, []model.Rule{r})
	assert.False(t, ok)

	// bounds are inclusive
	_, ok = Evaluate(1, model.AudienceSnapshot{PeopleCount: 2}, []model.Rule{r})
	assert.True(t, ok)
	_, ok = Evaluate(1, model.AudienceSnapshot{PeopleCount: 5}, []model.Rule{r})
	assert.True(t, ok)
}

func TestEvaluateMaxOnlyHasNoLowerBound(t *testing.T) {
	r := rule(1, 10, 4)
	r.MaxDwell = ptr(15)

	_, ok := Evaluate(1, model.AudienceSnapshot{DwellSeconds: 0}, []model.Rule{r})
	assert.True(t, ok)
	_, ok = Evaluate(1, model.AudienceSnapshot{DwellSeconds: 16}, []model.Rule{r})
	assert.False(t, ok)
}

func TestEvaluateHigherPriorityWins(t *testing.T) {
	low := rule(1, 50, 1)
	high := rule(2, 90, 2)

	got, ok := Evaluate(1, model.AudienceSnapshot{PeopleCount: 4}, []model.Rule{low, high})
	assert.True(t, ok)
	assert.Equal(t, 2, got.OutputMediaID)
}

func TestEvaluateShortCircuitsOnFirstMatch(t *testing.T) {
	high := rule(1, 90, 1)
	high.MinPeople = ptr(10)
	mid := rule(2, 60, 2)
	low := rule(3, 10, 3)

	got, ok := Evaluate(1, model.AudienceSnapshot{PeopleCount: 4}, []model.Rule{low, high, mid})
	assert.True(t, ok)
	assert.Equal(t, 2, got.ID)
}

func TestEvaluateScopedBeatsGlobalAtEqualPriority(t *testing.T) {
	global := rule(1, 70, 100)
	scoped := rule(2, 70, 200)
	scoped.ScreenID = ptr(8)

	got, ok := Evaluate(8, model.AudienceSnapshot{}, []model.Rule{global, scoped})
	assert.True(t, ok)
	assert.Equal(t, 200, got.OutputMediaID)

	got, ok = Evaluate(8, model.AudienceSnapshot{}, []model.Rule{scoped, global})
	assert.True(t, ok)
	assert.Equal(t, 200, got.OutputMediaID)
}

func TestEvaluateTieBreaksOnLowerID(t *testing.T) {
	a := rule(9, 70, 9)
	b := rule(4, 70, 4)

	got, _ := Evaluate(1, model.AudienceSnapshot{}, []model.Rule{a, b})
	assert.Equal(t, 4, got.ID)
}

func TestEvaluateSkipsInactiveAndForeignScope(t *testing.T) {
	inactive := rule(1, 99, 1)
	inactive.IsActive = false
	foreign := rule(2, 98, 2)
	foreign.ScreenID = ptr(42)

	_, ok := Evaluate(7, model.AudienceSnapshot{}, []model.Rule{inactive, foreign})
	assert.False(t, ok)
}

func TestEvaluateNoRules(t *testing.T) {
	_, ok := Evaluate(1, model.AudienceSnapshot{PeopleCount: 2}, nil)
	assert.False(t, ok)
}

func TestEvaluateAllDimensions(t *testing.T) {
	r := rule(1, 10, 5)
	r.MinPeople, r.MaxPeople = ptr(2), ptr(10)
	r.MinMales = ptr(1)
	r.MaxFemales = ptr(3)
	r.MinAvgAge, r.MaxAvgAge = ptr(25), ptr(35)
	r.MinDwell = ptr(5)

	snap := model.AudienceSnapshot{PeopleCount: 4, MaleCount: 2, FemaleCount: 2, AvgAge: 34.6, DwellSeconds: 8}
	// 34.6 rounds to 35, still inside
	_, ok := Evaluate(1, snap, []model.Rule{r})
	assert.True(t, ok)

	snap.AvgAge = 35.5
	_, ok = Evaluate(1, snap, []model.Rule{r})
	assert.False(t, ok)

	snap.AvgAge = 30
	snap.FemaleCount = 4
	_, ok = Evaluate(1, snap, []model.Rule{r})
	assert.False(t, ok)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	rs := []model.Rule{rule(3, 10, 3), rule(1, 10, 1), rule(2, 10, 2)}
	first, _ := Evaluate(1, model.AudienceSnapshot{}, rs)
	for i := 0; i < 20; i++ {
		again, _ := Evaluate(1, model.AudienceSnapshot{}, rs)
		assert.Equal(t, first.ID, again.ID)
	}
	// the caller's slice keeps its order
	assert.Equal(t, 3, rs[0].ID)
}

func TestRoundAge(t *testing.T) {
	assert.Equal(t, 30, RoundAge(29.5))
	assert.Equal(t, 29, RoundAge(29.49))
	assert.Equal(t, 0, RoundAge(0))
	assert.Equal(t, math.MaxInt32, RoundAge(1e300))
	assert.Equal(t, math.MaxInt32, RoundAge(math.Inf(1)))
	assert.Equal(t, math.MinInt32, RoundAge(-1e300))
}

func TestEvaluateHugeAverageAgeDoesNotMatchMaxAge(t *testing.T) {
	kids := model.Rule{ID: 1, Name: "kids", IsActive: true, MaxAvgAge: ptr(17), OutputMediaID: 5}
	seniors := model.Rule{ID: 2, Name: "seniors", IsActive: true, MinAvgAge: ptr(65), OutputMediaID: 6}

	winner, ok := Evaluate(1, model.AudienceSnapshot{ScreenID: 1, PeopleCount: 1, AvgAge: 1e300}, []model.Rule{kids, seniors})
	require.True(t, ok)
	assert.Equal(t, "seniors", winner.Name)

	_, ok = Evaluate(1, model.AudienceSnapshot{ScreenID: 1, PeopleCount: 1, AvgAge: 1e300}, []model.Rule{kids})
	assert.False(t, ok)
}
