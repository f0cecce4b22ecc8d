package packets

import (
	"fmt"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/rules"
	"github.com/Nixie-Tech-LLC/vantage/internal/schedule"
)

const dateLayout = "2006-01-02"

type CreateScreenRequest struct {
	Name string  `json:"name" binding:"required"`
	Area *string `json:"area"`
	City *string `json:"city"`
}

type UpdateScreenRequest struct {
	Name *string `json:"name"`
	Area *string `json:"area"`
	City *string `json:"city"`
}

// null clears the default
type SetDefaultMediaRequest struct {
	MediaID *int `json:"media_id"`
}

type MoveMediaRequest struct {
	FolderID *int `json:"folder_id"`
}

type FolderRequest struct {
	Name string `json:"name" binding:"required"`
}

// AssignmentRequest carries the targeting for one screen/media pair. Dates are
// YYYY-MM-DD, times HH:MM or HH:MM:SS, days a comma-separated list of
// three-letter day names.
type AssignmentRequest struct {
	Duration          *int    `json:"duration" binding:"omitempty,min=1"`
	Gender            string  `json:"gender"`
	AgeGroup          string  `json:"age_group"`
	Orientation       string  `json:"orientation"`
	ScheduleStartDate *string `json:"schedule_start_date"`
	ScheduleEndDate   *string `json:"schedule_end_date"`
	DailyStartTime    *string `json:"daily_start_time"`
	DailyEndTime      *string `json:"daily_end_time"`
	DaysOfWeek        *string `json:"days_of_week"`
}

type AssignFolderRequest struct {
	ScreenID int `json:"screen_id" binding:"required"`
	AssignmentRequest
}

// Targeting validates the request and fills defaults.
func (r AssignmentRequest) Targeting() (model.Targeting, error) {
	t := model.Targeting{
		Duration:       r.Duration,
		Gender:         withDefault(r.Gender, model.GenderAll),
		AgeGroup:       withDefault(r.AgeGroup, model.AgeGroupAll),
		Orientation:    strings.ToLower(withDefault(r.Orientation, model.OrientationAny)),
		DailyStartTime: blankToNil(r.DailyStartTime),
		DailyEndTime:   blankToNil(r.DailyEndTime),
		DaysOfWeek:     model.AllDays,
	}

	switch t.Gender {
	case model.GenderAll, model.GenderMale, model.GenderFemale:
	default:
		return t, fmt.Errorf("gender must be All, Male or Female")
	}
	if !schedule.ValidAgeGroup(t.AgeGroup) {
		return t, fmt.Errorf("age_group must be All or one of %s", strings.Join(schedule.AgeGroups(), ", "))
	}
	switch t.Orientation {
	case model.OrientationAny, model.OrientationLandscape, model.OrientationPortrait:
	default:
		return t, fmt.Errorf("orientation must be any, landscape or portrait")
	}

	var err error
	if t.ScheduleStartDate, err = parseDate(r.ScheduleStartDate); err != nil {
		return t, err
	}
	if t.ScheduleEndDate, err = parseDate(r.ScheduleEndDate); err != nil {
		return t, err
	}
	if err := schedule.ValidateDates(t.ScheduleStartDate, t.ScheduleEndDate); err != nil {
		return t, err
	}
	if err := schedule.ValidateWindow(t.DailyStartTime, t.DailyEndTime); err != nil {
		return t, err
	}

	if r.DaysOfWeek != nil {
		days, err := schedule.CanonicalDays(*r.DaysOfWeek)
		if err != nil {
			return t, err
		}
		t.DaysOfWeek = days
	}
	return t, nil
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", *raw)
	}
	return &d, nil
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}

// RuleRequest accepts bounds leniently: numbers, numeric strings, empty
// strings and null all decode; anything unparsable is treated as unset.
type RuleRequest struct {
	Name          string      `json:"name" binding:"required"`
	Description   *string     `json:"description"`
	Priority      rules.Bound `json:"priority"`
	ScreenID      *int        `json:"screen_id"`
	MinPeople     rules.Bound `json:"min_people"`
	MaxPeople     rules.Bound `json:"max_people"`
	MinMales      rules.Bound `json:"min_males"`
	MaxMales      rules.Bound `json:"max_males"`
	MinFemales    rules.Bound `json:"min_females"`
	MaxFemales    rules.Bound `json:"max_females"`
	MinAvgAge     rules.Bound `json:"min_avg_age"`
	MaxAvgAge     rules.Bound `json:"max_avg_age"`
	MinDwell      rules.Bound `json:"min_dwell_seconds"`
	MaxDwell      rules.Bound `json:"max_dwell_seconds"`
	IsActive      *bool       `json:"is_active"`
	OutputMediaID int         `json:"output_media_id" binding:"required"`
}

func (r RuleRequest) Input() rules.Input {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return rules.Input{
		Name:          strings.TrimSpace(r.Name),
		Description:   r.Description,
		Priority:      r.Priority,
		ScreenID:      r.ScreenID,
		MinPeople:     r.MinPeople,
		MaxPeople:     r.MaxPeople,
		MinMales:      r.MinMales,
		MaxMales:      r.MaxMales,
		MinFemales:    r.MinFemales,
		MaxFemales:    r.MaxFemales,
		MinAvgAge:     r.MinAvgAge,
		MaxAvgAge:     r.MaxAvgAge,
		MinDwell:      r.MinDwell,
		MaxDwell:      r.MaxDwell,
		IsActive:      active,
		OutputMediaID: r.OutputMediaID,
	}
}

type SetRuleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// EvaluateRequest is a hypothetical audience for a dry run.
type EvaluateRequest struct {
	PeopleCount  int     `json:"people_count" binding:"min=0"`
	MaleCount    int     `json:"male_count" binding:"min=0"`
	FemaleCount  int     `json:"female_count" binding:"min=0"`
	AvgAge       float64 `json:"avg_age" binding:"min=0"`
	DwellSeconds int     `json:"dwell_seconds" binding:"min=0"`
}
