// Package schedule decides whether a screen assignment is inside its
// recurring window and whether it suits the current audience.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/rules"
)

var (
	ErrEmptyWindow   = errors.New("daily start and end time must differ")
	ErrInvalidTime   = errors.New("time must be formatted as HH:MM")
	ErrInvalidDay    = errors.New("unknown day of week")
	ErrInvalidDates  = errors.New("schedule end date is before start date")
	ErrPartialWindow = errors.New("daily start and end time must be set together")
)

var dayAbbrev = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// dayByName accepts a full lower-case weekday name ("wednesday").
func dayByName(key string) (time.Weekday, bool) {
	for _, d := range dayAbbrev {
		if strings.ToLower(d.String()) == key {
			return d, true
		}
	}
	return 0, false
}

// IsActive reports whether the assignment's schedule covers now. Stored dates
// are calendar days and compare against now's local date. A daily window is half-open [start, end);
// when end is earlier than start the window runs past midnight. Days are
// matched on now's weekday, and an empty day set never plays.
func IsActive(a model.Assignment, now time.Time) bool {
	today := dateOf(now)
	if a.ScheduleStartDate != nil && today.Before(dateOf(*a.ScheduleStartDate)) {
		return false
	}
	if a.ScheduleEndDate != nil && today.After(dateOf(*a.ScheduleEndDate)) {
		return false
	}

	if a.DailyStartTime != nil && a.DailyEndTime != nil {
		if !inWindow(*a.DailyStartTime, *a.DailyEndTime, now) {
			return false
		}
	}

	days, err := ParseDays(a.DaysOfWeek)
	if err != nil {
		return false
	}
	return days[now.Weekday()]
}

func inWindow(startRaw, endRaw string, now time.Time) bool {
	start, err := ParseClock(startRaw)
	if err != nil {
		return false
	}
	end, err := ParseClock(endRaw)
	if err != nil {
		return false
	}
	t := now.Hour()*60 + now.Minute()

	switch {
	case start < end:
		return t >= start && t < end
	case start > end:
		return t >= start || t < end
	default:
		return false
	}
}

// ParseClock returns minutes since midnight for "HH:MM" or "HH:MM:SS".
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
}

// ParseDays reads a comma-separated set like "Mon,Wed". Empty input yields an
// empty set.
func ParseDays(raw string) (map[time.Weekday]bool, error) {
	out := make(map[time.Weekday]bool, 7)
	for _, part := range strings.Split(raw, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		day, ok := dayAbbrev[key]
		if !ok {
			day, ok = dayByName(key)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDay, part)
		}
		out[day] = true
	}
	return out, nil
}

// CanonicalDays validates raw and rewrites it in Mon..Sun order with
// three-letter names. Empty stays empty.
func CanonicalDays(raw string) (string, error) {
	set, err := ParseDays(raw)
	if err != nil {
		return "", err
	}
	order := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
	names := make([]string, 0, len(set))
	for _, d := range order {
		if set[d] {
			names = append(names, d.String()[:3])
		}
	}
	return strings.Join(names, ","), nil
}

// ValidateWindow is the write-time check for a daily window. Windows crossing
// midnight are allowed; identical start and end are not.
func ValidateWindow(start, end *string) error {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		return ErrPartialWindow
	}
	s, err := ParseClock(*start)
	if err != nil {
		return err
	}
	e, err := ParseClock(*end)
	if err != nil {
		return err
	}
	if s == e {
		return ErrEmptyWindow
	}
	return nil
}

// ValidateDates rejects an end date before the start date.
func ValidateDates(start, end *time.Time) error {
	if start != nil && end != nil && dateOf(*end).Before(dateOf(*start)) {
		return ErrInvalidDates
	}
	return nil
}

// MatchesAudience applies the assignment's demographic and orientation filters.
// Demographic filters only apply while someone is watching; orientation only
// when the screen reported its dimensions.
func MatchesAudience(a model.Assignment, snap model.AudienceSnapshot, screenOrientation string) bool {
	if a.Orientation != "" && a.Orientation != model.OrientationAny && screenOrientation != "" &&
		a.Orientation != screenOrientation {
		return false
	}
	if snap.PeopleCount <= 0 {
		return true
	}

	switch a.Gender {
	case model.GenderMale:
		if snap.MaleCount <= snap.FemaleCount {
			return false
		}
	case model.GenderFemale:
		if snap.FemaleCount <= snap.MaleCount {
			return false
		}
	}

	if a.AgeGroup != "" && a.AgeGroup != model.AgeGroupAll {
		if AgeGroupOf(rules.RoundAge(snap.AvgAge)) != a.AgeGroup {
			return false
		}
	}
	return true
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
