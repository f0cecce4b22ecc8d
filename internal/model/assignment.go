package model

import "time"

const (
	GenderAll    = "All"
	GenderMale   = "Male"
	GenderFemale = "Female"

	AgeGroupAll = "All"

	OrientationAny       = "any"
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"

	// DefaultDurationSeconds applies when neither the assignment nor the media
	// carries a duration (still images).
	DefaultDurationSeconds = 10
)

// AllDays is the days_of_week value new assignments get when none is supplied.
const AllDays = "Mon,Tue,Wed,Thu,Fri,Sat,Sun"

// Assignment binds one media item to one screen. (screen_id, media_id) is unique.
type Assignment struct {
	ID                int        `db:"id"                  json:"id"`
	ScreenID          int        `db:"screen_id"           json:"screen_id"`
	MediaID           int        `db:"media_id"            json:"media_id"`
	Duration          *int       `db:"duration"            json:"duration"`
	Gender            string     `db:"gender"              json:"gender"`
	AgeGroup          string     `db:"age_group"           json:"age_group"`
	Orientation       string     `db:"orientation"         json:"orientation"`
	ScheduleStartDate *time.Time `db:"schedule_start_date" json:"schedule_start_date"`
	ScheduleEndDate   *time.Time `db:"schedule_end_date"   json:"schedule_end_date"`
	DailyStartTime    *string    `db:"daily_start_time"    json:"daily_start_time"`
	DailyEndTime      *string    `db:"daily_end_time"      json:"daily_end_time"`
	DaysOfWeek        string     `db:"days_of_week"        json:"days_of_week"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"          json:"updated_at"`

	// joined from media
	Media *MediaItem `db:"-" json:"media,omitempty"`
}

// Targeting carries the assignment attributes shared by single upserts and
// bulk folder assignment.
type Targeting struct {
	Duration          *int
	Gender            string
	AgeGroup          string
	Orientation       string
	ScheduleStartDate *time.Time
	ScheduleEndDate   *time.Time
	DailyStartTime    *string
	DailyEndTime      *string
	DaysOfWeek        string
}

// EffectiveDuration resolves the seconds a rotation slot lasts.
func (a Assignment) EffectiveDuration() int {
	if a.Duration != nil && *a.Duration > 0 {
		return *a.Duration
	}
	if a.Media != nil && a.Media.DurationSeconds != nil && *a.Media.DurationSeconds > 0 {
		return *a.Media.DurationSeconds
	}
	return DefaultDurationSeconds
}
