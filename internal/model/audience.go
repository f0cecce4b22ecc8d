package model

import "time"

// AudienceSnapshot is an aggregated observation posted by the vision pipeline.
type AudienceSnapshot struct {
	ID           int       `db:"id"            json:"id"`
	ScreenID     int       `db:"screen_id"     json:"screen_id"`
	PeopleCount  int       `db:"people_count"  json:"people_count"`
	MaleCount    int       `db:"male_count"    json:"male_count"`
	FemaleCount  int       `db:"female_count"  json:"female_count"`
	AvgAge       float64   `db:"avg_age"       json:"avg_age"`
	DwellSeconds int       `db:"dwell_seconds" json:"dwell_seconds"`
	CapturedAt   time.Time `db:"captured_at"   json:"captured_at"`
}

// AudienceFace is one tracked person. PersonID is stable across frames and is
// what analytics de-duplicate on.
type AudienceFace struct {
	ID           int       `db:"id"            json:"id"`
	ScreenID     int       `db:"screen_id"     json:"screen_id"`
	PersonID     string    `db:"person_id"     json:"person_id"`
	Age          *int      `db:"age"           json:"age"`
	Gender       *string   `db:"gender"        json:"gender"`
	DwellSeconds int       `db:"dwell_seconds" json:"dwell_seconds"`
	DetectedAt   time.Time `db:"detected_at"   json:"detected_at"`
}

// AudienceSummary aggregates faces over a time range.
type AudienceSummary struct {
	ScreenID        int       `db:"screen_id"         json:"screen_id"`
	From            time.Time `db:"-"                 json:"from"`
	To              time.Time `db:"-"                 json:"to"`
	UniquePeople    int       `db:"unique_people"     json:"unique_people"`
	Males           int       `db:"males"             json:"males"`
	Females         int       `db:"females"           json:"females"`
	AvgAge          *float64  `db:"avg_age"           json:"avg_age"`
	AvgDwellSeconds *float64  `db:"avg_dwell_seconds" json:"avg_dwell_seconds"`
	Snapshots       int       `db:"snapshots"         json:"snapshots"`
}
