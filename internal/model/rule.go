package model

import "time"

// Rule is a prioritized audience override. A nil ScreenID means the rule applies
// to every screen of its owner. Nil bounds are unconstrained.
type Rule struct {
	ID            int       `db:"id"              json:"id"`
	Name          string    `db:"name"            json:"name"`
	Description   *string   `db:"description"     json:"description"`
	Priority      int       `db:"priority"        json:"priority"`
	ScreenID      *int      `db:"screen_id"       json:"screen_id"`
	MinPeople     *int      `db:"min_people"      json:"min_people"`
	MaxPeople     *int      `db:"max_people"      json:"max_people"`
	MinMales      *int      `db:"min_males"       json:"min_males"`
	MaxMales      *int      `db:"max_males"       json:"max_males"`
	MinFemales    *int      `db:"min_females"     json:"min_females"`
	MaxFemales    *int      `db:"max_females"     json:"max_females"`
	MinAvgAge     *int      `db:"min_avg_age"     json:"min_avg_age"`
	MaxAvgAge     *int      `db:"max_avg_age"     json:"max_avg_age"`
	MinDwell      *int      `db:"min_dwell"       json:"min_dwell_seconds"`
	MaxDwell      *int      `db:"max_dwell"       json:"max_dwell_seconds"`
	IsActive      bool      `db:"is_active"       json:"is_active"`
	OutputMediaID int       `db:"output_media_id" json:"output_media_id"`
	CreatedBy     int       `db:"created_by"      json:"created_by"`
	CreatedAt     time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"      json:"updated_at"`
}

func (r Rule) Global() bool {
	return r.ScreenID == nil
}
