package model

import "time"

const (
	ScreenStatusPending = "pending"
	ScreenStatusPaired  = "paired"
)

// Screen represents a display device in the system.
type Screen struct {
	ID             int       `db:"id"               json:"id"`
	Name           string    `db:"name"             json:"name"`
	Area           *string   `db:"area"             json:"area"`
	City           *string   `db:"city"             json:"city"`
	PairingCode    *string   `db:"pairing_code"     json:"pairing_code"`
	Status         string    `db:"status"           json:"status"`
	DefaultMediaID *int      `db:"default_media_id" json:"default_media_id"`
	DeviceID       *string   `db:"device_id"        json:"device_id"`
	ClientWidth    *int      `db:"client_width"     json:"client_width"`
	ClientHeight   *int      `db:"client_height"    json:"client_height"`
	CreatedBy      int       `db:"created_by"       json:"created_by"`
	CreatedAt      time.Time `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"       json:"updated_at"`
}

func (s Screen) Paired() bool {
	return s.Status == ScreenStatusPaired
}

// Orientation derives landscape/portrait from the dimensions the client reported
// when it paired. Empty when unknown.
func (s Screen) Orientation() string {
	if s.ClientWidth == nil || s.ClientHeight == nil || *s.ClientWidth <= 0 || *s.ClientHeight <= 0 {
		return ""
	}
	if *s.ClientHeight > *s.ClientWidth {
		return OrientationPortrait
	}
	return OrientationLandscape
}
