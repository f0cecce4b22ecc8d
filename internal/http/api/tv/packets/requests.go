package packets

import "time"

// REQUESTS FOR /api/tv/pair
type PairRequest struct {
	PairingCode  string `json:"code" binding:"required"`
	DeviceID     string `json:"device_id" binding:"required"`
	ClientWidth  *int   `json:"client_width" binding:"omitempty,min=1"`
	ClientHeight *int   `json:"client_height" binding:"omitempty,min=1"`
}

// REQUESTS FOR /api/tv/audience
type AudienceRequest struct {
	DeviceID     string        `json:"device_id" binding:"required"`
	PeopleCount  int           `json:"people_count" binding:"min=0"`
	MaleCount    int           `json:"male_count" binding:"min=0"`
	FemaleCount  int           `json:"female_count" binding:"min=0"`
	AvgAge       float64       `json:"avg_age" binding:"min=0"`
	DwellSeconds int           `json:"dwell_seconds" binding:"min=0"`
	CapturedAt   *time.Time    `json:"captured_at"`
	Faces        []FaceRequest `json:"faces" binding:"dive"`
}

// one tracked person; person_id must be stable across frames
type FaceRequest struct {
	PersonID     string     `json:"person_id" binding:"required"`
	Age          *int       `json:"age" binding:"omitempty,min=0"`
	Gender       *string    `json:"gender"`
	DwellSeconds int        `json:"dwell_seconds" binding:"min=0"`
	DetectedAt   *time.Time `json:"detected_at"`
}
