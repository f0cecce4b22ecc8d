package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

// ScreenResponse mirrors model.Screen but flattens times to RFC3339
type ScreenResponse struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Area           *string `json:"area"`
	City           *string `json:"city"`
	Status         string  `json:"status"`
	PairingCode    *string `json:"pairing_code"`
	DeviceID       *string `json:"device_id"`
	DefaultMediaID *int    `json:"default_media_id"`
	ClientWidth    *int    `json:"client_width"`
	ClientHeight   *int    `json:"client_height"`
	Orientation    string  `json:"orientation,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func NewScreenResponse(s model.Screen) ScreenResponse {
	return ScreenResponse{
		ID:             s.ID,
		Name:           s.Name,
		Area:           s.Area,
		City:           s.City,
		Status:         s.Status,
		PairingCode:    s.PairingCode,
		DeviceID:       s.DeviceID,
		DefaultMediaID: s.DefaultMediaID,
		ClientWidth:    s.ClientWidth,
		ClientHeight:   s.ClientHeight,
		Orientation:    s.Orientation(),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.Format(time.RFC3339),
	}
}

type MediaResponse struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	ThumbnailURL    *string `json:"thumbnail_url"`
	Type            string  `json:"type"`
	MimeType        string  `json:"mime_type"`
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds *int    `json:"duration_seconds"`
	FolderID        *int    `json:"folder_id"`
	CreatedAt       string  `json:"created_at"`
}

func NewMediaResponse(m model.MediaItem) MediaResponse {
	return MediaResponse{
		ID:              m.ID,
		Name:            m.Name,
		URL:             m.URL,
		ThumbnailURL:    m.ThumbnailURL,
		Type:            m.Type,
		MimeType:        m.MimeType,
		SizeBytes:       m.SizeBytes,
		DurationSeconds: m.DurationSeconds,
		FolderID:        m.FolderID,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
}

type FolderResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewFolderResponse(f model.Folder) FolderResponse {
	return FolderResponse{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
		UpdatedAt: f.UpdatedAt.Format(time.RFC3339),
	}
}

type AssignmentResponse struct {
	ID                int            `json:"id"`
	ScreenID          int            `json:"screen_id"`
	MediaID           int            `json:"media_id"`
	Duration          *int           `json:"duration"`
	EffectiveDuration int            `json:"effective_duration"`
	Gender            string         `json:"gender"`
	AgeGroup          string         `json:"age_group"`
	Orientation       string         `json:"orientation"`
	ScheduleStartDate *string        `json:"schedule_start_date"`
	ScheduleEndDate   *string        `json:"schedule_end_date"`
	DailyStartTime    *string        `json:"daily_start_time"`
	DailyEndTime      *string        `json:"daily_end_time"`
	DaysOfWeek        string         `json:"days_of_week"`
	Media             *MediaResponse `json:"media,omitempty"`
	UpdatedAt         string         `json:"updated_at"`
}

func NewAssignmentResponse(a model.Assignment) AssignmentResponse {
	out := AssignmentResponse{
		ID:                a.ID,
		ScreenID:          a.ScreenID,
		MediaID:           a.MediaID,
		Duration:          a.Duration,
		EffectiveDuration: a.EffectiveDuration(),
		Gender:            a.Gender,
		AgeGroup:          a.AgeGroup,
		Orientation:       a.Orientation,
		ScheduleStartDate: formatDate(a.ScheduleStartDate),
		ScheduleEndDate:   formatDate(a.ScheduleEndDate),
		DailyStartTime:    a.DailyStartTime,
		DailyEndTime:      a.DailyEndTime,
		DaysOfWeek:        a.DaysOfWeek,
		UpdatedAt:         a.UpdatedAt.Format(time.RFC3339),
	}
	if a.Media != nil {
		m := NewMediaResponse(*a.Media)
		out.Media = &m
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type FolderRemovedResponse struct {
	ID              int   `json:"id"`
	UnassignedMedia int64 `json:"unassigned_media"`
}

type FolderAssignedResponse struct {
	FolderID    int `json:"folder_id"`
	ScreenID    int `json:"screen_id"`
	Assignments int `json:"assignments"`
}

type PairingCodeResponse struct {
	ScreenID    int    `json:"screen_id"`
	PairingCode string `json:"pairing_code"`
}

// EvaluateResponse reports the winning rule of a dry run, if any.
type EvaluateResponse struct {
	Matched bool        `json:"matched"`
	Rule    *model.Rule `json:"rule,omitempty"`
	Checked int         `json:"checked"`
}
