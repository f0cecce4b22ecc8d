package model

import "time"

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaItem is an uploaded image or video. Only the folder can change after upload.
type MediaItem struct {
	ID              int       `db:"id"               json:"id"`
	Name            string    `db:"name"             json:"name"`
	URL             string    `db:"url"              json:"url"`
	ThumbnailURL    *string   `db:"thumbnail_url"    json:"thumbnail_url"`
	Type            string    `db:"type"             json:"type"`
	MimeType        string    `db:"mime_type"        json:"mime_type"`
	SizeBytes       int64     `db:"size_bytes"       json:"size_bytes"`
	DurationSeconds *int      `db:"duration_seconds" json:"duration_seconds"`
	FolderID        *int      `db:"folder_id"        json:"folder_id"`
	CreatedBy       int       `db:"created_by"       json:"created_by"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"       json:"updated_at"`
}

type Folder struct {
	ID        int       `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
