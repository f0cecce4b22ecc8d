package db

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

const assignmentColumns = `id, screen_id, media_id, duration, gender, age_group, orientation,
	schedule_start_date, schedule_end_date,
	to_char(daily_start_time, 'HH24:MI:SS') AS daily_start_time,
	to_char(daily_end_time, 'HH24:MI:SS') AS daily_end_time,
	days_of_week, created_at, updated_at`

const upsertAssignmentQuery = `
	INSERT INTO screens_media
	(screen_id, media_id, duration, gender, age_group, orientation,
	 schedule_start_date, schedule_end_date, daily_start_time, daily_end_time, days_of_week,
	 created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
	ON CONFLICT (screen_id, media_id) DO UPDATE SET
	duration = EXCLUDED.duration,
	gender = EXCLUDED.gender,
	age_group = EXCLUDED.age_group,
	orientation = EXCLUDED.orientation,
	schedule_start_date = EXCLUDED.schedule_start_date,
	schedule_end_date = EXCLUDED.schedule_end_date,
	daily_start_time = EXCLUDED.daily_start_time,
	daily_end_time = EXCLUDED.daily_end_time,
	days_of_week = EXCLUDED.days_of_week,
	updated_at = now()`

func assignmentArgs(screenID, mediaID int, t model.Targeting) []interface{} {
	return []interface{}{
		screenID,
		mediaID,
		t.Duration,
		t.Gender,
		t.AgeGroup,
		t.Orientation,
		t.ScheduleStartDate,
		t.ScheduleEndDate,
		t.DailyStartTime,
		t.DailyEndTime,
		t.DaysOfWeek,
	}
}

func (s *pgStore) UpsertAssignment(screenID, mediaID int, t model.Targeting) (model.Assignment, error) {
	var a model.Assignment
	err := s.db.Get(&a, upsertAssignmentQuery+` RETURNING `+assignmentColumns+`;`, assignmentArgs(screenID, mediaID, t)...)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Int("media_id", mediaID).Msg("failed to upsert assignment")
		return model.Assignment{}, err
	}
	return a, nil
}

type assignmentRow struct {
	model.Assignment
	MediaName     string  `db:"m_name"`
	MediaURL      string  `db:"m_url"`
	MediaThumb    *string `db:"m_thumbnail_url"`
	MediaType     string  `db:"m_type"`
	MediaMime     string  `db:"m_mime_type"`
	MediaSize     int64   `db:"m_size_bytes"`
	MediaDuration *int    `db:"m_duration_seconds"`
	MediaFolderID *int    `db:"m_folder_id"`
	MediaOwner    int     `db:"m_created_by"`
}

// ListAssignmentsForScreen returns the screen's assignments in creation order,
// each with its media attached.
func (s *pgStore) ListAssignmentsForScreen(screenID int) ([]model.Assignment, error) {
	rows := []assignmentRow{}
	err := s.db.Select(&rows, `
		SELECT
		sm.id, sm.screen_id, sm.media_id, sm.duration, sm.gender, sm.age_group, sm.orientation,
		sm.schedule_start_date, sm.schedule_end_date,
		to_char(sm.daily_start_time, 'HH24:MI:SS') AS daily_start_time,
		to_char(sm.daily_end_time, 'HH24:MI:SS') AS daily_end_time,
		sm.days_of_week, sm.created_at, sm.updated_at,
		m.name AS m_name, m.url AS m_url, m.thumbnail_url AS m_thumbnail_url,
		m.type AS m_type, m.mime_type AS m_mime_type, m.size_bytes AS m_size_bytes,
		m.duration_seconds AS m_duration_seconds, m.folder_id AS m_folder_id,
		m.created_by AS m_created_by
		FROM screens_media sm
		JOIN media m ON m.id = sm.media_id
		WHERE sm.screen_id = $1
		ORDER BY sm.id;`, screenID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to list assignments")
		return nil, err
	}

	out := make([]model.Assignment, 0, len(rows))
	for _, r := range rows {
		a := r.Assignment
		a.Media = &model.MediaItem{
			ID:              a.MediaID,
			Name:            r.MediaName,
			URL:             r.MediaURL,
			ThumbnailURL:    r.MediaThumb,
			Type:            r.MediaType,
			MimeType:        r.MediaMime,
			SizeBytes:       r.MediaSize,
			DurationSeconds: r.MediaDuration,
			FolderID:        r.MediaFolderID,
			CreatedBy:       r.MediaOwner,
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *pgStore) DeleteAssignment(screenID, mediaID int) error {
	_, err := s.db.Exec(`DELETE FROM screens_media WHERE screen_id = $1 AND media_id = $2;`, screenID, mediaID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Int("media_id", mediaID).Msg("failed to delete assignment")
	}
	return err
}
