package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

const snapshotColumns = `id, screen_id, people_count, male_count, female_count,
	avg_age, dwell_seconds, captured_at`

// InsertSnapshot appends a snapshot and its tracked faces atomically.
func (s *pgStore) InsertSnapshot(snap model.AudienceSnapshot, faces []model.AudienceFace) (model.AudienceSnapshot, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return model.AudienceSnapshot{}, err
	}
	defer tx.Rollback()

	var out model.AudienceSnapshot
	err = tx.Get(&out, `
		INSERT INTO audience_snapshots
		(screen_id, people_count, male_count, female_count, avg_age, dwell_seconds, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+snapshotColumns+`;`,
		snap.ScreenID, snap.PeopleCount, snap.MaleCount, snap.FemaleCount,
		snap.AvgAge, snap.DwellSeconds, snap.CapturedAt,
	)
	if err != nil {
		log.Error().Err(err).Int("screen_id", snap.ScreenID).Msg("failed to insert audience snapshot")
		return model.AudienceSnapshot{}, err
	}

	for _, f := range faces {
		if _, err := tx.Exec(`
			INSERT INTO audience_faces (screen_id, person_id, age, gender, dwell_seconds, detected_at)
			VALUES ($1, $2, $3, $4, $5, $6);`,
			snap.ScreenID, f.PersonID, f.Age, f.Gender, f.DwellSeconds, f.DetectedAt,
		); err != nil {
			log.Error().Err(err).
				Int("screen_id", snap.ScreenID).
				Str("person_id", f.PersonID).
				Msg("failed to insert audience face")
			return model.AudienceSnapshot{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.AudienceSnapshot{}, err
	}
	return out, nil
}

func (s *pgStore) GetLatestSnapshot(screenID int) (model.AudienceSnapshot, error) {
	var snap model.AudienceSnapshot
	err := s.db.Get(&snap, `
		SELECT `+snapshotColumns+`
		FROM audience_snapshots
		WHERE screen_id = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT 1;`, screenID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to get latest snapshot")
	}
	return snap, err
}

// AggregateAudience summarizes the faces seen in [from, to). People are
// de-duplicated by person_id; a person's latest reported gender wins.
func (s *pgStore) AggregateAudience(screenID int, from, to time.Time) (model.AudienceSummary, error) {
	var sum model.AudienceSummary
	err := s.db.Get(&sum, `
		WITH people AS (
			SELECT DISTINCT ON (person_id)
			person_id, gender, age, dwell_seconds
			FROM audience_faces
			WHERE screen_id = $1 AND detected_at >= $2 AND detected_at < $3
			ORDER BY person_id, detected_at DESC
		)
		SELECT
		$1::int AS screen_id,
		COUNT(*) AS unique_people,
		COUNT(*) FILTER (WHERE lower(gender) = 'male') AS males,
		COUNT(*) FILTER (WHERE lower(gender) = 'female') AS females,
		AVG(age)::float8 AS avg_age,
		AVG(dwell_seconds)::float8 AS avg_dwell_seconds,
		(SELECT COUNT(*) FROM audience_snapshots
		 WHERE screen_id = $1 AND captured_at >= $2 AND captured_at < $3) AS snapshots
		FROM people;`, screenID, from, to)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to aggregate audience")
		return model.AudienceSummary{}, err
	}
	sum.From = from
	sum.To = to
	return sum, nil
}
