package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

const ruleColumns = `id, name, description, priority, screen_id,
	min_people, max_people, min_males, max_males, min_females, max_females,
	min_avg_age, max_avg_age, min_dwell, max_dwell,
	is_active, output_media_id, created_by, created_at, updated_at`

// rules are expected to be normalized by the caller before they reach the store.
func (s *pgStore) CreateRule(r model.Rule) (model.Rule, error) {
	var out model.Rule
	err := s.db.Get(&out, `
		INSERT INTO rules
		(name, description, priority, screen_id,
		 min_people, max_people, min_males, max_males, min_females, max_females,
		 min_avg_age, max_avg_age, min_dwell, max_dwell,
		 is_active, output_media_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())
		RETURNING `+ruleColumns+`;`,
		r.Name, r.Description, r.Priority, r.ScreenID,
		r.MinPeople, r.MaxPeople, r.MinMales, r.MaxMales, r.MinFemales, r.MaxFemales,
		r.MinAvgAge, r.MaxAvgAge, r.MinDwell, r.MaxDwell,
		r.IsActive, r.OutputMediaID, r.CreatedBy,
	)
	if err != nil {
		log.Error().Err(err).Int("owner_id", r.CreatedBy).Msg("failed to create rule")
		return model.Rule{}, err
	}
	return out, nil
}

func (s *pgStore) GetRuleByID(id int) (model.Rule, error) {
	var r model.Rule
	err := s.db.Get(&r, `SELECT `+ruleColumns+` FROM rules WHERE id = $1;`, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("rule_id", id).Msg("failed to get rule")
	}
	return r, err
}

// ListRules returns the owner's rules, optionally restricted to those that
// apply to one screen (scoped to it, or global).
func (s *pgStore) ListRules(ownerID int, screenID *int) ([]model.Rule, error) {
	out := []model.Rule{}
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE created_by = $1`
	args := []interface{}{ownerID}
	if screenID != nil {
		query += ` AND (screen_id = $2 OR screen_id IS NULL)`
		args = append(args, *screenID)
	}
	query += ` ORDER BY priority DESC, id;`

	if err := s.db.Select(&out, query, args...); err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Msg("failed to list rules")
		return nil, err
	}
	return out, nil
}

// ListCandidateRules loads the active rules that could fire on a screen: those
// scoped to it plus the global rules of the screen's owner.
func (s *pgStore) ListCandidateRules(screenID int) ([]model.Rule, error) {
	out := []model.Rule{}
	err := s.db.Select(&out, `
		SELECT `+ruleColumns+`
		FROM rules
		WHERE is_active
		AND (
			screen_id = $1
			OR (screen_id IS NULL AND created_by = (SELECT created_by FROM screens WHERE id = $1))
		)
		ORDER BY priority DESC, id;`, screenID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("failed to list candidate rules")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateRule(r model.Rule) (model.Rule, error) {
	var out model.Rule
	err := s.db.Get(&out, `
		UPDATE rules
		SET name = $2,
		description = $3,
		priority = $4,
		screen_id = $5,
		min_people = $6, max_people = $7,
		min_males = $8, max_males = $9,
		min_females = $10, max_females = $11,
		min_avg_age = $12, max_avg_age = $13,
		min_dwell = $14, max_dwell = $15,
		is_active = $16,
		output_media_id = $17,
		updated_at = now()
		WHERE id = $1
		RETURNING `+ruleColumns+`;`,
		r.ID, r.Name, r.Description, r.Priority, r.ScreenID,
		r.MinPeople, r.MaxPeople, r.MinMales, r.MaxMales, r.MinFemales, r.MaxFemales,
		r.MinAvgAge, r.MaxAvgAge, r.MinDwell, r.MaxDwell,
		r.IsActive, r.OutputMediaID,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("rule_id", r.ID).Msg("failed to update rule")
	}
	return out, err
}

func (s *pgStore) SetRuleActive(id int, active bool) error {
	res, err := s.db.Exec(`UPDATE rules SET is_active = $2, updated_at = now() WHERE id = $1;`, id, active)
	if err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("failed to toggle rule")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *pgStore) DeleteRule(id int) error {
	_, err := s.db.Exec(`DELETE FROM rules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("failed to delete rule")
	}
	return err
}
