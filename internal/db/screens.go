package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/pairing"
)

const screenColumns = `id, name, area, city, pairing_code, status, default_media_id,
	device_id, client_width, client_height, created_by, created_at, updated_at`

const maxPairingCodeAttempts = 5

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *pgStore) GetScreenByID(id int) (model.Screen, error) {
	var screen model.Screen
	err := s.db.Get(&screen, `SELECT `+screenColumns+` FROM screens WHERE id = $1`, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to get screen by id")
	}
	return screen, err
}

func (s *pgStore) GetScreenByDeviceID(deviceID string) (model.Screen, error) {
	var screen model.Screen
	err := s.db.Get(&screen, `SELECT `+screenColumns+` FROM screens WHERE device_id = $1`, deviceID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Str("device_id", deviceID).Msg("failed to get screen by device id")
	}
	return screen, err
}

func (s *pgStore) ListScreens(ownerID int) ([]model.Screen, error) {
	screens := []model.Screen{}
	err := s.db.Select(&screens, `
		SELECT `+screenColumns+`
		FROM screens
		WHERE created_by = $1
		ORDER BY id
		`, ownerID)
	if err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Msg("failed to list screens")
		return nil, err
	}
	return screens, nil
}

func (s *pgStore) ListPairedScreens() ([]model.Screen, error) {
	screens := []model.Screen{}
	err := s.db.Select(&screens, `
		SELECT `+screenColumns+`
		FROM screens
		WHERE status = 'paired' AND device_id IS NOT NULL
		ORDER BY id
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list paired screens")
		return nil, err
	}
	return screens, nil
}

// CreateScreen inserts a pending screen with a fresh pairing code, retrying
// when the generated code collides with a live one.
func (s *pgStore) CreateScreen(name string, area, city *string, createdBy int) (model.Screen, error) {
	q := `
	INSERT INTO screens (name, area, city, pairing_code, status, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 'pending', $5, now(), now())
	RETURNING ` + screenColumns + `;`

	var lastErr error
	for attempt := 0; attempt < maxPairingCodeAttempts; attempt++ {
		code, err := pairing.GenerateCode()
		if err != nil {
			return model.Screen{}, fmt.Errorf("generate pairing code: %w", err)
		}
		var screen model.Screen
		err = s.db.Get(&screen, q, name, area, city, code, createdBy)
		if err == nil {
			return screen, nil
		}
		if !isUniqueViolation(err) {
			log.Error().Err(err).Msg("failed to create screen")
			return model.Screen{}, err
		}
		lastErr = err
	}
	log.Error().Err(lastErr).Msg("pairing code collisions exhausted")
	return model.Screen{}, fmt.Errorf("could not allocate pairing code: %w", lastErr)
}

func (s *pgStore) UpdateScreen(id int, name, area, city *string) error {
	_, err := s.db.Exec(`
		UPDATE screens
		SET name = COALESCE($2, name),
		area = COALESCE($3, area),
		city = COALESCE($4, city),
		updated_at = now()
		WHERE id = $1
		`, id, name, area, city)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to update screen")
	}
	return err
}

func (s *pgStore) SetDefaultMedia(id int, mediaID *int) error {
	_, err := s.db.Exec(`
		UPDATE screens
		SET default_media_id = $2,
		updated_at = now()
		WHERE id = $1
		`, id, mediaID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to set default media")
	}
	return err
}

// RegeneratePairingCode puts the screen back into pending state with a new
// code and detaches whatever device had claimed it.
func (s *pgStore) RegeneratePairingCode(id int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxPairingCodeAttempts; attempt++ {
		code, err := pairing.GenerateCode()
		if err != nil {
			return "", fmt.Errorf("generate pairing code: %w", err)
		}
		res, err := s.db.Exec(`
			UPDATE screens
			SET pairing_code = $2,
			status = 'pending',
			device_id = NULL,
			updated_at = now()
			WHERE id = $1
			`, id, code)
		if err == nil {
			if n, _ := res.RowsAffected(); n == 0 {
				return "", sql.ErrNoRows
			}
			return code, nil
		}
		if !isUniqueViolation(err) {
			log.Error().Err(err).Int("screen_id", id).Msg("failed to regenerate pairing code")
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("could not allocate pairing code: %w", lastErr)
}

// ClaimScreen consumes a pairing code. The code is single use: it is cleared
// in the same statement that flips the screen to paired. A device that was
// attached to another screen is released from it first.
func (s *pgStore) ClaimScreen(code, deviceID string, width, height *int) (model.Screen, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return model.Screen{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE screens
		SET device_id = NULL,
		status = 'pending',
		updated_at = now()
		WHERE device_id = $1 AND pairing_code IS DISTINCT FROM $2
		`, deviceID, code); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("failed to release device from previous screen")
		return model.Screen{}, err
	}

	var screen model.Screen
	err = tx.Get(&screen, `
		UPDATE screens
		SET status = 'paired',
		device_id = $2,
		client_width = COALESCE($3, client_width),
		client_height = COALESCE($4, client_height),
		pairing_code = NULL,
		updated_at = now()
		WHERE pairing_code = $1 AND status = 'pending'
		RETURNING `+screenColumns, code, deviceID, width, height)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, ErrPairingCodeInvalid
	}
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("failed to claim screen")
		return model.Screen{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Screen{}, err
	}
	return screen, nil
}

func (s *pgStore) DeleteScreen(id int) error {
	_, err := s.db.Exec(`DELETE FROM screens WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("screen_id", id).Msg("failed to delete screen")
	}
	return err
}
