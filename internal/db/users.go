package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

const userColumns = `id, email, hashed_password, name, created_at, updated_at`

// CreateUser inserts an operator account. A duplicate email, including one
// lost to a concurrent signup, returns ErrEmailTaken.
func (s *pgStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	var id int
	err := s.db.QueryRow(`
		INSERT INTO users (email, hashed_password, name)
		VALUES ($1, $2, $3)
		RETURNING id;`, email, hashedPassword, name).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to create user")
		return 0, err
	}
	return id, nil
}

// GetUserByEmail returns nil, sql.ErrNoRows when there is no such account.
func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	return s.getUser(`email = $1`, email)
}

func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	return s.getUser(`id = $1`, id)
}

func (s *pgStore) getUser(where string, arg interface{}) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT `+userColumns+` FROM users WHERE `+where+`;`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		log.Error().Err(err).Interface("lookup", arg).Msg("failed to get user")
		return nil, err
	}
	return &u, nil
}

// UpdateUserProfile replaces email and name. ErrNoSuchUser when the id is
// unknown, ErrEmailTaken when the new email belongs to someone else.
func (s *pgStore) UpdateUserProfile(id int, email string, name *string) error {
	res, err := s.db.Exec(`
		UPDATE users
		SET email = $2, name = $3, updated_at = now()
		WHERE id = $1;`, id, email, name)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("failed to update user profile")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoSuchUser
	}
	return nil
}
