package db

import (
	"errors"
	"os"
)

// InitTestDB connects to TEST_DATABASE_URL and migrates it. Integration tests
// skip themselves when the variable is unset.
func InitTestDB() (Store, error) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("TEST_DATABASE_URL environment variable is not set")
	}

	if err := Init(dbURL); err != nil {
		return nil, err
	}

	if err := RunMigrations(DB); err != nil {
		return nil, err
	}

	return NewStore(DB), nil
}
