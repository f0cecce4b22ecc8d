package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

func (s *pgStore) CreateFolder(name string, ownerID int) (model.Folder, error) {
	var f model.Folder
	err := s.db.Get(&f, `
		INSERT INTO folders (name, created_by, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, created_by, created_at, updated_at;`, name, ownerID)
	if err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Msg("failed to create folder")
	}
	return f, err
}

func (s *pgStore) GetFolderByID(id int) (model.Folder, error) {
	var f model.Folder
	err := s.db.Get(&f, `
		SELECT id, name, created_by, created_at, updated_at
		FROM folders
		WHERE id = $1;`, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("folder_id", id).Msg("failed to get folder")
	}
	return f, err
}

func (s *pgStore) ListFolders(ownerID int) ([]model.Folder, error) {
	folders := []model.Folder{}
	err := s.db.Select(&folders, `
		SELECT id, name, created_by, created_at, updated_at
		FROM folders
		WHERE created_by = $1
		ORDER BY name, id;`, ownerID)
	if err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Msg("failed to list folders")
		return nil, err
	}
	return folders, nil
}

func (s *pgStore) RenameFolder(id int, name string) (model.Folder, error) {
	var f model.Folder
	err := s.db.Get(&f, `
		UPDATE folders
		SET name = $2,
		updated_at = now()
		WHERE id = $1
		RETURNING id, name, created_by, created_at, updated_at;`, id, name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("folder_id", id).Msg("failed to rename folder")
	}
	return f, err
}

// RemoveFolder deletes the folder and returns how many media items it held.
// Media are unassigned, never deleted.
func (s *pgStore) RemoveFolder(id int) (int64, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE media SET folder_id = NULL, updated_at = now() WHERE folder_id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("folder_id", id).Msg("failed to unassign folder media")
		return 0, err
	}
	moved, _ := res.RowsAffected()

	res, err = tx.Exec(`DELETE FROM folders WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("folder_id", id).Msg("failed to delete folder")
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return moved, nil
}

// BulkAssignFolder upserts one assignment per media item in the folder, all
// carrying the same targeting. Returns the number of assignments written.
func (s *pgStore) BulkAssignFolder(folderID, screenID int, t model.Targeting) (int, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var mediaIDs []int
	if err := tx.Select(&mediaIDs, `SELECT id FROM media WHERE folder_id = $1 ORDER BY id;`, folderID); err != nil {
		log.Error().Err(err).Int("folder_id", folderID).Msg("failed to list folder media")
		return 0, err
	}

	for _, mediaID := range mediaIDs {
		if _, err := tx.Exec(upsertAssignmentQuery, assignmentArgs(screenID, mediaID, t)...); err != nil {
			log.Error().Err(err).
				Int("folder_id", folderID).
				Int("screen_id", screenID).
				Int("media_id", mediaID).
				Msg("failed to upsert folder assignment")
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(mediaIDs), nil
}
