package db

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

const mediaColumns = `id, name, url, thumbnail_url, type, mime_type, size_bytes,
	duration_seconds, folder_id, created_by, created_at, updated_at`

func (s *pgStore) CreateMedia(m model.MediaItem) (model.MediaItem, error) {
	var out model.MediaItem
	query := `
	INSERT INTO media
	(name, url, thumbnail_url, type, mime_type, size_bytes, duration_seconds, folder_id, created_by, created_at, updated_at)
	VALUES
	($1,   $2,  $3,            $4,   $5,        $6,         $7,               $8,        $9,         now(),      now())
	RETURNING ` + mediaColumns + `;`

	if err := s.db.Get(&out, query,
		m.Name,
		m.URL,
		m.ThumbnailURL,
		m.Type,
		m.MimeType,
		m.SizeBytes,
		m.DurationSeconds,
		m.FolderID,
		m.CreatedBy,
	); err != nil {
		log.Error().Err(err).Msg("failed to create media")
		return model.MediaItem{}, err
	}
	return out, nil
}

func (s *pgStore) GetMediaByID(id int) (model.MediaItem, error) {
	var m model.MediaItem
	err := s.db.Get(&m, `SELECT `+mediaColumns+` FROM media WHERE id = $1;`, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Int("media_id", id).Msg("failed to get media by id")
	}
	return m, err
}

// SearchMedia lists the owner's media. Multiple names/types are OR-ed; a type
// ending in '/' is a mime prefix (e.g. "video/"), otherwise it must equal the
// media type ("image", "video").
func (s *pgStore) SearchMedia(ownerID int, names, types []string, folderID *int) ([]model.MediaItem, error) {
	all := []model.MediaItem{}
	query := `SELECT ` + mediaColumns + ` FROM media WHERE created_by = $1`

	args := []interface{}{ownerID}
	argCount := 1

	nameConditions := []string{}
	for _, name := range names {
		if name == "" {
			continue
		}
		argCount++
		nameConditions = append(nameConditions, "name ILIKE $"+strconv.Itoa(argCount))
		args = append(args, "%"+name+"%")
	}
	if len(nameConditions) > 0 {
		query += " AND (" + strings.Join(nameConditions, " OR ") + ")"
	}

	typeConditions := []string{}
	for _, typ := range types {
		if typ == "" {
			continue
		}
		argCount++
		if strings.HasSuffix(typ, "/") {
			typeConditions = append(typeConditions, "mime_type LIKE $"+strconv.Itoa(argCount))
			args = append(args, typ+"%")
		} else {
			typeConditions = append(typeConditions, "type = $"+strconv.Itoa(argCount))
			args = append(args, typ)
		}
	}
	if len(typeConditions) > 0 {
		query += " AND (" + strings.Join(typeConditions, " OR ") + ")"
	}

	if folderID != nil {
		argCount++
		query += ` AND folder_id = $` + strconv.Itoa(argCount)
		args = append(args, *folderID)
	}

	query += ` ORDER BY id;`

	if err := s.db.Select(&all, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to search media")
		return nil, err
	}
	return all, nil
}

func (s *pgStore) MoveMediaToFolder(id int, folderID *int) error {
	_, err := s.db.Exec(`
		UPDATE media
		SET folder_id = $2,
		updated_at = now()
		WHERE id = $1;`, id, folderID)
	if err != nil {
		log.Error().Err(err).Int("media_id", id).Msg("failed to move media")
	}
	return err
}

func (s *pgStore) DeleteMedia(id int) error {
	_, err := s.db.Exec(`DELETE FROM media WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("media_id", id).Msg("failed to delete media")
	}
	return err
}
