package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/storage"
)

const maxUploadBytes = 512 << 20

type MediaController struct {
	store   db.Store
	storage storage.Storage
	decider Decider
}

func newMediaController(store db.Store, storage storage.Storage, decider Decider) *MediaController {
	return &MediaController{store: store, storage: storage, decider: decider}
}

// MediaModule mounts all authenticated /media and /folders endpoints
func MediaModule(store db.Store, storage storage.Storage, decider Decider) api.Module {
	ctl := newMediaController(store, storage, decider)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/media", ctl.listMedia)
		c.GET("/media/:id", ctl.getMedia)
		c.POST("/media", ctl.uploadMedia)
		c.PUT("/media/:id/folder", ctl.moveMedia)
		c.DELETE("/media/:id", ctl.deleteMedia)

		c.GET("/folders", ctl.listFolders)
		c.POST("/folders", ctl.createFolder)
		c.PUT("/folders/:id", ctl.renameFolder)
		c.DELETE("/folders/:id", ctl.removeFolder)
		c.POST("/folders/:id/assign", ctl.assignFolder)
	})
}

// GET /api/admin/media?name=&type=&folder_id=
func (c *MediaController) listMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var folderID *int
	if raw := ctx.Query("folder_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, api.BadRequest("invalid folder_id")
		}
		folderID = &id
	}

	all, err := c.store.SearchMedia(user.ID, ctx.QueryArray("name"), ctx.QueryArray("type"), folderID)
	if err != nil {
		return nil, api.Internal("could not list media")
	}

	out := make([]packets.MediaResponse, 0, len(all))
	for _, m := range all {
		out = append(out, packets.NewMediaResponse(m))
	}
	return out, nil
}

// GET /api/admin/media/:id
func (c *MediaController) getMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	m, apiErr := ownedMedia(c.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return packets.NewMediaResponse(m), nil
}

// POST /api/admin/media (multipart: source, thumbnail?, name?, folder_id?, duration?)
func (c *MediaController) uploadMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadBytes)

	source, err := ctx.FormFile("source")
	if err != nil {
		return nil, api.BadRequest("source file is required")
	}

	item := model.MediaItem{
		Name:      strings.TrimSpace(ctx.PostForm("name")),
		CreatedBy: user.ID,
	}
	if item.Name == "" {
		item.Name = source.Filename
	}

	if raw := ctx.PostForm("folder_id"); raw != "" {
		folderID, err := strconv.Atoi(raw)
		if err != nil {
			return nil, api.BadRequest("invalid folder_id")
		}
		if _, apiErr := ownedFolder(c.store, folderID, user); apiErr != nil {
			return nil, apiErr
		}
		item.FolderID = &folderID
	}
	if raw := ctx.PostForm("duration"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, api.BadRequest("duration must be a positive number of seconds")
		}
		item.DurationSeconds = &seconds
	}

	stored, err := c.storage.SaveFile(source)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedMedia) {
			return nil, &api.APIError{Code: http.StatusUnsupportedMediaType, Message: err.Error()}
		}
		log.Error().Err(err).Int("user_id", user.ID).Msg("failed to store upload")
		return nil, api.Internal("could not store file")
	}
	item.URL = stored.URL
	item.Type = stored.Type
	item.MimeType = stored.MimeType
	item.SizeBytes = stored.Size

	saved := []string{stored.URL}
	if thumb, err := ctx.FormFile("thumbnail"); err == nil {
		t, err := c.storage.SaveFile(thumb)
		if err == nil {
			saved = append(saved, t.URL)
		}
		if err != nil || t.Type != model.MediaTypeImage {
			c.discard(saved)
			return nil, api.BadRequest("thumbnail must be an image")
		}
		item.ThumbnailURL = &t.URL
	}

	created, err := c.store.CreateMedia(item)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("failed to record media")
		c.discard(saved)
		return nil, api.Internal("could not save media")
	}

	log.Info().
		Int("media_id", created.ID).
		Str("type", created.Type).
		Int64("size_bytes", created.SizeBytes).
		Msg("media uploaded")
	return api.Created(packets.NewMediaResponse(created)), nil
}

// discard removes stored objects of an upload that was not recorded.
func (c *MediaController) discard(urls []string) {
	for _, url := range urls {
		if err := c.storage.DeleteFile(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to remove orphaned upload")
		}
	}
}

// PUT /api/admin/media/:id/folder
func (c *MediaController) moveMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.MoveMediaRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	m, apiErr := ownedMedia(c.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if request.FolderID != nil {
		if _, apiErr := ownedFolder(c.store, *request.FolderID, user); apiErr != nil {
			return nil, apiErr
		}
	}

	if err := c.store.MoveMediaToFolder(m.ID, request.FolderID); err != nil {
		return nil, api.Internal("could not move media")
	}
	m.FolderID = request.FolderID
	return packets.NewMediaResponse(m), nil
}

// DELETE /api/admin/media/:id
func (c *MediaController) deleteMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	m, apiErr := ownedMedia(c.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := c.store.DeleteMedia(m.ID); err != nil {
		return nil, api.Internal("could not delete media")
	}
	if err := c.storage.DeleteFile(m.URL); err != nil {
		log.Warn().Err(err).Int("media_id", m.ID).Msg("media row deleted but file remains")
	}
	if m.ThumbnailURL != nil {
		_ = c.storage.DeleteFile(*m.ThumbnailURL)
	}

	c.decider.Invalidate(ctx.Request.Context(), ownerScreenIDs(c.store, user.ID)...)
	return gin.H{"message": "media deleted"}, nil
}
