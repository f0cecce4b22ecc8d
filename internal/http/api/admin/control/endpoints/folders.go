package endpoints

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

// GET /api/admin/folders
func (c *MediaController) listFolders(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	folders, err := c.store.ListFolders(user.ID)
	if err != nil {
		return nil, api.Internal("could not list folders")
	}
	out := make([]packets.FolderResponse, 0, len(folders))
	for _, f := range folders {
		out = append(out, packets.NewFolderResponse(f))
	}
	return out, nil
}

// POST /api/admin/folders
func (c *MediaController) createFolder(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.FolderRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, api.BadRequest("name is required")
	}

	f, err := c.store.CreateFolder(name, user.ID)
	if err != nil {
		return nil, api.Internal("could not create folder")
	}
	return api.Created(packets.NewFolderResponse(f)), nil
}

// PUT /api/admin/folders/:id
func (c *MediaController) renameFolder(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.FolderRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if _, apiErr := ownedFolder(c.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	f, err := c.store.RenameFolder(id, strings.TrimSpace(request.Name))
	if err != nil {
		return nil, lookupError(err, "folder")
	}
	return packets.NewFolderResponse(f), nil
}

// DELETE /api/admin/folders/:id
// Media inside the folder are kept and become unfiled.
func (c *MediaController) removeFolder(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedFolder(c.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	moved, err := c.store.RemoveFolder(id)
	if err != nil {
		return nil, lookupError(err, "folder")
	}
	return packets.FolderRemovedResponse{ID: id, UnassignedMedia: moved}, nil
}

// POST /api/admin/folders/:id/assign
// Assigns every media item in the folder to a screen with the same targeting.
func (c *MediaController) assignFolder(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.AssignFolderRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	target, err := request.Targeting()
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if _, apiErr := ownedFolder(c.store, id, user); apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(c.store, request.ScreenID, user); apiErr != nil {
		return nil, apiErr
	}

	n, err := c.store.BulkAssignFolder(id, request.ScreenID, target)
	if err != nil {
		return nil, api.Internal("could not assign folder")
	}

	log.Info().Int("folder_id", id).Int("screen_id", request.ScreenID).Int("assignments", n).Msg("folder assigned")
	c.decider.Invalidate(ctx.Request.Context(), request.ScreenID)
	return packets.FolderAssignedResponse{FolderID: id, ScreenID: request.ScreenID, Assignments: n}, nil
}
