package endpoints

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

type ScreenController struct {
	store   db.Store
	decider Decider
}

func newScreenController(store db.Store, decider Decider) *ScreenController {
	return &ScreenController{store: store, decider: decider}
}

// ScreenModule mounts all authenticated /screens endpoints.
func ScreenModule(store db.Store, decider Decider) api.Module {
	ctl := newScreenController(store, decider)
	return api.ModuleFunc(func(c *api.Controller) {
		// CRUD
		c.GET("/screens", ctl.listScreens)
		c.POST("/screens", ctl.createScreen)
		c.GET("/screens/:id", ctl.getScreen)
		c.PUT("/screens/:id", ctl.updateScreen)
		c.DELETE("/screens/:id", ctl.deleteScreen)

		// playback
		c.PUT("/screens/:id/default_media", ctl.setDefaultMedia)
		c.POST("/screens/:id/pairing_code", ctl.regeneratePairingCode)
		c.GET("/screens/:id/decision", ctl.previewDecision)

		// screen <-> media
		c.GET("/screens/:id/assignments", ctl.listAssignments)
		c.PUT("/screens/:id/assignments/:media_id", ctl.upsertAssignment)
		c.DELETE("/screens/:id/assignments/:media_id", ctl.deleteAssignment)
	})
}

// GET /api/admin/screens
func (t *ScreenController) listScreens(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := t.store.ListScreens(user.ID)
	if err != nil {
		return nil, api.Internal("could not list screens")
	}

	out := make([]packets.ScreenResponse, 0, len(all))
	for _, s := range all {
		out = append(out, packets.NewScreenResponse(s))
	}
	return out, nil
}

// POST /api/admin/screens
func (t *ScreenController) createScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, api.BadRequest("name is required")
	}

	screen, err := t.store.CreateScreen(name, request.Area, request.City, user.ID)
	if err != nil {
		return nil, api.Internal("could not create screen")
	}

	log.Info().Int("screen_id", screen.ID).Int("user_id", user.ID).Msg("screen created")
	return api.Created(packets.NewScreenResponse(screen)), nil
}

// GET /api/admin/screens/:id
func (t *ScreenController) getScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	screen, apiErr := ownedScreen(t.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return packets.NewScreenResponse(screen), nil
}

// PUT /api/admin/screens/:id
func (t *ScreenController) updateScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if request.Name != nil && strings.TrimSpace(*request.Name) == "" {
		return nil, api.BadRequest("name cannot be empty")
	}
	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	if err := t.store.UpdateScreen(id, request.Name, request.Area, request.City); err != nil {
		return nil, api.Internal("could not update screen")
	}

	updated, err := t.store.GetScreenByID(id)
	if err != nil {
		return nil, lookupError(err, "screen")
	}
	return packets.NewScreenResponse(updated), nil
}

// DELETE /api/admin/screens/:id
func (t *ScreenController) deleteScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}
	if err := t.store.DeleteScreen(id); err != nil {
		return nil, api.Internal("could not delete screen")
	}
	return gin.H{"message": "screen deleted"}, nil
}

// PUT /api/admin/screens/:id/default_media
func (t *ScreenController) setDefaultMedia(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.SetDefaultMediaRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	screen, apiErr := ownedScreen(t.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if request.MediaID != nil {
		if _, apiErr := ownedMedia(t.store, *request.MediaID, user); apiErr != nil {
			return nil, apiErr
		}
	}

	if err := t.store.SetDefaultMedia(id, request.MediaID); err != nil {
		return nil, api.Internal("could not set default media")
	}
	screen.DefaultMediaID = request.MediaID

	t.decider.Invalidate(ctx.Request.Context(), id)
	return packets.NewScreenResponse(screen), nil
}

// POST /api/admin/screens/:id/pairing_code
// Issues a fresh code and unpairs the current device.
func (t *ScreenController) regeneratePairingCode(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	code, err := t.store.RegeneratePairingCode(id)
	if err != nil {
		return nil, lookupError(err, "screen")
	}
	log.Info().Int("screen_id", id).Msg("pairing code regenerated")
	return packets.PairingCodeResponse{ScreenID: id, PairingCode: code}, nil
}

// GET /api/admin/screens/:id/decision
func (t *ScreenController) previewDecision(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	d, err := t.decider.Decide(ctx.Request.Context(), id)
	if err != nil {
		return nil, lookupError(err, "screen")
	}
	return d, nil
}

// GET /api/admin/screens/:id/assignments
func (t *ScreenController) listAssignments(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	list, err := t.store.ListAssignmentsForScreen(id)
	if err != nil {
		return nil, api.Internal("could not list assignments")
	}
	out := make([]packets.AssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, packets.NewAssignmentResponse(a))
	}
	return out, nil
}

// PUT /api/admin/screens/:id/assignments/:media_id
// Creates or replaces the assignment for this screen/media pair.
func (t *ScreenController) upsertAssignment(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	mediaID, apiErr := paramID(ctx, "media_id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.AssignmentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	target, err := request.Targeting()
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}
	m, apiErr := ownedMedia(t.store, mediaID, user)
	if apiErr != nil {
		return nil, apiErr
	}

	a, err := t.store.UpsertAssignment(id, mediaID, target)
	if err != nil {
		return nil, api.Internal("could not save assignment")
	}
	a.Media = &m

	t.decider.Invalidate(ctx.Request.Context(), id)
	return packets.NewAssignmentResponse(a), nil
}

// DELETE /api/admin/screens/:id/assignments/:media_id
func (t *ScreenController) deleteAssignment(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	mediaID, apiErr := paramID(ctx, "media_id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(t.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	if err := t.store.DeleteAssignment(id, mediaID); err != nil {
		return nil, api.Internal("could not delete assignment")
	}

	t.decider.Invalidate(ctx.Request.Context(), id)
	return gin.H{"message": "assignment removed"}, nil
}
