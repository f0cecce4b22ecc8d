package endpoints

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/playback"
)

// Decider is the playback surface admin endpoints need: previews and
// invalidation after edits.
type Decider interface {
	Decide(ctx context.Context, screenID int) (playback.Decision, error)
	Invalidate(ctx context.Context, screenIDs ...int)
}

func paramID(ctx *gin.Context, name string) (int, *api.APIError) {
	raw := ctx.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Msg("invalid id in request")
		return 0, api.BadRequest("invalid " + name)
	}
	return id, nil
}

func lookupError(err error, what string) *api.APIError {
	if errors.Is(err, sql.ErrNoRows) {
		return api.NotFound(what)
	}
	return api.Internal("could not load " + what)
}

func ownedScreen(store db.Store, id int, user *model.User) (model.Screen, *api.APIError) {
	screen, err := store.GetScreenByID(id)
	if err != nil {
		return model.Screen{}, lookupError(err, "screen")
	}
	if screen.CreatedBy != user.ID {
		return model.Screen{}, api.Forbidden()
	}
	return screen, nil
}

func ownedMedia(store db.Store, id int, user *model.User) (model.MediaItem, *api.APIError) {
	m, err := store.GetMediaByID(id)
	if err != nil {
		return model.MediaItem{}, lookupError(err, "media")
	}
	if m.CreatedBy != user.ID {
		return model.MediaItem{}, api.Forbidden()
	}
	return m, nil
}

func ownedFolder(store db.Store, id int, user *model.User) (model.Folder, *api.APIError) {
	f, err := store.GetFolderByID(id)
	if err != nil {
		return model.Folder{}, lookupError(err, "folder")
	}
	if f.CreatedBy != user.ID {
		return model.Folder{}, api.Forbidden()
	}
	return f, nil
}

func ownedRule(store db.Store, id int, user *model.User) (model.Rule, *api.APIError) {
	r, err := store.GetRuleByID(id)
	if err != nil {
		return model.Rule{}, lookupError(err, "rule")
	}
	if r.CreatedBy != user.ID {
		return model.Rule{}, api.Forbidden()
	}
	return r, nil
}

// ownerScreenIDs lists every screen of the user; global rules and media
// deletion can affect all of them.
func ownerScreenIDs(store db.Store, ownerID int) []int {
	screens, err := store.ListScreens(ownerID)
	if err != nil {
		return nil
	}
	ids := make([]int, 0, len(screens))
	for _, s := range screens {
		ids = append(ids, s.ID)
	}
	return ids
}
