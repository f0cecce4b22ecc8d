package endpoints

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

const defaultAnalyticsWindow = 24 * time.Hour

type AnalyticsController struct {
	store db.Store
	now   func() time.Time
}

// AnalyticsModule mounts read-only audience endpoints.
func AnalyticsModule(store db.Store) api.Module {
	ctl := &AnalyticsController{store: store, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/screens/:id/audience/latest", ctl.latestSnapshot)
		c.GET("/screens/:id/audience", ctl.summary)
	})
}

// GET /api/admin/screens/:id/audience/latest
func (a *AnalyticsController) latestSnapshot(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := ownedScreen(a.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	snap, err := a.store.GetLatestSnapshot(id)
	if err != nil {
		return nil, lookupError(err, "snapshot")
	}
	return snap, nil
}

// GET /api/admin/screens/:id/audience?from=&to=
// Times are RFC3339; the default window is the last 24 hours.
func (a *AnalyticsController) summary(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	to := a.now()
	from := to.Add(-defaultAnalyticsWindow)
	if raw := ctx.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, api.BadRequest("to must be RFC3339")
		}
		to = t
		if ctx.Query("from") == "" {
			from = to.Add(-defaultAnalyticsWindow)
		}
	}
	if raw := ctx.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, api.BadRequest("from must be RFC3339")
		}
		from = t
	}
	if !from.Before(to) {
		return nil, api.BadRequest("from must be before to")
	}

	if _, apiErr := ownedScreen(a.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	sum, err := a.store.AggregateAudience(id, from, to)
	if err != nil {
		return nil, api.Internal("could not aggregate audience")
	}
	return sum, nil
}
