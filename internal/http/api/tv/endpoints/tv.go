package endpoints

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/pairing"
	"github.com/Nixie-Tech-LLC/vantage/internal/playback"
)

// maxClockSkew is how far ahead of the server a device clock may run.
// Timestamps inside it are pulled back to now; later ones are rejected.
const maxClockSkew = 30 * time.Second

// Player is the playback surface devices talk to.
type Player interface {
	Decide(ctx context.Context, screenID int) (playback.Decision, error)
	Sync(ctx context.Context, screenID int) (playback.Decision, bool, error)
	Invalidate(ctx context.Context, screenIDs ...int)
}

type TvController struct {
	store  db.Store
	player Player
	clock  playback.Clock
}

func NewTvController(store db.Store, player Player, clock playback.Clock) *TvController {
	return &TvController{store: store, player: player, clock: clock}
}

// TVModule mounts the device-facing endpoints. Devices identify themselves
// by device_id; no operator session is involved.
func TVModule(store db.Store, player Player, clock playback.Clock) api.Module {
	ctl := NewTvController(store, player, clock)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/pair", ctl.pair)
		c.PUBLIC_GET("/playback", ctl.playback)
		c.PUBLIC_POST("/audience", ctl.ingestAudience)
	})
}

func (t *TvController) pairedScreen(deviceID string) (model.Screen, *api.APIError) {
	screen, err := t.store.GetScreenByDeviceID(deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screen{}, &api.APIError{Code: http.StatusUnauthorized, Message: "unknown device"}
	}
	if err != nil {
		return model.Screen{}, api.Internal("could not load screen")
	}
	if !screen.Paired() {
		return model.Screen{}, &api.APIError{Code: http.StatusUnauthorized, Message: "device is not paired"}
	}
	return screen, nil
}

// notAfter resolves an optional device timestamp: def when unset, clamped to
// now within maxClockSkew, an error beyond it.
func notAfter(ts *time.Time, def, now time.Time) (time.Time, *api.APIError) {
	if ts == nil {
		return def, nil
	}
	if ts.After(now.Add(maxClockSkew)) {
		return time.Time{}, api.BadRequest("timestamp is in the future")
	}
	if ts.After(now) {
		return now, nil
	}
	return *ts, nil
}

// POST /api/tv/pair
// Consumes a pairing code shown on the operator dashboard.
func (t *TvController) pair(ctx *gin.Context) (any, *api.APIError) {
	var request packets.PairRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	deviceID := strings.TrimSpace(request.DeviceID)
	if deviceID == "" {
		return nil, api.BadRequest("device_id is required")
	}

	screen, err := t.store.ClaimScreen(pairing.NormalizeCode(request.PairingCode), deviceID, request.ClientWidth, request.ClientHeight)
	if errors.Is(err, db.ErrPairingCodeInvalid) {
		log.Warn().Str("device_id", deviceID).Msg("pairing attempt with invalid code")
		return nil, &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
	}
	if err != nil {
		return nil, api.Internal("could not pair screen")
	}

	log.Info().Int("screen_id", screen.ID).Str("device_id", deviceID).Msg("screen paired")
	t.player.Invalidate(ctx.Request.Context(), screen.ID)

	return packets.PairResponse{
		ScreenID:     screen.ID,
		Name:         screen.Name,
		DeviceID:     deviceID,
		CommandTopic: middleware.CommandTopic(deviceID),
	}, nil
}

// GET /api/tv/playback?device_id=
// Honours If-None-Match so polling devices only download changes.
func (t *TvController) playback(ctx *gin.Context) (any, *api.APIError) {
	deviceID := strings.TrimSpace(ctx.Query("device_id"))
	if deviceID == "" {
		return nil, api.BadRequest("device_id is required")
	}
	screen, apiErr := t.pairedScreen(deviceID)
	if apiErr != nil {
		return nil, apiErr
	}

	d, err := t.player.Decide(ctx.Request.Context(), screen.ID)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screen.ID).Msg("playback decision failed")
		return nil, api.Internal("could not decide playback")
	}

	ctx.Header("ETag", d.ETag)
	ctx.Header("Cache-Control", "no-cache")
	if match := ctx.GetHeader("If-None-Match"); match != "" && match == d.ETag {
		return api.Response{Code: http.StatusNotModified}, nil
	}
	return d, nil
}

// POST /api/tv/audience
// Appends a snapshot from the vision pipeline and re-syncs the screen so an
// audience rule takes effect immediately.
func (t *TvController) ingestAudience(ctx *gin.Context) (any, *api.APIError) {
	var request packets.AudienceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	screen, apiErr := t.pairedScreen(strings.TrimSpace(request.DeviceID))
	if apiErr != nil {
		return nil, apiErr
	}

	now := t.clock.Now()
	captured, apiErr := notAfter(request.CapturedAt, now, now)
	if apiErr != nil {
		return nil, apiErr
	}
	snap := model.AudienceSnapshot{
		ScreenID:     screen.ID,
		PeopleCount:  request.PeopleCount,
		MaleCount:    request.MaleCount,
		FemaleCount:  request.FemaleCount,
		AvgAge:       request.AvgAge,
		DwellSeconds: request.DwellSeconds,
		CapturedAt:   captured,
	}

	faces := make([]model.AudienceFace, 0, len(request.Faces))
	for _, f := range request.Faces {
		detected, apiErr := notAfter(f.DetectedAt, captured, now)
		if apiErr != nil {
			return nil, apiErr
		}
		faces = append(faces, model.AudienceFace{
			ScreenID:     screen.ID,
			PersonID:     f.PersonID,
			Age:          f.Age,
			Gender:       f.Gender,
			DwellSeconds: f.DwellSeconds,
			DetectedAt:   detected,
		})
	}

	saved, err := t.store.InsertSnapshot(snap, faces)
	if err != nil {
		return nil, api.Internal("could not store snapshot")
	}

	d, _, err := t.player.Sync(ctx.Request.Context(), screen.ID)
	if err != nil {
		log.Warn().Err(err).Int("screen_id", screen.ID).Msg("sync after audience failed")
	}

	return api.Created(packets.AudienceResponse{
		SnapshotID: saved.ID,
		Faces:      len(faces),
		Source:     d.Source,
		ETag:       d.ETag,
	}), nil
}
