package endpoints

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/auth/packets"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

// AuthPublicModule mounts public auth endpoints (/auth/signup, /auth/login)
func AuthPublicModule(jwtSecret string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/signup", ctl.userSignup)
		c.PUBLIC_POST("/auth/login", ctl.userLogin)
	})
}

// AuthSessionModule mounts private session/profile endpoints (JWT required)
func AuthSessionModule(jwtSecret string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.getCurrentProfile)
		c.PUT("/auth/current_profile", ctl.updateCurrentProfile)
	})
}

type AccountManager struct {
	jwtSecret string
	store     db.Store
}

func newAccountManager(secret string, store db.Store) *AccountManager {
	return &AccountManager{jwtSecret: secret, store: store}
}

func profileOf(u *model.User) packets.ProfileResponse {
	return packets.ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

func (a *AccountManager) session(u *model.User) (packets.SessionResponse, *api.APIError) {
	token, err := middleware.GenerateJWT(u.ID, a.jwtSecret)
	if err != nil {
		log.Error().Err(err).Int("user_id", u.ID).Msg("could not sign token")
		return packets.SessionResponse{}, api.Internal("could not generate token")
	}
	return packets.SessionResponse{Token: token, Profile: profileOf(u)}, nil
}

// POST /api/admin/auth/signup
func (a *AccountManager) userSignup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	email := request.NormalizedEmail()

	if existing, _ := a.store.GetUserByEmail(email); existing != nil {
		log.Warn().Str("email", email).Msg("signup email already registered")
		return nil, &api.APIError{Code: http.StatusConflict, Message: "email already registered"}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, api.Internal("could not hash password")
	}

	userID, err := a.store.CreateUser(email, hashed, request.Name)
	if errors.Is(err, db.ErrEmailTaken) {
		return nil, &api.APIError{Code: http.StatusConflict, Message: err.Error()}
	}
	if err != nil {
		return nil, api.Internal("could not create user")
	}

	created, err := a.store.GetUserByID(userID)
	if err != nil {
		return nil, api.Internal("could not load new user")
	}

	resp, apiErr := a.session(created)
	if apiErr != nil {
		return nil, apiErr
	}
	log.Info().Int("user_id", userID).Msg("operator signed up")
	return api.Created(resp), nil
}

// POST /api/admin/auth/login
func (a *AccountManager) userLogin(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	foundUser, err := a.store.GetUserByEmail(request.NormalizedEmail())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, api.Internal("could not look up user")
	}
	if foundUser == nil || !middleware.CheckPassword(foundUser.HashedPassword, request.Password) {
		log.Warn().Str("email", request.NormalizedEmail()).Msg("failed login")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	resp, apiErr := a.session(foundUser)
	if apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

// GET /api/admin/auth/current_profile
func (a *AccountManager) getCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return profileOf(user), nil
}

// PUT /api/admin/auth/current_profile
func (a *AccountManager) updateCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateCurrentProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	email := request.NormalizedEmail()

	if email != user.Email {
		if other, _ := a.store.GetUserByEmail(email); other != nil {
			return nil, &api.APIError{Code: http.StatusConflict, Message: "email already in use"}
		}
	}

	if err := a.store.UpdateUserProfile(user.ID, email, request.Name); err != nil {
		if errors.Is(err, db.ErrNoSuchUser) {
			return nil, api.NotFound("user")
		}
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, &api.APIError{Code: http.StatusConflict, Message: "email already in use"}
		}
		return nil, api.Internal("could not update profile")
	}

	updated, err := a.store.GetUserByID(user.ID)
	if err != nil {
		return nil, api.Internal("could not fetch updated profile")
	}
	return profileOf(updated), nil
}
