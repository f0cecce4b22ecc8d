package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/http/middleware"
)

// Module attaches a feature's endpoints to a Controller.
type Module interface {
	Mount(c *Controller)
}

type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig describes one mounted route group. SecretKey and Users are
// required when Auth is set.
type GroupConfig struct {
	Prefix     string
	Auth       bool
	SecretKey  string
	Users      middleware.UserLookup
	Middleware []gin.HandlerFunc
}

func (cfg GroupConfig) validate() error {
	if cfg.Auth && (cfg.SecretKey == "" || cfg.Users == nil) {
		return fmt.Errorf("group %q: auth enabled without secret key or user lookup", cfg.Prefix)
	}
	return nil
}

// MountGroup mounts modules under cfg.Prefix on an engine or an existing
// group. Extra middleware runs before the JWT check.
func MountGroup(parent gin.IRoutes, cfg GroupConfig, modules ...Module) {
	if err := cfg.validate(); err != nil {
		log.Fatal().Err(err).Msg("api.MountGroup")
	}

	var grp *gin.RouterGroup
	switch v := parent.(type) {
	case *gin.Engine:
		grp = v.Group(cfg.Prefix)
	case *gin.RouterGroup:
		grp = v
		if cfg.Prefix != "" {
			grp = v.Group(cfg.Prefix)
		}
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", parent)).Msg("api.MountGroup: unsupported router type")
	}

	handlers := append([]gin.HandlerFunc{}, cfg.Middleware...)
	if cfg.Auth {
		handlers = append(handlers, middleware.JWTMiddleware(cfg.SecretKey, cfg.Users))
	}
	if len(handlers) > 0 {
		grp.Use(handlers...)
	}

	controller := &Controller{Group: grp}
	for _, m := range modules {
		m.Mount(controller)
	}

	log.Debug().
		Str("prefix", grp.BasePath()).
		Bool("auth", cfg.Auth).
		Int("modules", len(modules)).
		Msg("route group mounted")
}
