package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/vantage/internal/config"
	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/control/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/vantage/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/vantage/internal/playback"
	"github.com/Nixie-Tech-LLC/vantage/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, store db.Store, storageSystem storage.Storage, service *playback.Service) {
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
			"X-Request-ID",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(cfg.JWTSecret, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
	},
		// session endpoints that require auth
		authapi.AuthSessionModule(cfg.JWTSecret, store),
		// control modules
		adminapi.MediaModule(store, storageSystem, service),
		adminapi.ScreenModule(store, service),
		adminapi.RuleModule(store, service),
		adminapi.AnalyticsModule(store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/tv",
	},
		clientapi.TVModule(store, service, playback.RealClock()),
	)

	// Static content
	if !cfg.UseSpaces {
		r.Static(uploadsPath, cfg.UploadDir)
	}
}
