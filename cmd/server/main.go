package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/config"
	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/vantage/internal/playback"
	"github.com/Nixie-Tech-LLC/vantage/internal/redis"
)

const etagTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(db.DB); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(db.DB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []playback.Option{
		playback.WithStaleAfter(cfg.SnapshotMaxAge),
	}

	if cfg.RedisAddress != "" {
		redis.InitRedis(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := redis.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, keeping decision etags in memory")
		} else {
			opts = append(opts, playback.WithCache(redis.NewDecisionCache(redis.Rdb, etagTTL)))
		}
	}

	if cfg.MQTTBrokerURL != "" {
		publisher, err := middleware.CreateMQTTClient(cfg.MQTTBrokerURL, "vantage-server")
		if err != nil {
			log.Warn().Err(err).Msg("mqtt unavailable, devices must poll for playback")
		} else {
			defer publisher.Close()
			opts = append(opts, playback.WithNotifier(publisher))
		}
	}

	playback.RegisterMetrics()
	middleware.RegisterMetrics()

	opts = append(opts, playback.WithAsyncInvalidate())
	service := playback.NewService(store, opts...)
	go playback.NewRefresher(service, cfg.RefreshInterval).Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, store, InitStorage(cfg), service)

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: r,
	}

	go func() {
		log.Info().Str("address", cfg.ServerAddress).Str("environment", cfg.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	service.Wait()
	if err := db.DB.Close(); err != nil {
		log.Error().Err(err).Msg("closing database")
	}
}
