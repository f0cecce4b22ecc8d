package playback

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Refresher periodically re-syncs every paired screen so time-based changes
// (schedule windows opening, snapshots going stale) are pushed.
type Refresher struct {
	service  *Service
	source   Source
	interval time.Duration
}

func NewRefresher(service *Service, interval time.Duration) *Refresher {
	return &Refresher{service: service, source: service.source, interval: interval}
}

// Run blocks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		log.Warn().Msg("playback refresher disabled")
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("playback refresher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("playback refresher stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one refresh pass and returns the number of screens pushed.
func (r *Refresher) Tick(ctx context.Context) int {
	screens, err := r.source.ListPairedScreens()
	if err != nil {
		log.Error().Err(err).Msg("refresher failed to list screens")
		return 0
	}

	pushed := 0
	for _, screen := range screens {
		if ctx.Err() != nil {
			break
		}
		_, changed, err := r.service.Sync(ctx, screen.ID)
		if err != nil {
			log.Warn().Err(err).Int("screen_id", screen.ID).Msg("refresh failed")
			continue
		}
		if changed {
			pushed++
		}
	}
	return pushed
}
