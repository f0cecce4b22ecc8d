package playback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/rules"
)

// Source is the slice of the store the decision procedure reads.
type Source interface {
	GetScreenByID(id int) (model.Screen, error)
	GetMediaByID(id int) (model.MediaItem, error)
	ListPairedScreens() ([]model.Screen, error)
	ListCandidateRules(screenID int) ([]model.Rule, error)
	ListAssignmentsForScreen(screenID int) ([]model.Assignment, error)
	GetLatestSnapshot(screenID int) (model.AudienceSnapshot, error)
}

// Cache remembers the last ETag pushed to each screen.
type Cache interface {
	GetETag(ctx context.Context, screenID int) (string, error)
	SetETag(ctx context.Context, screenID int, etag string) error
	DeleteETags(ctx context.Context, screenIDs ...int) error
}

// Notifier delivers a payload to a paired device.
type Notifier interface {
	Publish(deviceID string, payload []byte) error
}

// ContentUpdate is the message pushed to a device when its decision changes.
type ContentUpdate struct {
	Type     string   `json:"type"`
	Decision Decision `json:"decision"`
}

type Service struct {
	source     Source
	cache      Cache
	notifier   Notifier
	clock      Clock
	staleAfter time.Duration
	async      bool
	pending    sync.WaitGroup
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithStaleAfter sets how old a snapshot may be before it is ignored.
// Zero disables the check.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) { s.staleAfter = d }
}

// WithAsyncInvalidate makes Invalidate return once the cached ETags are
// dropped, re-syncing the screens in the background. Wait blocks until
// those re-syncs finish.
func WithAsyncInvalidate() Option {
	return func(s *Service) { s.async = true }
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		clock:  RealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewMemoryCache()
	}
	return s
}

// Decide loads the screen's inputs and resolves what it should play now.
func (s *Service) Decide(ctx context.Context, screenID int) (Decision, error) {
	start := time.Now()

	in, err := s.load(screenID)
	if err != nil {
		return Decision{}, err
	}

	d := Resolve(in, s.clock.Now(), s.staleAfter)
	decisions.WithLabelValues(d.Source).Inc()
	decideDuration.Observe(time.Since(start).Seconds())

	log.Debug().
		Int("screen_id", screenID).
		Str("source", d.Source).
		Int("items", len(d.Items)).
		Str("etag", d.ETag).
		Msg("playback decided")
	return d, nil
}

func (s *Service) load(screenID int) (Inputs, error) {
	screen, err := s.source.GetScreenByID(screenID)
	if err != nil {
		return Inputs{}, err
	}

	candidates, err := s.source.ListCandidateRules(screenID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load rules: %w", err)
	}

	assignments, err := s.source.ListAssignmentsForScreen(screenID)
	if err != nil {
		return Inputs{}, fmt.Errorf("load assignments: %w", err)
	}

	in := Inputs{
		Screen:      screen,
		Rules:       candidates,
		Assignments: assignments,
		Media:       map[int]model.MediaItem{},
	}

	snap, err := s.source.GetLatestSnapshot(screenID)
	switch {
	case err == nil:
		in.Snapshot = &snap
	case !errors.Is(err, sql.ErrNoRows):
		return Inputs{}, fmt.Errorf("load snapshot: %w", err)
	}

	// only the winning rule's media is needed
	effective := EffectiveSnapshot(screenID, in.Snapshot, s.clock.Now(), s.staleAfter)
	if winner, ok := rules.Evaluate(screenID, effective, candidates); ok {
		s.addMedia(in.Media, winner.OutputMediaID)
	}
	if screen.DefaultMediaID != nil {
		s.addMedia(in.Media, *screen.DefaultMediaID)
	}
	return in, nil
}

func (s *Service) addMedia(into map[int]model.MediaItem, id int) {
	m, err := s.source.GetMediaByID(id)
	if err != nil {
		log.Warn().Err(err).Int("media_id", id).Msg("decision media unavailable")
		return
	}
	into[id] = m
}

// Sync decides for a screen and, when the ETag differs from the last one
// pushed, records it and notifies the device. Returns whether a push happened.
func (s *Service) Sync(ctx context.Context, screenID int) (Decision, bool, error) {
	d, err := s.Decide(ctx, screenID)
	if err != nil {
		return Decision{}, false, err
	}

	prev, err := s.cache.GetETag(ctx, screenID)
	if err != nil {
		log.Warn().Err(err).Int("screen_id", screenID).Msg("failed to read cached etag")
	}
	if prev == d.ETag {
		return d, false, nil
	}

	if err := s.push(screenID, d); err != nil {
		pushes.WithLabelValues("error").Inc()
		return d, false, err
	}
	if err := s.cache.SetETag(ctx, screenID, d.ETag); err != nil {
		log.Warn().Err(err).Int("screen_id", screenID).Msg("failed to cache etag")
	}
	return d, true, nil
}

func (s *Service) push(screenID int, d Decision) error {
	if s.notifier == nil {
		return nil
	}
	screen, err := s.source.GetScreenByID(screenID)
	if err != nil {
		return err
	}
	if !screen.Paired() || screen.DeviceID == nil {
		pushes.WithLabelValues("skipped").Inc()
		return nil
	}

	payload, err := json.Marshal(ContentUpdate{Type: "content_update", Decision: d})
	if err != nil {
		return err
	}
	if err := s.notifier.Publish(*screen.DeviceID, payload); err != nil {
		log.Error().Err(err).
			Int("screen_id", screenID).
			Str("device_id", *screen.DeviceID).
			Msg("failed to push content update")
		return err
	}
	pushes.WithLabelValues("sent").Inc()
	return nil
}

// Invalidate forgets the pushed ETags of the given screens and re-syncs them,
// so operator edits reach devices without waiting for the refresher.
func (s *Service) Invalidate(ctx context.Context, screenIDs ...int) {
	if len(screenIDs) == 0 {
		return
	}
	if err := s.cache.DeleteETags(ctx, screenIDs...); err != nil {
		log.Warn().Err(err).Ints("screen_ids", screenIDs).Msg("failed to drop cached etags")
	}
	if !s.async {
		s.resync(ctx, screenIDs)
		return
	}

	ids := append([]int(nil), screenIDs...)
	bg := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.resync(bg, ids)
	}()
}

// Wait blocks until background re-syncs started by Invalidate have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) resync(ctx context.Context, screenIDs []int) {
	for _, id := range screenIDs {
		if _, _, err := s.Sync(ctx, id); err != nil {
			log.Warn().Err(err).Int("screen_id", id).Msg("sync after invalidate failed")
		}
	}
}
