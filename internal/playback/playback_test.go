package playback

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

func ptr[T any](v T) *T { return &v }

type fakeSource struct {
	screens     map[int]model.Screen
	media       map[int]model.MediaItem
	rules       []model.Rule
	assignments map[int][]model.Assignment
	snapshots   map[int]model.AudienceSnapshot
}

func (f *fakeSource) GetScreenByID(id int) (model.Screen, error) {
	s, ok := f.screens[id]
	if !ok {
		return model.Screen{}, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeSource) GetMediaByID(id int) (model.MediaItem, error) {
	m, ok := f.media[id]
	if !ok {
		return model.MediaItem{}, sql.ErrNoRows
	}
	return m, nil
}

func (f *fakeSource) ListPairedScreens() ([]model.Screen, error) {
	var out []model.Screen
	for _, s := range f.screens {
		if s.Paired() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) ListCandidateRules(int) ([]model.Rule, error) {
	return f.rules, nil
}

func (f *fakeSource) ListAssignmentsForScreen(screenID int) ([]model.Assignment, error) {
	return f.assignments[screenID], nil
}

func (f *fakeSource) GetLatestSnapshot(screenID int) (model.AudienceSnapshot, error) {
	s, ok := f.snapshots[screenID]
	if !ok {
		return model.AudienceSnapshot{}, sql.ErrNoRows
	}
	return s, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (n *recordingNotifier) Publish(deviceID string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messages == nil {
		n.messages = map[string][][]byte{}
	}
	n.messages[deviceID] = append(n.messages[deviceID], payload)
	return nil
}

func (n *recordingNotifier) count(deviceID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[deviceID])
}

// Tuesday 2025-01-07 10:00 UTC
var tuesdayMorning = time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

func newFixture() *fakeSource {
	promo := model.MediaItem{ID: 10, Name: "promo", URL: "/uploads/promo.mp4", Type: model.MediaTypeVideo, DurationSeconds: ptr(25)}
	crowd := model.MediaItem{ID: 11, Name: "crowd", URL: "/uploads/crowd.png", Type: model.MediaTypeImage}
	idle := model.MediaItem{ID: 12, Name: "idle", URL: "/uploads/idle.png", Type: model.MediaTypeImage}

	return &fakeSource{
		screens: map[int]model.Screen{
			1: {ID: 1, Name: "Lobby", Status: model.ScreenStatusPaired, DeviceID: ptr("dev-1"), DefaultMediaID: ptr(12), CreatedBy: 7},
		},
		media: map[int]model.MediaItem{10: promo, 11: crowd, 12: idle},
		assignments: map[int][]model.Assignment{
			1: {{
				ID: 1, ScreenID: 1, MediaID: 10,
				Gender: model.GenderAll, AgeGroup: model.AgeGroupAll, Orientation: model.OrientationAny,
				DailyStartTime: ptr("09:00"), DailyEndTime: ptr("17:00"),
				DaysOfWeek: "Mon,Tue,Wed,Thu,Fri",
				Media:      &promo,
			}},
		},
		snapshots: map[int]model.AudienceSnapshot{},
	}
}

func crowdRule() model.Rule {
	return model.Rule{ID: 3, Name: "crowd", Priority: 90, MinPeople: ptr(5), IsActive: true, OutputMediaID: 11, CreatedBy: 7}
}

func TestDecideRuleTierWins(t *testing.T) {
	src := newFixture()
	src.rules = []model.Rule{crowdRule()}
	src.snapshots[1] = model.AudienceSnapshot{ScreenID: 1, PeopleCount: 6, CapturedAt: tuesdayMorning.Add(-30 * time.Second)}

	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)), WithStaleAfter(2*time.Minute))
	d, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, SourceRule, d.Source)
	require.NotNil(t, d.RuleID)
	assert.Equal(t, 3, *d.RuleID)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 11, d.Items[0].MediaID)
	assert.Equal(t, model.DefaultDurationSeconds, d.Items[0].Duration)
}

func TestDecideFallsBackToScheduleWhenNoRuleMatches(t *testing.T) {
	src := newFixture()
	src.rules = []model.Rule{crowdRule()}
	src.snapshots[1] = model.AudienceSnapshot{ScreenID: 1, PeopleCount: 2, CapturedAt: tuesdayMorning}

	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)))
	d, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, SourceSchedule, d.Source)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 10, d.Items[0].MediaID)
	assert.Equal(t, 25, d.Items[0].Duration)
}

func TestDecideStaleSnapshotIsEmptyAudience(t *testing.T) {
	src := newFixture()
	src.rules = []model.Rule{crowdRule()}
	src.snapshots[1] = model.AudienceSnapshot{ScreenID: 1, PeopleCount: 20, CapturedAt: tuesdayMorning.Add(-10 * time.Minute)}

	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)), WithStaleAfter(2*time.Minute))
	d, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, SourceSchedule, d.Source)
}

func TestDecideFutureSnapshotIsEmptyAudience(t *testing.T) {
	src := newFixture()
	src.rules = []model.Rule{crowdRule()}
	future := model.AudienceSnapshot{ScreenID: 1, PeopleCount: 20, CapturedAt: tuesdayMorning.AddDate(1, 0, 0)}
	src.snapshots[1] = future

	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)), WithStaleAfter(2*time.Minute))
	d, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, SourceSchedule, d.Source)

	snap := EffectiveSnapshot(1, &future, tuesdayMorning, 0)
	assert.Zero(t, snap.PeopleCount)
}

func TestDecideDefaultOutsideSchedule(t *testing.T) {
	src := newFixture()
	evening := time.Date(2025, 1, 7, 20, 0, 0, 0, time.UTC)

	svc := NewService(src, WithClock(NewStubClock(evening)))
	d, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, SourceDefault, d.Source)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 12, d.Items[0].MediaID)
}

func TestDecideNothingToPlay(t *testing.T) {
	src := newFixture()
	s := src.screens[1]
	s.DefaultMediaID = nil
	src.screens[1] = s
	saturday := time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC)

	svc := NewService(src, WithClock(NewStubClock(saturday)))
	d, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, SourceNone, d.Source)
	assert.Empty(t, d.Items)
	assert.NotEmpty(t, d.ETag)
}

func TestDecideUnknownScreen(t *testing.T) {
	svc := NewService(newFixture())
	_, err := svc.Decide(context.Background(), 404)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestETagIgnoresDecisionTime(t *testing.T) {
	src := newFixture()
	clock := NewStubClock(tuesdayMorning)
	svc := NewService(src, WithClock(clock))

	first, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := svc.Decide(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.ETag, second.ETag)
	assert.NotEqual(t, first.DecidedAt, second.DecidedAt)
}

func TestSyncPushesOnlyOnChange(t *testing.T) {
	src := newFixture()
	notifier := &recordingNotifier{}
	clock := NewStubClock(tuesdayMorning)
	svc := NewService(src, WithClock(clock), WithNotifier(notifier))
	ctx := context.Background()

	_, changed, err := svc.Sync(ctx, 1)
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = svc.Sync(ctx, 1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, notifier.count("dev-1"))

	clock.Set(time.Date(2025, 1, 7, 18, 0, 0, 0, time.UTC))
	d, changed, err := svc.Sync(ctx, 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, SourceDefault, d.Source)
	require.Equal(t, 2, notifier.count("dev-1"))

	var msg ContentUpdate
	require.NoError(t, json.Unmarshal(notifier.messages["dev-1"][1], &msg))
	assert.Equal(t, "content_update", msg.Type)
	assert.Equal(t, d.ETag, msg.Decision.ETag)
}

func TestInvalidateForcesPush(t *testing.T) {
	src := newFixture()
	notifier := &recordingNotifier{}
	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)), WithNotifier(notifier))
	ctx := context.Background()

	_, _, err := svc.Sync(ctx, 1)
	require.NoError(t, err)
	svc.Invalidate(ctx, 1)

	assert.Equal(t, 2, notifier.count("dev-1"))
}

func TestInvalidateAsyncDropsETagsBeforeReturning(t *testing.T) {
	src := newFixture()
	notifier := &recordingNotifier{}
	cache := NewMemoryCache()
	svc := NewService(src,
		WithClock(NewStubClock(tuesdayMorning)),
		WithNotifier(notifier),
		WithCache(cache),
		WithAsyncInvalidate(),
	)
	ctx, cancel := context.WithCancel(context.Background())

	_, _, err := svc.Sync(ctx, 1)
	require.NoError(t, err)

	svc.Invalidate(ctx, 1)
	cancel()
	svc.Wait()

	assert.Equal(t, 2, notifier.count("dev-1"))
	etag, err := cache.GetETag(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
}

func TestSyncSkipsUnpairedScreens(t *testing.T) {
	src := newFixture()
	src.screens[2] = model.Screen{ID: 2, Name: "Back", Status: model.ScreenStatusPending, CreatedBy: 7}
	notifier := &recordingNotifier{}
	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)), WithNotifier(notifier))

	_, changed, err := svc.Sync(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, notifier.messages)
}

func TestRefresherTick(t *testing.T) {
	src := newFixture()
	notifier := &recordingNotifier{}
	svc := NewService(src, WithClock(NewStubClock(tuesdayMorning)), WithNotifier(notifier))
	r := NewRefresher(svc, time.Second)
	ctx := context.Background()

	assert.Equal(t, 1, r.Tick(ctx))
	assert.Equal(t, 0, r.Tick(ctx))
}

func TestRefresherRunStopsOnCancel(t *testing.T) {
	svc := NewService(newFixture())
	r := NewRefresher(svc, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestResolveRespectsOrientationAndAudience(t *testing.T) {
	video := model.MediaItem{ID: 20, URL: "/v.mp4", Type: model.MediaTypeVideo}
	portrait := model.MediaItem{ID: 21, URL: "/p.png", Type: model.MediaTypeImage}
	in := Inputs{
		Screen: model.Screen{ID: 1, ClientWidth: ptr(1920), ClientHeight: ptr(1080)},
		Assignments: []model.Assignment{
			{ID: 1, MediaID: 20, Gender: model.GenderMale, AgeGroup: model.AgeGroupAll, Orientation: model.OrientationAny, DaysOfWeek: model.AllDays, Media: &video},
			{ID: 2, MediaID: 21, Gender: model.GenderAll, AgeGroup: model.AgeGroupAll, Orientation: model.OrientationPortrait, DaysOfWeek: model.AllDays, Media: &portrait},
		},
		Snapshot: &model.AudienceSnapshot{ScreenID: 1, PeopleCount: 3, FemaleCount: 3, CapturedAt: tuesdayMorning},
	}

	d := Resolve(in, tuesdayMorning, 0)
	assert.Equal(t, SourceNone, d.Source)

	in.Snapshot = &model.AudienceSnapshot{ScreenID: 1, PeopleCount: 3, MaleCount: 2, FemaleCount: 1, CapturedAt: tuesdayMorning}
	d = Resolve(in, tuesdayMorning, 0)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 20, d.Items[0].MediaID)
}

func TestResolveRuleWithMissingMediaFallsThrough(t *testing.T) {
	promo := model.MediaItem{ID: 10, URL: "/promo.png", Type: model.MediaTypeImage}
	in := Inputs{
		Screen: model.Screen{ID: 1},
		Rules:  []model.Rule{crowdRule()},
		Assignments: []model.Assignment{
			{ID: 1, MediaID: 10, Gender: model.GenderAll, AgeGroup: model.AgeGroupAll, Orientation: model.OrientationAny, DaysOfWeek: model.AllDays, Media: &promo},
		},
		Snapshot: &model.AudienceSnapshot{ScreenID: 1, PeopleCount: 8, CapturedAt: tuesdayMorning},
		Media:    map[int]model.MediaItem{10: promo},
	}

	d := Resolve(in, tuesdayMorning, 0)
	assert.Equal(t, SourceSchedule, d.Source)
	assert.Nil(t, d.RuleID)
	require.Len(t, d.Items, 1)
	assert.Equal(t, 10, d.Items[0].MediaID)
}
