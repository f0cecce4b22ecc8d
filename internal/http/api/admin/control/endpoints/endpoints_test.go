package endpoints

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/playback"
)

// memStore keeps just enough state for handler tests. Unused Store methods
// panic through the nil embedded interface.
type memStore struct {
	db.Store
	screens     map[int]model.Screen
	media       map[int]model.MediaItem
	folders     map[int]model.Folder
	rules       map[int]model.Rule
	assignments []model.Assignment
	nextID      int
}

func newMemStore() *memStore {
	return &memStore{
		screens: map[int]model.Screen{
			1: {ID: 1, Name: "Lobby", Status: model.ScreenStatusPaired, CreatedBy: 1},
			2: {ID: 2, Name: "Window", Status: model.ScreenStatusPending, CreatedBy: 1},
			9: {ID: 9, Name: "Elsewhere", CreatedBy: 2},
		},
		media: map[int]model.MediaItem{
			10: {ID: 10, Name: "promo.mp4", Type: model.MediaTypeVideo, CreatedBy: 1},
			90: {ID: 90, Name: "foreign.png", Type: model.MediaTypeImage, CreatedBy: 2},
		},
		folders: map[int]model.Folder{
			5: {ID: 5, Name: "Spring", CreatedBy: 1},
		},
		rules:  map[int]model.Rule{},
		nextID: 100,
	}
}

func (m *memStore) GetScreenByID(id int) (model.Screen, error) {
	s, ok := m.screens[id]
	if !ok {
		return model.Screen{}, sql.ErrNoRows
	}
	return s, nil
}

func (m *memStore) ListScreens(ownerID int) ([]model.Screen, error) {
	var out []model.Screen
	for _, id := range []int{1, 2, 9} {
		if s, ok := m.screens[id]; ok && s.CreatedBy == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) SetDefaultMedia(id int, mediaID *int) error {
	s := m.screens[id]
	s.DefaultMediaID = mediaID
	m.screens[id] = s
	return nil
}

func (m *memStore) RegeneratePairingCode(id int) (string, error) {
	s := m.screens[id]
	code := "XYZ789"
	s.PairingCode = &code
	s.Status = model.ScreenStatusPending
	s.DeviceID = nil
	m.screens[id] = s
	return code, nil
}

func (m *memStore) GetMediaByID(id int) (model.MediaItem, error) {
	item, ok := m.media[id]
	if !ok {
		return model.MediaItem{}, sql.ErrNoRows
	}
	return item, nil
}

func (m *memStore) GetFolderByID(id int) (model.Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return model.Folder{}, sql.ErrNoRows
	}
	return f, nil
}

func (m *memStore) RemoveFolder(id int) (int64, error) {
	delete(m.folders, id)
	return 3, nil
}

func (m *memStore) BulkAssignFolder(folderID, screenID int, t model.Targeting) (int, error) {
	return 2, nil
}

func (m *memStore) UpsertAssignment(screenID, mediaID int, t model.Targeting) (model.Assignment, error) {
	m.nextID++
	a := model.Assignment{
		ID: m.nextID, ScreenID: screenID, MediaID: mediaID, Duration: t.Duration,
		Gender: t.Gender, AgeGroup: t.AgeGroup, Orientation: t.Orientation,
		DailyStartTime: t.DailyStartTime, DailyEndTime: t.DailyEndTime, DaysOfWeek: t.DaysOfWeek,
	}
	m.assignments = append(m.assignments, a)
	return a, nil
}

func (m *memStore) CreateRule(r model.Rule) (model.Rule, error) {
	m.nextID++
	r.ID = m.nextID
	m.rules[r.ID] = r
	return r, nil
}

func (m *memStore) GetRuleByID(id int) (model.Rule, error) {
	r, ok := m.rules[id]
	if !ok {
		return model.Rule{}, sql.ErrNoRows
	}
	return r, nil
}

func (m *memStore) SetRuleActive(id int, active bool) error {
	r, ok := m.rules[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.IsActive = active
	m.rules[id] = r
	return nil
}

func (m *memStore) ListCandidateRules(screenID int) ([]model.Rule, error) {
	var out []model.Rule
	for _, r := range m.rules {
		if r.IsActive && (r.ScreenID == nil || *r.ScreenID == screenID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetLatestSnapshot(screenID int) (model.AudienceSnapshot, error) {
	if screenID != 1 {
		return model.AudienceSnapshot{}, sql.ErrNoRows
	}
	return model.AudienceSnapshot{ID: 4, ScreenID: 1, PeopleCount: 3}, nil
}

func (m *memStore) AggregateAudience(screenID int, from, to time.Time) (model.AudienceSummary, error) {
	return model.AudienceSummary{ScreenID: screenID, From: from, To: to, UniquePeople: 5}, nil
}

type recordingDecider struct {
	invalidated []int
}

func (d *recordingDecider) Decide(ctx context.Context, screenID int) (playback.Decision, error) {
	return playback.Decision{ScreenID: screenID, Source: playback.SourceNone}, nil
}

func (d *recordingDecider) Invalidate(ctx context.Context, screenIDs ...int) {
	d.invalidated = append(d.invalidated, screenIDs...)
}

func setupRouter(t *testing.T, userID int) (*gin.Engine, *memStore, *recordingDecider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	decider := &recordingDecider{}

	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set("currentUser", &model.User{ID: userID, Email: "ops@example.com"})
	})
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		ScreenModule(store, decider),
		MediaModule(store, nil, decider),
		RuleModule(store, decider),
		AnalyticsModule(store),
	)
	return r, store, decider
}

func call(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScreen_OwnershipEnforced(t *testing.T) {
	r, _, _ := setupRouter(t, 1)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/admin/screens/1", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/admin/screens/9", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/admin/screens/404", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/admin/screens/abc", nil).Code)
}

func TestScreen_SetDefaultMedia(t *testing.T) {
	r, store, decider := setupRouter(t, 1)

	w := call(r, http.MethodPut, "/api/admin/screens/1/default_media", gin.H{"media_id": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, store.screens[1].DefaultMediaID)
	assert.Equal(t, 10, *store.screens[1].DefaultMediaID)
	assert.Equal(t, []int{1}, decider.invalidated)

	w = call(r, http.MethodPut, "/api/admin/screens/1/default_media", gin.H{"media_id": 90})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodPut, "/api/admin/screens/1/default_media", gin.H{"media_id": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, store.screens[1].DefaultMediaID)
}

func TestScreen_RegeneratePairingCodeUnpairs(t *testing.T) {
	r, store, _ := setupRouter(t, 1)

	w := call(r, http.MethodPost, "/api/admin/screens/1/pairing_code", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "XYZ789", resp["pairing_code"])
	assert.False(t, store.screens[1].Paired())
}

func TestAssignment_UpsertAppliesDefaults(t *testing.T) {
	r, store, decider := setupRouter(t, 1)

	w := call(r, http.MethodPut, "/api/admin/screens/1/assignments/10", gin.H{
		"daily_start_time": "22:00",
		"daily_end_time":   "02:00",
		"days_of_week":     "fri, sat",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, store.assignments, 1)

	a := store.assignments[0]
	assert.Equal(t, model.GenderAll, a.Gender)
	assert.Equal(t, model.AgeGroupAll, a.AgeGroup)
	assert.Equal(t, model.OrientationAny, a.Orientation)
	assert.Equal(t, "Fri,Sat", a.DaysOfWeek)
	assert.Equal(t, []int{1}, decider.invalidated)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, model.DefaultDurationSeconds, resp["effective_duration"])
}

func TestAssignment_RejectsInvalidTargeting(t *testing.T) {
	r, store, _ := setupRouter(t, 1)

	cases := []gin.H{
		{"gender": "robot"},
		{"orientation": "diagonal"},
		{"age_group": "12-13"},
		{"daily_start_time": "10:00", "daily_end_time": "10:00"},
		{"schedule_start_date": "2025-02-01", "schedule_end_date": "2025-01-01"},
		{"days_of_week": "Funday"},
	}
	for _, body := range cases {
		w := call(r, http.MethodPut, "/api/admin/screens/1/assignments/10", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
	assert.Empty(t, store.assignments)
}

func TestAssignment_ForeignMediaForbidden(t *testing.T) {
	r, _, _ := setupRouter(t, 1)
	w := call(r, http.MethodPut, "/api/admin/screens/1/assignments/90", gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFolder_RemoveAndAssign(t *testing.T) {
	r, _, decider := setupRouter(t, 1)

	w := call(r, http.MethodPost, "/api/admin/folders/5/assign", gin.H{"screen_id": 1, "gender": "Female"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int{1}, decider.invalidated)

	w = call(r, http.MethodDelete, "/api/admin/folders/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 3, resp["unassigned_media"])

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/api/admin/folders/5", nil).Code)
}

func TestRule_CreateNormalizesAndInvalidates(t *testing.T) {
	r, store, decider := setupRouter(t, 1)

	w := call(r, http.MethodPost, "/api/admin/rules", gin.H{
		"name":              "crowd",
		"screen_id":         1,
		"min_people":        "8",
		"max_people":        3,
		"min_avg_age":       -5,
		"max_dwell_seconds": "soon",
		"output_media_id":   10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, store.rules, 1)

	var created model.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.MinPeople)
	require.NotNil(t, created.MaxPeople)
	assert.Equal(t, 3, *created.MinPeople)
	assert.Equal(t, 8, *created.MaxPeople)
	require.NotNil(t, created.MinAvgAge)
	assert.Equal(t, 0, *created.MinAvgAge)
	assert.Nil(t, created.MaxDwell)
	assert.Equal(t, 100, created.Priority)
	assert.True(t, created.IsActive)
	assert.Equal(t, []int{1}, decider.invalidated)
}

func TestRule_GlobalInvalidatesAllOwnerScreens(t *testing.T) {
	r, _, decider := setupRouter(t, 1)

	w := call(r, http.MethodPost, "/api/admin/rules", gin.H{"name": "any", "output_media_id": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.ElementsMatch(t, []int{1, 2}, decider.invalidated)
}

func TestRule_RejectsForeignReferences(t *testing.T) {
	r, store, _ := setupRouter(t, 1)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/admin/rules", gin.H{"name": "x", "screen_id": 9, "output_media_id": 10}).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/admin/rules", gin.H{"name": "x", "output_media_id": 90}).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/api/admin/rules", gin.H{"name": "x", "output_media_id": 77}).Code)
	assert.Empty(t, store.rules)
}

func TestRule_EvaluateDryRun(t *testing.T) {
	r, store, decider := setupRouter(t, 1)
	screen := 1

	store.rules[1] = model.Rule{ID: 1, Name: "low", Priority: 10, IsActive: true, MinPeople: intp(1), OutputMediaID: 10, CreatedBy: 1}
	store.rules[2] = model.Rule{ID: 2, Name: "high", Priority: 50, ScreenID: &screen, IsActive: true, MinPeople: intp(5), OutputMediaID: 10, CreatedBy: 1}

	w := call(r, http.MethodPost, "/api/admin/screens/1/evaluate", gin.H{"people_count": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Matched bool        `json:"matched"`
		Rule    *model.Rule `json:"rule"`
		Checked int         `json:"checked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Matched)
	require.NotNil(t, resp.Rule)
	assert.Equal(t, "low", resp.Rule.Name)
	assert.Equal(t, 2, resp.Checked)

	w = call(r, http.MethodPost, "/api/admin/screens/1/evaluate", gin.H{"people_count": 6})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "high", resp.Rule.Name)

	assert.Empty(t, decider.invalidated)
}

func TestRule_SetActive(t *testing.T) {
	r, store, decider := setupRouter(t, 1)
	screen := 2
	store.rules[3] = model.Rule{ID: 3, Name: "r", ScreenID: &screen, IsActive: true, OutputMediaID: 10, CreatedBy: 1}

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/api/admin/rules/3/active", gin.H{}).Code)

	w := call(r, http.MethodPut, "/api/admin/rules/3/active", gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.rules[3].IsActive)
	assert.Equal(t, []int{2}, decider.invalidated)
}

func intp(v int) *int { return &v }

func TestAnalytics_LatestAndSummary(t *testing.T) {
	r, _, _ := setupRouter(t, 1)

	w := call(r, http.MethodGet, "/api/admin/screens/1/audience/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/admin/screens/2/audience/latest", nil).Code)

	w = call(r, http.MethodGet, "/api/admin/screens/1/audience?from=2025-01-07T00:00:00Z&to=2025-01-08T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sum model.AudienceSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 5, sum.UniquePeople)
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), sum.From.UTC())

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/admin/screens/1/audience?from=2025-01-08T00:00:00Z&to=2025-01-07T00:00:00Z", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/api/admin/screens/1/audience?from=yesterday", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/admin/screens/9/audience", nil).Code)
}
