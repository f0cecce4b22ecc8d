package endpoints

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/storage"
)

// fakeStorage classifies uploads by extension and records deletions.
type fakeStorage struct {
	deleted []string
}

func (s *fakeStorage) SaveFile(fh *multipart.FileHeader) (storage.Stored, error) {
	stored := storage.Stored{URL: "/uploads/" + fh.Filename, Size: fh.Size}
	switch path.Ext(fh.Filename) {
	case ".png":
		stored.Type, stored.MimeType = model.MediaTypeImage, "image/png"
	case ".mp4":
		stored.Type, stored.MimeType = model.MediaTypeVideo, "video/mp4"
	default:
		return storage.Stored{}, storage.ErrUnsupportedMedia
	}
	return stored, nil
}

func (s *fakeStorage) DeleteFile(url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

type mediaStore struct {
	*memStore
	createErr error
}

func (m *mediaStore) CreateMedia(item model.MediaItem) (model.MediaItem, error) {
	if m.createErr != nil {
		return model.MediaItem{}, m.createErr
	}
	m.nextID++
	item.ID = m.nextID
	m.media[item.ID] = item
	return item, nil
}

func setupMediaRouter(t *testing.T, createErr error) (*gin.Engine, *mediaStore, *fakeStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &mediaStore{memStore: newMemStore(), createErr: createErr}
	files := &fakeStorage{}

	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set("currentUser", &model.User{ID: 1, Email: "ops@example.com"})
	})
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		MediaModule(store, files, &recordingDecider{}),
	)
	return r, store, files
}

func upload(t *testing.T, r *gin.Engine, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMedia_UploadWithThumbnail(t *testing.T) {
	r, store, files := setupMediaRouter(t, nil)

	w := upload(t, r, map[string]string{"source": "clip.mp4", "thumbnail": "clip.png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	item := store.media[store.nextID]
	assert.Equal(t, "/uploads/clip.mp4", item.URL)
	require.NotNil(t, item.ThumbnailURL)
	assert.Equal(t, "/uploads/clip.png", *item.ThumbnailURL)
	assert.Empty(t, files.deleted)
}

func TestMedia_NonImageThumbnailRemovesBothFiles(t *testing.T) {
	r, _, files := setupMediaRouter(t, nil)

	w := upload(t, r, map[string]string{"source": "clip.mp4", "thumbnail": "preview.mp4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"/uploads/clip.mp4", "/uploads/preview.mp4"}, files.deleted)
}

func TestMedia_UnsupportedThumbnailRemovesSource(t *testing.T) {
	r, _, files := setupMediaRouter(t, nil)

	w := upload(t, r, map[string]string{"source": "clip.mp4", "thumbnail": "notes.txt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"/uploads/clip.mp4"}, files.deleted)
}

func TestMedia_RecordFailureRemovesStoredFiles(t *testing.T) {
	r, _, files := setupMediaRouter(t, errors.New("connection reset"))

	w := upload(t, r, map[string]string{"source": "clip.mp4", "thumbnail": "clip.png"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.ElementsMatch(t, []string{"/uploads/clip.mp4", "/uploads/clip.png"}, files.deleted)
}
