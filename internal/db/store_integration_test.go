package db

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

// TestStoreIntegration runs the store against a real database. It needs
// TEST_DATABASE_URL pointing at a disposable Postgres.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := InitTestDB()
	require.NoError(t, err)

	email := "owner-" + time.Now().Format("150405.000000") + "@example.com"
	userID, err := store.CreateUser(email, "hashed", nil)
	require.NoError(t, err)

	t.Run("pairing code is single use", func(t *testing.T) {
		screen, err := store.CreateScreen("Lobby", nil, nil, userID)
		require.NoError(t, err)
		require.NotNil(t, screen.PairingCode)

		paired, err := store.ClaimScreen(*screen.PairingCode, "dev-"+email, nil, nil)
		require.NoError(t, err)
		assert.True(t, paired.Paired())

		_, err = store.ClaimScreen(*screen.PairingCode, "other-"+email, nil, nil)
		assert.ErrorIs(t, err, ErrPairingCodeInvalid)
	})

	t.Run("assignments upsert on screen and media", func(t *testing.T) {
		screen, err := store.CreateScreen("Hall", nil, nil, userID)
		require.NoError(t, err)
		media, err := store.CreateMedia(model.MediaItem{
			Name: "promo", URL: "/uploads/promo.png", Type: model.MediaTypeImage,
			MimeType: "image/png", CreatedBy: userID,
		})
		require.NoError(t, err)

		target := model.Targeting{
			Gender: model.GenderAll, AgeGroup: model.AgeGroupAll,
			Orientation: model.OrientationAny, DaysOfWeek: model.AllDays,
		}
		first, err := store.UpsertAssignment(screen.ID, media.ID, target)
		require.NoError(t, err)

		target.Gender = model.GenderMale
		second, err := store.UpsertAssignment(screen.ID, media.ID, target)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, model.GenderMale, second.Gender)

		list, err := store.ListAssignmentsForScreen(screen.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("folder removal keeps media", func(t *testing.T) {
		folder, err := store.CreateFolder("Summer", userID)
		require.NoError(t, err)
		media, err := store.CreateMedia(model.MediaItem{
			Name: "beach", URL: "/uploads/beach.png", Type: model.MediaTypeImage,
			MimeType: "image/png", FolderID: &folder.ID, CreatedBy: userID,
		})
		require.NoError(t, err)

		moved, err := store.RemoveFolder(folder.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, moved)

		kept, err := store.GetMediaByID(media.ID)
		require.NoError(t, err)
		assert.Nil(t, kept.FolderID)
	})
}
