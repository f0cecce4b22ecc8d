// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

var (
	ErrPairingCodeInvalid = errors.New("pairing code is invalid or already used")
	ErrNoSuchUser         = errors.New("no such user")
	ErrEmailTaken         = errors.New("email already registered")
)

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// media functions
	CreateMedia(m model.MediaItem) (model.MediaItem, error)
	GetMediaByID(id int) (model.MediaItem, error)
	SearchMedia(ownerID int, names, types []string, folderID *int) ([]model.MediaItem, error)
	MoveMediaToFolder(id int, folderID *int) error
	DeleteMedia(id int) error

	// folder functions
	CreateFolder(name string, ownerID int) (model.Folder, error)
	GetFolderByID(id int) (model.Folder, error)
	ListFolders(ownerID int) ([]model.Folder, error)
	RenameFolder(id int, name string) (model.Folder, error)
	RemoveFolder(id int) (int64, error)
	BulkAssignFolder(folderID, screenID int, t model.Targeting) (int, error)

	// screen functions
	CreateScreen(name string, area, city *string, createdBy int) (model.Screen, error)
	GetScreenByID(id int) (model.Screen, error)
	GetScreenByDeviceID(deviceID string) (model.Screen, error)
	ListScreens(ownerID int) ([]model.Screen, error)
	ListPairedScreens() ([]model.Screen, error)
	UpdateScreen(id int, name, area, city *string) error
	SetDefaultMedia(id int, mediaID *int) error
	RegeneratePairingCode(id int) (string, error)
	ClaimScreen(code, deviceID string, width, height *int) (model.Screen, error)
	DeleteScreen(id int) error

	// assignment functions
	UpsertAssignment(screenID, mediaID int, t model.Targeting) (model.Assignment, error)
	ListAssignmentsForScreen(screenID int) ([]model.Assignment, error)
	DeleteAssignment(screenID, mediaID int) error

	// rule functions
	CreateRule(r model.Rule) (model.Rule, error)
	GetRuleByID(id int) (model.Rule, error)
	ListRules(ownerID int, screenID *int) ([]model.Rule, error)
	ListCandidateRules(screenID int) ([]model.Rule, error)
	UpdateRule(r model.Rule) (model.Rule, error)
	SetRuleActive(id int, active bool) error
	DeleteRule(id int) error

	// audience functions
	InsertSnapshot(s model.AudienceSnapshot, faces []model.AudienceFace) (model.AudienceSnapshot, error)
	GetLatestSnapshot(screenID int) (model.AudienceSnapshot, error)
	AggregateAudience(screenID int, from, to time.Time) (model.AudienceSummary, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
// required so linter doesn't complain
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}
