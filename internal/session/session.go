// Package session keeps the inputs of imports that stopped for conflict
// resolution, so a resume request can refer to them by id instead of sending
// the files again.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/google/uuid"
)

// DefaultTTL is how long a pending import is kept.
const DefaultTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("import session not found")

// Pending is an import waiting for conflict resolutions.
type Pending struct {
	ID             string                    `json:"id"`
	UserID         string                    `json:"userId"`
	Files          importer.RawFileSet       `json:"files"`
	HabitFiles     []importer.HabitFile      `json:"habitFiles,omitempty"`
	FolderMappings map[string]string         `json:"folderMappings,omitempty"`
	Conflicts      []importer.ConflictRecord `json:"conflicts"`
	CreatedAt      time.Time                 `json:"createdAt"`
}

// FromRequest captures the parts of req needed to run it again.
func FromRequest(req importer.Request, conflicts []importer.ConflictRecord, now time.Time) Pending {
	return Pending{
		UserID:         req.UserID,
		Files:          req.Files,
		HabitFiles:     req.HabitFiles,
		FolderMappings: req.FolderMappings,
		Conflicts:      conflicts,
		CreatedAt:      now.UTC(),
	}
}

// Apply fills the file inputs of req from p. Resolutions and flags already
// on req are kept.
func (p Pending) Apply(req *importer.Request) {
	req.Files = p.Files
	req.HabitFiles = p.HabitFiles
	if len(req.FolderMappings) == 0 {
		req.FolderMappings = p.FolderMappings
	}
}

// Store persists pending imports. Load only returns sessions owned by
// userID; anything else, including expired sessions, is ErrSessionNotFound.
type Store interface {
	Save(ctx context.Context, p Pending) (string, error)
	Load(ctx context.Context, userID, id string) (Pending, error)
	Delete(ctx context.Context, id string) error
}

func newID() string { return uuid.New().String() }
