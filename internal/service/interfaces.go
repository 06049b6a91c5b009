package service

import (
	"context"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/streak"
)

// ImportRequest is an import call. SessionID, when set, names a pending
// import whose files are reused; the request then only needs resolutions.
type ImportRequest struct {
	importer.Request
	SessionID string `json:"sessionId,omitempty"`
}

// ImportOutcome is the pipeline result plus the session id under which a
// suspended import was stored.
type ImportOutcome struct {
	*importer.Result
	SessionID string `json:"sessionId,omitempty"`
}

type ImportService interface {
	Import(ctx context.Context, req ImportRequest, sink importer.ProgressSink) (*ImportOutcome, error)
}

type HabitService interface {
	List(ctx context.Context, userID string) ([]*domain.Habit, error)
	// Delete removes a habit and its entries, returning how many entries
	// went with it.
	Delete(ctx context.Context, userID, habitID string) (int64, error)
	// Rename gives a stored habit a new name. Its id, polarity and entries
	// stay as they are.
	Rename(ctx context.Context, userID, habitID, newName string) (*domain.Habit, error)
	// RecalculateAll recomputes streaks for every habit of the user.
	RecalculateAll(ctx context.Context, userID string) (map[string]streak.Result, error)
}
