package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/repository"
)

// FailingEntryRepo wraps an EntryRepo and fails Upsert for selected dates.
// Everything else passes through. Safe for concurrent use.
type FailingEntryRepo struct {
	repository.EntryRepo
	FailDates map[string]bool // YYYY-MM-DD
	Err       error

	mu       sync.Mutex
	upserted int
}

func (f *FailingEntryRepo) Upsert(ctx context.Context, e *domain.Entry) error {
	if f.FailDates[domain.DayKey(e.Date)] {
		return f.Err
	}
	if err := f.EntryRepo.Upsert(ctx, e); err != nil {
		return err
	}
	f.mu.Lock()
	f.upserted++
	f.mu.Unlock()
	return nil
}

// Upserted returns how many writes reached the wrapped repo.
func (f *FailingEntryRepo) Upserted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserted
}

// PanickingHabitRepo wraps a HabitRepo and panics on ListByUser, to exercise
// stage recovery.
type PanickingHabitRepo struct {
	repository.HabitRepo
}

func (p *PanickingHabitRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Habit, error) {
	panic("habit store unavailable")
}
