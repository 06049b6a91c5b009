package repository

import (
	"context"

	"github.com/alexanderramin/lifelog/internal/domain"
)

type HabitRepo interface {
	Create(ctx context.Context, h *domain.Habit) error
	GetByID(ctx context.Context, userID, id string) (*domain.Habit, error)
	FindByKey(ctx context.Context, userID string, key domain.EntityKey) (*domain.Habit, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Habit, error)
	Update(ctx context.Context, h *domain.Habit) error
	UpdateStreaks(ctx context.Context, h *domain.Habit) error
	Delete(ctx context.Context, userID, id string) error
}

type EntryRepo interface {
	// Upsert inserts e or, when (habit, date, user) already exists, updates
	// that row in place. It never produces two rows for one key.
	Upsert(ctx context.Context, e *domain.Entry) error
	ListByHabit(ctx context.Context, userID, habitID string) ([]*domain.Entry, error)
	// ExistingDates returns habit id -> set of YYYY-MM-DD dates already stored.
	ExistingDates(ctx context.Context, userID string, habitIDs []string) (map[string]map[string]bool, error)
	CountByHabit(ctx context.Context, userID string) (map[string]int, error)
	DeleteByHabit(ctx context.Context, userID, habitID string) (int64, error)
}
