package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/lifelog/internal/db"
	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/streak"
)

// ErrInvalidHabitName is returned when a new habit name folds to nothing.
var ErrInvalidHabitName = errors.New("habit name is required")

type habitService struct {
	habits   repository.HabitRepo
	uow      db.UnitOfWork
	streaks  *streak.Recalculator
	observer UseCaseObserver
}

func NewHabitService(habits repository.HabitRepo, uow db.UnitOfWork, streaks *streak.Recalculator, observers ...UseCaseObserver) HabitService {
	return &habitService{
		habits:   habits,
		uow:      uow,
		streaks:  streaks,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *habitService) List(ctx context.Context, userID string) ([]*domain.Habit, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	return habits, nil
}

func (s *habitService) Delete(ctx context.Context, userID, habitID string) (removed int64, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "delete-habit",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"habit_id": habitID, "entries_removed": removed},
		})
	}()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		n, err := repository.NewSQLiteEntryRepo(tx).DeleteByHabit(ctx, userID, habitID)
		if err != nil {
			return fmt.Errorf("deleting entries: %w", err)
		}
		if err := repository.NewSQLiteHabitRepo(tx).Delete(ctx, userID, habitID); err != nil {
			return fmt.Errorf("deleting habit: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *habitService) Rename(ctx context.Context, userID, habitID, newName string) (h *domain.Habit, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "rename-habit",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"habit_id": habitID},
		})
	}()

	name := strings.TrimSpace(newName)
	key := domain.NewEntityKey(name)
	if key.IsZero() {
		return nil, ErrInvalidHabitName
	}

	h, err = s.habits.GetByID(ctx, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("loading habit: %w", err)
	}
	h.Name = name
	h.Key = key
	h.UpdatedAt = startedAt
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("renaming habit: %w", err)
	}
	if err := s.habits.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("renaming habit: %w", err)
	}
	return h, nil
}

func (s *habitService) RecalculateAll(ctx context.Context, userID string) (map[string]streak.Result, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	out := make(map[string]streak.Result, len(habits))
	for _, h := range habits {
		res, err := s.streaks.Recalculate(ctx, userID, h.ID)
		if err != nil {
			return out, err
		}
		out[h.ID] = res
	}
	return out, nil
}
