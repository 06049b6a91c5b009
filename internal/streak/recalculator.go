package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/lifelog/internal/db"
	"github.com/alexanderramin/lifelog/internal/repository"
)

// Recalculator recomputes and stores a habit's streak counters. Running it
// again with no new entries rewrites the same values.
type Recalculator struct {
	uow db.UnitOfWork
	now func() time.Time
}

func NewRecalculator(uow db.UnitOfWork) *Recalculator {
	return &Recalculator{uow: uow, now: time.Now}
}

// WithClock overrides the time source used to pick "today".
func (r *Recalculator) WithClock(now func() time.Time) *Recalculator {
	r.now = now
	return r
}

func (r *Recalculator) Recalculate(ctx context.Context, userID, habitID string) (Result, error) {
	var res Result
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		habits := repository.NewSQLiteHabitRepo(tx)
		entries := repository.NewSQLiteEntryRepo(tx)

		h, err := habits.GetByID(ctx, userID, habitID)
		if err != nil {
			return fmt.Errorf("loading habit: %w", err)
		}
		list, err := entries.ListByHabit(ctx, userID, habitID)
		if err != nil {
			return fmt.Errorf("loading entries: %w", err)
		}

		now := r.now().UTC()
		res = Calculate(list, now)
		h.ApplyStreaks(res.CurrentStreak, res.BestStreak, res.TotalCompletions, now)
		if err := habits.UpdateStreaks(ctx, h); err != nil {
			return fmt.Errorf("storing streaks: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("recalculating streaks for habit %s: %w", habitID, err)
	}
	return res, nil
}
