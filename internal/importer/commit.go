package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent entry writes for one habit.
const DefaultWorkers = 4

// CommittedHabit is a habit whose entries were written (or attempted) by a
// commit. Streaks are recalculated for each of them.
type CommittedHabit struct {
	ID       string
	Name     string
	Key      domain.EntityKey
	Created  bool
	Polarity domain.Polarity
}

type CommitResult struct {
	HabitsImported  int
	HabitsSkipped   int
	EntriesImported int
	EntriesSkipped  int
	EntriesFailed   int
	Errors          []ValidationIssue
	Habits          []CommittedHabit
}

// HabitProgress is called after each habit's entries are written.
type HabitProgress func(done, total int, habit string)

// Committer writes a resolved dataset to the store. Writes are not wrapped in
// one transaction: every habit and entry succeeds or fails on its own, and
// failures are reported in the result.
type Committer struct {
	habits  repository.HabitRepo
	entries repository.EntryRepo
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

func NewCommitter(habits repository.HabitRepo, entries repository.EntryRepo, workers int, logger *slog.Logger) *Committer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Committer{habits: habits, entries: entries, workers: workers, logger: logger, now: time.Now}
}

// Commit upserts habits and their entries for userID. lookup maps habit keys
// to the user's stored habits; matching habits are reused rather than
// created. Entries already stored for a (habit, day) are skipped, so
// committing the same dataset twice writes nothing the second time.
func (c *Committer) Commit(ctx context.Context, userID string, ds *Dataset, lookup map[domain.EntityKey]*domain.Habit, progress HabitProgress) CommitResult {
	var res CommitResult
	c.commitInto(ctx, userID, ds, lookup, &res, progress)
	return res
}

// commitInto accumulates into res as it goes, so a caller that recovers from
// a panic still sees the counts reached so far.
func (c *Committer) commitInto(ctx context.Context, userID string, ds *Dataset, lookup map[domain.EntityKey]*domain.Habit, res *CommitResult, progress HabitProgress) {
	for _, in := range ds.Habits {
		ch, err := c.ensureHabit(ctx, userID, in, lookup)
		if err != nil {
			n := ds.EntryCount(in.Key())
			res.EntriesFailed += n
			res.Errors = append(res.Errors, issue(KindDatabase, SeverityError,
				fmt.Sprintf("saving habit %q: %v (%d entries not imported)", in.Name, err, n)).forEntity(in.Name))
			c.logger.Warn("habit commit failed", "habit", in.Name, "error", err)
			continue
		}
		if ch.Created {
			res.HabitsImported++
		} else {
			res.HabitsSkipped++
		}
		res.Habits = append(res.Habits, ch)
	}

	ids := make([]string, len(res.Habits))
	for i, h := range res.Habits {
		ids[i] = h.ID
	}
	existingDates, err := c.entries.ExistingDates(ctx, userID, ids)
	if err != nil {
		// Without the pre-check every write still goes through the upsert.
		c.logger.Warn("loading existing entry dates failed", "error", err)
		res.Errors = append(res.Errors, issue(KindDatabase, SeverityWarning,
			fmt.Sprintf("loading existing entries: %v; all entries will be rewritten", err)))
		existingDates = map[string]map[string]bool{}
	}

	for i, h := range res.Habits {
		c.commitEntries(ctx, userID, h, ds.Entries[h.Key], existingDates[h.ID], res)
		if progress != nil {
			progress(i+1, len(res.Habits), h.Name)
		}
	}
}

func (c *Committer) ensureHabit(ctx context.Context, userID string, in NormalizedHabit, lookup map[domain.EntityKey]*domain.Habit) (CommittedHabit, error) {
	key := in.Key()
	if ex, ok := lookup[key]; ok {
		return CommittedHabit{ID: ex.ID, Name: ex.Name, Key: key, Polarity: ex.Polarity}, nil
	}

	now := c.now().UTC().Truncate(time.Second)
	h := &domain.Habit{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         in.Name,
		Key:          key,
		Description:  in.Description,
		Question:     in.Question,
		Category:     domain.Categorize(in.Name),
		Type:         domain.TypeFor(in.Polarity),
		Polarity:     in.Polarity,
		Color:        in.Color,
		Position:     in.Position,
		TargetCount:  in.RepetitionTarget,
		IntervalDays: in.IntervalDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Validate(); err != nil {
		return CommittedHabit{}, err
	}

	err := c.habits.Create(ctx, h)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent import created it first.
		ex, findErr := c.habits.FindByKey(ctx, userID, key)
		if findErr != nil {
			return CommittedHabit{}, fmt.Errorf("looking up concurrently created habit: %w", findErr)
		}
		lookup[key] = ex
		return CommittedHabit{ID: ex.ID, Name: ex.Name, Key: key, Polarity: ex.Polarity}, nil
	}
	if err != nil {
		return CommittedHabit{}, err
	}
	lookup[key] = h
	return CommittedHabit{ID: h.ID, Name: h.Name, Key: key, Created: true, Polarity: h.Polarity}, nil
}

// commitEntries writes one habit's missing entries on a bounded worker pool
// and returns once all of them have finished.
func (c *Committer) commitEntries(ctx context.Context, userID string, h CommittedHabit, entries []NormalizedEntry, stored map[string]bool, res *CommitResult) {
	var (
		mu       sync.Mutex
		imported int
		failed   []ValidationIssue
	)
	var g errgroup.Group
	g.SetLimit(c.workers)

	now := c.now().UTC().Truncate(time.Second)
	for _, ne := range entries {
		day := domain.DayKey(ne.Date)
		if stored[day] {
			res.EntriesSkipped++
			continue
		}

		// The target habit's stored polarity decides the value, which may
		// differ from the one inferred while parsing.
		value := ne.Value
		if v, ok := domain.NormalizeValue(h.Polarity, ne.RawValue); ok && h.Polarity != "" {
			value = v
		}
		e := &domain.Entry{
			ID:        uuid.New().String(),
			HabitID:   h.ID,
			UserID:    userID,
			Date:      ne.Date,
			Value:     value,
			RawValue:  ne.RawValue,
			Source:    domain.SourceImport,
			CreatedAt: now,
			UpdatedAt: now,
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil {
					mu.Lock()
					failed = append(failed, issue(KindDatabase, SeverityError,
						fmt.Sprintf("writing %s entry for %q: %v", day, h.Name, err)).forEntity(h.Name))
					mu.Unlock()
				}
				err = nil
			}()
			if err := c.entries.Upsert(ctx, e); err != nil {
				return err
			}
			mu.Lock()
			imported++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		c.logger.Warn("entry writes failed", "habit", h.Name, "failed", len(failed))
	}
	res.EntriesImported += imported
	res.EntriesFailed += len(failed)
	res.Errors = append(res.Errors, failed...)
}
