package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/lifelog/internal/db"
	"github.com/alexanderramin/lifelog/internal/domain"
)

// SQLiteHabitRepo implements HabitRepo using a SQLite database.
type SQLiteHabitRepo struct {
	db db.DBTX
}

// NewSQLiteHabitRepo creates a new SQLiteHabitRepo.
func NewSQLiteHabitRepo(conn db.DBTX) *SQLiteHabitRepo {
	return &SQLiteHabitRepo{db: conn}
}

const habitColumns = `id, user_id, name, name_key, description, question, category, type, polarity,
	color, position, target_count, interval_days, current_streak, best_streak, total_completions,
	created_at, updated_at`

func (r *SQLiteHabitRepo) Create(ctx context.Context, h *domain.Habit) error {
	query := `INSERT INTO habits (` + habitColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.UserID,
		h.Name,
		h.Key.String(),
		h.Description,
		h.Question,
		string(h.Category),
		string(h.Type),
		string(h.Polarity),
		h.Color,
		h.Position,
		h.TargetCount,
		h.IntervalDays,
		h.CurrentStreak,
		h.BestStreak,
		h.TotalCompletions,
		h.CreatedAt.UTC().Format(time.RFC3339),
		h.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("inserting habit %q: %w", h.Name, ErrDuplicate)
		}
		return fmt.Errorf("inserting habit: %w", err)
	}
	return nil
}

func (r *SQLiteHabitRepo) GetByID(ctx context.Context, userID, id string) (*domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = ? AND user_id = ?`
	return r.scanHabit(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteHabitRepo) FindByKey(ctx context.Context, userID string, key domain.EntityKey) (*domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ? AND name_key = ?`
	return r.scanHabit(r.db.QueryRowContext(ctx, query, userID, key.String()))
}

func (r *SQLiteHabitRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ? ORDER BY position, name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	defer rows.Close()
	return r.scanHabits(rows)
}

func (r *SQLiteHabitRepo) Update(ctx context.Context, h *domain.Habit) error {
	query := `UPDATE habits SET name = ?, name_key = ?, description = ?, question = ?, category = ?,
		type = ?, polarity = ?, color = ?, position = ?, target_count = ?, interval_days = ?,
		updated_at = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		h.Name,
		h.Key.String(),
		h.Description,
		h.Question,
		string(h.Category),
		string(h.Type),
		string(h.Polarity),
		h.Color,
		h.Position,
		h.TargetCount,
		h.IntervalDays,
		h.UpdatedAt.UTC().Format(time.RFC3339),
		h.ID,
		h.UserID,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("updating habit %q: %w", h.Name, ErrDuplicate)
		}
		return fmt.Errorf("updating habit: %w", err)
	}
	return requireAffected(res, "habit")
}

// UpdateStreaks writes only the derived counters, leaving user-editable
// fields untouched.
func (r *SQLiteHabitRepo) UpdateStreaks(ctx context.Context, h *domain.Habit) error {
	query := `UPDATE habits SET current_streak = ?, best_streak = ?, total_completions = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		h.CurrentStreak,
		h.BestStreak,
		h.TotalCompletions,
		h.UpdatedAt.UTC().Format(time.RFC3339),
		h.ID,
		h.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating habit streaks: %w", err)
	}
	return requireAffected(res, "habit")
}

func (r *SQLiteHabitRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}
	return requireAffected(res, "habit")
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanHabit scans a single habit from a *sql.Row.
func (r *SQLiteHabitRepo) scanHabit(row *sql.Row) (*domain.Habit, error) {
	h, err := r.scanInto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("habit: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning habit: %w", err)
	}
	return h, nil
}

// scanHabits scans multiple habits from *sql.Rows.
func (r *SQLiteHabitRepo) scanHabits(rows *sql.Rows) ([]*domain.Habit, error) {
	var habits []*domain.Habit
	for rows.Next() {
		h, err := r.scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning habit row: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating habits: %w", err)
	}
	return habits, nil
}

func (r *SQLiteHabitRepo) scanInto(s rowScanner) (*domain.Habit, error) {
	var h domain.Habit
	var key, category, typ, polarity, createdAtStr, updatedAtStr string
	err := s.Scan(
		&h.ID, &h.UserID, &h.Name, &key, &h.Description, &h.Question, &category, &typ, &polarity,
		&h.Color, &h.Position, &h.TargetCount, &h.IntervalDays,
		&h.CurrentStreak, &h.BestStreak, &h.TotalCompletions,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}
	return r.populateHabit(&h, key, category, typ, polarity, createdAtStr, updatedAtStr)
}

// populateHabit fills in parsed fields on a Habit after scanning raw strings.
func (r *SQLiteHabitRepo) populateHabit(h *domain.Habit, key, category, typ, polarity, createdAtStr, updatedAtStr string) (*domain.Habit, error) {
	h.Key = domain.EntityKey(key)
	h.Category = domain.Category(category)
	h.Type = domain.HabitType(typ)
	h.Polarity = domain.Polarity(polarity)

	var parseErr error
	h.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	h.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return h, nil
}
