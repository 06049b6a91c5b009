package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/lifelog/internal/db"
	"github.com/alexanderramin/lifelog/internal/domain"
)

// SQLiteEntryRepo implements EntryRepo using a SQLite database.
type SQLiteEntryRepo struct {
	db db.DBTX
}

// NewSQLiteEntryRepo creates a new SQLiteEntryRepo.
func NewSQLiteEntryRepo(conn db.DBTX) *SQLiteEntryRepo {
	return &SQLiteEntryRepo{db: conn}
}

func (r *SQLiteEntryRepo) Upsert(ctx context.Context, e *domain.Entry) error {
	query := `INSERT INTO habit_entries (id, habit_id, user_id, date, value, raw_value, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, date, user_id) DO UPDATE SET
			value = excluded.value,
			raw_value = excluded.raw_value,
			source = excluded.source,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.HabitID,
		e.UserID,
		domain.DayKey(e.Date),
		int(e.Value),
		e.RawValue,
		string(e.Source),
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting entry %s for habit %s: %w", domain.DayKey(e.Date), e.HabitID, err)
	}
	return nil
}

// ListByHabit returns a habit's entries, newest first.
func (r *SQLiteEntryRepo) ListByHabit(ctx context.Context, userID, habitID string) ([]*domain.Entry, error) {
	query := `SELECT id, habit_id, user_id, date, value, raw_value, source, created_at, updated_at
		FROM habit_entries WHERE habit_id = ? AND user_id = ? ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query, habitID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing entries by habit: %w", err)
	}
	defer rows.Close()
	return r.scanEntries(rows)
}

func (r *SQLiteEntryRepo) ExistingDates(ctx context.Context, userID string, habitIDs []string) (map[string]map[string]bool, error) {
	out := make(map[string]map[string]bool, len(habitIDs))
	if len(habitIDs) == 0 {
		return out, nil
	}
	query := `SELECT habit_id, date FROM habit_entries
		WHERE user_id = ? AND habit_id IN (` + placeholders(len(habitIDs)) + `)`
	args := append([]any{userID}, stringArgs(habitIDs)...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading existing entry dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var habitID, date string
		if err := rows.Scan(&habitID, &date); err != nil {
			return nil, fmt.Errorf("scanning entry date: %w", err)
		}
		if out[habitID] == nil {
			out[habitID] = make(map[string]bool)
		}
		out[habitID][date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry dates: %w", err)
	}
	return out, nil
}

func (r *SQLiteEntryRepo) CountByHabit(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT habit_id, COUNT(*) FROM habit_entries WHERE user_id = ? GROUP BY habit_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var habitID string
		var n int
		if err := rows.Scan(&habitID, &n); err != nil {
			return nil, fmt.Errorf("scanning entry count: %w", err)
		}
		counts[habitID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry counts: %w", err)
	}
	return counts, nil
}

func (r *SQLiteEntryRepo) DeleteByHabit(ctx context.Context, userID, habitID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM habit_entries WHERE habit_id = ? AND user_id = ?`, habitID, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	return n, nil
}

// scanEntries scans multiple entries from *sql.Rows.
func (r *SQLiteEntryRepo) scanEntries(rows *sql.Rows) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var dateStr, source, createdAtStr, updatedAtStr string
		var value int

		err := rows.Scan(
			&e.ID, &e.HabitID, &e.UserID, &dateStr, &value, &e.RawValue, &source, &createdAtStr, &updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		e.Value = domain.EntryValue(value)
		e.Source = domain.EntrySource(source)

		entry, parseErr := r.populateEntry(&e, dateStr, createdAtStr, updatedAtStr)
		if parseErr != nil {
			return nil, parseErr
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

// populateEntry fills in parsed fields on an Entry after scanning raw strings.
func (r *SQLiteEntryRepo) populateEntry(e *domain.Entry, dateStr, createdAtStr, updatedAtStr string) (*domain.Entry, error) {
	var parseErr error
	e.Date, parseErr = parseDay(dateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing date: %w", parseErr)
	}
	e.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	e.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return e, nil
}
