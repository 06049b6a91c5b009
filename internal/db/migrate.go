package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/domain"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillPolarity(db); err != nil {
		return fmt.Errorf("backfilling habit polarity: %w", err)
	}
	return nil
}

// migrateBackfillPolarity classifies habits created before polarity was
// stored.
func migrateBackfillPolarity(db *sql.DB) error {
	ctx := context.Background()

	rows, err := db.QueryContext(ctx, `SELECT id, name FROM habits WHERE polarity = ''`)
	if err != nil {
		return fmt.Errorf("listing unclassified habits: %w", err)
	}
	type pending struct{ id, name string }
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			rows.Close()
			return fmt.Errorf("scanning habit: %w", err)
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating habits: %w", err)
	}
	if len(todo) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting backfill transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, p := range todo {
		pol := domain.ClassifyPolarity(p.name)
		if _, err := tx.ExecContext(ctx,
			`UPDATE habits SET polarity = ?, type = ? WHERE id = ?`,
			string(pol), string(domain.TypeFor(pol)), p.id); err != nil {
			return fmt.Errorf("classifying habit %s: %w", p.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing polarity backfill: %w", err)
	}
	committed = true
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS habits (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL,
		name              TEXT NOT NULL,
		name_key          TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		question          TEXT NOT NULL DEFAULT '',
		category          TEXT NOT NULL DEFAULT 'other',
		type              TEXT NOT NULL DEFAULT 'build'
		                  CHECK(type IN ('build','break')),
		polarity          TEXT NOT NULL DEFAULT ''
		                  CHECK(polarity IN ('','positive','negative','cessation')),
		color             TEXT NOT NULL DEFAULT '#4F46E5',
		position          INTEGER NOT NULL DEFAULT 0,
		target_count      INTEGER NOT NULL DEFAULT 1,
		interval_days     INTEGER NOT NULL DEFAULT 1,
		current_streak    INTEGER NOT NULL DEFAULT 0,
		best_streak       INTEGER NOT NULL DEFAULT 0,
		total_completions INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		UNIQUE(user_id, name_key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id)`,

	`CREATE TABLE IF NOT EXISTS habit_entries (
		id         TEXT PRIMARY KEY,
		habit_id   TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		date       TEXT NOT NULL,
		value      INTEGER NOT NULL CHECK(value BETWEEN 0 AND 3),
		raw_value  INTEGER NOT NULL DEFAULT 0,
		source     TEXT NOT NULL DEFAULT 'import'
		           CHECK(source IN ('manual','import')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(habit_id, date, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_entries_habit_date ON habit_entries(habit_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_user ON habit_entries(user_id)`,

	// Databases created before polarity was stored.
	`ALTER TABLE habits ADD COLUMN polarity TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE habit_entries ADD COLUMN raw_value INTEGER NOT NULL DEFAULT 0`,
}
