package testutil

import (
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/google/uuid"
)

// TestUserID is the owner used by fixtures unless overridden.
const TestUserID = "user-test"

// Habit options
type HabitOption func(*domain.Habit)

func WithUser(userID string) HabitOption {
	return func(h *domain.Habit) {
		h.UserID = userID
	}
}

func WithPolarity(p domain.Polarity) HabitOption {
	return func(h *domain.Habit) {
		h.Polarity = p
		h.Type = domain.TypeFor(p)
	}
}

func WithDescription(d string) HabitOption {
	return func(h *domain.Habit) {
		h.Description = d
	}
}

func WithCreatedAt(t time.Time) HabitOption {
	return func(h *domain.Habit) {
		h.CreatedAt = t
		h.UpdatedAt = t
	}
}

// NewTestHabit builds a valid habit whose polarity and category follow from
// its name.
func NewTestHabit(name string, opts ...HabitOption) *domain.Habit {
	now := time.Now().UTC().Truncate(time.Second)
	pol := domain.ClassifyPolarity(name)
	h := &domain.Habit{
		ID:           uuid.New().String(),
		UserID:       TestUserID,
		Name:         name,
		Key:          domain.NewEntityKey(name),
		Category:     domain.Categorize(name),
		Type:         domain.TypeFor(pol),
		Polarity:     pol,
		Color:        domain.DefaultColor,
		TargetCount:  1,
		IntervalDays: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Entry options
type EntryOption func(*domain.Entry)

func WithRawValue(raw int) EntryOption {
	return func(e *domain.Entry) {
		e.RawValue = raw
	}
}

func WithSource(s domain.EntrySource) EntryOption {
	return func(e *domain.Entry) {
		e.Source = s
	}
}

// NewTestEntry builds an entry owned by h's user on the given day.
func NewTestEntry(h *domain.Habit, day time.Time, value domain.EntryValue, opts ...EntryOption) *domain.Entry {
	now := time.Now().UTC().Truncate(time.Second)
	e := &domain.Entry{
		ID:        uuid.New().String(),
		HabitID:   h.ID,
		UserID:    h.UserID,
		Date:      domain.Day(day),
		Value:     value,
		RawValue:  int(value),
		Source:    domain.SourceImport,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DaysAgo returns the UTC calendar day n days before today.
func DaysAgo(n int) time.Time {
	return domain.Day(time.Now().UTC()).AddDate(0, 0, -n)
}
