package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultColor is used when an imported color is missing or malformed.
const DefaultColor = "#4F46E5"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Habit struct {
	ID          string
	UserID      string
	Name        string
	Key         EntityKey
	Description string
	Question    string
	Category    Category
	Type        HabitType
	Polarity    Polarity
	Color       string
	Position    int

	// Measurement target: TargetCount repetitions every IntervalDays days.
	TargetCount  int
	IntervalDays int

	// Derived state, rewritten by streak recalculation.
	CurrentStreak    int
	BestStreak       int
	TotalCompletions int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidColor reports whether c is a #RRGGBB hex color.
func ValidColor(c string) bool {
	return colorPattern.MatchString(c)
}

// Validate checks the invariants a habit must satisfy before it is stored.
func (h *Habit) Validate() error {
	if h.UserID == "" {
		return fmt.Errorf("habit user id is required")
	}
	if h.Key.IsZero() {
		return fmt.Errorf("habit name is required")
	}
	if !ValidColor(h.Color) {
		return fmt.Errorf("habit color %q must be a #RRGGBB hex value", h.Color)
	}
	if !ValidPolarities[string(h.Polarity)] {
		return fmt.Errorf("habit polarity %q is invalid", h.Polarity)
	}
	if h.TargetCount <= 0 || h.IntervalDays <= 0 {
		return fmt.Errorf("habit target %d per %d days must be positive", h.TargetCount, h.IntervalDays)
	}
	return nil
}

// ApplyStreaks stores freshly computed streak counters.
func (h *Habit) ApplyStreaks(current, best, completions int, now time.Time) {
	h.CurrentStreak = current
	h.BestStreak = best
	h.TotalCompletions = completions
	h.UpdatedAt = now
}
