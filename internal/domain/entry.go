package domain

import "time"

// DateLayout is the storage and wire format of a calendar day.
const DateLayout = "2006-01-02"

// Entry is one dated observation for a habit. A habit has at most one entry
// per calendar day.
type Entry struct {
	ID        string
	HabitID   string
	UserID    string
	Date      time.Time
	Value     EntryValue
	RawValue  int
	Source    EntrySource
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey returns the YYYY-MM-DD form of t.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}
