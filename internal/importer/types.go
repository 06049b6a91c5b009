package importer

import (
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
)

// DefaultMaxFileBytes caps each uploaded blob.
const DefaultMaxFileBytes int64 = 10 << 20

// RawFileSet is one habit-tracker export: the habit definitions, the combined
// per-day checkmarks, and an optional per-day score file.
type RawFileSet struct {
	Habits     string `json:"habits"`
	Checkmarks string `json:"checkmarks"`
	Scores     string `json:"scores,omitempty"`
}

// HabitFile is a single habit's checkmarks file from a per-habit export,
// named by the folder it came from (e.g. "001 Meditate").
type HabitFile struct {
	Folder     string `json:"folder" validate:"required"`
	Checkmarks string `json:"checkmarks"`
}

type IssueKind string

const (
	KindValidation IssueKind = "validation"
	KindParsing    IssueKind = "parsing"
	KindDatabase   IssueKind = "database"
	KindConflict   IssueKind = "conflict"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one classified problem found during an import. Errors
// block the commit; warnings are advisory.
type ValidationIssue struct {
	Kind        IssueKind `json:"kind"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	RecordIndex *int      `json:"recordIndex,omitempty"`
	EntityName  string    `json:"entityName,omitempty"`
}

func issue(kind IssueKind, sev Severity, msg string) ValidationIssue {
	return ValidationIssue{Kind: kind, Severity: sev, Message: msg}
}

func (v ValidationIssue) atRecord(i int) ValidationIssue {
	v.RecordIndex = &i
	return v
}

func (v ValidationIssue) forEntity(name string) ValidationIssue {
	v.EntityName = name
	return v
}

// NormalizedHabit is a habit definition read from an export.
type NormalizedHabit struct {
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Question         string           `json:"question"`
	Position         int              `json:"position"`
	RepetitionTarget int              `json:"repetitionTarget"`
	IntervalDays     int              `json:"intervalDays"`
	Color            string           `json:"color"`
	Polarity         domain.Polarity  `json:"polarity"`
	Type             domain.HabitType `json:"type"`
}

func (h NormalizedHabit) Key() domain.EntityKey {
	return domain.NewEntityKey(h.Name)
}

// NormalizedEntry is one day of one habit after value normalization.
type NormalizedEntry struct {
	EntityName string            `json:"entityName"`
	Date       time.Time         `json:"date"`
	RawValue   int               `json:"rawValue"`
	Value      domain.EntryValue `json:"normalizedValue"`
}

// Dataset is the normalized content of one import. Entries are keyed by
// habit and sorted by date, with at most one entry per day.
type Dataset struct {
	Habits  []NormalizedHabit
	Entries map[domain.EntityKey][]NormalizedEntry
	Scores  map[domain.EntityKey]float64
	Issues  []ValidationIssue
}

// EntryCount returns the number of entries for the habit with key k.
func (d *Dataset) EntryCount(k domain.EntityKey) int {
	return len(d.Entries[k])
}

// TotalEntries counts entries that belong to a known habit.
func (d *Dataset) TotalEntries() int {
	n := 0
	for _, h := range d.Habits {
		n += len(d.Entries[h.Key()])
	}
	return n
}

type Resolution string

const (
	ResolutionMerge   Resolution = "merge"
	ResolutionReplace Resolution = "replace"
	ResolutionSkip    Resolution = "skip"
	ResolutionRename  Resolution = "rename"
)

// ConflictResolution is a caller's decision for one conflict, referenced by
// the conflicting habit name.
type ConflictResolution struct {
	EntityName string     `json:"entityName" validate:"required"`
	Resolution Resolution `json:"resolution" validate:"required,oneof=merge replace skip rename"`
	NewName    string     `json:"newName,omitempty" validate:"required_if=Resolution rename,max=200"`
}

type ExistingHabitInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
	TotalEntries int       `json:"totalEntries"`
}

type IncomingHabitInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	EntryCount  int    `json:"entryCount"`
}

// ConflictRecord pairs an incoming habit with the stored habit of the same
// name.
type ConflictRecord struct {
	EntityName string            `json:"entityName"`
	Existing   ExistingHabitInfo `json:"existing"`
	Incoming   IncomingHabitInfo `json:"incoming"`
	Resolution Resolution        `json:"resolution"`
	NewName    string            `json:"newName,omitempty"`
}
