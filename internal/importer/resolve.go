package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/domain"
)

// Resolve applies caller resolutions to a dataset and returns the updated
// copy together with the conflicts as resolved. Resolutions are matched to
// conflicts by habit key; one that matches no conflict is ignored, and a
// conflict without a resolution keeps merge. Applying the same resolutions to
// the result again changes nothing.
//
// merge and replace leave the habit as is: both write into the existing
// habit's id at commit time. A rename onto the name of another stored habit
// would write into that habit, so it falls back to merge with a warning.
func Resolve(ds *Dataset, conflicts []ConflictRecord, resolutions []ConflictResolution, stored []*domain.Habit) (*Dataset, []ConflictRecord, []ValidationIssue) {
	out := ds.clone()
	storedKeys := make(map[domain.EntityKey]string, len(stored))
	for _, h := range stored {
		storedKeys[h.Key] = h.Name
	}
	resolved := make([]ConflictRecord, len(conflicts))
	copy(resolved, conflicts)

	byKey := make(map[domain.EntityKey]ConflictResolution, len(resolutions))
	for _, r := range resolutions {
		byKey[domain.NewEntityKey(r.EntityName)] = r
	}

	var issues []ValidationIssue
	for i := range resolved {
		c := &resolved[i]
		r, ok := byKey[domain.NewEntityKey(c.EntityName)]
		if !ok {
			continue
		}
		c.Resolution = r.Resolution
		c.NewName = ""

		switch r.Resolution {
		case ResolutionSkip:
			out.remove(domain.NewEntityKey(c.EntityName))
		case ResolutionRename:
			newName := sanitize(r.NewName)
			from, to := domain.NewEntityKey(c.EntityName), domain.NewEntityKey(newName)
			if name, taken := storedKeys[to]; taken && to != from {
				c.Resolution = ResolutionMerge
				issues = append(issues, issue(KindConflict, SeverityWarning,
					fmt.Sprintf("cannot rename %q to %q: you already have a habit named %q; merging instead", c.EntityName, newName, name)).forEntity(c.EntityName))
				continue
			}
			if err := out.rename(domain.NewEntityKey(c.EntityName), newName); err != nil {
				c.Resolution = ResolutionMerge
				issues = append(issues, issue(KindConflict, SeverityWarning,
					fmt.Sprintf("cannot rename %q: %v; merging instead", c.EntityName, err)).forEntity(c.EntityName))
				continue
			}
			c.NewName = newName
		case ResolutionMerge, ResolutionReplace:
		default:
			c.Resolution = ResolutionMerge
			issues = append(issues, issue(KindConflict, SeverityWarning,
				fmt.Sprintf("unknown resolution %q for %q; merging instead", r.Resolution, c.EntityName)).forEntity(c.EntityName))
		}
	}
	return out, resolved, issues
}

func (d *Dataset) clone() *Dataset {
	out := &Dataset{
		Habits:  append([]NormalizedHabit(nil), d.Habits...),
		Entries: make(map[domain.EntityKey][]NormalizedEntry, len(d.Entries)),
		Scores:  make(map[domain.EntityKey]float64, len(d.Scores)),
		Issues:  append([]ValidationIssue(nil), d.Issues...),
	}
	for k, v := range d.Entries {
		out.Entries[k] = v
	}
	for k, v := range d.Scores {
		out.Scores[k] = v
	}
	return out
}

func (d *Dataset) indexOf(k domain.EntityKey) int {
	for i, h := range d.Habits {
		if h.Key() == k {
			return i
		}
	}
	return -1
}

// remove drops the habit with key k and its entries.
func (d *Dataset) remove(k domain.EntityKey) {
	if i := d.indexOf(k); i >= 0 {
		d.Habits = append(d.Habits[:i:i], d.Habits[i+1:]...)
	}
	delete(d.Entries, k)
	delete(d.Scores, k)
}

// rename moves the habit with key from to newName, re-keying its entries.
func (d *Dataset) rename(from domain.EntityKey, newName string) error {
	to := domain.NewEntityKey(newName)
	if to.IsZero() {
		return fmt.Errorf("new name is empty")
	}
	i := d.indexOf(from)
	if i < 0 {
		return nil
	}
	if to != from && d.indexOf(to) >= 0 {
		return fmt.Errorf("another imported habit is already named %q", strings.TrimSpace(newName))
	}

	d.Habits[i].Name = newName
	if to == from {
		return nil
	}

	if entries, ok := d.Entries[from]; ok {
		moved := make([]NormalizedEntry, len(entries))
		for j, e := range entries {
			e.EntityName = newName
			moved[j] = e
		}
		d.Entries[to] = moved
		delete(d.Entries, from)
	}
	if s, ok := d.Scores[from]; ok {
		d.Scores[to] = s
		delete(d.Scores, from)
	}
	return nil
}
