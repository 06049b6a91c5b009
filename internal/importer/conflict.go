package importer

import (
	"github.com/alexanderramin/lifelog/internal/domain"
)

// DetectConflicts pairs each incoming habit with a stored habit of the same
// key. entryCounts maps stored habit id to its entry count. Every record
// starts with the merge resolution.
func DetectConflicts(ds *Dataset, existing []*domain.Habit, entryCounts map[string]int) []ConflictRecord {
	byKey := make(map[domain.EntityKey]*domain.Habit, len(existing))
	for _, h := range existing {
		byKey[h.Key] = h
	}

	var conflicts []ConflictRecord
	for _, in := range ds.Habits {
		key := in.Key()
		ex, ok := byKey[key]
		if !ok {
			continue
		}
		conflicts = append(conflicts, ConflictRecord{
			EntityName: in.Name,
			Existing: ExistingHabitInfo{
				ID:           ex.ID,
				Name:         ex.Name,
				Description:  ex.Description,
				CreatedAt:    ex.CreatedAt,
				TotalEntries: entryCounts[ex.ID],
			},
			Incoming: IncomingHabitInfo{
				Name:        in.Name,
				Description: in.Description,
				EntryCount:  ds.EntryCount(key),
			},
			Resolution: ResolutionMerge,
		})
	}
	return conflicts
}
