package formatter

import (
	"strconv"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/streak"
)

func FormatHabitList(habits []*domain.Habit) string {
	if len(habits) == 0 {
		return Dim("No habits yet. Import an export with `lifelog import`.") + "\n"
	}
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		rows = append(rows, []string{
			TruncID(h.ID),
			Bold(h.Name),
			PolarityBadge(h.Polarity),
			string(h.Category),
			FormatDays(h.CurrentStreak),
			FormatDays(h.BestStreak),
			strconv.Itoa(h.TotalCompletions),
		})
	}
	return RenderTable([]string{"ID", "HABIT", "KIND", "CATEGORY", "STREAK", "BEST", "DONE"}, rows, 4, 5, 6)
}

// FormatStreakResults lists recalculated streaks in the order of habits.
func FormatStreakResults(habits []*domain.Habit, results map[string]streak.Result) string {
	rows := make([][]string, 0, len(results))
	for _, h := range habits {
		r, ok := results[h.ID]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			Bold(h.Name),
			FormatDays(r.CurrentStreak),
			FormatDays(r.BestStreak),
			strconv.Itoa(r.TotalCompletions),
		})
	}
	return RenderTable([]string{"HABIT", "STREAK", "BEST", "DONE"}, rows, 1, 2, 3)
}
