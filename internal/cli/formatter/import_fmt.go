package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/lifelog/internal/importer"
)

// maxListedIssues caps how many errors or warnings a summary prints.
const maxListedIssues = 10

// FormatImportSummary renders the final report of an import run.
func FormatImportSummary(s *importer.Summary) string {
	var b strings.Builder

	status := StyleGreen.Render("✔ Import complete")
	if !s.Success {
		status = StyleRed.Render("✖ Import failed")
	}
	b.WriteString(status + Dim("  in "+FormatElapsed(s.ProcessingTimeMs)) + "\n\n")

	counts := [][]string{
		{"Habits", strconv.Itoa(s.HabitsImported), strconv.Itoa(s.HabitsSkipped), "", strconv.Itoa(s.TotalHabits)},
		{"Entries", strconv.Itoa(s.EntriesImported), strconv.Itoa(s.EntriesSkipped), strconv.Itoa(s.EntriesFailed), ""},
	}
	b.WriteString(RenderTable([]string{"", "IMPORTED", "SKIPPED", "FAILED", "TOTAL"}, counts, 1, 2, 3, 4))

	st := s.Statistics
	if st.TotalDays > 0 {
		b.WriteString("\n" + Header("Statistics") + "\n")
		fmt.Fprintf(&b, "%s  %s → %s (%s)\n", Dim("Range"), st.DateRange.Start, st.DateRange.End, Plural(st.TotalDays, "day"))
		fmt.Fprintf(&b, "%s  %s\n", Dim("Completion"), RenderBar(st.CompletionRate/100, 20))
		if st.MostConsistentHabit != "" {
			fmt.Fprintf(&b, "%s  %s\n", Dim("Most consistent"), Bold(st.MostConsistentHabit))
		}
		if st.LongestStreakHabit != "" {
			fmt.Fprintf(&b, "%s  %s %s\n", Dim("Longest streak"), Bold(st.LongestStreakHabit), FormatDays(st.LongestStreak))
		}
		if len(st.Habits) > 0 {
			b.WriteString("\n" + FormatHabitStats(st.Habits))
		}
	}

	if len(s.Errors) > 0 {
		b.WriteString("\n" + Header("Errors") + "\n" + FormatIssues(s.Errors))
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n" + Header("Warnings") + "\n" + FormatIssues(s.Warnings))
	}
	if len(s.Recommendations) > 0 {
		b.WriteString("\n" + Header("Next steps") + "\n")
		for _, r := range s.Recommendations {
			b.WriteString(StyleBlue.Render("→ ") + r + "\n")
		}
	}
	return b.String()
}

func FormatHabitStats(stats []importer.HabitStats) string {
	rows := make([][]string, 0, len(stats))
	for _, h := range stats {
		score := Dim("--")
		if h.LatestScore != nil {
			score = fmt.Sprintf("%.1f", *h.LatestScore)
		}
		rows = append(rows, []string{
			h.Name,
			strconv.Itoa(h.Entries),
			fmt.Sprintf("%.1f%%", h.CompletionRate),
			FormatDays(h.CurrentStreak),
			FormatDays(h.BestStreak),
			score,
		})
	}
	return RenderTable([]string{"HABIT", "ENTRIES", "RATE", "STREAK", "BEST", "SCORE"}, rows, 1, 2, 3, 4, 5)
}

// FormatIssues lists issues one per line, eliding past maxListedIssues.
func FormatIssues(issues []importer.ValidationIssue) string {
	var b strings.Builder
	for i, v := range issues {
		if i == maxListedIssues {
			b.WriteString(Dim(fmt.Sprintf("  … and %d more\n", len(issues)-maxListedIssues)))
			break
		}
		loc := ""
		if v.RecordIndex != nil {
			loc = Dim(fmt.Sprintf(" (row %d)", *v.RecordIndex))
		}
		fmt.Fprintf(&b, "  %s %s%s\n", SeverityBadge(v.Severity), v.Message, loc)
	}
	return b.String()
}

// FormatConflicts renders the habits that already exist under an incoming name.
func FormatConflicts(conflicts []importer.ConflictRecord) string {
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, []string{
			Bold(c.EntityName),
			strconv.Itoa(c.Existing.TotalEntries),
			c.Existing.CreatedAt.Format("2006-01-02"),
			strconv.Itoa(c.Incoming.EntryCount),
		})
	}
	var b strings.Builder
	b.WriteString(StyleYellow.Render("▲ Already stored: "+Plural(len(conflicts), "habit")) + "\n\n")
	b.WriteString(RenderTable([]string{"HABIT", "STORED ENTRIES", "CREATED", "INCOMING ENTRIES"}, rows, 1, 3))
	return b.String()
}
