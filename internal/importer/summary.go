package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/streak"
)

// Summary is the terminal result of a completed (or failed) import run.
type Summary struct {
	Success          bool              `json:"success"`
	TotalHabits      int               `json:"totalHabits"`
	HabitsImported   int               `json:"habitsImported"`
	HabitsSkipped    int               `json:"habitsSkipped"`
	EntriesImported  int               `json:"entriesImported"`
	EntriesSkipped   int               `json:"entriesSkipped"`
	EntriesFailed    int               `json:"entriesFailed"`
	Conflicts        []ConflictRecord  `json:"conflicts"`
	Errors           []ValidationIssue `json:"errors"`
	Warnings         []ValidationIssue `json:"warnings"`
	Recommendations  []string          `json:"recommendations"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
	Statistics       Statistics        `json:"statistics"`
}

type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type HabitStats struct {
	Name           string   `json:"name"`
	Entries        int      `json:"entries"`
	Completions    int      `json:"completions"`
	CompletionRate float64  `json:"completionRate"`
	CurrentStreak  int      `json:"currentStreak"`
	BestStreak     int      `json:"bestStreak"`
	LatestScore    *float64 `json:"latestScore,omitempty"`
}

type Statistics struct {
	DateRange           DateRange    `json:"dateRange"`
	TotalDays           int          `json:"totalDays"`
	CompletionRate      float64      `json:"completionRate"`
	Habits              []HabitStats `json:"habits"`
	MostConsistentHabit string       `json:"mostConsistentHabit,omitempty"`
	LongestStreak       int          `json:"longestStreak"`
	LongestStreakHabit  string       `json:"longestStreakHabit,omitempty"`
}

// minConsistencyEntries keeps habits with only a few days out of the
// most-consistent ranking.
const minConsistencyEntries = 7

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// rate is completions over non-skip days, as a percentage.
func rate(completions, counted int) float64 {
	if counted == 0 {
		return 0
	}
	return round1(100 * float64(completions) / float64(counted))
}

// BuildStatistics derives statistics from the imported dataset. streaks holds
// recalculated counters by habit key when available.
func BuildStatistics(ds *Dataset, streaks map[domain.EntityKey]streak.Result) Statistics {
	var st Statistics
	var first, last string
	var completions, counted int

	for _, h := range ds.Habits {
		key := h.Key()
		entries := ds.Entries[key]
		hs := HabitStats{Name: h.Name, Entries: len(entries)}
		var habitCounted int
		for _, e := range entries {
			day := domain.DayKey(e.Date)
			if first == "" || day < first {
				first = day
			}
			if day > last {
				last = day
			}
			if e.Value == domain.EntrySkip {
				continue
			}
			habitCounted++
			if e.Value.Succeeded() {
				hs.Completions++
			}
		}
		hs.CompletionRate = rate(hs.Completions, habitCounted)
		if r, ok := streaks[key]; ok {
			hs.CurrentStreak, hs.BestStreak = r.CurrentStreak, r.BestStreak
		}
		if s, ok := ds.Scores[key]; ok {
			score := s
			hs.LatestScore = &score
		}
		completions += hs.Completions
		counted += habitCounted
		st.Habits = append(st.Habits, hs)
	}

	if first != "" {
		st.DateRange = DateRange{Start: first, End: last}
		a, _ := parseDate(first)
		b, _ := parseDate(last)
		st.TotalDays = int(b.Sub(a).Hours()/24) + 1
	}
	st.CompletionRate = rate(completions, counted)

	ranked := make([]HabitStats, 0, len(st.Habits))
	for _, hs := range st.Habits {
		if hs.Entries >= minConsistencyEntries {
			ranked = append(ranked, hs)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].CompletionRate > ranked[j].CompletionRate })
	if len(ranked) > 0 {
		st.MostConsistentHabit = ranked[0].Name
	}
	for _, hs := range st.Habits {
		if hs.BestStreak > st.LongestStreak {
			st.LongestStreak, st.LongestStreakHabit = hs.BestStreak, hs.Name
		}
	}
	return st
}

// Recommendations suggests follow-ups from a finished summary.
func Recommendations(s *Summary) []string {
	var recs []string
	if s.EntriesFailed > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d entries failed to import. Re-running the same import is safe and only retries the missing days.", s.EntriesFailed))
	}
	if s.Success && s.EntriesImported == 0 && s.EntriesFailed == 0 && s.EntriesSkipped > 0 {
		recs = append(recs, "Everything in these files was already imported; nothing new was written.")
	}
	st := s.Statistics
	if len(st.Habits) > 0 && st.CompletionRate > 0 && st.CompletionRate < 50 {
		recs = append(recs, fmt.Sprintf(
			"Overall completion rate is %.1f%%. Consider focusing on fewer habits at a time.", st.CompletionRate))
	}
	if st.LongestStreak >= 30 {
		recs = append(recs, fmt.Sprintf(
			"Your longest streak is %d days on %q. Keep it going.", st.LongestStreak, st.LongestStreakHabit))
	}
	if st.MostConsistentHabit != "" {
		recs = append(recs, fmt.Sprintf("%q is your most consistent habit.", st.MostConsistentHabit))
	}
	if len(s.Warnings) > 10 {
		recs = append(recs, fmt.Sprintf(
			"The import produced %d warnings. Review the source files for rows that were skipped.", len(s.Warnings)))
	}
	return recs
}
