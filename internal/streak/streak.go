// Package streak derives current/best streak counters from a habit's stored
// entries. Entry values already encode polarity, so the success predicate is
// the same for every habit.
package streak

import (
	"sort"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
)

// LookbackDays bounds the backward scan for the current streak.
const LookbackDays = 90

type Result struct {
	CurrentStreak    int `json:"currentStreak"`
	BestStreak       int `json:"bestStreak"`
	TotalCompletions int `json:"totalCompletions"`
}

// Calculate computes streak counters for one habit as of today. entries may be
// in any order; duplicates for a day keep the last one seen.
func Calculate(entries []*domain.Entry, today time.Time) Result {
	byDay := make(map[string]domain.EntryValue, len(entries))
	for _, e := range entries {
		byDay[domain.DayKey(e.Date)] = e.Value
	}

	var res Result
	for _, v := range byDay {
		if v.Succeeded() {
			res.TotalCompletions++
		}
	}
	res.CurrentStreak = current(byDay, domain.Day(today))
	res.BestStreak = best(byDay)
	if res.BestStreak < res.CurrentStreak {
		res.BestStreak = res.CurrentStreak
	}
	return res
}

// current walks back from today. Unlogged days before the streak has started
// are ignored; once it has started, a fail or an unlogged day ends it.
func current(byDay map[string]domain.EntryValue, today time.Time) int {
	count := 0
	started := false
	for i := 0; i < LookbackDays; i++ {
		v, ok := byDay[domain.DayKey(today.AddDate(0, 0, -i))]
		if !ok {
			if started {
				break
			}
			continue
		}
		if !v.KeepsStreak() {
			break
		}
		started = true
		count++
	}
	return count
}

// best is one forward pass over the whole history. Successes extend a run,
// explicit skips hold it, fails and calendar gaps reset it.
func best(byDay map[string]domain.EntryValue) int {
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	var longest, run int
	var prev time.Time
	for i, d := range days {
		day, err := time.ParseInLocation(domain.DateLayout, d, time.UTC)
		if err != nil {
			continue
		}
		if i > 0 && !day.Equal(prev.AddDate(0, 0, 1)) {
			run = 0
		}
		prev = day

		v := byDay[d]
		switch {
		case v.Succeeded():
			run++
			if run > longest {
				longest = run
			}
		case v == domain.EntrySkip:
		default:
			run = 0
		}
	}
	return longest
}
