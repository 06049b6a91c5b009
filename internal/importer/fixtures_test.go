package importer

import (
	"testing"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/stretchr/testify/require"
)

const sampleHabits = `Position,Name,Question,Description,NumRepetitions,Interval,Color
001,Meditate,Did you meditate?,Ten minutes,1,1,#ff0000
002,No Smoking,,,1,1,
003,Don't Snack,,,1,1,#00FF00
`

const sampleCheckmarks = `Date,Meditate,No Smoking,Don't Snack
2024-01-03,2,1,1
2024-01-02,0,2,0
2024-01-01,3,,-1
`

const sampleScores = `Date,Meditate,No Smoking
2024-01-01,0.5,0.1
2024-01-03,0.7,
2024-01-02,0.6,0.2
`

func sampleFiles() RawFileSet {
	return RawFileSet{Habits: sampleHabits, Checkmarks: sampleCheckmarks, Scores: sampleScores}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := parseDate(s)
	require.True(t, ok, "bad test date %q", s)
	return d
}

func key(name string) domain.EntityKey { return domain.NewEntityKey(name) }

func values(entries []NormalizedEntry) []domain.EntryValue {
	out := make([]domain.EntryValue, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

func habitNames(ds *Dataset) []string {
	out := make([]string, len(ds.Habits))
	for i, h := range ds.Habits {
		out[i] = h.Name
	}
	return out
}

func issuesOfKind(issues []ValidationIssue, kind IssueKind) []ValidationIssue {
	var out []ValidationIssue
	for _, v := range issues {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}
