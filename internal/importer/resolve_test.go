package importer

import (
	"testing"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictsFor(t *testing.T, ds *Dataset, names ...string) []ConflictRecord {
	t.Helper()
	var stored []*domain.Habit
	for _, n := range names {
		stored = append(stored, testutil.NewTestHabit(n))
	}
	conflicts := DetectConflicts(ds, stored, nil)
	require.Len(t, conflicts, len(names))
	return conflicts
}

func TestResolve_Skip(t *testing.T) {
	ds := Normalize(sampleFiles())
	conflicts := conflictsFor(t, ds, "Meditate")

	out, resolved, issues := Resolve(ds, conflicts, []ConflictResolution{{EntityName: "meditate", Resolution: ResolutionSkip}}, nil)

	assert.Empty(t, issues)
	assert.Equal(t, ResolutionSkip, resolved[0].Resolution)
	assert.Equal(t, []string{"No Smoking", "Don't Snack"}, habitNames(out))
	assert.NotContains(t, out.Entries, key("Meditate"))
	assert.NotContains(t, out.Scores, key("Meditate"))

	// The input dataset is untouched.
	assert.Len(t, ds.Habits, 3)
	assert.Contains(t, ds.Entries, key("Meditate"))
}

func TestResolve_RenameRekeysEntriesAndScores(t *testing.T) {
	ds := Normalize(sampleFiles())
	conflicts := conflictsFor(t, ds, "Meditate")

	out, resolved, issues := Resolve(ds, conflicts, []ConflictResolution{
		{EntityName: "Meditate", Resolution: ResolutionRename, NewName: " <i>Meditate (old app)</i> "},
	}, nil)

	assert.Empty(t, issues)
	assert.Equal(t, ResolutionRename, resolved[0].Resolution)
	assert.Equal(t, "Meditate (old app)", resolved[0].NewName)
	assert.Equal(t, "Meditate (old app)", out.Habits[0].Name)

	moved := out.Entries[key("Meditate (old app)")]
	require.Len(t, moved, 3)
	assert.Equal(t, "Meditate (old app)", moved[0].EntityName)
	assert.NotContains(t, out.Entries, key("Meditate"))
	assert.InDelta(t, 0.7, out.Scores[key("Meditate (old app)")], 1e-9)

	assert.Equal(t, "Meditate", ds.Entries[key("Meditate")][0].EntityName)
}

func TestResolve_RenameFallsBackToMerge(t *testing.T) {
	tests := []struct {
		name    string
		newName string
	}{
		{"empty name", "  "},
		{"collides with another incoming habit", "no smoking"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := Normalize(sampleFiles())
			conflicts := conflictsFor(t, ds, "Meditate")

			out, resolved, issues := Resolve(ds, conflicts, []ConflictResolution{
				{EntityName: "Meditate", Resolution: ResolutionRename, NewName: tt.newName},
			}, nil)

			assert.Equal(t, ResolutionMerge, resolved[0].Resolution)
			assert.Empty(t, resolved[0].NewName)
			require.Len(t, issues, 1)
			assert.Equal(t, KindConflict, issues[0].Kind)
			assert.Equal(t, SeverityWarning, issues[0].Severity)
			assert.Equal(t, habitNames(ds), habitNames(out))
		})
	}
}

func TestResolve_UnknownResolutionMerges(t *testing.T) {
	ds := Normalize(sampleFiles())
	conflicts := conflictsFor(t, ds, "Meditate")

	_, resolved, issues := Resolve(ds, conflicts, []ConflictResolution{{EntityName: "Meditate", Resolution: "overwrite"}}, nil)
	assert.Equal(t, ResolutionMerge, resolved[0].Resolution)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "overwrite")
}

func TestResolve_MergeAndReplaceKeepTheHabit(t *testing.T) {
	ds := Normalize(sampleFiles())
	conflicts := conflictsFor(t, ds, "Meditate", "No Smoking")

	out, resolved, issues := Resolve(ds, conflicts, []ConflictResolution{
		{EntityName: "Meditate", Resolution: ResolutionReplace},
		{EntityName: "Journal", Resolution: ResolutionSkip},
	}, nil)

	assert.Empty(t, issues, "a resolution for an unknown conflict is ignored")
	assert.Equal(t, ResolutionReplace, resolved[0].Resolution)
	assert.Equal(t, ResolutionMerge, resolved[1].Resolution, "unresolved conflicts keep merge")
	assert.Equal(t, ds.Habits, out.Habits)
	assert.Equal(t, ds.Entries, out.Entries)
}

func TestResolve_Idempotent(t *testing.T) {
	ds := Normalize(sampleFiles())
	conflicts := conflictsFor(t, ds, "Meditate", "No Smoking")
	resolutions := []ConflictResolution{
		{EntityName: "Meditate", Resolution: ResolutionRename, NewName: "Sitting"},
		{EntityName: "No Smoking", Resolution: ResolutionSkip},
	}

	once, resolvedOnce, _ := Resolve(ds, conflicts, resolutions, nil)
	twice, resolvedTwice, issues := Resolve(once, resolvedOnce, resolutions, nil)

	assert.Empty(t, issues)
	assert.Equal(t, once, twice)
	assert.Equal(t, resolvedOnce, resolvedTwice)
}

func TestResolve_RenameOntoStoredHabitFallsBackToMerge(t *testing.T) {
	ds := Normalize(sampleFiles())
	conflicts := conflictsFor(t, ds, "Meditate")
	stored := []*domain.Habit{testutil.NewTestHabit("Meditate"), testutil.NewTestHabit("Journal")}

	out, resolved, issues := Resolve(ds, conflicts, []ConflictResolution{
		{EntityName: "Meditate", Resolution: ResolutionRename, NewName: "JOURNAL"},
	}, stored)

	assert.Equal(t, ResolutionMerge, resolved[0].Resolution)
	assert.Empty(t, resolved[0].NewName)
	require.Len(t, issues, 1)
	assert.Equal(t, KindConflict, issues[0].Kind)
	assert.Contains(t, issues[0].Message, `"Journal"`)
	assert.Contains(t, habitNames(out), "Meditate")
}
