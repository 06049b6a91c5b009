package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/streak"
	"github.com/alexanderramin/lifelog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pipelineNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

type pipelineEnv struct {
	commitEnv
	pipeline *Pipeline
}

func newPipelineEnv(t *testing.T, opts ...Option) pipelineEnv {
	t.Helper()
	env := newCommitEnv(t)
	clock := func() time.Time { return pipelineNow }
	recalc := streak.NewRecalculator(testutil.NewTestUoW(env.db)).WithClock(clock)
	opts = append([]Option{WithClock(clock)}, opts...)
	return pipelineEnv{
		commitEnv: env,
		pipeline:  NewPipeline(env.habits, env.entries, recalc, opts...),
	}
}

type recorder struct{ events []Progress }

func (r *recorder) sink(p Progress) { r.events = append(r.events, p) }

func (r *recorder) stages() []Stage {
	var out []Stage
	for _, e := range r.events {
		if len(out) == 0 || out[len(out)-1] != e.Stage {
			out = append(out, e.Stage)
		}
	}
	return out
}

func (r *recorder) assertMonotonic(t *testing.T) {
	t.Helper()
	for i := 1; i < len(r.events); i++ {
		assert.GreaterOrEqual(t, r.events[i].Percent, r.events[i-1].Percent, "event %d", i)
	}
}

func TestPipeline_ImportsSampleExport(t *testing.T) {
	env := newPipelineEnv(t)
	rec := &recorder{}

	res := env.pipeline.Run(context.Background(), Request{UserID: testutil.TestUserID, Files: sampleFiles()}, rec.sink)

	require.Equal(t, OutcomeComplete, res.Outcome)
	s := res.Summary
	require.NotNil(t, s)
	assert.True(t, s.Success)
	assert.Empty(t, s.Errors)
	assert.Equal(t, 3, s.TotalHabits)
	assert.Equal(t, 3, s.HabitsImported)
	assert.Equal(t, 7, s.EntriesImported)
	assert.Empty(t, s.Conflicts)
	assert.NotNil(t, s.Recommendations)

	assert.Equal(t, []Stage{
		StageValidation, StageParsing, StageConflictResolution,
		StageImporting, StageCalculatingStreaks, StageComplete,
	}, rec.stages())
	rec.assertMonotonic(t)
	assert.Equal(t, 100, rec.events[len(rec.events)-1].Percent)

	// Streaks are stored and reported.
	med, err := env.habits.FindByKey(context.Background(), testutil.TestUserID, key("Meditate"))
	require.NoError(t, err)
	assert.Equal(t, 1, med.CurrentStreak)
	assert.Equal(t, 1, med.TotalCompletions)
	smoking := s.Statistics.Habits[1]
	assert.Equal(t, "No Smoking", smoking.Name)
	assert.Equal(t, 0, smoking.CurrentStreak, "raw 1 on the last day is a relapse")
	assert.Equal(t, 1, smoking.BestStreak)
}

func TestPipeline_SecondImportWritesNothing(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	req := Request{UserID: testutil.TestUserID, Files: sampleFiles()}

	first := env.pipeline.Run(ctx, req, nil)
	require.True(t, first.Summary.Success)

	// Every habit now conflicts with itself; merging accepts them all.
	req.MergeAll = true
	second := env.pipeline.Run(ctx, req, nil)
	require.Equal(t, OutcomeComplete, second.Outcome)
	s := second.Summary
	assert.True(t, s.Success)
	assert.Zero(t, s.EntriesImported)
	assert.Zero(t, s.EntriesFailed)
	assert.Equal(t, 7, s.EntriesSkipped)
	assert.Equal(t, s.TotalHabits, s.HabitsSkipped)
	assert.Len(t, s.Conflicts, 3)
}

func TestPipeline_ConflictRoundTrip(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	existing := testutil.NewTestHabit("Meditate")
	require.NoError(t, env.habits.Create(ctx, existing))

	req := Request{
		UserID: testutil.TestUserID,
		Files: RawFileSet{
			Habits:     "Position,Name,Question,Description\n1,meditate,,\n",
			Checkmarks: "Date,meditate\n2024-01-01,2\n2024-01-02,2\n",
		},
	}
	rec := &recorder{}
	first := env.pipeline.Run(ctx, req, rec.sink)

	require.Equal(t, OutcomeConflicts, first.Outcome)
	require.Len(t, first.Conflicts, 1)
	assert.Equal(t, existing.ID, first.Conflicts[0].Existing.ID)
	assert.Equal(t, 2, first.Conflicts[0].Incoming.EntryCount)
	assert.Nil(t, first.Summary)
	assert.Equal(t, StageConflictResolution, rec.events[len(rec.events)-1].Stage)

	list, err := env.habits.ListByUser(ctx, testutil.TestUserID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "nothing is written before conflicts are resolved")

	req.Resolutions = []ConflictResolution{{EntityName: "meditate", Resolution: ResolutionRename, NewName: "Evening Meditation"}}
	second := env.pipeline.Run(ctx, req, nil)

	require.Equal(t, OutcomeComplete, second.Outcome)
	s := second.Summary
	assert.True(t, s.Success)
	assert.Equal(t, 1, s.HabitsImported)
	assert.Equal(t, 2, s.EntriesImported)
	require.Len(t, s.Conflicts, 1)
	assert.Equal(t, ResolutionRename, s.Conflicts[0].Resolution)

	renamed, err := env.habits.FindByKey(ctx, testutil.TestUserID, key("Evening Meditation"))
	require.NoError(t, err)
	assert.Equal(t, "Evening Meditation", renamed.Name)
	counts, err := env.entries.CountByHabit(ctx, testutil.TestUserID)
	require.NoError(t, err)
	assert.Zero(t, counts[existing.ID])
	assert.Equal(t, 2, counts[renamed.ID])
}

func TestPipeline_RenameOntoStoredHabitMergesWithWarning(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	meditate := testutil.NewTestHabit("Meditate")
	reading := testutil.NewTestHabit("Reading")
	require.NoError(t, env.habits.Create(ctx, meditate))
	require.NoError(t, env.habits.Create(ctx, reading))

	res := env.pipeline.Run(ctx, Request{
		UserID: testutil.TestUserID,
		Files: RawFileSet{
			Habits:     "Position,Name,Question,Description\n1,Meditate,,\n",
			Checkmarks: "Date,Meditate\n2024-01-01,2\n2024-01-02,2\n",
		},
		Resolutions: []ConflictResolution{{EntityName: "Meditate", Resolution: ResolutionRename, NewName: "reading"}},
	}, nil)

	require.Equal(t, OutcomeComplete, res.Outcome)
	s := res.Summary
	require.Len(t, s.Conflicts, 1)
	assert.Equal(t, ResolutionMerge, s.Conflicts[0].Resolution)
	assert.Empty(t, s.Conflicts[0].NewName)

	var warned bool
	for _, w := range s.Warnings {
		if w.Kind == KindConflict && w.EntityName == "Meditate" {
			warned = true
			assert.Contains(t, w.Message, "Reading")
		}
	}
	assert.True(t, warned, "the rejected rename must be reported")

	counts, err := env.entries.CountByHabit(ctx, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[meditate.ID])
	assert.Zero(t, counts[reading.ID], "entries must not land in an unrelated habit")
}

func TestPipeline_SkipResolutionLeavesHabitAlone(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	existing := testutil.NewTestHabit("Meditate")
	require.NoError(t, env.habits.Create(ctx, existing))

	res := env.pipeline.Run(ctx, Request{
		UserID:      testutil.TestUserID,
		Files:       sampleFiles(),
		Resolutions: []ConflictResolution{{EntityName: "Meditate", Resolution: ResolutionSkip}},
	}, nil)

	s := res.Summary
	require.NotNil(t, s)
	assert.Equal(t, 2, s.HabitsImported)
	assert.Equal(t, 4, s.EntriesImported)
	counts, err := env.entries.CountByHabit(ctx, testutil.TestUserID)
	require.NoError(t, err)
	assert.Zero(t, counts[existing.ID])
}

func TestPipeline_StructuralErrorsAbortBeforeWrites(t *testing.T) {
	env := newPipelineEnv(t)
	rec := &recorder{}
	files := sampleFiles()
	files.Checkmarks = "Day,Meditate\n2024-01-01,2\n"

	res := env.pipeline.Run(context.Background(), Request{UserID: testutil.TestUserID, Files: files}, rec.sink)

	require.Equal(t, OutcomeComplete, res.Outcome)
	assert.False(t, res.Summary.Success)
	require.NotEmpty(t, res.Summary.Errors)
	assert.Equal(t, KindValidation, res.Summary.Errors[0].Kind)
	assert.Equal(t, []Stage{StageValidation, StageComplete}, rec.stages())

	list, err := env.habits.ListByUser(context.Background(), testutil.TestUserID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPipeline_RequiresUser(t *testing.T) {
	env := newPipelineEnv(t)
	res := env.pipeline.Run(context.Background(), Request{Files: sampleFiles()}, nil)
	assert.False(t, res.Summary.Success)
	assert.Contains(t, res.Summary.Errors[0].Message, "user id")
}

func TestPipeline_StagePanicBecomesDatabaseError(t *testing.T) {
	env := newCommitEnv(t)
	recalc := streak.NewRecalculator(testutil.NewTestUoW(env.db))
	p := NewPipeline(&testutil.PanickingHabitRepo{HabitRepo: env.habits}, env.entries, recalc)
	rec := &recorder{}

	res := p.Run(context.Background(), Request{UserID: testutil.TestUserID, Files: sampleFiles()}, rec.sink)

	require.Equal(t, OutcomeComplete, res.Outcome)
	s := res.Summary
	assert.False(t, s.Success)
	assert.Equal(t, 3, s.TotalHabits, "work done before the failure is kept")
	require.Len(t, s.Errors, 1)
	assert.Equal(t, KindDatabase, s.Errors[0].Kind)
	assert.Contains(t, s.Errors[0].Message, "conflict_resolution stage failed")
	assert.Equal(t, 100, rec.events[len(rec.events)-1].Percent)
}

func TestPipeline_EntryFailuresAreReportedNotFatal(t *testing.T) {
	env := newCommitEnv(t)
	failing := &testutil.FailingEntryRepo{
		EntryRepo: env.entries,
		FailDates: map[string]bool{"2024-01-03": true},
		Err:       errors.New("database is locked"),
	}
	recalc := streak.NewRecalculator(testutil.NewTestUoW(env.db))
	p := NewPipeline(env.habits, failing, recalc, WithWorkers(2))

	res := p.Run(context.Background(), Request{UserID: testutil.TestUserID, Files: sampleFiles()}, nil)

	s := res.Summary
	assert.True(t, s.Success)
	assert.Equal(t, 3, s.EntriesFailed)
	assert.Equal(t, 4, s.EntriesImported)
	assert.Len(t, s.Errors, 3)
	require.NotEmpty(t, s.Recommendations)
	assert.Contains(t, s.Recommendations[0], "3 entries failed")
}

type failingRecalculator struct{ err error }

func (f failingRecalculator) Recalculate(context.Context, string, string) (streak.Result, error) {
	return streak.Result{}, f.err
}

func TestPipeline_StreakFailuresAreIsolated(t *testing.T) {
	env := newCommitEnv(t)
	p := NewPipeline(env.habits, env.entries, failingRecalculator{err: repository.ErrNotFound})

	res := p.Run(context.Background(), Request{UserID: testutil.TestUserID, Files: sampleFiles()}, nil)

	s := res.Summary
	assert.Equal(t, 7, s.EntriesImported)
	require.Len(t, s.Errors, 3)
	for _, e := range s.Errors {
		assert.Equal(t, KindDatabase, e.Kind)
		assert.Contains(t, e.Message, "recalculating streaks")
	}
}

func TestPipeline_FolderExport(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	stored := testutil.NewTestHabit("Vape Free", testutil.WithPolarity(domain.PolarityCessation))
	require.NoError(t, env.habits.Create(ctx, stored))

	res := env.pipeline.Run(ctx, Request{
		UserID: testutil.TestUserID,
		HabitFiles: []HabitFile{
			{Folder: "001 Floss", Checkmarks: "Date,Value\n2024-01-01,2\n2024-01-02,2\n"},
			{Folder: "002 Vape Free", Checkmarks: "2024-01-01,1\n"},
		},
		MergeAll: true,
	}, nil)

	s := res.Summary
	require.NotNil(t, s)
	assert.True(t, s.Success)
	assert.Equal(t, 1, s.HabitsImported)
	assert.Equal(t, 1, s.HabitsSkipped)
	assert.Equal(t, 3, s.EntriesImported)

	entries, err := env.entries.ListByHabit(ctx, testutil.TestUserID, stored.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryFail, entries[0].Value)
}
