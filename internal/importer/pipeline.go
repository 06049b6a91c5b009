package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/metrics"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/streak"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lifelog/importer")

// StreakRecalculator recomputes and stores one habit's streak counters.
type StreakRecalculator interface {
	Recalculate(ctx context.Context, userID, habitID string) (streak.Result, error)
}

// Request is one import invocation. A run that stops for conflicts is resumed
// by sending the same files again with Resolutions (or MergeAll) set.
type Request struct {
	UserID         string               `json:"-" validate:"required"`
	Files          RawFileSet           `json:"files"`
	HabitFiles     []HabitFile          `json:"habitFiles,omitempty" validate:"dive"`
	FolderMappings map[string]string    `json:"folderMappings,omitempty"`
	Resolutions    []ConflictResolution `json:"conflictResolutions,omitempty" validate:"dive"`
	// MergeAll resolves every conflict as merge without stopping.
	MergeAll bool `json:"mergeAll,omitempty"`
}

type Outcome string

const (
	OutcomeConflicts Outcome = "conflicts"
	OutcomeComplete  Outcome = "complete"
)

// Result is what a run ends with: either the conflicts that need a decision,
// or the final summary.
type Result struct {
	Outcome   Outcome          `json:"outcome"`
	Conflicts []ConflictRecord `json:"conflicts,omitempty"`
	Summary   *Summary         `json:"summary,omitempty"`
}

type Option func(*Pipeline)

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithMaxFileBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs an import through validation, parsing, conflict detection,
// commit and streak recalculation, reporting progress as it enters each
// stage.
type Pipeline struct {
	habits   repository.HabitRepo
	entries  repository.EntryRepo
	streaks  StreakRecalculator
	workers  int
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

func NewPipeline(habits repository.HabitRepo, entries repository.EntryRepo, streaks StreakRecalculator, opts ...Option) *Pipeline {
	p := &Pipeline{
		habits:   habits,
		entries:  entries,
		streaks:  streaks,
		workers:  DefaultWorkers,
		maxBytes: DefaultMaxFileBytes,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run holds the summary being built so stage failures can still report
// everything gathered before them.
type run struct {
	summary *Summary
	commit  CommitResult
}

func (r *run) fail(err error) {
	r.summary.Success = false
	r.summary.Errors = append(r.summary.Errors, issue(KindDatabase, SeverityError, err.Error()))
}

func (r *run) addIssues(issues []ValidationIssue) {
	for _, v := range issues {
		if v.Severity == SeverityError {
			r.summary.Errors = append(r.summary.Errors, v)
		} else {
			r.summary.Warnings = append(r.summary.Warnings, v)
		}
	}
}

// Run executes one import. It never returns an error: problems are recorded
// in the summary. When conflicts exist and the request carries no
// resolutions, Run stops after conflict detection without writing anything.
func (p *Pipeline) Run(ctx context.Context, req Request, sink ProgressSink) *Result {
	start := p.now()
	rep := newReporter(sink)
	r := &run{summary: &Summary{
		Success:   true,
		Conflicts: []ConflictRecord{},
		Errors:    []ValidationIssue{},
		Warnings:  []ValidationIssue{},
	}}

	ctx, span := tracer.Start(ctx, "importer.Run", trace.WithAttributes(
		attribute.String("lifelog.user_id", req.UserID),
		attribute.Int("lifelog.habit_files", len(req.HabitFiles)),
	))
	defer span.End()
	log := p.logger.With("user_id", req.UserID)

	finish := func() *Result {
		s := r.summary
		s.HabitsImported = r.commit.HabitsImported
		s.HabitsSkipped = r.commit.HabitsSkipped
		s.EntriesImported = r.commit.EntriesImported
		s.EntriesSkipped = r.commit.EntriesSkipped
		s.EntriesFailed = r.commit.EntriesFailed
		s.ProcessingTimeMs = p.now().Sub(start).Milliseconds()
		s.Recommendations = Recommendations(s)
		if s.Recommendations == nil {
			s.Recommendations = []string{}
		}

		outcome := "complete"
		if !s.Success {
			outcome = "failed"
			span.SetStatus(codes.Error, "import failed")
		}
		metrics.ImportRun(outcome)
		metrics.Entries("imported", s.EntriesImported)
		metrics.Entries("skipped", s.EntriesSkipped)
		metrics.Entries("failed", s.EntriesFailed)
		log.Info("import finished",
			"success", s.Success,
			"habits_imported", s.HabitsImported,
			"entries_imported", s.EntriesImported,
			"entries_failed", s.EntriesFailed,
			"duration_ms", s.ProcessingTimeMs,
		)
		rep.enter(StageComplete, "Import complete")
		return &Result{Outcome: OutcomeComplete, Summary: s}
	}

	// Validation
	rep.enter(StageValidation, "Validating files")
	var report Report
	if err := p.stage(ctx, StageValidation, func(context.Context) error {
		report = Validate(req.Files, req.HabitFiles, p.maxBytes)
		if req.UserID == "" {
			report.add(issue(KindValidation, SeverityError, "user id is required"))
		}
		return nil
	}); err != nil {
		r.fail(err)
		return finish()
	}
	r.summary.Warnings = append(r.summary.Warnings, report.Warnings...)
	if !report.IsValid() {
		log.Info("import rejected by validation", "errors", len(report.Errors))
		r.summary.Success = false
		r.summary.Errors = append(r.summary.Errors, report.Errors...)
		return finish()
	}

	// Parsing
	rep.enter(StageParsing, "Parsing habits and checkmarks")
	var ds *Dataset
	var existing []*domain.Habit
	if err := p.stage(ctx, StageParsing, func(ctx context.Context) error {
		ds = Normalize(req.Files)
		if len(req.HabitFiles) > 0 {
			var err error
			if existing, err = p.habits.ListByUser(ctx, req.UserID); err != nil {
				return fmt.Errorf("loading existing habits: %w", err)
			}
			MergeHabitFiles(ds, req.HabitFiles, req.FolderMappings, existing)
		}
		return nil
	}); err != nil {
		r.fail(err)
		return finish()
	}
	r.addIssues(ds.Issues)
	r.summary.TotalHabits = len(ds.Habits)

	// Conflict detection
	rep.enter(StageConflictResolution, "Checking for conflicts with existing habits")
	var conflicts []ConflictRecord
	if err := p.stage(ctx, StageConflictResolution, func(ctx context.Context) error {
		if existing == nil {
			var err error
			if existing, err = p.habits.ListByUser(ctx, req.UserID); err != nil {
				return fmt.Errorf("loading existing habits: %w", err)
			}
		}
		counts, err := p.entries.CountByHabit(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("counting existing entries: %w", err)
		}
		conflicts = DetectConflicts(ds, existing, counts)
		return nil
	}); err != nil {
		r.fail(err)
		return finish()
	}
	metrics.Conflicts(len(conflicts))

	if len(conflicts) > 0 && len(req.Resolutions) == 0 && !req.MergeAll {
		log.Info("import waiting for conflict resolution", "conflicts", len(conflicts))
		span.SetAttributes(attribute.Int("lifelog.conflicts", len(conflicts)))
		metrics.ImportRun("conflicts")
		return &Result{Outcome: OutcomeConflicts, Conflicts: conflicts}
	}

	ds, resolved, resolveIssues := Resolve(ds, conflicts, req.Resolutions, existing)
	r.summary.Conflicts = resolved
	r.addIssues(resolveIssues)

	// Commit
	rep.enter(StageImporting, fmt.Sprintf("Importing %d habits", len(ds.Habits)))
	lookup := make(map[domain.EntityKey]*domain.Habit, len(existing))
	for _, h := range existing {
		lookup[h.Key] = h
	}
	committer := NewCommitter(p.habits, p.entries, p.workers, log)
	committer.now = p.now
	if err := p.stage(ctx, StageImporting, func(ctx context.Context) error {
		committer.commitInto(ctx, req.UserID, ds, lookup, &r.commit, func(done, total int, habit string) {
			rep.emit(Progress{
				Stage:   StageImporting,
				Percent: importingPercent(done, total),
				Message: fmt.Sprintf("Imported %s (%d/%d)", habit, done, total),
				Details: map[string]any{"habit": habit, "done": done, "total": total},
			})
		})
		return nil
	}); err != nil {
		r.fail(err)
	}
	r.addIssues(r.commit.Errors)
	if !r.summary.Success {
		return finish()
	}

	// Streaks
	rep.enter(StageCalculatingStreaks, "Recalculating streaks")
	streaks := make(map[domain.EntityKey]streak.Result, len(r.commit.Habits))
	if err := p.stage(ctx, StageCalculatingStreaks, func(ctx context.Context) error {
		for _, h := range r.commit.Habits {
			res, err := p.streaks.Recalculate(ctx, req.UserID, h.ID)
			if err != nil {
				r.addIssues([]ValidationIssue{issue(KindDatabase, SeverityError,
					fmt.Sprintf("recalculating streaks for %q: %v", h.Name, err)).forEntity(h.Name)})
				continue
			}
			streaks[h.Key] = res
		}
		return nil
	}); err != nil {
		r.fail(err)
	}

	r.summary.Statistics = BuildStatistics(ds, streaks)
	return finish()
}

// stage runs fn inside a span, timing it and turning a panic into an error.
func (p *Pipeline) stage(ctx context.Context, s Stage, fn func(context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, "importer."+string(s))
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s stage failed: %v", s, rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.ErrorContext(ctx, "import stage failed", "stage", string(s), "error", err)
		}
		metrics.ObserveStage(string(s), time.Since(started), err == nil)
		span.End()
	}()
	return fn(ctx)
}
