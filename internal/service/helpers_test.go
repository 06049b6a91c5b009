package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/lifelog/internal/db"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/session"
	"github.com/alexanderramin/lifelog/internal/streak"
	"github.com/alexanderramin/lifelog/internal/testutil"
)

var fixedNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *sql.DB
	habits   repository.HabitRepo
	entries  repository.EntryRepo
	uow      db.UnitOfWork
	recalc   *streak.Recalculator
	pipeline *importer.Pipeline
	sessions *session.MemoryStore
	observer *recordingObserver
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	habits := repository.NewSQLiteHabitRepo(database)
	entries := repository.NewSQLiteEntryRepo(database)
	uow := testutil.NewTestUoW(database)
	clock := func() time.Time { return fixedNow }
	recalc := streak.NewRecalculator(uow).WithClock(clock)
	return testEnv{
		db:       database,
		habits:   habits,
		entries:  entries,
		uow:      uow,
		recalc:   recalc,
		pipeline: importer.NewPipeline(habits, entries, recalc, importer.WithClock(clock)),
		sessions: session.NewMemoryStore(time.Hour),
		observer: &recordingObserver{},
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

const (
	habitsCSV     = "Position,Name,Question,Description\n1,Meditate,,\n2,Read,,\n"
	checkmarksCSV = "Date,Meditate,Read\n2024-01-01,2,2\n2024-01-02,2,0\n2024-01-03,2,2\n"
)

func importRequest(userID string) ImportRequest {
	return ImportRequest{Request: importer.Request{
		UserID: userID,
		Files:  importer.RawFileSet{Habits: habitsCSV, Checkmarks: checkmarksCSV},
	}}
}
