package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/alexanderramin/lifelog/internal/session"
	"github.com/alexanderramin/lifelog/internal/streak"
	"github.com/alexanderramin/lifelog/internal/testutil"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

const (
	habitsCSV     = "Position,Name,Question,Description\n1,Meditate,,\n2,Read,,\n"
	checkmarksCSV = "Date,Meditate,Read\n2024-01-01,2,2\n2024-01-02,2,0\n2024-01-03,2,2\n"
	scoresCSV     = "Date,Meditate,Read\n2024-01-01,0.1,0.1\n2024-01-02,0.2,0.1\n2024-01-03,0.3,0.2\n"
)

// testApp wires an App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) (*App, repository.HabitRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	habits := repository.NewSQLiteHabitRepo(database)
	entries := repository.NewSQLiteEntryRepo(database)
	uow := testutil.NewTestUoW(database)
	clock := func() time.Time { return fixedNow }
	recalc := streak.NewRecalculator(uow).WithClock(clock)
	pipeline := importer.NewPipeline(habits, entries, recalc, importer.WithClock(clock))

	return &App{
		Imports: service.NewImportService(pipeline, session.NewMemoryStore(time.Hour)),
		Habits:  service.NewHabitService(habits, uow, recalc),
		UserID:  testutil.TestUserID,
	}, habits
}

// writeExport lays out a combined export under a temp dir.
func writeExport(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		habitsFileName:     habitsCSV,
		checkmarksFileName: checkmarksCSV,
		scoresFileName:     scoresCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func execute(t *testing.T, app *App, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd(app)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}
