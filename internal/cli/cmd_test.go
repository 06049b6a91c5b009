package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexanderramin/lifelog/internal/api"
	"github.com/alexanderramin/lifelog/internal/domain"
	"github.com/alexanderramin/lifelog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCmd_FromDir(t *testing.T) {
	app, _ := testApp(t)

	out, progress, err := execute(t, app, "import", "--dir", writeExport(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Import complete")
	assert.Contains(t, out, "Meditate")
	assert.Contains(t, progress, "Validating")
	assert.Contains(t, progress, "100%")
}

func TestImportCmd_FromPaths(t *testing.T) {
	app, _ := testApp(t)
	dir := writeExport(t)

	out, _, err := execute(t, app, "import",
		"--habits", filepath.Join(dir, habitsFileName),
		"--checkmarks", filepath.Join(dir, checkmarksFileName))
	require.NoError(t, err)
	assert.Contains(t, out, "Import complete")
}

func TestImportCmd_RequiresInput(t *testing.T) {
	app, _ := testApp(t)
	_, _, err := execute(t, app, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dir")
}

func TestImportCmd_MissingFile(t *testing.T) {
	app, _ := testApp(t)
	_, _, err := execute(t, app, "import", "--checkmarks", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestImportCmd_StopsOnConflictsWithoutDecisions(t *testing.T) {
	app, habits := testApp(t)
	require.NoError(t, habits.Create(context.Background(), testutil.NewTestHabit("Meditate")))

	out, _, err := execute(t, app, "import", "--dir", writeExport(t))
	require.ErrorIs(t, err, ErrUnresolvedConflicts)
	assert.Contains(t, out, "Already stored: 1 habit")
	assert.Contains(t, out, "Meditate")

	stored, err := habits.ListByUser(context.Background(), testutil.TestUserID)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "nothing is written while conflicts are pending")
}

func TestImportCmd_ResolveFlag(t *testing.T) {
	app, habits := testApp(t)
	require.NoError(t, habits.Create(context.Background(), testutil.NewTestHabit("Meditate")))

	out, _, err := execute(t, app, "import", "--dir", writeExport(t), "--resolve", "Meditate=rename:Morning Meditate")
	require.NoError(t, err)
	assert.Contains(t, out, "Import complete")

	stored, err := habits.ListByUser(context.Background(), testutil.TestUserID)
	require.NoError(t, err)
	names := make([]string, 0, len(stored))
	for _, h := range stored {
		names = append(names, h.Name)
	}
	assert.ElementsMatch(t, []string{"Meditate", "Morning Meditate", "Read"}, names)
}

func TestImportCmd_MergeAllIsIdempotent(t *testing.T) {
	app, habits := testApp(t)
	dir := writeExport(t)

	_, _, err := execute(t, app, "import", "--dir", dir)
	require.NoError(t, err)
	_, _, err = execute(t, app, "import", "--dir", dir, "--merge-all")
	require.NoError(t, err)

	stored, err := habits.ListByUser(context.Background(), testutil.TestUserID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestImportCmd_NDJSON(t *testing.T) {
	app, _ := testApp(t)

	out, _, err := execute(t, app, "import", "--dir", writeExport(t), "--ndjson")
	require.NoError(t, err)

	var events []api.Event
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var ev api.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, api.EventProgress, events[0].Type)
	last := events[len(events)-1]
	require.Equal(t, api.EventComplete, last.Type)
	assert.Equal(t, 6, last.Summary.EntriesImported)
}

func TestImportCmd_NDJSONConflicts(t *testing.T) {
	app, habits := testApp(t)
	require.NoError(t, habits.Create(context.Background(), testutil.NewTestHabit("Read")))

	out, _, err := execute(t, app, "import", "--dir", writeExport(t), "--ndjson")
	require.ErrorIs(t, err, ErrUnresolvedConflicts)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var last api.Event
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, api.EventConflicts, last.Type)
	assert.NotEmpty(t, last.SessionID)
	require.Len(t, last.Conflicts, 1)
	assert.Equal(t, "Read", last.Conflicts[0].EntityName)
}

func TestImportCmd_StructuralFailure(t *testing.T) {
	app, _ := testApp(t)
	dir := writeExport(t)
	empty := filepath.Join(t.TempDir(), "Habits.csv")
	require.NoError(t, writeFile(empty, ""))

	out, _, err := execute(t, app, "import", "--dir", dir, "--habits", empty)
	require.Error(t, err)
	assert.Contains(t, out, "Import failed")
	assert.Contains(t, out, "habits file is empty")
}

func TestHabitsCmd_ListDeleteRecalc(t *testing.T) {
	app, habits := testApp(t)
	_, _, err := execute(t, app, "import", "--dir", writeExport(t))
	require.NoError(t, err)

	out, _, err := execute(t, app, "habits", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Meditate")
	assert.Contains(t, out, "Read")

	out, _, err = execute(t, app, "habits", "recalc")
	require.NoError(t, err)
	assert.Contains(t, out, "STREAK")

	stored, err := habits.ListByUser(context.Background(), testutil.TestUserID)
	require.NoError(t, err)
	var target *domain.Habit
	for _, h := range stored {
		if h.Name == "Meditate" {
			target = h
		}
	}
	require.NotNil(t, target)

	out, _, err = execute(t, app, "habits", "rename", target.ID, "Sitting")
	require.NoError(t, err)
	assert.Contains(t, out, "Sitting")
	_, _, err = execute(t, app, "habits", "rename", target.ID, "read")
	require.ErrorContains(t, err, "already have a habit")

	_, _, err = execute(t, app, "habits", "delete", target.ID)
	require.Error(t, err, "non-interactive delete needs --yes")

	out, _, err = execute(t, app, "habits", "delete", target.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "and 3 entries")

	stored, err = habits.ListByUser(context.Background(), testutil.TestUserID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestHabitsCmd_ListJSON(t *testing.T) {
	app, _ := testApp(t)
	_, _, err := execute(t, app, "import", "--dir", writeExport(t))
	require.NoError(t, err)

	out, _, err := execute(t, app, "habits", "list", "--json")
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded, 2)
}

func TestHabitsCmd_UserFlagScopes(t *testing.T) {
	app, _ := testApp(t)
	_, _, err := execute(t, app, "import", "--dir", writeExport(t))
	require.NoError(t, err)

	out, _, err := execute(t, app, "habits", "list", "--user", "someone-else")
	require.NoError(t, err)
	assert.Contains(t, out, "No habits yet")
}

func TestServeCmd_RequiresHandler(t *testing.T) {
	app, _ := testApp(t)
	_, _, err := execute(t, app, "serve")
	require.Error(t, err)
}
