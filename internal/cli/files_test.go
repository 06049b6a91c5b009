package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExportDir_Combined(t *testing.T) {
	dir := writeExport(t)

	files, habitFiles, err := loadExportDir(dir)
	require.NoError(t, err)
	assert.Equal(t, habitsCSV, files.Habits)
	assert.Equal(t, checkmarksCSV, files.Checkmarks)
	assert.Equal(t, scoresCSV, files.Scores)
	assert.Empty(t, habitFiles)
}

func TestLoadExportDir_PerHabitFolders(t *testing.T) {
	dir := t.TempDir()
	for folder, body := range map[string]string{
		"002 Read":     "2024-01-01,2\n",
		"001 Meditate": "2024-01-01,2\n2024-01-02,0\n",
		".hidden":      "2024-01-01,2\n",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, folder), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, folder, checkmarksFileName), []byte(body), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	files, habitFiles, err := loadExportDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files.Checkmarks)
	require.Len(t, habitFiles, 2)
	assert.Equal(t, "001 Meditate", habitFiles[0].Folder)
	assert.Equal(t, "002 Read", habitFiles[1].Folder)
}

func TestLoadExportDir_NothingToImport(t *testing.T) {
	_, _, err := loadExportDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), checkmarksFileName)
}

func TestLoadExportDir_Missing(t *testing.T) {
	_, _, err := loadExportDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
