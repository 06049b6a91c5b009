package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexanderramin/lifelog/internal/importer"
)

// Export file names as written by the habit tracker.
const (
	habitsFileName     = "Habits.csv"
	checkmarksFileName = "Checkmarks.csv"
	scoresFileName     = "Scores.csv"
)

// loadExportDir reads an unzipped export. Top-level Habits, Checkmarks and
// Scores files fill the combined file set; each subfolder holding a
// Checkmarks file becomes one per-habit file named after the folder.
func loadExportDir(dir string) (importer.RawFileSet, []importer.HabitFile, error) {
	var files importer.RawFileSet
	for name, dst := range map[string]*string{
		habitsFileName:     &files.Habits,
		checkmarksFileName: &files.Checkmarks,
		scoresFileName:     &files.Scores,
	} {
		text, err := readOptional(filepath.Join(dir, name))
		if err != nil {
			return files, nil, err
		}
		*dst = text
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return files, nil, fmt.Errorf("reading export directory: %w", err)
	}
	var habitFiles []importer.HabitFile
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		text, err := readOptional(filepath.Join(dir, e.Name(), checkmarksFileName))
		if err != nil {
			return files, nil, err
		}
		if text == "" {
			continue
		}
		habitFiles = append(habitFiles, importer.HabitFile{Folder: e.Name(), Checkmarks: text})
	}
	sort.Slice(habitFiles, func(i, j int) bool { return habitFiles[i].Folder < habitFiles[j].Folder })

	if files.Checkmarks == "" && len(habitFiles) == 0 {
		return files, nil, fmt.Errorf("%s holds no %s file", dir, checkmarksFileName)
	}
	return files, habitFiles, nil
}

// readOptional returns "" for a missing file.
func readOptional(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func readRequired(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}
