package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SampleExportIsValid(t *testing.T) {
	r := Validate(sampleFiles(), nil, 0)
	assert.True(t, r.IsValid())
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestValidate_EmptyScoresIsAWarning(t *testing.T) {
	files := sampleFiles()
	files.Scores = ""
	r := Validate(files, nil, 0)
	assert.True(t, r.IsValid())
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0].Message, "scores")
}

func TestValidate_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *RawFileSet)
		wantMsg string
	}{
		{"empty habits", func(f *RawFileSet) { f.Habits = "  \n" }, "habits file is empty"},
		{"habits missing name column", func(f *RawFileSet) { f.Habits = "Position,Title\n1,Read\n" }, `missing required column "name"`},
		{"habits without rows", func(f *RawFileSet) { f.Habits = "Position,Name,Question,Description\n" }, "habits file has no data rows"},
		{"empty checkmarks", func(f *RawFileSet) { f.Checkmarks = "" }, "checkmarks file is empty"},
		{"checkmarks without date column", func(f *RawFileSet) { f.Checkmarks = "Day,Meditate\n2024-01-01,2\n" }, "must start with a Date column"},
		{"checkmarks without rows", func(f *RawFileSet) { f.Checkmarks = "Date,Meditate\n" }, "checkmarks file has no data rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := sampleFiles()
			tt.mutate(&files)
			r := Validate(files, nil, 0)
			require.False(t, r.IsValid())
			assert.Contains(t, r.Errors[0].Message, tt.wantMsg)
			assert.Equal(t, KindValidation, r.Errors[0].Kind)
		})
	}
}

func TestValidate_RowMissingNameCarriesRecordIndex(t *testing.T) {
	files := sampleFiles()
	files.Habits = "Position,Name,Question,Description\n1,Meditate,,\n2,,,\n"
	r := Validate(files, nil, 0)
	require.Len(t, r.Errors, 1)
	require.NotNil(t, r.Errors[0].RecordIndex)
	assert.Equal(t, 2, *r.Errors[0].RecordIndex)
}

func TestValidate_ShortRowIsAWarning(t *testing.T) {
	files := sampleFiles()
	files.Habits = "Position,Name\n1,Meditate\n"
	files.Checkmarks = "Date,Meditate\n2024-01-01,2\n"
	r := Validate(files, nil, 0)
	assert.True(t, r.IsValid())
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0].Message, "has 2 fields")
}

func TestValidate_FileSizeLimit(t *testing.T) {
	files := sampleFiles()
	r := Validate(files, nil, int64(len(files.Habits)-1))
	require.False(t, r.IsValid())
	assert.Contains(t, r.Errors[0].Message, "habits file is")
}

func TestValidate_SamplesOnlyLeadingDates(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Meditate,No Smoking,Don't Snack\n")
	for i := 0; i < dateSampleRows; i++ {
		b.WriteString("2024-01-01,2,2,2\n")
	}
	b.WriteString("garbage,2,2,2\n")
	files := sampleFiles()
	files.Checkmarks = b.String()
	r := Validate(files, nil, 0)
	assert.Empty(t, r.Warnings, "rows past the sample are left to the normalizer")

	files.Checkmarks = "Date,Meditate,No Smoking,Don't Snack\ngarbage,2,2,2\n2024-01-01,2,2,2\n"
	r = Validate(files, nil, 0)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0].Message, "unparsable date")
}

func TestValidate_CrossFileMismatchWarnings(t *testing.T) {
	files := sampleFiles()
	files.Checkmarks = "Date,Meditate,No Smoking,Journal\n2024-01-01,2,2,2\n"
	r := Validate(files, nil, 0)
	assert.True(t, r.IsValid())

	var entities []string
	for _, w := range r.Warnings {
		entities = append(entities, w.EntityName)
	}
	assert.ElementsMatch(t, []string{"Don't Snack", "Journal"}, entities)
}

func TestValidate_FolderFlow(t *testing.T) {
	files := RawFileSet{Scores: sampleScores}
	habitFiles := []HabitFile{
		{Folder: "001 Meditate", Checkmarks: "Date,Value\n2024-01-01,2\n"},
		{Folder: "002 Read", Checkmarks: "2024-01-01,2\n"},
	}
	r := Validate(files, habitFiles, 0)
	assert.True(t, r.IsValid(), "habit definitions are optional with per-habit files")

	habitFiles = append(habitFiles, HabitFile{Folder: "003 Walk", Checkmarks: ""})
	r = Validate(files, habitFiles, 0)
	require.False(t, r.IsValid())
	assert.Equal(t, "003 Walk", r.Errors[0].EntityName)
}
