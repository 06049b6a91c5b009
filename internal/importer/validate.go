package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/lifelog/internal/domain"
)

// dateSampleRows bounds how many checkmark rows have their date checked.
const dateSampleRows = 10

// minHabitFields is the column count below which a habits row is flagged.
const minHabitFields = 4

// Report splits validation findings by severity.
type Report struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

func (r Report) IsValid() bool { return len(r.Errors) == 0 }

func (r *Report) add(v ValidationIssue) {
	if v.Severity == SeverityError {
		r.Errors = append(r.Errors, v)
		return
	}
	r.Warnings = append(r.Warnings, v)
}

func (r *Report) errorf(format string, args ...any) {
	r.add(issue(KindValidation, SeverityError, fmt.Sprintf(format, args...)))
}

func (r *Report) warnf(format string, args ...any) {
	r.add(issue(KindValidation, SeverityWarning, fmt.Sprintf(format, args...)))
}

// Validate runs structural, row-level and cross-file checks over an import.
// When habitFiles is non-empty the per-habit files stand in for the combined
// checkmarks file. Validate never modifies its input.
func Validate(files RawFileSet, habitFiles []HabitFile, maxBytes int64) Report {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	var r Report

	checkSize := func(name, text string) {
		if int64(len(text)) > maxBytes {
			r.errorf("%s file is %d bytes, larger than the %d byte limit", name, len(text), maxBytes)
		}
	}
	checkSize("habits", files.Habits)
	checkSize("checkmarks", files.Checkmarks)
	checkSize("scores", files.Scores)
	for _, hf := range habitFiles {
		checkSize(hf.Folder, hf.Checkmarks)
	}

	folderFlow := len(habitFiles) > 0

	// Habit definitions are optional when each habit has its own file.
	var habitNames []string
	if !folderFlow || !isBlank(files.Habits) {
		habitNames = validateHabits(&r, files.Habits)
	}

	var columnNames []string
	if folderFlow {
		for _, hf := range habitFiles {
			validateHabitFile(&r, hf)
		}
	} else {
		columnNames = validateCheckmarks(&r, files.Checkmarks)
	}

	if isBlank(files.Scores) {
		r.warnf("scores file is empty; score statistics will be unavailable")
	}

	if !folderFlow && habitNames != nil && columnNames != nil {
		crossCheck(&r, habitNames, columnNames)
	}
	return r
}

// validateHabits returns the habit names found, or nil when the file is
// structurally unusable.
func validateHabits(r *Report, text string) []string {
	if isBlank(text) {
		r.errorf("habits file is empty")
		return nil
	}
	recs, err := readRecords(text)
	if err != nil {
		r.warnf("habits file: malformed CSV after %d lines: %v", len(recs), err)
	}
	if len(recs) == 0 {
		r.errorf("habits file has no header row")
		return nil
	}

	idx := headerIndex(recs[0])
	structural := false
	for _, token := range []string{"position", "name"} {
		if _, ok := idx[token]; !ok {
			r.errorf("habits file header is missing required column %q", token)
			structural = true
		}
	}
	if len(recs) < 2 {
		r.errorf("habits file has no data rows")
		return nil
	}
	if structural {
		return nil
	}

	nameCol := idx["name"]
	names := make([]string, 0, len(recs)-1)
	for i, rec := range recs[1:] {
		row := i + 1
		if len(rec) < minHabitFields {
			r.add(issue(KindValidation, SeverityWarning,
				fmt.Sprintf("habits row %d has %d fields, expected at least %d", row, len(rec), minHabitFields)).atRecord(row))
		}
		name := sanitize(field(rec, nameCol))
		if name == "" {
			r.add(issue(KindValidation, SeverityError,
				fmt.Sprintf("habits row %d is missing a habit name", row)).atRecord(row))
			continue
		}
		names = append(names, name)
	}
	return names
}

// validateCheckmarks returns the habit columns of the header, or nil when the
// file is structurally unusable.
func validateCheckmarks(r *Report, text string) []string {
	if isBlank(text) {
		r.errorf("checkmarks file is empty")
		return nil
	}
	recs, err := readRecords(text)
	if err != nil {
		r.warnf("checkmarks file: malformed CSV after %d lines: %v", len(recs), err)
	}
	if len(recs) == 0 || !strings.EqualFold(field(recs[0], 0), "date") {
		r.errorf("checkmarks file header must start with a Date column")
		return nil
	}
	if len(recs) < 2 {
		r.errorf("checkmarks file has no data rows")
		return nil
	}

	sampleDates(r, "checkmarks", recs[1:])

	var names []string
	for _, h := range recs[0][1:] {
		if name := sanitize(h); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func validateHabitFile(r *Report, hf HabitFile) {
	if isBlank(hf.Checkmarks) {
		r.add(issue(KindValidation, SeverityError,
			fmt.Sprintf("checkmarks file for %q is empty", hf.Folder)).forEntity(hf.Folder))
		return
	}
	recs, err := readRecords(hf.Checkmarks)
	if err != nil {
		r.warnf("checkmarks file for %q: malformed CSV after %d lines: %v", hf.Folder, len(recs), err)
	}
	if len(recs) > 0 {
		if _, ok := parseDate(field(recs[0], 0)); !ok {
			recs = recs[1:]
		}
	}
	if len(recs) == 0 {
		r.errorf("checkmarks file for %q has no data rows", hf.Folder)
		return
	}
	sampleDates(r, hf.Folder, recs)
}

// sampleDates checks the first dateSampleRows rows only; the normalizer
// reports the rest.
func sampleDates(r *Report, file string, rows [][]string) {
	for i, rec := range rows {
		if i >= dateSampleRows {
			return
		}
		if _, ok := parseDate(field(rec, 0)); !ok {
			r.add(issue(KindValidation, SeverityWarning,
				fmt.Sprintf("%s row %d has an unparsable date %q", file, i+1, field(rec, 0))).atRecord(i + 1))
		}
	}
}

func crossCheck(r *Report, habitNames, columnNames []string) {
	inHabits := make(map[domain.EntityKey]bool, len(habitNames))
	for _, n := range habitNames {
		inHabits[domain.NewEntityKey(n)] = true
	}
	inColumns := make(map[domain.EntityKey]bool, len(columnNames))
	for _, n := range columnNames {
		inColumns[domain.NewEntityKey(n)] = true
	}
	for _, n := range habitNames {
		if !inColumns[domain.NewEntityKey(n)] {
			r.add(issue(KindValidation, SeverityWarning,
				fmt.Sprintf("habit %q has no column in the checkmarks file", n)).forEntity(n))
		}
	}
	for _, n := range columnNames {
		if !inHabits[domain.NewEntityKey(n)] {
			r.add(issue(KindValidation, SeverityWarning,
				fmt.Sprintf("checkmarks column %q has no matching habit; its entries will be ignored", n)).forEntity(n))
		}
	}
}
