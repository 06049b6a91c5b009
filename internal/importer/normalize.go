package importer

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/lifelog/internal/domain"
)

// maxRowIssues caps per-row parsing warnings reported for one file.
const maxRowIssues = 50

var (
	markupPattern = regexp.MustCompile(`<[^>]*>`)
	folderPrefix  = regexp.MustCompile(`^\d+\s*[-_.]?\s*`)
)

// sanitize strips angle-bracket markup and surrounding whitespace.
func sanitize(s string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(s, ""))
}

type habitColumns struct {
	position, name, question, description, reps, interval, color int
}

// columnsFor locates habit fields by header token. A field whose token is
// absent gets -1 and reads as empty.
func columnsFor(header []string) habitColumns {
	idx := headerIndex(header)
	col := func(names ...string) int {
		for _, n := range names {
			if i, ok := idx[n]; ok {
				return i
			}
		}
		return -1
	}
	return habitColumns{
		position:    col("position"),
		name:        col("name"),
		question:    col("question"),
		description: col("description"),
		reps:        col("numrepetitions", "repetitions", "frequencynumerator"),
		interval:    col("interval", "frequencydenominator"),
		color:       col("color"),
	}
}

func positiveOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func normalizeColor(s string) string {
	if domain.ValidColor(s) {
		return strings.ToUpper(s)
	}
	return domain.DefaultColor
}

// rowIssues collects per-row parsing warnings up to maxRowIssues and counts
// the rest.
type rowIssues struct {
	file       string
	issues     []ValidationIssue
	suppressed int
}

func (r *rowIssues) add(row int, format string, args ...any) {
	if len(r.issues) >= maxRowIssues {
		r.suppressed++
		return
	}
	msg := fmt.Sprintf("%s row %d: %s", r.file, row, fmt.Sprintf(format, args...))
	r.issues = append(r.issues, issue(KindParsing, SeverityWarning, msg).atRecord(row))
}

func (r *rowIssues) readErr(err error) {
	if err != nil {
		r.issues = append(r.issues, issue(KindParsing, SeverityWarning,
			fmt.Sprintf("%s: stopped reading at malformed line: %v", r.file, err)))
	}
}

func (r *rowIssues) done() []ValidationIssue {
	if r.suppressed > 0 {
		r.issues = append(r.issues, issue(KindParsing, SeverityWarning,
			fmt.Sprintf("%s: %d more rows skipped", r.file, r.suppressed)))
	}
	return r.issues
}

// ParseHabits reads habit definitions. Rows without a name are skipped and
// reported; rows with fewer columns than expected are kept.
func ParseHabits(text string) ([]NormalizedHabit, []ValidationIssue) {
	ri := &rowIssues{file: "habits"}
	recs, err := readRecords(text)
	ri.readErr(err)
	if len(recs) == 0 {
		return nil, ri.done()
	}

	cols := columnsFor(recs[0])
	seen := make(map[domain.EntityKey]bool)
	var habits []NormalizedHabit
	for i, rec := range recs[1:] {
		row := i + 1
		name := sanitize(field(rec, cols.name))
		if name == "" {
			ri.add(row, "missing habit name, skipped")
			continue
		}
		key := domain.NewEntityKey(name)
		if seen[key] {
			ri.add(row, "duplicate habit %q, skipped", name)
			continue
		}
		seen[key] = true

		pol := domain.ClassifyPolarity(name)
		habits = append(habits, NormalizedHabit{
			Name:             name,
			Description:      sanitize(field(rec, cols.description)),
			Question:         sanitize(field(rec, cols.question)),
			Position:         positiveOr(field(rec, cols.position), row),
			RepetitionTarget: positiveOr(field(rec, cols.reps), 1),
			IntervalDays:     positiveOr(field(rec, cols.interval), 1),
			Color:            normalizeColor(field(rec, cols.color)),
			Polarity:         pol,
			Type:             domain.TypeFor(pol),
		})
	}
	return habits, ri.done()
}

// parseRaw reads a checkmark cell. Empty cells report ok=false; numeric
// habits export decimals, which are truncated. Values outside the int32
// range are rejected.
func parseRaw(cell string) (raw int, ok bool, err error) {
	if cell == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false, fmt.Errorf("invalid value %q", cell)
	}
	return int(f), true, nil
}

// entryCollector keeps the last value seen for each habit and day.
type entryCollector map[domain.EntityKey]map[string]NormalizedEntry

func (c entryCollector) put(key domain.EntityKey, e NormalizedEntry) {
	days := c[key]
	if days == nil {
		days = make(map[string]NormalizedEntry)
		c[key] = days
	}
	days[domain.DayKey(e.Date)] = e
}

func (c entryCollector) sorted() map[domain.EntityKey][]NormalizedEntry {
	out := make(map[domain.EntityKey][]NormalizedEntry, len(c))
	for key, days := range c {
		list := make([]NormalizedEntry, 0, len(days))
		for _, e := range days {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
		out[key] = list
	}
	return out
}

// polarityFor returns the known polarity for name, classifying it when the
// habit is not in polarities.
func polarityFor(polarities map[domain.EntityKey]domain.Polarity, name string) domain.Polarity {
	if p, ok := polarities[domain.NewEntityKey(name)]; ok {
		return p
	}
	return domain.ClassifyPolarity(name)
}

// ParseCheckmarks reads the combined Date,<habit...> file. Rows with an
// unparsable date are dropped; empty and unknown (negative) cells produce no
// entry. When a habit has two lines for the same day the later one wins.
func ParseCheckmarks(text string, polarities map[domain.EntityKey]domain.Polarity) (map[domain.EntityKey][]NormalizedEntry, []ValidationIssue) {
	ri := &rowIssues{file: "checkmarks"}
	recs, err := readRecords(text)
	ri.readErr(err)
	if len(recs) == 0 {
		return map[domain.EntityKey][]NormalizedEntry{}, ri.done()
	}

	type column struct {
		name string
		key  domain.EntityKey
		pol  domain.Polarity
	}
	header := recs[0]
	cols := make([]*column, len(header))
	for j := 1; j < len(header); j++ {
		name := sanitize(header[j])
		if name == "" {
			continue
		}
		cols[j] = &column{name: name, key: domain.NewEntityKey(name), pol: polarityFor(polarities, name)}
	}

	acc := make(entryCollector)
	for i, rec := range recs[1:] {
		row := i + 1
		day, ok := parseDate(field(rec, 0))
		if !ok {
			ri.add(row, "unparsable date %q, row skipped", field(rec, 0))
			continue
		}
		for j := 1; j < len(rec) && j < len(cols); j++ {
			col := cols[j]
			if col == nil {
				continue
			}
			raw, present, err := parseRaw(field(rec, j))
			if err != nil {
				ri.add(row, "%s: %v", col.name, err)
				continue
			}
			if !present {
				continue
			}
			value, known := domain.NormalizeValue(col.pol, raw)
			if !known {
				continue
			}
			acc.put(col.key, NormalizedEntry{EntityName: col.name, Date: day, RawValue: raw, Value: value})
		}
	}
	return acc.sorted(), ri.done()
}

// ParseScores returns each habit's score on the latest dated row where it
// has one.
func ParseScores(text string) (map[domain.EntityKey]float64, []ValidationIssue) {
	ri := &rowIssues{file: "scores"}
	recs, err := readRecords(text)
	ri.readErr(err)
	scores := make(map[domain.EntityKey]float64)
	if len(recs) == 0 {
		return scores, ri.done()
	}

	header := recs[0]
	latest := make(map[domain.EntityKey]time.Time)
	for i, rec := range recs[1:] {
		day, ok := parseDate(field(rec, 0))
		if !ok {
			ri.add(i+1, "unparsable date %q, row skipped", field(rec, 0))
			continue
		}
		for j := 1; j < len(rec) && j < len(header); j++ {
			name := sanitize(header[j])
			cell := field(rec, j)
			if name == "" || cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			key := domain.NewEntityKey(name)
			if prev, seen := latest[key]; !seen || !day.Before(prev) {
				latest[key] = day
				scores[key] = v
			}
		}
	}
	return scores, ri.done()
}

// ParseHabitFile reads one per-habit Date,Value checkmarks file. The header
// row is optional.
func ParseHabitFile(hf HabitFile, name string, pol domain.Polarity) ([]NormalizedEntry, []ValidationIssue) {
	ri := &rowIssues{file: hf.Folder}
	recs, err := readRecords(hf.Checkmarks)
	ri.readErr(err)
	if len(recs) > 0 {
		if _, ok := parseDate(field(recs[0], 0)); !ok {
			recs = recs[1:]
		}
	}

	key := domain.NewEntityKey(name)
	acc := make(entryCollector)
	for i, rec := range recs {
		row := i + 1
		day, ok := parseDate(field(rec, 0))
		if !ok {
			ri.add(row, "unparsable date %q, row skipped", field(rec, 0))
			continue
		}
		raw, present, err := parseRaw(field(rec, 1))
		if err != nil {
			ri.add(row, "%v", err)
			continue
		}
		if !present {
			continue
		}
		value, known := domain.NormalizeValue(pol, raw)
		if !known {
			continue
		}
		acc.put(key, NormalizedEntry{EntityName: name, Date: day, RawValue: raw, Value: value})
	}
	return acc.sorted()[key], ri.done()
}

// FolderHabitName derives a habit name from an export folder such as
// "001 Meditate" or "Habits/012-Read".
func FolderHabitName(folder string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(folder), `\`, "/"))
	name := strings.TrimSpace(folderPrefix.ReplaceAllString(base, ""))
	if name == "" || name == "." || name == "/" {
		return sanitize(base)
	}
	return sanitize(name)
}

// Normalize parses a combined export into a Dataset. It never fails; rows it
// cannot use become parsing warnings.
func Normalize(files RawFileSet) *Dataset {
	habits, issues := ParseHabits(files.Habits)

	polarities := make(map[domain.EntityKey]domain.Polarity, len(habits))
	for _, h := range habits {
		polarities[h.Key()] = h.Polarity
	}
	entries, entryIssues := ParseCheckmarks(files.Checkmarks, polarities)
	issues = append(issues, entryIssues...)

	scores := map[domain.EntityKey]float64{}
	if !isBlank(files.Scores) {
		var scoreIssues []ValidationIssue
		scores, scoreIssues = ParseScores(files.Scores)
		issues = append(issues, scoreIssues...)
	}

	return &Dataset{Habits: habits, Entries: entries, Scores: scores, Issues: issues}
}
